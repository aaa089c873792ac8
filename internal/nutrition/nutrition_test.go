package nutrition

import "testing"

func TestComputeTargets(t *testing.T) {
	in := Input{Age: 28, Sex: "male", HeightCm: 175, WeightKg: 72, Activity: "moderate", Goal: "maintain", Preference: "omnivore"}

	got := ComputeTargets(in)
	if got.Calories <= 1800 || got.Protein <= 100 || got.Carbs <= 150 || got.Fat <= 40 {
		t.Fatalf("Expected positive targets above thresholds, got %+v", got)
	}

	// BMR 1678.75 × 1.55 = 2602.06
	want := MacroTargets{Calories: 2602, Protein: 195, Carbs: 293, Fat: 72}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestBMR(t *testing.T) {
	male := Input{Age: 30, Sex: "male", HeightCm: 180, WeightKg: 80}
	female := male
	female.Sex = "female"

	if got := BMR(male); got != 1780 {
		t.Errorf("Expected male BMR 1780, got %v", got)
	}
	if got := BMR(female); got != 1614 {
		t.Errorf("Expected female BMR 1614, got %v", got)
	}
}

func TestAdjustForGoal(t *testing.T) {
	tests := []struct {
		goal string
		want int
	}{
		{"lose", 1600},
		{"gain", 2300},
		{"maintain", 2000},
		{"", 2000},
	}
	for _, tt := range tests {
		if got := AdjustForGoal(2000, tt.goal); got != tt.want {
			t.Errorf("goal %q: Expected %d, got %d", tt.goal, tt.want, got)
		}
	}

	if got := AdjustForGoal(1999.5, "maintain"); got != 2000 {
		t.Errorf("Expected half to round up, got %d", got)
	}
}

func TestMacroSplit(t *testing.T) {
	if s := MacroSplit("low_carb"); s.Fat != 0.45 || s.Carbs != 0.25 {
		t.Errorf("Unexpected low_carb split %+v", s)
	}
	if s := MacroSplit("high_protein"); s.Protein != 0.35 {
		t.Errorf("Unexpected high_protein split %+v", s)
	}
	if s := MacroSplit("vegan"); s != defaultSplit {
		t.Errorf("Expected default split for vegan, got %+v", s)
	}
}

func TestActivityFactorUnknown(t *testing.T) {
	if f := ActivityFactor("couch"); f != 1.2 {
		t.Errorf("Expected sedentary factor for unknown level, got %v", f)
	}
}

func TestProteinPer100g(t *testing.T) {
	tests := []struct {
		name string
		want float64
		ok   bool
	}{
		{"Ức gà", 31, true},
		{"Cá hồi phi lê", 25, true},
		{"cá thu", 22, true},
		{"Chicken breast", 31, true},
		{"Rice", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ProteinPer100g(tt.name)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Expected (%v, %v), got (%v, %v)", tt.want, tt.ok, got, ok)
			}
		})
	}
}
