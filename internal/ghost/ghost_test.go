package ghost

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"smartmeal/internal/catalog"
	"smartmeal/internal/config"
	"smartmeal/internal/planner"
	"smartmeal/internal/shopping"

	"github.com/golang-jwt/jwt/v5"
)

const testSecretHex = "0123456789abcdef0123456789abcdef"

func TestCreatePost(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/ghost/api/v3/admin/posts/" {
				t.Errorf("Expected admin posts path, got '%s'", r.URL.Path)
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Ghost ") {
				t.Fatalf("Expected 'Ghost ' authorization, got '%s'", auth)
			}

			secret, _ := hex.DecodeString(testSecretHex)
			token, err := jwt.Parse(strings.TrimPrefix(auth, "Ghost "), func(tok *jwt.Token) (interface{}, error) {
				return secret, nil
			}, jwt.WithAudience("/v3/admin/"))
			if err != nil {
				t.Errorf("Expected a valid admin token, got %v", err)
			} else if token.Header["kid"] != "key-id" {
				t.Errorf("Expected kid 'key-id', got '%v'", token.Header["kid"])
			}

			var body struct {
				Posts []map[string]interface{} `json:"posts"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("Expected a JSON body, got %v", err)
			}
			if len(body.Posts) != 1 || body.Posts[0]["status"] != "published" {
				t.Errorf("Expected one published post, got %v", body.Posts)
			}

			w.WriteHeader(http.StatusCreated)
			fmt.Fprintln(w, `{"posts":[{"id":"p1","title":"Plan","url":"http://ghost.test/plan/","status":"published"}]}`)
		}))
		defer server.Close()

		client := NewClient(&config.Config{GhostURL: server.URL, GhostAdminKey: "key-id:" + testSecretHex})
		post, err := client.CreatePost(context.Background(), "Plan", "<p>hi</p>", true)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if post.ID != "p1" || post.URL != "http://ghost.test/plan/" {
			t.Errorf("Expected post p1, got %+v", post)
		}
	})

	t.Run("ServerError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprintln(w, `{"errors":[{"message":"Invalid token"}]}`)
		}))
		defer server.Close()

		client := NewClient(&config.Config{GhostURL: server.URL, GhostAdminKey: "key-id:" + testSecretHex})
		if _, err := client.CreatePost(context.Background(), "Plan", "<p>hi</p>", false); err == nil {
			t.Fatal("Expected an error for a 401 response, got nil")
		}
	})

	t.Run("InvalidAdminKey", func(t *testing.T) {
		for _, key := range []string{"no-colon", "id:not-hex"} {
			client := NewClient(&config.Config{GhostURL: "http://unused", GhostAdminKey: key})
			if _, err := client.CreatePost(context.Background(), "Plan", "", false); err == nil {
				t.Errorf("Expected an error for admin key '%s', got nil", key)
			}
		}
	})
}

func TestFormatPlanHTML(t *testing.T) {
	plan, err := planner.BuildWeekPlan(catalog.Default().Meals(), planner.Profile{
		Age: 30, Sex: planner.Male, HeightCm: 180, WeightKg: 80,
		Activity: planner.Moderate, Goal: planner.Maintain, Preference: planner.Omnivore,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	list := shopping.Aggregate(plan)

	out := FormatPlanHTML(plan, list, nil)

	for _, day := range planner.Days {
		if !strings.Contains(out, "<h2>"+day+"</h2>") {
			t.Errorf("Expected a heading for %s", day)
		}
	}
	if !strings.Contains(out, "<h2>Grocery list</h2>") {
		t.Error("Expected a grocery list section")
	}
	want := fmt.Sprintf("Estimated total: $%.2f", list.TotalCost)
	if !strings.Contains(out, want) {
		t.Errorf("Expected output to contain '%s'", want)
	}
	if !strings.Contains(out, html.EscapeString(plan.Days[0].Meals[0].Name)) {
		t.Errorf("Expected output to mention '%s'", plan.Days[0].Meals[0].Name)
	}
}

func TestPostTitle(t *testing.T) {
	plan := &planner.WeekPlan{}
	if got := PostTitle(plan); got != "Weekly meal plan" {
		t.Errorf("Expected 'Weekly meal plan', got '%s'", got)
	}
	plan.WeekStart = time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)
	if got := PostTitle(plan); got != "Meal plan for the week of October 19, 2026" {
		t.Errorf("Expected dated title, got '%s'", got)
	}
}
