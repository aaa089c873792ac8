package main

import (
	"fmt"

	"smartmeal/internal/catalog"
	"smartmeal/internal/planner"
	"smartmeal/internal/shopping"
)

func printTargets(p planner.Profile) {
	t := p.Targets()
	fmt.Printf("Daily targets: %d kcal, %dg protein, %dg carbs, %dg fat\n", t.Calories, t.Protein, t.Carbs, t.Fat)
}

func printDay(d planner.DayPlan) {
	var kcal float64
	for i, m := range d.Meals {
		label := "   "
		if i == 0 {
			label = d.Day
		}
		kcal += m.Calories
		fmt.Printf("%-4s %-40s %5.0f kcal  %6.2f\n", label, m.Name, m.Calories, catalog.MealCost(m))
	}
	fmt.Printf("%-4s %-40s %5.0f kcal\n", "", "", kcal)
}

func printPlan(plan *planner.WeekPlan) {
	fmt.Println("\n=== WEEKLY MEAL PLAN ===")
	if !plan.WeekStart.IsZero() {
		fmt.Printf("Week of %s\n", plan.WeekStart.Format("2006-01-02"))
	}
	for _, d := range plan.Days {
		printDay(d)
	}
	fmt.Printf("Estimated cost: %.2f\n", plan.TotalCost())
}

func printGrocery(list shopping.List, c shopping.Categorizer) {
	fmt.Println("\n=== SHOPPING LIST ===")
	for _, g := range shopping.GroupItems(list.Items, c) {
		fmt.Printf("\n%s\n", g.Category)
		for _, it := range g.Items {
			cost := ""
			if it.Cost != nil {
				cost = fmt.Sprintf("%.2f", *it.Cost)
			}
			fmt.Printf("- %-30s %8s %-5s %8s\n", it.Name, shopping.FormatQty(it.Qty), it.Unit, cost)
		}
	}
	fmt.Printf("\nTotal: %.2f\n", list.TotalCost)
}
