package ghost

import (
	"fmt"
	"html"
	"strings"

	"smartmeal/internal/catalog"
	"smartmeal/internal/planner"
	"smartmeal/internal/shopping"
)

// PostTitle names a plan post after the week it starts.
func PostTitle(plan *planner.WeekPlan) string {
	if plan.WeekStart.IsZero() {
		return "Weekly meal plan"
	}
	return "Meal plan for the week of " + plan.WeekStart.Format("January 2, 2006")
}

// FormatPlanHTML renders a plan and its grocery list, grouped by category, as
// post HTML.
func FormatPlanHTML(plan *planner.WeekPlan, list shopping.List, c shopping.Categorizer) string {
	if c == nil {
		c = shopping.DefaultCategorizer
	}
	var sb strings.Builder

	t := plan.Targets
	fmt.Fprintf(&sb, "<p>Daily targets: %d kcal, %dg protein, %dg carbs, %dg fat.</p>\n",
		t.Calories, t.Protein, t.Carbs, t.Fat)

	labels := [planner.SlotsPerDay]string{"Breakfast", "Lunch", "Dinner"}
	for _, day := range plan.Days {
		fmt.Fprintf(&sb, "<h2>%s</h2>\n<ul>\n", html.EscapeString(day.Day))
		var kcal float64
		for i, m := range day.Meals {
			label := "Meal"
			if i < len(labels) {
				label = labels[i]
			}
			kcal += m.Calories
			fmt.Fprintf(&sb, "<li><strong>%s:</strong> %s (%.0f kcal, $%.2f)</li>\n",
				label, mealLink(m), m.Calories, catalog.MealCost(m))
		}
		fmt.Fprintf(&sb, "</ul>\n<p><em>%.0f kcal</em></p>\n", kcal)
	}

	sb.WriteString("<h2>Grocery list</h2>\n")
	for _, g := range shopping.GroupItems(list.Items, c) {
		fmt.Fprintf(&sb, "<h3>%s</h3>\n<ul>\n", html.EscapeString(string(g.Category)))
		for _, it := range g.Items {
			fmt.Fprintf(&sb, "<li>%s %s %s", html.EscapeString(it.Name), shopping.FormatQty(it.Qty), html.EscapeString(it.Unit))
			if it.Cost != nil {
				fmt.Fprintf(&sb, " ($%.2f)", *it.Cost)
			}
			sb.WriteString("</li>\n")
		}
		sb.WriteString("</ul>\n")
	}
	fmt.Fprintf(&sb, "<p><strong>Estimated total: $%.2f</strong></p>\n", list.TotalCost)
	return sb.String()
}

func mealLink(m catalog.Meal) string {
	name := html.EscapeString(m.Name)
	if m.SourceURL == "" {
		return name
	}
	return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(m.SourceURL), name)
}
