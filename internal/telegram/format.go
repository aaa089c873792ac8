package telegram

import (
	"fmt"
	"strings"

	"smartmeal/internal/metrics"
	"smartmeal/internal/planner"
	"smartmeal/internal/replan"
	"smartmeal/internal/shopping"
	"smartmeal/internal/tracking"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var slotLabels = [planner.SlotsPerDay]string{"🍳", "🥗", "🍲"}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func formatTargets(kcal, protein, carbs, fat int) string {
	return fmt.Sprintf("🎯 *Daily targets*\n%d kcal · %dg protein · %dg carbs · %dg fat", kcal, protein, carbs, fat)
}

func formatProfile(p planner.Profile) string {
	return fmt.Sprintf("👤 *Profile*\nAge: %d\nSex: %s\nHeight: %.0f cm\nWeight: %.1f kg\nActivity: %s\nGoal: %s\nPreference: %s\nBudget: $%.2f/week",
		p.Age, p.Sex, p.HeightCm, p.WeightKg, p.Activity, p.Goal, escape(string(p.Preference)), p.BudgetPerWeek)
}

func formatDayMarkdown(d planner.DayPlan) string {
	var sb strings.Builder
	var kcal float64
	fmt.Fprintf(&sb, "*%s*\n", d.Day)
	for i, m := range d.Meals {
		label := "•"
		if i < len(slotLabels) {
			label = slotLabels[i]
		}
		kcal += m.Calories
		fmt.Fprintf(&sb, "%s %s (%.0f kcal)\n", label, escape(m.Name), m.Calories)
	}
	fmt.Fprintf(&sb, "_%.0f kcal_\n", kcal)
	return sb.String()
}

func formatPlanMarkdown(plan *planner.WeekPlan) string {
	var sb strings.Builder
	sb.WriteString("📅 *Weekly Meal Plan*\n")
	if !plan.WeekStart.IsZero() {
		fmt.Fprintf(&sb, "_Week of %s_\n", plan.WeekStart.Format("2006-01-02"))
	}
	t := plan.Targets
	fmt.Fprintf(&sb, "Target: %d kcal/day\n\n", t.Calories)

	for _, d := range plan.Days {
		sb.WriteString(formatDayMarkdown(d))
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "💵 *Estimated cost:* $%.2f", plan.TotalCost())
	return sb.String()
}

func formatGroceryMarkdown(list shopping.List, c shopping.Categorizer, status *shopping.BudgetStatus) string {
	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*\n")
	if len(list.Items) == 0 {
		sb.WriteString("\n_Nothing to buy_\n")
	}
	for _, g := range shopping.GroupItems(list.Items, c) {
		fmt.Fprintf(&sb, "\n*%s*\n", g.Category)
		for _, it := range g.Items {
			fmt.Fprintf(&sb, "• %s %s %s", escape(it.Name), shopping.FormatQty(it.Qty), escape(it.Unit))
			if it.Cost != nil {
				fmt.Fprintf(&sb, " ($%.2f)", *it.Cost)
			}
			sb.WriteString("\n")
		}
	}
	fmt.Fprintf(&sb, "\n💵 *Total:* $%.2f", list.TotalCost)
	if status != nil {
		icon := "🟢"
		switch status.Level {
		case shopping.NearBudget:
			icon = "🟡"
		case shopping.OverBudget:
			icon = "🔴"
		}
		fmt.Fprintf(&sb, "\n%s %d%% of budget ($%.2f left)", icon, status.Percent, status.Remaining)
	}
	return sb.String()
}

func formatReplanReport(r replan.Report, changed int) string {
	if changed == 0 {
		return fmt.Sprintf("✅ No changes needed. Plan cost: $%.2f", r.CostAfter)
	}
	return fmt.Sprintf("♻️ *Replanned* %d meals\nCost: $%.2f → $%.2f\nBudget swaps: %d · Vegetable swaps: %d · Forced swaps: %d",
		changed, r.CostBefore, r.CostAfter, r.BudgetSwaps, r.VegetableSwaps, r.ForcedSwaps)
}

func formatDayLog(d tracking.DayLog) string {
	return fmt.Sprintf("📒 *%s*\n%.0f kcal · %.0fg protein · %.0fg carbs · %.0fg fat", d.Date, d.Calories, d.Protein, d.Carbs, d.Fat)
}

func formatMetrics(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• *%s*: %d ops, %d meals changed, $%.2f saved\n", d.Date, d.Operations, d.Changed, d.Savings)
	}

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %s (Alloc) / %s (Sys)\n", health.Alloc, health.Sys)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Disk Data: %s\n", health.DataDiskSize)
	return sb.String()
}
