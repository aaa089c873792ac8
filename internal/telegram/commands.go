package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"smartmeal/internal/app"
	"smartmeal/internal/planner"
	"smartmeal/internal/shopping"
	"smartmeal/internal/tracking"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = `🥗 *smartmeal*

/profile age=30 sex=male height=180 weight=80 activity=moderate goal=maintain pref=omnivore budget=100
/targets - daily macro targets
/plan - build a new week plan
/grocery - shopping list for the plan
/replan 80 - fit the plan under a weekly budget
/swap Mon 2 - pick another meal for a slot
/regen Tue - rebuild one day
/log Mon 1 - log a planned meal for today
/undo - undo today's last log
/publish - post the plan to the blog
Send a recipe link to add it to the catalog.`

// maxSwapChoices bounds the inline keyboard.
const maxSwapChoices = 6

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, cmd, args string) {
	chatID := msg.Chat.ID
	userID := userKey(msg.From.ID)

	switch cmd {
	case "start", "help":
		b.reply(chatID, helpText)
	case "profile":
		b.handleProfile(ctx, chatID, userID, args)
	case "targets":
		t, err := b.app.Targets(ctx, userID)
		if err != nil {
			b.replyAppError(chatID, "loading targets", err)
			return
		}
		b.reply(chatID, formatTargets(t.Calories, t.Protein, t.Carbs, t.Fat))
	case "plan":
		b.handlePlan(ctx, chatID, userID)
	case "grocery":
		b.handleGrocery(ctx, chatID, userID)
	case "replan":
		b.handleReplan(ctx, chatID, userID, args)
	case "swap":
		b.handleSwap(ctx, chatID, userID, args)
	case "regen":
		dayIdx, ok := planner.DayIndex(args)
		if !ok {
			b.reply(chatID, "Usage: /regen Tue")
			return
		}
		plan, err := b.app.RegenerateDay(ctx, userID, dayIdx)
		if err != nil {
			b.replyAppError(chatID, "regenerating day", err)
			return
		}
		b.reply(chatID, formatDayMarkdown(plan.Days[dayIdx]))
	case "log":
		b.handleLog(ctx, chatID, userID, args)
	case "undo":
		day, undone, err := b.app.Tracker().Undo(ctx, userID, time.Now().Format(tracking.DateLayout))
		if err != nil {
			b.replyError(chatID, "undoing log", err)
			return
		}
		if !undone {
			b.reply(chatID, "Nothing to undo today.")
			return
		}
		b.reply(chatID, formatDayLog(day))
	case "publish":
		b.handlePublish(ctx, chatID, userID)
	case "metrics":
		if msg.From.ID != b.cfg.AdminTelegramID {
			b.reply(chatID, "⛔ *Access Denied*: Admin only.")
			return
		}
		b.handleMetricsCommand(ctx, chatID)
	default:
		b.reply(chatID, helpText)
	}
}

// replyAppError turns the common "missing state" errors into guidance.
func (b *Bot) replyAppError(chatID int64, action string, err error) {
	switch {
	case errors.Is(err, app.ErrNoProfile):
		b.reply(chatID, "Set up your profile first:\n/profile age=30 sex=male height=180 weight=80 activity=moderate goal=maintain")
	case errors.Is(err, app.ErrNoPlan):
		b.reply(chatID, "You don't have a plan yet. Send /plan to build one.")
	case errors.Is(err, planner.ErrSlotOutOfRange), errors.Is(err, planner.ErrInvalidProfile):
		b.reply(chatID, "⚠️ "+err.Error())
	default:
		b.replyError(chatID, action, err)
	}
}

func (b *Bot) handleProfile(ctx context.Context, chatID int64, userID, args string) {
	base := planner.Profile{Activity: planner.Moderate, Goal: planner.Maintain, Preference: planner.Omnivore}
	if p, err := b.app.Profile(ctx, userID); err == nil {
		base = *p
	}

	if args == "" {
		b.reply(chatID, formatProfile(base))
		return
	}

	p, err := parseProfileArgs(base, args)
	if err != nil {
		b.reply(chatID, "⚠️ "+err.Error())
		return
	}
	if err := b.app.SaveProfile(ctx, userID, p); err != nil {
		b.replyAppError(chatID, "saving profile", err)
		return
	}
	t := p.Targets()
	b.reply(chatID, "✅ Profile saved.\n\n"+formatTargets(t.Calories, t.Protein, t.Carbs, t.Fat))
}

// parseProfileArgs applies key=value pairs on top of base.
func parseProfileArgs(base planner.Profile, args string) (planner.Profile, error) {
	p := base
	for _, field := range strings.Fields(args) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return p, fmt.Errorf("expected key=value, got %q", field)
		}
		value = strings.ToLower(value)
		var err error
		switch strings.ToLower(key) {
		case "age":
			p.Age, err = strconv.Atoi(value)
		case "sex":
			p.Sex = planner.Sex(value)
		case "height":
			p.HeightCm, err = strconv.ParseFloat(value, 64)
		case "weight":
			p.WeightKg, err = strconv.ParseFloat(value, 64)
		case "activity":
			p.Activity = planner.Activity(value)
		case "goal":
			p.Goal = planner.Goal(value)
		case "pref", "preference":
			p.Preference = planner.Preference(value)
		case "budget":
			p.BudgetPerWeek, err = strconv.ParseFloat(value, 64)
		default:
			return p, fmt.Errorf("unknown profile field %q", key)
		}
		if err != nil {
			return p, fmt.Errorf("invalid %s %q", key, value)
		}
	}
	return p, nil
}

func (b *Bot) handlePlan(ctx context.Context, chatID int64, userID string) {
	plan, err := b.app.GeneratePlan(ctx, userID)
	if err != nil {
		b.replyAppError(chatID, "generating plan", err)
		return
	}
	b.reply(chatID, formatPlanMarkdown(plan))
	b.handleGrocery(ctx, chatID, userID)
}

func (b *Bot) handleGrocery(ctx context.Context, chatID int64, userID string) {
	list, err := b.app.Grocery(ctx, userID, false)
	if err != nil {
		b.replyAppError(chatID, "building grocery list", err)
		return
	}
	var status *shopping.BudgetStatus
	if budget := b.app.Budget(ctx, userID, 0); budget > 0 {
		s := shopping.Budget(list.TotalCost, budget)
		status = &s
	}
	b.reply(chatID, formatGroceryMarkdown(list, b.app.Categorizer(), status))
}

func (b *Bot) handleReplan(ctx context.Context, chatID int64, userID, args string) {
	var budget float64
	if args != "" {
		v, err := strconv.ParseFloat(strings.TrimPrefix(args, "$"), 64)
		if err != nil || v <= 0 {
			b.reply(chatID, "Usage: /replan 80")
			return
		}
		budget = v
	}

	if b.app.Budget(ctx, userID, budget) <= 0 {
		if b.sessions == nil {
			b.reply(chatID, "Usage: /replan 80")
			return
		}
		if err := b.sessions.Start(ctx, userID, SessionAwaitBudget, sessionTTL); err != nil {
			b.replyError(chatID, "starting replan", err)
			return
		}
		b.reply(chatID, "💰 What's your weekly budget?")
		return
	}
	b.replan(ctx, chatID, userID, budget)
}

func (b *Bot) replan(ctx context.Context, chatID int64, userID string, budget float64) {
	res, err := b.app.Replan(ctx, userID, budget)
	if err != nil {
		b.replyAppError(chatID, "replanning", err)
		return
	}
	b.reply(chatID, formatReplanReport(res.Report, res.Changed))
	if res.Changed > 0 {
		b.reply(chatID, formatPlanMarkdown(res.Plan))
	}
}

// parseSlot reads "Mon 2" or "mon dinner" into zero-based indexes.
func parseSlot(args string) (int, int, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("expected a day and a meal, e.g. Mon 2")
	}
	dayIdx, ok := planner.DayIndex(fields[0])
	if !ok {
		return 0, 0, fmt.Errorf("unknown day %q", fields[0])
	}
	switch strings.ToLower(fields[1]) {
	case "breakfast", "b":
		return dayIdx, planner.SlotBreakfast, nil
	case "lunch", "l":
		return dayIdx, planner.SlotLunch, nil
	case "dinner", "d":
		return dayIdx, planner.SlotDinner, nil
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 1 || n > planner.SlotsPerDay {
		return 0, 0, fmt.Errorf("meal must be 1-%d", planner.SlotsPerDay)
	}
	return dayIdx, n - 1, nil
}

func (b *Bot) handleSwap(ctx context.Context, chatID int64, userID, args string) {
	dayIdx, mealIdx, err := parseSlot(args)
	if err != nil {
		b.reply(chatID, "⚠️ "+err.Error()+"\nUsage: /swap Mon 2")
		return
	}
	alts, err := b.app.Alternates(ctx, userID, dayIdx, mealIdx)
	if err != nil {
		b.replyAppError(chatID, "listing alternatives", err)
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, m := range alts {
		if i == maxSwapChoices {
			break
		}
		label := fmt.Sprintf("%s (%.0f kcal)", m.Name, m.Calories)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, swapData(dayIdx, mealIdx, m.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🎲 Closest match", swapData(dayIdx, mealIdx, "")),
	))

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("🔁 Pick a new meal for *%s*, slot %d:", planner.Days[dayIdx], mealIdx+1))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.api.Send(msg); err != nil {
		b.replyError(chatID, "sending choices", err)
	}
}

// swapData encodes a swap choice in the 64 bytes Telegram allows.
func swapData(dayIdx, mealIdx int, mealID string) string {
	return fmt.Sprintf("swap|%d|%d|%s", dayIdx, mealIdx, mealID)
}

func parseSwapData(data string) (int, int, string, error) {
	parts := strings.SplitN(data, "|", 4)
	if len(parts) != 4 || parts[0] != "swap" {
		return 0, 0, "", fmt.Errorf("unexpected callback %q", data)
	}
	dayIdx, err1 := strconv.Atoi(parts[1])
	mealIdx, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil {
		return 0, 0, "", fmt.Errorf("unexpected callback %q", data)
	}
	return dayIdx, mealIdx, parts[3], nil
}

func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	// Answer callback to remove spinner
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		log.Printf("Failed to answer callback: %v", err)
	}
	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID
	userID := userKey(query.From.ID)

	dayIdx, mealIdx, mealID, err := parseSwapData(query.Data)
	if err != nil {
		log.Printf("Ignoring callback: %v", err)
		return
	}

	var plan *planner.WeekPlan
	if mealID == "" {
		plan, err = b.app.Swap(ctx, userID, dayIdx, mealIdx)
	} else {
		plan, err = b.app.SwapWith(ctx, userID, dayIdx, mealIdx, mealID)
	}
	if err != nil {
		b.replyAppError(chatID, "swapping meal", err)
		return
	}

	edit := tgbotapi.NewEditMessageText(chatID, query.Message.MessageID, formatDayMarkdown(plan.Days[dayIdx]))
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(edit); err != nil {
		log.Printf("Failed to edit message: %v", err)
	}
}

func (b *Bot) handleLog(ctx context.Context, chatID int64, userID, args string) {
	dayIdx, mealIdx, err := parseSlot(args)
	if err != nil {
		b.reply(chatID, "⚠️ "+err.Error()+"\nUsage: /log Mon 1")
		return
	}
	plan, err := b.app.Plan(ctx, userID)
	if err != nil {
		b.replyAppError(chatID, "logging meal", err)
		return
	}
	meal := plan.Days[dayIdx].Meals[mealIdx]
	day, err := b.app.Tracker().LogMeal(ctx, userID, time.Now().Format(tracking.DateLayout), meal)
	if err != nil {
		b.replyError(chatID, "logging meal", err)
		return
	}
	b.reply(chatID, fmt.Sprintf("✅ Logged %s.\n\n%s", escape(meal.Name), formatDayLog(day)))
}

func (b *Bot) handlePublish(ctx context.Context, chatID int64, userID string) {
	post, err := b.app.Publish(ctx, userID, false)
	if err != nil {
		if errors.Is(err, app.ErrPublishingDisabled) {
			b.reply(chatID, "Publishing is not configured.")
			return
		}
		b.replyAppError(chatID, "publishing plan", err)
		return
	}
	b.reply(chatID, fmt.Sprintf("📝 Draft created: *%s*\n%s", escape(post.Title), post.URL))
}

func (b *Bot) handleClip(ctx context.Context, chatID int64, url string) {
	res, err := b.app.Clip(ctx, url)
	if err != nil {
		b.replyError(chatID, "clipping recipe", err)
		return
	}
	m := res.Meal
	b.reply(chatID, fmt.Sprintf("✅ *Recipe Saved!*\n\n*Title:* %s\n%.0f kcal · %.0fg protein · %.0fg carbs · %.0fg fat",
		escape(m.Name), m.Calories, m.Protein, m.Carbs, m.Fat))

	if res.Meta.Usage.PromptTokens > 4000 {
		b.sendAdminAlert(fmt.Sprintf("⚠️ *Context Bloat Alert*\nAgent: Clipper\nModel: %s\nPrompt Tokens: %d", res.Meta.Usage.Model, res.Meta.Usage.PromptTokens))
	}
}

func (b *Bot) continueSession(ctx context.Context, msg *tgbotapi.Message, s *Session) {
	chatID := msg.Chat.ID
	switch s.Kind {
	case SessionAwaitBudget:
		v, err := strconv.ParseFloat(strings.TrimPrefix(strings.TrimSpace(msg.Text), "$"), 64)
		if err != nil || v <= 0 {
			b.reply(chatID, "Please send a number, e.g. 80")
			return
		}
		if err := b.sessions.Delete(ctx, s.UserID); err != nil {
			log.Printf("Failed to clear session for %s: %v", s.UserID, err)
		}
		b.replan(ctx, chatID, s.UserID, v)
	default:
		_ = b.sessions.Delete(ctx, s.UserID)
		b.reply(chatID, helpText)
	}
}

func (b *Bot) handleMetricsCommand(ctx context.Context, chatID int64) {
	usage, err := b.app.DailyUsage(ctx, 7)
	if err != nil {
		b.reply(chatID, "❌ Error fetching metrics.")
		return
	}
	b.reply(chatID, formatMetrics(usage, b.app.Health()))
}
