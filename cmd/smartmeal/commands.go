package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smartmeal/internal/api"
	"smartmeal/internal/app"
	"smartmeal/internal/planner"
	"smartmeal/internal/shopping"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func profileCmd() *cobra.Command {
	var p planner.Profile
	var sex, activity, goal, pref string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Save the profile targets and plans are computed from",
		RunE: func(_ *cobra.Command, _ []string) error {
			p.Sex = planner.Sex(sex)
			p.Activity = planner.Activity(activity)
			p.Goal = planner.Goal(goal)
			p.Preference = planner.Preference(pref)
			return withApp(nil, func(ctx context.Context, a *app.App) error {
				if err := a.SaveProfile(ctx, userID, p); err != nil {
					return err
				}
				printTargets(p)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&p.Age, "age", 30, "age in years")
	cmd.Flags().StringVar(&sex, "sex", "male", "male or female")
	cmd.Flags().Float64Var(&p.HeightCm, "height", 175, "height in cm")
	cmd.Flags().Float64Var(&p.WeightKg, "weight", 70, "weight in kg")
	cmd.Flags().StringVar(&activity, "activity", "moderate", "sedentary, light, moderate, very or extra")
	cmd.Flags().StringVar(&goal, "goal", "maintain", "lose, maintain or gain")
	cmd.Flags().StringVar(&pref, "preference", "omnivore", "omnivore, vegetarian, vegan, low_carb or high_protein")
	cmd.Flags().Float64Var(&p.BudgetPerWeek, "budget", 0, "weekly grocery budget")
	return cmd
}

func targetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "Show daily calorie and macro targets",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withApp(nil, func(ctx context.Context, a *app.App) error {
				p, err := a.Profile(ctx, userID)
				if err != nil {
					return err
				}
				printTargets(*p)
				return nil
			})
		},
	}
}

func planCmd() *cobra.Command {
	var show bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Build a new week plan (or show the current one with --show)",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withApp(nil, func(ctx context.Context, a *app.App) error {
				var plan *planner.WeekPlan
				var err error
				if show {
					plan, err = a.Plan(ctx, userID)
				} else {
					plan, err = a.GeneratePlan(ctx, userID)
				}
				if err != nil {
					return err
				}
				printPlan(plan)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&show, "show", false, "print the saved plan instead of building one")
	return cmd
}

func swapCmd() *cobra.Command {
	var day string
	var meal int
	var mealID string

	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Swap one meal for the closest alternative or a given meal id",
		RunE: func(_ *cobra.Command, _ []string) error {
			dayIdx, ok := planner.DayIndex(day)
			if !ok {
				return fmt.Errorf("unknown day %q", day)
			}
			return withApp(nil, func(ctx context.Context, a *app.App) error {
				var plan *planner.WeekPlan
				var err error
				if mealID != "" {
					plan, err = a.SwapWith(ctx, userID, dayIdx, meal-1, mealID)
				} else {
					plan, err = a.Swap(ctx, userID, dayIdx, meal-1)
				}
				if err != nil {
					return err
				}
				printDay(plan.Days[dayIdx])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&day, "day", "Mon", "day label, e.g. Mon")
	cmd.Flags().IntVar(&meal, "meal", 1, "meal number 1-3 (breakfast, lunch, dinner)")
	cmd.Flags().StringVar(&mealID, "with", "", "catalog meal id to place in the slot")
	return cmd
}

func regenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regen [day]",
		Short: "Rebuild one day of the plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			dayIdx, ok := planner.DayIndex(args[0])
			if !ok {
				return fmt.Errorf("unknown day %q", args[0])
			}
			return withApp(nil, func(ctx context.Context, a *app.App) error {
				plan, err := a.RegenerateDay(ctx, userID, dayIdx)
				if err != nil {
					return err
				}
				printDay(plan.Days[dayIdx])
				return nil
			})
		},
	}
}

func groceryCmd() *cobra.Command {
	var normalize bool

	cmd := &cobra.Command{
		Use:   "grocery",
		Short: "Print the grocery list for the current plan",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withApp(nil, func(ctx context.Context, a *app.App) error {
				list, err := a.Grocery(ctx, userID, normalize)
				if err != nil {
					return err
				}
				printGrocery(list, a.Categorizer())
				if budget := a.Budget(ctx, userID, 0); budget > 0 {
					s := shopping.Budget(list.TotalCost, budget)
					fmt.Printf("Budget: %d%% used (%s), %.2f remaining\n", s.Percent, s.Level, s.Remaining)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&normalize, "normalize", false, "merge quantities across units (kg and g)")
	return cmd
}

func replanCmd() *cobra.Command {
	var budget float64

	cmd := &cobra.Command{
		Use:   "replan",
		Short: "Swap meals for cheaper similar ones until the plan fits the budget",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withApp(nil, func(ctx context.Context, a *app.App) error {
				res, err := a.Replan(ctx, userID, budget)
				if err != nil {
					return err
				}
				r := res.Report
				fmt.Printf("Changed %d meals: %.2f -> %.2f (budget %d, vegetable %d, forced %d)\n",
					res.Changed, r.CostBefore, r.CostAfter, r.BudgetSwaps, r.VegetableSwaps, r.ForcedSwaps)
				if res.Changed > 0 {
					printPlan(res.Plan)
				}
				return nil
			})
		},
	}

	cmd.Flags().Float64Var(&budget, "budget", 0, "weekly budget (defaults to the profile's)")
	return cmd
}

func clipCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clip [url]",
		Short: "Import a recipe page into the meal catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return withApp(nil, func(ctx context.Context, a *app.App) error {
				res, err := a.Clip(ctx, args[0])
				if err != nil {
					return err
				}
				m := res.Meal
				fmt.Printf("Saved %s (%s) via %s: %.0f kcal, %.0fg protein, %.0fg carbs, %.0fg fat\n",
					m.Name, m.ID, res.Source, m.Calories, m.Protein, m.Carbs, m.Fat)
				return nil
			})
		},
	}
}

func publishCmd() *cobra.Command {
	var live bool

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Post the current plan and grocery list to Ghost",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withApp(nil, func(ctx context.Context, a *app.App) error {
				post, err := a.Publish(ctx, userID, live)
				if err != nil {
					return err
				}
				fmt.Printf("Created %s post %q: %s\n", post.Status, post.Title, post.URL)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&live, "live", false, "publish immediately instead of saving a draft")
	return cmd
}

func usageCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Summarize recorded planning operations per day",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withApp(nil, func(ctx context.Context, a *app.App) error {
				usage, err := a.DailyUsage(ctx, days)
				if err != nil {
					return err
				}
				for _, d := range usage {
					fmt.Printf("%s  %4d ops  %4d changed  %8.2f saved  %6.1f ms avg\n",
						d.Date, d.Operations, d.Changed, d.Savings, d.AvgLatencyMS)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "number of days to include")
	return cmd
}

func metricsCleanupCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "metrics-cleanup",
		Short: "Delete recorded operations older than --days",
		RunE: func(_ *cobra.Command, _ []string) error {
			if days < 1 {
				return fmt.Errorf("--days must be at least 1")
			}
			return withApp(nil, func(ctx context.Context, a *app.App) error {
				n, err := a.CleanupMetrics(ctx, days)
				if err != nil {
					return err
				}
				fmt.Printf("Removed %d metrics older than %d days\n", n, days)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "keep this many days of metrics")
	return cmd
}

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP JSON API",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withApp(prometheus.DefaultRegisterer, func(ctx context.Context, a *app.App) error {
				if port == "" {
					port = a.Config().Port
				}
				server := api.New(a, prometheus.DefaultGatherer)

				errc := make(chan error, 1)
				go func() {
					log.Printf("API listening on port %s", port)
					errc <- server.Listen(":" + port)
				}()

				quit := make(chan os.Signal, 1)
				signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
				select {
				case err := <-errc:
					return err
				case <-quit:
				}

				log.Println("Shutting down server...")
				if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
					return fmt.Errorf("server forced to shutdown: %w", err)
				}
				log.Println("Server exiting")
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "HTTP port (defaults to PORT)")
	return cmd
}
