package main

import (
	"context"
	"log"
	"os"

	"smartmeal/internal/app"
	"smartmeal/internal/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var userID string

func main() {
	rootCmd := &cobra.Command{
		Use:          "smartmeal",
		Short:        "Weekly meal planning with targets, grocery lists and budget replans",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", "default_user", "user id the command acts on")

	rootCmd.AddCommand(profileCmd())
	rootCmd.AddCommand(targetsCmd())
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(swapCmd())
	rootCmd.AddCommand(regenCmd())
	rootCmd.AddCommand(groceryCmd())
	rootCmd.AddCommand(replanCmd())
	rootCmd.AddCommand(clipCmd())
	rootCmd.AddCommand(publishCmd())
	rootCmd.AddCommand(usageCmd())
	rootCmd.AddCommand(metricsCleanupCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withApp loads configuration, wires the app and runs fn against it.
func withApp(reg prometheus.Registerer, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	a, cleanup, err := app.Bootstrap(ctx, cfg, reg)
	if err != nil {
		return err
	}
	defer cleanup()

	return fn(ctx, a)
}
