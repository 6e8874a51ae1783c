package cmd

import (
	"context"
	"log"

	"library-circulation/core/config"
	"library-circulation/core/database"
	"library-circulation/core/logger"
	"library-circulation/feature/circulation"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// sweepCmd expires overdue reservations on demand, independent of the
// background schedule.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Expire overdue reservations",
	Long: `Runs the expiry sweeper once: every active reservation past its deadline
is marked EXPIRED and its copy released. Safe to re-run at any time.`,
	RunE: runSweep,
}

func init() {
	RootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg, err := logger.New(&logger.Config{Level: cfg.Log.Level, Format: "console"})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logg.Sync()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}

	svc := circulation.NewService(db, logg, cfg.Policy, nil)

	swept, err := svc.SweepExpired(context.Background())
	if err != nil {
		return err
	}

	logg.Info("Sweep finished", zap.Int("swept", swept))
	return nil
}
