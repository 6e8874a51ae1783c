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

var reconcileWithSweep bool

// reconcileCmd runs the consistency repair pass on demand.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Repair copy state orphaned by partial failures",
	Long: `Realigns copy state with the true set of active reservations and loans:
copies marked LOANED or RESERVED with no matching active row are reset to
AVAILABLE. Idempotent; running it on a consistent dataset changes nothing.

Examples:
  # Repair only
  library-circulation reconcile

  # Full recovery: expire overdue reservations first, then repair
  library-circulation reconcile --sweep`,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().BoolVar(&reconcileWithSweep, "sweep", false, "Run the expiry sweeper before reconciling")
	RootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
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
	ctx := context.Background()

	if reconcileWithSweep {
		swept, err := svc.SweepExpired(ctx)
		if err != nil {
			return err
		}
		logg.Info("Sweep finished", zap.Int("swept", swept))
	}

	result, err := svc.Reconcile(ctx)
	if err != nil {
		return err
	}

	logg.Info("Reconciliation finished",
		zap.Int("released_loaned", result.ReleasedLoaned),
		zap.Int("released_reserved", result.ReleasedReserved),
	)
	return nil
}
