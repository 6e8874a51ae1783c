package circulation

import (
	"context"
	"fmt"

	"library-circulation/feature/circulation/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReconcileResult summarizes a consistency repair pass.
type ReconcileResult struct {
	// ReleasedLoaned counts copies marked LOANED with no active loan that
	// were reset to AVAILABLE.
	ReleasedLoaned int `json:"released_loaned"`
	// ReleasedReserved counts copies marked RESERVED with no active
	// reservation that were reset to AVAILABLE.
	ReleasedReserved int `json:"released_reserved"`
}

// Changed reports whether the pass repaired anything.
func (r ReconcileResult) Changed() bool {
	return r.ReleasedLoaned > 0 || r.ReleasedReserved > 0
}

// Reconcile realigns copy state with the true set of active reservations and
// loans. A crash between the two halves of a lifecycle mutation, or a manual
// data correction, can leave a copy claiming a holder that no longer exists;
// this pass is the safety net. It is idempotent: on a consistent dataset it
// changes nothing.
func (s *Service) Reconcile(ctx context.Context) (*ReconcileResult, error) {
	s.logger.Info("Running consistency reconciliation")

	var result ReconcileResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		activeLoans := tx.Model(&models.Loan{}).
			Select("copy_id").
			Where("state = ?", models.LoanActive)

		res := tx.Model(&models.Copy{}).
			Where("state = ?", models.CopyLoaned).
			Where("id NOT IN (?)", activeLoans).
			Updates(map[string]any{"state": models.CopyAvailable, "version": gorm.Expr("version + 1")})
		if res.Error != nil {
			return fmt.Errorf("release orphaned loaned copies: %w", res.Error)
		}
		result.ReleasedLoaned = int(res.RowsAffected)

		activeReservations := tx.Model(&models.Reservation{}).
			Select("copy_id").
			Where("state = ?", models.ReservationActive)

		res = tx.Model(&models.Copy{}).
			Where("state = ?", models.CopyReserved).
			Where("id NOT IN (?)", activeReservations).
			Updates(map[string]any{"state": models.CopyAvailable, "version": gorm.Expr("version + 1")})
		if res.Error != nil {
			return fmt.Errorf("release orphaned reserved copies: %w", res.Error)
		}
		result.ReleasedReserved = int(res.RowsAffected)

		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Changed() {
		s.logger.Warn("Reconciliation repaired orphaned copies",
			zap.Int("released_loaned", result.ReleasedLoaned),
			zap.Int("released_reserved", result.ReleasedReserved),
		)
	} else {
		s.logger.Info("Reconciliation found no inconsistencies")
	}

	return &result, nil
}
