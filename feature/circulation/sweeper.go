package circulation

import (
	"context"
	"fmt"
	"time"

	"library-circulation/feature/circulation/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SweepExpired expires every active reservation past its deadline and
// releases the held copies. Each reservation is processed in its own
// transaction, so the sweep is safe to run concurrently with live traffic
// and safe to re-run: a reservation that was cancelled or converted in the
// meantime simply loses the state guard and is skipped.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	now := s.clock.Now()

	var expired []models.Reservation
	err := s.db.WithContext(ctx).
		Where("state = ? AND ends_at < ?", models.ReservationActive, now).
		Find(&expired).Error
	if err != nil {
		return 0, fmt.Errorf("find expired reservations: %w", err)
	}

	swept := 0
	for _, reservation := range expired {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := finalizeReservation(tx, reservation.ID, models.ReservationExpired); err != nil {
				return err
			}
			// The copy may already have moved on (staff override, repair);
			// releasing it is conditional rather than mandatory.
			_, err := s.registry.SetStateIf(tx, reservation.CopyID, models.CopyReserved, models.CopyAvailable)
			return err
		})
		switch {
		case err == nil:
			swept++
		case IsConflict(err):
			// Lost the race against a live cancel or convert.
			continue
		default:
			s.logger.Error("Failed to expire reservation",
				zap.Uint("reservation_id", reservation.ID),
				zap.Error(err),
			)
		}
	}

	if swept > 0 {
		s.logger.Info("Expired reservations swept", zap.Int("count", swept))
	}
	return swept, nil
}

// Sweeper runs SweepExpired on a fixed schedule until its context is
// cancelled.
type Sweeper struct {
	service  *Service
	interval time.Duration
	logger   *zap.Logger
}

// NewSweeper creates a background sweeper. A non-positive interval disables
// the schedule; manual sweeps stay available.
func NewSweeper(service *Service, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{service: service, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled. Call it on its own goroutine.
func (w *Sweeper) Run(ctx context.Context) {
	if w.interval <= 0 {
		w.logger.Info("Expiry sweeper schedule disabled")
		return
	}

	w.logger.Info("Expiry sweeper started", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Expiry sweeper stopped")
			return
		case <-ticker.C:
			if _, err := w.service.SweepExpired(ctx); err != nil {
				w.logger.Error("Scheduled sweep failed", zap.Error(err))
			}
		}
	}
}
