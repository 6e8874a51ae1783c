package circulation

import (
	"fmt"
	"time"

	"library-circulation/feature/circulation/models"

	"gorm.io/gorm"
)

// canAcquire is the limit rule: a member may take one more item while their
// active reservations plus active loans stay below the resolved limit.
func canAcquire(limit, activeReservations, activeLoans int64) bool {
	return activeReservations+activeLoans < limit
}

// countActiveReservations counts reservations that still hold a copy for the
// member. Reservations past their deadline are excluded even before the
// sweeper has expired them.
func countActiveReservations(tx *gorm.DB, memberID uint, now time.Time) (int64, error) {
	var n int64
	err := tx.Model(&models.Reservation{}).
		Where("member_id = ? AND state = ? AND ends_at > ?", memberID, models.ReservationActive, now).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count active reservations: %w", err)
	}
	return n, nil
}

func countActiveLoans(tx *gorm.DB, memberID uint) (int64, error) {
	var n int64
	err := tx.Model(&models.Loan{}).
		Where("member_id = ? AND state = ?", memberID, models.LoanActive).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count active loans: %w", err)
	}
	return n, nil
}

// checkAcquireLimit rejects a new reservation or loan that would exceed the
// member's limit. The limit is resolved through policy so a missing
// per-member value falls back to a safe default instead of unlimited.
func (s *Service) checkAcquireLimit(tx *gorm.DB, member *models.Member, now time.Time) error {
	reservations, err := countActiveReservations(tx, member.ID, now)
	if err != nil {
		return err
	}
	loans, err := countActiveLoans(tx, member.ID)
	if err != nil {
		return err
	}

	limit := int64(s.policy.MemberLimit(member.MaxActiveItems))
	if !canAcquire(limit, reservations, loans) {
		return NewConflictError(fmt.Sprintf(
			"active item limit reached (%d): %d loans, %d reservations", limit, loans, reservations))
	}
	return nil
}

// checkConvertLimit re-validates the limit when a reservation converts to a
// loan. Conversion swaps one reservation for one loan, so the total may
// equal the limit but never exceed it. The re-check is mandatory: the limit
// may have tightened since the reservation was created.
func (s *Service) checkConvertLimit(tx *gorm.DB, member *models.Member, now time.Time) error {
	reservations, err := countActiveReservations(tx, member.ID, now)
	if err != nil {
		return err
	}
	loans, err := countActiveLoans(tx, member.ID)
	if err != nil {
		return err
	}

	limit := int64(s.policy.MemberLimit(member.MaxActiveItems))
	if reservations+loans > limit {
		return NewConflictError(fmt.Sprintf(
			"cannot convert reservation: active item limit exceeded (%d)", limit))
	}
	return nil
}
