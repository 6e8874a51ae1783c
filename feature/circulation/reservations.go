package circulation

import (
	"context"
	"fmt"

	"library-circulation/core/notify"
	"library-circulation/feature/circulation/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateReservation places a time-boxed hold on an available copy.
//
// Two concurrent requests for the same copy can both pass the availability
// check; the unique active_copy_id index makes exactly one commit while the
// other receives Conflict.
func (s *Service) CreateReservation(ctx context.Context, memberID, copyID uint) (*models.Reservation, error) {
	if memberID == 0 {
		return nil, NewInvalidArgumentError("member id is required")
	}
	if copyID == 0 {
		return nil, NewInvalidArgumentError("copy id is required")
	}

	s.logger.Info("Creating reservation",
		zap.Uint("member_id", memberID),
		zap.Uint("copy_id", copyID),
	)

	now := s.clock.Now()

	var reservation *models.Reservation
	var member *models.Member
	var title *models.Title
	var copyBarcode string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if member, err = findMember(tx, memberID); err != nil {
			return err
		}

		copy, err := findCopy(tx, copyID)
		if err != nil {
			return err
		}
		copyBarcode = copy.Barcode

		if copy.State != models.CopyAvailable {
			return NewConflictError(fmt.Sprintf("copy %s is not available (state: %s)", copy.Barcode, copy.State))
		}
		if member.IsPenalized(now) {
			return NewConflictError(fmt.Sprintf("member %s is penalized until %s",
				member.Username, member.PenalizedUntil.Format("2006-01-02")))
		}
		if err := s.checkAcquireLimit(tx, member, now); err != nil {
			return err
		}

		if title, err = findTitle(tx, copy.TitleID); err != nil {
			return err
		}

		r := &models.Reservation{
			MemberID:     member.ID,
			CopyID:       copy.ID,
			StartsAt:     now,
			EndsAt:       now.Add(s.policy.ReservationTTL()),
			State:        models.ReservationActive,
			ActiveCopyID: &copy.ID,
		}
		if err := tx.Create(r).Error; err != nil {
			return translateCreate(err, fmt.Sprintf("copy %s is no longer available", copy.Barcode))
		}

		if err := s.registry.SetState(tx, copy, models.CopyAvailable, models.CopyReserved); err != nil {
			return err
		}

		reservation = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(notify.EventReservationCreated, notify.ReservationCreated{
		Member:    member.Username,
		Title:     title.Name,
		Barcode:   copyBarcode,
		ExpiresAt: reservation.EndsAt,
	})

	return reservation, nil
}

// CancelReservation releases an active hold. Only the owning member or
// staff may cancel it.
func (s *Service) CancelReservation(ctx context.Context, reservationID uint, requester string, isStaff bool) error {
	if reservationID == 0 {
		return NewInvalidArgumentError("reservation id is required")
	}
	if requester == "" {
		return NewInvalidArgumentError("requester is required")
	}

	s.logger.Info("Cancelling reservation", zap.Uint("reservation_id", reservationID))

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reservation, err := findReservation(tx, reservationID)
		if err != nil {
			return err
		}
		if err := requireOwnerOrStaff(tx, reservation.MemberID, requester, isStaff); err != nil {
			return err
		}
		if reservation.State != models.ReservationActive {
			return NewConflictError(fmt.Sprintf("reservation %d is not active (state: %s)", reservation.ID, reservation.State))
		}

		if err := finalizeReservation(tx, reservation.ID, models.ReservationCancelled); err != nil {
			return err
		}

		copy, err := findCopy(tx, reservation.CopyID)
		if err != nil {
			return err
		}
		return s.registry.SetState(tx, copy, models.CopyReserved, models.CopyAvailable)
	})
}

// ConvertReservation turns an active, unexpired reservation into a loan in
// one atomic three-way mutation: reservation CONVERTED, loan ACTIVE, copy
// RESERVED to LOANED.
func (s *Service) ConvertReservation(ctx context.Context, reservationID uint, requester string, isStaff bool) (*models.Loan, error) {
	if reservationID == 0 {
		return nil, NewInvalidArgumentError("reservation id is required")
	}
	if requester == "" {
		return nil, NewInvalidArgumentError("requester is required")
	}

	s.logger.Info("Converting reservation", zap.Uint("reservation_id", reservationID))

	now := s.clock.Now()

	var loan *models.Loan
	var member *models.Member
	var title *models.Title
	var copyBarcode string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reservation, err := findReservation(tx, reservationID)
		if err != nil {
			return err
		}
		if err := requireOwnerOrStaff(tx, reservation.MemberID, requester, isStaff); err != nil {
			return err
		}
		if reservation.State != models.ReservationActive {
			return NewConflictError(fmt.Sprintf("reservation %d is not active (state: %s)", reservation.ID, reservation.State))
		}
		if !now.Before(reservation.EndsAt) {
			return NewConflictError(fmt.Sprintf("reservation %d expired at %s", reservation.ID, reservation.EndsAt.Format("2006-01-02 15:04")))
		}

		if member, err = findMember(tx, reservation.MemberID); err != nil {
			return err
		}
		// The member's limit may have tightened since the hold was placed.
		if err := s.checkConvertLimit(tx, member, now); err != nil {
			return err
		}

		copy, err := findCopy(tx, reservation.CopyID)
		if err != nil {
			return err
		}
		copyBarcode = copy.Barcode

		if title, err = findTitle(tx, copy.TitleID); err != nil {
			return err
		}

		l := &models.Loan{
			MemberID:      member.ID,
			CopyID:        copy.ID,
			LoanDate:      now,
			DueDate:       now.Add(s.policy.LoanDuration()),
			State:         models.LoanActive,
			ReservationID: &reservation.ID,
			ActiveCopyID:  &copy.ID,
		}
		if err := tx.Create(l).Error; err != nil {
			return translateCreate(err, fmt.Sprintf("copy %s is already on loan", copy.Barcode))
		}

		if err := finalizeReservation(tx, reservation.ID, models.ReservationConverted); err != nil {
			return err
		}
		if err := s.registry.SetState(tx, copy, models.CopyReserved, models.CopyLoaned); err != nil {
			return err
		}

		loan = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(notify.EventLoanCreated, notify.LoanCreated{
		Member:  member.Username,
		Title:   title.Name,
		Barcode: copyBarcode,
		DueDate: loan.DueDate,
	})

	return loan, nil
}

// MemberReservations lists a member's reservations that still hold a copy.
func (s *Service) MemberReservations(ctx context.Context, username string) ([]models.Reservation, error) {
	if username == "" {
		return nil, NewInvalidArgumentError("username is required")
	}

	member, err := findMemberByUsername(s.db.WithContext(ctx), username)
	if err != nil {
		return nil, err
	}

	var reservations []models.Reservation
	err = s.db.WithContext(ctx).
		Where("member_id = ? AND state = ? AND ends_at > ?", member.ID, models.ReservationActive, s.clock.Now()).
		Order("ends_at").
		Find(&reservations).Error
	if err != nil {
		return nil, fmt.Errorf("list member reservations: %w", err)
	}
	return reservations, nil
}

// finalizeReservation moves an ACTIVE reservation to a terminal state and
// clears its hold on the copy. The state guard in the WHERE clause makes
// concurrent cancel, convert and sweep attempts serialize: only one wins.
func finalizeReservation(tx *gorm.DB, reservationID uint, next models.ReservationState) error {
	res := tx.Model(&models.Reservation{}).
		Where("id = ? AND state = ?", reservationID, models.ReservationActive).
		Updates(map[string]any{"state": next, "active_copy_id": nil})
	if res.Error != nil {
		return fmt.Errorf("finalize reservation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return NewConflictError(fmt.Sprintf("reservation %d is no longer active", reservationID))
	}
	return nil
}
