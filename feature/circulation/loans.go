package circulation

import (
	"context"
	"fmt"

	"library-circulation/core/notify"
	"library-circulation/feature/circulation/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateLoan lends a copy directly, bypassing the reservation flow. This is
// the staff counter operation: a copy that is merely RESERVED may be handed
// out, in which case the unclaimed reservation is cancelled in the same
// transaction so the copy never has two active holders.
func (s *Service) CreateLoan(ctx context.Context, memberID, copyID uint) (*models.Loan, error) {
	if memberID == 0 {
		return nil, NewInvalidArgumentError("member id is required")
	}
	if copyID == 0 {
		return nil, NewInvalidArgumentError("copy id is required")
	}

	s.logger.Info("Creating loan",
		zap.Uint("member_id", memberID),
		zap.Uint("copy_id", copyID),
	)

	now := s.clock.Now()

	var loan *models.Loan
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

		if copy.State != models.CopyAvailable && copy.State != models.CopyReserved {
			return NewConflictError(fmt.Sprintf("copy %s cannot be loaned (state: %s)", copy.Barcode, copy.State))
		}
		if member.IsPenalized(now) {
			return NewConflictError(fmt.Sprintf("member %s is penalized until %s",
				member.Username, member.PenalizedUntil.Format("2006-01-02")))
		}
		if err := s.checkAcquireLimit(tx, member, now); err != nil {
			return err
		}
		if err := checkDuplicateTitle(tx, member.ID, copy.TitleID); err != nil {
			return err
		}

		if title, err = findTitle(tx, copy.TitleID); err != nil {
			return err
		}

		// Overriding an unclaimed hold: release it before the copy changes
		// hands, keeping the single-holder invariant inside one transaction.
		if copy.State == models.CopyReserved {
			if err := cancelActiveReservationOnCopy(tx, copy.ID); err != nil {
				return err
			}
		}

		l := &models.Loan{
			MemberID:     member.ID,
			CopyID:       copy.ID,
			LoanDate:     now,
			DueDate:      now.Add(s.policy.LoanDuration()),
			State:        models.LoanActive,
			ActiveCopyID: &copy.ID,
		}
		if err := tx.Create(l).Error; err != nil {
			return translateCreate(err, fmt.Sprintf("copy %s is already on loan", copy.Barcode))
		}

		if err := s.registry.SetState(tx, copy, copy.State, models.CopyLoaned); err != nil {
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

// ReturnLoan completes an active loan and releases the copy. After commit a
// late-return fact is handed to the notification collaborator when the
// return happened past the due date.
func (s *Service) ReturnLoan(ctx context.Context, loanID uint, requester string, isStaff bool) error {
	if loanID == 0 {
		return NewInvalidArgumentError("loan id is required")
	}
	if requester == "" {
		return NewInvalidArgumentError("requester is required")
	}

	s.logger.Info("Processing return", zap.Uint("loan_id", loanID))

	now := s.clock.Now()

	var member *models.Member
	var title *models.Title
	var returned *models.Loan

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loan, err := findLoan(tx, loanID)
		if err != nil {
			return err
		}
		if err := requireOwnerOrStaff(tx, loan.MemberID, requester, isStaff); err != nil {
			return err
		}
		if loan.State != models.LoanActive {
			return NewConflictError(fmt.Sprintf("loan %d has already been returned", loan.ID))
		}

		res := tx.Model(&models.Loan{}).
			Where("id = ? AND state = ?", loan.ID, models.LoanActive).
			Updates(map[string]any{
				"state":          models.LoanReturned,
				"return_date":    now,
				"active_copy_id": nil,
			})
		if res.Error != nil {
			return fmt.Errorf("finalize loan: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return NewConflictError(fmt.Sprintf("loan %d is no longer active", loan.ID))
		}

		copy, err := findCopy(tx, loan.CopyID)
		if err != nil {
			return err
		}
		if err := s.registry.SetState(tx, copy, models.CopyLoaned, models.CopyAvailable); err != nil {
			return err
		}

		if member, err = findMember(tx, loan.MemberID); err != nil {
			return err
		}
		if title, err = findTitle(tx, copy.TitleID); err != nil {
			return err
		}

		loan.State = models.LoanReturned
		loan.ReturnDate = &now
		returned = loan
		return nil
	})
	if err != nil {
		return err
	}

	if now.After(returned.DueDate) {
		daysLate := int(now.Sub(returned.DueDate).Hours() / 24)
		if daysLate == 0 {
			daysLate = 1
		}
		s.publish(notify.EventLoanReturnedLate, notify.LoanReturnedLate{
			Member:   member.Username,
			Title:    title.Name,
			DueDate:  returned.DueDate,
			DaysLate: daysLate,
		})
	}

	return nil
}

// MemberLoans lists every loan of a member, active and returned.
func (s *Service) MemberLoans(ctx context.Context, username string) ([]models.Loan, error) {
	if username == "" {
		return nil, NewInvalidArgumentError("username is required")
	}

	member, err := findMemberByUsername(s.db.WithContext(ctx), username)
	if err != nil {
		return nil, err
	}

	var loans []models.Loan
	err = s.db.WithContext(ctx).
		Where("member_id = ?", member.ID).
		Order("loan_date DESC").
		Find(&loans).Error
	if err != nil {
		return nil, fmt.Errorf("list member loans: %w", err)
	}
	return loans, nil
}

// checkDuplicateTitle rejects a loan when the member already holds an active
// loan on another copy of the same title.
func checkDuplicateTitle(tx *gorm.DB, memberID, titleID uint) error {
	var n int64
	err := tx.Model(&models.Loan{}).
		Joins("JOIN copy ON copy.id = loan.copy_id").
		Where("loan.member_id = ? AND loan.state = ? AND copy.title_id = ?", memberID, models.LoanActive, titleID).
		Count(&n).Error
	if err != nil {
		return fmt.Errorf("check duplicate title: %w", err)
	}
	if n > 0 {
		return NewConflictError("member already holds an active loan for this title")
	}
	return nil
}

// cancelActiveReservationOnCopy releases whatever active hold exists on the
// copy. Used by the staff override path in CreateLoan.
func cancelActiveReservationOnCopy(tx *gorm.DB, copyID uint) error {
	res := tx.Model(&models.Reservation{}).
		Where("copy_id = ? AND state = ?", copyID, models.ReservationActive).
		Updates(map[string]any{"state": models.ReservationCancelled, "active_copy_id": nil})
	if res.Error != nil {
		return fmt.Errorf("cancel reservation on copy: %w", res.Error)
	}
	// Zero rows is fine: the copy was marked RESERVED with no active hold,
	// which the reconciler would repair anyway.
	return nil
}
