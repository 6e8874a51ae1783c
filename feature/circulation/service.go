package circulation

import (
	"errors"
	"fmt"
	"time"

	"library-circulation/core/notify"
	"library-circulation/core/policy"
	"library-circulation/feature/circulation/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// EventPublisher receives post-commit circulation facts.
// *notify.Dispatcher satisfies it.
type EventPublisher interface {
	Publish(event notify.Event)
}

// Service is the circulation lifecycle engine. Every multi-entity mutation
// runs in a single transaction; the copy registry's compare-and-swap plus the
// nullable-unique active columns detect races at commit time.
type Service struct {
	db       *gorm.DB
	logger   *zap.Logger
	policy   policy.Config
	events   EventPublisher
	registry Registry
	clock    Clock
	barcodes BarcodeGen
}

// NewService creates a new circulation service.
func NewService(db *gorm.DB, logger *zap.Logger, pol policy.Config, events EventPublisher) *Service {
	return &Service{
		db:       db,
		logger:   logger,
		policy:   pol,
		events:   events,
		clock:    realClock{},
		barcodes: ulidGen{},
	}
}

// WithClock replaces the service clock. Intended for tests.
func (s *Service) WithClock(clock Clock) *Service {
	s.clock = clock
	return s
}

func (s *Service) publish(eventType notify.EventType, payload any) {
	if s.events == nil {
		return
	}
	s.events.Publish(notify.Event{
		Type:       eventType,
		OccurredAt: s.clock.Now(),
		Payload:    payload,
	})
}

// translateCreate maps a duplicate-key error on an active row to the
// business Conflict the caller must see instead of a raw storage error.
func translateCreate(err error, conflictMsg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return NewConflictError(conflictMsg)
	}
	return fmt.Errorf("persist failed: %w", err)
}

func findMember(tx *gorm.DB, id uint) (*models.Member, error) {
	var member models.Member
	if err := tx.First(&member, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError(fmt.Sprintf("member %d not found", id))
		}
		return nil, fmt.Errorf("load member: %w", err)
	}
	return &member, nil
}

func findMemberByUsername(tx *gorm.DB, username string) (*models.Member, error) {
	var member models.Member
	if err := tx.Where("username = ?", username).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError(fmt.Sprintf("member %q not found", username))
		}
		return nil, fmt.Errorf("load member: %w", err)
	}
	return &member, nil
}

func findCopy(tx *gorm.DB, id uint) (*models.Copy, error) {
	var copy models.Copy
	if err := tx.First(&copy, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError(fmt.Sprintf("copy %d not found", id))
		}
		return nil, fmt.Errorf("load copy: %w", err)
	}
	return &copy, nil
}

func findTitle(tx *gorm.DB, id uint) (*models.Title, error) {
	var title models.Title
	if err := tx.First(&title, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError(fmt.Sprintf("title %d not found", id))
		}
		return nil, fmt.Errorf("load title: %w", err)
	}
	return &title, nil
}

func findReservation(tx *gorm.DB, id uint) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := tx.First(&reservation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError(fmt.Sprintf("reservation %d not found", id))
		}
		return nil, fmt.Errorf("load reservation: %w", err)
	}
	return &reservation, nil
}

func findLoan(tx *gorm.DB, id uint) (*models.Loan, error) {
	var loan models.Loan
	if err := tx.First(&loan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError(fmt.Sprintf("loan %d not found", id))
		}
		return nil, fmt.Errorf("load loan: %w", err)
	}
	return &loan, nil
}

// requireOwnerOrStaff enforces the ownership rule shared by cancel, convert
// and return: the requester must own the item or act with staff authority.
func requireOwnerOrStaff(tx *gorm.DB, ownerID uint, requester string, isStaff bool) error {
	if isStaff {
		return nil
	}

	owner, err := findMember(tx, ownerID)
	if err != nil {
		return err
	}
	if owner.Username != requester {
		return NewForbiddenError("you do not have permission over this item")
	}
	return nil
}
