package circulation

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"library-circulation/feature/circulation/models"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BarcodeGen produces unique barcodes for copies registered without one.
type BarcodeGen interface {
	New() (string, error)
}

type ulidGen struct{}

func (ulidGen) New() (string, error) {
	t := time.Now().UTC()
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// RegisterTitle adds a work to the catalog.
func (s *Service) RegisterTitle(ctx context.Context, name, author, isbn string) (*models.Title, error) {
	if name == "" {
		return nil, NewInvalidArgumentError("title name is required")
	}

	title := &models.Title{Name: name, Author: author, ISBN: isbn}
	if err := s.db.WithContext(ctx).Create(title).Error; err != nil {
		return nil, fmt.Errorf("create title: %w", err)
	}

	s.logger.Info("Title registered", zap.Uint("title_id", title.ID), zap.String("name", name))
	return title, nil
}

// RegisterCopy adds a physical copy at catalog intake. The copy starts
// AVAILABLE; a barcode is generated when none is supplied.
func (s *Service) RegisterCopy(ctx context.Context, titleID uint, barcode, location string) (*models.Copy, error) {
	if titleID == 0 {
		return nil, NewInvalidArgumentError("title id is required")
	}

	if barcode == "" {
		generated, err := s.barcodes.New()
		if err != nil {
			return nil, fmt.Errorf("generate barcode: %w", err)
		}
		barcode = generated
	}

	var copy *models.Copy
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findTitle(tx, titleID); err != nil {
			return err
		}

		c := &models.Copy{
			TitleID:  titleID,
			Barcode:  barcode,
			State:    models.CopyAvailable,
			Location: location,
			Version:  1,
		}
		if err := tx.Create(c).Error; err != nil {
			return translateCreate(err, fmt.Sprintf("barcode %s is already registered", barcode))
		}

		copy = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Copy registered",
		zap.Uint("copy_id", copy.ID),
		zap.String("barcode", copy.Barcode),
	)
	return copy, nil
}

// WithdrawCopy removes a copy from circulation. Only an AVAILABLE copy may
// be withdrawn; WITHDRAWN is terminal and the row stays for history.
func (s *Service) WithdrawCopy(ctx context.Context, copyID uint) error {
	if copyID == 0 {
		return NewInvalidArgumentError("copy id is required")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		copy, err := findCopy(tx, copyID)
		if err != nil {
			return err
		}
		if copy.State != models.CopyAvailable {
			return NewConflictError(fmt.Sprintf("copy %s cannot be withdrawn (state: %s)", copy.Barcode, copy.State))
		}
		return s.registry.SetState(tx, copy, models.CopyAvailable, models.CopyWithdrawn)
	})
}

// RegisterMember adds a library member. A zero maxActiveItems defers to the
// policy default at enforcement time.
func (s *Service) RegisterMember(ctx context.Context, username, name, email string, role models.Role, maxActiveItems int) (*models.Member, error) {
	if len(username) < 3 {
		return nil, NewInvalidArgumentError("username must have at least 3 characters")
	}
	if !role.Valid() {
		return nil, NewInvalidArgumentError(fmt.Sprintf("unknown role %q", role))
	}
	if maxActiveItems < 0 || maxActiveItems > 10 {
		return nil, NewInvalidArgumentError("max active items must be between 0 and 10")
	}

	member := &models.Member{
		Username:       username,
		Role:           role,
		MaxActiveItems: maxActiveItems,
		Name:           name,
		Email:          email,
	}
	if err := s.db.WithContext(ctx).Create(member).Error; err != nil {
		return nil, translateCreate(err, fmt.Sprintf("username %s is already taken", username))
	}

	s.logger.Info("Member registered",
		zap.Uint("member_id", member.ID),
		zap.String("username", username),
		zap.String("role", string(role)),
	)
	return member, nil
}

// PenalizeMember blocks a member from acquiring new items until the given
// time. Existing reservations and loans are unaffected.
func (s *Service) PenalizeMember(ctx context.Context, memberID uint, until time.Time) error {
	if memberID == 0 {
		return NewInvalidArgumentError("member id is required")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		member, err := findMember(tx, memberID)
		if err != nil {
			return err
		}
		return tx.Model(member).Update("penalized_until", until).Error
	})
}
