package circulation

import (
	"library-circulation/core/policy"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the circulation feature.
func NewFeature(db *gorm.DB, logger *zap.Logger, pol policy.Config, events EventPublisher) *Feature {
	svc := NewService(db, logger, pol, events)
	h := NewHandler(svc)
	return &Feature{service: svc, handler: h}
}

// Service exposes the lifecycle engine for the cmd layer (sweeper schedule,
// startup reconciliation, manual recovery commands).
func (f *Feature) Service() *Service {
	return f.service
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "circulation"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
