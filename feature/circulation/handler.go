package circulation

import (
	"errors"

	"library-circulation/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler exposes the operational recovery endpoints over HTTP. The full
// patron/staff API lives in an external collaborator; this surface only
// carries what operators need: manual sweep and reconcile triggers.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the circulation admin routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/circulation")
	group.Post("/admin/sweep", h.HandleSweep)
	group.Post("/admin/reconcile", h.HandleReconcile)
}

// HandleSweep expires overdue reservations on demand.
func (h *Handler) HandleSweep(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Manual sweep triggered")

	swept, err := h.service.SweepExpired(c.Context())
	if err != nil {
		l.Error("Manual sweep failed", zap.Error(err))
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"swept": swept})
}

// HandleReconcile runs the consistency repair pass on demand.
func (h *Handler) HandleReconcile(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Manual reconciliation triggered")

	result, err := h.service.Reconcile(c.Context())
	if err != nil {
		l.Error("Manual reconciliation failed", zap.Error(err))
		return respondError(c, err)
	}

	return c.JSON(result)
}

// respondError maps the domain error taxonomy to HTTP statuses. Anything
// outside the taxonomy is surfaced generically.
func respondError(c *fiber.Ctx, err error) error {
	var de *DomainError
	if errors.As(err, &de) {
		status := fiber.StatusInternalServerError
		switch de.Code {
		case ErrCodeNotFound:
			status = fiber.StatusNotFound
		case ErrCodeInvalidArgument:
			status = fiber.StatusBadRequest
		case ErrCodeConflict:
			status = fiber.StatusConflict
		case ErrCodeForbidden:
			status = fiber.StatusForbidden
		}
		return c.Status(status).JSON(fiber.Map{"error": de.Message})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal error",
	})
}
