package circulation

import (
	"fmt"

	"library-circulation/feature/circulation/models"

	"gorm.io/gorm"
)

// Registry owns copy state transitions. It does not decide which state is
// correct; callers compute the target state and the registry applies it
// under optimistic concurrency control.
type Registry struct{}

// SetState transitions a loaded copy from prior to next with a
// compare-and-swap on (id, version, state). Zero rows affected means another
// transaction mutated the copy first and surfaces as Conflict. On success
// the in-memory copy is advanced to match the row.
func (Registry) SetState(tx *gorm.DB, c *models.Copy, prior, next models.CopyState) error {
	if c.State != prior {
		return NewConflictError(fmt.Sprintf("copy %s is not %s (state: %s)", c.Barcode, prior, c.State))
	}

	res := tx.Model(&models.Copy{}).
		Where("id = ? AND version = ? AND state = ?", c.ID, c.Version, prior).
		Updates(map[string]any{"state": next, "version": c.Version + 1})
	if res.Error != nil {
		return fmt.Errorf("update copy state: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return NewConflictError(fmt.Sprintf("copy %s was modified concurrently", c.Barcode))
	}

	c.State = next
	c.Version++
	return nil
}

// SetStateIf transitions a copy only if it is currently in the prior state,
// reporting whether the transition applied. Unlike SetState, a missed
// precondition is not an error; the sweeper and reconciler use this to stay
// idempotent against live traffic.
func (Registry) SetStateIf(tx *gorm.DB, copyID uint, prior, next models.CopyState) (bool, error) {
	res := tx.Model(&models.Copy{}).
		Where("id = ? AND state = ?", copyID, prior).
		Updates(map[string]any{"state": next, "version": gorm.Expr("version + 1")})
	if res.Error != nil {
		return false, fmt.Errorf("update copy state: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
