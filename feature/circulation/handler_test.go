package circulation_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"library-circulation/core/database"
	"library-circulation/core/policy"
	"library-circulation/feature/circulation"
	"library-circulation/feature/circulation/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := database.Connect(database.Config{
		Driver: "sqlite",
		Name:   "file:" + t.Name() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	feature := circulation.NewFeature(db, zap.NewNop(), policy.Config{
		ReservationTTLHours:   24,
		LoanDurationDays:      15,
		DefaultMaxActiveItems: 2,
	}, nil)

	app := fiber.New()
	require.NoError(t, feature.Load(app))
	return app, db
}

func TestHandleSweep(t *testing.T) {
	app, db := newTestApp(t)

	// An expired reservation holding a reserved copy, as the sweeper would
	// find it between schedule ticks.
	title := models.Title{Name: "Dune"}
	require.NoError(t, db.Create(&title).Error)
	copy := models.Copy{TitleID: title.ID, Barcode: "BC-001", State: models.CopyReserved, Version: 1}
	require.NoError(t, db.Create(&copy).Error)
	member := models.Member{Username: "alice", Role: models.RolePatron, MaxActiveItems: 2}
	require.NoError(t, db.Create(&member).Error)
	reservation := models.Reservation{
		MemberID:     member.ID,
		CopyID:       copy.ID,
		StartsAt:     time.Now().Add(-48 * time.Hour),
		EndsAt:       time.Now().Add(-24 * time.Hour),
		State:        models.ReservationActive,
		ActiveCopyID: &copy.ID,
	}
	require.NoError(t, db.Create(&reservation).Error)

	resp, err := app.Test(httptest.NewRequest("POST", "/circulation/admin/sweep", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Swept int `json:"swept"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1, body.Swept)

	var stored models.Copy
	require.NoError(t, db.First(&stored, copy.ID).Error)
	assert.Equal(t, models.CopyAvailable, stored.State)
}

func TestHandleReconcile(t *testing.T) {
	app, db := newTestApp(t)

	title := models.Title{Name: "Dune"}
	require.NoError(t, db.Create(&title).Error)
	orphan := models.Copy{TitleID: title.ID, Barcode: "BC-002", State: models.CopyLoaned, Version: 1}
	require.NoError(t, db.Create(&orphan).Error)

	resp, err := app.Test(httptest.NewRequest("POST", "/circulation/admin/reconcile", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		ReleasedLoaned   int `json:"released_loaned"`
		ReleasedReserved int `json:"released_reserved"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1, body.ReleasedLoaned)
	assert.Zero(t, body.ReleasedReserved)
}

func TestHandleReconcileNothingToDo(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("POST", "/circulation/admin/reconcile", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
