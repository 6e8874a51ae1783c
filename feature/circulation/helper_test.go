package circulation_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"library-circulation/core/database"
	"library-circulation/core/notify"
	"library-circulation/core/policy"
	"library-circulation/feature/circulation"
	"library-circulation/feature/circulation/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeClock lets tests move time forward deterministically.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// capturePublisher records published events instead of delivering them.
type capturePublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *capturePublisher) Publish(event notify.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturePublisher) Events() []notify.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notify.Event(nil), p.events...)
}

type testEnv struct {
	db     *gorm.DB
	svc    *circulation.Service
	clock  *fakeClock
	events *capturePublisher
}

// newTestEnv builds a service over a private in-memory database. The shared
// cache keeps every pooled connection on the same database.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: dsn})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	clock := &fakeClock{now: time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)}
	events := &capturePublisher{}

	svc := circulation.NewService(db, zap.NewNop(), policy.Config{
		ReservationTTLHours:   24,
		LoanDurationDays:      15,
		DefaultMaxActiveItems: 2,
	}, events).WithClock(clock)

	return &testEnv{db: db, svc: svc, clock: clock, events: events}
}

func (e *testEnv) newMember(t *testing.T, username string, role models.Role, limit int) *models.Member {
	t.Helper()
	member, err := e.svc.RegisterMember(context.Background(), username, "", "", role, limit)
	require.NoError(t, err)
	return member
}

func (e *testEnv) newCopy(t *testing.T, titleName string) *models.Copy {
	t.Helper()
	title, err := e.svc.RegisterTitle(context.Background(), titleName, "", "")
	require.NoError(t, err)
	copy, err := e.svc.RegisterCopy(context.Background(), title.ID, "", "")
	require.NoError(t, err)
	return copy
}

func (e *testEnv) copyState(t *testing.T, copyID uint) models.CopyState {
	t.Helper()
	var copy models.Copy
	require.NoError(t, e.db.First(&copy, copyID).Error)
	return copy.State
}

func (e *testEnv) reservationState(t *testing.T, reservationID uint) models.ReservationState {
	t.Helper()
	var reservation models.Reservation
	require.NoError(t, e.db.First(&reservation, reservationID).Error)
	return reservation.State
}
