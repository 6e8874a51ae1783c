package circulation_test

import (
	"context"
	"testing"
	"time"

	"library-circulation/feature/circulation"
	"library-circulation/feature/circulation/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterTitle(t *testing.T) {
	env := newTestEnv(t)

	title, err := env.svc.RegisterTitle(context.Background(), "Dune", "Frank Herbert", "9780441172719")
	require.NoError(t, err)
	assert.NotZero(t, title.ID)
	assert.Equal(t, "Dune", title.Name)

	_, err = env.svc.RegisterTitle(context.Background(), "", "", "")
	assert.True(t, circulation.IsInvalidArgument(err))
}

func TestRegisterCopy(t *testing.T) {
	env := newTestEnv(t)
	title, err := env.svc.RegisterTitle(context.Background(), "Dune", "", "")
	require.NoError(t, err)

	copy, err := env.svc.RegisterCopy(context.Background(), title.ID, "BC-001", "shelf 4")
	require.NoError(t, err)
	assert.Equal(t, models.CopyAvailable, copy.State)
	assert.Equal(t, "BC-001", copy.Barcode)
	assert.Equal(t, uint(1), copy.Version)

	// A missing barcode gets a generated one.
	generated, err := env.svc.RegisterCopy(context.Background(), title.ID, "", "")
	require.NoError(t, err)
	assert.NotEmpty(t, generated.Barcode)

	_, err = env.svc.RegisterCopy(context.Background(), 999, "", "")
	assert.True(t, circulation.IsNotFound(err))
}

func TestRegisterCopyDuplicateBarcode(t *testing.T) {
	env := newTestEnv(t)
	title, err := env.svc.RegisterTitle(context.Background(), "Dune", "", "")
	require.NoError(t, err)

	_, err = env.svc.RegisterCopy(context.Background(), title.ID, "BC-001", "")
	require.NoError(t, err)

	_, err = env.svc.RegisterCopy(context.Background(), title.ID, "BC-001", "")
	assert.True(t, circulation.IsConflict(err))
}

func TestWithdrawCopy(t *testing.T) {
	env := newTestEnv(t)
	copy := env.newCopy(t, "Dune")

	require.NoError(t, env.svc.WithdrawCopy(context.Background(), copy.ID))
	assert.Equal(t, models.CopyWithdrawn, env.copyState(t, copy.ID))

	// WITHDRAWN is terminal.
	err := env.svc.WithdrawCopy(context.Background(), copy.ID)
	assert.True(t, circulation.IsConflict(err))
}

func TestWithdrawCopyWhileHeld(t *testing.T) {
	env := newTestEnv(t)
	member := env.newMember(t, "alice", models.RolePatron, 2)
	copy := env.newCopy(t, "Dune")

	_, err := env.svc.CreateReservation(context.Background(), member.ID, copy.ID)
	require.NoError(t, err)

	err = env.svc.WithdrawCopy(context.Background(), copy.ID)
	assert.True(t, circulation.IsConflict(err))
	assert.Equal(t, models.CopyReserved, env.copyState(t, copy.ID))
}

func TestRegisterMember(t *testing.T) {
	env := newTestEnv(t)

	member, err := env.svc.RegisterMember(context.Background(), "alice", "Alice Liddell", "alice@example.org", models.RolePatron, 3)
	require.NoError(t, err)
	assert.NotZero(t, member.ID)
	assert.Equal(t, 3, member.MaxActiveItems)
	assert.False(t, member.IsStaff())

	staff, err := env.svc.RegisterMember(context.Background(), "carol", "", "", models.RoleStaff, 0)
	require.NoError(t, err)
	assert.True(t, staff.IsStaff())
}

func TestRegisterMemberValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.RegisterMember(context.Background(), "ab", "", "", models.RolePatron, 2)
	assert.True(t, circulation.IsInvalidArgument(err))

	_, err = env.svc.RegisterMember(context.Background(), "alice", "", "", models.Role("WIZARD"), 2)
	assert.True(t, circulation.IsInvalidArgument(err))

	_, err = env.svc.RegisterMember(context.Background(), "alice", "", "", models.RolePatron, 11)
	assert.True(t, circulation.IsInvalidArgument(err))

	_, err = env.svc.RegisterMember(context.Background(), "alice", "", "", models.RolePatron, -1)
	assert.True(t, circulation.IsInvalidArgument(err))
}

func TestRegisterMemberDuplicateUsername(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.RegisterMember(context.Background(), "alice", "", "", models.RolePatron, 2)
	require.NoError(t, err)

	_, err = env.svc.RegisterMember(context.Background(), "alice", "", "", models.RolePatron, 2)
	assert.True(t, circulation.IsConflict(err))
}

func TestRegisterMemberZeroLimitUsesDefault(t *testing.T) {
	// A member registered without an explicit limit falls back to the
	// policy default of two at enforcement time.
	env := newTestEnv(t)
	member := env.newMember(t, "alice", models.RolePatron, 0)
	c1 := env.newCopy(t, "Dune")
	c2 := env.newCopy(t, "Hyperion")
	c3 := env.newCopy(t, "Foundation")

	_, err := env.svc.CreateLoan(context.Background(), member.ID, c1.ID)
	require.NoError(t, err)
	_, err = env.svc.CreateLoan(context.Background(), member.ID, c2.ID)
	require.NoError(t, err)

	_, err = env.svc.CreateLoan(context.Background(), member.ID, c3.ID)
	assert.True(t, circulation.IsConflict(err))
}

func TestPenalizeMember(t *testing.T) {
	env := newTestEnv(t)
	member := env.newMember(t, "alice", models.RolePatron, 2)

	until := env.clock.Now().Add(48 * time.Hour)
	require.NoError(t, env.svc.PenalizeMember(context.Background(), member.ID, until))

	var stored models.Member
	require.NoError(t, env.db.First(&stored, member.ID).Error)
	require.NotNil(t, stored.PenalizedUntil)
	assert.True(t, stored.IsPenalized(env.clock.Now()))
	assert.False(t, stored.IsPenalized(until.Add(time.Minute)))

	err := env.svc.PenalizeMember(context.Background(), 999, until)
	assert.True(t, circulation.IsNotFound(err))
}
