package loader

import (
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFeature struct {
	name    string
	enabled bool
	err     error
	loaded  bool
}

func (f *stubFeature) Name() string    { return f.name }
func (f *stubFeature) IsEnabled() bool { return f.enabled }
func (f *stubFeature) Load(fiber.Router) error {
	f.loaded = true
	return f.err
}

func TestLoadAll(t *testing.T) {
	enabled := &stubFeature{name: "circulation", enabled: true}
	disabled := &stubFeature{name: "dormant", enabled: false}

	m := NewManager()
	m.Register(enabled)
	m.Register(disabled)

	require.NoError(t, m.LoadAll(fiber.New()))
	assert.True(t, enabled.loaded)
	assert.False(t, disabled.loaded)
}

func TestLoadAllStopsOnError(t *testing.T) {
	failing := &stubFeature{name: "broken", enabled: true, err: errors.New("boom")}
	next := &stubFeature{name: "after", enabled: true}

	m := NewManager()
	m.Register(failing)
	m.Register(next)

	err := m.LoadAll(fiber.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.False(t, next.loaded)
}
