package circulation_test

import (
	"errors"
	"fmt"
	"testing"

	"library-circulation/feature/circulation"

	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomy(t *testing.T) {
	assert.True(t, circulation.IsNotFound(circulation.NewNotFoundError("missing")))
	assert.True(t, circulation.IsInvalidArgument(circulation.NewInvalidArgumentError("bad input")))
	assert.True(t, circulation.IsConflict(circulation.NewConflictError("taken")))
	assert.True(t, circulation.IsForbidden(circulation.NewForbiddenError("not yours")))

	assert.False(t, circulation.IsConflict(circulation.NewNotFoundError("missing")))
	assert.False(t, circulation.IsConflict(errors.New("plain")))
	assert.False(t, circulation.IsConflict(nil))
}

func TestErrorTaxonomyWrapped(t *testing.T) {
	wrapped := fmt.Errorf("while converting: %w", circulation.NewConflictError("too late"))
	assert.True(t, circulation.IsConflict(wrapped))
}

func TestDomainErrorMessage(t *testing.T) {
	err := circulation.NewConflictError("copy BC-001 is already reserved")
	assert.Equal(t, "CONFLICT: copy BC-001 is already reserved", err.Error())
}
