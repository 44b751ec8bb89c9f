package apperror

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorMatchesSentinel(t *testing.T) {
	err := NotFound("contact", 42)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrForbidden))
	assert.Equal(t, "contact not found with id 42", err.Error())

	assert.True(t, errors.Is(Forbidden("nope"), ErrForbidden))
	assert.True(t, errors.Is(InvalidState("bad parent"), ErrInvalidState))
}

func TestStoreFailureKeepsCause(t *testing.T) {
	cause := errors.New("disk on fire")
	err := StoreFailure(cause)

	assert.True(t, errors.Is(err, ErrStore))
	assert.Contains(t, err.Error(), "disk on fire")
}
