package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("booking %d not found", 7)))
	assert.Equal(t, KindUnauthorized, KindOf(Unauthorized("no access")))
	assert.Equal(t, KindInvalidState, KindOf(InvalidState("bad transition")))
	assert.Equal(t, KindValidation, KindOf(Validation("bad input")))
	assert.Equal(t, KindConflict, KindOf(Conflict("slot taken")))
	assert.Equal(t, KindInternal, KindOf(Internal(errors.New("boom"), "query failed")))

	// Посторонние ошибки классифицируются как internal
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("create booking: %w", Conflict("teacher busy"))
	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, IsKind(err, KindConflict))
	assert.False(t, IsKind(err, KindNotFound))
}

func TestInternalUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal(cause, "get payout")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "internal")
	assert.Contains(t, err.Error(), "get payout")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestErrorMessage(t *testing.T) {
	err := NotFound("payment %d not found", 42)
	assert.Equal(t, "not_found: payment 42 not found", err.Error())
}
