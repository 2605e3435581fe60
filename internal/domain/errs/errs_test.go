package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	v := Validation("bad litres %d", -1)
	assert.True(t, IsValidation(v))
	assert.False(t, IsConflict(v))
	assert.Equal(t, "bad litres -1", v.Error())

	c := Conflict("already closed")
	assert.True(t, IsConflict(c))

	cause := errors.New("connection refused")
	s := Storage("close shift", cause)
	assert.True(t, IsStorage(s))
	assert.ErrorIs(t, s, cause)
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("closing turno: %w", Validation("no hose readings"))
	assert.True(t, IsValidation(err))
	assert.False(t, IsStorage(err))
}
