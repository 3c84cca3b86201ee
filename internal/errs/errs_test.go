package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidation(t *testing.T) {
	err := Validation("status", "unknown status %q", "MAYBE")
	assert.True(t, IsValidation(err))
	assert.False(t, IsStorage(err))
	assert.Contains(t, err.Error(), "status")
	assert.Contains(t, err.Error(), `"MAYBE"`)
}

func TestStorageWraps(t *testing.T) {
	cause := errors.New("disk full")
	err := Storage("upsert record", cause)
	assert.True(t, IsStorage(err))
	assert.ErrorIs(t, err, cause)
}

func TestExternalWraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := External("zabbix", cause)
	assert.True(t, IsExternal(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "zabbix")
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("ledger 20240101: %w", ErrNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, errors.Is(err, ErrAlreadyExists))
}
