package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesSentinelByKind(t *testing.T) {
	err := fmt.Errorf("refresh: %w", Upstream("wb.warehouses", 401, "unauthorized"))
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.NotErrorIs(t, err, ErrUpstreamEmpty)

	var de *Error
	assert.True(t, errors.As(err, &de))
	assert.Equal(t, 401, de.Status)
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", de.Code())
	assert.Equal(t, "wb.warehouses: upstream unavailable (status 401)", de.Error())
}

func TestErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := E(KindStorage, "store.set_state", cause)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrStorage)
	assert.Equal(t, "store.set_state: storage: disk I/O error", err.Error())
}

func TestFormatMoscow(t *testing.T) {
	assert.Equal(t, "01.01.1970 03:00:00", FormatMoscow(0))
	assert.Equal(t, "15.10.2024 15:00:00", FormatMoscow(1728993600))
}

func TestParseState(t *testing.T) {
	assert.Equal(t, StateAwaitingToken, ParseState(1))
	assert.Equal(t, StateAwaitingSMSCode, ParseState(5))
	assert.Equal(t, StateIdle, ParseState(0))
	assert.Equal(t, StateIdle, ParseState(99))
	assert.Equal(t, "awaiting_token", StateAwaitingToken.String())
}
