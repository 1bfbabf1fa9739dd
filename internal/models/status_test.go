package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusCanceled, true},
		{StatusPaid, StatusProcessing, true},
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusCanceled, true},
		{StatusShipped, StatusDelivered, true},
		{StatusPending, StatusShipped, false},
		{StatusPaid, StatusCanceled, false},
		{StatusDelivered, StatusCanceled, false},
		{StatusCanceled, StatusPending, false},
		{StatusDelivered, StatusPending, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.ok, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, IsTerminal(StatusDelivered))
	assert.True(t, IsTerminal(StatusCanceled))
	assert.False(t, IsTerminal(StatusPending))
	assert.False(t, IsTerminal(StatusShipped))
}

func TestCancelable(t *testing.T) {
	assert.True(t, Cancelable(StatusPending))
	assert.True(t, Cancelable(StatusProcessing))
	assert.False(t, Cancelable(StatusPaid))
	assert.False(t, Cancelable(StatusDelivered))
	assert.False(t, Cancelable(StatusCanceled))
}

func TestParseStatus(t *testing.T) {
	s, ok := ParseStatus("shipped")
	assert.True(t, ok)
	assert.Equal(t, StatusShipped, s)

	_, ok = ParseStatus("SHIPPED")
	assert.False(t, ok)

	_, ok = ParseStatus("refunded")
	assert.False(t, ok)
}
