package shipping

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCarrier struct{ name string }

func (s stubCarrier) Name() string { return s.name }

func (s stubCarrier) CreateShipment(context.Context, string, Recipient, string, []Item) (string, error) {
	return "TTN1", nil
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry(stubCarrier{name: "novaposhta"}, stubCarrier{name: "ukrposhta"})

	c, ok := reg.Lookup("novaposhta")
	require.True(t, ok)
	assert.Equal(t, "novaposhta", c.Name())

	_, ok = reg.Lookup("pickup")
	assert.False(t, ok, "pickup has no carrier integration")

	_, ok = reg.Lookup("courier")
	assert.False(t, ok)
}
