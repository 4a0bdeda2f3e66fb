package store

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/receipts/internal/model"
)

// countingLookups records suffix lookups and serves methods from a map.
type countingLookups struct {
	Lookups
	methods map[string]model.PaymentMethod
	calls   int
}

func (c *countingLookups) FindPaymentMethodBySuffix(_ context.Context, suffix string) (model.PaymentMethod, bool, error) {
	c.calls++
	pm, ok := c.methods[suffix]
	return pm, ok, nil
}

func TestPaymentMethodCache_Hit(t *testing.T) {
	ctx := context.Background()
	q := &countingLookups{methods: map[string]model.PaymentMethod{
		"1234": {Name: "Visa"},
	}}
	c := NewPaymentMethodCache(0)

	for i := 0; i < 3; i++ {
		pm, found, err := c.Get(ctx, q, "1234")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "Visa", pm.Name)
	}
	assert.Equal(t, 1, q.calls)
	assert.Equal(t, 1, c.Len())
}

func TestPaymentMethodCache_MissNotCached(t *testing.T) {
	ctx := context.Background()
	q := &countingLookups{methods: map[string]model.PaymentMethod{}}
	c := NewPaymentMethodCache(4)

	_, found, err := c.Get(ctx, q, "9999")
	require.NoError(t, err)
	assert.False(t, found)
	_, _, _ = c.Get(ctx, q, "9999")
	assert.Equal(t, 2, q.calls)
	assert.Zero(t, c.Len())
}

func TestPaymentMethodCache_Evicts(t *testing.T) {
	ctx := context.Background()
	methods := map[string]model.PaymentMethod{}
	for i := 0; i < 4; i++ {
		s := strconv.Itoa(1000 + i)
		methods[s] = model.PaymentMethod{Name: s}
	}
	q := &countingLookups{methods: methods}
	c := NewPaymentMethodCache(2)

	for _, s := range []string{"1000", "1001", "1000", "1002"} {
		_, _, err := c.Get(ctx, q, s)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 3, q.calls)

	// 1001 was least recently used and got evicted.
	_, _, _ = c.Get(ctx, q, "1000")
	assert.Equal(t, 3, q.calls)
	_, _, _ = c.Get(ctx, q, "1001")
	assert.Equal(t, 4, q.calls)
}
