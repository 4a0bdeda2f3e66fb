package store

import (
	"container/list"
	"context"

	"github.com/cleared-dev/receipts/internal/model"
)

// DefaultCacheSize bounds a PaymentMethodCache when no size is given.
const DefaultCacheSize = 8

// PaymentMethodCache memoizes payment-method-by-suffix lookups. It belongs to
// a single batch run and must not outlive the transaction it reads from.
type PaymentMethodCache struct {
	size    int
	order   *list.List
	entries map[string]*list.Element
}

type cacheEntry struct {
	suffix string
	method model.PaymentMethod
}

// NewPaymentMethodCache creates an empty cache holding at most size entries.
func NewPaymentMethodCache(size int) *PaymentMethodCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &PaymentMethodCache{
		size:    size,
		order:   list.New(),
		entries: make(map[string]*list.Element, size),
	}
}

// Get returns the payment method whose safe numeric ID equals suffix,
// consulting q on a miss. Misses are not cached.
func (c *PaymentMethodCache) Get(ctx context.Context, q Lookups, suffix string) (model.PaymentMethod, bool, error) {
	if el, ok := c.entries[suffix]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*cacheEntry).method, true, nil
	}

	pm, found, err := q.FindPaymentMethodBySuffix(ctx, suffix)
	if err != nil || !found {
		return pm, found, err
	}

	c.entries[suffix] = c.order.PushFront(&cacheEntry{suffix: suffix, method: pm})
	if c.order.Len() > c.size {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).suffix)
	}
	return pm, true, nil
}

// Len returns the number of cached entries.
func (c *PaymentMethodCache) Len() int {
	return c.order.Len()
}
