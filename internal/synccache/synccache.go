// Package synccache implements the per-(staff-user, order) advisory lock
// that guards finalize-refund and sync-refund-req from racing the same
// order from two requests, backed by an in-memory TTL cache so a lock
// self-heals if a caller crashes mid-request (§5).
package synccache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
)

// DefaultTTL is how long an acquired lock survives without being released —
// long enough to cover one finalize-refund round trip to the payment
// processor, short enough that a crashed holder doesn't wedge an order.
const DefaultTTL = 30 * time.Second

var heldMarker = []byte{1}

// OrderSyncLockCache is the AbstractOrderSyncLockCache contract from §5:
// Acquire fails if another user already holds the order's lock, Release
// clears it unconditionally.
type OrderSyncLockCache struct {
	cache *bigcache.BigCache
}

// New builds a lock cache whose entries expire after ttl if never released.
func New(ttl time.Duration) (*OrderSyncLockCache, error) {
	cfg := bigcache.DefaultConfig(ttl)
	cfg.CleanWindow = ttl / 2
	c, err := bigcache.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	return &OrderSyncLockCache{cache: c}, nil
}

// Acquire claims the lock for (usrID, orderID), returning false if another
// user already holds it and true once acquired.
func (c *OrderSyncLockCache) Acquire(usrID uint32, orderID string) (bool, error) {
	key := lockKey(usrID, orderID)
	if _, err := c.cache.Get(key); err == nil {
		return false, nil
	} else if !errors.Is(err, bigcache.ErrEntryNotFound) {
		return false, err
	}
	if err := c.cache.Set(key, heldMarker); err != nil {
		return false, err
	}
	return true, nil
}

// Release clears the lock for (usrID, orderID); releasing an unheld lock is
// a no-op.
func (c *OrderSyncLockCache) Release(usrID uint32, orderID string) error {
	err := c.cache.Delete(lockKey(usrID, orderID))
	if err != nil && errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil
	}
	return err
}

func lockKey(usrID uint32, orderID string) string {
	return fmt.Sprintf("%d:%s", usrID, orderID)
}
