package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"nf-quiz-service/internal/domain"

	"golang.org/x/sync/singleflight"
)

// BankLoader fetches the question bank from a backing store.
type BankLoader interface {
	LoadBank(ctx context.Context) ([]domain.QuizItem, error)
}

const bankKey = "bank"

// BankCache keeps the question bank in process with a TTL so quiz starts do not hit the DB.
type BankCache struct {
	loader BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu        sync.RWMutex
	rnd       *rand.Rand
	items     []domain.QuizItem
	expiresAt time.Time
}

func NewBankCache(loader BankLoader, ttl time.Duration) *BankCache {
	return &BankCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Bank returns the cached bank, reloading it once per expiry even under concurrent callers.
func (c *BankCache) Bank(ctx context.Context) ([]domain.QuizItem, error) {
	if items, ok := c.fresh(); ok {
		return items, nil
	}

	result, err, _ := c.sf.Do(bankKey, func() (interface{}, error) {
		if items, ok := c.fresh(); ok {
			return items, nil
		}
		items, err := c.loader.LoadBank(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.items = items
		c.expiresAt = c.clock().Add(c.ttlWithJitterLocked())
		c.mu.Unlock()
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.QuizItem), nil
}

// LoadBank lets the cache stand in wherever a loader is expected.
func (c *BankCache) LoadBank(ctx context.Context) ([]domain.QuizItem, error) {
	return c.Bank(ctx)
}

// Invalidate drops the cached bank, e.g. after a reseed.
func (c *BankCache) Invalidate() {
	c.mu.Lock()
	c.items = nil
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}

func (c *BankCache) fresh() ([]domain.QuizItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.items != nil && c.expiresAt.After(c.clock()) {
		return c.items, true
	}
	return nil, false
}

func (c *BankCache) ttlWithJitterLocked() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter so replicas do not reload in lockstep
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StaticBankLoader serves a fixed bank, for tests and the demo mode without a database.
type StaticBankLoader struct {
	items []domain.QuizItem
}

func NewStaticBankLoader(items []domain.QuizItem) *StaticBankLoader {
	return &StaticBankLoader{items: items}
}

func (l *StaticBankLoader) LoadBank(_ context.Context) ([]domain.QuizItem, error) {
	if len(l.items) == 0 {
		return nil, domain.ErrItemNotFound
	}
	out := make([]domain.QuizItem, len(l.items))
	copy(out, l.items)
	return out, nil
}
