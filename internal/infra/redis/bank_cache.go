package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"nf-quiz-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// BankLoader fetches the question bank from the system of record.
type BankLoader interface {
	LoadBank(ctx context.Context) ([]domain.QuizItem, error)
}

// DefaultBankKey holds the JSON encoded bank.
const DefaultBankKey = "nfquiz:bank:items"

// BankCache shares the question bank between replicas through Redis and falls back to the
// loader on a miss. A Redis outage degrades to direct loads instead of failing quiz starts.
type BankCache struct {
	client *redis.Client
	loader BankLoader
	ttl    time.Duration
	key    string
	log    *zap.Logger
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewBankCache(client *redis.Client, loader BankLoader, ttl time.Duration, log *zap.Logger) *BankCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &BankCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		key:    DefaultBankKey,
		log:    log,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *BankCache) LoadBank(ctx context.Context) ([]domain.QuizItem, error) {
	if items, ok := c.cached(ctx); ok {
		return items, nil
	}

	result, err, _ := c.sf.Do(c.key, func() (interface{}, error) {
		// another caller may have filled the key meanwhile
		if items, ok := c.cached(ctx); ok {
			return items, nil
		}
		items, err := c.loader.LoadBank(ctx)
		if err != nil {
			return nil, err
		}
		c.store(ctx, items)
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.QuizItem), nil
}

// Bank makes the cache usable directly as the service bank provider.
func (c *BankCache) Bank(ctx context.Context) ([]domain.QuizItem, error) {
	return c.LoadBank(ctx)
}

// Invalidate removes the shared copy so every replica reloads.
func (c *BankCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("invalidate bank cache: %w", err)
	}
	return nil
}

func (c *BankCache) cached(ctx context.Context) ([]domain.QuizItem, bool) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("bank cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var items []domain.QuizItem
	if err := json.Unmarshal(raw, &items); err != nil {
		c.log.Warn("bank cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return items, len(items) > 0
}

func (c *BankCache) store(ctx context.Context, items []domain.QuizItem) {
	raw, err := json.Marshal(items)
	if err != nil {
		c.log.Warn("bank cache encode failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.key, raw, c.ttlWithJitter()).Err(); err != nil {
		c.log.Warn("bank cache write failed", zap.Error(err))
	}
}

func (c *BankCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
