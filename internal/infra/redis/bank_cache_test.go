package redis

import (
	"context"
	"testing"
	"time"

	"nf-quiz-service/internal/domain"
	"nf-quiz-service/internal/infra/memory"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestBankCacheStoresInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{BankLoader: memory.NewStaticBankLoader(sampleBank())}
	cache := NewBankCache(newClient(mr), loader, time.Minute, nil)

	items, err := cache.LoadBank(context.Background())
	if err != nil {
		t.Fatalf("load bank: %v", err)
	}
	if len(items) != 2 || loader.calls != 1 {
		t.Fatalf("expected 2 items from one load, got %d items and %d loads", len(items), loader.calls)
	}
	if !mr.Exists(DefaultBankKey) {
		t.Fatalf("expected %s to be written", DefaultBankKey)
	}
	if ttl := mr.TTL(DefaultBankKey); ttl < time.Minute || ttl > 66*time.Second {
		t.Fatalf("expected ttl with up to 10%% jitter, got %s", ttl)
	}

	items, err = cache.Bank(context.Background())
	if err != nil {
		t.Fatalf("bank: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if items[0].CorrectAnswer != "A" || items[0].Level != domain.LevelFD {
		t.Fatalf("cached item lost fields: %+v", items[0])
	}
}

func TestBankCacheReloadsAfterExpiryAndInvalidate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{BankLoader: memory.NewStaticBankLoader(sampleBank())}
	cache := NewBankCache(newClient(mr), loader, time.Minute, nil)

	_, _ = cache.LoadBank(context.Background())
	mr.FastForward(2 * time.Minute)
	_, _ = cache.LoadBank(context.Background())
	if loader.calls != 2 {
		t.Fatalf("expected reload after expiry, got %d loads", loader.calls)
	}

	if err := cache.Invalidate(context.Background()); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = cache.LoadBank(context.Background())
	if loader.calls != 3 {
		t.Fatalf("expected reload after invalidate, got %d loads", loader.calls)
	}
}

func TestBankCacheFallsBackWhenRedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := newClient(mr)
	mr.Close()

	loader := &countingLoader{BankLoader: memory.NewStaticBankLoader(sampleBank())}
	cache := NewBankCache(client, loader, time.Minute, nil)

	items, err := cache.LoadBank(context.Background())
	if err != nil {
		t.Fatalf("expected loader fallback, got %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
}

type countingLoader struct {
	BankLoader
	calls int
}

func (l *countingLoader) LoadBank(ctx context.Context) ([]domain.QuizItem, error) {
	l.calls++
	return l.BankLoader.LoadBank(ctx)
}

func sampleBank() []domain.QuizItem {
	return []domain.QuizItem{
		{ID: "fd-1", Question: "Which attribute determines the others?", Options: []string{"A", "B", "C", "D"}, CorrectAnswer: "A", Level: domain.LevelFD, Concept: "Functional Dependency"},
		{ID: "2nf-1", Question: "Which attribute depends on part of the key?", Options: []string{"A", "B", "C", "D"}, CorrectAnswer: "B", Level: domain.Level2NF, Concept: "Partial Dependency"},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        mr.Addr(),
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
}
