package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultLedgerTTL = 24 * time.Hour

// ImportLedger remembers committed CSV imports by idempotency key.
// Key format: import:<idempotency_key>, value: imported row count.
type ImportLedger struct {
	client *redis.Client
	ttl    time.Duration
}

// NewImportLedger wraps client. Entries expire after ttl (24h when ttl <= 0).
func NewImportLedger(client *redis.Client, ttl time.Duration) *ImportLedger {
	if ttl <= 0 {
		ttl = defaultLedgerTTL
	}
	return &ImportLedger{client: client, ttl: ttl}
}

func (l *ImportLedger) Lookup(ctx context.Context, key string) (int, bool, error) {
	val, err := l.client.Get(ctx, l.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("import ledger lookup: %w", err)
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("import ledger value %q: %w", val, err)
	}
	return n, true, nil
}

func (l *ImportLedger) Remember(ctx context.Context, key string, imported int) error {
	return l.client.Set(ctx, l.key(key), imported, l.ttl).Err()
}

func (l *ImportLedger) key(k string) string {
	return "import:" + k
}
