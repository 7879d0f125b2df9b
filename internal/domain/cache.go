package domain

import (
	"context"
	"time"
)

// QuoteCache memoizes serialized calculator results
type QuoteCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
