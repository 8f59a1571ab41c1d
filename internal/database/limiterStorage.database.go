package database

import (
	"context"
	"time"

	"hostly/internal/constants"

	"github.com/valkey-io/valkey-go"
)

// LimiterStorage adapts a valkey client to fiber.Storage so rate limiter
// counters are shared across API instances.
type LimiterStorage struct {
	cache valkey.Client
}

func NewLimiterStorage(cache valkey.Client) *LimiterStorage {
	return &LimiterStorage{cache: cache}
}

func (s *LimiterStorage) Get(key string) ([]byte, error) {
	data, found, err := NewCacheBuilder(s.cache, key).WithHash(constants.LimiterCachePrefix).GetRaw()
	if err != nil || !found {
		return nil, err
	}
	return data, nil
}

func (s *LimiterStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	return NewCacheBuilder(s.cache, key).WithHash(constants.LimiterCachePrefix).WithTTL(exp).SetRaw(val)
}

func (s *LimiterStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	return NewCacheBuilder(s.cache, key).WithHash(constants.LimiterCachePrefix).Delete()
}

func (s *LimiterStorage) Reset() error {
	if s.cache == nil {
		return ErrCacheDisabled
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	keys, err := s.cache.Do(ctx, s.cache.B().Keys().Pattern(constants.LimiterCachePrefix+":*").Build()).AsStrSlice()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.cache.Do(ctx, s.cache.B().Del().Key(keys...).Build()).Error()
}

// Close is a no-op; the client is owned by DB.
func (s *LimiterStorage) Close() error {
	return nil
}
