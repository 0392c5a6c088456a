package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Значения по умолчанию для распределенной блокировки
const (
	DefaultTTL        = 10 * time.Second
	DefaultRetryEvery = 25 * time.Millisecond
	DefaultWait       = 3 * time.Second
)

// Снимаем блокировку, только если она все еще наша
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker блокировка между инстансами сервиса на Redis (SET NX PX)
type RedisLocker struct {
	rdb        redis.UniversalClient
	prefix     string
	ttl        time.Duration
	retryEvery time.Duration
	wait       time.Duration
	logger     Logger
}

// RedisConfig параметры распределенной блокировки
type RedisConfig struct {
	Prefix     string
	TTL        time.Duration // время жизни ключа, если держатель упал
	RetryEvery time.Duration
	Wait       time.Duration // сколько ждать занятый ключ
}

// NewRedisLocker создает новый экземпляр блокировок на Redis
func NewRedisLocker(rdb redis.UniversalClient, cfg RedisConfig, logger Logger) *RedisLocker {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.RetryEvery <= 0 {
		cfg.RetryEvery = DefaultRetryEvery
	}
	if cfg.Wait <= 0 {
		cfg.Wait = DefaultWait
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "lock"
	}
	return &RedisLocker{
		rdb:        rdb,
		prefix:     cfg.Prefix,
		ttl:        cfg.TTL,
		retryEvery: cfg.RetryEvery,
		wait:       cfg.Wait,
		logger:     logger,
	}
}

// Lock пытается занять ключ, пока не истечет время ожидания или контекст
func (l *RedisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	fullKey := l.prefix + ":" + key
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	ticker := time.NewTicker(l.retryEvery)
	defer ticker.Stop()

	for {
		ok, err := l.rdb.SetNX(waitCtx, fullKey, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: SETNX key=%s: %w", ErrLockBackend, fullKey, err)
		}
		if ok {
			return l.unlockFunc(fullKey, token), nil
		}

		select {
		case <-waitCtx.Done():
			return nil, fmt.Errorf("%w: key=%s", ErrLockTimeout, fullKey)
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) unlockFunc(key, token string) Unlock {
	var once sync.Once
	return func() {
		once.Do(func() {
			// Контекст запроса может быть уже отменен, а ключ снять нужно
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil && l.logger != nil {
				l.logger.Warn("RedisLocker: failed to release key=%s: %v", key, err)
			}
		})
	}
}
