package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Adapter caches model responses as plain string keys with an expiry.
type Adapter struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

type Option func(*Adapter)

const (
	defaultPrefix = "rageval:llm:"
	defaultTTL    = 7 * 24 * time.Hour
)

func New(client *redis.Client, options ...Option) *Adapter {
	a := &Adapter{
		client: client,
		prefix: defaultPrefix,
		ttl:    defaultTTL,
		logger: zap.NewNop(),
	}

	for _, o := range options {
		o(a)
	}

	a.logger.Sugar().With(
		"prefix", a.prefix,
		"ttl", a.ttl,
	).Info("init redis adapter")

	return a
}

func WithPrefix(prefix string) Option {
	return func(a *Adapter) {
		a.prefix = prefix
	}
}

// WithTTL sets the expiry of cached entries, zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(a *Adapter) {
		a.ttl = ttl
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

const adapterName = "redis"

func (a *Adapter) Name() string {
	return adapterName
}

func (a *Adapter) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := a.client.Get(ctx, a.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (a *Adapter) Set(ctx context.Context, key, value string) error {
	return a.client.Set(ctx, a.prefix+key, value, a.ttl).Err()
}

func (a *Adapter) Ping(ctx context.Context) error {
	return a.client.Ping(ctx).Err()
}
