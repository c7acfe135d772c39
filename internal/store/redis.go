package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Rusal42/floofwebsite/internal/model"
	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client *redis.Client
	key    string
}

// NewRedis connects to the redis URL and checks the connection once
func NewRedis(ctx context.Context, url, key string) (Durable, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url, %w", err)
	}

	opt.MaxRetries = 0

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis, %w", err)
	}

	return &redisStore{client: client, key: key}, nil
}

func (r *redisStore) TryGet(ctx context.Context) (model.StatsRecord, bool) {
	b, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			absorb(r.Name(), "get", err)
		}

		return model.StatsRecord{}, false
	}

	rec, err := decodeRecord(b)
	if err != nil {
		absorb(r.Name(), "decode", err)
		return model.StatsRecord{}, false
	}

	return rec, true
}

func (r *redisStore) TrySet(ctx context.Context, rec model.StatsRecord) {
	b, err := json.Marshal(rec)
	if err != nil {
		absorb(r.Name(), "encode", err)
		return
	}

	if err := r.client.Set(ctx, r.key, b, 0).Err(); err != nil {
		absorb(r.Name(), "set", err)
	}
}

func (r *redisStore) Name() string { return "redis" }

func (r *redisStore) Close() error {
	return r.client.Close()
}
