package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"twikitmcp/internal/constants"
	"twikitmcp/internal/crypto"
)

// RedisStore shares session records between processes. Records carry no
// TTL: the platform decides when cookies expire.
type RedisStore struct {
	client *redis.Client
	sealer *crypto.Sealer
}

func NewRedisStore(ctx context.Context, host, port, username, password string, sealer *crypto.Sealer) (*RedisStore, error) {
	opts := &redis.Options{
		Addr:     host + ":" + port,
		Username: username,
		Password: password,
		DB:       0,
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisStore{client: client, sealer: sealer}, nil
}

func (st *RedisStore) Load(ctx context.Context, account string) (Record, error) {
	data, err := st.client.Get(ctx, redisKey(account)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNoRecord
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to get session from Redis: %w", err)
	}

	if crypto.IsSealed(data) {
		if st.sealer == nil {
			return Record{}, fmt.Errorf("%w: %v", ErrInvalidRecord, crypto.ErrSealed)
		}
		if data, err = st.sealer.Open(data); err != nil {
			return Record{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
		}
	}

	var cookies map[string]string
	if err := json.Unmarshal(data, &cookies); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	log.Printf("🔍 Got session from Redis: %s", account)
	rec := Record{Cookies: cookies}
	if err := rec.validate(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (st *RedisStore) Save(ctx context.Context, account string, rec Record) error {
	data, err := json.Marshal(rec.Cookies)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if st.sealer != nil {
		if data, err = st.sealer.Seal(data); err != nil {
			return fmt.Errorf("failed to seal session: %w", err)
		}
	}

	if err := st.client.Set(ctx, redisKey(account), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save session to Redis: %w", err)
	}
	log.Printf("💾 Session saved to Redis: %s", account)
	return nil
}

func (st *RedisStore) Delete(ctx context.Context, account string) error {
	if err := st.client.Del(ctx, redisKey(account)).Err(); err != nil {
		return fmt.Errorf("failed to delete session from Redis: %w", err)
	}
	return nil
}

func (st *RedisStore) Close() error {
	return st.client.Close()
}

func redisKey(account string) string {
	return constants.RedisKeyPrefix + account
}
