package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iurnickita/clarsix/internal/store/config"
)

// ключ сессии: session:{id} -> JSON сессии, TTL = время жизни сессии
const keySession = "session:%s"

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func newRedisStore(cfg config.Config) (*redisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisStore{client: client, ttl: cfg.SessionTTL}, nil
}

func (store *redisStore) SessionPut(ctx context.Context, session Session) error {
	if err := validate(session); err != nil {
		return err
	}
	ttl := store.ttl
	if session.ExpiresAt.IsZero() {
		session.ExpiresAt = time.Now().Add(ttl)
	} else {
		ttl = time.Until(session.ExpiresAt)
		if ttl <= 0 {
			return nil
		}
	}

	value, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return store.client.Set(ctx, fmt.Sprintf(keySession, session.ID), value, ttl).Err()
}

func (store *redisStore) SessionGet(ctx context.Context, id string) (Session, error) {
	value, err := store.client.Get(ctx, fmt.Sprintf(keySession, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrNoRows
		}
		return Session{}, err
	}

	var session Session
	if err := json.Unmarshal(value, &session); err != nil {
		return Session{}, err
	}
	return session, nil
}

func (store *redisStore) SessionDelete(ctx context.Context, id string) error {
	return store.client.Del(ctx, fmt.Sprintf(keySession, id)).Err()
}

func (store *redisStore) Close() error {
	return store.client.Close()
}
