// Package redisstore keeps bind sessions in Redis so several server instances can share them.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/and161185/discokeeper/internal/crypto"
	"github.com/and161185/discokeeper/internal/errs"
	"github.com/and161185/discokeeper/internal/model"
	"github.com/gofrs/uuid/v5"
	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const keyPrefix = "dk:bind:"

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// Sessions implements repository.SessionStore on top of Redis.
type Sessions struct {
	client *redis.Client
}

// NewSessions wraps client. The client lifecycle is managed by the caller.
func NewSessions(client *redis.Client) *Sessions {
	return &Sessions{client: client}
}

// sessionKey never contains the raw address.
func sessionKey(accountID uuid.UUID, key model.PidKey) string {
	return keyPrefix + accountID.String() + ":" + crypto.FingerprintHex(string(key.Medium), key.Address)
}

// Put stores s with SET EX; ttl <= 0 keeps it without expiry.
func (s *Sessions) Put(ctx context.Context, accountID uuid.UUID, key model.PidKey, sess model.BindSession, ttl time.Duration) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}
	return s.client.Set(ctx, sessionKey(accountID, key), raw, ttl).Err()
}

// Get returns errs.ErrNotFound when the key is absent or expired.
func (s *Sessions) Get(ctx context.Context, accountID uuid.UUID, key model.PidKey) (model.BindSession, error) {
	raw, err := s.client.Get(ctx, sessionKey(accountID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.BindSession{}, errs.ErrNotFound
	}
	if err != nil {
		return model.BindSession{}, err
	}
	var out model.BindSession
	if err := json.Unmarshal(raw, &out); err != nil {
		return model.BindSession{}, fmt.Errorf("decode session: %w", err)
	}
	return out, nil
}

// Delete removes the session.
func (s *Sessions) Delete(ctx context.Context, accountID uuid.UUID, key model.PidKey) error {
	return s.client.Del(ctx, sessionKey(accountID, key)).Err()
}
