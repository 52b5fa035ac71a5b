package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// AppSessionStore keeps login sessions as Redis hashes, plus a per-user set of
// session ids so an account can be signed out everywhere.
type AppSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAppSessionStore(rdb *redis.Client, ttl time.Duration) *AppSessionStore {
	return &AppSessionStore{rdb: rdb, ttl: ttl}
}

func (s *AppSessionStore) TTL() time.Duration { return s.ttl }

type AppSession struct {
	UserID    string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func key(id string) string         { return fmt.Sprintf("cl:sess:%s", id) }
func userSetKey(uid string) string { return fmt.Sprintf("cl:user_sessions:%s", uid) }

func (s *AppSessionStore) Create(ctx context.Context, id, userID, role string) error {
	now := time.Now()
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key(id),
		"uid", userID,
		"role", role,
		"iat", now.Unix(),
		"exp", now.Add(s.ttl).Unix(),
	)
	pipe.Expire(ctx, key(id), s.ttl)
	pipe.SAdd(ctx, userSetKey(userID), id)
	pipe.Expire(ctx, userSetKey(userID), s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Get returns redis.Nil for a missing or expired session.
func (s *AppSessionStore) Get(ctx context.Context, id string) (*AppSession, error) {
	m, err := s.rdb.HGetAll(ctx, key(id)).Result()
	if err != nil {
		return nil, err
	}
	if m["uid"] == "" {
		return nil, redis.Nil
	}
	iat, _ := strconv.ParseInt(m["iat"], 10, 64)
	exp, _ := strconv.ParseInt(m["exp"], 10, 64)
	return &AppSession{
		UserID:    m["uid"],
		Role:      m["role"],
		IssuedAt:  time.Unix(iat, 0),
		ExpiresAt: time.Unix(exp, 0),
	}, nil
}

// Refresh slides the session's expiry forward by the store TTL.
func (s *AppSessionStore) Refresh(ctx context.Context, id, userID string) error {
	exp := time.Now().Add(s.ttl).Unix()
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key(id), "exp", exp)
	pipe.Expire(ctx, key(id), s.ttl)
	pipe.Expire(ctx, userSetKey(userID), s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *AppSessionStore) Delete(ctx context.Context, id string) error {
	uid, err := s.rdb.HGet(ctx, key(id), "uid").Result()
	if err != nil && err != redis.Nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key(id))
	if uid != "" {
		pipe.SRem(ctx, userSetKey(uid), id)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// RevokeAllForUser drops every session of a deleted user.
func (s *AppSessionStore) RevokeAllForUser(ctx context.Context, userID string) error {
	ids, err := s.rdb.SMembers(ctx, userSetKey(userID)).Result()
	if err != nil && err != redis.Nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	for _, sid := range ids {
		pipe.Del(ctx, key(sid))
	}
	pipe.Del(ctx, userSetKey(userID))
	_, err = pipe.Exec(ctx)
	return err
}
