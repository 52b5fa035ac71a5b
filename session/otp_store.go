package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrOTPNotFound        = errors.New("otp expired or invalid")
	ErrTooManyOTPAttempts = errors.New("too many otp attempts")
)

// MaxOTPAttempts is how many verifications one code allows.
const MaxOTPAttempts = 5

// OTPStore keeps one pending registration code per email; a new code replaces
// the old one and restarts its TTL.
type OTPStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewOTPStore(rdb *redis.Client, ttl time.Duration) *OTPStore { return &OTPStore{rdb: rdb, ttl: ttl} }

func (s *OTPStore) TTL() time.Duration { return s.ttl }

func otpKey(email string) string {
	return fmt.Sprintf("cl:otp:%s", strings.ToLower(strings.TrimSpace(email)))
}

func attemptsKey(email string) string {
	return fmt.Sprintf("cl:otp_attempts:%s", strings.ToLower(strings.TrimSpace(email)))
}

// NewCode returns a random 6-digit code.
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Save stores a fresh code and resets the attempt counter.
func (s *OTPStore) Save(ctx context.Context, email, code string) error {
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, otpKey(email), code, s.ttl)
	pipe.Del(ctx, attemptsKey(email))
	_, err := pipe.Exec(ctx)
	return err
}

// Attempt counts one verification try. Past MaxOTPAttempts the code is
// discarded and ErrTooManyOTPAttempts is returned.
func (s *OTPStore) Attempt(ctx context.Context, email string) error {
	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(ctx, attemptsKey(email))
	pipe.Expire(ctx, attemptsKey(email), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	if incr.Val() > MaxOTPAttempts {
		s.Delete(ctx, email)
		return ErrTooManyOTPAttempts
	}
	return nil
}

func (s *OTPStore) Load(ctx context.Context, email string) (string, error) {
	code, err := s.rdb.Get(ctx, otpKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrOTPNotFound
	}
	return code, err
}

func (s *OTPStore) Delete(ctx context.Context, email string) {
	_ = s.rdb.Del(ctx, otpKey(email), attemptsKey(email)).Err()
}
