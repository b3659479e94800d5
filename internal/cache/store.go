package cache

import (
	"context"
	"errors"
	"strconv"
	"time"
)

const (
	otpPrefix           = "otp:"
	loginAttemptsPrefix = "login_attempts:"
	trialUsedPrefix     = "trial_used:"
	blacklistPrefix     = "session_blacklist:"
	rateLimitPrefix     = "rate_limit:"
)

// Store wraps a Cache with the marketplace key layout.
type Store struct {
	cache Cache
}

func NewStore(c Cache) *Store {
	return &Store{cache: c}
}

func (s *Store) Cache() Cache {
	return s.cache
}

func (s *Store) SaveOTP(ctx context.Context, phone, code string, ttl time.Duration) error {
	return s.cache.Set(ctx, otpPrefix+phone, code, ttl)
}

// OTP returns the stored code, or "" when none is pending.
func (s *Store) OTP(ctx context.Context, phone string) (string, error) {
	code, err := s.cache.Get(ctx, otpPrefix+phone)
	if errors.Is(err, ErrMiss) {
		return "", nil
	}
	return code, err
}

func (s *Store) DeleteOTP(ctx context.Context, phone string) error {
	return s.cache.Del(ctx, otpPrefix+phone)
}

func (s *Store) LoginAttempts(ctx context.Context, ip string) (int, error) {
	v, err := s.cache.Get(ctx, loginAttemptsPrefix+ip)
	if errors.Is(err, ErrMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func (s *Store) RecordFailedLogin(ctx context.Context, ip string, window time.Duration) (int64, error) {
	return s.cache.Incr(ctx, loginAttemptsPrefix+ip, window)
}

func (s *Store) ResetLoginAttempts(ctx context.Context, ip string) error {
	return s.cache.Del(ctx, loginAttemptsPrefix+ip)
}

func (s *Store) TrialUsed(ctx context.Context, fingerprint string) (bool, error) {
	return s.cache.Exists(ctx, trialUsedPrefix+fingerprint)
}

func (s *Store) MarkTrialUsed(ctx context.Context, fingerprint string, ttl time.Duration) error {
	return s.cache.Set(ctx, trialUsedPrefix+fingerprint, "1", ttl)
}

// Blacklist revokes token until it would have expired anyway.
func (s *Store) Blacklist(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.cache.Set(ctx, blacklistPrefix+token, "1", ttl)
}

func (s *Store) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	return s.cache.Exists(ctx, blacklistPrefix+token)
}

// HitRateLimit counts one request for ip in the current window and returns
// the running count plus the time left in the window.
func (s *Store) HitRateLimit(ctx context.Context, ip string, window time.Duration) (int64, time.Duration, error) {
	key := rateLimitPrefix + ip
	n, err := s.cache.Incr(ctx, key, window)
	if err != nil {
		return 0, 0, err
	}
	ttl, err := s.cache.TTL(ctx, key)
	if err != nil {
		return n, 0, err
	}
	return n, ttl, nil
}
