package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"trusthaven/internal/models"
)

// OTPStore holds pending phone verifications and send counters in Redis.
type OTPStore struct {
	rdb redis.Cmdable
}

func NewOTPStore(rdb redis.Cmdable) *OTPStore {
	return &OTPStore{rdb: rdb}
}

func verificationKey(id string) string { return "otp:verification:" + id }
func attemptKey(id string) string      { return "otp:attempts:" + id }
func sendCountKey(phone string) string { return "otp:sends:" + phone }
func quotaKey(day time.Time) string    { return "otp:quota:" + day.UTC().Format("20060102") }

func (s *OTPStore) SaveVerification(ctx context.Context, id string, v models.PhoneVerification, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, verificationKey(id), data, ttl).Err()
}

// GetVerification returns models.ErrNoRecord once the verification expired or was consumed.
func (s *OTPStore) GetVerification(ctx context.Context, id string) (models.PhoneVerification, error) {
	data, err := s.rdb.Get(ctx, verificationKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.PhoneVerification{}, models.ErrNoRecord
	}
	if err != nil {
		return models.PhoneVerification{}, err
	}

	var v models.PhoneVerification
	if err := json.Unmarshal(data, &v); err != nil {
		return models.PhoneVerification{}, err
	}
	return v, nil
}

// DeleteVerification reports whether this call removed the verification.
// The attempt counter is left to expire so late guesses still count.
func (s *OTPStore) DeleteVerification(ctx context.Context, id string) (bool, error) {
	n, err := s.rdb.Del(ctx, verificationKey(id)).Result()
	return n == 1, err
}

// CountAttempt takes one guess against the verification and returns the
// number taken so far. INCR keeps concurrent guesses from sharing a count.
func (s *OTPStore) CountAttempt(ctx context.Context, id string, ttl time.Duration) (int64, error) {
	return s.incrWithExpiry(ctx, attemptKey(id), ttl)
}

// CountSend records one send to phone and returns the count within window.
func (s *OTPStore) CountSend(ctx context.Context, phone string, window time.Duration) (int64, error) {
	return s.incrWithExpiry(ctx, sendCountKey(phone), window)
}

// CountDaily records one SMS against today's global quota.
func (s *OTPStore) CountDaily(ctx context.Context, now time.Time) (int64, error) {
	return s.incrWithExpiry(ctx, quotaKey(now), 48*time.Hour)
}

func (s *OTPStore) incrWithExpiry(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := s.rdb.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, err
		}
	}
	return n, nil
}
