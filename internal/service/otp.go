package service

import (
	"context"
	"time"

	"github.com/iliyamo/pestiq-backend/internal/utils"
)

// OTPStore persists the single pending code of an account.
type OTPStore interface {
	SaveOTP(ctx context.Context, email, code string, expiresAt time.Time) error
	LoadOTP(ctx context.Context, email string) (code string, expiresAt time.Time, ok bool, err error)
	ClearOTP(ctx context.Context, email string) error
}

// OTPManager issues, verifies and clears one-time codes.  Each issue
// overwrites the previous code, so only the latest one verifies.
type OTPManager struct {
	store OTPStore
	ttl   time.Duration
	now   func() time.Time
	gen   func() (string, error)
}

func NewOTPManager(store OTPStore, ttl time.Duration, now func() time.Time) *OTPManager {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &OTPManager{store: store, ttl: ttl, now: now, gen: utils.NumericCode}
}

// TTL is the validity window of a freshly issued code.
func (m *OTPManager) TTL() time.Duration { return m.ttl }

// Issue stores a fresh 6-digit code for email and returns it.
func (m *OTPManager) Issue(ctx context.Context, email string) (string, error) {
	code, err := m.gen()
	if err != nil {
		return "", err
	}
	if err := m.store.SaveOTP(ctx, email, code, m.now().Add(m.ttl)); err != nil {
		return "", err
	}
	return code, nil
}

// Verify reports whether code is the pending code for email and has not
// expired.  Unknown email, no pending code, wrong code and expiry all yield
// false.  The code stays stored; callers Clear it after acting on success.
func (m *OTPManager) Verify(ctx context.Context, email, code string) (bool, error) {
	stored, exp, ok, err := m.store.LoadOTP(ctx, email)
	if err != nil || !ok {
		return false, err
	}
	if m.now().After(exp) {
		return false, nil
	}
	return code != "" && utils.SecretEqual(stored, code), nil
}

func (m *OTPManager) Clear(ctx context.Context, email string) error {
	return m.store.ClearOTP(ctx, email)
}
