package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pestiq-backend/internal/model"
)

func newOTPFixture(t *testing.T) (*OTPManager, *memStore, *clock) {
	t.Helper()
	store := newMemStore()
	store.put(&model.User{Email: "jo@x.com", AuthType: model.AuthNormal})
	clk := &clock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	return NewOTPManager(store, 10*time.Minute, clk.now), store, clk
}

func TestOTPIssueStoresSixDigitsWithExpiry(t *testing.T) {
	m, store, clk := newOTPFixture(t)
	code, err := m.Issue(context.Background(), "jo@x.com")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[1-9][0-9]{5}$`), code)

	u := store.user("jo@x.com")
	require.NotNil(t, u.OTPCode)
	assert.Equal(t, code, *u.OTPCode)
	assert.Equal(t, clk.t.Add(10*time.Minute), *u.OTPExpiry)
}

func TestOTPSecondIssueReplacesFirst(t *testing.T) {
	m, _, _ := newOTPFixture(t)
	ctx := context.Background()
	codes := []string{"111111", "222222"}
	m.gen = func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}
	_, err := m.Issue(ctx, "jo@x.com")
	require.NoError(t, err)
	_, err = m.Issue(ctx, "jo@x.com")
	require.NoError(t, err)

	ok, err := m.Verify(ctx, "jo@x.com", "111111")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = m.Verify(ctx, "jo@x.com", "222222")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOTPExpiry(t *testing.T) {
	m, _, clk := newOTPFixture(t)
	ctx := context.Background()
	code, err := m.Issue(ctx, "jo@x.com")
	require.NoError(t, err)

	clk.add(10 * time.Minute)
	ok, _ := m.Verify(ctx, "jo@x.com", code)
	assert.True(t, ok, "valid at exactly the expiry instant")

	clk.add(time.Second)
	ok, _ = m.Verify(ctx, "jo@x.com", code)
	assert.False(t, ok)
}

func TestOTPVerifyFalseCases(t *testing.T) {
	m, _, _ := newOTPFixture(t)
	ctx := context.Background()

	ok, err := m.Verify(ctx, "nobody@x.com", "123456")
	require.NoError(t, err)
	assert.False(t, ok, "unknown email")

	ok, _ = m.Verify(ctx, "jo@x.com", "123456")
	assert.False(t, ok, "no pending code")

	code, _ := m.Issue(ctx, "jo@x.com")
	ok, _ = m.Verify(ctx, "jo@x.com", "")
	assert.False(t, ok, "empty code")

	require.NoError(t, m.Clear(ctx, "jo@x.com"))
	ok, _ = m.Verify(ctx, "jo@x.com", code)
	assert.False(t, ok, "cleared code")
}
