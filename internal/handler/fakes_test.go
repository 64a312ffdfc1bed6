package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pestiq-backend/internal/mailer"
	"github.com/iliyamo/pestiq-backend/internal/middleware"
	"github.com/iliyamo/pestiq-backend/internal/model"
	"github.com/iliyamo/pestiq-backend/internal/repository"
	"github.com/iliyamo/pestiq-backend/internal/service"
	"github.com/iliyamo/pestiq-backend/internal/validator"
)

// userStore is an in-memory UserStore and OTPStore.
type userStore struct {
	mu        sync.Mutex
	users     map[string]*model.User
	codes     map[string]string
	companies map[string]bool
	next      uint64
}

func newUserStore() *userStore {
	return &userStore{users: map[string]*model.User{}, codes: map[string]string{}, companies: map[string]bool{}}
}

func (s *userStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (s *userStore) GetByID(_ context.Context, id uint64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *userStore) CompanyNameExists(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.companies[strings.ToLower(name)], nil
}

func (s *userStore) CreateOwner(_ context.Context, u *model.User, company string) (uint64, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	cid := s.next
	c := *u
	c.ID, c.CompanyID, c.IsCompanyOwner = s.next, &cid, true
	s.users[c.Email] = &c
	s.companies[strings.ToLower(company)] = true
	return c.ID, cid, nil
}

func (s *userStore) Activate(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email].IsActive = true
	return nil
}

func (s *userStore) UpdatePassword(_ context.Context, email, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email].PasswordHash = &hash
	return nil
}

func (s *userStore) LinkProvider(context.Context, uint64, string, string, string) error { return nil }

func (s *userStore) SaveOTP(_ context.Context, email, code string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[email] = code
	return nil
}

func (s *userStore) LoadOTP(_ context.Context, email string) (string, time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.codes[email]
	return code, time.Now().Add(time.Minute), ok, nil
}

func (s *userStore) ClearOTP(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, email)
	return nil
}

type nopMailer struct{ err error }

func (m nopMailer) SendOTP(context.Context, string, string, mailer.Purpose) error { return m.err }

func newAuthService(store *userStore, m mailer.Mailer) *service.AuthService {
	return service.NewAuthService(service.AuthConfig{
		JWTSecret:  "handler-secret",
		TokenTTL:   time.Hour,
		OTPTTL:     10 * time.Minute,
		BcryptCost: 4,
		Admin:      service.AdminCredentials{Email: "admin@pestiq.test", Password: "root-pw"},
	}, store, store, m, nil)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validator.New()
	return e
}

// asPrincipal attaches p the way the auth gate does.
func asPrincipal(p model.Principal) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			middleware.SetPrincipal(c, p)
			return next(c)
		}
	}
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}
