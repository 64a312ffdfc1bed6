// Package service holds the authentication core and the bridge to the
// external pest-detection engine.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/pestiq-backend/internal/logger"
	"github.com/iliyamo/pestiq-backend/internal/mailer"
	"github.com/iliyamo/pestiq-backend/internal/model"
	"github.com/iliyamo/pestiq-backend/internal/queue"
	"github.com/iliyamo/pestiq-backend/internal/repository"
	"github.com/iliyamo/pestiq-backend/internal/utils"
)

// UserStore is the credential store the auth flows need.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	CompanyNameExists(ctx context.Context, name string) (bool, error)
	CreateOwner(ctx context.Context, u *model.User, companyName string) (userID, companyID uint64, err error)
	Activate(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, email, hash string) error
	LinkProvider(ctx context.Context, id uint64, provider, providerID, avatar string) error
}

// AuthConfig carries the settings of AuthService.
type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	OTPTTL     time.Duration
	BcryptCost int
	Admin      AdminCredentials
	Now        func() time.Time // defaults to time.Now
}

// AuthService implements registration, OTP verification, password and
// social login, and principal resolution for the auth gate.
type AuthService struct {
	users  UserStore
	otp    *OTPManager
	mail   mailer.Mailer
	events queue.EventPublisher
	cfg    AuthConfig
	now    func() time.Time
}

func NewAuthService(cfg AuthConfig, users UserStore, otps OTPStore, m mailer.Mailer, events queue.EventPublisher) *AuthService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 7 * 24 * time.Hour
	}
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &AuthService{
		users:  users,
		otp:    NewOTPManager(otps, cfg.OTPTTL, now),
		mail:   m,
		events: events,
		cfg:    cfg,
		now:    now,
	}
}

// Session is the result of every successful login.
type Session struct {
	Token               string      `json:"token"`
	ExpiresAt           time.Time   `json:"expires_at"`
	User                *model.User `json:"user,omitempty"`
	Role                string      `json:"role"`
	NeedCompanyCreation bool        `json:"need_company_creation"`
	Created             bool        `json:"-"` // social signup created a new account
}

// RegisterInput is a normal (password) signup of a company owner.
type RegisterInput struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	CompanyName string
}

// Registration identifies the rows created by Register.
type Registration struct {
	UserID    uint64 `json:"user_id"`
	CompanyID uint64 `json:"-"`
	Email     string `json:"email"`
}

// SocialIdentity is what a provider asserts about a user.
type SocialIdentity struct {
	Email      string
	Provider   string
	ProviderID string
	Avatar     string
}

// SocialProfile adds the names needed to create an account.
type SocialProfile struct {
	SocialIdentity
	FirstName string
	LastName  string
}

// PendingSignup is returned by the Google flow for unknown emails so the
// frontend can pre-fill its signup form.
type PendingSignup struct {
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	ProviderID string `json:"provider_id"`
	Avatar     string `json:"avatar"`
}

// Register creates an inactive owner with its company and mails a
// verification code.  When delivery fails the rows and the code are kept
// and ErrOTPDelivery is returned together with the registration.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Registration, error) {
	email := strings.TrimSpace(in.Email)
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	taken, err := s.users.CompanyNameExists(ctx, in.CompanyName)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrCompanyNameExists
	}
	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		PasswordHash: &hash,
		AuthType:     model.AuthNormal,
		IsActive:     false,
	}
	userID, companyID, err := s.users.CreateOwner(ctx, u, strings.TrimSpace(in.CompanyName))
	switch {
	case errors.Is(err, repository.ErrEmailExists):
		return nil, ErrUserExists
	case errors.Is(err, repository.ErrCompanyNameExists):
		return nil, ErrCompanyNameExists
	case err != nil:
		return nil, err
	}
	reg := &Registration{UserID: userID, CompanyID: companyID, Email: email}

	// the code is stored before the best-effort event goes out
	sendErr := s.sendCode(ctx, email, mailer.PurposeVerify)

	ev := queue.NewEvent(queue.EventUserRegistered, userID, companyID)
	ev.Email = email
	ev.Data = map[string]any{"company": in.CompanyName}
	queue.Emit(ctx, s.events, ev)

	return reg, sendErr
}

// sendCode issues a code and mails it.  A mail failure is reported as
// ErrOTPDelivery; the stored code is not rolled back.
func (s *AuthService) sendCode(ctx context.Context, email string, purpose mailer.Purpose) error {
	code, err := s.otp.Issue(ctx, email)
	if err != nil {
		return err
	}
	if err := s.mail.SendOTP(ctx, email, code, purpose); err != nil {
		logger.FromContext(ctx).Error("otp delivery failed", "email", email, "error", err)
		return fmt.Errorf("%w: %v", ErrOTPDelivery, err)
	}
	return nil
}

// VerifyOTP activates the account if code is valid and then clears it.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) error {
	email = strings.TrimSpace(email)
	ok, err := s.otp.Verify(ctx, email, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidOTP
	}
	if err := s.users.Activate(ctx, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOTP
		}
		return err
	}
	if err := s.otp.Clear(ctx, email); err != nil {
		return err
	}
	ev := queue.NewEvent(queue.EventUserActivated, 0, 0)
	ev.Email = email
	queue.Emit(ctx, s.events, ev)
	return nil
}

// ResendOTP issues and mails a new verification code.
func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	u, err := s.liveUser(ctx, email)
	if err != nil {
		return err
	}
	return s.sendCode(ctx, u.Email, mailer.PurposeVerify)
}

// ForgotPassword mails a password reset code to an active password account.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.liveUser(ctx, email)
	if err != nil {
		return err
	}
	if u.AuthType != model.AuthNormal {
		return &ProviderMismatchError{Provider: u.AuthType}
	}
	if !u.IsActive {
		return ErrAccountInactive
	}
	return s.sendCode(ctx, u.Email, mailer.PurposeReset)
}

// ResetPassword replaces the password of a password account after checking
// the reset code.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	u, err := s.liveUser(ctx, email)
	if err != nil {
		return err
	}
	if u.AuthType != model.AuthNormal {
		return &ProviderMismatchError{Provider: u.AuthType}
	}
	ok, err := s.otp.Verify(ctx, u.Email, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidOTP
	}
	hash, err := utils.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, u.Email, hash); err != nil {
		return err
	}
	return s.otp.Clear(ctx, u.Email)
}

// Login authenticates by email and password.  The configured admin email
// is checked first and never reaches the users table.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	if s.cfg.Admin.Claims(email) {
		if !s.cfg.Admin.Verify(password) {
			return nil, ErrInvalidAdminCredentials
		}
		return s.adminSession()
	}
	u, err := s.liveUser(ctx, email)
	if err != nil {
		return nil, err
	}
	if u.AuthType != model.AuthNormal {
		return nil, &ProviderMismatchError{Provider: u.AuthType}
	}
	if !u.IsActive {
		return nil, ErrAccountInactive
	}
	if u.PasswordHash == nil || !utils.VerifyPassword(*u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return s.sessionFor(u, "")
}

// SocialLogin signs in an existing account by provider-asserted email.
// The provider id is backfilled when the account has none for that
// provider yet; an existing id is never overwritten.
func (s *AuthService) SocialLogin(ctx context.Context, id SocialIdentity) (*Session, error) {
	if !model.IsSocialProvider(id.Provider) {
		return nil, ErrUnsupportedProvider
	}
	u, err := s.users.FindByEmail(ctx, strings.TrimSpace(id.Email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNeedSignup
	}
	if err != nil {
		return nil, err
	}
	return s.loginExisting(ctx, u, id)
}

func (s *AuthService) loginExisting(ctx context.Context, u *model.User, id SocialIdentity) (*Session, error) {
	if u.IsDeleted {
		return nil, ErrAccountDeleted
	}
	if !u.IsActive {
		return nil, ErrNeedOTPVerification
	}
	if id.ProviderID != "" && u.ProviderID(id.Provider) == "" {
		if err := s.users.LinkProvider(ctx, u.ID, id.Provider, id.ProviderID, id.Avatar); err != nil {
			return nil, err
		}
		fresh, err := s.users.GetByID(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		u = fresh
	}
	return s.sessionFor(u, id.Provider)
}

// SocialSignup logs in an existing account or creates an active owner with
// a default company named "<first name>'s Company".
func (s *AuthService) SocialSignup(ctx context.Context, p SocialProfile) (*Session, error) {
	if !model.IsSocialProvider(p.Provider) {
		return nil, ErrUnsupportedProvider
	}
	email := strings.TrimSpace(p.Email)
	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return s.loginExisting(ctx, existing, p.SocialIdentity)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	first := strings.TrimSpace(p.FirstName)
	u := &model.User{
		FirstName: first,
		LastName:  strings.TrimSpace(p.LastName),
		Email:     email,
		AuthType:  p.Provider,
		IsActive:  true,
	}
	setProvider(u, p.Provider, p.ProviderID, p.Avatar)

	name, err := s.defaultCompanyName(ctx, first)
	if err != nil {
		return nil, err
	}
	userID, companyID, err := s.users.CreateOwner(ctx, u, name)
	switch {
	case errors.Is(err, repository.ErrEmailExists):
		return nil, ErrUserExists
	case errors.Is(err, repository.ErrCompanyNameExists):
		// taken by a concurrent signup after defaultCompanyName looked
		return nil, ErrCompanyNameExists
	case err != nil:
		return nil, err
	}
	created, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	ev := queue.NewEvent(queue.EventUserSocialSignup, userID, companyID)
	ev.Email = email
	ev.Data = map[string]any{"provider": p.Provider, "company": name}
	queue.Emit(ctx, s.events, ev)

	sess, err := s.sessionFor(created, p.Provider)
	if err != nil {
		return nil, err
	}
	sess.Created = true
	return sess, nil
}

// defaultCompanyName returns "<first>'s Company", numbered when the plain
// name is already taken.
func (s *AuthService) defaultCompanyName(ctx context.Context, first string) (string, error) {
	base := first + "'s Company"
	name := base
	for i := 2; i <= 20; i++ {
		taken, err := s.users.CompanyNameExists(ctx, name)
		if err != nil {
			return "", err
		}
		if !taken {
			return name, nil
		}
		name = base + " " + strconv.Itoa(i)
	}
	return "", ErrCompanyNameExists
}

// ResolveGoogle handles the OAuth callback.  Unknown emails yield a
// PendingSignup instead of a session; names are split from the display
// name when the provider gave no structured parts.
func (s *AuthService) ResolveGoogle(ctx context.Context, email, givenName, familyName, displayName, providerID, avatar string) (*Session, *PendingSignup, error) {
	id := SocialIdentity{Email: email, Provider: model.AuthGoogle, ProviderID: providerID, Avatar: avatar}
	sess, err := s.SocialLogin(ctx, id)
	if errors.Is(err, ErrNeedSignup) {
		first, last := givenName, familyName
		if first == "" && last == "" {
			first, last = SplitName(displayName)
		}
		return nil, &PendingSignup{Email: email, FirstName: first, LastName: last, ProviderID: providerID, Avatar: avatar}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return sess, nil, nil
}

// SplitName splits a display name into first name and the rest.
func SplitName(display string) (first, last string) {
	parts := strings.Fields(display)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// ResolvePrincipal turns verified token claims into the request identity.
// Admin tokens are trusted as is; every other role is re-derived from the
// current users row.
func (s *AuthService) ResolvePrincipal(ctx context.Context, sc utils.SessionClaims) (model.Principal, error) {
	if sc.Role == model.RoleAdmin {
		return AdminPrincipal(sc.Email), nil
	}
	u, err := s.users.GetByID(ctx, sc.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Principal{}, ErrUnauthorized
	}
	if err != nil {
		return model.Principal{}, err
	}
	if !u.IsActive {
		return model.Principal{}, ErrUnauthorized
	}
	return PrincipalFor(u), nil
}

// liveUser loads a non-deleted user by email.
func (s *AuthService) liveUser(ctx context.Context, email string) (*model.User, error) {
	u, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if u.IsDeleted {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *AuthService) sessionFor(u *model.User, provider string) (*Session, error) {
	role := RoleOf(u)
	sc := utils.SessionClaims{ID: u.ID, Email: u.Email, Role: role, CompanyID: u.CompanyID, AuthType: provider}
	token, exp, err := utils.IssueSessionToken(s.cfg.JWTSecret, sc, s.cfg.TokenTTL, s.now())
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: exp, User: u, Role: role, NeedCompanyCreation: u.Company() == 0}, nil
}

func (s *AuthService) adminSession() (*Session, error) {
	sc := utils.SessionClaims{ID: 0, Email: s.cfg.Admin.Email, Role: model.RoleAdmin, IsAdmin: true}
	token, exp, err := utils.IssueSessionToken(s.cfg.JWTSecret, sc, s.cfg.TokenTTL, s.now())
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: exp, Role: model.RoleAdmin}, nil
}

func setProvider(u *model.User, provider, id, avatar string) {
	var pid, pav *string
	if id != "" {
		pid = &id
	}
	if avatar != "" {
		pav = &avatar
	}
	switch provider {
	case model.AuthGoogle:
		u.GoogleID, u.GoogleAvatar = pid, pav
	case model.AuthFacebook:
		u.FacebookID, u.FacebookAvatar = pid, pav
	case model.AuthApple:
		u.AppleID, u.AppleAvatar = pid, pav
	}
}
