package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pestiq-backend/internal/mailer"
	"github.com/iliyamo/pestiq-backend/internal/model"
	"github.com/iliyamo/pestiq-backend/internal/queue"
	"github.com/iliyamo/pestiq-backend/internal/utils"
)

const testSecret = "test-secret"

type authFixture struct {
	svc    *AuthService
	store  *memStore
	mail   *fakeMailer
	events *recordPublisher
	clk    *clock
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		store:  newMemStore(),
		mail:   &fakeMailer{},
		events: &recordPublisher{},
		clk:    &clock{t: time.Now().UTC().Truncate(time.Second)},
	}
	f.svc = NewAuthService(AuthConfig{
		JWTSecret:  testSecret,
		TokenTTL:   7 * 24 * time.Hour,
		OTPTTL:     10 * time.Minute,
		BcryptCost: 4,
		Admin:      AdminCredentials{Email: "admin@pestiq.io", Password: "adminpass"},
		Now:        f.clk.now,
	}, f.store, f.store, f.mail, f.events)
	return f
}

func (f *authFixture) register(t *testing.T) *Registration {
	t.Helper()
	reg, err := f.svc.Register(context.Background(), RegisterInput{
		FirstName: "Jo", LastName: "Li", Email: "jo@x.com", Password: "secret1", CompanyName: "Acme",
	})
	require.NoError(t, err)
	return reg
}

func TestRegisterCreatesInactiveOwnerWithOTP(t *testing.T) {
	f := newAuthFixture(t)
	reg := f.register(t)

	u := f.store.user("jo@x.com")
	assert.Equal(t, reg.UserID, u.ID)
	assert.False(t, u.IsActive)
	assert.True(t, u.IsCompanyOwner)
	assert.Equal(t, model.AuthNormal, u.AuthType)
	require.NotNil(t, u.CompanyID)
	assert.Equal(t, reg.CompanyID, *u.CompanyID)
	require.NotNil(t, u.OTPCode)
	assert.Len(t, *u.OTPCode, 6)
	assert.WithinDuration(t, f.clk.t.Add(10*time.Minute), *u.OTPExpiry, time.Second)
	require.NotNil(t, u.PasswordHash)
	assert.True(t, utils.VerifyPassword(*u.PasswordHash, "secret1"))

	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, mailer.PurposeVerify, f.mail.last().purpose)
	assert.Equal(t, *u.OTPCode, f.mail.last().code)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, queue.EventUserRegistered, f.events.events[0].Type)
}

func TestRegisterConflicts(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, RegisterInput{FirstName: "A", LastName: "B", Email: "jo@x.com", Password: "secret1", CompanyName: "Other"})
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = f.svc.Register(ctx, RegisterInput{FirstName: "A", LastName: "B", Email: "new@x.com", Password: "secret1", CompanyName: "ACME"})
	assert.ErrorIs(t, err, ErrCompanyNameExists)
}

func TestRegisterDeliveryFailureKeepsRows(t *testing.T) {
	f := newAuthFixture(t)
	f.mail.fail = true
	reg, err := f.svc.Register(context.Background(), RegisterInput{
		FirstName: "Jo", LastName: "Li", Email: "jo@x.com", Password: "secret1", CompanyName: "Acme",
	})
	assert.ErrorIs(t, err, ErrOTPDelivery)
	require.NotNil(t, reg)

	u := f.store.user("jo@x.com")
	assert.NotNil(t, u.OTPCode, "code stays so resend can recover")
}

func TestLoginBeforeVerificationIsRejected(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t)
	_, err := f.svc.Login(context.Background(), "jo@x.com", "secret1")
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestVerifyThenLoginCarriesCompany(t *testing.T) {
	f := newAuthFixture(t)
	reg := f.register(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.VerifyOTP(ctx, "jo@x.com", "000000"), ErrInvalidOTP)

	code := f.mail.last().code
	require.NoError(t, f.svc.VerifyOTP(ctx, "jo@x.com", code))
	u := f.store.user("jo@x.com")
	assert.True(t, u.IsActive)
	assert.Nil(t, u.OTPCode)
	assert.Nil(t, u.OTPExpiry)

	// replay of the same code fails
	assert.ErrorIs(t, f.svc.VerifyOTP(ctx, "jo@x.com", code), ErrInvalidOTP)

	_, err := f.svc.Login(ctx, "jo@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	sess, err := f.svc.Login(ctx, "jo@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleOwner, sess.Role)
	assert.False(t, sess.NeedCompanyCreation)

	sc, err := utils.ParseSessionToken(testSecret, sess.Token)
	require.NoError(t, err)
	require.NotNil(t, sc.CompanyID)
	assert.Equal(t, reg.CompanyID, *sc.CompanyID)
	assert.Equal(t, reg.UserID, sc.ID)
	assert.Equal(t, model.RoleOwner, sc.Role)
}

func TestLoginErrors(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	gid := "g-1"
	f.store.put(&model.User{Email: "g@x.com", AuthType: model.AuthGoogle, GoogleID: &gid, IsActive: true})
	f.store.put(&model.User{Email: "gone@x.com", AuthType: model.AuthNormal, IsActive: true, IsDeleted: true})

	_, err := f.svc.Login(ctx, "nobody@x.com", "x")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.svc.Login(ctx, "gone@x.com", "x")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.svc.Login(ctx, "g@x.com", "x")
	var pm *ProviderMismatchError
	require.True(t, errors.As(err, &pm))
	assert.Equal(t, model.AuthGoogle, pm.Provider)
	assert.Contains(t, pm.Error(), "google")
}

func TestAdminLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Login(ctx, "admin@pestiq.io", "nope")
	assert.ErrorIs(t, err, ErrInvalidAdminCredentials)

	sess, err := f.svc.Login(ctx, "admin@pestiq.io", "adminpass")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, sess.Role)

	sc, err := utils.ParseSessionToken(testSecret, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), sc.ID)
	assert.Nil(t, sc.CompanyID)
	assert.True(t, sc.IsAdmin)

	p, err := f.svc.ResolvePrincipal(ctx, sc)
	require.NoError(t, err)
	assert.True(t, p.IsAdmin)
	assert.Nil(t, p.CompanyID)
}

func TestForgotAndResetPassword(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.ForgotPassword(ctx, "jo@x.com"), ErrAccountInactive)
	require.NoError(t, f.svc.VerifyOTP(ctx, "jo@x.com", f.mail.last().code))

	assert.ErrorIs(t, f.svc.ForgotPassword(ctx, "nobody@x.com"), ErrUserNotFound)
	require.NoError(t, f.svc.ForgotPassword(ctx, "jo@x.com"))
	assert.Equal(t, mailer.PurposeReset, f.mail.last().purpose)

	assert.ErrorIs(t, f.svc.ResetPassword(ctx, "jo@x.com", "999999", "newpass1"), ErrInvalidOTP)
	require.NoError(t, f.svc.ResetPassword(ctx, "jo@x.com", f.mail.last().code, "newpass1"))
	assert.Nil(t, f.store.user("jo@x.com").OTPCode)

	_, err := f.svc.Login(ctx, "jo@x.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, "jo@x.com", "newpass1")
	assert.NoError(t, err)
}

func TestResetPasswordRejectsSocialAccount(t *testing.T) {
	f := newAuthFixture(t)
	f.store.put(&model.User{Email: "fb@x.com", AuthType: model.AuthFacebook, IsActive: true})
	var pm *ProviderMismatchError
	assert.True(t, errors.As(f.svc.ForgotPassword(context.Background(), "fb@x.com"), &pm))
	assert.True(t, errors.As(f.svc.ResetPassword(context.Background(), "fb@x.com", "1", "x"), &pm))
}

func TestResendOTP(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t)
	ctx := context.Background()
	first := f.mail.last().code

	assert.ErrorIs(t, f.svc.ResendOTP(ctx, "nobody@x.com"), ErrUserNotFound)
	require.NoError(t, f.svc.ResendOTP(ctx, "jo@x.com"))
	require.Len(t, f.mail.sent, 2)

	second := f.mail.last().code
	if first != second {
		assert.ErrorIs(t, f.svc.VerifyOTP(ctx, "jo@x.com", first), ErrInvalidOTP)
	}
	assert.NoError(t, f.svc.VerifyOTP(ctx, "jo@x.com", second))
}

func TestSocialSignupCreatesOwnerAndCompany(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	sess, err := f.svc.SocialSignup(ctx, SocialProfile{
		SocialIdentity: SocialIdentity{Email: "sam@x.com", Provider: model.AuthGoogle, ProviderID: "g-42", Avatar: "http://img/a.png"},
		FirstName:      "Sam",
		LastName:       "Ray",
	})
	require.NoError(t, err)
	assert.True(t, sess.Created)
	assert.Len(t, f.store.users, 1)
	assert.Len(t, f.store.companies, 1)

	u := f.store.user("sam@x.com")
	assert.True(t, u.IsActive)
	assert.True(t, u.IsCompanyOwner)
	assert.Equal(t, "g-42", u.ProviderID(model.AuthGoogle))
	cid, ok := f.store.companies["sam's company"]
	require.True(t, ok)

	sc, err := utils.ParseSessionToken(testSecret, sess.Token)
	require.NoError(t, err)
	require.NotNil(t, sc.CompanyID)
	assert.Equal(t, cid, *sc.CompanyID)
	assert.Equal(t, model.AuthGoogle, sc.AuthType)

	// signing up again logs in instead of creating
	again, err := f.svc.SocialSignup(ctx, SocialProfile{
		SocialIdentity: SocialIdentity{Email: "sam@x.com", Provider: model.AuthGoogle, ProviderID: "g-42"},
		FirstName:      "Sam",
	})
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Len(t, f.store.users, 1)
	assert.Len(t, f.store.companies, 1)
}

func TestSocialSignupNumbersTakenCompanyName(t *testing.T) {
	f := newAuthFixture(t)
	f.store.companies["sam's company"] = 99
	_, err := f.svc.SocialSignup(context.Background(), SocialProfile{
		SocialIdentity: SocialIdentity{Email: "sam@x.com", Provider: model.AuthApple, ProviderID: "a-1"},
		FirstName:      "Sam",
	})
	require.NoError(t, err)
	_, ok := f.store.companies["sam's company 2"]
	assert.True(t, ok)
}

func TestSocialLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	cid := uint64(3)
	f.store.put(&model.User{Email: "pat@x.com", AuthType: model.AuthNormal, IsActive: true, CompanyID: &cid})
	f.store.put(&model.User{Email: "new@x.com", AuthType: model.AuthNormal})
	f.store.put(&model.User{Email: "del@x.com", AuthType: model.AuthNormal, IsActive: true, IsDeleted: true})

	_, err := f.svc.SocialLogin(ctx, SocialIdentity{Email: "x@x.com", Provider: "github"})
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
	_, err = f.svc.SocialLogin(ctx, SocialIdentity{Email: "nobody@x.com", Provider: model.AuthFacebook})
	assert.ErrorIs(t, err, ErrNeedSignup)
	_, err = f.svc.SocialLogin(ctx, SocialIdentity{Email: "del@x.com", Provider: model.AuthFacebook})
	assert.ErrorIs(t, err, ErrAccountDeleted)
	_, err = f.svc.SocialLogin(ctx, SocialIdentity{Email: "new@x.com", Provider: model.AuthFacebook})
	assert.ErrorIs(t, err, ErrNeedOTPVerification)

	sess, err := f.svc.SocialLogin(ctx, SocialIdentity{Email: "pat@x.com", Provider: model.AuthFacebook, ProviderID: "fb-1", Avatar: "a.png"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleExterminator, sess.Role)
	assert.Equal(t, "fb-1", sess.User.ProviderID(model.AuthFacebook))
	assert.Equal(t, 1, f.store.links)

	// an existing provider id is not overwritten
	_, err = f.svc.SocialLogin(ctx, SocialIdentity{Email: "pat@x.com", Provider: model.AuthFacebook, ProviderID: "fb-2"})
	require.NoError(t, err)
	assert.Equal(t, "fb-1", f.store.user("pat@x.com").ProviderID(model.AuthFacebook))
	assert.Equal(t, 1, f.store.links)
}

func TestSocialLoginNeedsCompanyCreation(t *testing.T) {
	f := newAuthFixture(t)
	f.store.put(&model.User{Email: "solo@x.com", AuthType: model.AuthApple, IsActive: true})
	sess, err := f.svc.SocialLogin(context.Background(), SocialIdentity{Email: "solo@x.com", Provider: model.AuthApple})
	require.NoError(t, err)
	assert.True(t, sess.NeedCompanyCreation)

	sc, err := utils.ParseSessionToken(testSecret, sess.Token)
	require.NoError(t, err)
	assert.Nil(t, sc.CompanyID)
}

func TestResolveGooglePendingSignup(t *testing.T) {
	f := newAuthFixture(t)
	sess, pending, err := f.svc.ResolveGoogle(context.Background(), "lee@x.com", "", "", "Lee Ann Wu", "g-9", "pic")
	require.NoError(t, err)
	assert.Nil(t, sess)
	require.NotNil(t, pending)
	assert.Equal(t, "Lee", pending.FirstName)
	assert.Equal(t, "Ann Wu", pending.LastName)
	assert.Equal(t, "g-9", pending.ProviderID)
}

func TestResolvePrincipalRederivesRole(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	cid := uint64(5)
	u := f.store.put(&model.User{Email: "ex@x.com", FirstName: "Ex", AuthType: model.AuthNormal, IsActive: true, CompanyID: &cid})

	// a forged owner claim is ignored for non-admins
	p, err := f.svc.ResolvePrincipal(ctx, utils.SessionClaims{ID: u.ID, Role: model.RoleOwner})
	require.NoError(t, err)
	assert.Equal(t, model.RoleExterminator, p.Role)
	assert.Equal(t, uint64(5), p.Company())

	_, err = f.svc.ResolvePrincipal(ctx, utils.SessionClaims{ID: 999, Role: model.RoleOwner})
	assert.ErrorIs(t, err, ErrUnauthorized)

	f.store.users["ex@x.com"].IsActive = false
	_, err = f.svc.ResolvePrincipal(ctx, utils.SessionClaims{ID: u.ID})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

// staleNameStore reports every company name as free, as a concurrent signup
// would see it before the other transaction commits.
type staleNameStore struct{ *memStore }

func (staleNameStore) CompanyNameExists(context.Context, string) (bool, error) { return false, nil }

func TestSocialSignupCompanyNameRace(t *testing.T) {
	f := newAuthFixture(t)
	f.store.companies["sam's company"] = 99
	store := staleNameStore{f.store}
	svc := NewAuthService(f.svc.cfg, store, store, f.mail, f.events)

	_, err := svc.SocialSignup(context.Background(), SocialProfile{
		SocialIdentity: SocialIdentity{Email: "sam@x.com", Provider: model.AuthFacebook, ProviderID: "f-1"},
		FirstName:      "Sam",
	})
	assert.ErrorIs(t, err, ErrCompanyNameExists)
}

// codeCheckingPublisher records whether the registrant's code was already
// stored when the event went out.
type codeCheckingPublisher struct {
	store    *memStore
	hadCode  bool
	received int
}

func (p *codeCheckingPublisher) Publish(_ context.Context, ev queue.Event) error {
	p.received++
	p.hadCode = p.store.user(ev.Email).OTPCode != nil
	return nil
}

func TestRegisterStoresCodeBeforeEvent(t *testing.T) {
	f := newAuthFixture(t)
	pub := &codeCheckingPublisher{store: f.store}
	svc := NewAuthService(f.svc.cfg, f.store, f.store, f.mail, pub)

	_, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Jo", LastName: "Li", Email: "jo@x.com", Password: "secret1", CompanyName: "Acme",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, pub.received)
	assert.True(t, pub.hadCode)
}
