package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pestiq-backend/internal/model"
	"github.com/iliyamo/pestiq-backend/internal/utils"
)

const registerBody = `{"first_name":"Ada","last_name":"Lovelace","email":"ada@pestiq.test","password":"secret1","company_name":"Bug Busters"}`

func authServer(store *userStore, m nopMailer) *echo.Echo {
	e := newEcho()
	h := NewAuthHandler(newAuthService(store, m))
	e.POST("/register", h.Register)
	e.POST("/verify-otp", h.VerifyOTP)
	e.POST("/resend-otp", h.ResendOTP)
	e.POST("/forgot-password", h.ForgotPassword)
	e.POST("/login", h.Login)
	e.POST("/social-login", h.SocialLogin)
	e.POST("/social-signup", h.SocialSignup)
	return e
}

func TestRegisterThenVerifyThenLogin(t *testing.T) {
	store := newUserStore()
	e := authServer(store, nopMailer{})

	rec := doJSON(t, e, http.MethodPost, "/register", registerBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "ada@pestiq.test", body["email"])
	assert.Equal(t, false, body["is_active"])
	assert.Equal(t, true, body["need_otp_verification"])

	rec = doJSON(t, e, http.MethodPost, "/login", `{"email":"ada@pestiq.test","password":"secret1"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Your account is deactivated. Please verify your email.", decode(t, rec)["error"])

	rec = doJSON(t, e, http.MethodPost, "/verify-otp", `{"email":"ada@pestiq.test","otp":"000000"}`)
	if store.codes["ada@pestiq.test"] != "000000" {
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid or expired OTP", decode(t, rec)["error"])
	}

	code := store.codes["ada@pestiq.test"]
	rec = doJSON(t, e, http.MethodPost, "/verify-otp", `{"email":"ada@pestiq.test","otp":"`+code+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, store.codes["ada@pestiq.test"])

	rec = doJSON(t, e, http.MethodPost, "/login", `{"email":"ada@pestiq.test","password":"wrong-pw"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", decode(t, rec)["error"])

	rec = doJSON(t, e, http.MethodPost, "/login", `{"email":"ada@pestiq.test","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decode(t, rec)
	assert.Equal(t, model.RoleOwner, body["role"])
	user := body["user"].(map[string]any)
	assert.NotContains(t, user, "password")

	sc, err := utils.ParseSessionToken("handler-secret", body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, model.RoleOwner, sc.Role)
	require.NotNil(t, sc.CompanyID)
}

func TestRegisterConflictsAndValidation(t *testing.T) {
	store := newUserStore()
	e := authServer(store, nopMailer{})

	rec := doJSON(t, e, http.MethodPost, "/register", `{"email":"x@pestiq.test"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decode(t, rec)["fields"].(map[string]any)
	assert.Contains(t, fields, "first_name")
	assert.Contains(t, fields, "company_name")

	require.Equal(t, http.StatusCreated, doJSON(t, e, http.MethodPost, "/register", registerBody).Code)

	rec = doJSON(t, e, http.MethodPost, "/register", registerBody)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "User already exists", decode(t, rec)["error"])

	rec = doJSON(t, e, http.MethodPost, "/register",
		`{"first_name":"B","last_name":"C","email":"b@pestiq.test","password":"secret1","company_name":"bug busters"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Company name already exists", decode(t, rec)["error"])
}

func TestRegisterMailFailureKeepsAccount(t *testing.T) {
	store := newUserStore()
	e := authServer(store, nopMailer{err: errors.New("smtp down")})

	rec := doJSON(t, e, http.MethodPost, "/register", registerBody)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to send OTP email", decode(t, rec)["error"])
	assert.Contains(t, store.users, "ada@pestiq.test")
	assert.NotEmpty(t, store.codes["ada@pestiq.test"])
}

func TestAdminLogin(t *testing.T) {
	e := authServer(newUserStore(), nopMailer{})

	rec := doJSON(t, e, http.MethodPost, "/login", `{"email":"admin@pestiq.test","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid admin credentials", decode(t, rec)["error"])

	rec = doJSON(t, e, http.MethodPost, "/login", `{"email":"admin@pestiq.test","password":"root-pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, model.RoleAdmin, body["role"])
	sc, err := utils.ParseSessionToken("handler-secret", body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), sc.ID)
	assert.Nil(t, sc.CompanyID)
}

func TestLoginUnknownAndProviderMismatch(t *testing.T) {
	store := newUserStore()
	pid := "g-1"
	store.users["g@pestiq.test"] = &model.User{ID: 9, Email: "g@pestiq.test", AuthType: model.AuthGoogle, GoogleID: &pid, IsActive: true}
	e := authServer(store, nopMailer{})

	rec := doJSON(t, e, http.MethodPost, "/login", `{"email":"nobody@pestiq.test","password":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", decode(t, rec)["error"])

	rec = doJSON(t, e, http.MethodPost, "/login", `{"email":"g@pestiq.test","password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "google", body["auth_type"])
	assert.Contains(t, body["error"], "Please login with google")

	rec = doJSON(t, e, http.MethodPost, "/forgot-password", `{"email":"g@pestiq.test"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSocialLoginSignals(t *testing.T) {
	store := newUserStore()
	store.users["off@pestiq.test"] = &model.User{ID: 3, Email: "off@pestiq.test", AuthType: model.AuthGoogle}
	e := authServer(store, nopMailer{})

	rec := doJSON(t, e, http.MethodPost, "/social-login", `{"email":"new@pestiq.test","auth_type":"google"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, true, decode(t, rec)["need_signup"])

	rec = doJSON(t, e, http.MethodPost, "/social-login", `{"email":"off@pestiq.test","auth_type":"google"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, true, decode(t, rec)["need_otp_verification"])

	rec = doJSON(t, e, http.MethodPost, "/social-login", `{"email":"new@pestiq.test","auth_type":"myspace"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["fields"], "auth_type")
}

func TestMeReturnsPrincipal(t *testing.T) {
	e := newEcho()
	h := NewAuthHandler(nil)
	cid := uint64(4)
	e.GET("/me", h.Me, asPrincipal(model.Principal{ID: 2, Role: model.RoleExterminator, CompanyID: &cid, Email: "e@pestiq.test"}))

	rec := doJSON(t, e, http.MethodGet, "/me", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(2), body["id"])
	assert.Equal(t, model.RoleExterminator, body["role"])
	assert.Equal(t, float64(4), body["company_id"])
}
