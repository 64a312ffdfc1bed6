package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pestiq-backend/internal/model"
	"github.com/iliyamo/pestiq-backend/internal/service"
)

// AuthHandler serves /api/auth.
type AuthHandler struct {
	Svc *service.AuthService
}

// NewAuthHandler builds the auth endpoints on top of svc.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{Svc: svc}
}

// ----- DTOs -----

type registerReq struct {
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	CompanyName string `json:"company_name" validate:"required"`
}

type emailReq struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyOTPReq struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type resetPasswordReq struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,len=6,numeric"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type socialLoginReq struct {
	Email      string `json:"email" validate:"required,email"`
	AuthType   string `json:"auth_type" validate:"required,social_provider"`
	ProviderID string `json:"provider_id"`
	Avatar     string `json:"avatar"`
}

type socialSignupReq struct {
	socialLoginReq
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"`
}

// authError maps auth outcomes to responses.  Signal fields let the
// frontend route the user to signup or OTP entry.
func authError(c echo.Context, err error) error {
	var pm *service.ProviderMismatchError
	switch {
	case errors.As(err, &pm):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": pm.Error(), "auth_type": pm.Provider})
	case errors.Is(err, service.ErrUserExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "User already exists"})
	case errors.Is(err, service.ErrCompanyNameExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "Company name already exists"})
	case errors.Is(err, service.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "User not found"})
	case errors.Is(err, service.ErrInvalidAdminCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid admin credentials"})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials"})
	case errors.Is(err, service.ErrAccountInactive):
		return c.JSON(http.StatusForbidden, echo.Map{
			"error":                 "Your account is deactivated. Please verify your email.",
			"need_otp_verification": true,
		})
	case errors.Is(err, service.ErrInvalidOTP):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid or expired OTP"})
	case errors.Is(err, service.ErrOTPDelivery):
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to send OTP email"})
	case errors.Is(err, service.ErrNeedSignup):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Account not found. Please sign up first.", "need_signup": true})
	case errors.Is(err, service.ErrAccountDeleted):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "This account has been deleted."})
	case errors.Is(err, service.ErrNeedOTPVerification):
		return c.JSON(http.StatusForbidden, echo.Map{
			"error":                 "Account not verified yet. Please verify your email/OTP.",
			"need_otp_verification": true,
		})
	case errors.Is(err, service.ErrUnsupportedProvider):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Unsupported auth_type"})
	}
	return serverError(c, err)
}

// Register creates an inactive owner and its company and mails an OTP.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bind(c, &req); err != nil {
		return invalid(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	reg, err := h.Svc.Register(ctx, service.RegisterInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Password:    req.Password,
		CompanyName: req.CompanyName,
	})
	if err != nil {
		return authError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message":               "User registered successfully. Please verify OTP.",
		"user_id":               reg.UserID,
		"email":                 reg.Email,
		"is_active":             false,
		"need_otp_verification": true,
	})
}

// VerifyOTP handles POST /verify-otp and activates the account.
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req verifyOTPReq
	if err := bind(c, &req); err != nil {
		return invalid(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Svc.VerifyOTP(ctx, req.Email, req.OTP); err != nil {
		return authError(c, err)
	}
	return ok(c, "OTP verified successfully. Your account is now active. Please login.")
}

// ResendOTP handles POST /resend-otp and mails a fresh registration code.
func (h *AuthHandler) ResendOTP(c echo.Context) error {
	var req emailReq
	if err := bind(c, &req); err != nil {
		return invalid(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Svc.ResendOTP(ctx, req.Email); err != nil {
		return authError(c, err)
	}
	return ok(c, "OTP sent successfully")
}

// ForgotPassword handles POST /forgot-password and mails a reset code.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req emailReq
	if err := bind(c, &req); err != nil {
		return invalid(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Svc.ForgotPassword(ctx, req.Email); err != nil {
		return authError(c, err)
	}
	return ok(c, "Password reset OTP sent successfully")
}

// ResetPassword handles POST /reset-password.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := bind(c, &req); err != nil {
		return invalid(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Svc.ResetPassword(ctx, req.Email, req.OTP, req.NewPassword); err != nil {
		return authError(c, err)
	}
	return ok(c, "Password reset successfully")
}

// Login handles both the configured admin and password accounts.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return invalid(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	sess, err := h.Svc.Login(ctx, strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		return authError(c, err)
	}
	if sess.Role == model.RoleAdmin {
		return c.JSON(http.StatusOK, echo.Map{
			"message": "Admin login successful",
			"token":   sess.Token,
			"role":    sess.Role,
			"user":    echo.Map{"id": 0, "email": strings.TrimSpace(req.Email), "role": model.RoleAdmin, "isAdmin": true},
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Login successful",
		"token":   sess.Token,
		"role":    sess.Role,
		"user":    sess.User,
	})
}

// SocialLogin handles POST /social-login for accounts that already exist.
func (h *AuthHandler) SocialLogin(c echo.Context) error {
	var req socialLoginReq
	if err := bind(c, &req); err != nil {
		return invalid(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	sess, err := h.Svc.SocialLogin(ctx, service.SocialIdentity{
		Email: req.Email, Provider: req.AuthType, ProviderID: req.ProviderID, Avatar: req.Avatar,
	})
	if err != nil {
		return authError(c, err)
	}
	return sessionResponse(c, http.StatusOK, "Social login successful", sess)
}

// SocialSignup logs in an existing account or creates a new owner.
func (h *AuthHandler) SocialSignup(c echo.Context) error {
	var req socialSignupReq
	if err := bind(c, &req); err != nil {
		return invalid(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	sess, err := h.Svc.SocialSignup(ctx, service.SocialProfile{
		SocialIdentity: service.SocialIdentity{
			Email: req.Email, Provider: req.AuthType, ProviderID: req.ProviderID, Avatar: req.Avatar,
		},
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return authError(c, err)
	}
	if sess.Created {
		return sessionResponse(c, http.StatusCreated, "Account created successfully", sess)
	}
	return sessionResponse(c, http.StatusOK, "Social login successful", sess)
}

func sessionResponse(c echo.Context, status int, msg string, s *service.Session) error {
	return c.JSON(status, echo.Map{
		"message":               msg,
		"token":                 s.Token,
		"user":                  s.User,
		"role":                  s.Role,
		"need_company_creation": s.NeedCompanyCreation,
	})
}

// Me returns the principal attached by the auth gate.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, principal(c))
}

// Logout is client-side; the endpoint exists for clients that call it.
func (h *AuthHandler) Logout(c echo.Context) error {
	return ok(c, "Logged out")
}
