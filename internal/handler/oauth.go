package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/iliyamo/pestiq-backend/internal/logger"
	"github.com/iliyamo/pestiq-backend/internal/service"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

	stateCookie = "oauth_state"
)

// googleProfile is the subset of the userinfo document we read.
type googleProfile struct {
	Sub        string `json:"sub"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

// GoogleHandler runs the browser OAuth2 flow and hands the result to the
// frontend through a redirect.
type GoogleHandler struct {
	Svc         *service.AuthService
	OAuth       *oauth2.Config
	UserInfoURL string
	FrontendURL string
	Secure      bool // mark the state cookie Secure
}

// NewGoogleHandler configures the Google client for the callbackURL redirect.
func NewGoogleHandler(svc *service.AuthService, clientID, clientSecret, callbackURL, frontendURL string, secure bool) *GoogleHandler {
	return &GoogleHandler{
		Svc: svc,
		OAuth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		UserInfoURL: googleUserInfoURL,
		FrontendURL: frontendURL,
		Secure:      secure,
	}
}

// Start redirects the browser to the Google consent screen.
func (h *GoogleHandler) Start(c echo.Context) error {
	state := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusFound, h.OAuth.AuthCodeURL(state))
}

// Callback exchanges the code, loads the profile and redirects to the
// frontend: with a token for known accounts, with a pre-filled signup
// form for unknown emails, or with an error.
func (h *GoogleHandler) Callback(c echo.Context) error {
	if msg := c.QueryParam("error"); msg != "" {
		return h.fail(c, msg)
	}
	ck, err := c.Cookie(stateCookie)
	if err != nil || ck.Value == "" || ck.Value != c.QueryParam("state") {
		return h.fail(c, "invalid_state")
	}
	c.SetCookie(&http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	code := c.QueryParam("code")
	if code == "" {
		return h.fail(c, "missing_code")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	tok, err := h.OAuth.Exchange(ctx, code)
	if err != nil {
		logger.Warn("google: code exchange failed", "error", err)
		return h.fail(c, "exchange_failed")
	}
	prof, err := h.fetchProfile(ctx, tok)
	if err != nil {
		logger.Warn("google: userinfo failed", "error", err)
		return h.fail(c, "profile_failed")
	}
	if prof.Email == "" {
		return h.fail(c, "email_missing")
	}

	sess, pending, err := h.Svc.ResolveGoogle(ctx, prof.Email, prof.GivenName, prof.FamilyName, prof.Name, prof.Sub, prof.Picture)
	if err != nil {
		return h.fail(c, err.Error())
	}
	if pending != nil {
		q := url.Values{}
		q.Set("need_signup", "1")
		q.Set("auth_type", "google")
		q.Set("email", pending.Email)
		q.Set("first_name", pending.FirstName)
		q.Set("last_name", pending.LastName)
		q.Set("provider_id", pending.ProviderID)
		q.Set("avatar", pending.Avatar)
		return c.Redirect(http.StatusFound, h.FrontendURL+"/register?"+q.Encode())
	}
	q := url.Values{}
	q.Set("success", "true")
	q.Set("token", sess.Token)
	q.Set("need_company_creation", strconv.FormatBool(sess.NeedCompanyCreation))
	return c.Redirect(http.StatusFound, h.FrontendURL+"/auth/callback?"+q.Encode())
}

func (h *GoogleHandler) fetchProfile(ctx context.Context, tok *oauth2.Token) (*googleProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.OAuth.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo: status %d", resp.StatusCode)
	}
	var p googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("userinfo: %w", err)
	}
	return &p, nil
}

func (h *GoogleHandler) fail(c echo.Context, msg string) error {
	return c.Redirect(http.StatusFound, h.FrontendURL+"/login?error="+url.QueryEscape(msg))
}
