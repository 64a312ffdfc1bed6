package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pestiq-backend/internal/model"
	"github.com/iliyamo/pestiq-backend/internal/utils"
)

const secret = "mw-secret"

type stubResolver struct {
	got utils.SessionClaims
	p   model.Principal
	err error
}

func (s *stubResolver) ResolvePrincipal(_ context.Context, sc utils.SessionClaims) (model.Principal, error) {
	s.got = sc
	return s.p, s.err
}

func token(t *testing.T, sc utils.SessionClaims, ttl time.Duration, now time.Time) string {
	t.Helper()
	tok, _, err := utils.IssueSessionToken(secret, sc, ttl, now)
	require.NoError(t, err)
	return tok
}

func serve(t *testing.T, mw echo.MiddlewareFunc, authz string) (*httptest.ResponseRecorder, *model.Principal) {
	t.Helper()
	e := echo.New()
	var seen *model.Principal
	e.GET("/me", func(c echo.Context) error {
		p, ok := PrincipalFrom(c)
		if ok {
			seen = &p
		}
		return c.NoContent(http.StatusNoContent)
	}, mw)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authz != "" {
		req.Header.Set(echo.HeaderAuthorization, authz)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, seen
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	s, _ := body["error"].(string)
	return s
}

func TestAuthRejections(t *testing.T) {
	r := &stubResolver{}
	mw := Auth(secret, r)

	rec, _ := serve(t, mw, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Access denied. No token provided.", errorOf(t, rec))

	rec, _ = serve(t, mw, "Basic abc")
	assert.Equal(t, "Access denied. No token provided.", errorOf(t, rec))

	rec, _ = serve(t, mw, "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token", errorOf(t, rec))

	expired := token(t, utils.SessionClaims{ID: 1, Role: model.RoleOwner}, time.Minute, time.Now().Add(-time.Hour))
	rec, _ = serve(t, mw, "Bearer "+expired)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token expired", errorOf(t, rec))

	r.err = errors.New("inactive")
	valid := token(t, utils.SessionClaims{ID: 1, Role: model.RoleOwner}, time.Hour, time.Now())
	rec, _ = serve(t, mw, "Bearer "+valid)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid user or inactive account.", errorOf(t, rec))
}

func TestAuthAttachesResolvedPrincipal(t *testing.T) {
	cid := uint64(8)
	r := &stubResolver{p: model.Principal{ID: 5, Role: model.RoleExterminator, CompanyID: &cid}}
	tok := token(t, utils.SessionClaims{ID: 5, Role: model.RoleOwner, CompanyID: &cid}, time.Hour, time.Now())

	rec, p := serve(t, Auth(secret, r), "Bearer "+tok)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, p)
	assert.Equal(t, model.RoleExterminator, p.Role, "resolver output wins over the token claim")
	assert.Equal(t, uint64(5), r.got.ID)
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	h := RequireRole(model.RoleOwner, model.RoleAdmin)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	run := func(p *model.Principal) int {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		if p != nil {
			SetPrincipal(c, *p)
		}
		require.NoError(t, h(c))
		return rec.Code
	}
	assert.Equal(t, http.StatusUnauthorized, run(nil))
	assert.Equal(t, http.StatusForbidden, run(&model.Principal{Role: model.RoleExterminator}))
	assert.Equal(t, http.StatusOK, run(&model.Principal{Role: model.RoleOwner}))
	assert.Equal(t, http.StatusOK, run(&model.Principal{Role: model.RoleAdmin, IsAdmin: true}))
}

func TestRequireCompany(t *testing.T) {
	e := echo.New()
	h := RequireCompany()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	cid := uint64(1)
	for _, tc := range []struct {
		p    model.Principal
		want int
	}{
		{model.Principal{Role: model.RoleOwner}, http.StatusForbidden},
		{model.Principal{Role: model.RoleOwner, CompanyID: &cid}, http.StatusOK},
		{model.Principal{Role: model.RoleAdmin, IsAdmin: true}, http.StatusOK},
	} {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		SetPrincipal(c, tc.p)
		require.NoError(t, h(c))
		assert.Equal(t, tc.want, rec.Code)
	}
}
