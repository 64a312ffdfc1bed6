package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pestiq-backend/internal/model"
	"github.com/iliyamo/pestiq-backend/internal/repository"
)

func TestCompanyOf(t *testing.T) {
	cid := uint64(7)

	got, okCo := companyOf(model.Principal{IsAdmin: true}, 3)
	assert.True(t, okCo)
	assert.Equal(t, uint64(3), got)

	_, okCo = companyOf(model.Principal{IsAdmin: true}, 0)
	assert.False(t, okCo)

	got, okCo = companyOf(model.Principal{Role: model.RoleOwner, CompanyID: &cid}, 3)
	assert.True(t, okCo)
	assert.Equal(t, cid, got, "non-admins cannot pick another company")

	_, okCo = companyOf(model.Principal{Role: model.RoleOwner}, 3)
	assert.False(t, okCo)
}

func TestStoreErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{repository.ErrNotFound, http.StatusNotFound, "Customer not found"},
		{fmt.Errorf("get: %w", repository.ErrNotFound), http.StatusNotFound, "Customer not found"},
		{repository.ErrEmailExists, http.StatusConflict, "Email already exists"},
		{repository.ErrCompanyNameExists, http.StatusConflict, "Company name already exists"},
		{repository.ErrDuplicate, http.StatusConflict, "Customer already exists"},
		{repository.ErrBadReference, http.StatusBadRequest, "Exterminator, customer or location not found in this company"},
		{repository.ErrNoChanges, http.StatusBadRequest, "No fields to update"},
		{repository.ErrForbidden, http.StatusForbidden, "forbidden"},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, "request timed out"},
		{errors.New("db gone"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, storeError(c, tc.err, "Customer"))
		assert.Equal(t, tc.code, rec.Code, tc.err.Error())
		assert.Equal(t, tc.msg, decode(t, rec)["error"])
	}
}

func TestParseID(t *testing.T) {
	e := echo.New()
	for raw, want := range map[string]bool{"12": true, "0": false, "-1": false, "abc": false, "": false} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(raw)
		_, got := parseID(c, "id")
		assert.Equal(t, want, got, raw)
	}
}

func TestActivityFilter(t *testing.T) {
	e := echo.New()
	newCtx := func(q string) echo.Context {
		return e.NewContext(httptest.NewRequest(http.MethodGet, "/stats?"+q, nil), httptest.NewRecorder())
	}

	f := activityFilter(newCtx("start_date=2024-01-01&end_date=2024-02-01&trap_id=4&location_id=9"))
	assert.Equal(t, "2024-01-01", f.StartDate)
	assert.Equal(t, "2024-02-01", f.EndDate)
	assert.Equal(t, uint64(4), f.TrapID)
	assert.Equal(t, uint64(9), f.LocationID)

	f = activityFilter(newCtx("start_date=2024-01-01&end_date=yesterday&trap_id=x"))
	assert.Empty(t, f.StartDate)
	assert.Empty(t, f.EndDate)
	assert.Zero(t, f.TrapID)

	f = activityFilter(newCtx("start_date=2024-01-01"))
	assert.Empty(t, f.StartDate, "a range needs both ends")
}
