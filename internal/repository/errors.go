// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting driver errors.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when no row matches the id within the caller's
// tenant scope. Handlers translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when a users.email unique key is violated.
var ErrEmailExists = errors.New("email already exists")

// ErrCompanyNameExists is returned when a company name is already taken,
// compared case-insensitively.
var ErrCompanyNameExists = errors.New("company name already exists")

// ErrDuplicate is returned for any other unique key violation.
var ErrDuplicate = errors.New("duplicate")

// ErrBadReference is returned when a referenced exterminator, customer or
// location is missing, deleted or owned by another company.
var ErrBadReference = errors.New("referenced row not found in company")

// ErrNoChanges is returned by partial updates that carry no fields.
var ErrNoChanges = errors.New("no fields to update")

// ErrForbidden is returned when the caller attempts an operation on a row
// that exists but belongs to another tenant or owner.
var ErrForbidden = errors.New("forbidden")

// isDuplicate reports a MySQL 1062 duplicate-entry error.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return strings.Contains(err.Error(), "1062")
}
