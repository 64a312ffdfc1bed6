package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/pestiq-backend/internal/model"
)

// AssignmentRepo links exterminators to the customers (and optionally the
// single location) they may service.  Rows live in user_customer_locations
// and are hard-deleted.
type AssignmentRepo struct {
	db *sql.DB
}

func NewAssignmentRepo(db *sql.DB) *AssignmentRepo { return &AssignmentRepo{db: db} }

// Assign creates the link after checking that the user, the customer and
// the location belong to companyID.
func (r *AssignmentRepo) Assign(ctx context.Context, companyID uint64, in model.NewAssignment) (uint64, error) {
	checks := []struct {
		q  string
		id uint64
	}{
		{"SELECT COUNT(*) FROM users WHERE id = ? AND company_id = ? AND is_deleted = 0", in.UserID},
		{"SELECT COUNT(*) FROM customers WHERE id = ? AND company_id = ? AND is_deleted = 0", in.CustomerID},
	}
	if in.LocationID != nil {
		checks = append(checks, struct {
			q  string
			id uint64
		}{"SELECT COUNT(*) FROM locations WHERE id = ? AND company_id = ? AND is_deleted = 0", *in.LocationID})
	}
	for _, c := range checks {
		var n int
		if err := r.db.QueryRowContext(ctx, c.q, c.id, companyID).Scan(&n); err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, ErrNotFound
		}
	}
	const q = `INSERT INTO user_customer_locations (company_id, user_id, customer_id, location_id,
	             can_access_all_locations, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, NOW(), NOW())`
	res, err := r.db.ExecContext(ctx, q, companyID, in.UserID, in.CustomerID, in.LocationID, in.CanAccessAllLocations)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// ByUser lists the assignments of one exterminator within scope.
func (r *AssignmentRepo) ByUser(ctx context.Context, userID uint64, scope *uint64) ([]model.Assignment, error) {
	w := &where{}
	w.and("ucl.user_id = ?", userID)
	w.scope("ucl.company_id", scope)
	q := `SELECT ucl.id, ucl.user_id, c.id, c.name, l.id, l.name, ucl.can_access_all_locations, ucl.created_at
	      FROM user_customer_locations ucl
	      JOIN customers c ON c.id = ucl.customer_id
	      LEFT JOIN locations l ON l.id = ucl.location_id
	      WHERE ` + w.sql() + ` ORDER BY ucl.id DESC`
	rows, err := r.db.QueryContext(ctx, q, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Assignment{}
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.ID, &a.UserID, &a.CustomerID, &a.CustomerName, &a.LocationID, &a.LocationName,
			&a.CanAccessAllLocations, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AssignmentRepo) Delete(ctx context.Context, id uint64, scope *uint64) error {
	return execDelete(ctx, r.db, "user_customer_locations", id, scope)
}

// LocationsByCustomer returns the live locations of a customer for pickers.
func (r *AssignmentRepo) LocationsByCustomer(ctx context.Context, customerID uint64, scope *uint64) ([]model.LocationRef, error) {
	w := &where{}
	w.and("customer_id = ?", customerID)
	w.and("is_deleted = 0")
	w.scope("company_id", scope)
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, address, latitude, longitude FROM locations WHERE "+w.sql()+" ORDER BY name", w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.LocationRef{}
	for rows.Next() {
		var l model.LocationRef
		if err := rows.Scan(&l.ID, &l.Name, &l.Address, &l.Latitude, &l.Longitude); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
