package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/pestiq-backend/internal/model"
)

// CompanyRepo serves the admin tenant listing and the dashboard counters.
type CompanyRepo struct {
	db *sql.DB
}

func NewCompanyRepo(db *sql.DB) *CompanyRepo {
	return &CompanyRepo{db: db}
}

// ListWithOwners returns every company joined with its live owner, newest first.
func (r *CompanyRepo) ListWithOwners(ctx context.Context) ([]model.CompanyWithOwner, error) {
	const q = `SELECT c.id, c.name, c.email, c.phone, c.address, c.subscription_status,
	                  c.subscription_expires_at, c.created_at,
	                  u.id, u.first_name, u.last_name, u.email, u.mobile, u.city, u.country, u.created_at
	           FROM companies c
	           LEFT JOIN users u ON u.company_id = c.id AND u.is_company_owner = 1 AND u.is_deleted = 0
	           ORDER BY c.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.CompanyWithOwner{}
	for rows.Next() {
		var c model.CompanyWithOwner
		if err := rows.Scan(&c.CompanyID, &c.CompanyName, &c.CompanyEmail, &c.CompanyPhone, &c.CompanyAddress,
			&c.SubscriptionStatus, &c.SubscriptionExpiresAt, &c.CompanyCreatedAt,
			&c.OwnerID, &c.OwnerFirstName, &c.OwnerLastName, &c.OwnerEmail, &c.OwnerMobile,
			&c.OwnerCity, &c.OwnerCountry, &c.OwnerCreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Stats counts dashboard totals.  A nil scope counts across all tenants;
// otherwise counts are limited to the company, and exterminators to those
// added by ownerID.
func (r *CompanyRepo) Stats(ctx context.Context, scope *uint64, ownerID uint64) (model.DashboardStats, error) {
	var s model.DashboardStats
	type counter struct {
		dst  *int64
		q    string
		args []any
	}
	var counters []counter
	if scope == nil {
		counters = []counter{
			{&s.TotalCustomers, "SELECT COUNT(*) FROM customers WHERE is_deleted = 0", nil},
			{&s.TotalExterminators, "SELECT COUNT(*) FROM users WHERE is_deleted = 0 AND is_company_owner = 0", nil},
			{&s.TotalMeetings, "SELECT COUNT(*) FROM meetings", nil},
			{&s.TotalPhotos, "SELECT COUNT(*) FROM photos", nil},
			{&s.TotalLocations, "SELECT COUNT(*) FROM locations WHERE is_deleted = 0", nil},
		}
	} else {
		cid := *scope
		counters = []counter{
			{&s.TotalCustomers, "SELECT COUNT(*) FROM customers WHERE company_id = ? AND is_deleted = 0", []any{cid}},
			{&s.TotalExterminators, "SELECT COUNT(*) FROM users WHERE added_by = ? AND is_company_owner = 0 AND is_deleted = 0", []any{ownerID}},
			{&s.TotalMeetings, "SELECT COUNT(*) FROM meetings WHERE company_id = ?", []any{cid}},
			{&s.TotalPhotos, `SELECT COUNT(p.id) FROM photos p JOIN users u ON p.exterminator_id = u.id
			                  WHERE u.company_id = ? AND u.is_company_owner = 0`, []any{cid}},
			{&s.TotalLocations, "SELECT COUNT(*) FROM locations WHERE company_id = ? AND is_deleted = 0", []any{cid}},
		}
	}
	for _, c := range counters {
		if err := r.db.QueryRowContext(ctx, c.q, c.args...).Scan(c.dst); err != nil {
			return s, err
		}
	}
	return s, nil
}
