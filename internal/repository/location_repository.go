package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/pestiq-backend/internal/model"
)

// LocationRepo manages customer sites.  Deletes are soft.
type LocationRepo struct {
	db *sql.DB
}

func NewLocationRepo(db *sql.DB) *LocationRepo {
	return &LocationRepo{db: db}
}

const locationSelect = `SELECT l.id, l.company_id, l.customer_id, l.name, l.address, l.street, l.city,
	l.state, l.country, l.post_code, l.latitude, l.longitude, l.status, l.created_at,
	c.name, c.email, c.phone, c.address, comp.name, comp.email, comp.phone, comp.address
	FROM locations l
	LEFT JOIN customers c ON l.customer_id = c.id
	LEFT JOIN companies comp ON l.company_id = comp.id`

func scanLocation(row rowScanner) (*model.Location, error) {
	var l model.Location
	err := row.Scan(&l.ID, &l.CompanyID, &l.CustomerID, &l.Name, &l.Address, &l.Street, &l.City,
		&l.State, &l.Country, &l.PostCode, &l.Latitude, &l.Longitude, &l.Status, &l.CreatedAt,
		&l.CustomerName, &l.CustomerEmail, &l.CustomerPhone, &l.CustomerAddress,
		&l.CompanyName, &l.CompanyEmail, &l.CompanyPhone, &l.CompanyAddress)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// Create inserts a location.  The customer must be a live customer of the
// same company.
func (r *LocationRepo) Create(ctx context.Context, in model.NewLocation) (uint64, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM customers WHERE id = ? AND company_id = ? AND is_deleted = 0",
		in.CustomerID, in.CompanyID).Scan(&n); err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrNotFound
	}
	status := 1
	if in.Status != nil {
		status = *in.Status
	}
	const q = `INSERT INTO locations (company_id, customer_id, name, address, street, city, state, country,
	             post_code, latitude, longitude, status, is_deleted, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, NOW())`
	res, err := r.db.ExecContext(ctx, q, in.CompanyID, in.CustomerID, in.Name, in.Address, in.Street, in.City,
		in.State, in.Country, in.PostCode, in.Latitude, in.Longitude, status)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// List returns live locations within scope, optionally for one customer.
func (r *LocationRepo) List(ctx context.Context, scope *uint64, customerID uint64) ([]model.Location, error) {
	w := &where{}
	w.and("l.is_deleted = 0")
	w.scope("l.company_id", scope)
	if customerID != 0 {
		w.and("l.customer_id = ?", customerID)
	}
	rows, err := r.db.QueryContext(ctx, locationSelect+" WHERE "+w.sql()+" ORDER BY l.id DESC", w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Location{}
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (r *LocationRepo) Get(ctx context.Context, id uint64, scope *uint64) (*model.Location, error) {
	w := &where{}
	w.and("l.id = ?", id)
	w.and("l.is_deleted = 0")
	w.scope("l.company_id", scope)
	return scanLocation(r.db.QueryRowContext(ctx, locationSelect+" WHERE "+w.sql()+" LIMIT 1", w.args...))
}

func (r *LocationRepo) Update(ctx context.Context, id uint64, scope *uint64, in model.LocationUpdate) error {
	set := &setList{}
	setIf(set, "name", in.Name)
	setIf(set, "address", in.Address)
	setIf(set, "street", in.Street)
	setIf(set, "city", in.City)
	setIf(set, "state", in.State)
	setIf(set, "country", in.Country)
	setIf(set, "post_code", in.PostCode)
	setIf(set, "latitude", in.Latitude)
	setIf(set, "longitude", in.Longitude)
	setIf(set, "status", in.Status)
	if set.empty() {
		return ErrNoChanges
	}
	if _, err := r.Get(ctx, id, scope); err != nil {
		return err
	}
	return execUpdate(ctx, r.db, "locations", set, id, scope)
}

func (r *LocationRepo) Delete(ctx context.Context, id uint64, scope *uint64) error {
	return execSoftDelete(ctx, r.db, "locations", id, scope)
}

// TrapStatistics counts photos per trap.  Photos are matched to traps by
// trap name; the date window narrows the photos counted, not the traps.
func (r *LocationRepo) TrapStatistics(ctx context.Context, scope *uint64, f model.ActivityFilter) ([]model.TrapStatistic, error) {
	join := "p.trap_name = t.name AND p.company_id = t.company_id"
	var joinArgs []any
	if f.StartDate != "" && f.EndDate != "" {
		join += " AND DATE(p.created_at) BETWEEN ? AND ?"
		joinArgs = append(joinArgs, f.StartDate, f.EndDate)
	}
	w := &where{}
	w.scope("t.company_id", scope)
	if f.TrapID != 0 {
		w.and("t.id = ?", f.TrapID)
	}
	if f.LocationID != 0 {
		w.and("t.location_id = ?", f.LocationID)
	}
	q := `SELECT t.id, t.name, l.name, COUNT(p.id), COUNT(DISTINCT p.exterminator_id), MAX(p.created_at)
	      FROM traps t
	      LEFT JOIN photos p ON ` + join + `
	      LEFT JOIN locations l ON t.location_id = l.id
	      WHERE ` + w.sql() + `
	      GROUP BY t.id, t.name, l.name
	      ORDER BY l.name ASC, t.name ASC`
	rows, err := r.db.QueryContext(ctx, q, append(joinArgs, w.args...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.TrapStatistic{}
	for rows.Next() {
		var s model.TrapStatistic
		if err := rows.Scan(&s.TrapID, &s.TrapName, &s.LocationName, &s.TotalPhotos,
			&s.UniqueExterminators, &s.LastActivity); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
