package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/pestiq-backend/internal/model"
)

// TrapRepo manages monitoring devices.  Deletes are hard.
type TrapRepo struct {
	db *sql.DB
}

func NewTrapRepo(db *sql.DB) *TrapRepo {
	return &TrapRepo{db: db}
}

const trapColumns = `id, company_id, customer_id, location_id, trap_code, name, trap_type, installed_at,
	last_inspected_at, status, latitude, longitude, notes, added_by, created_at`

func scanTrap(row rowScanner) (*model.Trap, error) {
	var t model.Trap
	err := row.Scan(&t.ID, &t.CompanyID, &t.CustomerID, &t.LocationID, &t.TrapCode, &t.Name, &t.TrapType,
		&t.InstalledAt, &t.LastInspectedAt, &t.Status, &t.Latitude, &t.Longitude, &t.Notes, &t.AddedBy, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Create inserts a trap; status defaults to 1 (active).  Trap codes are
// unique per company.
func (r *TrapRepo) Create(ctx context.Context, in model.NewTrap) (uint64, error) {
	status := 1
	if in.Status != nil {
		status = *in.Status
	}
	const q = `INSERT INTO traps (company_id, customer_id, location_id, trap_code, name, trap_type, installed_at,
	             last_inspected_at, status, latitude, longitude, notes, added_by, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW())`
	res, err := r.db.ExecContext(ctx, q, in.CompanyID, in.CustomerID, in.LocationID, in.TrapCode, in.Name,
		in.TrapType, in.InstalledAt, in.LastInspectedAt, status, in.Latitude, in.Longitude, in.Notes, in.AddedBy)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

func (r *TrapRepo) List(ctx context.Context, scope *uint64, f model.TrapFilter) ([]model.Trap, error) {
	w := &where{}
	w.scope("company_id", scope)
	if f.CustomerID != 0 {
		w.and("customer_id = ?", f.CustomerID)
	}
	if f.LocationID != 0 {
		w.and("location_id = ?", f.LocationID)
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+trapColumns+" FROM traps WHERE "+w.sql()+" ORDER BY id DESC", w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Trap{}
	for rows.Next() {
		t, err := scanTrap(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *TrapRepo) Update(ctx context.Context, id uint64, scope *uint64, in model.TrapUpdate) error {
	set := &setList{}
	setIf(set, "customer_id", in.CustomerID)
	setIf(set, "location_id", in.LocationID)
	setIf(set, "trap_code", in.TrapCode)
	setIf(set, "name", in.Name)
	setIf(set, "trap_type", in.TrapType)
	setIf(set, "installed_at", in.InstalledAt)
	setIf(set, "last_inspected_at", in.LastInspectedAt)
	setIf(set, "status", in.Status)
	setIf(set, "latitude", in.Latitude)
	setIf(set, "longitude", in.Longitude)
	setIf(set, "notes", in.Notes)
	return execUpdate(ctx, r.db, "traps", set, id, scope)
}

func (r *TrapRepo) Delete(ctx context.Context, id uint64, scope *uint64) error {
	return execDelete(ctx, r.db, "traps", id, scope)
}
