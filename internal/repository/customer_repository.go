package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/pestiq-backend/internal/model"
)

// CustomerRepo manages customers.  Rows are soft-deleted and deleted rows
// never appear in reads.
type CustomerRepo struct {
	db *sql.DB
}

// NewCustomerRepo constructs a CustomerRepo with the given DB handle.
func NewCustomerRepo(db *sql.DB) *CustomerRepo {
	return &CustomerRepo{db: db}
}

const customerColumns = "id, company_id, name, email, phone, address, created_at"

func scanCustomer(row rowScanner) (*model.Customer, error) {
	var c model.Customer
	if err := row.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts a customer.  The email must be unique among the live
// customers of the company; a clash returns ErrDuplicate.
func (r *CustomerRepo) Create(ctx context.Context, in model.NewCustomer) (uint64, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM customers WHERE email = ? AND company_id = ? AND is_deleted = 0",
		in.Email, in.CompanyID).Scan(&n); err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, ErrDuplicate
	}
	const q = `INSERT INTO customers (company_id, name, email, phone, address, is_deleted, created_at)
	           VALUES (?, ?, ?, ?, ?, 0, NOW())`
	res, err := r.db.ExecContext(ctx, q, in.CompanyID, in.Name, in.Email, in.Phone, in.Address)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

func (r *CustomerRepo) List(ctx context.Context, scope *uint64) ([]model.Customer, error) {
	w := &where{}
	w.and("is_deleted = 0")
	w.scope("company_id", scope)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE "+w.sql()+" ORDER BY id DESC", w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *CustomerRepo) Get(ctx context.Context, id uint64, scope *uint64) (*model.Customer, error) {
	w := &where{}
	w.and("id = ?", id)
	w.and("is_deleted = 0")
	w.scope("company_id", scope)
	return scanCustomer(r.db.QueryRowContext(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE "+w.sql()+" LIMIT 1", w.args...))
}

func (r *CustomerRepo) Update(ctx context.Context, id uint64, scope *uint64, in model.CustomerUpdate) error {
	set := &setList{}
	setIf(set, "name", in.Name)
	setIf(set, "email", in.Email)
	setIf(set, "phone", in.Phone)
	setIf(set, "address", in.Address)
	if set.empty() {
		return ErrNoChanges
	}
	if _, err := r.Get(ctx, id, scope); err != nil {
		return err
	}
	return execUpdate(ctx, r.db, "customers", set, id, scope)
}

// Delete soft-deletes the customer.
func (r *CustomerRepo) Delete(ctx context.Context, id uint64, scope *uint64) error {
	return execSoftDelete(ctx, r.db, "customers", id, scope)
}
