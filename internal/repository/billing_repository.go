package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/pestiq-backend/internal/model"
)

const invoiceColumns = `i.id, i.company_id, i.subscription_id, i.invoice_number, i.amount, i.currency,
	i.status, i.issued_date, i.due_date, i.created_at, s.plan_name`

func scanInvoice(row rowScanner) (*model.Invoice, error) {
	var in model.Invoice
	err := row.Scan(&in.ID, &in.CompanyID, &in.SubscriptionID, &in.InvoiceNumber, &in.Amount, &in.Currency,
		&in.Status, &in.IssuedDate, &in.DueDate, &in.CreatedAt, &in.PlanName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &in, nil
}

func scanInvoices(rows *sql.Rows) ([]model.Invoice, error) {
	out := []model.Invoice{}
	for rows.Next() {
		in, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *in)
	}
	return out, rows.Err()
}

// InvoiceRepo manages invoices.  Deletes are hard.
type InvoiceRepo struct {
	db *sql.DB
}

func NewInvoiceRepo(db *sql.DB) *InvoiceRepo { return &InvoiceRepo{db: db} }

func (r *InvoiceRepo) Create(ctx context.Context, in model.NewInvoice) (uint64, error) {
	currency := in.Currency
	if currency == "" {
		currency = "EUR"
	}
	status := in.Status
	if status == "" {
		status = "pending"
	}
	const q = `INSERT INTO invoices (company_id, subscription_id, invoice_number, amount, currency, status, issued_date, due_date, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, NOW())`
	res, err := r.db.ExecContext(ctx, q, in.CompanyID, in.SubscriptionID, in.InvoiceNumber, in.Amount,
		currency, status, in.IssuedDate, in.DueDate)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

func (r *InvoiceRepo) List(ctx context.Context, scope *uint64) ([]model.Invoice, error) {
	w := &where{}
	w.scope("i.company_id", scope)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+invoiceColumns+" FROM invoices i LEFT JOIN subscriptions s ON i.subscription_id = s.id WHERE "+
			w.sql()+" ORDER BY i.issued_date DESC, i.id DESC", w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInvoices(rows)
}

func (r *InvoiceRepo) Get(ctx context.Context, id uint64, scope *uint64) (*model.Invoice, error) {
	w := &where{}
	w.and("i.id = ?", id)
	w.scope("i.company_id", scope)
	return scanInvoice(r.db.QueryRowContext(ctx,
		"SELECT "+invoiceColumns+" FROM invoices i LEFT JOIN subscriptions s ON i.subscription_id = s.id WHERE "+w.sql(), w.args...))
}

func (r *InvoiceRepo) Update(ctx context.Context, id uint64, scope *uint64, in model.InvoiceUpdate) error {
	set := &setList{}
	setIf(set, "amount", in.Amount)
	setIf(set, "currency", in.Currency)
	setIf(set, "status", in.Status)
	setIf(set, "issued_date", in.IssuedDate)
	setIf(set, "due_date", in.DueDate)
	return execUpdate(ctx, r.db, "invoices", set, id, scope)
}

func (r *InvoiceRepo) Delete(ctx context.Context, id uint64, scope *uint64) error {
	return execDelete(ctx, r.db, "invoices", id, scope)
}

// SubscriptionRepo manages plan periods.  Cancelling clears is_active.
type SubscriptionRepo struct {
	db *sql.DB
}

func NewSubscriptionRepo(db *sql.DB) *SubscriptionRepo { return &SubscriptionRepo{db: db} }

const subscriptionColumns = "id, company_id, plan_name, photos_limit, price, start_date, end_date, is_active"

func scanSubscription(row rowScanner) (*model.Subscription, error) {
	var s model.Subscription
	err := row.Scan(&s.ID, &s.CompanyID, &s.PlanName, &s.PhotosLimit, &s.Price, &s.StartDate, &s.EndDate, &s.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *SubscriptionRepo) Create(ctx context.Context, in model.NewSubscription) (uint64, error) {
	const q = `INSERT INTO subscriptions (company_id, plan_name, photos_limit, price, start_date, end_date, is_active)
	           VALUES (?, ?, ?, ?, ?, ?, TRUE)`
	res, err := r.db.ExecContext(ctx, q, in.CompanyID, in.PlanName, in.PhotosLimit, in.Price, in.StartDate, in.EndDate)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

func (r *SubscriptionRepo) List(ctx context.Context, scope *uint64) ([]model.Subscription, error) {
	w := &where{}
	w.scope("company_id", scope)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+subscriptionColumns+" FROM subscriptions WHERE "+w.sql()+" ORDER BY start_date DESC", w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Subscription{}
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *SubscriptionRepo) Get(ctx context.Context, id uint64, scope *uint64) (*model.Subscription, error) {
	w := &where{}
	w.and("id = ?", id)
	w.scope("company_id", scope)
	return scanSubscription(r.db.QueryRowContext(ctx,
		"SELECT "+subscriptionColumns+" FROM subscriptions WHERE "+w.sql(), w.args...))
}

func (r *SubscriptionRepo) Update(ctx context.Context, id uint64, scope *uint64, in model.SubscriptionUpdate) error {
	set := &setList{}
	setIf(set, "plan_name", in.PlanName)
	setIf(set, "photos_limit", in.PhotosLimit)
	setIf(set, "price", in.Price)
	setIf(set, "start_date", in.StartDate)
	setIf(set, "end_date", in.EndDate)
	setIf(set, "is_active", in.IsActive)
	return execUpdate(ctx, r.db, "subscriptions", set, id, scope)
}

func (r *SubscriptionRepo) Cancel(ctx context.Context, id uint64, scope *uint64) error {
	set := &setList{}
	set.add("is_active", false)
	return execUpdate(ctx, r.db, "subscriptions", set, id, scope)
}
