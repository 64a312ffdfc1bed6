package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/iliyamo/pestiq-backend/internal/database"
	"github.com/iliyamo/pestiq-backend/internal/model"
)

// AccountRepo backs the self-service account pages: profile, billing
// history and the company subscription.
type AccountRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{db: db, now: time.Now}
}

// Profile returns the user joined with its company.
func (r *AccountRepo) Profile(ctx context.Context, userID uint64) (*model.Profile, error) {
	const q = `SELECT u.id, u.first_name, u.last_name, u.email, u.mobile, u.address, u.city, u.country,
	                  u.zip, u.vat, u.is_company_owner, u.profile_image, u.created_at,
	                  c.id, c.name, c.email, c.phone, c.address, c.subscription_status,
	                  c.photos_limit, c.photos_used, c.subscription_expires_at
	           FROM users u
	           LEFT JOIN companies c ON u.company_id = c.id
	           WHERE u.id = ? AND u.is_deleted = 0 LIMIT 1`
	var p model.Profile
	err := r.db.QueryRowContext(ctx, q, userID).Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email,
		&p.Mobile, &p.Address, &p.City, &p.Country, &p.Zip, &p.Vat, &p.IsCompanyOwner, &p.ProfileImage,
		&p.CreatedAt, &p.CompanyID, &p.CompanyName, &p.CompanyEmail, &p.CompanyPhone, &p.CompanyAddress,
		&p.SubscriptionStatus, &p.PhotosLimit, &p.PhotosUsed, &p.SubscriptionExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// UpdateProfile writes the user part and, when companyID is non-zero, the
// company part of the edit in a single transaction.
func (r *AccountRepo) UpdateProfile(ctx context.Context, userID, companyID uint64, in model.ProfileUpdate) error {
	user := &setList{}
	setIf(user, "first_name", in.FirstName)
	setIf(user, "last_name", in.LastName)
	setIf(user, "email", in.Email)
	setIf(user, "mobile", in.Mobile)
	setIf(user, "vat", in.Vat)
	setIf(user, "zip", in.Zip)
	setIf(user, "city", in.City)
	setIf(user, "country", in.Country)

	company := &setList{}
	if companyID != 0 {
		setIf(company, "name", in.CompanyName)
		setIf(company, "email", in.CompanyEmail)
		setIf(company, "phone", in.CompanyPhone)
		setIf(company, "address", in.CompanyAddress)
	}
	if user.empty() && company.empty() {
		return ErrNoChanges
	}

	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if !user.empty() {
			res, err := tx.ExecContext(ctx,
				"UPDATE users SET "+user.clause()+", updated_at = NOW() WHERE id = ? AND is_deleted = 0",
				append(user.args, userID)...)
			if err != nil {
				if isDuplicate(err) {
					return ErrEmailExists
				}
				return err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return ErrNotFound
			}
		}
		if !company.empty() {
			if _, err := tx.ExecContext(ctx,
				"UPDATE companies SET "+company.clause()+" WHERE id = ?",
				append(company.args, companyID)...); err != nil {
				if isDuplicate(err) {
					return ErrCompanyNameExists
				}
				return err
			}
		}
		return nil
	})
}

// SetProfileImage stores the relative image path.  Social avatars that are
// already set are pointed at the new image too.
func (r *AccountRepo) SetProfileImage(ctx context.Context, userID uint64, path, publicURL string) error {
	const q = `UPDATE users SET profile_image = ?,
	             google_avatar = IF(google_avatar IS NULL, NULL, ?),
	             facebook_avatar = IF(facebook_avatar IS NULL, NULL, ?),
	             apple_avatar = IF(apple_avatar IS NULL, NULL, ?),
	             updated_at = NOW()
	           WHERE id = ? AND is_deleted = 0`
	res, err := r.db.ExecContext(ctx, q, path, publicURL, publicURL, publicURL, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Invoices pages through the company's invoices, newest first.
func (r *AccountRepo) Invoices(ctx context.Context, companyID uint64, page, limit int) ([]model.Invoice, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	const q = `SELECT ` + invoiceColumns + `
	           FROM invoices i LEFT JOIN subscriptions s ON i.subscription_id = s.id
	           WHERE i.company_id = ? ORDER BY i.created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, companyID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInvoices(rows)
}

func (r *AccountRepo) Payments(ctx context.Context, companyID uint64) ([]model.Payment, error) {
	const q = `SELECT p.id, p.company_id, p.invoice_id, i.invoice_number, p.amount, p.currency,
	                  p.payment_method, p.provider_transaction_id, p.status, p.created_at
	           FROM payments p LEFT JOIN invoices i ON p.invoice_id = i.id
	           WHERE p.company_id = ? ORDER BY p.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Payment{}
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.InvoiceID, &p.InvoiceNumber, &p.Amount, &p.Currency,
			&p.PaymentMethod, &p.ProviderTransactionID, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Subscription returns the subscription columns of the company row.
func (r *AccountRepo) Subscription(ctx context.Context, companyID uint64) (*model.Company, error) {
	const q = `SELECT id, name, email, phone, address, subscription_status, subscription_plan,
	                  subscription_expires_at, photos_limit, photos_used, created_at
	           FROM companies WHERE id = ? LIMIT 1`
	var c model.Company
	err := r.db.QueryRowContext(ctx, q, companyID).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address,
		&c.SubscriptionStatus, &c.SubscriptionPlan, &c.SubscriptionExpiresAt, &c.PhotosLimit, &c.PhotosUsed, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// RenewSubscription records a paid invoice (and a payment when amount > 0)
// and extends the company expiry by the requested months, counting from
// the current expiry when there is one.  Everything happens in one
// transaction with the company row locked.
func (r *AccountRepo) RenewSubscription(ctx context.Context, companyID uint64, in model.RenewRequest) (*model.RenewResult, error) {
	months := in.Months
	if months <= 0 {
		months = 1
	}
	currency := in.PaymentInfo.Currency
	if currency == "" {
		currency = "EUR"
	}
	meta, err := json.Marshal(in.PaymentInfo)
	if err != nil {
		return nil, err
	}
	now := r.now().UTC()
	number := fmt.Sprintf("INV-%d-%d", now.UnixMilli(), rand.IntN(9000))

	var out model.RenewResult
	err = database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var expires sql.NullTime
		if err := tx.QueryRowContext(ctx,
			"SELECT subscription_expires_at FROM companies WHERE id = ? FOR UPDATE", companyID).Scan(&expires); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		base := now
		if expires.Valid {
			base = expires.Time
		}
		next := base.AddDate(0, months, 0)

		res, err := tx.ExecContext(ctx,
			`INSERT INTO invoices (company_id, invoice_number, amount, currency, status, issued_date, meta, created_at)
			 VALUES (?, ?, ?, ?, 'paid', ?, ?, NOW())`,
			companyID, number, in.Amount, currency, now, meta)
		if err != nil {
			return err
		}
		invoiceID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		if in.Amount > 0 {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO payments (company_id, invoice_id, amount, currency, payment_method, provider_transaction_id, status, meta, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, 'completed', ?, NOW())`,
				companyID, invoiceID, in.Amount, currency, nullable(in.PaymentInfo.Method), nullable(in.PaymentInfo.Tx), meta); err != nil {
				return err
			}
		}
		extra := 0
		if strings.Contains(in.Plan, "1000") {
			extra = 1000
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE companies SET subscription_status = ?, subscription_plan = ?, subscription_expires_at = ?,
			   photos_limit = photos_limit + ? WHERE id = ?`,
			model.SubscriptionActive, in.Plan, next, extra, companyID); err != nil {
			return err
		}
		out = model.RenewResult{InvoiceID: uint64(invoiceID), InvoiceNumber: number, NewExpiry: next}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelSubscription marks the company cancelled and clears its expiry.
func (r *AccountRepo) CancelSubscription(ctx context.Context, companyID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE companies SET subscription_status = ?, subscription_expires_at = NULL WHERE id = ?",
		model.SubscriptionCancelled, companyID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
