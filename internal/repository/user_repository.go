package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/pestiq-backend/internal/database"
	"github.com/iliyamo/pestiq-backend/internal/model"
)

// UserRepo is the credential store: users rows plus the company created
// together with an owner.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, company_id, added_by, first_name, last_name, email, password, mobile,
	address, city, country, zip, vat, profile_image, is_company_owner, auth_type,
	google_id, google_avatar, facebook_id, facebook_avatar, apple_id, apple_avatar,
	is_active, is_deleted, otp_code, otp_expiry, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.CompanyID, &u.AddedBy, &u.FirstName, &u.LastName, &u.Email,
		&u.PasswordHash, &u.Mobile, &u.Address, &u.City, &u.Country, &u.Zip, &u.Vat,
		&u.ProfileImage, &u.IsCompanyOwner, &u.AuthType,
		&u.GoogleID, &u.GoogleAvatar, &u.FacebookID, &u.FacebookAvatar, &u.AppleID, &u.AppleAvatar,
		&u.IsActive, &u.IsDeleted, &u.OTPCode, &u.OTPExpiry, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindByEmail fetches a user by email including soft-deleted rows, so that
// callers can tell "deleted" apart from "never existed".  Email is unique
// across all rows.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ? LIMIT 1", strings.TrimSpace(email)))
}

// GetByID fetches a live (not deleted) user.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ? AND is_deleted = 0 LIMIT 1", id))
}

// CompanyNameExists compares names case-insensitively.
func (r *UserRepo) CompanyNameExists(ctx context.Context, name string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM companies WHERE LOWER(name) = LOWER(?)", strings.TrimSpace(name)).Scan(&n)
	return n > 0, err
}

// CreateOwner inserts u as the owner of a new company named companyName.
// The user insert, the company insert and the link are one transaction, so
// a failure never leaves an ownerless company or a companyless owner.
func (r *UserRepo) CreateOwner(ctx context.Context, u *model.User, companyName string) (userID, companyID uint64, err error) {
	err = database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO users (first_name, last_name, email, password, auth_type, is_company_owner, is_active,
			  google_id, google_avatar, facebook_id, facebook_avatar, apple_id, apple_avatar, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, 1, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`,
			u.FirstName, u.LastName, u.Email, u.PasswordHash, u.AuthType, u.IsActive,
			u.GoogleID, u.GoogleAvatar, u.FacebookID, u.FacebookAvatar, u.AppleID, u.AppleAvatar)
		if err != nil {
			if isDuplicate(err) {
				return ErrEmailExists
			}
			return err
		}
		uid, err := res.LastInsertId()
		if err != nil {
			return err
		}
		res, err = tx.ExecContext(ctx,
			`INSERT INTO companies (name, email, subscription_status, photos_limit, photos_used, created_at)
			 VALUES (?, ?, ?, 0, 0, NOW())`,
			companyName, u.Email, model.SubscriptionInactive)
		if err != nil {
			if isDuplicate(err) {
				return ErrCompanyNameExists
			}
			return err
		}
		cid, err := res.LastInsertId()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE users SET company_id = ?, is_company_owner = 1 WHERE id = ?", cid, uid); err != nil {
			return err
		}
		userID, companyID = uint64(uid), uint64(cid)
		return nil
	})
	return userID, companyID, err
}

// SaveOTP overwrites any pending code for the email.
func (r *UserRepo) SaveOTP(ctx context.Context, email, code string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET otp_code = ?, otp_expiry = ? WHERE email = ? AND is_deleted = 0",
		code, expiresAt.UTC(), email)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// LoadOTP returns the pending code; ok is false when there is none.
func (r *UserRepo) LoadOTP(ctx context.Context, email string) (code string, expiresAt time.Time, ok bool, err error) {
	var c sql.NullString
	var exp sql.NullTime
	err = r.db.QueryRowContext(ctx,
		"SELECT otp_code, otp_expiry FROM users WHERE email = ? AND is_deleted = 0 LIMIT 1", email).Scan(&c, &exp)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, false, nil
	}
	if err != nil {
		return "", time.Time{}, false, err
	}
	if !c.Valid || !exp.Valid {
		return "", time.Time{}, false, nil
	}
	return c.String, exp.Time, true, nil
}

func (r *UserRepo) ClearOTP(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET otp_code = NULL, otp_expiry = NULL WHERE email = ?", email)
	return err
}

// Activate marks the account verified.
func (r *UserRepo) Activate(ctx context.Context, email string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET is_active = 1, updated_at = NOW() WHERE email = ? AND is_deleted = 0", email)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// LinkProvider stores a provider id and avatar on the user unless an id for
// that provider is already present.  The guard lives in the WHERE clause so
// two concurrent logins cannot overwrite each other.
func (r *UserRepo) LinkProvider(ctx context.Context, id uint64, provider, providerID, avatar string) error {
	var idCol, avatarCol string
	switch provider {
	case model.AuthGoogle:
		idCol, avatarCol = "google_id", "google_avatar"
	case model.AuthFacebook:
		idCol, avatarCol = "facebook_id", "facebook_avatar"
	case model.AuthApple:
		idCol, avatarCol = "apple_id", "apple_avatar"
	default:
		return errors.New("unknown provider: " + provider)
	}
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET "+idCol+" = ?, "+avatarCol+" = ?, updated_at = NOW() WHERE id = ? AND ("+idCol+" IS NULL OR "+idCol+" = '')",
		providerID, nullable(avatar), id)
	return err
}

func (r *UserRepo) UpdatePassword(ctx context.Context, email, hash string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET password = ?, updated_at = NOW() WHERE email = ? AND is_deleted = 0", hash, email)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// MemberScope limits company-user management to the members an owner added
// to its own company.  The zero value (admin) is unrestricted.
type MemberScope struct {
	CompanyID uint64
	AddedBy   uint64
}

func (s MemberScope) apply(w *where) {
	if s.CompanyID != 0 || s.AddedBy != 0 {
		w.and("company_id = ?", s.CompanyID)
		w.and("added_by = ?", s.AddedBy)
	}
}

// EmailTaken reports whether a live user already uses the email.
func (r *UserRepo) EmailTaken(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE email = ? AND is_deleted = 0", email).Scan(&n)
	return n > 0, err
}

// ListMembers returns live users.  With an owner scope only the
// non-owner users that owner added are returned.
func (r *UserRepo) ListMembers(ctx context.Context, s MemberScope) ([]model.User, error) {
	w := &where{}
	w.and("is_deleted = 0")
	if s.CompanyID != 0 || s.AddedBy != 0 {
		s.apply(w)
		w.and("is_company_owner = 0")
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+w.sql()+" ORDER BY created_at DESC", w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// GetMember fetches one live user inside the scope.
func (r *UserRepo) GetMember(ctx context.Context, id uint64, s MemberScope) (*model.User, error) {
	w := &where{}
	w.and("id = ?", id)
	w.and("is_deleted = 0")
	s.apply(w)
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+w.sql()+" LIMIT 1", w.args...))
}

// CreateMember inserts an active, normal, non-owner user added by an owner.
func (r *UserRepo) CreateMember(ctx context.Context, in model.NewCompanyUser, hash string, companyID, addedBy uint64) (*model.User, error) {
	const q = `INSERT INTO users (first_name, last_name, email, password, mobile, company_id, added_by,
	             is_company_owner, auth_type, is_active, is_deleted, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, 1, 0, NOW(), NOW())`
	res, err := r.db.ExecContext(ctx, q, in.FirstName, in.LastName, in.Email, hash, in.Mobile,
		companyID, addedBy, model.AuthNormal)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, uint64(id))
}

// UpdateMember applies a typed partial update.  hash replaces the password
// when non-empty.
func (r *UserRepo) UpdateMember(ctx context.Context, id uint64, s MemberScope, in model.CompanyUserUpdate, hash string) (*model.User, error) {
	set := &setList{}
	setIf(set, "first_name", in.FirstName)
	setIf(set, "last_name", in.LastName)
	setIf(set, "email", in.Email)
	setIf(set, "mobile", in.Mobile)
	if hash != "" {
		set.add("password", hash)
	}
	if set.empty() {
		return nil, ErrNoChanges
	}
	w := &where{}
	w.and("id = ?", id)
	w.and("is_deleted = 0")
	s.apply(w)
	args := append(set.args, w.args...)
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET "+set.clause()+", updated_at = NOW() WHERE "+w.sql(), args...)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// ToggleActive flips is_active and returns the new value.
func (r *UserRepo) ToggleActive(ctx context.Context, id uint64, s MemberScope) (bool, error) {
	u, err := r.GetMember(ctx, id, s)
	if err != nil {
		return false, err
	}
	next := !u.IsActive
	if _, err := r.db.ExecContext(ctx,
		"UPDATE users SET is_active = ?, updated_at = NOW() WHERE id = ? AND is_deleted = 0", next, id); err != nil {
		return false, err
	}
	return next, nil
}

// SoftDelete marks the user deleted and inactive.  The row is kept.
func (r *UserRepo) SoftDelete(ctx context.Context, id uint64, s MemberScope) error {
	w := &where{}
	w.and("id = ?", id)
	w.and("is_deleted = 0")
	s.apply(w)
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET is_deleted = 1, is_active = 0, updated_at = NOW() WHERE "+w.sql(), w.args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
