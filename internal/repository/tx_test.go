package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pestiq-backend/internal/model"
)

func newOwner() *model.User {
	hash := "$2a$04$hash"
	return &model.User{FirstName: "Jo", LastName: "Li", Email: "jo@x.com", PasswordHash: &hash, AuthType: model.AuthNormal}
}

func TestCreateOwnerLinksUserAndCompany(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO companies")).
		WithArgs("Acme", "jo@x.com", model.SubscriptionInactive).
		WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET company_id = ?, is_company_owner = 1 WHERE id = ?")).
		WithArgs(4, 11).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	uid, cid, err := repo.CreateOwner(context.Background(), newOwner(), "Acme")
	require.NoError(t, err)
	assert.Equal(t, uint64(11), uid)
	assert.Equal(t, uint64(4), cid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOwnerRollsBackOnDuplicateCompany(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO companies")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'Acme' for key 'uq_companies_name'"})
	mock.ExpectRollback()

	_, _, err := repo.CreateOwner(context.Background(), newOwner(), "Acme")
	assert.ErrorIs(t, err, ErrCompanyNameExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOwnerDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'jo@x.com' for key 'uq_users_email'"})
	mock.ExpectRollback()

	_, _, err := repo.CreateOwner(context.Background(), newOwner(), "Acme")
	assert.ErrorIs(t, err, ErrEmailExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkProviderNeverOverwrites(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET google_id = ?, google_avatar = ?, updated_at = NOW() WHERE id = ? AND (google_id IS NULL OR google_id = '')")).
		WithArgs("g-9", "https://img/a.png", 5).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("SET apple_id = ?, apple_avatar = ?, updated_at = NOW() WHERE id = ? AND (apple_id IS NULL OR apple_id = '')")).
		WithArgs("a-1", nil, 8).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.LinkProvider(context.Background(), 5, model.AuthGoogle, "g-9", "https://img/a.png"))
	require.NoError(t, repo.LinkProvider(context.Background(), 8, model.AuthApple, "a-1", ""))
	assert.Error(t, repo.LinkProvider(context.Background(), 8, "myspace", "m-1", ""))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRenewSubscriptionExtendsFromCurrentExpiry(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepo(db)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	expires := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	next := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT subscription_expires_at FROM companies WHERE id = ? FOR UPDATE")).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"subscription_expires_at"}).AddRow(expires))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO invoices")).WillReturnResult(sqlmock.NewResult(21, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE companies SET subscription_status = ?")).
		WithArgs(model.SubscriptionActive, "pro-1000", next, 1000, 4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := repo.RenewSubscription(context.Background(), 4, model.RenewRequest{Plan: "pro-1000", Months: 2})
	require.NoError(t, err)
	assert.Equal(t, uint64(21), res.InvoiceID)
	assert.Equal(t, next, res.NewExpiry)
	assert.Regexp(t, `^INV-\d+-\d+$`, res.InvoiceNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRenewSubscriptionRollsBackOnPaymentFailure(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"subscription_expires_at"}).AddRow(nil))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO invoices")).WillReturnResult(sqlmock.NewResult(21, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payments")).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := repo.RenewSubscription(context.Background(), 4, model.RenewRequest{
		Plan: "basic", Amount: 49, PaymentInfo: model.PaymentInfo{Method: "card"},
	})
	assert.EqualError(t, err, "disk full")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddPhotoRejectsForeignCustomer(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPhotoRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM meetings WHERE id = ? AND company_id = ?")).
		WithArgs(6, 3).
		WillReturnRows(countRows(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM customers WHERE id = ? AND company_id = ? AND is_deleted = 0")).
		WithArgs(77, 3).
		WillReturnRows(countRows(0))
	mock.ExpectRollback()

	_, err := repo.AddWithResults(context.Background(), PhotoRecord{
		CompanyID: 3, MeetingID: 6, ExterminatorID: 2, CustomerID: 77, ImageURL: "photos/a.jpg",
	}, model.AnalysisResult{})
	assert.ErrorIs(t, err, ErrBadReference)
	require.NoError(t, mock.ExpectationsWereMet())
}
