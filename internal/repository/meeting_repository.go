package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/pestiq-backend/internal/model"
)

// MeetingRepo manages scheduled visits.  Deletes are hard.
type MeetingRepo struct {
	db *sql.DB
}

func NewMeetingRepo(db *sql.DB) *MeetingRepo {
	return &MeetingRepo{db: db}
}

const meetingSelect = `SELECT m.id, m.company_id, m.exterminator_id, m.created_by, m.customer_id, m.location_id,
	m.title, m.description, m.status, m.scheduled_date, m.created_at,
	CONCAT(u.first_name, ' ', u.last_name), u.email, u.mobile,
	CONCAT(cb.first_name, ' ', cb.last_name),
	c.name, c.email, c.phone,
	l.name, l.address, l.city,
	co.name
	FROM meetings m
	LEFT JOIN users u ON m.exterminator_id = u.id
	LEFT JOIN users cb ON m.created_by = cb.id
	LEFT JOIN customers c ON m.customer_id = c.id
	LEFT JOIN locations l ON m.location_id = l.id
	LEFT JOIN companies co ON m.company_id = co.id`

func scanMeeting(row rowScanner) (*model.Meeting, error) {
	var m model.Meeting
	err := row.Scan(&m.ID, &m.CompanyID, &m.ExterminatorID, &m.CreatedBy, &m.CustomerID, &m.LocationID,
		&m.Title, &m.Description, &m.Status, &m.ScheduledDate, &m.CreatedAt,
		&m.ExterminatorName, &m.ExterminatorEmail, &m.ExterminatorPhone,
		&m.CreatedByName,
		&m.CustomerName, &m.CustomerEmail, &m.CustomerPhone,
		&m.LocationName, &m.LocationAddress, &m.LocationCity,
		&m.CompanyName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Create inserts a pending meeting after checking that the exterminator,
// customer and location all belong to the meeting's company.
func (r *MeetingRepo) Create(ctx context.Context, in model.NewMeeting) (uint64, error) {
	if err := checkRefs(ctx, r.db, in.CompanyID, &in.ExterminatorID, &in.CustomerID, &in.LocationID); err != nil {
		return 0, err
	}
	const q = `INSERT INTO meetings (company_id, exterminator_id, created_by, customer_id, location_id,
	             title, description, status, scheduled_date, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NOW())`
	res, err := r.db.ExecContext(ctx, q, in.CompanyID, in.ExterminatorID, in.CreatedBy, in.CustomerID,
		in.LocationID, in.Title, in.Description, model.MeetingPending, in.ScheduledDate)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// List returns meetings matching the filter, latest scheduled first.
func (r *MeetingRepo) List(ctx context.Context, f model.MeetingFilter) ([]model.Meeting, error) {
	w := &where{}
	w.scope("m.company_id", f.CompanyID)
	if f.ExterminatorID != 0 {
		w.and("m.exterminator_id = ?", f.ExterminatorID)
	}
	rows, err := r.db.QueryContext(ctx, meetingSelect+" WHERE "+w.sql()+" ORDER BY m.scheduled_date DESC", w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Meeting{}
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *MeetingRepo) Get(ctx context.Context, id uint64, scope *uint64) (*model.Meeting, error) {
	w := &where{}
	w.and("m.id = ?", id)
	w.scope("m.company_id", scope)
	return scanMeeting(r.db.QueryRowContext(ctx, meetingSelect+" WHERE "+w.sql()+" LIMIT 1", w.args...))
}

func (r *MeetingRepo) Update(ctx context.Context, id uint64, scope *uint64, in model.MeetingUpdate) error {
	set := &setList{}
	setIf(set, "exterminator_id", in.ExterminatorID)
	setIf(set, "customer_id", in.CustomerID)
	setIf(set, "location_id", in.LocationID)
	setIf(set, "title", in.Title)
	setIf(set, "description", in.Description)
	setIf(set, "scheduled_date", in.ScheduledDate)
	setIf(set, "status", in.Status)
	if set.empty() {
		return ErrNoChanges
	}
	m, err := r.Get(ctx, id, scope)
	if err != nil {
		return err
	}
	if err := checkRefs(ctx, r.db, m.CompanyID, in.ExterminatorID, in.CustomerID, in.LocationID); err != nil {
		return err
	}
	return execUpdate(ctx, r.db, "meetings", set, id, scope)
}

func (r *MeetingRepo) SetStatus(ctx context.Context, id uint64, scope *uint64, status string) error {
	set := &setList{}
	set.add("status", status)
	return execUpdate(ctx, r.db, "meetings", set, id, scope)
}

func (r *MeetingRepo) Delete(ctx context.Context, id uint64, scope *uint64) error {
	return execDelete(ctx, r.db, "meetings", id, scope)
}
