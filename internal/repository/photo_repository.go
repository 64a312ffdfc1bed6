package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/pestiq-backend/internal/database"
	"github.com/iliyamo/pestiq-backend/internal/model"
)

// familyColumns are the insect orders counted per photo.
var familyColumns = []string{"araneae", "coleoptera", "diptera", "hemiptera", "hymenoptera", "lepidoptera"}

// PhotoRecord is a stored capture ready for insert; ImageURL is the
// relative path returned by storage.
type PhotoRecord struct {
	CompanyID      uint64
	MeetingID      uint64
	ExterminatorID uint64
	CustomerID     uint64
	LocationID     *uint64
	TrapName       *string
	ImageURL       string
}

// PhotoRepo stores captures together with their detection results.
type PhotoRepo struct {
	db *sql.DB
}

func NewPhotoRepo(db *sql.DB) *PhotoRepo {
	return &PhotoRepo{db: db}
}

// AddWithResults inserts the photo, its family counts and one ai_results
// row per top species in a single transaction.  The meeting must belong to
// the photo's company, and the customer and location must be live rows of
// it too.
func (r *PhotoRepo) AddWithResults(ctx context.Context, p PhotoRecord, summary model.AnalysisResult) (uint64, error) {
	counts := make(map[string]int, len(familyColumns))
	for _, f := range summary.Families {
		counts[strings.ToLower(strings.TrimSpace(f.Label()))] += f.Count
	}
	cols := []string{"company_id", "meeting_id", "exterminator_id", "customer_id", "location_id", "trap_name", "image_url"}
	args := []any{p.CompanyID, p.MeetingID, p.ExterminatorID, p.CustomerID, p.LocationID, p.TrapName, p.ImageURL}
	for _, c := range familyColumns {
		cols = append(cols, c)
		args = append(args, counts[c])
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")

	var photoID uint64
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM meetings WHERE id = ? AND company_id = ?", p.MeetingID, p.CompanyID).Scan(&n); err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		if err := checkRefs(ctx, tx, p.CompanyID, nil, &p.CustomerID, p.LocationID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO photos ("+strings.Join(cols, ", ")+", created_at) VALUES ("+marks+", NOW())", args...)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for _, s := range summary.Top5Species {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO ai_results (photo_id, detected_pest, confidence, created_at) VALUES (?, ?, ?, NOW())",
				id, s.Label(), float64(s.Count)); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE companies SET photos_used = photos_used + 1 WHERE id = ?", p.CompanyID); err != nil {
			return err
		}
		photoID = uint64(id)
		return nil
	})
	return photoID, err
}

const photoSelect = `SELECT p.id, p.meeting_id, p.exterminator_id, p.customer_id, p.location_id, p.trap_name,
	p.image_url, p.created_at,
	CONCAT(u.first_name, ' ', u.last_name), cust.name, l.name, co.name
	FROM photos p
	LEFT JOIN users u ON p.exterminator_id = u.id
	LEFT JOIN customers cust ON p.customer_id = cust.id
	LEFT JOIN locations l ON p.location_id = l.id
	LEFT JOIN companies co ON p.company_id = co.id`

// ByMeeting lists the photos of one meeting within scope.
func (r *PhotoRepo) ByMeeting(ctx context.Context, meetingID uint64, scope *uint64) ([]model.Photo, error) {
	w := &where{}
	w.and("p.meeting_id = ?", meetingID)
	w.scope("p.company_id", scope)
	return r.list(ctx, w)
}

// ByExterminator lists the photos an exterminator uploaded.
func (r *PhotoRepo) ByExterminator(ctx context.Context, exterminatorID uint64, scope *uint64) ([]model.Photo, error) {
	w := &where{}
	w.and("p.exterminator_id = ?", exterminatorID)
	w.scope("p.company_id", scope)
	return r.list(ctx, w)
}

// ByCompany lists every photo within scope; a nil scope lists all tenants.
func (r *PhotoRepo) ByCompany(ctx context.Context, scope *uint64) ([]model.Photo, error) {
	w := &where{}
	w.scope("p.company_id", scope)
	return r.list(ctx, w)
}

func (r *PhotoRepo) list(ctx context.Context, w *where) ([]model.Photo, error) {
	rows, err := r.db.QueryContext(ctx,
		photoSelect+" WHERE "+w.sql()+" ORDER BY p.created_at DESC LIMIT 200", w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	photos := []model.Photo{}
	index := map[uint64]int{}
	for rows.Next() {
		var p model.Photo
		if err := rows.Scan(&p.ID, &p.MeetingID, &p.ExterminatorID, &p.CustomerID, &p.LocationID, &p.TrapName,
			&p.ImageURL, &p.CreatedAt, &p.ExterminatorName, &p.CustomerName, &p.LocationName, &p.CompanyName); err != nil {
			return nil, err
		}
		p.AIResults = []model.AIResult{}
		index[p.ID] = len(photos)
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(photos) == 0 {
		return photos, nil
	}

	ids := make([]any, 0, len(photos))
	for _, p := range photos {
		ids = append(ids, p.ID)
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	ar, err := r.db.QueryContext(ctx,
		"SELECT "+aiResultColumns+" FROM ai_results WHERE photo_id IN ("+marks+") ORDER BY confidence DESC", ids...)
	if err != nil {
		return nil, err
	}
	defer ar.Close()
	for ar.Next() {
		res, err := scanAIResult(ar)
		if err != nil {
			return nil, err
		}
		if i, ok := index[res.PhotoID]; ok {
			photos[i].AIResults = append(photos[i].AIResults, *res)
		}
	}
	return photos, ar.Err()
}

// Delete removes the photo and its results and returns the stored image
// path so the caller can remove the file.
func (r *PhotoRepo) Delete(ctx context.Context, id uint64, scope *uint64) (string, error) {
	var path string
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		w := &where{}
		w.and("id = ?", id)
		w.scope("company_id", scope)
		if err := tx.QueryRowContext(ctx, "SELECT image_url FROM photos WHERE "+w.sql()+" FOR UPDATE", w.args...).Scan(&path); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM ai_results WHERE photo_id = ?", id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM photos WHERE id = ?", id)
		return err
	})
	return path, err
}

// InsectReport returns per-photo family counts joined to traps by name.
func (r *PhotoRepo) InsectReport(ctx context.Context, scope *uint64, f model.ActivityFilter) ([]model.InsectRecord, error) {
	w := &where{}
	w.scope("p.company_id", scope)
	if f.StartDate != "" && f.EndDate != "" {
		w.and("DATE(p.created_at) BETWEEN ? AND ?", f.StartDate, f.EndDate)
	}
	if f.TrapID != 0 {
		w.and("t.id = ?", f.TrapID)
	}
	if f.LocationID != 0 {
		w.and("t.location_id = ?", f.LocationID)
	}
	q := `SELECT p.id, DATE_FORMAT(p.created_at, '%Y-%m-%d'), l.name, t.name,
	             p.araneae, p.coleoptera, p.diptera, p.hemiptera, p.hymenoptera, p.lepidoptera
	      FROM photos p
	      JOIN traps t ON p.trap_name = t.name AND t.company_id = p.company_id
	      LEFT JOIN locations l ON t.location_id = l.id
	      WHERE ` + w.sql() + `
	      ORDER BY p.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.InsectRecord{}
	for rows.Next() {
		var rec model.InsectRecord
		if err := rows.Scan(&rec.ID, &rec.RecordDate, &rec.LocationName, &rec.TrapName,
			&rec.Araneae, &rec.Coleoptera, &rec.Diptera, &rec.Hemiptera, &rec.Hymenoptera, &rec.Lepidoptera); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
