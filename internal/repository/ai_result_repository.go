package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/pestiq-backend/internal/model"
)

const aiResultColumns = "id, photo_id, detected_pest, confidence, total_count, result_json, created_at"

func scanAIResult(row rowScanner) (*model.AIResult, error) {
	var a model.AIResult
	var raw []byte
	if err := row.Scan(&a.ID, &a.PhotoID, &a.DetectedPest, &a.Confidence, &a.TotalCount, &raw, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(raw) > 0 {
		a.ResultJSON = raw
	}
	return &a, nil
}

// AIResultRepo manages detection results.  A result is visible through the
// tenant that owns its photo.
type AIResultRepo struct {
	db *sql.DB
}

func NewAIResultRepo(db *sql.DB) *AIResultRepo { return &AIResultRepo{db: db} }

// photoInScope returns ErrNotFound unless the photo exists within scope.
func (r *AIResultRepo) photoInScope(ctx context.Context, photoID uint64, scope *uint64) error {
	w := &where{}
	w.and("id = ?", photoID)
	w.scope("company_id", scope)
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM photos WHERE "+w.sql(), w.args...).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AIResultRepo) Create(ctx context.Context, in model.NewAIResult, scope *uint64) (uint64, error) {
	if err := r.photoInScope(ctx, in.PhotoID, scope); err != nil {
		return 0, err
	}
	var doc any
	if len(in.ResultJSON) > 0 {
		doc = []byte(in.ResultJSON)
	}
	const q = `INSERT INTO ai_results (photo_id, detected_pest, confidence, total_count, result_json, created_at)
	           VALUES (?, ?, ?, ?, ?, NOW())`
	res, err := r.db.ExecContext(ctx, q, in.PhotoID, in.DetectedPest, in.Confidence, in.TotalCount, doc)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

func (r *AIResultRepo) ByPhoto(ctx context.Context, photoID uint64, scope *uint64) ([]model.AIResult, error) {
	if err := r.photoInScope(ctx, photoID, scope); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+aiResultColumns+" FROM ai_results WHERE photo_id = ? ORDER BY created_at DESC", photoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.AIResult{}
	for rows.Next() {
		a, err := scanAIResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *AIResultRepo) Get(ctx context.Context, id uint64, scope *uint64) (*model.AIResult, error) {
	a, err := scanAIResult(r.db.QueryRowContext(ctx,
		"SELECT "+aiResultColumns+" FROM ai_results WHERE id = ?", id))
	if err != nil {
		return nil, err
	}
	if err := r.photoInScope(ctx, a.PhotoID, scope); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *AIResultRepo) Update(ctx context.Context, id uint64, scope *uint64, in model.AIResultUpdate) error {
	set := &setList{}
	setIf(set, "detected_pest", in.DetectedPest)
	setIf(set, "confidence", in.Confidence)
	setIf(set, "total_count", in.TotalCount)
	if len(in.ResultJSON) > 0 {
		set.add("result_json", []byte(in.ResultJSON))
	}
	if set.empty() {
		return ErrNoChanges
	}
	if _, err := r.Get(ctx, id, scope); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, "UPDATE ai_results SET "+set.clause()+" WHERE id = ?", append(set.args, id)...)
	return err
}

func (r *AIResultRepo) Delete(ctx context.Context, id uint64, scope *uint64) error {
	if _, err := r.Get(ctx, id, scope); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, "DELETE FROM ai_results WHERE id = ?", id)
	return err
}
