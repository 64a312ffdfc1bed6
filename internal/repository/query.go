package repository

import (
	"context"
	"database/sql"
	"strings"
)

// setList accumulates "col = ?" assignments for typed partial updates.
// Column names are always literals chosen by the repository, never input.
type setList struct {
	cols []string
	args []any
}

func (s *setList) add(col string, v any) {
	s.cols = append(s.cols, col+" = ?")
	s.args = append(s.args, v)
}

// setIf adds col when v is non-nil.
func setIf[T any](s *setList, col string, v *T) {
	if v != nil {
		s.add(col, *v)
	}
}

func (s *setList) empty() bool { return len(s.cols) == 0 }

func (s *setList) clause() string { return strings.Join(s.cols, ", ") }

// where accumulates AND-ed conditions and their args.
type where struct {
	conds []string
	args  []any
}

func (w *where) and(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

// scope restricts col to the tenant id; a nil scope (admin) adds nothing.
func (w *where) scope(col string, scope *uint64) {
	if scope != nil {
		w.and(col+" = ?", *scope)
	}
}

func (w *where) sql() string {
	if len(w.conds) == 0 {
		return "1=1"
	}
	return strings.Join(w.conds, " AND ")
}

// execUpdate applies set to the row id of table within scope.  Table is
// always a literal from this package.
func execUpdate(ctx context.Context, db *sql.DB, table string, set *setList, id uint64, scope *uint64) error {
	if set.empty() {
		return ErrNoChanges
	}
	w := &where{}
	w.and("id = ?", id)
	w.scope("company_id", scope)
	res, err := db.ExecContext(ctx, "UPDATE "+table+" SET "+set.clause()+" WHERE "+w.sql(),
		append(set.args, w.args...)...)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// execDelete hard-deletes the row id of table within scope.
func execDelete(ctx context.Context, db *sql.DB, table string, id uint64, scope *uint64) error {
	w := &where{}
	w.and("id = ?", id)
	w.scope("company_id", scope)
	res, err := db.ExecContext(ctx, "DELETE FROM "+table+" WHERE "+w.sql(), w.args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// execSoftDelete flags the row id of table as deleted within scope.
func execSoftDelete(ctx context.Context, db *sql.DB, table string, id uint64, scope *uint64) error {
	w := &where{}
	w.and("id = ?", id)
	w.and("is_deleted = 0")
	w.scope("company_id", scope)
	res, err := db.ExecContext(ctx, "UPDATE "+table+" SET is_deleted = 1 WHERE "+w.sql(), w.args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// rowQuerier is satisfied by *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// checkRefs verifies every non-nil reference is a live row of companyID.
func checkRefs(ctx context.Context, q rowQuerier, companyID uint64, exterminatorID, customerID, locationID *uint64) error {
	checks := []struct {
		id *uint64
		q  string
	}{
		{exterminatorID, "SELECT COUNT(*) FROM users WHERE id = ? AND company_id = ? AND is_deleted = 0"},
		{customerID, "SELECT COUNT(*) FROM customers WHERE id = ? AND company_id = ? AND is_deleted = 0"},
		{locationID, "SELECT COUNT(*) FROM locations WHERE id = ? AND company_id = ? AND is_deleted = 0"},
	}
	for _, c := range checks {
		if c.id == nil {
			continue
		}
		var n int
		if err := q.QueryRowContext(ctx, c.q, *c.id, companyID).Scan(&n); err != nil {
			return err
		}
		if n == 0 {
			return ErrBadReference
		}
	}
	return nil
}
