package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/locvowork/employee_records/internal/domain"
	"github.com/locvowork/employee_records/internal/repository/builder"
)

// temporalRepository maps one effective-dated relation onto its table. The
// column set follows the relation: dept_no only when keyed by department and
// the payload column only when there is one.
type temporalRepository[P any] struct {
	db       DBTX
	relation domain.Relation
}

func NewTemporalRepository[P any](db DBTX, relation domain.Relation) domain.TemporalRepository[P] {
	return &temporalRepository[P]{db: db, relation: relation}
}

func (r *temporalRepository[P]) Insert(ctx context.Context, row domain.Row[P]) error {
	query, args, err := builder.NewSQLBuilder().
		Insert(r.relation.Table, r.columns()...).
		Values(r.values(row)...).
		BuildSafe()
	if err != nil {
		return fmt.Errorf("%s: %w", r.label(row.Key()), err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return mapError(err, r.label(row.Key()))
}

func (r *temporalRepository[P]) Get(ctx context.Context, key domain.Key) (*domain.Row[P], error) {
	b := builder.NewSQLBuilder().Select(r.columns()...).From(r.relation.Table)
	query, args, err := r.whereKey(b, key).BuildSafe()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.label(key), err)
	}

	row, err := r.scan(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapError(err, r.label(key))
	}
	return &row, nil
}

func (r *temporalRepository[P]) ListAll(ctx context.Context) ([]domain.Row[P], error) {
	query, args, err := r.selectOrdered().BuildSafe()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.relation.Table, err)
	}
	return r.query(ctx, query, args...)
}

func (r *temporalRepository[P]) ListBySubject(ctx context.Context, empNo int) ([]domain.Row[P], error) {
	query, args, err := r.selectOrdered().Where("emp_no = ?", empNo).BuildSafe()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.relation.Table, err)
	}
	return r.query(ctx, query, args...)
}

func (r *temporalRepository[P]) ListBySecondaryKey(ctx context.Context, deptNo string) ([]domain.Row[P], error) {
	if !r.relation.Secondary {
		return nil, fmt.Errorf("%s is not keyed by department: %w", r.relation.Name, domain.ErrValidationFailed)
	}
	query, args, err := r.selectOrdered().Where("dept_no = ?", deptNo).BuildSafe()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.relation.Table, err)
	}
	return r.query(ctx, query, args...)
}

func (r *temporalRepository[P]) SearchValue(ctx context.Context, substring string) ([]domain.Row[P], error) {
	if r.relation.ValueColumn == "" {
		return nil, fmt.Errorf("%s has no searchable value: %w", r.relation.Name, domain.ErrValidationFailed)
	}
	cond := fmt.Sprintf("LOWER(CAST(%s AS TEXT)) LIKE ?", r.relation.ValueColumn)
	query, args, err := r.selectOrdered().Where(cond, containsPattern(substring)).BuildSafe()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.relation.Table, err)
	}
	return r.query(ctx, query, args...)
}

func (r *temporalRepository[P]) Replace(ctx context.Context, key domain.Key, row domain.Row[P]) error {
	b := builder.NewSQLBuilder().
		Update(r.relation.Table).
		Set("from_date", dateArg(row.FromDate)).
		Set("to_date", nullableDateArg(row.ToDate))
	if r.relation.ValueColumn != "" {
		b.Set(r.relation.ValueColumn, row.Value)
	}
	query, args, err := r.whereKey(b, key).BuildSafe()
	if err != nil {
		return fmt.Errorf("%s: %w", r.label(key), err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err, r.label(key))
	}
	return requireAffected(res, r.label(key))
}

func (r *temporalRepository[P]) Delete(ctx context.Context, key domain.Key) error {
	b := builder.NewSQLBuilder().Delete(r.relation.Table)
	query, args, err := r.whereKey(b, key).BuildSafe()
	if err != nil {
		return fmt.Errorf("%s: %w", r.label(key), err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err, r.label(key))
	}
	return requireAffected(res, r.label(key))
}

func (r *temporalRepository[P]) DeleteBySubject(ctx context.Context, empNo int) error {
	query, args, err := builder.NewSQLBuilder().
		Delete(r.relation.Table).
		Where("emp_no = ?", empNo).
		BuildSafe()
	if err != nil {
		return fmt.Errorf("%s: %w", r.relation.Table, err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return mapError(err, r.relation.Table)
}

func (r *temporalRepository[P]) DeleteBySecondaryKey(ctx context.Context, deptNo string) error {
	if !r.relation.Secondary {
		return fmt.Errorf("%s is not keyed by department: %w", r.relation.Name, domain.ErrValidationFailed)
	}
	query, args, err := builder.NewSQLBuilder().
		Delete(r.relation.Table).
		Where("dept_no = ?", deptNo).
		BuildSafe()
	if err != nil {
		return fmt.Errorf("%s: %w", r.relation.Table, err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return mapError(err, r.relation.Table)
}

func (r *temporalRepository[P]) columns() []string {
	cols := []string{"emp_no"}
	if r.relation.Secondary {
		cols = append(cols, "dept_no")
	}
	cols = append(cols, "from_date", "to_date")
	if r.relation.ValueColumn != "" {
		cols = append(cols, r.relation.ValueColumn)
	}
	return cols
}

func (r *temporalRepository[P]) values(row domain.Row[P]) []interface{} {
	vals := []interface{}{row.EmpNo}
	if r.relation.Secondary {
		vals = append(vals, row.DeptNo)
	}
	vals = append(vals, dateArg(row.FromDate), nullableDateArg(row.ToDate))
	if r.relation.ValueColumn != "" {
		vals = append(vals, row.Value)
	}
	return vals
}

func (r *temporalRepository[P]) selectOrdered() *builder.SQLBuilder {
	b := builder.NewSQLBuilder().
		Select(r.columns()...).
		From(r.relation.Table).
		OrderBy("from_date DESC").
		OrderBy("emp_no ASC")
	if r.relation.Secondary {
		b.OrderBy("dept_no ASC")
	}
	return b
}

func (r *temporalRepository[P]) whereKey(b *builder.SQLBuilder, key domain.Key) *builder.SQLBuilder {
	b.Where("emp_no = ?", key.EmpNo)
	if r.relation.Secondary {
		b.Where("dept_no = ?", key.DeptNo)
	}
	return b.Where("from_date = ?", dateArg(key.FromDate))
}

func (r *temporalRepository[P]) scan(s scanner) (domain.Row[P], error) {
	var row domain.Row[P]
	var from time.Time
	var to sql.NullTime

	dest := []interface{}{&row.EmpNo}
	if r.relation.Secondary {
		dest = append(dest, &row.DeptNo)
	}
	dest = append(dest, &from, &to)
	if r.relation.ValueColumn != "" {
		dest = append(dest, &row.Value)
	}
	if err := s.Scan(dest...); err != nil {
		return row, err
	}
	row.FromDate = civil.DateOf(from)
	row.ToDate = nullableDate(to)
	return row, nil
}

func (r *temporalRepository[P]) query(ctx context.Context, query string, args ...interface{}) ([]domain.Row[P], error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, r.relation.Table)
	}
	defer rows.Close()

	out := []domain.Row[P]{}
	for rows.Next() {
		row, err := r.scan(rows)
		if err != nil {
			return nil, mapError(err, r.relation.Table)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *temporalRepository[P]) label(key domain.Key) string {
	if r.relation.Secondary {
		return fmt.Sprintf("%s (%d, %s, %s)", r.relation.Name, key.EmpNo, key.DeptNo, key.FromDate)
	}
	return fmt.Sprintf("%s (%d, %s)", r.relation.Name, key.EmpNo, key.FromDate)
}
