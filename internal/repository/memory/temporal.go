package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/locvowork/employee_records/internal/domain"
)

type temporalRepository[P any] struct {
	relation domain.Relation
	rows     map[domain.Key]domain.Row[P]
}

func (r *temporalRepository[P]) Insert(_ context.Context, row domain.Row[P]) error {
	key := row.Key()
	if _, ok := r.rows[key]; ok {
		return fmt.Errorf("%s %+v: %w", r.relation.Name, key, domain.ErrAlreadyExists)
	}
	r.rows[key] = row.Clone()
	return nil
}

func (r *temporalRepository[P]) Get(_ context.Context, key domain.Key) (*domain.Row[P], error) {
	row, ok := r.rows[key]
	if !ok {
		return nil, fmt.Errorf("%s %+v: %w", r.relation.Name, key, domain.ErrNotFound)
	}
	row = row.Clone()
	return &row, nil
}

func (r *temporalRepository[P]) ListAll(_ context.Context) ([]domain.Row[P], error) {
	return r.collect(func(domain.Row[P]) bool { return true }), nil
}

func (r *temporalRepository[P]) ListBySubject(_ context.Context, empNo int) ([]domain.Row[P], error) {
	return r.collect(func(row domain.Row[P]) bool { return row.EmpNo == empNo }), nil
}

func (r *temporalRepository[P]) ListBySecondaryKey(_ context.Context, deptNo string) ([]domain.Row[P], error) {
	if !r.relation.Secondary {
		return nil, fmt.Errorf("%s is not keyed by department: %w", r.relation.Name, domain.ErrValidationFailed)
	}
	return r.collect(func(row domain.Row[P]) bool { return row.DeptNo == deptNo }), nil
}

func (r *temporalRepository[P]) SearchValue(_ context.Context, substring string) ([]domain.Row[P], error) {
	if r.relation.ValueColumn == "" {
		return nil, fmt.Errorf("%s has no searchable value: %w", r.relation.Name, domain.ErrValidationFailed)
	}
	needle := strings.ToLower(substring)
	return r.collect(func(row domain.Row[P]) bool {
		return strings.Contains(strings.ToLower(fmt.Sprint(row.Value)), needle)
	}), nil
}

func (r *temporalRepository[P]) Replace(_ context.Context, key domain.Key, row domain.Row[P]) error {
	if _, ok := r.rows[key]; !ok {
		return fmt.Errorf("%s %+v: %w", r.relation.Name, key, domain.ErrNotFound)
	}
	next := row.Key()
	if next != key {
		if _, ok := r.rows[next]; ok {
			return fmt.Errorf("%s %+v: %w", r.relation.Name, next, domain.ErrAlreadyExists)
		}
		delete(r.rows, key)
	}
	r.rows[next] = row.Clone()
	return nil
}

func (r *temporalRepository[P]) Delete(_ context.Context, key domain.Key) error {
	if _, ok := r.rows[key]; !ok {
		return fmt.Errorf("%s %+v: %w", r.relation.Name, key, domain.ErrNotFound)
	}
	delete(r.rows, key)
	return nil
}

func (r *temporalRepository[P]) DeleteBySubject(_ context.Context, empNo int) error {
	for k := range r.rows {
		if k.EmpNo == empNo {
			delete(r.rows, k)
		}
	}
	return nil
}

func (r *temporalRepository[P]) DeleteBySecondaryKey(_ context.Context, deptNo string) error {
	if !r.relation.Secondary {
		return fmt.Errorf("%s is not keyed by department: %w", r.relation.Name, domain.ErrValidationFailed)
	}
	for k := range r.rows {
		if k.DeptNo == deptNo {
			delete(r.rows, k)
		}
	}
	return nil
}

// collect returns matching rows newest first, then by employee and department.
func (r *temporalRepository[P]) collect(keep func(domain.Row[P]) bool) []domain.Row[P] {
	out := make([]domain.Row[P], 0)
	for _, row := range r.rows {
		if keep(row) {
			out = append(out, row.Clone())
		}
	}
	domain.SortRows(out)
	return out
}
