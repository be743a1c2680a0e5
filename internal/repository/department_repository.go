package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/locvowork/employee_records/internal/domain"
	"github.com/locvowork/employee_records/internal/repository/builder"
)

type departmentRepository struct {
	db DBTX
}

func NewDepartmentRepository(db DBTX) domain.DepartmentRepository {
	return &departmentRepository{db: db}
}

func (r *departmentRepository) Create(ctx context.Context, d *domain.Department) error {
	query, args := builder.NewSQLBuilder().
		Insert("departments", "dept_no", "dept_name").
		Values(d.DeptNo, d.DeptName).
		Build()

	_, err := r.db.ExecContext(ctx, query, args...)
	return mapError(err, departmentLabel(d.DeptNo))
}

func (r *departmentRepository) GetByID(ctx context.Context, deptNo string) (*domain.Department, error) {
	return r.getOne(ctx, departmentLabel(deptNo), "dept_no = ?", deptNo)
}

func (r *departmentRepository) GetByName(ctx context.Context, name string) (*domain.Department, error) {
	return r.getOne(ctx, fmt.Sprintf("department name %q", name), "dept_name = ?", name)
}

func (r *departmentRepository) Exists(ctx context.Context, deptNo string) (bool, error) {
	query, args := builder.NewSQLBuilder().
		Select("1").
		From("departments").
		Where("dept_no = ?", deptNo).
		Build()

	var one int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, mapError(err, departmentLabel(deptNo))
	}
	return true, nil
}

func (r *departmentRepository) List(ctx context.Context) ([]domain.Department, error) {
	query, args := builder.NewSQLBuilder().
		Select("dept_no", "dept_name").
		From("departments").
		OrderBy("dept_no ASC").
		Build()
	return r.query(ctx, query, args...)
}

func (r *departmentRepository) Update(ctx context.Context, d *domain.Department) error {
	query, args := builder.NewSQLBuilder().
		Update("departments").
		Set("dept_name", d.DeptName).
		Where("dept_no = ?", d.DeptNo).
		Build()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err, departmentLabel(d.DeptNo))
	}
	return requireAffected(res, departmentLabel(d.DeptNo))
}

func (r *departmentRepository) Delete(ctx context.Context, deptNo string) error {
	query, args := builder.NewSQLBuilder().
		Delete("departments").
		Where("dept_no = ?", deptNo).
		Build()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err, departmentLabel(deptNo))
	}
	return requireAffected(res, departmentLabel(deptNo))
}

func (r *departmentRepository) SearchByName(ctx context.Context, name string) ([]domain.Department, error) {
	query, args := builder.NewSQLBuilder().
		Select("dept_no", "dept_name").
		From("departments").
		Where("LOWER(dept_name) LIKE ?", containsPattern(name)).
		OrderBy("dept_no ASC").
		Build()
	return r.query(ctx, query, args...)
}

func (r *departmentRepository) getOne(ctx context.Context, label, cond string, arg interface{}) (*domain.Department, error) {
	query, args := builder.NewSQLBuilder().
		Select("dept_no", "dept_name").
		From("departments").
		Where(cond, arg).
		Build()

	var d domain.Department
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&d.DeptNo, &d.DeptName); err != nil {
		return nil, mapError(err, label)
	}
	return &d, nil
}

func (r *departmentRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.Department, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "departments")
	}
	defer rows.Close()

	out := []domain.Department{}
	for rows.Next() {
		var d domain.Department
		if err := rows.Scan(&d.DeptNo, &d.DeptName); err != nil {
			return nil, mapError(err, "departments")
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func departmentLabel(deptNo string) string {
	return fmt.Sprintf("department %s", deptNo)
}
