package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/locvowork/employee_records/internal/domain"
	"github.com/locvowork/employee_records/internal/repository/builder"
)

var employeeColumns = []string{"emp_no", "birth_date", "first_name", "last_name", "gender", "hire_date"}

type employeeRepository struct {
	db DBTX
}

// NewEmployeeRepository creates a new instance of EmployeeRepository
func NewEmployeeRepository(db DBTX) domain.EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) Create(ctx context.Context, e *domain.Employee) error {
	b := builder.NewSQLBuilder()
	query, args := b.Insert("employees", employeeColumns...).
		Values(e.EmpNo, dateArg(e.BirthDate), e.FirstName, e.LastName, e.Gender, dateArg(e.HireDate)).
		Build()

	_, err := r.db.ExecContext(ctx, query, args...)
	return mapError(err, employeeLabel(e.EmpNo))
}

func (r *employeeRepository) GetByID(ctx context.Context, empNo int) (*domain.Employee, error) {
	b := builder.NewSQLBuilder()
	query, args := b.Select(employeeColumns...).
		From("employees").
		Where("emp_no = ?", empNo).
		Build()

	e, err := scanEmployee(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapError(err, employeeLabel(empNo))
	}
	return e, nil
}

func (r *employeeRepository) Exists(ctx context.Context, empNo int) (bool, error) {
	b := builder.NewSQLBuilder()
	query, args := b.Select("1").
		From("employees").
		Where("emp_no = ?", empNo).
		Build()

	var one int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, mapError(err, employeeLabel(empNo))
	}
	return true, nil
}

func (r *employeeRepository) Update(ctx context.Context, e *domain.Employee) error {
	b := builder.NewSQLBuilder()
	query, args := b.Update("employees").
		Set("birth_date", dateArg(e.BirthDate)).
		Set("first_name", e.FirstName).
		Set("last_name", e.LastName).
		Set("gender", e.Gender).
		Set("hire_date", dateArg(e.HireDate)).
		Where("emp_no = ?", e.EmpNo).
		Build()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err, employeeLabel(e.EmpNo))
	}
	return requireAffected(res, employeeLabel(e.EmpNo))
}

func (r *employeeRepository) Delete(ctx context.Context, empNo int) error {
	b := builder.NewSQLBuilder()
	query, args := b.Delete("employees").
		Where("emp_no = ?", empNo).
		Build()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err, employeeLabel(empNo))
	}
	return requireAffected(res, employeeLabel(empNo))
}

func (r *employeeRepository) List(ctx context.Context, filter domain.EmployeeFilter) ([]domain.Employee, error) {
	b := builder.NewSQLBuilder()
	b.Select(employeeColumns...).
		From("employees").
		OrderBy("emp_no ASC")

	if filter.Limit > 0 {
		b.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		b.Offset(filter.Offset)
	}

	query, args := b.Build()
	return r.query(ctx, query, args...)
}

func (r *employeeRepository) SearchByName(ctx context.Context, name string) ([]domain.Employee, error) {
	pattern := containsPattern(name)
	b := builder.NewSQLBuilder()
	query, args := b.Select(employeeColumns...).
		From("employees").
		Where("(LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?)", pattern, pattern).
		OrderBy("emp_no ASC").
		Build()

	return r.query(ctx, query, args...)
}

func (r *employeeRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.Employee, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "employees")
	}
	defer rows.Close()

	employees := []domain.Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, mapError(err, "employees")
		}
		employees = append(employees, *e)
	}
	return employees, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEmployee(s scanner) (*domain.Employee, error) {
	var e domain.Employee
	var birth, hire time.Time
	if err := s.Scan(&e.EmpNo, &birth, &e.FirstName, &e.LastName, &e.Gender, &hire); err != nil {
		return nil, err
	}
	e.BirthDate = civil.DateOf(birth)
	e.HireDate = civil.DateOf(hire)
	return &e, nil
}

func employeeLabel(empNo int) string {
	return fmt.Sprintf("employee %d", empNo)
}
