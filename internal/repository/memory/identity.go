package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/locvowork/employee_records/internal/domain"
)

type employeeRepository struct {
	rows map[int]domain.Employee
}

func (r *employeeRepository) Create(_ context.Context, e *domain.Employee) error {
	if _, ok := r.rows[e.EmpNo]; ok {
		return fmt.Errorf("employee %d: %w", e.EmpNo, domain.ErrAlreadyExists)
	}
	r.rows[e.EmpNo] = *e
	return nil
}

func (r *employeeRepository) GetByID(_ context.Context, empNo int) (*domain.Employee, error) {
	e, ok := r.rows[empNo]
	if !ok {
		return nil, fmt.Errorf("employee %d: %w", empNo, domain.ErrNotFound)
	}
	return &e, nil
}

func (r *employeeRepository) Exists(_ context.Context, empNo int) (bool, error) {
	_, ok := r.rows[empNo]
	return ok, nil
}

func (r *employeeRepository) List(_ context.Context, filter domain.EmployeeFilter) ([]domain.Employee, error) {
	out := r.sorted(func(domain.Employee) bool { return true })
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []domain.Employee{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *employeeRepository) Update(_ context.Context, e *domain.Employee) error {
	if _, ok := r.rows[e.EmpNo]; !ok {
		return fmt.Errorf("employee %d: %w", e.EmpNo, domain.ErrNotFound)
	}
	r.rows[e.EmpNo] = *e
	return nil
}

func (r *employeeRepository) Delete(_ context.Context, empNo int) error {
	if _, ok := r.rows[empNo]; !ok {
		return fmt.Errorf("employee %d: %w", empNo, domain.ErrNotFound)
	}
	delete(r.rows, empNo)
	return nil
}

func (r *employeeRepository) SearchByName(_ context.Context, name string) ([]domain.Employee, error) {
	needle := strings.ToLower(name)
	return r.sorted(func(e domain.Employee) bool {
		return strings.Contains(strings.ToLower(e.FirstName), needle) ||
			strings.Contains(strings.ToLower(e.LastName), needle)
	}), nil
}

func (r *employeeRepository) sorted(keep func(domain.Employee) bool) []domain.Employee {
	out := make([]domain.Employee, 0, len(r.rows))
	for _, e := range r.rows {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmpNo < out[j].EmpNo })
	return out
}

type departmentRepository struct {
	rows map[string]domain.Department
}

func (r *departmentRepository) Create(_ context.Context, d *domain.Department) error {
	if _, ok := r.rows[d.DeptNo]; ok {
		return fmt.Errorf("department %s: %w", d.DeptNo, domain.ErrAlreadyExists)
	}
	if r.nameTaken(d.DeptName, "") {
		return fmt.Errorf("department name %q: %w", d.DeptName, domain.ErrAlreadyExists)
	}
	r.rows[d.DeptNo] = *d
	return nil
}

func (r *departmentRepository) GetByID(_ context.Context, deptNo string) (*domain.Department, error) {
	d, ok := r.rows[deptNo]
	if !ok {
		return nil, fmt.Errorf("department %s: %w", deptNo, domain.ErrNotFound)
	}
	return &d, nil
}

func (r *departmentRepository) GetByName(_ context.Context, name string) (*domain.Department, error) {
	for _, d := range r.rows {
		if d.DeptName == name {
			return &d, nil
		}
	}
	return nil, fmt.Errorf("department name %q: %w", name, domain.ErrNotFound)
}

func (r *departmentRepository) Exists(_ context.Context, deptNo string) (bool, error) {
	_, ok := r.rows[deptNo]
	return ok, nil
}

func (r *departmentRepository) List(_ context.Context) ([]domain.Department, error) {
	return r.sorted(func(domain.Department) bool { return true }), nil
}

func (r *departmentRepository) Update(_ context.Context, d *domain.Department) error {
	if _, ok := r.rows[d.DeptNo]; !ok {
		return fmt.Errorf("department %s: %w", d.DeptNo, domain.ErrNotFound)
	}
	if r.nameTaken(d.DeptName, d.DeptNo) {
		return fmt.Errorf("department name %q: %w", d.DeptName, domain.ErrAlreadyExists)
	}
	r.rows[d.DeptNo] = *d
	return nil
}

func (r *departmentRepository) Delete(_ context.Context, deptNo string) error {
	if _, ok := r.rows[deptNo]; !ok {
		return fmt.Errorf("department %s: %w", deptNo, domain.ErrNotFound)
	}
	delete(r.rows, deptNo)
	return nil
}

func (r *departmentRepository) SearchByName(_ context.Context, name string) ([]domain.Department, error) {
	needle := strings.ToLower(name)
	return r.sorted(func(d domain.Department) bool {
		return strings.Contains(strings.ToLower(d.DeptName), needle)
	}), nil
}

func (r *departmentRepository) nameTaken(name, except string) bool {
	for no, d := range r.rows {
		if no != except && d.DeptName == name {
			return true
		}
	}
	return false
}

func (r *departmentRepository) sorted(keep func(domain.Department) bool) []domain.Department {
	out := make([]domain.Department, 0, len(r.rows))
	for _, d := range r.rows {
		if keep(d) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeptNo < out[j].DeptNo })
	return out
}
