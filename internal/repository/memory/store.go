// Package memory keeps the whole HR dataset in process memory. A unit of work
// runs on a cloned state under the store mutex and replaces the live state
// only when it succeeds.
package memory

import (
	"context"
	"sync"

	"github.com/locvowork/employee_records/internal/domain"
)

type state struct {
	employees   map[int]domain.Employee
	departments map[string]domain.Department
	assignments map[domain.Key]domain.Assignment
	managements map[domain.Key]domain.Management
	salaries    map[domain.Key]domain.Salary
	titles      map[domain.Key]domain.Title
}

func newState() state {
	return state{
		employees:   map[int]domain.Employee{},
		departments: map[string]domain.Department{},
		assignments: map[domain.Key]domain.Assignment{},
		managements: map[domain.Key]domain.Management{},
		salaries:    map[domain.Key]domain.Salary{},
		titles:      map[domain.Key]domain.Title{},
	}
}

func (s state) clone() state {
	cp := state{
		employees:   make(map[int]domain.Employee, len(s.employees)),
		departments: make(map[string]domain.Department, len(s.departments)),
		assignments: cloneRows(s.assignments),
		managements: cloneRows(s.managements),
		salaries:    cloneRows(s.salaries),
		titles:      cloneRows(s.titles),
	}
	for k, v := range s.employees {
		cp.employees[k] = v
	}
	for k, v := range s.departments {
		cp.departments[k] = v
	}
	return cp
}

func cloneRows[P any](rows map[domain.Key]domain.Row[P]) map[domain.Key]domain.Row[P] {
	cp := make(map[domain.Key]domain.Row[P], len(rows))
	for k, v := range rows {
		cp[k] = v.Clone()
	}
	return cp
}

type Store struct {
	mu    sync.RWMutex
	state state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx domain.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	working := s.state.clone()
	if err := fn(ctx, &repositories{state: &working}); err != nil {
		return err
	}
	s.state = working
	return nil
}

func (s *Store) View(ctx context.Context, fn func(ctx context.Context, r domain.Repositories) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := s.state.clone()
	return fn(ctx, &repositories{state: &snapshot})
}

type repositories struct {
	state *state
}

func (r *repositories) Employees() domain.EmployeeRepository {
	return &employeeRepository{rows: r.state.employees}
}

func (r *repositories) Departments() domain.DepartmentRepository {
	return &departmentRepository{rows: r.state.departments}
}

func (r *repositories) Assignments() domain.TemporalRepository[struct{}] {
	return &temporalRepository[struct{}]{relation: domain.AssignmentRelation, rows: r.state.assignments}
}

func (r *repositories) Managements() domain.TemporalRepository[struct{}] {
	return &temporalRepository[struct{}]{relation: domain.ManagementRelation, rows: r.state.managements}
}

func (r *repositories) Salaries() domain.TemporalRepository[int] {
	return &temporalRepository[int]{relation: domain.SalaryRelation, rows: r.state.salaries}
}

func (r *repositories) Titles() domain.TemporalRepository[string] {
	return &temporalRepository[string]{relation: domain.TitleRelation, rows: r.state.titles}
}
