package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/locvowork/employee_records/internal/domain"
	"github.com/locvowork/employee_records/internal/logger"
)

// EmployeeIndex mirrors employees into a search engine.
type EmployeeIndex interface {
	IndexEmployee(ctx context.Context, e domain.Employee) error
	DeleteEmployee(ctx context.Context, empNo int) error
	SearchEmployeesByName(ctx context.Context, name string) ([]domain.Employee, error)
}

// WithSearchIndex makes employee search go through idx. Index writes happen
// after commit and their failures are only logged.
func WithSearchIndex(idx EmployeeIndex) Option {
	return func(s *settings) {
		s.index = idx
	}
}

const (
	maxFirstNameLength = 14
	maxLastNameLength  = 16
)

type EmployeeService struct {
	store domain.Store
	index EmployeeIndex
	today Clock
}

func NewEmployeeService(store domain.Store, opts ...Option) *EmployeeService {
	s := buildSettings(opts)
	return &EmployeeService{store: store, index: s.index, today: s.today}
}

func (s *EmployeeService) Create(ctx context.Context, e *domain.Employee) (err error) {
	defer func() { observe("employee", "create", err) }()

	if err := s.validate(e); err != nil {
		return err
	}
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		return runSteps(ctx,
			checkEmployeeFree(tx, e.EmpNo),
			step{name: "Insert", run: func(ctx context.Context) error {
				return tx.Employees().Create(ctx, e)
			}},
		)
	})
	if err != nil {
		return err
	}
	logger.InfoLog(ctx, "employee %s created", employeeLabel(e))
	s.mirror(ctx, *e)
	return nil
}

func (s *EmployeeService) Get(ctx context.Context, empNo int) (*domain.Employee, error) {
	var out *domain.Employee
	err := s.store.View(ctx, func(ctx context.Context, r domain.Repositories) error {
		e, err := r.Employees().GetByID(ctx, empNo)
		out = e
		return err
	})
	return out, err
}

func (s *EmployeeService) Exists(ctx context.Context, empNo int) (bool, error) {
	var ok bool
	err := s.store.View(ctx, func(ctx context.Context, r domain.Repositories) error {
		var err error
		ok, err = r.Employees().Exists(ctx, empNo)
		return err
	})
	return ok, err
}

func (s *EmployeeService) List(ctx context.Context, filter domain.EmployeeFilter) ([]domain.Employee, error) {
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, invalid("limit and offset must not be negative")
	}
	var out []domain.Employee
	err := s.store.View(ctx, func(ctx context.Context, r domain.Repositories) error {
		var err error
		out, err = r.Employees().List(ctx, filter)
		return err
	})
	if out == nil && err == nil {
		out = []domain.Employee{}
	}
	return out, err
}

// Update replaces every mutable attribute of the employee.
func (s *EmployeeService) Update(ctx context.Context, e *domain.Employee) (err error) {
	defer func() { observe("employee", "update", err) }()

	if err := s.validate(e); err != nil {
		return err
	}
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		return runSteps(ctx,
			checkEmployeeExists(tx, e.EmpNo),
			step{name: "Replace", run: func(ctx context.Context) error {
				return tx.Employees().Update(ctx, e)
			}},
		)
	})
	if err != nil {
		return err
	}
	s.mirror(ctx, *e)
	return nil
}

// Delete removes the employee together with every effective-dated row whose
// subject it is.
func (s *EmployeeService) Delete(ctx context.Context, empNo int) (err error) {
	defer func() { observe("employee", "delete", err) }()

	err = s.store.RunInTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		return runSteps(ctx,
			checkEmployeeExists(tx, empNo),
			step{name: "CascadeAssignments", run: func(ctx context.Context) error {
				return tx.Assignments().DeleteBySubject(ctx, empNo)
			}},
			step{name: "CascadeManagements", run: func(ctx context.Context) error {
				return tx.Managements().DeleteBySubject(ctx, empNo)
			}},
			step{name: "CascadeSalaries", run: func(ctx context.Context) error {
				return tx.Salaries().DeleteBySubject(ctx, empNo)
			}},
			step{name: "CascadeTitles", run: func(ctx context.Context) error {
				return tx.Titles().DeleteBySubject(ctx, empNo)
			}},
			step{name: "Remove", run: func(ctx context.Context) error {
				return tx.Employees().Delete(ctx, empNo)
			}},
		)
	})
	if err != nil {
		return err
	}
	if s.index != nil {
		if err := s.index.DeleteEmployee(ctx, empNo); err != nil {
			logger.WarnLog(ctx, "search index delete for employee %d failed: %v", empNo, err)
		}
	}
	return nil
}

// Search matches first or last name case-insensitively. The search index is
// preferred; the store is used when there is none or it fails.
func (s *EmployeeService) Search(ctx context.Context, name string) ([]domain.Employee, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("search name is required")
	}
	if s.index != nil {
		found, err := s.index.SearchEmployeesByName(ctx, name)
		if err == nil {
			if found == nil {
				found = []domain.Employee{}
			}
			return found, nil
		}
		logger.WarnLog(ctx, "search index query failed, falling back to store: %v", err)
	}

	var out []domain.Employee
	err := s.store.View(ctx, func(ctx context.Context, r domain.Repositories) error {
		var err error
		out, err = r.Employees().SearchByName(ctx, name)
		return err
	})
	if out == nil && err == nil {
		out = []domain.Employee{}
	}
	return out, err
}

// History returns the employee and all of its effective-dated rows.
func (s *EmployeeService) History(ctx context.Context, empNo int) (*domain.EmployeeHistory, error) {
	var h domain.EmployeeHistory
	err := s.store.View(ctx, func(ctx context.Context, r domain.Repositories) error {
		e, err := r.Employees().GetByID(ctx, empNo)
		if err != nil {
			return err
		}
		h.Employee = *e
		if h.Assignments, err = r.Assignments().ListBySubject(ctx, empNo); err != nil {
			return err
		}
		if h.Managements, err = r.Managements().ListBySubject(ctx, empNo); err != nil {
			return err
		}
		if h.Salaries, err = r.Salaries().ListBySubject(ctx, empNo); err != nil {
			return err
		}
		h.Titles, err = r.Titles().ListBySubject(ctx, empNo)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *EmployeeService) mirror(ctx context.Context, e domain.Employee) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexEmployee(ctx, e); err != nil {
		logger.WarnLog(ctx, "search index write for employee %d failed: %v", e.EmpNo, err)
	}
}

func (s *EmployeeService) validate(e *domain.Employee) error {
	if e == nil {
		return invalid("employee is required")
	}
	if e.EmpNo <= 0 {
		return invalid("employee number must be positive")
	}
	if strings.TrimSpace(e.FirstName) == "" || len(e.FirstName) > maxFirstNameLength {
		return invalid("first name is required and at most %d characters", maxFirstNameLength)
	}
	if strings.TrimSpace(e.LastName) == "" || len(e.LastName) > maxLastNameLength {
		return invalid("last name is required and at most %d characters", maxLastNameLength)
	}
	if e.Gender != "M" && e.Gender != "F" {
		return invalid("gender must be M or F, got %q", e.Gender)
	}
	if !e.BirthDate.IsValid() || !e.BirthDate.Before(s.today()) {
		return invalid("birth date must be in the past")
	}
	if !e.HireDate.IsValid() {
		return invalid("hire date is required")
	}
	return nil
}

func employeeLabel(e *domain.Employee) string {
	return fmt.Sprintf("%d (%s %s)", e.EmpNo, e.FirstName, e.LastName)
}
