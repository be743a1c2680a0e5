package service

import (
	"context"
	"strings"

	"github.com/locvowork/employee_records/internal/domain"
)

const (
	deptNoLength      = 4
	maxDeptNameLength = 40
)

type DepartmentService struct {
	store domain.Store
}

func NewDepartmentService(store domain.Store) *DepartmentService {
	return &DepartmentService{store: store}
}

func (s *DepartmentService) Create(ctx context.Context, d *domain.Department) (err error) {
	defer func() { observe("department", "create", err) }()

	if err := validateDepartment(d); err != nil {
		return err
	}
	return s.store.RunInTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		return runSteps(ctx,
			checkDepartmentFree(tx, d.DeptNo),
			checkDepartmentNameFree(tx, d.DeptName, ""),
			step{name: "Insert", run: func(ctx context.Context) error {
				return tx.Departments().Create(ctx, d)
			}},
		)
	})
}

func (s *DepartmentService) Get(ctx context.Context, deptNo string) (*domain.Department, error) {
	var out *domain.Department
	err := s.store.View(ctx, func(ctx context.Context, r domain.Repositories) error {
		d, err := r.Departments().GetByID(ctx, deptNo)
		out = d
		return err
	})
	return out, err
}

func (s *DepartmentService) Exists(ctx context.Context, deptNo string) (bool, error) {
	var ok bool
	err := s.store.View(ctx, func(ctx context.Context, r domain.Repositories) error {
		var err error
		ok, err = r.Departments().Exists(ctx, deptNo)
		return err
	})
	return ok, err
}

func (s *DepartmentService) List(ctx context.Context) ([]domain.Department, error) {
	var out []domain.Department
	err := s.store.View(ctx, func(ctx context.Context, r domain.Repositories) error {
		var err error
		out, err = r.Departments().List(ctx)
		return err
	})
	if out == nil && err == nil {
		out = []domain.Department{}
	}
	return out, err
}

func (s *DepartmentService) Search(ctx context.Context, name string) ([]domain.Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("search name is required")
	}
	var out []domain.Department
	err := s.store.View(ctx, func(ctx context.Context, r domain.Repositories) error {
		var err error
		out, err = r.Departments().SearchByName(ctx, name)
		return err
	})
	if out == nil && err == nil {
		out = []domain.Department{}
	}
	return out, err
}

// Update renames the department. The new name must not belong to another
// department.
func (s *DepartmentService) Update(ctx context.Context, d *domain.Department) (err error) {
	defer func() { observe("department", "update", err) }()

	if err := validateDepartment(d); err != nil {
		return err
	}
	return s.store.RunInTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		return runSteps(ctx,
			checkDepartmentExists(tx, d.DeptNo),
			checkDepartmentNameFree(tx, d.DeptName, d.DeptNo),
			step{name: "Replace", run: func(ctx context.Context) error {
				return tx.Departments().Update(ctx, d)
			}},
		)
	})
}

// Delete removes the department with its assignment and management rows.
func (s *DepartmentService) Delete(ctx context.Context, deptNo string) (err error) {
	defer func() { observe("department", "delete", err) }()

	return s.store.RunInTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		return runSteps(ctx,
			checkDepartmentExists(tx, deptNo),
			step{name: "CascadeAssignments", run: func(ctx context.Context) error {
				return tx.Assignments().DeleteBySecondaryKey(ctx, deptNo)
			}},
			step{name: "CascadeManagements", run: func(ctx context.Context) error {
				return tx.Managements().DeleteBySecondaryKey(ctx, deptNo)
			}},
			step{name: "Remove", run: func(ctx context.Context) error {
				return tx.Departments().Delete(ctx, deptNo)
			}},
		)
	})
}

func validateDepartment(d *domain.Department) error {
	if d == nil {
		return invalid("department is required")
	}
	if len(d.DeptNo) != deptNoLength {
		return invalid("department number must be %d characters, got %q", deptNoLength, d.DeptNo)
	}
	if strings.TrimSpace(d.DeptName) == "" || len(d.DeptName) > maxDeptNameLength {
		return invalid("department name is required and at most %d characters", maxDeptNameLength)
	}
	return nil
}
