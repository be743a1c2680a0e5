package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/locvowork/employee_records/internal/domain"
)

// Clock yields the calendar day used to decide which rows are current.
type Clock func() civil.Date

// Today reads the local wall clock.
func Today() civil.Date {
	return civil.DateOf(time.Now())
}

// step is one named precondition or write inside a unit of work.
type step struct {
	name string
	run  func(ctx context.Context) error
}

// runSteps executes steps in order and stops at the first failure. The
// returned error carries the failed step's name and wraps its cause.
func runSteps(ctx context.Context, steps ...step) error {
	for _, s := range steps {
		if err := s.run(ctx); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

func checkEmployeeExists(tx domain.Repositories, empNo int) step {
	return step{name: "CheckEmployeeExists", run: func(ctx context.Context) error {
		ok, err := tx.Employees().Exists(ctx, empNo)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("employee %d: %w", empNo, domain.ErrNotFound)
		}
		return nil
	}}
}

func checkEmployeeFree(tx domain.Repositories, empNo int) step {
	return step{name: "CheckEmployeeFree", run: func(ctx context.Context) error {
		ok, err := tx.Employees().Exists(ctx, empNo)
		if err != nil {
			return err
		}
		if ok {
			return fmt.Errorf("employee %d: %w", empNo, domain.ErrAlreadyExists)
		}
		return nil
	}}
}

func checkDepartmentExists(tx domain.Repositories, deptNo string) step {
	return step{name: "CheckDepartmentExists", run: func(ctx context.Context) error {
		ok, err := tx.Departments().Exists(ctx, deptNo)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("department %s: %w", deptNo, domain.ErrNotFound)
		}
		return nil
	}}
}

func checkDepartmentFree(tx domain.Repositories, deptNo string) step {
	return step{name: "CheckDepartmentFree", run: func(ctx context.Context) error {
		ok, err := tx.Departments().Exists(ctx, deptNo)
		if err != nil {
			return err
		}
		if ok {
			return fmt.Errorf("department %s: %w", deptNo, domain.ErrAlreadyExists)
		}
		return nil
	}}
}

// checkDepartmentNameFree passes when no department other than self uses name.
func checkDepartmentNameFree(tx domain.Repositories, name, self string) step {
	return step{name: "CheckDepartmentNameFree", run: func(ctx context.Context) error {
		d, err := tx.Departments().GetByName(ctx, name)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if d.DeptNo != self {
			return fmt.Errorf("department name %q used by %s: %w", name, d.DeptNo, domain.ErrAlreadyExists)
		}
		return nil
	}}
}

func checkCompositeKeyFree[P any](repo domain.TemporalRepository[P], key domain.Key) step {
	return step{name: "CheckCompositeKeyFree", run: func(ctx context.Context) error {
		_, err := repo.Get(ctx, key)
		if err == nil {
			return fmt.Errorf("row %s: %w", formatKey(key), domain.ErrAlreadyExists)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}}
}

func checkCompositeKeyExists[P any](repo domain.TemporalRepository[P], key domain.Key) step {
	return step{name: "CheckCompositeKeyExists", run: func(ctx context.Context) error {
		_, err := repo.Get(ctx, key)
		return err
	}}
}

func checkPairFree[P any](repo domain.TemporalRepository[P], empNo int, deptNo string) step {
	return step{name: "CheckPairFree", run: func(ctx context.Context) error {
		rows, err := repo.ListBySubject(ctx, empNo)
		if err != nil {
			return err
		}
		for _, r := range rows {
			if r.DeptNo == deptNo {
				return fmt.Errorf("employee %d already assigned to department %s: %w", empNo, deptNo, domain.ErrAlreadyExists)
			}
		}
		return nil
	}}
}

func formatKey(k domain.Key) string {
	if k.DeptNo == "" {
		return fmt.Sprintf("(%d, %s)", k.EmpNo, k.FromDate)
	}
	return fmt.Sprintf("(%d, %s, %s)", k.EmpNo, k.DeptNo, k.FromDate)
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), domain.ErrValidationFailed)
}
