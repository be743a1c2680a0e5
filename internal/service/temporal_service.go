package service

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/locvowork/employee_records/internal/domain"
	"github.com/locvowork/employee_records/internal/logger"
	"github.com/locvowork/employee_records/internal/temporal"
)

type Option func(*settings)

type settings struct {
	today Clock
	index EmployeeIndex
}

// WithClock replaces the wall clock used for current-state reads.
func WithClock(c Clock) Option {
	return func(s *settings) {
		if c != nil {
			s.today = c
		}
	}
}

func buildSettings(opts []Option) settings {
	s := settings{today: Today}
	for _, o := range opts {
		o(&s)
	}
	return s
}

// TemporalService guards one effective-dated relation. Every mutation runs as
// a sequence of named checks followed by a single write inside one unit of
// work.
type TemporalService[P any] struct {
	store    domain.Store
	relation domain.Relation
	repo     func(domain.Repositories) domain.TemporalRepository[P]
	validate func(P) error
	today    Clock
}

func newTemporalService[P any](store domain.Store, relation domain.Relation, repo func(domain.Repositories) domain.TemporalRepository[P], validate func(P) error, opts []Option) *TemporalService[P] {
	s := buildSettings(opts)
	if validate == nil {
		validate = func(P) error { return nil }
	}
	return &TemporalService[P]{store: store, relation: relation, repo: repo, validate: validate, today: s.today}
}

func NewAssignmentService(store domain.Store, opts ...Option) *TemporalService[struct{}] {
	return newTemporalService(store, domain.AssignmentRelation, domain.Repositories.Assignments, nil, opts)
}

func NewManagementService(store domain.Store, opts ...Option) *TemporalService[struct{}] {
	return newTemporalService(store, domain.ManagementRelation, domain.Repositories.Managements, nil, opts)
}

func NewSalaryService(store domain.Store, opts ...Option) *TemporalService[int] {
	return newTemporalService(store, domain.SalaryRelation, domain.Repositories.Salaries, func(amount int) error {
		if amount <= 0 {
			return invalid("salary must be positive, got %d", amount)
		}
		return nil
	}, opts)
}

const maxTitleLength = 50

func NewTitleService(store domain.Store, opts ...Option) *TemporalService[string] {
	return newTemporalService(store, domain.TitleRelation, domain.Repositories.Titles, func(title string) error {
		if strings.TrimSpace(title) == "" {
			return invalid("title is required")
		}
		if len(title) > maxTitleLength {
			return invalid("title longer than %d characters", maxTitleLength)
		}
		return nil
	}, opts)
}

func (s *TemporalService[P]) Relation() domain.Relation { return s.relation }

func (s *TemporalService[P]) List(ctx context.Context) ([]domain.Row[P], error) {
	return s.read(ctx, func(ctx context.Context, repo domain.TemporalRepository[P]) ([]domain.Row[P], error) {
		return repo.ListAll(ctx)
	})
}

func (s *TemporalService[P]) ListForEmployee(ctx context.Context, empNo int) ([]domain.Row[P], error) {
	return s.read(ctx, func(ctx context.Context, repo domain.TemporalRepository[P]) ([]domain.Row[P], error) {
		return repo.ListBySubject(ctx, empNo)
	})
}

func (s *TemporalService[P]) ListForDepartment(ctx context.Context, deptNo string) ([]domain.Row[P], error) {
	return s.read(ctx, func(ctx context.Context, repo domain.TemporalRepository[P]) ([]domain.Row[P], error) {
		return repo.ListBySecondaryKey(ctx, deptNo)
	})
}

func (s *TemporalService[P]) Search(ctx context.Context, substring string) ([]domain.Row[P], error) {
	return s.read(ctx, func(ctx context.Context, repo domain.TemporalRepository[P]) ([]domain.Row[P], error) {
		return repo.SearchValue(ctx, substring)
	})
}

// CurrentForEmployee returns every row of the employee in force today.
func (s *TemporalService[P]) CurrentForEmployee(ctx context.Context, empNo int) ([]domain.Row[P], error) {
	rows, err := s.ListForEmployee(ctx, empNo)
	if err != nil {
		return nil, err
	}
	return temporal.Current(rows, s.today()), nil
}

// CurrentForDepartment returns every row of the department in force today.
func (s *TemporalService[P]) CurrentForDepartment(ctx context.Context, deptNo string) ([]domain.Row[P], error) {
	rows, err := s.ListForDepartment(ctx, deptNo)
	if err != nil {
		return nil, err
	}
	return temporal.Current(rows, s.today()), nil
}

// LatestForEmployee returns the current row with the most recent FromDate.
func (s *TemporalService[P]) LatestForEmployee(ctx context.Context, empNo int) (*domain.Row[P], error) {
	rows, err := s.ListForEmployee(ctx, empNo)
	if err != nil {
		return nil, err
	}
	row, err := temporal.Latest(rows, s.today())
	if err != nil {
		return nil, fmt.Errorf("%s of employee %d: %w", s.relation.Name, empNo, err)
	}
	return &row, nil
}

// SoleCurrentForDepartment returns the one row of the department in force
// today and fails when there are none or several.
func (s *TemporalService[P]) SoleCurrentForDepartment(ctx context.Context, deptNo string) (*domain.Row[P], error) {
	rows, err := s.ListForDepartment(ctx, deptNo)
	if err != nil {
		return nil, err
	}
	row, err := temporal.Single(rows, s.today())
	if err != nil {
		return nil, fmt.Errorf("%s of department %s: %w", s.relation.Name, deptNo, err)
	}
	return &row, nil
}

// AnyCurrentForEmployee reports whether the employee holds any row today.
func (s *TemporalService[P]) AnyCurrentForEmployee(ctx context.Context, empNo int) (bool, error) {
	rows, err := s.ListForEmployee(ctx, empNo)
	if err != nil {
		return false, err
	}
	return temporal.Any(rows, s.today()), nil
}

// Get looks a row up by key. For relations unique per (employee, department)
// a zero FromDate resolves the row from the pair alone.
func (s *TemporalService[P]) Get(ctx context.Context, key domain.Key) (*domain.Row[P], error) {
	var out *domain.Row[P]
	err := s.store.View(ctx, func(ctx context.Context, r domain.Repositories) error {
		row, err := s.locate(ctx, s.repo(r), key)
		if err != nil {
			return err
		}
		out = &row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *TemporalService[P]) Create(ctx context.Context, row domain.Row[P]) (err error) {
	defer func() { observe(s.relation.Name, "create", err) }()

	if !s.relation.Secondary {
		row.DeptNo = ""
	}
	if err := s.validateRow(row); err != nil {
		return err
	}

	err = s.store.RunInTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		repo := s.repo(tx)
		steps := []step{checkEmployeeExists(tx, row.EmpNo)}
		if s.relation.Secondary {
			steps = append(steps, checkDepartmentExists(tx, row.DeptNo))
		}
		steps = append(steps, checkCompositeKeyFree(repo, row.Key()))
		if s.relation.PairUnique {
			steps = append(steps, checkPairFree(repo, row.EmpNo, row.DeptNo))
		}
		steps = append(steps, step{name: "Insert", run: func(ctx context.Context) error {
			return repo.Insert(ctx, row)
		}})
		return runSteps(ctx, steps...)
	})
	if err != nil {
		return err
	}
	logger.DebugLog(ctx, "%s %s created", s.relation.Name, formatKey(row.Key()))
	return nil
}

// Update applies changes to the row at key. For pair-unique relations the
// FromDate may move and the ToDate is replaced; for the others the payload
// and ToDate are replaced and the key must stay the same.
func (s *TemporalService[P]) Update(ctx context.Context, key domain.Key, changes domain.Row[P]) (updated *domain.Row[P], err error) {
	defer func() { observe(s.relation.Name, "update", err) }()

	if !s.relation.PairUnique {
		if err := s.validate(changes.Value); err != nil {
			return nil, err
		}
	}

	var next domain.Row[P]
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		repo := s.repo(tx)
		var current domain.Row[P]
		return runSteps(ctx,
			step{name: "CheckCompositeKeyExists", run: func(ctx context.Context) error {
				row, err := s.locate(ctx, repo, key)
				current = row
				return err
			}},
			step{name: "ApplyChanges", run: func(ctx context.Context) error {
				merged, err := s.merge(current, changes)
				if err != nil {
					return err
				}
				next = merged
				return repo.Replace(ctx, current.Key(), merged)
			}},
		)
	})
	if err != nil {
		return nil, err
	}
	return &next, nil
}

func (s *TemporalService[P]) Delete(ctx context.Context, key domain.Key) (err error) {
	defer func() { observe(s.relation.Name, "delete", err) }()

	return s.store.RunInTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		repo := s.repo(tx)
		var current domain.Row[P]
		return runSteps(ctx,
			step{name: "CheckCompositeKeyExists", run: func(ctx context.Context) error {
				row, err := s.locate(ctx, repo, key)
				current = row
				return err
			}},
			step{name: "Remove", run: func(ctx context.Context) error {
				return repo.Delete(ctx, current.Key())
			}},
		)
	})
}

func (s *TemporalService[P]) read(ctx context.Context, fn func(ctx context.Context, repo domain.TemporalRepository[P]) ([]domain.Row[P], error)) ([]domain.Row[P], error) {
	var out []domain.Row[P]
	err := s.store.View(ctx, func(ctx context.Context, r domain.Repositories) error {
		rows, err := fn(ctx, s.repo(r))
		out = rows
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Row[P]{}
	}
	return out, nil
}

func (s *TemporalService[P]) locate(ctx context.Context, repo domain.TemporalRepository[P], key domain.Key) (domain.Row[P], error) {
	if !s.relation.Secondary {
		key.DeptNo = ""
	}
	if s.relation.PairUnique && key.FromDate.IsZero() {
		rows, err := repo.ListBySubject(ctx, key.EmpNo)
		if err != nil {
			return domain.Row[P]{}, err
		}
		for _, r := range rows {
			if r.DeptNo == key.DeptNo {
				return r, nil
			}
		}
		return domain.Row[P]{}, fmt.Errorf("%s of employee %d in department %s: %w", s.relation.Name, key.EmpNo, key.DeptNo, domain.ErrNotFound)
	}
	row, err := repo.Get(ctx, key)
	if err != nil {
		return domain.Row[P]{}, err
	}
	return *row, nil
}

func (s *TemporalService[P]) merge(current, changes domain.Row[P]) (domain.Row[P], error) {
	if changes.EmpNo != 0 && changes.EmpNo != current.EmpNo {
		return current, invalid("employee of a %s row cannot change", s.relation.Name)
	}
	if s.relation.Secondary && changes.DeptNo != "" && changes.DeptNo != current.DeptNo {
		return current, invalid("department of a %s row cannot change", s.relation.Name)
	}

	next := current
	next.ToDate = changes.ToDate
	if s.relation.PairUnique {
		if !changes.FromDate.IsZero() {
			next.FromDate = changes.FromDate
		}
	} else {
		if !changes.FromDate.IsZero() && changes.FromDate != current.FromDate {
			return current, invalid("from date of a %s row cannot change", s.relation.Name)
		}
		next.Value = changes.Value
	}
	if err := checkRange(next.FromDate, next.ToDate); err != nil {
		return current, err
	}
	return next, nil
}

func (s *TemporalService[P]) validateRow(row domain.Row[P]) error {
	if row.EmpNo <= 0 {
		return invalid("employee number must be positive")
	}
	if s.relation.Secondary && strings.TrimSpace(row.DeptNo) == "" {
		return invalid("department number is required")
	}
	if row.FromDate.IsZero() || !row.FromDate.IsValid() {
		return invalid("from date is required")
	}
	if err := checkRange(row.FromDate, row.ToDate); err != nil {
		return err
	}
	return s.validate(row.Value)
}

func checkRange(from civil.Date, to *civil.Date) error {
	if to != nil && to.Before(from) {
		return invalid("to date %s is before from date %s", *to, from)
	}
	return nil
}
