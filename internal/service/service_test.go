package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/locvowork/employee_records/internal/domain"
	"github.com/locvowork/employee_records/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedToday = civil.Date{Year: 2024, Month: 6, Day: 15}

func fixedClock() civil.Date { return fixedToday }

func d(s string) civil.Date {
	date, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return date
}

func dp(s string) *civil.Date {
	date := d(s)
	return &date
}

type fixture struct {
	store       *memory.Store
	employees   *EmployeeService
	departments *DepartmentService
	assignments *TemporalService[struct{}]
	managements *TemporalService[struct{}]
	salaries    *TemporalService[int]
	titles      *TemporalService[string]
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	store := memory.NewStore()
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	f := &fixture{
		store:       store,
		employees:   NewEmployeeService(store, opts...),
		departments: NewDepartmentService(store),
		assignments: NewAssignmentService(store, opts...),
		managements: NewManagementService(store, opts...),
		salaries:    NewSalaryService(store, opts...),
		titles:      NewTitleService(store, opts...),
	}
	return f
}

func (f *fixture) seedEmployee(t *testing.T, empNo int) {
	t.Helper()
	require.NoError(t, f.employees.Create(context.Background(), &domain.Employee{
		EmpNo: empNo, FirstName: "Georgi", LastName: "Facello", Gender: "M",
		BirthDate: d("1953-09-02"), HireDate: d("1986-06-26"),
	}))
}

func (f *fixture) seedDepartment(t *testing.T, deptNo, name string) {
	t.Helper()
	require.NoError(t, f.departments.Create(context.Background(), &domain.Department{DeptNo: deptNo, DeptName: name}))
}

func TestAssignmentCreateChecks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedEmployee(t, 10001)
	f.seedDepartment(t, "d001", "Marketing")

	t.Run("missing employee", func(t *testing.T) {
		err := f.assignments.Create(ctx, domain.Assignment{EmpNo: 99999, DeptNo: "d001", FromDate: d("2020-01-01")})
		require.ErrorIs(t, err, domain.ErrNotFound)
		assert.Contains(t, err.Error(), "CheckEmployeeExists")
	})

	t.Run("missing department", func(t *testing.T) {
		err := f.assignments.Create(ctx, domain.Assignment{EmpNo: 10001, DeptNo: "d999", FromDate: d("2020-01-01")})
		require.ErrorIs(t, err, domain.ErrNotFound)
		assert.Contains(t, err.Error(), "CheckDepartmentExists")
	})

	t.Run("create then duplicate key", func(t *testing.T) {
		row := domain.Assignment{EmpNo: 10001, DeptNo: "d001", FromDate: d("2020-01-01")}
		require.NoError(t, f.assignments.Create(ctx, row))
		err := f.assignments.Create(ctx, row)
		require.ErrorIs(t, err, domain.ErrAlreadyExists)
		assert.Contains(t, err.Error(), "CheckCompositeKeyFree")
	})

	t.Run("same pair on another date", func(t *testing.T) {
		err := f.assignments.Create(ctx, domain.Assignment{EmpNo: 10001, DeptNo: "d001", FromDate: d("2023-01-01")})
		require.ErrorIs(t, err, domain.ErrAlreadyExists)
		assert.Contains(t, err.Error(), "already assigned")

		rows, err := f.assignments.ListForEmployee(ctx, 10001)
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("range must not be inverted", func(t *testing.T) {
		err := f.assignments.Create(ctx, domain.Assignment{EmpNo: 10001, DeptNo: "d001", FromDate: d("2020-01-01"), ToDate: dp("2019-01-01")})
		assert.ErrorIs(t, err, domain.ErrValidationFailed)
	})
}

func TestAssignmentUpdateAndDeleteByPair(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedEmployee(t, 1)
	f.seedDepartment(t, "d001", "Sales")
	require.NoError(t, f.assignments.Create(ctx, domain.Assignment{EmpNo: 1, DeptNo: "d001", FromDate: d("2020-01-01")}))

	updated, err := f.assignments.Update(ctx, domain.Key{EmpNo: 1, DeptNo: "d001"}, domain.Assignment{FromDate: d("2020-02-01"), ToDate: dp("2024-06-14")})
	require.NoError(t, err)
	assert.Equal(t, d("2020-02-01"), updated.FromDate)

	current, err := f.assignments.CurrentForEmployee(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, current)

	_, err = f.assignments.Update(ctx, domain.Key{EmpNo: 1, DeptNo: "d001"}, domain.Assignment{DeptNo: "d002"})
	assert.ErrorIs(t, err, domain.ErrValidationFailed)

	require.NoError(t, f.assignments.Delete(ctx, domain.Key{EmpNo: 1, DeptNo: "d001"}))
	err = f.assignments.Delete(ctx, domain.Key{EmpNo: 1, DeptNo: "d001"})
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "CheckCompositeKeyExists")
}

func TestCurrentSalaryAndTitle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedEmployee(t, 10)

	_, err := f.salaries.LatestForEmployee(ctx, 10)
	assert.ErrorIs(t, err, domain.ErrNoCurrentRecord)

	require.NoError(t, f.salaries.Create(ctx, domain.Salary{EmpNo: 10, FromDate: d("2023-01-01"), ToDate: dp("2023-12-31"), Value: 40000}))
	require.NoError(t, f.salaries.Create(ctx, domain.Salary{EmpNo: 10, FromDate: d("2024-01-01"), Value: 50000}))

	got, err := f.salaries.LatestForEmployee(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 50000, got.Value)

	require.NoError(t, f.titles.Create(ctx, domain.Title{EmpNo: 10, FromDate: d("2020-01-01"), Value: "Engineer"}))
	require.NoError(t, f.titles.Create(ctx, domain.Title{EmpNo: 10, FromDate: d("2024-03-01"), Value: "Senior Engineer"}))
	title, err := f.titles.LatestForEmployee(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "Senior Engineer", title.Value)

	found, err := f.titles.Search(ctx, "SENIOR")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestSalaryRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedEmployee(t, 10)

	assert.ErrorIs(t, f.salaries.Create(ctx, domain.Salary{EmpNo: 10, FromDate: d("2024-01-01"), Value: 0}), domain.ErrValidationFailed)
	assert.ErrorIs(t, f.salaries.Create(ctx, domain.Salary{EmpNo: 11, FromDate: d("2024-01-01"), Value: 10}), domain.ErrNotFound)
	require.NoError(t, f.salaries.Create(ctx, domain.Salary{EmpNo: 10, DeptNo: "ignored", FromDate: d("2024-01-01"), Value: 10}))

	key := domain.Key{EmpNo: 10, FromDate: d("2024-01-01")}
	got, err := f.salaries.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, got.DeptNo)

	t.Run("key change rejected", func(t *testing.T) {
		_, err := f.salaries.Update(ctx, key, domain.Salary{FromDate: d("2024-02-01"), Value: 20})
		assert.ErrorIs(t, err, domain.ErrValidationFailed)
		_, err = f.salaries.Update(ctx, key, domain.Salary{EmpNo: 11, Value: 20})
		assert.ErrorIs(t, err, domain.ErrValidationFailed)
	})

	t.Run("payload and end replaced", func(t *testing.T) {
		updated, err := f.salaries.Update(ctx, key, domain.Salary{Value: 20, ToDate: dp("2024-12-31")})
		require.NoError(t, err)
		assert.Equal(t, 20, updated.Value)
		assert.Equal(t, d("2024-12-31"), *updated.ToDate)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := f.salaries.Update(ctx, domain.Key{EmpNo: 10, FromDate: d("1999-01-01")}, domain.Salary{Value: 20})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestCurrentManager(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedEmployee(t, 1)
	f.seedEmployee(t, 2)
	f.seedDepartment(t, "d001", "Sales")

	_, err := f.managements.SoleCurrentForDepartment(ctx, "d001")
	assert.ErrorIs(t, err, domain.ErrNoCurrentRecord)

	require.NoError(t, f.managements.Create(ctx, domain.Management{EmpNo: 1, DeptNo: "d001", FromDate: d("2010-01-01")}))
	mgr, err := f.managements.SoleCurrentForDepartment(ctx, "d001")
	require.NoError(t, err)
	assert.Equal(t, 1, mgr.EmpNo)

	managing, err := f.managements.AnyCurrentForEmployee(ctx, 1)
	require.NoError(t, err)
	assert.True(t, managing)

	require.NoError(t, f.managements.Create(ctx, domain.Management{EmpNo: 2, DeptNo: "d001", FromDate: d("2015-01-01")}))
	_, err = f.managements.SoleCurrentForDepartment(ctx, "d001")
	assert.ErrorIs(t, err, domain.ErrAmbiguousCurrentState)

	managing, err = f.managements.AnyCurrentForEmployee(ctx, 404)
	require.NoError(t, err)
	assert.False(t, managing)
}

func TestReadsForUnknownEmployeeAreEmpty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	rows, err := f.assignments.ListForEmployee(ctx, 123)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)

	_, err = f.titles.LatestForEmployee(ctx, 123)
	assert.ErrorIs(t, err, domain.ErrNoCurrentRecord)
}

func TestEmployeeDeleteCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedEmployee(t, 1)
	f.seedEmployee(t, 2)
	f.seedDepartment(t, "d001", "Sales")

	require.NoError(t, f.assignments.Create(ctx, domain.Assignment{EmpNo: 1, DeptNo: "d001", FromDate: d("2020-01-01")}))
	require.NoError(t, f.assignments.Create(ctx, domain.Assignment{EmpNo: 2, DeptNo: "d001", FromDate: d("2020-01-01")}))
	require.NoError(t, f.managements.Create(ctx, domain.Management{EmpNo: 1, DeptNo: "d001", FromDate: d("2020-01-01")}))
	require.NoError(t, f.salaries.Create(ctx, domain.Salary{EmpNo: 1, FromDate: d("2020-01-01"), Value: 1}))
	require.NoError(t, f.titles.Create(ctx, domain.Title{EmpNo: 1, FromDate: d("2020-01-01"), Value: "Staff"}))

	require.NoError(t, f.employees.Delete(ctx, 1))

	_, err := f.employees.Get(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all, err := f.assignments.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 2, all[0].EmpNo)

	for _, n := range []func() (int, error){
		func() (int, error) { r, err := f.managements.List(ctx); return len(r), err },
		func() (int, error) { r, err := f.salaries.List(ctx); return len(r), err },
		func() (int, error) { r, err := f.titles.List(ctx); return len(r), err },
	} {
		count, err := n()
		require.NoError(t, err)
		assert.Zero(t, count)
	}

	assert.ErrorIs(t, f.employees.Delete(ctx, 1), domain.ErrNotFound)
}

func TestDepartmentRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedEmployee(t, 1)
	f.seedDepartment(t, "d001", "Sales")
	f.seedDepartment(t, "d002", "Finance")

	err := f.departments.Create(ctx, &domain.Department{DeptNo: "d003", DeptName: "Sales"})
	require.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.Contains(t, err.Error(), "CheckDepartmentNameFree")

	assert.ErrorIs(t, f.departments.Create(ctx, &domain.Department{DeptNo: "d001", DeptName: "Other"}), domain.ErrAlreadyExists)
	assert.ErrorIs(t, f.departments.Create(ctx, &domain.Department{DeptNo: "d01", DeptName: "Short"}), domain.ErrValidationFailed)
	assert.ErrorIs(t, f.departments.Update(ctx, &domain.Department{DeptNo: "d002", DeptName: "Sales"}), domain.ErrAlreadyExists)
	assert.NoError(t, f.departments.Update(ctx, &domain.Department{DeptNo: "d001", DeptName: "Sales"}))
	assert.ErrorIs(t, f.departments.Update(ctx, &domain.Department{DeptNo: "d009", DeptName: "Nope"}), domain.ErrNotFound)

	require.NoError(t, f.assignments.Create(ctx, domain.Assignment{EmpNo: 1, DeptNo: "d001", FromDate: d("2020-01-01")}))
	require.NoError(t, f.managements.Create(ctx, domain.Management{EmpNo: 1, DeptNo: "d001", FromDate: d("2020-01-01")}))
	require.NoError(t, f.assignments.Create(ctx, domain.Assignment{EmpNo: 1, DeptNo: "d002", FromDate: d("2021-01-01")}))

	require.NoError(t, f.departments.Delete(ctx, "d001"))
	rows, err := f.assignments.ListForEmployee(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "d002", rows[0].DeptNo)

	managed, err := f.managements.ListForDepartment(ctx, "d001")
	require.NoError(t, err)
	assert.Empty(t, managed)
}

func TestEmployeeValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	base := domain.Employee{EmpNo: 1, FirstName: "Ann", LastName: "Lee", Gender: "F", BirthDate: d("1990-01-01"), HireDate: d("2015-01-01")}
	cases := map[string]func(e *domain.Employee){
		"non positive id":  func(e *domain.Employee) { e.EmpNo = 0 },
		"long first name":  func(e *domain.Employee) { e.FirstName = "Maximilianusss" + "x" },
		"missing lastname": func(e *domain.Employee) { e.LastName = " " },
		"bad gender":       func(e *domain.Employee) { e.Gender = "X" },
		"birth in future":  func(e *domain.Employee) { e.BirthDate = d("2030-01-01") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			e := base
			mutate(&e)
			assert.ErrorIs(t, f.employees.Create(ctx, &e), domain.ErrValidationFailed)
		})
	}

	require.NoError(t, f.employees.Create(ctx, &base))
	assert.ErrorIs(t, f.employees.Create(ctx, &base), domain.ErrAlreadyExists)

	missing := base
	missing.EmpNo = 2
	assert.ErrorIs(t, f.employees.Update(ctx, &missing), domain.ErrNotFound)
}

func TestConcurrentCreatesAdmitOne(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedEmployee(t, 1)
	f.seedDepartment(t, "d001", "Sales")

	var (
		wg       sync.WaitGroup
		accepted int32
		rejected int32
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(day int) {
			defer wg.Done()
			from := civil.Date{Year: 2020, Month: 1, Day: day}
			err := f.assignments.Create(ctx, domain.Assignment{EmpNo: 1, DeptNo: "d001", FromDate: from})
			switch {
			case err == nil:
				atomic.AddInt32(&accepted, 1)
			case errors.Is(err, domain.ErrAlreadyExists):
				atomic.AddInt32(&rejected, 1)
			}
		}(i + 1)
	}
	wg.Wait()

	assert.EqualValues(t, 1, accepted)
	assert.EqualValues(t, 15, rejected)
}

// raceCreates runs n concurrent calls of create and counts the outcomes.
func raceCreates(n int, create func() error) (accepted, rejected, other int32) {
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := create()
			switch {
			case err == nil:
				atomic.AddInt32(&accepted, 1)
			case errors.Is(err, domain.ErrAlreadyExists):
				atomic.AddInt32(&rejected, 1)
			default:
				atomic.AddInt32(&other, 1)
			}
		}()
	}
	close(start)
	wg.Wait()
	return accepted, rejected, other
}

func TestConcurrentIdenticalKeyCreatesAdmitOne(t *testing.T) {
	ctx := context.Background()
	const racers = 16

	t.Run("salary", func(t *testing.T) {
		f := newFixture(t)
		f.seedEmployee(t, 1)

		accepted, rejected, other := raceCreates(racers, func() error {
			return f.salaries.Create(ctx, domain.Salary{EmpNo: 1, FromDate: d("2020-01-01"), Value: 60117})
		})
		assert.EqualValues(t, 1, accepted)
		assert.EqualValues(t, racers-1, rejected)
		assert.Zero(t, other)

		rows, err := f.salaries.ListForEmployee(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("title", func(t *testing.T) {
		f := newFixture(t)
		f.seedEmployee(t, 1)

		accepted, rejected, other := raceCreates(racers, func() error {
			return f.titles.Create(ctx, domain.Title{EmpNo: 1, FromDate: d("2020-01-01"), Value: "Engineer"})
		})
		assert.EqualValues(t, 1, accepted)
		assert.EqualValues(t, racers-1, rejected)
		assert.Zero(t, other)

		rows, err := f.titles.ListForEmployee(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("assignment", func(t *testing.T) {
		f := newFixture(t)
		f.seedEmployee(t, 1)
		f.seedDepartment(t, "d001", "Sales")

		accepted, rejected, other := raceCreates(racers, func() error {
			return f.assignments.Create(ctx, domain.Assignment{EmpNo: 1, DeptNo: "d001", FromDate: d("2020-01-01")})
		})
		assert.EqualValues(t, 1, accepted)
		assert.EqualValues(t, racers-1, rejected)
		assert.Zero(t, other)

		rows, err := f.assignments.ListForEmployee(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})
}

type fakeIndex struct {
	indexed []int
	deleted []int
	result  []domain.Employee
	err     error
}

func (f *fakeIndex) IndexEmployee(_ context.Context, e domain.Employee) error {
	f.indexed = append(f.indexed, e.EmpNo)
	return nil
}

func (f *fakeIndex) DeleteEmployee(_ context.Context, empNo int) error {
	f.deleted = append(f.deleted, empNo)
	return nil
}

func (f *fakeIndex) SearchEmployeesByName(_ context.Context, _ string) ([]domain.Employee, error) {
	return f.result, f.err
}

func TestEmployeeSearchIndex(t *testing.T) {
	ctx := context.Background()
	idx := &fakeIndex{result: []domain.Employee{{EmpNo: 77}}}
	f := newFixture(t, WithSearchIndex(idx))
	f.seedEmployee(t, 1)

	found, err := f.employees.Search(ctx, "geo")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 77, found[0].EmpNo)
	assert.Equal(t, []int{1}, idx.indexed)

	idx.err = errors.New("cluster down")
	found, err = f.employees.Search(ctx, "FACE")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 1, found[0].EmpNo)

	require.NoError(t, f.employees.Delete(ctx, 1))
	assert.Equal(t, []int{1}, idx.deleted)

	_, err = f.employees.Search(ctx, "  ")
	assert.ErrorIs(t, err, domain.ErrValidationFailed)
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedEmployee(t, 5)
	require.NoError(t, f.salaries.Create(ctx, domain.Salary{EmpNo: 5, FromDate: d("2020-01-01"), Value: 100}))

	h, err := f.employees.History(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, h.Employee.EmpNo)
	assert.Len(t, h.Salaries, 1)
	assert.Empty(t, h.Titles)

	_, err = f.employees.History(ctx, 6)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
