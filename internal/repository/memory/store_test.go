package memory

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/locvowork/employee_records/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestRunInTxDiscardsFailedWork(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	boom := errors.New("boom")

	err := store.RunInTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		require.NoError(t, tx.Employees().Create(ctx, &domain.Employee{EmpNo: 1, FirstName: "Ann", LastName: "Lee", Gender: "F"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = store.View(ctx, func(ctx context.Context, r domain.Repositories) error {
		ok, err := r.Employees().Exists(ctx, 1)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)
}

func TestTemporalRepository(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	from := mustDate(t, "2020-01-01")
	later := mustDate(t, "2021-06-01")

	err := store.RunInTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		repo := tx.Salaries()
		require.NoError(t, repo.Insert(ctx, domain.Salary{EmpNo: 7, FromDate: from, Value: 100}))
		require.NoError(t, repo.Insert(ctx, domain.Salary{EmpNo: 7, FromDate: later, Value: 200}))
		assert.ErrorIs(t, repo.Insert(ctx, domain.Salary{EmpNo: 7, FromDate: from, Value: 300}), domain.ErrAlreadyExists)

		rows, err := repo.ListBySubject(ctx, 7)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, later, rows[0].FromDate)

		_, err = repo.ListBySecondaryKey(ctx, "d001")
		assert.ErrorIs(t, err, domain.ErrValidationFailed)

		end := mustDate(t, "2021-05-31")
		require.NoError(t, repo.Replace(ctx, domain.Key{EmpNo: 7, FromDate: from}, domain.Salary{EmpNo: 7, FromDate: from, ToDate: &end, Value: 150}))
		got, err := repo.Get(ctx, domain.Key{EmpNo: 7, FromDate: from})
		require.NoError(t, err)
		assert.Equal(t, 150, got.Value)
		assert.Equal(t, end, *got.ToDate)

		assert.ErrorIs(t, repo.Delete(ctx, domain.Key{EmpNo: 8, FromDate: from}), domain.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestReplaceMovesKey(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	from := mustDate(t, "2020-01-01")
	moved := mustDate(t, "2020-02-01")

	err := store.RunInTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		repo := tx.Assignments()
		require.NoError(t, repo.Insert(ctx, domain.Assignment{EmpNo: 1, DeptNo: "d001", FromDate: from}))
		require.NoError(t, repo.Replace(ctx, domain.Key{EmpNo: 1, DeptNo: "d001", FromDate: from}, domain.Assignment{EmpNo: 1, DeptNo: "d001", FromDate: moved}))

		_, err := repo.Get(ctx, domain.Key{EmpNo: 1, DeptNo: "d001", FromDate: from})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		rows, err := repo.ListBySecondaryKey(ctx, "d001")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, moved, rows[0].FromDate)
		return nil
	})
	require.NoError(t, err)
}

func TestDepartmentNameUnique(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	err := store.RunInTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		repo := tx.Departments()
		require.NoError(t, repo.Create(ctx, &domain.Department{DeptNo: "d001", DeptName: "Sales"}))
		require.NoError(t, repo.Create(ctx, &domain.Department{DeptNo: "d002", DeptName: "Finance"}))
		assert.ErrorIs(t, repo.Create(ctx, &domain.Department{DeptNo: "d003", DeptName: "Sales"}), domain.ErrAlreadyExists)
		assert.ErrorIs(t, repo.Update(ctx, &domain.Department{DeptNo: "d002", DeptName: "Sales"}), domain.ErrAlreadyExists)
		assert.NoError(t, repo.Update(ctx, &domain.Department{DeptNo: "d001", DeptName: "Sales"}))

		found, err := repo.SearchByName(ctx, "fin")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "d002", found[0].DeptNo)
		return nil
	})
	require.NoError(t, err)
}

func TestEmployeeListPaging(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	err := store.RunInTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		for _, no := range []int{3, 1, 2} {
			require.NoError(t, tx.Employees().Create(ctx, &domain.Employee{EmpNo: no}))
		}
		page, err := tx.Employees().List(ctx, domain.EmployeeFilter{Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, 2, page[0].EmpNo)
		assert.Equal(t, 3, page[1].EmpNo)

		page, err = tx.Employees().List(ctx, domain.EmployeeFilter{Offset: 10})
		require.NoError(t, err)
		assert.Empty(t, page)
		return nil
	})
	require.NoError(t, err)
}
