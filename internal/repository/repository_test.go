package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/locvowork/employee_records/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func utc(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMapError(t *testing.T) {
	assert.ErrorIs(t, mapError(sql.ErrNoRows, "x"), domain.ErrNotFound)
	assert.ErrorIs(t, mapError(&pq.Error{Code: "23505"}, "x"), domain.ErrAlreadyExists)
	assert.ErrorIs(t, mapError(&pgconn.PgError{Code: "23505"}, "x"), domain.ErrAlreadyExists)
	assert.ErrorIs(t, mapError(&pgconn.PgError{Code: "23503"}, "x"), domain.ErrNotFound)
	assert.ErrorIs(t, mapError(&pq.Error{Code: "P0002"}, "x"), domain.ErrNotFound)
	assert.ErrorIs(t, mapError(&pq.Error{Code: "23514"}, "x"), domain.ErrValidationFailed)
	assert.Nil(t, mapError(nil, "x"))

	other := errors.New("connection reset")
	err := mapError(other, "x")
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestRunInTxCommitsAndRollsBack(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	store := NewStore(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO departments (dept_no, dept_name) VALUES ($1, $2)").
		WithArgs("d001", "Marketing").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.RunInTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		return tx.Departments().Create(ctx, &domain.Department{DeptNo: "d001", DeptName: "Marketing"})
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO departments (dept_no, dept_name) VALUES ($1, $2)").
		WithArgs("d001", "Marketing").
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err = store.RunInTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		return tx.Departments().Create(ctx, &domain.Department{DeptNo: "d001", DeptName: "Marketing"})
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepository(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	repo := NewEmployeeRepository(db)

	t.Run("get", func(t *testing.T) {
		mock.ExpectQuery("SELECT emp_no, birth_date, first_name, last_name, gender, hire_date FROM employees WHERE emp_no = $1").
			WithArgs(10001).
			WillReturnRows(sqlmock.NewRows(employeeColumns).
				AddRow(10001, utc(1953, 9, 2), "Georgi", "Facello", "M", utc(1986, 6, 26)))

		e, err := repo.GetByID(ctx, 10001)
		require.NoError(t, err)
		assert.Equal(t, "Georgi", e.FirstName)
		assert.Equal(t, civil.Date{Year: 1986, Month: 6, Day: 26}, e.HireDate)
	})

	t.Run("get missing", func(t *testing.T) {
		mock.ExpectQuery("SELECT emp_no, birth_date, first_name, last_name, gender, hire_date FROM employees WHERE emp_no = $1").
			WithArgs(1).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(ctx, 1)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("exists", func(t *testing.T) {
		mock.ExpectQuery("SELECT 1 FROM employees WHERE emp_no = $1").
			WithArgs(2).
			WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

		ok, err := repo.Exists(ctx, 2)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("update missing", func(t *testing.T) {
		mock.ExpectExec("UPDATE employees SET birth_date = $1, first_name = $2, last_name = $3, gender = $4, hire_date = $5 WHERE emp_no = $6").
			WithArgs(utc(1990, 1, 1), "Ann", "Lee", "F", utc(2020, 1, 1), 3).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Update(ctx, &domain.Employee{
			EmpNo: 3, FirstName: "Ann", LastName: "Lee", Gender: "F",
			BirthDate: civil.Date{Year: 1990, Month: 1, Day: 1}, HireDate: civil.Date{Year: 2020, Month: 1, Day: 1},
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("search escapes pattern", func(t *testing.T) {
		mock.ExpectQuery("SELECT emp_no, birth_date, first_name, last_name, gender, hire_date FROM employees WHERE (LOWER(first_name) LIKE $1 OR LOWER(last_name) LIKE $2) ORDER BY emp_no ASC").
			WithArgs(`%50\%%`, `%50\%%`).
			WillReturnRows(sqlmock.NewRows(employeeColumns))

		found, err := repo.SearchByName(ctx, "50%")
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcedureEmployeeRepository(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	repo := NewProcedureEmployeeRepository(db)

	mock.ExpectExec("CALL sp_insert_employee($1, $2, $3, $4, $5, $6)").
		WithArgs(5, utc(1980, 5, 5), "Bo", "Ng", "M", utc(2001, 2, 3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, repo.Create(ctx, &domain.Employee{
		EmpNo: 5, FirstName: "Bo", LastName: "Ng", Gender: "M",
		BirthDate: civil.Date{Year: 1980, Month: 5, Day: 5}, HireDate: civil.Date{Year: 2001, Month: 2, Day: 3},
	}))

	mock.ExpectExec("CALL sp_delete_employee($1)").
		WithArgs(6).
		WillReturnError(&pq.Error{Code: "P0002"})
	assert.ErrorIs(t, repo.Delete(ctx, 6), domain.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSalaryRepository(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	repo := NewTemporalRepository[int](db, domain.SalaryRelation)
	from := civil.Date{Year: 2020, Month: 1, Day: 1}

	mock.ExpectExec("INSERT INTO salaries (emp_no, from_date, to_date, salary) VALUES ($1, $2, $3, $4)").
		WithArgs(7, utc(2020, 1, 1), nil, 60117).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Insert(ctx, domain.Salary{EmpNo: 7, FromDate: from, Value: 60117}))

	mock.ExpectQuery("SELECT emp_no, from_date, to_date, salary FROM salaries WHERE emp_no = $1 AND from_date = $2").
		WithArgs(7, utc(2020, 1, 1)).
		WillReturnRows(sqlmock.NewRows([]string{"emp_no", "from_date", "to_date", "salary"}).
			AddRow(7, utc(2020, 1, 1), utc(2020, 12, 31), 60117))
	row, err := repo.Get(ctx, domain.Key{EmpNo: 7, FromDate: from})
	require.NoError(t, err)
	assert.Equal(t, 60117, row.Value)
	require.NotNil(t, row.ToDate)
	assert.Equal(t, civil.Date{Year: 2020, Month: 12, Day: 31}, *row.ToDate)

	mock.ExpectQuery("SELECT emp_no, from_date, to_date, salary FROM salaries WHERE emp_no = $1 ORDER BY from_date DESC, emp_no ASC").
		WithArgs(8).
		WillReturnRows(sqlmock.NewRows([]string{"emp_no", "from_date", "to_date", "salary"}))
	rows, err := repo.ListBySubject(ctx, 8)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)

	_, err = repo.ListBySecondaryKey(ctx, "d001")
	assert.ErrorIs(t, err, domain.ErrValidationFailed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryReplace(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	repo := NewTemporalRepository[struct{}](db, domain.AssignmentRelation)
	key := domain.Key{EmpNo: 1, DeptNo: "d001", FromDate: civil.Date{Year: 2020, Month: 1, Day: 1}}

	mock.ExpectExec("UPDATE dept_emp SET from_date = $1, to_date = $2 WHERE emp_no = $3 AND dept_no = $4 AND from_date = $5").
		WithArgs(utc(2020, 2, 1), nil, 1, "d001", utc(2020, 1, 1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Replace(ctx, key, domain.Assignment{EmpNo: 1, DeptNo: "d001", FromDate: civil.Date{Year: 2020, Month: 2, Day: 1}}))

	mock.ExpectExec("DELETE FROM dept_emp WHERE emp_no = $1 AND dept_no = $2 AND from_date = $3").
		WithArgs(1, "d001", utc(2020, 1, 1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(ctx, key), domain.ErrNotFound)

	mock.ExpectExec("DELETE FROM dept_emp WHERE dept_no = $1").
		WithArgs("d001").
		WillReturnResult(sqlmock.NewResult(0, 3))
	require.NoError(t, repo.DeleteBySecondaryKey(ctx, "d001"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTitleSearch(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	repo := NewTemporalRepository[string](db, domain.TitleRelation)

	mock.ExpectQuery("SELECT emp_no, from_date, to_date, title FROM titles WHERE LOWER(CAST(title AS TEXT)) LIKE $1 ORDER BY from_date DESC, emp_no ASC").
		WithArgs("%engineer%").
		WillReturnRows(sqlmock.NewRows([]string{"emp_no", "from_date", "to_date", "title"}).
			AddRow(1, utc(2020, 1, 1), nil, "Senior Engineer"))

	rows, err := repo.SearchValue(ctx, "Engineer")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].ToDate)
	assert.Equal(t, "Senior Engineer", rows[0].Value)
	assert.NoError(t, mock.ExpectationsWereMet())
}
