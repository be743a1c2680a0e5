package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/locvowork/employee_records/internal/domain"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store runs units of work against Postgres. Each RunInTx is one database
// transaction; key and foreign key constraints back the gatekeeper checks.
type Store struct {
	db         *sql.DB
	procedures bool
}

type StoreOption func(*Store)

// WithStoredProcedures routes employee writes through the sp_* procedures.
func WithStoredProcedures() StoreOption {
	return func(s *Store) {
		s.procedures = true
	}
}

func NewStore(db *sql.DB, opts ...StoreOption) *Store {
	s := &Store{db: db}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx domain.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, s.repositories(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapError(err, "commit")
	}
	return nil
}

func (s *Store) View(ctx context.Context, fn func(ctx context.Context, r domain.Repositories) error) error {
	return fn(ctx, s.repositories(s.db))
}

func (s *Store) repositories(db DBTX) domain.Repositories {
	return &repositories{db: db, procedures: s.procedures}
}

type repositories struct {
	db         DBTX
	procedures bool
}

func (r *repositories) Employees() domain.EmployeeRepository {
	if r.procedures {
		return NewProcedureEmployeeRepository(r.db)
	}
	return NewEmployeeRepository(r.db)
}

func (r *repositories) Departments() domain.DepartmentRepository {
	return NewDepartmentRepository(r.db)
}

func (r *repositories) Assignments() domain.TemporalRepository[struct{}] {
	return NewTemporalRepository[struct{}](r.db, domain.AssignmentRelation)
}

func (r *repositories) Managements() domain.TemporalRepository[struct{}] {
	return NewTemporalRepository[struct{}](r.db, domain.ManagementRelation)
}

func (r *repositories) Salaries() domain.TemporalRepository[int] {
	return NewTemporalRepository[int](r.db, domain.SalaryRelation)
}

func (r *repositories) Titles() domain.TemporalRepository[string] {
	return NewTemporalRepository[string](r.db, domain.TitleRelation)
}

func dateArg(d civil.Date) time.Time {
	return d.In(time.UTC)
}

func nullableDateArg(d *civil.Date) interface{} {
	if d == nil {
		return nil
	}
	return dateArg(*d)
}

func nullableDate(t sql.NullTime) *civil.Date {
	if !t.Valid {
		return nil
	}
	d := civil.DateOf(t.Time)
	return &d
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a lower-cased LIKE pattern matching s anywhere.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
