package domain

import (
	"context"
)

type EmployeeRepository interface {
	Create(ctx context.Context, e *Employee) error
	GetByID(ctx context.Context, empNo int) (*Employee, error)
	Exists(ctx context.Context, empNo int) (bool, error)
	List(ctx context.Context, filter EmployeeFilter) ([]Employee, error)
	Update(ctx context.Context, e *Employee) error
	Delete(ctx context.Context, empNo int) error
	SearchByName(ctx context.Context, name string) ([]Employee, error)
}

type DepartmentRepository interface {
	Create(ctx context.Context, d *Department) error
	GetByID(ctx context.Context, deptNo string) (*Department, error)
	GetByName(ctx context.Context, name string) (*Department, error)
	Exists(ctx context.Context, deptNo string) (bool, error)
	List(ctx context.Context) ([]Department, error)
	Update(ctx context.Context, d *Department) error
	Delete(ctx context.Context, deptNo string) error
	SearchByName(ctx context.Context, name string) ([]Department, error)
}

// TemporalRepository stores effective-dated rows of one relation. It does not
// check that the referenced employee or department exists.
type TemporalRepository[P any] interface {
	Insert(ctx context.Context, row Row[P]) error
	Get(ctx context.Context, key Key) (*Row[P], error)
	ListAll(ctx context.Context) ([]Row[P], error)
	// ListBySubject and ListBySecondaryKey return rows newest FromDate first.
	ListBySubject(ctx context.Context, empNo int) ([]Row[P], error)
	ListBySecondaryKey(ctx context.Context, deptNo string) ([]Row[P], error)
	// SearchValue matches the payload case-insensitively as text.
	SearchValue(ctx context.Context, substring string) ([]Row[P], error)
	// Replace swaps the row stored at key for row. The new row may carry a
	// different FromDate.
	Replace(ctx context.Context, key Key, row Row[P]) error
	Delete(ctx context.Context, key Key) error
	DeleteBySubject(ctx context.Context, empNo int) error
	DeleteBySecondaryKey(ctx context.Context, deptNo string) error
}

// Repositories is the set of repositories visible inside one unit of work.
type Repositories interface {
	Employees() EmployeeRepository
	Departments() DepartmentRepository
	Assignments() TemporalRepository[struct{}]
	Managements() TemporalRepository[struct{}]
	Salaries() TemporalRepository[int]
	Titles() TemporalRepository[string]
}

// Store runs units of work. RunInTx commits only when fn returns nil; View
// gives read access without write isolation.
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
	View(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error
}
