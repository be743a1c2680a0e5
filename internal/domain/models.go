package domain

import (
	"sort"

	"cloud.google.com/go/civil"
)

type Employee struct {
	EmpNo     int        `json:"emp_no"`
	BirthDate civil.Date `json:"birth_date"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Gender    string     `json:"gender"`
	HireDate  civil.Date `json:"hire_date"`
}

type Department struct {
	DeptNo   string `json:"dept_no"`
	DeptName string `json:"dept_name"`
}

type EmployeeFilter struct {
	Limit  int
	Offset int
}

// Key is the composite identity of an effective-dated row. DeptNo is empty
// for relations that are not keyed by department.
type Key struct {
	EmpNo    int
	DeptNo   string
	FromDate civil.Date
}

// Row is one effective-dated fact about an employee. A nil ToDate means the
// fact is open-ended.
type Row[P any] struct {
	EmpNo    int
	DeptNo   string
	FromDate civil.Date
	ToDate   *civil.Date
	Value    P
}

func (r Row[P]) Key() Key {
	return Key{EmpNo: r.EmpNo, DeptNo: r.DeptNo, FromDate: r.FromDate}
}

// CurrentAt reports whether the row is in force on the given day. A row that
// ends today is still current.
func (r Row[P]) CurrentAt(today civil.Date) bool {
	return r.ToDate == nil || !r.ToDate.Before(today)
}

// Clone returns a copy that does not share the ToDate pointer.
func (r Row[P]) Clone() Row[P] {
	if r.ToDate != nil {
		d := *r.ToDate
		r.ToDate = &d
	}
	return r
}

// SortRows orders rows newest FromDate first, then by employee and department.
func SortRows[P any](rows []Row[P]) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.FromDate != b.FromDate {
			return a.FromDate.After(b.FromDate)
		}
		if a.EmpNo != b.EmpNo {
			return a.EmpNo < b.EmpNo
		}
		return a.DeptNo < b.DeptNo
	})
}

type (
	Assignment = Row[struct{}]
	Management = Row[struct{}]
	Salary     = Row[int]
	Title      = Row[string]
)

// Relation describes how one kind of effective-dated row is keyed and stored.
type Relation struct {
	Name string
	// Table is the SQL table and the datastore kind suffix.
	Table string
	// Secondary is set when rows are keyed by department as well as employee.
	Secondary bool
	// PairUnique limits the relation to one row per (employee, department).
	PairUnique bool
	// ValueColumn is the storage column of the payload, empty when there is none.
	ValueColumn string
}

var (
	AssignmentRelation = Relation{Name: "assignment", Table: "dept_emp", Secondary: true, PairUnique: true}
	ManagementRelation = Relation{Name: "management", Table: "dept_manager", Secondary: true, PairUnique: true}
	SalaryRelation     = Relation{Name: "salary", Table: "salaries", ValueColumn: "salary"}
	TitleRelation      = Relation{Name: "title", Table: "titles", ValueColumn: "title"}
)

// EmployeeHistory gathers every effective-dated row recorded for one employee.
type EmployeeHistory struct {
	Employee    Employee
	Assignments []Assignment
	Managements []Management
	Salaries    []Salary
	Titles      []Title
}
