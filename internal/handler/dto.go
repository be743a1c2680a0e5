package handler

import (
	"cloud.google.com/go/civil"
	"github.com/locvowork/employee_records/internal/domain"
)

// EmployeeRequest is the body of employee create and update. On update the
// path id wins over emp_no.
type EmployeeRequest struct {
	EmpNo     int        `json:"emp_no" validate:"gte=0"`
	BirthDate civil.Date `json:"birth_date" validate:"required,pastdate"`
	FirstName string     `json:"first_name" validate:"required,max=14"`
	LastName  string     `json:"last_name" validate:"required,max=16"`
	Gender    string     `json:"gender" validate:"required,oneof=M F"`
	HireDate  civil.Date `json:"hire_date" validate:"required"`
}

func (r EmployeeRequest) toDomain() domain.Employee {
	return domain.Employee{
		EmpNo:     r.EmpNo,
		BirthDate: r.BirthDate,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Gender:    r.Gender,
		HireDate:  r.HireDate,
	}
}

type DepartmentRequest struct {
	DeptNo   string `json:"dept_no" validate:"omitempty,len=4"`
	DeptName string `json:"dept_name" validate:"required,max=40"`
}

// AssignmentRequest creates a dept_emp or dept_manager row.
type AssignmentRequest struct {
	EmpNo    int         `json:"emp_no" validate:"gt=0"`
	DeptNo   string      `json:"dept_no" validate:"required,len=4"`
	FromDate civil.Date  `json:"from_date" validate:"required"`
	ToDate   *civil.Date `json:"to_date"`
}

// AssignmentUpdate moves the dates of an existing pair. emp_no and dept_no
// are optional and must match the path when given.
type AssignmentUpdate struct {
	EmpNo    int         `json:"emp_no" validate:"gte=0"`
	DeptNo   string      `json:"dept_no" validate:"omitempty,len=4"`
	FromDate civil.Date  `json:"from_date"`
	ToDate   *civil.Date `json:"to_date"`
}

type AssignmentResponse struct {
	EmpNo    int         `json:"emp_no"`
	DeptNo   string      `json:"dept_no"`
	FromDate civil.Date  `json:"from_date"`
	ToDate   *civil.Date `json:"to_date"`
}

func newAssignmentResponse(r domain.Assignment) AssignmentResponse {
	return AssignmentResponse{EmpNo: r.EmpNo, DeptNo: r.DeptNo, FromDate: r.FromDate, ToDate: r.ToDate}
}

type SalaryRequest struct {
	EmpNo    int         `json:"emp_no" validate:"gt=0"`
	Salary   int         `json:"salary" validate:"gt=0"`
	FromDate civil.Date  `json:"from_date" validate:"required"`
	ToDate   *civil.Date `json:"to_date"`
}

// SalaryUpdate replaces amount and end date of the row named by the path.
type SalaryUpdate struct {
	EmpNo    int         `json:"emp_no" validate:"gte=0"`
	Salary   int         `json:"salary" validate:"gt=0"`
	FromDate civil.Date  `json:"from_date"`
	ToDate   *civil.Date `json:"to_date"`
}

type SalaryResponse struct {
	EmpNo    int         `json:"emp_no"`
	Salary   int         `json:"salary"`
	FromDate civil.Date  `json:"from_date"`
	ToDate   *civil.Date `json:"to_date"`
}

func newSalaryResponse(r domain.Salary) SalaryResponse {
	return SalaryResponse{EmpNo: r.EmpNo, Salary: r.Value, FromDate: r.FromDate, ToDate: r.ToDate}
}

type TitleRequest struct {
	EmpNo    int         `json:"emp_no" validate:"gt=0"`
	Title    string      `json:"title" validate:"required,max=50"`
	FromDate civil.Date  `json:"from_date" validate:"required"`
	ToDate   *civil.Date `json:"to_date"`
}

type TitleUpdate struct {
	EmpNo    int         `json:"emp_no" validate:"gte=0"`
	Title    string      `json:"title" validate:"required,max=50"`
	FromDate civil.Date  `json:"from_date"`
	ToDate   *civil.Date `json:"to_date"`
}

type TitleResponse struct {
	EmpNo    int         `json:"emp_no"`
	Title    string      `json:"title"`
	FromDate civil.Date  `json:"from_date"`
	ToDate   *civil.Date `json:"to_date"`
}

func newTitleResponse(r domain.Title) TitleResponse {
	return TitleResponse{EmpNo: r.EmpNo, Title: r.Value, FromDate: r.FromDate, ToDate: r.ToDate}
}

// ManagerStatus answers the is-manager query.
type ManagerStatus struct {
	EmpNo     int  `json:"emp_no"`
	IsManager bool `json:"is_manager"`
}

func mapRows[P, T any](rows []domain.Row[P], fn func(domain.Row[P]) T) []T {
	out := make([]T, len(rows))
	for i, r := range rows {
		out[i] = fn(r)
	}
	return out
}
