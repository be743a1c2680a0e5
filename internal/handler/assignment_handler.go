package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/employee_records/internal/domain"
	"github.com/locvowork/employee_records/internal/service"
	"github.com/locvowork/employee_records/internal/service/serviceutils"
)

// AssignmentHandler serves the (employee, department) relations: dept-emp
// and dept-manager. A row is addressed by its pair, which is unique.
type AssignmentHandler struct {
	svc  *service.TemporalService[struct{}]
	noun string
	// soleCurrent makes /department/:deptNo/current return exactly one row.
	soleCurrent bool
}

func NewAssignmentHandler(svc *service.TemporalService[struct{}]) *AssignmentHandler {
	return &AssignmentHandler{svc: svc, noun: "Department assignment"}
}

func NewManagerHandler(svc *service.TemporalService[struct{}]) *AssignmentHandler {
	return &AssignmentHandler{svc: svc, noun: "Department manager", soleCurrent: true}
}

func (h *AssignmentHandler) Register(g *echo.Group) {
	g.GET("", h.ListHandler)
	g.POST("", h.CreateHandler)
	g.GET("/employee/:empNo", h.ListForEmployeeHandler)
	g.GET("/employee/:empNo/current", h.CurrentForEmployeeHandler)
	g.GET("/department/:deptNo", h.ListForDepartmentHandler)
	g.GET("/department/:deptNo/current", h.CurrentForDepartmentHandler)
	g.PUT("/:empNo/:deptNo", h.UpdateHandler)
	g.DELETE("/:empNo/:deptNo", h.DeleteHandler)
	if h.soleCurrent {
		g.GET("/employee/:empNo/is-manager", h.IsManagerHandler)
	}
}

func (h *AssignmentHandler) ListHandler(c echo.Context) error {
	rows, err := h.svc.List(c.Request().Context())
	return h.rows(c, rows, err)
}

func (h *AssignmentHandler) ListForEmployeeHandler(c echo.Context) error {
	empNo, err := intParam(c, "empNo")
	if err != nil {
		return serviceutils.Fail(c, "Invalid employee number", err)
	}
	rows, err := h.svc.ListForEmployee(c.Request().Context(), empNo)
	return h.rows(c, rows, err)
}

func (h *AssignmentHandler) CurrentForEmployeeHandler(c echo.Context) error {
	empNo, err := intParam(c, "empNo")
	if err != nil {
		return serviceutils.Fail(c, "Invalid employee number", err)
	}
	rows, err := h.svc.CurrentForEmployee(c.Request().Context(), empNo)
	return h.rows(c, rows, err)
}

func (h *AssignmentHandler) ListForDepartmentHandler(c echo.Context) error {
	rows, err := h.svc.ListForDepartment(c.Request().Context(), c.Param("deptNo"))
	return h.rows(c, rows, err)
}

func (h *AssignmentHandler) CurrentForDepartmentHandler(c echo.Context) error {
	ctx := c.Request().Context()
	if !h.soleCurrent {
		rows, err := h.svc.CurrentForDepartment(ctx, c.Param("deptNo"))
		return h.rows(c, rows, err)
	}

	row, err := h.svc.SoleCurrentForDepartment(ctx, c.Param("deptNo"))
	if err != nil {
		return serviceutils.Fail(c, "Failed to get current manager", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Current manager retrieved", newAssignmentResponse(*row))
}

func (h *AssignmentHandler) IsManagerHandler(c echo.Context) error {
	empNo, err := intParam(c, "empNo")
	if err != nil {
		return serviceutils.Fail(c, "Invalid employee number", err)
	}
	ok, err := h.svc.AnyCurrentForEmployee(c.Request().Context(), empNo)
	if err != nil {
		return serviceutils.Fail(c, "Failed to check manager status", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Manager status retrieved", ManagerStatus{EmpNo: empNo, IsManager: ok})
}

func (h *AssignmentHandler) CreateHandler(c echo.Context) error {
	var req AssignmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return serviceutils.Fail(c, "Invalid request body", err)
	}

	row := domain.Assignment{EmpNo: req.EmpNo, DeptNo: req.DeptNo, FromDate: req.FromDate, ToDate: req.ToDate}
	if err := h.svc.Create(c.Request().Context(), row); err != nil {
		return serviceutils.Fail(c, "Failed to create "+h.lower(), err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusCreated, h.noun+" created successfully", newAssignmentResponse(row))
}

func (h *AssignmentHandler) UpdateHandler(c echo.Context) error {
	key, err := h.pairKey(c)
	if err != nil {
		return serviceutils.Fail(c, "Invalid "+h.lower()+" key", err)
	}
	var req AssignmentUpdate
	if err := bindAndValidate(c, &req); err != nil {
		return serviceutils.Fail(c, "Invalid request body", err)
	}

	changes := domain.Assignment{EmpNo: req.EmpNo, DeptNo: req.DeptNo, FromDate: req.FromDate, ToDate: req.ToDate}
	updated, err := h.svc.Update(c.Request().Context(), key, changes)
	if err != nil {
		return serviceutils.Fail(c, "Failed to update "+h.lower(), err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, h.noun+" updated successfully", newAssignmentResponse(*updated))
}

func (h *AssignmentHandler) DeleteHandler(c echo.Context) error {
	key, err := h.pairKey(c)
	if err != nil {
		return serviceutils.Fail(c, "Invalid "+h.lower()+" key", err)
	}
	if err := h.svc.Delete(c.Request().Context(), key); err != nil {
		return serviceutils.Fail(c, "Failed to delete "+h.lower(), err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, h.noun+" deleted successfully", nil)
}

// pairKey leaves FromDate zero so the service resolves the row by pair.
func (h *AssignmentHandler) pairKey(c echo.Context) (domain.Key, error) {
	empNo, err := intParam(c, "empNo")
	if err != nil {
		return domain.Key{}, err
	}
	return domain.Key{EmpNo: empNo, DeptNo: c.Param("deptNo")}, nil
}

func (h *AssignmentHandler) rows(c echo.Context, rows []domain.Assignment, err error) error {
	if err != nil {
		return serviceutils.Fail(c, "Failed to list "+h.lower()+"s", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, h.noun+"s retrieved", mapRows(rows, newAssignmentResponse))
}

func (h *AssignmentHandler) lower() string {
	if h.soleCurrent {
		return "department manager"
	}
	return "department assignment"
}
