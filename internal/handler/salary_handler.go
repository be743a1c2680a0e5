package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/employee_records/internal/domain"
	"github.com/locvowork/employee_records/internal/service"
	"github.com/locvowork/employee_records/internal/service/serviceutils"
)

type SalaryHandler struct {
	svc *service.TemporalService[int]
}

func NewSalaryHandler(svc *service.TemporalService[int]) *SalaryHandler {
	return &SalaryHandler{svc: svc}
}

func (h *SalaryHandler) Register(g *echo.Group) {
	g.GET("", h.ListHandler)
	g.POST("", h.CreateHandler)
	g.GET("/employee/:empNo", h.ListForEmployeeHandler)
	g.GET("/employee/:empNo/current", h.CurrentHandler)
	g.PUT("/:empNo/:fromDate", h.UpdateHandler)
	g.DELETE("/:empNo/:fromDate", h.DeleteHandler)
}

func (h *SalaryHandler) ListHandler(c echo.Context) error {
	rows, err := h.svc.List(c.Request().Context())
	if err != nil {
		return serviceutils.Fail(c, "Failed to list salaries", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Salaries retrieved", mapRows(rows, newSalaryResponse))
}

func (h *SalaryHandler) ListForEmployeeHandler(c echo.Context) error {
	empNo, err := intParam(c, "empNo")
	if err != nil {
		return serviceutils.Fail(c, "Invalid employee number", err)
	}
	rows, err := h.svc.ListForEmployee(c.Request().Context(), empNo)
	if err != nil {
		return serviceutils.Fail(c, "Failed to list salaries", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Salaries retrieved", mapRows(rows, newSalaryResponse))
}

func (h *SalaryHandler) CurrentHandler(c echo.Context) error {
	empNo, err := intParam(c, "empNo")
	if err != nil {
		return serviceutils.Fail(c, "Invalid employee number", err)
	}
	row, err := h.svc.LatestForEmployee(c.Request().Context(), empNo)
	if err != nil {
		return serviceutils.Fail(c, "Failed to get current salary", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Current salary retrieved", newSalaryResponse(*row))
}

func (h *SalaryHandler) CreateHandler(c echo.Context) error {
	var req SalaryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return serviceutils.Fail(c, "Invalid request body", err)
	}

	row := domain.Salary{EmpNo: req.EmpNo, FromDate: req.FromDate, ToDate: req.ToDate, Value: req.Salary}
	if err := h.svc.Create(c.Request().Context(), row); err != nil {
		return serviceutils.Fail(c, "Failed to create salary", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusCreated, "Salary created successfully", newSalaryResponse(row))
}

func (h *SalaryHandler) UpdateHandler(c echo.Context) error {
	key, err := datedKey(c)
	if err != nil {
		return serviceutils.Fail(c, "Invalid salary key", err)
	}
	var req SalaryUpdate
	if err := bindAndValidate(c, &req); err != nil {
		return serviceutils.Fail(c, "Invalid request body", err)
	}

	changes := domain.Salary{EmpNo: req.EmpNo, FromDate: req.FromDate, ToDate: req.ToDate, Value: req.Salary}
	updated, err := h.svc.Update(c.Request().Context(), key, changes)
	if err != nil {
		return serviceutils.Fail(c, "Failed to update salary", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Salary updated successfully", newSalaryResponse(*updated))
}

func (h *SalaryHandler) DeleteHandler(c echo.Context) error {
	key, err := datedKey(c)
	if err != nil {
		return serviceutils.Fail(c, "Invalid salary key", err)
	}
	if err := h.svc.Delete(c.Request().Context(), key); err != nil {
		return serviceutils.Fail(c, "Failed to delete salary", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Salary deleted successfully", nil)
}

// datedKey reads /:empNo/:fromDate.
func datedKey(c echo.Context) (domain.Key, error) {
	empNo, err := intParam(c, "empNo")
	if err != nil {
		return domain.Key{}, err
	}
	from, err := dateParam(c, "fromDate")
	if err != nil {
		return domain.Key{}, err
	}
	return domain.Key{EmpNo: empNo, FromDate: from}, nil
}
