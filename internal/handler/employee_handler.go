package handler

import (
	_ "embed"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/employee_records/internal/domain"
	"github.com/locvowork/employee_records/internal/logger"
	"github.com/locvowork/employee_records/internal/service"
	"github.com/locvowork/employee_records/internal/service/serviceutils"
	"github.com/locvowork/employee_records/pkg/xlsxexport"
)

//go:embed templates/employee_history.yaml
var historyTemplate string

type EmployeeHandler struct {
	svc *service.EmployeeService
	// procSvc writes through stored procedures. It is svc when the backend
	// has none.
	procSvc *service.EmployeeService
}

func NewEmployeeHandler(svc, procSvc *service.EmployeeService) *EmployeeHandler {
	if procSvc == nil {
		procSvc = svc
	}
	return &EmployeeHandler{svc: svc, procSvc: procSvc}
}

func (h *EmployeeHandler) Register(g *echo.Group) {
	g.POST("", h.CreateHandler)
	g.GET("", h.ListHandler)
	g.GET("/search", h.SearchHandler)
	g.POST("/procedure", h.CreateProcedureHandler)
	g.GET("/:id", h.GetHandler)
	g.GET("/:id/history.xlsx", h.HistoryExportHandler)
	g.PUT("/:id", h.UpdateHandler)
	g.PUT("/:id/procedure", h.UpdateProcedureHandler)
	g.DELETE("/:id", h.DeleteHandler)
	g.DELETE("/:id/procedure", h.DeleteProcedureHandler)
}

func (h *EmployeeHandler) CreateHandler(c echo.Context) error {
	return h.create(c, h.svc)
}

func (h *EmployeeHandler) CreateProcedureHandler(c echo.Context) error {
	return h.create(c, h.procSvc)
}

func (h *EmployeeHandler) create(c echo.Context, svc *service.EmployeeService) error {
	var req EmployeeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return serviceutils.Fail(c, "Invalid request body", err)
	}

	emp := req.toDomain()
	if err := svc.Create(c.Request().Context(), &emp); err != nil {
		return serviceutils.Fail(c, "Failed to create employee", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusCreated, "Employee created successfully", emp)
}

func (h *EmployeeHandler) GetHandler(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return serviceutils.Fail(c, "Invalid employee ID", err)
	}

	emp, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return serviceutils.Fail(c, "Failed to get employee", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Employee retrieved successfully", emp)
}

func (h *EmployeeHandler) UpdateHandler(c echo.Context) error {
	return h.update(c, h.svc)
}

func (h *EmployeeHandler) UpdateProcedureHandler(c echo.Context) error {
	return h.update(c, h.procSvc)
}

func (h *EmployeeHandler) update(c echo.Context, svc *service.EmployeeService) error {
	id, err := intParam(c, "id")
	if err != nil {
		return serviceutils.Fail(c, "Invalid employee ID", err)
	}

	var req EmployeeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return serviceutils.Fail(c, "Invalid request body", err)
	}
	emp := req.toDomain()
	emp.EmpNo = id

	if err := svc.Update(c.Request().Context(), &emp); err != nil {
		return serviceutils.Fail(c, "Failed to update employee", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Employee updated successfully", emp)
}

func (h *EmployeeHandler) DeleteHandler(c echo.Context) error {
	return h.delete(c, h.svc)
}

func (h *EmployeeHandler) DeleteProcedureHandler(c echo.Context) error {
	return h.delete(c, h.procSvc)
}

func (h *EmployeeHandler) delete(c echo.Context, svc *service.EmployeeService) error {
	id, err := intParam(c, "id")
	if err != nil {
		return serviceutils.Fail(c, "Invalid employee ID", err)
	}

	if err := svc.Delete(c.Request().Context(), id); err != nil {
		return serviceutils.Fail(c, "Failed to delete employee", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Employee deleted successfully", nil)
}

func (h *EmployeeHandler) ListHandler(c echo.Context) error {
	filter := domain.EmployeeFilter{}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		raw := c.QueryParam(name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return serviceutils.Fail(c, "Invalid pagination",
				fmt.Errorf("%w: %s must be an integer", domain.ErrValidationFailed, name))
		}
		*dst = v
	}

	employees, err := h.svc.List(c.Request().Context(), filter)
	if err != nil {
		return serviceutils.Fail(c, "Failed to list employees", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Employees listed successfully", employees)
}

func (h *EmployeeHandler) SearchHandler(c echo.Context) error {
	employees, err := h.svc.Search(c.Request().Context(), c.QueryParam("name"))
	if err != nil {
		return serviceutils.Fail(c, "Failed to search employees", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Employees found", employees)
}

// HistoryExportHandler streams the employee and its effective-dated rows as
// an XLSX workbook, one sheet per relation.
func (h *EmployeeHandler) HistoryExportHandler(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := intParam(c, "id")
	if err != nil {
		return serviceutils.Fail(c, "Invalid employee ID", err)
	}

	history, err := h.svc.History(ctx, id)
	if err != nil {
		return serviceutils.Fail(c, "Failed to load employee history", err)
	}

	exporter, err := xlsxexport.NewFromYAML(historyTemplate)
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusInternalServerError, "Failed to parse report template", err)
	}
	exporter.
		BindSectionData("employee", history.Employee).
		BindSectionData("assignments", history.Assignments).
		BindSectionData("managements", history.Managements).
		BindSectionData("salaries", history.Salaries).
		BindSectionData("titles", history.Titles)

	header := c.Response().Header()
	header.Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	header.Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="employee_%d_history.xlsx"`, id))
	if err := exporter.ToWriter(c.Response()); err != nil {
		if !c.Response().Committed {
			header.Del(echo.HeaderContentType)
			header.Del(echo.HeaderContentDisposition)
			return serviceutils.ResponseError(c, http.StatusInternalServerError, "Failed to generate Excel file", err)
		}
		logger.ErrorLog(ctx, "Writing history workbook for employee %d failed: %v", id, err)
		return err
	}
	return nil
}
