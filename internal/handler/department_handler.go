package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/employee_records/internal/domain"
	"github.com/locvowork/employee_records/internal/service"
	"github.com/locvowork/employee_records/internal/service/serviceutils"
)

type DepartmentHandler struct {
	svc *service.DepartmentService
}

func NewDepartmentHandler(svc *service.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{svc: svc}
}

func (h *DepartmentHandler) Register(g *echo.Group) {
	g.POST("", h.CreateHandler)
	g.GET("", h.ListHandler)
	g.GET("/search", h.SearchHandler)
	g.GET("/:id", h.GetHandler)
	g.PUT("/:id", h.UpdateHandler)
	g.DELETE("/:id", h.DeleteHandler)
}

func (h *DepartmentHandler) CreateHandler(c echo.Context) error {
	var req DepartmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return serviceutils.Fail(c, "Invalid request body", err)
	}

	dept := domain.Department{DeptNo: req.DeptNo, DeptName: req.DeptName}
	if err := h.svc.Create(c.Request().Context(), &dept); err != nil {
		return serviceutils.Fail(c, "Failed to create department", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusCreated, "Department created successfully", dept)
}

func (h *DepartmentHandler) GetHandler(c echo.Context) error {
	dept, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return serviceutils.Fail(c, "Failed to get department", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Department retrieved successfully", dept)
}

func (h *DepartmentHandler) ListHandler(c echo.Context) error {
	depts, err := h.svc.List(c.Request().Context())
	if err != nil {
		return serviceutils.Fail(c, "Failed to list departments", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Departments listed successfully", depts)
}

func (h *DepartmentHandler) SearchHandler(c echo.Context) error {
	depts, err := h.svc.Search(c.Request().Context(), c.QueryParam("name"))
	if err != nil {
		return serviceutils.Fail(c, "Failed to search departments", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Departments found", depts)
}

func (h *DepartmentHandler) UpdateHandler(c echo.Context) error {
	var req DepartmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return serviceutils.Fail(c, "Invalid request body", err)
	}

	dept := domain.Department{DeptNo: c.Param("id"), DeptName: req.DeptName}
	if err := h.svc.Update(c.Request().Context(), &dept); err != nil {
		return serviceutils.Fail(c, "Failed to update department", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Department updated successfully", dept)
}

func (h *DepartmentHandler) DeleteHandler(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return serviceutils.Fail(c, "Failed to delete department", err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Department deleted successfully", nil)
}
