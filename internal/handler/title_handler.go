package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/employee_records/internal/domain"
	"github.com/locvowork/employee_records/internal/service"
	"github.com/locvowork/employee_records/internal/service/serviceutils"
)

type TitleHandler struct {
	svc *service.TemporalService[string]
}

func NewTitleHandler(svc *service.TemporalService[string]) *TitleHandler {
	return &TitleHandler{svc: svc}
}

func (h *TitleHandler) Register(g *echo.Group) {
	g.GET("", h.ListHandler)
	g.POST("", h.CreateHandler)
	g.GET("/search", h.SearchHandler)
	g.GET("/employee/:empNo", h.ListForEmployeeHandler)
	g.GET("/employee/:empNo/current", h.CurrentHandler)
	g.PUT("/:empNo/:fromDate", h.UpdateHandler)
	g.DELETE("/:empNo/:fromDate", h.DeleteHandler)
}

func (h *TitleHandler) ListHandler(c echo.Context) error {
	rows, err := h.svc.List(c.Request().Context())
	if err != nil {
		return serviceutils.Fail(c, "Failed to list titles", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Titles retrieved", mapRows(rows, newTitleResponse))
}

func (h *TitleHandler) SearchHandler(c echo.Context) error {
	title := c.QueryParam("title")
	if title == "" {
		return serviceutils.Fail(c, "Invalid search", fmt.Errorf("%w: title is required", domain.ErrValidationFailed))
	}
	rows, err := h.svc.Search(c.Request().Context(), title)
	if err != nil {
		return serviceutils.Fail(c, "Failed to search titles", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Titles found", mapRows(rows, newTitleResponse))
}

func (h *TitleHandler) ListForEmployeeHandler(c echo.Context) error {
	empNo, err := intParam(c, "empNo")
	if err != nil {
		return serviceutils.Fail(c, "Invalid employee number", err)
	}
	rows, err := h.svc.ListForEmployee(c.Request().Context(), empNo)
	if err != nil {
		return serviceutils.Fail(c, "Failed to list titles", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Titles retrieved", mapRows(rows, newTitleResponse))
}

func (h *TitleHandler) CurrentHandler(c echo.Context) error {
	empNo, err := intParam(c, "empNo")
	if err != nil {
		return serviceutils.Fail(c, "Invalid employee number", err)
	}
	row, err := h.svc.LatestForEmployee(c.Request().Context(), empNo)
	if err != nil {
		return serviceutils.Fail(c, "Failed to get current title", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Current title retrieved", newTitleResponse(*row))
}

func (h *TitleHandler) CreateHandler(c echo.Context) error {
	var req TitleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return serviceutils.Fail(c, "Invalid request body", err)
	}

	row := domain.Title{EmpNo: req.EmpNo, FromDate: req.FromDate, ToDate: req.ToDate, Value: req.Title}
	if err := h.svc.Create(c.Request().Context(), row); err != nil {
		return serviceutils.Fail(c, "Failed to create title", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusCreated, "Title created successfully", newTitleResponse(row))
}

func (h *TitleHandler) UpdateHandler(c echo.Context) error {
	key, err := datedKey(c)
	if err != nil {
		return serviceutils.Fail(c, "Invalid title key", err)
	}
	var req TitleUpdate
	if err := bindAndValidate(c, &req); err != nil {
		return serviceutils.Fail(c, "Invalid request body", err)
	}

	changes := domain.Title{EmpNo: req.EmpNo, FromDate: req.FromDate, ToDate: req.ToDate, Value: req.Title}
	updated, err := h.svc.Update(c.Request().Context(), key, changes)
	if err != nil {
		return serviceutils.Fail(c, "Failed to update title", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Title updated successfully", newTitleResponse(*updated))
}

func (h *TitleHandler) DeleteHandler(c echo.Context) error {
	key, err := datedKey(c)
	if err != nil {
		return serviceutils.Fail(c, "Invalid title key", err)
	}
	if err := h.svc.Delete(c.Request().Context(), key); err != nil {
		return serviceutils.Fail(c, "Failed to delete title", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Title deleted successfully", nil)
}
