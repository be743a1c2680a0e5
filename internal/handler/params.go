package handler

import (
	"fmt"
	"strconv"

	"cloud.google.com/go/civil"
	"github.com/labstack/echo/v4"
	"github.com/locvowork/employee_records/internal/domain"
)

func intParam(c echo.Context, name string) (int, error) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", domain.ErrValidationFailed, name, c.Param(name))
	}
	return v, nil
}

func dateParam(c echo.Context, name string) (civil.Date, error) {
	d, err := civil.ParseDate(c.Param(name))
	if err != nil {
		return civil.Date{}, fmt.Errorf("%w: %s must be a date (YYYY-MM-DD), got %q", domain.ErrValidationFailed, name, c.Param(name))
	}
	return d, nil
}

// bindAndValidate decodes the body into req and runs the struct tags.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	return c.Validate(req)
}
