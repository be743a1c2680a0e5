// Package serviceutils holds the JSON envelopes shared by every handler.
package serviceutils

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/locvowork/employee_records/internal/domain"
	"github.com/locvowork/employee_records/internal/logger"
)

// Error codes carried in ErrorBody.ErrorCode.
const (
	CodeNotFound          = "RESOURCE_NOT_FOUND"
	CodeAlreadyExists     = "RESOURCE_ALREADY_EXIST"
	CodeNoCurrentRecord   = "NO_CURRENT_RECORD"
	CodeAmbiguous         = "AMBIGUOUS_CURRENT_STATE"
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeMalformedRequest  = "MALFORMED_JSON"
	CodeInternalError     = "INTERNAL_SERVER_ERROR"
	internalErrorResponse = "An unexpected error occurred"
)

// Response is the success envelope.
type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// ErrorBody is the failure envelope.
type ErrorBody struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Error     string            `json:"error"`
	ErrorCode string            `json:"error_code"`
	Path      string            `json:"path"`
	Timestamp int64             `json:"timestamp"`
	Details   map[string]string `json:"details,omitempty"`
}

func ResponseSuccess(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, Response{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	})
}

// ResponseError writes an error envelope with an explicit status.
func ResponseError(c echo.Context, status int, message string, err error) error {
	body := ErrorBody{
		Success:   false,
		Message:   message,
		Error:     http.StatusText(status),
		ErrorCode: codeFor(status, err),
		Path:      c.Request().URL.Path,
		Timestamp: time.Now().UnixMilli(),
	}

	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		body.Details = make(map[string]string, len(verrs))
		for _, fe := range verrs {
			body.Details[fe.Field()] = describe(fe)
		}
	case status >= http.StatusInternalServerError:
		logger.ErrorLog(c.Request().Context(), "%s %s failed: %v", c.Request().Method, c.Path(), err)
		body.Message = internalErrorResponse
	case err != nil:
		body.Message = message + ": " + err.Error()
	}
	return c.JSON(status, body)
}

// Fail writes an error envelope with the status derived from err.
func Fail(c echo.Context, message string, err error) error {
	return ResponseError(c, StatusFromError(err), message, err)
}

// StatusFromError maps domain and request errors onto HTTP statuses.
func StatusFromError(err error) int {
	var verrs validator.ValidationErrors
	var httpErr *echo.HTTPError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNoCurrentRecord):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrAmbiguousCurrentState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidationFailed), errors.As(err, &verrs):
		return http.StatusBadRequest
	case errors.As(err, &httpErr):
		return httpErr.Code
	default:
		return http.StatusInternalServerError
	}
}

func codeFor(status int, err error) string {
	var verrs validator.ValidationErrors
	var httpErr *echo.HTTPError
	switch {
	case errors.Is(err, domain.ErrNoCurrentRecord):
		return CodeNoCurrentRecord
	case errors.Is(err, domain.ErrAmbiguousCurrentState):
		return CodeAmbiguous
	case errors.Is(err, domain.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, domain.ErrAlreadyExists):
		return CodeAlreadyExists
	case errors.Is(err, domain.ErrValidationFailed), errors.As(err, &verrs):
		return CodeValidationFailed
	case errors.As(err, &httpErr) && httpErr.Code == http.StatusBadRequest:
		return CodeMalformedRequest
	}
	switch {
	case status == http.StatusNotFound:
		return CodeNotFound
	case status < http.StatusInternalServerError:
		return CodeValidationFailed
	default:
		return CodeInternalError
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	case "gt", "gte":
		return "must be greater than " + orEqual(fe.Tag()) + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "pastdate":
		return "must be in the past"
	default:
		return "failed on " + fe.Tag()
	}
}

func orEqual(tag string) string {
	if tag == "gte" {
		return "or equal to "
	}
	return ""
}
