package handler

import (
	"reflect"

	"cloud.google.com/go/civil"
	"github.com/go-playground/validator/v10"
)

// CustomValidator plugs go-playground/validator into echo.
type CustomValidator struct {
	validator *validator.Validate
	today     func() civil.Date
}

// NewValidator registers civil.Date as a string-like type and the
// "pastdate" tag, which compares against today.
func NewValidator(today func() civil.Date) *CustomValidator {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		d, ok := field.Interface().(civil.Date)
		if !ok || d.IsZero() {
			return ""
		}
		return d.String()
	}, civil.Date{})

	cv := &CustomValidator{validator: v, today: today}
	_ = v.RegisterValidation("pastdate", cv.pastDate)
	return cv
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func (cv *CustomValidator) pastDate(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return false
	}
	return d.Before(cv.today())
}
