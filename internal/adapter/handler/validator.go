package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// RequestValidator adapts go-playground/validator to echo's Validator
// interface. Field names in error messages follow the JSON tags.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator creates the validator used for all request bodies.
func NewRequestValidator() *RequestValidator {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{validate: validate}
}

// Validate implements echo.Validator.
func (v *RequestValidator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		return echo.NewHTTPError(http.StatusBadRequest,
			"invalid request: "+strings.Join(fields, ", "))
	}
	return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
}
