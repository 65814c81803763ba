package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Error   string            `json:"error"`             // Error message
	Details map[string]string `json:"details,omitempty"` // Validation details
}

// ValidationHelper provides shared validation functionality
type ValidationHelper struct {
	validator *validator.Validate
}

// NewValidationHelper creates a new validation helper. Decimal fields are
// validated through their float value so numeric tags such as gt=0 apply.
func NewValidationHelper() *ValidationHelper {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterValidation("cents", validateCents)

	return &ValidationHelper{validator: v}
}

// centsPlaces is the precision balances are stored at
const centsPlaces = 2

// validateCents rejects decimals with more than two significant fractional
// digits. The custom type func hands tags a float64, so the original
// decimal is read back from the parent struct.
func validateCents(fl validator.FieldLevel) bool {
	parent := fl.Parent()
	for parent.Kind() == reflect.Ptr {
		if parent.IsNil() {
			return true
		}
		parent = parent.Elem()
	}
	if parent.Kind() != reflect.Struct {
		return true
	}

	field := parent.FieldByName(fl.StructFieldName())
	for field.IsValid() && field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return true
		}
		field = field.Elem()
	}
	if !field.IsValid() {
		return true
	}

	d, ok := field.Interface().(decimal.Decimal)
	if !ok {
		return true
	}
	return d.Round(centsPlaces).Equal(d)
}

// ValidateStruct validates a struct and returns validation errors
func (vh *ValidationHelper) ValidateStruct(s any) error {
	return vh.validator.Struct(s)
}

// Validate is ValidateStruct with failures converted to a *ValidationError
func (vh *ValidationHelper) Validate(s any) error {
	err := vh.validator.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &ValidationError{Fields: map[string]string{"request": err.Error()}}
	}
	return &ValidationError{Fields: fieldDetails(validationErrs)}
}

func fieldDetails(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, err := range errs {
		details[err.Field()] = fmt.Sprintf("Field Validation Failed on '%s' tag", err.Tag())
	}
	return details
}

// SendErrorResponse sends a JSON error response
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResp := ErrorResponse{Error: message}

	var validationErrs validator.ValidationErrors
	var ledgerErr *ValidationError
	switch {
	case errors.As(validationErr, &validationErrs):
		errorResp.Details = fieldDetails(validationErrs)
	case errors.As(validationErr, &ledgerErr):
		errorResp.Details = ledgerErr.Fields
	}

	json.NewEncoder(w).Encode(errorResp)
}
