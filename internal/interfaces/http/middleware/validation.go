package middleware

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gcs/crm/internal/domain/shared/valueobject"
	"github.com/gcs/crm/internal/domain/trade"
	"github.com/gcs/crm/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Custom validation tags
const (
	// TagInvoiceStatus accepts the invoice status names
	TagInvoiceStatus = "invoice_status"
	// TagDecimalString accepts plain decimals that fit a DECIMAL(18,4) column
	TagDecimalString = "decimal_string"
)

var setupOnce sync.Once

// SetupValidator registers the custom rules on gin's validator and
// reports fields by their json (or form) names. Safe to call repeatedly.
func SetupValidator() error {
	var err error
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		v.RegisterTagNameFunc(fieldName)
		if err = v.RegisterValidation(TagInvoiceStatus, validateInvoiceStatus); err != nil {
			return
		}
		err = v.RegisterValidation(TagDecimalString, validateDecimalString)
	})
	return err
}

func fieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
	}
	return name
}

func validateInvoiceStatus(fl validator.FieldLevel) bool {
	_, err := trade.ParseInvoiceStatus(fl.Field().String())
	return err == nil
}

func validateDecimalString(fl validator.FieldLevel) bool {
	_, err := valueobject.ParseAmount(fl.Field().String())
	return err == nil
}

// ValidationDetails converts binding errors to per-field details.
// Errors that are not field validation failures yield a single "body" detail.
func ValidationDetails(err error) []dto.ValidationDetail {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []dto.ValidationDetail{{Field: "body", Message: "Malformed request body"}}
	}

	details := make([]dto.ValidationDetail, 0, len(validationErrors))
	for _, e := range validationErrors {
		details = append(details, dto.ValidationDetail{
			Field:   e.Field(),
			Message: getValidationMessage(e),
		})
	}
	return details
}

// FormatValidationErrors formats binding errors into a standard response
func FormatValidationErrors(err error, requestID string) dto.Response {
	return dto.NewValidationErrorResponse("Request validation failed", requestID, ValidationDetails(err))
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "datetime":
		return "Must be a date formatted as YYYY-MM-DD"
	case TagInvoiceStatus:
		names := make([]string, 0, len(trade.AllInvoiceStatuses()))
		for _, s := range trade.AllInvoiceStatuses() {
			names = append(names, s.String())
		}
		return "Must be one of: " + strings.Join(names, ", ")
	case TagDecimalString:
		return "Must be a decimal number with at most 14 integer digits and 4 decimal places"
	default:
		return "Invalid value"
	}
}
