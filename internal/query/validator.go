// Package query validates and normalizes caller-supplied analytics parameters.
// Validation is pure: no I/O, and it always runs before any cache lookup or
// data-store fetch.
package query

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationError is a terminal, caller-facing parameter failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report fields by their query-string name.
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// messages maps field name and failed tag to the caller-facing message.
var messages = map[string]map[string]string{
	"period": {
		"oneof": "Invalid period. Must be one of: " + strings.Join(Periods, ", "),
	},
	"start_date": {
		"datetime": "Invalid start_date. Expected format YYYY-MM-DD",
	},
	"end_date": {
		"datetime": "Invalid end_date. Expected format YYYY-MM-DD",
	},
	"page": {
		"gte": "Page must be at least 1",
		"lte": fmt.Sprintf("Page cannot exceed %d", MaxPage),
	},
	"limit": {
		"gte": "Limit must be at least 1",
		"lte": fmt.Sprintf("Limit cannot exceed %d", MaxLimit),
	},
	"sort_by": {
		"oneof": "Invalid sort_by. Must be one of: " + strings.Join(SortFields, ", "),
	},
	"sort_order": {
		"oneof": "Invalid sort_order. Must be one of: asc, desc",
	},
	"status": {
		"oneof": "Invalid status. Must be one of: " + strings.Join(PartnerStatuses, ", "),
	},
	"category": {
		"max": "Category must be at most 64 characters",
	},
}

// check runs struct validation and converts the first failure.
func check(s any) *ValidationError {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return invalid("unknown", "%s", err.Error())
	}

	fe := fieldErrs[0]
	if msg, ok := messages[fe.Field()][fe.Tag()]; ok {
		return &ValidationError{Field: fe.Field(), Message: msg}
	}
	return invalid(fe.Field(), "Invalid %s", fe.Field())
}
