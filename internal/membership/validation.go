package membership

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// inputValidator returns the shared validator with the custom rules registered.
func inputValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return field.Name
			}
			return name
		})
		_ = v.RegisterValidation("digits", validateDigits)
		validate = v
	})
	return validate
}

// validateDigits accepts strings made only of ASCII digits, exactly param long when param is set.
func validateDigits(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	if param := fl.Param(); param != "" {
		n, err := strconv.Atoi(param)
		if err != nil {
			return false
		}
		return len(value) == n
	}
	return true
}

// validateStruct runs the tag rules on input and converts failures into a *ValidationError.
func validateStruct(input any) error {
	errValidate := inputValidator().Struct(input)
	if errValidate == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(errValidate, &fieldErrs) {
		return errValidate
	}
	ve := &ValidationError{}
	for _, fe := range fieldErrs {
		ve.Add(fe.Field(), describeFieldError(fe))
	}
	return ve
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "digits":
		if fe.Param() != "" {
			return "must be exactly " + fe.Param() + " digits"
		}
		return "must contain only digits"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gte":
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "url":
		return "must be a valid URL"
	default:
		return "is invalid"
	}
}

// normalizeDigits strips the separators people type into phone and ID numbers.
func normalizeDigits(value string) string {
	value = strings.TrimSpace(value)
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '(', ')':
			return -1
		}
		return r
	}, value)
}

// parseCalendarDate accepts 2006-01-02 or RFC3339 and returns the calendar date at midnight UTC.
func parseCalendarDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return DateOnly(t), nil
}

// optionalString trims value and maps blanks to nil.
func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
