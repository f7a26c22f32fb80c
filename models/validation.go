package models

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kishan2613/Sarthi/apperror"
)

// DateLayout is the canonical calendar-day format for slots and visits.
const DateLayout = "2006-01-02"

var (
	mobilePattern  = regexp.MustCompile(`^(\+91[\-\s]?)?[6-9]\d{9}$`)
	aadhaarPattern = regexp.MustCompile(`^\d{12}$`)
	aadhaarStrip   = strings.NewReplacer(" ", "", "-", "")
)

// Validate is the shared validator with the domain tags registered.
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("inmobile", func(fl validator.FieldLevel) bool {
		return IsValidMobile(fl.Field().String())
	})
	_ = v.RegisterValidation("aadhaar", func(fl validator.FieldLevel) bool {
		_, ok := NormalizeAadhaar(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := NormalizeDate(fl.Field().String())
		return err == nil
	})
	return v
}

// IsValidMobile checks a regional mobile number, optionally +91 prefixed.
func IsValidMobile(phone string) bool {
	return mobilePattern.MatchString(strings.TrimSpace(phone))
}

// NormalizeAadhaar strips spaces and hyphens and checks for 12 digits.
func NormalizeAadhaar(raw string) (string, bool) {
	digits := aadhaarStrip.Replace(strings.TrimSpace(raw))
	return digits, aadhaarPattern.MatchString(digits)
}

// NormalizeDate accepts YYYY-MM-DD or RFC3339 and returns YYYY-MM-DD.
func NormalizeDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if d, err := time.Parse(DateLayout, raw); err == nil {
		return d.Format(DateLayout), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return "", fmt.Errorf("date %q is not YYYY-MM-DD", raw)
	}
	return t.Format(DateLayout), nil
}

// ValidateStruct runs the validator and folds failures into one
// VALIDATION_ERROR naming every offending field.
func ValidateStruct(v any) error {
	err := Validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Wrap(err, apperror.CodeValidation, "invalid request")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return apperror.Validation(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), rootNamespace(fe))
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "inmobile":
		return field + " must be a valid 10 digit mobile number"
	case "aadhaar":
		return field + " must contain 12 digits"
	case "isodate":
		return field + " must be a date in YYYY-MM-DD format"
	case "email":
		return field + " must be a valid email address"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}

func rootNamespace(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[:i+1]
	}
	return ""
}
