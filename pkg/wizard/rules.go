package wizard

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// fieldValidate checks field values and definition structs.
var fieldValidate *validator.Validate

func init() {
	fieldValidate = validator.New()
	_ = fieldValidate.RegisterValidation("bucketpath", validateBucketPath)
}

// validateBucketPath accepts cloud storage object paths (gs:// or s3://).
func validateBucketPath(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	for _, prefix := range []string{"gs://", "s3://"} {
		if strings.HasPrefix(s, prefix) && len(s) > len(prefix) {
			return true
		}
	}
	return false
}

// checkRules runs a validator tag string against one value and returns the
// first failure as a user-facing message. An absent value only fails rules
// that start with required.
func checkRules(value any, rules string) string {
	if rules == "" {
		return ""
	}
	if value == nil && !strings.HasPrefix(strings.TrimSpace(rules), "required") {
		return ""
	}
	err := fieldValidate.Var(value, rules)
	if err == nil {
		return ""
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		return ruleMessage(verrs[0])
	}
	return err.Error()
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Required"
	case "bucketpath":
		return "Must be a gs:// or s3:// path"
	case "email":
		return "Must be a valid email address"
	case "url":
		return "Must be a valid URL"
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", strings.Join(strings.Fields(fe.Param()), ", "))
	case "min":
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("Failed %s validation", fe.Tag())
	}
}
