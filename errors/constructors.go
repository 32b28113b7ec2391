package errors

import (
	"fmt"
	"strings"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *Error {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *Error {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// MalformedAction creates an error for an action missing its payload field
func MalformedAction(actionType, field string) *Error {
	return New(ErrCodeMalformedAction,
		fmt.Sprintf("action %s dispatched without a usable %s", actionType, field)).
		WithDetail("type", actionType).
		WithDetail("field", field)
}

// StoreClosed creates an error for a dispatch against a stopped store
func StoreClosed() *Error {
	return New(ErrCodeStoreClosed, "store is not running")
}

// HTTPStatus creates an error for a non-2xx API response
func HTTPStatus(method, url string, status int, body map[string]interface{}) *Error {
	message := fmt.Sprintf("%s %s returned status %d", method, url, status)
	if body != nil {
		if msg, ok := body["error"].(string); ok && msg != "" {
			message = msg
		} else if msg, ok := body["message"].(string); ok && msg != "" {
			message = msg
		}
	}
	return New(ErrCodeHTTPStatus, message).
		WithDetail("method", method).
		WithDetail("url", url).
		WithDetail("status", status).
		WithBody(body)
}

// Transport creates an error for a request that got no response
func Transport(method, url string, err error) *Error {
	return Wrap(err, ErrCodeTransport, fmt.Sprintf("%s %s failed: %v", method, url, err)).
		WithDetail("method", method).
		WithDetail("url", url)
}

// Decode creates an error for a response body that is not valid JSON
func Decode(url string, err error) *Error {
	return Wrap(err, ErrCodeDecode, fmt.Sprintf("could not parse response from %s", url)).
		WithDetail("url", url)
}

// Validation creates a form validation error keyed by field
func Validation(fieldErrors map[string]string) *Error {
	return New(ErrCodeValidation, fmt.Sprintf("%d field(s) failed validation", len(fieldErrors))).
		WithDetail("fields", fieldErrors)
}

// PartialFetch collapses the failures of a fan-out fetch into one error
func PartialFetch(failures []string) *Error {
	return New(ErrCodePartialFetch, strings.Join(failures, ", ")).
		WithDetail("failed", len(failures))
}
