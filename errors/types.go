package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigNotFound   ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    ErrorCode = "CONFIG_INVALID"
	ErrCodeConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// State container errors
	ErrCodeMalformedAction ErrorCode = "MALFORMED_ACTION"
	ErrCodeStoreClosed     ErrorCode = "STORE_CLOSED"

	// Remote API errors
	ErrCodeHTTPStatus   ErrorCode = "HTTP_STATUS"
	ErrCodeTransport    ErrorCode = "TRANSPORT"
	ErrCodeDecode       ErrorCode = "DECODE"
	ErrCodePartialFetch ErrorCode = "PARTIAL_FETCH"

	// Form errors
	ErrCodeValidation ErrorCode = "VALIDATION"
	ErrCodeWizardDone ErrorCode = "WIZARD_DONE"

	// General errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Error represents a structured error with context
type Error struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	// Body holds the structured error body returned by the remote API, if any.
	Body  map[string]interface{} `json:"body,omitempty"`
	Cause error                  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithBody attaches a structured response body
func (e *Error) WithBody(body map[string]interface{}) *Error {
	e.Body = body
	return e
}

// ToJSON converts the error to JSON
func (e *Error) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new Error
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an Error
func Wrap(err error, code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	for err != nil {
		if kitErr, ok := err.(*Error); ok {
			return kitErr, true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = unwrapper.Unwrap()
	}
	return nil, false
}

// Is checks if an error is a specific Error code
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	kitErr, ok := err.(*Error)
	if !ok {
		// Try to unwrap
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return Is(unwrapper.Unwrap(), code)
		}
		return false
	}

	if kitErr.Code == code {
		return true
	}
	return kitErr.Cause != nil && Is(kitErr.Cause, code)
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	kitErr, ok := As(err)
	if !ok {
		return ""
	}
	return kitErr.Code
}

// UserMessages returns the messages to show for a failed request: the body's
// "errors" list when present, else its "error" string, else the error text.
func UserMessages(err error) []string {
	if err == nil {
		return nil
	}
	kitErr, ok := As(err)
	if !ok {
		return []string{err.Error()}
	}

	if kitErr.Body != nil {
		if list, ok := kitErr.Body["errors"].([]interface{}); ok && len(list) > 0 {
			messages := make([]string, 0, len(list))
			for _, item := range list {
				messages = append(messages, fmt.Sprintf("%v", item))
			}
			return messages
		}
		if list, ok := kitErr.Body["errors"].([]string); ok && len(list) > 0 {
			return append([]string(nil), list...)
		}
		if msg, ok := kitErr.Body["error"].(string); ok && msg != "" {
			return []string{msg}
		}
	}
	return []string{kitErr.Message}
}
