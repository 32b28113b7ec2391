package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/grovetools/seqrkit/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates a new error handler writing to stderr
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		Out:     os.Stderr,
	}
}

// Handle prints a message and, where one exists, a hint for the error code.
// The error is returned unchanged.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}

	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(h.Out, "Error: configuration not found\n")
		fmt.Fprintf(h.Out, "Create seqrkit.yml or pass --config.\n")

	case errors.ErrCodeConfigInvalid, errors.ErrCodeConfigValidation:
		fmt.Fprintf(h.Out, "Error: %v\n", err)
		fmt.Fprintf(h.Out, "Run 'seqrkit config schema' to see the accepted settings.\n")

	case errors.ErrCodeTransport:
		fmt.Fprintf(h.Out, "Error: %v\n", err)
		fmt.Fprintf(h.Out, "Check api.base_url and that the server is reachable.\n")

	case errors.ErrCodeHTTPStatus, errors.ErrCodePartialFetch:
		fmt.Fprintf(h.Out, "Error: %s\n", strings.Join(errors.UserMessages(err), ", "))

	case errors.ErrCodeValidation:
		fmt.Fprintf(h.Out, "Error: %v\n", err)
		if kitErr, ok := errors.As(err); ok {
			if fields, ok := kitErr.Details["fields"].(map[string]string); ok {
				for _, name := range sortedKeys(fields) {
					fmt.Fprintf(h.Out, "  %s: %s\n", name, fields[name])
				}
			}
		}

	default:
		fmt.Fprintf(h.Out, "Error: %v\n", err)
	}

	if h.Verbose {
		if kitErr, ok := errors.As(err); ok {
			fmt.Fprintf(h.Out, "\nError details:\n%s\n", kitErr.ToJSON())
		}
	}
	return err
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
