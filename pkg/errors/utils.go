package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// As returns the outermost *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is reports whether any *Error in err's chain carries code.
func Is(err error, code Code) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code.Equals(code) {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// GetCode returns the code of the outermost *Error in err's chain, or "".
func GetCode(err error) string {
	if e, ok := As(err); ok {
		return e.Code.String()
	}
	return ""
}

func GetContext(err error) map[string]string {
	if e, ok := As(err); ok {
		return e.Context
	}
	return nil
}

// FormatError renders err over several lines for CLI output.
func FormatError(err error) string {
	e, ok := As(err)
	if !ok {
		return err.Error()
	}

	parts := []string{
		fmt.Sprintf("Code: %s", e.Code),
		fmt.Sprintf("Message: %s", e.Message),
	}
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts = append(parts, "Context:")
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("  %s: %s", k, e.Context[k]))
		}
	}
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("Cause: %v", e.Cause))
	}
	return strings.Join(parts, "\n")
}

// AsError converts any error to *Error, wrapping foreign errors as common.internal.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		return e
	}
	return New(CommonInternal, err.Error(), err)
}
