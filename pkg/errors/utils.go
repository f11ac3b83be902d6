package errors

import (
	"fmt"
	"strings"
)

// Helper to check if an error is of our Error type
func IsDriverError(err error) bool {
	_, ok := err.(*Error)
	return ok
}

// Helper to extract context from our errors
func GetContext(err error) map[string]string {
	if driverErr, ok := err.(*Error); ok {
		return driverErr.Context
	}
	return nil
}

// Helper to get error code
func GetCode(err error) string {
	if driverErr, ok := err.(*Error); ok {
		return driverErr.Code.String()
	}
	return ""
}

// Helper to format error for logging
func FormatError(err error) string {
	if driverErr, ok := err.(*Error); ok {
		var parts []string
		parts = append(parts, fmt.Sprintf("Code: %s", driverErr.Code))
		parts = append(parts, fmt.Sprintf("Message: %s", driverErr.Message))

		if len(driverErr.Context) > 0 {
			parts = append(parts, "Context:")
			for k, v := range driverErr.Context {
				parts = append(parts, fmt.Sprintf("  %s: %v", k, v))
			}
		}

		if driverErr.Cause != nil {
			parts = append(parts, fmt.Sprintf("Cause: %v", driverErr.Cause))
		}

		return strings.Join(parts, "\n")
	}
	return err.Error()
}

// AsError converts any error to the internal *Error format. Existing *Error
// values pass through; anything else is wrapped as CommonInternal.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}

	if internalErr, ok := err.(*Error); ok {
		return internalErr
	}

	return Wrap(CommonInternal, err, err.Error())
}
