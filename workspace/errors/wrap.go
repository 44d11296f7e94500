package errors

import (
	"errors"
	"strings"
)

// WrapError wraps an error as a WorkspaceError if it isn't already one
func WrapError(err error, code ErrorCode, component, message string) *WorkspaceError {
	if err == nil {
		return nil
	}

	var wsErr *WorkspaceError
	if errors.As(err, &wsErr) {
		wsErr.WithContext("wrapped_message", message)
		if component != "" && wsErr.Component == "" {
			wsErr.Component = component
		}
		return wsErr
	}

	return NewWorkspaceError(code, component, message, err)
}

// As checks if an error can be assigned to a target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// IsCode checks if an error is a WorkspaceError with specific code. Encoding
// and lookup errors match ErrCodeEncoding and ErrCodeLookup.
func IsCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	var encErr *EncodingError
	if errors.As(err, &encErr) {
		return code == ErrCodeEncoding
	}
	var lookupErr *LookupError
	if errors.As(err, &lookupErr) {
		return code == ErrCodeLookup
	}
	var wsErr *WorkspaceError
	if errors.As(err, &wsErr) {
		return wsErr.Code == code
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var wsErr *WorkspaceError
	if errors.As(err, &wsErr) {
		return wsErr.IsRetryable()
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"database is locked",
		"timeout",
		"temporary failure",
	}
	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// GetSeverity returns the severity of an error
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityInfo
	}

	var wsErr *WorkspaceError
	if errors.As(err, &wsErr) {
		return wsErr.Severity
	}
	if IsCode(err, ErrCodeEncoding) || IsCode(err, ErrCodeLookup) {
		return SeverityLow
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "panic"), strings.Contains(errStr, "fatal"):
		return SeverityCritical
	case strings.Contains(errStr, "failed"), strings.Contains(errStr, "error"):
		return SeverityHigh
	case strings.Contains(errStr, "warning"):
		return SeverityMedium
	}
	return SeverityLow
}
