package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents different categories of errors
type ErrorCode string

const (
	// ErrCodeValidation indicates input validation errors
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeEncoding indicates ABI argument encoding errors
	ErrCodeEncoding ErrorCode = "ENCODING"

	// ErrCodeLookup indicates a missing or ambiguous ABI function
	ErrCodeLookup ErrorCode = "LOOKUP"

	// ErrCodeTransaction indicates a transaction rejected by the engine
	ErrCodeTransaction ErrorCode = "TRANSACTION"

	// ErrCodeSandbox indicates sandbox lifecycle errors
	ErrCodeSandbox ErrorCode = "SANDBOX"

	// ErrCodeDatabase indicates journal database errors
	ErrCodeDatabase ErrorCode = "DATABASE"

	// ErrCodeTimeout indicates timeout errors
	ErrCodeTimeout ErrorCode = "TIMEOUT"

	// ErrCodeInternal indicates internal system errors
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// Severity represents the severity level of an error
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityInfo     Severity = "INFO"
)

// WorkspaceError is an error raised by a workspace component (sandbox, engine,
// journal, runner).
type WorkspaceError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Component string                 `json:"component,omitempty"`
	Severity  Severity               `json:"severity"`
	Cause     error                  `json:"-"`
	Context   map[string]interface{} `json:"context,omitempty"`
}

// NewWorkspaceError creates a new WorkspaceError
func NewWorkspaceError(code ErrorCode, component, message string, cause error) *WorkspaceError {
	return &WorkspaceError{
		Code:      code,
		Message:   message,
		Component: component,
		Severity:  determineSeverity(code),
		Cause:     cause,
		Context:   make(map[string]interface{}),
	}
}

// Error implements the error interface
func (e *WorkspaceError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Component != "" {
		return fmt.Sprintf("[%s:%s] %s", e.Component, e.Code, msg)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying cause
func (e *WorkspaceError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *WorkspaceError) WithContext(key string, value interface{}) *WorkspaceError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// IsRetryable returns true if the error is retryable
func (e *WorkspaceError) IsRetryable() bool {
	switch e.Code {
	case ErrCodeTimeout:
		return true
	case ErrCodeDatabase:
		return e.Severity != SeverityCritical
	default:
		return false
	}
}

func determineSeverity(code ErrorCode) Severity {
	switch code {
	case ErrCodeInternal:
		return SeverityCritical
	case ErrCodeDatabase, ErrCodeSandbox:
		return SeverityHigh
	case ErrCodeTransaction, ErrCodeTimeout:
		return SeverityMedium
	case ErrCodeValidation, ErrCodeEncoding, ErrCodeLookup:
		return SeverityLow
	default:
		return SeverityInfo
	}
}

// EncodingError reports arguments that do not match the declared ABI parameters
// of a function or constructor. It is always a caller bug and never retried.
type EncodingError struct {
	// Target is the constructor or canonical function signature being encoded.
	Target string
	// Expected and Actual are argument counts; both zero when the count matched
	// and a single value failed to type-check.
	Expected int
	Actual   int
	// Param names the offending parameter ("#<index> <type>") on a type mismatch.
	Param string
	Cause error
}

func (e *EncodingError) Error() string {
	switch {
	case e.Param != "" && e.Cause != nil:
		return fmt.Sprintf("encoding %s: parameter %s: %v", e.Target, e.Param, e.Cause)
	case e.Expected != e.Actual:
		return fmt.Sprintf("encoding %s: expected %d arguments, got %d", e.Target, e.Expected, e.Actual)
	case e.Cause != nil:
		return fmt.Sprintf("encoding %s: %v", e.Target, e.Cause)
	default:
		return fmt.Sprintf("encoding %s: invalid arguments", e.Target)
	}
}

func (e *EncodingError) Unwrap() error {
	return e.Cause
}

// LookupError reports a function name that is absent from, or ambiguous in, a
// contract interface.
type LookupError struct {
	Name string
	// Candidates lists the canonical signatures sharing Name when ambiguous.
	Candidates []string
}

func (e *LookupError) Error() string {
	if len(e.Candidates) > 1 {
		return fmt.Sprintf("function %q is ambiguous: %s", e.Name, strings.Join(e.Candidates, ", "))
	}
	return fmt.Sprintf("function %q not found", e.Name)
}

// Ambiguous reports whether the lookup matched more than one function.
func (e *LookupError) Ambiguous() bool {
	return len(e.Candidates) > 1
}

// ErrorGroup collects independent failures, such as every invalid field of a
// config, into one error.
type ErrorGroup struct {
	Errors []error
}

// NewErrorGroup creates a new error group
func NewErrorGroup() *ErrorGroup {
	return &ErrorGroup{
		Errors: make([]error, 0),
	}
}

// Add adds an error to the group
func (eg *ErrorGroup) Add(err error) {
	if err != nil {
		eg.Errors = append(eg.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (eg *ErrorGroup) HasErrors() bool {
	return len(eg.Errors) > 0
}

// Error implements the error interface
func (eg *ErrorGroup) Error() string {
	if len(eg.Errors) == 0 {
		return ""
	}
	if len(eg.Errors) == 1 {
		return eg.Errors[0].Error()
	}
	msgs := make([]string, len(eg.Errors))
	for i, err := range eg.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d errors occurred: %s", len(eg.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (eg *ErrorGroup) Unwrap() []error {
	return eg.Errors
}

// ErrOrNil returns the group as an error, or nil when it is empty.
func (eg *ErrorGroup) ErrOrNil() error {
	if !eg.HasErrors() {
		return nil
	}
	return eg
}

// NewValidationError creates a validation error
func NewValidationError(component, message string) *WorkspaceError {
	return NewWorkspaceError(ErrCodeValidation, component, message, nil)
}

// NewTransactionError creates a transaction error
func NewTransactionError(component, message string, cause error) *WorkspaceError {
	return NewWorkspaceError(ErrCodeTransaction, component, message, cause)
}

// NewSandboxError creates a sandbox error
func NewSandboxError(message string, cause error) *WorkspaceError {
	return NewWorkspaceError(ErrCodeSandbox, "sandbox", message, cause)
}

// NewInternalError creates an internal error
func NewInternalError(component, message string, cause error) *WorkspaceError {
	return NewWorkspaceError(ErrCodeInternal, component, message, cause)
}
