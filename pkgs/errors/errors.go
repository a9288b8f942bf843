// Package errors defines the engine's cross-package error taxonomy: a
// single structured error type carrying a Kind, a message, an optional
// cause, and free-form context, plus constructors for the command-not-found,
// builtin-exception, unsupported-redirect-object and recursion-depth kinds.
package errors

import (
	"fmt"
)

// Kind categorizes a ShellError.
const (
	KindLex                   = "LEX_ERROR"
	KindParse                 = "PARSE_ERROR"
	KindPermission            = "PERMISSION_ERROR"
	KindPath                  = "PATH_ERROR"
	KindIO                    = "IO_ERROR"
	KindCommandNotFound       = "COMMAND_NOT_FOUND"
	KindBuiltinException      = "BUILTIN_EXCEPTION"
	KindUnsupportedRedirectObj = "UNSUPPORTED_REDIRECT_OBJECT"
	KindRecursion             = "RECURSION_DEPTH_EXCEEDED"
)

// ShellError is the structured error the interpreter raises for its own
// failures. The lexer, parser and vfsys packages return their own error
// types instead.
type ShellError struct {
	Kind    string
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *ShellError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ShellError) Unwrap() error { return e.Cause }

// New creates a ShellError with no cause.
func New(kind, message string) *ShellError {
	return &ShellError{Kind: kind, Message: message, Context: make(map[string]interface{})}
}

// Wrap creates a ShellError wrapping an existing error.
func Wrap(kind, message string, cause error) *ShellError {
	return &ShellError{Kind: kind, Message: message, Cause: cause, Context: make(map[string]interface{})}
}

// WithContext attaches a key/value pair and returns the receiver for chaining.
func (e *ShellError) WithContext(key string, value interface{}) *ShellError {
	e.Context[key] = value
	return e
}

// GetContext returns a previously attached context value by key.
func (e *ShellError) GetContext(key string) (interface{}, bool) {
	value, exists := e.Context[key]
	return value, exists
}

// NewCommandNotFoundError builds the exit-127 error for a missing
// command name.
func NewCommandNotFoundError(name string) *ShellError {
	return New(KindCommandNotFound, fmt.Sprintf("%s: command not found", name)).
		WithContext("command", name)
}

// NewBuiltinExceptionError wraps an error returned from a Builtin's Run
// method into the exit-code-1 exception form.
func NewBuiltinExceptionError(name string, cause error) *ShellError {
	return Wrap(KindBuiltinException, fmt.Sprintf("%s: %v", name, cause), cause).
		WithContext("command", name)
}

// NewUnsupportedRedirectObjectError reports a host-supplied redirect object
// of a kind the requested direction cannot use.
func NewUnsupportedRedirectObjectError(marker string, kind string) *ShellError {
	return New(KindUnsupportedRedirectObj, fmt.Sprintf("redirect object %q is not usable as a %s", marker, kind)).
		WithContext("marker", marker).
		WithContext("kind", kind)
}

// NewRecursionError reports that command-substitution nesting exceeded
// engine.Config.MaxSubstitutionDepth.
func NewRecursionError(depth, limit int) *ShellError {
	return New(KindRecursion, fmt.Sprintf("command substitution nesting depth %d exceeds limit %d", depth, limit)).
		WithContext("depth", depth).
		WithContext("limit", limit)
}

// IsKind reports whether err is a *ShellError of the given kind.
func IsKind(err error, kind string) bool {
	if se, ok := err.(*ShellError); ok {
		return se.Kind == kind
	}
	return false
}
