package template

import "fmt"

// EvalError aborts rendering of a whole template.
type EvalError struct {
	Message string
}

func (e *EvalError) Error() string {
	return e.Message
}

// LookupError is a missing key or attribute. Its span renders as None.
type LookupError struct {
	Key string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("key %q not found", e.Key)
}

func evalErrorf(format string, args ...any) *EvalError {
	return &EvalError{Message: fmt.Sprintf(format, args...)}
}
