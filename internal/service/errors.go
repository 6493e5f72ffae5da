package service

import (
	"errors"
	"fmt"
)

var (
	ErrStreamNotFound       = errors.New("stream session not found")
	ErrPolicyDenied         = errors.New("tool call denied by policy")
	ErrFunctionsUnavailable = errors.New("file function is not configured")
)

// ValidationError is a request that cannot be served as given.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// RemoteError is a failure reported by the file function itself.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return "remote function reported failure"
	}
	return e.Message
}

// FunctionStatusError is a function invocation that did not return 200.
type FunctionStatusError struct {
	StatusCode    int32
	FunctionError string
}

func (e *FunctionStatusError) Error() string {
	if e.FunctionError != "" {
		return fmt.Sprintf("Lambda invocation failed with status: %d (%s)", e.StatusCode, e.FunctionError)
	}
	return fmt.Sprintf("Lambda invocation failed with status: %d", e.StatusCode)
}
