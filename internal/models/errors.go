package models

import "fmt"

// ErrorType represents different categories of errors
type ErrorType int

const (
	ErrNotFound ErrorType = iota
	ErrParse
	ErrTargetExists
	ErrTargetMissing
	ErrWrite
	ErrInvalidConfig
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrNotFound:
		return "NotFound"
	case ErrParse:
		return "ParseError"
	case ErrTargetExists:
		return "TargetExists"
	case ErrTargetMissing:
		return "TargetMissing"
	case ErrWrite:
		return "WriteError"
	case ErrInvalidConfig:
		return "InvalidConfig"
	default:
		return "Unknown"
	}
}

// VendorError represents an error during manifest reading or package
// generation. Path names the offending file or directory when known.
type VendorError struct {
	Type ErrorType
	Path string
	Err  error
}

// Error implements the error interface
func (e *VendorError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Path, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Type, e.Err)
}

// Unwrap returns the wrapped error
func (e *VendorError) Unwrap() error {
	return e.Err
}
