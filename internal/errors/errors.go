package errors

import (
	"errors"
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// HasCode reports whether err (or anything it wraps) carries the code
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode returns the error code if it's an AppError, otherwise "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Error codes. The first four mirror the pipeline's error taxonomy:
// per-person data problems are isolated and reported on the person's
// result; leakage and missing-model conditions abort the run.
const (
	CodeInsufficientData   = "INSUFFICIENT_DATA"
	CodeUndefinedStatistic = "UNDEFINED_STATISTIC"
	CodeLeakageViolation   = "LEAKAGE_VIOLATION"
	CodeModelNotTrained    = "MODEL_NOT_TRAINED"
	CodeConfigInvalid      = "CONFIG_INVALID"
	CodeTemplateUnsafe     = "TEMPLATE_UNSAFE"
	CodeDataSourceError    = "DATA_SOURCE_ERROR"
	CodeDatabaseError      = "DATABASE_ERROR"
	CodeInternalError      = "INTERNAL_ERROR"
)

// Common error constructors

func InsufficientData(personID string) *AppError {
	return New(CodeInsufficientData, fmt.Sprintf("person %s has no valid baseline observations", personID))
}

func UndefinedStatistic(message string) *AppError {
	return New(CodeUndefinedStatistic, message)
}

// LeakageViolation is fatal: a training feature referenced a wave at or
// past the target wave, or an excluded outcome proxy leaked into inputs.
func LeakageViolation(message string) *AppError {
	return New(CodeLeakageViolation, message)
}

// ModelNotTrained is fatal: inference was requested with no model present
func ModelNotTrained() *AppError {
	return New(CodeModelNotTrained, "inference requested before any model was trained")
}

func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func TemplateUnsafe(message string) *AppError {
	return New(CodeTemplateUnsafe, message)
}

func DataSourceError(message string, cause error) *AppError {
	return &AppError{Code: CodeDataSourceError, Message: message, Cause: cause}
}

func DatabaseError(message string) *AppError {
	return New(CodeDatabaseError, message)
}
