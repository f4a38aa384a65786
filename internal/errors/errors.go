// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrNoCalendar            = errors.New("no trading calendar")
	ErrEmptyUniverse         = errors.New("empty ticker universe")
	ErrConfigInvalid         = errors.New("invalid configuration")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrDataNotFound          = errors.New("data not found")
	ErrSeriesNotFound        = errors.New("series not found")
	ErrTickerNotFound        = errors.New("ticker not found")
	ErrDatabaseError         = errors.New("database error")
	ErrSimulationDone        = errors.New("simulation already completed")
	ErrSimulationNotRun      = errors.New("simulation has not been run")
)

// OrderError represents an error related to order generation or execution.
type OrderError struct {
	Ticker  string
	Purpose string
	Reason  string
	Err     error
}

func (e *OrderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("order error [%s] %s: %s: %v", e.Ticker, e.Purpose, e.Reason, e.Err)
	}
	return fmt.Sprintf("order error [%s] %s: %s", e.Ticker, e.Purpose, e.Reason)
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

// NewOrderError creates a new OrderError.
func NewOrderError(ticker, purpose, reason string, err error) *OrderError {
	return &OrderError{
		Ticker:  ticker,
		Purpose: purpose,
		Reason:  reason,
		Err:     err,
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// DataError represents an error loading or resolving market data.
type DataError struct {
	DataType string
	Name     string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Name, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Name, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, name, message string, err error) *DataError {
	return &DataError{
		DataType: dataType,
		Name:     name,
		Message:  message,
		Err:      err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
