// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound = errors.New("not found")

	// Ingestion errors.
	ErrUnknownSourceKind = errors.New("unknown source kind")
	ErrEmptyExport       = errors.New("export file is empty")

	// Reconciliation errors.
	ErrNoAggregate = errors.New("no aggregate for shift date")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ConfigError marks a fatal configuration problem. Unlike row-level issues,
// a bad tolerance or recipe table aborts the run: reconciling against wrong
// thresholds would produce a misleading variance report.
type ConfigError struct {
	Err   error
	Field string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// NewConfigError creates a fatal configuration error for the given field.
func NewConfigError(field string, err error) error {
	return &ConfigError{Field: field, Err: err}
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
