// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package redactors

import (
	"errors"
	"fmt"
	"time"
)

// RedactionErrorType defines the type of redaction error
type RedactionErrorType int

const (
	// ErrorHostUnavailable indicates no document host was available
	ErrorHostUnavailable RedactionErrorType = iota

	// ErrorHostCall indicates a document host call failed mid-run
	ErrorHostCall

	// ErrorAlreadyRunning indicates a run was requested while one was active
	ErrorAlreadyRunning

	// ErrorDocumentIO indicates a document could not be opened or saved
	ErrorDocumentIO

	// ErrorConfiguration indicates a configuration error
	ErrorConfiguration
)

// String returns the string representation of the error type
func (ret RedactionErrorType) String() string {
	switch ret {
	case ErrorHostUnavailable:
		return "host_unavailable"
	case ErrorHostCall:
		return "host_call"
	case ErrorAlreadyRunning:
		return "already_running"
	case ErrorDocumentIO:
		return "document_io"
	case ErrorConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// RedactionError represents an error that occurred during a redaction run
type RedactionError struct {
	// Type is the type of error
	Type RedactionErrorType

	// Message is the error message
	Message string

	// Document names the document being processed, if any
	Document string

	// Component is the component that generated the error
	Component string

	// Timestamp is when the error occurred
	Timestamp time.Time

	// Cause is the underlying error that caused this error
	Cause error
}

// Error implements the error interface
func (re *RedactionError) Error() string {
	msg := fmt.Sprintf("[%s] %s (component: %s)", re.Type, re.Message, re.Component)
	if re.Document != "" {
		msg = fmt.Sprintf("[%s] %s (document: %s, component: %s)", re.Type, re.Message, re.Document, re.Component)
	}
	if re.Cause != nil {
		msg += ": " + re.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error unwrapping
func (re *RedactionError) Unwrap() error {
	return re.Cause
}

// NewRedactionError creates a new RedactionError
func NewRedactionError(errorType RedactionErrorType, message, document, component string, cause error) *RedactionError {
	return &RedactionError{
		Type:      errorType,
		Message:   message,
		Document:  document,
		Component: component,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

// ErrorTypeOf returns the type of the first RedactionError in err's chain
func ErrorTypeOf(err error) (RedactionErrorType, bool) {
	var re *RedactionError
	if errors.As(err, &re) {
		return re.Type, true
	}
	return 0, false
}
