// Package failure holds the error taxonomy of the explain pipeline and maps
// errors to the status code and message returned to the caller.
package failure

import (
	"errors"
	"fmt"
	"net/http"
)

type Category string

const (
	InvalidInput        Category = "invalid_input"
	PayloadTooLarge     Category = "payload_too_large"
	ProviderUnavailable Category = "provider_unavailable"
	ProviderError       Category = "provider_error"
	UnexpectedFailure   Category = "unexpected_failure"
)

const UnexpectedMessage = "Unexpected server error"

// Status returns the HTTP status code the category is reported with.
func (c Category) Status() int {
	switch c {
	case InvalidInput:
		return http.StatusBadRequest
	case PayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case ProviderUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is an error whose Message is safe to show to the caller.
type Error struct {
	Category Category
	Message  string
	Err      error
}

func New(category Category, message string) *Error {
	return &Error{Category: category, Message: message}
}

func Newf(category Category, format string, args ...any) *Error {
	return New(category, fmt.Sprintf(format, args...))
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StreamError marks an error raised while opening or reading the provider
// stream. Only these errors go through the Classifier.
type StreamError struct {
	Err error
}

func Stream(err error) error {
	if err == nil {
		return nil
	}
	return &StreamError{Err: err}
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("provider stream: %v", e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// Report is the error-path substitute for an explanation.
type Report struct {
	Category    Category
	Status      int
	Explanation string
}

func newReport(category Category, explanation string) Report {
	return Report{
		Category:    category,
		Status:      category.Status(),
		Explanation: explanation,
	}
}

// Unexpected is reported for anything outside the validation and streaming
// boundaries. It never carries internal detail.
func Unexpected() Report {
	return newReport(UnexpectedFailure, UnexpectedMessage)
}

// ReportFor turns any error returned by the pipeline into a Report.
func (c *Classifier) ReportFor(err error) Report {
	var fe *Error
	if errors.As(err, &fe) {
		return newReport(fe.Category, fe.Message)
	}

	var se *StreamError
	if errors.As(err, &se) {
		return c.Classify(se.Err)
	}

	return Unexpected()
}
