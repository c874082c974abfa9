package bill

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var (
	// ErrUnsupportedAttachment is returned when a receipt is not a jpg, jpeg or png image
	ErrUnsupportedAttachment = errors.New("unsupported attachment type")

	// ErrSubmitInFlight is returned when a submit is requested while another one is running
	ErrSubmitInFlight = errors.New("submission already in progress")

	// ErrEmptyResponse is returned when the store succeeds without a result
	ErrEmptyResponse = errors.New("store returned an empty response")
)

// AttachmentError reports a receipt rejected by ValidateAttachment
type AttachmentError struct {
	FileName string
	MimeType string
}

func (e *AttachmentError) Error() string {
	return fmt.Sprintf("%s: %s (%q)", ErrUnsupportedAttachment, e.FileName, e.MimeType)
}

func (e *AttachmentError) Unwrap() error { return ErrUnsupportedAttachment }

// MissingFieldsError lists the required form fields left empty
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// TransportError wraps a failure to reach the store at all
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError is a rejection reported by the store itself
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Erreur %d", e.StatusCode)
}

// IsValidation reports whether err was produced locally, before any call to the store
func IsValidation(err error) bool {
	var missing *MissingFieldsError
	return errors.Is(err, ErrUnsupportedAttachment) || errors.As(err, &missing)
}

// DisplayableError is the text shown in a view's error region
type DisplayableError struct {
	Message string `json:"message"`
}

// Present turns a failure into the message shown to the user. The store's
// message is used as is.
func Present(err error) DisplayableError {
	if err == nil {
		return DisplayableError{}
	}
	return DisplayableError{Message: err.Error()}
}

// ErrorReporter is the observability sink for store failures
type ErrorReporter interface {
	Report(err error)
}

// ErrorReporterFunc adapts a plain function to ErrorReporter
type ErrorReporterFunc func(err error)

func (f ErrorReporterFunc) Report(err error) { f(err) }

// LogReporter reports failures through slog
type LogReporter struct{}

func (LogReporter) Report(err error) {
	var (
		transport *TransportError
		server    *ServerError
	)
	switch {
	case errors.As(err, &server):
		slog.Error("Store rejected request", "status", server.StatusCode, "error", err)
	case errors.As(err, &transport):
		slog.Error("Store unreachable", "op", transport.Op, "error", transport.Err)
	default:
		slog.Error("Store call failed", "error", err)
	}
}
