package errors

import (
	"errors"
	"fmt"
)

// ExtractError is a classified failure raised while acquiring a document,
// parsing it, or filling a template.
type ExtractError struct {
	Type     ErrorType `json:"type"`
	Message  string    `json:"message"`
	FilePath string    `json:"file_path,omitempty"`
	Page     int       `json:"page,omitempty"`
	Err      error     `json:"-"`
}

// ErrorType represents the categories a caller has to tell apart
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeInput covers missing, unreadable or unsupported input files.
	ErrorTypeInput
	// ErrorTypeEmpty means the document was read but produced no text at all.
	ErrorTypeEmpty
	// ErrorTypeUnexpected covers any other failure during extraction.
	ErrorTypeUnexpected
	ErrorTypeTemplate
	ErrorTypePayload
)

// Error implements the error interface
func (e *ExtractError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause, if any
func (e *ExtractError) Unwrap() error {
	return e.Err
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeInput:
		return "INPUT"
	case ErrorTypeEmpty:
		return "EMPTY"
	case ErrorTypeUnexpected:
		return "UNEXPECTED"
	case ErrorTypeTemplate:
		return "TEMPLATE"
	case ErrorTypePayload:
		return "PAYLOAD"
	default:
		return "UNKNOWN"
	}
}

// ExitCode maps an error type onto the process exit status used by the CLI.
// An empty document is reported as a structured result, not a failed run.
func (et ErrorType) ExitCode() int {
	switch et {
	case ErrorTypeEmpty:
		return 0
	default:
		return 1
	}
}

// New creates a new ExtractError
func New(errorType ErrorType, message string) *ExtractError {
	return &ExtractError{Type: errorType, Message: message}
}

// Newf creates a new ExtractError with a formatted message
func Newf(errorType ErrorType, format string, args ...interface{}) *ExtractError {
	return &ExtractError{Type: errorType, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under errorType with a short message
func Wrap(errorType ErrorType, message string, err error) *ExtractError {
	return &ExtractError{Type: errorType, Message: message, Err: err}
}

// Input is shorthand for an input error about path
func Input(path, message string) *ExtractError {
	return &ExtractError{Type: ErrorTypeInput, Message: message, FilePath: path}
}

// WithFile adds file path information to an existing ExtractError
func (e *ExtractError) WithFile(filePath string) *ExtractError {
	e.FilePath = filePath
	return e
}

// WithPage adds page number information to an existing ExtractError
func (e *ExtractError) WithPage(page int) *ExtractError {
	e.Page = page
	return e
}

// TypeOf returns the ErrorType carried anywhere in err's chain, or
// ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var ee *ExtractError
	if errors.As(err, &ee) {
		return ee.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err carries an ExtractError of the given type
func IsType(err error, errorType ErrorType) bool {
	return err != nil && TypeOf(err) == errorType
}

// Message returns the human-readable message of a classified error, falling
// back to err.Error() for plain errors.
func Message(err error) string {
	var ee *ExtractError
	if errors.As(err, &ee) {
		if ee.Err != nil {
			return fmt.Sprintf("%s: %v", ee.Message, ee.Err)
		}
		return ee.Message
	}
	return err.Error()
}
