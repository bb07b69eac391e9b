package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for bulkctl commands
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the operation ran and reported a failure
	ExitCommandError = 2 // bad flags, unreachable backends, missing snapshots
)

// ExitError carries the exit code a command wants the process to end with
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError without a cause
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches an exit code to err
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from err, ExitFailure when it has none
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Response is the JSON envelope written in json format
type Response struct {
	Status string     `json:"status"`
	Data   any        `json:"data,omitempty"`
	Error  *ErrorBody `json:"error,omitempty"`
}

// ErrorBody describes a failed command in json format
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// textRenderer is implemented by results with a human-readable form
type textRenderer interface {
	renderText(w io.Writer)
}

// Output writes command results as text or as a JSON envelope
type Output struct {
	Format string
	Writer io.Writer
}

// Success writes data. In text format data renders itself when it can.
func (o *Output) Success(data any) error {
	if o.Format == "json" {
		return json.NewEncoder(o.Writer).Encode(Response{Status: "ok", Data: data})
	}
	if r, ok := data.(textRenderer); ok {
		r.renderText(o.Writer)
		return nil
	}
	_, err := fmt.Fprintln(o.Writer, data)
	return err
}

// Error writes a failure with a machine-readable code
func (o *Output) Error(code, message string) error {
	if o.Format == "json" {
		return json.NewEncoder(o.Writer).Encode(Response{
			Status: "error",
			Error:  &ErrorBody{Code: code, Message: message},
		})
	}
	_, err := fmt.Fprintf(o.Writer, "Error [%s]: %s\n", code, message)
	return err
}
