package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/progression/internal/engine"
	"github.com/roach88/progression/internal/model"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Expected refusal (limit reached, nothing to claim, invalid catalog)
	ExitCommandError = 2 // Command error (bad flags, database or store failure)
)

// Error codes for failures that do not come from the engine.
const (
	ErrCodeGeneric = "E_GENERIC"
	ErrCodeConfig  = "E_CONFIG"
	ErrCodeCatalog = "E_CATALOG"
	ErrCodeSchema  = "E_SCHEMA"
	ErrCodeStore   = "E_STORE"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
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

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // engine code or E_* code
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// TextRenderer writes the human-readable form of a result.
type TextRenderer func(w io.Writer, p *message.Printer)

// Success outputs a successful result in the configured format. In text mode
// render is used when given; otherwise data is printed as is.
func (f *OutputFormatter) Success(data any, render TextRenderer) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}

	if render == nil {
		fmt.Fprintln(f.Writer, data)
		return nil
	}
	render(f.Writer, newPrinter())
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail outputs err and returns the ExitError the command should return.
//
// Engine refusals exit with ExitFailure and show the user-facing message.
// Store failures, conflicts and anything that is not an engine error exit
// with ExitCommandError.
func (f *OutputFormatter) Fail(err error) error {
	var engErr *engine.Error
	if !errors.As(err, &engErr) {
		if outErr := f.Error(ErrCodeGeneric, err.Error(), nil); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitCommandError, "command failed", err)
	}

	var details any
	if len(engErr.Details) > 0 {
		details = engErr.Details
	}
	if outErr := f.Error(string(engErr.Code), engErr.UserMessage(), details); outErr != nil {
		return outErr
	}

	code := ExitFailure
	switch engErr.Code {
	case engine.CodePersistence, engine.CodeConflict:
		code = ExitCommandError
		slog.Error("engine failure", "code", engErr.Code, "error", err)
	}
	return WrapExitError(code, string(engErr.Code), err)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(resp)
}

// newPrinter formats numbers with thousands separators.
func newPrinter() *message.Printer {
	return message.NewPrinter(language.English)
}

// formatReward renders r as "1,000 coins, 5 gems, 2x Shard".
func formatReward(p *message.Printer, r model.Reward) string {
	var parts []string
	if r.Coins != 0 {
		parts = append(parts, p.Sprintf("%d coins", r.Coins))
	}
	if r.Gems != 0 {
		parts = append(parts, p.Sprintf("%d gems", r.Gems))
	}
	if r.Tickets != 0 {
		parts = append(parts, p.Sprintf("%d tickets", r.Tickets))
	}
	for _, it := range r.Items {
		parts = append(parts, p.Sprintf("%dx %s", it.Quantity, it.Name))
	}
	if len(parts) == 0 {
		return "nothing"
	}
	return strings.Join(parts, ", ")
}

func newFormatter(opts *RootOptions, w, errW io.Writer) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    w,
		ErrWriter: errW, // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// newLogger builds the process logger: text or JSON on w, Debug when verbose.
func newLogger(w io.Writer, format string, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}
