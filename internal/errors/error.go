package errors

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig   Category = "config"
	CategoryCLI      Category = "cli"
	CategoryDevtools Category = "devtools"
	CategoryRuntime  Category = "runtime"
)

// Location represents a position in a file, usually a config file.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// VStoreError is a structured error with a code, location and suggestion.
type VStoreError struct {
	// Code is a unique error identifier (e.g., "E100").
	Code string

	// Category is the error type (config, cli, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is the file position where the error occurred.
	Location *Location

	// Context contains surrounding lines from the file.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *VStoreError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *VStoreError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a VStoreError with the same code.
func (e *VStoreError) Is(target error) bool {
	t, ok := target.(*VStoreError)
	return ok && t.Code != "" && t.Code == e.Code
}

// WithLocation adds a file position to the error.
func (e *VStoreError) WithLocation(file string, line, column int) *VStoreError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = readContextLines(file, line, 5)
	return e
}

// yamlLine matches the position yaml.v3 and encoding/json put in messages.
var yamlLine = regexp.MustCompile(`line (\d+)(?:, column (\d+))?`)

// WithLocationFromError extracts a line (and column) from a parser error
// such as "yaml: line 3: mapping values are not allowed".
func (e *VStoreError) WithLocationFromError(file string, err error) *VStoreError {
	if err == nil {
		return e
	}
	m := yamlLine.FindStringSubmatch(err.Error())
	if m == nil {
		return e
	}
	line, _ := strconv.Atoi(m[1])
	col := 0
	if m[2] != "" {
		col, _ = strconv.Atoi(m[2])
	}
	if line > 0 {
		e.WithLocation(file, line, col)
	}
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *VStoreError) WithSuggestion(s string) *VStoreError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *VStoreError) WithDetail(d string) *VStoreError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *VStoreError) Wrap(err error) *VStoreError {
	e.Wrapped = err
	return e
}

// readContextLines reads lines around the specified line number from a file.
func readContextLines(filename string, targetLine, contextSize int) []string {
	file, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	lineNum := 0
	startLine := targetLine - contextSize/2
	endLine := targetLine + contextSize/2

	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}

	return lines
}

// New creates a VStoreError from a registered error code.
func New(code string) *VStoreError {
	template, ok := registry[code]
	if !ok {
		return &VStoreError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &VStoreError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates a new VStoreError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *VStoreError {
	return &VStoreError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a VStoreError.
// If err already contains a VStoreError it is returned unchanged.
func FromError(err error, code string) *VStoreError {
	if err == nil {
		return nil
	}
	var ve *VStoreError
	if stderrors.As(err, &ve) {
		return ve
	}
	return New(code).Wrap(err)
}

// Code returns the code of the first VStoreError in err's chain, or "".
func Code(err error) string {
	var ve *VStoreError
	if stderrors.As(err, &ve) {
		return ve.Code
	}
	return ""
}
