package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrQuantityOverflow reports a quantity column whose sum leaves the int64 range.
var ErrQuantityOverflow = errors.New("total quantity exceeds int64 range")

// SourceNotFoundError reports that the source table path does not resolve.
type SourceNotFoundError struct {
	Path string
	Err  error
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("source %q not found", e.Path)
}

func (e *SourceNotFoundError) Unwrap() error { return e.Err }

// SchemaError lists every required column absent from the source header.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// FormatError reports a source that exists but cannot be read as a sales table.
// Line and Column are 1-based; zero means unknown.
type FormatError struct {
	Path   string
	Line   int
	Column string
	Err    error
}

func (e *FormatError) Error() string {
	var b strings.Builder
	b.WriteString("malformed source")
	if e.Path != "" {
		fmt.Fprintf(&b, " %q", e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d", e.Line)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %q", e.Column)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *FormatError) Unwrap() error { return e.Err }

// TypeError is returned when a computation receives no dataset to work on.
type TypeError struct {
	Reason string
}

func (e *TypeError) Error() string {
	return "invalid dataset: " + e.Reason
}
