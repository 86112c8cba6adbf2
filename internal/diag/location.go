// Package diag provides diagnostic reporting for the conversion pipeline:
// source locations, formatted compiler-style errors, and the error kinds
// named in the core's error handling design.
package diag

import "fmt"

// SourceLocation pins a diagnostic to a span in the original source file,
// per the (file, line, column, line_end, column_end) contract the core
// requires from the AST collaborator.
type SourceLocation struct {
	File      string
	Line      int
	Column    int
	LineEnd   int
	ColumnEnd int
}

// String renders the location the way compiler diagnostics conventionally do.
func (l SourceLocation) String() string {
	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// IsZero reports whether the location carries no information.
func (l SourceLocation) IsZero() bool {
	return l.File == "" && l.Line == 0 && l.Column == 0
}
