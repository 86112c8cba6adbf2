package diag

import (
	"fmt"
	"strings"
)

// Kind identifies one of the error kinds named in the core's error handling
// design. Fatal kinds abort the enclosing conversion; recovered kinds are
// downgraded to a Diagnostic by the caller named in the policy.
type Kind int

const (
	// IllFormedNode is raised when a builder invariant is violated, e.g. a
	// CallExpr whose function type arity does not match its argument count.
	IllFormedNode Kind = iota
	// TypeMismatch is raised when no legal conversion exists between an
	// argument's type and its parameter's type.
	TypeMismatch
	// UnificationFailure is raised when Unify yields no substitution.
	UnificationFailure
	// OccursCheck is a specialization of UnificationFailure: a type variable
	// occurs in the type it would be bound to.
	OccursCheck
	// LoopNormalizationError is raised when a ForStmt is not reducible to
	// the affine normal form.
	LoopNormalizationError
	// NotAffineExpr is raised by SCoP-adjacent analysis when a condition or
	// bound is not an affine expression of outer iterators and parameters.
	NotAffineExpr
	// UnsupportedType is raised when a source or IR type cannot be
	// represented by the target.
	UnsupportedType
	// GlobalVariableDeclaration is raised when a global variable is
	// referenced from a context that has not yet been given the globals
	// aggregate parameter; recovered by lifting the reference.
	GlobalVariableDeclaration
)

func (k Kind) String() string {
	switch k {
	case IllFormedNode:
		return "IllFormedNode"
	case TypeMismatch:
		return "TypeMismatch"
	case UnificationFailure:
		return "UnificationFailure"
	case OccursCheck:
		return "OccursCheck"
	case LoopNormalizationError:
		return "LoopNormalizationError"
	case NotAffineExpr:
		return "NotAffineExpr"
	case UnsupportedType:
		return "UnsupportedType"
	case GlobalVariableDeclaration:
		return "GlobalVariableDeclaration"
	default:
		return "UnknownError"
	}
}

// Fatal reports whether a Kind aborts the enclosing conversion by default,
// per the error handling policy table. A non-fatal kind is recovered only
// where a specific caller handles it (e.g. UnificationFailure inside
// return-type deduction) — that is the caller's choice, not a property of
// the kind itself.
func (k Kind) Fatal() bool {
	switch k {
	case UnificationFailure, OccursCheck, LoopNormalizationError, NotAffineExpr, GlobalVariableDeclaration:
		return false
	default:
		return true
	}
}

// Error is a single diagnostic: a Kind, a message, the source location of
// the offending node (pulled from its annotation, per spec), and the
// enclosing conversion trace.
type Error struct {
	Kind     Kind
	Message  string
	Location SourceLocation
	Trace    Trace
}

func New(kind Kind, loc SourceLocation, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Location: loc}
}

func (e *Error) Error() string {
	return e.Format(false)
}

// Format renders the diagnostic with source-location context and,
// optionally, ANSI color — mirroring a conventional compiler error report.
func (e *Error) Format(color bool) string {
	var sb strings.Builder
	if !e.Location.IsZero() {
		fmt.Fprintf(&sb, "%s: %s: %s", e.Location, e.Kind, e.Message)
	} else {
		fmt.Fprintf(&sb, "%s: %s", e.Kind, e.Message)
	}
	if len(e.Trace) > 0 {
		sb.WriteString("\n")
		sb.WriteString(e.Trace.String())
	}
	if color {
		return "\033[1;31m" + sb.String() + "\033[0m"
	}
	return sb.String()
}

// WithTrace returns a copy of e with the given trace attached.
func (e *Error) WithTrace(t Trace) *Error {
	n := *e
	n.Trace = t
	return &n
}
