// Package ierr defines the instrumentor's error taxonomy. Every failure is
// fatal, offline and deterministic, so rather than inventing a bespoke
// collector this package aliases go/scanner's error list types and formats
// source locations through a go/token.FileSet.
package ierr

import (
	"fmt"
	"go/scanner"
	"go/token"
)

type (
	// Error is a single positioned diagnostic.
	Error = scanner.Error
	// ErrorList collects and sorts Error values.
	ErrorList = scanner.ErrorList
)

// PrintError writes err (an ErrorList, a single error, or nil) to w in the
// conventional "file:line:col: message" form.
var PrintError = scanner.PrintError

// Kind names one of the instrumentor's error categories.
type Kind uint8

const (
	// UnexpectedNode: a visitor encountered a construct it did not expect.
	UnexpectedNode Kind = iota
	// BindingUnresolvable: the resolver could not classify a reference and
	// it is not a recognized global or module-local.
	BindingUnresolvable
	// DuplicateImportName: an import statement names a local identifier
	// already bound.
	DuplicateImportName
	// InternalInvariant: an internal consistency check failed.
	InternalInvariant
	// SuperInArrowRedefinedArguments: an arrow function using `super`
	// appears inside a sloppy function that redefines `arguments`; the
	// rewriter cannot support this.
	SuperInArrowRedefinedArguments
)

func (k Kind) String() string {
	switch k {
	case UnexpectedNode:
		return "unexpected-node"
	case BindingUnresolvable:
		return "binding-unresolvable"
	case DuplicateImportName:
		return "duplicate-import-name"
	case InternalInvariant:
		return "internal-invariant"
	case SuperInArrowRedefinedArguments:
		return "super-in-arrow-redefined-arguments"
	default:
		return "unknown"
	}
}

// Diagnostic wraps a Kind with the message scanner.Error was constructed
// with, so callers can recover the taxonomy category with errors.As without
// parsing the formatted string.
type Diagnostic struct {
	Kind Kind
	Err  *Error
}

func (d *Diagnostic) Error() string { return d.Err.Error() }
func (d *Diagnostic) Unwrap() error { return d.Err }

// Fatalf builds a fatal Diagnostic naming kind, the node's position resolved
// through fset, and a formatted message. The instrumentor never retries and
// never emits a partial result once this is raised: the caller must abort
// the module.
func Fatalf(kind Kind, fset *token.FileSet, pos token.Pos, format string, args ...any) error {
	var position token.Position
	if fset != nil {
		position = fset.Position(pos)
	}
	return &Diagnostic{
		Kind: kind,
		Err: &Error{
			Pos: position,
			Msg: fmt.Sprintf("%s: %s", kind, fmt.Sprintf(format, args...)),
		},
	}
}
