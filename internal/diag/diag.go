// Package diag collects user-facing diagnostics produced during lowering.
// The only family emitted today is unreachable code.
package diag

import (
	"fmt"

	"github.com/lumen-lang/lumen/internal/ast"
)

// Kind identifies a diagnostic category.
type Kind string

const (
	KindUnreachableAfterReturn   Kind = "unreachable_after_return"
	KindUnreachableAfterBreak    Kind = "unreachable_after_break"
	KindUnreachableAfterContinue Kind = "unreachable_after_continue"
	KindUnreachable              Kind = "unreachable_code"
)

// Message returns the human-readable text for the kind.
func (k Kind) Message() string {
	switch k {
	case KindUnreachableAfterReturn:
		return "code after 'return' will never be executed"
	case KindUnreachableAfterBreak:
		return "code after 'break' will never be executed"
	case KindUnreachableAfterContinue:
		return "code after 'continue' will never be executed"
	default:
		return "will never be executed"
	}
}

// Diagnostic is one reported finding.
type Diagnostic struct {
	Loc  ast.Loc `json:"location"`
	Kind Kind    `json:"kind"`
	Msg  string  `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: warning: %s", d.Loc, d.Msg)
}

// Bag accumulates diagnostics. Reporting never blocks or fails; lowering
// continues after every report.
type Bag struct {
	diags []Diagnostic
}

func NewBag() *Bag {
	return &Bag{}
}

// Report records one diagnostic of the given kind.
func (b *Bag) Report(loc ast.Loc, kind Kind) {
	b.diags = append(b.diags, Diagnostic{Loc: loc, Kind: kind, Msg: kind.Message()})
}

// All returns the recorded diagnostics in report order.
func (b *Bag) All() []Diagnostic {
	return b.diags
}

// Count returns the number of recorded diagnostics.
func (b *Bag) Count() int {
	return len(b.diags)
}
