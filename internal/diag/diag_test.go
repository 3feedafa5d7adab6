package diag

import (
	"testing"

	"github.com/lumen-lang/lumen/internal/ast"
)

func TestKindMessages(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindUnreachableAfterReturn, "code after 'return' will never be executed"},
		{KindUnreachableAfterBreak, "code after 'break' will never be executed"},
		{KindUnreachableAfterContinue, "code after 'continue' will never be executed"},
		{KindUnreachable, "will never be executed"},
	}
	for _, tt := range tests {
		if got := tt.kind.Message(); got != tt.want {
			t.Errorf("%s: Message() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestBagReportOrder(t *testing.T) {
	bag := NewBag()
	if bag.Count() != 0 {
		t.Errorf("New bag should be empty, got %d", bag.Count())
	}

	bag.Report(ast.Loc{File: "a.lm", Line: 3, Col: 2}, KindUnreachableAfterReturn)
	bag.Report(ast.Loc{File: "a.lm", Line: 9, Col: 5}, KindUnreachable)

	if bag.Count() != 2 {
		t.Fatalf("Expected 2 diagnostics, got %d", bag.Count())
	}
	all := bag.All()
	if all[0].Kind != KindUnreachableAfterReturn || all[1].Kind != KindUnreachable {
		t.Errorf("Diagnostics should keep report order: %v", all)
	}
	if all[0].Msg != KindUnreachableAfterReturn.Message() {
		t.Errorf("Report should fill in the kind's message, got %q", all[0].Msg)
	}
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{
		Loc:  ast.Loc{File: "main.lm", Line: 12, Col: 4},
		Kind: KindUnreachableAfterBreak,
		Msg:  KindUnreachableAfterBreak.Message(),
	}
	want := "main.lm:12:4: warning: code after 'break' will never be executed"
	if got := d.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
