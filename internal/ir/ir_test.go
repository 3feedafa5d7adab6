package ir

import (
	"strings"
	"testing"

	"github.com/lumen-lang/lumen/internal/ast"
)

func TestClassManaged(t *testing.T) {
	managed := []Class{ClassString, ClassObject, ClassOptional}
	for _, c := range managed {
		if !c.Managed() {
			t.Errorf("%s should be managed", c)
		}
	}
	unmanaged := []Class{ClassVoid, ClassInt, ClassFloat, ClassBool, ClassAddress}
	for _, c := range unmanaged {
		if c.Managed() {
			t.Errorf("%s should not be managed", c)
		}
	}
}

func TestValueStrings(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{ConstInt(42), "42"},
		{ConstFloat(2.5), "2.5"},
		{ConstBool(true), "true"},
		{ConstString("hi"), `"hi"`},
		{ConstNull(), "null"},
		{Value{}, "<none>"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}

	fn := NewFunction("f", ast.Loc{})
	v := fn.NewValue(ClassInt)
	if v.String() != "%0" {
		t.Errorf("First SSA value should print as %%0, got %s", v.String())
	}
	if !v.IsValid() {
		t.Error("SSA reference should be valid")
	}
	if (Value{}).IsValid() {
		t.Error("Zero value should be invalid")
	}
}

func TestBlockLabelsAndEntry(t *testing.T) {
	fn := NewFunction("f", ast.Loc{})
	if fn.Entry() != nil {
		t.Error("Empty function has no entry")
	}

	b0 := fn.NewBlock()
	b1 := fn.NewBlock()
	if b0.Label != "bb0" || b1.Label != "bb1" {
		t.Errorf("Labels should number sequentially, got %s, %s", b0.Label, b1.Label)
	}
	if fn.Entry() != b0 {
		t.Error("Entry should be the first block")
	}
	if fn.BlockByLabel("bb1") != b1 {
		t.Error("BlockByLabel lookup failed")
	}
	if fn.BlockByLabel("bb9") != nil {
		t.Error("Unknown label should return nil")
	}
}

func TestSetTermRegistersPreds(t *testing.T) {
	fn := NewFunction("f", ast.Loc{})
	b0 := fn.NewBlock()
	b1 := fn.NewBlock()
	b2 := fn.NewBlock()

	b0.SetTerm(&CondBr{Cond: ConstBool(true), True: b1, False: b2})
	if b1.NumPreds() != 1 || b2.NumPreds() != 1 {
		t.Errorf("Both edges should register predecessors: %d, %d", b1.NumPreds(), b2.NumPreds())
	}
	b1.SetTerm(&Br{Target: b2})
	if b2.NumPreds() != 2 {
		t.Errorf("Expected 2 preds on merge block, got %d", b2.NumPreds())
	}
}

func TestAppendToTerminatedPanics(t *testing.T) {
	fn := NewFunction("f", ast.Loc{})
	b := fn.NewBlock()
	b.SetTerm(&Ret{})

	defer func() {
		if recover() == nil {
			t.Error("Append after SetTerm should panic")
		}
	}()
	b.Append(&Retain{X: ConstNull()})
}

func TestDoubleTerminatePanics(t *testing.T) {
	fn := NewFunction("f", ast.Loc{})
	b := fn.NewBlock()
	b.SetTerm(&Ret{})

	defer func() {
		if recover() == nil {
			t.Error("Terminating twice should panic")
		}
	}()
	b.SetTerm(&Unreachable{})
}

func TestRemoveBlock(t *testing.T) {
	fn := NewFunction("f", ast.Loc{})
	b0 := fn.NewBlock()
	b1 := fn.NewBlock()

	fn.RemoveBlock(b1)
	if len(fn.Blocks) != 1 || fn.Blocks[0] != b0 {
		t.Errorf("Expected only b0 left, got %d blocks", len(fn.Blocks))
	}
}

func TestRemoveTerminatedBlockPanics(t *testing.T) {
	fn := NewFunction("f", ast.Loc{})
	b := fn.NewBlock()
	b.SetTerm(&Ret{})

	defer func() {
		if recover() == nil {
			t.Error("Removing a terminated block should panic")
		}
	}()
	fn.RemoveBlock(b)
}

func TestRemoveReferencedBlockPanics(t *testing.T) {
	fn := NewFunction("f", ast.Loc{})
	b0 := fn.NewBlock()
	b1 := fn.NewBlock()
	b0.SetTerm(&Br{Target: b1})

	defer func() {
		if recover() == nil {
			t.Error("Removing a block with predecessors should panic")
		}
	}()
	fn.RemoveBlock(b1)
}

func TestMoveToEnd(t *testing.T) {
	fn := NewFunction("f", ast.Loc{})
	b0 := fn.NewBlock()
	b1 := fn.NewBlock()
	b2 := fn.NewBlock()

	fn.MoveToEnd(b1)
	want := []*Block{b0, b2, b1}
	for i, b := range want {
		if fn.Blocks[i] != b {
			t.Fatalf("Block order wrong at %d: got %s", i, fn.Blocks[i].Label)
		}
	}
}

func TestPrependKeepsOrder(t *testing.T) {
	fn := NewFunction("f", ast.Loc{})
	b := fn.NewBlock()
	first := fn.NewValue(ClassString)
	second := fn.NewValue(ClassString)
	b.Append(&Release{X: first})
	b.Prepend(&DestroyAddr{Addr: second})

	if _, ok := b.Instrs[0].(*DestroyAddr); !ok {
		t.Errorf("Prepended instruction should come first, got %s", b.Instrs[0])
	}
	if _, ok := b.Instrs[1].(*Release); !ok {
		t.Errorf("Existing instruction should follow, got %s", b.Instrs[1])
	}
}

func TestFunctionString(t *testing.T) {
	fn := NewFunction("greet", ast.Loc{})
	fn.Result = ClassString
	p := fn.AddParam(ClassString)

	entry := fn.NewBlock()
	exit := fn.NewBlock()
	rv := exit.AddParam(ClassString)
	entry.Append(&Retain{X: p})
	entry.SetTerm(&Br{Target: exit, Args: []Value{p}})
	exit.SetTerm(&Ret{Value: rv})

	text := fn.String()
	for _, want := range []string{
		"func @greet(%0: string) -> string {",
		"bb0:",
		"retain %0",
		"br bb1(%0)",
		"bb1(%1: string):",
		"ret %1",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Missing %q in:\n%s", want, text)
		}
	}
}

func TestInstrStrings(t *testing.T) {
	fn := NewFunction("f", ast.Loc{})
	slot := fn.NewValue(ClassAddress)
	v := fn.NewValue(ClassString)
	flag := fn.NewValue(ClassBool)

	tests := []struct {
		in   Instr
		want string
	}{
		{&AllocStack{Result: slot, Of: ClassString, Name: "s"}, "%0 = alloc_stack $string  // s"},
		{&AllocStack{Result: slot, Of: ClassOptional}, "%0 = alloc_stack $optional"},
		{&Load{Result: v, Addr: slot}, "%1 = load %0"},
		{&Store{Val: v, Addr: slot}, "store %1 to %0"},
		{&Call{Result: v, Fun: "next", Args: []Value{slot}}, "%1 = call @next(%0)"},
		{&Call{Fun: "log", Args: []Value{v}}, "call @log(%1)"},
		{&Cmp{Result: flag, Op: "==", X: ConstInt(1), Y: ConstInt(2)}, "%2 = cmp == 1, 2"},
		{&HasValue{Result: flag, Addr: slot}, "%2 = has_value %0"},
		{&ExtractValue{Addr: slot, Dest: slot}, "extract_value %0 to %0"},
		{&DestroyAddr{Addr: slot}, "destroy_addr %0"},
		{&GetMember{Result: v, X: v, Name: "len"}, "%1 = get_member %1.len"},
	}
	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
