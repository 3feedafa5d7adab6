package lower

import (
	"github.com/lumen-lang/lumen/internal/ast"
	"github.com/lumen-lang/lumen/internal/ir"
)

// CleanupKind selects the release action of a cleanup entry.
type CleanupKind int

const (
	// CleanupReleaseValue releases an owned value.
	CleanupReleaseValue CleanupKind = iota
	// CleanupDestroyAddr destroys whatever is stored in a stack slot.
	CleanupDestroyAddr
)

// CleanupDepth is a position in the cleanup stack. Lower is outer.
type CleanupDepth int

// CleanupHandle names one pushed entry so it can later be forwarded.
type CleanupHandle int

const noCleanup CleanupHandle = -1

type cleanupEntry struct {
	kind   CleanupKind
	val    ir.Value
	loc    ast.Loc
	active bool
}

// CleanupStack tracks pending release obligations in strict LIFO order.
// Every exit path out of a scope, normal or branching, runs exactly the
// active entries between the current depth and the exit's target depth, in
// reverse creation order.
type CleanupStack struct {
	b       *Builder
	entries []cleanupEntry
}

// NewCleanupStack creates an empty stack bound to the builder.
func NewCleanupStack(b *Builder) *CleanupStack {
	return &CleanupStack{b: b}
}

// Depth returns the current stack depth.
func (c *CleanupStack) Depth() CleanupDepth { return CleanupDepth(len(c.entries)) }

// PushRelease records an obligation to release v.
func (c *CleanupStack) PushRelease(v ir.Value, loc ast.Loc) CleanupHandle {
	c.entries = append(c.entries, cleanupEntry{kind: CleanupReleaseValue, val: v, loc: loc, active: true})
	return CleanupHandle(len(c.entries) - 1)
}

// PushDestroyAddr records an obligation to destroy the value at addr.
func (c *CleanupStack) PushDestroyAddr(addr ir.Value, loc ast.Loc) CleanupHandle {
	c.entries = append(c.entries, cleanupEntry{kind: CleanupDestroyAddr, val: addr, loc: loc, active: true})
	return CleanupHandle(len(c.entries) - 1)
}

// Forward deactivates an entry because ownership of its resource moved
// elsewhere (stored into a variable, returned, passed to a buffer).
func (c *CleanupStack) Forward(h CleanupHandle) {
	if h == noCleanup {
		return
	}
	c.entries[h].active = false
}

func (c *CleanupStack) emitEntry(e cleanupEntry) {
	switch e.kind {
	case CleanupReleaseValue:
		c.b.EmitRelease(e.val, e.loc)
	case CleanupDestroyAddr:
		c.b.EmitDestroyAddr(e.val, e.loc)
	}
}

// emitCleanupsDownTo emits release code for every active entry above depth,
// newest first, without popping anything. Branching paths share entries
// with paths that stay, so the stack must survive.
func (c *CleanupStack) emitCleanupsDownTo(depth CleanupDepth) {
	for i := len(c.entries) - 1; i >= int(depth); i-- {
		if c.entries[i].active {
			c.emitEntry(c.entries[i])
		}
	}
}

// JumpDest pairs a branch target with the cleanup depth control must unwind
// to before entering it.
type JumpDest struct {
	Block *ir.Block
	Depth CleanupDepth
	Loc   ast.Loc
}

// IsValid reports whether the destination was registered.
func (d JumpDest) IsValid() bool { return d.Block != nil }

// EmitBranchAndCleanups unwinds to dest's depth and branches to its block,
// carrying args as block arguments. Return, break, continue and fail all
// funnel through here; they differ only in the destination. A request at an
// unreachable point is a no-op.
func (c *CleanupStack) EmitBranchAndCleanups(dest JumpDest, loc ast.Loc, args []ir.Value) {
	if !c.b.HasInsertionPoint() {
		return
	}
	c.emitCleanupsDownTo(dest.Depth)
	c.b.TerminateBr(dest.Block, args, loc)
}

// scope brackets a lexical region. Exiting emits the region's active
// cleanups when the current point is still reachable, then discards them.
type scope struct {
	stack *CleanupStack
	depth CleanupDepth
}

// EnterScope opens a lexical region at the current depth.
func (c *CleanupStack) EnterScope() scope {
	return scope{stack: c, depth: c.Depth()}
}

// Exit closes the region.
func (s scope) Exit() {
	c := s.stack
	if c.b.HasInsertionPoint() {
		c.emitCleanupsDownTo(s.depth)
	}
	c.entries = c.entries[:s.depth]
}
