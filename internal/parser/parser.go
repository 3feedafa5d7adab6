// Package parser turns Lumen source into the typed statement AST.
//
// Lumen uses JavaScript-compatible surface syntax (parsed with tree-sitter),
// optionally with TypeScript-style type annotations, and gives a few forms
// dedicated meanings:
//
//   - an assignment in condition position, `if (x = f())`, declares a
//     conditional binding: f() yields an optional, and the branch is taken
//     only when a value is present, bound to x
//   - `&&` in condition position chains clauses; each operand is a boolean
//     clause or a conditional binding
//   - `for (const x of seq())` iterates a sequence via its next() protocol
//   - `throw` inside a constructor (a function named init*) aborts
//     construction, releasing self
//
// Parsing produces the CST with tree-sitter; the ASTBuilder maps it onto the
// closed statement set in internal/ast; the Resolver types expressions and
// binds break/continue to their target constructs.
package parser

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"

	"github.com/lumen-lang/lumen/internal/ast"
)

// Parser wraps a tree-sitter parser for Lumen source.
type Parser struct {
	parser  *sitter.Parser
	typed   bool
	grammar *sitter.Language
}

// NewParser creates a parser for untyped (plain JavaScript syntax) sources.
func NewParser() *Parser {
	p := sitter.NewParser()
	lang := javascript.GetLanguage()
	p.SetLanguage(lang)
	return &Parser{parser: p, grammar: lang}
}

// NewTypedParser creates a parser that accepts TypeScript-style annotations,
// the preferred way to write Lumen.
func NewTypedParser() *Parser {
	p := sitter.NewParser()
	lang := tsx.GetLanguage()
	p.SetLanguage(lang)
	return &Parser{parser: p, typed: true, grammar: lang}
}

// Typed reports whether the parser accepts type annotations.
func (p *Parser) Typed() bool { return p.typed }

// Close frees the underlying tree-sitter resources.
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
	}
}

// ParseFile parses one source file into a resolved AST.
func (p *Parser) ParseFile(filename string, source []byte) (*ast.File, error) {
	tree, err := p.parser.ParseCtx(context.Background(), nil, source)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s: %v", filename, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("no root node in parse tree for %s", filename)
	}

	builder := NewASTBuilder(filename, source, p.typed)
	file, err := builder.Build(root)
	if err != nil {
		return nil, err
	}
	if err := Resolve(file); err != nil {
		return nil, err
	}
	return file, nil
}

// ParseString parses source held in a string.
func (p *Parser) ParseString(filename, source string) (*ast.File, error) {
	return p.ParseFile(filename, []byte(source))
}

// ParseForLanguage picks the typed or untyped grammar from the file
// extension and parses the file.
func ParseForLanguage(filename string, source []byte) (*ast.File, error) {
	var p *Parser
	if isTypedExt(filename) {
		p = NewTypedParser()
	} else {
		p = NewParser()
	}
	defer p.Close()
	return p.ParseFile(filename, source)
}

func isTypedExt(filename string) bool {
	for _, ext := range []string{".ts", ".tsx", ".mts", ".cts", ".lm"} {
		if strings.HasSuffix(filename, ext) {
			return true
		}
	}
	return false
}
