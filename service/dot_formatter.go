package service

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lumen-lang/lumen/internal/ir"
	"github.com/lumen-lang/lumen/internal/version"
)

// DOTFormatterConfig configures the DOT formatter behavior
type DOTFormatterConfig struct {
	// ShowInstructions renders the instruction list inside each block node
	ShowInstructions bool

	// MaxInstructionsPerBlock truncates long blocks (0 = unlimited)
	MaxInstructionsPerBlock int

	// ShowLegend includes a legend subgraph
	ShowLegend bool

	// RankDir is the layout direction: TB, LR, BT, RL
	RankDir string
}

// DefaultDOTFormatterConfig returns a DOTFormatterConfig with sensible defaults
func DefaultDOTFormatterConfig() *DOTFormatterConfig {
	return &DOTFormatterConfig{
		ShowInstructions:        true,
		MaxInstructionsPerBlock: 12,
		ShowLegend:              false,
		RankDir:                 "TB",
	}
}

// DOTFormatter formats control flow graphs as DOT for Graphviz
type DOTFormatter struct {
	config *DOTFormatterConfig
}

// NewDOTFormatter creates a new DOT formatter with the given configuration
func NewDOTFormatter(config *DOTFormatterConfig) *DOTFormatter {
	if config == nil {
		config = DefaultDOTFormatterConfig()
	}
	return &DOTFormatter{config: config}
}

// blockColors defines the color scheme for block nodes by role.
// This is effectively a constant map and should not be modified at runtime.
var blockColors = map[string]struct {
	fill   string
	border string
}{
	"entry":  {fill: "#90EE90", border: "#228B22"},
	"exit":   {fill: "#ADD8E6", border: "#4682B4"},
	"normal": {fill: "#FFFFFF", border: "#333333"},
}

// validRankDirs contains the valid Graphviz rank directions
var validRankDirs = map[string]bool{
	"TB": true, // Top to Bottom
	"LR": true, // Left to Right
	"BT": true, // Bottom to Top
	"RL": true, // Right to Left
}

// FormatFunctions formats the control flow graphs of all functions as one
// DOT document and returns the string
func (f *DOTFormatter) FormatFunctions(functions []*ir.Function) (string, error) {
	var sb strings.Builder
	if err := f.WriteFunctions(functions, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// WriteFunctions writes the control flow graphs of all functions as DOT,
// one cluster per function
func (f *DOTFormatter) WriteFunctions(functions []*ir.Function, writer io.Writer) error {
	if !validRankDirs[f.config.RankDir] {
		return fmt.Errorf("invalid rank direction %q: must be one of TB, LR, BT, RL", f.config.RankDir)
	}

	fmt.Fprintf(writer, "/* lumen Control Flow Graph - Generated: %s */\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(writer, "/* Version: %s */\n", version.GetVersion())
	fmt.Fprintln(writer, "digraph cfg {")
	fmt.Fprintf(writer, "    rankdir=%s;\n", f.config.RankDir)
	fmt.Fprintln(writer, "    node [shape=box, style=filled, fontname=\"Courier\", fontsize=10];")
	fmt.Fprintln(writer, "    edge [fontname=\"Helvetica\", fontsize=9];")
	fmt.Fprintln(writer)

	if len(functions) == 0 {
		fmt.Fprintln(writer, "    /* No functions */")
	}

	for i, fn := range functions {
		fmt.Fprintf(writer, "    subgraph cluster_%d {\n", i)
		fmt.Fprintf(writer, "        label=\"%s\";\n", escapeDOTLabel(fn.Name))
		fmt.Fprintln(writer, "        style=rounded;")
		fmt.Fprintln(writer, "        color=\"#888888\";")
		fmt.Fprintln(writer)

		prefix := fmt.Sprintf("f%d_", i)
		f.writeBlocks(writer, fn, prefix)
		f.writeEdges(writer, fn, prefix)

		fmt.Fprintln(writer, "    }")
		fmt.Fprintln(writer)
	}

	if f.config.ShowLegend {
		f.writeLegend(writer)
	}

	fmt.Fprintln(writer, "}")
	return nil
}

// writeBlocks writes one node per basic block
func (f *DOTFormatter) writeBlocks(writer io.Writer, fn *ir.Function, prefix string) {
	entry := fn.Entry()
	for _, blk := range fn.Blocks {
		role := "normal"
		if blk == entry {
			role = "entry"
		} else if f.isExit(blk) {
			role = "exit"
		}

		colors := blockColors[role]
		label := f.blockLabel(blk)
		fmt.Fprintf(writer, "        %s%s [label=\"%s\", fillcolor=\"%s\", color=\"%s\"];\n",
			prefix, escapeDOTID(blk.Label), label, colors.fill, colors.border)
	}
	fmt.Fprintln(writer)
}

// writeEdges writes terminator-implied edges between blocks
func (f *DOTFormatter) writeEdges(writer io.Writer, fn *ir.Function, prefix string) {
	for _, blk := range fn.Blocks {
		if blk.Term == nil {
			continue
		}
		targets := blk.Term.Targets()
		for j, target := range targets {
			fmt.Fprintf(writer, "        %s%s -> %s%s",
				prefix, escapeDOTID(blk.Label), prefix, escapeDOTID(target.Label))
			// Conditional branches label their arms
			if _, ok := blk.Term.(*ir.CondBr); ok {
				if j == 0 {
					fmt.Fprint(writer, " [label=\"true\", color=\"#228B22\"]")
				} else {
					fmt.Fprint(writer, " [label=\"false\", color=\"#DC143C\"]")
				}
			}
			fmt.Fprintln(writer, ";")
		}
	}
}

// blockLabel builds the node label for one block
func (f *DOTFormatter) blockLabel(blk *ir.Block) string {
	var sb strings.Builder
	sb.WriteString(blk.Label)
	if len(blk.Params) > 0 {
		args := make([]string, len(blk.Params))
		for i, p := range blk.Params {
			args[i] = p.String()
		}
		sb.WriteString("(" + strings.Join(args, ", ") + ")")
	}

	if f.config.ShowInstructions {
		max := f.config.MaxInstructionsPerBlock
		for i, instr := range blk.Instrs {
			if max > 0 && i >= max {
				sb.WriteString("\\l...")
				break
			}
			sb.WriteString("\\l" + escapeDOTLabel(instr.String()))
		}
		if blk.Term != nil {
			sb.WriteString("\\l" + escapeDOTLabel(blk.Term.String()))
		}
		sb.WriteString("\\l")
	}

	return sb.String()
}

// isExit reports whether the block leaves the function
func (f *DOTFormatter) isExit(blk *ir.Block) bool {
	switch blk.Term.(type) {
	case *ir.Ret, *ir.Unreachable:
		return true
	default:
		return false
	}
}

// writeLegend writes the legend subgraph
func (f *DOTFormatter) writeLegend(writer io.Writer) {
	fmt.Fprintln(writer, "    // Legend")
	fmt.Fprintln(writer, "    subgraph cluster_legend {")
	fmt.Fprintln(writer, "        label=\"Legend\";")
	fmt.Fprintln(writer, "        style=filled;")
	fmt.Fprintln(writer, "        fillcolor=\"#F5F5F5\";")
	fmt.Fprintln(writer, "        color=\"#CCCCCC\";")
	fmt.Fprintln(writer, "        fontsize=10;")
	fmt.Fprintln(writer)
	fmt.Fprintf(writer, "        legend_entry [label=\"Entry Block\", fillcolor=\"%s\", color=\"%s\"];\n",
		blockColors["entry"].fill, blockColors["entry"].border)
	fmt.Fprintf(writer, "        legend_exit [label=\"Exit Block\", fillcolor=\"%s\", color=\"%s\"];\n",
		blockColors["exit"].fill, blockColors["exit"].border)
	fmt.Fprintf(writer, "        legend_normal [label=\"Block\", fillcolor=\"%s\", color=\"%s\"];\n",
		blockColors["normal"].fill, blockColors["normal"].border)
	fmt.Fprintln(writer)
	fmt.Fprintln(writer, "        legend_true_a [label=\"\", style=invis, width=0, height=0];")
	fmt.Fprintln(writer, "        legend_true_b [label=\"\", style=invis, width=0, height=0];")
	fmt.Fprintln(writer, "        legend_true_a -> legend_true_b [label=\"true\", color=\"#228B22\"];")
	fmt.Fprintln(writer, "        legend_false_a [label=\"\", style=invis, width=0, height=0];")
	fmt.Fprintln(writer, "        legend_false_b [label=\"\", style=invis, width=0, height=0];")
	fmt.Fprintln(writer, "        legend_false_a -> legend_false_b [label=\"false\", color=\"#DC143C\"];")
	fmt.Fprintln(writer, "    }")
}

// escapeDOTID escapes a string for use as a DOT node ID
func escapeDOTID(id string) string {
	replacer := strings.NewReplacer(
		"/", "__",
		".", "_",
		"-", "_",
		"@", "_at_",
		" ", "_",
		":", "_",
	)
	escaped := replacer.Replace(id)

	// Ensure it starts with a letter or underscore
	if len(escaped) > 0 && !isValidDOTIDStart(escaped[0]) {
		escaped = "_" + escaped
	}

	return escaped
}

// escapeDOTLabel escapes a string for use as a DOT label
func escapeDOTLabel(label string) string {
	// Backslash must be first to avoid double-escaping
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		"\"", "\\\"",
		"\n", "\\n",
		"\r", "",
		"\t", "\\t",
	)
	return replacer.Replace(label)
}

// isValidDOTIDStart checks if a character can start a DOT ID
func isValidDOTIDStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}
