package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/jward/treeguides"
	"github.com/jward/treeguides/internal/outline"
	"github.com/jward/treeguides/internal/reconcile"
)

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// CLIRender is the result of render.
type CLIRender struct {
	File   string             `json:"file"`
	Source string             `json:"-"`
	Guides []treeguides.Guide `json:"guides"`
	Stats  CLIStats           `json:"stats"`
}

// CLIStats is a JSON-friendly reconcile summary.
type CLIStats struct {
	Created  int  `json:"created"`
	Disposed int  `json:"disposed"`
	Reused   int  `json:"reused"`
	Invalid  int  `json:"invalid"`
	Bulk     bool `json:"bulk"`
	Rejected int  `json:"rejected"`
}

func newCLIStats(s reconcile.Stats, rejected int) CLIStats {
	return CLIStats{
		Created:  s.Created,
		Disposed: s.Disposed,
		Reused:   s.Reused,
		Invalid:  s.Invalid,
		Bulk:     s.Bulk,
		Rejected: rejected,
	}
}

var validFormats = []string{"json", "text"}

func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}

func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(os.Stdout, result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}

func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case CLIRender:
		formatRenderText(w, v)
	case CLIStats:
		formatStatsText(w, v)
	case *outline.Outline:
		formatOutlineText(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// formatRenderText prints the source with the guides drawn in a gutter,
// followed by the reconcile summary.
func formatRenderText(w io.Writer, r CLIRender) {
	lines := strings.Split(strings.TrimSuffix(r.Source, "\n"), "\n")
	gutter := drawGuides(r.Guides, len(lines))
	for i, line := range lines {
		fmt.Fprintf(w, "%s %4d  %s\n", gutter[i], i+1, line)
	}
	fmt.Fprintln(w)
	formatStatsText(w, r.Stats)
}

func formatStatsText(w io.Writer, s CLIStats) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tREUSED\tDISPOSED\tINVALID\tREJECTED\tBULK")
	fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%t\n",
		s.Created, s.Reused, s.Disposed, s.Invalid, s.Rejected, s.Bulk)
	tw.Flush()
}

// formatOutlineText prints one outline node per line, indented by depth.
func formatOutlineText(w io.Writer, o *outline.Outline) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NODE\tKIND\tSPAN\tATTRIBUTES")
	o.Root.Walk(func(n *outline.Node, depth int) bool {
		if depth == 0 {
			return true
		}
		name := n.ClassName
		if n.Kind == outline.KindVariableBinding {
			name = n.VariableName + " ="
		}
		attrs := make([]string, 0, len(n.Attributes))
		for _, a := range n.Attributes {
			attrs = append(attrs, a.Name)
		}
		fmt.Fprintf(tw, "%s%s\t%s\t[%d,%d)\t%s\n",
			strings.Repeat("  ", depth-1), name, n.Kind, n.Offset, n.End(), strings.Join(attrs, ","))
		return true
	})
	tw.Flush()
}

// drawGuides returns one gutter string per line. Each guide takes the
// column of its nesting depth: a corner on its opening line, a tee on each
// child line and a bar in between.
func drawGuides(guides []treeguides.Guide, lineCount int) []string {
	depth := make([]int, len(guides))
	width := 0
	for i, g := range guides {
		if g.Parent >= 0 && g.Parent < i {
			depth[i] = depth[g.Parent] + 1
		}
		width = max(width, depth[i]+1)
	}

	cells := make([][]rune, lineCount)
	for i := range cells {
		cells[i] = []rune(strings.Repeat(" ", width))
	}
	set := func(line, col int, r rune) {
		if line >= 0 && line < lineCount {
			cells[line][col] = r
		}
	}
	for i, g := range guides {
		if !g.Valid {
			continue
		}
		col := depth[i]
		if len(g.ChildLines) == 0 {
			set(g.StartLine, col, '╶')
			continue
		}
		last := g.EndLine
		for l := g.StartLine + 1; l < last; l++ {
			set(l, col, '│')
		}
		for _, l := range g.ChildLines {
			set(l, col, '├')
		}
		set(last, col, '└')
		set(g.StartLine, col, '┌')
	}

	out := make([]string, lineCount)
	for i, c := range cells {
		out[i] = string(c)
	}
	return out
}
