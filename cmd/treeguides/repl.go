package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jward/treeguides"
	"github.com/jward/treeguides/internal/hittest"
	"github.com/jward/treeguides/internal/text"
)

const replHelp = `commands (lines and columns start at 1):
  insert LINE COL TEXT   insert TEXT, Go-quoted for escapes ("\n")
  delete LINE COL N      delete N bytes
  refresh                recompute the outline and reconcile
  show                   draw the live guides
  stats                  counts of the last reconcile
  hidden START END       whether lines START..END overlap a guide
  quit`

var errBadCommand = errors.New("bad command")

var replCmd = &cobra.Command{
	Use:   "repl <file>",
	Short: "Edit a file in memory and watch its guides follow",
	Long:  "Loads a file, draws its guides and accepts edit commands. Guides track edits immediately; refresh recomputes the outline and reconciles.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRepl,
}

// editor is the state behind one repl.
type editor struct {
	ctx     context.Context
	session *session
	path    string
	doc     *text.Document
	pass    *treeguides.Pass
	version int
}

func newEditor(ctx context.Context, s *session, path, src string) (*editor, error) {
	e := &editor{ctx: ctx, session: s, path: path, doc: text.NewDocument(src)}
	e.pass = treeguides.NewPass(e.doc, treeguides.WithBulkThreshold(s.cfg.BulkThreshold))
	if err := e.refresh(); err != nil {
		e.pass.Dispose()
		return nil, err
	}
	return e, nil
}

func (e *editor) refresh() error {
	e.version++
	o, err := e.session.analyzer.Analyze(e.ctx, e.path, e.version, []byte(e.doc.Text()))
	if err != nil {
		return err
	}
	return e.pass.SetOutline(o)
}

// offset maps a one-based line and column to a byte offset.
func (e *editor) offset(lineArg, colArg string) (int, error) {
	line, err := strconv.Atoi(lineArg)
	if err != nil || line < 1 || line > e.doc.LineCount() {
		return 0, fmt.Errorf("line %q: %w", lineArg, errBadCommand)
	}
	col, err := strconv.Atoi(colArg)
	if err != nil || col < 1 {
		return 0, fmt.Errorf("column %q: %w", colArg, errBadCommand)
	}
	return e.doc.LineStart(line-1) + col - 1, nil
}

func (e *editor) render() CLIRender {
	return CLIRender{
		File:   e.path,
		Source: e.doc.Text(),
		Guides: e.pass.Guides(),
		Stats:  newCLIStats(e.pass.Stats(), e.pass.Rejected()),
	}
}

// exec runs one command line. It reports false once the repl should end.
func (e *editor) exec(w io.Writer, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true, nil
	}
	switch fields[0] {
	case "quit", "exit":
		return false, nil
	case "help":
		fmt.Fprintln(w, replHelp)
	case "insert":
		if len(fields) < 4 {
			return true, fmt.Errorf("insert LINE COL TEXT: %w", errBadCommand)
		}
		off, err := e.offset(fields[1], fields[2])
		if err != nil {
			return true, err
		}
		// The text is everything after the column, spaces included.
		rest := strings.TrimLeft(line, " \t")
		for range 3 {
			rest = strings.TrimLeft(rest[strings.IndexAny(rest, " \t"):], " \t")
		}
		if unq, err := strconv.Unquote(rest); err == nil {
			rest = unq
		}
		return true, e.doc.Insert(off, rest)
	case "delete":
		if len(fields) != 4 {
			return true, fmt.Errorf("delete LINE COL N: %w", errBadCommand)
		}
		off, err := e.offset(fields[1], fields[2])
		if err != nil {
			return true, err
		}
		n, err := strconv.Atoi(fields[3])
		if err != nil || n < 0 {
			return true, fmt.Errorf("count %q: %w", fields[3], errBadCommand)
		}
		return true, e.doc.Delete(off, off+n)
	case "refresh":
		if err := e.refresh(); err != nil {
			return true, err
		}
		formatStatsText(w, newCLIStats(e.pass.Stats(), e.pass.Rejected()))
	case "show":
		formatRenderText(w, e.render())
	case "stats":
		formatStatsText(w, newCLIStats(e.pass.Stats(), e.pass.Rejected()))
	case "hidden":
		if len(fields) != 3 {
			return true, fmt.Errorf("hidden START END: %w", errBadCommand)
		}
		start, err1 := strconv.Atoi(fields[1])
		end, err2 := strconv.Atoi(fields[2])
		if err1 != nil || err2 != nil || start < 1 || end < start {
			return true, fmt.Errorf("lines %s..%s: %w", fields[1], fields[2], errBadCommand)
		}
		fmt.Fprintln(w, e.pass.IsGuideHidden(hittest.LineRange{Start: start - 1, End: end - 1}))
	default:
		return true, fmt.Errorf("%q, type help: %w", fields[0], errBadCommand)
	}
	return true, nil
}

func runRepl(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	src, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	e, err := newEditor(cmd.Context(), s, args[0], string(src))
	if err != nil {
		return err
	}
	defer e.pass.Dispose()

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(func(line string) []string {
		var out []string
		for _, c := range []string{"insert", "delete", "refresh", "show", "stats", "hidden", "help", "quit"} {
			if strings.HasPrefix(c, line) {
				out = append(out, c)
			}
		}
		return out
	})

	formatRenderText(os.Stdout, e.render())
	for {
		line, err := ln.Prompt("guides> ")
		if err != nil {
			// io.EOF or liner.ErrPromptAborted
			fmt.Println()
			return nil
		}
		ln.AppendHistory(line)
		more, err := e.exec(os.Stdout, line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		if !more {
			return nil
		}
	}
}
