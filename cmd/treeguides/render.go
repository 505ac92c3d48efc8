package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/treeguides"
	"github.com/jward/treeguides/internal/lsp"
	"github.com/jward/treeguides/internal/outline"
	"github.com/jward/treeguides/internal/text"
	"github.com/jward/treeguides/scripts"
)

var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Draw the guides of a file next to its source",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

var outlineCmd = &cobra.Command{
	Use:   "outline <file>",
	Short: "Print the outline computed for a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runOutline,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve guides over the language server protocol on stdio",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

// analyzeFile reads path and computes its outline.
func analyzeFile(ctx context.Context, s *session, path string) (string, *outline.Outline, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("reading %s: %w", path, err)
	}
	o, err := s.analyzer.Analyze(ctx, path, 1, src)
	if err != nil {
		return "", nil, err
	}
	return string(src), o, nil
}

// buildPass applies o to a fresh document holding src.
func buildPass(s *session, src string, o *outline.Outline) (*treeguides.Pass, error) {
	p := treeguides.NewPass(text.NewDocument(src), treeguides.WithBulkThreshold(s.cfg.BulkThreshold))
	if err := p.SetOutline(o); err != nil {
		p.Dispose()
		return nil, err
	}
	return p, nil
}

func runRender(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return outputError("render", err)
	}
	defer s.Close()

	src, o, err := analyzeFile(cmd.Context(), s, args[0])
	if err != nil {
		return outputError("render", err)
	}
	p, err := buildPass(s, src, o)
	if err != nil {
		return outputError("render", err)
	}
	defer p.Dispose()

	return outputResult(CLIResult{
		Command: "render",
		Results: CLIRender{
			File:   args[0],
			Source: src,
			Guides: p.Guides(),
			Stats:  newCLIStats(p.Stats(), p.Rejected()),
		},
	})
}

func runOutline(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return outputError("outline", err)
	}
	defer s.Close()

	_, o, err := analyzeFile(cmd.Context(), s, args[0])
	if err != nil {
		return outputError("outline", err)
	}
	if flagFormat == "json" {
		return o.Encode(os.Stdout)
	}
	return outputResult(CLIResult{Command: "outline", Results: o})
}

func runServe(cmd *cobra.Command, args []string) error {
	var opts []lsp.Option
	if flagScriptsDir == "" {
		opts = append(opts, lsp.WithScriptsFS(scripts.FS))
	}
	return lsp.New(flagScriptsDir, opts...).RunStdio()
}
