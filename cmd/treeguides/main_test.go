package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/treeguides"
)

const uiSource = `package ui

func build() Widget {
	return Column{
		Children: []Widget{
			Text{Value: "hi"},
		},
	}
}
`

func TestValidateFormat(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validateFormat("json"))
	assert.NoError(t, validateFormat("text"))
	assert.ErrorContains(t, validateFormat("yaml"), "json or text")
}

func TestLoadConfig_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"bulk_threshold": 5, "cache_path": "x.db"}`), 0o644))
	flagConfig = path
	t.Cleanup(func() { flagConfig = "" })

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.BulkThreshold)
	assert.Equal(t, "x.db", resolveDBPath(cfg))

	flagDB = "other.db"
	t.Cleanup(func() { flagDB = "" })
	assert.Equal(t, "other.db", resolveDBPath(cfg))
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"debounce_ms": -1}`), 0o644))
	flagConfig = path
	t.Cleanup(func() { flagConfig = "" })

	_, err := loadConfig()
	assert.Error(t, err)
}

func TestDrawGuides(t *testing.T) {
	t.Parallel()
	guides := []treeguides.Guide{
		{StartLine: 0, EndLine: 3, ChildLines: []int{1, 3}, Parent: -1, Valid: true},
		{StartLine: 1, EndLine: 2, ChildLines: []int{2}, Parent: 0, Valid: true},
		{StartLine: 3, EndLine: 3, Parent: 0, Valid: true},
		{StartLine: 4, EndLine: 4, Parent: -1, Valid: false},
	}
	got := drawGuides(guides, 5)
	assert.Equal(t, []string{
		"┌ ",
		"├┌",
		"│└",
		"└╶",
		"  ",
	}, got)
}

func TestFormatRenderText(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	formatRenderText(&buf, CLIRender{
		Source: "a(\n  b\n)\n",
		Guides: []treeguides.Guide{{StartLine: 0, EndLine: 1, ChildLines: []int{1}, Parent: -1, Valid: true}},
		Stats:  CLIStats{Created: 1},
	})
	out := buf.String()
	assert.Contains(t, out, "┌    1  a(\n")
	assert.Contains(t, out, "└    2    b\n")
	assert.Contains(t, out, "CREATED")
}

func newTestEditor(t *testing.T) *editor {
	t.Helper()
	s, err := openSession()
	require.NoError(t, err)
	t.Cleanup(s.Close)
	e, err := newEditor(context.Background(), s, "ui.go", uiSource)
	require.NoError(t, err)
	t.Cleanup(e.pass.Dispose)
	return e
}

func TestEditor_EditAndRefresh(t *testing.T) {
	e := newTestEditor(t)
	guides := e.pass.Guides()
	require.Len(t, guides, 3)
	assert.Equal(t, "Column", guides[0].ClassName)
	assert.Equal(t, 3, guides[0].StartLine)

	var out bytes.Buffer
	more, err := e.exec(&out, `hidden 4 4`)
	require.NoError(t, err)
	assert.True(t, more)
	assert.Equal(t, "true\n", out.String())

	// Guides follow a new line before them at once.
	_, err = e.exec(&out, `insert 1 1 "// ui\n"`)
	require.NoError(t, err)
	assert.Equal(t, 4, e.pass.Guides()[0].StartLine)
	assert.True(t, strings.HasPrefix(e.doc.Text(), "// ui\npackage"))

	_, err = e.exec(&out, "delete 1 1 6")
	require.NoError(t, err)
	assert.Equal(t, uiSource, e.doc.Text())

	// A same-line edit keeps every guide.
	_, err = e.exec(&out, `insert 1 11 " // views"`)
	require.NoError(t, err)
	_, err = e.exec(&out, "refresh")
	require.NoError(t, err)
	assert.Equal(t, 3, e.pass.Stats().Reused)
	assert.Equal(t, 0, e.pass.Stats().Created)

	out.Reset()
	_, err = e.exec(&out, "show")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "package ui // views")
}

func TestEditor_RejectsBadCommands(t *testing.T) {
	e := newTestEditor(t)
	var out bytes.Buffer
	for _, line := range []string{"bogus", "insert 1", "delete 99 1 1", "delete 1 x 1", "hidden 3 1"} {
		_, err := e.exec(&out, line)
		assert.ErrorIs(t, err, errBadCommand, line)
	}

	more, err := e.exec(&out, "quit")
	require.NoError(t, err)
	assert.False(t, more)
	more, err = e.exec(&out, "   ")
	require.NoError(t, err)
	assert.True(t, more)
}

func TestAnalyzeFile_RendersFixture(t *testing.T) {
	s, err := openSession()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	src, o, err := analyzeFile(context.Background(), s, filepath.Join("testdata", "widgets.go"))
	require.NoError(t, err)
	p, err := buildPass(s, src, o)
	require.NoError(t, err)
	t.Cleanup(p.Dispose)

	var names []string
	for _, g := range p.Guides() {
		names = append(names, g.ClassName)
	}
	assert.Contains(t, names, "Column")
	assert.Contains(t, names, "Row")

	var buf bytes.Buffer
	formatRenderText(&buf, CLIRender{Source: src, Guides: p.Guides(), Stats: newCLIStats(p.Stats(), p.Rejected())})
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, "return Column{") {
			assert.True(t, strings.HasPrefix(line, "┌"), line)
		}
	}

	_, _, err = analyzeFile(context.Background(), s, filepath.Join("testdata", "missing.go"))
	assert.Error(t, err)
}
