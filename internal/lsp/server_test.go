package lsp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jward/treeguides/internal/text"
	"github.com/jward/treeguides/scripts"
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

const uiURI = "file:///work/ui.go"

type notification struct {
	method string
	params any
}

func startServer(t *testing.T) (*Server, *glsp.Context, chan notification) {
	t.Helper()
	notes := make(chan notification, 64)
	ctx := &glsp.Context{Notify: func(method string, params any) {
		notes <- notification{method: method, params: params}
	}}
	s := New("", WithScriptsFS(scripts.FS))
	result, err := s.initialize(ctx, &protocol.InitializeParams{
		InitializationOptions: map[string]any{"debounce_ms": 0},
	})
	require.NoError(t, err)
	res, ok := result.(protocol.InitializeResult)
	require.True(t, ok)
	require.NotNil(t, res.Capabilities.ExecuteCommandProvider)
	assert.Equal(t, []string{HiddenIndentsCommand}, res.Capabilities.ExecuteCommandProvider.Commands)
	t.Cleanup(func() { s.shutdown(ctx) })
	return s, ctx, notes
}

func waitForGuides(t *testing.T, notes chan notification, version int) GuidesParams {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for {
		select {
		case n := <-notes:
			if n.method != GuidesNotification {
				continue
			}
			params := n.params.(GuidesParams)
			if params.Version == version {
				return params
			}
		case <-deadline:
			t.Fatalf("no guides for version %d", version)
		}
	}
}

func hidden(t *testing.T, s *Server, ctx *glsp.Context, start, end int) bool {
	t.Helper()
	res, err := s.workspaceExecuteCommand(ctx, &protocol.ExecuteCommandParams{
		Command:   HiddenIndentsCommand,
		Arguments: []any{uiURI, start, end},
	})
	require.NoError(t, err)
	return res.(bool)
}

func TestServer_OpenEditClose(t *testing.T) {
	s, ctx, notes := startServer(t)

	require.NoError(t, s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uiURI, LanguageID: "go", Version: 1, Text: uiSource},
	}))
	opened := waitForGuides(t, notes, 1)
	require.Len(t, opened.Guides, 3)
	column := opened.Guides[0]
	assert.Equal(t, "Column", column.ClassName)
	assert.Equal(t, 3, column.StartLine)
	assert.True(t, column.BuildMethod)
	assert.True(t, column.Valid)
	assert.Equal(t, protocol.Position{Line: 3, Character: 8}, column.Range.Start)

	assert.True(t, hidden(t, s, ctx, 4, 4))
	assert.False(t, hidden(t, s, ctx, 0, 1))

	// One blank line at the top moves every guide down before reanalysis.
	require.NoError(t, s.textDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uiURI},
			Version:                2,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEvent{
			Range: &protocol.Range{Start: protocol.Position{Line: 0, Character: 0}, End: protocol.Position{Line: 0, Character: 0}},
			Text:  "\n",
		}},
	}))
	edited := waitForGuides(t, notes, 2)
	require.Len(t, edited.Guides, 3)
	assert.Equal(t, 4, edited.Guides[0].StartLine)
	assert.Equal(t, []int{5}, edited.Guides[0].ChildLines)

	require.NoError(t, s.textDocumentDidClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uiURI},
	}))
	assert.False(t, hidden(t, s, ctx, 4, 4))
}

func TestServer_IgnoresUnsupportedFiles(t *testing.T) {
	s, ctx, _ := startServer(t)
	require.NoError(t, s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: "file:///work/notes.txt", Version: 1, Text: "hi"},
	}))
	err := s.scheduler.Do("check", func() error {
		assert.Empty(t, s.docs)
		return nil
	})
	require.NoError(t, err)
}

func TestServer_RejectsBadCommandArguments(t *testing.T) {
	s, ctx, _ := startServer(t)
	_, err := s.workspaceExecuteCommand(ctx, &protocol.ExecuteCommandParams{
		Command:   HiddenIndentsCommand,
		Arguments: []any{uiURI},
	})
	assert.ErrorIs(t, err, ErrBadArguments)

	_, err = s.workspaceExecuteCommand(ctx, &protocol.ExecuteCommandParams{
		Command:   HiddenIndentsCommand,
		Arguments: []any{uiURI, "one", 2},
	})
	assert.ErrorIs(t, err, ErrBadArguments)

	res, err := s.workspaceExecuteCommand(ctx, &protocol.ExecuteCommandParams{Command: "other"})
	assert.NoError(t, err)
	assert.Nil(t, res)
}

func TestServer_InvalidInitializationOptions(t *testing.T) {
	s := New("", WithScriptsFS(scripts.FS))
	_, err := s.initialize(&glsp.Context{}, &protocol.InitializeParams{
		InitializationOptions: map[string]any{"debounce_ms": -1},
	})
	assert.Error(t, err)
}

func TestApplyChange(t *testing.T) {
	doc := text.NewDocument("héllo\nworld\n")
	require.NoError(t, applyChange(doc, protocol.TextDocumentContentChangeEvent{
		Range: &protocol.Range{Start: protocol.Position{Line: 0, Character: 2}, End: protocol.Position{Line: 0, Character: 4}},
		Text:  "LL",
	}))
	assert.Equal(t, "héLLo\nworld\n", doc.Text())

	require.NoError(t, applyChange(doc, protocol.TextDocumentContentChangeEventWhole{Text: "x"}))
	assert.Equal(t, "x", doc.Text())

	assert.Error(t, applyChange(doc, "nope"))
}

func TestPositionAt(t *testing.T) {
	doc := text.NewDocument("a😀b\nhé")
	assert.Equal(t, protocol.Position{Line: 0, Character: 3}, positionAt(doc, len("a😀")))
	assert.Equal(t, protocol.Position{Line: 1, Character: 2}, positionAt(doc, doc.Len()))
	assert.Equal(t, protocol.Position{Line: 0, Character: 0}, positionAt(doc, -4))
}
