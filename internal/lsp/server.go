// Package lsp serves guides over the language server protocol. Documents
// are edited on a single owner goroutine; outlines computed by the
// analysis workers are handed to it through the scheduler.
package lsp

import (
	"io/fs"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/jward/treeguides"
	"github.com/jward/treeguides/internal/config"
	"github.com/jward/treeguides/internal/scheduler"
	"github.com/jward/treeguides/internal/store"
	"github.com/jward/treeguides/internal/text"
)

var log = commonlog.GetLogger("treeguides.lsp")

const (
	lsName = "treeguides"

	// GuidesNotification carries the live guides of one document.
	GuidesNotification = "treeguides/guides"
	// HiddenIndentsNotification carries the lines whose editor indent guides
	// should be hidden, sent when they change.
	HiddenIndentsNotification = "treeguides/hiddenIndentsChanged"
	// HiddenIndentsCommand asks whether a line range overlaps a guide.
	HiddenIndentsCommand = "treeguides/hiddenIndents"
)

var version = "0.1.0"

// document is the owner-side state of one open file.
type document struct {
	uri      protocol.DocumentUri
	version  int
	text     *text.Document
	pass     *treeguides.Pass
	listener treeguides.ListenerID
}

type Server struct {
	handler    *protocol.Handler
	scriptsDir string
	scriptsFS  fs.FS

	config    config.Config
	registry  *treeguides.Registry
	analyzer  *treeguides.Analyzer
	store     *store.Store
	scheduler *scheduler.Scheduler
	notify    glsp.NotifyFunc

	// docs is only touched by scheduler tasks.
	docs map[protocol.DocumentUri]*document

	timersMu sync.Mutex
	timers   map[protocol.DocumentUri]*time.Timer
}

// Option configures a Server.
type Option func(*Server)

// WithScriptsFS loads outline scripts from fsys.
func WithScriptsFS(fsys fs.FS) Option {
	return func(s *Server) {
		s.scriptsFS = fsys
	}
}

// New creates a Server. Scripts are read from scriptsDir unless
// WithScriptsFS is given.
func New(scriptsDir string, opts ...Option) *Server {
	s := &Server{
		scriptsDir: scriptsDir,
		config:     config.Default(),
		docs:       make(map[protocol.DocumentUri]*document),
		timers:     make(map[protocol.DocumentUri]*time.Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = &protocol.Handler{
		Initialize:              s.initialize,
		Initialized:             s.initialized,
		Shutdown:                s.shutdown,
		SetTrace:                s.setTrace,
		TextDocumentDidOpen:     s.textDocumentDidOpen,
		TextDocumentDidChange:   s.textDocumentDidChange,
		TextDocumentDidClose:    s.textDocumentDidClose,
		WorkspaceExecuteCommand: s.workspaceExecuteCommand,
	}
	return s
}

// RunStdio serves the protocol on standard input and output.
func (s *Server) RunStdio() error {
	return server.NewServer(s.handler, lsName, false).RunStdio()
}

func (s *Server) publish(method string, params any) {
	if s.notify != nil {
		s.notify(method, params)
	}
}
