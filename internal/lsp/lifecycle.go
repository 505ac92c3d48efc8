package lsp

import (
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jward/treeguides"
	"github.com/jward/treeguides/internal/config"
	"github.com/jward/treeguides/internal/scheduler"
	"github.com/jward/treeguides/internal/store"
)

func (s *Server) initialize(
	context *glsp.Context,
	params *protocol.InitializeParams,
) (any, error) {
	cfg, err := config.Load(params.InitializationOptions)
	if err != nil {
		return nil, fmt.Errorf("lsp: initialization options: %w", err)
	}
	s.config = cfg
	s.notify = context.Notify
	log.Infof("config: %+v", cfg)

	opts := []treeguides.AnalyzerOption{treeguides.WithLanguages(cfg.Languages)}
	if s.scriptsFS != nil {
		opts = append(opts, treeguides.WithScriptsFS(s.scriptsFS))
	}
	if cfg.CachePath != "" {
		st, err := store.NewStore(cfg.CachePath)
		if err != nil {
			return nil, fmt.Errorf("lsp: open cache: %w", err)
		}
		if err := st.Migrate(); err != nil {
			st.Close()
			return nil, fmt.Errorf("lsp: migrate cache: %w", err)
		}
		s.store = st
		opts = append(opts, treeguides.WithCache(st))
	}

	s.registry = treeguides.NewRegistry()
	s.analyzer, err = treeguides.NewAnalyzer(s.registry, s.scriptsDir, opts...)
	if err != nil {
		return nil, err
	}
	s.scheduler = scheduler.NewScheduler(64)
	s.scheduler.RunScheduler()

	syncKind := protocol.TextDocumentSyncKindIncremental
	capabilities := s.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
	}
	capabilities.ExecuteCommandProvider = &protocol.ExecuteCommandOptions{
		Commands: []string{HiddenIndentsCommand},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &version,
		},
	}, nil
}

func (s *Server) initialized(
	context *glsp.Context,
	params *protocol.InitializedParams,
) error {
	log.Infof("client initialized")
	return nil
}

// shutdown disposes every open document on the owner goroutine, then stops
// analysis and the owner loop.
func (s *Server) shutdown(context *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	if s.scheduler == nil {
		return nil
	}
	s.stopTimers()
	s.analyzer.Close()
	err := s.scheduler.Do("shutdown", func() error {
		for uri, d := range s.docs {
			s.release(d)
			delete(s.docs, uri)
		}
		return nil
	})
	s.scheduler.StopScheduler()
	s.registry.Dispose()
	if s.store != nil {
		if cerr := s.store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	log.Infof("shut down")
	return err
}

func (s *Server) setTrace(context *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}
