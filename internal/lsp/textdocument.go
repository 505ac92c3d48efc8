package lsp

import (
	"errors"
	"fmt"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jward/treeguides"
	"github.com/jward/treeguides/internal/hittest"
	"github.com/jward/treeguides/internal/outline"
	"github.com/jward/treeguides/internal/scheduler"
	"github.com/jward/treeguides/internal/text"
)

func (s *Server) textDocumentDidOpen(
	context *glsp.Context,
	params *protocol.DidOpenTextDocumentParams,
) error {
	item := params.TextDocument
	if !s.config.Enabled || s.scheduler == nil {
		return nil
	}
	if _, ok := s.analyzer.Language(item.URI); !ok {
		log.Debugf("ignoring %s", item.URI)
		return nil
	}

	return s.scheduler.Post(scheduler.Task{Name: "open " + item.URI, Execute: func() error {
		if old, ok := s.docs[item.URI]; ok {
			s.release(old)
		}
		d := &document{
			uri:     item.URI,
			version: int(item.Version),
			text:    text.NewDocument(item.Text),
		}
		d.pass = treeguides.NewPass(d.text,
			treeguides.WithBulkThreshold(s.config.BulkThreshold),
			treeguides.WithHitTesterListener(func(_, t *hittest.Tester) {
				s.publishHidden(d, t)
			}),
		)
		s.docs[item.URI] = d

		s.registry.Open(item.URI)
		d.listener, _ = s.registry.AddListener(item.URI, func(o *outline.Outline) {
			s.outlineArrived(item.URI, o)
		})
		return s.analyzer.Request(item.URI, d.version, item.Text)
	}})
}

func (s *Server) textDocumentDidChange(
	context *glsp.Context,
	params *protocol.DidChangeTextDocumentParams,
) error {
	uri := params.TextDocument.URI
	if s.scheduler == nil {
		return nil
	}
	changes := params.ContentChanges
	version := int(params.TextDocument.Version)

	return s.scheduler.Post(scheduler.Task{Name: "change " + uri, Execute: func() error {
		d, ok := s.docs[uri]
		if !ok {
			return nil
		}
		for _, raw := range changes {
			if err := applyChange(d.text, raw); err != nil {
				return fmt.Errorf("lsp: change %s: %w", uri, err)
			}
		}
		d.version = version
		s.publishGuides(d)
		s.requestLater(uri, version, d.text.Text())
		return nil
	}})
}

// applyChange edits doc in place so the markers on it follow the change.
func applyChange(doc *text.Document, raw any) error {
	switch change := raw.(type) {
	case protocol.TextDocumentContentChangeEvent:
		if change.Range == nil {
			return doc.Replace(0, doc.Len(), change.Text)
		}
		src := doc.Text()
		start := change.Range.Start.IndexIn(src)
		end := change.Range.End.IndexIn(src)
		return doc.Replace(start, max(start, end), change.Text)
	case protocol.TextDocumentContentChangeEventWhole:
		return doc.Replace(0, doc.Len(), change.Text)
	}
	return fmt.Errorf("unexpected change event type %T", raw)
}

func (s *Server) textDocumentDidClose(
	context *glsp.Context,
	params *protocol.DidCloseTextDocumentParams,
) error {
	uri := params.TextDocument.URI
	if s.scheduler == nil {
		return nil
	}
	s.stopTimer(uri)
	return s.scheduler.Post(scheduler.Task{Name: "close " + uri, Execute: func() error {
		if d, ok := s.docs[uri]; ok {
			s.release(d)
			delete(s.docs, uri)
		}
		return nil
	}})
}

// release disposes the guides of d and drops its outlines. Results still in
// flight for it are discarded by the registry.
func (s *Server) release(d *document) {
	d.pass.Dispose()
	s.registry.RemoveListener(d.listener)
	s.registry.Close(d.uri)
}

// outlineArrived runs on an analysis worker.
func (s *Server) outlineArrived(uri protocol.DocumentUri, o *outline.Outline) {
	err := s.scheduler.Post(scheduler.Task{Name: "outline " + uri, Execute: func() error {
		d, ok := s.docs[uri]
		if !ok {
			return nil
		}
		o := s.registry.OutlineIfUpdated(uri, d.text.Len())
		if o == nil {
			log.Debugf("outline for %s does not match v%d", uri, d.version)
			return nil
		}
		if err := d.pass.SetOutline(o); err != nil {
			if errors.Is(err, treeguides.ErrStaleOutline) {
				return nil
			}
			return err
		}
		s.publishGuides(d)
		return nil
	}})
	if err != nil {
		log.Debugf("dropping outline for %s: %s", uri, err)
	}
}

func (s *Server) requestLater(uri protocol.DocumentUri, version int, src string) {
	delay := s.config.Debounce()
	if delay <= 0 {
		if err := s.analyzer.Request(uri, version, src); err != nil {
			log.Debugf("request %s: %s", uri, err)
		}
		return
	}
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if t, ok := s.timers[uri]; ok {
		t.Stop()
	}
	s.timers[uri] = time.AfterFunc(delay, func() {
		if err := s.analyzer.Request(uri, version, src); err != nil {
			log.Debugf("request %s: %s", uri, err)
		}
	})
}

func (s *Server) stopTimer(uri protocol.DocumentUri) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if t, ok := s.timers[uri]; ok {
		t.Stop()
		delete(s.timers, uri)
	}
}

func (s *Server) stopTimers() {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	for uri, t := range s.timers {
		t.Stop()
		delete(s.timers, uri)
	}
}
