package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jward/treeguides/internal/hittest"
)

// Guide is one guide as sent to the client. Lines are zero-based.
type Guide struct {
	Range       protocol.Range `json:"range"`
	Indent      int            `json:"indent"`
	StartLine   int            `json:"startLine"`
	EndLine     int            `json:"endLine"`
	ChildLines  []int          `json:"childLines"`
	Parent      int            `json:"parent"`
	BuildMethod bool           `json:"buildMethod"`
	Valid       bool           `json:"valid"`
	ClassName   string         `json:"className,omitempty"`
}

// GuidesParams is the payload of GuidesNotification.
type GuidesParams struct {
	URI     protocol.DocumentUri `json:"uri"`
	Version int                  `json:"version"`
	Guides  []Guide              `json:"guides"`
}

// HiddenIndentsParams is the payload of HiddenIndentsNotification.
type HiddenIndentsParams struct {
	URI   protocol.DocumentUri `json:"uri"`
	Lines []hittest.LineRange  `json:"lines"`
}

// publishGuides sends the guides of d. Guides that drifted since the last
// outline are sent with Valid unset and should not be drawn.
func (s *Server) publishGuides(d *document) {
	params := GuidesParams{URI: d.uri, Version: d.version, Guides: []Guide{}}
	for _, g := range d.pass.Guides() {
		params.Guides = append(params.Guides, Guide{
			Range: protocol.Range{
				Start: positionAt(d.text, g.StartOffset),
				End:   positionAt(d.text, g.EndOffset),
			},
			Indent:      g.Indent,
			StartLine:   g.StartLine,
			EndLine:     g.EndLine,
			ChildLines:  g.ChildLines,
			Parent:      g.Parent,
			BuildMethod: g.BuildMethod,
			Valid:       g.Valid,
			ClassName:   g.ClassName,
		})
	}
	s.publish(GuidesNotification, params)
}

func (s *Server) publishHidden(d *document, t *hittest.Tester) {
	lines := t.Spans()
	if lines == nil {
		lines = []hittest.LineRange{}
	}
	s.publish(HiddenIndentsNotification, HiddenIndentsParams{URI: d.uri, Lines: lines})
}
