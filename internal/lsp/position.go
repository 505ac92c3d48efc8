package lsp

import (
	"unicode/utf16"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jward/treeguides/internal/text"
)

// positionAt converts a byte offset into a protocol position, whose
// character is counted in UTF-16 code units.
func positionAt(doc *text.Document, offset int) protocol.Position {
	offset = min(max(offset, 0), doc.Len())
	line := doc.LineOf(offset)
	character := 0
	for _, r := range doc.Slice(doc.LineStart(line), offset) {
		character += utf16.RuneLen(r)
	}
	return protocol.Position{Line: uint32(line), Character: uint32(character)}
}
