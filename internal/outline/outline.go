// Package outline models the tree of constructor expressions reported by an
// analysis backend for one file.
package outline

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Kind classifies an outline node. It is decided once when the outline is
// ingested.
type Kind int

const (
	// KindOther is any node that does not open a guide by itself.
	KindOther Kind = iota
	// KindNewInstance is a constructor call or composite literal.
	KindNewInstance
	// KindVariableBinding binds a name to its single child.
	KindVariableBinding
)

var kindNames = map[Kind]string{
	KindOther:           "OTHER",
	KindNewInstance:     "NEW_INSTANCE",
	KindVariableBinding: "VARIABLE",
}

// ParseKind maps an analysis kind tag to a Kind. Unknown tags map to
// KindOther.
func ParseKind(s string) Kind {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NEW_INSTANCE", "INSTANCE", "CONSTRUCTOR_INVOCATION":
		return KindNewInstance
	case "VARIABLE", "VARIABLE_BINDING", "FIELD":
		return KindVariableBinding
	}
	return KindOther
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	*k = ParseKind(string(b))
	return nil
}

// Span is an offset and length in the analysed text.
type Span struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
}

// End returns Offset + Length.
func (s Span) End() int { return s.Offset + s.Length }

// Attribute is one named argument of a node. Either Literal is set or Value
// locates the expression in the text.
type Attribute struct {
	Name    string `json:"name"`
	Label   string `json:"label,omitempty"`
	Literal string `json:"literalValue,omitempty"`
	Value   *Span  `json:"valueLocation,omitempty"`
}

// Node is one outline node.
type Node struct {
	Kind         Kind        `json:"kind"`
	Offset       int         `json:"offset"`
	Length       int         `json:"length"`
	ClassName    string      `json:"className,omitempty"`
	VariableName string      `json:"variableName,omitempty"`
	Label        string      `json:"label,omitempty"`
	Attributes   []Attribute `json:"attributes,omitempty"`
	Children     []*Node     `json:"children,omitempty"`
}

// End returns the offset one past the node's text.
func (n *Node) End() int { return n.Offset + n.Length }

// OpensGuide reports whether the node yields a guide: a new instance, or a
// variable binding directly bound to one.
func (n *Node) OpensGuide() bool {
	switch n.Kind {
	case KindNewInstance:
		return true
	case KindVariableBinding:
		for _, c := range n.Children {
			if c != nil && c.Kind == KindNewInstance {
				return true
			}
		}
	}
	return false
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the node's children.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int) bool, depth int) {
	if n == nil || !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node) Count() int {
	count := 0
	n.Walk(func(*Node, int) bool {
		count++
		return true
	})
	return count
}

// Outline is the analysis result for one file.
type Outline struct {
	Path    string `json:"path"`
	Version int    `json:"version"`
	Length  int    `json:"length"` // length of the analysed text
	Hash    string `json:"hash,omitempty"`
	Root    *Node  `json:"root"`
}

// Decode reads an Outline from JSON.
func Decode(r io.Reader) (*Outline, error) {
	var o Outline
	if err := json.NewDecoder(r).Decode(&o); err != nil {
		return nil, fmt.Errorf("outline: decode: %w", err)
	}
	if o.Root == nil {
		return nil, fmt.Errorf("outline: decode: %w", ErrNoRoot)
	}
	return &o, nil
}

// Encode writes o as indented JSON.
func (o *Outline) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(o); err != nil {
		return fmt.Errorf("outline: encode: %w", err)
	}
	return nil
}
