package runtime

import (
	"context"
	"fmt"

	"github.com/risor-io/risor/object"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/treeguides/internal/outline"
)

// collector assembles the nodes a script emits into a tree. Id 0 is the
// synthetic root that spans the whole source; emitted nodes get ids from 1.
type collector struct {
	root  *outline.Node
	nodes []*outline.Node
}

func newCollector(length int) *collector {
	return &collector{root: &outline.Node{Kind: outline.KindOther, Length: length}}
}

func (c *collector) node(id int64) (*outline.Node, bool) {
	if id == 0 {
		return c.root, true
	}
	if id < 0 || id > int64(len(c.nodes)) {
		return nil, false
	}
	return c.nodes[id-1], true
}

func (c *collector) count() int { return len(c.nodes) }

// emitNodeFn creates "emit_node".
//
// emit_node({parent, kind, offset, length, class_name, variable_name, label}) → id
//
// The node is appended to the children of parent, which defaults to the
// root.
func (c *collector) emitNodeFn() *object.Builtin {
	return object.NewBuiltin("emit_node", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("emit_node", 1, len(args))
		}
		m, err := extractMap(args[0])
		if err != nil {
			return object.Errorf("emit_node: %v", err)
		}

		parentID, _ := getOptionalInt64(m, "parent")
		parent, ok := c.node(parentID)
		if !ok {
			return object.Errorf("emit_node: unknown parent %d", parentID)
		}
		n := &outline.Node{
			Kind:         outline.ParseKind(getString(m, "kind")),
			Offset:       getInt(m, "offset"),
			Length:       getInt(m, "length"),
			ClassName:    getString(m, "class_name"),
			VariableName: getString(m, "variable_name"),
			Label:        getString(m, "label"),
		}
		if n.Offset < 0 || n.Length < 0 || n.End() > c.root.Length {
			return object.Errorf("emit_node: span [%d, %d) outside source of length %d", n.Offset, n.End(), c.root.Length)
		}
		parent.Children = append(parent.Children, n)
		c.nodes = append(c.nodes, n)
		return object.NewInt(int64(len(c.nodes)))
	})
}

// emitAttributeFn creates "emit_attribute".
//
// emit_attribute({node, name, label, literal, value_offset, value_length})
//
// value_offset and value_length are optional; without them the attribute
// only carries its literal.
func (c *collector) emitAttributeFn() *object.Builtin {
	return object.NewBuiltin("emit_attribute", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("emit_attribute", 1, len(args))
		}
		m, err := extractMap(args[0])
		if err != nil {
			return object.Errorf("emit_attribute: %v", err)
		}

		id, _ := getOptionalInt64(m, "node")
		n, ok := c.node(id)
		if !ok || id == 0 {
			return object.Errorf("emit_attribute: unknown node %d", id)
		}
		attr := outline.Attribute{
			Name:    getString(m, "name"),
			Label:   getString(m, "label"),
			Literal: getString(m, "literal"),
		}
		if off, ok := getOptionalInt64(m, "value_offset"); ok {
			length, _ := getOptionalInt64(m, "value_length")
			attr.Value = &outline.Span{Offset: int(off), Length: int(length)}
		}
		n.Attributes = append(n.Attributes, attr)
		return object.Nil
	})
}

// makeNodeSpanFn creates "node_span".
//
// node_span(node) → {offset, length}
//
// Offsets are bytes into the parsed source.
func makeNodeSpanFn() *object.Builtin {
	return object.NewBuiltin("node_span", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("node_span", 1, len(args))
		}
		node, err := toNode(args[0])
		if err != nil {
			return object.Errorf("node_span: %v", err)
		}
		start, end := int64(node.StartByte()), int64(node.EndByte())
		return object.NewMap(map[string]object.Object{
			"offset": object.NewInt(start),
			"length": object.NewInt(end - start),
		})
	})
}

func toNode(obj object.Object) (*sitter.Node, error) {
	proxy, ok := obj.(*object.Proxy)
	if !ok {
		return nil, fmt.Errorf("expected proxy (Node), got %s", obj.Type())
	}
	node, ok := proxy.Interface().(*sitter.Node)
	if !ok {
		return nil, fmt.Errorf("expected *sitter.Node, got %T", proxy.Interface())
	}
	return node, nil
}

func extractMap(obj object.Object) (map[string]object.Object, error) {
	m, ok := obj.(*object.Map)
	if !ok {
		return nil, fmt.Errorf("expected map, got %s", obj.Type())
	}
	return m.Value(), nil
}

func getString(m map[string]object.Object, key string) string {
	if s, ok := m[key].(*object.String); ok {
		return s.Value()
	}
	return ""
}

func getInt(m map[string]object.Object, key string) int {
	v, _ := getOptionalInt64(m, key)
	return int(v)
}

func getOptionalInt64(m map[string]object.Object, key string) (int64, bool) {
	switch v := m[key].(type) {
	case *object.Int:
		return v.Value(), true
	case *object.Float:
		return int64(v.Value()), true
	}
	return 0, false
}
