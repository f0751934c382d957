package sqlgroup

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// tokenJSON and groupJSON are the public-attribute JSON views of Token
// and TokenList: parent back-references and the variant descriptor
// statics are excluded.
type tokenJSON struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type groupJSON struct {
	Variant  string          `json:"variant"`
	Children []marshalerNode `json:"children"`
}

type marshalerNode struct {
	node Node
}

func (m marshalerNode) MarshalJSON() ([]byte, error) {
	if g, ok := m.node.(*TokenList); ok {
		children := make([]marshalerNode, len(g.Children))
		for i, c := range g.Children {
			children[i] = marshalerNode{c}
		}
		return json.Marshal(groupJSON{Variant: g.Variant.String(), Children: children})
	}
	t := m.node.(*Token)
	return json.Marshal(tokenJSON{Type: t.Ttype.String(), Value: t.Value})
}

// ToJSON renders n's public shape (variant/type + value, recursively) as
// indented JSON.
func ToJSON(n Node) ([]byte, error) {
	return json.MarshalIndent(marshalerNode{n}, "", "  ")
}

// DumpTree writes a pprint_tree-style recursive debug dump of n to w: one
// indented line per node, leaves showing their type and value, groups
// showing their variant.
func DumpTree(w io.Writer, n Node) {
	dumpTree(w, n, 0)
}

func dumpTree(w io.Writer, n Node, depth int) {
	indent := strings.Repeat("  ", depth)
	if g, ok := n.(*TokenList); ok {
		fmt.Fprintf(w, "%s%s\n", indent, g.Variant)
		for _, c := range g.Children {
			dumpTree(w, c, depth+1)
		}
		return
	}
	t := n.(*Token)
	fmt.Fprintf(w, "%s%s %q\n", indent, t.Ttype, t.Value)
}
