// Package richtext converts the structured payload of text blocks to
// and from HTML.
//
// The payload follows the TipTap/ProseMirror JSON node model: a "doc"
// node holding paragraphs, headings, blockquotes and lists, with text
// leaves carrying marks.
package richtext

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/stateful/pageblocks/pkg/document"
)

// Node types.
const (
	DocNode         = "doc"
	ParagraphNode   = "paragraph"
	HeadingNode     = "heading"
	BlockquoteNode  = "blockquote"
	BulletListNode  = "bulletList"
	OrderedListNode = "orderedList"
	ListItemNode    = "listItem"
	HardBreakNode   = "hardBreak"
	TextNode        = "text"
)

// Mark types.
const (
	BoldMark      = "bold"
	ItalicMark    = "italic"
	UnderlineMark = "underline"
	StrikeMark    = "strike"
	CodeMark      = "code"
	LinkMark      = "link"
)

type Node struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []Node         `json:"content,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
	Text    string         `json:"text,omitempty"`
}

type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// Decode reads a payload into its node tree. An empty payload is an
// empty doc.
func Decode(r document.RichText) (Node, error) {
	if len(r) == 0 {
		return Node{Type: DocNode}, nil
	}
	var n Node
	if err := json.Unmarshal(r, &n); err != nil {
		return Node{}, errors.Wrap(err, "decode rich text")
	}
	return n, nil
}

// Encode writes a node tree as a payload. A doc always carries a
// content array.
func Encode(n Node) (document.RichText, error) {
	if n.Type == DocNode && len(n.Content) == 0 {
		return document.EmptyRichText(), nil
	}
	data, err := json.Marshal(n)
	if err != nil {
		return nil, errors.Wrap(err, "encode rich text")
	}
	return document.RichText(data), nil
}

// PlainText returns the text of a payload without markup. Block
// nodes are separated by newlines.
func PlainText(r document.RichText) (string, error) {
	n, err := Decode(r)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	writePlain(&sb, n)
	return strings.TrimSpace(sb.String()), nil
}

func writePlain(sb *strings.Builder, n Node) {
	switch n.Type {
	case TextNode:
		sb.WriteString(n.Text)
	case HardBreakNode:
		sb.WriteByte('\n')
	default:
		for _, c := range n.Content {
			writePlain(sb, c)
		}
		if isBlockNode(n.Type) {
			sb.WriteByte('\n')
		}
	}
}

func isBlockNode(t string) bool {
	switch t {
	case ParagraphNode, HeadingNode, BlockquoteNode, BulletListNode, OrderedListNode, ListItemNode:
		return true
	}
	return false
}

// HeadingLevel returns the level of a heading node, clamped into [1,6].
func HeadingLevel(n Node) int {
	level := 1
	switch v := n.Attrs["level"].(type) {
	case float64:
		level = int(v)
	case int:
		level = v
	}
	if level < 1 {
		return 1
	}
	if level > 6 {
		return 6
	}
	return level
}

func stringAttr(attrs map[string]any, key string) string {
	if v, ok := attrs[key].(string); ok {
		return v
	}
	return ""
}
