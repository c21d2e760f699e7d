package richtext

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/stateful/pageblocks/pkg/document"
)

// Codec is the default rich-text collaborator.
type Codec struct{}

var _ document.RichTextCodec = Codec{}

func New() Codec { return Codec{} }

// Render returns the HTML of a payload. Unknown node types render
// their children only; unknown marks are dropped.
func (Codec) Render(r document.RichText) (string, error) {
	n, err := Decode(r)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if n.Type == DocNode {
		for _, c := range n.Content {
			renderNode(&sb, c)
		}
	} else {
		renderNode(&sb, n)
	}
	return sb.String(), nil
}

var blockTags = map[string]string{
	ParagraphNode:   "p",
	BlockquoteNode:  "blockquote",
	BulletListNode:  "ul",
	OrderedListNode: "ol",
	ListItemNode:    "li",
}

func renderNode(sb *strings.Builder, n Node) {
	switch n.Type {
	case TextNode:
		renderText(sb, n)
		return
	case HardBreakNode:
		sb.WriteString("<br>")
		return
	case HeadingNode:
		tag := "h" + strconv.Itoa(HeadingLevel(n))
		sb.WriteString("<" + tag + ">")
		renderChildren(sb, n)
		sb.WriteString("</" + tag + ">")
		return
	}

	tag, ok := blockTags[n.Type]
	if !ok {
		renderChildren(sb, n)
		return
	}
	sb.WriteString("<" + tag + ">")
	renderChildren(sb, n)
	sb.WriteString("</" + tag + ">")
}

func renderChildren(sb *strings.Builder, n Node) {
	for _, c := range n.Content {
		renderNode(sb, c)
	}
}

func renderText(sb *strings.Builder, n Node) {
	var closing []string
	for _, m := range n.Marks {
		open, close, ok := markTags(m)
		if !ok {
			continue
		}
		sb.WriteString(open)
		closing = append(closing, close)
	}
	sb.WriteString(html.EscapeString(n.Text))
	for i := len(closing) - 1; i >= 0; i-- {
		sb.WriteString(closing[i])
	}
}

func markTags(m Mark) (string, string, bool) {
	switch m.Type {
	case BoldMark:
		return "<strong>", "</strong>", true
	case ItalicMark:
		return "<em>", "</em>", true
	case UnderlineMark:
		return "<u>", "</u>", true
	case StrikeMark:
		return "<s>", "</s>", true
	case CodeMark:
		return "<code>", "</code>", true
	case LinkMark:
		return `<a href="` + html.EscapeString(stringAttr(m.Attrs, "href")) + `">`, "</a>", true
	}
	return "", "", false
}
