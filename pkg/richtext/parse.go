package richtext

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/stateful/pageblocks/pkg/document"
)

var bodyContext = &html.Node{
	Type:     html.ElementNode,
	Data:     "body",
	DataAtom: atom.Body,
}

// Parse converts an HTML fragment into a payload. Inline content
// outside a block element is wrapped in paragraphs.
func (Codec) Parse(fragment string) (document.RichText, error) {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), bodyContext)
	if err != nil {
		return nil, errors.Wrap(err, "parse rich text")
	}

	return Encode(Node{Type: DocNode, Content: parseBlocks(nodes)})
}

var headingLevels = map[atom.Atom]int{
	atom.H1: 1,
	atom.H2: 2,
	atom.H3: 3,
	atom.H4: 4,
	atom.H5: 5,
	atom.H6: 6,
}

// parseBlocks converts sibling nodes into block nodes.
func parseBlocks(nodes []*html.Node) []Node {
	var (
		result []Node
		inline []Node
	)

	flush := func() {
		if hasContent(inline) {
			result = append(result, Node{Type: ParagraphNode, Content: inline})
		}
		inline = nil
	}

	for _, n := range nodes {
		if n.Type == html.TextNode {
			inline = append(inline, parseInline(n, nil)...)
			continue
		}
		if n.Type != html.ElementNode {
			continue
		}

		if level, ok := headingLevels[n.DataAtom]; ok {
			flush()
			result = append(result, Node{
				Type:    HeadingNode,
				Attrs:   map[string]any{"level": level},
				Content: parseInlineChildren(n, nil),
			})
			continue
		}

		switch n.DataAtom {
		case atom.P:
			flush()
			result = append(result, Node{Type: ParagraphNode, Content: parseInlineChildren(n, nil)})
		case atom.Blockquote:
			flush()
			result = append(result, Node{Type: BlockquoteNode, Content: parseBlocks(children(n))})
		case atom.Ul, atom.Ol:
			flush()
			list := Node{Type: BulletListNode}
			if n.DataAtom == atom.Ol {
				list.Type = OrderedListNode
			}
			for _, li := range children(n) {
				if li.Type == html.ElementNode && li.DataAtom == atom.Li {
					list.Content = append(list.Content, Node{Type: ListItemNode, Content: parseBlocks(children(li))})
				}
			}
			result = append(result, list)
		case atom.Div, atom.Section, atom.Article, atom.Li, atom.Figure, atom.Pre:
			flush()
			result = append(result, parseBlocks(children(n))...)
		default:
			inline = append(inline, parseInline(n, nil)...)
		}
	}
	flush()

	return result
}

func children(n *html.Node) []*html.Node {
	var result []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		result = append(result, c)
	}
	return result
}

func parseInlineChildren(n *html.Node, marks []Mark) []Node {
	var result []Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		result = append(result, parseInline(c, marks)...)
	}
	return result
}

func parseInline(n *html.Node, marks []Mark) []Node {
	switch n.Type {
	case html.TextNode:
		if n.Data == "" {
			return nil
		}
		return []Node{{Type: TextNode, Text: n.Data, Marks: copyMarks(marks)}}
	case html.ElementNode:
	default:
		return nil
	}

	if n.DataAtom == atom.Br {
		return []Node{{Type: HardBreakNode}}
	}
	if m, ok := elementMark(n); ok {
		marks = append(copyMarks(marks), m)
	}
	return parseInlineChildren(n, marks)
}

func elementMark(n *html.Node) (Mark, bool) {
	switch n.DataAtom {
	case atom.Strong, atom.B:
		return Mark{Type: BoldMark}, true
	case atom.Em, atom.I:
		return Mark{Type: ItalicMark}, true
	case atom.U:
		return Mark{Type: UnderlineMark}, true
	case atom.S, atom.Strike, atom.Del:
		return Mark{Type: StrikeMark}, true
	case atom.Code:
		return Mark{Type: CodeMark}, true
	case atom.A:
		return Mark{Type: LinkMark, Attrs: map[string]any{"href": getAttrValue("href", n.Attr)}}, true
	}
	return Mark{}, false
}

func copyMarks(marks []Mark) []Mark {
	if len(marks) == 0 {
		return nil
	}
	result := make([]Mark, len(marks))
	copy(result, marks)
	return result
}

// hasContent reports whether inline nodes hold more than whitespace.
func hasContent(nodes []Node) bool {
	for _, n := range nodes {
		if n.Type != TextNode || strings.TrimSpace(n.Text) != "" {
			return true
		}
	}
	return false
}

func getAttrValue(key string, attrs []html.Attribute) string {
	for _, attr := range attrs {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
