package editor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html"

	"github.com/stateful/pageblocks/pkg/document"
	"github.com/stateful/pageblocks/pkg/document/identity"
)

// Class names written for blocks this package owns.
const (
	ColumnsClass = "pb-columns"
	ColumnClass  = "pb-column"
)

type serializer struct {
	codec   document.RichTextCodec
	emitIDs bool
}

func (s *serializer) block(b document.Block) (string, error) {
	switch d := b.Data.(type) {
	case document.TextData:
		markup, err := s.codec.Render(d.Content)
		if err != nil {
			return "", errors.Wrapf(err, "render text block %s", b.ID)
		}
		if s.emitIDs {
			markup = injectID(markup, b.ID)
		}
		return markup, nil
	case document.ImageData:
		return s.image(b.ID, d), nil
	case document.ButtonData:
		return s.button(b.ID, d), nil
	case document.CodeData:
		return s.code(b.ID, d), nil
	case document.ColumnsData:
		return s.columns(b.ID, d)
	default:
		return "", errors.Errorf("unhandled block %s of type %T", b.ID, b.Data)
	}
}

func (s *serializer) idAttr(id string) string {
	if !s.emitIDs || id == "" {
		return ""
	}
	return attr(identity.IDAttribute, id)
}

func (s *serializer) image(id string, d document.ImageData) string {
	var sb strings.Builder

	sb.WriteString("<img")
	sb.WriteString(attr("src", d.Src))
	sb.WriteString(attr("alt", d.Alt))
	if d.Width != nil {
		sb.WriteString(attr("width", strconv.Itoa(*d.Width)))
	}
	if d.Height != nil {
		sb.WriteString(attr("height", strconv.Itoa(*d.Height)))
	}
	if d.Caption == nil {
		sb.WriteString(s.idAttr(id))
	}
	sb.WriteString(">")

	if d.Caption == nil {
		return sb.String()
	}

	return "<figure" + s.idAttr(id) + ">" +
		sb.String() +
		"<figcaption>" + html.EscapeString(*d.Caption) + "</figcaption>" +
		"</figure>"
}

func (s *serializer) button(id string, d document.ButtonData) string {
	class := "btn btn-" + string(d.EffectiveVariant())
	return "<a" + attr("href", d.URL) + attr("class", class) + s.idAttr(id) + ">" +
		html.EscapeString(d.Text) +
		"</a>"
}

func (s *serializer) code(id string, d document.CodeData) string {
	if d.Inline {
		return "<code" + s.idAttr(id) + ">" + html.EscapeString(d.Code) + "</code>"
	}

	var class string
	if d.Language != "" {
		class = attr("class", languagePrefix+d.Language)
	}
	return "<pre" + s.idAttr(id) + "><code" + class + ">" +
		html.EscapeString(d.Code) +
		"</code></pre>"
}

func (s *serializer) columns(id string, d document.ColumnsData) (string, error) {
	var sb strings.Builder

	sb.WriteString("<div")
	sb.WriteString(attr("class", ColumnsClass))
	sb.WriteString(s.idAttr(id))
	sb.WriteString(attr("style", gridStyle(d.ColumnCount, d.EffectiveGap())))
	sb.WriteString(">")

	for i, col := range d.Columns {
		sb.WriteString(Separator)
		sb.WriteString("<div")
		sb.WriteString(attr("class", fmt.Sprintf("%s %s%d", ColumnClass, columnClassPrefix, i+1)))
		sb.WriteString(">")

		parts := make([]string, 0, len(col))
		for _, nested := range col {
			markup, err := s.block(nested)
			if err != nil {
				return "", err
			}
			parts = append(parts, markup)
		}
		sb.WriteString(strings.Join(parts, Separator))

		sb.WriteString("</div>")
	}

	sb.WriteString(Separator)
	sb.WriteString("</div>")

	return sb.String(), nil
}

// gridStyle encodes count equal tracks and the gap in pixels.
func gridStyle(count document.ColumnCount, gap int) string {
	return fmt.Sprintf("display: grid; grid-template-columns: repeat(%d, 1fr); gap: %dpx;", count, gap)
}

func attr(key, val string) string {
	return " " + key + `="` + html.EscapeString(val) + `"`
}

// injectID adds the id attribute to markup consisting of a single
// root element. Other markup is returned unchanged.
func injectID(markup, id string) string {
	nodes, err := html.ParseFragment(strings.NewReader(markup), bodyContext)
	if err != nil {
		return markup
	}

	var root *html.Node
	for _, n := range nodes {
		switch {
		case n.Type == html.TextNode && strings.TrimSpace(n.Data) == "":
			continue
		case n.Type == html.ElementNode && root == nil:
			root = n
		default:
			return markup
		}
	}
	if root == nil {
		return markup
	}

	root.Attr = append(root.Attr, html.Attribute{Key: identity.IDAttribute, Val: id})

	var sb strings.Builder
	if err := html.Render(&sb, root); err != nil {
		return markup
	}
	return sb.String()
}
