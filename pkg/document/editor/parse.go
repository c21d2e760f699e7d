package editor

import (
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/stateful/pageblocks/pkg/document"
	"github.com/stateful/pageblocks/pkg/document/identity"
)

var bodyContext = &html.Node{
	Type:     html.ElementNode,
	Data:     "body",
	DataAtom: atom.Body,
}

const (
	languagePrefix    = "language-"
	columnClassPrefix = "column-"
)

var (
	buttonClasses          = []string{"btn", "button", "btn-primary", "btn-secondary", "button-primary", "button-secondary"}
	secondaryButtonClasses = []string{"btn-secondary", "button-secondary"}
	columnsClasses         = []string{ColumnsClass, "columns", "columns-block"}
)

type rule func(p *parser, n *html.Node) ([]document.Block, error)

// rules maps recognized elements to their block rule. Elements without
// a rule use parser.fallback.
var rules map[atom.Atom]rule

func init() {
	rules = map[atom.Atom]rule{
		atom.H1:     (*parser).text,
		atom.H2:     (*parser).text,
		atom.H3:     (*parser).text,
		atom.H4:     (*parser).text,
		atom.H5:     (*parser).text,
		atom.H6:     (*parser).text,
		atom.P:      (*parser).text,
		atom.Img:    (*parser).image,
		atom.Figure: (*parser).figure,
		atom.A:      (*parser).anchor,
		atom.Pre:    (*parser).pre,
		atom.Code:   (*parser).code,
	}
}

type parser struct {
	logger   *zap.Logger
	codec    document.RichTextCodec
	resolver *identity.Resolver
}

// nodes converts sibling nodes into blocks. Inside a column the
// columns rule is disabled.
func (p *parser) nodes(nodes []*html.Node, inColumn bool) ([]document.Block, error) {
	var result []document.Block

	for _, n := range nodes {
		var (
			blocks []document.Block
			err    error
		)

		switch n.Type {
		case html.TextNode:
			text := strings.TrimSpace(n.Data)
			if text == "" {
				continue
			}
			blocks, err = p.plainText(nil, text)
		case html.ElementNode:
			blocks, err = p.element(n, inColumn)
		default:
			continue
		}

		if err != nil {
			return nil, err
		}
		result = append(result, blocks...)
	}

	return result, nil
}

func (p *parser) element(n *html.Node, inColumn bool) ([]document.Block, error) {
	if r, ok := rules[n.DataAtom]; ok {
		return r(p, n)
	}

	if hasClass(n, columnsClasses...) {
		if !inColumn {
			return p.columns(n)
		}
		p.logger.Debug("columns container inside a column, using text", zap.String("tag", n.Data))
	}
	return p.fallback(n)
}

func (p *parser) id(n *html.Node) string {
	var attrs map[string]string
	if n != nil {
		if v, ok := getAttr(identity.IDAttribute, n.Attr); ok {
			attrs = map[string]string{identity.IDAttribute: v}
		}
	}
	id, _ := p.resolver.BlockID(attrs)
	return id
}

// text keeps the whole element as rich text, heading level included.
func (p *parser) text(n *html.Node) ([]document.Block, error) {
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return nil, errors.WithStack(err)
	}

	content, err := p.codec.Parse(sb.String())
	if err != nil {
		return nil, errors.Wrap(err, "parse rich text")
	}

	return []document.Block{textBlock(p.id(n), content)}, nil
}

func (p *parser) plainText(n *html.Node, text string) ([]document.Block, error) {
	content, err := p.codec.Parse("<p>" + html.EscapeString(text) + "</p>")
	if err != nil {
		return nil, errors.Wrap(err, "parse rich text")
	}
	return []document.Block{textBlock(p.id(n), content)}, nil
}

func textBlock(id string, content document.RichText) document.Block {
	b := document.NewTextBlockWithContent(content)
	b.ID = id
	return b
}

// fallback turns an unrecognized element into plain text, or into
// nothing when it holds only whitespace.
func (p *parser) fallback(n *html.Node) ([]document.Block, error) {
	text := strings.TrimSpace(textContent(n))
	if text == "" {
		return nil, nil
	}
	p.logger.Debug("unrecognized element, using text", zap.String("tag", n.Data))
	return p.plainText(n, text)
}

func (p *parser) image(n *html.Node) ([]document.Block, error) {
	return []document.Block{p.imageBlock(n, n)}, nil
}

// figure uses the image rule when it holds an image.
func (p *parser) figure(n *html.Node) ([]document.Block, error) {
	img := findElement(n, atom.Img)
	if img == nil {
		return p.fallback(n)
	}
	return []document.Block{p.imageBlock(n, img)}, nil
}

func (p *parser) imageBlock(owner, img *html.Node) document.Block {
	d := document.ImageData{
		Src:    getAttrValue("src", img.Attr),
		Alt:    getAttrValue("alt", img.Attr),
		Width:  intAttr("width", img.Attr),
		Height: intAttr("height", img.Attr),
	}
	if caption, ok := imageCaption(img); ok {
		d.Caption = document.String(caption)
	}

	return document.Block{ID: p.id(owner), Kind: document.ImageKind, Data: d}
}

// imageCaption returns the caption of the closest enclosing figure.
func imageCaption(img *html.Node) (string, bool) {
	for parent := img.Parent; parent != nil; parent = parent.Parent {
		if parent.Type != html.ElementNode || parent.DataAtom != atom.Figure {
			continue
		}
		for c := parent.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == atom.Figcaption {
				return strings.TrimSpace(textContent(c)), true
			}
		}
		return "", false
	}
	return "", false
}

// anchor classifies links: button-like class tokens make a button,
// any other link stays rich text.
func (p *parser) anchor(n *html.Node) ([]document.Block, error) {
	if !hasClass(n, buttonClasses...) {
		return p.text(n)
	}

	variant := document.PrimaryButton
	if hasClass(n, secondaryButtonClasses...) {
		variant = document.SecondaryButton
	}

	return []document.Block{{
		ID:   p.id(n),
		Kind: document.ButtonKind,
		Data: document.ButtonData{
			Text:    strings.TrimSpace(textContent(n)),
			URL:     getAttrValue("href", n.Attr),
			Variant: variant,
		},
	}}, nil
}

func (p *parser) pre(n *html.Node) ([]document.Block, error) {
	code := childElement(n, atom.Code)
	if code == nil {
		return p.fallback(n)
	}

	var language string
	for _, class := range classes(code) {
		if strings.HasPrefix(class, languagePrefix) {
			language = strings.TrimPrefix(class, languagePrefix)
			break
		}
	}

	return []document.Block{{
		ID:   p.id(n),
		Kind: document.CodeKind,
		Data: document.CodeData{
			Code:     textContent(code),
			Language: language,
		},
	}}, nil
}

// code handles standalone code elements. Code under pre belongs to
// the pre rule.
func (p *parser) code(n *html.Node) ([]document.Block, error) {
	if n.Parent != nil && n.Parent.DataAtom == atom.Pre {
		return nil, nil
	}

	return []document.Block{{
		ID:   p.id(n),
		Kind: document.CodeKind,
		Data: document.CodeData{
			Code:   textContent(n),
			Inline: true,
		},
	}}, nil
}

func (p *parser) columns(n *html.Node) ([]document.Block, error) {
	grid := parseGrid(getAttrValue("style", n.Attr))
	id := p.id(n)

	columns := make([][]document.Block, 0, grid.count)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || !isColumn(c) {
			continue
		}
		if len(columns) == int(grid.count) {
			p.logger.Debug("dropping extra column", zap.String("id", id))
			break
		}

		blocks, err := p.nodes(children(c), true)
		if err != nil {
			return nil, err
		}
		if blocks == nil {
			blocks = []document.Block{}
		}
		columns = append(columns, blocks)
	}
	for len(columns) < int(grid.count) {
		columns = append(columns, []document.Block{})
	}

	return []document.Block{{
		ID:   id,
		Kind: document.ColumnsKind,
		Data: document.ColumnsData{
			ColumnCount: grid.count,
			Gap:         document.Int(grid.gap),
			Columns:     columns,
		},
	}}, nil
}

func isColumn(n *html.Node) bool {
	for _, class := range classes(n) {
		if idx, ok := strings.CutPrefix(class, columnClassPrefix); ok {
			if _, err := strconv.Atoi(idx); err == nil {
				return true
			}
		}
	}
	return false
}

func classes(n *html.Node) []string {
	return strings.Fields(getAttrValue("class", n.Attr))
}

func hasClass(n *html.Node, names ...string) bool {
	return slices.ContainsFunc(classes(n), func(class string) bool {
		return slices.Contains(names, class)
	})
}

func children(n *html.Node) []*html.Node {
	var result []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		result = append(result, c)
	}
	return result
}

func childElement(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
	}
	return nil
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	var el *html.Node
	iterNodes(n, func(child *html.Node) bool {
		if el == nil && child.Type == html.ElementNode && child.DataAtom == a {
			el = child
		}
		return el != nil
	})
	return el
}

func iterNodes(node *html.Node, f func(child *html.Node) bool) {
	if f(node) {
		return
	}
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		iterNodes(c, f)
	}
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	iterNodes(n, func(child *html.Node) bool {
		if child.Type == html.TextNode {
			sb.WriteString(child.Data)
		}
		return false
	})
	return sb.String()
}

func getAttr(key string, attrs []html.Attribute) (string, bool) {
	for _, attr := range attrs {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

func getAttrValue(key string, attrs []html.Attribute) string {
	v, _ := getAttr(key, attrs)
	return v
}

func intAttr(key string, attrs []html.Attribute) *int {
	v, ok := getAttr(key, attrs)
	if !ok {
		return nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return nil
	}
	return &i
}
