// Package editor converts documents to and from legacy HTML markup.
//
// Serialize writes one fragment per block. Deserialize is a heuristic
// classifier over a parsed fragment: elements it recognizes become
// their block type, everything else degrades to plain text.
package editor

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/stateful/pageblocks/pkg/document"
	"github.com/stateful/pageblocks/pkg/document/identity"
	"github.com/stateful/pageblocks/pkg/richtext"
)

// Separator joins the markup of consecutive blocks.
const Separator = "\n"

type Options struct {
	Logger *zap.Logger
	// RichText renders and parses text block payloads.
	// Defaults to richtext.Codec.
	RichText document.RichTextCodec
	// Identity decides whether Deserialize keeps ids found in
	// data-block-id attributes. The zero value means
	// identity.DefaultPolicy.
	Identity identity.Policy
	// EmitIDs makes Serialize write data-block-id attributes.
	EmitIDs bool
	// Minify makes Serialize minify its output.
	Minify bool
	// Sanitize makes Deserialize strip unsafe markup first.
	Sanitize bool
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o Options) codec() document.RichTextCodec {
	if o.RichText == nil {
		return richtext.New()
	}
	return o.RichText
}

// Serialize renders the document as HTML. An empty document renders
// as empty output.
func Serialize(doc document.Document, opts Options) ([]byte, error) {
	s := &serializer{
		codec:   opts.codec(),
		emitIDs: opts.EmitIDs,
	}

	parts := make([]string, 0, len(doc.Blocks))
	for _, b := range doc.Blocks {
		markup, err := s.block(b)
		if err != nil {
			return nil, err
		}
		parts = append(parts, markup)
	}

	result := []byte(strings.Join(parts, Separator))

	if opts.Minify && len(result) > 0 {
		minified, err := minifyHTML(result)
		if err != nil {
			return nil, err
		}
		opts.logger().Debug("minified markup", zap.Int("before", len(result)), zap.Int("after", len(minified)))
		result = minified
	}

	return result, nil
}

// Deserialize reconstructs a document from HTML. Blank input yields
// an empty document. It fails only when the input cannot be read or
// the rich-text codec fails.
func Deserialize(data []byte, opts Options) (document.Document, error) {
	logger := opts.logger()

	if opts.Sanitize {
		clean, err := sanitize(data)
		if err != nil {
			return document.Document{}, err
		}
		data = clean
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return document.New(), nil
	}

	nodes, err := html.ParseFragment(bytes.NewReader(data), bodyContext)
	if err != nil {
		return document.Document{}, errors.Wrap(err, "parse markup")
	}

	p := &parser{
		logger:   logger,
		codec:    opts.codec(),
		resolver: identity.NewResolver(opts.Identity),
	}

	blocks, err := p.nodes(nodes, false)
	if err != nil {
		return document.Document{}, err
	}

	if len(blocks) == 0 {
		logger.Debug("no blocks recognized, using whole input as text", zap.Int("size", len(data)))

		content, err := p.codec.Parse(string(data))
		if err != nil {
			return document.Document{}, errors.Wrap(err, "parse rich text")
		}
		id, _ := p.resolver.BlockID(nil)
		b := document.NewTextBlockWithContent(content)
		b.ID = id
		blocks = append(blocks, b)
	}

	return document.New(blocks...), nil
}
