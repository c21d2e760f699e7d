package richtext

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"

	"github.com/stateful/pageblocks/pkg/document"
)

// DefaultCacheSize is the number of renders kept by a CachedCodec.
const DefaultCacheSize = 512

// CachedCodec remembers the most recent renders of a codec. Payloads
// are compared by content. Parse is not cached.
type CachedCodec struct {
	codec   document.RichTextCodec
	renders *lru.Cache[string, string]
}

var _ document.RichTextCodec = (*CachedCodec)(nil)

func NewCachedCodec(codec document.RichTextCodec, size int) (*CachedCodec, error) {
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &CachedCodec{codec: codec, renders: cache}, nil
}

func (c *CachedCodec) Render(r document.RichText) (string, error) {
	key := string(r)
	if markup, ok := c.renders.Get(key); ok {
		return markup, nil
	}

	markup, err := c.codec.Render(r)
	if err != nil {
		return "", err
	}
	c.renders.Add(key, markup)
	return markup, nil
}

func (c *CachedCodec) Parse(fragment string) (document.RichText, error) {
	return c.codec.Parse(fragment)
}

// Len returns the number of cached renders.
func (c *CachedCodec) Len() int {
	return c.renders.Len()
}
