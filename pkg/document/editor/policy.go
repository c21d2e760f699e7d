package editor

import (
	"bytes"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/pkg/errors"
	"github.com/tdewolff/minify/v2"
	mhtml "github.com/tdewolff/minify/v2/html"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var sanitizePolicy = sync.OnceValue(newSanitizePolicy)

// newSanitizePolicy extends the user generated content policy with the
// attributes and styles block markup relies on.
func newSanitizePolicy() *bluemonday.Policy {
	idRegexp := regexp.MustCompile(`^[0123456789ABCDEFGHJKMNPQRSTVWXYZ]{26}$`)
	classRegexp := regexp.MustCompile(`^[\w\- ]+$`)
	displayRegexp := regexp.MustCompile(`^grid$`)
	tracksRegexp := regexp.MustCompile(`^(repeat\(\s*\d+\s*,\s*[\w.%()\s,-]+\)|[\w.%()\s,-]+)$`)
	sizeRegexp := regexp.MustCompile(`^\d+(px)?(\s+\d+(px)?)?$`)

	policy := bluemonday.UGCPolicy()

	policy.AllowElements("figure", "figcaption", "pre", "code")
	policy.AllowAttrs("class").Matching(classRegexp).Globally()
	policy.AllowAttrs("data-block-id").Matching(idRegexp).Globally()

	policy.AllowAttrs("style").OnElements("div")
	policy.AllowStyles("display").Matching(displayRegexp).OnElements("div")
	policy.AllowStyles("grid-template-columns").Matching(tracksRegexp).OnElements("div")
	policy.AllowStyles("gap", "column-gap").Matching(sizeRegexp).OnElements("div")

	policy.AllowAttrs("width", "height").Matching(bluemonday.Integer).OnElements("img")

	return policy
}

// emptyFragmentHref stands in for href="#" while sanitizing, as the
// policy drops URLs that are empty once parsed.
const emptyFragmentHref = "#pageblocks-empty-fragment"

// sanitize strips unsafe markup. Anchors pointing at "#", the default
// button target, keep their href.
func sanitize(data []byte) ([]byte, error) {
	nodes, err := html.ParseFragment(bytes.NewReader(data), bodyContext)
	if err != nil {
		return nil, errors.Wrap(err, "parse markup")
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		iterNodes(n, func(child *html.Node) bool {
			if child.Type != html.ElementNode || child.DataAtom != atom.A {
				return false
			}
			for i, attr := range child.Attr {
				if attr.Key == "href" && strings.TrimSpace(attr.Val) == "#" {
					child.Attr[i].Val = emptyFragmentHref
				}
			}
			return false
		})
		if err := html.Render(&buf, n); err != nil {
			return nil, errors.Wrap(err, "render markup")
		}
	}

	clean := sanitizePolicy().SanitizeBytes(buf.Bytes())
	return bytes.ReplaceAll(clean, []byte(`href="`+emptyFragmentHref+`"`), []byte(`href="#"`)), nil
}

var htmlMinifier = sync.OnceValue(func() *minify.M {
	m := minify.New()
	m.Add("text/html", &mhtml.Minifier{
		KeepEndTags: true,
		KeepQuotes:  true,
	})
	return m
})

func minifyHTML(data []byte) ([]byte, error) {
	result, err := htmlMinifier().Bytes("text/html", data)
	return result, errors.Wrap(err, "minify markup")
}
