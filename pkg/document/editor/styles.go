package editor

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/stateful/pageblocks/pkg/document"
)

type grid struct {
	count document.ColumnCount
	gap   int
}

var repeatRe = regexp.MustCompile(`^repeat\(\s*(\d+)\s*,`)

// parseGrid reads the column count and gap of a columns container
// from its style declaration. Missing or unparseable values fall back
// to two columns and the default gap. Counts are clamped into the
// supported range.
func parseGrid(style string) grid {
	g := grid{count: document.TwoColumns, gap: document.DefaultColumnGap}

	for _, decl := range parseStyles(style) {
		switch decl.Key {
		case "grid-template-columns":
			if n, ok := trackCount(decl.Val); ok {
				g.count = clampCount(n)
			}
		case "gap":
			// "row column" shorthand; the column gap is the last value.
			values := strings.Fields(decl.Val)
			if len(values) == 0 {
				continue
			}
			if px, ok := pixels(values[len(values)-1]); ok {
				g.gap = px
			}
		case "column-gap":
			if px, ok := pixels(decl.Val); ok {
				g.gap = px
			}
		}
	}

	return g
}

func clampCount(n int) document.ColumnCount {
	c := document.ColumnCount(n)
	if c < document.TwoColumns {
		return document.TwoColumns
	}
	if c > document.FourColumns {
		return document.FourColumns
	}
	return c
}

// trackCount counts grid tracks, either from repeat(N, …) or by
// counting top-level track values.
func trackCount(val string) (int, bool) {
	val = strings.TrimSpace(val)
	if val == "" {
		return 0, false
	}

	if m := repeatRe.FindStringSubmatch(val); m != nil {
		n, err := strconv.Atoi(m[1])
		return n, err == nil
	}

	var (
		count int
		depth int
		inTok bool
	)
	for _, r := range val {
		switch {
		case r == '(':
			depth++
		case r == ')':
			depth--
		case r == ' ' || r == '\t' || r == '\n':
			if depth == 0 {
				inTok = false
				continue
			}
		}
		if !inTok {
			count++
			inTok = true
		}
	}
	return count, count > 0
}

func pixels(val string) (int, bool) {
	val = strings.TrimSpace(val)
	if val != "0" && !strings.HasSuffix(val, "px") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(val, "px"))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func parseStyles(style string) []html.Attribute {
	var result []html.Attribute
	for _, raw := range strings.Split(style, ";") {
		key, val, ok := strings.Cut(raw, ":")
		if !ok {
			continue
		}
		result = append(result, html.Attribute{
			Key: strings.ToLower(strings.TrimSpace(key)),
			Val: strings.TrimSpace(val),
		})
	}
	return result
}
