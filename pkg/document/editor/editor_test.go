package editor

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateful/pageblocks/internal/ulid"
	"github.com/stateful/pageblocks/pkg/document"
	"github.com/stateful/pageblocks/pkg/document/edit"
	"github.com/stateful/pageblocks/pkg/document/identity"
	"github.com/stateful/pageblocks/pkg/richtext"
)

// stubCodec stores markup fragments as JSON strings.
type stubCodec struct{}

func (stubCodec) Render(r document.RichText) (string, error) {
	var s string
	err := json.Unmarshal(r, &s)
	return s, err
}

func (stubCodec) Parse(fragment string) (document.RichText, error) {
	data, err := json.Marshal(fragment)
	return document.RichText(data), err
}

type failingCodec struct{}

func (failingCodec) Render(document.RichText) (string, error) {
	return "", errors.New("render failed")
}

func (failingCodec) Parse(string) (document.RichText, error) {
	return nil, errors.New("parse failed")
}

var stubOptions = Options{RichText: stubCodec{}}

func stubText(t *testing.T, markup string) document.Block {
	t.Helper()
	content, err := stubCodec{}.Parse(markup)
	require.NoError(t, err)
	return document.NewTextBlockWithContent(content)
}

func textOf(t *testing.T, b document.Block) string {
	t.Helper()
	d, ok := b.Data.(document.TextData)
	require.True(t, ok, "expected text block, got %s", b.Kind)
	s, err := stubCodec{}.Render(d.Content)
	require.NoError(t, err)
	return s
}

func kinds(doc document.Document) []document.Kind {
	result := make([]document.Kind, 0, len(doc.Blocks))
	for _, b := range doc.Blocks {
		result = append(result, b.Kind)
	}
	return result
}

func serialize(t *testing.T, doc document.Document, opts Options) string {
	t.Helper()
	data, err := Serialize(doc, opts)
	require.NoError(t, err)
	return string(data)
}

func deserialize(t *testing.T, markup string, opts Options) document.Document {
	t.Helper()
	doc, err := Deserialize([]byte(markup), opts)
	require.NoError(t, err)
	require.NoError(t, document.Validate(doc))
	return doc
}

func TestSerialize_Empty(t *testing.T) {
	assert.Equal(t, "", serialize(t, document.New(), stubOptions))
	assert.Equal(t, "", serialize(t, document.Document{Version: document.Version}, Options{Minify: true}))
}

func TestSerialize_Blocks(t *testing.T) {
	img := document.NewImageBlock()
	img.Data = document.ImageData{Src: "/a.png", Alt: "A", Width: document.Int(320)}

	captioned := document.NewImageBlock()
	captioned.Data = document.ImageData{Src: "/b.png", Alt: "B", Caption: document.String("Fig & 1")}

	secondary := document.NewButtonBlock()
	secondary.Data = document.ButtonData{Text: "Back", URL: "/", Variant: document.SecondaryButton}

	code := document.NewCodeBlock()
	code.Data = document.CodeData{Code: "if a < b {}", Language: "go"}

	inline := document.NewCodeBlock()
	inline.Data = document.CodeData{Code: "x := 1", Inline: true}

	doc := document.New(stubText(t, "<h1>Title</h1>"), img, captioned, secondary, code, inline)

	expected := strings.Join([]string{
		"<h1>Title</h1>",
		`<img src="/a.png" alt="A" width="320">`,
		`<figure><img src="/b.png" alt="B"><figcaption>Fig &amp; 1</figcaption></figure>`,
		`<a href="/" class="btn btn-secondary">Back</a>`,
		`<pre><code class="language-go">if a &lt; b {}</code></pre>`,
		`<code>x := 1</code>`,
	}, "\n")

	assert.Equal(t, expected, serialize(t, doc, stubOptions))
}

func TestSerialize_Button(t *testing.T) {
	b := document.NewButtonBlock()
	b.Data = document.ButtonData{Text: "Click me", URL: "https://example.com", Variant: document.PrimaryButton}

	got := serialize(t, document.New(b), stubOptions)
	assert.Equal(t, `<a href="https://example.com" class="btn btn-primary">Click me</a>`, got)
}

func TestSerialize_EscapesAlt(t *testing.T) {
	img := document.NewImageBlock()
	img.Data = document.ImageData{Src: `x" onerror="alert(1)`, Alt: "<script>"}

	got := serialize(t, document.New(img), stubOptions)
	assert.NotContains(t, got, "<script>")
	assert.Contains(t, got, `alt="&lt;script&gt;"`)
	assert.Contains(t, got, `src="x&#34; onerror=&#34;alert(1)"`)
}

func TestSerialize_Columns(t *testing.T) {
	cols := document.NewColumnsBlock(document.TwoColumns)
	doc := document.New(cols)
	doc = edit.AddBlockToColumn(doc, cols.ID, 0, stubText(t, "<p>left</p>"))

	got := serialize(t, doc, stubOptions)
	expected := strings.Join([]string{
		`<div class="pb-columns" style="display: grid; grid-template-columns: repeat(2, 1fr); gap: 16px;">`,
		`<div class="pb-column column-1"><p>left</p></div>`,
		`<div class="pb-column column-2"></div>`,
		`</div>`,
	}, "\n")
	assert.Equal(t, expected, got)
}

func TestSerialize_UnhandledData(t *testing.T) {
	_, err := Serialize(document.New(document.Block{ID: "x", Kind: document.TextKind}), stubOptions)
	assert.Error(t, err)

	_, err = Serialize(document.New(document.NewTextBlock()), Options{RichText: failingCodec{}})
	assert.Error(t, err)
}

func TestDeserialize_Blank(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t\n"} {
		doc := deserialize(t, input, stubOptions)
		assert.Equal(t, document.Version, doc.Version)
		assert.NotNil(t, doc.Blocks)
		assert.Empty(t, doc.Blocks)
	}
}

func TestDeserialize_Button(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected document.ButtonData
	}{
		{
			name:     "Primary",
			input:    `<a href="https://example.com" class="btn-primary">Click me</a>`,
			expected: document.ButtonData{Text: "Click me", URL: "https://example.com", Variant: document.PrimaryButton},
		},
		{
			name:     "PlainToken",
			input:    `<a href="/go" class="button"> Go </a>`,
			expected: document.ButtonData{Text: "Go", URL: "/go", Variant: document.PrimaryButton},
		},
		{
			name:     "Secondary",
			input:    `<a href="/back" class="button button-secondary">Back</a>`,
			expected: document.ButtonData{Text: "Back", URL: "/back", Variant: document.SecondaryButton},
		},
		{
			name:     "BtnSecondary",
			input:    `<a href="/back" class="btn btn-secondary">Back</a>`,
			expected: document.ButtonData{Text: "Back", URL: "/back", Variant: document.SecondaryButton},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc := deserialize(t, tc.input, stubOptions)
			require.Len(t, doc.Blocks, 1)
			assert.Equal(t, document.ButtonKind, doc.Blocks[0].Kind)
			if diff := cmp.Diff(tc.expected, doc.Blocks[0].Data); diff != "" {
				t.Fatalf("unexpected button (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDeserialize_LinkIsText(t *testing.T) {
	doc := deserialize(t, `<a href="https://example.com" class="external">Docs</a>`, stubOptions)
	require.Len(t, doc.Blocks, 1)
	assert.Equal(t, `<a href="https://example.com" class="external">Docs</a>`, textOf(t, doc.Blocks[0]))
}

func TestDeserialize_Text(t *testing.T) {
	doc := deserialize(t, "<h2>Title</h2>\n<p>Body</p>", stubOptions)
	require.Len(t, doc.Blocks, 2)
	assert.Equal(t, "<h2>Title</h2>", textOf(t, doc.Blocks[0]))
	assert.Equal(t, "<p>Body</p>", textOf(t, doc.Blocks[1]))
}

func TestDeserialize_HeadingLevelInPayload(t *testing.T) {
	doc := deserialize(t, "<h3>Section</h3>", Options{})
	require.Len(t, doc.Blocks, 1)

	d, ok := doc.Blocks[0].Data.(document.TextData)
	require.True(t, ok)
	node, err := richtext.Decode(d.Content)
	require.NoError(t, err)
	require.Len(t, node.Content, 1)
	assert.Equal(t, richtext.HeadingNode, node.Content[0].Type)
	assert.Equal(t, 3, richtext.HeadingLevel(node.Content[0]))
}

func TestDeserialize_Image(t *testing.T) {
	t.Run("Plain", func(t *testing.T) {
		doc := deserialize(t, `<img src="/a.png" alt="A" width="320" height="abc">`, stubOptions)
		require.Len(t, doc.Blocks, 1)
		expected := document.ImageData{Src: "/a.png", Alt: "A", Width: document.Int(320)}
		if diff := cmp.Diff(expected, doc.Blocks[0].Data); diff != "" {
			t.Fatalf("unexpected image (-want +got):\n%s", diff)
		}
	})

	t.Run("Figure", func(t *testing.T) {
		doc := deserialize(t, `<figure><img src="/b.png" alt="B"><figcaption> Fig 1 </figcaption></figure>`, stubOptions)
		require.Len(t, doc.Blocks, 1)
		expected := document.ImageData{Src: "/b.png", Alt: "B", Caption: document.String("Fig 1")}
		if diff := cmp.Diff(expected, doc.Blocks[0].Data); diff != "" {
			t.Fatalf("unexpected image (-want +got):\n%s", diff)
		}
	})

	t.Run("FigureWithoutImage", func(t *testing.T) {
		doc := deserialize(t, `<figure><figcaption>Only text</figcaption></figure>`, stubOptions)
		require.Len(t, doc.Blocks, 1)
		assert.Equal(t, "<p>Only text</p>", textOf(t, doc.Blocks[0]))
	})
}

func TestDeserialize_Code(t *testing.T) {
	doc := deserialize(t, `<pre><code class="hl language-go">if a &lt; b {}</code></pre><code>x := 1</code><pre>no code</pre>`, stubOptions)
	require.Equal(t, []document.Kind{document.CodeKind, document.CodeKind, document.TextKind}, kinds(doc))

	assert.Equal(t, document.CodeData{Code: "if a < b {}", Language: "go"}, doc.Blocks[0].Data)
	assert.Equal(t, document.CodeData{Code: "x := 1", Inline: true}, doc.Blocks[1].Data)
	assert.Equal(t, "<p>no code</p>", textOf(t, doc.Blocks[2]))
}

func TestDeserialize_Columns(t *testing.T) {
	input := `<div class="pb-columns" style="display: grid; grid-template-columns: repeat(3, 1fr); gap: 24px;">
<div class="pb-column column-1"><p>left</p><img src="/a.png" alt=""></div>
<div class="pb-column column-2"></div>
</div>`

	doc := deserialize(t, input, stubOptions)
	require.Len(t, doc.Blocks, 1)

	cols, ok := doc.Blocks[0].Columns()
	require.True(t, ok)
	assert.Equal(t, document.ThreeColumns, cols.ColumnCount)
	assert.Equal(t, 24, cols.EffectiveGap())
	require.Len(t, cols.Columns, 3)
	require.Len(t, cols.Columns[0], 2)
	assert.Equal(t, "<p>left</p>", textOf(t, cols.Columns[0][0]))
	assert.Equal(t, document.ImageKind, cols.Columns[0][1].Kind)
	assert.Empty(t, cols.Columns[1])
	assert.Empty(t, cols.Columns[2])
}

func TestDeserialize_ColumnsEdgeCases(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		doc := deserialize(t, `<div class="columns"><div class="column-1">a</div></div>`, stubOptions)
		cols, ok := doc.Blocks[0].Columns()
		require.True(t, ok)
		assert.Equal(t, document.TwoColumns, cols.ColumnCount)
		assert.Equal(t, document.DefaultColumnGap, cols.EffectiveGap())
		require.Len(t, cols.Columns, 2)
		require.Len(t, cols.Columns[0], 1)
		assert.Equal(t, "<p>a</p>", textOf(t, cols.Columns[0][0]))
	})

	t.Run("ExtraColumnsDropped", func(t *testing.T) {
		input := `<div class="columns-block" style="grid-template-columns: 1fr 1fr">
<div class="column-1">a</div><div class="column-2">b</div><div class="column-3">c</div>
</div>`
		doc := deserialize(t, input, stubOptions)
		cols, ok := doc.Blocks[0].Columns()
		require.True(t, ok)
		assert.Equal(t, document.TwoColumns, cols.ColumnCount)
		require.Len(t, cols.Columns, 2)
		assert.False(t, strings.Contains(serialize(t, doc, stubOptions), ">c<"))
	})

	t.Run("NestedColumnsBecomeText", func(t *testing.T) {
		input := `<div class="pb-columns"><div class="column-1"><div class="pb-columns"><div class="column-1">inner</div></div></div></div>`
		doc := deserialize(t, input, stubOptions)
		cols, ok := doc.Blocks[0].Columns()
		require.True(t, ok)
		require.Len(t, cols.Columns[0], 1)
		assert.Equal(t, "<p>inner</p>", textOf(t, cols.Columns[0][0]))
	})

	t.Run("NonColumnChildrenIgnored", func(t *testing.T) {
		input := `<div class="pb-columns" style="grid-template-columns: repeat(4, 1fr)"><div class="note">skip</div><div class="column-1">a</div></div>`
		doc := deserialize(t, input, stubOptions)
		cols, ok := doc.Blocks[0].Columns()
		require.True(t, ok)
		assert.Equal(t, document.FourColumns, cols.ColumnCount)
		require.Len(t, cols.Columns[0], 1)
		assert.Equal(t, "<p>a</p>", textOf(t, cols.Columns[0][0]))
	})
}

func TestParseGrid(t *testing.T) {
	testCases := []struct {
		style string
		count document.ColumnCount
		gap   int
	}{
		{"", 2, 16},
		{"display: grid; grid-template-columns: repeat(2, 1fr); gap: 16px;", 2, 16},
		{"grid-template-columns: repeat(3, minmax(0, 1fr)); gap: 8px", 3, 8},
		{"grid-template-columns: 1fr 2fr 1fr 1fr", 4, 16},
		{"grid-template-columns: minmax(0, 1fr) minmax(0, 1fr)", 2, 16},
		{"grid-template-columns: repeat(9, 1fr)", 4, 16},
		{"grid-template-columns: 1fr", 2, 16},
		{"grid-template-columns: repeat(x, 1fr); gap: 2em", 2, 16},
		{"gap: 10px 20px", 2, 20},
		{"column-gap: 0", 2, 0},
		{"GAP : 12px", 2, 12},
	}

	for _, tc := range testCases {
		t.Run(tc.style, func(t *testing.T) {
			got := parseGrid(tc.style)
			assert.Equal(t, tc.count, got.count)
			assert.Equal(t, tc.gap, got.gap)
		})
	}
}

func TestDeserialize_Fallbacks(t *testing.T) {
	t.Run("BareText", func(t *testing.T) {
		doc := deserialize(t, "  hello world  ", stubOptions)
		require.Len(t, doc.Blocks, 1)
		assert.Equal(t, "<p>hello world</p>", textOf(t, doc.Blocks[0]))
	})

	t.Run("UnknownElement", func(t *testing.T) {
		doc := deserialize(t, "<ul><li>a &amp; b</li></ul><section> </section><p>x</p>", stubOptions)
		require.Len(t, doc.Blocks, 2)
		assert.Equal(t, "<p>a &amp; b</p>", textOf(t, doc.Blocks[0]))
		assert.Equal(t, "<p>x</p>", textOf(t, doc.Blocks[1]))
	})

	t.Run("NothingRecognized", func(t *testing.T) {
		doc := deserialize(t, "<hr><br>", stubOptions)
		require.Len(t, doc.Blocks, 1)
		assert.Equal(t, "<hr><br>", textOf(t, doc.Blocks[0]))
	})

	t.Run("CodecError", func(t *testing.T) {
		_, err := Deserialize([]byte("<p>x</p>"), Options{RichText: failingCodec{}})
		assert.Error(t, err)
	})
}

func TestRoundTrip(t *testing.T) {
	button := document.NewButtonBlock()
	button.Data = document.ButtonData{Text: "Click me", URL: "https://example.com", Variant: document.PrimaryButton}

	img := document.NewImageBlock()
	img.Data = document.ImageData{Src: "/a.png", Alt: "<script>", Caption: document.String("Caption"), Height: document.Int(10)}

	code := document.NewCodeBlock()
	code.Data = document.CodeData{Code: "echo \"hi\"\n", Language: "sh"}

	cols := document.NewColumnsBlock(document.TwoColumns)

	doc := document.New(stubText(t, "<p>Intro</p>"), button, img, code, cols)
	doc = edit.AddBlockToColumn(doc, cols.ID, 1, stubText(t, "<p>right</p>"))

	markup := serialize(t, doc, stubOptions)
	got := deserialize(t, markup, stubOptions)

	require.Equal(t, kinds(doc), kinds(got))
	assert.Equal(t, "<p>Intro</p>", textOf(t, got.Blocks[0]))
	assert.Equal(t, button.Data, got.Blocks[1].Data)
	if diff := cmp.Diff(img.Data, got.Blocks[2].Data); diff != "" {
		t.Fatalf("unexpected image (-want +got):\n%s", diff)
	}
	assert.Equal(t, code.Data, got.Blocks[3].Data)

	gotCols, ok := got.Blocks[4].Columns()
	require.True(t, ok)
	assert.Equal(t, document.TwoColumns, gotCols.ColumnCount)
	require.Len(t, gotCols.Columns, 2)
	assert.Empty(t, gotCols.Columns[0])
	require.Len(t, gotCols.Columns[1], 1)
	assert.Equal(t, "<p>right</p>", textOf(t, gotCols.Columns[1][0]))
}

func TestRoundTrip_PreservesIDs(t *testing.T) {
	cols := document.NewColumnsBlock(document.ThreeColumns)
	doc := document.New(
		document.NewTextBlock(),
		document.NewButtonBlock(),
		document.NewCodeBlock(),
		cols,
	)
	doc = edit.AddBlockToColumn(doc, cols.ID, 2, document.NewImageBlock())

	textBlock := doc.Blocks[0]
	textBlock.Data = document.TextData{Content: document.RichText(`{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"hi"}]}]}`)}
	doc.Blocks[0] = textBlock

	markup := serialize(t, doc, Options{EmitIDs: true})

	preserved := deserialize(t, markup, Options{Identity: identity.PreservePolicy})
	var want, got []string
	doc.Walk(func(b document.Block, _ *document.Block, _ int) bool {
		want = append(want, b.ID)
		return true
	})
	preserved.Walk(func(b document.Block, _ *document.Block, _ int) bool {
		got = append(got, b.ID)
		return true
	})
	assert.Equal(t, want, got)

	fresh := deserialize(t, markup, Options{Identity: identity.FreshPolicy})
	assert.NotEqual(t, doc.Blocks[0].ID, fresh.Blocks[0].ID)
}

func TestDeserialize_DuplicateIDsReassigned(t *testing.T) {
	id := ulid.GenerateID()
	input := `<p data-block-id="` + id + `">a</p><p data-block-id="` + id + `">b</p>`

	doc := deserialize(t, input, Options{RichText: stubCodec{}, Identity: identity.PreservePolicy})
	require.Len(t, doc.Blocks, 2)
	assert.Equal(t, id, doc.Blocks[0].ID)
	assert.NotEqual(t, id, doc.Blocks[1].ID)
}

func TestSerialize_Minify(t *testing.T) {
	cols := document.NewColumnsBlock(document.TwoColumns)
	doc := document.New(stubText(t, "<p>  spaced   text </p>"), cols, document.NewButtonBlock())

	plain := serialize(t, doc, stubOptions)
	minified := serialize(t, doc, Options{RichText: stubCodec{}, Minify: true})
	assert.Less(t, len(minified), len(plain))

	got := deserialize(t, minified, stubOptions)
	assert.Equal(t, kinds(doc), kinds(got))
}

func TestDeserialize_Sanitize(t *testing.T) {
	input := `<script>alert(1)</script><p onclick="x()">ok</p>` +
		`<a href="https://example.com" class="btn btn-secondary">Go</a>` +
		`<div class="pb-columns" style="display: grid; position: fixed"><div class="pb-column column-1"><p>in</p></div></div>`

	doc := deserialize(t, input, Options{Sanitize: true})
	require.Equal(t, []document.Kind{document.TextKind, document.ButtonKind, document.ColumnsKind}, kinds(doc))

	text, err := richtext.PlainText(doc.Blocks[0].Data.(document.TextData).Content)
	require.NoError(t, err)
	assert.Equal(t, "ok", text)

	button, ok := doc.Blocks[1].Data.(document.ButtonData)
	require.True(t, ok)
	assert.Equal(t, document.SecondaryButton, button.Variant)

	cols, ok := doc.Blocks[2].Columns()
	require.True(t, ok)
	assert.Len(t, cols.Columns, int(cols.ColumnCount))
}

func TestDeserialize_SanitizeKeepsFragmentHrefs(t *testing.T) {
	input := `<a href="#" class="btn btn-primary">Click me</a>` +
		`<a href=" # " class="btn">Spaced</a>` +
		`<a href="#pricing" class="btn">Pricing</a>` +
		`<div class="pb-columns"><div class="pb-column column-1"><a href="#" class="btn">Nested</a></div><div class="pb-column column-2"></div></div>`

	doc := deserialize(t, input, Options{Sanitize: true})
	require.Equal(t, []document.Kind{document.ButtonKind, document.ButtonKind, document.ButtonKind, document.ColumnsKind}, kinds(doc))

	for i, expected := range []string{"#", "#", "#pricing"} {
		button, ok := doc.Blocks[i].Data.(document.ButtonData)
		require.True(t, ok)
		assert.Equal(t, expected, button.URL, button.Text)
	}

	cols, ok := doc.Blocks[3].Columns()
	require.True(t, ok)
	require.Len(t, cols.Columns[0], 1)
	nested, ok := cols.Columns[0][0].Data.(document.ButtonData)
	require.True(t, ok)
	assert.Equal(t, "#", nested.URL)

	t.Run("DefaultButtonRoundTrip", func(t *testing.T) {
		doc := document.New(document.NewButtonBlock())
		got := deserialize(t, serialize(t, doc, Options{}), Options{Sanitize: true})
		require.Len(t, got.Blocks, 1)
		assert.Equal(t, doc.Blocks[0].Data, got.Blocks[0].Data)
	})

	t.Run("UnsafeHref", func(t *testing.T) {
		got := deserialize(t, `<a href="javascript:alert(1)" class="btn">x</a>`, Options{Sanitize: true})
		data, err := document.Marshal(got)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "javascript")
	})
}
