package document

import (
	"encoding/json"
	"slices"

	"github.com/pkg/errors"

	"github.com/stateful/pageblocks/internal/ulid"
)

type Kind string

const (
	TextKind    Kind = "text"
	ImageKind   Kind = "image"
	ButtonKind  Kind = "button"
	ColumnsKind Kind = "columns"
	CodeKind    Kind = "code"
)

// Kinds lists every block kind in catalog order.
var Kinds = []Kind{TextKind, ImageKind, ButtonKind, ColumnsKind, CodeKind}

func (k Kind) Valid() bool {
	return slices.Contains(Kinds, k)
}

type ButtonVariant string

const (
	PrimaryButton   ButtonVariant = "primary"
	SecondaryButton ButtonVariant = "secondary"
)

type ColumnCount int

const (
	TwoColumns   ColumnCount = 2
	ThreeColumns ColumnCount = 3
	FourColumns  ColumnCount = 4
)

func (c ColumnCount) Valid() bool {
	return c >= TwoColumns && c <= FourColumns
}

const DefaultColumnGap = 16

// Data is the variant-specific payload of a block. It is implemented
// only by the data types of this package.
type Data interface {
	Kind() Kind
	clone() Data
}

var (
	_ Data = TextData{}
	_ Data = ImageData{}
	_ Data = ButtonData{}
	_ Data = CodeData{}
	_ Data = ColumnsData{}
)

// TextData holds an opaque rich-text document owned by
// the rich-text collaborator.
type TextData struct {
	Content RichText
}

func (TextData) Kind() Kind { return TextKind }

func (d TextData) clone() Data {
	return TextData{Content: d.Content.Clone()}
}

type ImageData struct {
	Src     string  `json:"src"`
	Alt     string  `json:"alt"`
	Caption *string `json:"caption,omitempty"`
	Width   *int    `json:"width,omitempty"`
	Height  *int    `json:"height,omitempty"`
}

func (ImageData) Kind() Kind { return ImageKind }

func (d ImageData) clone() Data {
	d.Caption = clonePtr(d.Caption)
	d.Width = clonePtr(d.Width)
	d.Height = clonePtr(d.Height)
	return d
}

type ButtonData struct {
	Text    string        `json:"text"`
	URL     string        `json:"url"`
	Variant ButtonVariant `json:"variant,omitempty"`
}

func (ButtonData) Kind() Kind { return ButtonKind }

func (d ButtonData) clone() Data { return d }

// EffectiveVariant resolves an absent variant to primary.
func (d ButtonData) EffectiveVariant() ButtonVariant {
	if d.Variant == SecondaryButton {
		return SecondaryButton
	}
	return PrimaryButton
}

type CodeData struct {
	Code     string `json:"code"`
	Language string `json:"language,omitempty"`
	Inline   bool   `json:"inline"`
}

func (CodeData) Kind() Kind { return CodeKind }

func (d CodeData) clone() Data { return d }

type ColumnsData struct {
	ColumnCount ColumnCount `json:"columnCount"`
	Gap         *int        `json:"gap,omitempty"`
	Columns     [][]Block   `json:"columns"`
}

func (ColumnsData) Kind() Kind { return ColumnsKind }

func (d ColumnsData) clone() Data {
	d.Gap = clonePtr(d.Gap)
	d.Columns = CloneColumns(d.Columns)
	return d
}

// EffectiveGap resolves an absent gap to DefaultColumnGap.
func (d ColumnsData) EffectiveGap() int {
	if d.Gap == nil {
		return DefaultColumnGap
	}
	return *d.Gap
}

// Block is a single content block. Blocks are values: operations
// that change a block return a new one.
type Block struct {
	ID   string
	Kind Kind
	Data Data
}

// Clone returns a deep copy of the block, keeping its id.
func (b Block) Clone() Block {
	clone := b
	if b.Data != nil {
		clone.Data = b.Data.clone()
	}
	return clone
}

// Columns returns the column data when the block is a columns block.
func (b Block) Columns() (ColumnsData, bool) {
	d, ok := b.Data.(ColumnsData)
	return d, ok && b.Kind == ColumnsKind
}

func CloneBlocks(blocks []Block) []Block {
	if blocks == nil {
		return nil
	}
	result := make([]Block, len(blocks))
	for i, b := range blocks {
		result[i] = b.Clone()
	}
	return result
}

func CloneColumns(columns [][]Block) [][]Block {
	if columns == nil {
		return nil
	}
	result := make([][]Block, len(columns))
	for i, col := range columns {
		result[i] = CloneBlocks(col)
		if result[i] == nil {
			result[i] = []Block{}
		}
	}
	return result
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Int returns a pointer to v, for optional integer fields.
func Int(v int) *int { return &v }

// String returns a pointer to v, for optional string fields.
func String(v string) *string { return &v }

func NewTextBlock() Block {
	return NewTextBlockWithContent(nil)
}

// NewTextBlockWithContent creates a text block holding content.
// An empty content is replaced by an empty rich-text document.
func NewTextBlockWithContent(content RichText) Block {
	if len(content) == 0 {
		content = EmptyRichText()
	}
	return Block{
		ID:   ulid.GenerateID(),
		Kind: TextKind,
		Data: TextData{Content: content},
	}
}

// NewImageBlock creates an image block without a source, which
// stands for "no image yet".
func NewImageBlock() Block {
	return Block{
		ID:   ulid.GenerateID(),
		Kind: ImageKind,
		Data: ImageData{},
	}
}

func NewButtonBlock() Block {
	return Block{
		ID:   ulid.GenerateID(),
		Kind: ButtonKind,
		Data: ButtonData{
			Text:    "Click me",
			URL:     "#",
			Variant: PrimaryButton,
		},
	}
}

func NewCodeBlock() Block {
	return Block{
		ID:   ulid.GenerateID(),
		Kind: CodeKind,
		Data: CodeData{},
	}
}

// NewColumnsBlock creates a columns block with count empty columns.
func NewColumnsBlock(count ColumnCount) Block {
	columns := make([][]Block, count)
	for i := range columns {
		columns[i] = []Block{}
	}
	return Block{
		ID:   ulid.GenerateID(),
		Kind: ColumnsKind,
		Data: ColumnsData{
			ColumnCount: count,
			Gap:         Int(DefaultColumnGap),
			Columns:     columns,
		},
	}
}

type wireBlock struct {
	ID   string          `json:"id"`
	Type Kind            `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (b Block) MarshalJSON() ([]byte, error) {
	if b.Data == nil {
		return nil, errors.Errorf("block %s has no data", b.ID)
	}
	data, err := EncodeData(b.Data)
	if err != nil {
		return nil, errors.Wrapf(err, "block %s", b.ID)
	}
	return json.Marshal(wireBlock{ID: b.ID, Type: b.Kind, Data: data})
}

// EncodeData returns the wire form of a block's data.
func EncodeData(d Data) (json.RawMessage, error) {
	var (
		data []byte
		err  error
	)

	switch d := d.(type) {
	case TextData:
		data = d.Content.Clone()
		if len(data) == 0 {
			data = EmptyRichText()
		}
	case ColumnsData:
		// Keep empty columns as [] rather than null.
		d.Columns = CloneColumns(d.Columns)
		if d.Columns == nil {
			d.Columns = [][]Block{}
		}
		data, err = json.Marshal(d)
	case ImageData, ButtonData, CodeData:
		data, err = json.Marshal(d)
	default:
		return nil, errors.Errorf("unhandled block data %T", d)
	}

	return data, errors.WithStack(err)
}

// DecodeData decodes the wire form of a block's data for kind.
func DecodeData(kind Kind, raw json.RawMessage) (Data, error) {
	return decodeData(kind, raw)
}

func (b *Block) UnmarshalJSON(raw []byte) error {
	var w wireBlock
	if err := json.Unmarshal(raw, &w); err != nil {
		return errors.WithStack(err)
	}
	if w.ID == "" {
		return errors.New("block without id")
	}

	data, err := decodeData(w.Type, w.Data)
	if err != nil {
		return errors.Wrapf(err, "block %s", w.ID)
	}

	*b = Block{ID: w.ID, Kind: w.Type, Data: data}
	return nil
}

func decodeData(kind Kind, raw json.RawMessage) (Data, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, errors.Errorf("missing data for %q block", kind)
	}

	switch kind {
	case TextKind:
		return TextData{Content: RichText(raw).Clone()}, nil
	case ImageKind:
		var d ImageData
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, errors.WithStack(err)
		}
		return d, nil
	case ButtonKind:
		var d ButtonData
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, errors.WithStack(err)
		}
		if d.Variant != "" && d.Variant != PrimaryButton && d.Variant != SecondaryButton {
			return nil, errors.Errorf("unknown button variant %q", d.Variant)
		}
		return d, nil
	case CodeKind:
		var d CodeData
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, errors.WithStack(err)
		}
		return d, nil
	case ColumnsKind:
		var d ColumnsData
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, errors.WithStack(err)
		}
		for i, col := range d.Columns {
			if col == nil {
				d.Columns[i] = []Block{}
			}
		}
		return d, nil
	default:
		return nil, errors.Errorf("unknown block type %q", kind)
	}
}
