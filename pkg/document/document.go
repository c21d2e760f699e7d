package document

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// Version is the only persisted document version understood.
const Version = "1.0"

var ErrInvalidDocument = errors.New("invalid document")

// Document is an ordered sequence of blocks. Order is the visual
// top-to-bottom order. Documents are snapshots: every edit yields
// a new Document.
type Document struct {
	Version string  `json:"version"`
	Blocks  []Block `json:"blocks"`
}

// New returns an empty document.
func New(blocks ...Block) Document {
	if blocks == nil {
		blocks = []Block{}
	}
	return Document{
		Version: Version,
		Blocks:  blocks,
	}
}

func (d Document) Clone() Document {
	blocks := CloneBlocks(d.Blocks)
	if blocks == nil {
		blocks = []Block{}
	}
	return Document{Version: d.Version, Blocks: blocks}
}

func (d Document) Len() int { return len(d.Blocks) }

// Walk calls fn for every block, depth first, including blocks nested
// in columns. column is -1 for top-level blocks. Walking stops when
// fn returns false.
func (d Document) Walk(fn func(b Block, parent *Block, column int) bool) {
	for i := range d.Blocks {
		b := d.Blocks[i]
		if !fn(b, nil, -1) {
			return
		}
		cols, ok := b.Columns()
		if !ok {
			continue
		}
		for ci, col := range cols.Columns {
			for _, nested := range col {
				if !fn(nested, &b, ci) {
					return
				}
			}
		}
	}
}

// Contains reports whether a block with id exists anywhere in the document.
func (d Document) Contains(id string) bool {
	found := false
	d.Walk(func(b Block, _ *Block, _ int) bool {
		if b.ID == id {
			found = true
		}
		return !found
	})
	return found
}

// Marshal encodes the document in its persisted form.
func Marshal(d Document) ([]byte, error) {
	if d.Version == "" {
		d.Version = Version
	}
	if d.Blocks == nil {
		d.Blocks = []Block{}
	}
	data, err := json.Marshal(d)
	return data, errors.WithStack(err)
}

// Unmarshal decodes a persisted document. Anything that is not a
// version "1.0" document with a blocks array is reported as
// ErrInvalidDocument.
func Unmarshal(data []byte) (Document, error) {
	var probe struct {
		Version *string          `json:"version"`
		Blocks  *json.RawMessage `json:"blocks"`
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return Document{}, errors.Wrap(ErrInvalidDocument, "empty input")
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return Document{}, errors.Wrapf(ErrInvalidDocument, "malformed json: %v", err)
	}
	if probe.Version == nil || *probe.Version != Version {
		var got string
		if probe.Version != nil {
			got = *probe.Version
		}
		return Document{}, errors.Wrapf(ErrInvalidDocument, "unsupported version %q", got)
	}
	if probe.Blocks == nil || bytes.Equal(bytes.TrimSpace(*probe.Blocks), []byte("null")) {
		return Document{}, errors.Wrap(ErrInvalidDocument, "missing blocks")
	}

	var blocks []Block
	if err := json.Unmarshal(*probe.Blocks, &blocks); err != nil {
		return Document{}, errors.Wrapf(ErrInvalidDocument, "blocks: %v", err)
	}

	return New(blocks...), nil
}
