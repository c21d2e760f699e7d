package edit

import (
	"encoding/json"

	"github.com/stateful/pageblocks/pkg/document"
)

// Patch holds data fields to override, keyed by their wire names,
// for example {"src": "https://…", "alt": "Logo"}.
type Patch map[string]any

// UpdateBlock shallow-merges patch onto the data of the top-level
// block with id. Fields not named in patch keep their values.
//
// The block's id and type cannot be changed. A patch that does not fit
// the block's data shape, or whose result would break a document
// invariant, leaves the document unchanged.
func UpdateBlock(doc document.Document, id string, patch Patch) document.Document {
	b, idx, ok := Find(doc, id)
	if !ok || len(patch) == 0 {
		return doc
	}

	data, ok := mergeData(b, patch)
	if !ok {
		return doc
	}

	updated := document.Block{ID: b.ID, Kind: b.Kind, Data: data}

	blocks := make([]document.Block, len(doc.Blocks))
	copy(blocks, doc.Blocks)
	blocks[idx] = updated

	return keepValid(doc, withBlocks(doc, blocks))
}

func mergeData(b document.Block, patch Patch) (document.Data, bool) {
	raw, err := document.EncodeData(b.Data)
	if err != nil {
		return nil, false
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false
	}
	for key, value := range patch {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, false
		}
		fields[key] = encoded
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return nil, false
	}

	data, err := document.DecodeData(b.Kind, merged)
	if err != nil {
		return nil, false
	}

	if cols, ok := data.(document.ColumnsData); ok {
		if !cols.ColumnCount.Valid() {
			return nil, false
		}
		cols.Columns = resizeColumns(cols.Columns, int(cols.ColumnCount))
		data = cols
	}

	return data, true
}
