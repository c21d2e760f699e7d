// Package edit implements the document mutation operations.
//
// Every operation is pure: it returns a new document and never changes
// its input. Operations that cannot find their target, or that would
// break a document invariant, return the input unchanged.
package edit

import (
	"github.com/stateful/pageblocks/internal/ulid"
	"github.com/stateful/pageblocks/pkg/document"
)

// Append can be passed as an index to AddBlock to add at the end.
const Append = -1

// Find returns the top-level block with id and its index.
func Find(doc document.Document, id string) (document.Block, int, bool) {
	for i, b := range doc.Blocks {
		if b.ID == id {
			return b, i, true
		}
	}
	return document.Block{}, -1, false
}

// AddBlock inserts block at index. Indices outside [0, len] append.
// A block whose id is already in the document is not added, nor is a
// block that would leave a valid document invalid, such as a columns
// block carrying nested ids the document already uses.
func AddBlock(doc document.Document, block document.Block, index int) document.Document {
	if block.ID == "" || doc.Contains(block.ID) {
		return doc
	}

	n := len(doc.Blocks)
	if index < 0 || index > n {
		index = n
	}

	blocks := make([]document.Block, 0, n+1)
	blocks = append(blocks, doc.Blocks[:index]...)
	blocks = append(blocks, block.Clone())
	blocks = append(blocks, doc.Blocks[index:]...)

	return keepValid(doc, withBlocks(doc, blocks))
}

// RemoveBlock removes the top-level block with id. Blocks nested in
// columns are removed with RemoveBlockFromColumn.
func RemoveBlock(doc document.Document, id string) document.Document {
	_, idx, ok := Find(doc, id)
	if !ok {
		return doc
	}

	blocks := make([]document.Block, 0, len(doc.Blocks)-1)
	blocks = append(blocks, doc.Blocks[:idx]...)
	blocks = append(blocks, doc.Blocks[idx+1:]...)

	return withBlocks(doc, blocks)
}

// ReorderBlocks moves the block at from so that it ends up at to.
// The block is spliced out first and then spliced in, so to indexes
// the shortened sequence. Both indices are clamped into range.
func ReorderBlocks(doc document.Document, from, to int) document.Document {
	n := len(doc.Blocks)
	if n == 0 {
		return doc
	}
	from = clamp(from, 0, n-1)
	to = clamp(to, 0, n-1)
	if from == to {
		return doc
	}

	moved := doc.Blocks[from]

	rest := make([]document.Block, 0, n-1)
	rest = append(rest, doc.Blocks[:from]...)
	rest = append(rest, doc.Blocks[from+1:]...)

	blocks := make([]document.Block, 0, n)
	blocks = append(blocks, rest[:to]...)
	blocks = append(blocks, moved)
	blocks = append(blocks, rest[to:]...)

	return withBlocks(doc, blocks)
}

// DuplicateBlock inserts a deep copy of the top-level block with id
// right after it. The copy and every block nested in its columns get
// fresh ids.
func DuplicateBlock(doc document.Document, id string) document.Document {
	b, idx, ok := Find(doc, id)
	if !ok {
		return doc
	}

	dup := b.Clone()
	dup.ID = ulid.GenerateID()
	if cols, ok := dup.Columns(); ok {
		for _, col := range cols.Columns {
			for i := range col {
				col[i].ID = ulid.GenerateID()
			}
		}
		dup.Data = cols
	}

	blocks := make([]document.Block, 0, len(doc.Blocks)+1)
	blocks = append(blocks, doc.Blocks[:idx+1]...)
	blocks = append(blocks, dup)
	blocks = append(blocks, doc.Blocks[idx+1:]...)

	return withBlocks(doc, blocks)
}

func withBlocks(doc document.Document, blocks []document.Block) document.Document {
	version := doc.Version
	if version == "" {
		version = document.Version
	}
	return document.Document{Version: version, Blocks: blocks}
}

// keepValid returns doc when result breaks an invariant doc satisfies.
func keepValid(doc, result document.Document) document.Document {
	if document.Validate(result) != nil && document.Validate(doc) == nil {
		return doc
	}
	return result
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
