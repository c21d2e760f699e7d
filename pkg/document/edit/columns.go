package edit

import (
	"github.com/stateful/pageblocks/pkg/document"
)

// AddBlockToColumn appends block to column columnIndex of the columns
// block with columnsID. Missing column entries below the column count
// are created. Columns blocks cannot be nested, and a block whose id
// is already in the document is not added.
func AddBlockToColumn(doc document.Document, columnsID string, columnIndex int, block document.Block) document.Document {
	if block.Kind == document.ColumnsKind || block.ID == "" || doc.Contains(block.ID) {
		return doc
	}

	return updateColumns(doc, columnsID, func(cols document.ColumnsData) (document.ColumnsData, bool) {
		if columnIndex < 0 || columnIndex >= int(cols.ColumnCount) {
			return cols, false
		}

		columns := resizeColumns(cols.Columns, int(cols.ColumnCount))

		col := make([]document.Block, 0, len(columns[columnIndex])+1)
		col = append(col, columns[columnIndex]...)
		col = append(col, block.Clone())
		columns[columnIndex] = col

		cols.Columns = columns
		return cols, true
	})
}

// RemoveBlockFromColumn removes the block with blockID from column
// columnIndex of the columns block with columnsID.
func RemoveBlockFromColumn(doc document.Document, columnsID string, columnIndex int, blockID string) document.Document {
	return updateColumns(doc, columnsID, func(cols document.ColumnsData) (document.ColumnsData, bool) {
		if columnIndex < 0 || columnIndex >= len(cols.Columns) {
			return cols, false
		}

		current := cols.Columns[columnIndex]
		col := make([]document.Block, 0, len(current))
		for _, b := range current {
			if b.ID != blockID {
				col = append(col, b)
			}
		}
		if len(col) == len(current) {
			return cols, false
		}

		columns := make([][]document.Block, len(cols.Columns))
		copy(columns, cols.Columns)
		columns[columnIndex] = col

		cols.Columns = columns
		return cols, true
	})
}

// UpdateColumnCount sets the column count of the columns block with
// columnsID. Growing appends empty columns. Shrinking drops the
// trailing columns together with their blocks; they are not restored
// by growing again.
func UpdateColumnCount(doc document.Document, columnsID string, count document.ColumnCount) document.Document {
	if !count.Valid() {
		return doc
	}

	return updateColumns(doc, columnsID, func(cols document.ColumnsData) (document.ColumnsData, bool) {
		if cols.ColumnCount == count && len(cols.Columns) == int(count) {
			return cols, false
		}
		cols.ColumnCount = count
		cols.Columns = resizeColumns(cols.Columns, int(count))
		return cols, true
	})
}

// updateColumns applies fn to the data of the top-level columns block
// with id. fn reports whether it changed anything.
func updateColumns(
	doc document.Document,
	id string,
	fn func(document.ColumnsData) (document.ColumnsData, bool),
) document.Document {
	b, idx, ok := Find(doc, id)
	if !ok {
		return doc
	}
	cols, ok := b.Columns()
	if !ok {
		return doc
	}

	updated, changed := fn(cols)
	if !changed {
		return doc
	}

	blocks := make([]document.Block, len(doc.Blocks))
	copy(blocks, doc.Blocks)
	blocks[idx] = document.Block{ID: b.ID, Kind: b.Kind, Data: updated}

	return withBlocks(doc, blocks)
}

// resizeColumns returns a new outer slice of exactly n columns.
// Existing columns below n are shared, missing ones are empty.
func resizeColumns(columns [][]document.Block, n int) [][]document.Block {
	result := make([][]document.Block, n)
	for i := range result {
		if i < len(columns) && columns[i] != nil {
			result[i] = columns[i]
		} else {
			result[i] = []document.Block{}
		}
	}
	return result
}
