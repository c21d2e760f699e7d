package document

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

var (
	ErrDuplicateID       = errors.New("duplicate block id")
	ErrColumnCount       = errors.New("invalid column count")
	ErrColumnsMismatch   = errors.New("columns length does not match column count")
	ErrNestedColumns     = errors.New("columns block nested in a column")
	ErrKindMismatch      = errors.New("block type does not match its data")
	ErrUnknownBlockKind  = errors.New("unknown block type")
	ErrMissingIdentifier = errors.New("block without id")
)

// Validate checks the structural invariants of a document:
//   - block ids are unique, including blocks nested in columns,
//   - every columns block has a count of 2, 3 or 4 and exactly that many columns,
//   - columns blocks are not nested inside columns,
//   - every block's data matches its type.
//
// All violations are reported, combined with multierr.
func Validate(d Document) error {
	var (
		err  error
		seen = make(map[string]struct{})
	)

	d.Walk(func(b Block, parent *Block, column int) bool {
		err = multierr.Append(err, validateBlock(b, seen))
		if parent != nil && b.Kind == ColumnsKind {
			err = multierr.Append(err, errors.Wrapf(ErrNestedColumns, "block %s in column %d of %s", b.ID, column, parent.ID))
		}
		return true
	})

	return err
}

func validateBlock(b Block, seen map[string]struct{}) (err error) {
	if b.ID == "" {
		err = multierr.Append(err, ErrMissingIdentifier)
	} else if _, ok := seen[b.ID]; ok {
		err = multierr.Append(err, errors.Wrapf(ErrDuplicateID, "%s", b.ID))
	} else {
		seen[b.ID] = struct{}{}
	}

	if !b.Kind.Valid() {
		return multierr.Append(err, errors.Wrapf(ErrUnknownBlockKind, "block %s: %q", b.ID, b.Kind))
	}
	if b.Data == nil || b.Data.Kind() != b.Kind {
		return multierr.Append(err, errors.Wrapf(ErrKindMismatch, "block %s", b.ID))
	}

	if cols, ok := b.Columns(); ok {
		if !cols.ColumnCount.Valid() {
			err = multierr.Append(err, errors.Wrapf(ErrColumnCount, "block %s: %d", b.ID, cols.ColumnCount))
		}
		if len(cols.Columns) != int(cols.ColumnCount) {
			err = multierr.Append(err, errors.Wrapf(ErrColumnsMismatch, "block %s: %d columns, count %d", b.ID, len(cols.Columns), cols.ColumnCount))
		}
	}

	return err
}
