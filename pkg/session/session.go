// Package session holds the document being edited and applies edits
// issued by a host, notifying it after every change.
package session

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/pageblocks/internal/ulid"
	"github.com/stateful/pageblocks/pkg/document"
	"github.com/stateful/pageblocks/pkg/document/edit"
	"github.com/stateful/pageblocks/pkg/document/editor"
	"github.com/stateful/pageblocks/pkg/media"
	"github.com/stateful/pageblocks/pkg/richtext"
)

// DefaultHistoryLimit is the number of snapshots kept for undo.
const DefaultHistoryLimit = 40

// Session owns a document snapshot. Operations are applied in the
// order they are issued; there is no merging of concurrent edits.
type Session struct {
	ID string

	logger       *zap.Logger
	emitter      EventEmitter
	historyLimit int
	editorOpts   editor.Options

	mu   sync.Mutex
	doc  document.Document
	undo []document.Document
	redo []document.Document
}

type Option func(*Session)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

func WithEmitter(emitter EventEmitter) Option {
	return func(s *Session) {
		s.emitter = emitter
	}
}

// WithHistoryLimit sets how many snapshots Undo can go back.
// Non-positive values keep the default.
func WithHistoryLimit(limit int) Option {
	return func(s *Session) {
		if limit > 0 {
			s.historyLimit = limit
		}
	}
}

// WithEditorOptions sets the options used for LoadMarkup and Markup.
func WithEditorOptions(opts editor.Options) Option {
	return func(s *Session) {
		s.editorOpts = opts
	}
}

func New(opts ...Option) *Session {
	s := &Session{
		ID:           ulid.GenerateID(),
		logger:       zap.NewNop(),
		emitter:      nopEmitter{},
		historyLimit: DefaultHistoryLimit,
		doc:          document.New(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.emitter == nil {
		s.emitter = nopEmitter{}
	}
	if s.editorOpts.Logger == nil {
		s.editorOpts.Logger = s.logger
	}
	if s.editorOpts.RichText == nil {
		// Markup renders every text block each time; keep recent renders.
		if codec, err := richtext.NewCachedCodec(richtext.New(), richtext.DefaultCacheSize); err == nil {
			s.editorOpts.RichText = codec
		}
	}

	return s
}

func (s *Session) Identifier() string {
	return s.ID
}

// Load replaces the document with a persisted one. A document that
// cannot be decoded or breaks an invariant is replaced by an empty
// document; the error is returned and emitted as EventLoadFailed.
// History is cleared either way.
func (s *Session) Load(ctx context.Context, data []byte) error {
	doc, err := document.Unmarshal(data)
	if err == nil {
		err = document.Validate(doc)
	}
	return s.replace(ctx, doc, err)
}

// LoadMarkup replaces the document with one parsed from legacy markup.
func (s *Session) LoadMarkup(ctx context.Context, data []byte) error {
	doc, err := editor.Deserialize(data, s.editorOpts)
	return s.replace(ctx, doc, err)
}

func (s *Session) replace(ctx context.Context, doc document.Document, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.undo = nil
	s.redo = nil

	if err != nil {
		s.logger.Warn("failed to load document, starting empty", zap.String("session", s.ID), zap.Error(err))
		s.doc = document.New()
		s.emitter.Emit(ctx, EventLoadFailed, err.Error())
		return err
	}

	s.doc = doc
	s.logger.Debug("loaded document", zap.String("session", s.ID), zap.Int("blocks", doc.Len()))
	return nil
}

// Document returns a copy of the current snapshot.
func (s *Session) Document() document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Markup renders the current snapshot as legacy markup.
func (s *Session) Markup() ([]byte, error) {
	s.mu.Lock()
	doc := s.doc
	s.mu.Unlock()
	return editor.Serialize(doc, s.editorOpts)
}

func (s *Session) AddBlock(ctx context.Context, block document.Block, index int) document.Document {
	return s.apply(ctx, "add", func(d document.Document) document.Document {
		return edit.AddBlock(d, block, index)
	})
}

func (s *Session) RemoveBlock(ctx context.Context, id string) document.Document {
	return s.apply(ctx, "remove", func(d document.Document) document.Document {
		return edit.RemoveBlock(d, id)
	})
}

func (s *Session) UpdateBlock(ctx context.Context, id string, patch edit.Patch) document.Document {
	return s.apply(ctx, "update", func(d document.Document) document.Document {
		return edit.UpdateBlock(d, id, patch)
	})
}

func (s *Session) ReorderBlocks(ctx context.Context, from, to int) document.Document {
	return s.apply(ctx, "reorder", func(d document.Document) document.Document {
		return edit.ReorderBlocks(d, from, to)
	})
}

func (s *Session) DuplicateBlock(ctx context.Context, id string) document.Document {
	return s.apply(ctx, "duplicate", func(d document.Document) document.Document {
		return edit.DuplicateBlock(d, id)
	})
}

func (s *Session) AddBlockToColumn(ctx context.Context, columnsID string, columnIndex int, block document.Block) document.Document {
	return s.apply(ctx, "add-to-column", func(d document.Document) document.Document {
		return edit.AddBlockToColumn(d, columnsID, columnIndex, block)
	})
}

func (s *Session) RemoveBlockFromColumn(ctx context.Context, columnsID string, columnIndex int, blockID string) document.Document {
	return s.apply(ctx, "remove-from-column", func(d document.Document) document.Document {
		return edit.RemoveBlockFromColumn(d, columnsID, columnIndex, blockID)
	})
}

func (s *Session) UpdateColumnCount(ctx context.Context, columnsID string, count document.ColumnCount) document.Document {
	return s.apply(ctx, "column-count", func(d document.Document) document.Document {
		return edit.UpdateColumnCount(d, columnsID, count)
	})
}

// AddUploadedImage uploads an image and adds an image block for it at
// index. When the upload fails the document is left unchanged.
func (s *Session) AddUploadedImage(
	ctx context.Context,
	uploader media.Uploader,
	name string,
	r io.Reader,
	index int,
) (document.Document, error) {
	asset, err := uploader.Upload(ctx, name, r)
	if err != nil {
		s.logger.Info("image upload failed", zap.String("session", s.ID), zap.String("name", name), zap.Error(err))
		return s.Document(), errors.Wrap(err, "upload image")
	}

	block := document.NewImageBlock()
	block.Data = document.ImageData{
		Src: asset.URL,
		Alt: strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)),
	}

	return s.AddBlock(ctx, block, index), nil
}

// Undo restores the snapshot before the last change. It reports
// whether there was anything to undo.
func (s *Session) Undo(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.undo) == 0 {
		return false
	}

	prev := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, s.doc)
	s.doc = prev

	s.notify(ctx, "undo")
	return true
}

// Redo reapplies the last undone change.
func (s *Session) Redo(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.redo) == 0 {
		return false
	}

	next := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.pushUndo(s.doc)
	s.doc = next

	s.notify(ctx, "redo")
	return true
}

func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo) > 0
}

func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redo) > 0
}

func (s *Session) apply(ctx context.Context, op string, fn func(document.Document) document.Document) document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := fn(s.doc)
	if sameSnapshot(s.doc, next) {
		s.logger.Debug("operation changed nothing", zap.String("session", s.ID), zap.String("op", op))
		return s.doc.Clone()
	}

	s.pushUndo(s.doc)
	s.redo = nil
	s.doc = next

	s.notify(ctx, op)
	return next.Clone()
}

func (s *Session) pushUndo(doc document.Document) {
	s.undo = append(s.undo, doc)
	if over := len(s.undo) - s.historyLimit; over > 0 {
		s.undo = append(s.undo[:0:0], s.undo[over:]...)
	}
}

// notify emits the current snapshot. The caller holds s.mu.
func (s *Session) notify(ctx context.Context, op string) {
	data, err := document.Marshal(s.doc)
	if err != nil {
		s.logger.Error("failed to marshal document", zap.String("session", s.ID), zap.String("op", op), zap.Error(err))
		return
	}

	s.logger.Debug("document changed", zap.String("session", s.ID), zap.String("op", op), zap.Int("blocks", s.doc.Len()))
	s.emitter.Emit(ctx, EventChanged, json.RawMessage(data))
}

// sameSnapshot reports whether an operation returned its input.
// Operations that change anything allocate a new block slice.
func sameSnapshot(a, b document.Document) bool {
	if len(a.Blocks) != len(b.Blocks) {
		return false
	}
	if len(a.Blocks) == 0 {
		return true
	}
	return &a.Blocks[0] == &b.Blocks[0]
}
