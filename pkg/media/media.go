// Package media stores images for image blocks.
package media

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/pageblocks/internal/ulid"
)

const DefaultMaxBytes = 10 << 20

var (
	ErrNotAnImage = errors.New("not an image")
	ErrTooLarge   = errors.New("file too large")
)

// Asset is a stored image.
type Asset struct {
	URL  string
	MIME string
	Size int64
}

// Uploader stores an image and returns where it can be loaded from.
type Uploader interface {
	Upload(ctx context.Context, name string, r io.Reader) (Asset, error)
}

// LocalUploader writes images to a directory served under BaseURL.
type LocalUploader struct {
	Dir      string
	BaseURL  string
	MaxBytes int64

	logger *zap.Logger
}

var _ Uploader = (*LocalUploader)(nil)

func NewLocalUploader(dir, baseURL string, maxBytes int64, logger *zap.Logger) *LocalUploader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalUploader{
		Dir:      dir,
		BaseURL:  baseURL,
		MaxBytes: maxBytes,
		logger:   logger,
	}
}

// Upload stores the content of r under a new unique name. The content
// is sniffed; anything that is not an image is rejected. name is the
// original file name and is used for logging only.
func (u *LocalUploader) Upload(ctx context.Context, name string, r io.Reader) (Asset, error) {
	if err := ctx.Err(); err != nil {
		return Asset{}, errors.WithStack(err)
	}

	data, err := io.ReadAll(io.LimitReader(r, u.MaxBytes+1))
	if err != nil {
		return Asset{}, errors.Wrapf(err, "read %s", name)
	}
	if int64(len(data)) > u.MaxBytes {
		return Asset{}, errors.Wrapf(ErrTooLarge, "%s exceeds %d bytes", name, u.MaxBytes)
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return Asset{}, errors.Wrapf(ErrNotAnImage, "%s is %s", name, mtype.String())
	}

	if err := ctx.Err(); err != nil {
		return Asset{}, errors.WithStack(err)
	}

	if err := os.MkdirAll(u.Dir, 0o755); err != nil {
		return Asset{}, errors.WithStack(err)
	}

	file := ulid.GenerateID() + mtype.Extension()
	if err := os.WriteFile(filepath.Join(u.Dir, file), data, 0o644); err != nil {
		return Asset{}, errors.WithStack(err)
	}

	location, err := url.JoinPath(u.BaseURL, file)
	if err != nil {
		return Asset{}, errors.Wrapf(err, "base url %q", u.BaseURL)
	}

	u.logger.Info("stored image",
		zap.String("name", name),
		zap.String("file", file),
		zap.String("mime", mtype.String()),
		zap.Int("size", len(data)),
	)

	return Asset{
		URL:  location,
		MIME: mtype.String(),
		Size: int64(len(data)),
	}, nil
}
