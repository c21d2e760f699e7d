package media

import (
	"bytes"
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	gifHeader = []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")
)

func TestLocalUploader_Upload(t *testing.T) {
	dir := t.TempDir()
	uploader := NewLocalUploader(dir, "/media", 0, nil)
	assert.Equal(t, int64(DefaultMaxBytes), uploader.MaxBytes)

	testCases := []struct {
		name string
		data []byte
		mime string
		ext  string
	}{
		{"PNG", pngHeader, "image/png", ".png"},
		{"GIF", gifHeader, "image/gif", ".gif"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			asset, err := uploader.Upload(context.Background(), "upload"+tc.ext, bytes.NewReader(tc.data))
			require.NoError(t, err)

			assert.Equal(t, tc.mime, asset.MIME)
			assert.Equal(t, int64(len(tc.data)), asset.Size)
			assert.True(t, strings.HasPrefix(asset.URL, "/media/"), asset.URL)
			assert.Equal(t, tc.ext, path.Ext(asset.URL))

			stored, err := os.ReadFile(filepath.Join(dir, path.Base(asset.URL)))
			require.NoError(t, err)
			assert.Equal(t, tc.data, stored)
		})
	}
}

func TestLocalUploader_Rejects(t *testing.T) {
	dir := t.TempDir()

	t.Run("NotAnImage", func(t *testing.T) {
		uploader := NewLocalUploader(dir, "", 0, nil)
		_, err := uploader.Upload(context.Background(), "notes.txt", strings.NewReader("just some text"))
		assert.True(t, errors.Is(err, ErrNotAnImage), "got %v", err)
	})

	t.Run("TooLarge", func(t *testing.T) {
		uploader := NewLocalUploader(dir, "", 8, nil)
		_, err := uploader.Upload(context.Background(), "big.png", bytes.NewReader(pngHeader))
		assert.True(t, errors.Is(err, ErrTooLarge), "got %v", err)
	})

	t.Run("Canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		uploader := NewLocalUploader(dir, "", 0, nil)
		_, err := uploader.Upload(ctx, "a.png", bytes.NewReader(pngHeader))
		assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	})

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
