package cmd

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stateful/pageblocks/internal/log"
	"github.com/stateful/pageblocks/pkg/document"
	"github.com/stateful/pageblocks/pkg/document/editor"
	"github.com/stateful/pageblocks/pkg/document/identity"
	"github.com/stateful/pageblocks/pkg/richtext"
)

const stdinName = "-"

// readInput reads a local file, stdin for "-", or a remote https:// file.
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	switch {
	case name == stdinName:
		data, err := io.ReadAll(cmd.InOrStdin())
		return data, errors.Wrap(err, "failed to read from stdin")
	case strings.HasPrefix(name, "https://"):
		client := http.Client{
			Timeout: time.Second * 10,
		}
		resp, err := client.Get(name)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get a file %q", name)
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			return nil, errors.Errorf("failed to get a file %q: %s", name, resp.Status)
		}
		data, err := io.ReadAll(resp.Body)
		return data, errors.Wrap(err, "failed to read body")
	default:
		data, err := os.ReadFile(name)
		return data, errors.Wrapf(err, "failed to read file %q", name)
	}
}

func readDocument(cmd *cobra.Command, name string) (document.Document, error) {
	data, err := readInput(cmd, name)
	if err != nil {
		return document.Document{}, err
	}
	doc, err := document.Unmarshal(data)
	if err != nil {
		return document.Document{}, errors.Wrapf(err, "failed to load document %q", name)
	}
	return doc, nil
}

// writeOutput writes data to path, or to the command output when path
// is empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return errors.Wrap(err, "failed to write result")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WithStack(err)
		}
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "failed to write %q", path)
}

func editorOptions() editor.Options {
	policy := identity.FreshPolicy
	if cfg.MarkupPreserveIDs {
		policy = identity.PreservePolicy
	}

	opts := editor.Options{
		Logger:   log.Get(),
		Identity: policy,
		EmitIDs:  cfg.MarkupEmitIDs,
		Minify:   cfg.MarkupMinify,
		Sanitize: cfg.MarkupSanitize,
	}

	if codec, err := richtext.NewCachedCodec(richtext.New(), richtext.DefaultCacheSize); err == nil {
		opts.RichText = codec
	}

	return opts
}

// boolFlag returns the flag value when it was set, otherwise def.
func boolFlag(cmd *cobra.Command, name string, def bool) bool {
	if !cmd.Flags().Changed(name) {
		return def
	}
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return def
	}
	return v
}
