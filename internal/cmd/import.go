package cmd

import (
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stateful/pageblocks/internal/log"
	"github.com/stateful/pageblocks/pkg/document"
	"github.com/stateful/pageblocks/pkg/document/editor"
)

func importCmd() *cobra.Command {
	var outDir string

	cmd := cobra.Command{
		Use:   "import [files...|-]",
		Short: "Convert HTML markup into documents",
		Long: `Convert HTML markup into documents.

A single input is written to stdout unless --out-dir is set. With several
inputs, each document is written to <out-dir>/<name>.json.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 && outDir == "" {
				return errors.New("--out-dir is required for multiple inputs")
			}

			opts := editorOptions()
			opts.Sanitize = boolFlag(cmd, "sanitize", opts.Sanitize)

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(runtime.NumCPU())

			for _, name := range args {
				name := name
				g.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}

					data, err := importFile(cmd, name, opts)
					if err != nil {
						return err
					}

					var path string
					if outDir != "" {
						path = filepath.Join(outDir, documentName(name))
					}

					log.Get().Debug("imported markup", zap.String("input", name), zap.String("output", path))

					return writeOutput(cmd, path, data)
				})
			}

			return g.Wait()
		},
	}

	cmd.Flags().Bool("sanitize", false, "Strip unsafe markup before parsing. Overrides markup.sanitize.")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Directory for the converted documents.")

	return &cmd
}

func importFile(cmd *cobra.Command, name string, opts editor.Options) ([]byte, error) {
	markup, err := readInput(cmd, name)
	if err != nil {
		return nil, err
	}

	doc, err := editor.Deserialize(markup, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to deserialize %q", name)
	}

	data, err := document.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// documentName maps an input name to its output file name.
func documentName(name string) string {
	if name == stdinName {
		return "stdin.json"
	}
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".json"
}
