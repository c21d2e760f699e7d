package cmd

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stateful/pageblocks/internal/log"
	"github.com/stateful/pageblocks/pkg/document"
	"github.com/stateful/pageblocks/pkg/document/edit"
	"github.com/stateful/pageblocks/pkg/media"
	"github.com/stateful/pageblocks/pkg/session"
)

func addImageCmd() *cobra.Command {
	var (
		index  int
		output string
	)

	cmd := cobra.Command{
		Use:   "add-image [document] [image]",
		Short: "Store an image and add an image block for it",
		Long: `Store an image and add an image block for it.

The image is copied to media.dir and referenced under media.base_url.
The document is written back in place unless --output is set.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			docPath, imagePath := args[0], args[1]
			logger := log.Get()

			data, err := os.ReadFile(docPath)
			if err != nil {
				return errors.Wrapf(err, "failed to read file %q", docPath)
			}

			sess := session.New(
				session.WithLogger(logger),
				session.WithHistoryLimit(cfg.SessionHistoryLimit),
				session.WithEditorOptions(editorOptions()),
			)
			if err := sess.Load(cmd.Context(), data); err != nil {
				return errors.Wrapf(err, "failed to load document %q", docPath)
			}

			f, err := os.Open(imagePath)
			if err != nil {
				return errors.Wrapf(err, "failed to open image %q", imagePath)
			}
			defer func() { _ = f.Close() }()

			uploader := media.NewLocalUploader(cfg.MediaDir, cfg.MediaBaseURL, cfg.MediaMaxBytes, logger)

			doc, err := sess.AddUploadedImage(cmd.Context(), uploader, imagePath, f, index)
			if err != nil {
				return err
			}

			logger.Debug("added image block", zap.String("document", docPath), zap.Int("blocks", doc.Len()))

			result, err := document.Marshal(doc)
			if err != nil {
				return err
			}

			path := output
			if path == "" {
				path = docPath
			}
			return writeOutput(cmd, path, append(result, '\n'))
		},
	}

	cmd.Flags().IntVar(&index, "index", edit.Append, "Position of the new block. Negative appends.")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the document to a file instead of updating it in place.")

	return &cmd
}
