package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stateful/pageblocks/pkg/document"
	"github.com/stateful/pageblocks/pkg/document/editor"
)

func renderCmd() *cobra.Command {
	var output string

	cmd := cobra.Command{
		Use:   "render [file|-]",
		Short: "Render a document as HTML markup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			if err := document.Validate(doc); err != nil {
				return errors.Wrap(err, "invalid document")
			}

			opts := editorOptions()
			opts.Minify = boolFlag(cmd, "minify", opts.Minify)
			opts.EmitIDs = boolFlag(cmd, "emit-ids", opts.EmitIDs)

			markup, err := editor.Serialize(doc, opts)
			if err != nil {
				return errors.Wrap(err, "failed to serialize document")
			}
			if len(markup) > 0 {
				markup = append(markup, '\n')
			}

			return writeOutput(cmd, output, markup)
		},
	}

	cmd.Flags().Bool("minify", false, "Minify the markup. Overrides markup.minify.")
	cmd.Flags().Bool("emit-ids", false, "Write data-block-id attributes. Overrides markup.emit_ids.")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the markup to a file instead of stdout.")

	return &cmd
}
