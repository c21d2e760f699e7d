package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stateful/pageblocks/pkg/document/editor"
)

func fmtCmd() *cobra.Command {
	var write bool

	cmd := cobra.Command{
		Use:   "fmt [file|-]",
		Short: "Format HTML markup into canonical block markup",
		Long: `Format HTML markup into canonical block markup.

The markup is parsed into blocks and rendered again. Anything that is not
recognized as a block becomes a paragraph.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if write && name == stdinName {
				return errors.New("--write cannot be used with stdin")
			}

			data, err := readInput(cmd, name)
			if err != nil {
				return err
			}

			opts := editorOptions()

			doc, err := editor.Deserialize(data, opts)
			if err != nil {
				return errors.Wrap(err, "failed to deserialize source")
			}
			result, err := editor.Serialize(doc, opts)
			if err != nil {
				return errors.Wrap(err, "failed to serialize blocks")
			}
			if len(result) > 0 {
				result = append(result, '\n')
			}

			var path string
			if write {
				path = name
			}
			return writeOutput(cmd, path, result)
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the result back to the source file.")

	return &cmd
}
