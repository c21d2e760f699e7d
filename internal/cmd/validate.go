package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/stateful/pageblocks/pkg/document"
)

var errInvalidDocument = errors.New("document is invalid")

func validateCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "validate [file|-]",
		Short: "Check a document against the block invariants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}

			violations := multierr.Errors(document.Validate(doc))
			if len(violations) == 0 {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %d blocks\n", color.GreenString("ok"), countBlocks(doc))
				return errors.WithStack(err)
			}

			for _, v := range violations {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.RedString("error"), v)
			}

			return errors.Wrapf(errInvalidDocument, "%d violations", len(violations))
		},
	}

	return &cmd
}

func countBlocks(doc document.Document) int {
	var n int
	doc.Walk(func(document.Block, *document.Block, int) bool {
		n++
		return true
	})
	return n
}
