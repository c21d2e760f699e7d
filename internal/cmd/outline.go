package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stateful/pageblocks/pkg/document"
	"github.com/stateful/pageblocks/pkg/richtext"
)

const summaryWidth = 48

func outlineCmd() *cobra.Command {
	var showIDs bool

	cmd := cobra.Command{
		Use:   "outline [file|-]",
		Short: "Print the block tree of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}

			w := &outlineWriter{out: cmd.OutOrStdout(), showIDs: showIDs}
			for i, b := range doc.Blocks {
				w.block(0, i, b)
			}
			return errors.WithStack(w.err)
		},
	}

	cmd.Flags().BoolVar(&showIDs, "ids", false, "Print block ids.")

	return &cmd
}

type outlineWriter struct {
	out     io.Writer
	showIDs bool
	err     error
}

var (
	kindColor   = color.New(color.FgCyan, color.Bold)
	columnColor = color.New(color.FgYellow)
	idColor     = color.New(color.Faint)
)

func (w *outlineWriter) printf(depth int, format string, args ...any) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.out, strings.Repeat("  ", depth)+format+"\n", args...)
}

func (w *outlineWriter) block(depth, index int, b document.Block) {
	line := fmt.Sprintf("%d. %s %s", index+1, kindColor.Sprint(b.Kind), summary(b))
	if w.showIDs {
		line += " " + idColor.Sprint(b.ID)
	}
	w.printf(depth, "%s", strings.TrimRight(line, " "))

	cols, ok := b.Columns()
	if !ok {
		return
	}
	for ci, col := range cols.Columns {
		w.printf(depth+1, "%s", columnColor.Sprintf("column %d", ci+1))
		for i, nested := range col {
			w.block(depth+2, i, nested)
		}
	}
}

func summary(b document.Block) string {
	switch d := b.Data.(type) {
	case document.TextData:
		text, err := richtext.PlainText(d.Content)
		if err != nil {
			return "(unreadable)"
		}
		return quote(text)
	case document.ImageData:
		if d.Alt != "" {
			return fmt.Sprintf("%s %s", d.Src, quote(d.Alt))
		}
		return d.Src
	case document.ButtonData:
		return fmt.Sprintf("%s -> %s (%s)", quote(d.Text), d.URL, d.EffectiveVariant())
	case document.CodeData:
		lang := d.Language
		if lang == "" {
			lang = "plain"
		}
		if d.Inline {
			lang += ", inline"
		}
		return fmt.Sprintf("[%s] %s", lang, quote(d.Code))
	case document.ColumnsData:
		return fmt.Sprintf("%d columns, gap %dpx", d.ColumnCount, d.EffectiveGap())
	default:
		return ""
	}
}

// quote returns the first line of s, shortened to summaryWidth runes.
func quote(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	if r := []rune(line); len(r) > summaryWidth {
		line = string(r[:summaryWidth-1]) + "…"
	}
	return fmt.Sprintf("%q", line)
}
