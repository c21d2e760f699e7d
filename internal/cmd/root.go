package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stateful/pageblocks/internal/config"
	"github.com/stateful/pageblocks/internal/log"
)

const defaultConfigFile = "pageblocks.yaml"

var (
	fConfig     string
	fLogVerbose bool

	// cfg is set before any subcommand runs.
	cfg *config.Config
)

func Root() *cobra.Command {
	cmd := cobra.Command{
		Use:           "pageblocks",
		Short:         "Convert and edit block documents",
		Long:          "Convert block documents to and from HTML markup, and inspect or edit them.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadConfig(cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			cfg = loaded

			return log.Set(log.Options{
				Enabled: cfg.LogEnabled,
				Path:    cfg.LogPath,
				Verbose: cfg.LogVerbose || fLogVerbose,
			})
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			log.Flush()
		},
	}

	pflags := cmd.PersistentFlags()

	pflags.StringVar(&fConfig, "config", defaultConfigFile, "Path to the configuration file.")
	pflags.BoolVar(&fLogVerbose, "log-verbose", false, "Write debug logs to stderr.")

	cmd.AddCommand(renderCmd())
	cmd.AddCommand(importCmd())
	cmd.AddCommand(fmtCmd())
	cmd.AddCommand(validateCmd())
	cmd.AddCommand(outlineCmd())
	cmd.AddCommand(addImageCmd())

	return &cmd
}

// loadConfig reads fConfig. A missing file is an error only when it
// was named explicitly.
func loadConfig(explicit bool) (*config.Config, error) {
	dir, file := filepath.Split(fConfig)
	if dir == "" {
		dir = "."
	}
	ext := filepath.Ext(file)

	if explicit {
		if _, err := os.Stat(fConfig); err != nil {
			return nil, errors.Wrapf(err, "failed to read config %q", fConfig)
		}
	}

	loader := config.NewLoader(
		strings.TrimSuffix(file, ext),
		strings.TrimPrefix(ext, "."),
		os.DirFS(dir),
		config.WithLogger(log.Get()),
	)
	return loader.Load()
}
