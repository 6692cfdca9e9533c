// Package cli implements the surfpool command.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gogpu/surfacepool"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
}

// NewRootCommand builds the surfpool command tree.
func NewRootCommand(version string) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "surfpool",
		Short:         "GPU surface pool simulator",
		Long:          "surfpool drives surface pools through frame scenarios on a wgpu HAL backend and reports their statistics.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return configureLogging(cmd.ErrOrStderr(), opts.logLevel)
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "JSON or YAML configuration file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (default: silent)")

	root.AddCommand(newSimulateCommand(opts))
	root.AddCommand(newVersionCommand(version))
	return root
}

// Execute runs the root command with args.
func Execute(ctx context.Context, version string, args []string) error {
	root := NewRootCommand(version)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// configureLogging installs a text logger on w at level, or keeps logging
// silent when level is empty.
func configureLogging(w io.Writer, level string) error {
	if level == "" {
		surfacepool.SetLogger(nil)
		return nil
	}

	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	surfacepool.SetLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})))
	return nil
}

func newVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "surfpool %s\n", version)
			return err
		},
	}
}
