// Package cmd implements the denizen command line interface.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/creativechannel/denizen/internal"
	"github.com/creativechannel/denizen/internal/cmd/cliopts"
	"github.com/creativechannel/denizen/internal/logging"
)

// Run the main CLI command with the given args. The args should not contain
// the name of the binary (ex: os.Args[1:]).
func Run(args ...string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := NewRootCmd()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func NewRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:               "denizen",
		Short:             "DeniZEN signed-request API server",
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := cliopts.DefaultsFromEnv("DENIZEN", cmd.Flags()); err != nil {
				return err
			}
			return logging.SetLevel(logLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(
		newServerCmd(),
		newVersionCmd(),
	)

	rootCmd.PersistentFlags().Bool("help", false, "Display help")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Show logs when running the command [error, warn, info, debug]")
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display the version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Println(internal.FullVersion())
			return nil
		},
	}
}

// parseOptions loads the command options in precedence order: defaults, then
// the config file, then environment variables, then command line flags.
func parseOptions(cmd *cobra.Command, options interface{}, envPrefix string) error {
	filename, err := cmd.Flags().GetString("config-file")
	if err != nil {
		return err
	}

	return cliopts.Load(options, cliopts.Options{
		Filename:  filename,
		EnvPrefix: envPrefix,
		Flags:     cmd.Flags(),
	})
}
