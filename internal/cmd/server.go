package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/creativechannel/denizen/internal/logging"
	"github.com/creativechannel/denizen/internal/server"
)

func newServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the DeniZEN API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.UseServerLogger()

			options := defaultServerOptions()
			if err := parseOptions(cmd, &options, "DENIZEN_SERVER"); err != nil {
				return err
			}

			srv, err := server.New(options)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			return runServer(cmd.Context(), srv)
		},
	}

	cmd.Flags().StringP("config-file", "f", "", "Server configuration file")
	cmd.Flags().String("addr-http", ":80", "HTTP listen address")
	cmd.Flags().String("addr-metrics", ":9090", "Metrics listen address")
	cmd.Flags().String("db-file", "denizen.db", "Path to SQLite 3 database")
	cmd.Flags().String("db-connection-string", "", "Postgres connection string, takes precedence over db-file")
	cmd.Flags().String("cache-host", "", "Redis host for nonce and session storage")
	cmd.Flags().Int("cache-port", 6379, "Redis port")
	cmd.Flags().String("cache-username", "", "Redis username")
	cmd.Flags().String("cache-password", "", "Redis password (secret)")
	cmd.Flags().Duration("session-duration", 24*time.Hour, "Member session duration")
	cmd.Flags().String("session-hash-salt", "", "Salt mixed into derived session ids (secret)")
	cmd.Flags().Int("session-segment-length", 0, "Length of the host segment of session ids")
	cmd.Flags().String("host-name", "", "Server host name used in session id derivation")
	cmd.Flags().Bool("enable-log-sampling", true, "Sample repetitive request logs")

	return cmd
}

func defaultServerOptions() server.Options {
	return server.Options{
		SessionDuration: 24 * time.Hour,
		API: server.APIOptions{
			RequestTimeout: time.Minute,
		},
		Addr: server.ListenerOptions{
			HTTP:    ":80",
			Metrics: ":9090",
		},
	}
}

// shim for testing
var runServer = func(ctx context.Context, srv *server.Server) error {
	return srv.Run(ctx)
}
