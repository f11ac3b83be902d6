package cli

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gear6io/chnative/pkg/sdk"
)

var rootCmd = &cobra.Command{
	Use:   "chnative",
	Short: "ClickHouse native-protocol client",
	Long: `chnative speaks the ClickHouse native TCP protocol directly: columnar
blocks, checksummed compression frames and revision-gated handshakes,
without going through the HTTP interface.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

type rootOptions struct {
	dsn     string
	config  string
	verbose bool
}

var rootOpts = &rootOptions{}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if rootOpts.verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()
}

// newClient builds a client from the config file when given, else from
// the DSN flag.
func newClient() (*sdk.Client, error) {
	if rootOpts.config != "" {
		opt, err := sdk.LoadConfig(rootOpts.config)
		if err != nil {
			return nil, err
		}
		return sdk.Open(opt)
	}
	return sdk.OpenDSN(rootOpts.dsn)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootOpts.dsn, "dsn", "clickhouse://localhost:9000", "server connection string")
	rootCmd.PersistentFlags().StringVar(&rootOpts.config, "config", "", "path to a YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&rootOpts.verbose, "verbose", "v", false, "verbose output")
}
