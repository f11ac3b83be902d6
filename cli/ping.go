package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the server answers on the native protocol",
	Args:  cobra.NoArgs,
	RunE:  runPing,
}

var pingTimeout time.Duration

func runPing(cmd *cobra.Command, _ []string) error {
	log := newLogger()
	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), pingTimeout)
	defer cancel()

	start := time.Now()
	if err := client.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("ping failed")
		return err
	}
	version, err := client.ServerVersion(ctx)
	if err != nil {
		return err
	}
	log.Info().
		Str("server", version.String()).
		Str("timezone", version.Timezone).
		Dur("rtt", time.Since(start)).
		Msg("pong")
	return nil
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().DurationVar(&pingTimeout, "timeout", 10*time.Second, "overall ping deadline")
}
