package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/gear6io/chnative/pkg/sdk"
)

var execCmd = &cobra.Command{
	Use:   "exec [statement]",
	Short: "Run a statement that produces no result",
	Long: `Run DDL or another statement whose result is discarded, surfacing the
server exception on failure.

Examples:
  chnative exec "CREATE TABLE words (id UInt64, name String) ENGINE = Memory"
  chnative exec "DROP TABLE words"`,
	Args: cobra.ExactArgs(1),
	RunE: runExec,
}

func runExec(cmd *cobra.Command, args []string) error {
	log := newLogger()
	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	start := time.Now()
	if err := client.Exec(cmd.Context(), args[0]); err != nil {
		if exc, ok := sdk.AsException(err); ok {
			log.Error().
				Int32("code", exc.Code).
				Str("name", exc.Name).
				Msg(exc.Message)
		}
		return err
	}
	log.Info().Dur("elapsed", time.Since(start)).Msg("statement finished")
	return nil
}

func init() {
	rootCmd.AddCommand(execCmd)
}
