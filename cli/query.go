package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query [statement]",
	Short: "Run a statement and stream its result",
	Long: `Run a SELECT (or any result-producing statement) and stream the rows
to stdout.

Examples:
  chnative query "SELECT number FROM system.numbers LIMIT 10"
  chnative query --format json "SELECT name, engine FROM system.tables"`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

type queryOptions struct {
	format  string
	maxRows int
	timing  bool
}

var queryOpts = &queryOptions{}

func runQuery(cmd *cobra.Command, args []string) error {
	log := newLogger()
	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	start := time.Now()
	rows, err := client.Query(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	defer rows.Close()

	columns := rows.Columns()
	values := make([]interface{}, len(columns))
	dest := make([]interface{}, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	var emit func(row []interface{}) error
	var flush func() error
	switch queryOpts.format {
	case "csv":
		w := csv.NewWriter(os.Stdout)
		if err := w.Write(columns); err != nil {
			return err
		}
		emit = func(row []interface{}) error {
			record := make([]string, len(row))
			for i, v := range row {
				record[i] = fmt.Sprint(v)
			}
			return w.Write(record)
		}
		flush = func() error {
			w.Flush()
			return w.Error()
		}
	case "json":
		enc := json.NewEncoder(os.Stdout)
		emit = func(row []interface{}) error {
			obj := make(map[string]interface{}, len(row))
			for i, v := range row {
				obj[columns[i]] = v
			}
			return enc.Encode(obj)
		}
		flush = func() error { return nil }
	default:
		return fmt.Errorf("unknown format %q, want csv or json", queryOpts.format)
	}

	count := 0
	for rows.Next() {
		if queryOpts.maxRows > 0 && count >= queryOpts.maxRows {
			log.Warn().Int("max_rows", queryOpts.maxRows).Msg("truncating output")
			break
		}
		if err := rows.Scan(dest...); err != nil {
			return err
		}
		if err := emit(values); err != nil {
			return err
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if err := flush(); err != nil {
		return err
	}
	if queryOpts.timing {
		log.Info().Int("rows", count).Dur("elapsed", time.Since(start)).Msg("query finished")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVar(&queryOpts.format, "format", "csv", "output format: csv, json")
	queryCmd.Flags().IntVar(&queryOpts.maxRows, "max-rows", 0, "stop after this many rows (0 = unlimited)")
	queryCmd.Flags().BoolVar(&queryOpts.timing, "timing", true, "log row count and elapsed time")
}
