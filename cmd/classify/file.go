package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"call-outcome-service/internal/batch"
)

var fileCmd = &cobra.Command{
	Use:   "file <path.csv>",
	Short: "Classify every transcript in a CSV export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		workers, _ := cmd.Flags().GetInt("workers")
		format, _ := cmd.Flags().GetString("format")

		if format != "table" && format != "json" {
			return fmt.Errorf("unknown format %q, use table or json", format)
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		records, err := batch.Load(f, limit)
		if err != nil {
			return fmt.Errorf("load %s: %w", args[0], err)
		}
		log.Info().Int("rows", len(records)).Str("path", args[0]).Msg("Transcripts loaded")

		c, err := newClassifier()
		if err != nil {
			return err
		}

		rows, err := batch.Run(cmd.Context(), c, records, workers)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if format == "json" {
			return batch.WriteJSON(out, rows)
		}
		return batch.WriteTable(out, rows)
	},
}

func init() {
	fileCmd.Flags().Int("limit", 0, "Classify only the first N rows (0 = all)")
	fileCmd.Flags().Int("workers", 0, "Concurrent workers (0 = GOMAXPROCS)")
	fileCmd.Flags().String("format", "table", "Output format (table or json)")
}
