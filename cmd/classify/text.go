package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var textCmd = &cobra.Command{
	Use:   "text <transcript>",
	Short: "Classify a single transcript and print the full explanation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var duration *int
		if cmd.Flags().Changed("duration") {
			d, _ := cmd.Flags().GetInt("duration")
			duration = &d
		}

		c, err := newClassifier()
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(c.Classify(args[0], duration))
	},
}

func init() {
	textCmd.Flags().Int("duration", 0, "Call length in seconds (omit when unknown)")
}
