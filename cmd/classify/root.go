package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"call-outcome-service/internal/classifier"
	"call-outcome-service/internal/observability/logging"
	"call-outcome-service/internal/sentiment"
)

var rootCmd = &cobra.Command{
	Use:   "classify",
	Short: "Label call transcripts as Success or Failure",
	Long:  "classify scores call transcripts with the same lexicon, sentiment and call heuristics as the outcome service.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetString("log-level")
		logging.Init(logging.Config{
			Level:  level,
			Format: "console",
			Output: os.Stderr,
		})
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(fileCmd)
	rootCmd.AddCommand(textCmd)
}

// newClassifier provisions the sentiment lexicon. Without it no transcript
// can be scored, so the error is returned to the caller.
func newClassifier() (*classifier.Classifier, error) {
	analyzer, err := sentiment.Provision()
	if err != nil {
		return nil, err
	}
	log.Debug().Msg("Sentiment lexicon provisioned")
	return classifier.New(analyzer), nil
}
