package batch

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// sampleRunes is the transcript preview length.
const sampleRunes = 100

// Summary is the per-row report.
type Summary struct {
	Row                int                `json:"row"`
	Label              string             `json:"label"`
	Reason             string             `json:"reason"`
	Explanation        string             `json:"explanation"`
	FinalScore         int                `json:"final_score"`
	Sentiment          int                `json:"sentiment"`
	SentimentCompound  float64            `json:"sentiment_compound"`
	SentimentBreakdown map[string]float64 `json:"sentiment_breakdown"`
	SampleText         string             `json:"sample_text"`
}

// Summarize reduces a row to its report columns.
func (r Row) Summarize() Summary {
	d := r.Result.Debug
	return Summary{
		Row:                r.Row,
		Label:              string(r.Result.Label),
		Reason:             string(d.LabelReason),
		Explanation:        r.Result.Explanation,
		FinalScore:         d.FinalScore,
		Sentiment:          d.Sentiment,
		SentimentCompound:  d.SentimentCompound,
		SentimentBreakdown: d.SentimentBreakdown,
		SampleText:         sample(r.Text),
	}
}

func sample(text string) string {
	runes := []rune(text)
	if len(runes) > sampleRunes {
		runes = runes[:sampleRunes]
	}
	return string(runes)
}

// WriteTable prints rows as an aligned text table.
func WriteTable(w io.Writer, rows []Row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "row\tlabel\treason\tfinal_score\tsentiment\tsentiment_compound\tsentiment_breakdown\tsample_text")
	for _, row := range rows {
		s := row.Summarize()
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%.4f\t%v\t%s\n",
			s.Row, s.Label, s.Reason, s.FinalScore, s.Sentiment,
			s.SentimentCompound, s.SentimentBreakdown, flatten(s.SampleText))
	}
	return tw.Flush()
}

// WriteJSON prints rows as an indented JSON array.
func WriteJSON(w io.Writer, rows []Row) error {
	out := make([]Summary, len(rows))
	for i, row := range rows {
		out[i] = row.Summarize()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// flatten keeps a preview on one table line.
func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
