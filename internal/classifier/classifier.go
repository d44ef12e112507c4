// Package classifier labels a call transcript as a Success or a Failure.
//
// The score combines lexicon hits, the sentiment polarity and a few call
// heuristics. The label itself follows a fixed precedence: any completion
// phrase wins, then any partial-success phrase, and only when neither is
// present does the numeric score decide.
package classifier

import (
	"strings"

	"call-outcome-service/internal/lexicon"
	"call-outcome-service/internal/sentiment"
)

// Label is the call outcome.
type Label string

const (
	LabelSuccess Label = "Success"
	LabelFailure Label = "Failure"
)

// Reason is the rule that decided the label.
type Reason string

const (
	ReasonCompletion Reason = "completion"
	ReasonPartial    Reason = "partial"
	ReasonScore      Reason = "score"
	ReasonFailure    Reason = "failure"
)

// Describe returns a short human-readable explanation of the reason.
func (r Reason) Describe() string {
	switch r {
	case ReasonCompletion:
		return "a completion phrase was found"
	case ReasonPartial:
		return "a partial-success phrase was found"
	case ReasonScore:
		return "no outcome phrase was found and the heuristic score was positive"
	case ReasonFailure:
		return "no outcome phrase was found and the heuristic score was not positive"
	default:
		return string(r)
	}
}

// Scoring weights and thresholds.
const (
	CompletionWeight       = 3
	PartialWeight          = 1
	FailureWeight          = -3
	MisunderstandThreshold = 3
	MisunderstandPenalty   = -2
	GoodbyeBonus           = 1
	ShortCallSeconds       = 15
	ShortCallPenalty       = -2
	SuccessScoreThreshold  = 1
)

// Debug is the full explanation of one classification. Field names are part
// of the output contract.
type Debug struct {
	CompletionHits         int                `json:"completion_hits"`
	PartialHits            int                `json:"partial_hits"`
	FailureHits            int                `json:"failure_hits"`
	MisunderstandCount     int                `json:"misunderstand_count"`
	Sentiment              int                `json:"sentiment"`
	SentimentCompound      float64            `json:"sentiment_compound"`
	SentimentBreakdown     map[string]float64 `json:"sentiment_breakdown"`
	GoodbyeHits            int                `json:"goodbye_hits"`
	DurationPenaltyApplied int                `json:"duration_penalty_applied"`
	FinalScore             int                `json:"final_score"`
	LabelReason            Reason             `json:"label_reason"`
}

// Step is one scoring contribution, recorded in evaluation order.
type Step struct {
	Signal string `json:"signal"`
	Points int    `json:"points"`
}

// Result is the classifier output.
type Result struct {
	Label       Label  `json:"label"`
	Reason      Reason `json:"reason"`
	Explanation string `json:"explanation"`
	Score       int    `json:"finalScore"`
	Debug       Debug  `json:"debug"`
	Trace       []Step `json:"trace"`
}

// Classifier scores transcripts against a lexicon and a sentiment analyzer.
// It holds no mutable state.
type Classifier struct {
	lexicon  *lexicon.Lexicon
	analyzer sentiment.Analyzer
}

// New returns a Classifier using analyzer for the sentiment signal and the
// built-in lexicon. The analyzer must already be provisioned.
func New(analyzer sentiment.Analyzer) *Classifier {
	return &Classifier{
		lexicon:  lexicon.Default(),
		analyzer: analyzer,
	}
}

// Lexicon returns the lexicon in use.
func (c *Classifier) Lexicon() *lexicon.Lexicon {
	return c.lexicon
}

// Classify labels text. durationSeconds is nil when the call length is unknown.
func (c *Classifier) Classify(text string, durationSeconds *int) Result {
	t := strings.TrimSpace(text)

	comp := c.lexicon.Completion.Presence(t)
	partial := c.lexicon.PartialSuccess.Presence(t)
	fail := c.lexicon.Failure.Presence(t)
	misunderstand := c.lexicon.Misunderstanding.Occurrences(t)
	senti := sentiment.Evaluate(c.analyzer, t)
	goodbye := c.lexicon.Goodbye.Presence(t)

	var (
		score int
		trace = make([]Step, 0, 7)
	)
	add := func(signal string, points int) {
		score += points
		trace = append(trace, Step{Signal: signal, Points: points})
	}

	add("completion", CompletionWeight*comp)
	add("partial", PartialWeight*partial)
	add("failure", FailureWeight*fail)
	if misunderstand >= MisunderstandThreshold {
		add("misunderstanding", MisunderstandPenalty)
	} else {
		add("misunderstanding", 0)
	}
	add("sentiment", senti.Polarity)
	if goodbye > 0 {
		add("goodbye", GoodbyeBonus)
	} else {
		add("goodbye", 0)
	}

	durationPenalty := durationSeconds != nil && *durationSeconds < ShortCallSeconds && comp == 0 && partial == 0
	if durationPenalty {
		add("duration", ShortCallPenalty)
	} else {
		add("duration", 0)
	}

	label, reason := decide(comp, partial, score)

	return Result{
		Label:       label,
		Reason:      reason,
		Explanation: reason.Describe(),
		Score:       score,
		Trace:       trace,
		Debug: Debug{
			CompletionHits:         comp,
			PartialHits:            partial,
			FailureHits:            fail,
			MisunderstandCount:     misunderstand,
			Sentiment:              senti.Polarity,
			SentimentCompound:      senti.Compound,
			SentimentBreakdown:     senti.Breakdown,
			GoodbyeHits:            goodbye,
			DurationPenaltyApplied: boolToInt(durationPenalty),
			FinalScore:             score,
			LabelReason:            reason,
		},
	}
}

// decide applies the label precedence. Phrase hits win over the score even
// when the score is negative.
func decide(comp, partial, score int) (Label, Reason) {
	switch {
	case comp > 0:
		return LabelSuccess, ReasonCompletion
	case partial > 0:
		return LabelSuccess, ReasonPartial
	case score >= SuccessScoreThreshold:
		return LabelSuccess, ReasonScore
	default:
		return LabelFailure, ReasonFailure
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
