// Package sentiment provides the polarity signal used by the call classifier.
//
// The default Analyzer is VADER (via govader). Its lexicon is provisioned once
// per process with Provision; after that the analyzer only reads shared data
// and is safe for concurrent use.
package sentiment

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jonreiter/govader"
	"github.com/rs/zerolog/log"
)

// Polarity thresholds on the compound score.
const (
	PositiveThreshold = 0.05
	NegativeThreshold = -0.05
)

// Breakdown keys, as VADER names them.
const (
	KeyNegative = "neg"
	KeyNeutral  = "neu"
	KeyPositive = "pos"
	KeyCompound = "compound"
)

// ErrLexiconUnavailable is returned when the sentiment lexicon cannot be provisioned.
var ErrLexiconUnavailable = errors.New("sentiment lexicon unavailable")

// Scores is the raw output of an Analyzer.
type Scores struct {
	Compound  float64
	Breakdown map[string]float64
}

// Analyzer scores the sentiment of a text.
type Analyzer interface {
	PolarityScores(text string) Scores
}

// Result is the sentiment signal for one transcript.
type Result struct {
	Polarity  int                `json:"polarity"`
	Compound  float64            `json:"compound"`
	Breakdown map[string]float64 `json:"breakdown"`
}

// Evaluate scores text with a and derives the polarity class. Empty text
// scores neutral with an empty breakdown and the analyzer is not invoked.
func Evaluate(a Analyzer, text string) Result {
	if text == "" || a == nil {
		return Result{Breakdown: map[string]float64{}}
	}

	scores := a.PolarityScores(text)
	breakdown := scores.Breakdown
	if breakdown == nil {
		breakdown = map[string]float64{}
	}

	return Result{
		Polarity:  PolarityOf(scores.Compound),
		Compound:  scores.Compound,
		Breakdown: breakdown,
	}
}

// PolarityOf maps a compound score to -1, 0 or +1.
func PolarityOf(compound float64) int {
	switch {
	case compound > PositiveThreshold:
		return 1
	case compound < NegativeThreshold:
		return -1
	default:
		return 0
	}
}

// Vader implements Analyzer with the VADER lexicon.
type Vader struct {
	sia *govader.SentimentIntensityAnalyzer
}

var (
	provisionOnce sync.Once
	provisioned   *Vader
	provisionErr  error
)

// Provision loads the VADER lexicon and verifies it scores known probes with
// the expected sign. It runs at most once per process; later calls return the
// same analyzer and error.
func Provision() (*Vader, error) {
	provisionOnce.Do(func() {
		provisioned, provisionErr = newVader()
		if provisionErr != nil {
			log.Error().Err(provisionErr).Str("component", "sentiment").Msg("Sentiment lexicon provisioning failed")
			return
		}
		log.Info().Str("component", "sentiment").Msg("Sentiment lexicon provisioned")
	})
	return provisioned, provisionErr
}

func newVader() (*Vader, error) {
	sia := govader.NewSentimentIntensityAnalyzer()
	if sia == nil {
		return nil, fmt.Errorf("%w: analyzer construction returned nil", ErrLexiconUnavailable)
	}
	v := &Vader{sia: sia}

	if c := v.PolarityScores("This is great.").Compound; c <= 0 {
		return nil, fmt.Errorf("%w: positive probe scored %.4f", ErrLexiconUnavailable, c)
	}
	if c := v.PolarityScores("This is terrible.").Compound; c >= 0 {
		return nil, fmt.Errorf("%w: negative probe scored %.4f", ErrLexiconUnavailable, c)
	}
	return v, nil
}

// Ready reports whether the analyzer has a loaded lexicon.
func (v *Vader) Ready() bool {
	return v != nil && v.sia != nil
}

// PolarityScores implements Analyzer. An unprovisioned Vader scores neutral.
func (v *Vader) PolarityScores(text string) Scores {
	if !v.Ready() {
		return Scores{Breakdown: map[string]float64{}}
	}

	s := v.sia.PolarityScores(text)
	return Scores{
		Compound: s.Compound,
		Breakdown: map[string]float64{
			KeyNegative: s.Negative,
			KeyNeutral:  s.Neutral,
			KeyPositive: s.Positive,
			KeyCompound: s.Compound,
		},
	}
}

// Func adapts a plain function to Analyzer.
type Func func(text string) Scores

// PolarityScores implements Analyzer.
func (f Func) PolarityScores(text string) Scores {
	return f(text)
}
