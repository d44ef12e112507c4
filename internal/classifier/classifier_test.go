package classifier

import (
	"encoding/json"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-outcome-service/internal/sentiment"
)

func fixedSentiment(compound float64) sentiment.Analyzer {
	return sentiment.Func(func(string) sentiment.Scores {
		return sentiment.Scores{
			Compound:  compound,
			Breakdown: map[string]float64{sentiment.KeyCompound: compound},
		}
	})
}

func seconds(n int) *int {
	return &n
}

func TestClassify_Scenarios(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		duration   *int
		compound   float64
		wantLabel  Label
		wantReason Reason
		wantScore  int
		check      func(t *testing.T, d Debug)
	}{
		{
			name:       "failure phrase",
			text:       "We could not find any availability today.",
			compound:   0,
			wantLabel:  LabelFailure,
			wantReason: ReasonFailure,
			wantScore:  -3,
			check: func(t *testing.T, d Debug) {
				assert.Equal(t, 1, d.FailureHits)
				assert.Zero(t, d.CompletionHits)
				assert.Zero(t, d.PartialHits)
			},
		},
		{
			name:       "booked appointment with thanks",
			text:       "Great, your appointment is booked for Monday. Thank you!",
			duration:   seconds(40),
			compound:   0.8,
			wantLabel:  LabelSuccess,
			wantReason: ReasonCompletion,
			wantScore:  5,
			check: func(t *testing.T, d Debug) {
				assert.Equal(t, 1, d.CompletionHits)
				assert.Equal(t, 1, d.GoodbyeHits)
				assert.Equal(t, 1, d.Sentiment)
				assert.Zero(t, d.DurationPenaltyApplied)
			},
		},
		{
			name:       "three misunderstandings",
			text:       "Sorry, could you repeat that? I didn't catch that. Could you repeat?",
			compound:   -0.2,
			wantLabel:  LabelFailure,
			wantReason: ReasonFailure,
			wantScore:  -3,
			check: func(t *testing.T, d Debug) {
				assert.Equal(t, 3, d.MisunderstandCount)
				assert.Equal(t, -1, d.Sentiment)
			},
		},
		{
			name:       "empty short call",
			text:       "",
			duration:   seconds(5),
			compound:   0.9,
			wantLabel:  LabelFailure,
			wantReason: ReasonFailure,
			wantScore:  -2,
			check: func(t *testing.T, d Debug) {
				assert.Equal(t, 1, d.DurationPenaltyApplied)
				assert.Zero(t, d.Sentiment)
				assert.Zero(t, d.SentimentCompound)
				require.NotNil(t, d.SentimentBreakdown)
				assert.Empty(t, d.SentimentBreakdown)
			},
		},
		{
			name:       "completion wins over negative score",
			text:       "I can't do Tuesday, there is no availability, the call dropped earlier, but your appointment is confirmed.",
			compound:   -0.6,
			wantLabel:  LabelSuccess,
			wantReason: ReasonCompletion,
			wantScore:  3 - 9 - 1,
		},
		{
			name:       "partial success skips duration penalty",
			text:       "I left a voicemail for the office.",
			duration:   seconds(10),
			compound:   0,
			wantLabel:  LabelSuccess,
			wantReason: ReasonPartial,
			wantScore:  1,
			check: func(t *testing.T, d Debug) {
				assert.Zero(t, d.DurationPenaltyApplied)
			},
		},
		{
			name:       "positive score without phrases",
			text:       "Thank you so much, have a nice day.",
			compound:   0.7,
			wantLabel:  LabelSuccess,
			wantReason: ReasonScore,
			wantScore:  2,
			check: func(t *testing.T, d Debug) {
				assert.Equal(t, 2, d.GoodbyeHits)
			},
		},
		{
			name:       "negative duration takes the penalty",
			text:       "Hello?",
			duration:   seconds(-5),
			compound:   0,
			wantLabel:  LabelFailure,
			wantReason: ReasonFailure,
			wantScore:  -2,
		},
		{
			name:       "whitespace only is empty",
			text:       "  \n\t ",
			compound:   0.9,
			wantLabel:  LabelFailure,
			wantReason: ReasonFailure,
			wantScore:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(fixedSentiment(tt.compound))

			got := c.Classify(tt.text, tt.duration)

			assert.Equal(t, tt.wantLabel, got.Label)
			assert.Equal(t, tt.wantReason, got.Reason)
			assert.Equal(t, tt.wantScore, got.Score)
			assert.Equal(t, got.Score, got.Debug.FinalScore)
			assert.Equal(t, got.Reason, got.Debug.LabelReason)
			if tt.check != nil {
				tt.check(t, got.Debug)
			}
		})
	}
}

func TestClassify_MisunderstandingThreshold(t *testing.T) {
	c := New(fixedSentiment(0))

	two := c.Classify("Could you repeat? Please say that again.", nil)
	assert.Equal(t, 2, two.Debug.MisunderstandCount)
	assert.Equal(t, 0, two.Score)

	three := c.Classify("Could you repeat? Please say that again. Please rephrase.", nil)
	assert.Equal(t, 3, three.Debug.MisunderstandCount)
	assert.Equal(t, MisunderstandPenalty, three.Score)
}

func TestClassify_DurationPenaltyBoundary(t *testing.T) {
	c := New(fixedSentiment(0))

	tests := []struct {
		name     string
		duration *int
		want     int
	}{
		{"unknown", nil, 0},
		{"fourteen", seconds(14), 1},
		{"fifteen", seconds(15), 0},
		{"zero", seconds(0), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify("hello there", tt.duration)
			assert.Equal(t, tt.want, got.Debug.DurationPenaltyApplied)
		})
	}

	withCompletion := c.Classify("Your payment processed fine.", seconds(3))
	assert.Zero(t, withCompletion.Debug.DurationPenaltyApplied)
}

func TestClassify_TraceOrder(t *testing.T) {
	c := New(fixedSentiment(0.5))

	got := c.Classify("Your order placed. Goodbye", seconds(2))

	signals := make([]string, 0, len(got.Trace))
	sum := 0
	for _, s := range got.Trace {
		signals = append(signals, s.Signal)
		sum += s.Points
	}
	assert.Equal(t, []string{"completion", "partial", "failure", "misunderstanding", "sentiment", "goodbye", "duration"}, signals)
	assert.Equal(t, got.Score, sum)
}

func TestClassify_Idempotent(t *testing.T) {
	c := New(fixedSentiment(-0.3))
	text := "That didn't go through, please try again later. Bye."

	first := c.Classify(text, seconds(12))
	second := c.Classify(text, seconds(12))

	assert.Equal(t, first, second)
}

func TestDebug_JSONKeys(t *testing.T) {
	c := New(fixedSentiment(0.1))
	got := c.Classify("thank you", nil)

	raw, err := json.Marshal(got.Debug)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	assert.Equal(t, []string{
		"completion_hits",
		"duration_penalty_applied",
		"failure_hits",
		"final_score",
		"goodbye_hits",
		"label_reason",
		"misunderstand_count",
		"partial_hits",
		"sentiment",
		"sentiment_breakdown",
		"sentiment_compound",
	}, keys)
}

func TestClassify_WithVader(t *testing.T) {
	vader, err := sentiment.Provision()
	require.NoError(t, err)
	c := New(vader)

	booked := c.Classify("Great, your appointment is booked for Monday. Thank you!", seconds(40))
	assert.Equal(t, LabelSuccess, booked.Label)
	assert.Equal(t, ReasonCompletion, booked.Reason)
	assert.Equal(t, 1, booked.Debug.Sentiment)
	assert.Contains(t, booked.Debug.SentimentBreakdown, sentiment.KeyCompound)

	unavailable := c.Classify("We could not find any availability today.", nil)
	assert.Equal(t, LabelFailure, unavailable.Label)
	assert.LessOrEqual(t, unavailable.Debug.Sentiment, 0)

	confused := c.Classify("Sorry, could you repeat that? I didn't catch that. Could you repeat?", nil)
	assert.Equal(t, LabelFailure, confused.Label)
	assert.Equal(t, 3, confused.Debug.MisunderstandCount)
}

func TestClassify_ConcurrentUse(t *testing.T) {
	vader, err := sentiment.Provision()
	require.NoError(t, err)
	c := New(vader)

	text := "Thanks for calling, I have scheduled a callback for you. Have a good day."
	want := c.Classify(text, seconds(60))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, c.Classify(text, seconds(60)))
		}()
	}
	wg.Wait()
}

func TestReason_Describe(t *testing.T) {
	for _, r := range []Reason{ReasonCompletion, ReasonPartial, ReasonScore, ReasonFailure} {
		assert.NotEmpty(t, r.Describe())
	}
	assert.Equal(t, "other", Reason("other").Describe())
}

func TestClassify_ExplanationMatchesReason(t *testing.T) {
	c := New(fixedSentiment(0))

	res := c.Classify("I left a voicemail", nil)
	assert.Equal(t, ReasonPartial, res.Reason)
	assert.Equal(t, "a partial-success phrase was found", res.Explanation)

	res = c.Classify("", nil)
	assert.Equal(t, ReasonFailure.Describe(), res.Explanation)
}
