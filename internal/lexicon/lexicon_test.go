package lexicon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_SetsInScoringOrder(t *testing.T) {
	sets := Default().Sets()
	require.Len(t, sets, 5)

	want := []Category{
		CategoryCompletion,
		CategoryPartialSuccess,
		CategoryFailure,
		CategoryMisunderstanding,
		CategoryGoodbye,
	}
	for i, set := range sets {
		assert.Equal(t, want[i], set.Category())
		assert.Positive(t, set.Len())
		assert.Len(t, set.Patterns(), set.Len())
	}
}

func TestPresence(t *testing.T) {
	lex := Default()

	tests := []struct {
		name string
		set  PatternSet
		text string
		want int
	}{
		{"completion booked", lex.Completion, "Great, your appointment is booked for Monday.", 1},
		{"completion upper case", lex.Completion, "APPOINTMENT CONFIRMED", 1},
		{"completion two phrases", lex.Completion, "Payment processed and your order placed.", 2},
		{"completion substring is not a word", lex.Completion, "the reappointment booked yesterday", 0},
		{"completion leading space required", lex.Completion, "Provided the information.", 0},
		{"completion leading space present", lex.Completion, "We provided the information.", 1},
		{"partial voicemail", lex.PartialSuccess, "I left a voicemail for the doctor", 1},
		{"partial plural is not a match", lex.PartialSuccess, "we have no answers yet", 0},
		{"failure one pattern", lex.Failure, "We could not find any availability today.", 1},
		{"failure two patterns", lex.Failure, "Sorry, I can't help, there is no availability.", 2},
		{"failure repeated pattern counts once", lex.Failure, "I can't, I really can't.", 1},
		{"goodbye", lex.Goodbye, "Thank you! Have a great day.", 2},
		{"goodbye does not count bye", lex.Goodbye, "goodbye", 1},
		{"empty text", lex.Goodbye, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.set.Presence(tt.text))
		})
	}
}

func TestOccurrences(t *testing.T) {
	lex := Default()

	text := "Sorry, could you repeat that? I didn't catch that. Could you repeat?"
	assert.Equal(t, 3, lex.Misunderstanding.Occurrences(text))
	assert.Equal(t, 2, lex.Misunderstanding.Presence(text))

	assert.Equal(t, 2, lex.Goodbye.Occurrences("bye bye"))
	assert.Equal(t, 1, lex.Goodbye.Presence("bye bye"))

	assert.Equal(t, 0, lex.Misunderstanding.Occurrences("I caught that, thanks"))
}

func TestNewPatternSet_InvalidExpression(t *testing.T) {
	_, err := NewPatternSet(CategoryFailure, []string{`(unclosed`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failure")
}

func TestPatterns_ReturnsCopy(t *testing.T) {
	set := Default().Goodbye
	patterns := set.Patterns()
	patterns[0] = "mutated"

	assert.NotEqual(t, "mutated", set.Patterns()[0])
}

// Word boundaries are ASCII: a non-ASCII letter counts as a non-word rune,
// and case folding uses Unicode simple folds only. Transcripts are English.
func TestPatternSet_ASCIIWordBoundaries(t *testing.T) {
	lex := Default()

	assert.Equal(t, 1, lex.Goodbye.Presence("ébye"), "é does not join the following word")
	assert.Equal(t, 0, lex.Goodbye.Presence("goodbyes"), "ASCII letters still bound a word")
	assert.Equal(t, 0, lex.Completion.Presence("APPOINTMENT İS BOOKED"), "İ has no simple fold to i")
	assert.Equal(t, 1, lex.Completion.Presence("APPOINTMENT IS BOOKED"))
}
