// Package lexicon holds the fixed phrase taxonomies used to score call transcripts.
//
// Each category is a PatternSet of case-insensitive regular expressions anchored
// on word boundaries, so "goodbye" never counts as "bye" and "rebooked" never
// counts as "booked". The sets are compiled once at package initialisation and
// are read-only afterwards; changing the taxonomy means editing this file.
package lexicon

import (
	"fmt"
	"regexp"
)

// Category names one semantic group of phrases.
type Category string

const (
	CategoryCompletion       Category = "completion"
	CategoryPartialSuccess   Category = "partial_success"
	CategoryFailure          Category = "failure"
	CategoryMisunderstanding Category = "misunderstanding"
	CategoryGoodbye          Category = "goodbye"
)

var completionPhrases = []string{
	`\bappointment (?:is )?(?:booked|scheduled|confirmed)\b`,
	`\b(?:book|schedule|confirm)ed (?:you|your|the) appointment\b`,
	`\badded you to the schedule\b`,
	`\b(?:rescheduled|moved) (?:your|the) appointment\b`,
	`\breservation (?:is )?(?:booked|confirmed)\b`,
	`\b(?:sent|emailed|text(?:ed)?) (?:you )?(?:the )?(?:details|information|confirmation)\b`,
	`\b(?:i|we) (?:have|got) (?:your )?(?:name|number|email|details)\b`,
	`\b (?:provided|given) (?:you )?(?:the )?information\b`,
	`\bpayment (?:processed|completed|received)\b`,
	`\bintake (?:form|forms) (?:completed|received|submitted)\b`,
	`\b(?:transferred|connected) you to (?:the )?(?:clinic|staff|front desk|representative)\b`,
	`\b(?:set|arranged|scheduled) (?:a )?callback\b`,
	`\border (?:placed|confirmed|complete)\b`,
}

var partialSuccessPhrases = []string{
	`\bleft (?:a )?voicemail\b`,
	`\bno answer\b`,
	`\boutside (?:of )?business hours\b`,
	`\bmessage (?:has been )?sent to (?:the )?(?:clinic|team|staff)\b`,
	`\bshared our hours\b`,
	`\bprovided (?:our )?address\b`,
}

var failurePhrases = []string{
	`\b(?:could not|couldn't|unable to|can't|won't be able to)\b`,
	`\bno availability\b`,
	`\bcall (?:dropped|disconnected)\b`,
	`\b(?:not|no longer) (?:accepting|taking) new patients\b`,
	`\bplease try again later\b`,
	`\b(?:i )?did not understand\b`,
	`\bthat (?:didn't|did not) go through\b`,
}

var misunderstandingPhrases = []string{
	`\b(i )?(didn't|did not) (catch|hear|understand) (that|you)\b`,
	`\bcould you repeat\b`,
	`\bsay that again\b`,
	`\bplease rephrase\b`,
}

var goodbyePhrases = []string{
	`\bthank you\b`,
	`\bhave a (?:great|good|nice) day\b`,
	`\bbye\b`,
	`\bgoodbye\b`,
}

// PatternSet is an ordered, immutable group of compiled patterns for one category.
type PatternSet struct {
	category Category
	sources  []string
	patterns []*regexp.Regexp
}

// NewPatternSet compiles the given expressions case-insensitively.
func NewPatternSet(category Category, exprs []string) (PatternSet, error) {
	set := PatternSet{
		category: category,
		sources:  append([]string(nil), exprs...),
		patterns: make([]*regexp.Regexp, 0, len(exprs)),
	}
	for _, expr := range exprs {
		re, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			return PatternSet{}, fmt.Errorf("compile %s pattern %q: %w", category, expr, err)
		}
		set.patterns = append(set.patterns, re)
	}
	return set, nil
}

func mustPatternSet(category Category, exprs []string) PatternSet {
	set, err := NewPatternSet(category, exprs)
	if err != nil {
		panic(err)
	}
	return set
}

// Category returns the category this set represents.
func (s PatternSet) Category() Category {
	return s.category
}

// Len returns the number of patterns in the set.
func (s PatternSet) Len() int {
	return len(s.patterns)
}

// Patterns returns a copy of the source expressions, in order.
func (s PatternSet) Patterns() []string {
	return append([]string(nil), s.sources...)
}

// Presence counts how many distinct patterns match text at least once.
func (s PatternSet) Presence(text string) int {
	n := 0
	for _, re := range s.patterns {
		if re.MatchString(text) {
			n++
		}
	}
	return n
}

// Occurrences counts every non-overlapping match of every pattern in text.
func (s PatternSet) Occurrences(text string) int {
	n := 0
	for _, re := range s.patterns {
		n += len(re.FindAllStringIndex(text, -1))
	}
	return n
}

// Lexicon bundles the five category sets.
type Lexicon struct {
	Completion       PatternSet
	PartialSuccess   PatternSet
	Failure          PatternSet
	Misunderstanding PatternSet
	Goodbye          PatternSet
}

var defaultLexicon = &Lexicon{
	Completion:       mustPatternSet(CategoryCompletion, completionPhrases),
	PartialSuccess:   mustPatternSet(CategoryPartialSuccess, partialSuccessPhrases),
	Failure:          mustPatternSet(CategoryFailure, failurePhrases),
	Misunderstanding: mustPatternSet(CategoryMisunderstanding, misunderstandingPhrases),
	Goodbye:          mustPatternSet(CategoryGoodbye, goodbyePhrases),
}

// Default returns the built-in lexicon. The returned value is shared and must
// not be modified.
func Default() *Lexicon {
	return defaultLexicon
}

// Sets returns the category sets in scoring order.
func (l *Lexicon) Sets() []PatternSet {
	return []PatternSet{l.Completion, l.PartialSuccess, l.Failure, l.Misunderstanding, l.Goodbye}
}
