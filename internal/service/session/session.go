package session

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// ErrDuplicateSegment is returned when a segment ID was already buffered.
var ErrDuplicateSegment = errors.New("duplicate segment")

// Limits bounds the buffered transcript of one session.
// Zero disables a limit.
type Limits struct {
	MaxSegments        int
	MaxTranscriptBytes int64
}

// DefaultLimits returns sensible default limits.
func DefaultLimits() Limits {
	return Limits{
		MaxSegments:        2000,
		MaxTranscriptBytes: 1 << 20, // 1MiB
	}
}

// LimitError reports the limit that caused a session to be dropped.
type LimitError struct {
	Limit string
	Value int64
	Max   int64
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("max %s exceeded: %d > %d", e.Limit, e.Value, e.Max)
}

// Limit names used by LimitError.
const (
	LimitSegments = "segments"
	LimitBytes    = "transcript_bytes"
)

// Segment is one final transcript fragment.
type Segment struct {
	ID            string
	Text          string
	AudioOffsetMs int64
}

// Transcript is the classifier input assembled from a session.
type Transcript struct {
	Text            string
	DurationSeconds *int
	SegmentCount    int
}

// Session buffers the segments of one interaction.
type Session struct {
	interactionID string
	tenantID      string
	lifecycle     *Lifecycle
	limits        Limits

	mu           sync.Mutex
	segments     []Segment
	seen         map[string]struct{}
	bytes        int64
	duration     *int
	lastActivity time.Time
	endedAt      time.Time
	ended        bool
}

// New creates an OPEN session.
func New(interactionID, tenantID string, limits Limits, now time.Time) *Session {
	return &Session{
		interactionID: interactionID,
		tenantID:      tenantID,
		lifecycle:     NewLifecycle(),
		limits:        limits,
		seen:          make(map[string]struct{}),
		lastActivity:  now,
	}
}

// InteractionID returns the interaction ID.
func (s *Session) InteractionID() string {
	return s.interactionID
}

// TenantID returns the tenant ID.
func (s *Session) TenantID() string {
	return s.tenantID
}

// State returns the lifecycle state.
func (s *Session) State() State {
	return s.lifecycle.State()
}

// Append buffers seg. Redelivered segment IDs return ErrDuplicateSegment.
// Exceeding a limit drops the session and returns a *LimitError.
func (s *Session) Append(seg Segment, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lifecycle.CheckAppend(); err != nil {
		return err
	}
	if _, ok := s.seen[seg.ID]; ok {
		return ErrDuplicateSegment
	}
	s.lastActivity = now

	count := int64(len(s.segments) + 1)
	if s.limits.MaxSegments > 0 && count > int64(s.limits.MaxSegments) {
		s.lifecycle.Drop()
		return &LimitError{Limit: LimitSegments, Value: count, Max: int64(s.limits.MaxSegments)}
	}
	bytes := s.bytes + int64(len(seg.Text))
	if s.limits.MaxTranscriptBytes > 0 && bytes > s.limits.MaxTranscriptBytes {
		s.lifecycle.Drop()
		return &LimitError{Limit: LimitBytes, Value: bytes, Max: s.limits.MaxTranscriptBytes}
	}

	s.seen[seg.ID] = struct{}{}
	s.segments = append(s.segments, seg)
	s.bytes = bytes
	return nil
}

// MarkEnded records that the interaction ended, with the call length it
// reported. The session stays OPEN so segments still in flight can land.
// A nil duration keeps any previous value. Only the first call sets the end
// time; it returns false on repeats.
func (s *Session) MarkEnded(seconds *int, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seconds != nil {
		d := *seconds
		s.duration = &d
	}
	s.lastActivity = now
	if s.ended {
		return false
	}
	s.ended = true
	s.endedAt = now
	return true
}

// EndedFor returns how long ago the interaction ended, and false if it has not.
func (s *Session) EndedFor(now time.Time) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ended {
		return 0, false
	}
	return now.Sub(s.endedAt), true
}

// SegmentCount returns the number of buffered segments.
func (s *Session) SegmentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.segments)
}

// Text returns the segment texts in audio order, joined by single spaces.
// Segments with equal offsets keep their arrival order.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.textLocked()
}

func (s *Session) textLocked() string {
	ordered := slices.Clone(s.segments)
	slices.SortStableFunc(ordered, func(a, b Segment) int {
		return cmp.Compare(a.AudioOffsetMs, b.AudioOffsetMs)
	})
	parts := make([]string, len(ordered))
	for i, seg := range ordered {
		parts[i] = seg.Text
	}
	return strings.Join(parts, " ")
}

// DurationSeconds returns the explicit duration when one was set, otherwise
// the largest segment offset in whole seconds. Nil means unknown.
func (s *Session) DurationSeconds() *int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.durationLocked()
}

func (s *Session) durationLocked() *int {
	if s.duration != nil {
		d := *s.duration
		return &d
	}
	var maxOffset int64
	for _, seg := range s.segments {
		maxOffset = max(maxOffset, seg.AudioOffsetMs)
	}
	if maxOffset <= 0 {
		return nil
	}
	d := int(maxOffset / 1000)
	return &d
}

// IdleFor returns how long the session has gone without activity.
func (s *Session) IdleFor(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastActivity)
}

// Finish moves the session to CLASSIFIED and returns its transcript.
// It succeeds once; later calls return the lifecycle error.
func (s *Session) Finish(now time.Time) (Transcript, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lifecycle.Classify(); err != nil {
		return Transcript{}, err
	}
	s.lastActivity = now
	return Transcript{
		Text:            s.textLocked(),
		DurationSeconds: s.durationLocked(),
		SegmentCount:    len(s.segments),
	}, nil
}

// Close marks the outcome as published.
func (s *Session) Close() {
	s.lifecycle.Close()
}

// Drop abandons the session. Returns false if already terminal.
func (s *Session) Drop() bool {
	return s.lifecycle.Drop()
}

// IsTerminal returns true once the session is closed or dropped.
func (s *Session) IsTerminal() bool {
	return s.lifecycle.IsTerminal()
}
