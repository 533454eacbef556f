// Package curation holds the reviewable clips for each processed video.
// A clip is never removed once surfaced: discarding is a reversible
// state, not a deletion.
package curation

import (
	"errors"
	"sync"
)

var ErrClipNotFound = errors.New("clip not found")

type Decision string

const (
	DecisionUndecided Decision = "undecided"
	DecisionApproved  Decision = "approved"
	DecisionDiscarded Decision = "discarded"
)

type Tag string

const (
	TagInspiring  Tag = "inspiring"
	TagHighEnergy Tag = "high-energy"
	TagKeyInsight Tag = "key-insight"
	TagReflective Tag = "reflective"
)

// Clip is one detected moment under review. Confidence is the detector's
// 0-100 match score; Duration is a display label like "0:42".
type Clip struct {
	ID         string   `json:"id"`
	Duration   string   `json:"duration"`
	Tag        Tag      `json:"tag"`
	Confidence int      `json:"confidence"`
	Preview    string   `json:"preview"`
	Decision   Decision `json:"decision"`
}

// Counts are derived from clip decisions, never stored. Discarded clips
// are excluded from both buckets but stay in the ledger.
type Counts struct {
	Approved int `json:"approved"`
	Pending  int `json:"pending"`
}

// Ledger is the ordered collection of clips for one video. Order is the
// detector's ranking and is never changed by review operations.
type Ledger struct {
	mu    sync.Mutex
	clips []*Clip
	byID  map[string]*Clip
}

func NewLedger(clips []Clip) *Ledger {
	l := &Ledger{
		clips: make([]*Clip, 0, len(clips)),
		byID:  make(map[string]*Clip, len(clips)),
	}
	for i := range clips {
		c := clips[i]
		if c.Decision == "" {
			c.Decision = DecisionUndecided
		}
		l.clips = append(l.clips, &c)
		l.byID[c.ID] = &c
	}
	return l
}

// Approve marks a clip approved. Approving an approved clip is a no-op.
func (l *Ledger) Approve(id string) error {
	return l.setDecision(id, DecisionApproved)
}

// Discard marks a clip discarded. The clip remains in the ledger and can
// be restored with Undo.
func (l *Ledger) Discard(id string) error {
	return l.setDecision(id, DecisionDiscarded)
}

// Undo returns a clip to undecided from either approved or discarded.
func (l *Ledger) Undo(id string) error {
	return l.setDecision(id, DecisionUndecided)
}

func (l *Ledger) setDecision(id string, d Decision) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	clip, ok := l.byID[id]
	if !ok {
		return ErrClipNotFound
	}
	clip.Decision = d
	return nil
}

// Counts derives the approved and pending totals.
func (l *Ledger) Counts() Counts {
	l.mu.Lock()
	defer l.mu.Unlock()

	var c Counts
	for _, clip := range l.clips {
		switch clip.Decision {
		case DecisionApproved:
			c.Approved++
		case DecisionUndecided:
			c.Pending++
		}
	}
	return c
}

// Clips returns the clips in detector order.
func (l *Ledger) Clips() []Clip {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Clip, len(l.clips))
	for i, clip := range l.clips {
		out[i] = *clip
	}
	return out
}

// Approved returns only the approved clips, in detector order.
func (l *Ledger) Approved() []Clip {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Clip
	for _, clip := range l.clips {
		if clip.Decision == DecisionApproved {
			out = append(out, *clip)
		}
	}
	return out
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clips)
}
