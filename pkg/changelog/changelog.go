// Package changelog collects the changes of one cellar session so they can be
// reviewed before they are committed.
//
// A [Log] implements [cellar.Recorder], and through it
// [layout.ChangeLogger], so the same value is handed to every mutating call
// of a session. Each log carries a session UUID that storage keeps with the
// committed changes.
package changelog

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/cellar/pkg/cellar"
	"github.com/matzehuels/cellar/pkg/layout"
)

// PositionChange is the net movement of one bottle during a session.
type PositionChange struct {
	BottleID int64
	From     layout.Position
	To       layout.Position
}

// Moved reports whether the bottle ends somewhere other than it started.
func (p PositionChange) Moved() bool { return p.From != p.To }

// Cleared reports whether the bottle ends the session without a slot.
func (p PositionChange) Cleared() bool { return !p.To.IsSet() && p.From.IsSet() }

// Log records the changes of one session. The zero value is not usable; use
// [New].
type Log struct {
	session uuid.UUID
	started time.Time

	regions       []cellar.Region
	wineries      []cellar.Winery
	varietals     []cellar.Varietal
	labels        []cellar.Label
	bottles       []cellar.Bottle
	consumptions  []cellar.Bottle
	labelWineries []cellar.Label

	positions map[int64]*PositionChange
}

// New starts a session log.
func New() *Log {
	return &Log{
		session:   uuid.New(),
		started:   time.Now(),
		positions: make(map[int64]*PositionChange),
	}
}

// Session identifies the session in storage.
func (l *Log) Session() uuid.UUID { return l.session }

// Started is when the session began.
func (l *Log) Started() time.Time { return l.started }

func (l *Log) RecordRegion(r cellar.Region)     { l.regions = append(l.regions, r) }
func (l *Log) RecordWinery(w cellar.Winery)     { l.wineries = append(l.wineries, w) }
func (l *Log) RecordVarietal(v cellar.Varietal) { l.varietals = append(l.varietals, v) }
func (l *Log) RecordLabel(lb cellar.Label)      { l.labels = append(l.labels, lb) }
func (l *Log) RecordBottle(b cellar.Bottle)     { l.bottles = append(l.bottles, b) }

func (l *Log) RecordConsumption(b cellar.Bottle) { l.consumptions = append(l.consumptions, b) }

// RecordLabelWinery keeps only the latest winery of each label.
func (l *Log) RecordLabelWinery(lb cellar.Label) {
	l.labelWineries = slices.DeleteFunc(l.labelWineries, func(x cellar.Label) bool { return x.ID == lb.ID })
	l.labelWineries = append(l.labelWineries, lb)
}

// RecordPositionChange notes the slot the layout engine assigned. Bottles
// first seen here had no position before.
func (l *Log) RecordPositionChange(b layout.Bottle) {
	pc, ok := l.positions[b.ID]
	if !ok {
		pc = &PositionChange{BottleID: b.ID, From: layout.Unpositioned()}
		l.positions[b.ID] = pc
	}
	pc.To = b.Position
}

// RecordPositionCleared notes that a bottle lost its slot.
func (l *Log) RecordPositionCleared(b cellar.Bottle) {
	pc, ok := l.positions[b.ID]
	if !ok {
		pc = &PositionChange{BottleID: b.ID, From: b.Position}
		l.positions[b.ID] = pc
	}
	pc.To = layout.Unpositioned()
}

func (l *Log) Regions() []cellar.Region      { return slices.Clone(l.regions) }
func (l *Log) Wineries() []cellar.Winery     { return slices.Clone(l.wineries) }
func (l *Log) Varietals() []cellar.Varietal  { return slices.Clone(l.varietals) }
func (l *Log) Labels() []cellar.Label        { return slices.Clone(l.labels) }
func (l *Log) Bottles() []cellar.Bottle      { return slices.Clone(l.bottles) }
func (l *Log) Consumptions() []cellar.Bottle { return slices.Clone(l.consumptions) }
func (l *Log) LabelWineries() []cellar.Label { return slices.Clone(l.labelWineries) }

// Positions returns the bottles that end in a new slot, ordered by boldness
// column, then cost row, then from the back of the rack to the front. That
// is the order in which they are easiest to put away.
func (l *Log) Positions() []PositionChange {
	var out []PositionChange
	for _, pc := range l.positions {
		if pc.Moved() && pc.To.IsSet() {
			out = append(out, *pc)
		}
	}
	slices.SortFunc(out, func(a, b PositionChange) int {
		ca, _ := a.To.Coord()
		cb, _ := b.To.Coord()
		return cmp.Or(
			cmp.Compare(ca.Boldness, cb.Boldness),
			cmp.Compare(ca.Cost, cb.Cost),
			cmp.Compare(cb.Hold, ca.Hold),
			cmp.Compare(a.BottleID, b.BottleID),
		)
	})
	return out
}

// Cleared returns the bottles that end the session without a slot, ordered
// by ID.
func (l *Log) Cleared() []PositionChange {
	var out []PositionChange
	for _, pc := range l.positions {
		if pc.Cleared() {
			out = append(out, *pc)
		}
	}
	slices.SortFunc(out, func(a, b PositionChange) int { return cmp.Compare(a.BottleID, b.BottleID) })
	return out
}

// Unmoved counts bottles whose position was recomputed but ended where it
// started, as happens for most bottles during a defrag.
func (l *Log) Unmoved() int {
	n := 0
	for _, pc := range l.positions {
		if !pc.Moved() {
			n++
		}
	}
	return n
}

// HasChanges reports whether committing the log would change anything.
func (l *Log) HasChanges() bool {
	if len(l.regions)+len(l.wineries)+len(l.varietals)+len(l.labels)+
		len(l.bottles)+len(l.consumptions)+len(l.labelWineries) > 0 {
		return true
	}
	for _, pc := range l.positions {
		if pc.Moved() {
			return true
		}
	}
	return false
}

// Summary describes the log in one line, e.g. "3 bottles added, 2 moved".
func (l *Log) Summary() string {
	counts := []struct {
		n    int
		noun string
	}{
		{len(l.regions), "region"},
		{len(l.wineries), "winery"},
		{len(l.varietals), "varietal"},
		{len(l.labels), "label"},
		{len(l.bottles), "bottle"},
	}

	var parts []string
	for _, c := range counts {
		if c.n > 0 {
			parts = append(parts, plural(c.n, c.noun)+" added")
		}
	}
	if n := len(l.consumptions); n > 0 {
		parts = append(parts, fmt.Sprintf("%d consumed", n))
	}
	if n := len(l.labelWineries); n > 0 {
		parts = append(parts, plural(n, "label")+" reassigned")
	}
	if n := len(l.Positions()); n > 0 {
		parts = append(parts, fmt.Sprintf("%d placed", n))
	}
	if n := len(l.Cleared()); n > 0 {
		parts = append(parts, fmt.Sprintf("%d cleared", n))
	}
	if len(parts) == 0 {
		return "no changes"
	}
	return strings.Join(parts, ", ")
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	if strings.HasSuffix(noun, "y") {
		noun = strings.TrimSuffix(noun, "y") + "ie"
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

var _ cellar.Recorder = (*Log)(nil)
