package layout

import (
	"cmp"
	"fmt"
)

// Rack geometry. These are properties of the physical rack and are not
// configurable at runtime.
const (
	// NumBoldLevels is the number of boldness columns.
	NumBoldLevels = 12
	// NumCostLevels is the number of cost rows in every column.
	NumCostLevels = 12
	// NumHoldLevels is the rack depth. Depth 0 only holds drink-now bottles.
	NumHoldLevels = 3
)

// DrinkNowHold is the hold coordinate reserved for bottles whose hold year
// has arrived.
const DrinkNowHold = 0

// Coord identifies one physical slot.
type Coord struct {
	Boldness int `json:"boldness"`
	Cost     int `json:"cost"`
	Hold     int `json:"hold"`
}

// Valid reports whether every component lies inside the rack.
func (c Coord) Valid() bool {
	return c.Boldness >= 0 && c.Boldness < NumBoldLevels &&
		c.Cost >= 0 && c.Cost < NumCostLevels &&
		c.Hold >= 0 && c.Hold < NumHoldLevels
}

// String formats the coordinate as "(boldness, cost, hold)".
func (c Coord) String() string {
	return fmt.Sprintf("(%d, %d, %d)", c.Boldness, c.Cost, c.Hold)
}

// Position is either unset or a complete [Coord]. The zero value is
// unpositioned; there is no way to set only part of a coordinate.
type Position struct {
	coord Coord
	set   bool
}

// Unpositioned returns an empty position.
func Unpositioned() Position { return Position{} }

// PositionedAt returns a position holding c.
func PositionedAt(c Coord) Position { return Position{coord: c, set: true} }

// Coord returns the slot and whether the position is set.
func (p Position) Coord() (Coord, bool) { return p.coord, p.set }

// IsSet reports whether the position holds a slot.
func (p Position) IsSet() bool { return p.set }

// String returns the coordinate or "unpositioned".
func (p Position) String() string {
	if !p.set {
		return "unpositioned"
	}
	return p.coord.String()
}

// Bottle is the engine's view of a physical bottle.
//
// Producer, Label and Vintage only break cost ties so that bottles of the
// same wine end up next to each other and placement is reproducible.
type Bottle struct {
	ID        int64
	Cost      float64
	Boldness  float64
	HoldUntil int
	Producer  string
	Label     string
	Vintage   int
	Position  Position
}

// ChangeLogger receives every bottle whose position the engine mutates.
type ChangeLogger interface {
	RecordPositionChange(b Bottle)
}

// compareQueue orders bottles cheapest first with a full deterministic key.
func compareQueue(a, b *Bottle) int {
	return cmp.Or(
		cmp.Compare(a.Cost, b.Cost),
		cmp.Compare(a.Producer, b.Producer),
		cmp.Compare(a.Label, b.Label),
		cmp.Compare(a.Vintage, b.Vintage),
		cmp.Compare(a.ID, b.ID),
	)
}

// compareBoldness orders bottles lightest first, falling back to the queue
// order so equal scores still sort deterministically.
func compareBoldness(a, b *Bottle) int {
	return cmp.Or(
		cmp.Compare(a.Boldness, b.Boldness),
		compareQueue(a, b),
	)
}
