package layout

import (
	"math"
	"slices"
	"testing"

	"github.com/matzehuels/cellar/pkg/errors"
)

// recorder collects position changes.
type recorder struct {
	changes []Bottle
}

func (r *recorder) RecordPositionChange(b Bottle) { r.changes = append(r.changes, b) }

// evenCostBins is one cost row per 10 units: row 0 holds costs below 10.
func evenCostBins() []Bin {
	bins := make([]Bin, 0, NumCostLevels)
	for i := 1; i < NumCostLevels; i++ {
		bins = append(bins, Bin{Threshold: float64(10 * i), Width: 1})
	}
	return append(bins, Bin{Threshold: math.Inf(1), Width: 1})
}

func at(boldness, cost, hold int) Position {
	return PositionedAt(Coord{Boldness: boldness, Cost: cost, Hold: hold})
}

func mustCoord(t *testing.T, b Bottle) Coord {
	t.Helper()
	c, ok := b.Position.Coord()
	if !ok {
		t.Fatalf("bottle %d has no position", b.ID)
	}
	return c
}

func TestStackGeometry(t *testing.T) {
	s := NewStack(nil, []int{5, 4}, []int{1, 2})

	if s.Width() != 2 || s.Depth() != 2 {
		t.Errorf("Width, Depth = %d, %d, want 2, 2", s.Width(), s.Depth())
	}
	if got := s.Capacity(); got != 2*2*NumCostLevels {
		t.Errorf("Capacity() = %d, want %d", got, 2*2*NumCostLevels)
	}
	if got := s.OpenSlotsAtOrAbove(NumCostLevels); got != 0 {
		t.Errorf("OpenSlotsAtOrAbove(top+1) = %d, want 0", got)
	}
}

func TestStackAddPositioned(t *testing.T) {
	arena := []Bottle{
		{ID: 1, Position: at(3, 0, 0)},
		{ID: 2, Position: at(3, 0, 0)},
		{ID: 3, Position: at(7, 0, 0)},
		{ID: 4, Position: at(3, 0, 1)},
		{ID: 5, Position: Unpositioned()},
		{ID: 6, Position: at(3, 4, 0)},
	}
	s := NewStack(arena, []int{3}, []int{0})

	if err := s.AddPositioned(0); err != nil {
		t.Fatalf("AddPositioned(0) error: %v", err)
	}

	tests := []struct {
		name string
		idx  int
	}{
		{"shared slot", 1},
		{"other column", 2},
		{"other depth", 3},
		{"no position", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.AddPositioned(tt.idx); !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("AddPositioned(%d) error = %v, want INVALID_INPUT", tt.idx, err)
			}
		})
	}

	if err := s.AddPositioned(5); err != nil {
		t.Fatalf("AddPositioned(5) error: %v", err)
	}
	if s.Occupied() != 2 {
		t.Errorf("Occupied() = %d, want 2", s.Occupied())
	}
	if got := s.OpenSlotsAtOrAbove(1); got != NumCostLevels-1-1 {
		t.Errorf("OpenSlotsAtOrAbove(1) = %d, want %d", got, NumCostLevels-2)
	}
}

func TestStackQueueOrder(t *testing.T) {
	arena := []Bottle{
		{ID: 1, Cost: 30, Producer: "B"},
		{ID: 2, Cost: 10, Producer: "Z"},
		{ID: 3, Cost: 30, Producer: "A"},
		{ID: 4, Cost: 30, Producer: "A", Vintage: 2015},
		{ID: 5, Cost: 30, Producer: "A", Vintage: 2012},
	}
	s := NewStack(arena, []int{0}, []int{0})
	for i := range arena {
		s.AddUnpositioned(i)
	}

	var got []int64
	for _, b := range s.Unpositioned() {
		got = append(got, b.ID)
	}
	want := []int64{2, 3, 5, 4, 1}
	if !slices.Equal(got, want) {
		t.Errorf("queue = %v, want %v", got, want)
	}
}

func TestStackPlacesDeepestThenLeastUsed(t *testing.T) {
	arena := make([]Bottle, 4)
	for i := range arena {
		arena[i] = Bottle{ID: int64(i + 1), Cost: 5 + float64(i)/10}
	}
	s := NewStack(arena, []int{3, 2}, []int{1, 2})
	for i := range arena {
		s.AddUnpositioned(i)
	}

	rec := &recorder{}
	if err := s.PositionBottles(evenCostBins(), rec); err != nil {
		t.Fatalf("PositionBottles() error: %v", err)
	}

	want := []Coord{
		{Boldness: 3, Cost: 0, Hold: 2},
		{Boldness: 2, Cost: 0, Hold: 2},
		{Boldness: 3, Cost: 0, Hold: 1},
		{Boldness: 2, Cost: 0, Hold: 1},
	}
	for i, b := range arena {
		if got := mustCoord(t, b); got != want[i] {
			t.Errorf("bottle %d at %s, want %s", b.ID, got, want[i])
		}
	}
	if len(rec.changes) != 4 {
		t.Errorf("recorded %d changes, want 4", len(rec.changes))
	}
	if s.Pending() != 0 || s.Occupied() != 4 {
		t.Errorf("Pending, Occupied = %d, %d, want 0, 4", s.Pending(), s.Occupied())
	}
}

func TestStackBalancesColumns(t *testing.T) {
	arena := []Bottle{
		{ID: 1, Position: at(4, 5, 0)},
		{ID: 2, Position: at(4, 6, 0)},
		{ID: 3, Cost: 1},
	}
	s := NewStack(arena, []int{4, 3}, []int{0})
	for i := 0; i < 2; i++ {
		if err := s.AddPositioned(i); err != nil {
			t.Fatalf("AddPositioned(%d) error: %v", i, err)
		}
	}
	s.AddUnpositioned(2)

	if err := s.PositionBottles(evenCostBins(), nil); err != nil {
		t.Fatalf("PositionBottles() error: %v", err)
	}
	want := Coord{Boldness: 3, Cost: 0, Hold: 0}
	if got := mustCoord(t, arena[2]); got != want {
		t.Errorf("bottle placed at %s, want %s", got, want)
	}
}

func TestStackExpensiveBottleRises(t *testing.T) {
	arena := []Bottle{{ID: 1, Cost: 55}}
	s := NewStack(arena, []int{0}, []int{0})
	s.AddUnpositioned(0)

	if err := s.PositionBottles(evenCostBins(), nil); err != nil {
		t.Fatalf("PositionBottles() error: %v", err)
	}
	if got := mustCoord(t, arena[0]).Cost; got != 5 {
		t.Errorf("cost row = %d, want 5", got)
	}
}

func TestStackExpensiveBottleSinksWhenTight(t *testing.T) {
	arena := make([]Bottle, 0, NumCostLevels)
	for c := 1; c < NumCostLevels; c++ {
		arena = append(arena, Bottle{ID: int64(c), Position: at(0, c, 0)})
	}
	arena = append(arena, Bottle{ID: 100, Cost: 1000})

	s := NewStack(arena, []int{0}, []int{0})
	for i := 0; i < len(arena)-1; i++ {
		if err := s.AddPositioned(i); err != nil {
			t.Fatalf("AddPositioned(%d) error: %v", i, err)
		}
	}
	s.AddUnpositioned(len(arena) - 1)

	if err := s.PositionBottles(evenCostBins(), nil); err != nil {
		t.Fatalf("PositionBottles() error: %v", err)
	}
	if got := mustCoord(t, arena[len(arena)-1]).Cost; got != 0 {
		t.Errorf("cost row = %d, want 0", got)
	}
}

func TestStackCapacityExceeded(t *testing.T) {
	var arena []Bottle
	for c := 0; c < 9; c++ {
		arena = append(arena, Bottle{ID: int64(c + 1), Position: at(0, c, 0)})
	}
	for i := 0; i < 4; i++ {
		arena = append(arena, Bottle{ID: int64(100 + i), Cost: float64(i)})
	}

	s := NewStack(arena, []int{0}, []int{0})
	for i := 0; i < 9; i++ {
		if err := s.AddPositioned(i); err != nil {
			t.Fatalf("AddPositioned(%d) error: %v", i, err)
		}
	}
	for i := 9; i < len(arena); i++ {
		s.AddUnpositioned(i)
	}

	if got := s.AvailableSpace(); got != -1 {
		t.Errorf("AvailableSpace() = %d, want -1", got)
	}

	rec := &recorder{}
	err := s.PositionBottles(evenCostBins(), rec)
	if !errors.Is(err, errors.ErrCodeCapacityExceeded) {
		t.Fatalf("PositionBottles() error = %v, want CAPACITY_EXCEEDED", err)
	}
	if len(rec.changes) != 0 {
		t.Errorf("recorded %d changes on failure", len(rec.changes))
	}
	for _, b := range arena[9:] {
		if b.Position.IsSet() {
			t.Errorf("bottle %d positioned despite failure", b.ID)
		}
	}
	if s.Pending() != 4 {
		t.Errorf("Pending() = %d, want 4", s.Pending())
	}
}

func TestStackRejectsWrongCostBins(t *testing.T) {
	arena := []Bottle{{ID: 1}}
	s := NewStack(arena, []int{0}, []int{0})
	s.AddUnpositioned(0)

	err := s.PositionBottles([]Bin{{Threshold: math.Inf(1), Width: 1}}, nil)
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("PositionBottles() error = %v, want INVALID_INPUT", err)
	}
}

func TestStackTakePending(t *testing.T) {
	arena := []Bottle{
		{ID: 1, Boldness: 3.0, Cost: 10},
		{ID: 2, Boldness: 3.9, Cost: 20},
		{ID: 3, Boldness: 3.1, Cost: 30},
		{ID: 4, Boldness: 3.5, Cost: 40},
	}

	tests := []struct {
		name    string
		n       int
		boldest bool
		taken   []int64
		left    []int64
	}{
		{"boldest", 2, true, []int64{2, 4}, []int64{1, 3}},
		{"lightest", 2, false, []int64{1, 3}, []int64{2, 4}},
		{"more than pending", 9, true, []int64{2, 4, 3, 1}, nil},
		{"none", 0, true, nil, []int64{1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStack(arena, []int{0}, []int{0})
			for i := range arena {
				s.AddUnpositioned(i)
			}

			var taken []int64
			for _, idx := range s.takePending(tt.n, tt.boldest) {
				taken = append(taken, arena[idx].ID)
			}
			var left []int64
			for _, b := range s.Unpositioned() {
				left = append(left, b.ID)
			}

			if !slices.Equal(taken, tt.taken) {
				t.Errorf("taken = %v, want %v", taken, tt.taken)
			}
			if !slices.Equal(left, tt.left) {
				t.Errorf("left = %v, want %v", left, tt.left)
			}
		})
	}
}
