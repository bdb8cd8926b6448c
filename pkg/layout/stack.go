package layout

import (
	"slices"

	"github.com/matzehuels/cellar/pkg/errors"
)

// Stack is every slot sharing one boldness bin and one hold bin: Width
// boldness columns by Depth hold coordinates by [NumCostLevels] cost rows.
//
// A stack never owns bottles. It refers to them by index into the arena
// slice it was built with, which belongs to the enclosing [Divido].
type Stack struct {
	arena []Bottle

	boldnessCoords []int
	holdCoords     []int
	backFirst      []int // holdCoords, deepest first

	positioned   []int
	unpositioned []int // sorted by compareQueue

	occupied map[Coord]int // slot -> arena index
	usage    map[int]int   // boldness coordinate -> bottles in this stack
}

// NewStack creates a stack spanning the given physical coordinates. The
// order of boldnessCoords decides which column wins a load-balancing tie.
func NewStack(arena []Bottle, boldnessCoords, holdCoords []int) *Stack {
	back := slices.Clone(holdCoords)
	slices.Sort(back)
	slices.Reverse(back)

	return &Stack{
		arena:          arena,
		boldnessCoords: slices.Clone(boldnessCoords),
		holdCoords:     slices.Clone(holdCoords),
		backFirst:      back,
		occupied:       make(map[Coord]int),
		usage:          make(map[int]int),
	}
}

// BoldnessCoords returns the boldness columns this stack spans.
func (s *Stack) BoldnessCoords() []int { return slices.Clone(s.boldnessCoords) }

// HoldCoords returns the hold depths this stack spans.
func (s *Stack) HoldCoords() []int { return slices.Clone(s.holdCoords) }

// Width is the number of boldness columns.
func (s *Stack) Width() int { return len(s.boldnessCoords) }

// Depth is the number of hold coordinates.
func (s *Stack) Depth() int { return len(s.holdCoords) }

// Capacity is the total number of slots.
func (s *Stack) Capacity() int { return s.Width() * s.Depth() * NumCostLevels }

// Occupied is the number of positioned bottles.
func (s *Stack) Occupied() int { return len(s.positioned) }

// Pending is the number of bottles waiting for a slot.
func (s *Stack) Pending() int { return len(s.unpositioned) }

// Positioned returns copies of the positioned bottles in insertion order.
func (s *Stack) Positioned() []Bottle { return s.collect(s.positioned) }

// Unpositioned returns copies of the pending bottles, cheapest first.
func (s *Stack) Unpositioned() []Bottle { return s.collect(s.unpositioned) }

func (s *Stack) collect(idxs []int) []Bottle {
	out := make([]Bottle, len(idxs))
	for i, idx := range idxs {
		out[i] = s.arena[idx]
	}
	return out
}

// AddPositioned adds a bottle that keeps its current slot. It fails if the
// bottle has no position, lies outside this stack, or collides with a bottle
// already in the stack.
func (s *Stack) AddPositioned(idx int) error {
	b := &s.arena[idx]
	c, ok := b.Position.Coord()
	if !ok {
		return errors.New(errors.ErrCodeInvalidInput, "bottle %d has no position", b.ID)
	}
	if !slices.Contains(s.boldnessCoords, c.Boldness) || !slices.Contains(s.holdCoords, c.Hold) {
		return errors.New(errors.ErrCodeInvalidInput, "bottle %d at %s lies outside stack", b.ID, c)
	}
	if other, taken := s.occupied[c]; taken {
		return errors.New(errors.ErrCodeInvalidInput, "bottles %d and %d share slot %s", s.arena[other].ID, b.ID, c)
	}
	s.positioned = append(s.positioned, idx)
	s.occupied[c] = idx
	s.usage[c.Boldness]++
	return nil
}

// AddUnpositioned queues a bottle for placement. Any position it carries is
// ignored and will be overwritten.
func (s *Stack) AddUnpositioned(idx int) {
	at, _ := slices.BinarySearchFunc(s.unpositioned, idx, func(a, b int) int {
		return compareQueue(&s.arena[a], &s.arena[b])
	})
	s.unpositioned = slices.Insert(s.unpositioned, at, idx)
}

// OpenSlotsAtOrAbove counts free slots at or above costCoord across the
// whole width and depth. Pending bottles are not counted.
func (s *Stack) OpenSlotsAtOrAbove(costCoord int) int {
	if costCoord >= NumCostLevels {
		return 0
	}
	costCoord = max(costCoord, 0)

	open := (NumCostLevels - costCoord) * s.Width() * s.Depth()
	for _, idx := range s.positioned {
		if c, _ := s.arena[idx].Position.Coord(); c.Cost >= costCoord {
			open--
		}
	}
	return open
}

// AvailableSpace is the number of free slots left once every pending bottle
// has one. Negative means the stack overflows.
func (s *Stack) AvailableSpace() int {
	return s.OpenSlotsAtOrAbove(0) - len(s.unpositioned)
}

// PositionBottles gives every pending bottle a slot.
//
// Cost rows are walked bottom-up. The cheapest pending bottle is placed on
// the current row when the row has a free slot and either its cost falls
// below the row's threshold or the rows above could not hold all pending
// bottles. Otherwise the walk moves up one row. Cheap bottles therefore sink
// to make headroom, and expensive ones rise to their cost bin when room
// permits.
//
// If the stack cannot hold its pending bottles the call fails with
// CAPACITY_EXCEEDED before any bottle is touched.
func (s *Stack) PositionBottles(costBins []Bin, logger ChangeLogger) error {
	thresholds := ExpandBins(costBins)
	if len(thresholds) != NumCostLevels {
		return errors.New(errors.ErrCodeInvalidInput,
			"cost bins span %d rows, rack has %d", len(thresholds), NumCostLevels)
	}
	if space := s.AvailableSpace(); space < 0 {
		return errors.New(errors.ErrCodeCapacityExceeded,
			"stack %v/%v needs %d more slots", s.boldnessCoords, s.holdCoords, -space)
	}

	costCoord := 0
	openAtOrAbove := s.OpenSlotsAtOrAbove(costCoord)
	openAbove := s.OpenSlotsAtOrAbove(costCoord + 1)

	for len(s.unpositioned) > 0 {
		if costCoord >= NumCostLevels {
			return errors.New(errors.ErrCodePlacementInvariant,
				"ran out of cost rows with %d bottles pending", len(s.unpositioned))
		}

		cheapest := &s.arena[s.unpositioned[0]]
		roomHere := openAtOrAbove-openAbove > 0
		tightAbove := openAbove < len(s.unpositioned)
		inBin := cheapest.Cost < thresholds[costCoord]

		if roomHere && (tightAbove || inBin) {
			if err := s.placeFirst(costCoord, logger); err != nil {
				return err
			}
			openAtOrAbove--
			continue
		}

		costCoord++
		openAtOrAbove = openAbove
		openAbove = s.OpenSlotsAtOrAbove(costCoord + 1)
	}
	return nil
}

// placeFirst puts the cheapest pending bottle on costCoord, in the deepest
// hold coordinate with a free slot, in the least used boldness column.
func (s *Stack) placeFirst(costCoord int, logger ChangeLogger) error {
	idx := s.unpositioned[0]

	for _, hold := range s.backFirst {
		best := -1
		for _, bold := range s.boldnessCoords {
			if _, taken := s.occupied[Coord{Boldness: bold, Cost: costCoord, Hold: hold}]; taken {
				continue
			}
			if best < 0 || s.usage[bold] < s.usage[best] {
				best = bold
			}
		}
		if best < 0 {
			continue
		}

		c := Coord{Boldness: best, Cost: costCoord, Hold: hold}
		s.arena[idx].Position = PositionedAt(c)
		if logger != nil {
			logger.RecordPositionChange(s.arena[idx])
		}

		s.unpositioned = s.unpositioned[1:]
		s.positioned = append(s.positioned, idx)
		s.occupied[c] = idx
		s.usage[best]++
		return nil
	}

	return errors.New(errors.ErrCodePlacementInvariant,
		"no free slot on cost row %d for bottle %d", costCoord, s.arena[idx].ID)
}

// takePending removes n pending bottles for migration. With boldest set the
// boldest bottles leave, otherwise the lightest.
func (s *Stack) takePending(n int, boldest bool) []int {
	if n <= 0 {
		return nil
	}
	n = min(n, len(s.unpositioned))

	byBoldness := slices.Clone(s.unpositioned)
	slices.SortFunc(byBoldness, func(a, b int) int {
		return compareBoldness(&s.arena[a], &s.arena[b])
	})
	if boldest {
		slices.Reverse(byBoldness)
	}
	taken := byBoldness[:n]

	s.unpositioned = slices.DeleteFunc(s.unpositioned, func(idx int) bool {
		return slices.Contains(taken, idx)
	})
	return taken
}
