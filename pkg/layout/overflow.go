package layout

import (
	"fmt"
	"slices"

	"github.com/matzehuels/cellar/pkg/errors"
)

// Migration moves Count pending bottles from boldness bin From to the
// adjacent bin To within one hold row. To is always From±1.
type Migration struct {
	Row   int `json:"row"`
	From  int `json:"from"`
	To    int `json:"to"`
	Count int `json:"count"`
}

// Bolder reports whether the bottles move towards a bolder bin.
func (m Migration) Bolder() bool { return m.To > m.From }

func (m Migration) String() string {
	return fmt.Sprintf("row %d: %d bottles from bin %d to bin %d", m.Row, m.Count, m.From, m.To)
}

// PlanOverflow resolves negative available space across one row of stacks.
// spaces[i] is the available space of the stack in boldness bin i.
//
// Each overflowing bin sends its surplus towards the nearest bin with free
// room, one bin per step, so every intermediate stack passes the same number
// of bottles on. When the nearest free bins on both sides are equally far,
// the lighter side takes floor(surplus/2) and the bolder side the rest. A
// target that receives more than it can hold overflows in turn and is
// resolved the same way. If an overflowing bin has no free bin on either
// side the rack is full and the plan fails with CAPACITY_EXCEEDED.
//
// This heuristic is only lightly exercised in practice; the tests pin its
// tie-breaking rather than claim it is optimal.
func PlanOverflow(spaces []int) ([]Migration, error) {
	space := slices.Clone(spaces)
	var plan []Migration

	shift := func(from, to, count int) {
		if count <= 0 {
			return
		}
		step := 1
		if to < from {
			step = -1
		}
		for i := from; i != to; i += step {
			plan = append(plan, Migration{From: i, To: i + step, Count: count})
		}
		space[from] += count
		space[to] -= count
	}

	for i := 0; i < len(space); {
		if space[i] >= 0 {
			i++
			continue
		}
		surplus := -space[i]
		lighter, bolder := nearestFree(space, i)

		switch {
		case lighter < 0 && bolder < 0:
			return nil, errors.New(errors.ErrCodeCapacityExceeded,
				"boldness bin %d is %d bottles over and no bin has room", i, surplus)
		case bolder < 0 || (lighter >= 0 && i-lighter < bolder-i):
			shift(i, lighter, surplus)
		case lighter < 0 || bolder-i < i-lighter:
			shift(i, bolder, surplus)
		default:
			shift(i, lighter, surplus/2)
			shift(i, bolder, surplus-surplus/2)
		}

		// A target may now overflow, possibly to the left of i.
		i = 0
	}

	return plan, nil
}

// nearestFree returns the closest bins on either side of i with positive
// space, or -1 when a side has none.
func nearestFree(space []int, i int) (lighter, bolder int) {
	lighter, bolder = -1, -1
	for j := i - 1; j >= 0; j-- {
		if space[j] > 0 {
			lighter = j
			break
		}
	}
	for j := i + 1; j < len(space); j++ {
		if space[j] > 0 {
			bolder = j
			break
		}
	}
	return lighter, bolder
}
