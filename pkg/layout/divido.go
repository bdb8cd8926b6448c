package layout

import (
	"math"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cellar/pkg/errors"
)

// Hold rows. Every boldness bin has one stack per row.
const (
	RowDrinkNow = 0
	RowLater    = 1
	numRows     = 2
)

// RowName returns a short label for a hold row.
func RowName(row int) string {
	if row == RowDrinkNow {
		return "drink-now"
	}
	return "later"
}

// Options configures a [Divido] layout.
type Options struct {
	// CurrentYear separates drink-now bottles from bottles to hold. Zero
	// means the current calendar year.
	CurrentYear int

	// Logger receives migration warnings. Nil means log.Default().
	Logger *log.Logger
}

// Divido is the layout of one Divido rack. It owns the bottles it was built
// from; stacks refer to them by index.
type Divido struct {
	bottles []Bottle

	boldBins []Bin
	costBins []Bin
	holdBins []Bin

	stacks [][numRows]*Stack // [boldness bin][row]

	migrations  []Migration
	currentYear int
	logger      *log.Logger
}

// New bins the bottles and routes each one to its stack. Bottles with a
// position join the stack covering that slot and keep it; the rest queue in
// the stack matching their boldness and hold year.
//
// The bottles are copied. New fails with DEGENERATE_BINNING when bottles is
// empty and with INVALID_INPUT when IDs repeat or positions are out of range
// or shared.
func New(bottles []Bottle, opts Options) (*Divido, error) {
	d := &Divido{
		bottles:     slices.Clone(bottles),
		currentYear: opts.CurrentYear,
		logger:      opts.Logger,
	}
	if d.currentYear == 0 {
		d.currentYear = time.Now().Year()
	}
	if d.logger == nil {
		d.logger = log.Default()
	}

	if err := d.validate(); err != nil {
		return nil, err
	}
	if err := d.computeBins(); err != nil {
		return nil, err
	}

	d.stacks = make([][numRows]*Stack, len(d.boldBins))
	later := make([]int, 0, NumHoldLevels-1)
	for h := 1; h < NumHoldLevels; h++ {
		later = append(later, h)
	}
	for bin := range d.boldBins {
		coords := d.BoldnessCoordsForBin(bin)
		d.stacks[bin][RowDrinkNow] = NewStack(d.bottles, coords, []int{DrinkNowHold})
		d.stacks[bin][RowLater] = NewStack(d.bottles, coords, later)
	}

	for idx := range d.bottles {
		b := &d.bottles[idx]
		if c, ok := b.Position.Coord(); ok {
			if err := d.Stack(d.BoldnessBinIndex(c.Boldness), holdRow(c.Hold)).AddPositioned(idx); err != nil {
				return nil, err
			}
			continue
		}

		bin := FindBinIndex(b.Boldness, d.boldBins)
		row := RowLater
		if FindBinIndex(float64(b.HoldUntil), d.holdBins) == 0 {
			row = RowDrinkNow
		}
		d.stacks[bin][row].AddUnpositioned(idx)
	}

	return d, nil
}

func (d *Divido) validate() error {
	seen := make(map[int64]bool, len(d.bottles))
	for _, b := range d.bottles {
		if seen[b.ID] {
			return errors.New(errors.ErrCodeInvalidInput, "bottle %d appears twice", b.ID)
		}
		seen[b.ID] = true

		if c, ok := b.Position.Coord(); ok && !c.Valid() {
			return errors.New(errors.ErrCodeInvalidInput, "bottle %d has out-of-range position %s", b.ID, c)
		}
	}
	return nil
}

func (d *Divido) computeBins() error {
	if len(d.bottles) == 0 {
		return errors.New(errors.ErrCodeDegenerateBinning, "no bottles to lay out")
	}

	boldness := make([]float64, len(d.bottles))
	costs := make([]float64, len(d.bottles))
	var holds []float64
	for i, b := range d.bottles {
		boldness[i] = b.Boldness
		costs[i] = b.Cost
		if b.HoldUntil > d.currentYear {
			holds = append(holds, float64(b.HoldUntil))
		}
	}

	var err error
	if d.boldBins, err = ComputeBins(boldness, NumBoldLevels, true); err != nil {
		return errors.Wrap(errors.GetCode(err), err, "boldness bins")
	}
	if d.costBins, err = ComputeBins(costs, NumCostLevels, false); err != nil {
		return errors.Wrap(errors.GetCode(err), err, "cost bins")
	}

	// Drink-now is "hold < currentYear+1"; an empty later set gets one
	// catch-all bin spanning every later depth.
	d.holdBins = []Bin{{Threshold: float64(d.currentYear + 1), Width: 1}}
	if len(holds) == 0 {
		d.holdBins = append(d.holdBins, Bin{Threshold: math.Inf(1), Width: NumHoldLevels - 1})
		return nil
	}
	later, err := ComputeBins(holds, NumHoldLevels-1, false)
	if err != nil {
		return errors.Wrap(errors.GetCode(err), err, "hold bins")
	}
	d.holdBins = append(d.holdBins, later...)
	return nil
}

func holdRow(hold int) int {
	if hold == DrinkNowHold {
		return RowDrinkNow
	}
	return RowLater
}

// PositionBottles gives every unpositioned bottle a slot and reports each
// change to logger.
//
// Overflow is planned for both hold rows before anything moves. If either
// row cannot fit its bottles the call fails with CAPACITY_EXCEEDED and no
// bottle changes. Each migration is logged as a warning. The stacks then
// place their pending bottles against the shared cost bins.
func (d *Divido) PositionBottles(logger ChangeLogger) error {
	var plan []Migration
	for row := 0; row < numRows; row++ {
		spaces := make([]int, len(d.stacks))
		for bin := range d.stacks {
			spaces[bin] = d.stacks[bin][row].AvailableSpace()
		}

		rowPlan, err := PlanOverflow(spaces)
		if err != nil {
			return errors.Wrap(errors.GetCode(err), err, "%s row", RowName(row))
		}
		for i := range rowPlan {
			rowPlan[i].Row = row
		}
		plan = append(plan, rowPlan...)
	}

	for _, m := range plan {
		moved := d.stacks[m.From][m.Row].takePending(m.Count, m.Bolder())
		for _, idx := range moved {
			d.stacks[m.To][m.Row].AddUnpositioned(idx)
		}
		m.Count = len(moved)
		d.migrations = append(d.migrations, m)
		d.logger.Warn("stack overflow, migrating bottles",
			"row", RowName(m.Row), "from", m.From, "to", m.To, "count", m.Count)
	}

	for bin := range d.stacks {
		for row := 0; row < numRows; row++ {
			if err := d.stacks[bin][row].PositionBottles(d.costBins, logger); err != nil {
				return errors.Wrap(errors.GetCode(err), err, "boldness bin %d %s row", bin, RowName(row))
			}
		}
	}
	return nil
}

// BoldnessBinIndex maps a boldness coordinate to its bin. Coordinates count
// down from the boldest column while bins count up from the lightest.
func (d *Divido) BoldnessBinIndex(coord int) int {
	fromLightest := NumBoldLevels - coord - 1
	covers := 0
	for i, b := range d.boldBins {
		covers += b.Width
		if fromLightest < covers {
			return i
		}
	}
	return len(d.boldBins) - 1
}

// BoldnessCoordsForBin returns every coordinate that maps to bin, boldest
// last. It is the inverse of [Divido.BoldnessBinIndex].
func (d *Divido) BoldnessCoordsForBin(bin int) []int {
	if bin < 0 || bin >= len(d.boldBins) {
		return nil
	}
	covers := 0
	for _, b := range d.boldBins[:bin] {
		covers += b.Width
	}
	coords := make([]int, 0, d.boldBins[bin].Width)
	for c := covers; c < covers+d.boldBins[bin].Width; c++ {
		coords = append(coords, NumBoldLevels-c-1)
	}
	return coords
}

// Stack returns the stack for a boldness bin and hold row.
func (d *Divido) Stack(bin, row int) *Stack { return d.stacks[bin][row] }

// NumBoldnessBins is the number of boldness bins, and so of stacks per row.
func (d *Divido) NumBoldnessBins() int { return len(d.boldBins) }

// BoldnessBins returns the boldness bins, lightest first.
func (d *Divido) BoldnessBins() []Bin { return slices.Clone(d.boldBins) }

// CostBins returns the cost bins, cheapest first.
func (d *Divido) CostBins() []Bin { return slices.Clone(d.costBins) }

// HoldBins returns the hold bins; the first is drink-now.
func (d *Divido) HoldBins() []Bin { return slices.Clone(d.holdBins) }

// Bottles returns a copy of every bottle with its current position.
func (d *Divido) Bottles() []Bottle { return slices.Clone(d.bottles) }

// Migrations returns the overflow migrations applied by PositionBottles.
func (d *Divido) Migrations() []Migration { return slices.Clone(d.migrations) }

// CurrentYear is the year used to split drink-now from later bottles.
func (d *Divido) CurrentYear() int { return d.currentYear }
