// Package layout assigns wine bottles to physical slots in a Divido rack.
//
// # Overview
//
// The rack is a fixed three-dimensional grid. Columns run from the boldest
// wines (boldness coordinate 0) to the lightest; rows run from the cheapest
// bottles (cost coordinate 0) to the most expensive; depth separates bottles
// to drink now (hold coordinate 0) from bottles to hold for later. The
// geometry is fixed by [NumBoldLevels], [NumCostLevels] and [NumHoldLevels].
//
// The engine never looks at absolute values when deciding where a bottle
// goes. Instead [ComputeBins] splits the observed boldness, cost and hold
// year values into quantile bins so that each column, row and depth carries
// roughly the same number of bottles. When many wines share a boldness score
// the boldness bins merge and a single [Bin] spans several physical columns.
//
// # Stacks
//
// A [Stack] owns every slot sharing one boldness bin and one hold bin. The
// [Divido] layout builds two stacks per boldness bin, one for the drink-now
// depth and one spanning the later depths. Bottles that already have a
// position stay where they are; unpositioned bottles queue inside their
// stack in cost order and are placed by [Stack.PositionBottles].
//
// # Overflow
//
// If a stack receives more bottles than it has slots, [PlanOverflow] moves
// the surplus one boldness bin at a time towards the closest stack with free
// room. The plan is computed for the whole rack before any bottle moves, so a
// rack that is genuinely full fails with CAPACITY_EXCEEDED and leaves every
// bottle untouched.
//
// # Usage
//
//	d, err := layout.New(bottles, layout.Options{Logger: logger})
//	if err != nil {
//	    return err
//	}
//	if err := d.PositionBottles(changes); err != nil {
//	    return err
//	}
//	for _, b := range d.Bottles() {
//	    c, _ := b.Position.Coord()
//	    fmt.Println(b.ID, c)
//	}
//
// # Concurrency
//
// A [Divido] is built, positioned once and discarded. None of the types in
// this package are safe for concurrent use.
package layout
