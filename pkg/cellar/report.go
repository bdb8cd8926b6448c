package cellar

import (
	"cmp"
	"slices"
	"time"
)

// InventoryByYear counts bottles per hold year. Hold years before year
// count as year, which is "drink now". Consumed bottles are skipped.
func InventoryByYear(bottles []Bottle, year int) map[int]int {
	inv := make(map[int]int)
	for _, b := range bottles {
		if !b.Consumed() {
			inv[max(year, b.HoldUntil)]++
		}
	}
	return inv
}

// LabelInventory is the in-cellar stock of one label.
type LabelInventory struct {
	Label  Label
	ByYear map[int]int
}

// Inventory returns every label with bottles in the cellar, boldest first.
func (c *Cellar) Inventory(year int) []LabelInventory {
	byLabel := make(map[int64][]Bottle)
	for _, b := range c.InCellar() {
		byLabel[b.LabelID] = append(byLabel[b.LabelID], b)
	}

	out := make([]LabelInventory, 0, len(byLabel))
	for id, bottles := range byLabel {
		out = append(out, LabelInventory{Label: c.labels[id], ByYear: InventoryByYear(bottles, year)})
	}
	slices.SortFunc(out, func(a, b LabelInventory) int {
		return cmp.Or(
			cmp.Compare(c.WeightedBoldness(b.Label), c.WeightedBoldness(a.Label)),
			cmp.Compare(c.Description(a.Label), c.Description(b.Label)),
			cmp.Compare(a.Label.ID, b.Label.ID),
		)
	})
	return out
}

// RegionInventory is the in-cellar stock of one region.
type RegionInventory struct {
	Region  Region
	Bottles int
	ByYear  map[int]int
}

// CountryInventory groups region stock by country.
type CountryInventory struct {
	Country string
	Bottles int
	Regions []RegionInventory
}

// ByRegion returns in-cellar stock per country and region, both sorted by
// name.
func (c *Cellar) ByRegion(year int) []CountryInventory {
	byRegion := make(map[int64][]Bottle)
	for _, b := range c.InCellar() {
		r := c.RegionOf(c.labels[b.LabelID])
		byRegion[r.ID] = append(byRegion[r.ID], b)
	}

	byCountry := make(map[string]*CountryInventory)
	for id, bottles := range byRegion {
		r := c.regions[id]
		ci, ok := byCountry[r.Country]
		if !ok {
			ci = &CountryInventory{Country: r.Country}
			byCountry[r.Country] = ci
		}
		ci.Bottles += len(bottles)
		ci.Regions = append(ci.Regions, RegionInventory{
			Region:  r,
			Bottles: len(bottles),
			ByYear:  InventoryByYear(bottles, year),
		})
	}

	out := make([]CountryInventory, 0, len(byCountry))
	for _, ci := range byCountry {
		slices.SortFunc(ci.Regions, func(a, b RegionInventory) int {
			return cmp.Or(cmp.Compare(a.Region.Name, b.Region.Name), cmp.Compare(a.Region.ID, b.Region.ID))
		})
		out = append(out, *ci)
	}
	slices.SortFunc(out, func(a, b CountryInventory) int { return cmp.Compare(a.Country, b.Country) })
	return out
}

// BottlesPastHold returns in-cellar bottles whose hold year is before year,
// in storage order.
func (c *Cellar) BottlesPastHold(year int) []Bottle {
	var out []Bottle
	for _, b := range c.Stored() {
		if b.HoldUntil < year {
			out = append(out, b)
		}
	}
	return out
}

// BottlesByYear groups in-cellar bottles by hold year, clamped to year.
func (c *Cellar) BottlesByYear(year int) map[int][]Bottle {
	out := make(map[int][]Bottle)
	for _, b := range c.Stored() {
		y := max(year, b.HoldUntil)
		out[y] = append(out[y], b)
	}
	return out
}

// LongestHold is the latest hold year in the cellar, or year if later.
func (c *Cellar) LongestHold(year int) int {
	longest := year
	for _, b := range c.InCellar() {
		longest = max(longest, b.HoldUntil)
	}
	return longest
}

// AveragePrice is the mean cost of a label's bottles still in the cellar,
// or of all its bottles once none are left.
func (c *Cellar) AveragePrice(labelID int64) float64 {
	var stored, all []float64
	for _, b := range c.Bottles() {
		if b.LabelID != labelID {
			continue
		}
		all = append(all, b.Cost)
		if !b.Consumed() {
			stored = append(stored, b.Cost)
		}
	}
	if len(stored) == 0 {
		stored = all
	}
	if len(stored) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range stored {
		sum += v
	}
	return sum / float64(len(stored))
}

// MonthlyConsumption lists the bottles consumed in one calendar month.
type MonthlyConsumption struct {
	Year    int
	Month   time.Month
	Bottles []Bottle
}

// Cost is the total cost of the month's bottles.
func (m MonthlyConsumption) Cost() float64 {
	total := 0.0
	for _, b := range m.Bottles {
		total += b.Cost
	}
	return total
}

// ConsumptionByMonth groups consumed bottles by month, oldest first. Bottles
// within a month are ordered by consumption date.
func (c *Cellar) ConsumptionByMonth() []MonthlyConsumption {
	var consumed []Bottle
	for _, b := range c.Bottles() {
		if b.Consumed() {
			consumed = append(consumed, b)
		}
	}
	slices.SortStableFunc(consumed, func(a, b Bottle) int { return a.Consumption.Compare(b.Consumption) })

	var out []MonthlyConsumption
	for _, b := range consumed {
		y, m, _ := b.Consumption.Date()
		if n := len(out); n == 0 || out[n-1].Year != y || out[n-1].Month != m {
			out = append(out, MonthlyConsumption{Year: y, Month: m})
		}
		out[len(out)-1].Bottles = append(out[len(out)-1].Bottles, b)
	}
	return out
}
