package cellar

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/cellar/pkg/layout"
)

// Region is a wine producing region within a country.
type Region struct {
	ID      int64
	Name    string
	Country string
}

// Description returns "Name, Country".
func (r Region) Description() string {
	return fmt.Sprintf("%s, %s", r.Name, r.Country)
}

// Winery groups labels from one producer.
type Winery struct {
	ID       int64
	Name     string
	RegionID int64
}

// Varietal is a grape variety. Boldness is scored on a fixed personal scale
// so that labels blended from several varietals stay comparable.
type Varietal struct {
	ID       int64
	Name     string
	Boldness int
}

// Blend is the share of one varietal in a label, in percent.
type Blend struct {
	VarietalID int64
	Portion    int
}

// Label is a wine of one vintage from one winery. Labels are never deleted;
// the set grows with every wine ever owned.
type Label struct {
	ID       int64
	WineryID int64
	Name     string
	Vintage  int
	ABV      float64
	Blends   []Blend
}

// Bottle is one physical bottle of a label.
type Bottle struct {
	ID          int64
	LabelID     int64
	Cost        float64
	Acquisition time.Time
	Consumption time.Time // zero while the bottle is in the cellar
	HoldUntil   int
	Position    layout.Position
}

// Consumed reports whether the bottle has been drunk.
func (b Bottle) Consumed() bool { return !b.Consumption.IsZero() }

// Provisional reports whether the bottle was created in this session and
// has no storage ID yet.
func (b Bottle) Provisional() bool { return b.ID < 0 }

// WeightedBoldness is the boldness of each varietal weighted by its portion.
func (c *Cellar) WeightedBoldness(l Label) float64 {
	total := 0.0
	for _, bl := range l.Blends {
		if v, ok := c.varietals[bl.VarietalID]; ok {
			total += float64(v.Boldness) * float64(bl.Portion) / 100
		}
	}
	return total
}

// Description is the human name of a label: "vintage winery name".
func (c *Cellar) Description(l Label) string {
	return fmt.Sprintf("%d %s %s", l.Vintage, c.wineries[l.WineryID].Name, l.Name)
}

// VarietalDescription lists the blend, most prominent varietal first. A
// single varietal is returned bare.
func (c *Cellar) VarietalDescription(l Label) string {
	if len(l.Blends) == 1 {
		return c.varietals[l.Blends[0].VarietalID].Name
	}

	blends := slices.Clone(l.Blends)
	slices.SortStableFunc(blends, func(a, b Blend) int { return cmp.Compare(b.Portion, a.Portion) })

	parts := make([]string, len(blends))
	for i, bl := range blends {
		parts[i] = fmt.Sprintf("%d%% %s", bl.Portion, c.varietals[bl.VarietalID].Name)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// RegionOf returns the region a label's winery belongs to.
func (c *Cellar) RegionOf(l Label) Region {
	return c.regions[c.wineries[l.WineryID].RegionID]
}

// BottleDescription is the description of the bottle's label.
func (c *Cellar) BottleDescription(b Bottle) string {
	return c.Description(c.labels[b.LabelID])
}
