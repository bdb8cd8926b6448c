package cellar

import (
	"cmp"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/cellar/pkg/errors"
	"github.com/matzehuels/cellar/pkg/layout"
)

// Recorder receives every change a Cellar makes so it can be reviewed and
// persisted as one session.
type Recorder interface {
	layout.ChangeLogger
	RecordRegion(r Region)
	RecordWinery(w Winery)
	RecordVarietal(v Varietal)
	RecordLabel(l Label)
	RecordBottle(b Bottle)
	RecordConsumption(b Bottle)
	RecordLabelWinery(l Label)
	RecordPositionCleared(b Bottle)
}

// Cellar is the in-memory view of every region, winery, varietal, label and
// bottle. Entities created in this session get negative provisional IDs
// until they are committed.
//
// A Cellar is not safe for concurrent use.
type Cellar struct {
	regions   map[int64]Region
	wineries  map[int64]Winery
	varietals map[int64]Varietal
	labels    map[int64]Label
	bottles   map[int64]Bottle

	nextID int64
}

// New returns an empty cellar.
func New() *Cellar {
	return &Cellar{
		regions:   make(map[int64]Region),
		wineries:  make(map[int64]Winery),
		varietals: make(map[int64]Varietal),
		labels:    make(map[int64]Label),
		bottles:   make(map[int64]Bottle),
		nextID:    -1,
	}
}

// Records holds stored entities for [FromRecords].
type Records struct {
	Regions   []Region
	Wineries  []Winery
	Varietals []Varietal
	Labels    []Label
	Bottles   []Bottle
}

// FromRecords builds a cellar from stored entities and checks that every
// reference resolves.
func FromRecords(r Records) (*Cellar, error) {
	c := New()
	for _, x := range r.Regions {
		c.regions[x.ID] = x
	}
	for _, x := range r.Varietals {
		c.varietals[x.ID] = x
	}
	for _, x := range r.Wineries {
		if _, ok := c.regions[x.RegionID]; !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "winery %d: unknown region %d", x.ID, x.RegionID)
		}
		c.wineries[x.ID] = x
	}
	for _, x := range r.Labels {
		if _, ok := c.wineries[x.WineryID]; !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "label %d: unknown winery %d", x.ID, x.WineryID)
		}
		for _, bl := range x.Blends {
			if _, ok := c.varietals[bl.VarietalID]; !ok {
				return nil, errors.New(errors.ErrCodeInvalidInput, "label %d: unknown varietal %d", x.ID, bl.VarietalID)
			}
		}
		c.labels[x.ID] = x
	}
	for _, x := range r.Bottles {
		if _, ok := c.labels[x.LabelID]; !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "bottle %d: unknown label %d", x.ID, x.LabelID)
		}
		c.bottles[x.ID] = x
	}
	return c, nil
}

func (c *Cellar) provisionalID() int64 {
	id := c.nextID
	c.nextID--
	return id
}

func sortedValues[T any](m map[int64]T) []T {
	out := make([]T, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		out = append(out, m[k])
	}
	return out
}

// Regions returns every region ordered by ID.
func (c *Cellar) Regions() []Region { return sortedValues(c.regions) }

// Wineries returns every winery ordered by ID.
func (c *Cellar) Wineries() []Winery { return sortedValues(c.wineries) }

// Varietals returns every varietal ordered by ID.
func (c *Cellar) Varietals() []Varietal { return sortedValues(c.varietals) }

// Labels returns every label ordered by ID.
func (c *Cellar) Labels() []Label { return sortedValues(c.labels) }

// Bottles returns every bottle, consumed or not, ordered by ID.
func (c *Cellar) Bottles() []Bottle { return sortedValues(c.bottles) }

func (c *Cellar) Region(id int64) (Region, bool) {
	r, ok := c.regions[id]
	return r, ok
}

func (c *Cellar) Winery(id int64) (Winery, bool) {
	w, ok := c.wineries[id]
	return w, ok
}

func (c *Cellar) Varietal(id int64) (Varietal, bool) {
	v, ok := c.varietals[id]
	return v, ok
}

func (c *Cellar) Label(id int64) (Label, bool) {
	l, ok := c.labels[id]
	return l, ok
}

func (c *Cellar) Bottle(id int64) (Bottle, bool) {
	b, ok := c.bottles[id]
	return b, ok
}

// FindRegion looks a region up by name and country, ignoring case.
func (c *Cellar) FindRegion(name, country string) (Region, bool) {
	for _, r := range c.Regions() {
		if strings.EqualFold(r.Name, name) && strings.EqualFold(r.Country, country) {
			return r, true
		}
	}
	return Region{}, false
}

// FindWinery looks a winery up by name, ignoring case.
func (c *Cellar) FindWinery(name string) (Winery, bool) {
	for _, w := range c.Wineries() {
		if strings.EqualFold(w.Name, name) {
			return w, true
		}
	}
	return Winery{}, false
}

// FindVarietal looks a varietal up by name, ignoring case.
func (c *Cellar) FindVarietal(name string) (Varietal, bool) {
	for _, v := range c.Varietals() {
		if strings.EqualFold(v.Name, name) {
			return v, true
		}
	}
	return Varietal{}, false
}

// FindLabel returns the label of a winery with the given name and vintage.
func (c *Cellar) FindLabel(wineryID int64, name string, vintage int) (Label, bool) {
	for _, l := range c.Labels() {
		if l.WineryID == wineryID && strings.EqualFold(l.Name, name) && l.Vintage == vintage {
			return l, true
		}
	}
	return Label{}, false
}

// InCellar returns the bottles not yet consumed, ordered by ID.
func (c *Cellar) InCellar() []Bottle {
	var out []Bottle
	for _, b := range c.Bottles() {
		if !b.Consumed() {
			out = append(out, b)
		}
	}
	return out
}

// Stored returns in-cellar bottles ordered by cost, then winery, label and
// vintage, keeping bottles of one wine together.
func (c *Cellar) Stored() []Bottle {
	out := c.InCellar()
	slices.SortStableFunc(out, func(a, b Bottle) int {
		la, lb := c.labels[a.LabelID], c.labels[b.LabelID]
		return cmp.Or(
			cmp.Compare(a.Cost, b.Cost),
			cmp.Compare(c.wineries[la.WineryID].Name, c.wineries[lb.WineryID].Name),
			cmp.Compare(la.Name, lb.Name),
			cmp.Compare(la.Vintage, lb.Vintage),
		)
	})
	return out
}

// AddRegion creates a region.
func (c *Cellar) AddRegion(name, country string, rec Recorder) (Region, error) {
	name, country = strings.TrimSpace(name), strings.TrimSpace(country)
	if name == "" || country == "" {
		return Region{}, errors.New(errors.ErrCodeInvalidInput, "region needs a name and a country")
	}
	if _, ok := c.FindRegion(name, country); ok {
		return Region{}, errors.New(errors.ErrCodeInvalidInput, "region %q already exists", name+", "+country)
	}

	r := Region{ID: c.provisionalID(), Name: name, Country: country}
	c.regions[r.ID] = r
	rec.RecordRegion(r)
	return r, nil
}

// AddWinery creates a winery in an existing region.
func (c *Cellar) AddWinery(name string, regionID int64, rec Recorder) (Winery, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Winery{}, errors.New(errors.ErrCodeInvalidInput, "winery needs a name")
	}
	if _, ok := c.regions[regionID]; !ok {
		return Winery{}, errors.New(errors.ErrCodeNotFound, "region %d not found", regionID)
	}
	if _, ok := c.FindWinery(name); ok {
		return Winery{}, errors.New(errors.ErrCodeInvalidInput, "winery %q already exists", name)
	}

	w := Winery{ID: c.provisionalID(), Name: name, RegionID: regionID}
	c.wineries[w.ID] = w
	rec.RecordWinery(w)
	return w, nil
}

// AddVarietal creates a varietal.
func (c *Cellar) AddVarietal(name string, boldness int, rec Recorder) (Varietal, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Varietal{}, errors.New(errors.ErrCodeInvalidInput, "varietal needs a name")
	}
	if boldness < 0 {
		return Varietal{}, errors.New(errors.ErrCodeInvalidInput, "varietal %q: negative boldness %d", name, boldness)
	}
	if _, ok := c.FindVarietal(name); ok {
		return Varietal{}, errors.New(errors.ErrCodeInvalidInput, "varietal %q already exists", name)
	}

	v := Varietal{ID: c.provisionalID(), Name: name, Boldness: boldness}
	c.varietals[v.ID] = v
	rec.RecordVarietal(v)
	return v, nil
}

// AddLabel creates a label. Blend portions must be positive, name known
// varietals at most once, and sum to 100.
func (c *Cellar) AddLabel(l Label, rec Recorder) (Label, error) {
	l.Name = strings.TrimSpace(l.Name)
	if l.Name == "" {
		return Label{}, errors.New(errors.ErrCodeInvalidInput, "label needs a name")
	}
	if _, ok := c.wineries[l.WineryID]; !ok {
		return Label{}, errors.New(errors.ErrCodeNotFound, "winery %d not found", l.WineryID)
	}
	if _, ok := c.FindLabel(l.WineryID, l.Name, l.Vintage); ok {
		return Label{}, errors.New(errors.ErrCodeInvalidInput, "label %d %q already exists", l.Vintage, l.Name)
	}
	if len(l.Blends) == 0 {
		return Label{}, errors.New(errors.ErrCodeInvalidInput, "label %q has no varietals", l.Name)
	}

	total := 0
	seen := make(map[int64]bool, len(l.Blends))
	for _, bl := range l.Blends {
		if _, ok := c.varietals[bl.VarietalID]; !ok {
			return Label{}, errors.New(errors.ErrCodeNotFound, "varietal %d not found", bl.VarietalID)
		}
		if seen[bl.VarietalID] {
			return Label{}, errors.New(errors.ErrCodeInvalidInput, "label %q lists varietal %d twice", l.Name, bl.VarietalID)
		}
		if bl.Portion <= 0 {
			return Label{}, errors.New(errors.ErrCodeInvalidInput, "label %q: portion must be positive", l.Name)
		}
		seen[bl.VarietalID] = true
		total += bl.Portion
	}
	if total != 100 {
		return Label{}, errors.New(errors.ErrCodeInvalidInput, "label %q: blend sums to %d%%", l.Name, total)
	}

	l.ID = c.provisionalID()
	l.Blends = slices.Clone(l.Blends)
	c.labels[l.ID] = l
	rec.RecordLabel(l)
	return l, nil
}

// AddBottles creates unpositioned bottles of a label, one per hold year
// occurrence in holds.
func (c *Cellar) AddBottles(labelID int64, cost float64, acquired time.Time, holds []HoldCount, rec Recorder) ([]Bottle, error) {
	if _, ok := c.labels[labelID]; !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "label %d not found", labelID)
	}
	if cost < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "negative cost %.2f", cost)
	}

	var added []Bottle
	for _, h := range holds {
		for i := 0; i < h.Count; i++ {
			b := Bottle{
				ID:          c.provisionalID(),
				LabelID:     labelID,
				Cost:        cost,
				Acquisition: acquired,
				HoldUntil:   h.Year,
				Position:    layout.Unpositioned(),
			}
			c.bottles[b.ID] = b
			rec.RecordBottle(b)
			added = append(added, b)
		}
	}
	return added, nil
}

// Consume marks a bottle as drunk on the given date. The bottle keeps its
// last position as a record of where it was stored, but no longer takes
// part in the layout.
func (c *Cellar) Consume(id int64, on time.Time, rec Recorder) (Bottle, error) {
	b, ok := c.bottles[id]
	if !ok {
		return Bottle{}, errors.New(errors.ErrCodeNotFound, "bottle %d not found", id)
	}
	if b.Consumed() {
		return Bottle{}, errors.New(errors.ErrCodeInvalidInput,
			"bottle %d was already consumed on %s", id, b.Consumption.Format(time.DateOnly))
	}
	if on.IsZero() {
		return Bottle{}, errors.New(errors.ErrCodeInvalidInput, "consumption date is required")
	}

	b.Consumption = on
	c.bottles[id] = b
	rec.RecordConsumption(b)
	return b, nil
}

// SetLabelWinery moves a label to another winery, as when a producer turns
// out to span several regions.
func (c *Cellar) SetLabelWinery(labelID, wineryID int64, rec Recorder) (Label, error) {
	l, ok := c.labels[labelID]
	if !ok {
		return Label{}, errors.New(errors.ErrCodeNotFound, "label %d not found", labelID)
	}
	if _, ok := c.wineries[wineryID]; !ok {
		return Label{}, errors.New(errors.ErrCodeNotFound, "winery %d not found", wineryID)
	}
	if l.WineryID == wineryID {
		return l, nil
	}

	l.WineryID = wineryID
	c.labels[labelID] = l
	rec.RecordLabelWinery(l)
	return l, nil
}

// ClearPositions removes the position of every bottle in the cellar so that
// the next layout places everything from scratch.
func (c *Cellar) ClearPositions(rec Recorder) {
	for _, b := range c.InCellar() {
		if !b.Position.IsSet() {
			continue
		}
		rec.RecordPositionCleared(b)
		b.Position = layout.Unpositioned()
		c.bottles[b.ID] = b
	}
}

// LayoutBottles converts the in-cellar bottles to the layout engine's view.
func (c *Cellar) LayoutBottles() []layout.Bottle {
	stored := c.InCellar()
	out := make([]layout.Bottle, len(stored))
	for i, b := range stored {
		l := c.labels[b.LabelID]
		out[i] = layout.Bottle{
			ID:        b.ID,
			Cost:      b.Cost,
			Boldness:  c.WeightedBoldness(l),
			HoldUntil: b.HoldUntil,
			Producer:  c.wineries[l.WineryID].Name,
			Label:     l.Name,
			Vintage:   l.Vintage,
			Position:  b.Position,
		}
	}
	return out
}

// ComputeLayout bins the in-cellar bottles and routes them to their stacks.
func (c *Cellar) ComputeLayout(opts layout.Options) (*layout.Divido, error) {
	return layout.New(c.LayoutBottles(), opts)
}

// ApplyLayout copies positions computed by the layout engine back onto the
// cellar's bottles.
func (c *Cellar) ApplyLayout(bottles []layout.Bottle) error {
	for _, lb := range bottles {
		b, ok := c.bottles[lb.ID]
		if !ok {
			return errors.New(errors.ErrCodeNotFound, "bottle %d not found", lb.ID)
		}
		b.Position = lb.Position
		c.bottles[lb.ID] = b
	}
	return nil
}

// PositionBottles places every unpositioned bottle and applies the result.
// Nothing changes when the layout fails.
func (c *Cellar) PositionBottles(opts layout.Options, rec Recorder) (*layout.Divido, error) {
	d, err := c.ComputeLayout(opts)
	if err != nil {
		return nil, err
	}
	if err := d.PositionBottles(rec); err != nil {
		return nil, err
	}
	if err := c.ApplyLayout(d.Bottles()); err != nil {
		return nil, err
	}
	if opts.Logger != nil {
		opts.Logger.Debug("layout applied", "bottles", len(d.Bottles()), "migrations", len(d.Migrations()))
	}
	return d, nil
}

// Defrag clears every position and lays the whole cellar out again. Bottles
// whose hold year has arrived move to the drink-now depth.
func (c *Cellar) Defrag(opts layout.Options, rec Recorder) (*layout.Divido, error) {
	saved := maps.Clone(c.bottles)
	c.ClearPositions(rec)

	d, err := c.PositionBottles(opts, rec)
	if err != nil {
		c.bottles = saved
		return nil, err
	}
	return d, nil
}

// discard is a Recorder that drops everything.
type discard struct{}

func (discard) RecordPositionChange(layout.Bottle) {}
func (discard) RecordRegion(Region)                {}
func (discard) RecordWinery(Winery)                {}
func (discard) RecordVarietal(Varietal)            {}
func (discard) RecordLabel(Label)                  {}
func (discard) RecordBottle(Bottle)                {}
func (discard) RecordConsumption(Bottle)           {}
func (discard) RecordLabelWinery(Label)            {}
func (discard) RecordPositionCleared(Bottle)       {}

// Discard is a Recorder for callers that do not need a change log.
var Discard Recorder = discard{}
