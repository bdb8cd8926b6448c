package cellar

import (
	"bytes"
	"slices"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cellar/pkg/errors"
	"github.com/matzehuels/cellar/pkg/layout"
)

const testYear = 2024

// spy records what a Cellar reports.
type spy struct {
	regions, wineries, varietals, labels []int64
	bottles, consumed, moved, cleared    []int64
	labelWineries                        []int64
}

func (s *spy) RecordPositionChange(b layout.Bottle) { s.moved = append(s.moved, b.ID) }
func (s *spy) RecordRegion(r Region)               { s.regions = append(s.regions, r.ID) }
func (s *spy) RecordWinery(w Winery)               { s.wineries = append(s.wineries, w.ID) }
func (s *spy) RecordVarietal(v Varietal)           { s.varietals = append(s.varietals, v.ID) }
func (s *spy) RecordLabel(l Label)                 { s.labels = append(s.labels, l.ID) }
func (s *spy) RecordBottle(b Bottle)               { s.bottles = append(s.bottles, b.ID) }
func (s *spy) RecordConsumption(b Bottle)          { s.consumed = append(s.consumed, b.ID) }
func (s *spy) RecordLabelWinery(l Label)           { s.labelWineries = append(s.labelWineries, l.ID) }
func (s *spy) RecordPositionCleared(b Bottle)      { s.cleared = append(s.cleared, b.ID) }

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

// fixture is a small stored cellar with two labels and five bottles, one of
// them consumed and two positioned.
func fixture(t *testing.T) *Cellar {
	t.Helper()
	c, err := FromRecords(Records{
		Regions: []Region{
			{ID: 1, Name: "Santa Cruz Mountains", Country: "USA"},
			{ID: 2, Name: "Rhône", Country: "France"},
			{ID: 3, Name: "Napa Valley", Country: "USA"},
		},
		Varietals: []Varietal{
			{ID: 1, Name: "Cabernet Sauvignon", Boldness: 9},
			{ID: 2, Name: "Merlot", Boldness: 7},
			{ID: 3, Name: "Grenache", Boldness: 5},
			{ID: 4, Name: "Syrah", Boldness: 8},
		},
		Wineries: []Winery{
			{ID: 1, Name: "Ridge", RegionID: 1},
			{ID: 2, Name: "Guigal", RegionID: 2},
		},
		Labels: []Label{
			{ID: 1, WineryID: 1, Name: "Monte Bello", Vintage: 2019, ABV: 13.5,
				Blends: []Blend{{VarietalID: 2, Portion: 25}, {VarietalID: 1, Portion: 75}}},
			{ID: 2, WineryID: 2, Name: "Côtes du Rhône", Vintage: 2020, ABV: 14,
				Blends: []Blend{{VarietalID: 3, Portion: 60}, {VarietalID: 4, Portion: 40}}},
		},
		Bottles: []Bottle{
			{ID: 1, LabelID: 1, Cost: 250, HoldUntil: 2030,
				Position: layout.PositionedAt(layout.Coord{Boldness: 0, Cost: 11, Hold: 2})},
			{ID: 2, LabelID: 1, Cost: 250, HoldUntil: 2034},
			{ID: 3, LabelID: 2, Cost: 18, HoldUntil: 2022,
				Position: layout.PositionedAt(layout.Coord{Boldness: 6, Cost: 0, Hold: 0})},
			{ID: 4, LabelID: 2, Cost: 18, HoldUntil: testYear},
			{ID: 5, LabelID: 2, Cost: 16, HoldUntil: 2023, Consumption: date(2024, time.February, 3)},
		},
	})
	if err != nil {
		t.Fatalf("FromRecords() error: %v", err)
	}
	return c
}

func TestFromRecordsRejectsDanglingReferences(t *testing.T) {
	tests := []struct {
		name string
		recs Records
	}{
		{"winery region", Records{Wineries: []Winery{{ID: 1, RegionID: 9}}}},
		{"label winery", Records{Labels: []Label{{ID: 1, WineryID: 9}}}},
		{"bottle label", Records{Bottles: []Bottle{{ID: 1, LabelID: 9}}}},
		{
			"blend varietal",
			Records{
				Regions:  []Region{{ID: 1}},
				Wineries: []Winery{{ID: 1, RegionID: 1}},
				Labels:   []Label{{ID: 1, WineryID: 1, Blends: []Blend{{VarietalID: 9, Portion: 100}}}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromRecords(tt.recs); !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("FromRecords() error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestDescriptions(t *testing.T) {
	c := fixture(t)
	monteBello, _ := c.Label(1)
	cdr, _ := c.Label(2)

	if got, want := c.Description(monteBello), "2019 Ridge Monte Bello"; got != want {
		t.Errorf("Description() = %q, want %q", got, want)
	}
	if got, want := c.VarietalDescription(monteBello), "(75% Cabernet Sauvignon, 25% Merlot)"; got != want {
		t.Errorf("VarietalDescription() = %q, want %q", got, want)
	}
	if got, want := c.RegionOf(cdr).Description(), "Rhône, France"; got != want {
		t.Errorf("RegionOf().Description() = %q, want %q", got, want)
	}

	single := Label{WineryID: 1, Blends: []Blend{{VarietalID: 4, Portion: 100}}}
	if got := c.VarietalDescription(single); got != "Syrah" {
		t.Errorf("VarietalDescription(single) = %q, want Syrah", got)
	}
}

func TestWeightedBoldness(t *testing.T) {
	c := fixture(t)
	tests := []struct {
		label int64
		want  float64
	}{
		{1, 8.5},
		{2, 6.2},
	}
	for _, tt := range tests {
		l, _ := c.Label(tt.label)
		if got := c.WeightedBoldness(l); got < tt.want-1e-9 || got > tt.want+1e-9 {
			t.Errorf("WeightedBoldness(label %d) = %v, want %v", tt.label, got, tt.want)
		}
	}
}

func TestInCellarAndStored(t *testing.T) {
	c := fixture(t)

	var ids []int64
	for _, b := range c.InCellar() {
		ids = append(ids, b.ID)
	}
	if !slices.Equal(ids, []int64{1, 2, 3, 4}) {
		t.Errorf("InCellar() = %v", ids)
	}

	ids = ids[:0]
	for _, b := range c.Stored() {
		ids = append(ids, b.ID)
	}
	if !slices.Equal(ids, []int64{3, 4, 1, 2}) {
		t.Errorf("Stored() = %v", ids)
	}
}

func TestAddEntities(t *testing.T) {
	c := fixture(t)
	rec := &spy{}

	region, err := c.AddRegion(" Barossa Valley ", "Australia", rec)
	if err != nil {
		t.Fatalf("AddRegion() error: %v", err)
	}
	if region.ID >= 0 || region.Name != "Barossa Valley" {
		t.Errorf("AddRegion() = %+v", region)
	}
	winery, err := c.AddWinery("Penfolds", region.ID, rec)
	if err != nil {
		t.Fatalf("AddWinery() error: %v", err)
	}
	shiraz, err := c.AddVarietal("Shiraz", 8, rec)
	if err != nil {
		t.Fatalf("AddVarietal() error: %v", err)
	}
	label, err := c.AddLabel(Label{
		WineryID: winery.ID, Name: "Bin 389", Vintage: 2018, ABV: 14.5,
		Blends: []Blend{{VarietalID: 1, Portion: 51}, {VarietalID: shiraz.ID, Portion: 49}},
	}, rec)
	if err != nil {
		t.Fatalf("AddLabel() error: %v", err)
	}

	holds := []HoldCount{{Year: testYear, Count: 2}, {Year: 2030, Count: 1}}
	bottles, err := c.AddBottles(label.ID, 60, date(2024, time.May, 1), holds, rec)
	if err != nil {
		t.Fatalf("AddBottles() error: %v", err)
	}
	if len(bottles) != 3 {
		t.Fatalf("AddBottles() returned %d bottles, want 3", len(bottles))
	}

	seen := make(map[int64]bool)
	for _, id := range []int64{region.ID, winery.ID, shiraz.ID, label.ID} {
		seen[id] = true
	}
	for _, b := range bottles {
		if !b.Provisional() || b.Position.IsSet() {
			t.Errorf("new bottle %+v", b)
		}
		seen[b.ID] = true
	}
	if len(seen) != 7 {
		t.Errorf("provisional IDs collide: %v", seen)
	}

	if len(rec.regions) != 1 || len(rec.wineries) != 1 || len(rec.varietals) != 1 ||
		len(rec.labels) != 1 || len(rec.bottles) != 3 {
		t.Errorf("recorded %+v", rec)
	}
}

func TestAddValidation(t *testing.T) {
	c := fixture(t)

	tests := []struct {
		name string
		add  func() error
		code errors.Code
	}{
		{"duplicate region", func() error {
			_, err := c.AddRegion("rhône", "FRANCE", Discard)
			return err
		}, errors.ErrCodeInvalidInput},
		{"region without country", func() error {
			_, err := c.AddRegion("Mosel", " ", Discard)
			return err
		}, errors.ErrCodeInvalidInput},
		{"winery in unknown region", func() error {
			_, err := c.AddWinery("Dönnhoff", 42, Discard)
			return err
		}, errors.ErrCodeNotFound},
		{"duplicate winery", func() error {
			_, err := c.AddWinery("ridge", 1, Discard)
			return err
		}, errors.ErrCodeInvalidInput},
		{"negative boldness", func() error {
			_, err := c.AddVarietal("Riesling", -1, Discard)
			return err
		}, errors.ErrCodeInvalidInput},
		{"blend short of 100", func() error {
			_, err := c.AddLabel(Label{WineryID: 1, Name: "Geyserville", Vintage: 2021,
				Blends: []Blend{{VarietalID: 1, Portion: 90}}}, Discard)
			return err
		}, errors.ErrCodeInvalidInput},
		{"blend repeats varietal", func() error {
			_, err := c.AddLabel(Label{WineryID: 1, Name: "Geyserville", Vintage: 2021,
				Blends: []Blend{{VarietalID: 1, Portion: 50}, {VarietalID: 1, Portion: 50}}}, Discard)
			return err
		}, errors.ErrCodeInvalidInput},
		{"duplicate label", func() error {
			_, err := c.AddLabel(Label{WineryID: 1, Name: "Monte Bello", Vintage: 2019,
				Blends: []Blend{{VarietalID: 1, Portion: 100}}}, Discard)
			return err
		}, errors.ErrCodeInvalidInput},
		{"bottles of unknown label", func() error {
			_, err := c.AddBottles(42, 10, time.Now(), []HoldCount{{Year: testYear, Count: 1}}, Discard)
			return err
		}, errors.ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.add(); !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestConsume(t *testing.T) {
	c := fixture(t)
	rec := &spy{}

	b, err := c.Consume(3, date(2024, time.June, 1), rec)
	if err != nil {
		t.Fatalf("Consume() error: %v", err)
	}
	if !b.Consumed() || !b.Position.IsSet() {
		t.Errorf("consumed bottle = %+v", b)
	}
	if !slices.Equal(rec.consumed, []int64{3}) {
		t.Errorf("recorded consumptions %v", rec.consumed)
	}
	for _, lb := range c.LayoutBottles() {
		if lb.ID == 3 {
			t.Error("consumed bottle still in layout")
		}
	}

	if _, err := c.Consume(3, date(2024, time.June, 2), rec); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("second Consume() error = %v, want INVALID_INPUT", err)
	}
	if _, err := c.Consume(99, date(2024, time.June, 2), rec); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Consume(unknown) error = %v, want NOT_FOUND", err)
	}
}

func TestSetLabelWinery(t *testing.T) {
	c := fixture(t)
	rec := &spy{}

	l, err := c.SetLabelWinery(2, 1, rec)
	if err != nil {
		t.Fatalf("SetLabelWinery() error: %v", err)
	}
	if l.WineryID != 1 || !slices.Equal(rec.labelWineries, []int64{2}) {
		t.Errorf("label = %+v, recorded %v", l, rec.labelWineries)
	}

	if _, err := c.SetLabelWinery(2, 1, rec); err != nil || len(rec.labelWineries) != 1 {
		t.Errorf("no-op move recorded a change: %v", err)
	}
}

func TestLayoutBottles(t *testing.T) {
	c := fixture(t)
	got := c.LayoutBottles()
	if len(got) != 4 {
		t.Fatalf("LayoutBottles() returned %d bottles, want 4", len(got))
	}

	first := got[0]
	if first.ID != 1 || first.Producer != "Ridge" || first.Label != "Monte Bello" ||
		first.Vintage != 2019 || first.Boldness != 8.5 || !first.Position.IsSet() {
		t.Errorf("LayoutBottles()[0] = %+v", first)
	}
}

func TestPositionBottles(t *testing.T) {
	c := fixture(t)
	rec := &spy{}

	var buf bytes.Buffer
	opts := layout.Options{CurrentYear: testYear, Logger: log.New(&buf)}
	if _, err := c.PositionBottles(opts, rec); err != nil {
		t.Fatalf("PositionBottles() error: %v", err)
	}

	if !slices.Equal(rec.moved, []int64{4, 2}) && !slices.Equal(rec.moved, []int64{2, 4}) {
		t.Errorf("moved = %v, want bottles 2 and 4", rec.moved)
	}
	for _, b := range c.InCellar() {
		if !b.Position.IsSet() {
			t.Errorf("bottle %d left unpositioned", b.ID)
		}
	}
	if b, _ := c.Bottle(1); b.Position != layout.PositionedAt(layout.Coord{Boldness: 0, Cost: 11, Hold: 2}) {
		t.Errorf("positioned bottle moved to %s", b.Position)
	}
	if b, _ := c.Bottle(4); mustHold(t, b) != 0 {
		t.Errorf("drink-now bottle at hold %d", mustHold(t, b))
	}
}

func mustHold(t *testing.T, b Bottle) int {
	t.Helper()
	coord, ok := b.Position.Coord()
	if !ok {
		t.Fatalf("bottle %d has no position", b.ID)
	}
	return coord.Hold
}

func TestDefrag(t *testing.T) {
	c := fixture(t)
	rec := &spy{}

	opts := layout.Options{CurrentYear: testYear, Logger: log.New(&bytes.Buffer{})}
	if _, err := c.Defrag(opts, rec); err != nil {
		t.Fatalf("Defrag() error: %v", err)
	}
	if !slices.Equal(rec.cleared, []int64{1, 3}) {
		t.Errorf("cleared = %v, want [1 3]", rec.cleared)
	}
	if len(rec.moved) != 4 {
		t.Errorf("moved %d bottles, want 4", len(rec.moved))
	}
	if b, _ := c.Bottle(5); b.Position.IsSet() {
		t.Error("consumed bottle was positioned")
	}
}

func TestPositionBottlesEmptyCellar(t *testing.T) {
	c := New()
	_, err := c.PositionBottles(layout.Options{CurrentYear: testYear}, Discard)
	if !errors.Is(err, errors.ErrCodeDegenerateBinning) {
		t.Errorf("PositionBottles() error = %v, want DEGENERATE_BINNING", err)
	}
}
