package export

import (
	"bytes"
	"slices"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/cellar/pkg/cellar"
	"github.com/matzehuels/cellar/pkg/errors"
	"github.com/matzehuels/cellar/pkg/layout"
)

const testYear = 2024

func at(b, c, h int) layout.Position {
	return layout.PositionedAt(layout.Coord{Boldness: b, Cost: c, Hold: h})
}

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

// buildTestCellar has two Guigal labels and four bottles: two placed, one
// consumed and one waiting for a slot.
func buildTestCellar(t *testing.T) *cellar.Cellar {
	t.Helper()
	c, err := cellar.FromRecords(cellar.Records{
		Regions:   []cellar.Region{{ID: 1, Name: "Rhône", Country: "France"}},
		Wineries:  []cellar.Winery{{ID: 1, Name: "Guigal", RegionID: 1}},
		Varietals: []cellar.Varietal{{ID: 1, Name: "Syrah", Boldness: 8}, {ID: 2, Name: "Grenache", Boldness: 5}},
		Labels: []cellar.Label{
			{ID: 1, WineryID: 1, Name: "Côte-Rôtie", Vintage: 2018,
				Blends: []cellar.Blend{{VarietalID: 1, Portion: 100}}},
			{ID: 2, WineryID: 1, Name: "Côtes du Rhône", Vintage: 2020,
				Blends: []cellar.Blend{{VarietalID: 2, Portion: 60}, {VarietalID: 1, Portion: 40}}},
		},
		Bottles: []cellar.Bottle{
			{ID: 1, LabelID: 1, Cost: 65, Acquisition: day(2023, time.November, 4), HoldUntil: 2028, Position: at(3, 9, 2)},
			{ID: 2, LabelID: 2, Cost: 15, Acquisition: day(2023, time.May, 1), HoldUntil: 2024, Position: at(6, 0, 0)},
			{ID: 3, LabelID: 2, Cost: 15, Acquisition: day(2023, time.May, 1), HoldUntil: 2024, Position: at(6, 1, 0),
				Consumption: day(2024, time.February, 10)},
			{ID: 4, LabelID: 1, Cost: 65, Acquisition: day(2023, time.November, 4), HoldUntil: 2030},
		},
	})
	if err != nil {
		t.Fatalf("FromRecords() error: %v", err)
	}
	return c
}

func assertPDF(t *testing.T, buf *bytes.Buffer) {
	t.Helper()
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", buf.Bytes()[:min(buf.Len(), 16)])
	}
	if buf.Len() < 500 {
		t.Errorf("PDF seems too small: %d bytes", buf.Len())
	}
}

func TestCollectTags(t *testing.T) {
	c := buildTestCellar(t)
	tags := CollectTags(c, c.InCellar())

	if len(tags) != 3 {
		t.Fatalf("CollectTags() returned %d tags, want 3", len(tags))
	}
	if tags[0].Wine != "2018 Guigal Côte-Rôtie" || tags[0].Varietals != "Syrah" {
		t.Errorf("first tag = %+v", tags[0])
	}
	if tags[0].Slot == nil || *tags[0].Slot != (layout.Coord{Boldness: 3, Cost: 9, Hold: 2}) {
		t.Errorf("first tag slot = %v", tags[0].Slot)
	}
	if tags[1].Varietals != "(60% Grenache, 40% Syrah)" {
		t.Errorf("second tag varietals = %q", tags[1].Varietals)
	}
	if tags[2].Slot != nil {
		t.Errorf("unplaced bottle has slot %v", tags[2].Slot)
	}
}

func TestWriteTags(t *testing.T) {
	c := buildTestCellar(t)
	var buf bytes.Buffer
	if err := WriteTags(&buf, c, c.InCellar()); err != nil {
		t.Fatalf("WriteTags() error: %v", err)
	}
	assertPDF(t, &buf)
}

func TestWriteTagsManyPages(t *testing.T) {
	c := buildTestCellar(t)
	b, _ := c.Bottle(4)
	bottles := make([]cellar.Bottle, 35)
	for i := range bottles {
		bottles[i] = b
		bottles[i].ID = int64(100 + i)
	}

	var buf bytes.Buffer
	if err := WriteTags(&buf, c, bottles); err != nil {
		t.Fatalf("WriteTags() error: %v", err)
	}
	assertPDF(t, &buf)
}

func TestWriteTagsEmpty(t *testing.T) {
	c := buildTestCellar(t)
	var buf bytes.Buffer
	if err := WriteTags(&buf, c, nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("WriteTags(nil) error = %v, want INVALID_INPUT", err)
	}
}

func TestRackSlots(t *testing.T) {
	c := buildTestCellar(t)
	grid := RackSlots(c)

	if s := grid[2][9][3]; s == nil || s.Bottle.ID != 1 {
		t.Errorf("slot (3, 9, 2) = %+v, want bottle 1", s)
	}
	if s := grid[0][0][6]; s == nil || s.Wine != "2020 Guigal Côtes du Rhône" {
		t.Errorf("slot (6, 0, 0) = %+v", s)
	}
	if s := grid[0][1][6]; s != nil {
		t.Errorf("consumed bottle still shown at (6, 1, 0): %+v", s)
	}
}

func TestWriteRackMap(t *testing.T) {
	c := buildTestCellar(t)
	var buf bytes.Buffer
	if err := WriteRackMap(&buf, c, "Home cellar"); err != nil {
		t.Fatalf("WriteRackMap() error: %v", err)
	}
	assertPDF(t, &buf)
}

func TestWriteWorkbook(t *testing.T) {
	c := buildTestCellar(t)
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, c, testYear); err != nil {
		t.Fatalf("WriteWorkbook() error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error: %v", err)
	}
	defer f.Close()

	if got, want := f.GetSheetList(), []string{SheetBottles, SheetInventory, SheetConsumption}; !slices.Equal(got, want) {
		t.Fatalf("sheets = %v, want %v", got, want)
	}

	bottles, err := f.GetRows(SheetBottles)
	if err != nil {
		t.Fatalf("GetRows(%s) error: %v", SheetBottles, err)
	}
	if len(bottles) != 4 {
		t.Fatalf("%s has %d rows, want header + 3", SheetBottles, len(bottles))
	}
	if bottles[1][0] != "2" || bottles[1][3] != "Rhône, France" {
		t.Errorf("cheapest bottle row = %v", bottles[1])
	}

	inventory, err := f.GetRows(SheetInventory)
	if err != nil {
		t.Fatalf("GetRows(%s) error: %v", SheetInventory, err)
	}
	wantHeader := []string{"Wine", "Varietals", "2024", "2028", "2030", "Total"}
	if !slices.Equal(inventory[0], wantHeader) {
		t.Errorf("inventory header = %v, want %v", inventory[0], wantHeader)
	}
	if want := []string{"2018 Guigal Côte-Rôtie", "Syrah", "", "1", "1", "2"}; !slices.Equal(inventory[1], want) {
		t.Errorf("boldest label row = %v, want %v", inventory[1], want)
	}

	consumption, err := f.GetRows(SheetConsumption)
	if err != nil {
		t.Fatalf("GetRows(%s) error: %v", SheetConsumption, err)
	}
	if want := []string{"2024-02", "1", "15"}; len(consumption) != 2 || !slices.Equal(consumption[1], want) {
		t.Errorf("consumption rows = %v", consumption)
	}
}
