package export

import (
	"io"
	"maps"
	"slices"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/cellar/pkg/cellar"
	"github.com/matzehuels/cellar/pkg/errors"
)

// Sheet names of the inventory workbook.
const (
	SheetBottles     = "Bottles"
	SheetInventory   = "Inventory"
	SheetConsumption = "Consumption"
)

// WriteWorkbook writes an .xlsx workbook with three sheets: every bottle in
// the cellar, the label inventory by hold year as of year, and the
// consumption history by month.
func WriteWorkbook(w io.Writer, c *cellar.Cellar, year int) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E8D6DE"}},
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create header style")
	}

	if err := f.SetSheetName("Sheet1", SheetBottles); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "rename sheet")
	}
	for _, name := range []string{SheetInventory, SheetConsumption} {
		if _, err := f.NewSheet(name); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "add sheet %s", name)
		}
	}

	sheets := []struct {
		name   string
		header []any
		rows   [][]any
		widths map[string]float64
	}{
		{SheetBottles, bottleHeader, bottleRows(c), map[string]float64{"B": 36, "C": 30, "D": 26}},
		{SheetInventory, inventoryHeader(c, year), inventoryRows(c, year), map[string]float64{"A": 36, "B": 30}},
		{SheetConsumption, consumptionHeader, consumptionRows(c), nil},
	}
	for _, s := range sheets {
		if err := writeSheet(f, s.name, header, s.header, s.rows, s.widths); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "write sheet %s", s.name)
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write workbook")
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, style int, header []any, rows [][]any, widths map[string]float64) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	for col, width := range widths {
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

var bottleHeader = []any{"ID", "Wine", "Varietals", "Region", "Cost", "Acquired", "Hold Until", "Boldness", "Cost Row", "Depth"}

func bottleRows(c *cellar.Cellar) [][]any {
	var rows [][]any
	for _, b := range c.Stored() {
		l, _ := c.Label(b.LabelID)
		row := []any{
			b.ID,
			c.Description(l),
			c.VarietalDescription(l),
			c.RegionOf(l).Description(),
			b.Cost,
			b.Acquisition.Format(time.DateOnly),
			b.HoldUntil,
		}
		if coord, ok := b.Position.Coord(); ok {
			row = append(row, coord.Boldness, coord.Cost, coord.Hold)
		}
		rows = append(rows, row)
	}
	return rows
}

// inventoryYears lists every hold year of the in-cellar bottles as of year.
func inventoryYears(c *cellar.Cellar, year int) []int {
	return slices.Sorted(maps.Keys(cellar.InventoryByYear(c.InCellar(), year)))
}

func inventoryHeader(c *cellar.Cellar, year int) []any {
	header := []any{"Wine", "Varietals"}
	for _, y := range inventoryYears(c, year) {
		header = append(header, y)
	}
	return append(header, "Total")
}

func inventoryRows(c *cellar.Cellar, year int) [][]any {
	years := inventoryYears(c, year)
	var rows [][]any
	for _, inv := range c.Inventory(year) {
		row := []any{c.Description(inv.Label), c.VarietalDescription(inv.Label)}
		total := 0
		for _, y := range years {
			n := inv.ByYear[y]
			total += n
			if n == 0 {
				row = append(row, nil)
				continue
			}
			row = append(row, n)
		}
		rows = append(rows, append(row, total))
	}
	return rows
}

var consumptionHeader = []any{"Month", "Bottles", "Cost"}

func consumptionRows(c *cellar.Cellar) [][]any {
	var rows [][]any
	for _, m := range c.ConsumptionByMonth() {
		month := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
		rows = append(rows, []any{month, len(m.Bottles), m.Cost()})
	}
	return rows
}
