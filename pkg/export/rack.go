package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/matzehuels/cellar/pkg/cellar"
	"github.com/matzehuels/cellar/pkg/errors"
	"github.com/matzehuels/cellar/pkg/layout"
)

// Rack map page layout (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 12.0
	headerHeight = 10.0
	axisWidth    = 10.0
	axisHeight   = 6.0
)

// depthNames titles the rack map pages, front to back.
var depthNames = [layout.NumHoldLevels]string{"Front (drink now)", "Middle", "Back"}

// Slot is one occupied rack slot.
type Slot struct {
	Coord  layout.Coord
	Bottle cellar.Bottle
	Wine   string
}

// RackSlots returns the occupied slots of the in-cellar bottles, indexed by
// hold, cost and boldness coordinate.
func RackSlots(c *cellar.Cellar) [layout.NumHoldLevels][layout.NumCostLevels][layout.NumBoldLevels]*Slot {
	var grid [layout.NumHoldLevels][layout.NumCostLevels][layout.NumBoldLevels]*Slot
	for _, b := range c.InCellar() {
		coord, ok := b.Position.Coord()
		if !ok || !coord.Valid() {
			continue
		}
		l, _ := c.Label(b.LabelID)
		grid[coord.Hold][coord.Cost][coord.Boldness] = &Slot{Coord: coord, Bottle: b, Wine: c.Description(l)}
	}
	return grid
}

// WriteRackMap renders one A4 page per rack depth with a cell for every
// slot, boldest column on the left and most expensive row on top, and
// writes the PDF to w.
func WriteRackMap(w io.Writer, c *cellar.Cellar, title string) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	grid := RackSlots(c)
	for hold := range layout.NumHoldLevels {
		pdf.AddPage()
		renderDepth(pdf, tr, title, hold, &grid[hold])
	}

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write rack map")
	}
	return nil
}

func renderDepth(pdf *fpdf.Fpdf, tr func(string) string, title string, hold int, slots *[layout.NumCostLevels][layout.NumBoldLevels]*Slot) {
	used := 0
	for _, row := range slots {
		for _, s := range row {
			if s != nil {
				used++
			}
		}
	}

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, marginTop)
	heading := fmt.Sprintf("%s: %s", tr(title), depthNames[hold])
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, heading, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Depth %d | %d of %d slots used", hold, used, layout.NumBoldLevels*layout.NumCostLevels)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	top := marginTop + headerHeight + 8
	cellW := (pageWidth - marginLeft - marginRight - axisWidth) / layout.NumBoldLevels
	cellH := (pageHeight - top - marginBottom - axisHeight) / layout.NumCostLevels
	left := marginLeft + axisWidth

	// Boldness axis along the bottom.
	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(80, 80, 80)
	for b := range layout.NumBoldLevels {
		label := fmt.Sprintf("B%d", b)
		if b == 0 {
			label = "B0 boldest"
		}
		pdf.SetXY(left+float64(b)*cellW, top+float64(layout.NumCostLevels)*cellH+1)
		pdf.CellFormat(cellW, 4, label, "", 0, "C", false, 0, "")
	}

	for row := range layout.NumCostLevels {
		cost := layout.NumCostLevels - 1 - row
		y := top + float64(row)*cellH

		pdf.SetFont("Helvetica", "", 7)
		pdf.SetTextColor(80, 80, 80)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(axisWidth-1, cellH, fmt.Sprintf("C%d", cost), "", 0, "R", false, 0, "")

		for b := range layout.NumBoldLevels {
			x := left + float64(b)*cellW
			s := slots[cost][b]

			pdf.SetDrawColor(120, 120, 120)
			pdf.SetLineWidth(0.2)
			if s == nil {
				pdf.SetFillColor(250, 250, 250)
				pdf.Rect(x, y, cellW, cellH, "FD")
				continue
			}

			pdf.SetFillColor(232, 214, 222)
			pdf.Rect(x, y, cellW, cellH, "FD")

			pdf.SetTextColor(0, 0, 0)
			pdf.SetFont("Helvetica", "B", 7)
			pdf.SetXY(x+0.5, y+0.5)
			pdf.CellFormat(cellW-1, 3.5, fmt.Sprintf("#%d", s.Bottle.ID), "", 0, "L", false, 0, "")

			pdf.SetFont("Helvetica", "", 5.5)
			pdf.SetXY(x+0.5, y+4)
			pdf.CellFormat(cellW-1, 3, fit(pdf, tr(s.Wine), cellW-1), "", 0, "L", false, 0, "")
			if cellH > 10 {
				pdf.SetXY(x+0.5, y+7)
				pdf.CellFormat(cellW-1, 3, fmt.Sprintf("%d  $%.0f", s.Bottle.HoldUntil, s.Bottle.Cost), "", 0, "L", false, 0, "")
			}
		}
	}

	pdf.SetTextColor(0, 0, 0)
}
