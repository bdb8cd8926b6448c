// Package export writes printable and spreadsheet views of the cellar:
// QR-coded bottle tags, a rack map and an inventory workbook.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/matzehuels/cellar/pkg/cellar"
	"github.com/matzehuels/cellar/pkg/errors"
	"github.com/matzehuels/cellar/pkg/layout"
)

// TagInfo is the data printed on a bottle tag and encoded in its QR code.
type TagInfo struct {
	BottleID  int64         `json:"id"`
	Wine      string        `json:"wine"`
	Varietals string        `json:"varietals"`
	HoldUntil int           `json:"hold_until"`
	Slot      *layout.Coord `json:"slot,omitempty"`
}

// Tag sheet layout for Avery 5160-compatible labels (3 columns, 10 rows per
// page). Each cell is about 66.7mm x 25.4mm on US Letter paper.
const (
	tagMarginTop  = 12.7
	tagMarginLeft = 4.8
	tagWidth      = 66.7
	tagHeight     = 25.4
	tagCols       = 3
	tagRows       = 10
	tagsPerPage   = tagCols * tagRows
	qrSize        = 20.0
	tagPadding    = 2.0
)

// CollectTags builds the tag data for bottles, in the given order.
func CollectTags(c *cellar.Cellar, bottles []cellar.Bottle) []TagInfo {
	tags := make([]TagInfo, 0, len(bottles))
	for _, b := range bottles {
		l, _ := c.Label(b.LabelID)
		info := TagInfo{
			BottleID:  b.ID,
			Wine:      c.Description(l),
			Varietals: c.VarietalDescription(l),
			HoldUntil: b.HoldUntil,
		}
		if coord, ok := b.Position.Coord(); ok {
			info.Slot = &coord
		}
		tags = append(tags, info)
	}
	return tags
}

// WriteTags renders a PDF sheet of QR-coded tags, one per bottle, and writes
// it to w. Each tag shows the wine, its blend, the hold year and the slot.
func WriteTags(w io.Writer, c *cellar.Cellar, bottles []cellar.Bottle) error {
	tags := CollectTags(c, bottles)
	if len(tags) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no bottles to tag")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for i, tag := range tags {
		if i%tagsPerPage == 0 {
			pdf.AddPage()
		}

		pos := i % tagsPerPage
		x := tagMarginLeft + float64(pos%tagCols)*tagWidth
		y := tagMarginTop + float64(pos/tagCols)*tagHeight

		if err := renderTag(pdf, tr, x, y, tag); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "tag for bottle %d", tag.BottleID)
		}
	}

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write tags")
	}
	return nil
}

func renderTag(pdf *fpdf.Fpdf, tr func(string) string, x, y float64, info TagInfo) error {
	// Cutting guide
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, tagWidth, tagHeight, "D")

	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal tag: %w", err)
	}
	png, err := qrcode.Encode(string(data), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("generate QR code: %w", err)
	}

	name := fmt.Sprintf("qr_%d", info.BottleID)
	pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	pdf.ImageOptions(name, x+tagWidth-qrSize-tagPadding, y+(tagHeight-qrSize)/2, qrSize, qrSize,
		false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + tagPadding
	textW := tagWidth - qrSize - 3*tagPadding

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+tagPadding)
	pdf.CellFormat(textW, 4, fit(pdf, tr(info.Wine), textW), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6.5)
	pdf.SetXY(textX, y+tagPadding+5)
	pdf.CellFormat(textW, 3.5, fit(pdf, tr(info.Varietals), textW), "", 1, "L", false, 0, "")

	pdf.SetXY(textX, y+tagPadding+9)
	pdf.CellFormat(textW, 3.5, fmt.Sprintf("Hold until %d", info.HoldUntil), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+tagPadding+13)
	slot := "No slot"
	if info.Slot != nil {
		slot = "Slot " + info.Slot.String()
	}
	pdf.CellFormat(textW, 3, fmt.Sprintf("#%d  %s", info.BottleID, slot), "", 1, "L", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	return nil
}

// fit truncates s with an ellipsis until it fits width in the current font.
func fit(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}
