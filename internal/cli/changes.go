package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/cellar/pkg/cellar"
	"github.com/matzehuels/cellar/pkg/changelog"
	"github.com/matzehuels/cellar/pkg/layout"
)

// renderChanges describes every change in l for review before commit:
// cleared slots, new entities, consumptions, moves grouped by rack column
// and winery reassignments, in that order. Hold years up to year read as
// drink now.
func renderChanges(c *cellar.Cellar, l *changelog.Log, year int) string {
	var b strings.Builder
	line := func(action, format string, args ...any) {
		b.WriteString(action + " " + fmt.Sprintf(format, args...) + "\n")
	}

	for _, pc := range l.Cleared() {
		bottle, _ := c.Bottle(pc.BottleID)
		line(StyleError.Render("Clear position for"), "%s %s",
			bottleRef(pc.BottleID), StyleBold.Render(c.BottleDescription(bottle)))
	}

	for _, r := range l.Regions() {
		line(StyleSuccess.Render("New region:"), "%s", StyleBold.Render(r.Description()))
	}
	for _, w := range l.Wineries() {
		r, _ := c.Region(w.RegionID)
		line(StyleSuccess.Render("New winery:"), "%s in %s", StyleBold.Render(w.Name), r.Description())
	}
	for _, lb := range l.Labels() {
		line(StyleSuccess.Render("New label:"), "%s, %s, %.1f%% abv",
			StyleBold.Render(c.Description(lb)), c.VarietalDescription(lb), lb.ABV)
	}
	for _, v := range l.Varietals() {
		line(StyleSuccess.Render("New varietal:"), "%s, boldness %d", StyleBold.Render(v.Name), v.Boldness)
	}

	for i, group := range groupByLabel(l.Bottles()) {
		if i > 0 {
			b.WriteString("\n")
		}
		lb, _ := c.Label(group[0].LabelID)
		action := "New bottle:"
		if len(group) > 1 {
			action = "New bottles:"
		}
		line(StyleSuccess.Render(action), "%s", StyleBold.Render(c.Description(lb)))

		years := make(map[int]int)
		for _, bt := range group {
			years[bt.HoldUntil]++
		}
		for _, y := range slices.Sorted(maps.Keys(years)) {
			b.WriteString(StyleHold.Render(fmt.Sprintf("  %s to %s", plural(years[y], "bottle"), holdPhrase(y, year))) + "\n")
		}
	}

	for _, bt := range l.Consumptions() {
		where := "unplaced"
		if coord, ok := bt.Position.Coord(); ok {
			where = "stored at " + coord.String()
		}
		line(StyleError.Render("Consumed"), "%s %s, %s, on %s",
			bottleRef(bt.ID), StyleBold.Render(c.BottleDescription(bt)), where, bt.Consumption.Format(dateLayout))
	}

	lastColumn, lastRow := -1, -1
	for _, pc := range l.Positions() {
		to, _ := pc.To.Coord()
		switch {
		case to.Boldness != lastColumn:
			b.WriteString("\n" + StyleSuccess.Render(fmt.Sprintf("-------- Column %d --------", to.Boldness)) + "\n")
		case to.Cost != lastRow:
			b.WriteString("\n")
		}
		lastColumn, lastRow = to.Boldness, to.Cost

		bottle, _ := c.Bottle(pc.BottleID)
		line(StyleHold.Render("Move"), "%s %s %s", bottleRef(pc.BottleID),
			StyleBold.Render(c.BottleDescription(bottle)), StyleHold.Render(movePhrase(pc.From, to)))
	}
	if n := l.Unmoved(); n > 0 {
		verb := " stay in place"
		if n == 1 {
			verb = " stays in place"
		}
		b.WriteString("\n" + StyleDim.Render(plural(n, "bottle")+verb) + "\n")
	}

	for _, lb := range l.LabelWineries() {
		line(StyleSuccess.Render("Change winery:"), "%s (%s)",
			StyleBold.Render(c.Description(lb)), StyleDim.Render(c.RegionOf(lb).Description()))
	}

	return b.String()
}

// groupByLabel splits bottles by label, keeping the order in which labels
// first appear.
func groupByLabel(bottles []cellar.Bottle) [][]cellar.Bottle {
	var groups [][]cellar.Bottle
	index := make(map[int64]int)
	for _, bt := range bottles {
		i, ok := index[bt.LabelID]
		if !ok {
			i = len(groups)
			index[bt.LabelID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], bt)
	}
	return groups
}

// holdPhrase reads "drink now" for year and "hold until Y" for later years.
func holdPhrase(holdUntil, year int) string {
	if holdUntil <= year {
		return "drink now"
	}
	return fmt.Sprintf("hold until %d", holdUntil)
}

func movePhrase(from layout.Position, to layout.Coord) string {
	if f, ok := from.Coord(); ok {
		return fmt.Sprintf("from %s to %s", f, to)
	}
	return "to " + to.String()
}

// bottleRef shows a bottle ID. Bottles created in this session have no
// stored ID yet and show as "new".
func bottleRef(id int64) string {
	if id < 0 {
		return StyleDim.Render("(new)")
	}
	return StyleNumber.Render(fmt.Sprintf("#%d", id))
}
