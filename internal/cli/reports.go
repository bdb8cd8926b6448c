package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cellar/pkg/cellar"
)

// =============================================================================
// Commands
// =============================================================================

// report opens the cellar read-only and prints what render returns.
func (c *CLI) report(cmd *cobra.Command, render func(s *session) string) error {
	s, err := c.openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Print(render(s))
	return nil
}

func (c *CLI) inventoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inventory",
		Short: "List every label in the cellar by hold year",
		Long: `List every label in the cellar, boldest first, with how many bottles are
ready to drink and how many to hold until each later year.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.report(cmd, func(s *session) string { return renderInventory(s.cellar, s.year()) })
		},
	}
}

func (c *CLI) regionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "Count bottles by country, region and hold year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.report(cmd, func(s *session) string { return renderRegions(s.cellar, s.year()) })
		},
	}
}

func (c *CLI) pastHoldCommand() *cobra.Command {
	var showCost bool

	cmd := &cobra.Command{
		Use:   "past-hold",
		Short: "List bottles whose hold year has passed",
		Long: `List bottles whose hold year lies before the current year and which are
still sitting in the cellar.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.report(cmd, func(s *session) string { return renderPastHold(s.cellar, s.year(), showCost) })
		},
	}

	cmd.Flags().BoolVarP(&showCost, "cost", "c", false, "also show bottle costs")

	return cmd
}

func (c *CLI) yearsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "years",
		Short: "List bottles by the year they are ready to drink",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.report(cmd, func(s *session) string { return renderYears(s.cellar, s.year()) })
		},
	}
}

func (c *CLI) consumptionCommand() *cobra.Command {
	var verbose, showCost bool

	cmd := &cobra.Command{
		Use:   "consumption",
		Short: "Count bottles consumed each month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.report(cmd, func(s *session) string { return renderConsumption(s.cellar, verbose, showCost) })
		},
	}

	cmd.Flags().BoolVarP(&verbose, "bottles", "b", false, "also list the bottles")
	cmd.Flags().BoolVarP(&showCost, "cost", "c", false, "also show bottle costs")

	return cmd
}

// =============================================================================
// Rendering
// =============================================================================

// labelLine is "description  varietals  region" for one label.
func labelLine(c *cellar.Cellar, l cellar.Label) string {
	return StyleBold.Render(c.Description(l)) + "  " +
		StyleHold.Render(c.VarietalDescription(l)) + "  " +
		StyleDim.Render(c.RegionOf(l).Description())
}

// labelCounts groups bottles by label in first-seen order.
func labelCounts(bottles []cellar.Bottle) (order []int64, counts map[int64]int) {
	counts = make(map[int64]int)
	for _, b := range bottles {
		if counts[b.LabelID] == 0 {
			order = append(order, b.LabelID)
		}
		counts[b.LabelID]++
	}
	return order, counts
}

func renderInventory(c *cellar.Cellar, year int) string {
	inv := c.Inventory(year)
	if len(inv) == 0 {
		return "The cellar is empty\n"
	}

	var b strings.Builder
	total := 0
	for _, li := range inv {
		b.WriteString(labelLine(c, li.Label) + "\n")
		for _, y := range slices.Sorted(maps.Keys(li.ByYear)) {
			n := li.ByYear[y]
			total += n
			b.WriteString(StyleSuccess.Render(fmt.Sprintf("  %s to %s", plural(n, "bottle"), holdPhrase(y, year))) + "\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(StyleDim.Render(fmt.Sprintf("%s of %s", plural(total, "bottle"), plural(len(inv), "label"))) + "\n")
	return b.String()
}

func renderRegions(c *cellar.Cellar, year int) string {
	countries := c.ByRegion(year)
	if len(countries) == 0 {
		return "The cellar is empty\n"
	}

	width := len("Region")
	for _, ci := range countries {
		for _, ri := range ci.Regions {
			width = max(width, len([]rune(ri.Region.Name)))
		}
	}
	var years []int
	for y := year; y <= c.LongestHold(year); y++ {
		years = append(years, y)
	}

	var b strings.Builder
	header := fmt.Sprintf("  %-*s %6s", width, "Region", "Total")
	for _, y := range years {
		header += fmt.Sprintf("%6d", y)
	}
	b.WriteString(StyleDim.Render(header) + "\n")

	for _, ci := range countries {
		b.WriteString(StyleBold.Render(ci.Country) + " " + StyleDim.Render("("+plural(ci.Bottles, "bottle")+")") + "\n")
		for _, ri := range ci.Regions {
			b.WriteString(StyleHold.Render(fmt.Sprintf("  %-*s", width, ri.Region.Name)))
			b.WriteString(fmt.Sprintf(" %6d", ri.Bottles))
			for _, y := range years {
				if n := ri.ByYear[y]; n > 0 {
					b.WriteString(StyleSuccess.Render(fmt.Sprintf("%6d", n)))
				} else {
					b.WriteString(StyleDim.Render(fmt.Sprintf("%6s", iconEmpty)))
				}
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderPastHold(c *cellar.Cellar, year int, showCost bool) string {
	bottles := c.BottlesPastHold(year)
	order, counts := labelCounts(bottles)

	total := 0.0
	lines := make([]string, 0, len(order))
	for _, id := range order {
		l, _ := c.Label(id)
		line := labelLine(c, l)
		if showCost {
			avg := c.AveragePrice(id)
			total += avg * float64(counts[id])
			line += "  " + StyleDim.Render(fmt.Sprintf("$%.2f", avg))
		}
		if n := counts[id]; n > 1 {
			line += "  " + StyleSuccess.Render(fmt.Sprintf("(%d bottles)", n))
		}
		lines = append(lines, line)
	}

	title := "Past hold: " + StyleSuccess.Render(plural(len(bottles), "bottle"))
	if showCost {
		title += "  " + StyleDim.Render(fmt.Sprintf("$%.2f", total))
	}

	var b strings.Builder
	b.WriteString(title + "\n")
	for _, line := range lines {
		b.WriteString("      " + line + "\n")
	}
	return b.String()
}

func renderYears(c *cellar.Cellar, year int) string {
	byYear := c.BottlesByYear(year)
	if len(byYear) == 0 {
		return "The cellar is empty\n"
	}

	var b strings.Builder
	for _, y := range slices.Sorted(maps.Keys(byYear)) {
		bottles := byYear[y]
		heading := fmt.Sprintf("%d", y)
		if y == year {
			heading += " (drink now)"
		}
		b.WriteString(StyleHold.Render(heading) + ": " + StyleSuccess.Render(plural(len(bottles), "bottle")) + "\n")

		order, counts := labelCounts(bottles)
		for _, id := range order {
			l, _ := c.Label(id)
			line := "      " + labelLine(c, l)
			if n := counts[id]; n > 1 {
				line += "  " + StyleSuccess.Render(fmt.Sprintf("(%d bottles)", n))
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderConsumption(c *cellar.Cellar, verbose, showCost bool) string {
	months := c.ConsumptionByMonth()
	if len(months) == 0 {
		return "No bottles consumed yet\n"
	}

	var b strings.Builder
	for i, m := range months {
		if i > 0 && months[i-1].Year != m.Year {
			b.WriteString("\n")
		}

		name := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006")
		line := StyleHold.Render(name) + ": " + StyleSuccess.Render(plural(len(m.Bottles), "bottle"))
		if showCost {
			line += "  " + StyleDim.Render(fmt.Sprintf("$%.2f", m.Cost()))
		}
		b.WriteString(line + "\n")

		if verbose {
			for _, bt := range m.Bottles {
				line := "  " + bt.Consumption.Format(dateLayout) + "  " + c.BottleDescription(bt)
				if showCost {
					line += "  " + StyleDim.Render(fmt.Sprintf("$%.2f", bt.Cost))
				}
				b.WriteString(line + "\n")
			}
		}
	}
	return b.String()
}
