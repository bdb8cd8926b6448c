package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cellar/pkg/cellar"
	"github.com/matzehuels/cellar/pkg/errors"
	"github.com/matzehuels/cellar/pkg/export"
	"github.com/matzehuels/cellar/pkg/layout"
	"github.com/matzehuels/cellar/pkg/observability"
)

// positionCommand places bottles that have no slot yet.
func (c *CLI) positionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "position",
		Short: "Find slots for bottles that have none",
		Long: `Find slots for bottles that have none.

New bottles are binned by boldness, cost and hold year against the whole
cellar and put into free slots of the matching stack. Bottles already in the
rack stay where they are. When a stack is full its surplus moves to the
nearest neighbouring stack with room, and a warning says so.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd, false)
		},
	}
}

// defragCommand clears every slot and lays the rack out again.
func (c *CLI) defragCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "defrag",
		Short: "Lay the whole rack out again from scratch",
		Long: `Lay the whole rack out again from scratch.

Every slot is cleared and all bottles are placed as if they were new. Bottles
whose hold year has arrived move to the drink-now depth. Only bottles that
end up somewhere else are listed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd, true)
		},
	}
}

func (c *CLI) runLayout(cmd *cobra.Command, defrag bool) error {
	ctx := cmd.Context()
	s, err := c.openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if !defrag && !hasUnplaced(s.cellar) {
		printInfo("Every bottle already has a slot")
		return nil
	}

	spinner := newSpinnerWithContext(ctx, "Placing bottles...")
	spinner.Start()
	prog := newProgress(s.logger)

	mode := "position"
	var d *layout.Divido
	if defrag {
		mode = "defrag"
		d, err = s.cellar.Defrag(s.layoutOptions(), s.log)
	} else {
		d, err = s.cellar.PositionBottles(s.layoutOptions(), s.log)
	}
	spinner.Stop()
	if err != nil {
		observability.Layout().OnLayout(ctx, mode, 0, 0, prog.elapsed(), err)
		if errors.Fatal(err) {
			printError("The rack cannot take these bottles, nothing was changed")
		}
		return fmt.Errorf("layout: %w", err)
	}
	observability.Layout().OnLayout(ctx, mode, len(d.Bottles()), len(d.Migrations()), prog.elapsed(), nil)

	for _, m := range d.Migrations() {
		printWarning("Stack overflow, moved %s", m)
	}
	return c.commit(ctx, s)
}

func hasUnplaced(c *cellar.Cellar) bool {
	for _, b := range c.InCellar() {
		if !b.Position.IsSet() {
			return true
		}
	}
	return false
}

// showCommand prints the rack.
func (c *CLI) showCommand() *cobra.Command {
	var (
		columns int
		width   int
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show which bottle sits in which slot",
		Long: `Show which bottle sits in which slot.

The rack is printed one depth at a time, front (drink now) to back. Columns
run from the boldest wines on the left to the lightest on the right and rows
from the most expensive at the top to the cheapest at the bottom. Headers give
the bin each column, row and depth stands for.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if len(s.cellar.InCellar()) == 0 {
				printInfo("The cellar is empty")
				return nil
			}
			d, err := s.cellar.ComputeLayout(s.layoutOptions())
			if err != nil {
				return fmt.Errorf("layout: %w", err)
			}
			fmt.Print(renderRack(s.cellar, d, columns, width))
			return nil
		},
	}

	cmd.Flags().IntVar(&columns, "columns", 6, "boldness columns per table")
	cmd.Flags().IntVar(&width, "width", 18, "characters per slot")

	return cmd
}

// binLabels names every coordinate of one rack axis after the bin it
// belongs to.
func binLabels(bins []layout.Bin, finite, last string) []string {
	thresholds := layout.ExpandBins(bins)
	labels := make([]string, len(thresholds))
	for i, t := range thresholds {
		if math.IsInf(t, 1) {
			labels[i] = last
			continue
		}
		labels[i] = fmt.Sprintf(finite, t)
	}
	return labels
}

// renderRack draws one table per rack depth, split into chunks of columns
// boldness columns. Slot text is cut to width characters.
func renderRack(c *cellar.Cellar, d *layout.Divido, columns, width int) string {
	columns = max(1, min(columns, layout.NumBoldLevels))
	width = max(4, width)

	// Boldness bins ascend while coordinates descend, so coordinate 0
	// takes the last bin's label.
	bold := binLabels(d.BoldnessBins(), "Boldness < %.0f", "Bolder")
	for i, j := 0, len(bold)-1; i < j; i, j = i+1, j-1 {
		bold[i], bold[j] = bold[j], bold[i]
	}
	cost := binLabels(d.CostBins(), "< $%.0f", "$ more")
	hold := binLabels(d.HoldBins(), "Hold < %.0f", "Hold Longer")
	hold[layout.DrinkNowHold] = "Drink Now"

	grid := export.RackSlots(c)
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	var b strings.Builder
	for h := range layout.NumHoldLevels {
		used := 0
		for _, row := range grid[h] {
			for _, slot := range row {
				if slot != nil {
					used++
				}
			}
		}
		fmt.Fprintf(&b, "%s %s\n", StyleTitle.Render(fmt.Sprintf("Depth %d: %s", h, hold[h])),
			StyleDim.Render(fmt.Sprintf("(%d of %d slots)", used, layout.NumCostLevels*layout.NumBoldLevels)))

		for start := 0; start < layout.NumBoldLevels; start += columns {
			end := min(start+columns, layout.NumBoldLevels)

			headers := append([]string{"Cost"}, bold[start:end]...)
			var rows [][]string
			for ci := layout.NumCostLevels - 1; ci >= 0; ci-- {
				row := []string{cost[ci]}
				for bi := start; bi < end; bi++ {
					row = append(row, slotText(grid[h][ci][bi], width))
				}
				rows = append(rows, row)
			}

			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
				Headers(headers...).
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					switch {
					case row == table.HeaderRow:
						return headerStyle
					case col == 0:
						return StyleSuccess
					case rows[row][col] == iconEmpty:
						return styleEmptySlot
					}
					return styleSlot
				})
			b.WriteString(t.Render() + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// slotText is "#id wine" cut to width characters, or a dot for a free slot.
func slotText(s *export.Slot, width int) string {
	if s == nil {
		return iconEmpty
	}
	return truncate(fmt.Sprintf("#%d %s", s.Bottle.ID, s.Wine), width)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
