package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cellar/pkg/cellar"
	"github.com/matzehuels/cellar/pkg/errors"
	"github.com/matzehuels/cellar/pkg/export"
	cellario "github.com/matzehuels/cellar/pkg/io"
	"github.com/matzehuels/cellar/pkg/observability"
	"github.com/matzehuels/cellar/pkg/store"
)

// Export formats.
const (
	formatJSON = "json"
	formatXLSX = "xlsx"
	formatTags = "tags"
	formatRack = "rack"
)

var defaultExportFile = map[string]string{
	formatJSON: "cellar.json",
	formatXLSX: "cellar.xlsx",
	formatTags: "tags.pdf",
	formatRack: "rack.pdf",
}

// =============================================================================
// export
// =============================================================================

func (c *CLI) exportCommand() *cobra.Command {
	var (
		format string
		output string
		since  string
		title  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a snapshot, workbook or printout of the cellar",
		Long: `Write a snapshot, workbook or printout of the cellar.

Formats:
  json   full snapshot that 'cellar import' restores
  xlsx   workbook with bottle, inventory and consumption sheets
  tags   PDF of Avery 5160 labels with a QR code per bottle
  rack   PDF map of the rack, one page per depth

Use -o - to write to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := defaultExportFile[format]; !ok {
				return errors.New(errors.ErrCodeInvalidInput, "unknown format %q", format)
			}
			if output == "" {
				output = defaultExportFile[format]
			}

			var cutoff time.Time
			if since != "" {
				var err error
				if cutoff, err = time.Parse(dateLayout, since); err != nil {
					return errors.Wrap(errors.ErrCodeInvalidInput, err, "--since %q", since)
				}
			}

			s, err := c.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			write := func(w io.Writer) error {
				switch format {
				case formatJSON:
					return cellario.WriteJSON(s.cellar, w)
				case formatXLSX:
					return export.WriteWorkbook(w, s.cellar, s.year())
				case formatTags:
					return export.WriteTags(w, s.cellar, acquiredSince(s.cellar, cutoff))
				default:
					return export.WriteRackMap(w, s.cellar, title)
				}
			}
			return writeOutput(cmd, format, output, write)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "json, xlsx, tags or rack")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: cellar.json, cellar.xlsx, tags.pdf or rack.pdf)")
	cmd.Flags().StringVar(&since, "since", "", "tags only for bottles acquired on or after this date")
	cmd.Flags().StringVar(&title, "title", "Cellar", "rack map title")

	cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{formatJSON, formatXLSX, formatTags, formatRack}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// acquiredSince returns the in-cellar bottles acquired on or after cutoff,
// in storage order. A zero cutoff keeps every bottle.
func acquiredSince(c *cellar.Cellar, cutoff time.Time) []cellar.Bottle {
	var out []cellar.Bottle
	for _, b := range c.Stored() {
		if !b.Acquisition.Before(cutoff) {
			out = append(out, b)
		}
	}
	return out
}

// writeOutput runs write against path, or stdout for "-". A failed write
// removes the partial file.
func writeOutput(cmd *cobra.Command, format, path string, write func(io.Writer) error) (err error) {
	if path == "-" {
		return write(cmd.OutOrStdout())
	}

	ctx := cmd.Context()
	spinner := newSpinnerWithContext(ctx, "Writing "+filepath.Base(path)+"...")
	spinner.Start()
	defer spinner.Stop()

	start := time.Now()
	var size int64
	defer func() { observability.Export().OnExport(ctx, format, size, time.Since(start), err) }()

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFile, err, "create %s", path)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFile, err, "close %s", path)
	}

	spinner.Stop()
	printSuccess("Exported %s", format)
	printFile(path)
	return nil
}

// =============================================================================
// import
// =============================================================================

func (c *CLI) importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <snapshot.json>",
		Short: "Restore a JSON snapshot into an empty database",
		Long: `Restore a JSON snapshot written by 'cellar export' into an empty database.

IDs, positions and consumption dates are kept as they are in the snapshot.
The database must not hold any cellar data yet.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := cellario.ImportJSON(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			st, err := store.Open(cfg.Database, loggerFromContext(cmd.Context()))
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Restore(cmd.Context(), records); err != nil {
				return err
			}
			printSuccess("Restored %s into %s", args[0], cfg.Database)
			printStats(
				stat{len(records.Regions), "region"},
				stat{len(records.Wineries), "winery"},
				stat{len(records.Labels), "label"},
				stat{len(records.Bottles), "bottle"},
			)
			return nil
		},
	}
}

// =============================================================================
// history
// =============================================================================

func (c *CLI) historyCommand() *cobra.Command {
	var (
		limit  int
		bottle string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List committed sessions or the moves of one bottle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			st, err := store.Open(cfg.Database, loggerFromContext(cmd.Context()))
			if err != nil {
				return err
			}
			defer st.Close()

			if bottle != "" {
				id, err := parseID("bottle", bottle)
				if err != nil {
					return err
				}
				moves, err := st.Moves(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Print(renderMoves(id, moves))
				return nil
			}

			sessions, err := st.Sessions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Print(renderSessions(sessions))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "sessions to show (0 for all)")
	cmd.Flags().StringVarP(&bottle, "bottle", "b", "", "show every move of this bottle")

	return cmd
}

const historyTime = "2006-01-02 15:04"

func renderSessions(sessions []store.Session) string {
	if len(sessions) == 0 {
		return "No sessions committed yet\n"
	}
	var b strings.Builder
	for _, s := range sessions {
		line := fmt.Sprintf("%s  %s  %s",
			StyleDim.Render(s.Committed.Local().Format(historyTime)),
			StyleNumber.Render(s.ID.String()[:8]),
			s.Summary)
		if s.Moves > 0 {
			line += "  " + StyleDim.Render("("+plural(s.Moves, "move")+")")
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func renderMoves(id int64, moves []store.Move) string {
	if len(moves) == 0 {
		return fmt.Sprintf("Bottle #%d has never moved\n", id)
	}
	var b strings.Builder
	for _, m := range moves {
		fmt.Fprintf(&b, "%s  %s  %s %s %s\n",
			StyleDim.Render(m.Committed.Local().Format(historyTime)),
			StyleNumber.Render(m.Session.String()[:8]),
			m.From, iconArrow, StyleHold.Render(m.To.String()))
	}
	return b.String()
}
