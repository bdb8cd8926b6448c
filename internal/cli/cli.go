// Package cli implements the cellar command-line interface.
package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cellar/pkg/buildinfo"
	"github.com/matzehuels/cellar/pkg/config"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "cellar"

	// dateLayout is how dates are read from flags and printed.
	dateLayout = "2006-01-02"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is set by --config; empty means the default location.
	configPath string

	// in is where confirmation prompts read keys from.
	in io.Reader
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		in:     os.Stdin,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetInput replaces the reader confirmation prompts use.
func (c *CLI) SetInput(r io.Reader) {
	c.in = r
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Cellar tracks a wine collection and where each bottle sits in the rack",
		Long: `Cellar records wines, bottles and their storage slots in a Divido rack.

Bottles are laid out by boldness (columns), cost (rows) and hold year (depth).
Commands that change the cellar print every change and ask for confirmation
before anything is written; pass --yes to skip the prompt.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/cellar/config.toml)")
	pf.String(config.FlagDatabase, "", "SQLite database (overrides config and $"+config.DataEnv+")")
	pf.BoolP(config.FlagYes, "y", false, "commit changes without asking")
	pf.Int(config.FlagCurrentYear, 0, "compute layouts and reports as of this year")

	root.AddGroup(
		&cobra.Group{ID: groupRack, Title: "Rack Commands:"},
		&cobra.Group{ID: groupBottles, Title: "Bottle Commands:"},
		&cobra.Group{ID: groupReports, Title: "Report Commands:"},
		&cobra.Group{ID: groupData, Title: "Data Commands:"},
	)

	// Register all subcommands
	for _, cmd := range []*cobra.Command{c.positionCommand(), c.defragCommand(), c.showCommand()} {
		cmd.GroupID = groupRack
		root.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{c.addCommand(), c.consumeCommand(), c.setWineryCommand()} {
		cmd.GroupID = groupBottles
		root.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{
		c.inventoryCommand(), c.regionsCommand(), c.pastHoldCommand(),
		c.yearsCommand(), c.consumptionCommand(), c.historyCommand(),
	} {
		cmd.GroupID = groupReports
		root.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{c.exportCommand(), c.importCommand(), c.configCommand()} {
		cmd.GroupID = groupData
		root.AddCommand(cmd)
	}
	root.AddCommand(c.completionCommand())

	return root
}

// Command groups shown in help output.
const (
	groupRack    = "rack"
	groupBottles = "bottles"
	groupReports = "reports"
	groupData    = "data"
)
