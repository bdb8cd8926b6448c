package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cellar/pkg/config"
)

func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
	}
	cmd.AddCommand(c.configInitCommand())
	cmd.AddCommand(c.configShowCommand())
	return cmd
}

func (c *CLI) configInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Write a config file holding the defaults",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.configPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				var err error
				if path, err = config.DefaultPath(); err != nil {
					return err
				}
			}

			if err := config.Init(path); err != nil {
				return err
			}
			printSuccess("Created config")
			printFile(path)
			printNewline()
			printNextStep("Add your first bottles", appName+" add purchase.toml --position")
			return nil
		},
	}
}

func (c *CLI) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}

			file := cfg.File
			if file == "" {
				file = "(none, using defaults)"
			}
			year := strconv.Itoa(cfg.Year())
			if cfg.CurrentYear == 0 {
				year += " (calendar)"
			}

			printKeyValue("config", file)
			printKeyValue(config.KeyDatabase, cfg.Database)
			printKeyValue(config.KeyConfirm, fmt.Sprint(cfg.Confirm))
			printKeyValue("year", year)
			return nil
		},
	}
}
