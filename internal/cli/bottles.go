package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cellar/pkg/cellar"
	"github.com/matzehuels/cellar/pkg/errors"
)

// addCommand adds the bottles described in a purchase file.
func (c *CLI) addCommand() *cobra.Command {
	var place bool

	cmd := &cobra.Command{
		Use:   "add <purchase.toml | ->",
		Short: "Add bottles described in a TOML purchase file",
		Long: `Add bottles described in a TOML purchase file.

The file lists the bottles bought, plus any regions, varietals and wineries
the cellar does not know yet:

  acquired = 2024-03-01

  [[wineries]]
  name = "Ridge"
  region = "Santa Cruz Mountains, USA"

  [[bottles]]
  winery = "Ridge"
  label = "Monte Bello"
  vintage = 2019
  abv = 13.5
  cost = 250
  hold = "2*10 15"
  blend = { "Cabernet Sauvignon" = 75, "Merlot" = 25 }

"hold" lists ages from the vintage: "2*10 15" holds two bottles ten years and
one fifteen. Ages already past mean drink now. Pass "-" to read stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAdd(cmd, args[0], place)
		},
	}

	cmd.Flags().BoolVarP(&place, "position", "p", false, "find slots for the new bottles right away")

	return cmd
}

func (c *CLI) runAdd(cmd *cobra.Command, path string, place bool) error {
	f := os.Stdin
	if path != "-" {
		var err error
		if f, err = os.Open(path); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFile, err, "open %s", path)
		}
		defer f.Close()
	}
	p, err := cellar.DecodePurchase(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	s, err := c.openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	added, err := s.cellar.ApplyPurchase(p, s.year(), today(), s.log)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	s.logger.Debug("applied purchase", "file", path, "bottles", len(added))

	if place {
		if _, err := s.cellar.PositionBottles(s.layoutOptions(), s.log); err != nil {
			return fmt.Errorf("layout: %w", err)
		}
	}
	return c.commit(cmd.Context(), s)
}

// consumeCommand marks a bottle as drunk.
func (c *CLI) consumeCommand() *cobra.Command {
	var (
		date string
		all  bool
	)

	cmd := &cobra.Command{
		Use:   "consume <bottle-id | wine>",
		Short: "Mark a bottle as consumed",
		Long: `Mark a bottle as consumed.

The bottle is named by its ID or by part of its description, such as
"2019 ridge" or "monte bello". A description matches bottles that are ready
to drink unless --all is given; the cheapest match is taken. The bottle keeps
its slot on record but the slot becomes free.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			on := today()
			if date != "" {
				var err error
				if on, err = time.Parse(dateLayout, date); err != nil {
					return errors.Wrap(errors.ErrCodeInvalidInput, err, "consumption date %q", date)
				}
			}

			s, err := c.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			bottle, err := findBottle(s.cellar, args[0], s.year(), all)
			if err != nil {
				return err
			}
			if _, err := s.cellar.Consume(bottle.ID, on, s.log); err != nil {
				return err
			}
			return c.commit(cmd.Context(), s)
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "consumption date, YYYY-MM-DD (default: today)")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "match bottles regardless of hold year")

	return cmd
}

// findBottle resolves a bottle argument: an ID, or words that must all
// appear in the bottle's description.
func findBottle(c *cellar.Cellar, arg string, year int, all bool) (cellar.Bottle, error) {
	if id, err := parseID("bottle", arg); err == nil {
		b, ok := c.Bottle(id)
		if !ok {
			return cellar.Bottle{}, errors.New(errors.ErrCodeNotFound, "bottle %d not found", id)
		}
		return b, nil
	}

	candidates := c.Stored()
	if !all {
		candidates = c.BottlesByYear(year)[year]
	}
	words := strings.Fields(strings.ToLower(arg))
	for _, b := range candidates {
		desc := strings.ToLower(c.BottleDescription(b))
		if matchesAll(desc, words) {
			return b, nil
		}
	}
	if all {
		return cellar.Bottle{}, errors.New(errors.ErrCodeNotFound, "no bottle matches %q", arg)
	}
	return cellar.Bottle{}, errors.New(errors.ErrCodeNotFound, "no bottle ready to drink matches %q (try --all)", arg)
}

func matchesAll(s string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(s, w) {
			return false
		}
	}
	return len(words) > 0
}

// setWineryCommand moves a label to another winery.
func (c *CLI) setWineryCommand() *cobra.Command {
	var region string

	cmd := &cobra.Command{
		Use:   "set-winery <label-id> <winery>",
		Short: "Move a label to another winery",
		Long: `Move a label to another winery.

Used when a producer turns out to make wine in several regions. The winery
is an ID or a name. With --region a winery of that name is created in the
given region ("Name, Country") if none exists yet.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			labelID, err := parseID("label", args[0])
			if err != nil {
				return err
			}

			s, err := c.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			winery, err := resolveWinery(s, args[1], region)
			if err != nil {
				return err
			}
			if _, err := s.cellar.SetLabelWinery(labelID, winery.ID, s.log); err != nil {
				return err
			}
			return c.commit(cmd.Context(), s)
		},
	}

	cmd.Flags().StringVarP(&region, "region", "r", "", `create the winery in this region ("Name, Country")`)

	return cmd
}

func resolveWinery(s *session, arg, region string) (cellar.Winery, error) {
	if id, err := parseID("winery", arg); err == nil {
		w, ok := s.cellar.Winery(id)
		if !ok {
			return cellar.Winery{}, errors.New(errors.ErrCodeNotFound, "winery %d not found", id)
		}
		return w, nil
	}
	if w, ok := s.cellar.FindWinery(arg); ok {
		return w, nil
	}
	if region == "" {
		return cellar.Winery{}, errors.New(errors.ErrCodeNotFound, "unknown winery %q (pass --region to create it)", arg)
	}

	i := strings.LastIndex(region, ",")
	if i < 0 {
		return cellar.Winery{}, errors.New(errors.ErrCodeInvalidInput, "region must read \"Name, Country\", got %q", region)
	}
	name, country := strings.TrimSpace(region[:i]), strings.TrimSpace(region[i+1:])
	r, ok := s.cellar.FindRegion(name, country)
	if !ok {
		var err error
		if r, err = s.cellar.AddRegion(name, country, s.log); err != nil {
			return cellar.Winery{}, err
		}
	}
	return s.cellar.AddWinery(arg, r.ID, s.log)
}

// today is the current date at midnight UTC, as dates are stored.
func today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
