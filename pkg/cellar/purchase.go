package cellar

import (
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/cellar/pkg/errors"
)

// Purchase describes newly acquired bottles in TOML. Regions, varietals and
// wineries that do not exist yet are created; existing ones are matched by
// name, ignoring case.
//
//	acquired = 2024-03-01
//
//	[[regions]]
//	name = "Santa Cruz Mountains"
//	country = "USA"
//
//	[[varietals]]
//	name = "Cabernet Sauvignon"
//	boldness = 9
//
//	[[wineries]]
//	name = "Ridge"
//	region = "Santa Cruz Mountains, USA"
//
//	[[bottles]]
//	winery = "Ridge"
//	label = "Monte Bello"
//	vintage = 2019
//	abv = 13.5
//	cost = 250
//	hold = "2*10 15"
//	blend = { "Cabernet Sauvignon" = 75, "Merlot" = 25 }
type Purchase struct {
	Acquired  time.Time          `toml:"acquired"`
	Regions   []PurchaseRegion   `toml:"regions"`
	Varietals []PurchaseVarietal `toml:"varietals"`
	Wineries  []PurchaseWinery   `toml:"wineries"`
	Bottles   []PurchaseBottles  `toml:"bottles"`
}

type PurchaseRegion struct {
	Name    string `toml:"name"`
	Country string `toml:"country"`
}

type PurchaseVarietal struct {
	Name     string `toml:"name"`
	Boldness int    `toml:"boldness"`
}

type PurchaseWinery struct {
	Name   string `toml:"name"`
	Region string `toml:"region"` // "Name, Country"
}

// PurchaseBottles is one label bought in one go. Blend and ABV are only
// needed when the label is new.
type PurchaseBottles struct {
	Winery   string         `toml:"winery"`
	Label    string         `toml:"label"`
	Vintage  int            `toml:"vintage"`
	ABV      float64        `toml:"abv"`
	Blend    map[string]int `toml:"blend"`
	Cost     float64        `toml:"cost"`
	Acquired time.Time      `toml:"acquired"`
	Hold     string         `toml:"hold"`
}

// DecodePurchase reads a purchase file. Unknown keys are rejected so that
// typos do not silently drop data.
func DecodePurchase(r io.Reader) (*Purchase, error) {
	var p Purchase
	md, err := toml.NewDecoder(r).Decode(&p)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFile, err, "decode purchase")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidFile, "unknown keys: %s", strings.Join(keys, ", "))
	}
	if len(p.Bottles) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidFile, "purchase lists no bottles")
	}
	return &p, nil
}

// splitRegion parses "Name, Country". The country follows the last comma so
// region names may contain commas.
func splitRegion(s string) (name, country string, ok bool) {
	i := strings.LastIndex(s, ",")
	if i < 0 {
		return "", "", false
	}
	name, country = strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
	return name, country, name != "" && country != ""
}

// ApplyPurchase adds everything a purchase describes. Bottles without an
// acquisition date use the file's date, then today.
func (c *Cellar) ApplyPurchase(p *Purchase, currentYear int, today time.Time, rec Recorder) ([]Bottle, error) {
	for _, r := range p.Regions {
		if _, ok := c.FindRegion(r.Name, r.Country); ok {
			continue
		}
		if _, err := c.AddRegion(r.Name, r.Country, rec); err != nil {
			return nil, err
		}
	}

	for _, v := range p.Varietals {
		if existing, ok := c.FindVarietal(v.Name); ok {
			if existing.Boldness != v.Boldness {
				return nil, errors.New(errors.ErrCodeInvalidInput,
					"varietal %q exists with boldness %d, not %d", v.Name, existing.Boldness, v.Boldness)
			}
			continue
		}
		if _, err := c.AddVarietal(v.Name, v.Boldness, rec); err != nil {
			return nil, err
		}
	}

	for _, w := range p.Wineries {
		if _, ok := c.FindWinery(w.Name); ok {
			continue
		}
		name, country, ok := splitRegion(w.Region)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"winery %q: region must read \"Name, Country\", got %q", w.Name, w.Region)
		}
		region, ok := c.FindRegion(name, country)
		if !ok {
			return nil, errors.New(errors.ErrCodeNotFound, "winery %q: unknown region %q", w.Name, w.Region)
		}
		if _, err := c.AddWinery(w.Name, region.ID, rec); err != nil {
			return nil, err
		}
	}

	var added []Bottle
	for _, pb := range p.Bottles {
		label, err := c.purchaseLabel(pb, rec)
		if err != nil {
			return nil, err
		}

		holds, err := ParseHoldAges(pb.Hold, label.Vintage, currentYear)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "%s", c.Description(label))
		}

		acquired := pb.Acquired
		if acquired.IsZero() {
			acquired = p.Acquired
		}
		if acquired.IsZero() {
			acquired = today
		}

		bottles, err := c.AddBottles(label.ID, pb.Cost, acquired, holds, rec)
		if err != nil {
			return nil, err
		}
		added = append(added, bottles...)
	}
	return added, nil
}

func (c *Cellar) purchaseLabel(pb PurchaseBottles, rec Recorder) (Label, error) {
	winery, ok := c.FindWinery(pb.Winery)
	if !ok {
		return Label{}, errors.New(errors.ErrCodeNotFound, "unknown winery %q", pb.Winery)
	}
	if l, ok := c.FindLabel(winery.ID, pb.Label, pb.Vintage); ok {
		return l, nil
	}

	l := Label{WineryID: winery.ID, Name: pb.Label, Vintage: pb.Vintage, ABV: pb.ABV}
	for _, name := range slices.Sorted(maps.Keys(pb.Blend)) {
		v, ok := c.FindVarietal(name)
		if !ok {
			return Label{}, errors.New(errors.ErrCodeNotFound, "label %q: unknown varietal %q", pb.Label, name)
		}
		l.Blends = append(l.Blends, Blend{VarietalID: v.ID, Portion: pb.Blend[name]})
	}
	return c.AddLabel(l, rec)
}
