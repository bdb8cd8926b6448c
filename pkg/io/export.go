package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/matzehuels/cellar/pkg/cellar"
	"github.com/matzehuels/cellar/pkg/layout"
)

// Version is the snapshot format written by [WriteJSON].
const Version = 1

type snapshot struct {
	Version   int        `json:"version"`
	Regions   []region   `json:"regions"`
	Wineries  []winery   `json:"wineries"`
	Varietals []varietal `json:"varietals"`
	Labels    []label    `json:"labels"`
	Bottles   []bottle   `json:"bottles"`
}

type region struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
}

type winery struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	RegionID int64  `json:"region_id"`
}

type varietal struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Boldness int    `json:"boldness"`
}

type blend struct {
	VarietalID int64 `json:"varietal_id"`
	Portion    int   `json:"portion"`
}

type label struct {
	ID       int64   `json:"id"`
	WineryID int64   `json:"winery_id"`
	Name     string  `json:"name"`
	Vintage  int     `json:"vintage"`
	ABV      float64 `json:"abv,omitempty"`
	Blend    []blend `json:"blend"`
}

type bottle struct {
	ID        int64         `json:"id"`
	LabelID   int64         `json:"label_id"`
	Cost      float64       `json:"cost"`
	Acquired  string        `json:"acquired"`
	Consumed  string        `json:"consumed,omitempty"`
	HoldUntil int           `json:"hold_until"`
	Position  *layout.Coord `json:"position,omitempty"`
}

// WriteJSON encodes every entity of c as an indented snapshot and writes it
// to w. Provisional entities are written with their negative IDs, so export
// committed cellars only.
func WriteJSON(c *cellar.Cellar, w io.Writer) error {
	out := snapshot{Version: Version}

	for _, r := range c.Regions() {
		out.Regions = append(out.Regions, region{ID: r.ID, Name: r.Name, Country: r.Country})
	}
	for _, x := range c.Wineries() {
		out.Wineries = append(out.Wineries, winery{ID: x.ID, Name: x.Name, RegionID: x.RegionID})
	}
	for _, v := range c.Varietals() {
		out.Varietals = append(out.Varietals, varietal{ID: v.ID, Name: v.Name, Boldness: v.Boldness})
	}
	for _, l := range c.Labels() {
		lb := label{ID: l.ID, WineryID: l.WineryID, Name: l.Name, Vintage: l.Vintage, ABV: l.ABV}
		for _, bl := range l.Blends {
			lb.Blend = append(lb.Blend, blend{VarietalID: bl.VarietalID, Portion: bl.Portion})
		}
		out.Labels = append(out.Labels, lb)
	}
	for _, b := range c.Bottles() {
		bt := bottle{
			ID:        b.ID,
			LabelID:   b.LabelID,
			Cost:      b.Cost,
			Acquired:  b.Acquisition.Format(time.DateOnly),
			HoldUntil: b.HoldUntil,
		}
		if b.Consumed() {
			bt.Consumed = b.Consumption.Format(time.DateOnly)
		}
		if coord, ok := b.Position.Coord(); ok {
			bt.Position = &coord
		}
		out.Bottles = append(out.Bottles, bt)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes a snapshot of c to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(c *cellar.Cellar, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(c, f)
}
