package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/matzehuels/cellar/pkg/cellar"
	"github.com/matzehuels/cellar/pkg/errors"
	"github.com/matzehuels/cellar/pkg/layout"
)

// ReadJSON decodes a snapshot from r.
//
// ReadJSON returns an INVALID_FILE error if the JSON is malformed, has
// unknown fields, declares another version, or holds a bad date or an
// out-of-range position. Dangling references come back from
// [cellar.FromRecords] as INVALID_INPUT. ReadJSON does not close r.
func ReadJSON(r io.Reader) (cellar.Records, error) {
	var data snapshot
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&data); err != nil {
		return cellar.Records{}, errors.Wrap(errors.ErrCodeInvalidFile, err, "decode snapshot")
	}
	if data.Version != Version {
		return cellar.Records{}, errors.New(errors.ErrCodeInvalidFile, "unsupported snapshot version %d", data.Version)
	}

	var out cellar.Records
	for _, x := range data.Regions {
		out.Regions = append(out.Regions, cellar.Region{ID: x.ID, Name: x.Name, Country: x.Country})
	}
	for _, x := range data.Wineries {
		out.Wineries = append(out.Wineries, cellar.Winery{ID: x.ID, Name: x.Name, RegionID: x.RegionID})
	}
	for _, x := range data.Varietals {
		out.Varietals = append(out.Varietals, cellar.Varietal{ID: x.ID, Name: x.Name, Boldness: x.Boldness})
	}
	for _, x := range data.Labels {
		l := cellar.Label{ID: x.ID, WineryID: x.WineryID, Name: x.Name, Vintage: x.Vintage, ABV: x.ABV}
		for _, bl := range x.Blend {
			l.Blends = append(l.Blends, cellar.Blend{VarietalID: bl.VarietalID, Portion: bl.Portion})
		}
		out.Labels = append(out.Labels, l)
	}
	for _, x := range data.Bottles {
		b, err := x.decode()
		if err != nil {
			return cellar.Records{}, err
		}
		out.Bottles = append(out.Bottles, b)
	}

	if _, err := cellar.FromRecords(out); err != nil {
		return cellar.Records{}, err
	}
	return out, nil
}

func (x bottle) decode() (cellar.Bottle, error) {
	b := cellar.Bottle{
		ID:        x.ID,
		LabelID:   x.LabelID,
		Cost:      x.Cost,
		HoldUntil: x.HoldUntil,
		Position:  layout.Unpositioned(),
	}

	var err error
	if b.Acquisition, err = time.Parse(time.DateOnly, x.Acquired); err != nil {
		return b, errors.Wrap(errors.ErrCodeInvalidFile, err, "bottle %d: acquired", x.ID)
	}
	if x.Consumed != "" {
		if b.Consumption, err = time.Parse(time.DateOnly, x.Consumed); err != nil {
			return b, errors.Wrap(errors.ErrCodeInvalidFile, err, "bottle %d: consumed", x.ID)
		}
	}
	if x.Position != nil {
		if !x.Position.Valid() {
			return b, errors.New(errors.ErrCodeInvalidFile, "bottle %d: position %s outside the rack", x.ID, x.Position)
		}
		b.Position = layout.PositionedAt(*x.Position)
	}
	return b, nil
}

// ImportJSON reads a snapshot file at path.
//
// ImportJSON returns the same validation errors as [ReadJSON]; a file that
// cannot be opened is wrapped with its path.
func ImportJSON(path string) (cellar.Records, error) {
	f, err := os.Open(path)
	if err != nil {
		return cellar.Records{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
