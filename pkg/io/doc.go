// Package io provides JSON import and export of a whole cellar.
//
// # Overview
//
// A snapshot holds every region, winery, varietal, label and bottle with
// its stored ID, so that exporting a database and restoring it into an
// empty one reproduces it exactly, positions included:
//
//	{
//	  "version": 1,
//	  "regions":   [{"id": 1, "name": "Rhône", "country": "France"}],
//	  "wineries":  [{"id": 1, "name": "Guigal", "region_id": 1}],
//	  "varietals": [{"id": 1, "name": "Syrah", "boldness": 8}],
//	  "labels": [{
//	    "id": 1, "winery_id": 1, "name": "Côte-Rôtie", "vintage": 2018,
//	    "blend": [{"varietal_id": 1, "portion": 100}]
//	  }],
//	  "bottles": [{
//	    "id": 1, "label_id": 1, "cost": 65, "acquired": "2023-11-04",
//	    "hold_until": 2028,
//	    "position": {"boldness": 3, "cost": 9, "hold": 2}
//	  }]
//	}
//
// Dates use the YYYY-MM-DD form. "consumed" is omitted for bottles still in
// the cellar and "position" for bottles without a slot.
//
// # Import
//
// Use [ImportJSON] to read a snapshot from a file path, or [ReadJSON] to
// read from any io.Reader. Both reject unknown fields, unsupported versions
// and references to IDs the snapshot does not contain.
//
// # Export
//
// Use [ExportJSON] to write a snapshot to a file, or [WriteJSON] to write to
// any io.Writer.
package io
