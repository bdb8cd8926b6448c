// Package cellar models a personal wine cellar: regions, wineries,
// varietals, labels and the physical bottles bought of each label.
//
// A [Cellar] holds the whole collection in memory. Mutations take a
// [Recorder] so every change of a session can be shown to the user and then
// persisted together, or dropped. Entities created during a session carry
// negative provisional IDs until storage assigns real ones.
//
// Bottle placement is delegated to the layout engine:
//
//	d, err := c.PositionBottles(layout.Options{Logger: logger}, changes)
//
// converts the in-cellar bottles with [Cellar.LayoutBottles], runs the
// engine, and copies the computed positions back with [Cellar.ApplyLayout].
package cellar
