package layout

import (
	"math"
	"slices"

	"github.com/matzehuels/cellar/pkg/errors"
)

// Bin is one statistical bucket. Width physically adjacent coordinates share
// the bucket; Width is greater than one only when clustered data caused
// neighbouring bins to merge.
type Bin struct {
	Threshold float64 `json:"threshold"`
	Width     int     `json:"width"`
}

// Contains reports whether v falls below the bin's threshold. Callers scan
// bins in ascending order, so the first bin that contains v is its bin.
func (b Bin) Contains(v float64) bool { return v < b.Threshold }

// Infinite reports whether this is the catch-all last bin.
func (b Bin) Infinite() bool { return math.IsInf(b.Threshold, 1) }

// ComputeBins partitions values into numBins bins of roughly equal
// population.
//
// The threshold starts at floor(min(values)) and climbs in integer steps.
// Whenever the count of values strictly below the threshold reaches the
// running target, a bin closes at that threshold. With allowMerge, a cluster
// that already satisfies several targets closes one bin of matching width
// instead of several bins with the same threshold; the returned slice is
// then shorter than numBins but the widths still sum to numBins. Without
// allowMerge exactly numBins bins are returned.
//
// The last bin is always (+Inf, 1).
func ComputeBins(values []float64, numBins int, allowMerge bool) ([]Bin, error) {
	if len(values) == 0 {
		return nil, errors.New(errors.ErrCodeDegenerateBinning, "cannot bin an empty dataset")
	}
	if numBins < 1 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "bin count must be positive, got %d", numBins)
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "cannot bin non-finite value %v", v)
		}
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	perBin := len(sorted) / numBins
	target := perBin

	bins := make([]Bin, 0, numBins)
	threshold := math.Floor(sorted[0])
	included := 0
	next := 0

	for remaining := numBins - 1; remaining > 0; threshold++ {
		for next < len(sorted) && sorted[next] < threshold {
			next++
			included++
		}

		if included < target && next < len(sorted) {
			continue
		}

		width := 0
		for included >= target && remaining-width > 0 {
			width++
			target += perBin
			if !allowMerge {
				break
			}
		}

		bins = append(bins, Bin{Threshold: threshold, Width: width})
		remaining -= width
	}

	return append(bins, Bin{Threshold: math.Inf(1), Width: 1}), nil
}

// FindBinIndex returns the index of the first bin whose threshold exceeds
// value. The last bin matches everything.
func FindBinIndex(value float64, bins []Bin) int {
	for i := 0; i < len(bins)-1; i++ {
		if bins[i].Contains(value) {
			return i
		}
	}
	return len(bins) - 1
}

// TotalWidth sums the widths of bins.
func TotalWidth(bins []Bin) int {
	total := 0
	for _, b := range bins {
		total += b.Width
	}
	return total
}

// ExpandBins repeats each threshold Width times, producing one threshold per
// physical coordinate in ascending bin order.
func ExpandBins(bins []Bin) []float64 {
	out := make([]float64, 0, TotalWidth(bins))
	for _, b := range bins {
		for i := 0; i < b.Width; i++ {
			out = append(out, b.Threshold)
		}
	}
	return out
}
