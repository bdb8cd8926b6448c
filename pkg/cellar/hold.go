package cellar

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/cellar/pkg/errors"
)

// HoldCount is a number of bottles to hold until a year.
type HoldCount struct {
	Year  int
	Count int
}

// ParseHoldAges reads a space separated list of ages with optional
// multipliers, such as "3*0 10 12": three bottles to drink at release, one
// at ten years and one at twelve. Each age is added to the vintage; years
// before currentYear mean drink now and become currentYear.
//
// The result is sorted by year with equal years combined.
func ParseHoldAges(spec string, vintage, currentYear int) ([]HoldCount, error) {
	fields := strings.Fields(spec)
	if len(fields) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no hold ages given")
	}

	counts := make(map[int]int)
	for _, f := range fields {
		num, age := 1, f
		if n, a, ok := strings.Cut(f, "*"); ok {
			v, err := strconv.Atoi(n)
			if err != nil || v < 1 {
				return nil, errors.New(errors.ErrCodeInvalidInput, "bad bottle count in %q", f)
			}
			num, age = v, a
		}

		years, err := strconv.Atoi(age)
		if err != nil || years < 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "bad age in %q", f)
		}
		counts[max(currentYear, vintage+years)] += num
	}

	out := make([]HoldCount, 0, len(counts))
	for _, y := range slices.Sorted(maps.Keys(counts)) {
		out = append(out, HoldCount{Year: y, Count: counts[y]})
	}
	return out, nil
}

// Total is the number of bottles across all hold years.
func Total(holds []HoldCount) int {
	n := 0
	for _, h := range holds {
		n += h.Count
	}
	return n
}
