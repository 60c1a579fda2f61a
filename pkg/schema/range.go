package schema

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// SchoolYear is a string-encoded grade ("5".."13"). The empty value means absent.
type SchoolYear string

// Int parses the school year. ok is false for absent or non-numeric values.
func (y SchoolYear) Int() (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(string(y)))
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsValid reports whether y is a school year inside the supported grades.
func (y SchoolYear) IsValid() bool {
	n, ok := y.Int()
	return ok && n >= SchoolYearFirst && n <= SchoolYearLast
}

// SchoolYearFromInt encodes a grade.
func SchoolYearFromInt(n int) SchoolYear {
	return SchoolYear(strconv.Itoa(n))
}

// SchoolYearRange is an interval of school years. An absent bound is unbounded.
type SchoolYearRange struct {
	Min SchoolYear `json:"min,omitempty" yaml:"min,omitempty"`
	Max SchoolYear `json:"max,omitempty" yaml:"max,omitempty"`
}

// Span builds a closed range from two grades.
func Span(min, max int) *SchoolYearRange {
	return &SchoolYearRange{Min: SchoolYearFromInt(min), Max: SchoolYearFromInt(max)}
}

// IsUniversal reports whether neither bound is usable.
func (r SchoolYearRange) IsUniversal() bool {
	_, minOK := r.Min.Int()
	_, maxOK := r.Max.Int()
	return !minOK && !maxOK
}

// String renders the range for user-facing messages.
func (r SchoolYearRange) String() string {
	lo, minOK := r.Min.Int()
	hi, maxOK := r.Max.Int()
	switch {
	case minOK && maxOK && lo == hi:
		return fmt.Sprintf("school year %d", lo)
	case minOK && maxOK:
		return fmt.Sprintf("school years %d-%d", lo, hi)
	case minOK:
		return fmt.Sprintf("school years from %d", lo)
	case maxOK:
		return fmt.Sprintf("school years up to %d", hi)
	default:
		return "all school years"
	}
}

// bounds returns the numeric edges, substituting infinities for unusable bounds.
func (r SchoolYearRange) bounds() (float64, float64) {
	lo, hi := math.Inf(-1), math.Inf(1)
	if n, ok := r.Min.Int(); ok {
		lo = float64(n)
	}
	if n, ok := r.Max.Int(); ok {
		hi = float64(n)
	}
	return lo, hi
}

func edges(includeEdges []bool) bool {
	if len(includeEdges) == 0 {
		return true
	}
	return includeEdges[0]
}

// IsWithinRange reports whether year lies inside r. Edges are inclusive
// unless includeEdges is false. A malformed year or a nil range is an
// ArgumentError; malformed bounds count as unbounded.
func IsWithinRange(year SchoolYear, r *SchoolYearRange, includeEdges ...bool) (bool, error) {
	if r == nil {
		return false, NewArgumentError("IsWithinRange", "range", "range is required")
	}
	n, ok := year.Int()
	if !ok {
		return false, NewArgumentError("IsWithinRange", "year", fmt.Sprintf("%q is not a school year", year))
	}
	lo, hi := r.bounds()
	v := float64(n)
	if edges(includeEdges) {
		return v >= lo && v <= hi, nil
	}
	return v > lo && v < hi, nil
}

// RangesOverlap reports whether two ranges share at least one school year.
// A fully unbounded range overlaps everything.
func RangesOverlap(r1, r2 SchoolYearRange, includeEdges ...bool) bool {
	if r1.IsUniversal() || r2.IsUniversal() {
		return true
	}
	inclusive := edges(includeEdges)
	lo1, hi1 := r1.bounds()
	lo2, hi2 := r2.bounds()
	within := func(v, lo, hi float64) bool {
		if math.IsInf(v, 0) {
			return false
		}
		if inclusive {
			return v >= lo && v <= hi
		}
		return v > lo && v < hi
	}
	return within(lo1, lo2, hi2) || within(hi1, lo2, hi2) ||
		within(lo2, lo1, hi1) || within(hi2, lo1, hi1)
}

// MaxSafeSize mirrors the largest exactly representable integer of a float64.
const MaxSafeSize = float64(1<<53 - 1)

// RangeSize returns max-min. A range open at the top is MaxSafeSize, one open
// at the bottom is -MaxSafeSize, and a universal range has no size (NaN).
func RangeSize(r SchoolYearRange) float64 {
	lo, minOK := r.Min.Int()
	hi, maxOK := r.Max.Int()
	switch {
	case minOK && maxOK:
		return float64(hi - lo)
	case minOK:
		return MaxSafeSize
	case maxOK:
		return -MaxSafeSize
	default:
		return math.NaN()
	}
}

// lessBySize orders ranges by RangeSize ascending with undefined sizes last.
func lessBySize(a, b SchoolYearRange) bool {
	sa, sb := RangeSize(a), RangeSize(b)
	if math.IsNaN(sa) {
		return false
	}
	if math.IsNaN(sb) {
		return true
	}
	return sa < sb
}

// SortByRangeSize returns a copy of conds ordered tightest range first.
func SortByRangeSize(conds []SchoolYearCondition) []SchoolYearCondition {
	out := append([]SchoolYearCondition(nil), conds...)
	sort.SliceStable(out, func(i, j int) bool {
		return lessBySize(out[i].SchoolYearRange, out[j].SchoolYearRange)
	})
	return out
}

// SortCountedByRangeSize is SortByRangeSize for counted conditions.
func SortCountedByRangeSize(conds []CountedCondition) []CountedCondition {
	out := append([]CountedCondition(nil), conds...)
	sort.SliceStable(out, func(i, j int) bool {
		return lessBySize(out[i].SchoolYearRange, out[j].SchoolYearRange)
	})
	return out
}
