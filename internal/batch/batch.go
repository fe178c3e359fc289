// Package batch partitions a span of years into contiguous output ranges.
// It is pure arithmetic, kept apart from generation so file naming never
// leaks into the generator.
package batch

import "fmt"

// Range is an inclusive year range covered by one output file.
type Range struct {
	First int
	Last  int
}

// Suffix is the file name fragment for the range: "2025" for a single year,
// "2025-2074" otherwise.
func (r Range) Suffix() string {
	if r.First == r.Last {
		return fmt.Sprintf("%d", r.First)
	}
	return fmt.Sprintf("%d-%d", r.First, r.Last)
}

// Contains reports whether year falls inside the range.
func (r Range) Contains(year int) bool {
	return year >= r.First && year <= r.Last
}

// Partition splits [startYear, startYear+years) into ceil(years/batchSize)
// contiguous, disjoint ranges of at most batchSize years each. A
// non-positive years yields nil; a non-positive batchSize collapses to a
// single range.
func Partition(startYear, years, batchSize int) []Range {
	if years <= 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = years
	}

	var out []Range
	end := startYear + years - 1
	for first := startYear; first <= end; first += batchSize {
		last := first + batchSize - 1
		if last > end {
			last = end
		}
		out = append(out, Range{First: first, Last: last})
	}
	return out
}
