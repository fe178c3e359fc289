package batch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lunarcal/internal/batch"
)

func Test_Partition(t *testing.T) {
	tests := []struct {
		name      string
		startYear int
		years     int
		batchSize int
		want      []batch.Range
	}{
		{
			name:      "even_split",
			startYear: 2025, years: 100, batchSize: 50,
			want: []batch.Range{{First: 2025, Last: 2074}, {First: 2075, Last: 2124}},
		},
		{
			name:      "uneven_split_short_tail",
			startYear: 2025, years: 5, batchSize: 2,
			want: []batch.Range{{First: 2025, Last: 2026}, {First: 2027, Last: 2028}, {First: 2029, Last: 2029}},
		},
		{
			name:      "batch_larger_than_span",
			startYear: 2025, years: 3, batchSize: 50,
			want: []batch.Range{{First: 2025, Last: 2027}},
		},
		{
			name:      "single_year",
			startYear: 2025, years: 1, batchSize: 50,
			want: []batch.Range{{First: 2025, Last: 2025}},
		},
		{
			name:      "zero_batch_size_collapses_to_one_file",
			startYear: 2025, years: 10, batchSize: 0,
			want: []batch.Range{{First: 2025, Last: 2034}},
		},
		{
			name:      "non_positive_years_yields_nothing",
			startYear: 2025, years: 0, batchSize: 10,
			want: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, batch.Partition(tc.startYear, tc.years, tc.batchSize))
		})
	}
}

func Test_Partition_CoversSpanWithoutOverlap(t *testing.T) {
	const startYear, years, batchSize = 2025, 103, 7

	ranges := batch.Partition(startYear, years, batchSize)

	// ceil(103/7) = 15 files.
	assert.Len(t, ranges, 15)

	covered := 0
	prevLast := startYear - 1
	for _, r := range ranges {
		assert.Equal(t, prevLast+1, r.First, "ranges must be contiguous")
		assert.LessOrEqual(t, r.First, r.Last)
		assert.LessOrEqual(t, r.Last-r.First+1, batchSize)
		covered += r.Last - r.First + 1
		prevLast = r.Last
	}
	assert.Equal(t, years, covered)
	assert.Equal(t, startYear+years-1, prevLast)
}

func Test_Range_Suffix(t *testing.T) {
	assert.Equal(t, "2025", batch.Range{First: 2025, Last: 2025}.Suffix())
	assert.Equal(t, "2025-2074", batch.Range{First: 2025, Last: 2074}.Suffix())
}

func Test_Range_Contains(t *testing.T) {
	r := batch.Range{First: 2025, Last: 2027}

	assert.True(t, r.Contains(2025))
	assert.True(t, r.Contains(2027))
	assert.False(t, r.Contains(2024))
	assert.False(t, r.Contains(2028))
}
