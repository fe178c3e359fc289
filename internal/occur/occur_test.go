package occur_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lunarcal/internal/lunar"
	"lunarcal/internal/model"
	"lunarcal/internal/occur"
)

// driftConverter fakes the lunar oracle: the solar date drifts by a few
// days depending on the year, the way real lunar dates wander over the
// solar calendar. Years listed in missing report ErrDateNotExist.
type driftConverter struct {
	missing map[int]bool
}

func (c driftConverter) ToSolar(year, month, day int) (time.Time, error) {
	if c.missing[year] {
		return time.Time{}, lunar.ErrDateNotExist
	}
	base := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 1, year%3), nil
}

func solarRecord(month, day int) model.BirthRecord {
	return model.BirthRecord{Name: "Jane Smith", Year: 1985, Month: month, Day: day}
}

func lunarRecord(month, day int) model.BirthRecord {
	return model.BirthRecord{Name: "John Doe", Year: 1990, Month: month, Day: day, Lunar: true}
}

func Test_Expand_SolarRecord(t *testing.T) {
	gen := occur.Generator{}

	res := gen.Expand(solarRecord(2, 10), occur.Span{StartYear: 2025, Years: 3})

	require.Empty(t, res.Skipped)
	require.Len(t, res.Occurrences, 3)
	for i, occ := range res.Occurrences {
		assert.Equal(t, 2025+i, occ.TargetYear)
		assert.Equal(t, time.February, occ.Date.Month())
		assert.Equal(t, 10, occ.Date.Day())
	}
}

func Test_Expand_LunarRecordDrifts(t *testing.T) {
	gen := occur.Generator{Convert: driftConverter{}}

	res := gen.Expand(lunarRecord(8, 15), occur.Span{StartYear: 2025, Years: 3})

	require.Empty(t, res.Skipped)
	require.Len(t, res.Occurrences, 3)

	seen := make(map[string]bool)
	for i, occ := range res.Occurrences {
		assert.Equal(t, 2025+i, occ.TargetYear)
		md := occ.Date.Format("01-02")
		assert.False(t, seen[md], "solar month/day should differ between years")
		seen[md] = true
	}
}

func Test_Expand_LateLunarMonthKeepsTargetYear(t *testing.T) {
	// Lunar month 12 resolves into January of the next solar year; the
	// occurrence still belongs to the target year it was generated for.
	gen := occur.Generator{Convert: driftConverter{}}

	res := gen.Expand(lunarRecord(12, 20), occur.Span{StartYear: 2025, Years: 3})

	require.Empty(t, res.Skipped)
	require.Len(t, res.Occurrences, 3)
	for i, occ := range res.Occurrences {
		assert.Equal(t, 2025+i, occ.TargetYear)
		assert.Equal(t, occ.TargetYear+1, occ.Date.Year())
	}
}

func Test_Expand_LunarConversionFailureSkipsYearOnly(t *testing.T) {
	gen := occur.Generator{Convert: driftConverter{missing: map[int]bool{2026: true}}}

	res := gen.Expand(lunarRecord(8, 30), occur.Span{StartYear: 2025, Years: 3})

	require.Len(t, res.Skipped, 1)
	assert.Equal(t, 2026, res.Skipped[0].Year)
	assert.ErrorIs(t, res.Skipped[0].Err, lunar.ErrDateNotExist)

	require.Len(t, res.Occurrences, 2)
	assert.Equal(t, 2025, res.Occurrences[0].TargetYear)
	assert.Equal(t, 2027, res.Occurrences[1].TargetYear)
}

func Test_Expand_Feb29SkipPolicy(t *testing.T) {
	gen := occur.Generator{Feb29: occur.Feb29Skip}

	res := gen.Expand(solarRecord(2, 29), occur.Span{StartYear: 2024, Years: 5})

	// 2024 and 2028 are leap years; 2025-2027 have no Feb 29.
	require.Len(t, res.Occurrences, 2)
	assert.Equal(t, 2024, res.Occurrences[0].TargetYear)
	assert.Equal(t, 2028, res.Occurrences[1].TargetYear)

	require.Len(t, res.Skipped, 3)
	for i, sk := range res.Skipped {
		assert.Equal(t, 2025+i, sk.Year)
		assert.ErrorIs(t, sk.Err, occur.ErrDaySkipped)
	}
}

func Test_Expand_Feb29SkipPolicy_NoLeapYearInSpan(t *testing.T) {
	gen := occur.Generator{Feb29: occur.Feb29Skip}

	res := gen.Expand(solarRecord(2, 29), occur.Span{StartYear: 2025, Years: 3})

	assert.Empty(t, res.Occurrences)
	assert.Len(t, res.Skipped, 3)
}

func Test_Expand_Feb29ClampPolicy(t *testing.T) {
	gen := occur.Generator{Feb29: occur.Feb29Clamp}

	res := gen.Expand(solarRecord(2, 29), occur.Span{StartYear: 2024, Years: 3})

	require.Empty(t, res.Skipped)
	require.Len(t, res.Occurrences, 3)
	assert.Equal(t, 29, res.Occurrences[0].Date.Day()) // 2024 is leap
	assert.Equal(t, 28, res.Occurrences[1].Date.Day())
	assert.Equal(t, 28, res.Occurrences[2].Date.Day())
}

func Test_Occurrences_AscendingWithoutDuplicates(t *testing.T) {
	gen := occur.Generator{Convert: driftConverter{}}

	for _, rec := range []model.BirthRecord{solarRecord(7, 4), lunarRecord(8, 15)} {
		prev := 0
		for occ, err := range gen.Occurrences(rec, occur.Span{StartYear: 2025, Years: 10}) {
			require.NoError(t, err)
			assert.Greater(t, occ.TargetYear, prev)
			prev = occ.TargetYear
		}
	}
}

func Test_Occurrences_SequenceIsRestartable(t *testing.T) {
	gen := occur.Generator{Convert: driftConverter{}}
	seq := gen.Occurrences(lunarRecord(8, 15), occur.Span{StartYear: 2025, Years: 4})

	collect := func() []model.Occurrence {
		var out []model.Occurrence
		for occ, err := range seq {
			require.NoError(t, err)
			out = append(out, occ)
		}
		return out
	}

	first := collect()
	second := collect()
	assert.Equal(t, first, second)
}

func Test_Occurrences_EarlyBreakStopsSequence(t *testing.T) {
	gen := occur.Generator{}

	count := 0
	for _, err := range gen.Occurrences(solarRecord(2, 10), occur.Span{StartYear: 2025, Years: 50}) {
		require.NoError(t, err)
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func Test_Occurrences_LunarWithoutConverterFails(t *testing.T) {
	gen := occur.Generator{}

	res := gen.Expand(lunarRecord(8, 15), occur.Span{StartYear: 2025, Years: 3})

	assert.Empty(t, res.Occurrences)
	assert.NotEmpty(t, res.Skipped)
}
