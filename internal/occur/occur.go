package occur

import (
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/teambition/rrule-go"

	appLog "lunarcal/internal/log"
	"lunarcal/internal/lunar"
	"lunarcal/internal/model"
)

// Feb29Policy selects what happens to a solar Feb 29 birthday in a year
// without a Feb 29.
type Feb29Policy int

const (
	// Feb29Skip drops the occurrence in non-leap years. This is the RFC
	// 5545 YEARLY recurrence behavior.
	Feb29Skip Feb29Policy = iota
	// Feb29Clamp moves the occurrence to Feb 28 in non-leap years.
	Feb29Clamp
)

// ErrDaySkipped marks a year dropped by the Feb29Skip policy.
var ErrDaySkipped = errors.New("day does not exist in year")

var errNoConverter = errors.New("no lunar converter configured")

// Span is a half-open range of target years, [StartYear, StartYear+Years).
type Span struct {
	StartYear int
	Years     int
}

// End returns the first year after the span.
func (s Span) End() int { return s.StartYear + s.Years }

// YearError reports that a single target year produced no occurrence. The
// surrounding years are unaffected.
type YearError struct {
	Year int
	Err  error
}

func (e *YearError) Error() string {
	return fmt.Sprintf("year %d: %v", e.Year, e.Err)
}

func (e *YearError) Unwrap() error { return e.Err }

// SkippedYear is a collected YearError inside a Result.
type SkippedYear struct {
	Year int
	Err  error
}

// Result wraps the expanded occurrences for one record together with the
// years that produced none.
type Result struct {
	Occurrences []model.Occurrence
	Skipped     []SkippedYear
}

// Generator expands a BirthRecord into its yearly solar occurrences.
// Lunar records are resolved through Convert; solar records through plain
// date arithmetic or a YEARLY recurrence rule, depending on Feb29.
type Generator struct {
	Convert lunar.Converter
	Feb29   Feb29Policy
}

// Occurrences returns the occurrence sequence for rec across span: one
// element per target year in ascending order. Years that resolve yield an
// Occurrence; years that do not yield a *YearError, and the sequence
// continues. The sequence is finite and restartable; ranging over it again
// recomputes from the first year.
func (g Generator) Occurrences(rec model.BirthRecord, span Span) iter.Seq2[model.Occurrence, error] {
	if rec.Lunar {
		return g.lunarSeq(rec, span)
	}
	return g.solarSeq(rec, span)
}

// Expand collects the sequence into a Result, logging each skipped year.
func (g Generator) Expand(rec model.BirthRecord, span Span) Result {
	var res Result
	for occ, err := range g.Occurrences(rec, span) {
		if err != nil {
			year := 0
			var ye *YearError
			if errors.As(err, &ye) {
				year = ye.Year
			}
			res.Skipped = append(res.Skipped, SkippedYear{Year: year, Err: err})
			appLog.Warn("occurrence skipped", "name", rec.Name, "year", year, "reason", err)
			continue
		}
		res.Occurrences = append(res.Occurrences, occ)
	}
	return res
}

func (g Generator) lunarSeq(rec model.BirthRecord, span Span) iter.Seq2[model.Occurrence, error] {
	return func(yield func(model.Occurrence, error) bool) {
		if g.Convert == nil {
			yield(model.Occurrence{}, &YearError{Year: span.StartYear, Err: errNoConverter})
			return
		}
		for y := span.StartYear; y < span.End(); y++ {
			date, err := g.Convert.ToSolar(y, rec.Month, rec.Day)
			if err != nil {
				if !yield(model.Occurrence{}, &YearError{Year: y, Err: err}) {
					return
				}
				continue
			}
			if !yield(model.Occurrence{Record: rec, TargetYear: y, Date: date}, nil) {
				return
			}
		}
	}
}

func (g Generator) solarSeq(rec model.BirthRecord, span Span) iter.Seq2[model.Occurrence, error] {
	if g.Feb29 == Feb29Clamp {
		return g.solarClampSeq(rec, span)
	}
	return g.solarRuleSeq(rec, span)
}

// solarClampSeq walks the years directly, moving Feb 29 to Feb 28 in
// non-leap years.
func (g Generator) solarClampSeq(rec model.BirthRecord, span Span) iter.Seq2[model.Occurrence, error] {
	return func(yield func(model.Occurrence, error) bool) {
		for y := span.StartYear; y < span.End(); y++ {
			day := rec.Day
			if rec.Month == 2 && day == 29 && !isLeapYear(y) {
				day = 28
			}
			date := time.Date(y, time.Month(rec.Month), day, 0, 0, 0, 0, time.UTC)
			if !yield(model.Occurrence{Record: rec, TargetYear: y, Date: date}, nil) {
				return
			}
		}
	}
}

// solarRuleSeq expands through a YEARLY recurrence rule anchored at the
// first year in which the date exists. The rule omits Feb 29 in non-leap
// years on its own; those years come back as *YearError.
func (g Generator) solarRuleSeq(rec model.BirthRecord, span Span) iter.Seq2[model.Occurrence, error] {
	return func(yield func(model.Occurrence, error) bool) {
		firstYear, ok := firstExistingYear(rec, span)
		if !ok {
			// No year in the span has the day at all.
			for y := span.StartYear; y < span.End(); y++ {
				if !yield(model.Occurrence{}, &YearError{Year: y, Err: ErrDaySkipped}) {
					return
				}
			}
			return
		}

		rule, err := rrule.NewRRule(rrule.ROption{
			Freq:    rrule.YEARLY,
			Dtstart: time.Date(firstYear, time.Month(rec.Month), rec.Day, 0, 0, 0, 0, time.UTC),
			Until:   time.Date(span.End()-1, 12, 31, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			yield(model.Occurrence{}, &YearError{Year: span.StartYear, Err: err})
			return
		}

		byYear := make(map[int]time.Time)
		for _, t := range rule.All() {
			byYear[t.Year()] = t
		}

		for y := span.StartYear; y < span.End(); y++ {
			date, ok := byYear[y]
			if !ok {
				if !yield(model.Occurrence{}, &YearError{Year: y, Err: ErrDaySkipped}) {
					return
				}
				continue
			}
			if !yield(model.Occurrence{Record: rec, TargetYear: y, Date: date}, nil) {
				return
			}
		}
	}
}

// firstExistingYear finds the earliest year in span containing the record's
// month/day. Only Feb 29 can fail to exist; everything else is caught at
// parse time.
func firstExistingYear(rec model.BirthRecord, span Span) (int, bool) {
	for y := span.StartYear; y < span.End(); y++ {
		if dateExists(y, rec.Month, rec.Day) {
			return y, true
		}
	}
	return 0, false
}

func dateExists(year, month, day int) bool {
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return int(d.Month()) == month && d.Day() == day
}

func isLeapYear(y int) bool {
	return dateExists(y, 2, 29)
}
