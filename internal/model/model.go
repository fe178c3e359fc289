package model

import "time"

// BirthRecord is one parsed roster row. Year/Month/Day are in the calendar
// system indicated by Lunar; for lunar records, Day may go up to 30 and the
// month always denotes the regular (non-leap) lunar month. Immutable once
// parsed.
type BirthRecord struct {
	Name  string
	Year  int
	Month int // 1-12
	Day   int // 1-31 (1-30 for lunar records)
	Lunar bool
}

// Occurrence is one concrete yearly instance of a birthday, resolved to the
// solar calendar. Derived per run, never persisted.
type Occurrence struct {
	Record BirthRecord

	// TargetYear is the year of the span this occurrence was generated
	// for. For lunar records the resolved solar date can fall in the
	// following solar year (lunar months 11-12 convert to January or
	// February), so batching goes by TargetYear, not by Date.
	TargetYear int

	// Date is the solar calendar day of the occurrence (midnight UTC;
	// only the Y/M/D components are meaningful — birthdays are all-day).
	Date time.Time
}
