package lunar

import (
	"errors"
	"fmt"
	"time"

	"github.com/6tail/lunar-go/calendar"
)

// ErrDateNotExist is returned when the requested lunar month/day does not
// exist in the requested lunar year (e.g. day 30 of a 29-day month).
var ErrDateNotExist = errors.New("lunar date does not exist")

// Converter maps a lunar calendar date to its solar (Gregorian) equivalent.
// Month is the regular 1-12 lunar month; leap months are never requested.
// The generator depends only on this interface, so the underlying calendar
// tables stay swappable.
type Converter interface {
	ToSolar(year, month, day int) (time.Time, error)
}

// NewConverter returns the production Converter backed by the lunar-go
// calendar tables.
func NewConverter() Converter {
	return tableConverter{}
}

type tableConverter struct{}

// ToSolar converts the given lunar date to a solar date at midnight UTC.
//
// The day is validated against the lunar year's month table first, so a
// nonexistent date comes back as ErrDateNotExist. The underlying library
// panics on arguments it rejects; the recover backstop turns any such panic
// into an error as well.
func (tableConverter) ToSolar(year, month, day int) (date time.Time, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lunar conversion: %v", r)
		}
	}()

	if month < 1 || month > 12 || day < 1 || day > 30 {
		return time.Time{}, fmt.Errorf("%w: %d-%d-%d", ErrDateNotExist, year, month, day)
	}

	ly := calendar.NewLunarYear(year)
	lm := ly.GetMonth(month)
	if lm == nil || day > lm.GetDayCount() {
		return time.Time{}, fmt.Errorf("%w: %d-%d-%d", ErrDateNotExist, year, month, day)
	}

	solar := calendar.NewLunarFromYmd(year, month, day).GetSolar()
	return time.Date(solar.GetYear(), time.Month(solar.GetMonth()), solar.GetDay(),
		0, 0, 0, 0, time.UTC), nil
}
