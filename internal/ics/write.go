package ics

import (
	"fmt"
	"os"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "lunarcal/internal/log"
	"lunarcal/internal/model"
)

// Options controls calendar serialization.
type Options struct {
	// ProdID is written as the calendar PRODID.
	ProdID string

	// SummaryTemplate is the fmt template for event summaries, applied to
	// the person's name.
	SummaryTemplate string

	// Now supplies the DTSTAMP; nil means time.Now. Injected so tests get
	// byte-stable output.
	Now func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// BuildCalendar assembles a VCALENDAR holding one all-day VEVENT per
// occurrence. DTEND is the exclusive next day, per the all-day convention.
func BuildCalendar(occs []model.Occurrence, opts Options) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetProductId(opts.ProdID)
	cal.SetVersion("2.0")
	cal.SetCalscale("GREGORIAN")

	stamp := opts.now().UTC()

	// Distinct names can slug identically ("Ann Lee" / "Ann-Lee");
	// suffix repeats so UIDs stay unique within the calendar.
	seen := make(map[string]int)

	for _, occ := range occs {
		key := eventKey(occ)
		seen[key]++
		if n := seen[key]; n > 1 {
			key = fmt.Sprintf("%s-%d", key, n)
		}
		ev := cal.AddEvent(key + "@lunarcal")
		ev.SetDtStampTime(stamp)
		ev.SetSummary(fmt.Sprintf(opts.SummaryTemplate, occ.Record.Name))
		ev.SetAllDayStartAt(occ.Date)
		ev.SetAllDayEndAt(occ.Date.AddDate(0, 0, 1))
	}

	return cal
}

// WriteFile serializes cal to path with owner-only permissions.
func WriteFile(path string, cal *ical.Calendar) error {
	if err := os.WriteFile(path, []byte(cal.Serialize()), 0o600); err != nil {
		return fmt.Errorf("write calendar: %w", err)
	}
	appLog.Info("calendar written", "path", path)
	return nil
}

// eventKey builds the stable UID stem for the occurrence so re-importing a
// regenerated file de-duplicates instead of piling up copies. Keyed on the
// target year, which is unique per record, rather than the solar year,
// which two adjacent target years of a lunar record can share.
func eventKey(occ model.Occurrence) string {
	return fmt.Sprintf("%s-%d", nameSlug(occ.Record.Name), occ.TargetYear)
}

func nameSlug(name string) string {
	var b strings.Builder
	lastDash := true // suppress a leading dash
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
