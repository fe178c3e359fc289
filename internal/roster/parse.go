package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	appLog "lunarcal/internal/log"
	"lunarcal/internal/model"
)

// RowError describes one rejected CSV row.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// ParseResult is the outcome of parsing a roster file. Rows that fail
// validation end up in RowErrors; valid rows become Records. Both can be
// non-empty at once.
type ParseResult struct {
	Records   []model.BirthRecord
	RowErrors []RowError
}

// header layouts accepted by Parse. The 4-column form predates the is_lunar
// column and marks every row as lunar.
var (
	headerLunarOnly = []string{"name", "year", "month", "day"}
	headerFull      = []string{"name", "year", "month", "day", "is_lunar"}
)

// ParseFile opens and parses a roster CSV. An unreadable file or an
// unrecognized header is a file-level error; bad data rows are collected in
// the result and logged, but never abort the parse.
func ParseFile(path string) (ParseResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ParseResult{}, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()

	res, err := Parse(f)
	if err != nil {
		return res, err
	}

	appLog.Info("roster parse completed",
		"path", path,
		"records", len(res.Records),
		"rejected_rows", len(res.RowErrors),
	)
	return res, nil
}

// Parse reads roster rows from r. The first row must be one of the known
// headers.
func Parse(r io.Reader) (ParseResult, error) {
	var res ParseResult

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return res, errors.New("roster is empty")
		}
		return res, fmt.Errorf("read header: %w", err)
	}

	allLunar, err := classifyHeader(header)
	if err != nil {
		return res, err
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if errors.Is(err, csv.ErrFieldCount) {
				// The short/long record is still returned, so its
				// position is available.
				line, _ := cr.FieldPos(0)
				res.addRowError(line, errors.New("wrong number of columns"))
				continue
			}
			// Structural CSV damage (e.g. bare quote); cannot resync.
			return res, fmt.Errorf("read row: %w", err)
		}
		line, _ := cr.FieldPos(0)

		rec, rerr := parseRow(row, allLunar)
		if rerr != nil {
			res.addRowError(line, rerr)
			continue
		}
		res.Records = append(res.Records, rec)
	}

	return res, nil
}

func (res *ParseResult) addRowError(line int, err error) {
	re := RowError{Line: line, Err: err}
	res.RowErrors = append(res.RowErrors, re)
	appLog.Warn("roster row rejected", "line", line, "reason", err)
}

func classifyHeader(header []string) (allLunar bool, err error) {
	norm := make([]string, len(header))
	for i, h := range header {
		norm[i] = strings.ToLower(strings.TrimSpace(h))
	}
	if equalFields(norm, headerFull) {
		return false, nil
	}
	if equalFields(norm, headerLunarOnly) {
		return true, nil
	}
	return false, fmt.Errorf("unrecognized header %q (want %q or %q)",
		strings.Join(header, ","),
		strings.Join(headerFull, ","),
		strings.Join(headerLunarOnly, ","))
}

func equalFields(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func parseRow(row []string, allLunar bool) (model.BirthRecord, error) {
	var rec model.BirthRecord

	rec.Name = strings.TrimSpace(row[0])
	if rec.Name == "" {
		return rec, errors.New("empty name")
	}

	var err error
	if rec.Year, err = parseIntField("year", row[1]); err != nil {
		return rec, err
	}
	if rec.Month, err = parseIntField("month", row[2]); err != nil {
		return rec, err
	}
	if rec.Day, err = parseIntField("day", row[3]); err != nil {
		return rec, err
	}

	if allLunar {
		rec.Lunar = true
	} else {
		rec.Lunar, err = parseLunarFlag(row[4])
		if err != nil {
			return rec, err
		}
	}

	if rec.Year < 1 {
		return rec, fmt.Errorf("year %d out of range", rec.Year)
	}
	if rec.Month < 1 || rec.Month > 12 {
		return rec, fmt.Errorf("month %d out of range", rec.Month)
	}
	maxDay := maxSolarDay(rec.Month)
	if rec.Lunar {
		// Lunar months never exceed 30 days.
		maxDay = 30
	}
	if rec.Day < 1 || rec.Day > maxDay {
		return rec, fmt.Errorf("day %d out of range for month %d", rec.Day, rec.Month)
	}

	return rec, nil
}

// maxSolarDay is the largest day the month can have in any year, so Feb 29
// passes here and the leap-year policy is applied during generation.
func maxSolarDay(month int) int {
	switch month {
	case 2:
		return 29
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}

func parseIntField(name, v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s %q is not an integer", name, v)
	}
	return n, nil
}

func parseLunarFlag(v string) (bool, error) {
	s := strings.ToLower(strings.TrimSpace(v))
	switch s {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("is_lunar %q is not a boolean", v)
	}
	return b, nil
}
