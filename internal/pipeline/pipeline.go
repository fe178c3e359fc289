// Package pipeline wires one full pass: roster in, calendar files out.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lunarcal/internal/batch"
	"lunarcal/internal/ics"
	appLog "lunarcal/internal/log"
	"lunarcal/internal/lunar"
	"lunarcal/internal/model"
	"lunarcal/internal/occur"
	"lunarcal/internal/roster"
)

// Options configures a single pipeline run.
type Options struct {
	InputPath    string
	OutputPrefix string

	StartYear int
	Years     int
	BatchSize int

	Feb29          occur.Feb29Policy
	FailOnRowError bool

	ProdID          string
	SummaryTemplate string

	// Convert resolves lunar dates; nil selects the production converter.
	Convert lunar.Converter

	// Now supplies DTSTAMP values; nil means time.Now.
	Now func() time.Time
}

// Summary reports what a run produced.
type Summary struct {
	Records      int
	RowErrors    int
	Occurrences  int
	SkippedYears int
	Files        []string
}

// Run executes one pass: parse the roster, expand every record across the
// span, partition the span, and write one calendar file per partition.
// Row- and year-level problems are logged and counted; only file-level
// problems return an error.
func Run(ctx context.Context, opts Options) (Summary, error) {
	var sum Summary

	if opts.Years <= 0 {
		return sum, fmt.Errorf("years must be positive, got %d", opts.Years)
	}
	if opts.InputPath == "" || opts.OutputPrefix == "" {
		return sum, errors.New("input path and output prefix are required")
	}

	parsed, err := roster.ParseFile(opts.InputPath)
	if err != nil {
		return sum, err
	}
	sum.Records = len(parsed.Records)
	sum.RowErrors = len(parsed.RowErrors)

	if opts.FailOnRowError && sum.RowErrors > 0 {
		return sum, fmt.Errorf("roster has %d bad rows: %v", sum.RowErrors, parsed.RowErrors[0])
	}

	gen := occur.Generator{Convert: opts.Convert, Feb29: opts.Feb29}
	if gen.Convert == nil {
		gen.Convert = lunar.NewConverter()
	}

	span := occur.Span{StartYear: opts.StartYear, Years: opts.Years}
	var all []model.Occurrence
	for _, rec := range parsed.Records {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		res := gen.Expand(rec, span)
		all = append(all, res.Occurrences...)
		sum.SkippedYears += len(res.Skipped)
	}
	sum.Occurrences = len(all)

	icsOpts := ics.Options{
		ProdID:          opts.ProdID,
		SummaryTemplate: opts.SummaryTemplate,
		Now:             opts.Now,
	}

	for _, rng := range batch.Partition(opts.StartYear, opts.Years, opts.BatchSize) {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		var inRange []model.Occurrence
		for _, occ := range all {
			// Batch by the target year the occurrence was generated
			// for; the resolved solar date of a lunar month-11/12
			// birthday falls in the next solar year.
			if rng.Contains(occ.TargetYear) {
				inRange = append(inRange, occ)
			}
		}

		path := fmt.Sprintf("%s_%s.ics", opts.OutputPrefix, rng.Suffix())
		cal := ics.BuildCalendar(inRange, icsOpts)
		if err := ics.WriteFile(path, cal); err != nil {
			return sum, err
		}
		sum.Files = append(sum.Files, path)
	}

	appLog.Info("pipeline completed",
		"records", sum.Records,
		"rejected_rows", sum.RowErrors,
		"occurrences", sum.Occurrences,
		"skipped_years", sum.SkippedYears,
		"files", len(sum.Files),
	)
	return sum, nil
}
