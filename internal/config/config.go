package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration. All fields have
// defaults; the config file is optional and created on first run.
type Config struct {
	// ProdID is the PRODID property written into generated calendars.
	ProdID string `yaml:"prodid" json:"prodid"`

	// SummaryTemplate is the fmt template for event summaries; it receives
	// the person's name as its single argument.
	SummaryTemplate string `yaml:"summary_template" json:"summary_template"`

	// DefaultYears is the span of years generated when -years is not given.
	DefaultYears int `yaml:"default_years" json:"default_years"`

	// DefaultBatchSize is the number of years per output file when
	// -batch-size is not given.
	DefaultBatchSize int `yaml:"default_batch_size" json:"default_batch_size"`

	// Feb29 selects the policy for solar Feb 29 birthdays in non-leap years.
	// Supported values:
	//   - "skip" (default): the occurrence exists only in leap years
	//   - "clamp": non-leap years get Feb 28
	Feb29 string `yaml:"feb29" json:"feb29"`

	// OnRowError selects how malformed CSV rows are handled. Supported
	// values:
	//   - "skip" (default): report the row, keep going
	//   - "fail": fail the run when any row is malformed
	OnRowError string `yaml:"on_row_error" json:"on_row_error"`

	// Refresh is a cron-style schedule string (e.g. "0 4 * * *"). If set,
	// the tool stays resident and regenerates output on this schedule
	// instead of exiting after one pass.
	Refresh string `yaml:"refresh" json:"refresh"`

	// Listen is an HTTP listen address for serving the generated .ics
	// files (calendar subscription). Empty disables the server.
	Listen string `yaml:"listen" json:"listen"`
}

// Policy values accepted by Config.Feb29 and Config.OnRowError.
const (
	Feb29Skip  = "skip"
	Feb29Clamp = "clamp"

	RowErrorSkip = "skip"
	RowErrorFail = "fail"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		ProdID:           "-//Haeward//Lunar Birthdays//CN",
		SummaryTemplate:  "%s's birthday",
		DefaultYears:     50,
		DefaultBatchSize: 50,
		Feb29:            Feb29Skip,
		OnRowError:       RowErrorSkip,
		Refresh:          "",
		Listen:           "",
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.ProdID == "" {
		c.ProdID = "-//Haeward//Lunar Birthdays//CN"
	}
	if c.SummaryTemplate == "" {
		c.SummaryTemplate = "%s's birthday"
	}
	if c.DefaultYears <= 0 {
		c.DefaultYears = 50
	}
	if c.DefaultBatchSize <= 0 {
		c.DefaultBatchSize = 50
	}
	switch c.Feb29 {
	case Feb29Skip, Feb29Clamp:
		// ok
	default:
		c.Feb29 = Feb29Skip
	}
	switch c.OnRowError {
	case RowErrorSkip, RowErrorFail:
		// ok
	default:
		c.OnRowError = RowErrorSkip
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".lunarcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
