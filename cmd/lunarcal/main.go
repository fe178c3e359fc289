package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"lunarcal/internal/config"
	appLog "lunarcal/internal/log"
	"lunarcal/internal/occur"
	"lunarcal/internal/pipeline"
	"lunarcal/internal/web"
)

// flagConfig holds CLI flag values; zero values defer to the config file.
type flagConfig struct {
	configPath string
	years      int
	startYear  int
	batchSize  int
	refresh    string
	listen     string
}

func main() {
	flags := parseFlags()

	args := flag.Args()
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: lunarcal [flags] <input.csv> <output-prefix>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	inputPath, outputPrefix := args[0], args[1]

	conf, err := loadConfig(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI flags override the config file where provided.
	if flags.refresh != "" {
		conf.Refresh = flags.refresh
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	years := flags.years
	if years == 0 {
		years = conf.DefaultYears
	}
	startYear := flags.startYear
	if startYear == 0 {
		startYear = time.Now().Year()
	}
	batchSize := flags.batchSize
	if batchSize == 0 {
		batchSize = conf.DefaultBatchSize
	}

	opts := pipeline.Options{
		InputPath:       inputPath,
		OutputPrefix:    outputPrefix,
		StartYear:       startYear,
		Years:           years,
		BatchSize:       batchSize,
		Feb29:           feb29Policy(conf),
		FailOnRowError:  conf.OnRowError == config.RowErrorFail,
		ProdID:          conf.ProdID,
		SummaryTemplate: conf.SummaryTemplate,
	}

	appLog.Info("lunarcal starting",
		"input", inputPath,
		"prefix", outputPrefix,
		"start_year", startYear,
		"years", years,
		"batch_size", batchSize,
		"feb29", conf.Feb29,
		"refresh", conf.Refresh,
		"listen", conf.Listen,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if _, err := pipeline.Run(ctx, opts); err != nil {
		appLog.Error("generation failed", err)
		os.Exit(1)
	}

	// One-shot unless a refresh schedule or a listen address keeps us
	// resident.
	if conf.Refresh == "" && conf.Listen == "" {
		return
	}

	if conf.Refresh != "" {
		c := cron.New()
		_, err := c.AddFunc(conf.Refresh, func() {
			if _, err := pipeline.Run(ctx, opts); err != nil {
				appLog.Error("scheduled generation failed", err)
			}
		})
		if err != nil {
			appLog.Error("invalid refresh schedule", err, "refresh", conf.Refresh)
			os.Exit(1)
		}
		c.Start()
		defer c.Stop()
		appLog.Info("refresh schedule active", "refresh", conf.Refresh)
	}

	if conf.Listen != "" {
		if err := web.StartServer(ctx, conf.Listen, filepath.Dir(outputPrefix)); err != nil {
			appLog.Error("HTTP server failed", err, "listen", conf.Listen)
			os.Exit(1)
		}
	} else {
		<-ctx.Done()
	}

	appLog.Info("lunarcal exiting")
}

// loadConfig returns built-in defaults when no config path is given;
// otherwise it loads (and on first run creates) the file.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(path)
}

func feb29Policy(conf *config.Config) occur.Feb29Policy {
	if conf.Feb29 == config.Feb29Clamp {
		return occur.Feb29Clamp
	}
	return occur.Feb29Skip
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "", "Path to config file (created on first use; empty = built-in defaults)")
	flag.IntVar(&cfg.years, "years", 0, "Total span of years to generate (default from config: 50)")
	flag.IntVar(&cfg.startYear, "start-year", 0, "First year of the span (default: current year)")
	flag.IntVar(&cfg.batchSize, "batch-size", 0, "Years per output file (default from config: 50)")
	flag.StringVar(&cfg.refresh, "refresh", "", "Cron schedule for regeneration; keeps the process resident (overrides config if set)")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address for serving generated files (overrides config if set)")

	flag.Parse()

	return cfg
}
