package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"monthcal/internal/config"
	"monthcal/internal/event"
	"monthcal/internal/ics"
	appLog "monthcal/internal/log"
	"monthcal/internal/source"
	"monthcal/internal/web"
)

const version = "0.1.0"

type flagConfig struct {
	configPath string
	events     string
	listen     string
	logLevel   string
	year       int
	month      int
	format     string
	serve      bool
	bare       bool
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		if conf == nil {
			appLog.Error("failed to load config", err, "config_path", flags.configPath)
			os.Exit(1)
		}
		// Defaults are usable even when they could not be written out.
		appLog.Warn("could not write default config", "config_path", flags.configPath, "err", err.Error())
	}
	if err := conf.ApplyEnv(".env"); err != nil {
		appLog.Error("failed to apply environment", err)
		os.Exit(1)
	}

	// CLI flags override the file and the environment.
	if flags.events != "" {
		conf.Events = flags.events
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.logLevel != "" {
		conf.LogLevel = flags.logLevel
	}
	conf.Normalize()

	if err := conf.Validate(); err != nil {
		appLog.Error("invalid config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	level, _ := appLog.ParseLevel(conf.LogLevel)
	appLog.SetLevel(level)

	appLog.Info("monthcal starting", "version", version)
	appLog.Debug("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"events", conf.Events,
		"refresh", conf.RefreshCron,
		"watch", conf.Watch,
		"spread", conf.Spread,
		"padding", conf.Padding,
		"serve", flags.serve,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader := newLoader(conf)

	if flags.serve {
		srv := web.NewServer(conf, loader)
		if err := srv.Reload(ctx); err != nil {
			// Keep serving; scheduled reloads may recover.
			appLog.Warn("initial events load failed", "err", err.Error())
		}
		if err := srv.Run(ctx); err != nil {
			appLog.Error("server stopped", err)
			os.Exit(1)
		}
		appLog.Info("monthcal exiting")
		return
	}

	if err := printMonth(ctx, os.Stdout, conf, loader, flags); err != nil {
		appLog.Error("failed to build month", err)
		os.Exit(1)
	}
}

func newLoader(conf *config.Config) *source.Loader {
	var cacheDir string
	if dir, err := os.UserCacheDir(); err == nil {
		cacheDir = filepath.Join(dir, "monthcal")
	}
	fetcher := source.NewFetcher(cacheDir, nil)
	return source.NewLoader(conf.Events, event.FieldMap(conf.Fields), conf.Location(), fetcher)
}

// printMonth loads the events once and writes the placed month to w.
func printMonth(ctx context.Context, w io.Writer, conf *config.Config, loader *source.Loader, flags flagConfig) error {
	if conf.Events == "" {
		return errors.New("no events source; set -events or events in the config")
	}
	events, err := loader.Load(ctx)
	if err != nil {
		return err
	}

	loc := conf.Location()
	now := time.Now().In(loc)
	year, month := now.Year(), now.Month()
	if flags.year != 0 {
		year = flags.year
	}
	if flags.month != 0 {
		if flags.month < 1 || flags.month > 12 {
			return fmt.Errorf("month must be between 1 and 12, got %d", flags.month)
		}
		month = time.Month(flags.month)
	}

	m, res, err := web.PlaceMonth(events, year, month, loc, web.PlacerOptions(conf)...)
	if err != nil {
		return err
	}
	appLog.Info("month placed", "year", year, "month", month.String(),
		"events", len(events), "placed", res.Placed, "dropped", res.Dropped)

	switch flags.format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(web.NewMonthView(m, now, flags.bare))
	case "ics":
		cal := ics.ExportMonth(m, ics.Options{
			Name:     fmt.Sprintf("%s %d", month, year),
			Location: loc,
			Now:      now,
		})
		return ics.Write(w, cal)
	default:
		return fmt.Errorf("unknown format %q (want json or ics)", flags.format)
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "monthcal.yaml", "Path to config file")
	flag.StringVar(&cfg.events, "events", "", "Events file or URL (overrides config if set)")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.logLevel, "log-level", "", "debug, info, warn or error (overrides config if set)")
	flag.IntVar(&cfg.year, "year", 0, "Year to print (default: current)")
	flag.IntVar(&cfg.month, "month", 0, "Month to print, 1-12 (default: current)")
	flag.StringVar(&cfg.format, "format", "json", "Output format: json or ics")
	flag.BoolVar(&cfg.bare, "bare", false, "Print the numbers-only grid (json only)")
	flag.BoolVar(&cfg.serve, "serve", false, "Serve the HTTP API instead of printing one month")

	flag.Parse()

	return cfg
}
