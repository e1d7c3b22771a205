package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tidyfin/findata"
	"github.com/tidyfin/findata/internal/config"
	"github.com/tidyfin/findata/internal/providers"
	"github.com/tidyfin/findata/internal/version"
)

func main() {
	var (
		configPath   = flag.String("config", "", "path to config file (optional)")
		domain       = flag.String("domain", "", "data domain (e.g. factors_ff, fred, stock_prices)")
		dataset      = flag.String("dataset", "", "dataset identifier for factor and wrds domains")
		frequency    = flag.String("frequency", "", "frequency for macro_predictors (monthly/quarterly/annual)")
		series       = flag.String("series", "", "comma-separated FRED series IDs")
		symbols      = flag.String("symbols", "", "comma-separated ticker symbols")
		index        = flag.String("index", "", "index name for constituents (e.g. \"S&P 500\")")
		start        = flag.String("start", "", "start date (YYYY-MM-DD)")
		end          = flag.String("end", "", "end date (YYYY-MM-DD)")
		output       = flag.String("output", "", "write CSV to this file instead of stdout")
		describe     = flag.Bool("describe", false, "print summary statistics instead of CSV")
		listIndexes  = flag.Bool("list-indexes", false, "list supported constituent indexes and exit")
		listDatasets = flag.Bool("list-datasets", false, "list known datasets for -domain and exit")
		verbose      = flag.Bool("v", false, "debug logging")
		showVersion  = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// .env carries WRDS_USER/WRDS_PASSWORD for the wrds domains.
	if err := godotenv.Load(); err == nil {
		logger.Debug("loaded .env")
	}

	if *listIndexes {
		for _, name := range providers.SupportedIndexes() {
			fmt.Println(name)
		}
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	client := findata.New(findata.WithConfig(cfg), findata.WithLogger(logger))
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if *listDatasets {
		names, err := client.Datasets(ctx, findata.Domain(*domain))
		if err != nil {
			logger.Error("failed to list datasets", "error", err)
			os.Exit(1)
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	req := findata.Request{
		Domain:    findata.Domain(*domain),
		Dataset:   *dataset,
		Frequency: findata.Frequency(*frequency),
		Series:    splitList(*series),
		Symbols:   splitList(*symbols),
		Index:     *index,
	}
	if req.Start, err = parseDate(*start); err != nil {
		logger.Error("invalid -start", "error", err)
		os.Exit(1)
	}
	if req.End, err = parseDate(*end); err != nil {
		logger.Error("invalid -end", "error", err)
		os.Exit(1)
	}

	tbl, err := client.Download(ctx, req)
	if err != nil {
		logger.Error("download failed", "error", err)
		os.Exit(1)
	}

	if *describe {
		fmt.Println(tbl.DataFrame().Describe())
		return
	}

	out := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			logger.Error("failed to create output file", "error", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	if err := tbl.WriteCSV(out); err != nil {
		logger.Error("failed to write csv", "error", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Defaults(), nil
	}
	return config.LoadAndValidate(path)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}
