// tickerfetch performs a single quote fetch with the configured provider and
// prints the normalized items. Useful for checking credentials and symbols.
//
// Usage: tickerfetch --config configs/tickerd.example.yaml [--json]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/rickgao/ticker-feed/internal/app"
	"github.com/rickgao/ticker-feed/internal/config"
	"github.com/rickgao/ticker-feed/internal/model"
	"github.com/rickgao/ticker-feed/internal/provider"
)

func main() {
	configPath := flag.String("config", "configs/tickerd.example.yaml", "path to config file")
	envPath := flag.String("env", ".env", "path to .env file (optional)")
	asJSON := flag.Bool("json", false, "print items as JSON")
	timeout := flag.Duration("timeout", 15*time.Second, "overall fetch timeout")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Error("failed to load env file", "path", *envPath, "error", err)
		os.Exit(1)
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	// Quote logs go to stderr so stdout stays parseable
	logger = app.NewLogger(cfg.Log, os.Stderr)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	prov, closeCache, err := app.NewProvider(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to create provider", "error", err)
		os.Exit(1)
	}
	defer closeCache()

	start := time.Now()
	items, err := prov.FetchTickerData(ctx)
	if err != nil {
		var pe *provider.ProviderError
		if errors.As(err, &pe) {
			fmt.Fprintf(os.Stderr, "fetch failed: %s\n", pe.Message)
		} else {
			fmt.Fprintf(os.Stderr, "fetch failed: %v\n", err)
		}
		closeCache()
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(items); err != nil {
			fmt.Fprintf(os.Stderr, "encode: %v\n", err)
			os.Exit(1)
		}
		return
	}

	printTable(items)
	fmt.Printf("\n%d items in %v via %s\n", len(items), time.Since(start).Round(time.Millisecond), cfg.Provider.Kind)
}

func printTable(items []model.TickerItem) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "SYMBOL\tNAME\tPRICE\tCHANGE\tPCT\t")
	for _, it := range items {
		arrow := "▲"
		if !it.IsPositive {
			arrow = "▼"
		}
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%+.2f\t%s %.2f%%\t\n", it.Symbol, it.Name, it.Price, it.Change, arrow, it.PercentChange)
	}
	tw.Flush()
}
