// Command vali-intervals reconstructs the tracked validator's recent
// weight-setting intervals across a set of subnets and prints them with
// health colouring. Run once by default; -every turns it into a polling
// loop with config hot-reload.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/SolR3/Vali-Weight-Intervals/internal/cache"
	"github.com/SolR3/Vali-Weight-Intervals/internal/chain"
	"github.com/SolR3/Vali-Weight-Intervals/internal/config"
	"github.com/SolR3/Vali-Weight-Intervals/internal/engine"
	"github.com/SolR3/Vali-Weight-Intervals/internal/render"
	"github.com/SolR3/Vali-Weight-Intervals/internal/series"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional, defaults apply without one)")
	netuidsFlag := flag.String("netuids", "", "comma-separated subnet ids (overrides config)")
	window := flag.Int("window", 0, "number of weight-update intervals per subnet (overrides config)")
	noCache := flag.Bool("no-cache", false, "ignore previously cached series; reconstruct the full window")
	table := flag.Bool("table", false, "render boxed tables instead of compact text")
	noColor := flag.Bool("no-color", false, "disable ANSI colours")
	every := flag.Duration("every", 0, "re-gather on this interval instead of running once")
	flag.Parse()

	// Logs go to stderr as JSON; stdout carries only the rendered report.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err == nil {
		slog.Info("loaded environment from .env")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	overrideNetuids, err := parseNetuids(*netuidsFlag)
	if err != nil {
		slog.Error("invalid -netuids", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	run := runner{
		overrideNetuids: overrideNetuids,
		overrideWindow:  *window,
		noCache:         *noCache,
		renderOpts:      render.Options{Table: *table, NoColor: *noColor},
	}

	if *every <= 0 {
		if err := run.once(ctx, cfg); err != nil {
			slog.Error("run failed", "err", err)
			os.Exit(1)
		}
		return
	}

	// Loop mode: re-gather on a ticker, hot-reloading the config so edits
	// to thresholds or the subnet set apply on the next cycle.
	var mu sync.Mutex
	current := cfg
	if *configPath != "" {
		go func() {
			err := config.Watch(ctx, *configPath, func(updated *config.Config) {
				mu.Lock()
				current = updated
				mu.Unlock()
			})
			if err != nil {
				slog.Error("config watcher stopped", "err", err)
			}
		}()
	}

	ticker := time.NewTicker(*every)
	defer ticker.Stop()
	for {
		mu.Lock()
		cfg := current
		mu.Unlock()
		if err := run.once(ctx, cfg); err != nil {
			slog.Error("gather cycle failed", "err", err)
		}
		select {
		case <-ctx.Done():
			slog.Info("vali-intervals shutting down")
			return
		case <-ticker.C:
		}
	}
}

// runner holds the CLI overrides that apply to every cycle.
type runner struct {
	overrideNetuids []int
	overrideWindow  int
	noCache         bool
	renderOpts      render.Options
}

// once performs a full gather-merge-persist-render cycle. Only session
// establishment and an empty subnet set are fatal; per-subnet failures are
// reported in the rendered output.
func (r runner) once(ctx context.Context, cfg *config.Config) error {
	store := cache.New(cfg.Cache.Dir)

	netuids, err := r.resolveNetuids(cfg, store)
	if err != nil {
		return err
	}

	opts := cfg.Gather.Options()
	if r.overrideWindow > 0 {
		opts.Window = r.overrideWindow
	}

	existing := map[int]*series.ValidatorSeries{}
	if !r.noCache {
		existing = store.LoadAll(netuids)
	}

	client, err := chain.Dial(ctx, cfg.Network.Resolved())
	if err != nil {
		return err
	}
	defer client.Close()

	eng := engine.New(client, cfg.Validator.Resolver(), opts)
	results := eng.Gather(ctx, netuids, existing)

	for netuid, vs := range results {
		if err := store.Save(netuid, vs); err != nil {
			slog.Warn("failed to persist series", "netuid", netuid, "err", err)
		}
	}

	render.New(os.Stdout, cfg.Thresholds.Thresholds(), r.renderOpts).Render(netuids, results)
	return nil
}

// resolveNetuids picks the subnet set: the -netuids flag, then the config,
// then whatever the cache directory already holds.
func (r runner) resolveNetuids(cfg *config.Config, store *cache.Store) ([]int, error) {
	if len(r.overrideNetuids) > 0 {
		return r.overrideNetuids, nil
	}
	if len(cfg.Gather.Netuids) > 0 {
		return cfg.Gather.Netuids, nil
	}
	netuids, err := store.Netuids()
	if err != nil {
		return nil, err
	}
	if len(netuids) == 0 {
		return nil, fmt.Errorf("no subnets: set gather.netuids or pass -netuids")
	}
	slog.Info("using subnets from cache directory", "count", len(netuids))
	return netuids, nil
}

// parseNetuids parses a comma-separated netuid list, deduplicated and
// sorted.
func parseNetuids(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	seen := map[int]struct{}{}
	var netuids []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("bad netuid %q", part)
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		netuids = append(netuids, n)
	}
	sort.Ints(netuids)
	return netuids, nil
}
