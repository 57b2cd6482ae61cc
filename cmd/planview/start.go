package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mattjoyce/planview/internal/api"
	"github.com/mattjoyce/planview/internal/artifact"
	"github.com/mattjoyce/planview/internal/auth"
	"github.com/mattjoyce/planview/internal/cad"
	"github.com/mattjoyce/planview/internal/config"
	"github.com/mattjoyce/planview/internal/events"
	"github.com/mattjoyce/planview/internal/export"
	"github.com/mattjoyce/planview/internal/janitor"
	"github.com/mattjoyce/planview/internal/lock"
	"github.com/mattjoyce/planview/internal/log"
	"github.com/mattjoyce/planview/internal/reaper"
	"github.com/mattjoyce/planview/internal/roommapping"
	"github.com/mattjoyce/planview/internal/storage"
	"github.com/mattjoyce/planview/internal/tui/watch"
)

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	if *configPath == "" {
		discovered, err := config.DiscoverConfigDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to discover config: %v\n", err)
			return 1
		}
		*configPath = discovered
		fmt.Fprintf(os.Stderr, "Using discovered config: %s\n", *configPath)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel)
	logger := log.WithComponent("main")
	logger.Info("planview starting", "version", version, "config", *configPath)

	pidLockPath := lock.PathFor(cfg.State.Path)
	pidLock, err := lock.Acquire(pidLockPath)
	if err != nil {
		logger.Error("failed to acquire PID lock (another instance may be running)", "path", pidLockPath, "error", err)
		return 1
	}
	defer pidLock.Release()
	logger.Info("acquired PID lock", "path", pidLockPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := storage.OpenSQLite(ctx, cfg.State.Path)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.State.Path, "error", err)
		return 1
	}
	defer db.Close()
	logger.Info("database opened", "path", cfg.State.Path)

	cads := cad.NewStore(db)
	mappings := roommapping.NewStore(db)
	ledger := export.NewLedger(db)
	hub := events.NewHub(256)

	store, err := artifact.NewFSStore(cfg.Export.Dir)
	if err != nil {
		logger.Error("failed to initialize export directory", "dir", cfg.Export.Dir, "error", err)
		return 1
	}

	renderer, err := export.LoadRenderer(cfg.Export.Template)
	if err != nil {
		logger.Error("failed to load export template", "template", cfg.Export.Template, "error", err)
		return 1
	}

	deleter := export.NewDeleter(store, ledger, log.Get())
	reap := reaper.New(deleter,
		reaper.WithNotifier(hub),
		reaper.WithLogger(log.Get()),
		reaper.WithMaxConcurrentDeletes(cfg.Export.MaxConcurrentDeletes),
	)
	// Pending timers are dropped on shutdown; the next startup sweep removes
	// their files once they are older than sweep_after.
	defer reap.Close()

	exporter := export.NewService(export.Config{
		BaseURL:   cfg.Export.BaseURL,
		Retention: cfg.Export.Retention,
	}, cads, mappings, renderer, store, reap, ledger, log.Get())

	jan := janitor.New(janitor.Config{
		Interval:  cfg.Export.SweepInterval,
		OlderThan: cfg.Export.SweepAfter,
	}, store, reap, ledger, hub, log.Get())
	if err := jan.Start(ctx); err != nil {
		logger.Error("janitor failed to start", "error", err)
		return 1
	}
	defer jan.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)

	apiServer := api.New(apiConfig(cfg), cads, mappings, exporter, store, reap, hub, log.WithComponent("api"))
	go func() {
		if err := apiServer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("api: %w", err)
		}
	}()

	logger.Info("planview running (press Ctrl+C to stop)",
		"listen", cfg.API.Listen,
		"export_dir", store.Dir(),
		"retention", cfg.Export.Retention,
	)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	case err := <-errCh:
		logger.Error("component failed", "error", err)
		cancel()
		return 1
	}

	logger.Info("planview stopped", "pending_deletions_dropped", reap.Len())
	return 0
}

func apiConfig(cfg *config.Config) api.Config {
	tokens := make([]auth.TokenConfig, 0, len(cfg.API.Auth.Tokens))
	for _, t := range cfg.API.Auth.Tokens {
		tokens = append(tokens, auth.TokenConfig{
			Token:  t.Token,
			Scopes: t.Scopes,
		})
	}
	return api.Config{
		Listen: cfg.API.Listen,
		APIKey: cfg.API.Auth.APIKey,
		Tokens: tokens,
	}
}

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	apiURL := fs.String("api-url", "http://127.0.0.1:8080", "planview API URL")
	apiKey := fs.String("api-key", os.Getenv("PLANVIEW_API_KEY"), "API Bearer Token")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	m := watch.New(*apiURL, *apiKey)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		return 1
	}
	return 0
}

type statusCheck struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

type statusReport struct {
	Healthy bool          `json:"healthy"`
	Checks  []statusCheck `json:"checks"`
}

func runSystemStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	jsonOut := fs.Bool("json", false, "Output in JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	report := collectStatus(*configPath)

	if *jsonOut {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "JSON format error: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
	} else {
		for _, c := range report.Checks {
			status := "OK"
			if !c.OK {
				status = "FAIL"
			}
			if c.Detail != "" {
				fmt.Printf("%s: %s (%s)\n", c.Name, status, c.Detail)
			} else {
				fmt.Printf("%s: %s\n", c.Name, status)
			}
		}
	}

	if !report.Healthy {
		return 1
	}
	return 0
}

func collectStatus(configPath string) statusReport {
	var report statusReport
	add := func(name string, ok bool, detail string) {
		report.Checks = append(report.Checks, statusCheck{Name: name, OK: ok, Detail: detail})
	}

	cfg, err := loadConfigForTool(configPath)
	if err != nil {
		add("config_load", false, err.Error())
		add("state_db", false, "config not loaded")
		add("export_dir", false, "config not loaded")
		add("pid_lock", false, "config not loaded")
		return report
	}
	add("config_load", true, "")

	db, err := storage.OpenSQLite(context.Background(), cfg.State.Path)
	if err != nil {
		add("state_db", false, err.Error())
	} else {
		_ = db.Close()
		add("state_db", true, cfg.State.Path)
	}

	if info, err := os.Stat(cfg.Export.Dir); err != nil {
		add("export_dir", false, err.Error())
	} else if !info.IsDir() {
		add("export_dir", false, "not a directory")
	} else {
		add("export_dir", true, cfg.Export.Dir)
	}

	// A free lock means no server is running, which is a healthy state for
	// offline tooling.
	lockPath := lock.PathFor(cfg.State.Path)
	l, err := lock.Acquire(lockPath)
	switch {
	case err == nil:
		_ = l.Release()
		add("pid_lock", true, "not held")
	case errors.Is(err, lock.ErrHeld):
		add("pid_lock", true, err.Error())
	default:
		add("pid_lock", false, err.Error())
	}

	report.Healthy = true
	for _, c := range report.Checks {
		if !c.OK {
			report.Healthy = false
		}
	}
	return report
}
