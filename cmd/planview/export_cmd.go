package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/mattjoyce/planview/internal/artifact"
	"github.com/mattjoyce/planview/internal/events"
	"github.com/mattjoyce/planview/internal/export"
	"github.com/mattjoyce/planview/internal/janitor"
	"github.com/mattjoyce/planview/internal/lock"
	"github.com/mattjoyce/planview/internal/log"
	"github.com/mattjoyce/planview/internal/storage"
)

func runExportList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	all := fs.Bool("all", false, "Include deleted exports")
	limit := fs.Int("limit", 50, "Maximum number of entries")
	jsonOut := fs.Bool("json", false, "Output in JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	cfg, err := loadConfigForTool(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Load error: %v\n", err)
		return 1
	}

	ctx := context.Background()
	db, err := storage.OpenSQLite(ctx, cfg.State.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		return 1
	}
	defer db.Close()

	records, err := export.NewLedger(db).List(ctx, export.ListOptions{Limit: *limit, IncludeDeleted: *all})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list exports: %v\n", err)
		return 1
	}

	if *jsonOut {
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "JSON format error: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	if len(records) == 0 {
		fmt.Println("No exports.")
		return 0
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tCAD\tMAPPING\tCREATED\tEXPIRES\tSTATUS")
	for _, rec := range records {
		mapping := "-"
		if rec.MappingID != nil {
			mapping = fmt.Sprintf("%d", *rec.MappingID)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n",
			rec.FileName,
			rec.CADFileID,
			mapping,
			rec.CreatedAt.Local().Format(time.DateTime),
			rec.ExpiresAt.Local().Format(time.DateTime),
			recordStatus(rec),
		)
	}
	_ = tw.Flush()
	return 0
}

func recordStatus(rec export.Record) string {
	switch {
	case rec.DeletedAt == nil:
		return "live"
	case rec.LastError != "":
		return "deleted (" + rec.LastError + ")"
	default:
		return "deleted"
	}
}

func runExportSweep(args []string) int {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	olderThan := fs.Duration("older-than", 0, "Override export.sweep_after")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	cfg, err := loadConfigForTool(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Load error: %v\n", err)
		return 1
	}

	// A running server owns every pending deletion; sweeping underneath it
	// would remove files it still serves.
	pidLock, err := lock.Acquire(lock.PathFor(cfg.State.Path))
	if err != nil {
		if errors.Is(err, lock.ErrHeld) {
			fmt.Fprintf(os.Stderr, "Server is running (%v); its janitor sweeps every %s\n", err, cfg.Export.SweepInterval)
			return 1
		}
		fmt.Fprintf(os.Stderr, "Failed to acquire lock: %v\n", err)
		return 1
	}
	defer pidLock.Release()

	ctx := context.Background()
	db, err := storage.OpenSQLite(ctx, cfg.State.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		return 1
	}
	defer db.Close()

	store, err := artifact.NewFSStore(cfg.Export.Dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open export directory: %v\n", err)
		return 1
	}

	after := cfg.Export.SweepAfter
	if *olderThan > 0 {
		after = *olderThan
	}

	jan := janitor.New(janitor.Config{OlderThan: after}, store, nil, export.NewLedger(db), events.NewHub(8), log.Get())
	report, err := jan.SweepOnce(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Sweep failed: %v\n", err)
		return 1
	}

	fmt.Printf("Swept %s: deleted %d, kept %d\n", store.Dir(), report.Deleted, report.Kept)
	return 0
}
