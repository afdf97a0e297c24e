package cmd

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/offlinefirst/inputfixture/pkg/eventlog"
	"github.com/offlinefirst/inputfixture/pkg/store"
)

func newAnalyzeCommand() command {
	return command{
		name:        "analyze",
		description: "Import an event log into the analysis database and summarize it",
		configure: func(fs *flag.FlagSet) {
			fs.String("db", "", "Analysis database path (default: <cache_dir>/analysis.db)")
		},
		run: runAnalyze,
	}
}

func runAnalyze(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
	if ctx == nil {
		return fmt.Errorf("application context unavailable")
	}
	if len(args) != 1 {
		return fmt.Errorf("analyze expects exactly one event log path")
	}
	path := args[0]

	dbPath := stringFlag(fs, "db")
	if dbPath == "" {
		dbPath = filepath.Join(ctx.Config.Paths.CacheDir, "analysis.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("ensure cache directory: %w", err)
	}

	hdr, events, err := eventlog.Read(path)
	if err != nil {
		return fmt.Errorf("read event log: %w", err)
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	sessionID, err := db.ImportSession(path, hdr, events)
	if err != nil {
		return err
	}

	summary, err := db.Summarize(sessionID)
	if err != nil {
		return err
	}

	ctx.Logger.Info("event log imported", "path", path, "db", dbPath,
		"session", sessionID, "events", summary.EventCount)

	fmt.Fprintf(stdout, "Imported %s as session %d (%s)\n", path, sessionID, dbPath)
	fmt.Fprintf(stdout, "  events: %d over %.3fs\n", summary.EventCount, float64(summary.DurationNs)/1e9)

	kinds := make([]string, 0, len(summary.TypeCounts))
	for kind := range summary.TypeCounts {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Fprintf(stdout, "  %s: %d\n", kind, summary.TypeCounts[kind])
	}

	if summary.UnmatchedClicks > 0 || summary.UnmatchedKeys > 0 {
		fmt.Fprintf(stdout, "  WARNING: unmatched down/up pairs: %d clicks, %d keys\n", summary.UnmatchedClicks, summary.UnmatchedKeys)
	} else {
		fmt.Fprintln(stdout, "  all click and key pairs matched")
	}

	return nil
}
