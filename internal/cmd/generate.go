package cmd

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/offlinefirst/inputfixture/internal/buildinfo"
	"github.com/offlinefirst/inputfixture/pkg/compose"
	"github.com/offlinefirst/inputfixture/pkg/event"
	"github.com/offlinefirst/inputfixture/pkg/eventlog"
	"github.com/offlinefirst/inputfixture/pkg/manifest"
	"github.com/offlinefirst/inputfixture/pkg/scenario"
	"github.com/offlinefirst/inputfixture/pkg/trajectory"
)

func newGenerateCommand() command {
	return command{
		name:        "generate",
		description: "Synthesize a deterministic input-event fixture",
		configure: func(fs *flag.FlagSet) {
			fs.String("scenario", "", "Built-in scenario name (default from config)")
			fs.String("scenario-file", "", "Path to a YAML scenario definition")
			fs.Int("duration", 0, "Session duration in seconds (default from scenario or config)")
			fs.Int("rate", 0, "Pointer sample rate in Hz (default from config)")
			fs.String("out", "", "Fixtures output directory (default from config)")
			fs.Bool("plan-only", false, "Print the resolved generation plan without writing a fixture")
		},
		run: runGenerate,
	}
}

var (
	timeNow      = time.Now
	hostname     = os.Hostname
	manifestSave = manifest.Save
)

func runGenerate(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
	if ctx == nil {
		return fmt.Errorf("application context unavailable")
	}

	scn, err := resolveScenario(fs, ctx)
	if err != nil {
		return err
	}

	duration := intFlag(fs, "duration")
	if duration <= 0 {
		duration = scn.DurationSeconds
	}
	if duration <= 0 {
		duration = ctx.Config.Generate.DurationSeconds
	}
	rate := intFlag(fs, "rate")
	if rate <= 0 {
		rate = ctx.Config.Generate.SampleRateHz
	}
	fixturesDir := stringFlag(fs, "out")
	if fixturesDir == "" {
		fixturesDir = ctx.Config.Paths.FixturesDir
	}

	ctx.Logger.Info("generate command invoked",
		"scenario", scn.Name, "duration_seconds", duration, "sample_rate_hz", rate,
		"fixtures_dir", fixturesDir, "config_source", ctx.Config.Source)

	if boolFlag(fs, "plan-only") {
		printGeneratePlan(ctx, scn, duration, rate, stdout)
		return nil
	}

	synth, err := trajectory.New(scn.Plan, rate)
	if err != nil {
		return fmt.Errorf("build trajectory synthesizer: %w", err)
	}
	cadence := scn.Cadence
	composer, err := compose.New(compose.Options{Cadence: &cadence, Script: scn.Script})
	if err != nil {
		return fmt.Errorf("build event composer: %w", err)
	}

	if err := os.MkdirAll(fixturesDir, 0o755); err != nil {
		return fmt.Errorf("ensure fixtures directory: %w", err)
	}

	fixtureID, err := manifest.ResolveFixtureID(fixturesDir, timeNow())
	if err != nil {
		return fmt.Errorf("resolve fixture id: %w", err)
	}
	layout := manifest.BuildLayout(fixturesDir, fixtureID)
	if err := manifest.EnsureFilesystem(layout); err != nil {
		return fmt.Errorf("prepare fixture filesystem: %w", err)
	}

	// duration*rate steps plus the endpoint, so the last pointer sample
	// lands exactly at the requested duration.
	total := duration*rate + 1
	events, err := composer.Compose(synth.Samples(total))
	if err != nil {
		return fmt.Errorf("compose events: %w", err)
	}

	now := timeNow()
	hdr := event.Header{
		SchemaVersion:       event.SchemaVersion,
		EpochMonotonicNs:    now.UnixNano(),
		EpochWall:           now.UTC().Format(time.RFC3339),
		CaptureWidth:        ctx.Config.Generate.CaptureWidth,
		CaptureHeight:       ctx.Config.Generate.CaptureHeight,
		ScaleFactor:         ctx.Config.Generate.ScaleFactor,
		PointerSampleRateHz: rate,
	}

	if err := eventlog.Write(layout.LogPath, hdr, events); err != nil {
		return fmt.Errorf("write event log: %w", err)
	}

	host, err := hostname()
	if err != nil {
		host = "unknown"
	}

	man := manifest.New(manifest.Options{
		FixtureID:    fixtureID,
		CreatedAt:    now,
		Hostname:     host,
		AppVersion:   buildinfo.Version(),
		ConfigSource: ctx.Config.Source,
		Generate: manifest.GenerateSettings{
			Scenario:        scn.Name,
			DurationSeconds: duration,
			SampleRateHz:    rate,
			CaptureWidth:    hdr.CaptureWidth,
			CaptureHeight:   hdr.CaptureHeight,
			ScaleFactor:     hdr.ScaleFactor,
		},
		Layout: layout,
	})
	man.Status.Summary = fmt.Sprintf("%d events over %ds", len(events), duration)
	if err := manifestSave(man, layout.ManifestPath); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	ctx.Logger.Info("fixture generated", "fixture_id", fixtureID, "events", len(events), "log", layout.LogPath)

	fmt.Fprintf(stdout, "Prepared fixture directory: %s\n", layout.Root)
	fmt.Fprintf(stdout, "Event log: %s\n", layout.LogPath)
	fmt.Fprintf(stdout, "Manifest: %s\n", layout.ManifestPath)
	fmt.Fprintf(stdout, "Scenario %s: %d events over %ds at %dHz\n", scn.Name, len(events), duration, rate)

	return nil
}

func resolveScenario(fs *flag.FlagSet, ctx *AppContext) (scenario.Scenario, error) {
	if path := stringFlag(fs, "scenario-file"); path != "" {
		return scenario.LoadFile(path)
	}

	name := stringFlag(fs, "scenario")
	if name == "" {
		name = ctx.Config.Generate.Scenario
	}
	scn, ok := scenario.Lookup(name)
	if !ok {
		return scenario.Scenario{}, fmt.Errorf("unknown scenario %q (try the scenarios command)", name)
	}
	return scn, nil
}

func printGeneratePlan(ctx *AppContext, scn scenario.Scenario, duration, rate int, stdout io.Writer) {
	fmt.Fprintf(stdout, "Resolved generation plan (config source: %s)\n", ctx.Config.Source)
	fmt.Fprintf(stdout, "  scenario: %s (%s)\n", scn.Name, scn.Description)
	fmt.Fprintf(stdout, "  duration_seconds: %d\n", duration)
	fmt.Fprintf(stdout, "  sample_rate_hz: %d\n", rate)
	fmt.Fprintf(stdout, "  capture: %dx%d @ %.2gx\n", ctx.Config.Generate.CaptureWidth, ctx.Config.Generate.CaptureHeight, ctx.Config.Generate.ScaleFactor)
	fmt.Fprintf(stdout, "  phases (%ds cycle, loop=%t):\n", scn.Plan.CycleSeconds(), scn.Plan.Loop)
	for i, phase := range scn.Plan.Phases {
		switch phase.Kind {
		case trajectory.Transit:
			fmt.Fprintf(stdout, "    %d. transit %ds (%.2f,%.2f) -> (%.2f,%.2f)\n", i+1, phase.Seconds, phase.From.X, phase.From.Y, phase.To.X, phase.To.Y)
		default:
			fmt.Fprintf(stdout, "    %d. hover %ds at (%.2f,%.2f)\n", i+1, phase.Seconds, phase.From.X, phase.From.Y)
		}
	}
	if len(scn.Script) > 0 {
		fmt.Fprintf(stdout, "  scripted actions: %d\n", len(scn.Script))
	}
}

func boolFlag(fs *flag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	if f == nil {
		return false
	}
	value, err := strconv.ParseBool(f.Value.String())
	if err != nil {
		return false
	}
	return value
}

func intFlag(fs *flag.FlagSet, name string) int {
	f := fs.Lookup(name)
	if f == nil {
		return 0
	}
	value, err := strconv.Atoi(f.Value.String())
	if err != nil {
		return 0
	}
	return value
}

func stringFlag(fs *flag.FlagSet, name string) string {
	f := fs.Lookup(name)
	if f == nil {
		return ""
	}
	return f.Value.String()
}
