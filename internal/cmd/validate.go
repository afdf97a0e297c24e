package cmd

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/offlinefirst/inputfixture/pkg/validate"
)

func newValidateCommand() command {
	return command{
		name:        "validate",
		description: "Check an event log against the fixture acceptance gate",
		configure: func(fs *flag.FlagSet) {
			fs.Int("min-duration", 0, "Minimum session duration in seconds (default from config)")
			fs.Int("max-drift-ms", 0, "Maximum tolerated cadence drift in milliseconds (default from config)")
			fs.Int("rate", 0, "Fallback sample rate when the header omits one (default from config)")
		},
		run: runValidate,
	}
}

func runValidate(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
	if ctx == nil {
		return fmt.Errorf("application context unavailable")
	}
	if len(args) != 1 {
		return fmt.Errorf("validate expects exactly one event log path")
	}
	path := args[0]

	vcfg := validate.Config{
		MinDuration:   time.Duration(ctx.Config.Validation.MinDurationSeconds) * time.Second,
		MaxDrift:      time.Duration(ctx.Config.Validation.MaxDriftMs) * time.Millisecond,
		DefaultRateHz: ctx.Config.Validation.DefaultRateHz,
	}
	if v := intFlag(fs, "min-duration"); v > 0 {
		vcfg.MinDuration = time.Duration(v) * time.Second
	}
	if v := intFlag(fs, "max-drift-ms"); v > 0 {
		vcfg.MaxDrift = time.Duration(v) * time.Millisecond
	}
	if v := intFlag(fs, "rate"); v > 0 {
		vcfg.DefaultRateHz = v
	}

	ctx.Logger.Info("validate command invoked", "path", path,
		"min_duration", vcfg.MinDuration.String(), "max_drift", vcfg.MaxDrift.String())

	report := validate.File(path, vcfg)
	if !report.Pass {
		ctx.Logger.Error("fixture rejected", "path", path, "reason", report.Failure.Reason, "detail", report.Failure.Detail)
		fmt.Fprintf(stderr, "ERROR: %s: %s\n", report.Failure.Reason, report.Failure.Detail)
		return report.Failure
	}

	ctx.Logger.Info("fixture accepted", "path", path,
		"events", report.Stats.EventCount, "duration", report.Stats.Duration.String())

	fmt.Fprintf(stdout, "PASS %s\n", path)
	fmt.Fprintf(stdout, "  events: %d (%d pointer samples)\n", report.Stats.EventCount, report.Stats.PointerCount)
	fmt.Fprintf(stdout, "  duration: %s\n", report.Stats.Duration)
	fmt.Fprintf(stdout, "  max cadence drift: %s (limit %s)\n", report.Stats.MaxDrift, vcfg.MaxDrift)
	fmt.Fprintf(stdout, "  sample rate: %dHz, capture %dx%d\n", report.Header.PointerSampleRateHz, report.Header.CaptureWidth, report.Header.CaptureHeight)

	return nil
}
