package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/ironsheep/regiongrow-mcp/internal/config"
	"github.com/ironsheep/regiongrow-mcp/internal/imaging"
	"github.com/ironsheep/regiongrow-mcp/internal/logging"
	"github.com/ironsheep/regiongrow-mcp/internal/pipeline"
	"github.com/ironsheep/regiongrow-mcp/internal/segment"
	"github.com/ironsheep/regiongrow-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	configPath := ""
	if len(args) > 0 {
		switch args[0] {
		case "--version", "-v", "version":
			printVersion(stdout)
			return 0
		case "--help", "-h", "help":
			printUsage(stdout)
			return 0
		case "segment":
			return runSegment(ctx, args[1:], stdout, stderr)
		case "--config", "-config":
			if len(args) < 2 {
				fmt.Fprintln(stderr, "--config requires a file path")
				return 2
			}
			configPath = args[1]
		default:
			if v, ok := strings.CutPrefix(args[0], "--config="); ok {
				configPath = v
				break
			}
			fmt.Fprintf(stderr, "unknown argument %q\n\n", args[0])
			printUsage(stderr)
			return 2
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "configuration error: %v\n", err)
		return 1
	}
	// Logs go to stderr; stdout is the MCP protocol stream.
	log := logging.FromEnv(cfg.LogLevel)
	log.Debug().Str("build_time", BuildTime).Str("commit", GitCommit).Msg("starting")

	srv := server.New(cfg, log, Version)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("server error")
		return 1
	}
	return 0
}

// runSegment implements "segment [flags] files...".
func runSegment(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("segment", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML profile (default $"+config.EnvConfig+")")
	outDir := fs.String("out", ".", "directory for <name>_segmented.png results")
	workers := fs.Int("workers", 0, "images processed in parallel (default from profile)")
	conn := fs.Int("connectivity", 0, "4 or 8 (default from profile)")
	thresholds := fs.String("thresholds", "", "comma separated threshold ladder, e.g. 60,40,20,2.5")
	maxIter := fs.Int("max-iterations", 0, "per-seed iteration cap (default from profile)")
	noPreprocess := fs.Bool("no-preprocess", false, "segment the decoded image without preprocessing")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: regiongrow-mcp segment [flags] files...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "configuration error: %v\n", err)
		return 1
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *conn != 0 {
		cfg.Segmentation.Connectivity = segment.Connectivity(*conn)
	}
	if *maxIter != 0 {
		cfg.Segmentation.MaxIterations = *maxIter
	}
	if *thresholds != "" {
		ladder, err := config.ParseThresholds(*thresholds)
		if err != nil {
			fmt.Fprintf(stderr, "-thresholds: %v\n", err)
			return 2
		}
		cfg.Segmentation.Thresholds = ladder
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "configuration error: %v\n", err)
		return 2
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(stderr, "cannot create output directory: %v\n", err)
		return 1
	}

	log := logging.FromEnv(cfg.LogLevel)
	opts := pipeline.Options{
		Segmentation:   cfg.Segmentation,
		Preprocess:     cfg.Preprocess,
		SkipPreprocess: *noPreprocess,
		OCRLanguage:    cfg.OCRLanguage,
	}
	outcomes, summary := pipeline.SegmentFiles(ctx, imaging.NewImageCache(), fs.Args(), *outDir, cfg.Workers, opts, log)

	printOutcomes(stdout, outcomes, log)
	fmt.Fprintf(stdout, "%d segmented, %d failed, %d skipped\n", summary.Succeeded, summary.Failed, summary.Skipped)
	if summary.Failed > 0 || summary.Skipped > 0 {
		return 1
	}
	return 0
}

func printOutcomes(w io.Writer, outcomes []pipeline.FileOutcome, log zerolog.Logger) {
	for _, o := range outcomes {
		switch {
		case o.Skipped:
			fmt.Fprintf(w, "SKIP %s\n", o.Path)
		case o.Err != nil:
			fmt.Fprintf(w, "FAIL %s: %v\n", o.Path, o.Err)
		case o.Stats == nil:
			fmt.Fprintf(w, "OK   %s (threshold %g, %d ms)\n", o.Path, o.Threshold, o.DurationMS)
		default:
			fmt.Fprintf(w, "OK   %s -> %s (threshold %g, %d px, %d ms)\n",
				o.Path, o.OutputPath, o.Threshold, o.Stats.RegionSize, o.DurationMS)
		}
	}
	log.Debug().Int("files", len(outcomes)).Msg("batch finished")
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "regiongrow-mcp %s\n", Version)
	fmt.Fprintf(w, "  Build time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "regiongrow-mcp - MCP server for mammogram region-growing segmentation")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  regiongrow-mcp [--config file]              Serve MCP over stdin/stdout")
	fmt.Fprintln(w, "  regiongrow-mcp segment [flags] files...     Segment files, write <name>_segmented.png")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  --config file    YAML profile with segmentation and preprocessing defaults")
	fmt.Fprintln(w, "  --version, -v    Print version information")
	fmt.Fprintln(w, "  --help, -h       Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintln(w, "  REGIONGROW_CONFIG=file             Profile used when --config is absent")
	fmt.Fprintln(w, "  REGIONGROW_LOG_LEVEL=debug         debug, info, warn or error")
	fmt.Fprintln(w, "  REGIONGROW_LOG_FORMAT=console      Human readable logs instead of JSON")
	fmt.Fprintln(w, "  REGIONGROW_CONNECTIVITY=8          Override the profile connectivity")
	fmt.Fprintln(w, "  REGIONGROW_MAX_ITERATIONS=6200     Override the iteration cap")
	fmt.Fprintln(w, "  REGIONGROW_THRESHOLDS=60,40,2.5    Override the threshold ladder")
	fmt.Fprintln(w, "  REGIONGROW_WORKERS=4               Override the batch worker count")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The server communicates via MCP protocol over stdin/stdout.")
	fmt.Fprintln(w, "Configure it in your MCP client (e.g., Claude Desktop).")
}
