// Ytscribe extracts YouTube caption tracks into clean Markdown
// transcripts, with an optional LLM-generated summary.
//
// Caption listings come from yt-dlp; payloads are downloaded directly and
// parsed, deduplicated, and cleaned before rendering. Configuration is
// loaded from an optional YAML file discovered automatically (see
// [config.DefaultSearchPaths]) and from a .env file in the working
// directory.
//
// Usage:
//
//	ytscribe [flags] <url>    Extract a transcript (and summary)
//	ytscribe serve            Start the HTTP front end
//	ytscribe init [dir]       Write a starter ytscribe.yaml
//	ytscribe version          Print version and build information
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nugget/ytscribe/internal/api"
	"github.com/nugget/ytscribe/internal/buildinfo"
	"github.com/nugget/ytscribe/internal/config"
	"github.com/nugget/ytscribe/internal/media"
	"github.com/nugget/ytscribe/internal/paths"
	"github.com/nugget/ytscribe/internal/summarize"
	"github.com/nugget/ytscribe/internal/transcript"
)

// main is intentionally minimal. It constructs the OS-level environment
// (context, stdio, argv) and delegates immediately to [run], so the whole
// command can be driven from tests.
func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Stdout, os.Stderr, os.Args[1:])
	cancel()

	if err != nil {
		fmt.Fprintf(os.Stderr, "ytscribe: %s\n", err)
		os.Exit(1)
	}
}

// cliOptions is the parsed command line.
type cliOptions struct {
	configPath string
	output     string
	logLevel   string
	jsonOutput bool

	noTimestamps bool
	noSummary    bool
	paragraphs   bool
	summaryLang  string

	cookies            string
	cookiesFromBrowser string

	help    bool
	command string
	args    []string
}

// valueFlags take an argument, either as the next word or after "=".
var valueFlags = map[string]bool{
	"config":               true,
	"o":                    true,
	"output":               true,
	"log-level":            true,
	"summary-lang":         true,
	"cookies":              true,
	"cookies-from-browser": true,
}

// parseArgs parses args by hand. The flag package relies on package-level
// globals, which keeps run from being called concurrently in tests, and
// it does not accept flags after positional arguments. Single and double
// dashes are equivalent.
func parseArgs(args []string) (*cliOptions, error) {
	opts := &cliOptions{}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			opts.args = append(opts.args, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			opts.args = append(opts.args, arg)
			continue
		}

		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if valueFlags[name] && !hasValue {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("flag %s requires a value", arg)
			}
			i++
			value = args[i]
		}

		switch name {
		case "config":
			opts.configPath = value
		case "o", "output":
			opts.output = value
		case "log-level":
			opts.logLevel = value
		case "summary-lang":
			opts.summaryLang = value
		case "cookies":
			opts.cookies = value
		case "cookies-from-browser":
			opts.cookiesFromBrowser = value
		case "no-timestamps":
			opts.noTimestamps = true
		case "no-summary":
			opts.noSummary = true
		case "paragraphs":
			opts.paragraphs = true
		case "json":
			opts.jsonOutput = true
		case "h", "help":
			opts.help = true
		default:
			return nil, fmt.Errorf("unknown flag: %s", arg)
		}
	}

	if len(opts.args) > 0 {
		switch opts.args[0] {
		case "serve", "init", "version", "help":
			opts.command = opts.args[0]
			opts.args = opts.args[1:]
		default:
			opts.command = "extract"
		}
	}
	return opts, nil
}

// run is the real entry point for the ytscribe command. Logs go to
// stderr; results and saved file paths go to stdout. run returns nil on
// success and a non-nil error for any fatal failure.
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {
	opts, err := parseArgs(args)
	if err != nil {
		return err
	}

	switch opts.command {
	case "", "help":
		return printUsage(stdout)
	case "version":
		return runVersion(stdout, opts.jsonOutput)
	case "init":
		dir := "."
		if len(opts.args) > 0 {
			dir = opts.args[0]
		}
		return runInit(stdout, dir)
	}
	if opts.help {
		return printUsage(stdout)
	}

	// .env may supply API keys referenced as ${VAR} in the config file,
	// so it is loaded first.
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}

	cfg, cfgPath, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if err := applyFlags(cfg, opts); err != nil {
		return err
	}

	level, _ := config.ParseLogLevel(cfg.LogLevel)
	logger := config.NewLogger(stderr, level, cfg.LogFormat)
	if cfgPath != "" {
		logger.Debug("config loaded", "path", cfgPath)
	}

	switch opts.command {
	case "serve":
		return runServe(ctx, logger, cfg)
	case "extract":
		if len(opts.args) != 1 {
			return fmt.Errorf("expected one video URL or ID, got %d arguments", len(opts.args))
		}
		return runExtract(ctx, stdout, logger, cfg, opts.output, opts.args[0])
	default:
		return fmt.Errorf("unknown command: %s", opts.command)
	}
}

// applyFlags overlays command-line flags on the loaded configuration and
// revalidates it.
func applyFlags(cfg *config.Config, opts *cliOptions) error {
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.noTimestamps {
		cfg.Transcript.IncludeTimestamps = false
	}
	if opts.paragraphs {
		cfg.Transcript.Paragraphs = true
	}
	if opts.noSummary {
		cfg.Summary.Enabled = false
	}
	if opts.summaryLang != "" {
		cfg.Summary.Language = opts.summaryLang
	}
	if opts.cookies != "" {
		cfg.Fetcher.CookiesFile = paths.ExpandHome(opts.cookies)
		cfg.Fetcher.CookiesFromBrowser = ""
	}
	if opts.cookiesFromBrowser != "" {
		cfg.Fetcher.CookiesFromBrowser = opts.cookiesFromBrowser
	}
	return cfg.Validate()
}

// loadConfig locates and parses the YAML configuration file. An explicit
// path must exist; when nothing is found in the search paths the defaults
// are used and the returned path is empty.
func loadConfig(explicit string) (*config.Config, string, error) {
	cfgPath, err := config.FindConfig(explicit)
	if errors.Is(err, config.ErrNoConfig) {
		return config.Default(), "", nil
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, cfgPath, fmt.Errorf("load config: %w", err)
	}
	return cfg, cfgPath, nil
}

// newPipeline wires the fetcher and the optional summarizer.
func newPipeline(cfg *config.Config, logger *slog.Logger) (*transcript.Pipeline, error) {
	fetcher := media.New(media.Config{
		YtDlpPath:          paths.ExpandHome(cfg.Fetcher.YtDlpPath),
		CookiesFile:        paths.ExpandHome(cfg.Fetcher.CookiesFile),
		CookiesFromBrowser: cfg.Fetcher.CookiesFromBrowser,
		Timeout:            cfg.Fetcher.Timeout,
	}, logger)

	var summarizer summarize.Summarizer
	if cfg.Summary.Enabled {
		s, err := summarize.New(cfg.Summary, logger)
		switch {
		case errors.Is(err, summarize.ErrNoAPIKey):
			logger.Warn("summarization disabled", "reason", err)
		case err != nil:
			return nil, err
		default:
			summarizer = s
		}
	}

	return transcript.New(fetcher, summarizer, logger), nil
}

// pipelineOptions derives per-run options from the configuration.
func pipelineOptions(cfg *config.Config) transcript.Options {
	return transcript.Options{
		IncludeTimestamps: cfg.Transcript.IncludeTimestamps,
		Paragraphs:        cfg.Transcript.Paragraphs,
		NoSummary:         !cfg.Summary.Enabled,
		SummaryLanguage:   cfg.Summary.Language,
		MaxSummaryChars:   cfg.Summary.MaxChars,
	}
}

// runExtract handles the default command: one video in, one or two
// Markdown files out.
func runExtract(ctx context.Context, stdout io.Writer, logger *slog.Logger, cfg *config.Config, output, input string) error {
	pipeline, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}

	progress := func(stage, message string) {
		logger.Debug("progress", "stage", stage, "message", message)
	}

	start := time.Now()
	res, err := pipeline.Run(ctx, input, pipelineOptions(cfg), progress)
	if err != nil {
		return err
	}

	written, err := transcript.Write(res, paths.OutputsFor(cfg.Transcript.OutputDir, output, res.VideoID))
	if err != nil {
		return err
	}

	logger.Info("transcript complete",
		"video_id", res.VideoID,
		"track", res.Track.String(),
		"language", res.Language,
		"segments", len(res.Segments),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	if res.SummaryErr != nil {
		fmt.Fprintf(stdout, "Summary not generated: %s\n", res.SummaryErr)
	}
	for _, p := range written {
		fmt.Fprintf(stdout, "Saved %s\n", p)
	}
	return nil
}

// runServe starts the HTTP front end and blocks until ctx is cancelled,
// then drains in-flight requests.
func runServe(ctx context.Context, logger *slog.Logger, cfg *config.Config) error {
	logger.Info("starting", "build", buildinfo.String())

	pipeline, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}

	server := api.NewServer(api.Config{
		Address:   cfg.Listen.Address,
		Port:      cfg.Listen.Port,
		RateLimit: cfg.API.RateLimit,
		Burst:     cfg.API.Burst,
		Defaults:  pipelineOptions(cfg),
	}, pipeline, logger)

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("ytscribe stopped")
	return nil
}

// runVersion prints build metadata as text or JSON.
func runVersion(w io.Writer, asJSON bool) error {
	info := buildinfo.BuildInfo()
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, buildinfo.String())
	for _, k := range []string{"version", "git_commit", "git_branch", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

// printUsage writes the top-level help text to w.
func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "ytscribe - YouTube transcript extractor")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: ytscribe [flags] <url | video-id>")
	fmt.Fprintln(w, "       ytscribe [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve        Start the HTTP front end")
	fmt.Fprintln(w, "  init [dir]   Write a starter ytscribe.yaml (default: .)")
	fmt.Fprintln(w, "  version      Show version information (-json for JSON)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -o, --output <path>            Transcript file (default: <id>_transcript.md)")
	fmt.Fprintln(w, "  --no-timestamps                Omit [HH:MM:SS] segment prefixes")
	fmt.Fprintln(w, "  --paragraphs                   Group segments into paragraphs")
	fmt.Fprintln(w, "  --no-summary                   Skip the LLM summary")
	fmt.Fprintln(w, "  --summary-lang <auto|en|ja>    Summary language (default: auto)")
	fmt.Fprintln(w, "  --cookies <file>               Netscape cookie file for yt-dlp")
	fmt.Fprintln(w, "  --cookies-from-browser <name>  Browser to read cookies from")
	fmt.Fprintln(w, "  -config <path>                 Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  --log-level <level>            trace, debug, info, warn, or error")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  GEMINI_API_KEY, ANTHROPIC_API_KEY (also read from ./.env)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	fmt.Fprintln(w, "  "+strings.Join(config.DefaultSearchPaths(), ", "))
	return nil
}
