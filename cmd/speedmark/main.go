// Package main is the entry point for the speedmark reader.
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

	"github.com/dshills/speedmark/internal/app"
	"github.com/dshills/speedmark/internal/config"
	"github.com/dshills/speedmark/internal/filter"
	"github.com/dshills/speedmark/internal/highlight"
	"github.com/dshills/speedmark/internal/logging"
	"github.com/dshills/speedmark/internal/segment"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// errUsage reports a command line mistake; usage has been printed.
var errUsage = errors.New("usage")

// options are the global flags.
type options struct {
	ConfigPath string
	LogLevel   string
	LogFile    string
	LogJSON    bool
	Style      string
	Color      string
	Unit       string
	Interval   int
	Output     string
	Width      int
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("speedmark", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	var showVersion bool
	fs.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	fs.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	fs.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error, none)")
	fs.StringVar(&opts.LogFile, "log-file", "", "Write logs to this file")
	fs.BoolVar(&opts.LogJSON, "log-json", false, "Write logs as JSON")
	fs.StringVar(&opts.Style, "style", "", "Highlight style (bold, color, underline, bold_underline)")
	fs.StringVar(&opts.Color, "color", "", "Highlight color as #RRGGBB")
	fs.StringVar(&opts.Unit, "unit", "", "Interval unit (word, character)")
	fs.IntVar(&opts.Interval, "interval", 0, "Highlight every Nth unit (5-80)")
	fs.StringVar(&opts.Output, "o", "", "Output file for render (default stdout)")
	fs.IntVar(&opts.Width, "width", 80, "Layout width for check")
	fs.BoolVar(&showVersion, "version", false, "Show version information")
	fs.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "speedmark - speed reading highlights for markdown\n\n")
		fmt.Fprintf(stderr, "Usage: speedmark [options] <command> [args]\n\n")
		fmt.Fprintf(stderr, "Commands:\n")
		fmt.Fprintf(stderr, "  render <file>     Write the fully highlighted HTML page\n")
		fmt.Fprintf(stderr, "  view <file>       Read a file in the terminal\n")
		fmt.Fprintf(stderr, "  segment <text>    Print the units of a text\n")
		fmt.Fprintf(stderr, "  check <file>      Report whether a file would be processed\n")
		fmt.Fprintf(stderr, "  config            Print the effective settings\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nKeys in view: j/k scroll, space/b page, g/G top/bottom,\n")
		fmt.Fprintf(stderr, "  t toggle, r reprocess, a highlight all, c clear, q quit\n")
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if showVersion {
		fmt.Fprintf(stdout, "speedmark %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return 0
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return 2
	}

	settings, warnings, err := config.Load(config.LoadOptions{
		Path:  opts.ConfigPath,
		Flags: flagLayer(fs, opts),
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to load settings: %v\n", err)
		return 1
	}

	logOut, closeLog, err := logOutput(opts, rest[0], stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer closeLog()

	log := logging.New(logging.Config{Level: settings.Level(), Output: logOut, JSON: opts.LogJSON})
	defer func() { _ = log.Sync() }()
	for _, w := range warnings {
		log.Warn("settings adjusted", "warning", w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "render":
		err = cmdRender(cmdArgs, opts, settings, log, stdout)
	case "view":
		err = cmdView(ctx, cmdArgs, opts, settings, log)
	case "segment":
		err = cmdSegment(cmdArgs, settings, stdout)
	case "check":
		err = cmdCheck(cmdArgs, opts, settings, stdout)
	case "config":
		err = cmdConfig(settings, stdout)
	default:
		fmt.Fprintf(stderr, "Error: unknown command %q\n\n", cmd)
		fs.Usage()
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fs.Usage()
		return 2
	case errors.Is(err, context.Canceled):
		return 0
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}

// flagLayer returns the settings set explicitly on the command line.
func flagLayer(fs *flag.FlagSet, opts options) map[string]any {
	out := map[string]any{}
	hl := map[string]any{}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-level":
			out["log_level"] = opts.LogLevel
		case "style":
			hl["style"] = opts.Style
		case "color":
			hl["color"] = opts.Color
		case "unit":
			hl["interval_type"] = opts.Unit
		case "interval":
			hl["interval_value"] = int64(opts.Interval)
		}
	})
	if len(hl) > 0 {
		out["highlight"] = hl
	}
	return out
}

// logOutput picks where logs go. The viewer owns the terminal, so its
// logs are discarded unless a log file is given.
func logOutput(opts options, cmd string, stderr io.Writer) (io.Writer, func(), error) {
	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		return f, func() { _ = f.Close() }, nil
	}
	if cmd == "view" {
		return io.Discard, func() {}, nil
	}
	return stderr, func() {}, nil
}

func oneFile(args []string) (string, error) {
	if len(args) != 1 {
		return "", errUsage
	}
	return args[0], nil
}

func cmdRender(args []string, opts options, settings config.Settings, log *logging.Logger, stdout io.Writer) error {
	path, err := oneFile(args)
	if err != nil {
		return err
	}
	doc, err := app.LoadDocument(path, nil, opts.Width, 1)
	if err != nil {
		return err
	}

	ctrl := app.New(config.NewStore(settings), app.WithLogger(log))
	defer ctrl.Close()

	v := doc.View()
	if v.Overrides.Disabled {
		log.Info("document opted out, writing without highlights", "path", path)
	} else if !ctrl.ProcessAll(v) {
		log.Warn("some blocks failed to process", "path", path)
	}

	out := stdout
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}
	return doc.Page().Document().Render(out)
}

func cmdSegment(args []string, settings config.Settings, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	text := strings.Join(args, " ")
	hs := settings.HighlightConfig()
	units := segment.Segment(text, hs.IntervalType)

	marked := map[int]bool{}
	for _, i := range highlight.Marked(units, hs) {
		marked[i] = true
	}

	fmt.Fprintf(stdout, "script: %s, mode: %s, units: %d\n",
		segment.Classify(text), hs.IntervalType, segment.Count(units))
	for i, u := range units {
		kind := "unit"
		switch {
		case u.Separator:
			kind = "sep"
		case marked[i]:
			kind = "mark"
		}
		fmt.Fprintf(stdout, "%4d  %-4s  %q\n", i, kind, u.Content)
	}
	return nil
}

func cmdCheck(args []string, opts options, settings config.Settings, stdout io.Writer) error {
	path, err := oneFile(args)
	if err != nil {
		return err
	}
	doc, err := app.LoadDocument(path, nil, opts.Width, 1)
	if err != nil {
		return err
	}

	ctrl := app.New(config.NewStore(settings))
	defer ctrl.Close()

	v := doc.View()
	fmt.Fprintf(stdout, "file: %s\n", v.Path)
	fmt.Fprintf(stdout, "length: %d (minimum %d)\n", filter.ContentLength(v.Content), settings.MinProcessLength)
	fmt.Fprintf(stdout, "blocks: %d\n", len(v.Container.Blocks()))

	var opErr *app.OperationError
	switch err := ctrl.Admit(v); {
	case err == nil:
		fmt.Fprintf(stdout, "result: %s\n", filter.WillProcess)
	case errors.As(err, &opErr) && errors.Is(err, app.ErrExcluded):
		fmt.Fprintf(stdout, "result: %s\n", opErr.Context)
	default:
		return err
	}
	return nil
}

func cmdConfig(settings config.Settings, stdout io.Writer) error {
	data, err := config.Marshal(settings)
	if err != nil {
		return err
	}
	_, err = stdout.Write(data)
	return err
}
