// Package main is the entry point for the spritestudio script runner.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dshills/spritestudio/internal/app"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	// Create application
	application, err := app.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}

	// Ensure cleanup on all exit paths
	defer application.Shutdown()

	// Cancel the run on SIGINT or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		if errors.Is(err, app.ErrQuit) || errors.Is(err, context.Canceled) {
			return 0
		}
		if errors.Is(err, app.ErrNoScript) {
			flag.Usage()
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}

func parseFlags() app.Options {
	var opts app.Options
	var args string
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to a TOML or YAML configuration file")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.Script, "script", "", "Artboard or project script to run")
	flag.StringVar(&opts.Script, "s", "", "Script to run (shorthand)")
	flag.IntVar(&opts.Width, "width", 0, "Board width in pixels")
	flag.IntVar(&opts.Height, "height", 0, "Board height in pixels")
	flag.IntVar(&opts.Channels, "channels", 0, "Channels per pixel (1-4)")
	flag.StringVar(&args, "args", "", "Comma-separated script arguments")
	flag.StringVar(&opts.Output, "out", "", "Export path")
	flag.StringVar(&opts.Output, "o", "", "Export path (shorthand)")
	flag.StringVar(&opts.Format, "format", "", "Export format (raw, png, bmp, tiff, pdf)")
	flag.StringVar(&opts.ScriptsDir, "scripts", "", "Directory holding the Lua script folders")
	flag.BoolVar(&opts.Preview, "preview", false, "Show the board in the terminal")
	flag.BoolVar(&opts.Watch, "watch", false, "Reload Lua scripts when they change")
	flag.BoolVar(&opts.List, "list", false, "List scripts and export formats")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "spritestudio - run pixel-art scripts on a board\n\n")
		fmt.Fprintf(os.Stderr, "Usage: spritestudio [options] [script args...]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  spritestudio -list                              List scripts\n")
		fmt.Fprintf(os.Stderr, "  spritestudio -s GrayGradient -o gray.png        Export a gradient\n")
		fmt.Fprintf(os.Stderr, "  spritestudio -s Mandelbrot -args 200 -preview  Preview with arguments\n")
		fmt.Fprintf(os.Stderr, "  spritestudio -scripts ./lua -watch -preview     Live-reload Lua scripts\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("spritestudio %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	// Validate log level
	switch opts.LogLevel {
	case "", "debug", "info", "warn", "error":
		// Valid
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
		os.Exit(1)
	}

	if args != "" {
		opts.Args = strings.Split(args, ",")
	}
	// Remaining arguments are passed to the script
	opts.Args = append(opts.Args, flag.Args()...)

	return opts
}
