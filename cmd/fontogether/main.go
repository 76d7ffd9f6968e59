// fontogether runs the collaboration server and offline project tools.
//
// Usage:
//
//	fontogether serve    [--config file]
//	fontogether import   --font file.ttf --owner user [--name name]
//	fontogether invite   --project id --user user [--nickname name]
//	fontogether glyphs   --project id [--sort option] [--script name] [--query text]
//	fontogether preview  --project id --glyph name [--out file.png] [--size px]
//	fontogether join     --project id --user user [--glyph name]...
//
// Every command reads the configuration named by --config or
// FONTOGETHER_CONFIG, falling back to built-in defaults.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/fontogether/fontogether"
	"github.com/fontogether/fontogether/internal/config"
)

type command struct {
	name    string
	summary string
	run     func(args []string) error
}

var commands = []command{
	{"serve", "run the collaboration server", runServe},
	{"import", "create a project from a TrueType or OpenType font", runImport},
	{"invite", "add a collaborator to a project", runInvite},
	{"glyphs", "list a project's glyphs", runGlyphs},
	{"preview", "render a glyph thumbnail to PNG", runPreview},
	{"join", "attach to a running server as a collaborator", runJoin},
}

// environment is shared by every command.
type environment struct {
	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage()
		return nil
	}
	for _, c := range commands {
		if c.name != args[0] {
			continue
		}
		return c.run(args[1:])
	}
	printUsage()
	return fmt.Errorf("unknown command %q", args[0])
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "fontogether: collaborative glyph editing\n\nUsage:\n  fontogether <command> [flags]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", c.name, c.summary)
	}
}

// newFlagSet returns a flag set carrying the common --config flag.
func newFlagSet(name string, configPath *string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringVar(configPath, "config", "", "configuration file (default: $"+config.EnvVar+")")
	return fs
}

// parse parses args and loads the configuration.
func parse(fs *pflag.FlagSet, args []string, configPath *string) (*environment, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	var (
		cfg *config.Config
		err error
	)
	switch {
	case *configPath != "":
		cfg, err = config.LoadFile(*configPath)
	case os.Getenv(config.EnvVar) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	fontogether.SetLogger(logger)
	return &environment{cfg: cfg, logger: logger}, nil
}

func newLogger(lc config.LogConfig) (*slog.Logger, error) {
	level, err := lc.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	switch lc.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	}
	return nil, errors.New("log.format must be text or json")
}
