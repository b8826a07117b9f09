// Package main is the entry point for the certguard CLI.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/nox-hq/certguard/core"
	"github.com/nox-hq/certguard/core/constraints"
	"github.com/nox-hq/certguard/core/report"
	"github.com/nox-hq/certguard/core/trust"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// options carries the global flags to the subcommands.
type options struct {
	configPath string
	verbose    bool
}

// run executes the CLI and returns the exit code.
// 0 = pass, 1 = policy violation, 2 = usage or runtime error.
func run(args []string) int {
	fs := flag.NewFlagSet("certguard", flag.ContinueOnError)

	var (
		o           options
		versionFlag bool
	)

	fs.StringVar(&o.configPath, "config", "", "path to the config file (default: ./"+core.ConfigFileName+")")
	fs.BoolVar(&o.verbose, "verbose", false, "enable debug logging")
	fs.BoolVar(&o.verbose, "v", false, "enable debug logging (shorthand)")
	fs.BoolVar(&versionFlag, "version", false, "print version and exit")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: certguard [flags] <command> [args]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  algorithm <name>...       Decompose and classify algorithm names\n")
		fmt.Fprintf(os.Stderr, "  check <chain.pem|dir>...  Verify certificate chains\n")
		fmt.Fprintf(os.Stderr, "  signers <manifest>        Verify the signers of a signed archive\n")
		fmt.Fprintf(os.Stderr, "  inspect <chain|dir>...    Browse verification results interactively\n")
		fmt.Fprintf(os.Stderr, "  truststore                Manage trust anchors (add, list, remove)\n")
		fmt.Fprintf(os.Stderr, "  watch <chain.pem|dir>...  Re-check chains when policy files change\n")
		fmt.Fprintf(os.Stderr, "  serve                     Start MCP server on stdio\n")
		fmt.Fprintf(os.Stderr, "  completion <shell>        Print a shell completion script\n")
		fmt.Fprintf(os.Stderr, "  version                   Print version and exit\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if versionFlag {
		printVersion()
		return 0
	}

	remaining := fs.Args()
	if len(remaining) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: certguard [flags] <command> [args]")
		return 2
	}

	command, rest := remaining[0], remaining[1:]
	switch command {
	case "algorithm":
		return runAlgorithm(o, rest)
	case "check":
		return runCheck(o, rest)
	case "signers":
		return runSigners(o, rest)
	case "inspect":
		return runInspect(o, rest)
	case "truststore":
		return runTrustStore(o, rest)
	case "watch":
		return runWatch(o, rest)
	case "serve":
		return runServe(o, rest)
	case "completion":
		return runCompletion(rest)
	case "version":
		printVersion()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		fmt.Fprintln(os.Stderr, "Usage: certguard [flags] <command> [args]")
		return 2
	}
}

func printVersion() {
	fmt.Printf("certguard %s (commit: %s, built: %s)\n", version, commit, date)
}

// logger returns a text logger on stderr; debug level with --verbose.
func (o options) logger() *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads the config file and fills in the per-user trust store
// and blocklist locations when the file names none.
func (o options) loadConfig() (*core.Config, error) {
	path := o.configPath
	if path == "" {
		path = core.ConfigFileName
	}
	cfg, err := core.LoadConfigFile(path)
	if err != nil {
		return nil, err
	}
	if cfg.TrustStore == "" {
		cfg.TrustStore = trust.DefaultTrustStorePath()
	}
	if cfg.Blocklist == "" {
		cfg.Blocklist = trust.DefaultBlocklistPath()
	}
	return cfg, nil
}

func (o options) engine(cfg *core.Config) (*core.Engine, error) {
	return core.NewEngine(cfg, core.WithLogger(o.logger()))
}

// emit writes results in format to path, or stdout when path is empty,
// and returns the exit code for them.
func emit(results []trust.VerifyResult, format, path string) int {
	r, err := report.New(format, version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	if path != "" {
		if err := report.WriteToFile(r, results, path); err != nil {
			fmt.Fprintf(os.Stderr, "error: writing %s: %v\n", path, err)
			return 2
		}
	} else {
		data, err := r.Generate(results)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: generating report: %v\n", err)
			return 2
		}
		os.Stdout.Write(data)
	}
	return exitCode(results)
}

func exitCode(results []trust.VerifyResult) int {
	for _, r := range results {
		if !r.OK() {
			return 1
		}
	}
	return 0
}

// parseVariant maps an empty flag to the configured default.
func parseVariant(s string) constraints.Variant {
	if s == "" {
		return ""
	}
	return constraints.ParseVariant(s)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
