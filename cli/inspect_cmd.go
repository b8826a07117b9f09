package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nox-hq/certguard/cli/tui"
	"github.com/nox-hq/certguard/core/discovery"
	"github.com/nox-hq/certguard/core/report"
	"golang.org/x/term"
)

// runInspect implements "certguard inspect".
func runInspect(o options, args []string) int {
	// Extract positional args (paths) before parsing flags so that
	// "certguard inspect chain.pem --json" works like "certguard inspect --json chain.pem".
	var flagArgs []string
	var positionalArgs []string
	for i := 0; i < len(args); i++ {
		if strings.HasPrefix(args[i], "-") {
			flagArgs = append(flagArgs, args[i])
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") &&
				!isBoolFlag(args[i]) {
				i++
				flagArgs = append(flagArgs, args[i])
			}
		} else {
			positionalArgs = append(positionalArgs, args[i])
		}
	}

	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	var (
		variant    string
		jsonOutput bool
	)
	fs.StringVar(&variant, "variant", "", "validation variant")
	fs.BoolVar(&jsonOutput, "json", false, "output JSON instead of TUI")
	if err := fs.Parse(flagArgs); err != nil {
		return 2
	}
	positionalArgs = append(positionalArgs, fs.Args()...)
	if len(positionalArgs) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: certguard inspect [--json] [--variant <v>] <chain.pem>...")
		return 2
	}

	cfg, err := o.loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	e, err := o.engine(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	paths, err := discovery.ExpandChainPaths(positionalArgs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	results, err := e.CheckChainFiles(context.Background(), paths, parseVariant(variant))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}

	// Non-interactive: JSON output.
	if jsonOutput || !isTerminal() {
		data, err := report.NewJSONReporter(version).Generate(results)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: marshalling JSON: %v\n", err)
			return 2
		}
		fmt.Println(string(data))
		return exitCode(results)
	}

	p := tea.NewProgram(tui.New(results), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: TUI failed: %v\n", err)
		return 2
	}
	return exitCode(results)
}

// isBoolFlag returns true if the given flag name is a boolean flag
// (i.e., it does not consume a following value argument).
func isBoolFlag(name string) bool {
	name = strings.TrimLeft(name, "-")
	switch name {
	case "json":
		return true
	default:
		return strings.Contains(name, "=")
	}
}

// isTerminal returns true if stdout is connected to a terminal.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
