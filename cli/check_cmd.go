package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/nox-hq/certguard/core/discovery"
)

// runCheck implements "certguard check".
func runCheck(o options, args []string) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	var (
		variant     string
		format      string
		output      string
		trustPolicy string
	)
	fs.StringVar(&variant, "variant", "", "validation variant: generic, code_signing, tsa_server, tls_server, tls_client")
	fs.StringVar(&format, "format", "", "output format: text, json or sarif (default: config, then text)")
	fs.StringVar(&output, "output", "", "write the report to a file instead of stdout")
	fs.StringVar(&trustPolicy, "trust", "", "trust policy: default or strict (overrides config)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: certguard check [flags] <chain.pem|dir>...")
		return 2
	}

	cfg, err := o.loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	if trustPolicy != "" {
		cfg.Policy.Trust = trustPolicy
	}
	e, err := o.engine(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}

	paths, err := discovery.ExpandChainPaths(fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	results, err := e.CheckChainFiles(context.Background(), paths, parseVariant(variant))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	return emit(results, orDefault(format, cfg.Output.Format), orDefault(output, cfg.Output.Path))
}
