package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/nox-hq/certguard/core/trust"
)

// runSigners implements "certguard signers".
func runSigners(o options, args []string) int {
	fs := flag.NewFlagSet("signers", flag.ContinueOnError)
	var format, output string
	fs.StringVar(&format, "format", "", "output format: text, json or sarif")
	fs.StringVar(&output, "output", "", "write the report to a file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: certguard signers [flags] <manifest.yaml>")
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

	result, err := e.CheckSigners(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	return emit([]trust.VerifyResult{result}, orDefault(format, cfg.Output.Format), orDefault(output, cfg.Output.Path))
}
