package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/nox-hq/certguard/core"
	"github.com/nox-hq/certguard/core/trust"
)

// runAlgorithm implements "certguard algorithm". It exits 1 when any name
// is disabled.
func runAlgorithm(o options, args []string) int {
	fs := flag.NewFlagSet("algorithm", flag.ContinueOnError)
	var jsonOutput bool
	fs.BoolVar(&jsonOutput, "json", false, "output JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: certguard algorithm [--json] <name>...")
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

	reports := make([]core.AlgorithmReport, 0, fs.NArg())
	code := 0
	for _, name := range fs.Args() {
		rep, err := e.CheckAlgorithm(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %q: %v\n", name, err)
			return 2
		}
		if rep.Strength == trust.StrengthDisabled {
			code = 1
		}
		reports = append(reports, rep)
	}

	if jsonOutput {
		data, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: marshalling JSON: %v\n", err)
			return 2
		}
		fmt.Println(string(data))
		return code
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTRENGTH\tELEMENTS\tREASON")
	for _, r := range reports {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Name, r.Strength, strings.Join(r.Elements, ","), r.Reason)
	}
	w.Flush()
	return code
}
