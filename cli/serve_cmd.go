package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/nox-hq/certguard/server"
)

const (
	defaultRateLimit = 10
	defaultBurst     = 20
)

// runServe implements "certguard serve".
func runServe(o options, args []string) int {
	serveFS := flag.NewFlagSet("serve", flag.ContinueOnError)
	var (
		allowedPaths string
		rateLimit    float64
		burst        int
	)
	serveFS.StringVar(&allowedPaths, "allowed-paths", "", "comma-separated list of allowed workspace paths")
	serveFS.Float64Var(&rateLimit, "rate-limit", 0, "tool calls per second (default: config, then 10)")
	serveFS.IntVar(&burst, "burst", 0, "rate limit burst (default: config, then 20)")

	if err := serveFS.Parse(args); err != nil {
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

	srv := server.New(version, e,
		server.WithAllowedPaths(splitList(allowedPaths)),
		server.WithRateLimiter(server.NewRateLimiter(
			firstPositive(rateLimit, cfg.Serve.RateLimit, defaultRateLimit),
			int(firstPositive(float64(burst), float64(cfg.Serve.Burst), defaultBurst)),
		)),
	)
	if err := srv.Serve(); err != nil {
		fmt.Fprintf(os.Stderr, "error: MCP server failed: %v\n", err)
		return 2
	}
	return 0
}

// splitList splits a comma-separated flag value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstPositive(values ...float64) float64 {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
