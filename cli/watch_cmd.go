package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nox-hq/certguard/core"
	"github.com/nox-hq/certguard/core/discovery"
	"github.com/nox-hq/certguard/core/report"
)

const defaultDebounce = 500 * time.Millisecond

// runWatch implements "certguard watch": it checks the given chains, then
// re-checks them with a freshly loaded configuration whenever a chain,
// the config file, the security properties file, the trust store or the
// blocklist changes.
func runWatch(o options, args []string) int {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	var (
		debounce time.Duration
		format   string
	)
	fs.DurationVar(&debounce, "debounce", 0, "debounce interval for file changes (default: config, then 500ms)")
	fs.StringVar(&format, "format", "text", "output format: text or json")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: certguard watch [flags] <chain.pem>...")
		return 2
	}
	chains, err := discovery.ExpandChainPaths(fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}

	cfg, err := o.loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	if debounce <= 0 {
		debounce = defaultDebounce
		if cfg.Watch.Debounce != "" {
			d, err := time.ParseDuration(cfg.Watch.Debounce)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: watch.debounce: %v\n", err)
				return 2
			}
			debounce = d
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: creating watcher: %v\n", err)
		return 2
	}
	defer watcher.Close()

	configPath := orDefault(o.configPath, core.ConfigFileName)
	files := append([]string{configPath, cfg.SecurityPropertiesFile, cfg.TrustStore, cfg.Blocklist}, chains...)
	watched, err := addWatches(watcher, files)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: watching files: %v\n", err)
		return 2
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	fmt.Printf("watch: checking %d chain(s) (debounce: %s)\n", len(chains), debounce)
	recheck(o, chains, format)

	var mu sync.Mutex
	var timer *time.Timer

	resetTimer := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounce, func() {
			fmt.Print("\033[2J\033[H") // clear terminal
			fmt.Println("watch: re-checking")
			recheck(o, chains, format)
		})
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return 0
			}
			if !watched[filepath.Clean(event.Name)] {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				resetTimer()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return 0
			}
			fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
		case <-sigCh:
			fmt.Println("\nwatch: stopped")
			return 0
		}
	}
}

// recheck reloads the configuration, rebuilds the engine and prints the
// results for chains. It returns the exit code the check would have.
func recheck(o options, chains []string, format string) int {
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
	results, err := e.CheckChainFiles(context.Background(), chains, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}

	r, err := report.New(format, version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	data, err := r.Generate(results)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: generating report: %v\n", err)
		return 2
	}
	os.Stdout.Write(data)
	return exitCode(results)
}

// addWatches watches the parent directory of every file, so that files
// replaced by rename are still seen, and returns the cleaned file names
// to react to. Empty names and missing directories are skipped.
func addWatches(watcher *fsnotify.Watcher, files []string) (map[string]bool, error) {
	watched := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, f := range files {
		if f == "" {
			continue
		}
		f = filepath.Clean(f)
		watched[f] = true

		dir := filepath.Dir(f)
		if dirs[dir] {
			continue
		}
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return nil, fmt.Errorf("%s: %w", dir, err)
		}
		dirs[dir] = true
	}
	return watched, nil
}
