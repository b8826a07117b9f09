package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/nox-hq/certguard/core/trust"
)

// runTrustStore dispatches truststore subcommands.
func runTrustStore(o options, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: certguard truststore <add|list|remove>")
		return 2
	}

	switch args[0] {
	case "add":
		return runTrustStoreAdd(o, args[1:])
	case "list":
		return runTrustStoreList(o, args[1:])
	case "remove":
		return runTrustStoreRemove(o, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown truststore command: %s\n", args[0])
		fmt.Fprintln(os.Stderr, "Usage: certguard truststore <add|list|remove>")
		return 2
	}
}

// storePath returns the --store flag, else the configured trust store.
func (o options) storePath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	cfg, err := o.loadConfig()
	if err != nil {
		return "", err
	}
	return cfg.TrustStore, nil
}

// runTrustStoreAdd adds a certificate under an alias.
func runTrustStoreAdd(o options, args []string) int {
	fs := flag.NewFlagSet("truststore add", flag.ContinueOnError)
	var (
		alias  string
		anchor bool
		store  string
	)
	fs.StringVar(&alias, "alias", "", "entry alias (default: derived from the subject common name)")
	fs.BoolVar(&anchor, "anchor", false, "mark the entry as a trust anchor")
	fs.StringVar(&store, "store", "", "trust store file (default: from config)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: certguard truststore add [--alias <name>] [--anchor] <cert.pem>")
		return 2
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	certs, err := trust.ParseCertificatesPEM(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s: %v\n", fs.Arg(0), err)
		return 2
	}

	if alias == "" {
		alias = strings.ToLower(strings.ReplaceAll(certs[0].Subject.CommonName, " ", ""))
		if alias == "" {
			fmt.Fprintln(os.Stderr, "error: certificate has no common name; use --alias")
			return 2
		}
	}
	if anchor && !strings.Contains(alias, trust.AnchorMarker) {
		alias += trust.AnchorMarker + "]"
	}

	entry, err := trust.NewEntry(alias, trust.EncodeCertificatePEM(certs[0]))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}

	path, err := o.storePath(store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	st, err := trust.LoadTrustStore(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: loading trust store: %v\n", err)
		return 2
	}
	if err := st.Add(entry); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	if err := trust.SaveTrustStore(path, st); err != nil {
		fmt.Fprintf(os.Stderr, "error: saving trust store: %v\n", err)
		return 2
	}

	fmt.Printf("Certificate %q added to %s\n", alias, path)
	return 0
}

// runTrustStoreList lists the entries of the trust store.
func runTrustStoreList(o options, args []string) int {
	fs := flag.NewFlagSet("truststore list", flag.ContinueOnError)
	var store string
	fs.StringVar(&store, "store", "", "trust store file (default: from config)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	path, err := o.storePath(store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	st, err := trust.LoadTrustStore(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: loading trust store: %v\n", err)
		return 2
	}

	if len(st.Entries) == 0 {
		fmt.Println("No certificates in trust store.")
		return 0
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ALIAS\tANCHOR\tSUBJECT\tSHA-256")
	for _, e := range st.Entries {
		cert, err := e.Certificate()
		if err != nil {
			fmt.Fprintf(w, "%s\t%v\t(unreadable: %v)\t\n", e.Alias, e.IsJDKAnchor(), err)
			continue
		}
		fp, _ := trust.Fingerprint(cert, trust.AnchorDigest)
		fmt.Fprintf(w, "%s\t%v\t%s\t%s\n", e.Alias, e.IsJDKAnchor(), cert.Subject, fp)
	}
	w.Flush()
	return 0
}

// runTrustStoreRemove removes an entry by alias.
func runTrustStoreRemove(o options, args []string) int {
	fs := flag.NewFlagSet("truststore remove", flag.ContinueOnError)
	var store string
	fs.StringVar(&store, "store", "", "trust store file (default: from config)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: certguard truststore remove <alias>")
		return 2
	}

	path, err := o.storePath(store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	st, err := trust.LoadTrustStore(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: loading trust store: %v\n", err)
		return 2
	}
	if err := st.Remove(fs.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	if err := trust.SaveTrustStore(path, st); err != nil {
		fmt.Fprintf(os.Stderr, "error: saving trust store: %v\n", err)
		return 2
	}

	fmt.Printf("Certificate %q removed.\n", fs.Arg(0))
	return 0
}
