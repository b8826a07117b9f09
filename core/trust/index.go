package trust

import "log/slog"

// indexConfig is shared by the anchor and blocklist indices.
type indexConfig struct {
	logger      *slog.Logger
	fingerprint FingerprintFunc
}

// IndexOption configures an AnchorIndex or UntrustedIndex.
type IndexOption func(*indexConfig)

// WithIndexLogger sets the logger for load diagnostics.
func WithIndexLogger(l *slog.Logger) IndexOption {
	return func(c *indexConfig) { c.logger = l }
}

// WithFingerprintFunc replaces the fingerprint function.
func WithFingerprintFunc(f FingerprintFunc) IndexOption {
	return func(c *indexConfig) { c.fingerprint = f }
}

func newIndexConfig(opts []IndexOption) indexConfig {
	c := indexConfig{logger: slog.Default(), fingerprint: Fingerprint}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
