// Package config aggregates the configuration surface spec.md §6
// enumerates (bundler.*, responseCorrelator.defaultTimeout,
// outgoingQueue.capacity) into one struct-of-knobs, following the
// teacher's NodeConfig shape (backkem-matter/pkg/matter/config.go:
// exported struct, Validate, applyDefaults) without reintroducing
// file or flag parsing — the spec's non-goals exclude "config file
// parsing" and "CLI" as features, but the struct itself is still the
// ambient shape every component is constructed from.
package config

import (
	"time"

	"github.com/gletthereblight/portico/pkg/bundler"
	"github.com/gletthereblight/portico/pkg/conn"
	"github.com/gletthereblight/portico/pkg/federation"
)

// RuntimeConfig is the top-level configuration surface passed down
// from cmd/rti-server into the C2/C4/C9 constructors.
type RuntimeConfig struct {
	// Bundler governs C2's outgoing coalescing policy.
	Bundler BundlerConfig
	// ResponseCorrelator governs C4's sendControlRequest deadline.
	ResponseCorrelator ResponseCorrelatorConfig
	// OutgoingQueue governs C9's bounded control-message queue.
	OutgoingQueue OutgoingQueueConfig
}

// BundlerConfig mirrors spec.md §6's bundler.* options.
type BundlerConfig struct {
	// Enabled toggles bundling; false makes every submit flush
	// immediately. Default true.
	Enabled bool
	// SizeLimit is the max buffered bytes before a forced flush.
	SizeLimit int
	// TimeLimit is the max buffer age before a forced flush.
	TimeLimit time.Duration
}

// ResponseCorrelatorConfig mirrors spec.md §6's
// responseCorrelator.defaultTimeout.
type ResponseCorrelatorConfig struct {
	DefaultTimeout time.Duration
}

// OutgoingQueueConfig mirrors spec.md §6's outgoingQueue.capacity.
type OutgoingQueueConfig struct {
	Capacity int
}

// DefaultRuntimeConfig returns a RuntimeConfig with every field set to
// the same defaults its owning component applies on its own (spec §6
// "other options MAY exist but these are the ones the core reads" —
// DefaultRuntimeConfig documents what the core reads when nothing
// overrides it).
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		Bundler: BundlerConfig{
			Enabled:   true,
			SizeLimit: bundler.DefaultSizeLimit,
			TimeLimit: bundler.DefaultTimeLimit,
		},
		ResponseCorrelator: ResponseCorrelatorConfig{
			DefaultTimeout: 5 * time.Second,
		},
		OutgoingQueue: OutgoingQueueConfig{
			Capacity: federation.DefaultOutgoingQueueCapacity,
		},
	}
}

// bundlerConfig translates this surface into a bundler.Config carrying
// only the Enabled/SizeLimit/TimeLimit knobs; the io.Writer, logger
// and registerer are left unset (they're wiring, not knobs).
func (r RuntimeConfig) bundlerConfig() bundler.Config {
	enabled := r.Bundler.Enabled
	return bundler.Config{
		Enabled:   &enabled,
		SizeLimit: r.Bundler.SizeLimit,
		TimeLimit: r.Bundler.TimeLimit,
	}
}

// ApplyToConnConfig layers the correlator timeout onto an existing
// conn.Config, leaving every other field (AppReceiver, TransportDown,
// FederationID, LoggerFactory) as the caller set it.
func (r RuntimeConfig) ApplyToConnConfig(cfg conn.Config) conn.Config {
	cfg.DefaultTimeout = r.ResponseCorrelator.DefaultTimeout
	return cfg
}

// ApplyToBundlerConfig layers the bundler policy onto an existing
// bundler.Config, leaving Writer/LoggerFactory/Registerer untouched.
func (r RuntimeConfig) ApplyToBundlerConfig(cfg bundler.Config) bundler.Config {
	b := r.bundlerConfig()
	cfg.Enabled = b.Enabled
	cfg.SizeLimit = b.SizeLimit
	cfg.TimeLimit = b.TimeLimit
	return cfg
}

// ApplyToFederationConfig layers the outgoing-queue capacity onto an
// existing federation.Config, leaving Graph/LoggerFactory/
// MetricsRegisterer untouched.
func (r RuntimeConfig) ApplyToFederationConfig(cfg federation.Config) federation.Config {
	cfg.OutgoingQueueCapacity = r.OutgoingQueue.Capacity
	return cfg
}
