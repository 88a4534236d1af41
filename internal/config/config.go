// Package config holds the validated configuration value object consumed by
// the orchestrator and stages. Values come from FLOWLINE_-prefixed
// environment variables with sane defaults; there is no other runtime
// configuration surface.
package config

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/viper"
)

// Mode is the operating mode of the process.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeStaging     Mode = "staging"
	ModeProduction  Mode = "production"
)

// Environment is the immutable configuration passed to the orchestrator and
// each stage at construction. Never a process-wide mutable global.
type Environment struct {
	// Mode selects logging verbosity and format.
	Mode Mode

	// TransportHost and TransportPort locate the ingress pub/sub server.
	TransportHost string
	TransportPort int

	// MetricsPort is where the Prometheus scrape endpoint listens.
	MetricsPort int

	// ExportStream is the Redis stream key the terminal stage writes to.
	ExportStream string

	// SnapshotSchedule is the cron spec for periodic metrics snapshot logs.
	SnapshotSchedule string
}

// TransportAddr returns the transport address as host:port.
func (e Environment) TransportAddr() string {
	return net.JoinHostPort(e.TransportHost, strconv.Itoa(e.TransportPort))
}

// Validate checks the environment for values no component can work with.
func (e Environment) Validate() error {
	switch e.Mode {
	case ModeDevelopment, ModeStaging, ModeProduction:
	default:
		return fmt.Errorf("mode must be one of [development, staging, production] (got: %s)", e.Mode)
	}
	if e.TransportHost == "" {
		return fmt.Errorf("transport_host is required")
	}
	if e.TransportPort < 1 || e.TransportPort > 65535 {
		return fmt.Errorf("transport_port must be in [1, 65535] (got: %d)", e.TransportPort)
	}
	if e.MetricsPort < 0 || e.MetricsPort > 65535 {
		return fmt.Errorf("metrics_port must be in [0, 65535] (got: %d)", e.MetricsPort)
	}
	if e.ExportStream == "" {
		return fmt.Errorf("export_stream is required")
	}
	if e.SnapshotSchedule == "" {
		return fmt.Errorf("snapshot_schedule is required")
	}
	return nil
}

// Load reads the environment from FLOWLINE_-prefixed variables, applying
// defaults, and validates the result.
func Load() (Environment, error) {
	v := viper.New()
	v.SetEnvPrefix("FLOWLINE")
	v.AutomaticEnv()

	v.SetDefault("mode", string(ModeDevelopment))
	v.SetDefault("transport_host", "127.0.0.1")
	v.SetDefault("transport_port", 6379)
	v.SetDefault("metrics_port", 9090)
	v.SetDefault("export_stream", "flowline:export")
	v.SetDefault("snapshot_schedule", "@every 1m")

	env := Environment{
		Mode:             Mode(v.GetString("mode")),
		TransportHost:    v.GetString("transport_host"),
		TransportPort:    v.GetInt("transport_port"),
		MetricsPort:      v.GetInt("metrics_port"),
		ExportStream:     v.GetString("export_stream"),
		SnapshotSchedule: v.GetString("snapshot_schedule"),
	}
	if err := env.Validate(); err != nil {
		return Environment{}, fmt.Errorf("config: %w", err)
	}
	return env, nil
}
