package config

import (
	"testing"

	"github.com/vnykmshr/flowline/internal/testutil"
)

func TestLoadDefaults(t *testing.T) {
	env, err := Load()
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, env.Mode, ModeDevelopment)
	testutil.AssertEqual(t, env.TransportHost, "127.0.0.1")
	testutil.AssertEqual(t, env.TransportPort, 6379)
	testutil.AssertEqual(t, env.MetricsPort, 9090)
	testutil.AssertEqual(t, env.ExportStream, "flowline:export")
	testutil.AssertEqual(t, env.SnapshotSchedule, "@every 1m")
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("FLOWLINE_MODE", "production")
	t.Setenv("FLOWLINE_TRANSPORT_HOST", "redis.internal")
	t.Setenv("FLOWLINE_TRANSPORT_PORT", "6380")
	t.Setenv("FLOWLINE_EXPORT_STREAM", "events:out")

	env, err := Load()
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, env.Mode, ModeProduction)
	testutil.AssertEqual(t, env.TransportAddr(), "redis.internal:6380")
	testutil.AssertEqual(t, env.ExportStream, "events:out")
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	t.Setenv("FLOWLINE_MODE", "testing")

	_, err := Load()
	testutil.AssertError(t, err)
}

func TestValidate(t *testing.T) {
	base := Environment{
		Mode:             ModeStaging,
		TransportHost:    "localhost",
		TransportPort:    6379,
		MetricsPort:      9090,
		ExportStream:     "s",
		SnapshotSchedule: "@every 30s",
	}
	testutil.AssertNoError(t, base.Validate())

	cases := map[string]func(*Environment){
		"bad mode":      func(e *Environment) { e.Mode = "qa" },
		"no host":       func(e *Environment) { e.TransportHost = "" },
		"port too low":  func(e *Environment) { e.TransportPort = 0 },
		"port too high": func(e *Environment) { e.TransportPort = 70000 },
		"no stream":     func(e *Environment) { e.ExportStream = "" },
		"no schedule":   func(e *Environment) { e.SnapshotSchedule = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			env := base
			mutate(&env)
			testutil.AssertError(t, env.Validate())
		})
	}
}
