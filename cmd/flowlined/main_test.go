package main

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/vnykmshr/flowline/internal/config"
	"github.com/vnykmshr/flowline/internal/testutil"
)

func TestNewLoggerLevels(t *testing.T) {
	testutil.AssertEqual(t, newLogger(config.ModeDevelopment).GetLevel(), zerolog.DebugLevel)
	testutil.AssertEqual(t, newLogger(config.ModeStaging).GetLevel(), zerolog.InfoLevel)
	testutil.AssertEqual(t, newLogger(config.ModeProduction).GetLevel(), zerolog.InfoLevel)
}
