package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 24*time.Hour, cfg.Cache.TTL())
	require.Equal(t, time.Hour, cfg.Cache.SweepInterval())
	require.Equal(t, 15*time.Second, cfg.Upstream.Timeout())
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Listen.Port = 0
	require.Error(t, cfg.Validate())
	cfg.Server.Listen.Port = 70000
	require.Error(t, cfg.Validate())
}

func TestValidateRequiresUpstreamBaseURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Upstream.BaseURL = "  "
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveTTL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.TTLHours = 0
	require.Error(t, cfg.Validate())
}

func TestValidateValkeyBackendNeedsAddress(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.Backend = "valkey"
	require.Error(t, cfg.Validate())

	cfg.Cache.Valkey.Address = "localhost:6379"
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.Backend = "dynamo"
	require.Error(t, cfg.Validate())
}

func TestValidateRequiresTimezone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Display.Timezone = ""
	require.Error(t, cfg.Validate())
}
