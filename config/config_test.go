package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv(KeyRoundDuration, "")
	t.Setenv(KeyTickInterval, "")

	cfg := Load()

	req.Equal("8080", cfg.Port)
	req.Equal("https://api.deezer.com", cfg.CatalogAPIURL)
	req.Equal(time.Second, cfg.TickInterval)
	req.Equal(30*time.Second, cfg.RoundDuration)
	req.Equal(5*time.Second, cfg.WaitDuration)
	req.False(cfg.NoImmediateRepeat)
	req.False(cfg.RedisEnabled)
	req.False(cfg.DBEnabled)
	req.Equal(256, cfg.InboxSize)
}

func TestLoad_FromEnvironment(t *testing.T) {
	req := require.New(t)
	t.Setenv(KeyRoundDuration, "45s")
	t.Setenv(KeyWaitDuration, "2s")
	t.Setenv(KeyNoImmediateRepeat, "true")
	t.Setenv(KeyRedisEnabled, "true")
	t.Setenv(KeyRedisDB, "3")
	t.Setenv(KeyCatalogAPIURL, "http://catalog.local")

	cfg := Load()

	req.Equal(45*time.Second, cfg.RoundDuration)
	req.Equal(2*time.Second, cfg.WaitDuration)
	req.True(cfg.NoImmediateRepeat)
	req.True(cfg.RedisEnabled)
	req.Equal(3, cfg.RedisDB)
	req.Equal("http://catalog.local", cfg.CatalogAPIURL)
}

func TestFromViper_ClampsInvalidDurations(t *testing.T) {
	req := require.New(t)
	v := New()
	v.Set(KeyTickInterval, "0s")
	v.Set(KeyRoundDuration, "-1s")
	v.Set(KeyInboxSize, 0)

	cfg := FromViper(v)

	req.Equal(time.Second, cfg.TickInterval)
	req.Equal(30*time.Second, cfg.RoundDuration)
	req.Equal(256, cfg.InboxSize)
}
