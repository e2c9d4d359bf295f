package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGet_Defaults(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "LISTING_FEE", "LOGIC_VERSION", "CORS_ALLOWED_ORIGINS", "DB_MAX_CONN_IDLE_TIME", "DEV_REGISTRY"} {
		t.Setenv(key, "")
	}

	cfg := Get()

	require.Empty(t, cfg.Database.URL)
	require.Equal(t, DefaultListingFee, cfg.Market.ListingFee)
	require.Equal(t, 1, cfg.Market.LogicVersion)
	require.Equal(t, []string{"*"}, cfg.Cors.AllowedOrigins)
	require.Equal(t, 5*time.Minute, cfg.Database.MaxIdleTime)
	require.True(t, cfg.DevRegistry.Enabled)
}

func TestGet_Overrides(t *testing.T) {
	t.Setenv("LISTING_FEE", "0.1")
	t.Setenv("LOGIC_VERSION", "2")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("DB_MAX_CONN_IDLE_TIME", "90s")
	t.Setenv("DEV_REGISTRY", "false")
	t.Setenv("DB_MAX_CONNS", "not-a-number")

	cfg := Get()

	require.Equal(t, "0.1", cfg.Market.ListingFee)
	require.Equal(t, 2, cfg.Market.LogicVersion)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Cors.AllowedOrigins)
	require.Equal(t, 90*time.Second, cfg.Database.MaxIdleTime)
	require.False(t, cfg.DevRegistry.Enabled)
	require.Equal(t, 10, cfg.Database.MaxConns)
}

func TestGet_TLS(t *testing.T) {
	for _, key := range []string{"APP_ENV", "ENV", "ENABLE_TLS", "TLS_CERT_PATH", "TLS_KEY_PATH", "TLS_SELF_SIGNED", "SERVER_PORT"} {
		t.Setenv(key, "")
	}

	cfg := Get()
	require.Equal(t, "development", cfg.Env)
	require.True(t, cfg.TLS.Enabled)
	require.True(t, cfg.TLS.SelfSigned)
	require.Equal(t, "8443", cfg.ListenPort())
	require.NoError(t, cfg.TLS.Validate(cfg.Env))

	t.Setenv("ENABLE_TLS", "false")
	cfg = Get()
	require.False(t, cfg.TLS.Enabled)
	require.Equal(t, "8080", cfg.ListenPort())

	t.Setenv("SERVER_PORT", "9000")
	require.Equal(t, "9000", Get().ListenPort())
}

func TestGet_TLSInProduction(t *testing.T) {
	t.Setenv("APP_ENV", " Production ")
	t.Setenv("ENABLE_TLS", "false")
	t.Setenv("TLS_CERT_PATH", "")
	t.Setenv("TLS_KEY_PATH", "")

	cfg := Get()
	require.Equal(t, "production", cfg.Env)
	require.True(t, cfg.TLS.Enabled)
	require.Error(t, cfg.TLS.Validate(cfg.Env))

	t.Setenv("TLS_CERT_PATH", "/etc/market/tls.crt")
	t.Setenv("TLS_KEY_PATH", "/etc/market/tls.key")
	cfg = Get()
	require.Equal(t, "/etc/market/tls.crt", cfg.TLS.CertPath)
	require.NoError(t, cfg.TLS.Validate(cfg.Env))
}
