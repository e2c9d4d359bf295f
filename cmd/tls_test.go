package main

import (
	"crypto/x509"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"nftmarket/pkg/config"
)

func TestServerTLSConfig_SelfSignedOutsideProduction(t *testing.T) {
	cfg, err := serverTLSConfig("development", config.TLSConfig{Enabled: true, SelfSigned: true})
	require.NoError(t, err)
	require.Len(t, cfg.Certificates, 1)

	leaf, err := x509.ParseCertificate(cfg.Certificates[0].Certificate[0])
	require.NoError(t, err)
	require.NoError(t, leaf.VerifyHostname("localhost"))
	require.NoError(t, leaf.VerifyHostname("127.0.0.1"))
	require.True(t, leaf.NotAfter.After(time.Now()))
}

func TestServerTLSConfig_NoCertificate(t *testing.T) {
	_, err := serverTLSConfig("production", config.TLSConfig{Enabled: true, SelfSigned: true})
	require.ErrorIs(t, err, errNoCertificate)

	_, err = serverTLSConfig("development", config.TLSConfig{Enabled: true})
	require.ErrorIs(t, err, errNoCertificate)
}

func TestServerTLSConfig_InlinePEM(t *testing.T) {
	_, err := serverTLSConfig("development", config.TLSConfig{Enabled: true, CertPEM: "not a cert", KeyPEM: "not a key"})
	require.Error(t, err)
	require.NotErrorIs(t, err, errNoCertificate)
}
