package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"math/big"
	"net"
	"time"

	"go.uber.org/zap"

	"nftmarket/pkg/config"
)

var errNoCertificate = errors.New("no TLS certificate configured")

// serverTLSConfig loads the certificate named by c: key files first, then
// inline PEM, then a throwaway self-signed one outside production.
func serverTLSConfig(env string, c config.TLSConfig) (*tls.Config, error) {
	cert, err := loadCertificate(env, c)
	if err != nil {
		return nil, err
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}, nil
}

func loadCertificate(env string, c config.TLSConfig) (tls.Certificate, error) {
	switch {
	case c.CertPath != "" && c.KeyPath != "":
		return tls.LoadX509KeyPair(c.CertPath, c.KeyPath)
	case c.CertPEM != "" && c.KeyPEM != "":
		return tls.X509KeyPair([]byte(c.CertPEM), []byte(c.KeyPEM))
	case env != "production" && c.SelfSigned:
		zap.L().Warn("Serving a self-signed certificate for localhost")
		return selfSignedCertificate("localhost", time.Now())
	}
	return tls.Certificate{}, errNoCertificate
}

func selfSignedCertificate(host string, now time.Time) (tls.Certificate, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, err
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return tls.Certificate{}, err
	}

	tmpl := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: host},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.AddDate(1, 0, 0),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:              []string{host},
		IPAddresses:           []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, err
	}
	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		return tls.Certificate{}, err
	}
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key, Leaf: leaf}, nil
}
