package apihelpers

import (
	"crypto/tls"
	"crypto/x509"
	"os"
)

// CertificatePaths holds the file locations for a mutual TLS setup: the
// server's own key pair plus the CA bundle client certificates are checked
// against.
type CertificatePaths struct {
	ServerCertPath string
	ServerKeyPath  string
	CACertPath     string
}

// LoadTLSConfig builds a server-side TLS config that requires and verifies
// client certificates.
func LoadTLSConfig(paths CertificatePaths) (*tls.Config, error) {
	serverCert, err := tls.LoadX509KeyPair(paths.ServerCertPath, paths.ServerKeyPath)
	if err != nil {
		return nil, err
	}

	caCert, err := os.ReadFile(paths.CACertPath)
	if err != nil {
		return nil, err
	}

	caCertPool := x509.NewCertPool()
	caCertPool.AppendCertsFromPEM(caCert)

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{serverCert},
		ClientAuth:   tls.RequireAndVerifyClientCert,
		ClientCAs:    caCertPool,
		MinVersion:   tls.VersionTLS12,
	}
	return tlsConfig, nil
}
