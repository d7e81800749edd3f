package datalayers

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

// transportCredentials returns TLS credentials trusting the configured
// certificate, or insecure credentials if none is configured.
//
// No network I/O happens here, so an unreadable certificate is reported
// before any connection attempt.
func transportCredentials(config *Config) (credentials.TransportCredentials, error) {
	if config.TLSCert == "" {
		return insecure.NewCredentials(), nil
	}

	pem, err := os.ReadFile(config.TLSCert)
	if err != nil {
		return nil, newError(KindFile, fmt.Sprintf("failed to read the TLS certificate %s", config.TLSCert), err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, newError(KindTLSConfig, fmt.Sprintf("no certificate found in %s", config.TLSCert), nil)
	}

	return credentials.NewTLS(&tls.Config{
		RootCAs:    pool,
		ServerName: config.Host,
		MinVersion: tls.VersionTLS12,
	}), nil
}

// dialOptions builds the gRPC options of the channel.
func dialOptions(config *Config) ([]grpc.DialOption, error) {
	creds, err := transportCredentials(config)
	if err != nil {
		return nil, err
	}

	return []grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithConnectParams(grpc.ConnectParams{
			Backoff:           backoff.DefaultConfig,
			MinConnectTimeout: config.connectTimeout(),
		}),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                config.keepAliveTime(),
			PermitWithoutStream: true,
		}),
	}, nil
}
