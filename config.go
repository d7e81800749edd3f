/*
 * Copyright 2024 The Datalayers SDK Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package datalayers

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	// SchemeTLS is the scheme of an endpoint secured by TLS.
	SchemeTLS = "grpc+tls"
	// SchemeTCP is the scheme of a plaintext endpoint.
	SchemeTCP = "grpc+tcp"

	// DefaultConnectTimeout bounds connection establishment and the handshake.
	DefaultConnectTimeout = 5 * time.Second
	// DefaultKeepAliveTime is the interval of keep-alive pings on an idle connection.
	DefaultKeepAliveTime = time.Minute
)

// Config defines the configuration for the connection.
type Config struct {
	// Host is the hostname of the Datalayers server.
	Host string `json:"host" yaml:"host" validate:"required"`
	// Port is the Arrow Flight SQL port of the Datalayers server.
	Port uint32 `json:"port" yaml:"port" validate:"required,max=65535"`
	// Username is used for the handshake.
	Username string `json:"username" yaml:"username" validate:"required"`
	// Password is used for the handshake.
	Password string `json:"password" yaml:"password"`
	// TLSCert is the path of a PEM encoded certificate trusted to sign the
	// server certificate. TLS is disabled if it is empty.
	TLSCert string `json:"tls_cert,omitempty" yaml:"tls_cert,omitempty"`
	// ConnectTimeout bounds connection establishment. Defaults to DefaultConnectTimeout.
	ConnectTimeout time.Duration `json:"connect_timeout,omitempty" yaml:"connect_timeout,omitempty" validate:"gte=0"`
	// KeepAliveTime defaults to DefaultKeepAliveTime.
	KeepAliveTime time.Duration `json:"keep_alive_time,omitempty" yaml:"keep_alive_time,omitempty" validate:"gte=0"`

	// Logger receives debug logs of the client. Defaults to a no-op logger.
	Logger *zap.Logger `json:"-" yaml:"-" validate:"-"`
	// Allocator allocates the batches of result sets. Defaults to memory.DefaultAllocator.
	Allocator memory.Allocator `json:"-" yaml:"-" validate:"-"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that the config is complete.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// Scheme returns SchemeTLS if a TLS certificate is configured, SchemeTCP otherwise.
func (c *Config) Scheme() string {
	if c.TLSCert != "" {
		return SchemeTLS
	}
	return SchemeTCP
}

// Address returns the host:port pair to dial.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.FormatUint(uint64(c.Port), 10))
}

// URI returns the endpoint as scheme://host:port.
func (c *Config) URI() string {
	return fmt.Sprintf("%s://%s", c.Scheme(), c.Address())
}

func (c *Config) connectTimeout() time.Duration {
	if c.ConnectTimeout > 0 {
		return c.ConnectTimeout
	}
	return DefaultConnectTimeout
}

func (c *Config) keepAliveTime() time.Duration {
	if c.KeepAliveTime > 0 {
		return c.KeepAliveTime
	}
	return DefaultKeepAliveTime
}

func (c *Config) allocator() memory.Allocator {
	if c.Allocator != nil {
		return c.Allocator
	}
	return memory.DefaultAllocator
}

func (c *Config) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return zap.NewNop()
}
