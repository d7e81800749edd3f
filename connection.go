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
	"context"

	"github.com/apache/arrow/go/v17/arrow/flight/flightsql"
	"go.uber.org/zap"
	"google.golang.org/grpc/metadata"
)

// databaseHeader is the request header naming the default database.
const databaseHeader = "database"

// Client is an authenticated connection to a Datalayers server.
//
// A Client serves one caller at a time: each call blocks until its result
// stream is fully drained, and calls must not overlap.
type Client struct {
	config Config
	inner  *flightsql.Client
	logger *zap.Logger

	// md carries the bearer token and the database hint of every request.
	md metadata.MD
}

// Connect creates a client for executing SQLs on the Datalayers server.
//
// The TLS is enabled if a certificate is configured, otherwise the connection
// is plaintext. Connection establishment and the handshake are bounded by the
// connect timeout.
func Connect(ctx context.Context, config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, newError(KindConnection, "invalid connection config", err)
	}
	logger := config.logger().With(zap.String("uri", config.URI()))

	opts, err := dialOptions(config)
	if err != nil {
		return nil, err
	}

	inner, err := flightsql.NewClient(config.Address(), nil, nil, opts...)
	if err != nil {
		return nil, newError(KindConnection, "failed to create an Arrow Flight SQL client", err)
	}
	inner.Alloc = config.allocator()

	ctx, cancel := context.WithTimeout(ctx, config.connectTimeout())
	defer cancel()
	authed, err := inner.Client.AuthenticateBasicToken(ctx, config.Username, config.Password)
	if err != nil {
		_ = inner.Close()
		return nil, handshakeError(err)
	}
	md, ok := metadata.FromOutgoingContext(authed)
	if !ok {
		_ = inner.Close()
		return nil, newError(KindHandshake, "no token returned by the handshake", nil)
	}
	logger.Debug("connected", zap.String("username", config.Username))

	return &Client{
		config: *config,
		inner:  inner,
		logger: logger,
		md:     md.Copy(),
	}, nil
}

// UseDatabase sets the database header of each outgoing request.
//
// The server uses this header to resolve unqualified table names. It is
// optional when statements name their database.
func (c *Client) UseDatabase(database string) {
	c.md.Set(databaseHeader, database)
	c.logger.Debug("use database", zap.String("database", database))
}

// Database returns the database set by UseDatabase, or an empty string.
func (c *Client) Database() string {
	if v := c.md.Get(databaseHeader); len(v) > 0 {
		return v[len(v)-1]
	}
	return ""
}

// Config returns a copy of the config the client was created with.
func (c *Client) Config() Config {
	return c.config
}

// Close closes the underlying channel.
func (c *Client) Close() error {
	return c.inner.Close()
}

// outgoing attaches the request headers to ctx.
func (c *Client) outgoing(ctx context.Context) context.Context {
	return metadata.NewOutgoingContext(ctx, c.md)
}
