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

// Package testkit runs an in-process Arrow Flight SQL server that answers
// statements with a Handler, for testing clients without a Datalayers server.
package testkit

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/flight"
	"github.com/apache/arrow/go/v17/arrow/flight/flightsql"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	Username = "admin"
	Password = "public"
)

// Request is a statement received by the server.
type Request struct {
	// Query is the SQL text.
	Query string
	// Database is the value of the database header, if any.
	Database string
	// Params are the parameters bound to a prepared statement, nil otherwise.
	Params arrow.Record
}

// Handler answers a request with a schema and the batches to stream back.
//
// The server takes the ownership of the returned records.
type Handler func(req *Request) (*arrow.Schema, []arrow.Record, error)

type result struct {
	schema  *arrow.Schema
	records []arrow.Record
}

type prepared struct {
	query  string
	params arrow.Record
}

// Server is a Flight SQL server with basic authentication.
type Server struct {
	flightsql.BaseServer

	handler Handler
	srv     flight.Server

	mu       sync.Mutex
	results  map[string]*result
	prepared map[string]*prepared
	requests []*Request

	// Endpoints is the number of endpoints advertised per result. Defaults to 1.
	Endpoints int
	// ParameterSchema is reported for every prepared statement when set.
	ParameterSchema *arrow.Schema
	// StreamError, when set, fails every result stream after its batches.
	StreamError error
}

// NewServer starts a server answering with handler. It is shut down when the
// test finishes.
func NewServer(t testing.TB, handler Handler) *Server {
	s := &Server{
		handler:   handler,
		results:   make(map[string]*result),
		prepared:  make(map[string]*prepared),
		Endpoints: 1,
	}
	s.Alloc = memory.DefaultAllocator

	s.srv = flight.NewServerWithMiddleware([]flight.ServerMiddleware{
		flight.CreateServerBasicAuthMiddleware(&validator{}),
	})
	s.srv.RegisterFlightService(flightsql.NewFlightServer(s))
	require.NoError(t, s.srv.Init("127.0.0.1:0"))

	go func() {
		_ = s.srv.Serve()
	}()
	t.Cleanup(s.shutdown)
	return s
}

// Host returns the host the server listens on.
func (s *Server) Host() string {
	return s.srv.Addr().(*net.TCPAddr).IP.String()
}

// Port returns the port the server listens on.
func (s *Server) Port() uint32 {
	return uint32(s.srv.Addr().(*net.TCPAddr).Port)
}

// Requests returns the requests received so far.
func (s *Server) Requests() []*Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Request(nil), s.requests...)
}

// OpenPrepared returns the number of prepared statements not closed yet.
func (s *Server) OpenPrepared() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prepared)
}

func (s *Server) shutdown() {
	s.srv.Shutdown()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.results {
		for _, rec := range r.records {
			rec.Release()
		}
	}
	for _, p := range s.prepared {
		if p.params != nil {
			p.params.Release()
		}
	}
}

func (s *Server) GetFlightInfoStatement(ctx context.Context, cmd flightsql.StatementQuery, desc *flight.FlightDescriptor) (*flight.FlightInfo, error) {
	return s.execute(ctx, &Request{Query: cmd.GetQuery()}, desc)
}

func (s *Server) DoGetStatement(_ context.Context, ticket flightsql.StatementQueryTicket) (*arrow.Schema, <-chan flight.StreamChunk, error) {
	handle := string(ticket.GetStatementHandle())

	s.mu.Lock()
	r, ok := s.results[handle]
	delete(s.results, handle)
	s.mu.Unlock()
	if !ok {
		return nil, nil, status.Errorf(codes.NotFound, "unknown ticket %s", handle)
	}

	ch := make(chan flight.StreamChunk, len(r.records)+1)
	for _, rec := range r.records {
		ch <- flight.StreamChunk{Data: rec}
	}
	if s.StreamError != nil {
		ch <- flight.StreamChunk{Err: s.StreamError}
	}
	close(ch)
	return r.schema, ch, nil
}

func (s *Server) CreatePreparedStatement(_ context.Context, req flightsql.ActionCreatePreparedStatementRequest) (flightsql.ActionCreatePreparedStatementResult, error) {
	handle := uuid.NewString()

	s.mu.Lock()
	s.prepared[handle] = &prepared{query: req.GetQuery()}
	s.mu.Unlock()

	return flightsql.ActionCreatePreparedStatementResult{
		Handle:          []byte(handle),
		ParameterSchema: s.ParameterSchema,
	}, nil
}

func (s *Server) ClosePreparedStatement(_ context.Context, req flightsql.ActionClosePreparedStatementRequest) error {
	handle := string(req.GetPreparedStatementHandle())

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prepared[handle]
	if !ok {
		return status.Errorf(codes.NotFound, "unknown prepared statement %s", handle)
	}
	if p.params != nil {
		p.params.Release()
	}
	delete(s.prepared, handle)
	return nil
}

func (s *Server) DoPutPreparedStatementQuery(_ context.Context, cmd flightsql.PreparedStatementQuery, r flight.MessageReader, _ flight.MetadataWriter) ([]byte, error) {
	handle := cmd.GetPreparedStatementHandle()

	var params arrow.Record
	for r.Next() {
		if params != nil {
			params.Release()
		}
		params = r.Record()
		params.Retain()
	}
	if err := r.Err(); err != nil {
		if params != nil {
			params.Release()
		}
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prepared[string(handle)]
	if !ok {
		if params != nil {
			params.Release()
		}
		return nil, status.Errorf(codes.NotFound, "unknown prepared statement %s", handle)
	}
	if p.params != nil {
		p.params.Release()
	}
	p.params = params
	return handle, nil
}

func (s *Server) GetFlightInfoPreparedStatement(ctx context.Context, cmd flightsql.PreparedStatementQuery, desc *flight.FlightDescriptor) (*flight.FlightInfo, error) {
	handle := string(cmd.GetPreparedStatementHandle())

	s.mu.Lock()
	p, ok := s.prepared[handle]
	s.mu.Unlock()
	if !ok {
		return nil, status.Errorf(codes.NotFound, "unknown prepared statement %s", handle)
	}
	return s.execute(ctx, &Request{Query: p.query, Params: p.params}, desc)
}

// execute runs the handler and registers its result under a new ticket.
func (s *Server) execute(ctx context.Context, req *Request, desc *flight.FlightDescriptor) (*flight.FlightInfo, error) {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get("database"); len(v) > 0 {
			req.Database = v[len(v)-1]
		}
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	schema, records, err := s.handler(req)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	handle := uuid.NewString()
	ticket, err := flightsql.CreateStatementQueryTicket([]byte(handle))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.results[handle] = &result{schema: schema, records: records}
	s.mu.Unlock()

	endpoints := make([]*flight.FlightEndpoint, 0, s.Endpoints)
	for i := 0; i < s.Endpoints; i++ {
		endpoints = append(endpoints, &flight.FlightEndpoint{Ticket: &flight.Ticket{Ticket: ticket}})
	}
	return &flight.FlightInfo{
		Schema:           flight.SerializeSchema(schema, s.Alloc),
		FlightDescriptor: desc,
		Endpoint:         endpoints,
		TotalRecords:     -1,
		TotalBytes:       -1,
	}, nil
}

const bearerToken = "testkit-token"

// validator accepts the Username and Password credentials.
type validator struct{}

func (*validator) Validate(username, password string) (string, error) {
	if username != Username || password != Password {
		return "", errors.New("invalid username or password")
	}
	return bearerToken, nil
}

func (*validator) IsValid(token string) (interface{}, error) {
	if strings.TrimPrefix(token, "Bearer ") != bearerToken {
		return nil, errors.New("invalid token")
	}
	return Username, nil
}
