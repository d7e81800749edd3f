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
	"fmt"
	"sync/atomic"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/flight/flightsql"
	"go.uber.org/zap"
)

// Execute executes the sql on Datalayers and returns its result set.
//
// Statements without rows, such as DDLs and inserts, yield a single batch
// holding the number of affected rows. A result without any batch is reported
// as a KindEmptyResult error.
func (c *Client) Execute(ctx context.Context, sql string) (*ResultSet, error) {
	c.logger.Debug("execute", zap.String("sql", sql))
	info, err := c.submitStatement(ctx, sql)
	if err != nil {
		return nil, err
	}
	return c.fetchResultSet(ctx, info)
}

// ExecuteUpdate executes a DML on Datalayers and returns the number of affected rows.
func (c *Client) ExecuteUpdate(ctx context.Context, sql string) (int64, error) {
	rs, err := c.Execute(ctx, sql)
	if err != nil {
		return 0, err
	}
	defer rs.Release()
	return rs.AffectedRows()
}

// PreparedStatement is a statement compiled by the server that accepts
// repeated parameter bindings.
//
// It must be closed once it is no longer used. A prepared statement executes
// one binding at a time: a concurrent Execute fails with ErrStatementBusy.
type PreparedStatement struct {
	c     *Client
	inner *flightsql.PreparedStatement
	sql   string

	executing atomic.Bool
	closed    atomic.Bool
	// bound is set once parameters have been sent. Guarded by executing.
	bound bool
}

// Prepare creates a prepared statement.
func (c *Client) Prepare(ctx context.Context, sql string) (*PreparedStatement, error) {
	inner, err := c.prepareStatement(ctx, sql)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("prepared statement", zap.String("sql", sql))
	return &PreparedStatement{c: c, inner: inner, sql: sql}, nil
}

// ExecutePrepared binds params to the prepared statement and executes it on the server.
func (c *Client) ExecutePrepared(ctx context.Context, stmt *PreparedStatement, params arrow.Record) (*ResultSet, error) {
	return stmt.Execute(ctx, params)
}

// ClosePrepared closes the prepared statement.
func (c *Client) ClosePrepared(ctx context.Context, stmt *PreparedStatement) error {
	return stmt.Close(ctx)
}

// SQL returns the text the statement was prepared with.
func (s *PreparedStatement) SQL() string {
	return s.sql
}

// ParameterSchema returns the schema of the parameters if the server reported one.
func (s *PreparedStatement) ParameterSchema() *arrow.Schema {
	return s.inner.ParameterSchema()
}

// Execute binds params and executes the statement.
//
// Each row of params is a parameter set, so a batch of N rows runs the
// statement N times, e.g. to insert N rows. A nil params executes the
// statement without binding, which is only allowed until parameters have
// been bound once. The caller keeps the ownership of params.
func (s *PreparedStatement) Execute(ctx context.Context, params arrow.Record) (*ResultSet, error) {
	if !s.executing.CompareAndSwap(false, true) {
		return nil, newError(KindExecution, "failed to execute a prepared statement", ErrStatementBusy)
	}
	defer s.executing.Store(false)
	if s.closed.Load() {
		return nil, newError(KindExecution, "failed to execute a prepared statement", ErrStatementClosed)
	}

	if params == nil {
		if s.bound {
			return nil, newError(KindExecution, "missing parameters for a prepared statement bound before", nil)
		}
	} else {
		if err := s.checkParameters(params); err != nil {
			return nil, err
		}
		s.inner.SetParameters(params)
		s.bound = true
	}

	info, err := s.inner.Execute(s.c.outgoing(ctx))
	if err != nil {
		return nil, newError(KindExecution, "failed to execute a prepared statement", err)
	}
	return s.c.fetchResultSet(ctx, info)
}

func (s *PreparedStatement) checkParameters(params arrow.Record) error {
	schema := s.inner.ParameterSchema()
	if schema == nil || len(schema.Fields()) == 0 {
		return nil
	}
	if int(params.NumCols()) != len(schema.Fields()) {
		msg := fmt.Sprintf("expected %d parameters, got %d", len(schema.Fields()), params.NumCols())
		return newError(KindExecution, msg, nil)
	}
	return nil
}

// Close releases the resources of the statement on the server side.
//
// Close must be called once; further calls fail with ErrStatementClosed.
// Closing while an execution is in flight fails with ErrStatementBusy.
func (s *PreparedStatement) Close(ctx context.Context) error {
	if !s.executing.CompareAndSwap(false, true) {
		return newError(KindExecution, "failed to close a prepared statement", ErrStatementBusy)
	}
	defer s.executing.Store(false)
	if !s.closed.CompareAndSwap(false, true) {
		return newError(KindExecution, "failed to close a prepared statement", ErrStatementClosed)
	}
	if err := s.inner.Close(s.c.outgoing(ctx)); err != nil {
		return newError(KindExecution, "failed to close a prepared statement", err)
	}
	s.c.logger.Debug("closed prepared statement", zap.String("sql", s.sql))
	return nil
}
