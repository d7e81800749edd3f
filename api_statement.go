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

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/flight"
	"github.com/apache/arrow/go/v17/arrow/flight/flightsql"
	"go.uber.org/zap"
)

// statementAPI defines the Flight SQL requests issued by the client.
type statementAPI interface {
	// submitStatement submits a statement and returns the descriptor of its result.
	submitStatement(ctx context.Context, sql string) (*flight.FlightInfo, error)
	// prepareStatement registers a parameterized statement on the server.
	prepareStatement(ctx context.Context, sql string) (*flightsql.PreparedStatement, error)
	// fetchResultSet retrieves the result described by info.
	fetchResultSet(ctx context.Context, info *flight.FlightInfo) (*ResultSet, error)
}

var _ statementAPI = (*Client)(nil)

func (c *Client) submitStatement(ctx context.Context, sql string) (*flight.FlightInfo, error) {
	info, err := c.inner.Execute(c.outgoing(ctx), sql)
	if err != nil {
		return nil, newError(KindExecution, "failed to execute a sql", err)
	}
	return info, nil
}

func (c *Client) prepareStatement(ctx context.Context, sql string) (*flightsql.PreparedStatement, error) {
	stmt, err := c.inner.Prepare(c.outgoing(ctx), sql)
	if err != nil {
		return nil, newError(KindExecution, "failed to create a prepared statement", err)
	}
	return stmt, nil
}

// fetchResultSet takes the ticket of the single endpoint of info and drains
// the stream it designates.
//
// The server always answers with a single endpoint, whether it runs in
// standalone or cluster mode. Descriptors with several endpoints are rejected
// rather than partially read.
func (c *Client) fetchResultSet(ctx context.Context, info *flight.FlightInfo) (*ResultSet, error) {
	endpoints := info.GetEndpoint()
	switch {
	case len(endpoints) == 0:
		return nil, newError(KindExecution, "no endpoint in flight info", nil)
	case len(endpoints) > 1:
		return nil, newError(KindExecution, fmt.Sprintf("unsupported flight info with %d endpoints", len(endpoints)), nil)
	}

	ticket := endpoints[0].GetTicket()
	if ticket == nil {
		return nil, newError(KindExecution, "no ticket in endpoint", nil)
	}

	records, err := c.doGet(ctx, ticket)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("fetched result set", zap.Int("batches", len(records)))
	return newResultSet(records), nil
}

// doGet retrieves the stream of the ticket and collects all its batches.
func (c *Client) doGet(ctx context.Context, ticket *flight.Ticket) ([]arrow.Record, error) {
	reader, err := c.inner.DoGet(c.outgoing(ctx), ticket)
	if err != nil {
		return nil, newError(KindExecution, "failed to perform DoGet", err)
	}
	defer reader.Release()

	var records []arrow.Record
	for reader.Next() {
		record := reader.Record()
		// Retained so that the record survives the release of the reader.
		record.Retain()
		records = append(records, record)
	}
	if err := reader.Err(); err != nil {
		releaseRecords(records)
		return nil, newError(KindExecution, "failed to consume flight record batch stream", err)
	}

	if len(records) == 0 {
		return nil, newError(KindEmptyResult, "unexpected empty batches", nil)
	}
	return records, nil
}

func releaseRecords(records []arrow.Record) {
	for _, record := range records {
		record.Release()
	}
}
