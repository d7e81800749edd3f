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
	"errors"
	"fmt"
	"regexp"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind classifies the errors returned by this package.
type Kind int

const (
	// KindUnknown is reported by KindOf for errors not produced by this package.
	KindUnknown Kind = iota
	// KindConnection indicates the endpoint could not be built or reached.
	KindConnection
	// KindTLSConfig indicates the TLS certificate could not be used.
	KindTLSConfig
	// KindHandshake indicates the server rejected the credentials.
	KindHandshake
	// KindExecution indicates the server rejected a statement or the stream failed.
	KindExecution
	// KindEmptyResult indicates a result stream carried no batches.
	KindEmptyResult
	// KindFile indicates a local file could not be read.
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection error"
	case KindTLSConfig:
		return "tls config error"
	case KindHandshake:
		return "handshake error"
	case KindExecution:
		return "execution error"
	case KindEmptyResult:
		return "empty result error"
	case KindFile:
		return "file error"
	default:
		return "unknown error"
	}
}

var (
	// ErrStatementClosed is wrapped by errors from a prepared statement that was already closed.
	ErrStatementClosed = errors.New("prepared statement is already closed")
	// ErrStatementBusy is wrapped by errors from a prepared statement that is executing.
	ErrStatementBusy = errors.New("prepared statement is already executing")
)

// Error represents an error returned by the client.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// handshakeError maps a failed handshake to a connection error when the server
// was never reached, and to a handshake error otherwise.
func handshakeError(err error) *Error {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return newError(KindConnection, "failed to connect to the server", err)
	default:
		return newError(KindHandshake, "failed to authenticate with the server", err)
	}
}

const escapedQuote = "[ESCAPED_QUOTE]"

var messageField = regexp.MustCompile(`message: "(.*?)(?: at src/.*?)?"`)

// FilterMessage retains only the human facing part of an error message sent by
// the server.
//
// Newlines are flattened, and when the message embeds a quoted `message: "..."`
// field only its content is kept, without the trailing server source location.
// Escaped quotes come out as literal quotes. Nested message fields are
// unwrapped down to the innermost one, so applying FilterMessage to its own
// output returns it unchanged.
func FilterMessage(msg string) string {
	for {
		filtered := filterMessageOnce(msg)
		if filtered == msg {
			return filtered
		}
		msg = filtered
	}
}

// filterMessageOnce extracts one level of `message: "..."`. Each extraction
// shortens msg, so repeating it reaches a fixed point.
func filterMessageOnce(msg string) string {
	msg = strings.NewReplacer("\n", " ", "\r", " ").Replace(msg)
	msg = strings.ReplaceAll(msg, `\"`, escapedQuote)
	m := messageField.FindStringSubmatch(msg)
	if m == nil {
		return strings.ReplaceAll(msg, escapedQuote, `\"`)
	}
	msg = strings.ReplaceAll(m[1], `\`, "")
	return strings.ReplaceAll(msg, escapedQuote, `"`)
}
