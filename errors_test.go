package datalayers

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestFilterMessage(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "server location",
			in:   `rpc error: code = Internal desc = status: Internal, message: "table not found at src/dbserver/src/query.rs:42", details: []`,
			want: "table not found",
		},
		{
			name: "escaped quotes",
			in:   `status: InvalidArgument, message: "column \"sid\" is ambiguous at src/dbserver/src/plan.rs:7"`,
			want: `column "sid" is ambiguous`,
		},
		{
			name: "no location",
			in:   `message: "invalid username or password"`,
			want: "invalid username or password",
		},
		{
			name: "newlines",
			in:   "status: Internal, message: \"line one\nline two at src/dbserver/src/a.rs:1\"",
			want: "line one line two",
		},
		{
			name: "plain",
			in:   "failed to connect\r\nto the server",
			want: "failed to connect  to the server",
		},
		{
			name: "nested message field",
			in:   `status: Internal, message: "message: \"bad\" value at src/dbserver/src/a.rs:1"`,
			want: "bad",
		},
		{
			name: "plain with escaped quotes",
			in:   `failed to parse \"x\"`,
			want: `failed to parse \"x\"`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FilterMessage(tc.in)
			require.Equal(t, tc.want, got)
			require.Equal(t, got, FilterMessage(got))
		})
	}
}

func TestKindOf(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", newError(KindEmptyResult, "unexpected empty batches", nil))
	require.Equal(t, KindEmptyResult, KindOf(err))
	require.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	require.Equal(t, KindUnknown, KindOf(nil))

	cause := errors.New("cause")
	err = newError(KindExecution, "failed to execute a sql", cause)
	require.ErrorIs(t, err, cause)
	require.Equal(t, "failed to execute a sql: cause", err.Error())
}

func TestHandshakeError(t *testing.T) {
	require.Equal(t, KindConnection, handshakeError(status.Error(codes.Unavailable, "connection refused")).Kind)
	require.Equal(t, KindConnection, handshakeError(status.Error(codes.DeadlineExceeded, "timeout")).Kind)
	require.Equal(t, KindHandshake, handshakeError(status.Error(codes.Unauthenticated, "bad password")).Kind)
	require.Equal(t, KindHandshake, handshakeError(errors.New("unknown")).Kind)
}
