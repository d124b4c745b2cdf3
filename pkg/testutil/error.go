package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AssertStatusErrorWithCode requires err to be a gRPC status error with code.
func AssertStatusErrorWithCode(t *testing.T, err error, code codes.Code) {
	t.Helper()

	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "not a status error: %v", err)
	require.Equal(t, code, st.Code(), "unexpected status: %s", st.Message())
}
