package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/code-payments/staking-server/pkg/staking/common"
)

// NewRandomAccount generates a signing account, failing t on error.
func NewRandomAccount(t testing.TB) *common.Account {
	t.Helper()

	account, err := common.NewRandomAccount()
	require.NoError(t, err, "generating account")
	return account
}
