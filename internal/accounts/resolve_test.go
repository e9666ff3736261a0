package accounts_test

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-copy-trader/internal/accounts"
	"solana-copy-trader/internal/accounts/accountstest"
	"solana-copy-trader/internal/chain/stub"
)

func TestResolveSwapAccounts(t *testing.T) {
	rpc := stub.NewRPCClient()
	amm, err := accountstest.RegisterAMM(rpc, accountstest.PoolOptions{
		BaseMint:     accounts.WrappedSOLMint,
		QuoteMint:    solana.NewWallet().PublicKey(),
		BaseReserve:  1_000_000,
		QuoteReserve: 2_000_000,
		FeeNum:       25,
		FeeDen:       10000,
	})
	require.NoError(t, err)

	f := accounts.NewFetcher(rpc, accounts.FetcherOptions{InitialDelay: time.Millisecond})
	accs, err := accounts.ResolveSwapAccounts(context.Background(), f, amm.ID)
	require.NoError(t, err)

	want, err := accounts.DeriveVaultSigner(amm.Pool.MarketID, amm.Market.VaultSignerNonce, accounts.SerumProgramID)
	require.NoError(t, err)

	assert.True(t, accs.VaultSigner.Equals(want))
	assert.True(t, accs.Bids.Equals(amm.Market.Bids))
	assert.True(t, accs.MarketBaseVault.Equals(amm.Market.BaseVault))
	assert.True(t, accs.OpenOrders.Equals(amm.Pool.OpenOrders))
	assert.True(t, accs.MarketProgramID.Equals(accounts.SerumProgramID))
}

func TestResolveSwapAccounts_MissingMarket(t *testing.T) {
	rpc := stub.NewRPCClient()
	amm, err := accountstest.RegisterAMM(rpc, accountstest.PoolOptions{FeeDen: 10000})
	require.NoError(t, err)
	delete(rpc.Accounts, amm.Pool.MarketID)

	f := accounts.NewFetcher(rpc, accounts.FetcherOptions{InitialDelay: time.Millisecond, Attempts: 2})
	_, err = accounts.ResolveSwapAccounts(context.Background(), f, amm.ID)
	assert.ErrorIs(t, err, accounts.ErrChainUnavailable)
}
