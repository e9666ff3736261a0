package accounts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-copy-trader/internal/chain/stub"
	"solana-copy-trader/internal/layout"
)

func TestPoolLayout_Offsets(t *testing.T) {
	assert.Equal(t, PoolSize, PoolLayout.Size())

	cases := map[string]int{
		"swap_fee_numerator":    176,
		"swap_fee_denominator":  184,
		"swap_base_in_amount":   256,
		"swap_quote_out_amount": 272,
		"swap_base2_quote_fee":  288,
		"swap_quote_in_amount":  296,
		"swap_base_out_amount":  312,
		"swap_quote2_base_fee":  328,
		"base_vault":            336,
		"open_orders":           496,
		"market_id":             528,
		"target_orders":         592,
		"owner":                 688,
		"lp_reserve":            720,
		"padding":               728,
	}
	for name, want := range cases {
		got, ok := PoolLayout.Offset(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
}

func TestMarketLayout_Size(t *testing.T) {
	assert.Equal(t, MarketSize, MarketLayout.Size())

	off, ok := MarketLayout.Offset("vault_signer_nonce")
	require.True(t, ok)
	assert.Equal(t, 45, off)

	off, ok = MarketLayout.Offset("bids")
	require.True(t, ok)
	assert.Equal(t, 285, off)
}

func TestDecodePool_RoundTrip(t *testing.T) {
	want := &Pool{
		Status:             6,
		SwapFeeNumerator:   25,
		SwapFeeDenominator: 10000,
		SwapBaseInAmount:   layout.Uint128{Lo: 1_000_000},
		SwapQuoteOutAmount: layout.Uint128{Hi: 1, Lo: 2_000_000},
		BaseMint:           WrappedSOLMint,
		QuoteMint:          solana.NewWallet().PublicKey(),
		OpenOrders:         solana.NewWallet().PublicKey(),
		MarketID:           solana.NewWallet().PublicKey(),
		TargetOrders:       solana.NewWallet().PublicKey(),
		Owner:              solana.NewWallet().PublicKey(),
		LPReserve:          77,
	}

	data, err := EncodePool(want)
	require.NoError(t, err)
	require.Len(t, data, PoolSize)

	got, err := DecodePool(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	r := got.Reserves()
	assert.Equal(t, "1000000", r.Base.String())
	assert.Equal(t, "18446744073711551616", r.Quote.String())
	assert.Equal(t, uint64(25), r.FeeNumerator)
}

func TestDecodePool_WrongLength(t *testing.T) {
	for _, n := range []int{0, 1, PoolSize - 1, PoolSize + 1, MarketSize} {
		_, err := DecodePool(make([]byte, n))
		var decErr *layout.DecodeError
		require.ErrorAs(t, err, &decErr, "len %d", n)
		assert.Equal(t, PoolSize, decErr.Expected)
		assert.Equal(t, n, decErr.Actual)
	}
}

func TestDecodeMarket_RoundTrip(t *testing.T) {
	want := &Market{
		OwnAddress:       solana.NewWallet().PublicKey(),
		VaultSignerNonce: 3,
		BaseMint:         solana.NewWallet().PublicKey(),
		QuoteMint:        WrappedSOLMint,
		BaseVault:        solana.NewWallet().PublicKey(),
		QuoteVault:       solana.NewWallet().PublicKey(),
		EventQueue:       solana.NewWallet().PublicKey(),
		Bids:             solana.NewWallet().PublicKey(),
		Asks:             solana.NewWallet().PublicKey(),
		BaseLotSize:      100,
		QuoteLotSize:     10,
		FeeRateBps:       22,
	}

	data, err := EncodeMarket(want)
	require.NoError(t, err)
	require.Len(t, data, MarketSize)

	got, err := DecodeMarket(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = DecodeMarket(data[:MarketSize-1])
	var decErr *layout.DecodeError
	assert.ErrorAs(t, err, &decErr)
}

func TestDecodeBondingCurve_TrailingBytes(t *testing.T) {
	want := &BondingCurve{
		VirtualTokenReserves: 1_073_000_000_000_000,
		VirtualSolReserves:   30_000_000_000,
		RealTokenReserves:    793_100_000_000_000,
		TokenTotalSupply:     1_000_000_000_000_000,
	}
	data, err := EncodeBondingCurve(want)
	require.NoError(t, err)
	require.Len(t, data, 49)

	got, err := DecodeBondingCurve(append(data, make([]byte, 32)...))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = DecodeBondingCurve(data[:48])
	assert.Error(t, err)
}

func TestDeriveVaultSigner(t *testing.T) {
	market := solana.NewWallet().PublicKey()

	var derived, failed int
	for nonce := uint64(0); nonce < 32; nonce++ {
		addr, err := DeriveVaultSigner(market, nonce, SerumProgramID)
		if err != nil {
			assert.ErrorIs(t, err, ErrAddressDerivation)
			failed++
			continue
		}
		again, err := DeriveVaultSigner(market, nonce, SerumProgramID)
		require.NoError(t, err)
		assert.True(t, addr.Equals(again))
		derived++
	}
	assert.Greater(t, derived, 0)
	assert.Equal(t, 32, derived+failed)
}

func TestFetcher_RetriesMissingAccount(t *testing.T) {
	rpc := stub.NewRPCClient()
	addr := solana.NewWallet().PublicKey()
	rpc.SetAccount(addr, []byte{1, 2, 3})
	rpc.MissingFor = 3

	f := NewFetcher(rpc, FetcherOptions{InitialDelay: time.Millisecond})
	data, err := f.FetchRaw(context.Background(), addr)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)
	assert.Equal(t, 4, rpc.AccountCalls)
}

func TestFetcher_Exhaustion(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.AccountErr = errors.New("connection refused")

	f := NewFetcher(rpc, FetcherOptions{InitialDelay: time.Millisecond})
	_, err := f.FetchRaw(context.Background(), solana.NewWallet().PublicKey())
	require.ErrorIs(t, err, ErrChainUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, DefaultAttempts, rpc.AccountCalls)
}

func TestFetcher_DecodeErrorNotRetried(t *testing.T) {
	rpc := stub.NewRPCClient()
	addr := solana.NewWallet().PublicKey()
	rpc.SetAccount(addr, make([]byte, 100))

	f := NewFetcher(rpc, FetcherOptions{InitialDelay: time.Millisecond})
	_, err := f.FetchPool(context.Background(), addr)

	var decErr *layout.DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, 1, rpc.AccountCalls)
}

func TestFetcher_ContextCancelled(t *testing.T) {
	rpc := stub.NewRPCClient()
	f := NewFetcher(rpc, FetcherOptions{InitialDelay: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.FetchRaw(ctx, solana.NewWallet().PublicKey())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
