package venue

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-copy-trader/internal/accounts"
	"solana-copy-trader/internal/accounts/accountstest"
	"solana-copy-trader/internal/chain"
	"solana-copy-trader/internal/chain/stub"
)

func fixedSeed() (string, error) { return "testseed", nil }

func newFetcher(rpc *stub.RPCClient) *accounts.Fetcher {
	return accounts.NewFetcher(rpc, accounts.FetcherOptions{InitialDelay: time.Millisecond, Attempts: 2})
}

func ixData(t *testing.T, ix solana.Instruction) []byte {
	t.Helper()
	data, err := ix.Data()
	require.NoError(t, err)
	return data
}

func TestNewSwapInstruction_Layout(t *testing.T) {
	accs := &accounts.SwapAccounts{
		AMM:              solana.NewWallet().PublicKey(),
		OpenOrders:       solana.NewWallet().PublicKey(),
		TargetOrders:     solana.NewWallet().PublicKey(),
		BaseVault:        solana.NewWallet().PublicKey(),
		QuoteVault:       solana.NewWallet().PublicKey(),
		MarketProgramID:  accounts.SerumProgramID,
		MarketID:         solana.NewWallet().PublicKey(),
		Bids:             solana.NewWallet().PublicKey(),
		Asks:             solana.NewWallet().PublicKey(),
		EventQueue:       solana.NewWallet().PublicKey(),
		MarketBaseVault:  solana.NewWallet().PublicKey(),
		MarketQuoteVault: solana.NewWallet().PublicKey(),
		VaultSigner:      solana.NewWallet().PublicKey(),
	}
	source := solana.NewWallet().PublicKey()
	dest := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()

	ix := NewSwapInstruction(accs, source, dest, owner, 10_000, 19_554)

	assert.True(t, ix.ProgramID().Equals(accounts.RaydiumAMMProgramID))

	data := ixData(t, ix)
	require.Len(t, data, 17)
	assert.Equal(t, byte(9), data[0])
	assert.Equal(t, uint64(10_000), binary.LittleEndian.Uint64(data[1:9]))
	assert.Equal(t, uint64(19_554), binary.LittleEndian.Uint64(data[9:17]))

	metas := ix.Accounts()
	require.Len(t, metas, 18)

	want := []struct {
		key      solana.PublicKey
		writable bool
	}{
		{solana.TokenProgramID, false},
		{accs.AMM, true},
		{accounts.RaydiumAuthority, false},
		{accs.OpenOrders, true},
		{accs.TargetOrders, true},
		{accs.BaseVault, true},
		{accs.QuoteVault, true},
		{accounts.SerumProgramID, false},
		{accs.MarketID, true},
		{accs.Bids, true},
		{accs.Asks, true},
		{accs.EventQueue, true},
		{accs.MarketBaseVault, true},
		{accs.MarketQuoteVault, true},
		{accs.VaultSigner, false},
		{source, true},
		{dest, true},
		{owner, true},
	}
	for i, w := range want {
		assert.True(t, metas[i].PublicKey.Equals(w.key), "account %d", i+1)
		assert.Equal(t, w.writable, metas[i].IsWritable, "account %d writable", i+1)
		assert.Equal(t, i == 17, metas[i].IsSigner, "account %d signer", i+1)
	}
}

func registerPool(t *testing.T, rpc *stub.RPCClient, mint solana.PublicKey) *accountstest.AMM {
	t.Helper()
	amm, err := accountstest.RegisterAMM(rpc, accountstest.PoolOptions{
		BaseMint:     accounts.WrappedSOLMint,
		QuoteMint:    mint,
		BaseReserve:  1_000_000,
		QuoteReserve: 2_000_000,
		FeeNum:       25,
		FeeDen:       10000,
	})
	require.NoError(t, err)
	return amm
}

func TestAMMVenue_BuildBuy(t *testing.T) {
	rpc := stub.NewRPCClient()
	mint := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()
	amm := registerPool(t, rpc, mint)

	v := NewAMMVenue(newFetcher(rpc), rpc, AMMOptions{SeedFunc: fixedSeed})
	assert.Equal(t, NameAMM, v.Name())

	ixs, err := v.BuildBuy(context.Background(), BuyRequest{
		Owner:       owner,
		Mint:        mint,
		Pool:        amm.ID,
		SolAmount:   10_000,
		SlippageBps: 100,
	})
	require.NoError(t, err)
	require.Len(t, ixs, 5)

	wsol, err := solana.CreateWithSeed(owner, "testseed", solana.TokenProgramID)
	require.NoError(t, err)
	ata, err := chain.AssociatedTokenAddress(owner, mint)
	require.NoError(t, err)

	assert.True(t, ixs[0].ProgramID().Equals(solana.SystemProgramID))
	assert.True(t, ixs[1].ProgramID().Equals(solana.TokenProgramID))
	assert.True(t, ixs[2].ProgramID().Equals(solana.SPLAssociatedTokenAccountProgramID))
	assert.True(t, ixs[3].ProgramID().Equals(accounts.RaydiumAMMProgramID))
	assert.True(t, ixs[4].ProgramID().Equals(solana.TokenProgramID))

	// createAccountWithSeed funds rent plus the input.
	assert.True(t, ixs[0].Accounts()[1].PublicKey.Equals(wsol))

	swap := ixs[3]
	data := ixData(t, swap)
	assert.Equal(t, uint64(10_000), binary.LittleEndian.Uint64(data[1:9]))
	assert.Equal(t, uint64(19_554), binary.LittleEndian.Uint64(data[9:17]))
	assert.True(t, swap.Accounts()[15].PublicKey.Equals(wsol), "buy source is wrapped SOL")
	assert.True(t, swap.Accounts()[16].PublicKey.Equals(ata), "buy destination is token ATA")

	// Close returns everything to the owner.
	closeAccs := ixs[4].Accounts()
	assert.True(t, closeAccs[0].PublicKey.Equals(wsol))
	assert.True(t, closeAccs[1].PublicKey.Equals(owner))
}

func TestAMMVenue_BuildSell_ReversesDirection(t *testing.T) {
	rpc := stub.NewRPCClient()
	mint := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()
	amm := registerPool(t, rpc, mint)

	v := NewAMMVenue(newFetcher(rpc), rpc, AMMOptions{SeedFunc: fixedSeed})
	ixs, err := v.BuildSell(context.Background(), SellRequest{
		Owner:       owner,
		Mint:        mint,
		Pool:        amm.ID,
		TokenAmount: 20_000,
		SlippageBps: 100,
	})
	require.NoError(t, err)
	require.Len(t, ixs, 5)

	wsol, _ := solana.CreateWithSeed(owner, "testseed", solana.TokenProgramID)
	ata, _ := chain.AssociatedTokenAddress(owner, mint)

	swap := ixs[3]
	assert.True(t, swap.Accounts()[15].PublicKey.Equals(ata), "sell source is token ATA")
	assert.True(t, swap.Accounts()[16].PublicKey.Equals(wsol), "sell destination is wrapped SOL")

	// Token in from the quote side: 20000 tokens against 2_000_000/1_000_000.
	data := ixData(t, swap)
	assert.Equal(t, uint64(20_000), binary.LittleEndian.Uint64(data[1:9]))
	minOut := binary.LittleEndian.Uint64(data[9:17])
	assert.Greater(t, minOut, uint64(9_000))
	assert.Less(t, minOut, uint64(10_000))
}

func TestAMMVenue_MintMismatch(t *testing.T) {
	rpc := stub.NewRPCClient()
	amm := registerPool(t, rpc, solana.NewWallet().PublicKey())

	v := NewAMMVenue(newFetcher(rpc), rpc, AMMOptions{SeedFunc: fixedSeed})
	_, err := v.BuildBuy(context.Background(), BuyRequest{
		Owner:     solana.NewWallet().PublicKey(),
		Mint:      solana.NewWallet().PublicKey(),
		Pool:      amm.ID,
		SolAmount: 1000,
	})
	assert.ErrorIs(t, err, ErrMintMismatch)
}

func TestAMMVenue_InvalidRequest(t *testing.T) {
	rpc := stub.NewRPCClient()
	v := NewAMMVenue(newFetcher(rpc), rpc, AMMOptions{SeedFunc: fixedSeed})

	_, err := v.BuildBuy(context.Background(), BuyRequest{Pool: solana.NewWallet().PublicKey()})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = v.BuildSell(context.Background(), SellRequest{TokenAmount: 1})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestAMMVenue_PoolUnavailable(t *testing.T) {
	rpc := stub.NewRPCClient()
	v := NewAMMVenue(newFetcher(rpc), rpc, AMMOptions{SeedFunc: fixedSeed})

	_, err := v.BuildBuy(context.Background(), BuyRequest{
		Mint:      solana.NewWallet().PublicKey(),
		Pool:      solana.NewWallet().PublicKey(),
		SolAmount: 1000,
	})
	assert.ErrorIs(t, err, accounts.ErrChainUnavailable)
}

func TestNativeSwapBundle_RejectsBadSeed(t *testing.T) {
	b := NativeSwapBundle{Seed: "", Accounts: &accounts.SwapAccounts{}}
	_, err := b.Buy(1, 1)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestBondingCurveVenue_BuyAndSell(t *testing.T) {
	rpc := stub.NewRPCClient()
	mint := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()

	curveAddr, err := accountstest.RegisterBondingCurve(rpc, mint, &accounts.BondingCurve{
		VirtualTokenReserves: 1_073_000_000_000_000,
		VirtualSolReserves:   30_000_000_000,
	})
	require.NoError(t, err)

	v := NewBondingCurveVenue(newFetcher(rpc), BondingCurveOptions{})
	assert.Equal(t, NameBondingCurve, v.Name())

	ixs, err := v.BuildBuy(context.Background(), BuyRequest{
		Owner:       owner,
		Mint:        mint,
		SolAmount:   1_000_000_000,
		SlippageBps: 500,
	})
	require.NoError(t, err)
	require.Len(t, ixs, 2)

	buy := ixs[1]
	assert.True(t, buy.ProgramID().Equals(accounts.PumpProgramID))
	data := ixData(t, buy)
	assert.Equal(t, pumpBuyDiscriminator, data[:8])
	assert.Equal(t, uint64(34_612_903_225_806), binary.LittleEndian.Uint64(data[8:16]))
	assert.Equal(t, uint64(1_050_000_000), binary.LittleEndian.Uint64(data[16:24]))
	require.Len(t, buy.Accounts(), 12)
	assert.True(t, buy.Accounts()[3].PublicKey.Equals(curveAddr))
	assert.True(t, buy.Accounts()[6].IsSigner)

	ixs, err = v.BuildSell(context.Background(), SellRequest{
		Owner:       owner,
		Mint:        mint,
		TokenAmount: 34_612_903_225_806,
		SlippageBps: 100,
	})
	require.NoError(t, err)
	require.Len(t, ixs, 1)

	data = ixData(t, ixs[0])
	assert.Equal(t, pumpSellDiscriminator, data[:8])
	minSol := binary.LittleEndian.Uint64(data[16:24])
	assert.Less(t, minSol, uint64(1_000_000_000))
	assert.True(t, ixs[0].Accounts()[8].PublicKey.Equals(solana.SPLAssociatedTokenAccountProgramID))
}

func TestBondingCurveVenue_Complete(t *testing.T) {
	rpc := stub.NewRPCClient()
	mint := solana.NewWallet().PublicKey()
	_, err := accountstest.RegisterBondingCurve(rpc, mint, &accounts.BondingCurve{
		VirtualTokenReserves: 1,
		VirtualSolReserves:   1,
		Complete:             true,
	})
	require.NoError(t, err)

	v := NewBondingCurveVenue(newFetcher(rpc), BondingCurveOptions{})
	_, err = v.BuildBuy(context.Background(), BuyRequest{Owner: solana.NewWallet().PublicKey(), Mint: mint, SolAmount: 10})
	assert.ErrorIs(t, err, ErrCurveComplete)
}
