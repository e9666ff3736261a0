package accounts

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"solana-copy-trader/internal/chain"
)

// DeriveVaultSigner computes the market vault signer from its nonce.
func DeriveVaultSigner(market solana.PublicKey, nonce uint64, programID solana.PublicKey) (solana.PublicKey, error) {
	var nonceLE [8]byte
	binary.LittleEndian.PutUint64(nonceLE[:], nonce)

	addr, err := chain.CreateProgramAddress([][]byte{market[:], nonceLE[:]}, programID)
	if err != nil {
		if errors.Is(err, chain.ErrInvalidSeeds) {
			return solana.PublicKey{}, fmt.Errorf("%w: vault signer for market %s nonce %d", ErrAddressDerivation, market, nonce)
		}
		return solana.PublicKey{}, fmt.Errorf("%w: %v", ErrAddressDerivation, err)
	}
	return addr, nil
}

// SwapAccounts is every account an AMM swap touches besides the user's.
type SwapAccounts struct {
	AMM              solana.PublicKey
	Pool             *Pool
	Market           *Market
	OpenOrders       solana.PublicKey
	TargetOrders     solana.PublicKey
	BaseVault        solana.PublicKey
	QuoteVault       solana.PublicKey
	MarketProgramID  solana.PublicKey
	MarketID         solana.PublicKey
	Bids             solana.PublicKey
	Asks             solana.PublicKey
	EventQueue       solana.PublicKey
	MarketBaseVault  solana.PublicKey
	MarketQuoteVault solana.PublicKey
	VaultSigner      solana.PublicKey
}

// ResolveSwapAccounts loads the pool and its market and derives the vault signer.
// Swaps always route through the Serum program.
func ResolveSwapAccounts(ctx context.Context, f *Fetcher, amm solana.PublicKey) (*SwapAccounts, error) {
	pool, err := f.FetchPool(ctx, amm)
	if err != nil {
		return nil, err
	}

	market, err := f.FetchMarket(ctx, pool.MarketID)
	if err != nil {
		return nil, err
	}

	vaultSigner, err := DeriveVaultSigner(pool.MarketID, market.VaultSignerNonce, SerumProgramID)
	if err != nil {
		return nil, err
	}

	return &SwapAccounts{
		AMM:              amm,
		Pool:             pool,
		Market:           market,
		OpenOrders:       pool.OpenOrders,
		TargetOrders:     pool.TargetOrders,
		BaseVault:        pool.BaseVault,
		QuoteVault:       pool.QuoteVault,
		MarketProgramID:  SerumProgramID,
		MarketID:         pool.MarketID,
		Bids:             market.Bids,
		Asks:             market.Asks,
		EventQueue:       market.EventQueue,
		MarketBaseVault:  market.BaseVault,
		MarketQuoteVault: market.QuoteVault,
		VaultSigner:      vaultSigner,
	}, nil
}
