// Package accountstest registers synthetic pool and market accounts on a stub RPC.
package accountstest

import (
	"errors"

	"github.com/gagliardetto/solana-go"

	"solana-copy-trader/internal/accounts"
	"solana-copy-trader/internal/chain/stub"
	"solana-copy-trader/internal/layout"
)

// AMM describes a registered pool and its market.
type AMM struct {
	ID     solana.PublicKey
	Pool   *accounts.Pool
	Market *accounts.Market
}

// PoolOptions sets the reserves and fee of a synthetic pool.
type PoolOptions struct {
	BaseMint     solana.PublicKey
	QuoteMint    solana.PublicKey
	BaseReserve  uint64
	QuoteReserve uint64
	FeeNum       uint64
	FeeDen       uint64
}

// RegisterAMM stores a pool and a market with a derivable vault signer.
func RegisterAMM(rpc *stub.RPCClient, opts PoolOptions) (*AMM, error) {
	marketID := solana.NewWallet().PublicKey()

	nonce, err := findNonce(marketID)
	if err != nil {
		return nil, err
	}

	market := &accounts.Market{
		OwnAddress:       marketID,
		VaultSignerNonce: nonce,
		BaseMint:         opts.BaseMint,
		QuoteMint:        opts.QuoteMint,
		BaseVault:        solana.NewWallet().PublicKey(),
		QuoteVault:       solana.NewWallet().PublicKey(),
		RequestQueue:     solana.NewWallet().PublicKey(),
		EventQueue:       solana.NewWallet().PublicKey(),
		Bids:             solana.NewWallet().PublicKey(),
		Asks:             solana.NewWallet().PublicKey(),
		BaseLotSize:      1,
		QuoteLotSize:     1,
	}
	pool := &accounts.Pool{
		Status:             6,
		SwapFeeNumerator:   opts.FeeNum,
		SwapFeeDenominator: opts.FeeDen,
		SwapBaseInAmount:   layout.Uint128{Lo: opts.BaseReserve},
		SwapQuoteOutAmount: layout.Uint128{Lo: opts.QuoteReserve},
		BaseVault:          solana.NewWallet().PublicKey(),
		QuoteVault:         solana.NewWallet().PublicKey(),
		BaseMint:           opts.BaseMint,
		QuoteMint:          opts.QuoteMint,
		LPMint:             solana.NewWallet().PublicKey(),
		OpenOrders:         solana.NewWallet().PublicKey(),
		MarketID:           marketID,
		MarketProgramID:    accounts.SerumProgramID,
		TargetOrders:       solana.NewWallet().PublicKey(),
		WithdrawQueue:      solana.NewWallet().PublicKey(),
		LPVault:            solana.NewWallet().PublicKey(),
		Owner:              solana.NewWallet().PublicKey(),
	}

	poolData, err := accounts.EncodePool(pool)
	if err != nil {
		return nil, err
	}
	marketData, err := accounts.EncodeMarket(market)
	if err != nil {
		return nil, err
	}

	id := solana.NewWallet().PublicKey()
	rpc.SetAccount(id, poolData)
	rpc.SetAccount(marketID, marketData)

	return &AMM{ID: id, Pool: pool, Market: market}, nil
}

// RegisterBondingCurve stores a bonding curve for mint and returns its address.
func RegisterBondingCurve(rpc *stub.RPCClient, mint solana.PublicKey, curve *accounts.BondingCurve) (solana.PublicKey, error) {
	addr, err := accounts.BondingCurveAddress(mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	data, err := accounts.EncodeBondingCurve(curve)
	if err != nil {
		return solana.PublicKey{}, err
	}
	rpc.SetAccount(addr, data)
	return addr, nil
}

func findNonce(market solana.PublicKey) (uint64, error) {
	for nonce := uint64(0); nonce < 256; nonce++ {
		if _, err := accounts.DeriveVaultSigner(market, nonce, accounts.SerumProgramID); err == nil {
			return nonce, nil
		}
	}
	return 0, errors.New("no vault signer nonce")
}
