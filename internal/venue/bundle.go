package venue

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"

	"solana-copy-trader/internal/accounts"
	"solana-copy-trader/internal/chain"
)

// TokenAccountSize is the size of an SPL token account.
const TokenAccountSize = 165

// NativeSwapBundle wraps an AMM swap with an ephemeral wrapped-SOL account
// that is created, initialized and closed in the same transaction.
type NativeSwapBundle struct {
	Owner        solana.PublicKey
	Mint         solana.PublicKey
	Seed         string
	RentLamports uint64
	Accounts     *accounts.SwapAccounts
}

// Buy swaps amountIn lamports into the owner's token account.
func (b NativeSwapBundle) Buy(amountIn, minOut uint64) ([]solana.Instruction, error) {
	return b.build(true, amountIn, minOut)
}

// Sell swaps amountIn tokens from the owner's token account into SOL.
func (b NativeSwapBundle) Sell(amountIn, minOut uint64) ([]solana.Instruction, error) {
	return b.build(false, amountIn, minOut)
}

func (b NativeSwapBundle) build(buy bool, amountIn, minOut uint64) ([]solana.Instruction, error) {
	if b.Accounts == nil || len(b.Seed) == 0 || len(b.Seed) > 32 {
		return nil, fmt.Errorf("%w: bundle needs swap accounts and a seed of 1..32 chars", ErrInvalidRequest)
	}

	wsol, err := solana.CreateWithSeed(b.Owner, b.Seed, solana.TokenProgramID)
	if err != nil {
		return nil, fmt.Errorf("derive wrapped SOL account: %w", err)
	}
	ata, err := chain.AssociatedTokenAddress(b.Owner, b.Mint)
	if err != nil {
		return nil, err
	}

	lamports := b.RentLamports
	source, dest := ata, wsol
	if buy {
		lamports += amountIn
		source, dest = wsol, ata
	}

	return []solana.Instruction{
		system.NewCreateAccountWithSeedInstruction(
			b.Owner, b.Seed, lamports, TokenAccountSize, solana.TokenProgramID,
			b.Owner, wsol, b.Owner,
		).Build(),
		token.NewInitializeAccountInstruction(wsol, accounts.WrappedSOLMint, b.Owner, solana.SysVarRentPubkey).Build(),
		NewCreateATAIdempotentInstruction(b.Owner, ata, b.Owner, b.Mint),
		NewSwapInstruction(b.Accounts, source, dest, b.Owner, amountIn, minOut),
		token.NewCloseAccountInstruction(wsol, b.Owner, b.Owner, nil).Build(),
	}, nil
}
