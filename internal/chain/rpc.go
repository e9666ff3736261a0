package chain

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// AccountReader fetches raw account state.
type AccountReader interface {
	// GetAccountInfoWithCommitment retrieves an account at the given commitment.
	// Returns nil, nil if the account does not exist.
	GetAccountInfoWithCommitment(ctx context.Context, pubkey solana.PublicKey, commitment Commitment) (*AccountInfo, error)
}

// BlockhashSource provides recent blockhashes.
type BlockhashSource interface {
	GetLatestBlockhash(ctx context.Context, commitment Commitment) (*LatestBlockhash, error)
}

// TransactionSender submits signed transactions.
type TransactionSender interface {
	// SendTransaction submits a fully signed transaction and returns its signature.
	SendTransaction(ctx context.Context, tx *solana.Transaction, opts SendOpts) (solana.Signature, error)
}

// RentReader reports rent-exempt minimums.
type RentReader interface {
	GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error)
}

// TokenBalanceReader reads SPL token account balances.
type TokenBalanceReader interface {
	// GetTokenAccountBalance returns the raw token amount held by an account.
	// Returns ErrAccountNotFound if the token account does not exist.
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (*TokenAmount, error)
}

// SignatureStatusReader polls transaction statuses.
type SignatureStatusReader interface {
	GetSignatureStatuses(ctx context.Context, sigs ...solana.Signature) ([]*SignatureStatus, error)
}

// RPCClient defines the Solana RPC HTTP surface used by the trader.
type RPCClient interface {
	AccountReader
	BlockhashSource
	TransactionSender
	RentReader
	TokenBalanceReader
	SignatureStatusReader
}
