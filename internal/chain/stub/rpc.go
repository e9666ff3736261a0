package stub

import (
	"context"
	"sync"

	"github.com/gagliardetto/solana-go"

	"solana-copy-trader/internal/chain"
)

// RPCClient implements chain.RPCClient for testing.
type RPCClient struct {
	mu sync.Mutex

	Accounts      map[solana.PublicKey]*chain.AccountInfo
	TokenBalances map[solana.PublicKey]uint64
	Statuses      map[solana.Signature]*chain.SignatureStatus
	Blockhash     solana.Hash
	RentExempt    uint64

	// AccountErr, when set, is returned by GetAccountInfoWithCommitment.
	AccountErr error
	// SendErr, when set, is returned by SendTransaction.
	SendErr error
	// MissingFor reports every account as missing for this many calls.
	MissingFor int

	AccountCalls   int
	BlockhashCalls int
	Sent           []*solana.Transaction
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Accounts:      make(map[solana.PublicKey]*chain.AccountInfo),
		TokenBalances: make(map[solana.PublicKey]uint64),
		Statuses:      make(map[solana.Signature]*chain.SignatureStatus),
		RentExempt:    2039280,
	}
}

// Compile-time interface check.
var _ chain.RPCClient = (*RPCClient)(nil)

// SetAccount registers raw account data.
func (c *RPCClient) SetAccount(pubkey solana.PublicKey, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Accounts[pubkey] = &chain.AccountInfo{Data: data, Lamports: 1}
}

// SetTokenBalance registers a token account balance.
func (c *RPCClient) SetTokenBalance(account solana.PublicKey, amount uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.TokenBalances[account] = amount
}

// SentTransactions returns a copy of the submitted transactions.
func (c *RPCClient) SentTransactions() []*solana.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*solana.Transaction(nil), c.Sent...)
}

// GetAccountInfoWithCommitment returns the registered account or nil.
func (c *RPCClient) GetAccountInfoWithCommitment(_ context.Context, pubkey solana.PublicKey, _ chain.Commitment) (*chain.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.AccountCalls++
	if c.AccountErr != nil {
		return nil, c.AccountErr
	}
	if c.AccountCalls <= c.MissingFor {
		return nil, nil
	}
	info, ok := c.Accounts[pubkey]
	if !ok {
		return nil, nil
	}
	return info, nil
}

// GetLatestBlockhash returns the configured blockhash.
func (c *RPCClient) GetLatestBlockhash(_ context.Context, _ chain.Commitment) (*chain.LatestBlockhash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.BlockhashCalls++
	return &chain.LatestBlockhash{Blockhash: c.Blockhash}, nil
}

// SendTransaction records the transaction and returns its first signature.
func (c *RPCClient) SendTransaction(_ context.Context, tx *solana.Transaction, _ chain.SendOpts) (solana.Signature, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return solana.Signature{}, c.SendErr
	}
	c.Sent = append(c.Sent, tx)
	if len(tx.Signatures) == 0 {
		return solana.Signature{}, nil
	}
	return tx.Signatures[0], nil
}

// GetMinimumBalanceForRentExemption returns the configured rent minimum.
func (c *RPCClient) GetMinimumBalanceForRentExemption(_ context.Context, _ uint64) (uint64, error) {
	return c.RentExempt, nil
}

// GetTokenAccountBalance returns the registered balance.
func (c *RPCClient) GetTokenAccountBalance(_ context.Context, account solana.PublicKey) (*chain.TokenAmount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	amount, ok := c.TokenBalances[account]
	if !ok {
		return nil, chain.ErrAccountNotFound
	}
	return &chain.TokenAmount{Amount: amount}, nil
}

// GetSignatureStatuses returns registered statuses in request order.
func (c *RPCClient) GetSignatureStatuses(_ context.Context, sigs ...solana.Signature) ([]*chain.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*chain.SignatureStatus, len(sigs))
	for i, s := range sigs {
		out[i] = c.Statuses[s]
	}
	return out, nil
}
