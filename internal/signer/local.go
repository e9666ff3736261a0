package signer

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"go.uber.org/zap"

	"solana-copy-trader/internal/chain"
)

// ParsePrivateKey decodes a base58 64-byte ed25519 keypair.
func ParsePrivateKey(encoded string) (solana.PrivateKey, error) {
	raw, err := base58.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	if len(raw) != 64 {
		return nil, fmt.Errorf("private key must be 64 bytes, got %d", len(raw))
	}
	return solana.PrivateKey(raw), nil
}

// LocalOptions configures a LocalSigner.
type LocalOptions struct {
	SkipPreflight bool
	Logger        *zap.Logger
}

// LocalSigner signs with an in-process key and submits over RPC.
type LocalSigner struct {
	key    solana.PrivateKey
	rpc    chain.TransactionSender
	cache  *BlockhashCache
	opts   LocalOptions
	logger *zap.Logger
}

var _ Signer = (*LocalSigner)(nil)

// NewLocalSigner creates a signer for key.
func NewLocalSigner(key solana.PrivateKey, rpc chain.TransactionSender, cache *BlockhashCache, opts LocalOptions) *LocalSigner {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &LocalSigner{
		key:    key,
		rpc:    rpc,
		cache:  cache,
		opts:   opts,
		logger: opts.Logger.Named("signer"),
	}
}

func (s *LocalSigner) PublicKey() solana.PublicKey { return s.key.PublicKey() }

// SignAndSend signs tx with the local key and submits it.
func (s *LocalSigner) SignAndSend(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	pub := s.key.PublicKey()
	if _, err := tx.Sign(func(k solana.PublicKey) *solana.PrivateKey {
		if k.Equals(pub) {
			return &s.key
		}
		return nil
	}); err != nil {
		return solana.Signature{}, &SignError{Err: err}
	}

	sig, err := s.rpc.SendTransaction(ctx, tx, chain.SendOpts{
		SkipPreflight:       s.opts.SkipPreflight,
		PreflightCommitment: chain.CommitmentProcessed,
	})
	if err != nil {
		if blockhashExpired(err) && s.cache != nil {
			s.cache.Invalidate()
		}
		return solana.Signature{}, classifySubmit(err)
	}

	s.logger.Debug("transaction submitted", zap.String("signature", sig.String()))
	return sig, nil
}

// PrioritySignAndSend builds a transaction from ixs with priority settings,
// then signs and submits it.
func (s *LocalSigner) PrioritySignAndSend(ctx context.Context, ixs []solana.Instruction, p Priority) (solana.Signature, error) {
	if s.cache == nil {
		return solana.Signature{}, &SignError{Err: errors.New("no blockhash cache")}
	}
	tx, err := buildTransaction(ctx, s.cache, s.key.PublicKey(), ixs, p)
	if err != nil {
		return solana.Signature{}, err
	}
	return s.SignAndSend(ctx, tx)
}
