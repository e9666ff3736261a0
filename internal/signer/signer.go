// Package signer signs and submits transactions with a locally held key or a
// custody service.
package signer

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/system"
)

// JitoTipAccount receives priority tips.
var JitoTipAccount = solana.MustPublicKeyFromBase58("96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5")

// Priority controls compute budget and tipping. Zero values are omitted.
type Priority struct {
	ComputeUnitLimit uint32
	ComputeUnitPrice uint64 // micro-lamports per compute unit
	TipLamports      uint64
}

// Signer signs and submits transactions for one wallet.
type Signer interface {
	PublicKey() solana.PublicKey
	SignAndSend(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	PrioritySignAndSend(ctx context.Context, ixs []solana.Instruction, p Priority) (solana.Signature, error)
}

// WithPriority returns ixs wrapped with compute budget instructions in front
// and a tip transfer from payer at the end.
func WithPriority(payer solana.PublicKey, ixs []solana.Instruction, p Priority) ([]solana.Instruction, error) {
	out := make([]solana.Instruction, 0, len(ixs)+3)

	if p.ComputeUnitLimit > 0 {
		ix, err := computebudget.NewSetComputeUnitLimitInstruction(p.ComputeUnitLimit).ValidateAndBuild()
		if err != nil {
			return nil, fmt.Errorf("compute unit limit: %w", err)
		}
		out = append(out, ix)
	}
	if p.ComputeUnitPrice > 0 {
		ix, err := computebudget.NewSetComputeUnitPriceInstruction(p.ComputeUnitPrice).ValidateAndBuild()
		if err != nil {
			return nil, fmt.Errorf("compute unit price: %w", err)
		}
		out = append(out, ix)
	}

	out = append(out, ixs...)

	if p.TipLamports > 0 {
		ix, err := system.NewTransferInstruction(p.TipLamports, payer, JitoTipAccount).ValidateAndBuild()
		if err != nil {
			return nil, fmt.Errorf("tip transfer: %w", err)
		}
		out = append(out, ix)
	}
	return out, nil
}

// buildTransaction assembles an unsigned transaction paid by payer.
func buildTransaction(ctx context.Context, cache *BlockhashCache, payer solana.PublicKey, ixs []solana.Instruction, p Priority) (*solana.Transaction, error) {
	all, err := WithPriority(payer, ixs, p)
	if err != nil {
		return nil, &SignError{Err: err}
	}

	hash, err := cache.Get(ctx)
	if err != nil {
		return nil, &SubmitError{Err: err, Transient: true}
	}

	tx, err := solana.NewTransaction(all, hash, solana.TransactionPayer(payer))
	if err != nil {
		return nil, &SignError{Err: fmt.Errorf("build transaction: %w", err)}
	}
	return tx, nil
}

type ctxKey struct{}

// WithSigner attaches s to ctx.
func WithSigner(ctx context.Context, s Signer) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the signer attached by WithSigner.
func FromContext(ctx context.Context) (Signer, error) {
	s, ok := ctx.Value(ctxKey{}).(Signer)
	if !ok || s == nil {
		return nil, ErrNoSigner
	}
	return s, nil
}
