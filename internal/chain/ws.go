package chain

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// Confirmer waits for transaction confirmations over a subscription.
type Confirmer interface {
	// WaitForSignature blocks until the signature reaches commitment or ctx ends.
	WaitForSignature(ctx context.Context, sig solana.Signature, commitment Commitment) (*SignatureResult, error)

	// Close closes the underlying connection.
	Close() error
}

// SignatureResult is the payload of a signatureNotification.
type SignatureResult struct {
	Slot uint64
	Err  interface{} // non-nil if the transaction failed on chain
}

// Failed reports whether the transaction failed on chain.
func (r *SignatureResult) Failed() bool {
	return r != nil && r.Err != nil
}
