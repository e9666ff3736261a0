package chain

import (
	"errors"
	"strconv"

	"github.com/gagliardetto/solana-go"
)

// Commitment is the RPC commitment level.
type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

// ErrAccountNotFound is returned when an RPC call targets a missing account.
var ErrAccountNotFound = errors.New("account not found")

// AccountInfo represents Solana account information with decoded data.
type AccountInfo struct {
	Lamports   uint64
	Owner      solana.PublicKey
	Data       []byte
	Executable bool
	RentEpoch  uint64
	Slot       uint64 // context slot of the response
}

// LatestBlockhash is the result of getLatestBlockhash.
type LatestBlockhash struct {
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
	Slot                 uint64
}

// TokenAmount is a raw SPL token balance.
type TokenAmount struct {
	Amount   uint64
	Decimals uint8
}

// SignatureStatus is one entry of getSignatureStatuses.
type SignatureStatus struct {
	Slot               uint64
	ConfirmationStatus Commitment
	Err                interface{}
}

// SendOpts configures sendTransaction.
type SendOpts struct {
	SkipPreflight       bool
	PreflightCommitment Commitment
	MaxRetries          *uint
}

type uiTokenAmount struct {
	Amount   string `json:"amount"`
	Decimals uint8  `json:"decimals"`
}

func (u uiTokenAmount) toTokenAmount() (*TokenAmount, error) {
	amount, err := strconv.ParseUint(u.Amount, 10, 64)
	if err != nil {
		return nil, err
	}
	return &TokenAmount{Amount: amount, Decimals: u.Decimals}, nil
}
