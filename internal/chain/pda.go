package chain

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/gagliardetto/solana-go"
)

const (
	maxSeeds      = 16
	maxSeedLength = 32
	pdaMarker     = "ProgramDerivedAddress"
)

// ErrInvalidSeeds is returned when no off-curve address exists for the seeds.
var ErrInvalidSeeds = errors.New("invalid seeds: address must fall off the curve")

// CreateProgramAddress hashes seeds with the program id into a program-derived
// address. The result must not be a valid ed25519 point.
func CreateProgramAddress(seeds [][]byte, programID solana.PublicKey) (solana.PublicKey, error) {
	if len(seeds) > maxSeeds {
		return solana.PublicKey{}, fmt.Errorf("%d seeds exceeds limit %d", len(seeds), maxSeeds)
	}

	data := make([]byte, 0, 64)
	for _, seed := range seeds {
		if len(seed) > maxSeedLength {
			return solana.PublicKey{}, fmt.Errorf("seed of %d bytes exceeds limit %d", len(seed), maxSeedLength)
		}
		data = append(data, seed...)
	}
	data = append(data, programID[:]...)
	data = append(data, pdaMarker...)

	hash := sha256.Sum256(data)
	if IsOnCurve(hash[:]) {
		return solana.PublicKey{}, ErrInvalidSeeds
	}
	return solana.PublicKeyFromBytes(hash[:]), nil
}

// FindProgramAddress searches bump seeds from 255 down for the first off-curve address.
func FindProgramAddress(seeds [][]byte, programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		withBump := append(append([][]byte{}, seeds...), []byte{byte(bump)})
		addr, err := CreateProgramAddress(withBump, programID)
		if err == nil {
			return addr, uint8(bump), nil
		}
		if !errors.Is(err, ErrInvalidSeeds) {
			return solana.PublicKey{}, 0, err
		}
	}
	return solana.PublicKey{}, 0, ErrInvalidSeeds
}

// AssociatedTokenAddress derives the associated token account of owner for mint.
func AssociatedTokenAddress(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := FindProgramAddress(
		[][]byte{owner[:], solana.TokenProgramID[:], mint[:]},
		solana.SPLAssociatedTokenAccountProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive associated token account: %w", err)
	}
	return addr, nil
}

// IsOnCurve reports whether point decodes as an ed25519 curve point.
func IsOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
