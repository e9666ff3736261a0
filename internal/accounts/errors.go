package accounts

import "errors"

var (
	// ErrChainUnavailable is returned when an account could not be fetched
	// within the retry budget.
	ErrChainUnavailable = errors.New("chain unavailable")

	// ErrAddressDerivation is returned when a program address cannot be derived.
	ErrAddressDerivation = errors.New("address derivation failed")
)
