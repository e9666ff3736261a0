package trader

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNoActiveTrade is returned by MetaSell when no position exists.
	ErrNoActiveTrade = errors.New("no active trade for token and strategy")

	// ErrTradeFailed matches any *TradeFailed.
	ErrTradeFailed = errors.New("trade failed on every venue")

	// ErrNothingToSell is returned when the computed sell amount is zero.
	ErrNothingToSell = errors.New("nothing to sell")
)

// TradeFailed collects the error of each venue that was tried.
type TradeFailed struct {
	VenueErrors map[string]error
}

func (e *TradeFailed) Error() string {
	names := make([]string, 0, len(e.VenueErrors))
	for name := range e.VenueErrors {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %v", name, e.VenueErrors[name]))
	}
	return fmt.Sprintf("%s (%s)", ErrTradeFailed, strings.Join(parts, "; "))
}

func (e *TradeFailed) Is(target error) bool { return target == ErrTradeFailed }

// Unwrap exposes the venue errors to errors.Is and errors.As.
func (e *TradeFailed) Unwrap() []error {
	errs := make([]error, 0, len(e.VenueErrors))
	for _, err := range e.VenueErrors {
		errs = append(errs, err)
	}
	return errs
}
