package domain

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrNotAuction         = errors.New("product is not an auction listing")
	ErrAuctionClosed      = errors.New("auction has already ended")
	ErrInvalidAmount      = errors.New("bid amount must be greater than current price")
	ErrStaleOffer         = errors.New("current price changed before the bid was written")
	ErrChannelUnavailable = errors.New("bid event channel unavailable")
)

// PriceError attaches the authoritative current price to a bid rejection so
// the caller can prompt a corrected amount without another read.
// It wraps ErrInvalidAmount or ErrStaleOffer.
type PriceError struct {
	Err          error
	CurrentPrice float64
}

func (e *PriceError) Error() string {
	return fmt.Sprintf("%v (current price %.2f)", e.Err, e.CurrentPrice)
}

func (e *PriceError) Unwrap() error { return e.Err }

// CurrentPriceOf returns the authoritative price carried by a rejection, if any.
func CurrentPriceOf(err error) (float64, bool) {
	var pe *PriceError
	if errors.As(err, &pe) {
		return pe.CurrentPrice, true
	}
	return 0, false
}
