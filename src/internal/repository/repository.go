package repository

import "errors"

// Sentinel errors surfaced by conditional writes. Usecases translate these
// into the client-facing taxonomy.
var (
	ErrNotFound     = errors.New("record not found")
	ErrOfferDecided = errors.New("offer already decided or expired")
	ErrDriverBusy   = errors.New("driver assignment slot occupied")
	ErrOrderNotReady = errors.New("order not in a dispatchable state")
)
