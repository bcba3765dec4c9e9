package ports

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnreachable       = errors.New("unreachable")
	ErrStoreUnavailable  = errors.New("record store unavailable")
)
