package repository

import "errors"

var (
	// ErrTicketNotFound covers absent and expired tickets alike.
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrNoMatch is returned by AtomicConsume when any precondition failed
	// at charge time (missing key, blocked ticket, exhausted quota).
	ErrNoMatch = errors.New("no consumable ticket matched")
	// ErrDuplicateKey signals a violated key uniqueness constraint.
	ErrDuplicateKey = errors.New("ticket key already exists")
)
