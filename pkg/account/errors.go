package account

import "errors"

var (
	// ErrNotFound is returned by stores when no account matches.
	ErrNotFound = errors.New("account: not found")

	// ErrInvalidAmount rejects zero or negative transfer amounts.
	ErrInvalidAmount = errors.New("account: debits must use a positive amount")

	// ErrInactiveAccount rejects transfers touching accounts outside their
	// start/end date window.
	ErrInactiveAccount = errors.New("account: account is inactive")

	// ErrClosedAccount rejects transfers touching closed accounts.
	ErrClosedAccount = errors.New("account: account has been closed")

	// ErrFrozenAccount rejects operations on frozen accounts.
	ErrFrozenAccount = errors.New("account: account is frozen")

	// ErrInsufficientFunds rejects debits beyond balance plus credit limit.
	ErrInsufficientFunds = errors.New("account: insufficient funds")

	// ErrTransferNotFound is returned by stores when no transfer matches.
	ErrTransferNotFound = errors.New("account: transfer not found")
)
