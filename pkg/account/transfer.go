package account

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Posting is one leg of a transfer. Every transfer writes exactly two: the
// debit from the source (negative) and the credit to the destination
// (positive). The sum of all postings is always zero.
type Posting struct {
	ID          uuid.UUID
	TransferID  uuid.UUID
	AccountID   uuid.UUID
	Amount      Amount
	DateCreated time.Time
}

// Transfer moves funds between two accounts. Transfers are append-only; they
// are never updated or deleted.
type Transfer struct {
	ID            uuid.UUID
	Sequence      int64
	SourceID      uuid.UUID
	DestinationID uuid.UUID
	Amount        Amount
	Description   string

	// UserID records who authorized the transfer. The username is kept as
	// audit data so the record survives user deletion.
	UserID   *uuid.UUID
	Username string

	DateCreated time.Time
}

// Reference is the zero-padded sequence shown in the dashboard.
func (t *Transfer) Reference() string {
	return fmt.Sprintf("%08d", t.Sequence)
}

// Postings builds the debit/credit pair for this transfer.
func (t *Transfer) Postings() []Posting {
	return []Posting{
		{ID: uuid.New(), TransferID: t.ID, AccountID: t.SourceID, Amount: -t.Amount, DateCreated: t.DateCreated},
		{ID: uuid.New(), TransferID: t.ID, AccountID: t.DestinationID, Amount: t.Amount, DateCreated: t.DateCreated},
	}
}

// VerifyTransfer checks whether moving amount from source to destination is
// permitted at the given time. It returns the first violated rule.
func VerifyTransfer(source, destination *Account, amount Amount, at time.Time) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !source.IsActive(at) {
		return fmt.Errorf("source %q: %w", source.Name, ErrInactiveAccount)
	}
	if !destination.IsActive(at) {
		return fmt.Errorf("destination %q: %w", destination.Name, ErrInactiveAccount)
	}
	if !source.IsOpen() {
		return fmt.Errorf("source %q: %w", source.Name, ErrClosedAccount)
	}
	if !destination.IsOpen() {
		return fmt.Errorf("destination %q: %w", destination.Name, ErrClosedAccount)
	}
	if !source.IsDebitPermitted(amount) {
		return fmt.Errorf("unable to debit %s from account %q: %w", amount, source.Name, ErrInsufficientFunds)
	}
	return nil
}

// NewReversal builds the compensating transfer for an executed transfer.
// Transfers are never deleted; undoing one means moving the same amount back
// from the destination to the source as a fresh transfer.
func NewReversal(original *Transfer, user *User) *Transfer {
	description := "Reversal of transfer " + original.Reference()
	return NewTransfer(original.DestinationID, original.SourceID, original.Amount, description, user)
}

// NewTransfer assembles an unsaved transfer record. The sequence is assigned
// by the store on save.
func NewTransfer(source, destination uuid.UUID, amount Amount, description string, user *User) *Transfer {
	t := &Transfer{
		ID:            uuid.New(),
		SourceID:      source,
		DestinationID: destination,
		Amount:        amount,
		Description:   description,
		DateCreated:   time.Now(),
	}
	if user != nil {
		id := user.ID
		t.UserID = &id
		t.Username = user.Name
	}
	return t
}
