package account

import (
	"time"

	"github.com/google/uuid"
)

// Status tracks the lifecycle of a managed account. Expired accounts are
// typically drained back into a parent account and closed.
type Status string

const (
	StatusOpen   Status = "Open"
	StatusFrozen Status = "Frozen"
	StatusClosed Status = "Closed"
)

// Account is a store-credit entity restricted by a date window, authorized
// users, and a purchasable product range.
type Account struct {
	ID       uuid.UUID
	Name     string
	Code     string
	Category string
	Status   Status

	// Description is optional rich text shown on the dashboard summary.
	Description string

	// CreditLimit bounds how far the account may go into debt. Zero means no
	// negative balance; nil means unlimited credit.
	CreditLimit *Amount

	// Start and End bound when the account can be used. Start is inclusive,
	// End exclusive. Either may be nil.
	Start *time.Time
	End   *time.Time

	PrimaryUserID    *uuid.UUID
	SecondaryUserIDs []uuid.UUID

	// ProductRange names the range of products the account may pay for.
	ProductRange string
	// CanBeUsedForNonProducts allows spending on shipping and other
	// non-product order lines.
	CanBeUsedForNonProducts bool

	// Balance is maintained by the store as the sum of all postings.
	Balance Amount

	DateCreated time.Time
}

// User is a directory entry referenced by the WHO restrictions.
type User struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// IsActive reports whether the account's date window covers the given time.
func (a *Account) IsActive(at time.Time) bool {
	if a.Start == nil && a.End == nil {
		return true
	}
	if a.Start != nil && at.Before(*a.Start) {
		return false
	}
	if a.End != nil && !at.Before(*a.End) {
		return false
	}
	return true
}

func (a *Account) IsOpen() bool   { return a.Status == StatusOpen }
func (a *Account) IsFrozen() bool { return a.Status == StatusFrozen }
func (a *Account) IsClosed() bool { return a.Status == StatusClosed }

// Label is the display string used in breadcrumbs and pickers.
func (a *Account) Label() string {
	name := a.Name
	if name == "" {
		name = "Anonymous account"
	}
	if a.CreditLimit != nil {
		return name + " (credit limit: " + a.CreditLimit.String() + ")"
	}
	return name + " (unlimited credit)"
}

// IsDebitPermitted reports whether the account can fund a debit of the given
// amount against its balance plus credit limit.
func (a *Account) IsDebitPermitted(amount Amount) bool {
	if a.CreditLimit == nil {
		return true
	}
	available := a.Balance + *a.CreditLimit
	return amount <= available
}

// CanBeUsedBy reports whether the user is authorized for this account. An
// account with no user restrictions is usable by anyone.
func (a *Account) CanBeUsedBy(userID uuid.UUID) bool {
	if a.PrimaryUserID == nil && len(a.SecondaryUserIDs) == 0 {
		return true
	}
	if a.PrimaryUserID != nil && *a.PrimaryUserID == userID {
		return true
	}
	for _, id := range a.SecondaryUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
