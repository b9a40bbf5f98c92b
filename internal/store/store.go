// Package store persists accounts, transfers, and the user directory. Two
// implementations are provided: an in-memory store for tests and local
// development, and a Postgres store for production.
package store

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-accounts/pkg/account"
)

// AccountFilter narrows List results. Zero values match everything.
type AccountFilter struct {
	// Query matches against name and code, case-insensitive substring.
	Query    string
	Status   account.Status
	Category string
	Code     string
}

// TransferFilter narrows transfer listings.
type TransferFilter struct {
	// AccountID restricts to transfers where the account is either leg.
	AccountID *uuid.UUID
	Limit     int
}

// AccountStore handles persistence for managed accounts.
type AccountStore interface {
	Create(ctx context.Context, acc *account.Account) error
	Update(ctx context.Context, acc *account.Account) error
	Get(ctx context.Context, id uuid.UUID) (*account.Account, error)
	GetByCode(ctx context.Context, code string) (*account.Account, error)
	List(ctx context.Context, filter AccountFilter) ([]*account.Account, error)
	SetStatus(ctx context.Context, id uuid.UUID, status account.Status) error
}

// TransferStore executes and reads transfers. Execute verifies the transfer
// against both accounts, assigns the next sequence number, writes the
// debit/credit postings, and adjusts both balances atomically.
type TransferStore interface {
	Execute(ctx context.Context, transfer *account.Transfer) error
	GetTransfer(ctx context.Context, id uuid.UUID) (*account.Transfer, error)
	ListTransfers(ctx context.Context, filter TransferFilter) ([]*account.Transfer, error)
}

// UserDirectory resolves the users referenced by account restrictions.
type UserDirectory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*account.User, error)
	SearchUsers(ctx context.Context, query string, limit int) ([]account.User, error)
}

// Store bundles the three persistence concerns behind one handle.
type Store interface {
	AccountStore
	TransferStore
	UserDirectory
}

func matchesFilter(acc *account.Account, filter AccountFilter) bool {
	if filter.Status != "" && acc.Status != filter.Status {
		return false
	}
	if filter.Category != "" && acc.Category != filter.Category {
		return false
	}
	if filter.Code != "" && !strings.EqualFold(acc.Code, filter.Code) {
		return false
	}
	if filter.Query != "" {
		q := strings.ToLower(filter.Query)
		name := strings.ToLower(acc.Name)
		code := strings.ToLower(acc.Code)
		if !strings.Contains(name, q) && !strings.Contains(code, q) {
			return false
		}
	}
	return true
}
