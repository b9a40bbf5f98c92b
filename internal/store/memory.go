package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-accounts/pkg/account"
)

// Memory is an in-process Store. All reads return copies so callers can
// mutate results without racing the store.
type Memory struct {
	mu        sync.RWMutex
	accounts  map[uuid.UUID]*account.Account
	transfers map[uuid.UUID]*account.Transfer
	postings  map[uuid.UUID][]account.Posting
	users     map[uuid.UUID]account.User
	sequence  int64

	// now is swapped in tests to pin transfer verification times.
	now func() time.Time
}

var _ Store = (*Memory)(nil)

// NewMemory builds an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		accounts:  make(map[uuid.UUID]*account.Account),
		transfers: make(map[uuid.UUID]*account.Transfer),
		postings:  make(map[uuid.UUID][]account.Posting),
		users:     make(map[uuid.UUID]account.User),
		now:       time.Now,
	}
}

func cloneAccount(acc *account.Account) *account.Account {
	out := *acc
	if acc.CreditLimit != nil {
		limit := *acc.CreditLimit
		out.CreditLimit = &limit
	}
	if acc.Start != nil {
		start := *acc.Start
		out.Start = &start
	}
	if acc.End != nil {
		end := *acc.End
		out.End = &end
	}
	if acc.PrimaryUserID != nil {
		id := *acc.PrimaryUserID
		out.PrimaryUserID = &id
	}
	out.SecondaryUserIDs = append([]uuid.UUID(nil), acc.SecondaryUserIDs...)
	return &out
}

func cloneTransfer(t *account.Transfer) *account.Transfer {
	out := *t
	if t.UserID != nil {
		id := *t.UserID
		out.UserID = &id
	}
	return &out
}

// Create stores a new account. The ID and created date are assigned when
// missing.
func (m *Memory) Create(ctx context.Context, acc *account.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if acc.ID == uuid.Nil {
		acc.ID = uuid.New()
	}
	if acc.DateCreated.IsZero() {
		acc.DateCreated = m.now()
	}
	if acc.Status == "" {
		acc.Status = account.StatusOpen
	}
	m.accounts[acc.ID] = cloneAccount(acc)
	return nil
}

// Update replaces a stored account, preserving its balance.
func (m *Memory) Update(ctx context.Context, acc *account.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.accounts[acc.ID]
	if !ok {
		return account.ErrNotFound
	}
	updated := cloneAccount(acc)
	updated.Balance = existing.Balance
	updated.DateCreated = existing.DateCreated
	m.accounts[acc.ID] = updated
	return nil
}

// Get returns a copy of the account, or account.ErrNotFound.
func (m *Memory) Get(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	acc, ok := m.accounts[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	return cloneAccount(acc), nil
}

// GetByCode resolves an account by its redemption code, case-insensitive.
func (m *Memory) GetByCode(ctx context.Context, code string) (*account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, acc := range m.accounts {
		if strings.EqualFold(acc.Code, code) {
			return cloneAccount(acc), nil
		}
	}
	return nil, account.ErrNotFound
}

// List returns matching accounts ordered by name.
func (m *Memory) List(ctx context.Context, filter AccountFilter) ([]*account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*account.Account
	for _, acc := range m.accounts {
		if matchesFilter(acc, filter) {
			out = append(out, cloneAccount(acc))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// SetStatus transitions the account's lifecycle state.
func (m *Memory) SetStatus(ctx context.Context, id uuid.UUID, status account.Status) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[id]
	if !ok {
		return account.ErrNotFound
	}
	acc.Status = status
	return nil
}

// Execute verifies and applies a transfer. On success the transfer carries
// its assigned sequence and both account balances reflect the move.
func (m *Memory) Execute(ctx context.Context, transfer *account.Transfer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	source, ok := m.accounts[transfer.SourceID]
	if !ok {
		return account.ErrNotFound
	}
	destination, ok := m.accounts[transfer.DestinationID]
	if !ok {
		return account.ErrNotFound
	}
	at := transfer.DateCreated
	if at.IsZero() {
		at = m.now()
		transfer.DateCreated = at
	}
	if err := account.VerifyTransfer(source, destination, transfer.Amount, at); err != nil {
		return err
	}

	if transfer.ID == uuid.Nil {
		transfer.ID = uuid.New()
	}
	m.sequence++
	transfer.Sequence = m.sequence

	source.Balance -= transfer.Amount
	destination.Balance += transfer.Amount

	stored := cloneTransfer(transfer)
	m.transfers[stored.ID] = stored
	m.postings[stored.ID] = stored.Postings()
	return nil
}

// GetTransfer returns a stored transfer, or account.ErrTransferNotFound.
func (m *Memory) GetTransfer(ctx context.Context, id uuid.UUID) (*account.Transfer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.transfers[id]
	if !ok {
		return nil, account.ErrTransferNotFound
	}
	return cloneTransfer(t), nil
}

// ListTransfers returns transfers newest first.
func (m *Memory) ListTransfers(ctx context.Context, filter TransferFilter) ([]*account.Transfer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*account.Transfer
	for _, t := range m.transfers {
		if filter.AccountID != nil && t.SourceID != *filter.AccountID && t.DestinationID != *filter.AccountID {
			continue
		}
		out = append(out, cloneTransfer(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence > out[j].Sequence })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// AddUser seeds the user directory.
func (m *Memory) AddUser(user account.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

// GetUser resolves a directory entry by ID.
func (m *Memory) GetUser(ctx context.Context, id uuid.UUID) (*account.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	out := user
	return &out, nil
}

// SearchUsers matches users by name or email substring, ordered by name.
func (m *Memory) SearchUsers(ctx context.Context, query string, limit int) ([]account.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))
	var out []account.User
	for _, user := range m.users {
		if q != "" {
			name := strings.ToLower(user.Name)
			email := strings.ToLower(user.Email)
			if !strings.Contains(name, q) && !strings.Contains(email, q) {
				continue
			}
		}
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
