package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/goliatone/go-accounts/pkg/account"
)

func openAccount(t *testing.T, m *Memory, name, code string, balance account.Amount) *account.Account {
	t.Helper()
	acc := &account.Account{
		Name:    name,
		Code:    code,
		Status:  account.StatusOpen,
		Balance: balance,
	}
	if err := m.Create(context.Background(), acc); err != nil {
		t.Fatalf("Create(%q): %v", name, err)
	}
	return acc
}

func TestMemory_CreateAndGet(t *testing.T) {
	m := NewMemory()
	acc := openAccount(t, m, "Gift card", "GIFT-100", 0)

	if acc.ID == uuid.Nil {
		t.Fatal("Create did not assign an ID")
	}
	if acc.DateCreated.IsZero() {
		t.Fatal("Create did not assign a creation date")
	}

	got, err := m.Get(context.Background(), acc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Gift card" || got.Code != "GIFT-100" {
		t.Errorf("Get = %+v", got)
	}

	// Mutating the returned copy must not leak into the store.
	got.Name = "changed"
	again, _ := m.Get(context.Background(), acc.ID)
	if again.Name != "Gift card" {
		t.Errorf("stored account mutated through returned copy")
	}
}

func TestMemory_GetMissing(t *testing.T) {
	m := NewMemory()
	if _, err := m.Get(context.Background(), uuid.New()); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemory_GetByCode(t *testing.T) {
	m := NewMemory()
	acc := openAccount(t, m, "Gift card", "GIFT-100", 0)

	got, err := m.GetByCode(context.Background(), "gift-100")
	if err != nil {
		t.Fatalf("GetByCode: %v", err)
	}
	if got.ID != acc.ID {
		t.Errorf("GetByCode returned %s, want %s", got.ID, acc.ID)
	}

	if _, err := m.GetByCode(context.Background(), "NOPE"); !errors.Is(err, account.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown code, got %v", err)
	}
}

func TestMemory_UpdatePreservesBalance(t *testing.T) {
	m := NewMemory()
	acc := openAccount(t, m, "Gift card", "GIFT-100", 5000)

	edited := *acc
	edited.Name = "Renamed"
	edited.Balance = 0 // callers never write balances directly
	if err := m.Update(context.Background(), &edited); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, _ := m.Get(context.Background(), acc.ID)
	if got.Name != "Renamed" {
		t.Errorf("Name = %q, want %q", got.Name, "Renamed")
	}
	if got.Balance != 5000 {
		t.Errorf("Balance = %d, want 5000", got.Balance)
	}
}

func TestMemory_ListFilters(t *testing.T) {
	m := NewMemory()
	openAccount(t, m, "Gift card", "GIFT-1", 0)
	openAccount(t, m, "Budget", "BUD-1", 0)
	frozen := openAccount(t, m, "Frozen gift", "GIFT-2", 0)
	if err := m.SetStatus(context.Background(), frozen.ID, account.StatusFrozen); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	tests := []struct {
		name   string
		filter AccountFilter
		want   []string
	}{
		{"all sorted by name", AccountFilter{}, []string{"Budget", "Frozen gift", "Gift card"}},
		{"query matches name", AccountFilter{Query: "gift"}, []string{"Frozen gift", "Gift card"}},
		{"query matches code", AccountFilter{Query: "bud-"}, []string{"Budget"}},
		{"status", AccountFilter{Status: account.StatusFrozen}, []string{"Frozen gift"}},
		{"query and status", AccountFilter{Query: "gift", Status: account.StatusOpen}, []string{"Gift card"}},
		{"no match", AccountFilter{Query: "zzz"}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			accounts, err := m.List(context.Background(), tc.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			var names []string
			for _, acc := range accounts {
				names = append(names, acc.Name)
			}
			if diff := cmp.Diff(tc.want, names); diff != "" {
				t.Errorf("List mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMemory_ExecuteTransfer(t *testing.T) {
	m := NewMemory()
	source := openAccount(t, m, "Bank", "", 10000)
	dest := openAccount(t, m, "Gift card", "GIFT-1", 0)

	transfer := account.NewTransfer(source.ID, dest.ID, 2500, "top-up", nil)
	if err := m.Execute(context.Background(), transfer); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if transfer.Sequence != 1 {
		t.Errorf("Sequence = %d, want 1", transfer.Sequence)
	}
	if got := transfer.Reference(); got != "00000001" {
		t.Errorf("Reference = %q, want %q", got, "00000001")
	}

	gotSource, _ := m.Get(context.Background(), source.ID)
	gotDest, _ := m.Get(context.Background(), dest.ID)
	if gotSource.Balance != 7500 {
		t.Errorf("source balance = %d, want 7500", gotSource.Balance)
	}
	if gotDest.Balance != 2500 {
		t.Errorf("destination balance = %d, want 2500", gotDest.Balance)
	}

	stored, err := m.GetTransfer(context.Background(), transfer.ID)
	if err != nil {
		t.Fatalf("GetTransfer: %v", err)
	}
	if stored.Amount != 2500 || stored.Description != "top-up" {
		t.Errorf("stored transfer = %+v", stored)
	}

	second := account.NewTransfer(source.ID, dest.ID, 100, "again", nil)
	if err := m.Execute(context.Background(), second); err != nil {
		t.Fatalf("Execute second: %v", err)
	}
	if second.Sequence != 2 {
		t.Errorf("second Sequence = %d, want 2", second.Sequence)
	}
}

func TestMemory_ExecuteRejections(t *testing.T) {
	m := NewMemory()
	limit := account.Amount(0)
	source := &account.Account{Name: "Gift card", Status: account.StatusOpen, Balance: 100, CreditLimit: &limit}
	if err := m.Create(context.Background(), source); err != nil {
		t.Fatalf("Create: %v", err)
	}
	dest := openAccount(t, m, "Sales", "", 0)
	frozen := openAccount(t, m, "Frozen", "", 0)
	if err := m.SetStatus(context.Background(), frozen.ID, account.StatusFrozen); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	tests := []struct {
		name     string
		transfer *account.Transfer
		wantErr  error
	}{
		{
			name:     "insufficient funds",
			transfer: account.NewTransfer(source.ID, dest.ID, 500, "", nil),
			wantErr:  account.ErrInsufficientFunds,
		},
		{
			name:     "zero amount",
			transfer: account.NewTransfer(source.ID, dest.ID, 0, "", nil),
			wantErr:  account.ErrInvalidAmount,
		},
		{
			name:     "frozen destination",
			transfer: account.NewTransfer(source.ID, frozen.ID, 50, "", nil),
			wantErr:  account.ErrClosedAccount,
		},
		{
			name:     "unknown source",
			transfer: account.NewTransfer(uuid.New(), dest.ID, 50, "", nil),
			wantErr:  account.ErrNotFound,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := m.Execute(context.Background(), tc.transfer)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Execute error = %v, want %v", err, tc.wantErr)
			}
		})
	}

	// Failed transfers leave balances untouched.
	gotSource, _ := m.Get(context.Background(), source.ID)
	if gotSource.Balance != 100 {
		t.Errorf("source balance = %d, want 100", gotSource.Balance)
	}
}

func TestMemory_ListTransfers(t *testing.T) {
	m := NewMemory()
	bank := openAccount(t, m, "Bank", "", 100000)
	a := openAccount(t, m, "A", "", 0)
	b := openAccount(t, m, "B", "", 0)

	for _, dest := range []uuid.UUID{a.ID, b.ID, a.ID} {
		transfer := account.NewTransfer(bank.ID, dest, 100, "", nil)
		if err := m.Execute(context.Background(), transfer); err != nil {
			t.Fatalf("Execute: %v", err)
		}
	}

	all, err := m.ListTransfers(context.Background(), TransferFilter{})
	if err != nil {
		t.Fatalf("ListTransfers: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	// Newest first.
	if all[0].Sequence != 3 || all[2].Sequence != 1 {
		t.Errorf("order = [%d %d %d], want [3 2 1]", all[0].Sequence, all[1].Sequence, all[2].Sequence)
	}

	forA, err := m.ListTransfers(context.Background(), TransferFilter{AccountID: &a.ID})
	if err != nil {
		t.Fatalf("ListTransfers(A): %v", err)
	}
	if len(forA) != 2 {
		t.Errorf("transfers for A = %d, want 2", len(forA))
	}

	limited, _ := m.ListTransfers(context.Background(), TransferFilter{Limit: 1})
	if len(limited) != 1 || limited[0].Sequence != 3 {
		t.Errorf("limited list = %+v", limited)
	}
}

func TestMemory_Users(t *testing.T) {
	m := NewMemory()
	alice := account.User{ID: uuid.New(), Name: "Alice Ang", Email: "alice@example.com"}
	bob := account.User{ID: uuid.New(), Name: "Bob Berg", Email: "bob@example.com"}
	m.AddUser(alice)
	m.AddUser(bob)

	got, err := m.GetUser(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Name != "Alice Ang" {
		t.Errorf("GetUser = %+v", got)
	}

	tests := []struct {
		name  string
		query string
		limit int
		want  []string
	}{
		{"by name", "alice", 0, []string{"Alice Ang"}},
		{"by email", "bob@", 0, []string{"Bob Berg"}},
		{"all ordered", "", 0, []string{"Alice Ang", "Bob Berg"}},
		{"limited", "", 1, []string{"Alice Ang"}},
		{"no match", "carol", 0, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			users, err := m.SearchUsers(context.Background(), tc.query, tc.limit)
			if err != nil {
				t.Fatalf("SearchUsers: %v", err)
			}
			var names []string
			for _, u := range users {
				names = append(names, u.Name)
			}
			if diff := cmp.Diff(tc.want, names); diff != "" {
				t.Errorf("SearchUsers mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMemory_ContextCancellation(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := m.Create(ctx, &account.Account{Name: "x"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Create: expected context.Canceled, got %v", err)
	}
	if _, err := m.List(ctx, AccountFilter{}); !errors.Is(err, context.Canceled) {
		t.Errorf("List: expected context.Canceled, got %v", err)
	}
}

func TestMemory_ExecutePinsDate(t *testing.T) {
	m := NewMemory()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	source := openAccount(t, m, "Bank", "", 1000)
	dest := openAccount(t, m, "Gift", "", 0)

	transfer := &account.Transfer{
		ID:            uuid.New(),
		SourceID:      source.ID,
		DestinationID: dest.ID,
		Amount:        100,
	}
	if err := m.Execute(context.Background(), transfer); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !transfer.DateCreated.Equal(fixed) {
		t.Errorf("DateCreated = %v, want %v", transfer.DateCreated, fixed)
	}
}
