package account

import (
	"testing"
	"time"
)

func datePtr(t time.Time) *time.Time { return &t }

func amountPtr(a Amount) *Amount { return &a }

func TestAccount_IsActive(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, -1, 0)
	future := now.AddDate(0, 1, 0)

	tests := []struct {
		name  string
		start *time.Time
		end   *time.Time
		want  bool
	}{
		{name: "no window", want: true},
		{name: "started, no end", start: datePtr(past), want: true},
		{name: "not started yet", start: datePtr(future), want: false},
		{name: "no start, before end", end: datePtr(future), want: true},
		{name: "no start, after end", end: datePtr(past), want: false},
		{name: "inside window", start: datePtr(past), end: datePtr(future), want: true},
		{name: "end is exclusive", start: datePtr(past), end: datePtr(now), want: false},
		{name: "start is inclusive", start: datePtr(now), end: datePtr(future), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := &Account{Start: tt.start, End: tt.end}
			if got := acc.IsActive(now); got != tt.want {
				t.Fatalf("IsActive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAccount_Label(t *testing.T) {
	tests := []struct {
		name    string
		account Account
		want    string
	}{
		{
			name:    "named with credit limit",
			account: Account{Name: "Marketing budget", CreditLimit: amountPtr(0)},
			want:    "Marketing budget (credit limit: 0.00)",
		},
		{
			name:    "named with unlimited credit",
			account: Account{Name: "Promotions"},
			want:    "Promotions (unlimited credit)",
		},
		{
			name:    "anonymous",
			account: Account{CreditLimit: amountPtr(12050)},
			want:    "Anonymous account (credit limit: 120.50)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.account.Label(); got != tt.want {
				t.Fatalf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAccount_IsDebitPermitted(t *testing.T) {
	tests := []struct {
		name    string
		balance Amount
		limit   *Amount
		debit   Amount
		want    bool
	}{
		{name: "unlimited credit always permits", balance: 0, limit: nil, debit: 1_000_00, want: true},
		{name: "within balance", balance: 50_00, limit: amountPtr(0), debit: 50_00, want: true},
		{name: "beyond balance, zero limit", balance: 50_00, limit: amountPtr(0), debit: 50_01, want: false},
		{name: "beyond balance, within limit", balance: 50_00, limit: amountPtr(25_00), debit: 75_00, want: true},
		{name: "beyond balance and limit", balance: 50_00, limit: amountPtr(25_00), debit: 75_01, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := &Account{Balance: tt.balance, CreditLimit: tt.limit}
			if got := acc.IsDebitPermitted(tt.debit); got != tt.want {
				t.Fatalf("IsDebitPermitted(%s) = %v, want %v", tt.debit, got, tt.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw     string
		want    Amount
		wantErr bool
	}{
		{raw: "120.50", want: 12050},
		{raw: "0.05", want: 5},
		{raw: "7", want: 700},
		{raw: "7.5", want: 750},
		{raw: "-3.25", want: -325},
		{raw: " 10.00 ", want: 1000},
		{raw: "", wantErr: true},
		{raw: "1.234", wantErr: true},
		{raw: "abc", wantErr: true},
		{raw: "1.-5", wantErr: true},
		{raw: "1.+5", wantErr: true},
		{raw: "--5", wantErr: true},
		{raw: "+5", wantErr: true},
		{raw: "-", wantErr: true},
		{raw: "1,50", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAmount(%q) expected error, got %s", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q): %v", tt.raw, err)
			}
			if got != tt.want {
				t.Fatalf("ParseAmount(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestAmount_String(t *testing.T) {
	if got := Amount(12050).String(); got != "120.50" {
		t.Fatalf("String() = %q, want %q", got, "120.50")
	}
	if got := Amount(-325).String(); got != "-3.25" {
		t.Fatalf("String() = %q, want %q", got, "-3.25")
	}
	if got := Amount(5).String(); got != "0.05" {
		t.Fatalf("String() = %q, want %q", got, "0.05")
	}
}
