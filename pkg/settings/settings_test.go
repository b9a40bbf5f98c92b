package settings

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-accounts/pkg/account"
)

func TestParse_Defaults(t *testing.T) {
	got, err := Parse([]byte(""))
	if err != nil {
		t.Fatalf("parse empty: %v", err)
	}
	if diff := cmp.Diff(Default(), got); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
	if got.HasCategories() || got.HasSourceAccounts() {
		t.Fatalf("defaults should disable optional form fields")
	}
}

func TestParse_Full(t *testing.T) {
	data := []byte(`
unit_name: Gift card
unit_name_plural: Gift cards
currency_symbol: "£"
categories:
  - Compensation
  - Goodwill
source_accounts:
  - deferred-income
min_initial_amount: "5.00"
max_initial_amount: "500.00"
`)

	got, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got.UnitName != "Gift card" || got.UnitNamePlural != "Gift cards" {
		t.Fatalf("unit names not applied: %+v", got)
	}
	if !got.HasCategories() {
		t.Fatalf("expected categories to enable account_type")
	}
	if !got.HasSourceAccounts() {
		t.Fatalf("expected source accounts to enable source selector")
	}
	if got.MinInitialAmount != 500 {
		t.Fatalf("min initial = %d, want 500", got.MinInitialAmount)
	}
	if got.MaxInitialAmount == nil || *got.MaxInitialAmount != 50000 {
		t.Fatalf("max initial = %v, want 50000", got.MaxInitialAmount)
	}
	if got.FormatAmount(account.Amount(1050)) != "£10.50" {
		t.Fatalf("FormatAmount = %q", got.FormatAmount(account.Amount(1050)))
	}
}

func TestParse_BadAmount(t *testing.T) {
	if _, err := Parse([]byte("min_initial_amount: \"1.2345\"")); err == nil {
		t.Fatalf("expected error for malformed amount")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	got, err := Load("testdata/does-not-exist.yaml")
	if err != nil {
		t.Fatalf("load missing file: %v", err)
	}
	if diff := cmp.Diff(Default(), got); diff != "" {
		t.Fatalf("missing file should yield defaults (-want +got):\n%s", diff)
	}
}
