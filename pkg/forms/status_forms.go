package forms

import (
	"fmt"

	"github.com/goliatone/go-accounts/pkg/account"
	"github.com/goliatone/go-accounts/pkg/settings"
)

// SearchForm builds the account-list filter form.
func SearchForm() *FormState {
	return New(
		&Field{Name: FieldName, Kind: KindText, Label: "Name"},
		&Field{Name: FieldCode, Kind: KindText, Label: "Code"},
		&Field{Name: FieldStatus, Kind: KindSelect, Label: "Status", Choices: []Choice{
			{Value: "", Label: "------"},
			{Value: string(account.StatusOpen), Label: "Open"},
			{Value: string(account.StatusFrozen), Label: "Frozen"},
			{Value: string(account.StatusClosed), Label: "Closed"},
		}},
	)
}

// CleanSearchForm validates a bound search form. All filters are optional;
// only a submitted status must be a known value.
func CleanSearchForm(form *FormState) {
	form.SetClean(FieldName, form.Field(FieldName).Value)
	form.SetClean(FieldCode, form.Field(FieldCode).Value)
	cleanChoice(form, FieldStatus, "Select a valid status")
}

// statusChangeForm carries the target status as a hidden field so the
// confirmation page posts it back.
func statusChangeForm(target account.Status) *FormState {
	return New(&Field{
		Name:  FieldStatus,
		Kind:  KindHidden,
		Value: string(target),
	})
}

// FreezeAccountForm prepares the freeze confirmation form.
func FreezeAccountForm() *FormState { return statusChangeForm(account.StatusFrozen) }

// ThawAccountForm prepares the re-open confirmation form.
func ThawAccountForm() *FormState { return statusChangeForm(account.StatusOpen) }

// CleanStatusForm validates a bound freeze/thaw form against the transitions
// the account allows.
func CleanStatusForm(form *FormState, acc *account.Account) {
	field := form.Field(FieldStatus)
	target := account.Status(field.Value)
	switch target {
	case account.StatusFrozen:
		if !acc.IsOpen() {
			form.AddNonFieldError("Only open accounts can be frozen")
			return
		}
	case account.StatusOpen:
		if !acc.IsFrozen() {
			form.AddNonFieldError("Only frozen accounts can be re-opened")
			return
		}
	default:
		form.AddNonFieldError("Unknown status")
		return
	}
	form.SetClean(FieldStatus, string(target))
}

// TopUpForm builds the top-up form for loading further funds onto an account.
func TopUpForm(s settings.Settings) *FormState {
	return New(&Field{
		Name:     FieldAmount,
		Kind:     KindAmount,
		Label:    "Amount",
		Required: true,
		HelpText: initialAmountHelp(s),
	})
}

// CleanTopUpForm validates a bound top-up form. Frozen and closed accounts
// reject top-ups at the form level, mirroring the account state checks used
// at transfer time.
func CleanTopUpForm(form *FormState, acc *account.Account, s settings.Settings) {
	if acc.IsClosed() {
		form.AddNonFieldError("Account is closed")
		return
	}
	if acc.IsFrozen() {
		form.AddNonFieldError("Account is frozen")
		return
	}

	field := form.Field(FieldAmount)
	if field.Value == "" {
		field.AddError("This field is required")
		return
	}
	amount, err := account.ParseAmount(field.Value)
	if err != nil {
		field.AddError("Enter a valid amount")
		return
	}
	if amount < s.MinInitialAmount {
		field.AddError(fmt.Sprintf("The minimum amount is %s", s.FormatAmount(s.MinInitialAmount)))
		return
	}
	if s.MaxInitialAmount != nil && amount > *s.MaxInitialAmount {
		field.AddError(fmt.Sprintf("The maximum amount is %s", s.FormatAmount(*s.MaxInitialAmount)))
		return
	}
	form.SetClean(FieldAmount, amount)
}
