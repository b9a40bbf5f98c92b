package forms

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-accounts/pkg/account"
	"github.com/goliatone/go-accounts/pkg/settings"
)

// Canonical field names shared by the form builders and the renderers.
const (
	FieldName           = "name"
	FieldDescription    = "description"
	FieldAccountType    = "account_type"
	FieldInitialAmount  = "initial_amount"
	FieldSourceAccount  = "source_account"
	FieldStartDate      = "start_date"
	FieldEndDate        = "end_date"
	FieldPrimaryUser    = "primary_user"
	FieldSecondaryUsers = "secondary_users"
	FieldProductRange   = "product_range"
	FieldNonProducts    = "can_be_used_for_non_products"
	FieldStatus         = "status"
	FieldCode           = "code"
	FieldAmount         = "amount"
)

// DateFormat is the wire format for date fields.
const DateFormat = "2006-01-02"

// AccountFormOptions supplies the choice data the account form builders need.
type AccountFormOptions struct {
	Settings settings.Settings

	// Users populates the WHO restriction selectors.
	Users []account.User

	// SourceAccounts populates the source selector on the create variant.
	SourceAccounts []*account.Account

	// ProductRanges populates the WHAT restriction selector.
	ProductRanges []Choice
}

func userChoices(users []account.User) []Choice {
	choices := make([]Choice, 0, len(users))
	for _, user := range users {
		label := user.Name
		if label == "" {
			label = user.Email
		}
		choices = append(choices, Choice{Value: user.ID.String(), Label: label})
	}
	return choices
}

func sourceChoices(accounts []*account.Account) []Choice {
	choices := make([]Choice, 0, len(accounts))
	for _, acc := range accounts {
		choices = append(choices, Choice{Value: acc.Code, Label: acc.Label()})
	}
	return choices
}

func categoryChoices(categories []string) []Choice {
	choices := make([]Choice, 0, len(categories))
	for _, category := range categories {
		choices = append(choices, Choice{Value: category, Label: category})
	}
	return choices
}

func baseAccountFields(opts AccountFormOptions) []*Field {
	fields := []*Field{
		{Name: FieldName, Kind: KindText, Label: "Name", Required: true},
		{Name: FieldDescription, Kind: KindTextarea, Label: "Description",
			HelpText: "Shown on the account summary"},
	}

	if opts.Settings.HasCategories() {
		fields = append(fields, &Field{
			Name:     FieldAccountType,
			Kind:     KindSelect,
			Label:    "Account type",
			Required: true,
			Choices:  categoryChoices(opts.Settings.Categories),
		})
	}

	return fields
}

func restrictionFields(opts AccountFormOptions) []*Field {
	users := userChoices(opts.Users)
	return []*Field{
		{Name: FieldStartDate, Kind: KindDate, Label: "Start date",
			HelpText: "The account cannot be used before this date"},
		{Name: FieldEndDate, Kind: KindDate, Label: "End date",
			HelpText: "The account cannot be used on or after this date"},
		{Name: FieldPrimaryUser, Kind: KindUser, Label: "Primary user", Choices: users},
		{Name: FieldSecondaryUsers, Kind: KindUsers, Label: "Secondary users", Choices: users},
		{Name: FieldProductRange, Kind: KindSelect, Label: "Product range",
			Choices: opts.ProductRanges},
		{Name: FieldNonProducts, Kind: KindCheckbox,
			Label: "Can be used to pay for non-products", HelpText: "e.g. shipping"},
	}
}

// NewAccountForm builds the create variant, which loads an initial
// transaction onto the new account.
func NewAccountForm(opts AccountFormOptions) *FormState {
	fields := baseAccountFields(opts)

	if opts.Settings.HasSourceAccounts() {
		fields = append(fields, &Field{
			Name:     FieldSourceAccount,
			Kind:     KindSelect,
			Label:    "Source account",
			Required: true,
			Choices:  sourceChoices(opts.SourceAccounts),
		})
	}
	fields = append(fields, &Field{
		Name:     FieldInitialAmount,
		Kind:     KindAmount,
		Label:    "Initial amount",
		Required: true,
		HelpText: initialAmountHelp(opts.Settings),
	})

	fields = append(fields, restrictionFields(opts)...)
	return New(fields...)
}

// UpdateAccountForm builds the edit variant: no initial transaction.
func UpdateAccountForm(opts AccountFormOptions) *FormState {
	fields := baseAccountFields(opts)
	fields = append(fields, restrictionFields(opts)...)
	return New(fields...)
}

func initialAmountHelp(s settings.Settings) string {
	if s.MaxInitialAmount != nil {
		return fmt.Sprintf("Between %s and %s",
			s.FormatAmount(s.MinInitialAmount), s.FormatAmount(*s.MaxInitialAmount))
	}
	if s.MinInitialAmount > 0 {
		return fmt.Sprintf("At least %s", s.FormatAmount(s.MinInitialAmount))
	}
	return ""
}

// FillFromAccount seeds an edit form with the account's current values.
func FillFromAccount(form *FormState, acc *account.Account) {
	setValue := func(name, value string) {
		if field := form.Field(name); field != nil {
			field.Value = value
		}
	}

	setValue(FieldName, acc.Name)
	setValue(FieldDescription, acc.Description)
	setValue(FieldAccountType, acc.Category)
	if acc.Start != nil {
		setValue(FieldStartDate, acc.Start.Format(DateFormat))
	}
	if acc.End != nil {
		setValue(FieldEndDate, acc.End.Format(DateFormat))
	}
	if acc.PrimaryUserID != nil {
		setValue(FieldPrimaryUser, acc.PrimaryUserID.String())
	}
	if field := form.Field(FieldSecondaryUsers); field != nil {
		field.Values = nil
		for _, id := range acc.SecondaryUserIDs {
			field.Values = append(field.Values, id.String())
		}
	}
	setValue(FieldProductRange, acc.ProductRange)
	if acc.CanBeUsedForNonProducts {
		setValue(FieldNonProducts, "on")
	}
}

// CleanAccountForm validates a bound create/update form, recording cleaned
// values and attaching errors to the offending fields.
func CleanAccountForm(form *FormState, opts AccountFormOptions) {
	cleanRequiredText(form, FieldName, "Name is required")
	if field := form.Field(FieldName); field != nil {
		form.SetClean(FieldName, field.Value)
	}

	if field := form.Field(FieldDescription); field != nil {
		form.SetClean(FieldDescription, field.Value)
	}

	cleanChoice(form, FieldAccountType, "Select a valid account type")
	cleanChoice(form, FieldSourceAccount, "Select a valid source account")
	cleanInitialAmount(form, opts.Settings)

	start := cleanDate(form, FieldStartDate)
	end := cleanDate(form, FieldEndDate)
	if start != nil && end != nil && !start.Before(*end) {
		form.AddNonFieldError("The start date must be before the end date")
	}

	cleanUser(form, FieldPrimaryUser)
	cleanUsers(form, FieldSecondaryUsers)

	if field := form.Field(FieldProductRange); field != nil {
		if field.Value != "" && len(field.Choices) > 0 && !field.HasChoice(field.Value) {
			field.AddError("Select a valid product range")
		} else {
			form.SetClean(FieldProductRange, field.Value)
		}
	}

	if field := form.Field(FieldNonProducts); field != nil {
		form.SetClean(FieldNonProducts, field.Value != "")
	}
}

// ApplyToAccount writes a valid form's cleaned values onto the account.
// Call only after CleanAccountForm on a form where IsValid() is true.
func ApplyToAccount(form *FormState, acc *account.Account) {
	acc.Name = form.CleanString(FieldName)
	acc.Description = form.CleanString(FieldDescription)
	if form.Has(FieldAccountType) {
		acc.Category = form.CleanString(FieldAccountType)
	}

	if start, ok := form.CleanDate(FieldStartDate); ok {
		acc.Start = &start
	} else {
		acc.Start = nil
	}
	if end, ok := form.CleanDate(FieldEndDate); ok {
		acc.End = &end
	} else {
		acc.End = nil
	}

	acc.PrimaryUserID = nil
	if raw := form.CleanString(FieldPrimaryUser); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			acc.PrimaryUserID = &id
		}
	}
	acc.SecondaryUserIDs = nil
	for _, raw := range form.CleanStrings(FieldSecondaryUsers) {
		if id, err := uuid.Parse(raw); err == nil {
			acc.SecondaryUserIDs = append(acc.SecondaryUserIDs, id)
		}
	}

	acc.ProductRange = form.CleanString(FieldProductRange)
	acc.CanBeUsedForNonProducts = form.CleanBool(FieldNonProducts)
}

func cleanRequiredText(form *FormState, name, msg string) {
	field := form.Field(name)
	if field == nil {
		return
	}
	if field.Value == "" {
		field.AddError(msg)
	}
}

func cleanChoice(form *FormState, name, msg string) {
	field := form.Field(name)
	if field == nil {
		return
	}
	if field.Value == "" {
		if field.Required {
			field.AddError("This field is required")
		}
		return
	}
	if !field.HasChoice(field.Value) {
		field.AddError(msg)
		return
	}
	form.SetClean(name, field.Value)
}

func cleanInitialAmount(form *FormState, s settings.Settings) {
	field := form.Field(FieldInitialAmount)
	if field == nil {
		return
	}
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
		field.AddError(fmt.Sprintf("The minimum initial amount is %s", s.FormatAmount(s.MinInitialAmount)))
		return
	}
	if s.MaxInitialAmount != nil && amount > *s.MaxInitialAmount {
		field.AddError(fmt.Sprintf("The maximum initial amount is %s", s.FormatAmount(*s.MaxInitialAmount)))
		return
	}
	form.SetClean(FieldInitialAmount, amount)
}

func cleanDate(form *FormState, name string) *time.Time {
	field := form.Field(name)
	if field == nil || field.Value == "" {
		return nil
	}
	parsed, err := time.Parse(DateFormat, field.Value)
	if err != nil {
		field.AddError("Enter a valid date (YYYY-MM-DD)")
		return nil
	}
	form.SetClean(name, parsed)
	return &parsed
}

func cleanUser(form *FormState, name string) {
	field := form.Field(name)
	if field == nil || field.Value == "" {
		return
	}
	if _, err := uuid.Parse(field.Value); err != nil {
		field.AddError("Select a valid user")
		return
	}
	if len(field.Choices) > 0 && !field.HasChoice(field.Value) {
		field.AddError("Select a valid user")
		return
	}
	form.SetClean(name, field.Value)
}

func cleanUsers(form *FormState, name string) {
	field := form.Field(name)
	if field == nil {
		return
	}
	valid := make([]string, 0, len(field.Values))
	for _, raw := range field.Values {
		if _, err := uuid.Parse(raw); err != nil {
			field.AddError("Select valid users")
			return
		}
		if len(field.Choices) > 0 && !field.HasChoice(raw) {
			field.AddError("Select valid users")
			return
		}
		valid = append(valid, raw)
	}
	form.SetClean(name, valid)
}
