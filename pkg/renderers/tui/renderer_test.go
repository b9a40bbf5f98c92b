package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-accounts/pkg/forms"
	"github.com/goliatone/go-accounts/pkg/render"
)

// fakeDriver replays scripted answers and records prompt messages.
type fakeDriver struct {
	inputs    []string
	confirms  []bool
	selects   []int
	multis    [][]int
	textareas []string

	messages []string
	err      error
}

func (d *fakeDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	d.messages = append(d.messages, cfg.Message)
	if d.err != nil {
		return "", d.err
	}
	if len(d.inputs) == 0 {
		return "", fmt.Errorf("fake driver: no input scripted for %q", cfg.Message)
	}
	value := d.inputs[0]
	d.inputs = d.inputs[1:]
	if cfg.Validator != nil {
		if err := cfg.Validator(value); err != nil {
			return "", err
		}
	}
	return value, nil
}

func (d *fakeDriver) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	d.messages = append(d.messages, cfg.Message)
	if d.err != nil {
		return false, d.err
	}
	if len(d.confirms) == 0 {
		return cfg.Default, nil
	}
	value := d.confirms[0]
	d.confirms = d.confirms[1:]
	return value, nil
}

func (d *fakeDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	d.messages = append(d.messages, cfg.Message)
	if d.err != nil {
		return 0, d.err
	}
	if len(d.selects) == 0 {
		return cfg.DefaultIndex, nil
	}
	idx := d.selects[0]
	d.selects = d.selects[1:]
	return idx, nil
}

func (d *fakeDriver) MultiSelect(_ context.Context, cfg SelectConfig) ([]int, error) {
	d.messages = append(d.messages, cfg.Message)
	if d.err != nil {
		return nil, d.err
	}
	if len(d.multis) == 0 {
		return nil, nil
	}
	out := d.multis[0]
	d.multis = d.multis[1:]
	return out, nil
}

func (d *fakeDriver) TextArea(_ context.Context, cfg InputConfig) (string, error) {
	d.messages = append(d.messages, cfg.Message)
	if d.err != nil {
		return "", d.err
	}
	if len(d.textareas) == 0 {
		return "", fmt.Errorf("fake driver: no textarea scripted for %q", cfg.Message)
	}
	value := d.textareas[0]
	d.textareas = d.textareas[1:]
	return value, nil
}

func (d *fakeDriver) Info(_ context.Context, msg string) error {
	d.messages = append(d.messages, msg)
	return nil
}

func testForm() *forms.FormState {
	return forms.New(
		&forms.Field{Name: "name", Kind: forms.KindText, Label: "Name", Required: true},
		&forms.Field{Name: "description", Kind: forms.KindTextarea, Label: "Description"},
		&forms.Field{Name: "account_type", Kind: forms.KindSelect, Label: "Account type", Choices: []forms.Choice{
			{Value: "deposit", Label: "Deposit"},
			{Value: "expense", Label: "Expense"},
		}},
		&forms.Field{Name: "initial_amount", Kind: forms.KindAmount, Label: "Initial amount"},
		&forms.Field{Name: "start_date", Kind: forms.KindDate, Label: "Start date"},
		&forms.Field{Name: "secondary_users", Kind: forms.KindUsers, Label: "Secondary users", Choices: []forms.Choice{
			{Value: "u1", Label: "Alice"},
			{Value: "u2", Label: "Bob"},
		}},
		&forms.Field{Name: "can_be_used_for_non_products", Kind: forms.KindCheckbox, Label: "Allow non-products"},
		&forms.Field{Name: "status", Kind: forms.KindHidden, Value: "Open"},
	)
}

func TestAsk_WalksFieldsInOrder(t *testing.T) {
	driver := &fakeDriver{
		inputs:    []string{"Gift card", "25.00", "2026-09-01"},
		textareas: []string{"Promo balance"},
		selects:   []int{1},
		multis:    [][]int{{0, 1}},
		confirms:  []bool{true},
	}
	r := New(WithPromptDriver(driver))

	answers, err := r.Ask(context.Background(), testForm())
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}

	want := url.Values{
		"name":                         {"Gift card"},
		"description":                  {"Promo balance"},
		"account_type":                 {"expense"},
		"initial_amount":               {"25.00"},
		"start_date":                   {"2026-09-01"},
		"secondary_users":              {"u1", "u2"},
		"can_be_used_for_non_products": {"1"},
		"status":                       {"Open"},
	}
	if diff := cmp.Diff(want, answers); diff != "" {
		t.Errorf("answers mismatch (-want +got):\n%s", diff)
	}

	wantMessages := []string{
		"Name *",
		"Description",
		"Account type",
		"Initial amount",
		"Start date (2006-01-02)",
		"Secondary users",
		"Allow non-products",
	}
	if diff := cmp.Diff(wantMessages, driver.messages); diff != "" {
		t.Errorf("prompt order mismatch (-want +got):\n%s", diff)
	}
}

func TestAsk_ValidatorsReject(t *testing.T) {
	tests := []struct {
		name  string
		field *forms.Field
		input string
	}{
		{
			name:  "required text empty",
			field: &forms.Field{Name: "name", Kind: forms.KindText, Label: "Name", Required: true},
			input: "",
		},
		{
			name:  "malformed amount",
			field: &forms.Field{Name: "amount", Kind: forms.KindAmount, Label: "Amount"},
			input: "lots",
		},
		{
			name:  "malformed date",
			field: &forms.Field{Name: "start_date", Kind: forms.KindDate, Label: "Start date"},
			input: "01/09/2026",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			driver := &fakeDriver{inputs: []string{tc.input}}
			r := New(WithPromptDriver(driver))
			if _, err := r.Ask(context.Background(), forms.New(tc.field)); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}

func TestAsk_OptionalBlanksOmitted(t *testing.T) {
	driver := &fakeDriver{inputs: []string{"", ""}, confirms: []bool{false}}
	r := New(WithPromptDriver(driver))

	form := forms.New(
		&forms.Field{Name: "code", Kind: forms.KindText, Label: "Code"},
		&forms.Field{Name: "start_date", Kind: forms.KindDate, Label: "Start date"},
		&forms.Field{Name: "can_be_used_for_non_products", Kind: forms.KindCheckbox},
	)
	answers, err := r.Ask(context.Background(), form)
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if len(answers) != 0 {
		t.Errorf("expected no answers for blank optional fields, got %v", answers)
	}
}

func TestAsk_AbortPropagates(t *testing.T) {
	driver := &fakeDriver{err: ErrAborted}
	r := New(WithPromptDriver(driver))

	_, err := r.Ask(context.Background(), testForm())
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestAsk_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(WithPromptDriver(&fakeDriver{}))
	if _, err := r.Ask(ctx, testForm()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRender_FormEncoding(t *testing.T) {
	driver := &fakeDriver{inputs: []string{"Gift card"}}
	r := New(WithPromptDriver(driver))

	form := forms.New(&forms.Field{Name: "name", Kind: forms.KindText, Label: "Name"})
	out, err := r.Render(context.Background(), form, render.RenderOptions{
		Hidden: map[string]string{"csrf_token": "tok-1"},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	parsed, err := url.ParseQuery(string(out))
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}
	if got := parsed.Get("name"); got != "Gift card" {
		t.Errorf("name = %q, want %q", got, "Gift card")
	}
	if got := parsed.Get("csrf_token"); got != "tok-1" {
		t.Errorf("csrf_token = %q, want %q", got, "tok-1")
	}
	if got := r.ContentType(); got != "application/x-www-form-urlencoded" {
		t.Errorf("ContentType = %q", got)
	}
}

func TestRender_JSONEncoding(t *testing.T) {
	driver := &fakeDriver{
		inputs: []string{"Gift card"},
		multis: [][]int{{0, 1}},
	}
	r := New(WithPromptDriver(driver), WithOutputFormat(OutputJSON))

	form := forms.New(
		&forms.Field{Name: "name", Kind: forms.KindText, Label: "Name"},
		&forms.Field{Name: "secondary_users", Kind: forms.KindUsers, Label: "Users", Choices: []forms.Choice{
			{Value: "u1", Label: "Alice"},
			{Value: "u2", Label: "Bob"},
		}},
	)
	out, err := r.Render(context.Background(), form, render.RenderOptions{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got := decoded["name"]; got != "Gift card" {
		t.Errorf("name = %v, want %q", got, "Gift card")
	}
	users, ok := decoded["secondary_users"].([]any)
	if !ok || len(users) != 2 {
		t.Errorf("secondary_users = %v, want two entries", decoded["secondary_users"])
	}
	if got := r.ContentType(); got != "application/json" {
		t.Errorf("ContentType = %q", got)
	}
}

func TestAsk_SelectDefaultsToCurrentValue(t *testing.T) {
	driver := &fakeDriver{} // no scripted selects: fake returns DefaultIndex
	r := New(WithPromptDriver(driver))

	form := forms.New(&forms.Field{
		Name:  "account_type",
		Kind:  forms.KindSelect,
		Label: "Account type",
		Value: "expense",
		Choices: []forms.Choice{
			{Value: "deposit", Label: "Deposit"},
			{Value: "expense", Label: "Expense"},
		},
	})
	answers, err := r.Ask(context.Background(), form)
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if got := answers.Get("account_type"); got != "expense" {
		t.Errorf("account_type = %q, want %q", got, "expense")
	}
}
