// Package tui walks a form as a sequence of terminal prompts. Each field
// kind maps to a prompt style, answers are collected as url.Values so the
// form builders can Bind and validate them the same way an HTTP submission
// would, and Render serializes the answers for piping into other tools.
package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/goliatone/go-accounts/pkg/account"
	"github.com/goliatone/go-accounts/pkg/forms"
	"github.com/goliatone/go-accounts/pkg/render"
)

// Renderer drives an interactive prompt session over a form's fields.
type Renderer struct {
	driver PromptDriver
	output OutputFormat
}

// New builds a Renderer backed by a survey terminal driver unless a custom
// one is supplied.
func New(opts ...Option) *Renderer {
	cfg := &config{
		driver: newSurveyDriver(),
		output: OutputForm,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return &Renderer{driver: cfg.driver, output: cfg.output}
}

// Name implements render.Renderer.
func (r *Renderer) Name() string { return "tui" }

// ContentType reflects the configured output serialization.
func (r *Renderer) ContentType() string {
	if r.output == OutputJSON {
		return "application/json"
	}
	return "application/x-www-form-urlencoded"
}

// Render runs the prompt session and serializes the answers. It satisfies
// render.Renderer so the tui sits in the same registry as the dashboard
// renderer.
func (r *Renderer) Render(ctx context.Context, form *forms.FormState, opts render.RenderOptions) ([]byte, error) {
	answers, err := r.Ask(ctx, form)
	if err != nil {
		return nil, err
	}
	for name, value := range opts.Hidden {
		answers.Set(name, value)
	}
	if r.output == OutputJSON {
		return marshalAnswers(answers)
	}
	return []byte(answers.Encode()), nil
}

// Ask prompts for every field in render order and returns the raw answers.
// The caller is expected to Bind them back onto the form for validation.
func (r *Renderer) Ask(ctx context.Context, form *forms.FormState) (url.Values, error) {
	answers := url.Values{}
	for _, field := range form.Fields() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.askField(ctx, field, answers); err != nil {
			return nil, err
		}
	}
	return answers, nil
}

func (r *Renderer) askField(ctx context.Context, field *forms.Field, answers url.Values) error {
	switch field.Kind {
	case forms.KindHidden:
		if field.Value != "" {
			answers.Set(field.Name, field.Value)
		}
		return nil
	case forms.KindCheckbox:
		ok, err := r.driver.Confirm(ctx, ConfirmConfig{
			Message: promptMessage(field),
			Default: field.Value == "1" || field.Value == "true" || field.Value == "on",
			Help:    field.HelpText,
		})
		if err != nil {
			return err
		}
		if ok {
			answers.Set(field.Name, "1")
		}
		return nil
	case forms.KindSelect, forms.KindUser:
		return r.askSelect(ctx, field, answers)
	case forms.KindUsers:
		return r.askMultiSelect(ctx, field, answers)
	case forms.KindTextarea:
		value, err := r.driver.TextArea(ctx, InputConfig{
			Message: promptMessage(field),
			Default: field.Value,
			Help:    field.HelpText,
		})
		if err != nil {
			return err
		}
		setAnswer(answers, field, value)
		return nil
	case forms.KindAmount:
		value, err := r.driver.Input(ctx, InputConfig{
			Message:   promptMessage(field),
			Default:   field.Value,
			Help:      field.HelpText,
			Validator: amountValidator(field),
		})
		if err != nil {
			return err
		}
		setAnswer(answers, field, value)
		return nil
	case forms.KindDate:
		value, err := r.driver.Input(ctx, InputConfig{
			Message:   promptMessage(field) + " (" + forms.DateFormat + ")",
			Default:   field.Value,
			Help:      field.HelpText,
			Validator: dateValidator(field),
		})
		if err != nil {
			return err
		}
		setAnswer(answers, field, value)
		return nil
	default:
		value, err := r.driver.Input(ctx, InputConfig{
			Message:   promptMessage(field),
			Default:   field.Value,
			Help:      field.HelpText,
			Validator: requiredValidator(field),
		})
		if err != nil {
			return err
		}
		setAnswer(answers, field, value)
		return nil
	}
}

func (r *Renderer) askSelect(ctx context.Context, field *forms.Field, answers url.Values) error {
	if len(field.Choices) == 0 {
		value, err := r.driver.Input(ctx, InputConfig{
			Message:   promptMessage(field),
			Default:   field.Value,
			Help:      field.HelpText,
			Validator: requiredValidator(field),
		})
		if err != nil {
			return err
		}
		setAnswer(answers, field, value)
		return nil
	}
	choices := field.Choices
	labels := make([]string, len(choices))
	defaultIdx := 0
	for i, choice := range choices {
		labels[i] = choice.Label
		if choice.Value == field.Value {
			defaultIdx = i
		}
	}
	idx, err := r.driver.Select(ctx, SelectConfig{
		Message:      promptMessage(field),
		Options:      labels,
		DefaultIndex: defaultIdx,
		Help:         field.HelpText,
	})
	if err != nil {
		return err
	}
	if idx >= 0 && idx < len(choices) {
		setAnswer(answers, field, choices[idx].Value)
	}
	return nil
}

func (r *Renderer) askMultiSelect(ctx context.Context, field *forms.Field, answers url.Values) error {
	if len(field.Choices) == 0 {
		return nil
	}
	labels := make([]string, len(field.Choices))
	var defaults []int
	for i, choice := range field.Choices {
		labels[i] = choice.Label
		for _, selected := range field.Values {
			if choice.Value == selected {
				defaults = append(defaults, i)
			}
		}
	}
	indices, err := r.driver.MultiSelect(ctx, SelectConfig{
		Message:  promptMessage(field),
		Options:  labels,
		Defaults: defaults,
		Help:     field.HelpText,
	})
	if err != nil {
		return err
	}
	for _, idx := range indices {
		if idx >= 0 && idx < len(field.Choices) {
			answers.Add(field.Name, field.Choices[idx].Value)
		}
	}
	return nil
}

func promptMessage(field *forms.Field) string {
	msg := field.Label
	if msg == "" {
		msg = field.Name
	}
	if field.Required {
		msg += " *"
	}
	return msg
}

func setAnswer(answers url.Values, field *forms.Field, value string) {
	if value == "" {
		return
	}
	answers.Set(field.Name, value)
}

func requiredValidator(field *forms.Field) func(string) error {
	if !field.Required {
		return nil
	}
	label := field.Label
	if label == "" {
		label = field.Name
	}
	return func(value string) error {
		if value == "" {
			return fmt.Errorf("%s is required", label)
		}
		return nil
	}
}

func amountValidator(field *forms.Field) func(string) error {
	required := requiredValidator(field)
	return func(value string) error {
		if value == "" {
			if required != nil {
				return required(value)
			}
			return nil
		}
		if _, err := account.ParseAmount(value); err != nil {
			return fmt.Errorf("enter a valid amount, e.g. 25.00")
		}
		return nil
	}
}

func dateValidator(field *forms.Field) func(string) error {
	required := requiredValidator(field)
	return func(value string) error {
		if value == "" {
			if required != nil {
				return required(value)
			}
			return nil
		}
		if _, err := time.Parse(forms.DateFormat, value); err != nil {
			return fmt.Errorf("enter a date as %s", forms.DateFormat)
		}
		return nil
	}
}

func marshalAnswers(answers url.Values) ([]byte, error) {
	out := make(map[string]any, len(answers))
	for name, values := range answers {
		if len(values) == 1 {
			out[name] = values[0]
			continue
		}
		out[name] = values
	}
	return json.MarshalIndent(out, "", "  ")
}
