// Package forms models in-progress dashboard form submissions as typed state:
// an ordered set of named fields carrying values and validation errors, plus
// form-level errors. Optional fields are explicit: a form variant either
// includes a field or it does not, and presence is checked with predicates
// rather than reflection.
package forms

import (
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-accounts/pkg/account"
)

// Kind is the simplified enum of control types the renderers understand.
type Kind string

const (
	KindText     Kind = "text"
	KindTextarea Kind = "textarea"
	KindSelect   Kind = "select"
	KindAmount   Kind = "amount"
	KindDate     Kind = "date"
	KindUser     Kind = "user"
	KindUsers    Kind = "users"
	KindCheckbox Kind = "checkbox"
	KindHidden   Kind = "hidden"
)

// Choice is one selectable option on a select-like field.
type Choice struct {
	Value string
	Label string
}

// Field is a single named input on a form variant.
type Field struct {
	Name        string
	Kind        Kind
	Label       string
	Required    bool
	HelpText    string
	Placeholder string
	Choices     []Choice

	// Value holds the current raw value; Values is used by multi-selects.
	Value  string
	Values []string

	Errors []string

	// Widget optionally pins a renderer widget, overriding kind-based
	// resolution.
	Widget string
}

// HasErrors reports whether field-level validation failed.
func (f *Field) HasErrors() bool { return len(f.Errors) > 0 }

// AddError appends a validation message, skipping blanks and duplicates.
func (f *Field) AddError(msg string) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return
	}
	for _, existing := range f.Errors {
		if existing == msg {
			return
		}
	}
	f.Errors = append(f.Errors, msg)
}

// HasChoice reports whether value is one of the field's choices.
func (f *Field) HasChoice(value string) bool {
	for _, choice := range f.Choices {
		if choice.Value == value {
			return true
		}
	}
	return false
}

// FormState is the ordered bag of fields for one form variant, together with
// form-level errors and the cleaned values produced by a successful bind.
type FormState struct {
	fields  []*Field
	index   map[string]*Field
	errors  []string
	cleaned map[string]any
	bound   bool
}

// New assembles a form state from fields in render order. Nil fields are
// skipped; duplicate names keep the first occurrence.
func New(fields ...*Field) *FormState {
	state := &FormState{
		index:   make(map[string]*Field, len(fields)),
		cleaned: make(map[string]any),
	}
	for _, field := range fields {
		if field == nil || field.Name == "" {
			continue
		}
		if _, exists := state.index[field.Name]; exists {
			continue
		}
		state.fields = append(state.fields, field)
		state.index[field.Name] = field
	}
	return state
}

// Has reports whether the form variant includes the named field.
func (s *FormState) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Field returns the named field, or nil when the variant omits it.
func (s *FormState) Field(name string) *Field {
	return s.index[name]
}

// Fields returns the fields in render order.
func (s *FormState) Fields() []*Field { return s.fields }

// NonFieldErrors returns form-level validation messages.
func (s *FormState) NonFieldErrors() []string { return s.errors }

// AddNonFieldError appends a form-level message, skipping blanks/duplicates.
func (s *FormState) AddNonFieldError(msg string) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return
	}
	for _, existing := range s.errors {
		if existing == msg {
			return
		}
	}
	s.errors = append(s.errors, msg)
}

// AddError attaches a message to the named field, falling back to the
// form-level list when the field is absent so messages are never lost.
func (s *FormState) AddError(name, msg string) {
	if field := s.index[name]; field != nil {
		field.AddError(msg)
		return
	}
	s.AddNonFieldError(msg)
}

// IsValid reports whether a bound form carries no errors. An unbound form is
// never valid.
func (s *FormState) IsValid() bool {
	if !s.bound {
		return false
	}
	if len(s.errors) > 0 {
		return false
	}
	for _, field := range s.fields {
		if field.HasErrors() {
			return false
		}
	}
	return true
}

// Bind copies raw submitted values onto the fields and marks the form bound.
// Validation is the responsibility of the form builders' clean functions.
func (s *FormState) Bind(values url.Values) {
	s.bound = true
	for _, field := range s.fields {
		switch field.Kind {
		case KindUsers:
			field.Values = nil
			if raw, ok := values[field.Name]; ok {
				for _, v := range raw {
					if trimmed := strings.TrimSpace(v); trimmed != "" {
						field.Values = append(field.Values, trimmed)
					}
				}
			}
		case KindCheckbox:
			field.Value = ""
			if raw := values.Get(field.Name); raw != "" {
				field.Value = raw
			}
		default:
			field.Value = strings.TrimSpace(values.Get(field.Name))
		}
	}
}

// Bound reports whether Bind has been called.
func (s *FormState) Bound() bool { return s.bound }

// SetClean records a validated, typed value for a field.
func (s *FormState) SetClean(name string, value any) {
	s.cleaned[name] = value
}

// CleanString returns the cleaned string for name, or "".
func (s *FormState) CleanString(name string) string {
	if v, ok := s.cleaned[name].(string); ok {
		return v
	}
	return ""
}

// CleanStrings returns the cleaned string slice for name.
func (s *FormState) CleanStrings(name string) []string {
	if v, ok := s.cleaned[name].([]string); ok {
		return v
	}
	return nil
}

// CleanAmount returns the cleaned monetary value for name.
func (s *FormState) CleanAmount(name string) (account.Amount, bool) {
	v, ok := s.cleaned[name].(account.Amount)
	return v, ok
}

// CleanDate returns the cleaned date for name.
func (s *FormState) CleanDate(name string) (time.Time, bool) {
	v, ok := s.cleaned[name].(time.Time)
	return v, ok
}

// CleanBool returns the cleaned boolean for name.
func (s *FormState) CleanBool(name string) bool {
	v, _ := s.cleaned[name].(bool)
	return v
}
