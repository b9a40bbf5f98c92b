// Package widgets selects control renderers for form fields. Field builders
// can pin a widget explicitly; otherwise registered matchers pick one based on
// the field shape.
package widgets

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-accounts/pkg/forms"
)

// Built-in widget identifiers exposed by the registry.
const (
	WidgetToggle     = "toggle"
	WidgetDatepicker = "datepicker"
	WidgetUserSearch = "user-search"
	WidgetSelect     = "select"
	WidgetTextarea   = "textarea"
	WidgetAmount     = "amount"
)

// Matcher decides whether a widget should handle the supplied field.
type Matcher func(field *forms.Field) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry selects widgets for fields based on explicit hints or registered
// matchers. Higher priority wins; ties fall back to registration order. An
// empty registry never resolves a widget.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry constructs a registry with the built-in matchers registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a widget matcher with the provided name and priority. Higher
// priority values take precedence. Callers should avoid duplicate names; the
// earliest registration wins on priority ties.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Resolve returns the widget name for a field. An explicit field widget is
// honoured before matcher evaluation.
func (r *Registry) Resolve(field *forms.Field) (string, bool) {
	if field == nil {
		return "", false
	}
	if explicit := strings.TrimSpace(field.Widget); explicit != "" {
		return explicit, true
	}
	if r == nil {
		return "", false
	}

	r.mu.RLock()
	if len(r.rules) == 0 {
		r.mu.RUnlock()
		return "", false
	}
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()

	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(field) {
			return entry.name, true
		}
	}
	return "", false
}

// Decorate applies registry resolution to every field in the form, filling
// Field.Widget where the builder left it empty.
func (r *Registry) Decorate(form *forms.FormState) {
	if r == nil || form == nil {
		return
	}
	for _, field := range form.Fields() {
		if strings.TrimSpace(field.Widget) != "" {
			continue
		}
		if widget, ok := r.Resolve(field); ok {
			field.Widget = widget
		}
	}
}

func (r *Registry) registerBuiltins() {
	r.Register(WidgetToggle, 90, func(field *forms.Field) bool {
		return field.Kind == forms.KindCheckbox
	})

	r.Register(WidgetDatepicker, 80, func(field *forms.Field) bool {
		return field.Kind == forms.KindDate
	})

	r.Register(WidgetUserSearch, 70, func(field *forms.Field) bool {
		return field.Kind == forms.KindUser || field.Kind == forms.KindUsers
	})

	r.Register(WidgetSelect, 60, func(field *forms.Field) bool {
		return field.Kind == forms.KindSelect || len(field.Choices) > 0
	})

	r.Register(WidgetTextarea, 50, func(field *forms.Field) bool {
		return field.Kind == forms.KindTextarea
	})

	r.Register(WidgetAmount, 40, func(field *forms.Field) bool {
		return field.Kind == forms.KindAmount
	})
}
