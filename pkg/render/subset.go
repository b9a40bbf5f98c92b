package render

import (
	"strings"

	"github.com/goliatone/go-accounts/pkg/forms"
)

// Subset returns a form state containing only the named fields, in the order
// given. Fields the form does not carry are skipped. The returned state shares
// field pointers with the original so bound values and errors stay visible.
// With no names the original form is returned unchanged.
func Subset(form *forms.FormState, names ...string) *forms.FormState {
	if form == nil || len(names) == 0 {
		return form
	}

	picked := make([]*forms.Field, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if field := form.Field(name); field != nil {
			picked = append(picked, field)
		}
	}
	return forms.New(picked...)
}
