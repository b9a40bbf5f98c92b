package dashboard

import (
	"html"
	"strings"

	"github.com/goliatone/go-accounts/pkg/forms"
	"github.com/goliatone/go-accounts/pkg/widgets"
)

func controlID(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ""
	}
	return "acc-" + trimmed
}

// buildFieldMarkup wraps a rendered control with the shared field chrome:
// label, control, error messages and help text. The wrapper carries a
// data-field marker so tests and the runtime script can locate fields by
// name. Hidden fields render as a bare input with no chrome.
func buildFieldMarkup(field *forms.Field, widget, control string) string {
	if field == nil {
		return ""
	}
	if field.Kind == forms.KindHidden {
		return control
	}

	var builder strings.Builder
	builder.Grow(len(control) + 256)

	builder.WriteString(`<div class="form-group`)
	if field.HasErrors() {
		builder.WriteString(` has-error`)
	}
	builder.WriteString(`" data-field="`)
	builder.WriteString(html.EscapeString(field.Name))
	builder.WriteString(`"`)
	if widget != "" {
		builder.WriteString(` data-widget="`)
		builder.WriteString(html.EscapeString(widget))
		builder.WriteString(`"`)
	}
	builder.WriteString(">\n")

	if label := strings.TrimSpace(field.Label); label != "" {
		builder.WriteString(`    <label for="`)
		builder.WriteString(controlID(field.Name))
		builder.WriteString(`">`)
		builder.WriteString(html.EscapeString(label))
		if field.Required {
			builder.WriteString(` <span class="required">*</span>`)
		}
		builder.WriteString("</label>\n")
	}

	for _, line := range strings.Split(control, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		builder.WriteString("    ")
		builder.WriteString(line)
		builder.WriteByte('\n')
	}

	for _, message := range field.Errors {
		builder.WriteString(`    <span class="error-block">`)
		builder.WriteString(html.EscapeString(message))
		builder.WriteString("</span>\n")
	}

	if hint := strings.TrimSpace(field.HelpText); hint != "" {
		builder.WriteString(`    <small class="help-block">`)
		builder.WriteString(sanitizeHelpText(hint))
		builder.WriteString("</small>\n")
	}

	builder.WriteString("</div>\n")
	return builder.String()
}

func buildControl(field *forms.Field, widget string) string {
	if field == nil {
		return ""
	}

	switch {
	case field.Kind == forms.KindHidden:
		return hiddenControl(field)
	case widget == widgets.WidgetSelect || widget == widgets.WidgetUserSearch:
		return selectControl(field, widget)
	case widget == widgets.WidgetTextarea:
		return textareaControl(field)
	case widget == widgets.WidgetToggle:
		return checkboxControl(field)
	case widget == widgets.WidgetDatepicker:
		return dateControl(field)
	case widget == widgets.WidgetAmount:
		return amountControl(field)
	default:
		return textControl(field)
	}
}

func hiddenControl(field *forms.Field) string {
	var b strings.Builder
	b.WriteString(`<input type="hidden" name="`)
	b.WriteString(html.EscapeString(field.Name))
	b.WriteString(`" value="`)
	b.WriteString(html.EscapeString(field.Value))
	b.WriteString(`">`)
	return b.String()
}

func textControl(field *forms.Field) string {
	var b strings.Builder
	b.WriteString(`<input type="text" id="`)
	b.WriteString(controlID(field.Name))
	b.WriteString(`" name="`)
	b.WriteString(html.EscapeString(field.Name))
	b.WriteString(`" value="`)
	b.WriteString(html.EscapeString(field.Value))
	b.WriteString(`"`)
	writePlaceholder(&b, field)
	writeRequired(&b, field)
	b.WriteString(">")
	return b.String()
}

func amountControl(field *forms.Field) string {
	var b strings.Builder
	b.WriteString(`<input type="text" inputmode="decimal" class="amount" id="`)
	b.WriteString(controlID(field.Name))
	b.WriteString(`" name="`)
	b.WriteString(html.EscapeString(field.Name))
	b.WriteString(`" value="`)
	b.WriteString(html.EscapeString(field.Value))
	b.WriteString(`"`)
	writePlaceholder(&b, field)
	writeRequired(&b, field)
	b.WriteString(">")
	return b.String()
}

func dateControl(field *forms.Field) string {
	var b strings.Builder
	b.WriteString(`<input type="date" data-datepicker id="`)
	b.WriteString(controlID(field.Name))
	b.WriteString(`" name="`)
	b.WriteString(html.EscapeString(field.Name))
	b.WriteString(`" value="`)
	b.WriteString(html.EscapeString(field.Value))
	b.WriteString(`"`)
	writeRequired(&b, field)
	b.WriteString(">")
	return b.String()
}

func textareaControl(field *forms.Field) string {
	var b strings.Builder
	b.WriteString(`<textarea id="`)
	b.WriteString(controlID(field.Name))
	b.WriteString(`" name="`)
	b.WriteString(html.EscapeString(field.Name))
	b.WriteString(`" rows="4"`)
	writePlaceholder(&b, field)
	writeRequired(&b, field)
	b.WriteString(">")
	b.WriteString(html.EscapeString(field.Value))
	b.WriteString("</textarea>")
	return b.String()
}

func checkboxControl(field *forms.Field) string {
	var b strings.Builder
	b.WriteString(`<input type="checkbox" id="`)
	b.WriteString(controlID(field.Name))
	b.WriteString(`" name="`)
	b.WriteString(html.EscapeString(field.Name))
	b.WriteString(`" value="1"`)
	if field.Value == "1" || strings.EqualFold(field.Value, "true") || strings.EqualFold(field.Value, "on") {
		b.WriteString(" checked")
	}
	b.WriteString(">")
	return b.String()
}

func selectControl(field *forms.Field, widget string) string {
	multiple := field.Kind == forms.KindUsers

	var b strings.Builder
	b.WriteString(`<select id="`)
	b.WriteString(controlID(field.Name))
	b.WriteString(`" name="`)
	b.WriteString(html.EscapeString(field.Name))
	b.WriteString(`"`)
	if multiple {
		b.WriteString(" multiple")
	}
	if widget == widgets.WidgetUserSearch {
		b.WriteString(" data-user-search")
	}
	writeRequired(&b, field)
	b.WriteString(">\n")

	for _, choice := range field.Choices {
		b.WriteString(`    <option value="`)
		b.WriteString(html.EscapeString(choice.Value))
		b.WriteString(`"`)
		if choiceSelected(field, choice.Value, multiple) {
			b.WriteString(" selected")
		}
		b.WriteString(">")
		b.WriteString(html.EscapeString(choice.Label))
		b.WriteString("</option>\n")
	}
	b.WriteString("</select>")
	return b.String()
}

func choiceSelected(field *forms.Field, value string, multiple bool) bool {
	if multiple {
		for _, selected := range field.Values {
			if selected == value {
				return true
			}
		}
		return false
	}
	return field.Value != "" && field.Value == value
}

func writePlaceholder(b *strings.Builder, field *forms.Field) {
	if placeholder := strings.TrimSpace(field.Placeholder); placeholder != "" {
		b.WriteString(` placeholder="`)
		b.WriteString(html.EscapeString(placeholder))
		b.WriteString(`"`)
	}
}

func writeRequired(b *strings.Builder, field *forms.Field) {
	if field.Required {
		b.WriteString(" required")
	}
}
