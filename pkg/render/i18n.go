package render

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingTranslator signals that a translation was requested without a
// configured Translator.
var ErrMissingTranslator = errors.New("render: translator not configured")

// Translator resolves message keys into localized strings. Implementations
// return an error (or an empty string) for unknown keys so callers can fall
// back to the built-in text.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// MissingTranslationHandler produces the string rendered when a translation
// cannot be resolved. The args slice may carry a map with a "default" entry
// holding the fallback text.
type MissingTranslationHandler func(locale, key string, args []any, err error) string

func missingTranslationDefault(_ string, key string, args []any, _ error) string {
	for _, arg := range args {
		params, ok := arg.(map[string]any)
		if !ok {
			continue
		}
		if fallback := strings.TrimSpace(fmt.Sprint(params["default"])); fallback != "" && fallback != "<nil>" {
			return fallback
		}
	}
	return key
}

// T resolves a chrome string through the configured translator, falling back
// to the supplied English text.
func (o RenderOptions) T(key, fallback string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return fallback
	}

	onMissing := o.OnMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}

	if o.Translator == nil {
		return onMissing(o.Locale, key, []any{map[string]any{"default": fallback}}, ErrMissingTranslator)
	}

	result, err := o.Translator.Translate(o.Locale, key)
	if err == nil && strings.TrimSpace(result) != "" {
		return result
	}
	return onMissing(o.Locale, key, []any{map[string]any{"default": fallback}}, err)
}

// MapTranslator is an in-memory Translator keyed by locale then message key.
// Useful for tests and small deployments.
type MapTranslator map[string]map[string]string

// Translate implements Translator.
func (m MapTranslator) Translate(locale, key string, args ...any) (string, error) {
	messages, ok := m[locale]
	if !ok {
		return "", fmt.Errorf("render: locale %q not loaded", locale)
	}
	msg, ok := messages[key]
	if !ok {
		return "", fmt.Errorf("render: key %q missing for locale %q", key, locale)
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...), nil
	}
	return msg, nil
}

// TemplateI18nFuncs returns helpers suitable for injection into the template
// engine's global context:
//
//	translate(locale, key) string
//	current_locale(locale) string
func TemplateI18nFuncs(t Translator, onMissing MissingTranslationHandler) map[string]any {
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}
	return map[string]any{
		"translate": func(locale, key string, params ...any) string {
			key = strings.TrimSpace(key)
			if key == "" {
				return ""
			}
			if t == nil {
				return onMissing(locale, key, params, ErrMissingTranslator)
			}
			msg, err := t.Translate(locale, key, params...)
			if err != nil || strings.TrimSpace(msg) == "" {
				return onMissing(locale, key, params, err)
			}
			return msg
		},
		"current_locale": func(locale string) string {
			return locale
		},
	}
}
