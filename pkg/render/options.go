package render

import (
	theme "github.com/goliatone/go-theme"
)

// RenderOptions describe per-request data that renderers can use to customise
// their output without mutating the form construction pipeline. Field values
// and validation errors travel on the form state itself; everything here is
// presentation concern.
type RenderOptions struct {
	// Method overrides the HTTP method the rendered form submits with.
	// Renderers translate unsupported verbs (PATCH/PUT/DELETE) into POST plus
	// a hidden _method input.
	Method string
	// Action is the URL the rendered form submits to. Empty means the current
	// page.
	Action string
	// Hidden adds hidden inputs (CSRF tokens, version fields) emitted after
	// the opening form tag. See the submission helpers for construction.
	Hidden map[string]string
	// Locale selects the translation locale when Translator is set.
	Locale string
	// Translator resolves message keys for chrome text. Nil renders the
	// built-in English strings.
	Translator Translator
	// OnMissing controls the string produced when a translation is missing.
	// Defaults to returning the fallback, then the key.
	OnMissing MissingTranslationHandler
	// Theme carries resolved theme tokens and CSS variables injected into the
	// page chrome.
	Theme *theme.RendererConfig
}
