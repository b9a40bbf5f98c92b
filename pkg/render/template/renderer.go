// Package template defines the renderer-agnostic template engine contract.
// Renderers depend on this seam so the underlying engine can be swapped or
// stubbed in tests.
package template

import (
	"io"
)

// TemplateRenderer is the engine contract the HTML renderers rely on.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}
