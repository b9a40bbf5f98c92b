package render

import (
	"context"

	"github.com/goliatone/go-accounts/pkg/forms"
)

// Renderer converts a form state into a byte representation (HTML for the
// dashboard, prompt walkthroughs for the terminal client).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, form *forms.FormState, options RenderOptions) ([]byte, error)
}
