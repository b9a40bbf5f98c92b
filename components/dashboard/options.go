package dashboard

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/goliatone/go-accounts/internal/store"
	"github.com/goliatone/go-accounts/pkg/forms"
	"github.com/goliatone/go-accounts/pkg/nav"
	"github.com/goliatone/go-accounts/pkg/render"
	renderers "github.com/goliatone/go-accounts/pkg/renderers/dashboard"
	"github.com/goliatone/go-accounts/pkg/settings"
)

// Guard wraps every dashboard handler, typically with authentication.
type Guard func(http.Handler) http.Handler

// Options configures the dashboard component.
type Options struct {
	BasePath string
	Store    store.Store
	Renderer *renderers.Renderer
	Settings settings.Settings
	Routes   *nav.Routes
	Logger   *zap.Logger
	Guard    Guard

	// Renderers resolves fragment renderers by name for the embed endpoint.
	// The page renderer registers itself here during construction.
	Renderers *render.Registry

	// ProductRanges populates the WHAT restriction selector on account forms.
	ProductRanges []forms.Choice

	// FundingCode names the account that funds initial transactions and
	// top-ups when the settings do not configure source accounts.
	FundingCode string

	// UserPickerLimit caps how many users the form selectors preload.
	UserPickerLimit int
}

// OptionFn mutates Options during construction.
type OptionFn func(*Options)

// DefaultOptions returns the component defaults. Store and Renderer must
// still be supplied before the component can serve.
func DefaultOptions() Options {
	return Options{
		BasePath:        "/dashboard",
		Settings:        settings.Default(),
		Logger:          zap.NewNop(),
		UserPickerLimit: 100,
	}
}

// NewOptions applies overrides on top of the defaults and normalizes the
// result.
func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.BasePath == "" {
		opts.BasePath = "/dashboard"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Routes == nil {
		opts.Routes = nav.DefaultRoutes(opts.BasePath)
	}
	if opts.UserPickerLimit <= 0 {
		opts.UserPickerLimit = 100
	}
	if opts.Renderers == nil {
		opts.Renderers = render.NewRegistry()
	}
	return opts
}

// WithBasePath sets the mount path for all dashboard routes.
func WithBasePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.BasePath = path
	}
}

// WithStore sets the backing store.
func WithStore(s store.Store) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Store = s
	}
}

// WithRenderer sets the page renderer.
func WithRenderer(r *renderers.Renderer) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Renderer = r
	}
}

// WithSettings sets the dashboard settings.
func WithSettings(s settings.Settings) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Settings = s
	}
}

// WithRoutes overrides the named route table.
func WithRoutes(routes *nav.Routes) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Routes = routes
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Logger = logger
	}
}

// WithGuard installs an authentication middleware around every route.
func WithGuard(guard Guard) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

// WithRendererRegistry shares an existing renderer registry, letting the host
// expose additional fragment renderers on the embed endpoint.
func WithRendererRegistry(registry *render.Registry) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Renderers = registry
	}
}

// WithProductRanges sets the WHAT restriction choices.
func WithProductRanges(ranges []forms.Choice) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		if ranges == nil {
			o.ProductRanges = nil
			return
		}
		o.ProductRanges = append([]forms.Choice{}, ranges...)
	}
}

// WithFundingCode names the fallback funding account.
func WithFundingCode(code string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.FundingCode = code
	}
}

// WithUserPickerLimit caps the preloaded user selectors.
func WithUserPickerLimit(limit int) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.UserPickerLimit = limit
	}
}
