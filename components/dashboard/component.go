package dashboard

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Component bundles the dashboard handlers, their configuration, and route
// registration.
type Component struct {
	opts Options
}

// New constructs a component with default options plus any overrides.
func New(fns ...OptionFn) (*Component, error) {
	opts := NewOptions(fns...)
	if opts.Store == nil {
		return nil, fmt.Errorf("dashboard: missing store")
	}
	if opts.Renderer == nil {
		return nil, fmt.Errorf("dashboard: missing renderer")
	}
	if !opts.Renderers.Has(opts.Renderer.Name()) {
		if err := opts.Renderers.Register(opts.Renderer); err != nil {
			return nil, fmt.Errorf("dashboard: register renderer: %w", err)
		}
	}
	return &Component{opts: opts}, nil
}

// Options returns a copy of the component configuration.
func (c *Component) Options() Options {
	return NewOptions(func(o *Options) { *o = c.opts })
}

// RegisterRoutes mounts every dashboard page under the configured base path.
func (c *Component) RegisterRoutes(router chi.Router) error {
	if router == nil {
		return fmt.Errorf("dashboard: missing router")
	}

	h := &handlers{opts: c.opts}
	router.Route(c.opts.BasePath, func(r chi.Router) {
		if c.opts.Guard != nil {
			r.Use(func(next http.Handler) http.Handler { return c.opts.Guard(next) })
		}

		r.Get("/", h.index)
		r.Get("/accounts/", h.list)
		r.Get("/accounts/create/", h.createForm)
		r.Post("/accounts/create/", h.createSubmit)
		r.Get("/accounts/{accountID}/", h.detail)
		r.Get("/accounts/{accountID}/update/", h.updateForm)
		r.Post("/accounts/{accountID}/update/", h.updateSubmit)
		r.Post("/accounts/{accountID}/freeze/", h.freeze)
		r.Post("/accounts/{accountID}/thaw/", h.thaw)
		r.Get("/accounts/{accountID}/top-up/", h.topUpForm)
		r.Post("/accounts/{accountID}/top-up/", h.topUpSubmit)
		r.Get("/api/account-form/", h.accountFormFragment)
		r.Get("/transfers/", h.transferList)
		r.Get("/transfers/{transferID}/", h.transferDetail)
		r.Post("/transfers/{transferID}/reverse/", h.transferReverse)
	})
	return nil
}
