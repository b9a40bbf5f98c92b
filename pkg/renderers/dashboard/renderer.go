// Package dashboard renders the server-side HTML for the accounts back
// office: the account create/edit form, listings, detail pages and the shared
// page chrome.
package dashboard

import (
	"context"
	"fmt"
	"html"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-accounts/pkg/account"
	"github.com/goliatone/go-accounts/pkg/forms"
	"github.com/goliatone/go-accounts/pkg/nav"
	"github.com/goliatone/go-accounts/pkg/render"
	rendertemplate "github.com/goliatone/go-accounts/pkg/render/template"
	"github.com/goliatone/go-accounts/pkg/render/template/gotemplate"
	"github.com/goliatone/go-accounts/pkg/settings"
	"github.com/goliatone/go-accounts/pkg/uischema"
	"github.com/goliatone/go-accounts/pkg/widgets"
)

// View ids the overlay store can target.
const (
	ViewAccountCreate = "accounts.create"
	ViewAccountUpdate = "accounts.update"
)

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	widgets          *widgets.Registry
	overlays         *uischema.Store
	routes           *nav.Routes
	settings         settings.Settings
	assetBase        string
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithWidgets overrides the widget registry used to resolve field controls.
func WithWidgets(registry *widgets.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.widgets = registry
		}
	}
}

// WithOverlays supplies deployment overrides applied before rendering.
func WithOverlays(store *uischema.Store) Option {
	return func(cfg *config) {
		cfg.overlays = store
	}
}

// WithRoutes overrides the route table used for breadcrumbs and links.
func WithRoutes(routes *nav.Routes) Option {
	return func(cfg *config) {
		if routes != nil {
			cfg.routes = routes
		}
	}
}

// WithSettings supplies deployment settings (unit naming, currency symbol).
func WithSettings(s settings.Settings) Option {
	return func(cfg *config) {
		cfg.settings = s
	}
}

// WithAssetBase sets the URL prefix the layout uses for the CSS/JS bundle.
func WithAssetBase(base string) Option {
	return func(cfg *config) {
		cfg.assetBase = strings.TrimRight(strings.TrimSpace(base), "/")
	}
}

// Renderer produces the dashboard HTML fragments and pages.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
	widgets   *widgets.Registry
	overlays  *uischema.Store
	routes    *nav.Routes
	settings  settings.Settings
	assetBase string
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the dashboard renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{
		templateFS: TemplatesFS(),
		widgets:    widgets.NewRegistry(),
		routes:     nav.DefaultRoutes("/dashboard"),
		settings:   settings.Default(),
		assetBase:  "/assets",
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".html"),
		)
		if err != nil {
			return nil, fmt.Errorf("dashboard renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &Renderer{
		templates: renderer,
		widgets:   cfg.widgets,
		overlays:  cfg.overlays,
		routes:    cfg.routes,
		settings:  cfg.settings,
		assetBase: cfg.assetBase,
	}, nil
}

func (r *Renderer) Name() string {
	return "dashboard"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render satisfies the generic renderer contract: a bare form panel with the
// non-field error block, every field in declaration order and a submit
// control. Page-level views use the dedicated Render* methods instead.
func (r *Renderer) Render(_ context.Context, form *forms.FormState, opts render.RenderOptions) ([]byte, error) {
	if form == nil {
		return nil, fmt.Errorf("dashboard renderer: form is required")
	}
	r.widgets.Decorate(form)

	var b strings.Builder
	b.WriteString(`<form action="`)
	b.WriteString(html.EscapeString(opts.Action))
	b.WriteString(`" method="`)
	b.WriteString(formMethod(opts))
	b.WriteString(`">` + "\n")
	for _, hidden := range hiddenFields(opts) {
		b.WriteString(`<input type="hidden" name="`)
		b.WriteString(html.EscapeString(hidden.Name))
		b.WriteString(`" value="`)
		b.WriteString(html.EscapeString(hidden.Value))
		b.WriteString("\">\n")
	}
	b.WriteString(`<div class="non-field-errors">` + "\n")
	for _, message := range form.NonFieldErrors() {
		b.WriteString(`<p class="error">`)
		b.WriteString(html.EscapeString(message))
		b.WriteString("</p>\n")
	}
	b.WriteString("</div>\n")
	for _, field := range form.Fields() {
		b.WriteString(r.renderField(field))
	}
	b.WriteString(`<button type="submit" class="btn btn-primary">`)
	b.WriteString(html.EscapeString(opts.T("accounts.save", "Save")))
	b.WriteString("</button>\n</form>\n")
	return []byte(b.String()), nil
}

// RenderAccountForm produces the create/edit fragment: breadcrumb trail,
// heading, optional account summary and the form panel with its conditional
// sections.
func (r *Renderer) RenderAccountForm(_ context.Context, view AccountFormView, opts render.RenderOptions) ([]byte, error) {
	if view.Form == nil {
		return nil, fmt.Errorf("dashboard renderer: form is required")
	}

	viewID := ViewAccountCreate
	if view.Account != nil {
		viewID = ViewAccountUpdate
	}
	r.overlays.Apply(viewID, view.Form)
	r.widgets.Decorate(view.Form)

	data := map[string]any{
		"title":               view.Title,
		"breadcrumbs":         r.accountFormCrumbs(view.Account, opts),
		"panel_title":         opts.T("accounts.panel.edit", "Edit"),
		"action":              opts.Action,
		"method":              formMethod(opts),
		"hidden_fields":       hiddenFields(opts),
		"non_field_errors":    view.Form.NonFieldErrors(),
		"main_fields":         r.mainFields(view.Form),
		"initial_legend":      opts.T("accounts.legend.initial", "Initial transaction"),
		"restrictions_legend": opts.T("accounts.legend.restrictions", "Restrictions"),
		"restriction_groups":  r.restrictionGroups(view.Form),
		"submit_label":        opts.T("accounts.save", "Save"),
		"cancel_label":        opts.T("accounts.cancel", "Cancel"),
		"cancel_url":          r.routes.MustReverse(nav.RouteAccountsList),
	}

	initialFields, showInitial := r.initialFields(view.Form)
	data["show_initial"] = showInitial
	data["initial_fields"] = initialFields

	if view.Account != nil {
		data["account"] = r.accountSummary(view.Account)
		data["edit_heading"] = opts.T("accounts.edit_heading",
			fmt.Sprintf("Edit this %s", strings.ToLower(r.settings.UnitName)))
	}

	result, err := r.templates.RenderTemplate("templates/account_form.html", data)
	if err != nil {
		return nil, fmt.Errorf("dashboard renderer: render account form: %w", err)
	}
	return []byte(result), nil
}

// RenderAccountList produces the listing fragment with the search panel.
func (r *Renderer) RenderAccountList(_ context.Context, view AccountListView, opts render.RenderOptions) ([]byte, error) {
	r.widgets.Decorate(view.SearchForm)

	title := view.Title
	if title == "" {
		title = r.settings.UnitNamePlural
	}
	resultsTitle := opts.T("accounts.results", r.settings.UnitNamePlural)
	if desc := strings.TrimSpace(view.Description); desc != "" {
		resultsTitle = desc
	}

	rows := make([]map[string]any, 0, len(view.Accounts))
	for _, acc := range view.Accounts {
		rows = append(rows, map[string]any{
			"url":     r.routes.MustReverse(nav.RouteAccountsDetail, acc.ID),
			"label":   acc.Label(),
			"code":    acc.Code,
			"status":  string(acc.Status),
			"balance": r.settings.FormatAmount(acc.Balance),
			"start":   formatDate(acc.Start),
			"end":     formatDate(acc.End),
		})
	}

	var searchFields []string
	if view.SearchForm != nil {
		for _, field := range view.SearchForm.Fields() {
			searchFields = append(searchFields, r.renderField(field))
		}
	}

	data := map[string]any{
		"title": title,
		"breadcrumbs": []nav.Breadcrumb{
			nav.Crumb(opts.T("accounts.crumb.dashboard", "Dashboard"), r.routes.MustReverse(nav.RouteDashboardIndex)),
			nav.ActiveCrumb(r.settings.UnitNamePlural),
		},
		"search_title":  opts.T("accounts.search", "Search"),
		"search_action": r.routes.MustReverse(nav.RouteAccountsList),
		"search_fields": searchFields,
		"search_label":  opts.T("accounts.search", "Search"),
		"results_title": resultsTitle,
		"accounts":      rows,
		"create_url":    r.routes.MustReverse(nav.RouteAccountsCreate),
		"create_label": opts.T("accounts.create_new",
			fmt.Sprintf("Create new %s", strings.ToLower(r.settings.UnitName))),
		"empty_label": opts.T("accounts.empty", "No results found."),
	}

	result, err := r.templates.RenderTemplate("templates/account_list.html", data)
	if err != nil {
		return nil, fmt.Errorf("dashboard renderer: render account list: %w", err)
	}
	return []byte(result), nil
}

// RenderAccountDetail produces the detail fragment: summary, status actions
// and the transaction history.
func (r *Renderer) RenderAccountDetail(_ context.Context, view AccountDetailView, opts render.RenderOptions) ([]byte, error) {
	if view.Account == nil {
		return nil, fmt.Errorf("dashboard renderer: account is required")
	}
	acc := view.Account

	transactions := make([]map[string]any, 0, len(view.Transfers))
	for _, transfer := range view.Transfers {
		amount := transfer.Amount
		if transfer.SourceID == acc.ID {
			amount = -amount
		}
		transactions = append(transactions, map[string]any{
			"url":         r.routes.MustReverse(nav.RouteTransfersDetail, transfer.ID),
			"reference":   transfer.Reference(),
			"amount":      r.settings.FormatAmount(amount),
			"description": transfer.Description,
			"date":        transfer.DateCreated.Format("2006-01-02 15:04"),
		})
	}

	hidden := render.SortedHiddenFields(opts.Hidden)
	var actions []statusAction
	if acc.IsOpen() {
		actions = append(actions, statusAction{
			Label:  opts.T("accounts.freeze", "Freeze"),
			URL:    r.routes.MustReverse(nav.RouteAccountsFreeze, acc.ID),
			Hidden: append([]render.HiddenField{render.Hidden(forms.FieldStatus, string(account.StatusFrozen))}, hidden...),
		})
	}
	if acc.IsFrozen() {
		actions = append(actions, statusAction{
			Label:  opts.T("accounts.thaw", "Thaw"),
			URL:    r.routes.MustReverse(nav.RouteAccountsThaw, acc.ID),
			Hidden: append([]render.HiddenField{render.Hidden(forms.FieldStatus, string(account.StatusOpen))}, hidden...),
		})
	}

	data := map[string]any{
		"title": acc.Label(),
		"breadcrumbs": []nav.Breadcrumb{
			nav.Crumb(opts.T("accounts.crumb.dashboard", "Dashboard"), r.routes.MustReverse(nav.RouteDashboardIndex)),
			nav.Crumb(r.settings.UnitNamePlural, r.routes.MustReverse(nav.RouteAccountsList)),
			nav.ActiveCrumb(acc.Label()),
		},
		"account":            r.accountSummary(acc),
		"actions_title":      opts.T("accounts.actions", "Actions"),
		"update_url":         r.routes.MustReverse(nav.RouteAccountsUpdate, acc.ID),
		"update_label":       opts.T("accounts.update", "Update"),
		"status_actions":     actions,
		"transactions_title": opts.T("accounts.transactions", "Transactions"),
		"transactions":       transactions,
		"empty_label":        opts.T("accounts.no_transactions", "No transactions yet."),
	}
	if acc.IsOpen() {
		data["top_up_url"] = r.routes.MustReverse(nav.RouteAccountsTopUp, acc.ID)
		data["top_up_label"] = opts.T("accounts.top_up", "Top up")
	}

	result, err := r.templates.RenderTemplate("templates/account_detail.html", data)
	if err != nil {
		return nil, fmt.Errorf("dashboard renderer: render account detail: %w", err)
	}
	return []byte(result), nil
}

// RenderTransferList produces the transfer listing fragment.
func (r *Renderer) RenderTransferList(_ context.Context, view TransferListView, opts render.RenderOptions) ([]byte, error) {
	title := view.Title
	if title == "" {
		title = opts.T("accounts.transfers", "Transfers")
	}

	rows := make([]map[string]any, 0, len(view.Transfers))
	for _, transfer := range view.Transfers {
		rows = append(rows, map[string]any{
			"url":         r.routes.MustReverse(nav.RouteTransfersDetail, transfer.ID),
			"reference":   transfer.Reference(),
			"source":      r.accountLabel(view.Accounts, transfer.SourceID.String()),
			"destination": r.accountLabel(view.Accounts, transfer.DestinationID.String()),
			"amount":      r.settings.FormatAmount(transfer.Amount),
			"date":        transfer.DateCreated.Format("2006-01-02 15:04"),
		})
	}

	data := map[string]any{
		"title": title,
		"breadcrumbs": []nav.Breadcrumb{
			nav.Crumb(opts.T("accounts.crumb.dashboard", "Dashboard"), r.routes.MustReverse(nav.RouteDashboardIndex)),
			nav.ActiveCrumb(title),
		},
		"results_title": title,
		"transfers":     rows,
		"empty_label":   opts.T("accounts.no_transfers", "No transfers found."),
	}

	result, err := r.templates.RenderTemplate("templates/transfer_list.html", data)
	if err != nil {
		return nil, fmt.Errorf("dashboard renderer: render transfer list: %w", err)
	}
	return []byte(result), nil
}

// RenderTransferDetail produces the transfer detail fragment.
func (r *Renderer) RenderTransferDetail(_ context.Context, view TransferDetailView, opts render.RenderOptions) ([]byte, error) {
	if view.Transfer == nil {
		return nil, fmt.Errorf("dashboard renderer: transfer is required")
	}
	transfer := view.Transfer

	detail := map[string]any{
		"reference":   transfer.Reference(),
		"amount":      r.settings.FormatAmount(transfer.Amount),
		"description": transfer.Description,
		"user":        transfer.Username,
		"date":        transfer.DateCreated.Format("2006-01-02 15:04"),
		"source":      transfer.SourceID.String(),
		"destination": transfer.DestinationID.String(),
	}
	if view.Source != nil {
		detail["source"] = view.Source.Label()
		detail["source_url"] = r.routes.MustReverse(nav.RouteAccountsDetail, view.Source.ID)
	}
	if view.Destination != nil {
		detail["destination"] = view.Destination.Label()
		detail["destination_url"] = r.routes.MustReverse(nav.RouteAccountsDetail, view.Destination.ID)
	}

	title := fmt.Sprintf("%s %s", opts.T("accounts.transfer", "Transfer"), transfer.Reference())
	data := map[string]any{
		"title": title,
		"breadcrumbs": []nav.Breadcrumb{
			nav.Crumb(opts.T("accounts.crumb.dashboard", "Dashboard"), r.routes.MustReverse(nav.RouteDashboardIndex)),
			nav.Crumb(opts.T("accounts.transfers", "Transfers"), r.routes.MustReverse(nav.RouteTransfersList)),
			nav.ActiveCrumb(transfer.Reference()),
		},
		"details_title": opts.T("accounts.transfer_details", "Details"),
		"transfer":      detail,
		"reverse_action": statusAction{
			Label:  opts.T("accounts.reverse", "Reverse"),
			URL:    r.routes.MustReverse(nav.RouteTransfersReverse, transfer.ID),
			Hidden: render.SortedHiddenFields(opts.Hidden),
		},
	}

	result, err := r.templates.RenderTemplate("templates/transfer_detail.html", data)
	if err != nil {
		return nil, fmt.Errorf("dashboard renderer: render transfer detail: %w", err)
	}
	return []byte(result), nil
}

// RenderPage slots a fragment into the dashboard layout. The document title
// follows "<page> | <unit plural> | <dashboard title>".
func (r *Renderer) RenderPage(_ context.Context, page Page, opts render.RenderOptions) ([]byte, error) {
	locale := opts.Locale
	if locale == "" {
		locale = "en"
	}

	data := map[string]any{
		"locale":          locale,
		"page_title":      fmt.Sprintf("%s | %s | %s", page.Title, r.settings.UnitNamePlural, r.settings.DashboardTitle),
		"dashboard_title": r.settings.DashboardTitle,
		"home_url":        r.routes.MustReverse(nav.RouteDashboardIndex),
		"stylesheet_url":  r.assetBase + "/" + StylesheetName,
		"script_url":      r.assetBase + "/" + ScriptName,
		"content":         page.Content,
		"messages":        page.Messages,
	}
	if opts.Theme != nil {
		data["theme_name"] = opts.Theme.Theme
		data["theme_css"] = cssVarsStyle(opts.Theme.CSSVars)
	}

	result, err := r.templates.RenderTemplate("templates/layout.html", data)
	if err != nil {
		return nil, fmt.Errorf("dashboard renderer: render layout: %w", err)
	}
	return []byte(result), nil
}

func (r *Renderer) accountFormCrumbs(acc *account.Account, opts render.RenderOptions) []nav.Breadcrumb {
	crumbs := []nav.Breadcrumb{
		nav.Crumb(opts.T("accounts.crumb.dashboard", "Dashboard"), r.routes.MustReverse(nav.RouteDashboardIndex)),
		nav.Crumb(r.settings.UnitNamePlural, r.routes.MustReverse(nav.RouteAccountsList)),
	}
	if acc != nil {
		crumbs = append(crumbs,
			nav.Crumb(acc.Label(), r.routes.MustReverse(nav.RouteAccountsDetail, acc.ID)),
			nav.ActiveCrumb(opts.T("accounts.crumb.update", "Update")),
		)
		return crumbs
	}
	return append(crumbs, nav.ActiveCrumb(opts.T("accounts.crumb.create", "Create")))
}

// mainFields renders name and description, then account_type when the form
// variant carries it. Name and description are treated as always-present;
// a descriptor is synthesised if a caller omits them.
func (r *Renderer) mainFields(form *forms.FormState) []string {
	out := []string{
		r.renderField(fieldOrDefault(form, forms.FieldName, forms.KindText, "Name")),
		r.renderField(fieldOrDefault(form, forms.FieldDescription, forms.KindTextarea, "Description")),
	}
	if form.Has(forms.FieldAccountType) {
		out = append(out, r.renderField(form.Field(forms.FieldAccountType)))
	}
	return out
}

// initialFields returns the initial transaction section. The section exists
// only when the form carries initial_amount; source_account is only ever
// considered inside it.
func (r *Renderer) initialFields(form *forms.FormState) ([]string, bool) {
	if !form.Has(forms.FieldInitialAmount) {
		return nil, false
	}
	var out []string
	if form.Has(forms.FieldSourceAccount) {
		out = append(out, r.renderField(form.Field(forms.FieldSourceAccount)))
	}
	out = append(out, r.renderField(form.Field(forms.FieldInitialAmount)))
	return out, true
}

// restrictionGroups always renders the three labeled groups and their six
// fields, synthesising empty descriptors when a variant omits one.
func (r *Renderer) restrictionGroups(form *forms.FormState) []restrictionGroup {
	type def struct {
		name  string
		kind  forms.Kind
		label string
	}
	groups := []struct {
		title  string
		fields []def
	}{
		{"Restrict WHEN", []def{
			{forms.FieldStartDate, forms.KindDate, "Start date"},
			{forms.FieldEndDate, forms.KindDate, "End date"},
		}},
		{"Restrict WHO", []def{
			{forms.FieldPrimaryUser, forms.KindUser, "Primary user"},
			{forms.FieldSecondaryUsers, forms.KindUsers, "Secondary users"},
		}},
		{"Restrict WHAT", []def{
			{forms.FieldProductRange, forms.KindText, "Product range"},
			{forms.FieldNonProducts, forms.KindCheckbox, "Can be used for non-products"},
		}},
	}

	out := make([]restrictionGroup, 0, len(groups))
	for _, group := range groups {
		rendered := restrictionGroup{Title: group.title}
		for _, field := range group.fields {
			rendered.Fields = append(rendered.Fields,
				r.renderField(fieldOrDefault(form, field.name, field.kind, field.label)))
		}
		out = append(out, rendered)
	}
	return out
}

func (r *Renderer) renderField(field *forms.Field) string {
	widget, _ := r.widgets.Resolve(field)
	return buildFieldMarkup(field, widget, buildControl(field, widget))
}

func (r *Renderer) accountSummary(acc *account.Account) map[string]any {
	summary := map[string]any{
		"name_label": r.settings.UnitName,
		"label":      acc.Label(),
		"code":       acc.Code,
		"status":     string(acc.Status),
		"balance":    r.settings.FormatAmount(acc.Balance),
		"start":      formatDate(acc.Start),
		"end":        formatDate(acc.End),
	}
	if acc.CreditLimit != nil {
		summary["credit_limit"] = r.settings.FormatAmount(*acc.CreditLimit)
	} else {
		summary["credit_limit"] = "Unlimited"
	}
	return summary
}

func (r *Renderer) accountLabel(accounts map[string]*account.Account, id string) string {
	if acc, ok := accounts[id]; ok && acc != nil {
		return acc.Label()
	}
	return id
}

func fieldOrDefault(form *forms.FormState, name string, kind forms.Kind, label string) *forms.Field {
	if form.Has(name) {
		return form.Field(name)
	}
	return &forms.Field{Name: name, Kind: kind, Label: label}
}

func formMethod(opts render.RenderOptions) string {
	method := strings.ToLower(strings.TrimSpace(opts.Method))
	switch method {
	case "", "post", "get":
		if method == "" {
			method = "post"
		}
		return method
	default:
		// Browsers only submit GET/POST; the verb travels in a hidden
		// _method input, see hiddenFields.
		return "post"
	}
}

// hiddenFields normalises the caller's hidden inputs, adding the _method
// override whenever the requested verb cannot travel as the form method.
func hiddenFields(opts render.RenderOptions) []render.HiddenField {
	base := opts.Hidden
	switch strings.ToLower(strings.TrimSpace(opts.Method)) {
	case "", "get", "post":
	default:
		base = render.MergeHiddenFields(base, render.MethodOverride(opts.Method))
	}
	return render.SortedHiddenFields(base)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, key := range keys {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(vars[key])
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}
