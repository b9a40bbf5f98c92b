package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-accounts/internal/auth"
	"github.com/goliatone/go-accounts/internal/store"
	"github.com/goliatone/go-accounts/pkg/account"
	"github.com/goliatone/go-accounts/pkg/forms"
	"github.com/goliatone/go-accounts/pkg/nav"
	"github.com/goliatone/go-accounts/pkg/render"
	renderers "github.com/goliatone/go-accounts/pkg/renderers/dashboard"
)

type handlers struct {
	opts Options
}

func (h *handlers) routes() *nav.Routes           { return h.opts.Routes }
func (h *handlers) store() store.Store            { return h.opts.Store }
func (h *handlers) renderer() *renderers.Renderer { return h.opts.Renderer }

// formOptions assembles the choice data account forms need: the user
// directory for WHO restrictions and the configured source accounts.
func (h *handlers) formOptions(ctx context.Context) (forms.AccountFormOptions, error) {
	opts := forms.AccountFormOptions{
		Settings:      h.opts.Settings,
		ProductRanges: h.opts.ProductRanges,
	}

	users, err := h.store().SearchUsers(ctx, "", h.opts.UserPickerLimit)
	if err != nil {
		return opts, fmt.Errorf("load users: %w", err)
	}
	opts.Users = users

	for _, code := range h.opts.Settings.SourceCodes {
		acc, err := h.store().GetByCode(ctx, code)
		if err != nil {
			h.opts.Logger.Warn("source account missing", zap.String("code", code), zap.Error(err))
			continue
		}
		opts.SourceAccounts = append(opts.SourceAccounts, acc)
	}
	return opts, nil
}

func (h *handlers) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.opts.Logger.Error("dashboard request failed",
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
		zap.Error(err),
	)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *handlers) writePage(w http.ResponseWriter, r *http.Request, status int, title string, fragment []byte) {
	page := renderers.Page{
		Title:    title,
		Content:  string(fragment),
		Messages: popFlash(r),
	}
	body, err := h.renderer().RenderPage(r.Context(), page, render.RenderOptions{})
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", h.renderer().ContentType())
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (h *handlers) accountFromPath(w http.ResponseWriter, r *http.Request) *account.Account {
	id, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		http.NotFound(w, r)
		return nil
	}
	acc, err := h.store().Get(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return nil
	}
	return acc
}

// actor resolves the authenticated staff user for transfer audit records.
func actor(r *http.Request) *account.User {
	staff := auth.StaffFromContext(r.Context())
	if staff == nil {
		return nil
	}
	return &account.User{ID: staff.ID, Name: staff.Name}
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.routes().MustReverse(nav.RouteAccountsList), http.StatusSeeOther)
}

func (h *handlers) list(w http.ResponseWriter, r *http.Request) {
	form := forms.SearchForm()
	filter := store.AccountFilter{}
	description := ""

	query := r.URL.Query()
	if query.Get(forms.FieldName) != "" || query.Get(forms.FieldCode) != "" || query.Get(forms.FieldStatus) != "" {
		form.Bind(query)
		forms.CleanSearchForm(form)
		if form.IsValid() {
			filter.Query = form.CleanString(forms.FieldName)
			filter.Code = form.CleanString(forms.FieldCode)
			filter.Status = account.Status(form.CleanString(forms.FieldStatus))
			description = searchDescription(h.opts.Settings.UnitNamePlural, filter)
		}
	}

	accounts, err := h.store().List(r.Context(), filter)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	title := h.opts.Settings.UnitNamePlural
	fragment, err := h.renderer().RenderAccountList(r.Context(), renderers.AccountListView{
		Title:       title,
		SearchForm:  form,
		Accounts:    accounts,
		Description: description,
	}, render.RenderOptions{
		Method: http.MethodGet,
		Action: h.routes().MustReverse(nav.RouteAccountsList),
	})
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.writePage(w, r, http.StatusOK, title, fragment)
}

func searchDescription(unitPlural string, filter store.AccountFilter) string {
	out := unitPlural
	if filter.Query != "" {
		out += fmt.Sprintf(" matching '%s'", filter.Query)
	}
	if filter.Code != "" {
		out += fmt.Sprintf(" with code '%s'", filter.Code)
	}
	if filter.Status != "" {
		out += fmt.Sprintf(" with status '%s'", filter.Status)
	}
	return out
}

func (h *handlers) createForm(w http.ResponseWriter, r *http.Request) {
	formOpts, err := h.formOptions(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	form := forms.NewAccountForm(formOpts)
	h.renderAccountForm(w, r, http.StatusOK, nil, form)
}

func (h *handlers) createSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form submission", http.StatusBadRequest)
		return
	}
	formOpts, err := h.formOptions(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	form := forms.NewAccountForm(formOpts)
	form.Bind(r.PostForm)
	forms.CleanAccountForm(form, formOpts)
	if !form.IsValid() {
		h.renderAccountForm(w, r, http.StatusOK, nil, form)
		return
	}

	acc := &account.Account{Status: account.StatusOpen}
	forms.ApplyToAccount(form, acc)
	if err := h.store().Create(r.Context(), acc); err != nil {
		h.serverError(w, r, err)
		return
	}

	detailURL := h.routes().MustReverse(nav.RouteAccountsDetail, acc.ID.String())
	message := fmt.Sprintf("%s '%s' created", h.opts.Settings.UnitName, acc.Name)
	level := FlashSuccess

	if amount, ok := form.CleanAmount(forms.FieldInitialAmount); ok && amount > 0 {
		if err := h.loadFunds(r, form, acc, amount, "Initial deposit"); err != nil {
			h.opts.Logger.Warn("initial transfer failed",
				zap.String("account", acc.ID.String()), zap.Error(err))
			message = fmt.Sprintf("%s '%s' created, but the initial transfer failed: %v",
				h.opts.Settings.UnitName, acc.Name, err)
			level = FlashWarning
		}
	}
	redirectWithFlash(w, r, detailURL, level, message)
}

// loadFunds transfers amount onto the account from the submitted source
// account, falling back to the configured funding account.
func (h *handlers) loadFunds(r *http.Request, form *forms.FormState, acc *account.Account, amount account.Amount, description string) error {
	sourceCode := form.CleanString(forms.FieldSourceAccount)
	if sourceCode == "" {
		sourceCode = h.opts.FundingCode
	}
	if sourceCode == "" {
		return fmt.Errorf("no funding account configured")
	}
	source, err := h.store().GetByCode(r.Context(), sourceCode)
	if err != nil {
		return fmt.Errorf("funding account %q: %w", sourceCode, err)
	}
	transfer := account.NewTransfer(source.ID, acc.ID, amount, description, actor(r))
	return h.store().Execute(r.Context(), transfer)
}

func (h *handlers) renderAccountForm(w http.ResponseWriter, r *http.Request, status int, acc *account.Account, form *forms.FormState) {
	var action string
	var title string
	if acc != nil {
		action = h.routes().MustReverse(nav.RouteAccountsUpdate, acc.ID.String())
		title = fmt.Sprintf("Update %s '%s'", h.opts.Settings.UnitName, acc.Name)
	} else {
		action = h.routes().MustReverse(nav.RouteAccountsCreate)
		title = "Create " + h.opts.Settings.UnitName
	}

	fragment, err := h.renderer().RenderAccountForm(r.Context(), renderers.AccountFormView{
		Title:   title,
		Account: acc,
		Form:    form,
	}, render.RenderOptions{
		Method: http.MethodPost,
		Action: action,
	})
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.writePage(w, r, status, title, fragment)
}

// accountFormFragment serves the bare create form without the page chrome,
// for hosts that embed the fragment elsewhere. The renderer is resolved by
// name through the registry; the query parameter defaults to the page
// renderer.
func (h *handlers) accountFormFragment(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("renderer")
	if name == "" {
		name = h.renderer().Name()
	}
	fragmentRenderer, err := h.opts.Renderers.Get(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	formOpts, err := h.formOptions(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	form := forms.NewAccountForm(formOpts)
	if fields := r.URL.Query().Get("fields"); fields != "" {
		form = render.Subset(form, strings.Split(fields, ",")...)
	}
	fragment, err := fragmentRenderer.Render(r.Context(), form, render.RenderOptions{
		Method: http.MethodPost,
		Action: h.routes().MustReverse(nav.RouteAccountsCreate),
	})
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", fragmentRenderer.ContentType())
	_, _ = w.Write(fragment)
}

func (h *handlers) detail(w http.ResponseWriter, r *http.Request) {
	acc := h.accountFromPath(w, r)
	if acc == nil {
		return
	}
	transfers, err := h.store().ListTransfers(r.Context(), store.TransferFilter{AccountID: &acc.ID})
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	fragment, err := h.renderer().RenderAccountDetail(r.Context(), renderers.AccountDetailView{
		Account:   acc,
		Transfers: transfers,
	}, render.RenderOptions{})
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.writePage(w, r, http.StatusOK, acc.Name, fragment)
}

func (h *handlers) updateForm(w http.ResponseWriter, r *http.Request) {
	acc := h.accountFromPath(w, r)
	if acc == nil {
		return
	}
	formOpts, err := h.formOptions(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	form := forms.UpdateAccountForm(formOpts)
	forms.FillFromAccount(form, acc)
	h.renderAccountForm(w, r, http.StatusOK, acc, form)
}

func (h *handlers) updateSubmit(w http.ResponseWriter, r *http.Request) {
	acc := h.accountFromPath(w, r)
	if acc == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form submission", http.StatusBadRequest)
		return
	}
	formOpts, err := h.formOptions(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	form := forms.UpdateAccountForm(formOpts)
	form.Bind(r.PostForm)
	forms.CleanAccountForm(form, formOpts)
	if !form.IsValid() {
		h.renderAccountForm(w, r, http.StatusOK, acc, form)
		return
	}

	forms.ApplyToAccount(form, acc)
	if err := h.store().Update(r.Context(), acc); err != nil {
		h.serverError(w, r, err)
		return
	}
	redirectWithFlash(w, r,
		h.routes().MustReverse(nav.RouteAccountsDetail, acc.ID.String()),
		FlashSuccess,
		fmt.Sprintf("%s '%s' updated", h.opts.Settings.UnitName, acc.Name))
}

func (h *handlers) freeze(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, forms.FreezeAccountForm(), "frozen")
}

func (h *handlers) thaw(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, forms.ThawAccountForm(), "re-opened")
}

func (h *handlers) changeStatus(w http.ResponseWriter, r *http.Request, form *forms.FormState, verb string) {
	acc := h.accountFromPath(w, r)
	if acc == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form submission", http.StatusBadRequest)
		return
	}
	form.Bind(r.PostForm)
	forms.CleanStatusForm(form, acc)

	detailURL := h.routes().MustReverse(nav.RouteAccountsDetail, acc.ID.String())
	if !form.IsValid() {
		message := "Status change rejected"
		if errs := form.NonFieldErrors(); len(errs) > 0 {
			message = errs[0]
		}
		redirectWithFlash(w, r, detailURL, FlashError, message)
		return
	}

	target := account.Status(form.CleanString(forms.FieldStatus))
	if err := h.store().SetStatus(r.Context(), acc.ID, target); err != nil {
		h.serverError(w, r, err)
		return
	}
	redirectWithFlash(w, r, detailURL, FlashSuccess,
		fmt.Sprintf("%s '%s' %s", h.opts.Settings.UnitName, acc.Name, verb))
}

func (h *handlers) topUpForm(w http.ResponseWriter, r *http.Request) {
	acc := h.accountFromPath(w, r)
	if acc == nil {
		return
	}
	form := forms.TopUpForm(h.opts.Settings)
	h.renderTopUp(w, r, http.StatusOK, acc, form)
}

func (h *handlers) topUpSubmit(w http.ResponseWriter, r *http.Request) {
	acc := h.accountFromPath(w, r)
	if acc == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form submission", http.StatusBadRequest)
		return
	}
	form := forms.TopUpForm(h.opts.Settings)
	form.Bind(r.PostForm)
	forms.CleanTopUpForm(form, acc, h.opts.Settings)
	if !form.IsValid() {
		h.renderTopUp(w, r, http.StatusOK, acc, form)
		return
	}

	amount, _ := form.CleanAmount(forms.FieldAmount)
	if err := h.loadFunds(r, form, acc, amount, "Top-up"); err != nil {
		form.AddNonFieldError(err.Error())
		h.renderTopUp(w, r, http.StatusOK, acc, form)
		return
	}
	redirectWithFlash(w, r,
		h.routes().MustReverse(nav.RouteAccountsDetail, acc.ID.String()),
		FlashSuccess,
		fmt.Sprintf("%s loaded onto '%s'", h.opts.Settings.FormatAmount(amount), acc.Name))
}

func (h *handlers) renderTopUp(w http.ResponseWriter, r *http.Request, status int, acc *account.Account, form *forms.FormState) {
	title := fmt.Sprintf("Top up '%s'", acc.Name)
	fragment, err := h.renderer().Render(r.Context(), form, render.RenderOptions{
		Method: http.MethodPost,
		Action: h.routes().MustReverse(nav.RouteAccountsTopUp, acc.ID.String()),
	})
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.writePage(w, r, status, title, fragment)
}

func (h *handlers) transferList(w http.ResponseWriter, r *http.Request) {
	transfers, err := h.store().ListTransfers(r.Context(), store.TransferFilter{Limit: 100})
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	accounts := make(map[string]*account.Account)
	for _, t := range transfers {
		for _, id := range []uuid.UUID{t.SourceID, t.DestinationID} {
			key := id.String()
			if _, seen := accounts[key]; seen {
				continue
			}
			acc, err := h.store().Get(r.Context(), id)
			if err != nil {
				continue
			}
			accounts[key] = acc
		}
	}

	title := "Transfers"
	fragment, err := h.renderer().RenderTransferList(r.Context(), renderers.TransferListView{
		Title:     title,
		Transfers: transfers,
		Accounts:  accounts,
	}, render.RenderOptions{})
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.writePage(w, r, http.StatusOK, title, fragment)
}

// transferReverse undoes an executed transfer with a compensating transfer.
// The original record is untouched; the ledger stays append-only.
func (h *handlers) transferReverse(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "transferID"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	original, err := h.store().GetTransfer(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	reversal := account.NewReversal(original, actor(r))
	detailURL := h.routes().MustReverse(nav.RouteTransfersDetail, original.ID.String())
	if err := h.store().Execute(r.Context(), reversal); err != nil {
		redirectWithFlash(w, r, detailURL, FlashError,
			fmt.Sprintf("Transfer %s could not be reversed: %v", original.Reference(), err))
		return
	}
	redirectWithFlash(w, r,
		h.routes().MustReverse(nav.RouteTransfersDetail, reversal.ID.String()),
		FlashSuccess,
		fmt.Sprintf("Transfer %s reversed", original.Reference()))
}

func (h *handlers) transferDetail(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "transferID"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	transfer, err := h.store().GetTransfer(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	source, _ := h.store().Get(r.Context(), transfer.SourceID)
	destination, _ := h.store().Get(r.Context(), transfer.DestinationID)

	title := "Transfer " + transfer.Reference()
	fragment, err := h.renderer().RenderTransferDetail(r.Context(), renderers.TransferDetailView{
		Transfer:    transfer,
		Source:      source,
		Destination: destination,
	}, render.RenderOptions{})
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.writePage(w, r, http.StatusOK, title, fragment)
}
