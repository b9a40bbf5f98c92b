package dashboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/goliatone/go-accounts/internal/store"
	"github.com/goliatone/go-accounts/pkg/account"
	"github.com/goliatone/go-accounts/pkg/forms"
	"github.com/goliatone/go-accounts/pkg/render"
	renderers "github.com/goliatone/go-accounts/pkg/renderers/dashboard"
	"github.com/goliatone/go-accounts/pkg/settings"
)

func testSettings() settings.Settings {
	s := settings.Default()
	s.CurrencySymbol = "£"
	s.SourceCodes = []string{"BANK"}
	return s
}

type fixture struct {
	store  *store.Memory
	router chi.Router
	bank   *account.Account
}

func newFixture(t *testing.T, fns ...OptionFn) *fixture {
	t.Helper()
	mem := store.NewMemory()
	bank := &account.Account{Name: "Bank", Code: "BANK", Status: account.StatusOpen, Balance: 1000000}
	if err := mem.Create(context.Background(), bank); err != nil {
		t.Fatalf("seed bank account: %v", err)
	}

	s := testSettings()
	renderer, err := renderers.New(renderers.WithSettings(s))
	if err != nil {
		t.Fatalf("build renderer: %v", err)
	}

	opts := append([]OptionFn{
		WithStore(mem),
		WithRenderer(renderer),
		WithSettings(s),
	}, fns...)
	component, err := New(opts...)
	if err != nil {
		t.Fatalf("build component: %v", err)
	}

	router := chi.NewRouter()
	if err := component.RegisterRoutes(router); err != nil {
		t.Fatalf("register routes: %v", err)
	}
	return &fixture{store: mem, router: router, bank: bank}
}

func (f *fixture) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) post(t *testing.T, target string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) createAccount(t *testing.T, name string) *account.Account {
	t.Helper()
	acc := &account.Account{Name: name, Status: account.StatusOpen}
	if err := f.store.Create(context.Background(), acc); err != nil {
		t.Fatalf("create account %q: %v", name, err)
	}
	return acc
}

func TestListPage(t *testing.T) {
	f := newFixture(t)
	f.createAccount(t, "Gift card")

	rec := f.get(t, "/dashboard/accounts/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Gift card") {
		t.Error("listing does not show the account name")
	}
	if !strings.Contains(body, "Create new account") {
		t.Error("listing does not link the create page")
	}
}

func TestListPage_SearchDescription(t *testing.T) {
	f := newFixture(t)
	f.createAccount(t, "Gift card")
	f.createAccount(t, "Budget")

	rec := f.get(t, "/dashboard/accounts/?name=gift")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Accounts matching &#39;gift&#39;") &&
		!strings.Contains(body, "Accounts matching 'gift'") {
		t.Error("search description missing from results panel")
	}
	if strings.Contains(body, "Budget") {
		t.Error("filtered listing still shows non-matching account")
	}
}

func TestCreateForm(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/dashboard/accounts/create/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, marker := range []string{
		`data-field="name"`,
		`data-field="initial_amount"`,
		`data-field="source_account"`,
		"Initial transaction",
		"Restrictions",
	} {
		if !strings.Contains(body, marker) {
			t.Errorf("create form missing %q", marker)
		}
	}
}

func TestCreateSubmit_Valid(t *testing.T) {
	f := newFixture(t)

	rec := f.post(t, "/dashboard/accounts/create/", url.Values{
		"name":           {"Gift card"},
		"description":    {"Promo"},
		"source_account": {"BANK"},
		"initial_amount": {"25.00"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303; body: %s", rec.Code, rec.Body.String())
	}

	location, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse redirect: %v", err)
	}
	if !strings.HasPrefix(location.Path, "/dashboard/accounts/") {
		t.Fatalf("redirect path = %q", location.Path)
	}
	if flash := location.Query().Get("flash"); !strings.Contains(flash, "created") {
		t.Errorf("flash = %q", flash)
	}

	accounts, err := f.store.List(context.Background(), store.AccountFilter{Query: "Gift card"})
	if err != nil || len(accounts) != 1 {
		t.Fatalf("stored accounts = %v, err = %v", accounts, err)
	}
	created := accounts[0]
	if created.Balance != 2500 {
		t.Errorf("balance = %d, want 2500 after initial transfer", created.Balance)
	}

	bank, _ := f.store.Get(context.Background(), f.bank.ID)
	if bank.Balance != 1000000-2500 {
		t.Errorf("bank balance = %d, want %d", bank.Balance, 1000000-2500)
	}

	transfers, _ := f.store.ListTransfers(context.Background(), store.TransferFilter{AccountID: &created.ID})
	if len(transfers) != 1 || transfers[0].Description != "Initial deposit" {
		t.Errorf("transfers = %+v", transfers)
	}
}

func TestCreateSubmit_Invalid(t *testing.T) {
	f := newFixture(t)

	rec := f.post(t, "/dashboard/accounts/create/", url.Values{
		"description":    {"no name"},
		"source_account": {"BANK"},
		"initial_amount": {"25.00"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 re-render", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Name is required") {
		t.Error("validation message missing from re-rendered form")
	}

	accounts, _ := f.store.List(context.Background(), store.AccountFilter{})
	if len(accounts) != 1 { // just the seeded bank
		t.Errorf("accounts = %d, want only the seeded bank", len(accounts))
	}
}

func TestUpdateFlow(t *testing.T) {
	f := newFixture(t)
	acc := f.createAccount(t, "Gift card")

	rec := f.get(t, "/dashboard/accounts/"+acc.ID.String()+"/update/")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET update status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `value="Gift card"`) {
		t.Error("edit form not seeded with current name")
	}

	rec = f.post(t, "/dashboard/accounts/"+acc.ID.String()+"/update/", url.Values{
		"name": {"Renamed card"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("POST update status = %d; body: %s", rec.Code, rec.Body.String())
	}

	updated, _ := f.store.Get(context.Background(), acc.ID)
	if updated.Name != "Renamed card" {
		t.Errorf("name = %q, want %q", updated.Name, "Renamed card")
	}
}

func TestDetailPage(t *testing.T) {
	f := newFixture(t)
	acc := f.createAccount(t, "Gift card")

	rec := f.get(t, "/dashboard/accounts/"+acc.ID.String()+"/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Gift card") {
		t.Error("detail page missing account name")
	}
	if !strings.Contains(body, "Freeze") {
		t.Error("open account detail missing freeze action")
	}
}

func TestDetailPage_UnknownAccount(t *testing.T) {
	f := newFixture(t)
	rec := f.get(t, "/dashboard/accounts/"+uuid.NewString()+"/")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestFreezeAndThaw(t *testing.T) {
	f := newFixture(t)
	acc := f.createAccount(t, "Gift card")

	rec := f.post(t, "/dashboard/accounts/"+acc.ID.String()+"/freeze/", url.Values{
		"status": {"Frozen"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("freeze status = %d", rec.Code)
	}
	frozen, _ := f.store.Get(context.Background(), acc.ID)
	if !frozen.IsFrozen() {
		t.Fatalf("status = %s, want Frozen", frozen.Status)
	}

	// Freezing again is rejected with an error flash.
	rec = f.post(t, "/dashboard/accounts/"+acc.ID.String()+"/freeze/", url.Values{
		"status": {"Frozen"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("second freeze status = %d", rec.Code)
	}
	location, _ := url.Parse(rec.Header().Get("Location"))
	if location.Query().Get("flash_level") != FlashError {
		t.Errorf("flash_level = %q, want %q", location.Query().Get("flash_level"), FlashError)
	}

	rec = f.post(t, "/dashboard/accounts/"+acc.ID.String()+"/thaw/", url.Values{
		"status": {"Open"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("thaw status = %d", rec.Code)
	}
	thawed, _ := f.store.Get(context.Background(), acc.ID)
	if !thawed.IsOpen() {
		t.Errorf("status = %s, want Open", thawed.Status)
	}
}

func TestTopUp(t *testing.T) {
	f := newFixture(t)
	acc := f.createAccount(t, "Gift card")

	rec := f.get(t, "/dashboard/accounts/"+acc.ID.String()+"/top-up/")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET top-up status = %d", rec.Code)
	}

	rec = f.post(t, "/dashboard/accounts/"+acc.ID.String()+"/top-up/", url.Values{
		"amount": {"10.00"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("POST top-up status = %d; body: %s", rec.Code, rec.Body.String())
	}

	topped, _ := f.store.Get(context.Background(), acc.ID)
	if topped.Balance != 1000 {
		t.Errorf("balance = %d, want 1000", topped.Balance)
	}
}

func TestTopUp_InvalidAmount(t *testing.T) {
	f := newFixture(t)
	acc := f.createAccount(t, "Gift card")

	rec := f.post(t, "/dashboard/accounts/"+acc.ID.String()+"/top-up/", url.Values{
		"amount": {"lots"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 re-render", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Enter a valid amount") {
		t.Error("validation message missing")
	}
}

func TestTransferPages(t *testing.T) {
	f := newFixture(t)
	acc := f.createAccount(t, "Gift card")
	transfer := account.NewTransfer(f.bank.ID, acc.ID, 500, "seed", nil)
	if err := f.store.Execute(context.Background(), transfer); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	rec := f.get(t, "/dashboard/transfers/")
	if rec.Code != http.StatusOK {
		t.Fatalf("transfer list status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), transfer.Reference()) {
		t.Error("transfer list missing reference")
	}

	rec = f.get(t, "/dashboard/transfers/"+transfer.ID.String()+"/")
	if rec.Code != http.StatusOK {
		t.Fatalf("transfer detail status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Bank") || !strings.Contains(body, "Gift card") {
		t.Error("transfer detail missing account labels")
	}
	if !strings.Contains(body, "/dashboard/transfers/"+transfer.ID.String()+"/reverse/") {
		t.Error("transfer detail missing the reverse action")
	}
}

func TestTransferReverse(t *testing.T) {
	f := newFixture(t)
	acc := f.createAccount(t, "Gift card")
	transfer := account.NewTransfer(f.bank.ID, acc.ID, 500, "seed", nil)
	if err := f.store.Execute(context.Background(), transfer); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	rec := f.post(t, "/dashboard/transfers/"+transfer.ID.String()+"/reverse/", url.Values{})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse redirect: %v", err)
	}
	if !strings.Contains(loc.Query().Get("flash"), "reversed") {
		t.Errorf("flash = %q, want a reversal confirmation", loc.Query().Get("flash"))
	}

	refreshed, err := f.store.Get(context.Background(), acc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if refreshed.Balance != 0 {
		t.Errorf("balance after reversal = %d, want 0", refreshed.Balance)
	}
	bank, err := f.store.Get(context.Background(), f.bank.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if bank.Balance != 1000000 {
		t.Errorf("bank balance after reversal = %d, want 1000000", bank.Balance)
	}

	transfers, err := f.store.ListTransfers(context.Background(), store.TransferFilter{})
	if err != nil {
		t.Fatalf("ListTransfers: %v", err)
	}
	if len(transfers) != 2 {
		t.Fatalf("transfer count = %d, want original plus reversal", len(transfers))
	}
	reversal := transfers[0]
	if reversal.SourceID != acc.ID || reversal.DestinationID != f.bank.ID {
		t.Error("reversal legs do not mirror the original")
	}
	if want := "Reversal of transfer " + transfer.Reference(); reversal.Description != want {
		t.Errorf("Description = %q, want %q", reversal.Description, want)
	}
}

func TestTransferReverse_InsufficientFunds(t *testing.T) {
	f := newFixture(t)
	limit := account.Amount(0)
	acc := &account.Account{Name: "Gift card", Status: account.StatusOpen, CreditLimit: &limit}
	if err := f.store.Create(context.Background(), acc); err != nil {
		t.Fatalf("create account: %v", err)
	}
	transfer := account.NewTransfer(f.bank.ID, acc.ID, 500, "seed", nil)
	if err := f.store.Execute(context.Background(), transfer); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	spend := account.NewTransfer(acc.ID, f.bank.ID, 400, "spend", nil)
	if err := f.store.Execute(context.Background(), spend); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	rec := f.post(t, "/dashboard/transfers/"+transfer.ID.String()+"/reverse/", url.Values{})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse redirect: %v", err)
	}
	if loc.Query().Get("flash_level") != FlashError {
		t.Errorf("flash_level = %q, want error", loc.Query().Get("flash_level"))
	}

	transfers, err := f.store.ListTransfers(context.Background(), store.TransferFilter{})
	if err != nil {
		t.Fatalf("ListTransfers: %v", err)
	}
	if len(transfers) != 2 {
		t.Fatalf("failed reversal must not record a transfer, got %d", len(transfers))
	}
}

type stubRenderer struct{}

func (stubRenderer) Name() string        { return "stub" }
func (stubRenderer) ContentType() string { return "text/plain" }

func (stubRenderer) Render(_ context.Context, form *forms.FormState, _ render.RenderOptions) ([]byte, error) {
	names := make([]string, 0, len(form.Fields()))
	for _, field := range form.Fields() {
		names = append(names, field.Name)
	}
	return []byte(strings.Join(names, "\n")), nil
}

func TestAccountFormFragment(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/dashboard/api/account-form/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `data-field="name"`) {
		t.Error("fragment missing the name field")
	}
	if strings.Contains(body, "<title>") {
		t.Error("fragment must not include the page chrome")
	}

	rec = f.get(t, "/dashboard/api/account-form/?fields=name,description")
	if rec.Code != http.StatusOK {
		t.Fatalf("subset status = %d, want 200", rec.Code)
	}
	body = rec.Body.String()
	if !strings.Contains(body, `data-field="name"`) || !strings.Contains(body, `data-field="description"`) {
		t.Error("subset fragment missing requested fields")
	}
	if strings.Contains(body, `data-field="initial_amount"`) {
		t.Error("subset fragment includes an unrequested field")
	}

	rec = f.get(t, "/dashboard/api/account-form/?renderer=nope")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown renderer status = %d, want 404", rec.Code)
	}
}

func TestAccountFormFragment_RegistryRenderer(t *testing.T) {
	registry := render.NewRegistry()
	registry.MustRegister(stubRenderer{})
	f := newFixture(t, WithRendererRegistry(registry))

	rec := f.get(t, "/dashboard/api/account-form/?renderer=stub")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/plain" {
		t.Errorf("Content-Type = %q, want text/plain", got)
	}
	if !strings.Contains(rec.Body.String(), "name") {
		t.Error("registry renderer did not receive the form")
	}
}

func TestIndexRedirects(t *testing.T) {
	f := newFixture(t)
	rec := f.get(t, "/dashboard/")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard/accounts/" {
		t.Errorf("Location = %q", loc)
	}
}

func TestGuardApplied(t *testing.T) {
	guard := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "denied", http.StatusUnauthorized)
		})
	}
	f := newFixture(t, WithGuard(guard))

	rec := f.get(t, "/dashboard/accounts/")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestNew_RequiresStoreAndRenderer(t *testing.T) {
	if _, err := New(); err == nil {
		t.Error("expected error without store")
	}
	renderer, err := renderers.New()
	if err != nil {
		t.Fatalf("build renderer: %v", err)
	}
	if _, err := New(WithRenderer(renderer)); err == nil {
		t.Error("expected error without store")
	}
	if _, err := New(WithStore(store.NewMemory())); err == nil {
		t.Error("expected error without renderer")
	}
}
