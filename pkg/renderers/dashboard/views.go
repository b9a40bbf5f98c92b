package dashboard

import (
	"github.com/goliatone/go-accounts/pkg/account"
	"github.com/goliatone/go-accounts/pkg/forms"
	"github.com/goliatone/go-accounts/pkg/render"
)

// AccountFormView carries the inputs for the create/edit page fragment. Mode
// is derived: edit when Account is set, create otherwise.
type AccountFormView struct {
	Title   string
	Account *account.Account
	Form    *forms.FormState
}

// AccountListView carries the inputs for the account listing fragment.
type AccountListView struct {
	Title       string
	SearchForm  *forms.FormState
	Accounts    []*account.Account
	Description string
}

// AccountDetailView carries the inputs for the account detail fragment.
type AccountDetailView struct {
	Account   *account.Account
	Transfers []*account.Transfer
}

// TransferListView carries the inputs for the transfer listing fragment.
// Accounts resolves posting legs to display labels.
type TransferListView struct {
	Title     string
	Transfers []*account.Transfer
	Accounts  map[string]*account.Account
}

// TransferDetailView carries the inputs for the transfer detail fragment.
type TransferDetailView struct {
	Transfer    *account.Transfer
	Source      *account.Account
	Destination *account.Account
}

// Message is a one-shot notification rendered by the page chrome.
type Message struct {
	Level string
	Text  string
}

// Page wraps a rendered fragment with the data the layout needs.
type Page struct {
	Title    string
	Content  string
	Messages []Message
}

type restrictionGroup struct {
	Title  string
	Fields []string
}

type statusAction struct {
	Label  string
	URL    string
	Hidden []render.HiddenField
}
