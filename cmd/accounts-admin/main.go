// Command accounts-admin is the terminal companion to the dashboard. It
// walks the same account forms as the web UI through interactive prompts,
// and can mint staff tokens for dashboard access.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-accounts/internal/auth"
	"github.com/goliatone/go-accounts/internal/store"
	"github.com/goliatone/go-accounts/pkg/account"
	"github.com/goliatone/go-accounts/pkg/forms"
	"github.com/goliatone/go-accounts/pkg/renderers/tui"
	"github.com/goliatone/go-accounts/pkg/settings"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "create":
		err = runCreate(os.Args[2:])
	case "token":
		err = runToken(os.Args[2:])
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		if errors.Is(err, tui.ErrAborted) {
			fmt.Fprintln(os.Stderr, "aborted")
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: accounts-admin <command> [flags]

Commands:
  create    Interactively create an account (requires DATABASE_URL)
  token     Mint a staff token for dashboard access
`)
}

// runCreate prompts through the account create form and persists the
// result, including the initial transfer from the selected source account.
func runCreate(args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	settingsPath := fs.String("settings", os.Getenv("ACCOUNTS_SETTINGS"), "settings YAML path")
	dsn := fs.String("database-url", os.Getenv("DATABASE_URL"), "postgres connection string")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dsn == "" {
		return fmt.Errorf("create: set DATABASE_URL or -database-url")
	}

	appSettings, err := settings.Load(*settingsPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pg, err := store.Connect(ctx, *dsn)
	cancel()
	if err != nil {
		return err
	}
	defer pg.Close()

	ctx = context.Background()
	formOpts, err := buildFormOptions(ctx, pg, appSettings)
	if err != nil {
		return err
	}

	form := forms.NewAccountForm(formOpts)
	renderer := tui.New()

	for {
		answers, err := renderer.Ask(ctx, form)
		if err != nil {
			return err
		}
		form.Bind(answers)
		forms.CleanAccountForm(form, formOpts)
		if form.IsValid() {
			break
		}
		for _, msg := range form.NonFieldErrors() {
			fmt.Fprintln(os.Stderr, msg)
		}
		for _, field := range form.Fields() {
			for _, msg := range field.Errors {
				fmt.Fprintf(os.Stderr, "%s: %s\n", field.Label, msg)
			}
		}
		fmt.Fprintln(os.Stderr, "please correct the answers above")
	}

	acc := &account.Account{Status: account.StatusOpen}
	forms.ApplyToAccount(form, acc)
	if err := pg.Create(ctx, acc); err != nil {
		return err
	}
	fmt.Printf("created %s %s\n", appSettings.UnitName, acc.ID)

	amount, ok := form.CleanAmount(forms.FieldInitialAmount)
	if !ok || amount <= 0 {
		return nil
	}
	sourceCode := form.CleanString(forms.FieldSourceAccount)
	if sourceCode == "" {
		fmt.Println("no source account selected, skipping initial transfer")
		return nil
	}
	source, err := pg.GetByCode(ctx, sourceCode)
	if err != nil {
		return fmt.Errorf("source account %q: %w", sourceCode, err)
	}
	transfer := account.NewTransfer(source.ID, acc.ID, amount, "Initial deposit", nil)
	if err := pg.Execute(ctx, transfer); err != nil {
		return fmt.Errorf("initial transfer: %w", err)
	}
	fmt.Printf("loaded %s from %q (transfer %s)\n",
		appSettings.FormatAmount(amount), source.Name, transfer.Reference())
	return nil
}

func buildFormOptions(ctx context.Context, st store.Store, appSettings settings.Settings) (forms.AccountFormOptions, error) {
	opts := forms.AccountFormOptions{Settings: appSettings}

	users, err := st.SearchUsers(ctx, "", 100)
	if err != nil {
		return opts, err
	}
	opts.Users = users

	for _, code := range appSettings.SourceCodes {
		acc, err := st.GetByCode(ctx, code)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: source account %q not found\n", code)
			continue
		}
		opts.SourceAccounts = append(opts.SourceAccounts, acc)
	}
	return opts, nil
}

// runToken mints a staff JWT for the given user.
func runToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	userID := fs.String("user", "", "staff user UUID (random if empty)")
	name := fs.String("name", "Admin", "staff display name")
	secret := fs.String("secret", os.Getenv("JWT_SECRET"), "token signing secret")
	expiry := fs.Duration("expiry", 8*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *secret == "" {
		return fmt.Errorf("token: set JWT_SECRET or -secret")
	}

	id := uuid.New()
	if *userID != "" {
		parsed, err := uuid.Parse(*userID)
		if err != nil {
			return fmt.Errorf("token: invalid -user: %w", err)
		}
		id = parsed
	}

	cfg := auth.DefaultConfig(*secret)
	cfg.TokenExpiry = *expiry
	token, err := auth.NewService(cfg).IssueToken(id, *name)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
