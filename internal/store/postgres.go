package store

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goliatone/go-accounts/pkg/account"
)

//go:embed schema.sql
var schemaSQL string

// Postgres is the production Store backed by a pgx connection pool.
type Postgres struct {
	db *pgxpool.Pool

	now func() time.Time
}

var _ Store = (*Postgres)(nil)

// NewPostgres wraps an existing pool. The caller owns the pool's lifecycle.
func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db, now: time.Now}
}

// Connect opens a pool against the DSN and verifies connectivity.
func Connect(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return NewPostgres(pool), nil
}

// Close releases the underlying pool.
func (p *Postgres) Close() { p.db.Close() }

// EnsureSchema creates the tables and indexes when they do not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}

const accountColumns = `
	id, name, code, category, status, description,
	credit_limit, start_date, end_date,
	primary_user_id, secondary_user_ids,
	product_range, can_be_used_for_non_products,
	balance, created_at`

func scanAccount(row pgx.Row) (*account.Account, error) {
	acc := &account.Account{}
	var creditLimit *int64
	err := row.Scan(
		&acc.ID,
		&acc.Name,
		&acc.Code,
		&acc.Category,
		&acc.Status,
		&acc.Description,
		&creditLimit,
		&acc.Start,
		&acc.End,
		&acc.PrimaryUserID,
		&acc.SecondaryUserIDs,
		&acc.ProductRange,
		&acc.CanBeUsedForNonProducts,
		&acc.Balance,
		&acc.DateCreated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("store: scan account: %w", err)
	}
	if creditLimit != nil {
		limit := account.Amount(*creditLimit)
		acc.CreditLimit = &limit
	}
	return acc, nil
}

func creditLimitParam(acc *account.Account) *int64 {
	if acc.CreditLimit == nil {
		return nil
	}
	v := int64(*acc.CreditLimit)
	return &v
}

// Create inserts a new account row.
func (p *Postgres) Create(ctx context.Context, acc *account.Account) error {
	if acc.ID == uuid.Nil {
		acc.ID = uuid.New()
	}
	if acc.DateCreated.IsZero() {
		acc.DateCreated = p.now()
	}
	if acc.Status == "" {
		acc.Status = account.StatusOpen
	}

	query := `
		INSERT INTO accounts (
			id, name, code, category, status, description,
			credit_limit, start_date, end_date,
			primary_user_id, secondary_user_ids,
			product_range, can_be_used_for_non_products,
			balance, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := p.db.Exec(ctx, query,
		acc.ID,
		acc.Name,
		acc.Code,
		acc.Category,
		acc.Status,
		acc.Description,
		creditLimitParam(acc),
		acc.Start,
		acc.End,
		acc.PrimaryUserID,
		acc.SecondaryUserIDs,
		acc.ProductRange,
		acc.CanBeUsedForNonProducts,
		acc.Balance,
		acc.DateCreated,
	)
	if err != nil {
		return fmt.Errorf("store: create account: %w", err)
	}
	return nil
}

// Update rewrites an account's editable columns. Balance and created_at are
// owned by the store and left untouched.
func (p *Postgres) Update(ctx context.Context, acc *account.Account) error {
	query := `
		UPDATE accounts SET
			name = $2,
			code = $3,
			category = $4,
			status = $5,
			description = $6,
			credit_limit = $7,
			start_date = $8,
			end_date = $9,
			primary_user_id = $10,
			secondary_user_ids = $11,
			product_range = $12,
			can_be_used_for_non_products = $13
		WHERE id = $1
	`
	tag, err := p.db.Exec(ctx, query,
		acc.ID,
		acc.Name,
		acc.Code,
		acc.Category,
		acc.Status,
		acc.Description,
		creditLimitParam(acc),
		acc.Start,
		acc.End,
		acc.PrimaryUserID,
		acc.SecondaryUserIDs,
		acc.ProductRange,
		acc.CanBeUsedForNonProducts,
	)
	if err != nil {
		return fmt.Errorf("store: update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return account.ErrNotFound
	}
	return nil
}

// Get retrieves an account by ID.
func (p *Postgres) Get(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `SELECT` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(p.db.QueryRow(ctx, query, id))
}

// GetByCode retrieves an account by its redemption code.
func (p *Postgres) GetByCode(ctx context.Context, code string) (*account.Account, error) {
	query := `SELECT` + accountColumns + ` FROM accounts WHERE lower(code) = lower($1)`
	return scanAccount(p.db.QueryRow(ctx, query, code))
}

// List returns matching accounts ordered by name.
func (p *Postgres) List(ctx context.Context, filter AccountFilter) ([]*account.Account, error) {
	query := `SELECT` + accountColumns + `
		FROM accounts
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR code ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR status = $2)
		  AND ($3 = '' OR category = $3)
		  AND ($4 = '' OR lower(code) = lower($4))
		ORDER BY name, id
	`
	rows, err := p.db.Query(ctx, query, filter.Query, string(filter.Status), filter.Category, filter.Code)
	if err != nil {
		return nil, fmt.Errorf("store: list accounts: %w", err)
	}
	defer rows.Close()

	var out []*account.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list accounts: %w", err)
	}
	return out, nil
}

// SetStatus transitions an account's lifecycle state.
func (p *Postgres) SetStatus(ctx context.Context, id uuid.UUID, status account.Status) error {
	tag, err := p.db.Exec(ctx, `UPDATE accounts SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("store: set status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return account.ErrNotFound
	}
	return nil
}

// lockOrder returns the two account IDs sorted bytewise. Rows are locked in
// this order so concurrent transfers between the same pair of accounts cannot
// deadlock on each other.
func lockOrder(a, b uuid.UUID) [2]uuid.UUID {
	if bytes.Compare(b[:], a[:]) < 0 {
		return [2]uuid.UUID{b, a}
	}
	return [2]uuid.UUID{a, b}
}

// Execute applies a transfer in a single database transaction. Both account
// rows are locked, the move is verified, the sequence assigned, and the
// transfer, postings, and balance updates are committed together.
func (p *Postgres) Execute(ctx context.Context, transfer *account.Transfer) error {
	dbTx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin transfer: %w", err)
	}
	defer dbTx.Rollback(ctx)

	// Rows are locked in ID order so that two concurrent transfers between
	// the same pair of accounts cannot deadlock on each other.
	lockQuery := `SELECT` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	locked := make(map[uuid.UUID]*account.Account, 2)
	for _, id := range lockOrder(transfer.SourceID, transfer.DestinationID) {
		acc, err := scanAccount(dbTx.QueryRow(ctx, lockQuery, id))
		if err != nil {
			return err
		}
		locked[id] = acc
	}
	source := locked[transfer.SourceID]
	destination := locked[transfer.DestinationID]

	at := transfer.DateCreated
	if at.IsZero() {
		at = p.now()
		transfer.DateCreated = at
	}
	if err := account.VerifyTransfer(source, destination, transfer.Amount, at); err != nil {
		return err
	}

	if transfer.ID == uuid.Nil {
		transfer.ID = uuid.New()
	}
	err = dbTx.QueryRow(ctx, `SELECT nextval('transfer_reference_seq')`).Scan(&transfer.Sequence)
	if err != nil {
		return fmt.Errorf("store: assign sequence: %w", err)
	}

	_, err = dbTx.Exec(ctx, `
		INSERT INTO transfers (id, sequence, source_id, destination_id, amount, description, user_id, username, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		transfer.ID,
		transfer.Sequence,
		transfer.SourceID,
		transfer.DestinationID,
		transfer.Amount,
		transfer.Description,
		transfer.UserID,
		transfer.Username,
		transfer.DateCreated,
	)
	if err != nil {
		return fmt.Errorf("store: insert transfer: %w", err)
	}

	for _, posting := range transfer.Postings() {
		_, err = dbTx.Exec(ctx, `
			INSERT INTO postings (id, transfer_id, account_id, amount, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, posting.ID, posting.TransferID, posting.AccountID, posting.Amount, posting.DateCreated)
		if err != nil {
			return fmt.Errorf("store: insert posting: %w", err)
		}
	}

	balanceQuery := `UPDATE accounts SET balance = balance + $2 WHERE id = $1`
	if _, err := dbTx.Exec(ctx, balanceQuery, transfer.SourceID, -transfer.Amount); err != nil {
		return fmt.Errorf("store: debit source: %w", err)
	}
	if _, err := dbTx.Exec(ctx, balanceQuery, transfer.DestinationID, transfer.Amount); err != nil {
		return fmt.Errorf("store: credit destination: %w", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return fmt.Errorf("store: commit transfer: %w", err)
	}
	return nil
}

const transferColumns = `
	id, sequence, source_id, destination_id, amount, description, user_id, username, created_at`

func scanTransfer(row pgx.Row) (*account.Transfer, error) {
	t := &account.Transfer{}
	err := row.Scan(
		&t.ID,
		&t.Sequence,
		&t.SourceID,
		&t.DestinationID,
		&t.Amount,
		&t.Description,
		&t.UserID,
		&t.Username,
		&t.DateCreated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrTransferNotFound
		}
		return nil, fmt.Errorf("store: scan transfer: %w", err)
	}
	return t, nil
}

// GetTransfer retrieves a transfer by ID.
func (p *Postgres) GetTransfer(ctx context.Context, id uuid.UUID) (*account.Transfer, error) {
	query := `SELECT` + transferColumns + ` FROM transfers WHERE id = $1`
	return scanTransfer(p.db.QueryRow(ctx, query, id))
}

// ListTransfers returns transfers newest first.
func (p *Postgres) ListTransfers(ctx context.Context, filter TransferFilter) ([]*account.Transfer, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	query := `SELECT` + transferColumns + `
		FROM transfers
		WHERE ($1::uuid IS NULL OR source_id = $1 OR destination_id = $1)
		ORDER BY sequence DESC
		LIMIT $2
	`
	rows, err := p.db.Query(ctx, query, filter.AccountID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list transfers: %w", err)
	}
	defer rows.Close()

	var out []*account.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list transfers: %w", err)
	}
	return out, nil
}

// GetUser resolves a directory entry by ID.
func (p *Postgres) GetUser(ctx context.Context, id uuid.UUID) (*account.User, error) {
	user := &account.User{}
	err := p.db.QueryRow(ctx, `SELECT id, name, email FROM users WHERE id = $1`, id).
		Scan(&user.ID, &user.Name, &user.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("store: get user: %w", err)
	}
	return user, nil
}

// SearchUsers matches users by name or email, ordered by name.
func (p *Postgres) SearchUsers(ctx context.Context, query string, limit int) ([]account.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := p.db.Query(ctx, `
		SELECT id, name, email
		FROM users
		WHERE $1 = '' OR name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%'
		ORDER BY name
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("store: search users: %w", err)
	}
	defer rows.Close()

	var out []account.User
	for rows.Next() {
		var user account.User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email); err != nil {
			return nil, fmt.Errorf("store: scan user: %w", err)
		}
		out = append(out, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: search users: %w", err)
	}
	return out, nil
}
