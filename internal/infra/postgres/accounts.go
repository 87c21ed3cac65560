package postgres

import (
	"context"
	"corequeue/internal/domain"
	"corequeue/internal/ports"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var _ ports.AccountStore = (*Accounts)(nil)

const lookupSQL = `SELECT access_id, secret_key FROM cex_keys
WHERE user_id = $1 AND deleted_at IS NULL
ORDER BY updated_at DESC NULLS LAST, id DESC
LIMIT 1`

const schemaSQL = `CREATE TABLE IF NOT EXISTS cex_keys (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL,
	access_id VARCHAR(100) NOT NULL,
	secret_key VARCHAR(100) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	deleted_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS cex_keys_user_id_idx ON cex_keys (user_id)`

// rowQuerier is the part of pgxpool.Pool the store needs.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Accounts resolves per-user exchange keys from the cex_keys table.
type Accounts struct {
	db   rowQuerier
	pool *pgxpool.Pool
}

func Connect(ctx context.Context, dsn string) (*Accounts, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres connection failed: %w", err)
	}
	log.Ctx(ctx).Info().Msg("connected to postgres")
	return &Accounts{db: pool, pool: pool}, nil
}

func NewAccounts(db rowQuerier) *Accounts { return &Accounts{db: db} }

// EnsureSchema creates the cex_keys table when it is missing.
func (a *Accounts) EnsureSchema(ctx context.Context) error {
	if a.pool == nil {
		return errors.New("ensure schema needs a pool")
	}
	if _, err := a.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create cex_keys: %w", err)
	}
	return nil
}

func (a *Accounts) Lookup(ctx context.Context, userID int64) (domain.Credentials, error) {
	var c domain.Credentials
	err := a.db.QueryRow(ctx, lookupSQL, userID).Scan(&c.AccessID, &c.SecretKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Credentials{}, fmt.Errorf("user %d: %w", userID, domain.ErrAccountNotFound)
		}
		return domain.Credentials{}, fmt.Errorf("lookup keys for user %d: %w", userID, err)
	}
	if c.Empty() {
		return domain.Credentials{}, fmt.Errorf("user %d has empty keys: %w", userID, domain.ErrAccountNotFound)
	}
	return c, nil
}

// Store upserts a user's keys. Used by tests and seeding tools.
func (a *Accounts) Store(ctx context.Context, userID int64, c domain.Credentials) error {
	if a.pool == nil {
		return errors.New("store needs a pool")
	}
	_, err := a.pool.Exec(ctx, `INSERT INTO cex_keys (user_id, access_id, secret_key) VALUES ($1, $2, $3)`,
		userID, c.AccessID, c.SecretKey)
	if err != nil {
		return fmt.Errorf("store keys for user %d: %w", userID, err)
	}
	return nil
}

func (a *Accounts) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
