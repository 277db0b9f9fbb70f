package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rajivgeraev/flippy-exchange/internal/storage"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"

	pairConstraint = "exchange_proposals_pair_key"
)

// Store реализует storage.Storage поверх PostgreSQL
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Storage = (*Store)(nil)

// New создает хранилище поверх готового пула соединений
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close закрывает пул соединений
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// querier общий набор методов пула и транзакции
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Migrate создает таблицы, если их еще нет
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS categories (
    id UUID PRIMARY KEY,
    title VARCHAR(255) NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS ads (
    id UUID PRIMARY KEY,
    owner_id UUID NOT NULL,
    category_id UUID NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
    title VARCHAR(255) NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT '',
    image_url TEXT NOT NULL DEFAULT '',
    image_public_id TEXT NOT NULL DEFAULT '',
    condition VARCHAR(8) NOT NULL DEFAULT 'new' CHECK (condition IN ('new', 'used')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_ads_owner ON ads(owner_id);
CREATE INDEX IF NOT EXISTS idx_ads_category ON ads(category_id);

CREATE TABLE IF NOT EXISTS exchange_proposals (
    id UUID PRIMARY KEY,
    sender_ad_id UUID NOT NULL REFERENCES ads(id) ON DELETE CASCADE,
    receiver_ad_id UUID NOT NULL REFERENCES ads(id) ON DELETE CASCADE,
    comment TEXT,
    status VARCHAR(16) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT exchange_proposals_pair_key UNIQUE (sender_ad_id, receiver_ad_id),
    CONSTRAINT exchange_proposals_distinct_ads CHECK (sender_ad_id <> receiver_ad_id)
);
CREATE INDEX IF NOT EXISTS idx_proposals_receiver ON exchange_proposals(receiver_ad_id);
`)
	if err != nil {
		return fmt.Errorf("ошибка при создании схемы: %w", err)
	}
	return nil
}

// translate переводит ошибки драйвера в ошибки storage
func translate(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		if pgErr.ConstraintName == pairConstraint {
			return storage.ErrDuplicatePair
		}
		return storage.ErrDuplicateTitle
	case codeForeignKeyViolation:
		return storage.ErrNotFound
	}
	return err
}
