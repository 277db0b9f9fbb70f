package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/rajivgeraev/flippy-exchange/internal/storage"
)

// timeLayout имеет фиксированную ширину, чтобы строки сортировались как время
const timeLayout = "2006-01-02 15:04:05.000000000"

// Store реализует storage.Storage поверх SQLite
type Store struct {
	db *sqlx.DB
}

var _ storage.Storage = (*Store)(nil)

// New создает хранилище и применяет схему
func New(db *sqlx.DB) (*Store, error) {
	if err := ensureSchema(db); err != nil {
		return nil, fmt.Errorf("ошибка при создании схемы: %w", err)
	}
	return &Store{db: db}, nil
}

// Close закрывает соединение
func (s *Store) Close() error {
	return s.db.Close()
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS categories(
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL UNIQUE CHECK (length(title) <= 255),
  description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS ads(
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
  title TEXT NOT NULL UNIQUE CHECK (length(title) <= 255),
  description TEXT NOT NULL DEFAULT '',
  image_url TEXT NOT NULL DEFAULT '',
  image_public_id TEXT NOT NULL DEFAULT '',
  condition TEXT NOT NULL DEFAULT 'new' CHECK (condition IN ('new','used')),
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ads_owner ON ads(owner_id);
CREATE INDEX IF NOT EXISTS idx_ads_category ON ads(category_id);

CREATE TABLE IF NOT EXISTS exchange_proposals(
  id TEXT PRIMARY KEY,
  sender_ad_id TEXT NOT NULL REFERENCES ads(id) ON DELETE CASCADE,
  receiver_ad_id TEXT NOT NULL REFERENCES ads(id) ON DELETE CASCADE,
  comment TEXT,
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','approved','rejected')),
  created_at TEXT NOT NULL,
  UNIQUE (sender_ad_id, receiver_ad_id),
  CHECK (sender_ad_id <> receiver_ad_id)
);
CREATE INDEX IF NOT EXISTS idx_proposals_receiver ON exchange_proposals(receiver_ad_id);
`
	_, err := db.Exec(schema)
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("некорректное время %q: %w", s, err)
	}
	return t, nil
}

// translate переводит ошибки драйвера в ошибки storage
func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return err
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		if strings.Contains(se.Error(), "exchange_proposals.") {
			return storage.ErrDuplicatePair
		}
		return storage.ErrDuplicateTitle
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return storage.ErrNotFound
	}
	return err
}

func rowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
