// Package store caches publication sessions on disk. Tokens are sealed with a
// key derived from the user's passphrase, so a stolen database file is
// useless without it.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/sairammr/TruthCast/internal/common"
	"github.com/sairammr/TruthCast/internal/cryptox"
	"github.com/sairammr/TruthCast/internal/dbx"
	"github.com/sairammr/TruthCast/internal/lens"
	"github.com/sairammr/TruthCast/internal/lens/store/migrations"
)

const (
	saltKey    = "salt"
	sessionKey = "session"
	saltSize   = 16
)

// Store is an encrypted sqlite-backed lens.SessionStore.
type Store struct {
	db  *sql.DB
	key []byte
}

var _ lens.SessionStore = (*Store)(nil)

// Open opens (creating if needed) the session cache at path and derives the
// sealing key from passphrase. The salt is stored unencrypted alongside the
// sealed session, so the same passphrase always reopens the cache.
func Open(ctx context.Context, path string, passphrase []byte) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session cache: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate session cache: %w", err)
	}

	salt, err := loadOrCreateSalt(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, key: cryptox.DeriveKey(passphrase, salt)}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

func loadOrCreateSalt(ctx context.Context, db *sql.DB) ([]byte, error) {
	var salt []byte
	err := db.QueryRowContext(ctx,
		"SELECT value FROM session_cache WHERE key = ?", saltKey).Scan(&salt)
	if err == nil {
		return salt, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read salt: %w", err)
	}

	salt = common.GenerateRandByteArray(saltSize)
	_, err = db.ExecContext(ctx,
		"INSERT INTO session_cache (key, value) VALUES (?, ?)", saltKey, salt)
	if err != nil {
		return nil, fmt.Errorf("store salt: %w", err)
	}
	return salt, nil
}

// Load returns the cached session, common.ErrNotFound when none is cached, or
// an error when the cache cannot be decrypted (wrong passphrase, corruption).
func (s *Store) Load(ctx context.Context) (*lens.Session, error) {
	var value, nonce []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT value, nonce FROM session_cache WHERE key = ?", sessionKey).Scan(&value, &nonce)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var session lens.Session
	if err := cryptox.Open(value, nonce, s.key, &session); err != nil {
		return nil, fmt.Errorf("unseal session: %w", err)
	}
	return &session, nil
}

// Save seals the session and replaces any previously cached one.
func (s *Store) Save(ctx context.Context, session *lens.Session) error {
	value, nonce, err := cryptox.Seal(session, s.key)
	if err != nil {
		return fmt.Errorf("seal session: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO session_cache (key, value, nonce) VALUES (?, ?, ?) "+
				"ON CONFLICT(key) DO UPDATE SET value = excluded.value, nonce = excluded.nonce",
			sessionKey, value, nonce)
		return err
	})
}

// Clear drops the cached session. Clearing an empty cache is not an error.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM session_cache WHERE key = ?", sessionKey)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
