package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"

	_ "github.com/lib/pq"

	"storefront/model"
)

// Storage keys, matching the two entries the client kept in local storage.
const (
	keyCart    = "cart"
	keySession = "currentUser"
)

// PostgresStore keeps the storefront state in a kv_state table, one JSON
// value per key.
type PostgresStore struct {
	DB     *sql.DB
	Logger *slog.Logger
}

// NewPostgresStore opens a connection and verifies it.
func NewPostgresStore(dsn string, logger *slog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{DB: db, Logger: logger}, nil
}

func (s *PostgresStore) Close() error { return s.DB.Close() }

func (s *PostgresStore) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// load reads the raw JSON for key. Absent keys return (nil, nil).
func (s *PostgresStore) load(key string) ([]byte, error) {
	var raw []byte
	err := s.DB.QueryRow(`SELECT value FROM kv_state WHERE key=$1`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (s *PostgresStore) save(key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(`
		INSERT INTO kv_state (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, key, raw)
	return err
}

// LoadCart returns the persisted cart. Absent or undecodable state loads
// as an empty cart.
func (s *PostgresStore) LoadCart() (model.Cart, error) {
	raw, err := s.load(keyCart)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return model.Cart{}, nil
	}
	var cart model.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		s.logger().Warn("discarding undecodable cart state", slog.String("error", err.Error()))
		return model.Cart{}, nil
	}
	return cart, nil
}

func (s *PostgresStore) SaveCart(cart model.Cart) error {
	if cart == nil {
		cart = model.Cart{}
	}
	return s.save(keyCart, cart)
}

// LoadSession returns the persisted session, or nil for guest state.
// Undecodable state loads as guest.
func (s *PostgresStore) LoadSession() (*model.UserSession, error) {
	raw, err := s.load(keySession)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var sess model.UserSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		s.logger().Warn("discarding undecodable session state", slog.String("error", err.Error()))
		return nil, nil
	}
	return &sess, nil
}

func (s *PostgresStore) SaveSession(sess model.UserSession) error {
	return s.save(keySession, sess)
}

func (s *PostgresStore) ClearSession() error {
	_, err := s.DB.Exec(`DELETE FROM kv_state WHERE key=$1`, keySession)
	return err
}
