package localdb

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const keyAuthToken = "auth_token"

// ClientDB is the client's only local persistence: a key/value preferences table.
type ClientDB struct {
	db *sql.DB
}

// NewClientDB opens or creates the database at path. ":memory:" works for tests.
func NewClientDB(path string) (*ClientDB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	cdb := &ClientDB{db: db}
	if err := cdb.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return cdb, nil
}

func (c *ClientDB) Close() error {
	return c.db.Close()
}

func (c *ClientDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS preferences (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`
	_, err := c.db.Exec(schema)
	return err
}

// GetPreference returns "" when key is unset.
func (c *ClientDB) GetPreference(key string) (string, error) {
	var value string
	err := c.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (c *ClientDB) SetPreference(key, value string) error {
	_, err := c.db.Exec(`
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value)
	return err
}

func (c *ClientDB) DeletePreference(key string) error {
	_, err := c.db.Exec(`DELETE FROM preferences WHERE key = ?`, key)
	return err
}

func (c *ClientDB) LoadToken() (string, error) {
	return c.GetPreference(keyAuthToken)
}

func (c *ClientDB) SaveToken(token string) error {
	return c.SetPreference(keyAuthToken, token)
}

func (c *ClientDB) ClearToken() error {
	return c.DeletePreference(keyAuthToken)
}
