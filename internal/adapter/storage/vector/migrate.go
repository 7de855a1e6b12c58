package vector

import "database/sql"

// migrate creates the schema if it doesn't exist. Every record lives in one
// table keyed by (collection, id); scope holds the owning area id for entity
// collections and the conversation page for chat history.
func migrate(db *sql.DB) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS records (
			collection TEXT NOT NULL,
			id         TEXT NOT NULL,
			scope      TEXT NOT NULL DEFAULT '',
			name       TEXT NOT NULL DEFAULT '',
			payload    TEXT NOT NULL,
			embedding  BLOB,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (collection, id)
		);

		CREATE INDEX IF NOT EXISTS idx_records_scope ON records(collection, scope);
	`
	_, err := db.Exec(schema)
	return err
}
