package sqlite

import "github.com/goalcal/goalcal/internal/storage/migrations"

// schemaMigrations is the full schema history of the key-value database.
var schemaMigrations = []migrations.Migration{
	{
		Version:     1,
		Description: "create kv table",
		Up: `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL,
    updated_at INTEGER NOT NULL
)`,
	},
}
