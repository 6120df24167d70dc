package snapshot

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	position   INTEGER PRIMARY KEY,
	id         TEXT NOT NULL UNIQUE,
	payload    TEXT NOT NULL,
	saved_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS filters (
	name  TEXT PRIMARY KEY,
	value TEXT NOT NULL DEFAULT ''
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
