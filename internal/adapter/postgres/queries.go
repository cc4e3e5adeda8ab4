package postgres

const queryCreateSnapshots = `
	CREATE TABLE IF NOT EXISTS profile_snapshots (
		id           TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		column_count INTEGER NOT NULL,
		columns      JSONB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_profile_snapshots_created
		ON profile_snapshots (created_at DESC)`

// $1 id, $2 name, $3 created_at, $4 column_count, $5 columns.
const queryInsertSnapshot = `
	INSERT INTO profile_snapshots (id, name, created_at, column_count, columns)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		created_at = EXCLUDED.created_at,
		column_count = EXCLUDED.column_count,
		columns = EXCLUDED.columns`

const queryGetSnapshot = `
	SELECT id, name, created_at, columns
	FROM profile_snapshots
	WHERE id = $1`

const queryListSnapshots = `
	SELECT id, name, created_at, column_count
	FROM profile_snapshots
	ORDER BY created_at DESC, id`

const queryDeleteSnapshot = `DELETE FROM profile_snapshots WHERE id = $1`
