package fork

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
)

// Index is the durable SQLite-backed ledger of fork entries, grounded on
// tk's internal/store/sql.go pragma/schema-version setup. Unlike that
// store, fork entries are small, infrequently-written records with no
// concurrent-writer WAL-replay requirement, so Index skips tk's WAL/lock
// coordination layer and talks to SQLite directly (see DESIGN.md for the
// full justification).
type Index struct {
	db *sql.DB
}

const forkIndexSchemaVersion = 1

// OpenIndex opens (creating if necessary) the SQLite index at path.
func OpenIndex(path string) (*Index, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("fork: open index: %w", err)
	}

	ctx := context.Background()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("fork: ping index: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
		PRAGMA busy_timeout = 10000;
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
	`); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("fork: apply pragmas: %w", err)
	}

	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("fork: read schema version: %w", err)
	}

	if version != forkIndexSchemaVersion {
		if err := rebuildSchema(ctx, db); err != nil {
			_ = db.Close()

			return nil, err
		}
	}

	return &Index{db: db}, nil
}

func rebuildSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("fork: begin schema tx: %w", err)
	}

	statements := []string{
		"DROP TABLE IF EXISTS forks",
		`CREATE TABLE forks (
			fork_id TEXT PRIMARY KEY,
			base_path TEXT NOT NULL,
			work_path TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			last_touched INTEGER NOT NULL,
			recalc_needed INTEGER NOT NULL
		)`,
		fmt.Sprintf("PRAGMA user_version = %d", forkIndexSchemaVersion),
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()

			return fmt.Errorf("fork: schema statement %d: %w", i+1, err)
		}
	}

	return tx.Commit()
}

// Close closes the underlying database handle.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// Save upserts e's registration.
func (idx *Index) Save(e Entry) error {
	_, err := idx.db.Exec(`
		INSERT INTO forks (fork_id, base_path, work_path, created_at, last_touched, recalc_needed)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(fork_id) DO UPDATE SET
			base_path = excluded.base_path,
			work_path = excluded.work_path,
			last_touched = excluded.last_touched,
			recalc_needed = excluded.recalc_needed
	`, e.ForkID, e.BasePath, e.WorkPath, e.CreatedAt.UnixNano(), e.LastTouched.UnixNano(), boolToInt(e.RecalcNeeded))
	if err != nil {
		return fmt.Errorf("fork: save %s: %w", e.ForkID, err)
	}

	return nil
}

// Delete removes forkID's row, if present.
func (idx *Index) Delete(forkID string) error {
	_, err := idx.db.Exec("DELETE FROM forks WHERE fork_id = ?", forkID)
	if err != nil {
		return fmt.Errorf("fork: delete %s: %w", forkID, err)
	}

	return nil
}

// LoadAll returns every persisted entry, used to repopulate the in-memory
// registry on Open.
func (idx *Index) LoadAll() ([]Entry, error) {
	rows, err := idx.db.Query("SELECT fork_id, base_path, work_path, created_at, last_touched, recalc_needed FROM forks")
	if err != nil {
		return nil, fmt.Errorf("fork: load index: %w", err)
	}

	defer func() { _ = rows.Close() }()

	var out []Entry

	for rows.Next() {
		var (
			e            Entry
			createdAt    int64
			lastTouched  int64
			recalcNeeded int
		)

		if err := rows.Scan(&e.ForkID, &e.BasePath, &e.WorkPath, &createdAt, &lastTouched, &recalcNeeded); err != nil {
			return nil, fmt.Errorf("fork: scan index row: %w", err)
		}

		e.CreatedAt = time.Unix(0, createdAt)
		e.LastTouched = time.Unix(0, lastTouched)
		e.RecalcNeeded = recalcNeeded != 0

		out = append(out, e)
	}

	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}
