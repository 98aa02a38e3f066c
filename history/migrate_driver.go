package history

import (
	"database/sql"
	"fmt"
	"io"
	"sync"

	"github.com/golang-migrate/migrate/v4/database"
)

// sqliteDriver is a minimal golang-migrate database.Driver for a
// modernc.org/sqlite-backed *sql.DB. golang-migrate ships its own
// database/sqlite3 driver, but that package is built against
// mattn/go-sqlite3's cgo binding; using it here would reintroduce the cgo
// dependency modernc.org/sqlite was chosen specifically to avoid. Every
// method of the database.Driver interface is implemented.
type sqliteDriver struct {
	mu sync.Mutex
	db *sql.DB
}

func newSQLiteDriver(db *sql.DB) (database.Driver, error) {
	d := &sqliteDriver{db: db}
	if err := d.ensureVersionTable(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *sqliteDriver) ensureVersionTable() error {
	_, err := d.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER NOT NULL PRIMARY KEY,
		dirty   INTEGER NOT NULL
	)`)
	return err
}

// Open is never called: the driver is always constructed via
// newSQLiteDriver against an already-open *sql.DB.
func (d *sqliteDriver) Open(url string) (database.Driver, error) {
	return nil, fmt.Errorf("jct/history: sqliteDriver.Open is unsupported; use newSQLiteDriver")
}

func (d *sqliteDriver) Close() error { return nil }

// Lock and Unlock guard against concurrent migrate.Up calls within this
// process; this harness never runs migrations from more than one process
// against the same database file, so no cross-process advisory lock is
// implemented.
func (d *sqliteDriver) Lock() error {
	d.mu.Lock()
	return nil
}

func (d *sqliteDriver) Unlock() error {
	d.mu.Unlock()
	return nil
}

func (d *sqliteDriver) Run(migration io.Reader) error {
	stmt, err := io.ReadAll(migration)
	if err != nil {
		return err
	}
	_, err = d.db.Exec(string(stmt))
	return err
}

func (d *sqliteDriver) SetVersion(version int, dirty bool) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM schema_migrations"); err != nil {
		tx.Rollback()
		return err
	}
	if version >= 0 {
		if _, err := tx.Exec("INSERT INTO schema_migrations (version, dirty) VALUES (?, ?)", version, boolToInt(dirty)); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (d *sqliteDriver) Version() (int, bool, error) {
	var version int
	var dirty int
	err := d.db.QueryRow("SELECT version, dirty FROM schema_migrations LIMIT 1").Scan(&version, &dirty)
	if err == sql.ErrNoRows {
		return -1, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return version, dirty != 0, nil
}

func (d *sqliteDriver) Drop() error {
	rows, err := d.db.Query("SELECT name FROM sqlite_master WHERE type = 'table'")
	if err != nil {
		return err
	}
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return err
		}
		tables = append(tables, name)
	}
	rows.Close()
	for _, name := range tables {
		if _, err := d.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %q", name)); err != nil {
			return err
		}
	}
	return nil
}
