package trips

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// NewSQLite opens (or creates) a trip store in the SQLite file at dbPath.
func NewSQLite(dbPath string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open trips db: %w", err)
	}
	return newSQLStore(db, false)
}
