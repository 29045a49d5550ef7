package coalesce

import "github.com/kentwait/coalesce/tables"

// TableWriter persists a finalised table collection to durable storage.
// SQLiteTableWriter and CSVTableWriter are the two implementations
// SPEC_FULL.md names; cmd/coalesce-sim picks one with -logger=csv|sqlite,
// mirroring the teacher's DataLogger interface and its CSVLogger/
// SQLiteLogger pair in bin/contagion/main.go.
type TableWriter interface {
	// Init prepares the destination (schema creation for SQLite, or
	// truncating any pre-existing CSV files for the target replicate).
	Init() error
	// Write persists every row of t.
	Write(t *tables.Collection) error
}

var (
	_ TableWriter = (*SQLiteTableWriter)(nil)
	_ TableWriter = (*CSVTableWriter)(nil)
)
