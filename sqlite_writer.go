package coalesce

import (
	"database/sql"
	"fmt"

	"github.com/kentwait/coalesce/tables"
	// sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

// OpenSQLiteDB establishes a database connection using the given
// connection string, mirroring the teacher's logger.go helper.
func OpenSQLiteDB(path, connectionString string) (*sql.DB, error) {
	dsn := "file:%s%s"
	db, err := sql.Open("sqlite3", fmt.Sprintf(dsn, path, connectionString))
	if err != nil {
		return nil, err
	}
	return db, nil
}

// OpenSQLiteDBOptimized opens path in WAL mode with exclusive locking,
// the write pattern the teacher's SQLiteLogger uses for single-writer
// simulation output.
func OpenSQLiteDBOptimized(path string) (*sql.DB, error) {
	return OpenSQLiteDB(path, "?_journal=WAL&_locking=EXCLUSIVE&_sync=NORMAL")
}

// SQLiteTableWriter persists a finalised table collection to a SQLite
// database, one table per relational table in the collection, written
// inside a single transaction the way the teacher's SQLiteLogger writes
// each package channel under one prepared statement.
type SQLiteTableWriter struct {
	path string
}

// NewSQLiteTableWriter creates a writer targeting the database at path.
func NewSQLiteTableWriter(path string) *SQLiteTableWriter {
	return &SQLiteTableWriter{path: path}
}

// Init creates the schema, dropping and recreating every table so a
// replicate's output can be rewritten idempotently.
func (w *SQLiteTableWriter) Init() error {
	db, err := OpenSQLiteDBOptimized(w.path)
	if err != nil {
		return NewLibraryError("sqlite writer init", err)
	}
	defer db.Close()

	stmts := []string{
		`drop table if exists nodes`,
		`create table nodes (id integer not null primary key, flags integer, time real, population integer, individual integer)`,
		`drop table if exists edges`,
		`create table edges (id integer not null primary key, left real, right real, parent integer, child integer)`,
		`drop table if exists migrations`,
		`create table migrations (id integer not null primary key, left real, right real, node integer, source integer, dest integer, time real)`,
		`drop table if exists sites`,
		`create table sites (id integer not null primary key, position real, ancestral_state text)`,
		`drop table if exists mutations`,
		`create table mutations (id integer not null primary key, site integer, node integer, parent integer, derived_state text, time real)`,
		`drop table if exists populations`,
		`create table populations (id integer not null primary key)`,
		`drop table if exists provenances`,
		`create table provenances (id integer not null primary key, timestamp text, record text)`,
		`drop table if exists meta`,
		`create table meta (key text not null primary key, value text)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return NewLibraryError("sqlite writer init", fmt.Errorf("%q: %s", err, s))
		}
	}
	return nil
}

// Write persists every row of t inside one transaction.
func (w *SQLiteTableWriter) Write(t *tables.Collection) error {
	db, err := OpenSQLiteDBOptimized(w.path)
	if err != nil {
		return NewLibraryError("sqlite writer", err)
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return NewLibraryError("sqlite writer", err)
	}

	if err := writeRows(tx, "insert into nodes(id, flags, time, population, individual) values(?,?,?,?,?)",
		len(t.Nodes), func(i int, stmt *sql.Stmt) error {
			n := t.Nodes[i]
			_, err := stmt.Exec(i, n.Flags, n.Time, n.Population, n.Individual)
			return err
		}); err != nil {
		tx.Rollback()
		return err
	}

	if err := writeRows(tx, "insert into edges(id, left, right, parent, child) values(?,?,?,?,?)",
		len(t.Edges), func(i int, stmt *sql.Stmt) error {
			e := t.Edges[i]
			_, err := stmt.Exec(i, e.Left, e.Right, e.Parent, e.Child)
			return err
		}); err != nil {
		tx.Rollback()
		return err
	}

	if err := writeRows(tx, "insert into migrations(id, left, right, node, source, dest, time) values(?,?,?,?,?,?,?)",
		len(t.Migrations), func(i int, stmt *sql.Stmt) error {
			m := t.Migrations[i]
			_, err := stmt.Exec(i, m.Left, m.Right, m.Node, m.Source, m.Dest, m.Time)
			return err
		}); err != nil {
		tx.Rollback()
		return err
	}

	if err := writeRows(tx, "insert into sites(id, position, ancestral_state) values(?,?,?)",
		len(t.Sites), func(i int, stmt *sql.Stmt) error {
			s := t.Sites[i]
			_, err := stmt.Exec(i, s.Position, s.AncestralState)
			return err
		}); err != nil {
		tx.Rollback()
		return err
	}

	if err := writeRows(tx, "insert into mutations(id, site, node, parent, derived_state, time) values(?,?,?,?,?,?)",
		len(t.Mutations), func(i int, stmt *sql.Stmt) error {
			m := t.Mutations[i]
			_, err := stmt.Exec(i, m.Site, m.Node, m.Parent, m.DerivedState, m.Time)
			return err
		}); err != nil {
		tx.Rollback()
		return err
	}

	if err := writeRows(tx, "insert into provenances(id, timestamp, record) values(?,?,?)",
		len(t.Provenances), func(i int, stmt *sql.Stmt) error {
			p := t.Provenances[i]
			_, err := stmt.Exec(i, p.Timestamp, p.Record)
			return err
		}); err != nil {
		tx.Rollback()
		return err
	}

	if _, err := tx.Exec("insert into meta(key, value) values('sequence_length', ?)", fmt.Sprintf("%g", t.SequenceLength)); err != nil {
		tx.Rollback()
		return NewLibraryError("sqlite writer", err)
	}

	return tx.Commit()
}

// LoadSQLiteTables reads a table collection previously persisted by
// SQLiteTableWriter.Write back from path, the reverse of Write, for
// tools (e.g. cmd/coalesce-loglik) that score a replicate written by an
// earlier cmd/coalesce-sim run.
func LoadSQLiteTables(path string) (*tables.Collection, error) {
	db, err := OpenSQLiteDB(path, "?mode=ro")
	if err != nil {
		return nil, NewLibraryError("sqlite reader", err)
	}
	defer db.Close()

	var sequenceLength float64
	if err := db.QueryRow("select value from meta where key = 'sequence_length'").Scan(&sequenceLength); err != nil {
		return nil, NewLibraryError("sqlite reader", fmt.Errorf("reading sequence_length: %s", err))
	}
	t := tables.NewCollection(sequenceLength)

	nodeRows, err := db.Query("select flags, time, population, individual from nodes order by id")
	if err != nil {
		return nil, NewLibraryError("sqlite reader", err)
	}
	for nodeRows.Next() {
		var flags uint32
		var tm float64
		var pop, ind int32
		if err := nodeRows.Scan(&flags, &tm, &pop, &ind); err != nil {
			nodeRows.Close()
			return nil, NewLibraryError("sqlite reader", err)
		}
		t.AddNode(flags, tm, pop, ind, nil)
	}
	nodeRows.Close()

	edgeRows, err := db.Query("select left, right, parent, child from edges order by id")
	if err != nil {
		return nil, NewLibraryError("sqlite reader", err)
	}
	for edgeRows.Next() {
		var left, right float64
		var parent, child int32
		if err := edgeRows.Scan(&left, &right, &parent, &child); err != nil {
			edgeRows.Close()
			return nil, NewLibraryError("sqlite reader", err)
		}
		t.AddEdge(left, right, parent, child)
	}
	edgeRows.Close()

	migRows, err := db.Query("select left, right, node, source, dest, time from migrations order by id")
	if err != nil {
		return nil, NewLibraryError("sqlite reader", err)
	}
	for migRows.Next() {
		var left, right, tm float64
		var node, source, dest int32
		if err := migRows.Scan(&left, &right, &node, &source, &dest, &tm); err != nil {
			migRows.Close()
			return nil, NewLibraryError("sqlite reader", err)
		}
		t.AddMigration(left, right, node, source, dest, tm)
	}
	migRows.Close()

	siteRows, err := db.Query("select position, ancestral_state from sites order by id")
	if err != nil {
		return nil, NewLibraryError("sqlite reader", err)
	}
	for siteRows.Next() {
		var position float64
		var ancestralState string
		if err := siteRows.Scan(&position, &ancestralState); err != nil {
			siteRows.Close()
			return nil, NewLibraryError("sqlite reader", err)
		}
		t.Sites = append(t.Sites, tables.Site{Position: position, AncestralState: ancestralState})
	}
	siteRows.Close()

	mutRows, err := db.Query("select site, node, parent, derived_state, time from mutations order by id")
	if err != nil {
		return nil, NewLibraryError("sqlite reader", err)
	}
	for mutRows.Next() {
		var site, node, parent int32
		var derivedState string
		var tm float64
		if err := mutRows.Scan(&site, &node, &parent, &derivedState, &tm); err != nil {
			mutRows.Close()
			return nil, NewLibraryError("sqlite reader", err)
		}
		t.AddMutation(site, node, parent, derivedState, tm, nil)
	}
	mutRows.Close()

	provRows, err := db.Query("select timestamp, record from provenances order by id")
	if err != nil {
		return nil, NewLibraryError("sqlite reader", err)
	}
	for provRows.Next() {
		var timestamp, record string
		if err := provRows.Scan(&timestamp, &record); err != nil {
			provRows.Close()
			return nil, NewLibraryError("sqlite reader", err)
		}
		t.AddProvenance(timestamp, record)
	}
	provRows.Close()

	return t, nil
}

// writeRows prepares stmt once and execs it for every row index via
// execRow, the same prepared-statement-in-one-transaction pattern the
// teacher's Write* logger methods use.
func writeRows(tx *sql.Tx, stmt string, n int, execRow func(i int, stmt *sql.Stmt) error) error {
	prepared, err := tx.Prepare(stmt)
	if err != nil {
		return NewLibraryError("sqlite writer", err)
	}
	defer prepared.Close()
	for i := 0; i < n; i++ {
		if err := execRow(i, prepared); err != nil {
			return NewLibraryError("sqlite writer", err)
		}
	}
	return nil
}
