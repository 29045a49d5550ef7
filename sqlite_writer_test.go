package coalesce

import (
	"path/filepath"
	"testing"

	"github.com/kentwait/coalesce/tables"
)

func TestSQLiteTableWriter_InitAndWriteRoundTrip(t *testing.T) {
	tc, sampleIDs := simpleS1Tables()
	if len(sampleIDs) == 0 {
		t.Fatal("expected at least one sample")
	}

	path := filepath.Join(t.TempDir(), "replicate.sqlite")
	w := NewSQLiteTableWriter(path)
	if err := w.Init(); err != nil {
		t.Fatal(err)
	}
	if err := w.Write(tc); err != nil {
		t.Fatal(err)
	}

	db, err := OpenSQLiteDB(path, "")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var nodeCount int
	if err := db.QueryRow("select count(*) from nodes").Scan(&nodeCount); err != nil {
		t.Fatal(err)
	}
	if nodeCount != len(tc.Nodes) {
		t.Errorf("expected %d persisted node rows, instead got %d", len(tc.Nodes), nodeCount)
	}

	var edgeCount int
	if err := db.QueryRow("select count(*) from edges").Scan(&edgeCount); err != nil {
		t.Fatal(err)
	}
	if edgeCount != len(tc.Edges) {
		t.Errorf("expected %d persisted edge rows, instead got %d", len(tc.Edges), edgeCount)
	}
}

func TestSQLiteTableWriter_InitIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replicate.sqlite")
	w := NewSQLiteTableWriter(path)
	if err := w.Init(); err != nil {
		t.Fatal(err)
	}
	if err := w.Init(); err != nil {
		t.Fatalf("expected a second Init to succeed via drop-and-recreate, instead got: %v", err)
	}
	if err := w.Write(tables.NewCollection(1)); err != nil {
		t.Fatal(err)
	}
}
