package coalesce

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/kentwait/coalesce/tables"
)

// CSVTableWriter is a TableWriter that streams a finalised table
// collection to comma-delimited files, one per relational table, the
// way the teacher's CSVLogger streams each data channel to its own
// ".NNN.X.csv" file via bytes.Buffer and AppendToFile.
type CSVTableWriter struct {
	nodesPath       string
	edgesPath       string
	migrationsPath  string
	sitesPath       string
	mutationsPath   string
	provenancesPath string
}

// NewCSVTableWriter derives one file path per table from basepath, the
// same suffixing scheme as the teacher's CSVLogger.SetBasePath.
func NewCSVTableWriter(basepath string) *CSVTableWriter {
	trimmed := strings.TrimSuffix(basepath, ".")
	return &CSVTableWriter{
		nodesPath:       trimmed + fmt.Sprintf(".%s.csv", "nodes"),
		edgesPath:       trimmed + fmt.Sprintf(".%s.csv", "edges"),
		migrationsPath:  trimmed + fmt.Sprintf(".%s.csv", "migrations"),
		sitesPath:       trimmed + fmt.Sprintf(".%s.csv", "sites"),
		mutationsPath:   trimmed + fmt.Sprintf(".%s.csv", "mutations"),
		provenancesPath: trimmed + fmt.Sprintf(".%s.csv", "provenances"),
	}
}

// Init truncates (or creates) every per-table file so a replicate's
// output can be rewritten idempotently, the CSV equivalent of the
// SQLite writer's drop-and-recreate schema step.
func (w *CSVTableWriter) Init() error {
	for _, path := range []string{w.nodesPath, w.edgesPath, w.migrationsPath, w.sitesPath, w.mutationsPath, w.provenancesPath} {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
		if err != nil {
			return NewLibraryError("csv writer init", err)
		}
		f.Close()
	}
	return nil
}

// Write appends every row of t to its table's file.
func (w *CSVTableWriter) Write(t *tables.Collection) error {
	if err := w.writeNodes(t.Nodes); err != nil {
		return err
	}
	if err := w.writeEdges(t.Edges); err != nil {
		return err
	}
	if err := w.writeMigrations(t.Migrations); err != nil {
		return err
	}
	if err := w.writeSites(t.Sites); err != nil {
		return err
	}
	if err := w.writeMutations(t.Mutations); err != nil {
		return err
	}
	if err := w.writeProvenances(t.Provenances); err != nil {
		return err
	}
	return nil
}

func (w *CSVTableWriter) writeNodes(rows []tables.Node) error {
	// Format: <id>,<flags>,<time>,<population>,<individual>
	const template = "%d,%d,%g,%d,%d\n"
	var b bytes.Buffer
	for i, n := range rows {
		b.WriteString(fmt.Sprintf(template, i, n.Flags, n.Time, n.Population, n.Individual))
	}
	return w.append(w.nodesPath, b)
}

func (w *CSVTableWriter) writeEdges(rows []tables.Edge) error {
	// Format: <id>,<left>,<right>,<parent>,<child>
	const template = "%d,%g,%g,%d,%d\n"
	var b bytes.Buffer
	for i, e := range rows {
		b.WriteString(fmt.Sprintf(template, i, e.Left, e.Right, e.Parent, e.Child))
	}
	return w.append(w.edgesPath, b)
}

func (w *CSVTableWriter) writeMigrations(rows []tables.Migration) error {
	// Format: <id>,<left>,<right>,<node>,<source>,<dest>,<time>
	const template = "%d,%g,%g,%d,%d,%d,%g\n"
	var b bytes.Buffer
	for i, m := range rows {
		b.WriteString(fmt.Sprintf(template, i, m.Left, m.Right, m.Node, m.Source, m.Dest, m.Time))
	}
	return w.append(w.migrationsPath, b)
}

func (w *CSVTableWriter) writeSites(rows []tables.Site) error {
	// Format: <id>,<position>,<ancestral_state>
	const template = "%d,%g,%s\n"
	var b bytes.Buffer
	for i, s := range rows {
		b.WriteString(fmt.Sprintf(template, i, s.Position, s.AncestralState))
	}
	return w.append(w.sitesPath, b)
}

func (w *CSVTableWriter) writeMutations(rows []tables.Mutation) error {
	// Format: <id>,<site>,<node>,<parent>,<derived_state>,<time>
	const template = "%d,%d,%d,%d,%s,%g\n"
	var b bytes.Buffer
	for i, m := range rows {
		b.WriteString(fmt.Sprintf(template, i, m.Site, m.Node, m.Parent, m.DerivedState, m.Time))
	}
	return w.append(w.mutationsPath, b)
}

func (w *CSVTableWriter) writeProvenances(rows []tables.Provenance) error {
	// Format: <id>,<timestamp>,<record>
	const template = "%d,%s,%s\n"
	var b bytes.Buffer
	for i, p := range rows {
		b.WriteString(fmt.Sprintf(template, i, p.Timestamp, p.Record))
	}
	return w.append(w.provenancesPath, b)
}

func (w *CSVTableWriter) append(path string, b bytes.Buffer) error {
	if err := AppendToFile(path, b.Bytes()); err != nil {
		return NewLibraryError("csv writer", err)
	}
	return nil
}

// AppendToFile creates a new file at path if it does not exist, or
// appends to the end of the existing file if it does, the teacher's
// csv_logger.go helper verbatim.
func AppendToFile(path string, b []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(b); err != nil {
		return err
	}
	return f.Sync()
}
