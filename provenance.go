package coalesce

import (
	"fmt"
	"strings"
	"time"

	"github.com/kentwait/coalesce/tables"
	"github.com/segmentio/ksuid"
)

// ProvenanceRecord is one stamped entry of a table collection's
// provenance table: a dense, sortable id plus the command and
// parameters that produced the replicate, the same id-stamping pattern
// the teacher's genotypeNode uses (uid ksuid.KSUID, assigned via
// ksuid.New() at construction).
type ProvenanceRecord struct {
	ID        ksuid.KSUID
	Command   string
	Arguments map[string]string
}

// NewProvenanceRecord stamps a new record with a fresh id.
func NewProvenanceRecord(command string, arguments map[string]string) *ProvenanceRecord {
	return &ProvenanceRecord{ID: ksuid.New(), Command: command, Arguments: arguments}
}

// String renders the record as a flat "key=value" line, the encoding
// written into the provenance table's Record column.
func (p *ProvenanceRecord) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "id=%s command=%s", p.ID.String(), p.Command)
	for _, k := range sortedKeys(p.Arguments) {
		fmt.Fprintf(&b, " %s=%s", k, p.Arguments[k])
	}
	return b.String()
}

// sortedKeys returns m's keys in ascending order, so String's output is
// stable across runs with identical arguments.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

// RecordProvenance stamps a ksuid-identified provenance record for the
// command that produced t and appends it to t's provenance table,
// returning the record's id for the caller to echo back to the
// operator (e.g. in a log line or output file name).
func RecordProvenance(t *tables.Collection, command string, arguments map[string]string) ksuid.KSUID {
	rec := NewProvenanceRecord(command, arguments)
	t.AddProvenance(time.Now().UTC().Format(time.RFC3339), rec.String())
	return rec.ID
}
