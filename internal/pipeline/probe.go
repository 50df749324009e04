package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/vitrine-labs/vitrine/internal/warehouse"
)

// ProbeResult captures what a read-only storage probe observed. It is
// derived on demand and never cached across a mutation.
type ProbeResult struct {
	DatabaseExists bool
	HasRawSchema   bool
	HasMartsSchema bool
}

// Classify maps a probe observation to a Status. The mapping is total:
//
//	no database file                  -> StatusNotStarted
//	file present, no raw, no marts    -> StatusNotStarted
//	file present, raw, no marts       -> StatusDataLoaded
//	file present, marts               -> StatusDbtBuilt
//
// Marts presence wins regardless of raw: it is taken as proof the transform
// stage completed at least once.
func (r ProbeResult) Classify() Status {
	switch {
	case !r.DatabaseExists:
		return StatusNotStarted
	case r.HasMartsSchema:
		return StatusDbtBuilt
	case r.HasRawSchema:
		return StatusDataLoaded
	default:
		return StatusNotStarted
	}
}

// Probe inspects the persisted store and reports which namespaces hold
// tables. It never mutates storage: the file's existence is checked first,
// and a missing file short-circuits to an all-false result without opening
// a connection. When the file exists a short-lived read-only session is
// opened and closed before returning. An empty namespace counts as absent.
func Probe(ctx context.Context, store warehouse.Store) (ProbeResult, error) {
	var res ProbeResult

	if _, err := os.Stat(store.Path()); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return res, nil
		}
		return res, &StorageAccessError{Op: "stat store", Err: err}
	}
	res.DatabaseExists = true

	sess, err := store.ConnectReadOnly(ctx)
	if err != nil {
		return res, &StorageAccessError{Op: "open store", Err: err}
	}
	defer func() { _ = sess.Close() }()

	rawCount, err := sess.SchemaTableCount(ctx, warehouse.SchemaRaw)
	if err != nil {
		return res, &StorageAccessError{Op: "inspect raw schema", Err: err}
	}
	res.HasRawSchema = rawCount > 0

	martsCount, err := sess.SchemaTableCount(ctx, warehouse.SchemaMarts)
	if err != nil {
		return res, &StorageAccessError{Op: "inspect marts schema", Err: err}
	}
	res.HasMartsSchema = martsCount > 0

	return res, nil
}
