// Package snapshot defines the cache-tier ports and the on-disk/remote
// backup format: a JSON array of raw ledger payloads, written with a
// date-prefixed name so lexicographic order equals recency.
package snapshot

import (
	"context"
	"errors"
	"regexp"
	"time"
)

// ErrNotFound marks an empty or missing snapshot at a tier. The
// resolver treats it as a cache miss and falls through.
var ErrNotFound = errors.New("snapshot not found")

// Suffix is the fixed tail of every snapshot name.
const Suffix = "_expenses.json"

// namePattern matches "YYYY-MM-DD_expenses.json".
var namePattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})_expenses\.json$`)

// Ref identifies one stored snapshot. Date is the embedded YYYY-MM-DD
// marker; recency comparisons use it, never filesystem metadata. ID is
// store-specific (a path, a remote file id).
type Ref struct {
	ID   string
	Name string
	Date string
}

// Store is the read side of a cache tier.
type Store interface {
	// List returns every snapshot the tier holds, in any order.
	List(ctx context.Context) ([]Ref, error)

	// Read returns the snapshot bytes, or ErrNotFound.
	Read(ctx context.Context, ref Ref) ([]byte, error)
}

// Writer is the persistence side. Only successful runs write; a failed
// run must leave every existing snapshot untouched.
type Writer interface {
	Write(ctx context.Context, name string, data []byte) (Ref, error)
}

// Name builds the snapshot name for a run date.
func Name(date time.Time) string {
	return date.Format("2006-01-02") + Suffix
}

// ParseName extracts the embedded date marker, rejecting foreign files.
func ParseName(name string) (string, bool) {
	m := namePattern.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Latest picks the most recent snapshot by date-string comparison
// (ISO 8601 dates sort correctly as strings); name order breaks ties.
// ok is false when refs is empty.
func Latest(refs []Ref) (Ref, bool) {
	var best Ref
	ok := false
	for _, r := range refs {
		if !ok || r.Date > best.Date || (r.Date == best.Date && r.Name > best.Name) {
			best = r
			ok = true
		}
	}
	return best, ok
}
