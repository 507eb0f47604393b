package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"

	"ledgerdash/internal/core"
)

// Encode serializes raw entries as a JSON array. HTML escaping is off
// so payload bytes survive a write/read cycle unchanged.
func Encode(entries []json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entries); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeDataset serializes a dataset's original payloads — the backup
// keeps every passthrough field, settlements and zero-cost records
// included.
func EncodeDataset(ds core.Dataset) ([]byte, error) {
	entries := make([]json.RawMessage, len(ds.Records))
	for i, r := range ds.Records {
		entries[i] = r.Raw
	}
	return Encode(entries)
}

// Decode parses snapshot bytes back into raw entries for
// renormalization.
func Decode(data []byte) ([]json.RawMessage, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return entries, nil
}
