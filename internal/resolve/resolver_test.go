package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"ledgerdash/internal/core"
	"ledgerdash/internal/ledger"
	"ledgerdash/internal/snapshot"
)

// fakeStore is an in-memory snapshot tier.
type fakeStore struct {
	snapshots map[string][]byte // name -> data
	listErr   error
	readErr   error
}

func (s *fakeStore) List(context.Context) ([]snapshot.Ref, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var refs []snapshot.Ref
	for name := range s.snapshots {
		date, ok := snapshot.ParseName(name)
		if !ok {
			continue
		}
		refs = append(refs, snapshot.Ref{ID: name, Name: name, Date: date})
	}
	return refs, nil
}

func (s *fakeStore) Read(_ context.Context, ref snapshot.Ref) ([]byte, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	data, ok := s.snapshots[ref.Name]
	if !ok {
		return nil, snapshot.ErrNotFound
	}
	return data, nil
}

type fakeSource struct {
	entries []json.RawMessage
	err     error
	calls   int
}

func (s *fakeSource) FetchPage(context.Context, int, int) ([]json.RawMessage, bool, error) {
	s.calls++
	if s.err != nil {
		return nil, false, s.err
	}
	return s.entries, false, nil
}

func snapshotBytes(t *testing.T, raws ...string) []byte {
	t.Helper()
	entries := make([]json.RawMessage, len(raws))
	for i, r := range raws {
		entries[i] = json.RawMessage(r)
	}
	data, err := snapshot.Encode(entries)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func newPaginator(source ledger.Source) *ledger.Paginator {
	return ledger.NewPaginator(source, ledger.DefaultPaginatorConfig(), nil, nil)
}

const recordOne = `{"id":1,"date":"2024-03-05T00:00:00Z","cost":"50.00"}`
const recordTwo = `{"id":2,"date":"2024-04-01T00:00:00Z","cost":"25.00"}`

func TestResolvePrefersRemote(t *testing.T) {
	remote := &fakeStore{snapshots: map[string][]byte{
		"2024-04-01_expenses.json": snapshotBytes(t, recordOne),
	}}
	local := &fakeStore{snapshots: map[string][]byte{
		"2024-03-01_expenses.json": snapshotBytes(t, recordTwo),
	}}

	r := New(remote, local, nil, nil, true, nil)
	res, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Dataset.Provenance != core.RemoteCache {
		t.Errorf("expected remote provenance, got %v", res.Dataset.Provenance)
	}
	if res.Dataset.Records[0].ID != 1 {
		t.Errorf("expected remote record, got %d", res.Dataset.Records[0].ID)
	}
}

func TestResolveFallsBackToLocal(t *testing.T) {
	remote := &fakeStore{listErr: errors.New("network down")}
	local := &fakeStore{snapshots: map[string][]byte{
		"2024-03-01_expenses.json": snapshotBytes(t, recordTwo),
	}}

	r := New(remote, local, nil, nil, true, nil)
	res, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Dataset.Provenance != core.LocalCache {
		t.Errorf("expected local provenance, got %v", res.Dataset.Provenance)
	}
	if res.Dataset.Records[0].ID != 2 {
		t.Errorf("expected local cache content, got record %d", res.Dataset.Records[0].ID)
	}
}

func TestResolveUnparsableSnapshotFallsThrough(t *testing.T) {
	remote := &fakeStore{snapshots: map[string][]byte{
		"2024-04-01_expenses.json": []byte("{corrupt"),
	}}
	local := &fakeStore{snapshots: map[string][]byte{
		"2024-03-01_expenses.json": snapshotBytes(t, recordTwo),
	}}

	r := New(remote, local, nil, nil, true, nil)
	res, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("unparsable cache must not be fatal: %v", err)
	}
	if res.Dataset.Provenance != core.LocalCache {
		t.Errorf("expected fall-through to local, got %v", res.Dataset.Provenance)
	}
}

func TestResolveLiveWhenAllTiersMiss(t *testing.T) {
	source := &fakeSource{entries: []json.RawMessage{json.RawMessage(recordOne)}}

	r := New(&fakeStore{}, &fakeStore{}, newPaginator(source), nil, true, nil)
	res, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Dataset.Provenance != core.LiveFetch {
		t.Errorf("expected live fetch provenance, got %v", res.Dataset.Provenance)
	}
	if source.calls == 0 {
		t.Error("live source should have been called")
	}
}

func TestResolveCacheDisabledGoesLive(t *testing.T) {
	remote := &fakeStore{snapshots: map[string][]byte{
		"2024-04-01_expenses.json": snapshotBytes(t, recordOne),
	}}
	source := &fakeSource{entries: []json.RawMessage{json.RawMessage(recordTwo)}}

	r := New(remote, nil, newPaginator(source), nil, false, nil)
	res, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Dataset.Provenance != core.LiveFetch {
		t.Errorf("cache disabled must force a live fetch, got %v", res.Dataset.Provenance)
	}
	if source.calls == 0 {
		t.Error("live source should have been called")
	}
}

func TestResolveLiveFailurePropagates(t *testing.T) {
	source := &fakeSource{err: errors.New("boom")}

	r := New(nil, nil, newPaginator(source), nil, true, nil)
	if _, err := r.Resolve(context.Background()); err == nil {
		t.Fatal("live fetch failure must abort the run")
	}
}

func TestResolveNoSourceConfigured(t *testing.T) {
	r := New(&fakeStore{}, &fakeStore{}, nil, nil, true, nil)
	_, err := r.Resolve(context.Background())
	if !errors.Is(err, ErrNoLiveSource) {
		t.Fatalf("expected ErrNoLiveSource, got %v", err)
	}
}

func TestResolveIdempotent(t *testing.T) {
	remote := &fakeStore{snapshots: map[string][]byte{
		"2024-04-01_expenses.json": snapshotBytes(t, recordOne, recordTwo),
	}}

	r := New(remote, nil, nil, nil, true, nil)
	ctx := context.Background()

	first, err := r.Resolve(ctx)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Resolve(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first.Dataset, second.Dataset) {
		t.Error("resolving an unchanged source twice must yield identical datasets")
	}
}

func TestResolvePicksNewestSnapshotByDateMarker(t *testing.T) {
	remote := &fakeStore{snapshots: map[string][]byte{
		"2024-01-15_expenses.json": snapshotBytes(t, recordTwo),
		"2024-04-01_expenses.json": snapshotBytes(t, recordOne),
		"2023-11-30_expenses.json": snapshotBytes(t, recordTwo),
	}}

	r := New(remote, nil, nil, nil, true, nil)
	res, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Dataset.Records[0].ID != 1 {
		t.Errorf("expected content of 2024-04-01 snapshot, got record %d", res.Dataset.Records[0].ID)
	}
}
