package splitwise

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ledgerdash/internal/ledger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{})
	if !errors.Is(err, ledger.ErrAuth) {
		t.Fatalf("expected auth error for missing key, got %v", err)
	}
}

func TestFetchPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		if got := r.URL.Query().Get("offset"); got != "40" {
			t.Errorf("unexpected offset %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "2" {
			t.Errorf("unexpected limit %q", got)
		}
		w.Write([]byte(`{"expenses":[{"id":1},{"id":2}]}`))
	})

	entries, hasMore, err := client.FetchPage(context.Background(), 40, 2)
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
	if !hasMore {
		t.Error("a full page should report hasMore")
	}
}

func TestFetchPageShortPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"expenses":[{"id":1}]}`))
	})

	entries, hasMore, err := client.FetchPage(context.Background(), 0, 10)
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}
	if len(entries) != 1 || hasMore {
		t.Errorf("short page should report no more entries, got %d hasMore=%v", len(entries), hasMore)
	}
}

func TestFetchPageGroupID(t *testing.T) {
	var gotGroup string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotGroup = r.URL.Query().Get("group_id")
		w.Write([]byte(`{"expenses":[]}`))
	})
	client.config.GroupID = 42

	if _, _, err := client.FetchPage(context.Background(), 0, 10); err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}
	if gotGroup != "42" {
		t.Errorf("expected group_id=42, got %q", gotGroup)
	}
}

func TestFetchPageAuthStatus(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})
		_, _, err := client.FetchPage(context.Background(), 0, 10)
		if !errors.Is(err, ledger.ErrAuth) {
			t.Errorf("status %d: expected auth error, got %v", status, err)
		}
		if ledger.IsTransient(err) {
			t.Errorf("status %d: auth errors must not be transient", status)
		}
	}
}

func TestFetchPageTransientStatus(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway} {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})
		_, _, err := client.FetchPage(context.Background(), 0, 10)
		if !ledger.IsTransient(err) {
			t.Errorf("status %d: expected transient error, got %v", status, err)
		}
	}
}

func TestFetchPageNetworkErrorTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client, err := NewClient(Config{APIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	_, _, err = client.FetchPage(context.Background(), 0, 10)
	if !ledger.IsTransient(err) {
		t.Errorf("network failure should be transient, got %v", err)
	}
}
