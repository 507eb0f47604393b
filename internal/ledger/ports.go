// Package ledger defines the outbound port to the remote ledger service
// and the pagination machinery that drives a full-history live fetch.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrAuth marks a failed or missing credential. Not retryable: the run
// aborts before any further page is requested.
var ErrAuth = errors.New("ledger authentication failed")

// TransientError wraps a network or rate-limit failure that is worth
// retrying under the bounded retry policy.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient ledger error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// Source is the capability the paginator consumes. Implementations are
// HTTP clients for the ledger API; entries come back as raw payloads so
// the normalizer owns all shape decisions.
type Source interface {
	// FetchPage returns one page of raw entries starting at offset.
	// hasMore is false once the history is exhausted.
	FetchPage(ctx context.Context, offset, limit int) (entries []json.RawMessage, hasMore bool, err error)
}
