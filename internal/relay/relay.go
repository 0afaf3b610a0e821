package relay

import (
	"context"
	"errors"
	"sync"

	"github.com/invoicestash/invoicestash/internal/notify"
)

// ErrSuperseded is returned to a waiter whose pending slot was overwritten by
// a newer request for the same account.
var ErrSuperseded = errors.New("relay: code request superseded")

type pendingRequest struct {
	code       chan string
	superseded chan struct{}
}

// Relay is the out-of-band handshake that suspends a script mid-authentication
// until a human supplies a one-time code or security-question answer. At most
// one request is pending per account; a second request for the same account
// takes over the slot and fails the first waiter. SubmitCode may be called
// from any goroutine concurrently with the waiter.
type Relay struct {
	notifier notify.Notifier

	mu      sync.Mutex
	pending map[string]*pendingRequest
}

// New creates a relay publishing code requests to the given notifier.
// Parameters:
//   - notifier: sink for the operator-facing code-request event.
// Returns:
//   - *Relay: initialized relay.
func New(notifier notify.Notifier) *Relay {
	return &Relay{
		notifier: notifier,
		pending:  make(map[string]*pendingRequest),
	}
}

// RequestCode notifies the operator and blocks until SubmitCode delivers a
// value for the account, the request is superseded, or ctx expires.
// Parameters:
//   - ctx: bounds the wait; its deadline is the code timeout.
//   - accountID: key for the pending slot.
//   - accountName: display name carried in the notification.
//   - question: security-question text, empty for a plain one-time code.
// Returns:
//   - string: the human-supplied value.
//   - error: ErrSuperseded or the context error.
func (r *Relay) RequestCode(ctx context.Context, accountID, accountName, question string) (string, error) {
	req := &pendingRequest{
		code:       make(chan string, 1),
		superseded: make(chan struct{}),
	}

	r.mu.Lock()
	if prev, ok := r.pending[accountID]; ok {
		close(prev.superseded)
	}
	r.pending[accountID] = req
	r.mu.Unlock()

	r.notifier.Publish(notify.Event{
		Type:        notify.EventCodeRequested,
		AccountID:   accountID,
		AccountName: accountName,
		Question:    question,
	})

	select {
	case code := <-req.code:
		return code, nil
	case <-req.superseded:
		return "", ErrSuperseded
	case <-ctx.Done():
		r.remove(accountID, req)
		return "", ctx.Err()
	}
}

// SubmitCode resumes the waiter registered for an account. The pending entry
// is removed and resumed atomically; submitting for an unknown account is a
// silent no-op.
// Parameters:
//   - accountID: key of the pending slot.
//   - code: human-supplied value.
// Returns: none.
func (r *Relay) SubmitCode(accountID, code string) {
	r.mu.Lock()
	req, ok := r.pending[accountID]
	if ok {
		delete(r.pending, accountID)
	}
	r.mu.Unlock()
	if ok {
		req.code <- code
	}
}

// Pending reports whether a request is waiting for the account.
func (r *Relay) Pending(accountID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pending[accountID]
	return ok
}

// remove drops the slot only if it still belongs to this request.
func (r *Relay) remove(accountID string, req *pendingRequest) {
	r.mu.Lock()
	if cur, ok := r.pending[accountID]; ok && cur == req {
		delete(r.pending, accountID)
	}
	r.mu.Unlock()
}
