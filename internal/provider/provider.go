package provider

import (
	"context"
	"time"

	"github.com/invoicestash/invoicestash/internal/artifact"
	"github.com/invoicestash/invoicestash/internal/domain"
	"github.com/invoicestash/invoicestash/internal/logger"
)

// Credentials holds the plaintext credential fields dereferenced from the
// vault for the duration of one fetch run. They exist only inside the script
// execution and are never persisted.
type Credentials struct {
	Username   string
	Password   string
	AccountID  string
	BusinessID string
}

// Document is one billing document discovered by a script, with its binary
// artifact already fetched into memory or onto a temp path.
type Document struct {
	Description string
	Date        *time.Time // nil when the source cannot expose an issue date
	FileName    string
	Artifact    *artifact.Artifact
}

// Context carries everything a script needs for one fetch run.
type Context struct {
	Account     domain.Account
	Credentials Credentials
	Filter      domain.DateRange
	Settings    domain.Settings
	Logger      *logger.Logger
}

// ContinueFunc resumes a suspended authentication with a human-supplied
// one-time code or security-question answer and performs the fetch.
type ContinueFunc func(ctx context.Context, code string) ([]Document, error)

// Script is the capability contract every site automation implements. A
// script is instantiated per fetch run and driven by the orchestrator's
// state machine; it is never reused across accounts or sessions.
type Script interface {
	// Name returns a human-readable name for logging.
	// Parameters: none.
	// Returns:
	//   - string: display-friendly script name.
	Name() string

	// RequiresTwoFactor reports whether authentication may need a second
	// factor. Static per script.
	// Parameters: none.
	// Returns:
	//   - bool: true when Authenticate must be called before fetching.
	RequiresTwoFactor() bool

	// RequiresSecurityQuestion reports whether the pending code request is a
	// security question rather than a one-time code. Only meaningful after
	// Authenticate has been attempted once.
	// Parameters: none.
	// Returns:
	//   - bool: true when SecurityQuestion carries the question text.
	RequiresSecurityQuestion() bool

	// SecurityQuestion returns the question text to relay to the operator.
	// Parameters: none.
	// Returns:
	//   - string: question text, empty when not applicable.
	SecurityQuestion() string

	// Authenticated reports how far authentication has progressed. The script
	// mutates this itself; the orchestrator uses it both as a transition guard
	// (2FA-capable script whose account did not need a second factor this
	// time) and to classify failures.
	// Parameters: none.
	// Returns:
	//   - bool: true once login fully succeeded.
	Authenticated() bool

	// Authenticate performs login up to the point where a human-supplied value
	// may be needed, and returns the continuation to invoke with that value.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	// Returns:
	//   - ContinueFunc: continuation that completes the fetch.
	//   - err: ErrAuthenticationFailed on unrecoverable login failure.
	Authenticate(ctx context.Context) (ContinueFunc, error)

	// Fetch is the direct entry point for scripts without two-factor
	// authentication. It logs in, enumerates documents in the filter range and
	// fetches each artifact.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - code: unused for direct fetches; present for contract symmetry.
	// Returns:
	//   - docs: zero or more documents with artifacts attached.
	//   - err: ErrAuthenticationFailed or ErrFetchFailed.
	Fetch(ctx context.Context, code string) ([]Document, error)
}

// Factory creates a script instance for one fetch run.
type Factory func(pctx Context) Script
