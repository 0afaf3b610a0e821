package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/invoicestash/invoicestash/internal/artifact"
	"github.com/invoicestash/invoicestash/internal/domain"
	"github.com/invoicestash/invoicestash/internal/logger"
	"github.com/invoicestash/invoicestash/internal/notify"
	"github.com/invoicestash/invoicestash/internal/provider"
	"github.com/invoicestash/invoicestash/internal/relay"
	"github.com/invoicestash/invoicestash/internal/repository"
)

// ErrSessionRunning is returned when a fetch session is started while another
// one is still in flight. Sessions never overlap.
var ErrSessionRunning = errors.New("a fetch session is already running")

// AccountResult is the per-account outcome of a fetch session. Results are
// reported in the order the accounts were requested.
type AccountResult struct {
	AccountID   string `json:"account_id"`
	AccountName string `json:"account_name"`
	Documents   int    `json:"documents"`
	Error       string `json:"error,omitempty"`
}

// SessionResult summarizes one completed fetch session.
type SessionResult struct {
	SessionID string          `json:"session_id"`
	Results   []AccountResult `json:"results"`
	Documents int             `json:"documents"`
}

// FetchService drives fetch sessions: it resolves credentials, instantiates
// one script per account and walks each through the authentication state
// machine, relaying out-of-band codes through the relay when a script
// suspends. Accounts run strictly one at a time so a human can keep up with
// interleaved code prompts.
type FetchService struct {
	accounts    *AccountService
	accountRepo *repository.AccountRepository
	documents   *repository.DocumentRepository
	settings    *repository.SettingsRepository
	registry    *provider.Registry
	relay       *relay.Relay
	artifacts   *artifact.Table
	notifier    notify.Notifier
	logger      *logger.Logger
	codeTimeout time.Duration

	mu      sync.Mutex
	running bool
}

// FetchConfig holds configuration for the fetch service
type FetchConfig struct {
	// CodeTimeout bounds how long a suspended script waits for a human code.
	CodeTimeout time.Duration
}

// NewFetchService creates a new fetch service
func NewFetchService(
	accounts *AccountService,
	accountRepo *repository.AccountRepository,
	documents *repository.DocumentRepository,
	settings *repository.SettingsRepository,
	registry *provider.Registry,
	codeRelay *relay.Relay,
	artifacts *artifact.Table,
	notifier notify.Notifier,
	log *logger.Logger,
	cfg *FetchConfig,
) *FetchService {
	timeout := cfg.CodeTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &FetchService{
		accounts:    accounts,
		accountRepo: accountRepo,
		documents:   documents,
		settings:    settings,
		registry:    registry,
		relay:       codeRelay,
		artifacts:   artifacts,
		notifier:    notifier,
		logger:      log,
		codeTimeout: timeout,
	}
}

func (s *FetchService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// SubmitCode forwards a human-supplied code to the account's suspended script.
// Submitting for an account that is not waiting is a no-op.
func (s *FetchService) SubmitCode(accountID, code string) {
	s.relay.SubmitCode(accountID, code)
}

// Run executes one fetch session over the selected accounts.
// Parameters:
//   - ctx: cancels the whole session, including suspended code waits.
//   - filter: inclusive issue-date range forwarded to every script.
//   - accountIDs: accounts to fetch, in run order; empty selects all accounts.
// Returns:
//   - *SessionResult: per-account outcomes in request order.
//   - error: ErrSessionRunning, or a setup failure before any account ran.
func (s *FetchService) Run(ctx context.Context, filter domain.DateRange, accountIDs []string) (*SessionResult, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrSessionRunning
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	sessionID := uuid.New().String()
	log := s.log(ctx).WithField(logger.FieldSessionID, sessionID)

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	resolved, err := s.accounts.ResolveMany(ctx, accountIDs)
	if err != nil {
		return nil, err
	}

	// Every session starts from a clean slate: the document table and the
	// artifact table only ever describe the most recent run.
	if err := s.documents.DeleteAll(ctx); err != nil {
		return nil, err
	}
	s.artifacts.Clear()

	result := &SessionResult{SessionID: sessionID}

	for i := range resolved {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		account := &resolved[i]
		s.notifier.Publish(notify.Event{
			Type:        notify.EventFetchProgress,
			AccountID:   account.Account.ID,
			AccountName: account.Account.Name,
		})

		ar := s.runAccount(ctx, log, sessionID, account, filter, *settings)
		result.Results = append(result.Results, ar)
		result.Documents += ar.Documents

		s.notifier.Publish(notify.Event{
			Type:        notify.EventFetchCompleted,
			AccountID:   account.Account.ID,
			AccountName: account.Account.Name,
		})
	}

	log.WithField("documents", result.Documents).Info("Fetch session completed")

	return result, nil
}

// runAccount drives a single account through the state machine and records
// its outcome. Script failures never abort the session.
func (s *FetchService) runAccount(
	ctx context.Context,
	log *logger.Logger,
	sessionID string,
	account *ResolvedAccount,
	filter domain.DateRange,
	settings domain.Settings,
) AccountResult {
	ar := AccountResult{
		AccountID:   account.Account.ID,
		AccountName: account.Account.Name,
	}

	alog := log.WithFields(logger.Fields{
		logger.FieldAccount:  account.Account.Name,
		logger.FieldProvider: account.Account.ProviderKey,
	})

	script, err := s.registry.New(account.Account.ProviderKey, provider.Context{
		Account:     account.Account,
		Credentials: account.Credentials,
		Filter:      filter,
		Settings:    settings,
		Logger:      alog,
	})
	if err != nil {
		alog.WithError(err).Error("No script for provider")
		// No script ran, so neither failure flag applies.
		s.notifier.Publish(notify.Event{
			Type:        notify.EventFetchError,
			AccountID:   account.Account.ID,
			AccountName: account.Account.Name,
			Message:     provider.ErrUnsupportedProvider.Error(),
		})
		ar.Error = provider.ErrUnsupportedProvider.Error()
		return ar
	}

	docs, err := s.runScript(ctx, account, script)
	if err != nil {
		message, authFailure := classify(err, script)
		alog.WithError(err).Error("Account fetch failed")
		return s.fail(ctx, &ar, account, message, authFailure)
	}

	if err := s.storeDocuments(ctx, sessionID, account.Account.Name, docs); err != nil {
		alog.WithError(err).Error("Failed to record documents")
		return s.fail(ctx, &ar, account, provider.ErrFetchFailed.Error(), false)
	}

	if err := s.accountRepo.ClearFailureFlags(ctx, account.Account.ID); err != nil {
		alog.WithError(err).Warn("Failed to clear failure flags")
	}

	ar.Documents = len(docs)
	alog.WithField("documents", len(docs)).Info("Account fetch completed")
	return ar
}

// runScript walks one script through the authentication state machine.
func (s *FetchService) runScript(ctx context.Context, account *ResolvedAccount, script provider.Script) ([]provider.Document, error) {
	if !script.RequiresTwoFactor() {
		return script.Fetch(ctx, "")
	}

	resume, err := script.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	// A 2FA-capable site does not always challenge: a trusted device may go
	// straight through, in which case the continuation runs with no code.
	if script.Authenticated() {
		return resume(ctx, "")
	}

	question := ""
	if script.RequiresSecurityQuestion() {
		question = script.SecurityQuestion()
	}

	codeCtx, cancel := context.WithTimeout(ctx, s.codeTimeout)
	code, err := s.relay.RequestCode(codeCtx, account.Account.ID, account.Account.Name, question)
	cancel()
	if err != nil {
		return nil, err
	}

	return resume(ctx, code)
}

// storeDocuments persists document metadata and parks each artifact in the
// correlation table under the row's ID.
func (s *FetchService) storeDocuments(ctx context.Context, sessionID, accountName string, docs []provider.Document) error {
	for _, d := range docs {
		row := &domain.Document{
			ID:          uuid.New().String(),
			SessionID:   sessionID,
			Description: d.Description,
			IssuedAt:    d.Date,
			AccountName: accountName,
			FileName:    d.FileName,
		}
		if err := s.documents.Create(ctx, row); err != nil {
			return err
		}
		if d.Artifact != nil {
			s.artifacts.Put(row.ID, d.Artifact)
		}
	}
	return nil
}

// fail records a per-account failure: flags on the row, an error event for the
// operator, and the message key on the result.
func (s *FetchService) fail(ctx context.Context, ar *AccountResult, account *ResolvedAccount, message string, authFailure bool) AccountResult {
	var err error
	if authFailure {
		err = s.accountRepo.SetAuthFailed(ctx, account.Account.ID)
	} else {
		err = s.accountRepo.SetFetchFailed(ctx, account.Account.ID)
	}
	if err != nil {
		s.log(ctx).WithError(err).Warn("Failed to persist failure flag")
	}

	s.notifier.Publish(notify.Event{
		Type:        notify.EventFetchError,
		AccountID:   account.Account.ID,
		AccountName: account.Account.Name,
		Message:     message,
	})

	ar.Error = message
	return *ar
}

// classify maps a script failure to a message key and a flag choice. Errors
// outside the sentinel set fall back on how far authentication progressed.
func classify(err error, script provider.Script) (message string, authFailure bool) {
	switch {
	case errors.Is(err, provider.ErrAuthenticationFailed):
		return provider.ErrAuthenticationFailed.Error(), true
	case errors.Is(err, provider.ErrFetchFailed):
		return provider.ErrFetchFailed.Error(), false
	case script.Authenticated():
		return provider.ErrFetchFailed.Error(), false
	default:
		return provider.ErrAuthenticationFailed.Error(), true
	}
}
