package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/invoicestash/invoicestash/internal/domain"
	"github.com/invoicestash/invoicestash/internal/logger"
	"github.com/invoicestash/invoicestash/internal/provider"
	"github.com/invoicestash/invoicestash/internal/repository"
	"github.com/invoicestash/invoicestash/internal/vault"
)

// AccountService manages accounts and the credential indirection between the
// database and the vault. Plaintext credentials exist only in its inputs and
// in ResolvedAccount values handed to fetch runs; the rows it persists carry
// opaque vault references.
type AccountService struct {
	accounts *repository.AccountRepository
	vault    vault.Vault
	logger   *logger.Logger
}

// AccountInput carries the mutable account fields. On update, an empty
// credential field means "keep the stored secret".
type AccountInput struct {
	Name        string `json:"name" binding:"required"`
	ProviderKey string `json:"provider_key" binding:"required"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	AccountID   string `json:"account_id"`
	BusinessID  string `json:"business_id"`
}

// ResolvedAccount pairs an account row with its dereferenced plaintext
// credentials for the duration of one fetch run.
type ResolvedAccount struct {
	Account     domain.Account
	Credentials provider.Credentials
}

// NewAccountService creates a new account service
func NewAccountService(accounts *repository.AccountRepository, v vault.Vault, log *logger.Logger) *AccountService {
	return &AccountService{
		accounts: accounts,
		vault:    v,
		logger:   log,
	}
}

func (s *AccountService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// Create stores a new account, moving every supplied credential into the
// vault before the row is written.
// Parameters:
//   - ctx: context for cancellation.
//   - input: account fields with plaintext credentials.
// Returns:
//   - *domain.Account: the persisted account with vault references.
//   - error: non-nil on vault or database failure.
func (s *AccountService) Create(ctx context.Context, input *AccountInput) (*domain.Account, error) {
	account := &domain.Account{
		ID:          uuid.New().String(),
		Name:        input.Name,
		ProviderKey: input.ProviderKey,
		Secured:     true,
	}

	if err := s.storeCredentials(account, input); err != nil {
		return nil, err
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		s.releaseRefs(ctx, account)
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.log(ctx).WithFields(logger.Fields{
		logger.FieldAccount:  account.Name,
		logger.FieldProvider: account.ProviderKey,
	}).Info("Account created")

	return account, nil
}

// Update modifies an account. Supplied credential fields replace the stored
// secrets; empty fields leave the existing vault references untouched.
// Parameters:
//   - ctx: context for cancellation.
//   - id: account ID.
//   - input: updated fields.
// Returns:
//   - *domain.Account: the updated account.
//   - error: non-nil if the account is missing or persistence fails.
func (s *AccountService) Update(ctx context.Context, id string, input *AccountInput) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	account.Name = input.Name
	account.ProviderKey = input.ProviderKey
	account.Secured = true

	if err := s.replaceCredentials(account, input); err != nil {
		return nil, err
	}

	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}

	s.log(ctx).WithField(logger.FieldAccount, account.Name).Info("Account updated")
	return account, nil
}

// Delete removes an account and releases its vault references first, so a
// failed delete never leaves unreachable secrets behind.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return err
	}

	s.releaseRefs(ctx, account)

	if err := s.accounts.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	s.log(ctx).WithField(logger.FieldAccount, account.Name).Info("Account deleted")
	return nil
}

// List returns all accounts, credential references omitted from JSON by the
// domain model.
func (s *AccountService) List(ctx context.Context) ([]domain.Account, error) {
	return s.accounts.List(ctx)
}

// Get returns a single account by ID.
func (s *AccountService) Get(ctx context.Context, id string) (*domain.Account, error) {
	return s.accounts.GetByID(ctx, id)
}

// Resolve loads an account and dereferences its credentials from the vault.
// Parameters:
//   - ctx: context for cancellation.
//   - id: account ID.
// Returns:
//   - *ResolvedAccount: account with plaintext credentials attached.
//   - error: non-nil if the account or any referenced secret is missing.
func (s *AccountService) Resolve(ctx context.Context, id string) (*ResolvedAccount, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.resolve(account)
}

// ResolveMany loads and dereferences the given accounts, preserving the order
// of the requested IDs. With no IDs, all accounts are resolved.
// Parameters:
//   - ctx: context for cancellation.
//   - ids: account IDs to resolve; empty selects every account.
// Returns:
//   - []ResolvedAccount: resolved accounts in request order.
//   - error: non-nil if loading or dereferencing fails.
func (s *AccountService) ResolveMany(ctx context.Context, ids []string) ([]ResolvedAccount, error) {
	var rows []domain.Account
	var err error
	if len(ids) == 0 {
		rows, err = s.accounts.List(ctx)
	} else {
		rows, err = s.accounts.GetByIDs(ctx, ids)
	}
	if err != nil {
		return nil, err
	}

	if len(ids) > 0 {
		rows = orderAccounts(rows, ids)
	}

	resolved := make([]ResolvedAccount, 0, len(rows))
	for i := range rows {
		r, err := s.resolve(&rows[i])
		if err != nil {
			return nil, fmt.Errorf("failed to resolve credentials for %s: %w", rows[i].Name, err)
		}
		resolved = append(resolved, *r)
	}
	return resolved, nil
}

func (s *AccountService) resolve(account *domain.Account) (*ResolvedAccount, error) {
	creds := provider.Credentials{}

	for _, f := range []struct {
		ref string
		dst *string
	}{
		{account.UsernameRef, &creds.Username},
		{account.PasswordRef, &creds.Password},
		{account.AccountIDRef, &creds.AccountID},
		{account.BusinessIDRef, &creds.BusinessID},
	} {
		if f.ref == "" {
			continue
		}
		secret, err := s.vault.Get(f.ref)
		if err != nil {
			return nil, err
		}
		*f.dst = secret
	}

	return &ResolvedAccount{Account: *account, Credentials: creds}, nil
}

// storeCredentials puts every supplied secret into the vault and records the
// returned references on the account.
func (s *AccountService) storeCredentials(account *domain.Account, input *AccountInput) error {
	for _, f := range []struct {
		secret string
		ref    *string
	}{
		{input.Username, &account.UsernameRef},
		{input.Password, &account.PasswordRef},
		{input.AccountID, &account.AccountIDRef},
		{input.BusinessID, &account.BusinessIDRef},
	} {
		if f.secret == "" {
			continue
		}
		ref, err := s.vault.Put(f.secret)
		if err != nil {
			return fmt.Errorf("failed to store credential: %w", err)
		}
		*f.ref = ref
	}
	return nil
}

// replaceCredentials swaps stored secrets for the supplied ones, leaving
// references untouched where the input field is empty.
func (s *AccountService) replaceCredentials(account *domain.Account, input *AccountInput) error {
	for _, f := range []struct {
		secret string
		ref    *string
	}{
		{input.Username, &account.UsernameRef},
		{input.Password, &account.PasswordRef},
		{input.AccountID, &account.AccountIDRef},
		{input.BusinessID, &account.BusinessIDRef},
	} {
		if f.secret == "" {
			continue
		}
		if *f.ref != "" {
			if err := s.vault.Delete(*f.ref); err != nil && !errors.Is(err, vault.ErrRefNotFound) {
				return fmt.Errorf("failed to release credential: %w", err)
			}
		}
		ref, err := s.vault.Put(f.secret)
		if err != nil {
			return fmt.Errorf("failed to store credential: %w", err)
		}
		*f.ref = ref
	}
	return nil
}

// releaseRefs deletes every vault reference held by the account. Missing
// references are ignored.
func (s *AccountService) releaseRefs(ctx context.Context, account *domain.Account) {
	for _, ref := range account.CredentialRefs() {
		if err := s.vault.Delete(ref); err != nil && !errors.Is(err, vault.ErrRefNotFound) {
			s.log(ctx).WithError(err).WithField(logger.FieldAccount, account.Name).Warn("Failed to release vault reference")
		}
	}
}

// orderAccounts reorders rows to match the requested ID order, dropping IDs
// that no longer exist.
func orderAccounts(rows []domain.Account, ids []string) []domain.Account {
	byID := make(map[string]domain.Account, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	ordered := make([]domain.Account, 0, len(rows))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			ordered = append(ordered, row)
		}
	}
	return ordered
}
