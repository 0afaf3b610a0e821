package repository

import (
	"context"

	"github.com/invoicestash/invoicestash/internal/domain"
	"gorm.io/gorm"
)

// AccountRepository handles account record persistence. Credential indirection
// is the account service's job; this layer only ever sees vault references.
type AccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new AccountRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *AccountRepository: repository instance bound to db.
func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - account: account record to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

// Update saves an existing account record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - account: account record with updated fields.
// Returns:
//   - error: non-nil if the update fails.
func (r *AccountRepository) Update(ctx context.Context, account *domain.Account) error {
	return r.db.WithContext(ctx).Save(account).Error
}

// GetByID retrieves an account by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: account ID.
// Returns:
//   - *domain.Account: account record if found.
//   - error: non-nil if lookup fails.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	var account domain.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByIDs retrieves accounts for a list of IDs. Order is not guaranteed.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - ids: account IDs to look up.
// Returns:
//   - []domain.Account: matching account records.
//   - error: non-nil if the query fails.
func (r *AccountRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Account, error) {
	if len(ids) == 0 {
		return []domain.Account{}, nil
	}
	var accounts []domain.Account
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// List retrieves all accounts ordered by name.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - []domain.Account: all account records.
//   - error: non-nil if the query fails.
func (r *AccountRepository) List(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	if err := r.db.WithContext(ctx).Order("name").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// Delete removes an account by ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: account ID to delete.
// Returns:
//   - error: non-nil if the delete fails.
func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.Account{}, "id = ?", id).Error
}

// SetAuthFailed sets the authentication-failure flag on an account.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: account ID.
// Returns:
//   - error: non-nil if the update fails.
func (r *AccountRepository) SetAuthFailed(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.Account{}).
		Where("id = ?", id).
		Update("auth_failed", true).Error
}

// SetFetchFailed sets the fetch-failure flag on an account.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: account ID.
// Returns:
//   - error: non-nil if the update fails.
func (r *AccountRepository) SetFetchFailed(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.Account{}).
		Where("id = ?", id).
		Update("fetch_failed", true).Error
}

// ClearFailureFlags clears both failure flags after a successful fetch.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: account ID.
// Returns:
//   - error: non-nil if the update fails.
func (r *AccountRepository) ClearFailureFlags(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"auth_failed": false, "fetch_failed": false}).Error
}
