package repository

import (
	"context"
	"time"

	"github.com/invoicestash/invoicestash/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeliveryRepository handles the emailed/downloaded idempotency markers. Each
// store enforces uniqueness on the (account name, file name) pair; re-marking
// a handled document is a no-op, never a second row.
type DeliveryRepository struct {
	db *gorm.DB
}

// NewDeliveryRepository creates a new DeliveryRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *DeliveryRepository: repository instance bound to db.
func NewDeliveryRepository(db *gorm.DB) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

// MarkEmailed records that a document was sent by mail. Duplicate pairs are
// ignored.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - accountName: source account display name.
//   - fileName: suggested file name.
// Returns:
//   - error: non-nil if the insert fails for a reason other than a duplicate.
func (r *DeliveryRepository) MarkEmailed(ctx context.Context, accountName, fileName string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&domain.EmailedDocument{
		AccountName: accountName,
		FileName:    fileName,
		EmailedAt:   time.Now(),
	}).Error
}

// ListEmailed retrieves all emailed markers.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - []domain.EmailedDocument: all markers.
//   - error: non-nil if the query fails.
func (r *DeliveryRepository) ListEmailed(ctx context.Context) ([]domain.EmailedDocument, error) {
	var records []domain.EmailedDocument
	if err := r.db.WithContext(ctx).Order("emailed_at").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteAllEmailed clears the emailed marker store.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - error: non-nil if the delete fails.
func (r *DeliveryRepository) DeleteAllEmailed(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&domain.EmailedDocument{}).Error
}

// MarkDownloaded records that a document was saved to disk or archive.
// Duplicate pairs are ignored.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - accountName: source account display name.
//   - fileName: suggested file name.
// Returns:
//   - error: non-nil if the insert fails for a reason other than a duplicate.
func (r *DeliveryRepository) MarkDownloaded(ctx context.Context, accountName, fileName string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&domain.DownloadedDocument{
		AccountName:  accountName,
		FileName:     fileName,
		DownloadedAt: time.Now(),
	}).Error
}

// ListDownloaded retrieves all downloaded markers.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - []domain.DownloadedDocument: all markers.
//   - error: non-nil if the query fails.
func (r *DeliveryRepository) ListDownloaded(ctx context.Context) ([]domain.DownloadedDocument, error) {
	var records []domain.DownloadedDocument
	if err := r.db.WithContext(ctx).Order("downloaded_at").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteAllDownloaded clears the downloaded marker store.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - error: non-nil if the delete fails.
func (r *DeliveryRepository) DeleteAllDownloaded(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&domain.DownloadedDocument{}).Error
}
