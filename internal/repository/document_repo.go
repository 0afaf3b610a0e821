package repository

import (
	"context"

	"github.com/invoicestash/invoicestash/internal/domain"
	"gorm.io/gorm"
)

// DocumentRepository handles the transient document metadata store. The whole
// table is truncated at the start of every fetch session.
type DocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new DocumentRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *DocumentRepository: repository instance bound to db.
func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts a new document metadata row.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - doc: document metadata to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// GetByID retrieves a document by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: document ID.
// Returns:
//   - *domain.Document: document record if found.
//   - error: non-nil if lookup fails.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	var doc domain.Document
	if err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// List retrieves the current result set ordered by creation time.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - []domain.Document: all document rows.
//   - error: non-nil if the query fails.
func (r *DocumentRepository) List(ctx context.Context) ([]domain.Document, error) {
	var docs []domain.Document
	if err := r.db.WithContext(ctx).Order("created_at").Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// DeleteAll truncates the document table.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - error: non-nil if the delete fails.
func (r *DocumentRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&domain.Document{}).Error
}

// DeleteByIDs removes selected documents.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - ids: document IDs to delete.
// Returns:
//   - error: non-nil if the delete fails.
func (r *DocumentRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&domain.Document{}).Error
}

// Count reports the number of document rows.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - int64: row count.
//   - error: non-nil if the query fails.
func (r *DocumentRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Document{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
