package domain

import "time"

// Document represents one discovered billing document's metadata.
// The whole table is truncated at the start of every fetch session, so rows
// always belong to the most recent run. The binary artifact itself is never
// stored here; it lives in the in-process correlation table under the same ID.
type Document struct {
	ID          string     `gorm:"type:text;primaryKey" json:"id"`
	SessionID   string     `gorm:"type:text;index:idx_documents_session" json:"session_id"`
	Description string     `gorm:"type:text" json:"description"`
	IssuedAt    *time.Time `json:"issued_at,omitempty"`
	AccountName string     `gorm:"type:text;not null" json:"account_name"`
	FileName    string     `gorm:"type:text;not null" json:"file_name"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TableName returns the database table name for Document.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (Document) TableName() string {
	return "documents"
}
