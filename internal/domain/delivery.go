package domain

import "time"

// EmailedDocument marks a document as already sent by mail. The
// (account name, file name) pair is unique; re-inserting the same pair is a
// no-op so the UI can show "already handled" without consulting the transient
// document table.
type EmailedDocument struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AccountName string    `gorm:"type:text;not null;uniqueIndex:idx_emailed_combination" json:"account_name"`
	FileName    string    `gorm:"type:text;not null;uniqueIndex:idx_emailed_combination" json:"file_name"`
	EmailedAt   time.Time `json:"emailed_at"`
}

// TableName returns the database table name for EmailedDocument.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (EmailedDocument) TableName() string {
	return "emailed_documents"
}

// DownloadedDocument marks a document as already saved to disk or archive.
// Same uniqueness contract as EmailedDocument.
type DownloadedDocument struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AccountName  string    `gorm:"type:text;not null;uniqueIndex:idx_downloaded_combination" json:"account_name"`
	FileName     string    `gorm:"type:text;not null;uniqueIndex:idx_downloaded_combination" json:"file_name"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

// TableName returns the database table name for DownloadedDocument.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (DownloadedDocument) TableName() string {
	return "downloaded_documents"
}
