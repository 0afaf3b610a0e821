package domain

import "time"

// Default settings values seeded on first start.
const (
	DefaultFileNameFormat = "[suggested-filename]"
	DefaultDateFormat     = "2-1-2006"
)

// Settings is the single persisted configuration row.
// FileNameFormat supports the placeholders [suggested-filename], [description],
// [date] and [website-name]; DateFormat is a Go reference layout used when
// rendering [date].
type Settings struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	FileNameFormat string    `gorm:"type:text" json:"file_name_format"`
	DateFormat     string    `gorm:"type:text" json:"date_format"`
	DebugMode      bool      `gorm:"default:false" json:"debug_mode"`
	LicenseKey     string    `gorm:"type:text" json:"license_key"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName returns the database table name for Settings.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (Settings) TableName() string {
	return "settings"
}
