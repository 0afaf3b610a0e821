package domain

import "time"

// Account represents one configured billing source the user fetches documents from.
// Credential columns never hold plaintext: once Secured is set they contain opaque
// vault references generated by the account service.
type Account struct {
	ID            string    `gorm:"type:text;primaryKey" json:"id"`
	Name          string    `gorm:"type:text;not null" json:"name"`
	ProviderKey   string    `gorm:"type:text;not null;index:idx_accounts_provider" json:"provider_key"`
	UsernameRef   string    `gorm:"type:text" json:"-"`
	PasswordRef   string    `gorm:"type:text" json:"-"`
	AccountIDRef  string    `gorm:"type:text" json:"-"`
	BusinessIDRef string    `gorm:"type:text" json:"-"`
	Secured       bool      `gorm:"default:false" json:"secured"`
	AuthFailed    bool      `gorm:"default:false" json:"auth_failed"`
	FetchFailed   bool      `gorm:"default:false" json:"fetch_failed"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName returns the database table name for Account.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (Account) TableName() string {
	return "accounts"
}

// CredentialRefs returns the non-empty vault references held by the account.
func (a *Account) CredentialRefs() []string {
	refs := make([]string, 0, 4)
	for _, ref := range []string{a.UsernameRef, a.PasswordRef, a.AccountIDRef, a.BusinessIDRef} {
		if ref != "" {
			refs = append(refs, ref)
		}
	}
	return refs
}

// DateRange is the inclusive issue-date filter applied to a fetch session.
// A nil bound leaves that side of the range open.
type DateRange struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// Contains reports whether t falls within the range.
// Parameters:
//   - t: issue date to test.
// Returns:
//   - bool: true when t is within both bounds.
func (r DateRange) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

// ParseDateRange parses optional "2006-01-02" bounds into an inclusive range.
// The upper bound is widened to the end of its day.
// Parameters:
//   - from: lower bound, empty to leave open.
//   - to: upper bound, empty to leave open.
// Returns:
//   - DateRange: parsed range.
//   - error: when either bound is not a valid date.
func ParseDateRange(from, to string) (DateRange, error) {
	var r DateRange
	if from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return r, err
		}
		r.From = &t
	}
	if to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return r, err
		}
		t = t.Add(24*time.Hour - time.Nanosecond)
		r.To = &t
	}
	return r, nil
}
