package provider

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// NewAPIClient builds the resty client API-based scripts share. Sites with a
// billing API need no browser automation at all, so these scripts talk JSON
// directly.
// Parameters:
//   - baseURL: API base URL.
// Returns:
//   - *resty.Client: configured client.
func NewAPIClient(baseURL string) *resty.Client {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("Accept", "application/json")
	// Set timeout to prevent hanging requests
	client.SetTimeout(60 * time.Second)
	client.SetRetryCount(2)
	client.SetRetryWaitTime(2 * time.Second)
	return client
}
