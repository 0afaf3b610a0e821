package moneyflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/invoicestash/invoicestash/internal/artifact"
	"github.com/invoicestash/invoicestash/internal/logger"
	"github.com/invoicestash/invoicestash/internal/provider"
)

const (
	Key   = "moneyflow"
	Label = "MoneyFlow"

	defaultBaseURL = "https://api.moneyflow.example.com"

	// maxParallelDownloads bounds concurrent PDF fetches within one account run.
	maxParallelDownloads = 10
)

// Info is the catalog entry for this provider.
var Info = provider.Info{
	Key:              Key,
	Label:            Label,
	CredentialFields: []string{"username", "password"},
}

// Script fetches invoices through the MoneyFlow billing API. Pure API
// provider: client-credential login, JSON invoice listing, per-invoice PDF
// download. No second factor.
type Script struct {
	pctx    provider.Context
	client  *resty.Client
	log     *logger.Logger
	token   string
	isAuthd bool
}

// New creates a script instance for one fetch run.
func New(pctx provider.Context) provider.Script {
	return &Script{
		pctx:   pctx,
		client: provider.NewAPIClient(defaultBaseURL),
		log:    pctx.Logger.WithField(logger.FieldProvider, Key),
	}
}

// NewWithBaseURL is used by tests to point the script at a stub server.
func NewWithBaseURL(pctx provider.Context, baseURL string) provider.Script {
	s := New(pctx).(*Script)
	s.client.SetBaseURL(baseURL)
	return s
}

func (s *Script) Name() string                   { return Label }
func (s *Script) RequiresTwoFactor() bool        { return false }
func (s *Script) RequiresSecurityQuestion() bool { return false }
func (s *Script) SecurityQuestion() string       { return "" }
func (s *Script) Authenticated() bool            { return s.isAuthd }

// Authenticate is unused for direct-fetch scripts; Fetch performs the login.
func (s *Script) Authenticate(ctx context.Context) (provider.ContinueFunc, error) {
	return s.Fetch, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type invoiceItem struct {
	ID          string `json:"id"`
	Number      string `json:"number"`
	Description string `json:"description"`
	IssuedAt    string `json:"issued_at"`
}

type invoiceListResponse struct {
	Invoices []invoiceItem `json:"invoices"`
}

// Fetch logs in with client credentials, lists invoices in the filter range
// and downloads each PDF.
func (s *Script) Fetch(ctx context.Context, _ string) ([]provider.Document, error) {
	if err := s.login(ctx); err != nil {
		return nil, err
	}

	items, err := s.listInvoices(ctx)
	if err != nil {
		return nil, err
	}

	docs := make([]provider.Document, len(items))
	errs := make([]error, len(items))
	sem := make(chan struct{}, maxParallelDownloads)
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item invoiceItem) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			doc, err := s.downloadInvoice(ctx, item)
			if err != nil {
				errs[i] = err
				return
			}
			docs[i] = doc
		}(i, item)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	s.log.WithField("count", len(docs)).Info("Fetched invoices")
	return docs, nil
}

func (s *Script) login(ctx context.Context) error {
	var token tokenResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBasicAuth(s.pctx.Credentials.Username, s.pctx.Credentials.Password).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		SetResult(&token).
		Post("/oauth/token")
	if err != nil {
		return fmt.Errorf("%w: token request: %v", provider.ErrAuthenticationFailed, err)
	}
	if resp.IsError() || token.AccessToken == "" {
		s.log.WithField("status", resp.StatusCode()).Error("Token request rejected")
		return fmt.Errorf("%w: token request returned %d", provider.ErrAuthenticationFailed, resp.StatusCode())
	}
	s.token = token.AccessToken
	s.isAuthd = true
	return nil
}

func (s *Script) listInvoices(ctx context.Context) ([]invoiceItem, error) {
	req := s.client.R().
		SetContext(ctx).
		SetAuthToken(s.token)
	if s.pctx.Filter.From != nil {
		req.SetQueryParam("from", s.pctx.Filter.From.Format("2006-01-02"))
	}
	if s.pctx.Filter.To != nil {
		req.SetQueryParam("to", s.pctx.Filter.To.Format("2006-01-02"))
	}

	var list invoiceListResponse
	resp, err := req.SetResult(&list).Get("/v1/invoices")
	if err != nil {
		return nil, fmt.Errorf("%w: invoice list: %v", provider.ErrFetchFailed, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: invoice list returned %d", provider.ErrFetchFailed, resp.StatusCode())
	}

	// The API ignores unknown date filters, so apply the range again locally.
	filtered := make([]invoiceItem, 0, len(list.Invoices))
	for _, item := range list.Invoices {
		issued, err := time.Parse("2006-01-02", item.IssuedAt)
		if err == nil && !s.pctx.Filter.Contains(issued) {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered, nil
}

func (s *Script) downloadInvoice(ctx context.Context, item invoiceItem) (provider.Document, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(s.token).
		SetHeader("Accept", "application/pdf").
		Get("/v1/invoices/" + item.ID + "/pdf")
	if err != nil {
		return provider.Document{}, fmt.Errorf("%w: pdf download %s: %v", provider.ErrFetchFailed, item.ID, err)
	}
	if resp.IsError() {
		return provider.Document{}, fmt.Errorf("%w: pdf download %s returned %d", provider.ErrFetchFailed, item.ID, resp.StatusCode())
	}

	var date *time.Time
	if issued, err := time.Parse("2006-01-02", item.IssuedAt); err == nil {
		date = &issued
	}
	return provider.Document{
		Description: item.Description,
		Date:        date,
		FileName:    item.Number + ".pdf",
		Artifact:    artifact.FromBytes(resp.Body()),
	}, nil
}
