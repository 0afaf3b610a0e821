package service

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/invoicestash/invoicestash/internal/artifact"
	"github.com/invoicestash/invoicestash/internal/domain"
	"github.com/invoicestash/invoicestash/internal/logger"
	"github.com/invoicestash/invoicestash/internal/mail"
	"github.com/invoicestash/invoicestash/internal/repository"
	"github.com/invoicestash/invoicestash/internal/storage"
)

// DocumentService serves the documents of the most recent fetch session and
// delivers them: into the archive on download, over SMTP on mail. Every
// delivery is recorded so the UI can mark documents already handled.
type DocumentService struct {
	documents  *repository.DocumentRepository
	deliveries *repository.DeliveryRepository
	settings   *repository.SettingsRepository
	artifacts  *artifact.Table
	archive    storage.ObjectStorage
	sender     mail.Sender
	logger     *logger.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(
	documents *repository.DocumentRepository,
	deliveries *repository.DeliveryRepository,
	settings *repository.SettingsRepository,
	artifacts *artifact.Table,
	archive storage.ObjectStorage,
	sender mail.Sender,
	log *logger.Logger,
) *DocumentService {
	return &DocumentService{
		documents:  documents,
		deliveries: deliveries,
		settings:   settings,
		artifacts:  artifacts,
		archive:    archive,
		sender:     sender,
		logger:     log,
	}
}

func (s *DocumentService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// List returns the documents of the most recent fetch session.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	return s.documents.List(ctx)
}

// DeleteAll removes every document row. Artifacts stay in the correlation
// table until the next session clears them.
func (s *DocumentService) DeleteAll(ctx context.Context) error {
	return s.documents.DeleteAll(ctx)
}

// Delete removes the given document rows.
func (s *DocumentService) Delete(ctx context.Context, ids []string) error {
	return s.documents.DeleteByIDs(ctx, ids)
}

// Download stores a document's artifact in the archive under its rendered
// file name and records the delivery.
// Parameters:
//   - ctx: context for cancellation.
//   - id: document ID.
// Returns:
//   - string: archive key the artifact was stored under.
//   - error: non-nil if the document, its artifact or the archive fails.
func (s *DocumentService) Download(ctx context.Context, id string) (string, error) {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	data, err := s.artifactBytes(doc.ID)
	if err != nil {
		return "", err
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return "", err
	}

	key := RenderFileName(doc, settings)
	if err := s.archive.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), "application/pdf"); err != nil {
		return "", fmt.Errorf("failed to archive document: %w", err)
	}

	if err := s.deliveries.MarkDownloaded(ctx, doc.AccountName, doc.FileName); err != nil {
		s.log(ctx).WithError(err).Warn("Failed to record download")
	}

	s.log(ctx).WithFields(logger.Fields{
		logger.FieldAccount: doc.AccountName,
		"file":              key,
	}).Info("Document archived")

	return key, nil
}

// Open returns a document's raw artifact bytes together with its rendered
// file name, for streaming straight to the caller.
func (s *DocumentService) Open(ctx context.Context, id string) (string, []byte, error) {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return "", nil, err
	}

	data, err := s.artifactBytes(doc.ID)
	if err != nil {
		return "", nil, err
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return "", nil, err
	}

	return RenderFileName(doc, settings), data, nil
}

// Mail sends a document's artifact as an email attachment and records the
// delivery.
// Parameters:
//   - ctx: context for cancellation.
//   - id: document ID.
//   - recipient: destination address; empty falls back to the configured one.
// Returns:
//   - error: non-nil if no sender is configured or delivery fails.
func (s *DocumentService) Mail(ctx context.Context, id, recipient string) error {
	if s.sender == nil {
		return fmt.Errorf("mail delivery is not configured")
	}

	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return err
	}

	data, err := s.artifactBytes(doc.ID)
	if err != nil {
		return err
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return err
	}

	fileName := RenderFileName(doc, settings)
	subject := fmt.Sprintf("%s - %s", doc.AccountName, fileName)

	err = s.sender.Send(ctx, &mail.Message{
		To:      recipient,
		Subject: subject,
		Body:    fmt.Sprintf("Attached: %s", fileName),
		Attachments: []mail.Attachment{
			{FileName: fileName, ContentType: "application/pdf", Data: data},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to mail document: %w", err)
	}

	if err := s.deliveries.MarkEmailed(ctx, doc.AccountName, doc.FileName); err != nil {
		s.log(ctx).WithError(err).Warn("Failed to record mail delivery")
	}

	s.log(ctx).WithFields(logger.Fields{
		logger.FieldAccount: doc.AccountName,
		"file":              fileName,
	}).Info("Document mailed")

	return nil
}

// ListEmailed returns all recorded mail deliveries.
func (s *DocumentService) ListEmailed(ctx context.Context) ([]domain.EmailedDocument, error) {
	return s.deliveries.ListEmailed(ctx)
}

// ListDownloaded returns all recorded downloads.
func (s *DocumentService) ListDownloaded(ctx context.Context) ([]domain.DownloadedDocument, error) {
	return s.deliveries.ListDownloaded(ctx)
}

// MarkEmailed records a mail delivery without sending, for imports from an
// older installation. Recording the same pair twice is a no-op.
func (s *DocumentService) MarkEmailed(ctx context.Context, accountName, fileName string) error {
	return s.deliveries.MarkEmailed(ctx, accountName, fileName)
}

// MarkDownloaded records a download without archiving anything.
func (s *DocumentService) MarkDownloaded(ctx context.Context, accountName, fileName string) error {
	return s.deliveries.MarkDownloaded(ctx, accountName, fileName)
}

// ClearEmailed removes every mail delivery record.
func (s *DocumentService) ClearEmailed(ctx context.Context) error {
	return s.deliveries.DeleteAllEmailed(ctx)
}

// ClearDownloaded removes every download record.
func (s *DocumentService) ClearDownloaded(ctx context.Context) error {
	return s.deliveries.DeleteAllDownloaded(ctx)
}

func (s *DocumentService) artifactBytes(id string) ([]byte, error) {
	a, err := s.artifacts.Get(id)
	if err != nil {
		return nil, fmt.Errorf("document artifact is no longer available: %w", err)
	}
	data, err := a.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to read document artifact: %w", err)
	}
	return data, nil
}

// RenderFileName applies the configured file-name template to a document.
// The suggested file name's extension survives templating; characters illegal
// in file names are replaced.
// Parameters:
//   - doc: document whose fields fill the placeholders.
//   - settings: template and date layout.
// Returns:
//   - string: rendered file name including the original extension.
func RenderFileName(doc *domain.Document, settings *domain.Settings) string {
	format := settings.FileNameFormat
	if format == "" {
		format = domain.DefaultFileNameFormat
	}
	dateLayout := settings.DateFormat
	if dateLayout == "" {
		dateLayout = domain.DefaultDateFormat
	}

	ext := filepath.Ext(doc.FileName)
	base := strings.TrimSuffix(doc.FileName, ext)

	date := ""
	if doc.IssuedAt != nil {
		date = doc.IssuedAt.Format(dateLayout)
	}

	name := format
	name = strings.ReplaceAll(name, "[suggested-filename]", base)
	name = strings.ReplaceAll(name, "[description]", doc.Description)
	name = strings.ReplaceAll(name, "[date]", date)
	name = strings.ReplaceAll(name, "[website-name]", doc.AccountName)

	return sanitizeFileName(strings.TrimSpace(name)) + ext
}

// sanitizeFileName replaces characters that are invalid in file names.
func sanitizeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, name)
}
