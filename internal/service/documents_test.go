package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/invoicestash/invoicestash/internal/artifact"
	"github.com/invoicestash/invoicestash/internal/domain"
	"github.com/invoicestash/invoicestash/internal/logger"
	"github.com/invoicestash/invoicestash/internal/mail"
	"github.com/invoicestash/invoicestash/internal/storage"
)

type fakeSender struct {
	sent []*mail.Message
	err  error
}

func (f *fakeSender) Send(ctx context.Context, msg *mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

// newDocService builds a DocumentService over the env with a local archive.
func newDocService(t *testing.T, env *testEnv, sender mail.Sender) (*DocumentService, string) {
	t.Helper()
	dir := t.TempDir()
	archive, err := storage.NewLocalStorage(dir)
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	svc := NewDocumentService(
		env.docRepo,
		env.delivRepo,
		env.setRepo,
		env.artifacts,
		archive,
		sender,
		logger.NewDefault(),
	)
	return svc, dir
}

// seedDocument inserts a document row with its artifact parked in the table.
func seedDocument(t *testing.T, env *testEnv, id, account, fileName string, issued *time.Time) *domain.Document {
	t.Helper()
	doc := &domain.Document{
		ID:          id,
		SessionID:   "session-1",
		Description: "March invoice",
		IssuedAt:    issued,
		AccountName: account,
		FileName:    fileName,
	}
	if err := env.docRepo.Create(context.Background(), doc); err != nil {
		t.Fatalf("seed document: %v", err)
	}
	env.artifacts.Put(id, artifact.FromBytes([]byte("%PDF-1.4 "+id)))
	return doc
}

func TestRenderFileName(t *testing.T) {
	issued := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		format   string
		layout   string
		doc      domain.Document
		expected string
	}{
		{
			name:     "default template keeps suggested name",
			doc:      domain.Document{FileName: "invoice-42.pdf", AccountName: "Acme"},
			expected: "invoice-42.pdf",
		},
		{
			name:   "all placeholders",
			format: "[website-name] [date] [description] ([suggested-filename])",
			layout: "2006-01-02",
			doc: domain.Document{
				FileName:    "invoice-42.pdf",
				AccountName: "Acme",
				Description: "March",
				IssuedAt:    &issued,
			},
			expected: "Acme 2024-03-09 March (invoice-42).pdf",
		},
		{
			name:   "day-month-year default layout",
			format: "[date]",
			doc: domain.Document{
				FileName: "x.pdf",
				IssuedAt: &issued,
			},
			expected: "9-3-2024.pdf",
		},
		{
			name:     "missing date renders empty",
			format:   "[date] [suggested-filename]",
			doc:      domain.Document{FileName: "x.pdf"},
			expected: "x.pdf",
		},
		{
			name:     "illegal characters replaced",
			format:   "[description]",
			doc:      domain.Document{FileName: "x.pdf", Description: `a/b\c:d`},
			expected: "a-b-c-d.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := &domain.Settings{FileNameFormat: tt.format, DateFormat: tt.layout}
			if got := RenderFileName(&tt.doc, settings); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDownloadArchivesAndRecords(t *testing.T) {
	env := newTestEnv(t)
	svc, dir := newDocService(t, env, nil)
	ctx := context.Background()

	issued := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	doc := seedDocument(t, env, "doc-1", "Acme", "invoice-42.pdf", &issued)

	key, err := svc.Download(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if key != "invoice-42.pdf" {
		t.Errorf("unexpected archive key %q", key)
	}

	data, err := os.ReadFile(filepath.Join(dir, key))
	if err != nil {
		t.Fatalf("read archived file: %v", err)
	}
	if string(data) != "%PDF-1.4 doc-1" {
		t.Errorf("archived content mismatch: %q", data)
	}

	downloads, err := svc.ListDownloaded(ctx)
	if err != nil {
		t.Fatalf("ListDownloaded: %v", err)
	}
	if len(downloads) != 1 || downloads[0].AccountName != "Acme" || downloads[0].FileName != "invoice-42.pdf" {
		t.Errorf("unexpected download records: %+v", downloads)
	}
}

func TestDownloadWithoutArtifactFails(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newDocService(t, env, nil)
	ctx := context.Background()

	doc := &domain.Document{ID: "orphan", AccountName: "Acme", FileName: "x.pdf"}
	if err := env.docRepo.Create(ctx, doc); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := svc.Download(ctx, "orphan"); err == nil {
		t.Fatal("expected error for document without artifact")
	}
}

func TestMailAttachesDocument(t *testing.T) {
	env := newTestEnv(t)
	sender := &fakeSender{}
	svc, _ := newDocService(t, env, sender)
	ctx := context.Background()

	doc := seedDocument(t, env, "doc-2", "Acme", "invoice-7.pdf", nil)

	if err := svc.Mail(ctx, doc.ID, "owner@example.com"); err != nil {
		t.Fatalf("Mail: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.To != "owner@example.com" {
		t.Errorf("unexpected recipient %q", msg.To)
	}
	if msg.Subject != "Acme - invoice-7.pdf" {
		t.Errorf("unexpected subject %q", msg.Subject)
	}
	if len(msg.Attachments) != 1 || msg.Attachments[0].FileName != "invoice-7.pdf" {
		t.Errorf("unexpected attachments: %+v", msg.Attachments)
	}

	emailed, err := svc.ListEmailed(ctx)
	if err != nil {
		t.Fatalf("ListEmailed: %v", err)
	}
	if len(emailed) != 1 {
		t.Errorf("expected 1 mail record, got %d", len(emailed))
	}
}

func TestMailWithoutSenderFails(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newDocService(t, env, nil)

	doc := seedDocument(t, env, "doc-3", "Acme", "x.pdf", nil)
	if err := svc.Mail(context.Background(), doc.ID, "owner@example.com"); err == nil {
		t.Fatal("expected error when no sender is configured")
	}
}

func TestOpenReturnsRenderedNameAndBytes(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newDocService(t, env, nil)
	ctx := context.Background()

	doc := seedDocument(t, env, "doc-4", "Acme", "invoice-9.pdf", nil)

	name, data, err := svc.Open(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if name != "invoice-9.pdf" {
		t.Errorf("unexpected name %q", name)
	}
	if string(data) != "%PDF-1.4 doc-4" {
		t.Errorf("unexpected content %q", data)
	}
}
