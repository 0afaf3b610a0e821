package repository

import (
	"context"
	"testing"

	"github.com/invoicestash/invoicestash/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestDeliveryMarkingIsIdempotent(t *testing.T) {
	db := testDB(t)
	repo := NewDeliveryRepository(db)
	ctx := context.Background()

	if err := repo.MarkDownloaded(ctx, "Account A", "invoice-1.pdf"); err != nil {
		t.Fatalf("first MarkDownloaded: %v", err)
	}
	if err := repo.MarkDownloaded(ctx, "Account A", "invoice-1.pdf"); err != nil {
		t.Fatalf("duplicate MarkDownloaded: %v", err)
	}
	// Different account with the same file name is a different pair.
	if err := repo.MarkDownloaded(ctx, "Account B", "invoice-1.pdf"); err != nil {
		t.Fatalf("MarkDownloaded for second account: %v", err)
	}

	records, err := repo.ListDownloaded(ctx)
	if err != nil {
		t.Fatalf("ListDownloaded: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d downloaded markers, want 2", len(records))
	}

	if err := repo.MarkEmailed(ctx, "Account A", "invoice-1.pdf"); err != nil {
		t.Fatalf("MarkEmailed: %v", err)
	}
	if err := repo.MarkEmailed(ctx, "Account A", "invoice-1.pdf"); err != nil {
		t.Fatalf("duplicate MarkEmailed: %v", err)
	}
	emailed, err := repo.ListEmailed(ctx)
	if err != nil {
		t.Fatalf("ListEmailed: %v", err)
	}
	if len(emailed) != 1 {
		t.Fatalf("got %d emailed markers, want 1", len(emailed))
	}
}

func TestDocumentTruncation(t *testing.T) {
	db := testDB(t)
	repo := NewDocumentRepository(db)
	ctx := context.Background()

	for _, id := range []string{"d1", "d2"} {
		if err := repo.Create(ctx, &domain.Document{
			ID:          id,
			SessionID:   "session-1",
			AccountName: "Account A",
			FileName:    id + ".pdf",
		}); err != nil {
			t.Fatalf("Create(%s): %v", id, err)
		}
	}

	if err := repo.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if err := repo.Create(ctx, &domain.Document{
		ID:          "d3",
		SessionID:   "session-2",
		AccountName: "Account A",
		FileName:    "d3.pdf",
	}); err != nil {
		t.Fatalf("Create after truncate: %v", err)
	}

	docs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "d3" {
		t.Fatalf("after truncation docs = %+v, want only d3", docs)
	}
}

func TestAccountFailureFlags(t *testing.T) {
	db := testDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	account := &domain.Account{ID: "acc-1", Name: "Account A", ProviderKey: "moneyflow"}
	if err := repo.Create(ctx, account); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.SetAuthFailed(ctx, "acc-1"); err != nil {
		t.Fatalf("SetAuthFailed: %v", err)
	}
	got, err := repo.GetByID(ctx, "acc-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.AuthFailed {
		t.Error("AuthFailed not set")
	}

	if err := repo.ClearFailureFlags(ctx, "acc-1"); err != nil {
		t.Fatalf("ClearFailureFlags: %v", err)
	}
	got, err = repo.GetByID(ctx, "acc-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.AuthFailed || got.FetchFailed {
		t.Error("failure flags not cleared")
	}
}
