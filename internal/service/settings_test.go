package service

import (
	"context"
	"testing"

	"github.com/invoicestash/invoicestash/internal/domain"
	"github.com/invoicestash/invoicestash/internal/logger"
)

func TestSettingsUpdateBackfillsDefaults(t *testing.T) {
	env := newTestEnv(t)
	svc := NewSettingsService(env.setRepo, logger.NewDefault())
	ctx := context.Background()

	got, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.FileNameFormat != domain.DefaultFileNameFormat || got.DateFormat != domain.DefaultDateFormat {
		t.Fatalf("unexpected defaults: %+v", got)
	}

	updated, err := svc.Update(ctx, &SettingsInput{
		FileNameFormat: "[website-name] [date]",
		DebugMode:      true,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.FileNameFormat != "[website-name] [date]" {
		t.Errorf("format not stored: %q", updated.FileNameFormat)
	}
	if updated.DateFormat != domain.DefaultDateFormat {
		t.Errorf("empty date format should fall back to default, got %q", updated.DateFormat)
	}
	if !updated.DebugMode {
		t.Error("debug mode not stored")
	}

	reread, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if reread.FileNameFormat != "[website-name] [date]" || !reread.DebugMode {
		t.Errorf("settings not persisted: %+v", reread)
	}
}
