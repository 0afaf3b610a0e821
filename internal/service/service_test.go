package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/invoicestash/invoicestash/internal/artifact"
	"github.com/invoicestash/invoicestash/internal/logger"
	"github.com/invoicestash/invoicestash/internal/notify"
	"github.com/invoicestash/invoicestash/internal/provider"
	"github.com/invoicestash/invoicestash/internal/relay"
	"github.com/invoicestash/invoicestash/internal/repository"
	"github.com/invoicestash/invoicestash/internal/vault"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// testEnv wires the full service stack over an in-memory database.
type testEnv struct {
	db          *gorm.DB
	vault       *vault.MemoryVault
	artifacts   *artifact.Table
	registry    *provider.Registry
	relay       *relay.Relay
	events      *recordingNotifier
	accountRepo *repository.AccountRepository
	docRepo     *repository.DocumentRepository
	delivRepo   *repository.DeliveryRepository
	setRepo     *repository.SettingsRepository
	accounts    *AccountService
	fetch       *FetchService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repository.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	env := &testEnv{
		db:        db,
		vault:     vault.NewMemoryVault(),
		artifacts: artifact.NewTable(),
		registry:  provider.NewRegistry(),
		events:    &recordingNotifier{},
	}
	env.relay = relay.New(env.events)
	env.accountRepo = repository.NewAccountRepository(db)
	env.docRepo = repository.NewDocumentRepository(db)
	env.delivRepo = repository.NewDeliveryRepository(db)
	env.setRepo = repository.NewSettingsRepository(db)

	log := logger.NewDefault()
	env.accounts = NewAccountService(env.accountRepo, env.vault, log)
	env.fetch = NewFetchService(
		env.accounts,
		env.accountRepo,
		env.docRepo,
		env.setRepo,
		env.registry,
		env.relay,
		env.artifacts,
		env.events,
		log,
		&FetchConfig{CodeTimeout: 2 * time.Second},
	)
	return env
}

// recordingNotifier captures published events for assertions. Safe for use
// from the session goroutine and the test goroutine at once.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recordingNotifier) Publish(e notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingNotifier) byType(t notify.EventType) []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// waitUntil polls cond until it holds or the deadline passes.
func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
