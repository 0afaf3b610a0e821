package service

import (
	"context"
	"testing"
)

func TestAccountCreateStoresOnlyReferences(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account, err := env.accounts.Create(ctx, &AccountInput{
		Name:        "Acme",
		ProviderKey: "moneyflow",
		Username:    "jo@example.com",
		Password:    "hunter2",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !account.Secured {
		t.Error("expected account to be marked secured")
	}
	if account.UsernameRef == "jo@example.com" || account.PasswordRef == "hunter2" {
		t.Fatal("credential columns hold plaintext")
	}
	if account.UsernameRef == "" || account.PasswordRef == "" {
		t.Fatal("expected vault references for both credentials")
	}
	if account.AccountIDRef != "" || account.BusinessIDRef != "" {
		t.Error("expected no references for omitted fields")
	}
	if env.vault.Len() != 2 {
		t.Errorf("vault holds %d secrets, want 2", env.vault.Len())
	}

	row, err := env.accountRepo.GetByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if row.UsernameRef != account.UsernameRef {
		t.Error("persisted reference differs from returned one")
	}
}

func TestAccountResolveRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account, err := env.accounts.Create(ctx, &AccountInput{
		Name:        "Acme",
		ProviderKey: "moneyflow",
		Username:    "jo@example.com",
		Password:    "hunter2",
		AccountID:   "ACC-9",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	resolved, err := env.accounts.Resolve(ctx, account.ID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	creds := resolved.Credentials
	if creds.Username != "jo@example.com" || creds.Password != "hunter2" || creds.AccountID != "ACC-9" {
		t.Errorf("unexpected credentials: %+v", creds)
	}
	if creds.BusinessID != "" {
		t.Errorf("expected empty business ID, got %q", creds.BusinessID)
	}
}

func TestAccountUpdateKeepsOmittedSecrets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account, err := env.accounts.Create(ctx, &AccountInput{
		Name:        "Acme",
		ProviderKey: "moneyflow",
		Username:    "jo@example.com",
		Password:    "hunter2",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	oldPasswordRef := account.PasswordRef

	// New username, password omitted: the stored password must survive.
	updated, err := env.accounts.Update(ctx, account.ID, &AccountInput{
		Name:        "Acme Ltd",
		ProviderKey: "moneyflow",
		Username:    "finance@example.com",
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if updated.Name != "Acme Ltd" {
		t.Errorf("name not updated: %q", updated.Name)
	}
	if updated.PasswordRef != oldPasswordRef {
		t.Error("password reference changed although the field was omitted")
	}
	if env.vault.Len() != 2 {
		t.Errorf("vault holds %d secrets, want 2 (old username released)", env.vault.Len())
	}

	resolved, err := env.accounts.Resolve(ctx, account.ID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Credentials.Username != "finance@example.com" {
		t.Errorf("username not replaced: %q", resolved.Credentials.Username)
	}
	if resolved.Credentials.Password != "hunter2" {
		t.Errorf("password lost on update: %q", resolved.Credentials.Password)
	}
}

func TestAccountDeleteReleasesSecrets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account, err := env.accounts.Create(ctx, &AccountInput{
		Name:        "Acme",
		ProviderKey: "moneyflow",
		Username:    "jo@example.com",
		Password:    "hunter2",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := env.accounts.Delete(ctx, account.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if env.vault.Len() != 0 {
		t.Errorf("vault still holds %d secrets after delete", env.vault.Len())
	}
	if _, err := env.accountRepo.GetByID(ctx, account.ID); err == nil {
		t.Error("expected account row to be gone")
	}
}

func TestResolveManyPreservesRequestOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"One", "Two", "Three"} {
		a, err := env.accounts.Create(ctx, &AccountInput{Name: name, ProviderKey: "x", Username: "u"})
		if err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
		ids = append(ids, a.ID)
	}

	// Request in reverse.
	reversed := []string{ids[2], ids[0]}
	resolved, err := env.accounts.ResolveMany(ctx, reversed)
	if err != nil {
		t.Fatalf("ResolveMany: %v", err)
	}
	if len(resolved) != 2 {
		t.Fatalf("expected 2 resolved accounts, got %d", len(resolved))
	}
	if resolved[0].Account.Name != "Three" || resolved[1].Account.Name != "One" {
		t.Errorf("order not preserved: %s, %s", resolved[0].Account.Name, resolved[1].Account.Name)
	}
}
