package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/invoicestash/invoicestash/internal/artifact"
	"github.com/invoicestash/invoicestash/internal/domain"
	"github.com/invoicestash/invoicestash/internal/notify"
	"github.com/invoicestash/invoicestash/internal/provider"
)

// fakeScript is a scriptable provider.Script for orchestration tests.
type fakeScript struct {
	name      string
	twoFactor bool
	secQ      string
	needsCode bool
	authed    bool
	authErr   error
	fetchErr  error
	docs      []provider.Document
	gotCode   string
}

func (f *fakeScript) Name() string                   { return f.name }
func (f *fakeScript) RequiresTwoFactor() bool        { return f.twoFactor }
func (f *fakeScript) RequiresSecurityQuestion() bool { return f.secQ != "" }
func (f *fakeScript) SecurityQuestion() string       { return f.secQ }
func (f *fakeScript) Authenticated() bool            { return f.authed }

func (f *fakeScript) Authenticate(ctx context.Context) (provider.ContinueFunc, error) {
	if f.authErr != nil {
		return nil, f.authErr
	}
	if !f.needsCode {
		f.authed = true
	}
	return func(ctx context.Context, code string) ([]provider.Document, error) {
		f.gotCode = code
		f.authed = true
		if f.fetchErr != nil {
			return nil, f.fetchErr
		}
		return f.docs, nil
	}, nil
}

func (f *fakeScript) Fetch(ctx context.Context, code string) ([]provider.Document, error) {
	if f.authErr != nil {
		return nil, f.authErr
	}
	f.authed = true
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.docs, nil
}

// register wires a fake script under the given key and returns it.
func (e *testEnv) register(key string, script *fakeScript) *fakeScript {
	e.registry.Register(provider.Info{Key: key, Label: key}, func(provider.Context) provider.Script {
		return script
	})
	return script
}

// addAccount creates an account through the service so credentials land in
// the vault.
func (e *testEnv) addAccount(t *testing.T, name, key string) *domain.Account {
	t.Helper()
	account, err := e.accounts.Create(context.Background(), &AccountInput{
		Name:        name,
		ProviderKey: key,
		Username:    "user-" + name,
		Password:    "pass-" + name,
	})
	if err != nil {
		t.Fatalf("create account %s: %v", name, err)
	}
	return account
}

func docFixture(fileName string) provider.Document {
	issued := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	return provider.Document{
		Description: "desc " + fileName,
		Date:        &issued,
		FileName:    fileName,
		Artifact:    artifact.FromBytes([]byte("pdf " + fileName)),
	}
}

func TestRunPreservesOrderAndIsolatesFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register("alpha", &fakeScript{docs: []provider.Document{docFixture("a1.pdf"), docFixture("a2.pdf")}})
	env.register("beta", &fakeScript{authErr: provider.ErrAuthenticationFailed})
	env.register("gamma", &fakeScript{docs: []provider.Document{docFixture("g1.pdf")}})

	a := env.addAccount(t, "Alpha", "alpha")
	b := env.addAccount(t, "Beta", "beta")
	c := env.addAccount(t, "Gamma", "gamma")

	res, err := env.fetch.Run(ctx, domain.DateRange{}, []string{a.ID, b.ID, c.ID})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(res.Results))
	}
	for i, wantID := range []string{a.ID, b.ID, c.ID} {
		if res.Results[i].AccountID != wantID {
			t.Errorf("result %d: got account %s, want %s", i, res.Results[i].AccountID, wantID)
		}
	}

	if res.Results[1].Error != provider.ErrAuthenticationFailed.Error() {
		t.Errorf("expected auth failure message, got %q", res.Results[1].Error)
	}
	if res.Results[0].Documents != 2 || res.Results[2].Documents != 1 {
		t.Errorf("unexpected document counts: %+v", res.Results)
	}
	if res.Documents != 3 {
		t.Errorf("expected 3 documents total, got %d", res.Documents)
	}

	// The failing account gets its flag; the session still ran to the end.
	row, err := env.accountRepo.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !row.AuthFailed {
		t.Error("expected AuthFailed on the failing account")
	}

	docs, err := env.docRepo.List(ctx)
	if err != nil {
		t.Fatalf("List documents: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 document rows, got %d", len(docs))
	}
	for _, d := range docs {
		if d.SessionID != res.SessionID {
			t.Errorf("document %s carries session %s, want %s", d.FileName, d.SessionID, res.SessionID)
		}
		if _, err := env.artifacts.Get(d.ID); err != nil {
			t.Errorf("no artifact for document %s", d.FileName)
		}
	}

	if errs := env.events.byType(notify.EventFetchError); len(errs) != 1 || errs[0].AccountID != b.ID {
		t.Errorf("unexpected error events: %+v", errs)
	}

	// A progress notification precedes every account and names it.
	progress := env.events.byType(notify.EventFetchProgress)
	if len(progress) != 3 || progress[0].AccountName != "Alpha" {
		t.Errorf("unexpected progress events: %+v", progress)
	}

	// One completion notification per account, carrying the account name,
	// whether or not the account failed.
	done := env.events.byType(notify.EventFetchCompleted)
	if len(done) != 3 {
		t.Fatalf("expected 3 completion events, got %d: %+v", len(done), done)
	}
	for i, wantName := range []string{"Alpha", "Beta", "Gamma"} {
		if done[i].AccountName != wantName {
			t.Errorf("completion event %d: got account %q, want %q", i, done[i].AccountName, wantName)
		}
	}
}

func TestRunStartsFromCleanSlate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	stale := &domain.Document{ID: "stale", SessionID: "old", AccountName: "Old", FileName: "old.pdf"}
	if err := env.docRepo.Create(ctx, stale); err != nil {
		t.Fatalf("seed document: %v", err)
	}
	env.artifacts.Put("stale", artifact.FromBytes([]byte("old")))

	env.register("alpha", &fakeScript{docs: []provider.Document{docFixture("new.pdf")}})
	a := env.addAccount(t, "Alpha", "alpha")

	if _, err := env.fetch.Run(ctx, domain.DateRange{}, []string{a.ID}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	docs, err := env.docRepo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 1 || docs[0].FileName != "new.pdf" {
		t.Fatalf("expected only the new document, got %+v", docs)
	}
	if _, err := env.artifacts.Get("stale"); !errors.Is(err, artifact.ErrNotFound) {
		t.Error("expected stale artifact to be cleared")
	}
}

func TestRunRelaysTwoFactorCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	script := env.register("secure", &fakeScript{
		twoFactor: true,
		needsCode: true,
		docs:      []provider.Document{docFixture("s1.pdf")},
	})
	a := env.addAccount(t, "Secure", "secure")

	type outcome struct {
		res *SessionResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := env.fetch.Run(ctx, domain.DateRange{}, []string{a.ID})
		done <- outcome{res, err}
	}()

	waitUntil(t, 2*time.Second, func() bool { return env.relay.Pending(a.ID) })
	env.fetch.SubmitCode(a.ID, "123456")

	out := <-done
	if out.err != nil {
		t.Fatalf("Run: %v", out.err)
	}
	if script.gotCode != "123456" {
		t.Fatalf("continuation got code %q", script.gotCode)
	}
	if out.res.Results[0].Documents != 1 {
		t.Fatalf("expected 1 document, got %+v", out.res.Results[0])
	}

	reqs := env.events.byType(notify.EventCodeRequested)
	if len(reqs) != 1 || reqs[0].AccountID != a.ID {
		t.Fatalf("unexpected code request events: %+v", reqs)
	}
}

func TestRunSkipsRelayWhenAlreadyAuthenticated(t *testing.T) {
	env := newTestEnv(t)

	script := env.register("trusted", &fakeScript{
		twoFactor: true,
		docs:      []provider.Document{docFixture("t1.pdf")},
	})
	a := env.addAccount(t, "Trusted", "trusted")

	res, err := env.fetch.Run(context.Background(), domain.DateRange{}, []string{a.ID})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Results[0].Documents != 1 {
		t.Fatalf("unexpected result: %+v", res.Results[0])
	}
	if script.gotCode != "" {
		t.Errorf("continuation got code %q, want empty", script.gotCode)
	}
	if reqs := env.events.byType(notify.EventCodeRequested); len(reqs) != 0 {
		t.Errorf("expected no code request, got %+v", reqs)
	}
}

func TestRunCodeTimeoutIsAuthFailure(t *testing.T) {
	env := newTestEnv(t)
	env.fetch.codeTimeout = 30 * time.Millisecond
	ctx := context.Background()

	env.register("secure", &fakeScript{twoFactor: true, needsCode: true})
	a := env.addAccount(t, "Secure", "secure")

	res, err := env.fetch.Run(ctx, domain.DateRange{}, []string{a.ID})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Results[0].Error != provider.ErrAuthenticationFailed.Error() {
		t.Fatalf("expected auth failure on timeout, got %+v", res.Results[0])
	}

	row, err := env.accountRepo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !row.AuthFailed {
		t.Error("expected AuthFailed after code timeout")
	}
}

func TestRunUnsupportedProvider(t *testing.T) {
	env := newTestEnv(t)
	a := env.addAccount(t, "Mystery", "does-not-exist")

	res, err := env.fetch.Run(context.Background(), domain.DateRange{}, []string{a.ID})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Results[0].Error != provider.ErrUnsupportedProvider.Error() {
		t.Fatalf("unexpected result: %+v", res.Results[0])
	}

	// No script ran, so neither failure flag may be set.
	row, err := env.accountRepo.GetByID(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if row.AuthFailed || row.FetchFailed {
		t.Errorf("expected no failure flags, got %+v", row)
	}
}

func TestRunClearsFailureFlagsOnSuccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register("alpha", &fakeScript{docs: []provider.Document{docFixture("a1.pdf")}})
	a := env.addAccount(t, "Alpha", "alpha")
	if err := env.accountRepo.SetAuthFailed(ctx, a.ID); err != nil {
		t.Fatalf("SetAuthFailed: %v", err)
	}

	if _, err := env.fetch.Run(ctx, domain.DateRange{}, []string{a.ID}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	row, err := env.accountRepo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if row.AuthFailed || row.FetchFailed {
		t.Errorf("expected flags cleared, got %+v", row)
	}
}

func TestRunRejectsOverlappingSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register("secure", &fakeScript{twoFactor: true, needsCode: true, docs: []provider.Document{docFixture("s1.pdf")}})
	a := env.addAccount(t, "Secure", "secure")

	done := make(chan struct{})
	go func() {
		env.fetch.Run(ctx, domain.DateRange{}, []string{a.ID})
		close(done)
	}()

	waitUntil(t, 2*time.Second, func() bool { return env.relay.Pending(a.ID) })

	if _, err := env.fetch.Run(ctx, domain.DateRange{}, []string{a.ID}); !errors.Is(err, ErrSessionRunning) {
		t.Fatalf("expected ErrSessionRunning, got %v", err)
	}

	env.fetch.SubmitCode(a.ID, "000000")
	<-done
}

func TestClassifyFallsBackOnAuthProgress(t *testing.T) {
	authed := &fakeScript{authed: true}
	if msg, authFailure := classify(errors.New("boom"), authed); authFailure || msg != provider.ErrFetchFailed.Error() {
		t.Errorf("authenticated script: got (%q, %v)", msg, authFailure)
	}

	fresh := &fakeScript{}
	if msg, authFailure := classify(errors.New("boom"), fresh); !authFailure || msg != provider.ErrAuthenticationFailed.Error() {
		t.Errorf("unauthenticated script: got (%q, %v)", msg, authFailure)
	}
}
