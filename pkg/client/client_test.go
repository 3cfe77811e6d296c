package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smith3v/meowfacts/pkg/api"
	"github.com/smith3v/meowfacts/pkg/auth"
	"github.com/smith3v/meowfacts/pkg/clientstore"
	"github.com/smith3v/meowfacts/pkg/db"
	"github.com/smith3v/meowfacts/pkg/internal/testutil"
	"github.com/smith3v/meowfacts/pkg/logger"
	"github.com/smith3v/meowfacts/pkg/weekly"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)

	srv := httptest.NewServer(api.New(api.Options{Signer: auth.NewSigner("test-secret", "", false)}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL + "/")
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c
}

func seedFacts(t *testing.T, texts ...string) {
	t.Helper()
	for i, text := range texts {
		if err := db.DB.Create(&db.Fact{ID: uint(i + 1), Text: text}).Error; err != nil {
			t.Fatalf("failed to seed fact: %v", err)
		}
	}
}

func TestNewRejectsRelativeURL(t *testing.T) {
	if _, err := New("localhost"); err == nil {
		t.Fatalf("expected error for url without scheme")
	}
}

func TestUserFlow(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	seedFacts(t, "Cats have five toes on their front paws.", "A group of cats is a clowder.")

	if _, err := c.Register(ctx, "alice", "pw123"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if _, err := c.Register(ctx, "alice", "pw123"); !IsStatus(err, http.StatusConflict) {
		t.Fatalf("expected 409 on duplicate register, got %v", err)
	}
	if err := c.Encounter(ctx, 2); !IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("expected 401 before login, got %v", err)
	}

	res, err := c.Login(ctx, "alice", "pw123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if res.User.Username != "alice" || res.DailyFact == nil {
		t.Fatalf("unexpected login result: %+v", res)
	}

	state, err := c.Session(ctx)
	if err != nil || !state.LoggedIn || state.User == nil || state.User.Username != "alice" {
		t.Fatalf("expected logged in session, got %+v (%v)", state, err)
	}

	if err := c.Encounter(ctx, 2); err != nil {
		t.Fatalf("Encounter returned error: %v", err)
	}
	known, err := c.UserFacts(ctx)
	if err != nil {
		t.Fatalf("UserFacts returned error: %v", err)
	}
	if known[2] != "A group of cats is a clowder." {
		t.Fatalf("expected fact 2 in user facts, got %v", known)
	}

	outcome, err := c.SubmitScore(ctx, 30, "SpeedTyping", "easy")
	if err != nil || outcome != "inserted" {
		t.Fatalf("unexpected first submit: %q %v", outcome, err)
	}
	outcome, err = c.SubmitScore(ctx, 35, "SpeedTyping", "easy")
	if err != nil || outcome != "kept" {
		t.Fatalf("expected slower time to be kept, got %q %v", outcome, err)
	}
	leaders, err := c.Leaderboard(ctx, "SpeedTyping", "easy")
	if err != nil || len(leaders) != 1 || leaders[0].Score != 30 {
		t.Fatalf("unexpected leaderboard: %+v %v", leaders, err)
	}

	if err := c.Logout(ctx); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	state, err = c.Session(ctx)
	if err != nil || state.LoggedIn {
		t.Fatalf("expected logged out session, got %+v (%v)", state, err)
	}
}

func TestFactsAndDaily(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	if _, err := c.Daily(ctx); !IsStatus(err, http.StatusNotFound) {
		t.Fatalf("expected 404 daily without facts, got %v", err)
	}
	seedFacts(t, "Cats purr.", "Cats nap.", "Cats knead.")

	list, err := c.Facts(ctx, 2)
	if err != nil || len(list) != 2 {
		t.Fatalf("expected 2 facts, got %v (%v)", list, err)
	}
	n, err := c.Count(ctx)
	if err != nil || n != 3 {
		t.Fatalf("expected count 3, got %d (%v)", n, err)
	}
	daily, err := c.Daily(ctx)
	if err != nil || daily.Text == "" {
		t.Fatalf("expected daily fact, got %+v (%v)", daily, err)
	}
}

func TestClientFeedsWeeklyPlanner(t *testing.T) {
	c := newTestClient(t)
	seedFacts(t,
		"Fact one about cats.", "Fact two about cats.", "Fact three about cats.",
		"Fact four about cats.", "Fact five about cats.", "Fact six about cats.",
		"Fact seven about cats.", "Fact eight about cats.",
	)

	var _ weekly.FactSource = c
	planner := &weekly.Planner{
		Source: c,
		Local:  clientstore.Open(filepath.Join(t.TempDir(), "state.json")),
	}
	today := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	res, err := planner.Ensure(context.Background(), today)
	if err != nil {
		t.Fatalf("Ensure returned error: %v", err)
	}
	if len(res.Batch.Facts) != weekly.BatchSize {
		t.Fatalf("expected a full batch, got %d facts", len(res.Batch.Facts))
	}
	if _, err := os.Stat(planner.Local.Path()); err != nil {
		t.Fatalf("expected state file to be written: %v", err)
	}
}
