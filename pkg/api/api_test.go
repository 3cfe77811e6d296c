package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smith3v/meowfacts/pkg/auth"
	"github.com/smith3v/meowfacts/pkg/db"
	"github.com/smith3v/meowfacts/pkg/facts"
	"github.com/smith3v/meowfacts/pkg/internal/testutil"
	"github.com/smith3v/meowfacts/pkg/logger"
)

// fixedNow pins the clock for date-dependent endpoints. Session tests keep
// the real clock so cookie expiry stays in the future.
func fixedNow() time.Time { return time.Date(2026, time.May, 4, 12, 0, 0, 0, time.UTC) }

type fakeSource struct {
	facts []string
	err   error
}

func (f *fakeSource) Fetch(ctx context.Context, count int) ([]string, error) {
	return f.facts, f.err
}

type testEnv struct {
	srv    *httptest.Server
	client *http.Client
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)

	if opts.Signer == nil {
		opts.Signer = auth.NewSigner("test-secret", "", false)
	}
	srv := httptest.NewServer(New(opts))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}
	return &testEnv{srv: srv, client: &http.Client{Jar: jar}}
}

// do sends a JSON request and decodes a JSON response into out when given.
func (e *testEnv) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("failed to decode %s %s response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (e *testEnv) login(t *testing.T, username, password string) {
	t.Helper()
	creds := map[string]string{"username": username, "password": password}
	if status := e.do(t, http.MethodPost, "/api/user/register", creds, nil); status != http.StatusCreated {
		t.Fatalf("register %s returned %d", username, status)
	}
	if status := e.do(t, http.MethodPost, "/api/user/login", creds, nil); status != http.StatusOK {
		t.Fatalf("login %s returned %d", username, status)
	}
}

func seedFact(t *testing.T, id uint, text string) {
	t.Helper()
	if err := db.DB.Create(&db.Fact{ID: id, Text: text}).Error; err != nil {
		t.Fatalf("failed to seed fact: %v", err)
	}
}

func TestRandomFactsFallsBackWhenEmpty(t *testing.T) {
	env := newTestEnv(t, Options{})

	var body struct {
		Fact []string `json:"fact"`
	}
	if status := env.do(t, http.MethodGet, "/api/facts", nil, &body); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(body.Fact) != 1 || body.Fact[0] != facts.FallbackFact {
		t.Fatalf("expected fallback fact, got %v", body.Fact)
	}
}

func TestRandomFactsHonoursCount(t *testing.T) {
	env := newTestEnv(t, Options{})
	for i := 1; i <= 5; i++ {
		seedFact(t, uint(i), strings.Repeat("cat ", i))
	}

	var body struct {
		Fact []string `json:"fact"`
	}
	env.do(t, http.MethodGet, "/api/facts?count=3", nil, &body)
	if len(body.Fact) != 3 {
		t.Fatalf("expected 3 facts, got %d", len(body.Fact))
	}
}

func TestAdminFactLifecycle(t *testing.T) {
	env := newTestEnv(t, Options{})

	var created struct {
		Success bool `json:"success"`
		ID      uint `json:"id"`
	}
	status := env.do(t, http.MethodPost, "/api/facts/admin", map[string]string{"text": "Cats have <b>32</b> muscles in each ear."}, &created)
	if status != http.StatusCreated || !created.Success || created.ID != 1 {
		t.Fatalf("unexpected create result: status=%d body=%+v", status, created)
	}
	if status := env.do(t, http.MethodPost, "/api/facts/admin", map[string]string{"text": "   "}, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty text, got %d", status)
	}

	if status := env.do(t, http.MethodPut, "/api/facts/admin/1", map[string]string{"text": "Cats have 32 ear muscles."}, nil); status != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d", status)
	}
	if status := env.do(t, http.MethodPut, "/api/facts/admin/99", map[string]string{"text": "nope"}, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 on missing update, got %d", status)
	}
	if status := env.do(t, http.MethodPut, "/api/facts/admin/abc", map[string]string{"text": "nope"}, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 on bad id, got %d", status)
	}

	var list struct {
		Facts []factView `json:"facts"`
	}
	env.do(t, http.MethodGet, "/api/facts/admin?search=ear", nil, &list)
	if len(list.Facts) != 1 || list.Facts[0].Text != "Cats have 32 ear muscles." {
		t.Fatalf("unexpected search result: %+v", list.Facts)
	}

	var count struct {
		Count int64 `json:"count"`
	}
	env.do(t, http.MethodGet, "/api/facts/count", nil, &count)
	if count.Count != 1 {
		t.Fatalf("expected count 1, got %d", count.Count)
	}

	if status := env.do(t, http.MethodDelete, "/api/facts/admin/1", nil, nil); status != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", status)
	}
	if status := env.do(t, http.MethodDelete, "/api/facts/admin/1", nil, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 on repeated delete, got %d", status)
	}
}

func TestEncounterRequiresSession(t *testing.T) {
	env := newTestEnv(t, Options{})
	seedFact(t, 42, "Cats sleep 70% of their lives.")

	if status := env.do(t, http.MethodPost, "/api/facts/encounter", map[string]int{"factId": 42}, nil); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", status)
	}
	if status := env.do(t, http.MethodGet, "/api/facts/user", nil, nil); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", status)
	}
}

func TestEncounterShowsInUserFacts(t *testing.T) {
	env := newTestEnv(t, Options{})
	seedFact(t, 42, "Cats sleep 70% of their lives.")
	env.login(t, "alice", "pw123")

	if status := env.do(t, http.MethodPost, "/api/facts/encounter", map[string]int{"factId": 42}, nil); status != http.StatusOK {
		t.Fatalf("expected 200 on encounter, got %d", status)
	}
	if status := env.do(t, http.MethodPost, "/api/facts/encounter", map[string]int{"factId": 42}, nil); status != http.StatusOK {
		t.Fatalf("expected repeat encounter to succeed, got %d", status)
	}
	if status := env.do(t, http.MethodPost, "/api/facts/encounter", map[string]int{"factId": 7}, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown fact, got %d", status)
	}

	var body struct {
		Facts map[string]string `json:"facts"`
	}
	env.do(t, http.MethodGet, "/api/facts/user", nil, &body)
	if body.Facts["42"] != "Cats sleep 70% of their lives." || len(body.Facts) != 1 {
		t.Fatalf("expected fact 42 in user map, got %v", body.Facts)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	env := newTestEnv(t, Options{})
	creds := map[string]string{"username": "bob", "password": "secret"}

	if status := env.do(t, http.MethodPost, "/api/user/register", creds, nil); status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if status := env.do(t, http.MethodPost, "/api/user/register", creds, nil); status != http.StatusConflict {
		t.Fatalf("expected 409, got %d", status)
	}
	if status := env.do(t, http.MethodPost, "/api/user/register", map[string]string{"username": "carol"}, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing password, got %d", status)
	}
	if status := env.do(t, http.MethodPost, "/api/user/login", map[string]string{"username": "bob", "password": "wrong"}, nil); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", status)
	}
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t, Options{})
	seedFact(t, 1, "Cats can rotate their ears 180 degrees.")

	var session struct {
		LoggedIn bool              `json:"loggedIn"`
		User     *auth.SessionUser `json:"user"`
	}
	env.do(t, http.MethodGet, "/api/user/session", nil, &session)
	if session.LoggedIn {
		t.Fatalf("expected anonymous session")
	}

	creds := map[string]string{"username": "dora", "password": "pw"}
	env.do(t, http.MethodPost, "/api/user/register", creds, nil)
	var login struct {
		Success   bool            `json:"success"`
		User      userView        `json:"user"`
		DailyFact *auth.DailyFact `json:"dailyFact"`
	}
	if status := env.do(t, http.MethodPost, "/api/user/login", creds, &login); status != http.StatusOK {
		t.Fatalf("expected 200 on login, got %d", status)
	}
	if !login.Success || login.User.Username != "dora" {
		t.Fatalf("unexpected login body: %+v", login)
	}
	if login.DailyFact == nil || !login.DailyFact.IsNew {
		t.Fatalf("expected a new daily fact on first login, got %+v", login.DailyFact)
	}

	session.LoggedIn = false
	env.do(t, http.MethodGet, "/api/user/session", nil, &session)
	if !session.LoggedIn || session.User == nil || session.User.Username != "dora" {
		t.Fatalf("expected logged in session, got %+v", session)
	}

	if status := env.do(t, http.MethodPost, "/api/user/logout", nil, nil); status != http.StatusOK {
		t.Fatalf("expected 200 on logout, got %d", status)
	}
	session.LoggedIn = true
	session.User = nil
	env.do(t, http.MethodGet, "/api/user/session", nil, &session)
	if session.LoggedIn {
		t.Fatalf("expected session to end after logout")
	}
}

func TestLeaderboardSpeedTypingAscending(t *testing.T) {
	env := newTestEnv(t, Options{})

	for _, player := range []struct {
		name  string
		score int
	}{{"erin", 40}, {"finn", 25}, {"gail", 33}} {
		env.client.Jar, _ = cookiejar.New(nil)
		env.login(t, player.name, "pw")
		score := map[string]any{"score": player.score, "game": "SpeedTyping", "difficulty": "easy"}
		if status := env.do(t, http.MethodPost, "/api/leaderboard", score, nil); status != http.StatusOK {
			t.Fatalf("expected 200 on submit, got %d", status)
		}
	}

	var body struct {
		Leaders []struct {
			Name  string `json:"name"`
			Score int    `json:"score"`
		} `json:"leaders"`
	}
	env.do(t, http.MethodGet, "/api/leaderboard?game=SpeedTyping&difficulty=easy", nil, &body)
	if len(body.Leaders) != 3 {
		t.Fatalf("expected 3 leaders, got %+v", body.Leaders)
	}
	for i := 1; i < len(body.Leaders); i++ {
		if body.Leaders[i-1].Score > body.Leaders[i].Score {
			t.Fatalf("expected ascending scores, got %+v", body.Leaders)
		}
	}
	if body.Leaders[0].Name != "finn" {
		t.Fatalf("expected finn first, got %+v", body.Leaders[0])
	}
}

func TestSubmitScoreValidation(t *testing.T) {
	env := newTestEnv(t, Options{})

	score := map[string]any{"score": 10, "game": "TriviaMaster"}
	if status := env.do(t, http.MethodPost, "/api/leaderboard", score, nil); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", status)
	}

	env.login(t, "hank", "pw")
	bad := map[string]any{"score": -1, "game": "TriviaMaster"}
	if status := env.do(t, http.MethodPost, "/api/leaderboard", bad, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative score, got %d", status)
	}
}

func TestPopulateFromAPIRunsOnce(t *testing.T) {
	src := &fakeSource{facts: []string{"Cats purr.", "Cats purr.", "Cats nap."}}
	env := newTestEnv(t, Options{Source: src, PopulateCount: 10})

	var body struct {
		Message string `json:"message"`
	}
	if status := env.do(t, http.MethodPost, "/api/facts/populate-from-api", nil, &body); status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if !strings.Contains(body.Message, "2") {
		t.Fatalf("expected message to mention 2 facts, got %q", body.Message)
	}
	if status := env.do(t, http.MethodPost, "/api/facts/populate-from-api", nil, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 on second populate, got %d", status)
	}
}

func TestPopulateProviderFailure(t *testing.T) {
	env := newTestEnv(t, Options{Source: &fakeSource{err: errors.New("offline")}})

	if status := env.do(t, http.MethodPost, "/api/facts/populate-from-api", nil, nil); status != http.StatusInternalServerError {
		t.Fatalf("expected 500 when provider fails, got %d", status)
	}
}

func TestDailyFact(t *testing.T) {
	env := newTestEnv(t, Options{Now: fixedNow})

	if status := env.do(t, http.MethodGet, "/api/facts/daily", nil, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 without facts, got %d", status)
	}

	seedFact(t, 1, "One.")
	seedFact(t, 2, "Two.")
	var body struct {
		ID   int    `json:"id"`
		Text string `json:"text"`
	}
	env.do(t, http.MethodGet, "/api/facts/daily", nil, &body)
	// May 4 is day 124; 124 % 2 picks the first fact.
	if body.ID != 1 || body.Text != "One." {
		t.Fatalf("unexpected daily fact: %+v", body)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	env := newTestEnv(t, Options{Now: fixedNow})
	seedFact(t, 1, "Cats, famously, land on their feet.")

	resp, err := env.client.Get(env.srv.URL + "/api/facts/admin/export")
	if err != nil {
		t.Fatalf("export request failed: %v", err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on export, got %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Content-Disposition"), "meowfacts-20260504.csv") {
		t.Fatalf("unexpected content disposition: %q", resp.Header.Get("Content-Disposition"))
	}
	if !strings.Contains(string(data), `"Cats, famously, land on their feet."`) {
		t.Fatalf("expected quoted fact in export, got %q", data)
	}

	upload := "id,text\n1,Cats land on their feet.\n,Kittens are born blind.\n"
	resp, err = env.client.Post(env.srv.URL+"/api/facts/admin/import", "text/csv", strings.NewReader(upload))
	if err != nil {
		t.Fatalf("import request failed: %v", err)
	}
	var result map[string]int
	json.NewDecoder(resp.Body).Decode(&result)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on import, got %d", resp.StatusCode)
	}
	if result["inserted"] != 1 || result["updated"] != 1 {
		t.Fatalf("unexpected import result: %v", result)
	}
}

func TestCatsByCategory(t *testing.T) {
	env := newTestEnv(t, Options{})
	if err := db.DB.Create(&db.CatImage{Category: "Players", Name: "Mittens", ImageURL: "/img/mittens.png", Rarity: "rare"}).Error; err != nil {
		t.Fatalf("failed to seed cat: %v", err)
	}

	var body struct {
		Cats []struct {
			Name  string `json:"name"`
			Image string `json:"image"`
		} `json:"cats"`
	}
	if status := env.do(t, http.MethodGet, "/api/cats/players", nil, &body); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(body.Cats) != 1 || body.Cats[0].Name != "Mittens" {
		t.Fatalf("unexpected cats: %+v", body.Cats)
	}
	if status := env.do(t, http.MethodGet, "/api/cats/dogs", nil, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown category, got %d", status)
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, Options{})
	var body map[string]bool
	if status := env.do(t, http.MethodGet, "/healthz", nil, &body); status != http.StatusOK || !body["ok"] {
		t.Fatalf("unexpected healthz: %d %v", status, body)
	}
}

func TestStaticFallsBackToIndex(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>meow</html>"), 0o600); err != nil {
		t.Fatalf("failed to write index: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log('meow')"), 0o600); err != nil {
		t.Fatalf("failed to write asset: %v", err)
	}
	env := newTestEnv(t, Options{StaticDir: dir})

	for path, want := range map[string]string{
		"/":        "<html>meow</html>",
		"/library": "<html>meow</html>",
		"/app.js":  "console.log('meow')",
	} {
		resp, err := env.client.Get(env.srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		data, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if string(data) != want {
			t.Fatalf("GET %s: expected %q, got %q", path, want, data)
		}
	}

	if status := env.do(t, http.MethodGet, "/api/nope", nil, nil); status != http.StatusNotFound {
		t.Fatalf("expected JSON 404 for unknown api path, got %d", status)
	}
}

func TestRecoveryReturns500(t *testing.T) {
	logger.SetLogLevel(logger.ERROR)
	h := recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestCORSAllowsCredentials(t *testing.T) {
	env := newTestEnv(t, Options{CORSOrigins: []string{"http://localhost:5173"}})

	req, _ := http.NewRequest(http.MethodOptions, env.srv.URL+"/api/facts", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	resp, err := env.client.Do(req)
	if err != nil {
		t.Fatalf("preflight failed: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("unexpected allow origin %q", resp.Header.Get("Access-Control-Allow-Origin"))
	}
	if resp.Header.Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("expected credentials to be allowed")
	}
}
