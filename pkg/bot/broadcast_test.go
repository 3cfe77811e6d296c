package bot

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	telegram "github.com/go-telegram/bot"
	"github.com/smith3v/meowfacts/pkg/db"
	"github.com/smith3v/meowfacts/pkg/internal/testutil"
	"github.com/smith3v/meowfacts/pkg/logger"
)

type countingClient struct {
	mu    sync.Mutex
	calls int
}

func (c *countingClient) Do(req *http.Request) (*http.Response, error) {
	io.Copy(io.Discard, req.Body)
	req.Body.Close()
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(`{"ok":true,"result":{}}`)),
		Header:     make(http.Header),
	}, nil
}

func (c *countingClient) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func newTestBot(t *testing.T, client *countingClient) *telegram.Bot {
	t.Helper()
	b, err := New("test-token",
		telegram.WithSkipGetMe(),
		telegram.WithHTTPClient(time.Second, client),
	)
	if err != nil {
		t.Fatalf("failed to create test bot: %v", err)
	}
	return b
}

func seedBroadcast(t *testing.T, today time.Time) {
	t.Helper()
	for i, text := range []string{"Cats purr at 25 Hz.", "Cats walk like camels."} {
		if err := db.DB.Create(&db.Fact{ID: uint(i + 1), Text: text}).Error; err != nil {
			t.Fatalf("failed to seed fact: %v", err)
		}
	}
	sentToday := dateOnly(today)
	subs := []db.TelegramSubscriber{
		{ChatID: 1, Subscribed: true},
		{ChatID: 2, Subscribed: true, LastSentDate: &sentToday},
		{ChatID: 3, Subscribed: true},
	}
	for i := range subs {
		if err := db.DB.Create(&subs[i]).Error; err != nil {
			t.Fatalf("failed to seed subscriber: %v", err)
		}
	}
	if err := db.DB.Model(&db.TelegramSubscriber{}).Where("chat_id = ?", 3).Update("subscribed", false).Error; err != nil {
		t.Fatalf("failed to unsubscribe chat: %v", err)
	}
}

func TestBroadcastDailySendsOncePerDay(t *testing.T) {
	testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)

	today := time.Date(2026, time.March, 3, 9, 30, 0, 0, time.UTC)
	seedBroadcast(t, today)

	client := &countingClient{}
	b := newTestBot(t, client)
	ctx := context.Background()

	sent, err := broadcastDaily(ctx, b, today)
	if err != nil {
		t.Fatalf("broadcastDaily returned error: %v", err)
	}
	if sent != 1 || client.count() != 1 {
		t.Fatalf("expected exactly one send, got sent=%d calls=%d", sent, client.count())
	}

	var sub db.TelegramSubscriber
	if err := db.DB.Where("chat_id = ?", 1).First(&sub).Error; err != nil {
		t.Fatalf("failed to load subscriber: %v", err)
	}
	if sub.LastSentDate == nil || !dateOnly(*sub.LastSentDate).Equal(dateOnly(today)) {
		t.Fatalf("expected last sent date %v, got %v", dateOnly(today), sub.LastSentDate)
	}

	sent, err = broadcastDaily(ctx, b, today.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("second broadcastDaily returned error: %v", err)
	}
	if sent != 0 || client.count() != 1 {
		t.Fatalf("expected no repeat sends, got sent=%d calls=%d", sent, client.count())
	}

	sent, err = broadcastDaily(ctx, b, today.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("next day broadcastDaily returned error: %v", err)
	}
	if sent != 2 {
		t.Fatalf("expected both subscribed chats next day, got %d", sent)
	}
}

func TestBroadcastDailyWithoutFacts(t *testing.T) {
	testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)

	if err := db.DB.Create(&db.TelegramSubscriber{ChatID: 10, Subscribed: true}).Error; err != nil {
		t.Fatalf("failed to seed subscriber: %v", err)
	}
	client := &countingClient{}
	b := newTestBot(t, client)

	sent, err := broadcastDaily(context.Background(), b, time.Now())
	if err != nil {
		t.Fatalf("broadcastDaily returned error: %v", err)
	}
	if sent != 0 || client.count() != 0 {
		t.Fatalf("expected nothing sent, got sent=%d calls=%d", sent, client.count())
	}
}

func TestStartDailyBroadcastWaitsForHour(t *testing.T) {
	testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)

	early := time.Date(2026, time.March, 3, 6, 0, 0, 0, time.UTC)
	seedBroadcast(t, early)

	prevNow := now
	now = func() time.Time { return early }
	t.Cleanup(func() { now = prevNow })

	fake := make(chan time.Time, 1)
	stopped := make(chan struct{})
	prevFactory := tickerFactory
	tickerFactory = func(d time.Duration) tickerHandle {
		return tickerHandle{C: fake, stop: func() { close(stopped) }}
	}
	t.Cleanup(func() { tickerFactory = prevFactory })

	client := &countingClient{}
	b := newTestBot(t, client)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		StartDailyBroadcast(ctx, b, 9)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if client.count() != 0 {
		t.Fatalf("expected no sends before the hour, got %d", client.count())
	}

	fake <- early.Add(4 * time.Hour)
	deadline := time.Now().Add(2 * time.Second)
	for client.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if client.count() != 1 {
		t.Fatalf("expected one send after the hour, got %d", client.count())
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("broadcast loop did not stop")
	}
	select {
	case <-stopped:
	default:
		t.Fatalf("expected ticker to be stopped")
	}
}
