package handlers

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	telegram "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// mockClient answers every Bot API call with ok and keeps the decoded form
// of each request.
type mockClient struct {
	requests []url.Values
}

func newMockClient() *mockClient {
	return &mockClient{}
}

func (m *mockClient) Do(req *http.Request) (*http.Response, error) {
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		return nil, err
	}
	m.requests = append(m.requests, req.MultipartForm.Value)
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(`{"ok":true,"result":{}}`)),
		Header:     make(http.Header),
	}, nil
}

func (m *mockClient) lastMessageText(t *testing.T) string {
	t.Helper()
	return m.lastField(t, "text")
}

func (m *mockClient) lastField(t *testing.T, name string) string {
	t.Helper()
	if len(m.requests) == 0 {
		t.Fatalf("no bot api requests were sent")
	}
	values, ok := m.requests[len(m.requests)-1][name]
	if !ok || len(values) == 0 {
		t.Fatalf("field %q missing from last request", name)
	}
	return values[0]
}

func newTestTelegramBot(t *testing.T, client *mockClient) *telegram.Bot {
	t.Helper()
	b, err := telegram.New("test-token",
		telegram.WithSkipGetMe(),
		telegram.WithHTTPClient(time.Second, client),
	)
	if err != nil {
		t.Fatalf("failed to create test bot: %v", err)
	}
	return b
}

func newTestUpdate(text string, chatID int64) *models.Update {
	return &models.Update{
		Message: &models.Message{
			From: &models.User{ID: chatID},
			Chat: models.Chat{ID: chatID, Type: models.ChatTypePrivate},
			Text: text,
		},
	}
}
