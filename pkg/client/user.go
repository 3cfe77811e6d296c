package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

type User struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Points   int    `json:"points"`
}

type DailyFact struct {
	ID    uint   `json:"id"`
	Text  string `json:"text"`
	IsNew bool   `json:"isNew"`
}

type LoginResult struct {
	User      User       `json:"user"`
	DailyFact *DailyFact `json:"dailyFact"`
}

type SessionState struct {
	LoggedIn bool  `json:"loggedIn"`
	User     *User `json:"user"`
}

type Leader struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *Client) Register(ctx context.Context, username, password string) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/api/user/register", nil, credentials{username, password}, &out)
	return out.User, err
}

// Login stores the session cookie for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var out LoginResult
	err := c.do(ctx, http.MethodPost, "/api/user/login", nil, credentials{username, password}, &out)
	return out, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/user/logout", nil, nil, nil)
}

func (c *Client) Session(ctx context.Context) (SessionState, error) {
	var out SessionState
	err := c.do(ctx, http.MethodGet, "/api/user/session", nil, nil, &out)
	return out, err
}

func (c *Client) Encounter(ctx context.Context, factID uint) error {
	body := map[string]uint{"factId": factID}
	return c.do(ctx, http.MethodPost, "/api/facts/encounter", nil, body, nil)
}

// UserFacts returns the facts the logged in user has seen, keyed by id.
func (c *Client) UserFacts(ctx context.Context) (map[uint]string, error) {
	var out struct {
		Facts map[string]string `json:"facts"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/facts/user", nil, nil, &out); err != nil {
		return nil, err
	}
	known := make(map[uint]string, len(out.Facts))
	for k, text := range out.Facts {
		id, err := strconv.ParseUint(k, 10, 64)
		if err != nil {
			continue
		}
		known[uint(id)] = text
	}
	return known, nil
}

func (c *Client) Leaderboard(ctx context.Context, game, difficulty string) ([]Leader, error) {
	q := url.Values{}
	if game != "" {
		q.Set("game", game)
	}
	if difficulty != "" {
		q.Set("difficulty", difficulty)
	}
	var out struct {
		Leaders []Leader `json:"leaders"`
	}
	err := c.do(ctx, http.MethodGet, "/api/leaderboard", q, nil, &out)
	return out.Leaders, err
}

// SubmitScore posts a score for the logged in user and returns the board's
// outcome for it.
func (c *Client) SubmitScore(ctx context.Context, score int, game, difficulty string) (string, error) {
	body := map[string]any{"score": score, "game": game, "difficulty": difficulty}
	var out struct {
		Outcome string `json:"outcome"`
	}
	err := c.do(ctx, http.MethodPost, "/api/leaderboard", nil, body, &out)
	return out.Outcome, err
}
