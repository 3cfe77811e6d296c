package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/smith3v/meowfacts/pkg/logger"
)

const DefaultCookieName = "meowfacts_session"

type claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Signer wraps session ids in HS256 tokens stored in an HttpOnly cookie.
type Signer struct {
	secret     []byte
	CookieName string
	Secure     bool
}

func NewSigner(secret, cookieName string, secure bool) *Signer {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(fmt.Sprintf("generate session secret: %v", err))
		}
		logger.Warn("no session secret configured; sessions will not survive a restart")
	}
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &Signer{secret: key, CookieName: cookieName, Secure: secure}
}

func (s *Signer) Sign(sessionID string, expiresAt time.Time) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
	return tok.SignedString(s.secret)
}

func (s *Signer) Parse(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || c.SessionID == "" {
		return "", ErrNoSession
	}
	return c.SessionID, nil
}

func (s *Signer) SetCookie(w http.ResponseWriter, sessionID string, expiresAt time.Time) error {
	token, err := s.Sign(sessionID, expiresAt)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.Secure,
		Expires:  expiresAt,
	})
	return nil
}

func (s *Signer) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.Secure,
		MaxAge:   -1,
	})
}

// FromRequest returns the session id carried by the request cookie.
func (s *Signer) FromRequest(r *http.Request) (string, error) {
	c, err := r.Cookie(s.CookieName)
	if errors.Is(err, http.ErrNoCookie) || (err == nil && c.Value == "") {
		return "", ErrNoSession
	}
	if err != nil {
		return "", err
	}
	return s.Parse(c.Value)
}
