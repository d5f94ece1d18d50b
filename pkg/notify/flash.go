package notify

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"
)

// CookieName is the cookie that carries a pending notification
const CookieName = "flash"

// Level is the kind of notification shown to the user
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Default titles used when a caller passes none
const (
	DefaultSuccessTitle = "Berhasil"
	DefaultErrorTitle   = "Gagal"
)

// Flash is a one-shot notification rendered on the next page the user sees
type Flash struct {
	Level   Level  `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message,omitempty"`
}

// Success builds a success notification
func Success(title, message string) Flash {
	if title == "" {
		title = DefaultSuccessTitle
	}
	return Flash{Level: LevelSuccess, Title: title, Message: message}
}

// Error builds an error notification
func Error(title, message string) Flash {
	if title == "" {
		title = DefaultErrorTitle
	}
	return Flash{Level: LevelError, Title: title, Message: message}
}

// Flasher stores notifications in a short-lived cookie between a redirect
// and the page it lands on
type Flasher struct {
	path   string
	secure bool
	ttl    time.Duration
}

// NewFlasher creates a Flasher issuing cookies for the whole site
func NewFlasher(secure bool) *Flasher {
	return &Flasher{path: "/", secure: secure, ttl: time.Minute}
}

// Set queues f for the next page. A later Set in the same response wins.
func (f *Flasher) Set(w http.ResponseWriter, flash Flash) error {
	data, err := json.Marshal(flash)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     f.path,
		MaxAge:   int(f.ttl.Seconds()),
		HttpOnly: true,
		Secure:   f.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Pop returns the pending notification, if any, and clears it. Undecodable
// cookies are cleared and reported as absent.
func (f *Flasher) Pop(w http.ResponseWriter, r *http.Request) (*Flash, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil, false
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     f.path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   f.secure,
		SameSite: http.SameSiteLaxMode,
	})

	data, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil, false
	}
	var flash Flash
	if err := json.Unmarshal(data, &flash); err != nil || flash.Title == "" {
		return nil, false
	}
	return &flash, true
}
