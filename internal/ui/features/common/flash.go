package common

import (
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
)

const (
	sessionName = "vitrine"
	flashSep    = "|"
)

// Flash is a one-shot message surfaced on the next page render.
type Flash struct {
	Kind    string // "success", "warning", "error"
	Message string
}

// SetFlash stores a flash message in the session.
func SetFlash(store sessions.Store, w http.ResponseWriter, r *http.Request, kind, msg string) error {
	session, err := store.Get(r, sessionName)
	if err != nil {
		// A stale or tampered cookie decodes to a fresh session; keep going.
		session, _ = store.New(r, sessionName)
	}
	session.AddFlash(kind + flashSep + msg)
	return session.Save(r, w)
}

// PopFlash removes and returns the pending flash message, or nil.
func PopFlash(store sessions.Store, w http.ResponseWriter, r *http.Request) *Flash {
	session, err := store.Get(r, sessionName)
	if err != nil {
		return nil
	}
	flashes := session.Flashes()
	if len(flashes) == 0 {
		return nil
	}
	_ = session.Save(r, w)

	raw, ok := flashes[len(flashes)-1].(string)
	if !ok {
		return nil
	}
	kind, msg, found := strings.Cut(raw, flashSep)
	if !found {
		return &Flash{Kind: "success", Message: raw}
	}
	return &Flash{Kind: kind, Message: msg}
}
