package mcp

import (
	"sync"

	"github.com/google/uuid"

	"github.com/a3tai/mcp-pdf-regions/internal/annotation"
	apperrors "github.com/a3tai/mcp-pdf-regions/internal/errors"
	"github.com/a3tai/mcp-pdf-regions/internal/pdf"
)

// session is one open document and its annotation state. mu serializes the events
// of the session.
type session struct {
	id  string
	mu  sync.Mutex
	doc *pdf.Document
	ann *annotation.Session
}

type sessionRegistry struct {
	mu   sync.RWMutex
	byID map[string]*session
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{byID: make(map[string]*session)}
}

func (r *sessionRegistry) add(doc *pdf.Document, ann *annotation.Session) *session {
	s := &session{id: uuid.NewString(), doc: doc, ann: ann}
	r.mu.Lock()
	r.byID[s.id] = s
	r.mu.Unlock()
	return s
}

func (r *sessionRegistry) get(id string) (*session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, apperrors.Newf(apperrors.KindPrecondition, "session",
			"unknown session %q: open a document first", id)
	}
	return s, nil
}

func (r *sessionRegistry) remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return false
	}
	delete(r.byID, id)
	return true
}

func (r *sessionRegistry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
