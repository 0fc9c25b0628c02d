package server

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hanwen/go-netdvr/dvr"
)

var ErrUnknownSession = errors.New("device not found, please login first")

// SessionID names the session for a device address.
func SessionID(host string, port uint16) string {
	return fmt.Sprintf("%s_%d", host, port)
}

type entry struct {
	mu      sync.Mutex
	session *dvr.Session
}

// Registry holds one dvr.Session per device. Sessions are not safe for
// concurrent use, so every access goes through the entry lock.
type Registry struct {
	newSession func() *dvr.Session

	mu      sync.Mutex
	entries map[string]*entry
}

func NewRegistry(newSession func() *dvr.Session) *Registry {
	return &Registry{
		newSession: newSession,
		entries:    map[string]*entry{},
	}
}

// Login runs fn on the session for id, creating it if needed. A new
// session that is not logged in after fn is dropped again; an existing
// one is left to its owner.
func (r *Registry) Login(id string, fn func(*dvr.Session) error) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		e = &entry{session: r.newSession()}
		r.entries[id] = e
	}
	r.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	err := fn(e.session)
	if !ok && !e.session.LoggedIn() {
		r.mu.Lock()
		if r.entries[id] == e {
			delete(r.entries, id)
		}
		r.mu.Unlock()
	}
	return err
}

// With runs fn holding the lock of session id.
func (r *Registry) With(id string, fn func(*dvr.Session) error) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	r.mu.Unlock()
	if !ok {
		return ErrUnknownSession
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.session)
}

// Remove logs out and forgets session id.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()
	if !ok {
		return ErrUnknownSession
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.Logout()
	return nil
}

// IDs returns the registered session ids in order.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []string
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close logs out every session.
func (r *Registry) Close() {
	for _, id := range r.IDs() {
		r.Remove(id)
	}
}
