// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package web

import (
	"sync"
	"time"

	"github.com/pdiddy/glossary-engine/internal/session"
)

// maxIdle is how long an untouched session is kept.
const maxIdle = 24 * time.Hour

// entry is one browser session. mu serializes actions and guards sess for
// as long as an action runs, which includes its network calls. Pages and API
// reads use the snapshot published after each action, guarded by view, so
// they never wait on a running action.
type entry struct {
	mu   sync.Mutex
	sess *session.Session

	view     sync.Mutex
	snap     *session.Session
	busy     bool
	show     bool
	flash    string
	flashErr bool

	lastUsed time.Time
}

func newEntry(sess *session.Session, now time.Time) *entry {
	return &entry{sess: sess, snap: sess.Clone(), lastUsed: now}
}

// begin marks an action as running. The caller holds mu.
func (e *entry) begin() {
	e.view.Lock()
	defer e.view.Unlock()
	e.busy, e.show = true, false
}

// publish makes the current session state visible to readers. The caller
// holds mu.
func (e *entry) publish(show bool) {
	snap := e.sess.Clone()
	e.view.Lock()
	defer e.view.Unlock()
	e.snap, e.busy, e.show = snap, false, show
}

// snapshot returns the last published session. It must not be modified.
func (e *entry) snapshot() *session.Session {
	e.view.Lock()
	defer e.view.Unlock()
	return e.snap
}

// pageState returns what a page view needs and clears the pending message.
func (e *entry) pageState() (snap *session.Session, busy, show bool, flash string, flashErr bool) {
	e.view.Lock()
	defer e.view.Unlock()
	snap, busy, show, flash, flashErr = e.snap, e.busy, e.show, e.flash, e.flashErr
	e.flash, e.flashErr = "", false
	return
}

func (e *entry) setFlash(msg string, isErr bool) {
	e.view.Lock()
	defer e.view.Unlock()
	e.flash, e.flashErr = msg, isErr
}

// sessionStore holds sessions in memory, keyed by session ID.
type sessionStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

func newSessionStore() *sessionStore {
	return &sessionStore{entries: make(map[string]*entry), now: time.Now}
}

// get returns the entry for id, or nil.
func (st *sessionStore) get(id string) *entry {
	st.mu.Lock()
	defer st.mu.Unlock()
	e := st.entries[id]
	if e != nil {
		e.lastUsed = st.now()
	}
	return e
}

// add stores sess and drops sessions idle for longer than maxIdle.
func (st *sessionStore) add(sess *session.Session) *entry {
	st.mu.Lock()
	defer st.mu.Unlock()
	now := st.now()
	for id, e := range st.entries {
		if now.Sub(e.lastUsed) > maxIdle {
			delete(st.entries, id)
		}
	}
	e := newEntry(sess, now)
	st.entries[sess.ID] = e
	return e
}

func (st *sessionStore) remove(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.entries[id]
	delete(st.entries, id)
	return ok
}

func (st *sessionStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.entries)
}
