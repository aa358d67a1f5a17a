// Package session keeps per-conversation history in memory so the
// generator can carry context across turns. History is bounded: only the
// most recent exchanges are retained per session.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound indicates the session id does not exist in the store.
var ErrSessionNotFound = errors.New("session not found")

// Exchange is one completed query/answer turn.
type Exchange struct {
	Query  string
	Answer string
	At     time.Time
}

type state struct {
	exchanges []Exchange
	createdAt time.Time
}

// Store is an in-memory session store safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	sessions   map[string]*state
	maxHistory int
	now        func() time.Time
}

// NewStore creates a Store that retains at most maxHistory exchanges per
// session. Non-positive maxHistory falls back to 2.
func NewStore(maxHistory int) *Store {
	if maxHistory <= 0 {
		maxHistory = 2
	}
	return &Store{
		sessions:   make(map[string]*state),
		maxHistory: maxHistory,
		now:        time.Now,
	}
}

// Create registers a new session and returns its id.
func (s *Store) Create() string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &state{createdAt: s.now()}
	return id
}

// AddExchange appends a completed turn to the session, creating the
// session if the id is unknown. Old exchanges beyond the retention limit
// are dropped.
func (s *Store) AddExchange(id, query, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[id]
	if !ok {
		st = &state{createdAt: s.now()}
		s.sessions[id] = st
	}

	st.exchanges = append(st.exchanges, Exchange{Query: query, Answer: answer, At: s.now()})
	if len(st.exchanges) > s.maxHistory {
		st.exchanges = st.exchanges[len(st.exchanges)-s.maxHistory:]
	}
}

// History returns the session's retained turns formatted for prompt
// injection, oldest first. An unknown or empty session yields "".
func (s *Store) History(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[id]
	if !ok || len(st.exchanges) == 0 {
		return ""
	}

	var b strings.Builder
	for i, ex := range st.exchanges {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "User: %s\nAssistant: %s", ex.Query, ex.Answer)
	}
	return b.String()
}

// Clear removes the session and its history.
func (s *Store) Clear(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(s.sessions, id)
	return nil
}

// count returns the number of live sessions.
func (s *Store) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
