// Package memory keeps the per-session call transcript.
package memory

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	contractx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/contract"
)

var (
	ErrNoActiveSession = fmt.Errorf("%w: %w", contractx.ErrPrecondition, contractx.ErrNoActiveSession)
	ErrInvalidSession  = errors.New("session id is empty")
	ErrInvalidRole     = fmt.Errorf("%w: unknown role", contractx.ErrValidation)
)

var _ contractx.ConversationMemory = (*Conversation)(nil)

// Conversation holds append-only transcripts keyed by session id. Exactly one
// session is current at a time; AddMessage writes to it.
type Conversation struct {
	mu       sync.RWMutex
	sessions map[string][]contractx.Turn
	current  string
}

func New() *Conversation {
	return &Conversation{sessions: make(map[string][]contractx.Turn, 1)}
}

// StartSession makes id the current session, starting it with an empty
// transcript.
func (c *Conversation) StartSession(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidSession
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessions == nil {
		c.sessions = make(map[string][]contractx.Turn, 1)
	}
	c.sessions[id] = nil
	c.current = id
	return nil
}

func (c *Conversation) AddMessage(role contractx.Role, text string) error {
	if role != contractx.RoleUser && role != contractx.RoleAgent {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == "" {
		return ErrNoActiveSession
	}
	c.sessions[c.current] = append(c.sessions[c.current], contractx.Turn{Role: role, Text: text})
	return nil
}

// Conversation returns a copy of the current session's turns, oldest first.
func (c *Conversation) Conversation() []contractx.Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == "" {
		return nil
	}
	return append([]contractx.Turn(nil), c.sessions[c.current]...)
}

func (c *Conversation) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}
