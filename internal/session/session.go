// Package session owns the portal's credential state: every stored token,
// lookup, and invalidation goes through the Manager rather than ad-hoc
// reads scattered across handlers.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/harborbank/portal/internal/coreapi"
)

const recordPrefix = "session:v1:"

// ErrNoSession indicates the presented token does not map to a live session.
var ErrNoSession = errors.New("no active session")

// Session is the server-side record behind a portal token.
type Session struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Name      string       `json:"name"`
	Role      coreapi.Role `json:"role"`
	CoreToken string       `json:"core_token"`
	IssuedAt  time.Time    `json:"issued_at"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// EventKind classifies session lifecycle events.
type EventKind string

const (
	EventIssued  EventKind = "issued"
	EventCleared EventKind = "cleared"
)

// Event notifies subscribers of a session state change.
type Event struct {
	Kind      EventKind
	SessionID string
	UserID    string
}

// Manager stores session records in Redis and signs portal tokens for them.
type Manager struct {
	cache  *redis.Client
	tokens *tokenCodec
	ttl    time.Duration

	mu   sync.Mutex
	subs []chan Event
}

// NewManager builds a session manager. ttl bounds the session lifetime and
// the Redis record expiry.
func NewManager(cache *redis.Client, secret []byte, ttl time.Duration) (*Manager, error) {
	if cache == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("session secret is required")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Manager{cache: cache, tokens: &tokenCodec{secret: secret}, ttl: ttl}, nil
}

// Issue creates a session for an authenticated user and returns the signed
// portal token to hand to the client.
func (m *Manager) Issue(ctx context.Context, user coreapi.User, coreToken string) (string, Session, error) {
	now := time.Now().UTC()
	sess := Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Name:      user.FullName,
		Role:      user.Role,
		CoreToken: coreToken,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}

	payload, err := json.Marshal(sess)
	if err != nil {
		return "", Session{}, fmt.Errorf("encode session: %w", err)
	}
	if err := m.cache.Set(ctx, recordPrefix+sess.ID, payload, m.ttl).Err(); err != nil {
		return "", Session{}, fmt.Errorf("store session: %w", err)
	}

	token, err := m.tokens.sign(sess.ID, sess.Role, sess.ExpiresAt)
	if err != nil {
		return "", Session{}, err
	}

	m.publish(Event{Kind: EventIssued, SessionID: sess.ID, UserID: sess.UserID})
	return token, sess, nil
}

// Resolve validates a portal token and loads its session record. A valid
// signature over a missing record still resolves to ErrNoSession, so a
// cleared session cannot be replayed.
func (m *Manager) Resolve(ctx context.Context, token string) (Session, error) {
	sessionID, err := m.tokens.verify(token)
	if err != nil {
		return Session{}, ErrNoSession
	}

	payload, err := m.cache.Get(ctx, recordPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	if time.Now().UTC().After(sess.ExpiresAt) {
		_ = m.Clear(ctx, sess.ID, sess.UserID)
		return Session{}, ErrNoSession
	}
	return sess, nil
}

// Clear removes the session record and notifies subscribers. Clearing an
// already-absent session is not an error.
func (m *Manager) Clear(ctx context.Context, sessionID, userID string) error {
	if err := m.cache.Del(ctx, recordPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	m.publish(Event{Kind: EventCleared, SessionID: sessionID, UserID: userID})
	return nil
}

// Subscribe returns a channel receiving session change events. Slow
// subscribers drop events instead of blocking session operations.
func (m *Manager) Subscribe() <-chan Event {
	ch := make(chan Event, 16)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

func (m *Manager) publish(event Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- event:
		default:
		}
	}
}
