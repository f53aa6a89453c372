// Package chat keeps the ordered transcript of one chat session, including the
// transient pending entry shown while a reply is outstanding.
package chat

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/kirillkom/linguista/internal/core/domain"
)

const (
	failureGeneric  = "An error occurred while sending your message."
	subscriberQueue = 64
)

var ErrSettled = errors.New("exchange already settled")

type EventKind string

const (
	EventAppended EventKind = "appended"
	EventRemoved  EventKind = "removed"
)

type Event struct {
	Kind    EventKind          `json:"kind"`
	Message domain.ChatMessage `json:"message"`
}

// Transcript is the state of a session. Snapshots taken for persistence never
// contain a pending entry.
type Transcript struct {
	ID       string               `json:"id"`
	Messages []domain.ChatMessage `json:"messages"`
	NextID   int64                `json:"next_id"`
}

type Option func(*Session)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithWelcome seeds a new session with a system greeting.
func WithWelcome(content string) Option {
	return func(s *Session) { s.appendLocked(domain.RoleSystem, content, false) }
}

// Session is safe for concurrent use. At most one exchange is in flight at a
// time; Begin rejects a second one with domain.ErrExchangeInFlight.
type Session struct {
	mu        sync.Mutex
	id        string
	messages  []domain.ChatMessage
	nextID    int64
	pendingID int64
	now       func() time.Time

	subs    map[int]chan Event
	nextSub int
	dropped int
}

func NewSession(id string, opts ...Option) *Session {
	s := &Session{id: id, nextID: 1, now: time.Now, subs: map[int]chan Event{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore rebuilds a session from a persisted transcript.
func Restore(t Transcript, opts ...Option) *Session {
	s := NewSession(t.ID, opts...)
	s.messages = settled(t.Messages)
	s.nextID = nextIDAfter(t.NextID, s.messages)
	return s
}

// Refresh replaces the settled history with t, a newer copy read from a shared
// store. It reports false and changes nothing while an exchange is pending.
func (s *Session) Refresh(t Transcript) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingID != 0 {
		return false
	}
	s.messages = settled(t.Messages)
	s.nextID = nextIDAfter(t.NextID, s.messages)
	return true
}

// Rebase appends messages settled elsewhere onto latest, numbering them after
// latest's last message.
func Rebase(latest Transcript, added ...domain.ChatMessage) Transcript {
	out := Transcript{ID: latest.ID, Messages: settled(latest.Messages)}
	out.NextID = nextIDAfter(latest.NextID, out.Messages)
	for _, m := range added {
		m.ID = out.NextID
		out.NextID++
		out.Messages = append(out.Messages, m)
	}
	return out
}

func settled(messages []domain.ChatMessage) []domain.ChatMessage {
	return slices.DeleteFunc(slices.Clone(messages), func(m domain.ChatMessage) bool {
		return m.Role == domain.RolePending
	})
}

func nextIDAfter(next int64, messages []domain.ChatMessage) int64 {
	for _, m := range messages {
		if m.ID >= next {
			next = m.ID + 1
		}
	}
	return max(next, 1)
}

func (s *Session) ID() string { return s.id }

// Messages returns a copy of the transcript in display order.
func (s *Session) Messages() []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages)
}

// Pending reports whether an exchange is awaiting its reply.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingID != 0
}

// Snapshot returns the persistable transcript.
func (s *Session) Snapshot() Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Transcript{ID: s.id, Messages: settled(s.messages), NextID: s.nextID}
}

// View returns the transcript as displayed, including a pending entry.
func (s *Session) View() Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Transcript{ID: s.id, Messages: slices.Clone(s.messages), NextID: s.nextID}
}

// Begin appends the user message followed by a pending placeholder.
func (s *Session) Begin(content string) (*Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pendingID != 0 {
		return nil, domain.WrapError(domain.ErrExchangeInFlight, "chat begin", fmt.Errorf("session %s awaits message %d", s.id, s.pendingID))
	}
	user := s.appendLocked(domain.RoleUser, content, false)
	pending := s.appendLocked(domain.RolePending, domain.PendingContent, false)
	s.pendingID = pending.ID
	return &Exchange{session: s, User: user, pendingID: pending.ID}, nil
}

// Subscribe streams transcript events until cancel is called. Events are
// dropped for a subscriber that stops draining its channel.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Event, subscriberQueue)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

// Dropped returns how many events were discarded for slow subscribers.
func (s *Session) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *Session) appendLocked(role domain.ChatRole, content string, isErr bool) domain.ChatMessage {
	msg := domain.ChatMessage{
		ID:        s.nextID,
		Role:      role,
		Content:   content,
		Error:     isErr,
		Timestamp: s.now().UTC(),
	}
	s.nextID++
	s.messages = append(s.messages, msg)
	s.publishLocked(Event{Kind: EventAppended, Message: msg})
	return msg
}

func (s *Session) settle(pendingID int64, content string, isErr bool) (domain.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pendingID != pendingID {
		return domain.ChatMessage{}, ErrSettled
	}
	idx := slices.IndexFunc(s.messages, func(m domain.ChatMessage) bool { return m.ID == pendingID })
	if idx >= 0 {
		removed := s.messages[idx]
		s.messages = slices.Delete(s.messages, idx, idx+1)
		s.publishLocked(Event{Kind: EventRemoved, Message: removed})
	}
	s.pendingID = 0
	return s.appendLocked(domain.RoleSystem, content, isErr), nil
}

func (s *Session) publishLocked(evt Event) {
	for _, ch := range s.subs {
		select {
		case ch <- evt:
		default:
			s.dropped++
		}
	}
}

// Exchange is one in-flight request/reply pair.
type Exchange struct {
	session   *Session
	pendingID int64
	User      domain.ChatMessage
}

// Resolve replaces the pending entry with the assistant's reply.
func (e *Exchange) Resolve(reply string) (domain.ChatMessage, error) {
	return e.session.settle(e.pendingID, reply, false)
}

// Fail replaces the pending entry with an error message derived from err.
func (e *Exchange) Fail(err error) (domain.ChatMessage, error) {
	return e.session.settle(e.pendingID, FailureText(err), true)
}

// FailureText is the transcript text for a failed exchange.
func FailureText(err error) string {
	var backend *domain.BackendError
	if errors.As(err, &backend) {
		return "Error: " + backend.Message
	}
	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		return "Error: " + validation.Message
	}
	return failureGeneric
}
