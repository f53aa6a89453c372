package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/kirillkom/linguista/internal/core/chat"
	"github.com/kirillkom/linguista/internal/core/domain"
	"github.com/kirillkom/linguista/internal/core/ports"
)

// ExchangeObserver records the outcome of chat exchanges.
type ExchangeObserver interface {
	ObserveChatExchange(mode, outcome string, elapsed time.Duration)
}

type ChatOption func(*ChatUseCase)

func WithTranscriptStore(store ports.TranscriptStore) ChatOption {
	return func(uc *ChatUseCase) { uc.store = store }
}

func WithExchangeObserver(observer ExchangeObserver) ChatOption {
	return func(uc *ChatUseCase) { uc.observer = observer }
}

func WithChatLogger(logger *slog.Logger) ChatOption {
	return func(uc *ChatUseCase) { uc.logger = logger }
}

// WithSessionIdleTTL bounds how long an unused session is kept when no
// transcript store is configured.
func WithSessionIdleTTL(ttl time.Duration) ChatOption {
	return func(uc *ChatUseCase) {
		if ttl > 0 {
			uc.idleTTL = ttl
		}
	}
}

const defaultSessionIdleTTL = 24 * time.Hour

// ChatUseCase runs chat sessions. With a transcript store the store is the
// source of truth: sessions are reloaded on every call and only stay in memory
// while an exchange or a subscriber holds them. Without a store, sessions live
// in memory until idle for longer than the idle TTL.
type ChatUseCase struct {
	assistant ports.Assistant
	store     ports.TranscriptStore
	observer  ExchangeObserver
	logger    *slog.Logger
	idleTTL   time.Duration
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	session  *chat.Session
	holders  int
	lastUsed time.Time
}

func NewChatUseCase(assistant ports.Assistant, opts ...ChatOption) *ChatUseCase {
	uc := &ChatUseCase{
		assistant: assistant,
		logger:    slog.Default(),
		idleTTL:   defaultSessionIdleTTL,
		now:       time.Now,
		sessions:  make(map[string]*sessionEntry),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Open starts a session seeded with the welcome message.
func (uc *ChatUseCase) Open(ctx context.Context) (chat.Transcript, error) {
	session := chat.NewSession(uuid.NewString(), chat.WithWelcome(domain.WelcomeMessage))
	if uc.store != nil {
		if err := uc.store.Save(ctx, session.Snapshot()); err != nil {
			return chat.Transcript{}, fmt.Errorf("save transcript: %w", err)
		}
		return session.View(), nil
	}

	uc.mu.Lock()
	uc.evictIdleLocked()
	uc.sessions[session.ID()] = &sessionEntry{session: session, lastUsed: uc.now()}
	uc.mu.Unlock()
	return session.View(), nil
}

func (uc *ChatUseCase) Transcript(ctx context.Context, sessionID string) (chat.Transcript, error) {
	session, release, err := uc.acquire(ctx, sessionID)
	if err != nil {
		return chat.Transcript{}, err
	}
	defer release()
	return session.View(), nil
}

// Send runs one exchange. A failed backend call is recorded in the transcript
// as an error message rather than returned; only local rejections return an error.
func (uc *ChatUseCase) Send(ctx context.Context, sessionID string, req domain.ChatRequest) (chat.Transcript, error) {
	req, err := normalizeChatRequest(req)
	if err != nil {
		return chat.Transcript{}, err
	}
	session, release, err := uc.acquire(ctx, sessionID)
	if err != nil {
		return chat.Transcript{}, err
	}
	defer release()

	base := session.Snapshot().NextID
	exchange, err := session.Begin(req.Prompt())
	if err != nil {
		return chat.Transcript{}, err
	}

	start := time.Now()
	reply, callErr := uc.assistant.Chat(ctx, req)
	outcome := "ok"
	var settledMsg domain.ChatMessage
	if callErr != nil {
		outcome = exchangeOutcome(callErr)
		settledMsg, err = exchange.Fail(callErr)
	} else {
		settledMsg, err = exchange.Resolve(reply)
	}
	if err != nil {
		return chat.Transcript{}, fmt.Errorf("settle exchange: %w", err)
	}
	elapsed := time.Since(start)

	uc.logger.Info("chat_exchange",
		"session_id", sessionID,
		"mode", string(req.Type),
		"outcome", outcome,
		"duration_ms", float64(elapsed.Microseconds())/1000.0,
	)
	if uc.observer != nil {
		uc.observer.ObserveChatExchange(string(req.Type), outcome, elapsed)
	}

	if err := uc.persistExchange(context.WithoutCancel(ctx), session, base, exchange.User, settledMsg); err != nil {
		uc.logger.Warn("chat_transcript_save_failed", "session_id", sessionID, "error", err)
	}
	return session.View(), nil
}

func (uc *ChatUseCase) Subscribe(ctx context.Context, sessionID string) (<-chan chat.Event, func(), error) {
	session, release, err := uc.acquire(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	events, cancel := session.Subscribe()
	return events, func() {
		cancel()
		release()
	}, nil
}

// acquire returns the session and pins it in memory until release is called.
// With a store, the stored transcript replaces any idle local copy.
func (uc *ChatUseCase) acquire(ctx context.Context, sessionID string) (*chat.Session, func(), error) {
	var latest *chat.Transcript
	if uc.store != nil {
		transcript, found, err := uc.store.Load(ctx, sessionID)
		if err != nil {
			return nil, nil, fmt.Errorf("load transcript: %w", err)
		}
		if found {
			latest = &transcript
		}
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	entry, ok := uc.sessions[sessionID]
	if ok && uc.store == nil && entry.holders == 0 && uc.expiredLocked(entry) {
		delete(uc.sessions, sessionID)
		ok = false
	}
	switch {
	case ok && latest != nil:
		entry.session.Refresh(*latest)
	case ok:
	case latest != nil:
		entry = &sessionEntry{session: chat.Restore(*latest)}
		uc.sessions[sessionID] = entry
	default:
		return nil, nil, domain.WrapError(domain.ErrNotFound, "load chat session", fmt.Errorf("session %q", sessionID))
	}
	entry.holders++
	entry.lastUsed = uc.now()

	var once sync.Once
	release := func() {
		once.Do(func() {
			uc.mu.Lock()
			defer uc.mu.Unlock()
			entry.holders--
			entry.lastUsed = uc.now()
			if entry.holders == 0 && uc.store != nil && uc.sessions[sessionID] == entry {
				delete(uc.sessions, sessionID)
			}
		})
	}
	return entry.session, release, nil
}

func (uc *ChatUseCase) expiredLocked(entry *sessionEntry) bool {
	return uc.now().Sub(entry.lastUsed) > uc.idleTTL
}

func (uc *ChatUseCase) evictIdleLocked() {
	for id, entry := range uc.sessions {
		if entry.holders == 0 && uc.expiredLocked(entry) {
			delete(uc.sessions, id)
		}
	}
}

// persistExchange saves the session after one exchange. When another replica
// saved the session since base was read, the exchange is appended to that
// newer transcript instead of overwriting it.
func (uc *ChatUseCase) persistExchange(ctx context.Context, session *chat.Session, base int64, user, reply domain.ChatMessage) error {
	if uc.store == nil {
		return nil
	}
	snapshot := session.Snapshot()
	latest, found, err := uc.store.Load(ctx, session.ID())
	if err != nil {
		return fmt.Errorf("load transcript: %w", err)
	}
	if found && latest.NextID != base {
		snapshot = chat.Rebase(latest, user, reply)
		session.Refresh(snapshot)
	}
	if err := uc.store.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	return nil
}

func normalizeChatRequest(req domain.ChatRequest) (domain.ChatRequest, error) {
	if req.Type == "" {
		req.Type = domain.ChatGeneral
	}
	req.Message = strings.TrimSpace(req.Message)
	req.Code = strings.TrimSpace(req.Code)

	switch req.Type {
	case domain.ChatGeneral:
		if req.Message == "" {
			return req, chatValidation("message", "Message cannot be empty")
		}
		req.Code, req.SourceLibrary, req.TargetLibrary, req.IncludePerformance = "", "", "", nil
	case domain.ChatCodeExplanation:
		if req.Code == "" {
			return req, chatValidation("code", "Code cannot be empty")
		}
		req.Message, req.SourceLibrary, req.TargetLibrary, req.IncludePerformance = "", "", "", nil
	case domain.ChatLibraryComparison:
		if req.Code == "" {
			return req, chatValidation("code", "Code cannot be empty")
		}
		req.Message = ""
		if strings.TrimSpace(req.SourceLibrary) == "" {
			req.SourceLibrary = "nltk"
		}
		if strings.TrimSpace(req.TargetLibrary) == "" {
			req.TargetLibrary = "spacy"
		}
		if req.IncludePerformance == nil {
			req.IncludePerformance = lo.ToPtr(true)
		}
	default:
		return req, chatValidation("type", "Invalid message type")
	}
	return req, nil
}

func chatValidation(field, message string) error {
	return domain.WrapError(domain.ErrInvalidInput, "chat request", &domain.ValidationError{Field: field, Message: message})
}

func exchangeOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrBackend):
		return "backend_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "transport_error"
	}
}
