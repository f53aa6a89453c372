// Package redis persists chat transcripts so sessions survive API restarts and
// can be served by any replica.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kirillkom/linguista/internal/core/chat"
)

const (
	defaultTTL         = 24 * time.Hour
	defaultMaxMessages = 200
	keyPrefix          = "linguista:chat:"
)

type client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

type TranscriptStore struct {
	rdb         client
	ttl         time.Duration
	maxMessages int
}

// NewTranscriptStore keeps at most maxMessages per session, each save
// refreshing the ttl. Non-positive values fall back to defaults.
func NewTranscriptStore(rdb *redis.Client, ttl time.Duration, maxMessages int) *TranscriptStore {
	return newTranscriptStore(rdb, ttl, maxMessages)
}

func newTranscriptStore(rdb client, ttl time.Duration, maxMessages int) *TranscriptStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if maxMessages <= 0 {
		maxMessages = defaultMaxMessages
	}
	return &TranscriptStore{rdb: rdb, ttl: ttl, maxMessages: maxMessages}
}

func (s *TranscriptStore) Load(ctx context.Context, sessionID string) (chat.Transcript, bool, error) {
	data, err := s.rdb.Get(ctx, key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return chat.Transcript{}, false, nil
	}
	if err != nil {
		return chat.Transcript{}, false, fmt.Errorf("load transcript: %w", err)
	}

	var transcript chat.Transcript
	if err := json.Unmarshal(data, &transcript); err != nil {
		return chat.Transcript{}, false, fmt.Errorf("unmarshal transcript: %w", err)
	}
	return transcript, true, nil
}

func (s *TranscriptStore) Save(ctx context.Context, transcript chat.Transcript) error {
	if len(transcript.Messages) > s.maxMessages {
		transcript.Messages = transcript.Messages[len(transcript.Messages)-s.maxMessages:]
	}

	data, err := json.Marshal(transcript)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	if err := s.rdb.Set(ctx, key(transcript.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	return nil
}

func key(sessionID string) string {
	return keyPrefix + sessionID
}
