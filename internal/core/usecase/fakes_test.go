package usecase

import (
	"context"
	"sync"

	"github.com/kirillkom/linguista/internal/core/chat"
	"github.com/kirillkom/linguista/internal/core/domain"
)

type backendFake struct {
	mu       sync.Mutex
	result   domain.ProcessingResult
	err      error
	requests []domain.ProcessingRequest

	reply     string
	chatErr   error
	chatCalls []domain.ChatRequest
	chatGate  chan struct{}

	content string
	topic   string
	level   domain.LearningLevel

	sample      domain.SampleText
	explanation domain.Explanation
	code        domain.CodeSample
	sampleTask  string
}

func (f *backendFake) Process(_ context.Context, req domain.ProcessingRequest) (domain.ProcessingResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return domain.ProcessingResult{}, f.err
	}
	return f.result, nil
}

func (f *backendFake) Chat(_ context.Context, req domain.ChatRequest) (string, error) {
	f.mu.Lock()
	f.chatCalls = append(f.chatCalls, req)
	gate := f.chatGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return f.reply, nil
}

func (f *backendFake) LearningContent(_ context.Context, topic string, level domain.LearningLevel) (string, error) {
	f.topic, f.level = topic, level
	if f.err != nil {
		return "", f.err
	}
	return f.content, nil
}

func (f *backendFake) SampleText(_ context.Context, task string) (domain.SampleText, error) {
	f.sampleTask = task
	return f.sample, f.err
}

func (f *backendFake) Explanation(context.Context, string) (domain.Explanation, error) {
	return f.explanation, f.err
}

func (f *backendFake) CodeSample(_ context.Context, sampleType string) (domain.CodeSample, error) {
	if f.err != nil {
		return domain.CodeSample{}, f.err
	}
	out := f.code
	out.Type = sampleType
	return out, nil
}

type transcriptStoreFake struct {
	mu      sync.Mutex
	saved   map[string]chat.Transcript
	saveErr error
	saves   int
}

func newTranscriptStoreFake() *transcriptStoreFake {
	return &transcriptStoreFake{saved: map[string]chat.Transcript{}}
}

func (f *transcriptStoreFake) Load(_ context.Context, id string) (chat.Transcript, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.saved[id]
	return t, ok, nil
}

func (f *transcriptStoreFake) Save(_ context.Context, t chat.Transcript) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved[t.ID] = t
	return nil
}

type markdownFake struct{}

func (markdownFake) ToHTML(md string) (string, error) { return "<p>" + md + "</p>", nil }
