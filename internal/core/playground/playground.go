// Package playground holds the state of one processing playground: the
// selected task and library, the input texts and the last rendered analysis.
package playground

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kirillkom/linguista/internal/core/chart"
	"github.com/kirillkom/linguista/internal/core/domain"
	"github.com/kirillkom/linguista/internal/core/ports"
	"github.com/kirillkom/linguista/internal/core/request"
)

// ErrStaleResponse is returned by Submit when the input changed while the
// request was in flight. The response is discarded.
var ErrStaleResponse = errors.New("stale response discarded")

// Snapshot is a copy of the playground state.
type Snapshot struct {
	Task           domain.Task
	Library        domain.Library
	Text           string
	ComparisonText string
	Loading        bool
	Analysis       *ports.Analysis
	Err            string
}

// RequiresComparison reports whether the selected task takes a second text.
func (s Snapshot) RequiresComparison() bool {
	info, ok := domain.LookupTask(string(s.Task))
	return ok && info.RequiresComparison
}

type Playground struct {
	processor ports.TextProcessor
	surface   *chart.Surface

	mu         sync.Mutex
	state      Snapshot
	generation uint64
	pending    uint64
}

func New(processor ports.TextProcessor, surface *chart.Surface) *Playground {
	return &Playground{
		processor: processor,
		surface:   surface,
		state: Snapshot{
			Task:    domain.TaskTokenization,
			Library: domain.LibraryNLTK,
		},
	}
}

func (p *Playground) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// SelectTask switches the task and clears the previous result and chart.
func (p *Playground) SelectTask(task domain.Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.generation++
	p.state.Task = task
	p.state.Analysis = nil
	p.state.Err = ""
	if !p.snapshotLocked().RequiresComparison() {
		p.state.ComparisonText = ""
	}
	return p.clearChart()
}

func (p *Playground) SelectLibrary(lib domain.Library) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generation++
	p.state.Library = lib
}

func (p *Playground) SetText(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generation++
	p.state.Text = text
}

func (p *Playground) SetComparisonText(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generation++
	p.state.ComparisonText = text
}

// Submit sends the current input. Only the response to the latest submit is
// applied; a response overtaken by a newer submit or by an input change
// returns ErrStaleResponse and leaves the state untouched.
func (p *Playground) Submit(ctx context.Context) (Snapshot, error) {
	p.mu.Lock()
	p.generation++
	ticket := p.generation
	p.pending = ticket
	in := request.Input{
		Task:           string(p.state.Task),
		Library:        string(p.state.Library),
		Text:           p.state.Text,
		ComparisonText: p.state.ComparisonText,
	}
	p.state.Err = ""
	p.mu.Unlock()

	analysis, err := p.processor.Process(ctx, in)

	p.mu.Lock()
	defer p.mu.Unlock()

	if ticket != p.generation {
		return p.snapshotLocked(), ErrStaleResponse
	}
	p.pending = 0

	if err != nil {
		p.state.Analysis = nil
		p.state.Err = domain.UserMessage(err, "processing your request")
		if clearErr := p.clearChart(); clearErr != nil {
			return p.snapshotLocked(), errors.Join(err, clearErr)
		}
		return p.snapshotLocked(), err
	}

	p.state.Analysis = analysis
	if analysis.Chart != nil && p.surface != nil {
		if err := p.surface.Show(*analysis.Chart); err != nil {
			return p.snapshotLocked(), fmt.Errorf("show chart: %w", err)
		}
	} else if err := p.clearChart(); err != nil {
		return p.snapshotLocked(), err
	}
	return p.snapshotLocked(), nil
}

func (p *Playground) clearChart() error {
	if p.surface == nil {
		return nil
	}
	return p.surface.Clear()
}

func (p *Playground) snapshotLocked() Snapshot {
	out := p.state
	out.Loading = p.pending != 0 && p.pending == p.generation
	return out
}
