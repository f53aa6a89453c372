package playground

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kirillkom/linguista/internal/core/chart"
	"github.com/kirillkom/linguista/internal/core/domain"
	"github.com/kirillkom/linguista/internal/core/ports"
	"github.com/kirillkom/linguista/internal/core/request"
)

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

type processorFake struct {
	mu       sync.Mutex
	inputs   []request.Input
	gates    []chan struct{}
	analysis *ports.Analysis
	err      error
}

func (f *processorFake) Process(_ context.Context, in request.Input) (*ports.Analysis, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, in)
	var gate chan struct{}
	if len(f.gates) > 0 {
		gate, f.gates = f.gates[0], f.gates[1:]
	}
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if f.err != nil {
		return nil, f.err
	}
	out := *f.analysis
	out.Request.Text = in.Text
	return &out, nil
}

type canvasFake struct {
	drawn    int
	released int
}

type instanceFake struct{ canvas *canvasFake }

func (i instanceFake) Release() error {
	i.canvas.released++
	return nil
}

func (c *canvasFake) Draw(chart.Config) (chart.Instance, error) {
	c.drawn++
	return instanceFake{canvas: c}, nil
}

func pieAnalysis() *ports.Analysis {
	return &ports.Analysis{Chart: &chart.Config{Kind: domain.ChartPie, Title: "Sentiment Distribution"}}
}

func TestSubmitAppliesResultAndDrawsChart(t *testing.T) {
	canvas := &canvasFake{}
	proc := &processorFake{analysis: pieAnalysis()}
	pg := New(proc, chart.NewSurface(canvas))

	require.NoError(t, pg.SelectTask(domain.TaskSentiment))
	pg.SelectLibrary(domain.LibrarySpaCy)
	pg.SetText("I love this")

	snap, err := pg.Submit(context.Background())
	require.NoError(t, err)
	require.False(t, snap.Loading)
	require.NotNil(t, snap.Analysis)
	require.Equal(t, 1, canvas.drawn)
	require.Equal(t, []request.Input{{Task: "sentiment_analysis", Library: "spacy", Text: "I love this"}}, proc.inputs)

	_, err = pg.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, canvas.drawn)
	require.Equal(t, 1, canvas.released, "previous chart must be released before redraw")
}

func TestSelectTaskClearsResultAndChart(t *testing.T) {
	canvas := &canvasFake{}
	surface := chart.NewSurface(canvas)
	pg := New(&processorFake{analysis: pieAnalysis()}, surface)
	require.NoError(t, pg.SelectTask(domain.TaskSimilarity))
	pg.SetText("first text")
	pg.SetComparisonText("second text")

	_, err := pg.Submit(context.Background())
	require.NoError(t, err)
	require.True(t, surface.Active())

	require.NoError(t, pg.SelectTask(domain.TaskNER))
	snap := pg.Snapshot()
	require.Nil(t, snap.Analysis)
	require.Empty(t, snap.ComparisonText)
	require.False(t, surface.Active())
}

func TestSubmitDropsResponseAfterTaskChange(t *testing.T) {
	gate := make(chan struct{})
	proc := &processorFake{analysis: pieAnalysis(), gates: []chan struct{}{gate}}
	canvas := &canvasFake{}
	pg := New(proc, chart.NewSurface(canvas))
	pg.SetText("some text")

	done := make(chan error, 1)
	go func() {
		_, err := pg.Submit(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool { return pg.Snapshot().Loading }, waitFor, tick)
	require.NoError(t, pg.SelectTask(domain.TaskKeywordExtraction))
	require.False(t, pg.Snapshot().Loading)

	close(gate)
	require.ErrorIs(t, <-done, ErrStaleResponse)
	require.Nil(t, pg.Snapshot().Analysis)
	require.Zero(t, canvas.drawn)
}

func TestOnlyLatestSubmitIsApplied(t *testing.T) {
	first := make(chan struct{})
	proc := &processorFake{analysis: &ports.Analysis{}, gates: []chan struct{}{first}}
	pg := New(proc, nil)
	pg.SetText("first")

	done := make(chan error, 1)
	go func() {
		_, err := pg.Submit(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool {
		proc.mu.Lock()
		defer proc.mu.Unlock()
		return len(proc.inputs) == 1
	}, waitFor, tick)

	pg.SetText("second")
	snap, err := pg.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, "second", snap.Analysis.Request.Text)

	close(first)
	require.ErrorIs(t, <-done, ErrStaleResponse)
	require.Equal(t, "second", pg.Snapshot().Analysis.Request.Text)
}

func TestSubmitFailureLeavesUsableState(t *testing.T) {
	backendErr := domain.WrapError(domain.ErrBackend, "nlp_process", &domain.BackendError{Message: "Text too short"})
	pg := New(&processorFake{err: backendErr}, chart.NewSurface(&canvasFake{}))
	pg.SetText("hey")

	snap, err := pg.Submit(context.Background())
	require.True(t, errors.Is(err, domain.ErrBackend))
	require.False(t, snap.Loading)
	require.Equal(t, "Text too short", snap.Err)

	pg2 := New(&processorFake{err: errors.New("connection refused")}, nil)
	snap, _ = pg2.Submit(context.Background())
	require.Equal(t, "An error occurred while processing your request.", snap.Err)
}
