package chart

import (
	"fmt"
	"sync"
)

// Instance is a drawn chart holding renderer resources until released.
type Instance interface {
	Release() error
}

// Canvas draws a chart configuration.
type Canvas interface {
	Draw(cfg Config) (Instance, error)
}

// Surface owns at most one drawn chart. A new chart is drawn only after the
// previous instance has been released.
type Surface struct {
	mu      sync.Mutex
	canvas  Canvas
	current Instance
}

func NewSurface(canvas Canvas) *Surface {
	return &Surface{canvas: canvas}
}

// Show releases the current chart, if any, and draws cfg.
func (s *Surface) Show(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.releaseLocked(); err != nil {
		return err
	}
	inst, err := s.canvas.Draw(cfg)
	if err != nil {
		return fmt.Errorf("draw chart: %w", err)
	}
	s.current = inst
	return nil
}

// Clear releases the current chart without drawing another.
func (s *Surface) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releaseLocked()
}

// Active reports whether a chart is currently drawn.
func (s *Surface) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

func (s *Surface) releaseLocked() error {
	if s.current == nil {
		return nil
	}
	inst := s.current
	s.current = nil
	if err := inst.Release(); err != nil {
		return fmt.Errorf("release chart: %w", err)
	}
	return nil
}
