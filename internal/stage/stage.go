package stage

import (
	"log/slog"
	"sync"
	"time"

	"github.com/inamate/zoompan/internal/telemetry"
	"github.com/inamate/zoompan/internal/viewport"
)

// Snapshot is the externally visible state of a stage.
type Snapshot struct {
	ID        string                   `json:"id"`
	State     viewport.State           `json:"state"`
	Committed viewport.TransformResult `json:"committed"`
	Applied   viewport.TransformResult `json:"applied"`
	Layout    *viewport.Layout         `json:"layout"`
	Bounds    *viewport.Bounds         `json:"bounds,omitempty"`
	Matrix    []float64                `json:"matrix,omitempty"`
	MinScale  float64                  `json:"minScale"`
	MaxScale  float64                  `json:"maxScale"`
}

// Stage hosts one viewport engine. The engine is single-threaded, so every
// call goes through the stage mutex.
type Stage struct {
	ID string

	mu         sync.Mutex
	layout     *viewport.Layout
	engine     *viewport.Engine
	lastActive time.Time

	lmu       sync.RWMutex
	listeners map[int]func(viewport.TransformResult)
	nextID    int
}

func newStage(id string, layout *viewport.Layout, now time.Time, opts ...viewport.Option) (*Stage, error) {
	s := &Stage{
		ID:         id,
		layout:     layout,
		lastActive: now,
		listeners:  make(map[int]func(viewport.TransformResult)),
	}
	opts = append(opts, viewport.WithLogger(slog.Default().With("stage", id)))
	eng, err := viewport.New(s.layout, viewport.SinkFunc(s.broadcast), opts...)
	if err != nil {
		return nil, err
	}
	s.engine = eng
	return s, nil
}

// Subscribe registers fn for every transform the engine emits. The returned
// function removes it.
func (s *Stage) Subscribe(fn func(viewport.TransformResult)) func() {
	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.lmu.Unlock()

	return func() {
		s.lmu.Lock()
		delete(s.listeners, id)
		s.lmu.Unlock()
	}
}

func (s *Stage) broadcast(t viewport.TransformResult) {
	s.lmu.RLock()
	fns := make([]func(viewport.TransformResult), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.lmu.RUnlock()

	telemetry.TransformsEmitted.Inc()
	for _, fn := range fns {
		fn(t)
	}
}

// Do runs fn with exclusive access to the engine.
func (s *Stage) Do(fn func(e *viewport.Engine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
	return fn(s.engine)
}

// Apply runs one gesture command and returns the applied transform.
func (s *Stage) Apply(cmd Command) (viewport.TransformResult, error) {
	var out viewport.TransformResult
	err := s.Do(func(e *viewport.Engine) error {
		var err error
		out, err = cmd.apply(e)
		return err
	})
	return out, err
}

// SetLayout replaces the measured sizes. When no gesture is active the
// committed transform is re-clamped to the new bounds.
func (s *Stage) SetLayout(l *viewport.Layout) (viewport.TransformResult, error) {
	if err := l.Validate(); err != nil {
		return viewport.TransformResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	// The engine holds s.layout as its size provider; update it in place.
	*s.layout = *l.Clone()
	return s.engine.Relayout()
}

// Snapshot returns the current state.
func (s *Stage) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:        s.ID,
		State:     s.engine.State(),
		Committed: s.engine.CurrentTransform(),
		Applied:   s.engine.AppliedTransform(),
		Layout:    s.layout.Clone(),
	}
	snap.MinScale, snap.MaxScale = s.engine.ScaleLimits()
	if b, err := s.engine.Bounds(); err == nil {
		snap.Bounds = &b
	}
	if origin, ok := s.layout.ContentRenderedPosition(); ok {
		snap.Matrix = snap.Applied.Matrix(origin).ToSlice()
	}
	return snap
}

// ToContent maps a parent-space point into unscaled content coordinates
// under the applied transform. It reports false while the layout is unknown.
func (s *Stage) ToContent(p viewport.Point) (viewport.Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	origin, ok := s.layout.ContentRenderedPosition()
	if !ok {
		return viewport.Point{}, false
	}
	return s.engine.AppliedTransform().ToContent(p, origin), true
}

func (s *Stage) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}
