package stage

import (
	"errors"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/inamate/zoompan/internal/telemetry"
	"github.com/inamate/zoompan/internal/typeid"
	"github.com/inamate/zoompan/internal/viewport"
)

var ErrNotFound = errors.New("stage not found")

// Service is the in-memory registry of hosted stages.
type Service struct {
	mu     sync.RWMutex
	stages map[string]*Stage
	opts   []viewport.Option
	now    func() time.Time

	onRemove []func(id string)
}

// NewService returns a registry whose engines are built with opts.
func NewService(opts ...viewport.Option) *Service {
	return &Service{
		stages: make(map[string]*Stage),
		opts:   opts,
		now:    time.Now,
	}
}

func (s *Service) Create(layout *viewport.Layout) (*Stage, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	st, err := newStage(typeid.NewStageID(), layout.Clone(), s.now(), s.opts...)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.stages[st.ID] = st
	s.mu.Unlock()
	telemetry.StagesActive.Inc()

	slog.Info("stage created", "stage", st.ID)
	return st, nil
}

func (s *Service) Get(id string) (*Stage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stages[id]
	if !ok {
		return nil, ErrNotFound
	}
	return st, nil
}

func (s *Service) Delete(id string) error {
	s.mu.Lock()
	if _, ok := s.stages[id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.stages, id)
	s.mu.Unlock()

	telemetry.StagesActive.Dec()
	slog.Info("stage deleted", "stage", id)
	s.notifyRemoved(id)
	return nil
}

// OnRemove registers fn to run after a stage is deleted or swept. fn runs
// without the registry lock held.
func (s *Service) OnRemove(fn func(id string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRemove = append(s.onRemove, fn)
}

func (s *Service) notifyRemoved(ids ...string) {
	s.mu.RLock()
	hooks := slices.Clone(s.onRemove)
	s.mu.RUnlock()
	for _, id := range ids {
		for _, fn := range hooks {
			fn(id)
		}
	}
}

// Sweep removes stages idle for longer than ttl and returns their IDs in
// sorted order.
func (s *Service) Sweep(ttl time.Duration) []string {
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	var removed []string
	for id, st := range s.stages {
		if st.idleSince().Before(cutoff) {
			delete(s.stages, id)
			removed = append(removed, id)
		}
	}
	s.mu.Unlock()

	if len(removed) == 0 {
		return nil
	}
	sort.Strings(removed)
	telemetry.StagesActive.Sub(float64(len(removed)))
	slog.Info("swept idle stages", "count", len(removed))
	s.notifyRemoved(removed...)
	return removed
}

// RunSweeper calls Sweep every interval until stop is closed.
func (s *Service) RunSweeper(ttl, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep(ttl)
		case <-stop:
			return
		}
	}
}
