package viewport

import (
	"errors"
	"fmt"
	"log/slog"
)

// Default scale limits.
const (
	DefaultMinScale = 0.25
	DefaultMaxScale = 8.0
)

// State is the gesture session the engine is in.
type State int

const (
	StateIdle State = iota
	StatePinching
	StatePanning
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePinching:
		return "pinching"
	case StatePanning:
		return "panning"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*s = StateIdle
	case "pinching":
		*s = StatePinching
	case "panning":
		*s = StatePanning
	default:
		return fmt.Errorf("unknown state %q", b)
	}
	return nil
}

var (
	errNoPinch     = fmt.Errorf("no pinch in progress: %w", ErrPreconditionNotMet)
	errPinchActive = fmt.Errorf("pinch in progress: %w", ErrPreconditionNotMet)
	errNotIdle     = fmt.Errorf("gesture in progress: %w", ErrPreconditionNotMet)
)

// pinchSession lives between BeginPinch and EndPinch.
type pinchSession struct {
	startScale float64
	focal      Point
}

// Engine tracks the cumulative scale and translation of a content element
// inside a fixed parent and keeps it within the translation bounds while
// pinch and pan gestures are applied.
//
// Engine is not safe for concurrent use. All calls are expected to come
// from the goroutine delivering gesture events.
type Engine struct {
	sizes SizeProvider
	sink  Sink
	log   *slog.Logger

	minScale float64
	maxScale float64

	// committed holds the transform in effect between gestures; applied is
	// the last transform handed to the sink.
	committed TransformResult
	applied   TransformResult

	state State
	pinch pinchSession
}

// Option configures an Engine.
type Option func(*Engine)

// WithScaleLimits overrides the default [0.25, 8] scale range.
func WithScaleLimits(min, max float64) Option {
	return func(e *Engine) {
		e.minScale = min
		e.maxScale = max
	}
}

// WithLogger sets the logger used for skipped updates. By default the
// engine logs nothing.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithInitial sets the committed transform the engine starts from.
func WithInitial(t TransformResult) Option {
	return func(e *Engine) {
		e.committed = t
	}
}

// New returns an engine reading sizes from sizes and emitting transforms to
// sink. sink may be nil.
func New(sizes SizeProvider, sink Sink, opts ...Option) (*Engine, error) {
	if sizes == nil {
		return nil, errors.New("viewport: nil size provider")
	}

	e := &Engine{
		sizes:     sizes,
		sink:      sink,
		log:       slog.New(slog.DiscardHandler),
		minScale:  DefaultMinScale,
		maxScale:  DefaultMaxScale,
		committed: Identity,
	}
	for _, opt := range opts {
		opt(e)
	}

	if !isPositive(e.minScale) || !isFinite(e.maxScale) || e.minScale > 1 || e.maxScale < 1 {
		return nil, fmt.Errorf("scale limits [%g, %g]: %w", e.minScale, e.maxScale, ErrOutOfRangeInput)
	}
	c := e.committed
	if !isPositive(c.Scale) || c.Scale < e.minScale || c.Scale > e.maxScale ||
		!isFinite(c.TranslationX) || !isFinite(c.TranslationY) {
		return nil, fmt.Errorf("initial transform %+v: %w", c, ErrOutOfRangeInput)
	}
	e.applied = e.committed
	return e, nil
}

// State returns the active gesture session.
func (e *Engine) State() State { return e.state }

// ScaleLimits returns the minimum and maximum scale.
func (e *Engine) ScaleLimits() (min, max float64) { return e.minScale, e.maxScale }

// CurrentTransform returns the committed transform.
func (e *Engine) CurrentTransform() TransformResult { return e.committed }

// AppliedTransform returns the transform most recently handed to the sink,
// which differs from CurrentTransform while a gesture is in progress.
func (e *Engine) AppliedTransform() TransformResult { return e.applied }

// Bounds returns the translation bounds at the applied scale, computed from
// fresh sizes.
func (e *Engine) Bounds() (Bounds, error) {
	parent, content, err := e.measure()
	if err != nil {
		return Bounds{}, err
	}
	return ComputeBounds(parent, content, e.applied.Scale)
}

// BeginPinch starts a pinch session around origin, a fraction of the
// content's rendered size in [0, 1] on each axis. An active pan is dropped
// without committing.
func (e *Engine) BeginPinch(origin Point) error {
	if !inUnit(origin.X) || !inUnit(origin.Y) {
		return fmt.Errorf("pinch origin (%g, %g): %w", origin.X, origin.Y, ErrOutOfRangeInput)
	}
	if _, _, err := e.measure(); err != nil {
		_, err = e.skip("begin pinch", err)
		return err
	}

	if e.state == StatePanning {
		e.log.Debug("viewport: pinch preempts pan")
	}
	e.state = StatePinching
	e.pinch = pinchSession{startScale: e.committed.Scale, focal: origin}
	e.revert()
	return nil
}

// UpdatePinch multiplies the scale by scaleDelta, clamps it, and derives the
// translation that keeps the focal origin in place. The result is emitted
// but not committed until EndPinch.
func (e *Engine) UpdatePinch(scaleDelta float64) (TransformResult, error) {
	if !isPositive(scaleDelta) {
		return e.applied, fmt.Errorf("scale delta %g: %w", scaleDelta, ErrOutOfRangeInput)
	}
	if e.state != StatePinching {
		return e.skip("update pinch", errNoPinch)
	}

	parent, content, err := e.measure()
	if err != nil {
		return e.skip("update pinch", err)
	}
	pos, ok := e.sizes.ContentRenderedPosition()
	if !ok {
		return e.skip("update pinch", ErrPreconditionNotMet)
	}
	if !isFinite(pos.X) || !isFinite(pos.Y) {
		return e.applied, fmt.Errorf("content position (%g, %g): %w", pos.X, pos.Y, ErrInvalidSize)
	}

	scale := clamp(e.applied.Scale*scaleDelta, e.minScale, e.maxScale)
	b, err := ComputeBounds(parent, content, scale)
	if err != nil {
		return e.applied, err
	}

	start := e.pinch.startScale
	next := TransformResult{Scale: scale}
	if b.WidthOverflows {
		next.TranslationX = b.ClampX(focalTranslation(e.pinch.focal.X, pos.X, e.committed.TranslationX,
			parent.Width, content.Width, start, scale))
	} else {
		next.TranslationX = b.ClampX(centering(parent.Width, content.Width, b.ScaledW))
	}
	if b.HeightOverflows {
		next.TranslationY = b.ClampY(focalTranslation(e.pinch.focal.Y, pos.Y, e.committed.TranslationY,
			parent.Height, content.Height, start, scale))
	} else {
		next.TranslationY = b.ClampY(centering(parent.Height, content.Height, b.ScaledH))
	}

	e.apply(next)
	return next, nil
}

// EndPinch commits the last applied transform. It is a no-op without an
// active pinch.
func (e *Engine) EndPinch() {
	if e.state != StatePinching {
		return
	}
	e.committed = e.applied
	e.state = StateIdle
	e.pinch = pinchSession{}
}

// BeginPan starts a pan session. It is ignored while a pinch is active.
func (e *Engine) BeginPan() error {
	switch e.state {
	case StatePinching:
		_, err := e.skip("begin pan", errPinchActive)
		return err
	case StatePanning:
		return nil
	}
	if _, _, err := e.measure(); err != nil {
		_, err = e.skip("begin pan", err)
		return err
	}
	e.state = StatePanning
	e.applied = e.committed
	return nil
}

// UpdatePan moves the content by the displacement accumulated since the pan
// started. Only axes on which the scaled content overflows the parent move.
// Called without BeginPan, it starts the pan itself.
func (e *Engine) UpdatePan(totalX, totalY float64) (TransformResult, error) {
	if !isFinite(totalX) || !isFinite(totalY) {
		return e.applied, fmt.Errorf("pan delta (%g, %g): %w", totalX, totalY, ErrOutOfRangeInput)
	}
	switch e.state {
	case StatePinching:
		return e.skip("update pan", errPinchActive)
	case StateIdle:
		if err := e.BeginPan(); err != nil || e.state != StatePanning {
			return e.applied, err
		}
	}

	parent, content, err := e.measure()
	if err != nil {
		return e.skip("update pan", err)
	}
	b, err := ComputeBounds(parent, content, e.applied.Scale)
	if err != nil {
		return e.applied, err
	}

	next := e.applied
	if b.WidthOverflows {
		next.TranslationX = b.ClampX(e.committed.TranslationX + totalX)
	}
	if b.HeightOverflows {
		next.TranslationY = b.ClampY(e.committed.TranslationY + totalY)
	}

	e.apply(next)
	return next, nil
}

// EndPan commits the last applied translation. It is a no-op without an
// active pan.
func (e *Engine) EndPan() {
	if e.state != StatePanning {
		return
	}
	e.committed = e.applied
	e.state = StateIdle
}

// Cancel abandons the active gesture and restores the committed transform.
func (e *Engine) Cancel() {
	if e.state == StateIdle {
		return
	}
	e.state = StateIdle
	e.pinch = pinchSession{}
	e.apply(e.committed)
}

// Relayout re-clamps the committed translation into bounds computed from the
// current sizes. Hosts call it after the parent or content is resized.
// It is skipped while a gesture is in progress.
func (e *Engine) Relayout() (TransformResult, error) {
	if e.state != StateIdle {
		return e.skip("relayout", errNotIdle)
	}
	parent, content, err := e.measure()
	if err != nil {
		return e.skip("relayout", err)
	}
	b, err := ComputeBounds(parent, content, e.committed.Scale)
	if err != nil {
		return e.applied, err
	}

	next := TransformResult{
		Scale:        e.committed.Scale,
		TranslationX: b.ClampX(e.committed.TranslationX),
		TranslationY: b.ClampY(e.committed.TranslationY),
	}
	e.committed = next
	e.apply(next)
	return next, nil
}

// Reset returns to scale 1 with no translation beyond what the bounds
// require. It is skipped while a gesture is in progress.
func (e *Engine) Reset() (TransformResult, error) {
	if e.state != StateIdle {
		return e.skip("reset", errNotIdle)
	}
	parent, content, err := e.measure()
	if err != nil {
		return e.skip("reset", err)
	}
	b, err := ComputeBounds(parent, content, 1)
	if err != nil {
		return e.applied, err
	}

	next := TransformResult{Scale: 1, TranslationX: b.ClampX(0), TranslationY: b.ClampY(0)}
	e.committed = next
	e.apply(next)
	return next, nil
}

// focalTranslation returns the translation that keeps the focal fraction of
// the content at the same place in the parent while the scale moves from
// start to scale. offset is the committed translation and rendered the
// content's laid-out position on the same axis.
func focalTranslation(focal, rendered, offset, parent, content, start, scale float64) float64 {
	delta := (rendered + offset) / parent
	span := parent / (content * start)
	origin := (focal - delta) * span
	return offset - origin*content*(scale-start)
}

func (e *Engine) measure() (parent, content Size, err error) {
	parent, ok := e.sizes.ParentSize()
	if !ok {
		return parent, content, ErrPreconditionNotMet
	}
	content, ok = e.sizes.ContentDesiredSize()
	if !ok {
		return parent, content, ErrPreconditionNotMet
	}
	if err := parent.validate("parent"); err != nil {
		return parent, content, err
	}
	if err := content.validate("content"); err != nil {
		return parent, content, err
	}
	return parent, content, nil
}

// skip swallows precondition failures and passes every other error through.
func (e *Engine) skip(op string, err error) (TransformResult, error) {
	if errors.Is(err, ErrPreconditionNotMet) {
		e.log.Debug("viewport: skipped", "op", op, "reason", err)
		return e.applied, nil
	}
	return e.applied, err
}

// revert makes the committed transform the applied one, emitting only when
// they differ.
func (e *Engine) revert() {
	if e.applied != e.committed {
		e.apply(e.committed)
	}
}

func (e *Engine) apply(t TransformResult) {
	e.applied = t
	if e.sink != nil {
		e.sink.Apply(t)
	}
}

func inUnit(v float64) bool {
	return isFinite(v) && v >= 0 && v <= 1
}
