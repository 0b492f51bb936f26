package viewport

// SizeProvider reports the current measured sizes of the parent and the
// content. Values are read on every call and never cached. A false result
// means the value is not known, for example while layout is torn down.
type SizeProvider interface {
	ParentSize() (Size, bool)
	ContentDesiredSize() (Size, bool)
	ContentRenderedPosition() (Point, bool)
}

// Sink receives every transform the engine emits.
type Sink interface {
	Apply(TransformResult)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(TransformResult)

// Apply calls f(t).
func (f SinkFunc) Apply(t TransformResult) { f(t) }

// Layout is a SizeProvider backed by plain values. Nil fields are unknown.
// A nil Position with both sizes known places the content centered in the
// parent, which is where a centering layout puts it at scale 1.
type Layout struct {
	Parent   *Size  `json:"parent,omitempty"`
	Content  *Size  `json:"content,omitempty"`
	Position *Point `json:"position,omitempty"`
}

// NewLayout returns a layout with both sizes known and centered content.
func NewLayout(parent, content Size) *Layout {
	return &Layout{Parent: &parent, Content: &content}
}

// ParentSize implements SizeProvider.
func (l *Layout) ParentSize() (Size, bool) {
	if l == nil || l.Parent == nil {
		return Size{}, false
	}
	return *l.Parent, true
}

// ContentDesiredSize implements SizeProvider.
func (l *Layout) ContentDesiredSize() (Size, bool) {
	if l == nil || l.Content == nil {
		return Size{}, false
	}
	return *l.Content, true
}

// ContentRenderedPosition implements SizeProvider.
func (l *Layout) ContentRenderedPosition() (Point, bool) {
	if l == nil {
		return Point{}, false
	}
	if l.Position != nil {
		return *l.Position, true
	}
	if l.Parent == nil || l.Content == nil {
		return Point{}, false
	}
	return Point{
		X: (l.Parent.Width - l.Content.Width) / 2,
		Y: (l.Parent.Height - l.Content.Height) / 2,
	}, true
}

// Clone returns a deep copy of l.
func (l *Layout) Clone() *Layout {
	if l == nil {
		return &Layout{}
	}
	out := &Layout{}
	if l.Parent != nil {
		p := *l.Parent
		out.Parent = &p
	}
	if l.Content != nil {
		c := *l.Content
		out.Content = &c
	}
	if l.Position != nil {
		pos := *l.Position
		out.Position = &pos
	}
	return out
}

// Validate reports ErrInvalidSize for any known but illegal dimension.
func (l *Layout) Validate() error {
	if l == nil {
		return nil
	}
	if l.Parent != nil {
		if err := l.Parent.validate("parent"); err != nil {
			return err
		}
	}
	if l.Content != nil {
		if err := l.Content.validate("content"); err != nil {
			return err
		}
	}
	if l.Position != nil && (!isFinite(l.Position.X) || !isFinite(l.Position.Y)) {
		return ErrInvalidSize
	}
	return nil
}
