package interaction

import (
	"fmt"
	"sync"

	"cardstudio/core"
)

// Document is the card record a Surface edits.
type Document interface {
	// Snapshot returns a copy of the current card.
	Snapshot() *core.Card

	// Update applies the patch built from the current card in one write
	// and returns the resulting card.
	Update(build func(current *core.Card) (core.Patch, bool)) (*core.Card, bool)
}

// StartRequest describes a pointer-down on an interactive handle.
type StartRequest struct {
	Target  Target
	Action  Action
	Pointer Point

	// CardWidth is the rendered width of the card in CSS pixels.
	CardWidth float64

	// Geometry supplies the pivot for rotate and scale.
	Geometry Geometry
}

// Surface owns the selection and at most one active Session for one viewer
// of a card.
type Surface struct {
	mu       sync.Mutex
	doc      Document
	session  *Session
	selected string
}

// NewSurface returns an idle surface over doc.
func NewSurface(doc Document) *Surface {
	return &Surface{doc: doc}
}

// Start begins a session. The target becomes selected.
func (s *Surface) Start(req StartRequest) (Session, error) {
	if err := req.Target.validate(req.Action); err != nil {
		return Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		return Session{}, ErrSessionActive
	}

	snap, ok := snapshotOf(s.doc.Snapshot(), req.Target)
	if !ok {
		return Session{}, fmt.Errorf("%w: %s", ErrUnknownDecoration, req.Target.DecorationID)
	}

	sess := Session{
		Target:    req.Target,
		Action:    req.Action,
		Start:     req.Pointer,
		CardWidth: req.CardWidth,
		Snapshot:  snap,
	}
	if sess.CardWidth <= 0 {
		sess.CardWidth = DefaultCardWidth
	}

	if req.Action == ActionRotate || req.Action == ActionScale {
		if req.Geometry == nil {
			return Session{}, ErrPivotUnavailable
		}
		pivot, ok := req.Geometry.Center(req.Target)
		if !ok {
			return Session{}, ErrPivotUnavailable
		}
		sess.Pivot = pivot
	}

	s.session = &sess
	s.selected = req.Target.SelectionID()
	return sess, nil
}

// Update applies the pointer position to the active session. It returns the
// written card, or false when there is no session or the event was skipped.
func (s *Surface) Update(p Point) (*core.Card, bool) {
	s.mu.Lock()
	sess := s.session
	s.mu.Unlock()

	if sess == nil {
		return nil, false
	}
	return s.doc.Update(func(current *core.Card) (core.Patch, bool) {
		return sess.derive(current, p)
	})
}

// End discards the active session. The selection is kept.
func (s *Surface) End() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return Session{}, false
	}
	sess := *s.session
	s.session = nil
	return sess, true
}

// Active returns a copy of the active session.
func (s *Surface) Active() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return Session{}, false
	}
	return *s.session, true
}

// Deselect handles a pointer-down on the card background. It is ignored
// while a session is active.
func (s *Surface) Deselect() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil || s.selected == "" {
		return false
	}
	s.selected = ""
	return true
}

// Selection returns the selected element id, or "".
func (s *Surface) Selection() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// RemoveDecoration deletes the decoration with id. Removing an unknown id is a no-op.
func (s *Surface) RemoveDecoration(id string) (*core.Card, bool) {
	card, removed := s.doc.Update(func(current *core.Card) (core.Patch, bool) {
		i := current.DecorationIndex(id)
		if i < 0 {
			return core.Patch{}, false
		}
		decos := make([]core.Decoration, 0, len(current.Decorations)-1)
		decos = append(decos, current.Decorations[:i]...)
		decos = append(decos, current.Decorations[i+1:]...)
		return core.Patch{Decorations: &decos}, true
	})

	s.mu.Lock()
	if s.selected == id && id != "" {
		s.selected = ""
	}
	s.mu.Unlock()

	return card, removed
}
