// Package websocket serves live card editing over socket.io. One Session
// per connected socket owns the pointer interaction and the subscription to
// the card it joined.
package websocket

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cardstudio/core"
	"cardstudio/editor"
	"cardstudio/generation"
	"cardstudio/interaction"

	"github.com/sirupsen/logrus"
)

// Server to client events.
const (
	EventCardUpdated = "card-updated"
	EventSelection   = "selection"
	EventNotice      = "notice"
)

var errNotJoined = errors.New("no card joined")

// Emitter delivers an event to the connected client. *socket.Socket satisfies it.
type Emitter interface {
	Emit(event string, args ...any) error
}

type (
	// CardUpdate carries only the fields that changed in one write.
	CardUpdate struct {
		CardID  string     `json:"cardId"`
		Version uint64     `json:"version"`
		Patch   core.Patch `json:"patch"`
	}

	// SelectionUpdate reports the selected element id, "" for none.
	SelectionUpdate struct {
		ID string `json:"id"`
	}

	// PointerDown starts a manipulation. Pivot is the screen-space centre of
	// the target, required for rotate and scale.
	PointerDown struct {
		Target    interaction.Target `json:"target"`
		Action    interaction.Action `json:"action"`
		Pointer   interaction.Point  `json:"pointer"`
		CardWidth float64            `json:"cardWidth"`
		Pivot     *interaction.Point `json:"pivot,omitempty"`
	}
)

// Session is the server side of one connected editor.
type Session struct {
	hub        *editor.Hub
	dispatcher *generation.Dispatcher
	out        Emitter
	log        *logrus.Entry

	mu          sync.Mutex
	ed          *editor.Editor
	surface     *interaction.Surface
	unsubscribe func()
}

// NewSession returns a session that has not joined a card yet.
func NewSession(hub *editor.Hub, d *generation.Dispatcher, out Emitter, log *logrus.Entry) *Session {
	return &Session{hub: hub, dispatcher: d, out: out, log: log}
}

// Join opens cardID for editing, leaving any card joined before, and
// returns the current card.
func (s *Session) Join(ctx context.Context, cardID string) (*core.Card, error) {
	if !core.ValidID(cardID) {
		return nil, fmt.Errorf("%w: %q", core.ErrCardNotFound, cardID)
	}
	ed, err := s.hub.Acquire(ctx, cardID)
	if err != nil {
		return nil, err
	}

	s.Leave(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ed = ed
	s.surface = interaction.NewSurface(ed)
	s.unsubscribe = ed.Subscribe(func(c editor.Change) {
		s.emit(EventCardUpdated, CardUpdate{CardID: c.Card.ID, Version: c.Version, Patch: c.Patch})
	})
	s.log.WithField("card_id", cardID).Info("Joined card")
	return ed.Snapshot(), nil
}

// Leave drops the joined card. An interaction in progress is discarded.
func (s *Session) Leave(ctx context.Context) {
	s.mu.Lock()
	ed, unsubscribe := s.ed, s.unsubscribe
	s.ed, s.surface, s.unsubscribe = nil, nil, nil
	s.mu.Unlock()

	if ed == nil {
		return
	}
	unsubscribe()
	s.hub.Release(ctx, ed)
	s.log.WithField("card_id", ed.ID()).Debug("Left card")
}

// CardID returns the joined card id, or "".
func (s *Session) CardID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ed == nil {
		return ""
	}
	return s.ed.ID()
}

func (s *Session) current() (*editor.Editor, *interaction.Surface, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ed == nil {
		return nil, nil, errNotJoined
	}
	return s.ed, s.surface, nil
}

// PointerDown starts a manipulation and selects its target.
func (s *Session) PointerDown(msg PointerDown) (interaction.Session, error) {
	_, surface, err := s.current()
	if err != nil {
		return interaction.Session{}, err
	}

	req := interaction.StartRequest{
		Target:    msg.Target,
		Action:    msg.Action,
		Pointer:   msg.Pointer,
		CardWidth: msg.CardWidth,
	}
	if msg.Pivot != nil {
		req.Geometry = interaction.FixedPivot(*msg.Pivot)
	}

	before := surface.Selection()
	sess, err := surface.Start(req)
	if err != nil {
		return interaction.Session{}, err
	}
	if sel := surface.Selection(); sel != before {
		s.emit(EventSelection, SelectionUpdate{ID: sel})
	}
	return sess, nil
}

// PointerMove feeds a pointer position to the active manipulation.
func (s *Session) PointerMove(p interaction.Point) bool {
	_, surface, err := s.current()
	if err != nil {
		return false
	}
	_, ok := surface.Update(p)
	return ok
}

// PointerUp ends the active manipulation.
func (s *Session) PointerUp() bool {
	_, surface, err := s.current()
	if err != nil {
		return false
	}
	_, ok := surface.End()
	return ok
}

// BackgroundDown clears the selection.
func (s *Session) BackgroundDown() {
	_, surface, err := s.current()
	if err != nil {
		return
	}
	if surface.Deselect() {
		s.emit(EventSelection, SelectionUpdate{})
	}
}

// RemoveDecoration deletes a decoration. Unknown ids are ignored.
func (s *Session) RemoveDecoration(id string) error {
	_, surface, err := s.current()
	if err != nil {
		return err
	}
	before := surface.Selection()
	surface.RemoveDecoration(id)
	if sel := surface.Selection(); sel != before {
		s.emit(EventSelection, SelectionUpdate{ID: sel})
	}
	return nil
}

// Generate starts a generation of kind in the background. The card stays
// open until the result is merged, even if the socket leaves first. done,
// if not nil, is called once the request settles.
func (s *Session) Generate(ctx context.Context, kind string, done func(generation.Result)) error {
	k, err := generation.ParseKind(kind)
	if err != nil {
		return err
	}
	joined, _, err := s.current()
	if err != nil {
		return err
	}

	ed, err := s.hub.Acquire(ctx, joined.ID())
	if err != nil {
		return err
	}
	err = s.dispatcher.Go(ctx, ed, k, func(res generation.Result) {
		defer s.hub.Release(context.WithoutCancel(ctx), ed)
		if res.Notice != nil {
			s.emit(EventNotice, res.Notice)
		}
		if done != nil {
			done(res)
		}
	})
	if err != nil {
		s.hub.Release(ctx, ed)
		return err
	}
	return nil
}

// Busy reports the in-progress generation kinds of the joined card.
func (s *Session) Busy() map[generation.Kind]bool {
	ed, _, err := s.current()
	if err != nil {
		return nil
	}
	return s.dispatcher.Busy(ed.ID())
}

func (s *Session) emit(event string, payload any) {
	if err := s.out.Emit(event, payload); err != nil {
		s.log.WithField("event", event).WithError(err).Warn("Failed to emit")
	}
}
