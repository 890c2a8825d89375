package interaction

import "cardstudio/core"

// Snapshot is the target's geometry captured at pointer-down.
type Snapshot struct {
	Offset   core.Position `json:"offset"`
	Width    float64       `json:"width,omitempty"`
	Height   float64       `json:"height,omitempty"`
	Rotation float64       `json:"rotation,omitempty"`
	Scale    float64       `json:"scale,omitempty"`
}

// Session is one in-progress pointer manipulation. It is a value: once
// started it never observes later writes to the card.
type Session struct {
	Target    Target   `json:"target"`
	Action    Action   `json:"action"`
	Start     Point    `json:"start"`
	Pivot     Point    `json:"pivot"`
	CardWidth float64  `json:"cardWidth"`
	Snapshot  Snapshot `json:"snapshot"`
}

// Geometry answers where an element currently is on screen.
type Geometry interface {
	// Center returns the screen-space centre of the target's bounding box.
	Center(t Target) (Point, bool)
}

// GeometryFunc adapts a function to Geometry.
type GeometryFunc func(t Target) (Point, bool)

func (f GeometryFunc) Center(t Target) (Point, bool) { return f(t) }

// FixedPivot is a Geometry that reports the same centre for every target.
type FixedPivot Point

func (p FixedPivot) Center(Target) (Point, bool) { return Point(p), true }

func snapshotOf(card *core.Card, t Target) (Snapshot, bool) {
	switch t.Kind {
	case TargetImage:
		return Snapshot{
			Offset: card.ImagePosition,
			Width:  orDefault(card.ImageWidth, core.DefaultImageWidth),
			Height: orDefault(card.ImageHeight, core.DefaultImageHeight),
		}, true
	case TargetMessage:
		return Snapshot{
			Offset: card.MessagePosition,
			Width:  orDefault(card.MessageBoxWidth, core.DefaultMessageBoxWidth),
		}, true
	case TargetCaption:
		return Snapshot{
			Offset: card.EnglishCaptionPosition,
			Scale:  orDefault(card.EnglishCaptionScale, 1),
		}, true
	case TargetRecipient:
		return Snapshot{Offset: card.RecipientPosition}, true
	case TargetSender:
		return Snapshot{Offset: card.SenderPosition}, true
	case TargetDecoration:
		i := card.DecorationIndex(t.DecorationID)
		if i < 0 {
			return Snapshot{}, false
		}
		d := card.Decorations[i]
		return Snapshot{
			Offset:   core.Position{X: d.X, Y: d.Y},
			Rotation: d.Rotation,
			Scale:    orDefault(d.Scale, 1),
		}, true
	}
	return Snapshot{}, false
}

// derive computes the patch for pointer position p from the session alone.
// current is only consulted to carry the untouched decorations along.
func (s Session) derive(current *core.Card, p Point) (core.Patch, bool) {
	delta := p.Sub(s.Start)

	switch s.Action {
	case ActionMove:
		pos := Move(s.Snapshot.Offset, delta)
		switch s.Target.Kind {
		case TargetImage:
			return core.Patch{ImagePosition: &pos}, true
		case TargetMessage:
			return core.Patch{MessagePosition: &pos}, true
		case TargetCaption:
			return core.Patch{EnglishCaptionPosition: &pos}, true
		case TargetRecipient:
			return core.Patch{RecipientPosition: &pos}, true
		case TargetSender:
			return core.Patch{SenderPosition: &pos}, true
		case TargetDecoration:
			return s.decorationPatch(current, func(d *core.Decoration) {
				d.X, d.Y = pos.X, pos.Y
			})
		}

	case ActionResize:
		switch s.Target.Kind {
		case TargetImage:
			w, h := ResizeImage(s.Snapshot.Width, s.Snapshot.Height, delta, s.CardWidth)
			return core.Patch{ImageWidth: &w, ImageHeight: &h}, true
		case TargetMessage:
			w := ResizeMessage(s.Snapshot.Width, delta, s.CardWidth)
			return core.Patch{MessageBoxWidth: &w}, true
		}

	case ActionRotate:
		deg, ok := Rotate(s.Snapshot.Rotation, s.Pivot, s.Start, p)
		if !ok {
			return core.Patch{}, false
		}
		return s.decorationPatch(current, func(d *core.Decoration) {
			d.Rotation = deg
		})

	case ActionScale:
		floor := DecorationScaleMin
		if s.Target.Kind == TargetCaption {
			floor = CaptionScaleMin
		}
		scale, ok := Scale(s.Snapshot.Scale, floor, s.Pivot, s.Start, p)
		if !ok {
			return core.Patch{}, false
		}
		if s.Target.Kind == TargetCaption {
			return core.Patch{EnglishCaptionScale: &scale}, true
		}
		return s.decorationPatch(current, func(d *core.Decoration) {
			d.Scale = scale
		})
	}
	return core.Patch{}, false
}

func (s Session) decorationPatch(current *core.Card, set func(d *core.Decoration)) (core.Patch, bool) {
	i := current.DecorationIndex(s.Target.DecorationID)
	if i < 0 {
		return core.Patch{}, false
	}
	decos := append([]core.Decoration(nil), current.Decorations...)
	set(&decos[i])
	return core.Patch{Decorations: &decos}, true
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
