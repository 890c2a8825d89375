// Package interaction implements pointer-driven direct manipulation of card
// elements: move, resize, rotate and scale of one target at a time.
package interaction

import (
	"errors"
	"fmt"
)

// TargetKind names an addressable element of the card.
type TargetKind string

const (
	TargetImage      TargetKind = "image"
	TargetMessage    TargetKind = "message"
	TargetCaption    TargetKind = "caption"
	TargetDecoration TargetKind = "decoration"
	TargetRecipient  TargetKind = "recipient"
	TargetSender     TargetKind = "sender"
)

// Action is the kind of manipulation chosen at pointer-down.
type Action string

const (
	ActionMove   Action = "move"
	ActionResize Action = "resize"
	ActionRotate Action = "rotate"
	ActionScale  Action = "scale"
)

var (
	ErrSessionActive       = errors.New("interaction already in progress")
	ErrUnsupportedAction   = errors.New("action not supported for target")
	ErrUnknownTarget       = errors.New("unknown target kind")
	ErrUnknownDecoration   = errors.New("decoration not found")
	ErrPivotUnavailable    = errors.New("pivot geometry unavailable")
	errMissingDecorationID = errors.New("decoration id is required")
)

// Target addresses one element. DecorationID is only meaningful for TargetDecoration.
type Target struct {
	Kind         TargetKind `json:"kind"`
	DecorationID string     `json:"id,omitempty"`
}

// Selection ids for the fixed elements. Decorations are selected by their own id.
const (
	SelectImage     = "image-box"
	SelectMessage   = "message-box"
	SelectCaption   = "caption-box"
	SelectRecipient = "recipient-label"
	SelectSender    = "sender-label"
)

// SelectionID is the id the target is selected under.
func (t Target) SelectionID() string {
	switch t.Kind {
	case TargetImage:
		return SelectImage
	case TargetMessage:
		return SelectMessage
	case TargetCaption:
		return SelectCaption
	case TargetRecipient:
		return SelectRecipient
	case TargetSender:
		return SelectSender
	case TargetDecoration:
		return t.DecorationID
	}
	return ""
}

func (t Target) String() string {
	if t.Kind == TargetDecoration {
		return fmt.Sprintf("decoration:%s", t.DecorationID)
	}
	return string(t.Kind)
}

// Supports reports whether action can be applied to the target kind.
func (t Target) Supports(action Action) bool {
	switch action {
	case ActionMove:
		return t.valid()
	case ActionResize:
		return t.Kind == TargetImage || t.Kind == TargetMessage
	case ActionRotate:
		return t.Kind == TargetDecoration
	case ActionScale:
		return t.Kind == TargetDecoration || t.Kind == TargetCaption
	}
	return false
}

func (t Target) valid() bool {
	switch t.Kind {
	case TargetImage, TargetMessage, TargetCaption, TargetDecoration, TargetRecipient, TargetSender:
		return true
	}
	return false
}

func (t Target) validate(action Action) error {
	if !t.valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTarget, t.Kind)
	}
	if t.Kind == TargetDecoration && t.DecorationID == "" {
		return errMissingDecorationID
	}
	if !t.Supports(action) {
		return fmt.Errorf("%w: %s on %s", ErrUnsupportedAction, action, t.Kind)
	}
	return nil
}
