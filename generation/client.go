// Package generation produces card content (message, caption, image,
// stickers, background colour, font) through an external model and merges
// the results, or documented fallbacks, into the card being edited.
package generation

import (
	"context"
	"errors"
	"fmt"
)

// Kind names one kind of generated content.
type Kind string

const (
	KindText       Kind = "text"
	KindCaption    Kind = "caption"
	KindImage      Kind = "image"
	KindStickers   Kind = "stickers"
	KindBackground Kind = "background"
	KindFont       Kind = "font"
)

// Kinds lists every kind in a stable order.
var Kinds = []Kind{KindText, KindCaption, KindImage, KindStickers, KindBackground, KindFont}

var (
	ErrUnknownKind = errors.New("unknown generation kind")
	ErrMalformed   = errors.New("malformed generation response")
	ErrNoImage     = errors.New("no image data returned")
)

// ParseKind validates s as a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// MessageRequest is the input for message text.
type MessageRequest struct {
	Theme     string
	Recipient string
	Sender    string
	Length    string
}

// Message is generated body text plus the phrase placed before the sender.
type Message struct {
	Text        string `json:"message"`
	SenderLabel string `json:"senderLabel"`
}

// Client talks to the generative model. Every call is independently
// fallible; callers substitute fallbacks.
type Client interface {
	Message(ctx context.Context, req MessageRequest) (Message, error)
	Caption(ctx context.Context, theme string) (string, error)
	Image(ctx context.Context, theme, subject, style string) (string, error)
	Stickers(ctx context.Context, topic string) ([]string, error)
	BackgroundColor(ctx context.Context, theme string) (string, error)
	RecommendFont(ctx context.Context, theme, message string) (string, error)
}
