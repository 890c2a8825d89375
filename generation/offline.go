package generation

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by Offline for every call.
var ErrUnavailable = errors.New("generation backend not configured")

// Offline is the Client used when no model is configured. Every request
// settles on its fallback.
type Offline struct{}

func (Offline) Message(context.Context, MessageRequest) (Message, error) {
	return Message{}, ErrUnavailable
}

func (Offline) Caption(context.Context, string) (string, error) { return "", ErrUnavailable }

func (Offline) Image(context.Context, string, string, string) (string, error) {
	return "", ErrUnavailable
}

func (Offline) Stickers(context.Context, string) ([]string, error) { return nil, ErrUnavailable }

func (Offline) BackgroundColor(context.Context, string) (string, error) {
	return "", ErrUnavailable
}

func (Offline) RecommendFont(context.Context, string, string) (string, error) {
	return "", ErrUnavailable
}
