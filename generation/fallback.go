package generation

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const (
	FallbackCaption  = "Best Wishes"
	FallbackColor    = "#f8fafc"
	DefaultColor     = "#ffffff"
	DefaultMessage   = "Have a happy day!"
	DefaultSender    = "From"
	MaxStickers      = 20
	MaxStickerLength = 8
)

// FallbackStickers replaces a failed sticker generation.
var FallbackStickers = []string{
	"✨", "❤️", "🎈", "🎉", "🌟", "🎂", "🎁", "😊", "🌈", "🍀",
	"🌸", "🎵", "📷", "💌", "🧸", "🍫", "🎀", "🌻", "🍰", "🍭",
}

// EmptyStickers replaces a successful but empty sticker generation.
var EmptyStickers = []string{"✨", "❤️", "🎁", "😊"}

// FallbackMessage is the templated sentence used when message generation fails.
func FallbackMessage(theme string) Message {
	return Message{
		Text:        fmt.Sprintf("Wishing you a wonderful %s! May your day be filled with happiness.", theme),
		SenderLabel: DefaultSender,
	}
}

// FallbackImage is a placeholder image keyed by theme and time so that
// repeated failures do not show the same picture.
func FallbackImage(theme string, now time.Time) string {
	seed := theme + strconv.FormatInt(now.UnixMilli(), 10)
	return "https://picsum.photos/seed/" + url.PathEscape(seed) + "/600/600"
}

func copyStickers(s []string) []string {
	return append([]string(nil), s...)
}
