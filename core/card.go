package core

import (
	"context"
	"errors"
	"sort"
	"time"
)

// ErrCardNotFound is returned by every CardStore when the id is unknown.
var ErrCardNotFound = errors.New("card not found")

type (
	// Position is a pixel offset from the element's neutral layout position.
	Position struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}

	// Decoration is a user-placed sticker. Order in Card.Decorations is z-order.
	Decoration struct {
		ID       string  `json:"id"`
		Content  string  `json:"content"`
		X        float64 `json:"x"`
		Y        float64 `json:"y"`
		Scale    float64 `json:"scale"`
		Rotation float64 `json:"rotation"`
	}

	// Card is the document being edited.
	Card struct {
		ID        string    `json:"id"`
		OwnerID   string    `json:"-"`
		Name      string    `json:"name,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`

		Theme           string `json:"theme"`
		CustomTheme     string `json:"customTheme"`
		BackgroundColor string `json:"backgroundColor"`

		Recipient         string   `json:"recipient"`
		RecipientPosition Position `json:"recipientPosition"`
		Sender            string   `json:"sender"`
		SenderLabel       string   `json:"senderLabel"`
		SenderPosition    Position `json:"senderPosition"`

		EnglishCaption         string   `json:"englishCaption"`
		EnglishCaptionPosition Position `json:"englishCaptionPosition"`
		EnglishCaptionScale    float64  `json:"englishCaptionScale"`

		Message       string `json:"message"`
		MessageLength string `json:"messageLength"`

		ImageURL          string   `json:"imageUrl,omitempty"`
		Font              string   `json:"font"`
		FontSize          float64  `json:"fontSize"`
		Alignment         string   `json:"alignment"`
		ImageStyle        string   `json:"imageStyle"`
		ImageSubject      string   `json:"imageSubject"`
		ImageWidth        float64  `json:"imageWidth"`
		ImageHeight       float64  `json:"imageHeight"`
		ImagePosition     Position `json:"imagePosition"`
		ImageMask         string   `json:"imageMask"`
		CustomImageRadius float64  `json:"customImageRadius"`
		ImageBorder       string   `json:"imageBorder"`

		Design            string   `json:"design"`
		MessageBoxStyle   string   `json:"messageBoxStyle"`
		MessagePosition   Position `json:"messagePosition"`
		MessageBoxWidth   float64  `json:"messageBoxWidth"`
		MessageBoxPadding float64  `json:"messageBoxPadding"`

		StickerSet         []string     `json:"stickerSet"`
		CustomStickerTopic string       `json:"customStickerTopic"`
		Decorations        []Decoration `json:"decorations"`
	}

	// CardSummary is the list view of a card, without content.
	CardSummary struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Theme     string    `json:"theme"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	// CardStore defines the persistence layer for cards.
	CardStore interface {
		// Create stores a new card and returns its generated id.
		Create(ctx context.Context, card *Card) (string, error)

		// Get returns a card by id. Unknown ids yield an error wrapping ErrCardNotFound.
		Get(ctx context.Context, id string) (*Card, error)

		// Save updates an existing card.
		Save(ctx context.Context, card *Card) error

		// Delete removes a card. Deleting an unknown id is not an error.
		Delete(ctx context.Context, id string) error

		// List returns summaries of all cards owned by ownerID.
		List(ctx context.Context, ownerID string) ([]*CardSummary, error)
	}
)

// Clone returns a deep copy; mutating the copy never affects c.
func (c *Card) Clone() *Card {
	if c == nil {
		return nil
	}
	cp := *c
	if c.StickerSet != nil {
		cp.StickerSet = make([]string, len(c.StickerSet))
		copy(cp.StickerSet, c.StickerSet)
	}
	if c.Decorations != nil {
		cp.Decorations = make([]Decoration, len(c.Decorations))
		copy(cp.Decorations, c.Decorations)
	}
	return &cp
}

// Summary returns the list-view projection of c.
func (c *Card) Summary() *CardSummary {
	return &CardSummary{
		ID:        c.ID,
		Name:      c.Name,
		Theme:     c.Theme,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// DecorationIndex returns the index of the decoration with the given id, or -1.
func (c *Card) DecorationIndex(id string) int {
	for i := range c.Decorations {
		if c.Decorations[i].ID == id {
			return i
		}
	}
	return -1
}

// SortSummaries orders summaries most recently updated first.
func SortSummaries(s []*CardSummary) {
	sort.Slice(s, func(i, j int) bool {
		return s[i].UpdatedAt.After(s[j].UpdatedAt)
	})
}
