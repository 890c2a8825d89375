package core

import (
	"encoding/json"
	"fmt"

	"github.com/oklog/ulid/v2"
)

// record is the persisted form of a card. The owner is kept next to the
// card rather than inside it so it never leaks through the card JSON.
type record struct {
	OwnerID string `json:"ownerId,omitempty"`
	Card    *Card  `json:"card"`
}

// EncodeRecord serialises c, owner included, for stores that keep blobs.
func EncodeRecord(c *Card) ([]byte, error) {
	return json.Marshal(record{OwnerID: c.OwnerID, Card: c})
}

// DecodeRecord is the inverse of EncodeRecord.
func DecodeRecord(data []byte) (*Card, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode card record: %w", err)
	}
	if r.Card == nil {
		return nil, fmt.Errorf("decode card record: missing card")
	}
	r.Card.OwnerID = r.OwnerID
	return r.Card, nil
}

// NewID returns a fresh sortable identifier for cards and decorations.
func NewID() string {
	return ulid.Make().String()
}

// ValidID reports whether id has the shape produced by NewID. Stores use it
// to reject ids that could escape their key space.
func ValidID(id string) bool {
	_, err := ulid.ParseStrict(id)
	return err == nil
}
