package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cardstudio/core"

	"github.com/sirupsen/logrus"
)

// memStore keeps cards in process memory. Everything is lost on restart.
type memStore struct {
	mu    sync.RWMutex
	cards map[string]*core.Card
}

// NewStore creates a new in-memory store.
func NewStore() *memStore {
	return &memStore{cards: make(map[string]*core.Card)}
}

func (s *memStore) Create(ctx context.Context, card *core.Card) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := core.NewID()
	now := time.Now().UTC()
	stored := card.Clone()
	stored.ID = id
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.cards[id] = stored

	card.ID, card.CreatedAt, card.UpdatedAt = id, now, now

	logrus.WithFields(logrus.Fields{
		"card_id":  id,
		"owner_id": card.OwnerID,
	}).Info("Card created successfully")
	return id, nil
}

func (s *memStore) Get(ctx context.Context, id string) (*core.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	card, ok := s.cards[id]
	if !ok {
		logrus.WithField("card_id", id).Warn("Card with specified ID not found")
		return nil, fmt.Errorf("card %s: %w", id, core.ErrCardNotFound)
	}
	return card.Clone(), nil
}

func (s *memStore) Save(ctx context.Context, card *core.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.cards[card.ID]
	if !ok {
		return fmt.Errorf("card %s: %w", card.ID, core.ErrCardNotFound)
	}

	stored := card.Clone()
	stored.CreatedAt = existing.CreatedAt
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now().UTC()
	}
	s.cards[card.ID] = stored

	logrus.WithField("card_id", card.ID).Debug("Card saved")
	return nil
}

func (s *memStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cards[id]; !ok {
		logrus.WithField("card_id", id).Warn("Card not found for deletion, considered successful.")
		return nil
	}
	delete(s.cards, id)
	logrus.WithField("card_id", id).Info("Card deleted successfully")
	return nil
}

func (s *memStore) List(ctx context.Context, ownerID string) ([]*core.CardSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]*core.CardSummary, 0)
	for _, card := range s.cards {
		if card.OwnerID == ownerID {
			summaries = append(summaries, card.Summary())
		}
	}
	core.SortSummaries(summaries)

	logrus.WithField("owner_id", ownerID).Infof("Listed %d cards", len(summaries))
	return summaries, nil
}
