package filesystem

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"cardstudio/core"

	"github.com/sirupsen/logrus"
)

const cardExt = ".json"

type fsStore struct {
	basePath string

	// mu serialises read-modify-write cycles on the same directory.
	mu sync.Mutex
}

// NewStore creates a new filesystem-based store rooted at basePath.
func NewStore(basePath string) *fsStore {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		log.Fatalf("failed to create base directory: %v", err)
	}
	return &fsStore{basePath: basePath}
}

func (s *fsStore) cardPath(id string) (string, error) {
	if !core.ValidID(id) {
		return "", fmt.Errorf("card %q: %w", id, core.ErrCardNotFound)
	}
	return filepath.Join(s.basePath, id+cardExt), nil
}

func (s *fsStore) Create(ctx context.Context, card *core.Card) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	card.ID = core.NewID()
	card.CreatedAt, card.UpdatedAt = now, now

	filePath, _ := s.cardPath(card.ID)
	log := logrus.WithFields(logrus.Fields{
		"card_id":   card.ID,
		"file_path": filePath,
	})

	if err := s.write(filePath, card); err != nil {
		log.WithError(err).Error("Failed to create card")
		return "", err
	}

	log.Info("Card created successfully")
	return card.ID, nil
}

func (s *fsStore) Get(ctx context.Context, id string) (*core.Card, error) {
	filePath, err := s.cardPath(id)
	if err != nil {
		return nil, err
	}
	log := logrus.WithFields(logrus.Fields{"card_id": id, "file_path": filePath})

	card, err := s.read(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn("Card file not found")
			return nil, fmt.Errorf("card %s: %w", id, core.ErrCardNotFound)
		}
		log.WithError(err).Error("Failed to read card file")
		return nil, err
	}
	return card, nil
}

func (s *fsStore) Save(ctx context.Context, card *core.Card) error {
	filePath, err := s.cardPath(card.ID)
	if err != nil {
		return err
	}
	log := logrus.WithFields(logrus.Fields{"card_id": card.ID, "file_path": filePath})

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("card %s: %w", card.ID, core.ErrCardNotFound)
		}
		return err
	}

	stored := card.Clone()
	stored.CreatedAt = existing.CreatedAt
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now().UTC()
	}

	if err := s.write(filePath, stored); err != nil {
		log.WithError(err).Error("Failed to write card file")
		return err
	}
	log.Debug("Card saved")
	return nil
}

func (s *fsStore) Delete(ctx context.Context, id string) error {
	filePath, err := s.cardPath(id)
	if err != nil {
		return nil
	}
	log := logrus.WithFields(logrus.Fields{"card_id": id, "file_path": filePath})

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			log.Warn("Card file not found for deletion, considered successful.")
			return nil
		}
		log.WithError(err).Error("Failed to delete card file")
		return err
	}

	log.Info("Card deleted successfully")
	return nil
}

func (s *fsStore) List(ctx context.Context, ownerID string) ([]*core.CardSummary, error) {
	log := logrus.WithFields(logrus.Fields{"owner_id": ownerID, "path": s.basePath})

	files, err := os.ReadDir(s.basePath)
	if err != nil {
		log.WithError(err).Error("Failed to read card directory")
		return nil, err
	}

	summaries := make([]*core.CardSummary, 0)
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), cardExt) {
			continue
		}
		card, err := s.read(filepath.Join(s.basePath, file.Name()))
		if err != nil {
			log.WithError(err).Warnf("Failed to read card file %s, skipping", file.Name())
			continue
		}
		if card.OwnerID == ownerID {
			summaries = append(summaries, card.Summary())
		}
	}
	core.SortSummaries(summaries)

	log.Infof("Listed %d cards", len(summaries))
	return summaries, nil
}

func (s *fsStore) read(filePath string) (*core.Card, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return core.DecodeRecord(data)
}

// write replaces the file atomically so readers never see a partial card.
func (s *fsStore) write(filePath string, card *core.Card) error {
	data, err := core.EncodeRecord(card)
	if err != nil {
		return fmt.Errorf("failed to marshal card: %w", err)
	}
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, filePath)
}
