package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"cardstudio/core"

	"github.com/sirupsen/logrus"
)

type sqliteStore struct {
	db *sql.DB
}

// NewStore opens (and migrates) the SQLite database at dataSourceName.
func NewStore(dataSourceName string) *sqliteStore {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		log.Fatalf("failed to open sqlite database: %v", err)
	}

	cardTableStmt := `
	CREATE TABLE IF NOT EXISTS cards (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL DEFAULT '',
		name TEXT,
		theme TEXT,
		data BLOB NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);`
	if _, err = db.Exec(cardTableStmt); err != nil {
		log.Fatalf("failed to create cards table: %v", err)
	}
	if _, err = db.Exec(`CREATE INDEX IF NOT EXISTS cards_owner ON cards (owner_id, updated_at);`); err != nil {
		log.Fatalf("failed to create cards index: %v", err)
	}

	logrus.WithField("driver", driverName).Debug("SQLite store ready")
	return &sqliteStore{db}
}

func (s *sqliteStore) Create(ctx context.Context, card *core.Card) (string, error) {
	now := time.Now().UTC()
	card.ID = core.NewID()
	card.CreatedAt, card.UpdatedAt = now, now

	data, err := core.EncodeRecord(card)
	if err != nil {
		return "", err
	}
	log := logrus.WithFields(logrus.Fields{
		"card_id":     card.ID,
		"data_length": len(data),
	})

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO cards (id, owner_id, name, theme, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		card.ID, card.OwnerID, card.Name, card.Theme, data, now.UnixMilli(), now.UnixMilli())
	if err != nil {
		log.WithError(err).Error("Failed to create card")
		return "", err
	}
	log.Info("Card created successfully")
	return card.ID, nil
}

func (s *sqliteStore) Get(ctx context.Context, id string) (*core.Card, error) {
	log := logrus.WithField("card_id", id)

	var (
		data             []byte
		created, updated int64
	)
	err := s.db.QueryRowContext(ctx, "SELECT data, created_at, updated_at FROM cards WHERE id = ?", id).
		Scan(&data, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("Card with specified ID not found")
			return nil, fmt.Errorf("card %s: %w", id, core.ErrCardNotFound)
		}
		log.WithError(err).Error("Failed to retrieve card")
		return nil, err
	}

	card, err := core.DecodeRecord(data)
	if err != nil {
		return nil, err
	}
	card.CreatedAt = time.UnixMilli(created).UTC()
	card.UpdatedAt = time.UnixMilli(updated).UTC()
	return card, nil
}

func (s *sqliteStore) Save(ctx context.Context, card *core.Card) error {
	updated := card.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	data, err := core.EncodeRecord(card)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE cards SET owner_id = ?, name = ?, theme = ?, data = ?, updated_at = ? WHERE id = ?",
		card.OwnerID, card.Name, card.Theme, data, updated.UnixMilli(), card.ID)
	if err != nil {
		logrus.WithField("card_id", card.ID).WithError(err).Error("Failed to save card")
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("card %s: %w", card.ID, core.ErrCardNotFound)
	}
	return nil
}

func (s *sqliteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM cards WHERE id = ?", id)
	return err
}

func (s *sqliteStore) List(ctx context.Context, ownerID string) ([]*core.CardSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, theme, created_at, updated_at FROM cards WHERE owner_id = ? ORDER BY updated_at DESC",
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]*core.CardSummary, 0)
	for rows.Next() {
		var (
			sum              core.CardSummary
			name, theme      sql.NullString
			created, updated int64
		)
		if err := rows.Scan(&sum.ID, &name, &theme, &created, &updated); err != nil {
			return nil, err
		}
		sum.Name, sum.Theme = name.String, theme.String
		sum.CreatedAt = time.UnixMilli(created).UTC()
		sum.UpdatedAt = time.UnixMilli(updated).UTC()
		summaries = append(summaries, &sum)
	}
	return summaries, rows.Err()
}

// Close releases the database handle.
func (s *sqliteStore) Close() error {
	return s.db.Close()
}
