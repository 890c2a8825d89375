package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"cardstudio/core"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"
)

const keyPrefix = "cards/"

// objectAPI is the subset of the S3 client the store uses.
type objectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type s3Store struct {
	s3Client objectAPI
	bucket   string
}

// NewStore creates a new S3-based store using the default AWS credential chain.
func NewStore(bucketName string) *s3Store {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}
	return newStore(s3.NewFromConfig(cfg), bucketName)
}

func newStore(client objectAPI, bucketName string) *s3Store {
	return &s3Store{s3Client: client, bucket: bucketName}
}

func cardKey(id string) (string, error) {
	if !core.ValidID(id) {
		return "", fmt.Errorf("card %q: %w", id, core.ErrCardNotFound)
	}
	return keyPrefix + id + ".json", nil
}

func (s *s3Store) Create(ctx context.Context, card *core.Card) (string, error) {
	now := time.Now().UTC()
	card.ID = core.NewID()
	card.CreatedAt, card.UpdatedAt = now, now

	key, _ := cardKey(card.ID)
	if err := s.put(ctx, key, card); err != nil {
		return "", fmt.Errorf("failed to upload card: %w", err)
	}
	logrus.WithFields(logrus.Fields{"card_id": card.ID, "key": key}).Info("Card created successfully")
	return card.ID, nil
}

func (s *s3Store) Get(ctx context.Context, id string) (*core.Card, error) {
	key, err := cardKey(id)
	if err != nil {
		return nil, err
	}
	return s.get(ctx, key)
}

func (s *s3Store) Save(ctx context.Context, card *core.Card) error {
	key, err := cardKey(card.ID)
	if err != nil {
		return err
	}

	existing, err := s.get(ctx, key)
	if err != nil {
		return err
	}

	stored := card.Clone()
	stored.CreatedAt = existing.CreatedAt
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now().UTC()
	}
	if err := s.put(ctx, key, stored); err != nil {
		return fmt.Errorf("failed to save card %s: %w", card.ID, err)
	}
	return nil
}

func (s *s3Store) Delete(ctx context.Context, id string) error {
	key, err := cardKey(id)
	if err != nil {
		return nil
	}
	_, err = s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete card %s: %w", id, err)
	}
	return nil
}

func (s *s3Store) List(ctx context.Context, ownerID string) ([]*core.CardSummary, error) {
	summaries := make([]*core.CardSummary, 0)

	paginator := s3.NewListObjectsV2Paginator(s.s3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(keyPrefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list cards: %w", err)
		}
		for _, object := range page.Contents {
			key := aws.ToString(object.Key)
			if !strings.HasSuffix(key, ".json") {
				continue
			}
			card, err := s.get(ctx, key)
			if err != nil {
				logrus.WithField("key", key).WithError(err).Warn("Failed to read card object, skipping")
				continue
			}
			if card.OwnerID == ownerID {
				summaries = append(summaries, card.Summary())
			}
		}
	}

	core.SortSummaries(summaries)
	return summaries, nil
}

func (s *s3Store) get(ctx context.Context, key string) (*core.Card, error) {
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("card object %s: %w", key, core.ErrCardNotFound)
		}
		return nil, fmt.Errorf("failed to get card object %s: %w", key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read card data: %w", err)
	}
	return core.DecodeRecord(data)
}

func (s *s3Store) put(ctx context.Context, key string, card *core.Card) error {
	data, err := core.EncodeRecord(card)
	if err != nil {
		return err
	}
	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	return err
}
