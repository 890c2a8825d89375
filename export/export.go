// Package export turns cards into PNG files.
package export

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cardstudio/core"
	"cardstudio/render"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// Capturer renders an HTML document and captures its card element as PNG.
type Capturer interface {
	Capture(ctx context.Context, html []byte) ([]byte, error)
}

// File is an exported image.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Exporter renders cards without editor chrome and captures them. Captures
// are cached per card revision.
type Exporter struct {
	renderer *render.Renderer
	capturer Capturer
	cache    *cache.Cache
	now      func() time.Time
}

func New(r *render.Renderer, c Capturer, ttl time.Duration) *Exporter {
	return &Exporter{
		renderer: r,
		capturer: c,
		cache:    cache.New(ttl, 2*ttl),
		now:      time.Now,
	}
}

// FileName is the download name for an export taken at t.
func FileName(t time.Time) string {
	return "ai-card-" + strconv.FormatInt(t.UnixMilli(), 10) + ".png"
}

// Export captures the card. The selection never shows in an export.
func (e *Exporter) Export(ctx context.Context, card *core.Card) (File, error) {
	key := cacheKey(card)
	file := File{Name: FileName(e.now()), ContentType: "image/png"}

	if data, ok := e.cache.Get(key); ok {
		logrus.WithField("card_id", card.ID).Debug("Export served from cache")
		file.Data = data.([]byte)
		return file, nil
	}

	html, err := e.renderer.HTML(card, render.View{})
	if err != nil {
		return File{}, fmt.Errorf("render card: %w", err)
	}

	start := time.Now()
	data, err := e.capturer.Capture(ctx, html)
	if err != nil {
		return File{}, fmt.Errorf("capture card: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"card_id":  card.ID,
		"bytes":    len(data),
		"duration": time.Since(start),
	}).Info("Card exported")

	e.cache.SetDefault(key, data)
	file.Data = data
	return file, nil
}

// Forget drops cached captures of a card revision.
func (e *Exporter) Forget(card *core.Card) {
	e.cache.Delete(cacheKey(card))
}

func cacheKey(card *core.Card) string {
	return card.ID + "@" + strconv.FormatInt(card.UpdatedAt.UnixNano(), 10)
}
