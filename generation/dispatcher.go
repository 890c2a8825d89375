package generation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cardstudio/catalog"
	"cardstudio/core"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultRecipient  = "someone special"
	DefaultSenderName = "me"
)

// Card is the live card a dispatcher reads from and merges into.
type Card interface {
	ID() string
	Snapshot() *core.Card
	Update(build func(current *core.Card) (core.Patch, bool)) (*core.Card, bool)
}

// Notice is a user-facing message about a failed generation.
type Notice struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Result describes how one generation request settled.
type Result struct {
	Kind Kind
	Seq  uint64

	// Card is the card after the merge. It is nil when nothing was merged.
	Card    *core.Card
	Applied bool
	// Stale is set when a newer request of the same kind was issued before
	// this one settled; its value was discarded.
	Stale    bool
	Fallback bool
	Notice   *Notice
	Err      error
}

type slot struct {
	card string
	kind Kind
}

// request is everything a generation call needs, captured when it is issued.
type request struct {
	slot
	seq   uint64
	theme string
	card  *core.Card
}

// Dispatcher issues generation calls for cards and merges their results.
// Within one card and kind the latest requested call wins, whatever order
// the responses arrive in.
type Dispatcher struct {
	client  Client
	catalog *catalog.Catalog
	now     func() time.Time

	mu   sync.Mutex
	seq  map[slot]uint64
	busy map[slot]int

	wg sync.WaitGroup
}

func NewDispatcher(client Client, cat *catalog.Catalog) *Dispatcher {
	return &Dispatcher{
		client:  client,
		catalog: cat,
		now:     time.Now,
		seq:     make(map[slot]uint64),
		busy:    make(map[slot]int),
	}
}

// Do runs one generation and merges its result before returning.
func (d *Dispatcher) Do(ctx context.Context, card Card, kind Kind) (Result, error) {
	req, err := d.begin(card, kind)
	if err != nil {
		return Result{}, err
	}
	return d.run(ctx, card, req), nil
}

// Go issues a generation and returns at once. The request is ordered
// against others of its kind before Go returns. done, if not nil, receives
// the result.
func (d *Dispatcher) Go(ctx context.Context, card Card, kind Kind, done func(Result)) error {
	req, err := d.begin(card, kind)
	if err != nil {
		return err
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		res := d.run(context.WithoutCancel(ctx), card, req)
		if done != nil {
			done(res)
		}
	}()
	return nil
}

// Suggest generates caption, stickers and background colour concurrently.
func (d *Dispatcher) Suggest(ctx context.Context, card Card) ([]Result, error) {
	kinds := []Kind{KindCaption, KindStickers, KindBackground}
	results := make([]Result, len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			res, err := d.Do(gctx, card, kind)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Busy reports the kinds with calls in flight for a card.
func (d *Dispatcher) Busy(cardID string) map[Kind]bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make(map[Kind]bool, len(Kinds))
	for _, k := range Kinds {
		out[k] = d.busy[slot{cardID, k}] > 0
	}
	return out
}

// Wait blocks until calls started with Go have settled or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) begin(card Card, kind Kind) (request, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return request{}, err
	}

	snap := card.Snapshot()
	if snap == nil {
		return request{}, fmt.Errorf("card %s is closed", card.ID())
	}

	s := slot{card.ID(), kind}
	d.mu.Lock()
	d.seq[s]++
	d.busy[s]++
	seq := d.seq[s]
	d.mu.Unlock()

	return request{
		slot:  s,
		seq:   seq,
		theme: d.catalog.EffectiveTheme(snap.Theme, snap.CustomTheme),
		card:  snap,
	}, nil
}

func (d *Dispatcher) isLatest(req request) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seq[req.slot] == req.seq
}

func (d *Dispatcher) finish(req request) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.busy[req.slot]--
	if d.busy[req.slot] <= 0 {
		// isLatest is only asked while a request is outstanding, so an idle
		// slot can restart its sequence.
		delete(d.busy, req.slot)
		delete(d.seq, req.slot)
	}
}

func (d *Dispatcher) run(ctx context.Context, card Card, req request) Result {
	defer d.finish(req)

	log := logrus.WithFields(logrus.Fields{
		"card_id": req.card.ID,
		"kind":    req.kind,
		"seq":     req.seq,
	})

	start := time.Now()
	patch, err := d.generate(ctx, req)
	res := Result{Kind: req.kind, Seq: req.seq, Err: err}
	if err != nil {
		log.WithError(err).Warn("Generation failed, using fallback")
		patch = d.fallback(req)
		res.Fallback = true
		res.Notice = noticeFor(req.kind)
	}

	merged, ok := card.Update(func(*core.Card) (core.Patch, bool) {
		if !d.isLatest(req) {
			return core.Patch{}, false
		}
		return patch, true
	})
	if !ok {
		res.Stale = !d.isLatest(req)
		log.WithField("stale", res.Stale).Info("Generation result discarded")
		return res
	}

	res.Card = merged
	res.Applied = true
	log.WithFields(logrus.Fields{
		"duration": time.Since(start),
		"fallback": res.Fallback,
	}).Info("Generation result merged")
	return res
}

func (d *Dispatcher) generate(ctx context.Context, req request) (core.Patch, error) {
	switch req.kind {
	case KindText:
		msg, err := d.client.Message(ctx, MessageRequest{
			Theme:     req.theme,
			Recipient: orDefault(req.card.Recipient, DefaultRecipient),
			Sender:    orDefault(req.card.Sender, DefaultSenderName),
			Length:    req.card.MessageLength,
		})
		if err != nil {
			return core.Patch{}, err
		}
		return core.Patch{Message: core.String(msg.Text), SenderLabel: core.String(msg.SenderLabel)}, nil

	case KindCaption:
		caption, err := d.client.Caption(ctx, req.theme)
		if err != nil {
			return core.Patch{}, err
		}
		return core.Patch{EnglishCaption: core.String(caption)}, nil

	case KindImage:
		ref, err := d.client.Image(ctx, req.theme, req.card.ImageSubject, req.card.ImageStyle)
		if err != nil {
			return core.Patch{}, err
		}
		return core.Patch{ImageURL: core.String(ref)}, nil

	case KindStickers:
		topic := orDefault(req.card.CustomStickerTopic, req.theme)
		stickers, err := d.client.Stickers(ctx, topic)
		if err != nil {
			return core.Patch{}, err
		}
		return core.Patch{StickerSet: &stickers}, nil

	case KindBackground:
		color, err := d.client.BackgroundColor(ctx, req.theme)
		if err != nil {
			return core.Patch{}, err
		}
		return core.Patch{BackgroundColor: core.String(color)}, nil

	case KindFont:
		font, err := d.client.RecommendFont(ctx, req.theme, req.card.Message)
		if err != nil {
			return core.Patch{}, err
		}
		return core.Patch{Font: core.String(font)}, nil
	}
	return core.Patch{}, fmt.Errorf("%w: %q", ErrUnknownKind, req.kind)
}

func (d *Dispatcher) fallback(req request) core.Patch {
	switch req.kind {
	case KindText:
		msg := FallbackMessage(req.theme)
		return core.Patch{Message: core.String(msg.Text), SenderLabel: core.String(msg.SenderLabel)}
	case KindCaption:
		return core.Patch{EnglishCaption: core.String(FallbackCaption)}
	case KindImage:
		return core.Patch{ImageURL: core.String(FallbackImage(req.theme, d.now()))}
	case KindStickers:
		stickers := copyStickers(FallbackStickers)
		return core.Patch{StickerSet: &stickers}
	case KindBackground:
		return core.Patch{BackgroundColor: core.String(FallbackColor)}
	case KindFont:
		return core.Patch{Font: core.String(d.catalog.FirstFont())}
	}
	return core.Patch{}
}

func noticeFor(kind Kind) *Notice {
	switch kind {
	case KindText:
		return &Notice{Kind: kind, Message: "Message generation failed. Please try again."}
	case KindImage:
		return &Notice{Kind: kind, Message: "Image generation failed. Please try again."}
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
