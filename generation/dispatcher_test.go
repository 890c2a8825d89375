package generation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"cardstudio/catalog"
	"cardstudio/core"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errBackend = errors.New("backend unavailable")

// fakeClient answers every call from its function fields, or with fixed
// values when a field is nil.
type fakeClient struct {
	message    func(ctx context.Context, req MessageRequest) (Message, error)
	caption    func(ctx context.Context, theme string) (string, error)
	image      func(ctx context.Context, theme, subject, style string) (string, error)
	stickers   func(ctx context.Context, topic string) ([]string, error)
	background func(ctx context.Context, theme string) (string, error)
	font       func(ctx context.Context, theme, message string) (string, error)
}

func (f *fakeClient) Message(ctx context.Context, req MessageRequest) (Message, error) {
	if f.message != nil {
		return f.message(ctx, req)
	}
	return Message{Text: "Happy " + req.Theme, SenderLabel: "Love"}, nil
}

func (f *fakeClient) Caption(ctx context.Context, theme string) (string, error) {
	if f.caption != nil {
		return f.caption(ctx, theme)
	}
	return "Cheers to " + theme, nil
}

func (f *fakeClient) Image(ctx context.Context, theme, subject, style string) (string, error) {
	if f.image != nil {
		return f.image(ctx, theme, subject, style)
	}
	return "data:image/png;base64,AAAA", nil
}

func (f *fakeClient) Stickers(ctx context.Context, topic string) ([]string, error) {
	if f.stickers != nil {
		return f.stickers(ctx, topic)
	}
	return []string{"🎂", "🎈"}, nil
}

func (f *fakeClient) BackgroundColor(ctx context.Context, theme string) (string, error) {
	if f.background != nil {
		return f.background(ctx, theme)
	}
	return "#FFE4E1", nil
}

func (f *fakeClient) RecommendFont(ctx context.Context, theme, message string) (string, error) {
	if f.font != nil {
		return f.font(ctx, theme, message)
	}
	return "Gaegu", nil
}

func failingClient() *fakeClient {
	return &fakeClient{
		message:    func(context.Context, MessageRequest) (Message, error) { return Message{}, errBackend },
		caption:    func(context.Context, string) (string, error) { return "", errBackend },
		image:      func(context.Context, string, string, string) (string, error) { return "", errBackend },
		stickers:   func(context.Context, string) ([]string, error) { return nil, ErrMalformed },
		background: func(context.Context, string) (string, error) { return "", errBackend },
		font:       func(context.Context, string, string) (string, error) { return "", errBackend },
	}
}

type fakeCard struct {
	mu   sync.Mutex
	card *core.Card
}

func newFakeCard(edit func(c *core.Card)) *fakeCard {
	c := catalog.Default().NewCard()
	c.ID = "01J0000000000000000000CARD"
	if edit != nil {
		edit(c)
	}
	return &fakeCard{card: c}
}

func (f *fakeCard) ID() string { return f.card.ID }

func (f *fakeCard) Snapshot() *core.Card {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.card.Clone()
}

func (f *fakeCard) Update(build func(*core.Card) (core.Patch, bool)) (*core.Card, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := build(f.card.Clone())
	if !ok {
		return nil, false
	}
	f.card.Apply(p)
	return f.card.Clone(), true
}

func TestDispatcher_MergesEachKind(t *testing.T) {
	card := newFakeCard(func(c *core.Card) { c.Theme = "birthday" })
	d := NewDispatcher(&fakeClient{}, catalog.Default())

	for _, kind := range Kinds {
		res, err := d.Do(context.Background(), card, kind)
		if err != nil {
			t.Fatalf("Do(%s): %v", kind, err)
		}
		if !res.Applied || res.Fallback || res.Notice != nil {
			t.Errorf("Do(%s) = %+v, want clean merge", kind, res)
		}
	}

	got := card.Snapshot()
	if got.Message != "Happy Birthday" || got.SenderLabel != "Love" {
		t.Errorf("message = %q/%q", got.Message, got.SenderLabel)
	}
	if got.EnglishCaption != "Cheers to Birthday" {
		t.Errorf("caption = %q", got.EnglishCaption)
	}
	if got.ImageURL != "data:image/png;base64,AAAA" {
		t.Errorf("image = %q", got.ImageURL)
	}
	if diff := cmp.Diff([]string{"🎂", "🎈"}, got.StickerSet); diff != "" {
		t.Errorf("stickers mismatch (-want +got):\n%s", diff)
	}
	if got.BackgroundColor != "#FFE4E1" {
		t.Errorf("background = %q", got.BackgroundColor)
	}
	if got.Font != "Gaegu" {
		t.Errorf("font = %q", got.Font)
	}
}

func TestDispatcher_FailuresUseFallbacks(t *testing.T) {
	cat := catalog.Default()
	now := time.UnixMilli(1700000000000)
	d := NewDispatcher(failingClient(), cat)
	d.now = func() time.Time { return now }

	card := newFakeCard(func(c *core.Card) { c.Theme = "christmas" })
	results := make(map[Kind]Result)
	for _, kind := range Kinds {
		res, err := d.Do(context.Background(), card, kind)
		if err != nil {
			t.Fatalf("Do(%s): %v", kind, err)
		}
		if !res.Applied || !res.Fallback || res.Err == nil {
			t.Errorf("Do(%s) = %+v, want applied fallback", kind, res)
		}
		results[kind] = res
	}

	for _, kind := range Kinds {
		wantNotice := kind == KindText || kind == KindImage
		if got := results[kind].Notice != nil; got != wantNotice {
			t.Errorf("%s notice = %v, want %v", kind, got, wantNotice)
		}
	}

	got := card.Snapshot()
	want := FallbackMessage("Christmas")
	if got.Message != want.Text || got.SenderLabel != "From" {
		t.Errorf("message = %q/%q", got.Message, got.SenderLabel)
	}
	if got.EnglishCaption != FallbackCaption {
		t.Errorf("caption = %q", got.EnglishCaption)
	}
	if got.ImageURL != FallbackImage("Christmas", now) {
		t.Errorf("image = %q", got.ImageURL)
	}
	if !strings.HasPrefix(got.ImageURL, "https://picsum.photos/seed/Christmas1700000000000/") {
		t.Errorf("image = %q, want picsum seed keyed by theme and time", got.ImageURL)
	}
	if diff := cmp.Diff(FallbackStickers, got.StickerSet); diff != "" {
		t.Errorf("stickers mismatch (-want +got):\n%s", diff)
	}
	if got.BackgroundColor != FallbackColor {
		t.Errorf("background = %q", got.BackgroundColor)
	}
	if got.Font != cat.FirstFont() {
		t.Errorf("font = %q", got.Font)
	}
}

func TestDispatcher_RequestInputs(t *testing.T) {
	var (
		gotReq   MessageRequest
		gotTopic string
		gotImage []string
	)
	client := &fakeClient{
		message: func(_ context.Context, req MessageRequest) (Message, error) {
			gotReq = req
			return Message{Text: "hi", SenderLabel: "From"}, nil
		},
		stickers: func(_ context.Context, topic string) ([]string, error) {
			gotTopic = topic
			return []string{"🐶"}, nil
		},
		image: func(_ context.Context, theme, subject, style string) (string, error) {
			gotImage = []string{theme, subject, style}
			return "ref", nil
		},
	}
	d := NewDispatcher(client, catalog.Default())

	card := newFakeCard(func(c *core.Card) {
		c.Theme = catalog.OtherTheme
		c.CustomTheme = "Puppy adoption"
		c.Recipient = ""
		c.Sender = ""
		c.MessageLength = "long"
		c.CustomStickerTopic = "dogs"
		c.ImageSubject = "a corgi"
		c.ImageStyle = "watercolor"
	})
	for _, kind := range []Kind{KindText, KindStickers, KindImage} {
		if _, err := d.Do(context.Background(), card, kind); err != nil {
			t.Fatal(err)
		}
	}

	wantReq := MessageRequest{Theme: "Puppy adoption", Recipient: DefaultRecipient, Sender: DefaultSenderName, Length: "long"}
	if diff := cmp.Diff(wantReq, gotReq); diff != "" {
		t.Errorf("message request mismatch (-want +got):\n%s", diff)
	}
	if gotTopic != "dogs" {
		t.Errorf("sticker topic = %q, want custom topic", gotTopic)
	}
	if diff := cmp.Diff([]string{"Puppy adoption", "a corgi", "watercolor"}, gotImage); diff != "" {
		t.Errorf("image inputs mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatcher_StickerTopicDefaultsToTheme(t *testing.T) {
	var topic string
	d := NewDispatcher(&fakeClient{stickers: func(_ context.Context, s string) ([]string, error) {
		topic = s
		return nil, nil
	}}, catalog.Default())

	card := newFakeCard(func(c *core.Card) { c.Theme = "wedding" })
	if _, err := d.Do(context.Background(), card, KindStickers); err != nil {
		t.Fatal(err)
	}
	if topic != "Wedding" {
		t.Errorf("topic = %q, want Wedding", topic)
	}
}

func TestDispatcher_LatestRequestedWins(t *testing.T) {
	gates := map[string]chan struct{}{
		"Birthday":  make(chan struct{}),
		"Christmas": make(chan struct{}),
	}
	client := &fakeClient{message: func(ctx context.Context, req MessageRequest) (Message, error) {
		<-gates[req.Theme]
		return Message{Text: "message for " + req.Theme, SenderLabel: "From"}, nil
	}}
	d := NewDispatcher(client, catalog.Default())
	card := newFakeCard(func(c *core.Card) { c.Theme = "birthday" })

	results := make(chan Result, 2)
	done := func(r Result) { results <- r }

	if err := d.Go(context.Background(), card, KindText, done); err != nil {
		t.Fatal(err)
	}
	card.Update(func(*core.Card) (core.Patch, bool) {
		return core.Patch{Theme: core.String("christmas")}, true
	})
	if err := d.Go(context.Background(), card, KindText, done); err != nil {
		t.Fatal(err)
	}
	if !d.Busy(card.ID())[KindText] {
		t.Error("text should be busy while calls are in flight")
	}

	// The newer request settles first, the older one afterwards.
	close(gates["Christmas"])
	first := <-results
	close(gates["Birthday"])
	second := <-results

	if !first.Applied || first.Seq != 2 {
		t.Errorf("first settled = %+v, want applied seq 2", first)
	}
	if second.Applied || !second.Stale || second.Seq != 1 {
		t.Errorf("second settled = %+v, want stale seq 1", second)
	}
	if got := card.Snapshot().Message; got != "message for Christmas" {
		t.Errorf("message = %q, want the latest requested", got)
	}

	if err := d.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	if d.Busy(card.ID())[KindText] {
		t.Error("text still busy after all calls settled")
	}
}

func TestDispatcher_KindsDoNotInterfere(t *testing.T) {
	release := make(chan struct{})
	client := &fakeClient{image: func(context.Context, string, string, string) (string, error) {
		<-release
		return "slow-image", nil
	}}
	d := NewDispatcher(client, catalog.Default())
	card := newFakeCard(nil)

	results := make(chan Result, 1)
	if err := d.Go(context.Background(), card, KindImage, func(r Result) { results <- r }); err != nil {
		t.Fatal(err)
	}
	if res, err := d.Do(context.Background(), card, KindStickers); err != nil || !res.Applied {
		t.Fatalf("stickers = %+v, %v", res, err)
	}
	close(release)

	if res := <-results; !res.Applied {
		t.Errorf("image = %+v, want applied", res)
	}
	got := card.Snapshot()
	if got.ImageURL != "slow-image" || len(got.StickerSet) != 2 {
		t.Errorf("card = %q %v", got.ImageURL, got.StickerSet)
	}
	if err := d.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestDispatcher_Suggest(t *testing.T) {
	d := NewDispatcher(&fakeClient{}, catalog.Default())
	card := newFakeCard(func(c *core.Card) { c.Theme = "love" })

	results, err := d.Suggest(context.Background(), card)
	if err != nil {
		t.Fatal(err)
	}

	var kinds []Kind
	for _, r := range results {
		kinds = append(kinds, r.Kind)
		if !r.Applied {
			t.Errorf("%s not applied", r.Kind)
		}
	}
	if diff := cmp.Diff([]Kind{KindCaption, KindStickers, KindBackground}, kinds); diff != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", diff)
	}

	got := card.Snapshot()
	if got.EnglishCaption != "Cheers to Love" || got.BackgroundColor != "#FFE4E1" || len(got.StickerSet) != 2 {
		t.Errorf("card = %q %q %v", got.EnglishCaption, got.BackgroundColor, got.StickerSet)
	}
	if got.Message != "" {
		t.Errorf("message = %q, suggest must leave it alone", got.Message)
	}
}

func TestDispatcher_UnknownKind(t *testing.T) {
	d := NewDispatcher(&fakeClient{}, catalog.Default())
	if _, err := d.Do(context.Background(), newFakeCard(nil), Kind("poem")); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("err = %v, want ErrUnknownKind", err)
	}
	if err := d.Go(context.Background(), newFakeCard(nil), Kind("poem"), nil); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("err = %v, want ErrUnknownKind", err)
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		if got, err := ParseKind(string(k)); err != nil || got != k {
			t.Errorf("ParseKind(%q) = %q, %v", k, got, err)
		}
	}
	if _, err := ParseKind("suggest"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("ParseKind(suggest) err = %v", err)
	}
}

func TestDispatcher_OfflineSettlesOnFallbacks(t *testing.T) {
	d := NewDispatcher(Offline{}, catalog.Default())
	card := newFakeCard(nil)

	for _, kind := range Kinds {
		res, err := d.Do(context.Background(), card, kind)
		if err != nil {
			t.Fatalf("Do(%s): %v", kind, err)
		}
		if !res.Applied || !res.Fallback || !errors.Is(res.Err, ErrUnavailable) {
			t.Errorf("Do(%s) = %+v, want applied fallback", kind, res)
		}
	}
}

func TestDispatcher_IdleSlotsAreForgotten(t *testing.T) {
	d := NewDispatcher(&fakeClient{}, catalog.Default())
	card := newFakeCard(nil)

	for _, kind := range []Kind{KindCaption, KindCaption, KindBackground} {
		if _, err := d.Do(context.Background(), card, kind); err != nil {
			t.Fatalf("Do(%s): %v", kind, err)
		}
	}

	d.mu.Lock()
	seqs, busy := len(d.seq), len(d.busy)
	d.mu.Unlock()
	if seqs != 0 || busy != 0 {
		t.Errorf("after settling: %d sequence and %d busy entries, want none", seqs, busy)
	}

	res, err := d.Do(context.Background(), card, KindCaption)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Applied || res.Seq != 1 {
		t.Errorf("restarted slot = %+v, want applied with seq 1", res)
	}
}
