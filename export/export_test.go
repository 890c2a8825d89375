package export

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"cardstudio/catalog"
	"cardstudio/core"
	"cardstudio/render"
)

type fakeCapturer struct {
	calls int
	html  []byte
	err   error
}

func (f *fakeCapturer) Capture(_ context.Context, html []byte) ([]byte, error) {
	f.calls++
	f.html = html
	if f.err != nil {
		return nil, f.err
	}
	return []byte("png"), nil
}

func newExporter(t *testing.T, c Capturer) *Exporter {
	t.Helper()
	r, err := render.New(catalog.Default(), "")
	if err != nil {
		t.Fatal(err)
	}
	e := New(r, c, time.Minute)
	e.now = func() time.Time { return time.UnixMilli(1700000000123) }
	return e
}

func testCard() *core.Card {
	c := catalog.Default().NewCard()
	c.ID = "01J00000000000000000000000"
	c.UpdatedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c.Decorations = []core.Decoration{{ID: "star", Content: "⭐", Scale: 1}}
	return c
}

func TestFileName(t *testing.T) {
	if got := FileName(time.UnixMilli(1700000000123)); got != "ai-card-1700000000123.png" {
		t.Errorf("got %q", got)
	}
}

func TestExport(t *testing.T) {
	capt := &fakeCapturer{}
	e := newExporter(t, capt)

	f, err := e.Export(context.Background(), testCard())
	if err != nil {
		t.Fatal(err)
	}
	if f.Name != "ai-card-1700000000123.png" || f.ContentType != "image/png" || string(f.Data) != "png" {
		t.Errorf("file = %+v", f)
	}
	if bytes.Contains(capt.html, []byte("data-action=")) {
		t.Error("export document contains selection controls")
	}
	if !bytes.Contains(capt.html, []byte(`id="card"`)) {
		t.Error("export document lacks the card element")
	}
}

func TestExport_CachesPerRevision(t *testing.T) {
	capt := &fakeCapturer{}
	e := newExporter(t, capt)
	card := testCard()

	for i := 0; i < 3; i++ {
		if _, err := e.Export(context.Background(), card); err != nil {
			t.Fatal(err)
		}
	}
	if capt.calls != 1 {
		t.Errorf("captures = %d, want 1", capt.calls)
	}

	card.UpdatedAt = card.UpdatedAt.Add(time.Second)
	if _, err := e.Export(context.Background(), card); err != nil {
		t.Fatal(err)
	}
	if capt.calls != 2 {
		t.Errorf("captures after edit = %d, want 2", capt.calls)
	}

	e.Forget(card)
	if _, err := e.Export(context.Background(), card); err != nil {
		t.Fatal(err)
	}
	if capt.calls != 3 {
		t.Errorf("captures after forget = %d, want 3", capt.calls)
	}
}

func TestExport_CaptureError(t *testing.T) {
	boom := errors.New("browser crashed")
	capt := &fakeCapturer{err: boom}
	e := newExporter(t, capt)

	if _, err := e.Export(context.Background(), testCard()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped capture error", err)
	}
	capt.err = nil
	if _, err := e.Export(context.Background(), testCard()); err != nil {
		t.Fatal(err)
	}
	if capt.calls != 2 {
		t.Errorf("failed capture was cached")
	}
}

func TestBrowser_Capture(t *testing.T) {
	bin := os.Getenv("EXPORT_BROWSER_BIN")
	if bin == "" {
		t.Skip("EXPORT_BROWSER_BIN not set")
	}

	b := NewBrowser(bin)
	defer b.Close()

	r, err := render.New(catalog.Default(), "")
	if err != nil {
		t.Fatal(err)
	}
	html, err := r.HTML(testCard(), render.View{})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	data, err := b.Capture(ctx, html)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")) {
		t.Errorf("capture is not a PNG")
	}
}
