package export

import (
	"context"
	"fmt"
	"sync"

	"cardstudio/render"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"
)

const (
	viewportWidth  = 800
	viewportHeight = 1200
	scaleFactor    = 2
)

// readyScript settles once web fonts are loaded and every image has either
// loaded or failed.
const readyScript = `() => Promise.all([
	document.fonts.ready,
	...Array.from(document.images).map((img) => img.complete ? null : new Promise((done) => {
		img.addEventListener('load', done, { once: true });
		img.addEventListener('error', done, { once: true });
	})),
])`

// Browser captures through a headless Chromium driven by rod. The browser is
// launched on first use and shared by all captures.
type Browser struct {
	bin string

	mu      sync.Mutex
	browser *rod.Browser
}

// NewBrowser returns a capturer. An empty bin lets rod find or fetch a
// browser.
func NewBrowser(bin string) *Browser {
	return &Browser{bin: bin}
}

func (b *Browser) connect() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		return b.browser, nil
	}

	l := launcher.New().Headless(true)
	if b.bin != "" {
		l = l.Bin(b.bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to browser: %w", err)
	}
	logrus.WithField("control_url", controlURL).Info("Export browser started")

	b.browser = browser
	return browser, nil
}

func (b *Browser) Capture(ctx context.Context, html []byte) ([]byte, error) {
	browser, err := b.connect()
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close export page")
		}
	}()
	page = page.Context(ctx)

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportWidth,
		Height:            viewportHeight,
		DeviceScaleFactor: scaleFactor,
		Mobile:            false,
	}).Call(page); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	if err := page.SetDocumentContent(string(html)); err != nil {
		return nil, fmt.Errorf("load card document: %w", err)
	}
	if _, err := page.Evaluate(rod.Eval(readyScript).ByPromise()); err != nil {
		return nil, fmt.Errorf("wait for render: %w", err)
	}

	el, err := page.Element("#" + render.CardElementID)
	if err != nil {
		return nil, fmt.Errorf("card element: %w", err)
	}
	data, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return data, nil
}

// Close shuts the browser down if it was started.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.browser = nil
	return err
}
