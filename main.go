package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cardstudio/catalog"
	"cardstudio/config"
	"cardstudio/core"
	"cardstudio/editor"
	"cardstudio/export"
	"cardstudio/generation"
	"cardstudio/handlers/api/cards"
	"cardstudio/handlers/api/generate"
	"cardstudio/handlers/api/options"
	"cardstudio/handlers/api/preview"
	"cardstudio/handlers/auth"
	"cardstudio/handlers/websocket"
	authMiddleware "cardstudio/middleware"
	"cardstudio/render"
	"cardstudio/stores"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 15 * time.Second

type services struct {
	store      core.CardStore
	hub        *editor.Hub
	catalog    *catalog.Catalog
	dispatcher *generation.Dispatcher
	renderer   *render.Renderer
	exporter   *export.Exporter
}

func setupRouter(s services) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "X-Requested-With"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/options", options.HandleOptions(s.catalog))

		r.Route("/cards", func(r chi.Router) {
			r.With(authMiddleware.AuthJWT).Get("/", cards.HandleList(s.store))
			r.With(authMiddleware.OptionalJWT).Post("/", cards.HandleCreate(s.store, s.catalog))

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cards.HandleGet(s.hub))
				r.Patch("/", cards.HandlePatch(s.hub, s.catalog))
				r.With(authMiddleware.OptionalJWT).Delete("/", cards.HandleDelete(s.hub))

				r.Post("/stickers", cards.HandleAddSticker(s.hub))
				r.Delete("/decorations/{decorationId}", cards.HandleRemoveDecoration(s.hub))
				r.Post("/random-template", cards.HandleRandomTemplate(s.hub, s.catalog))

				r.Get("/generate", generate.HandleBusy(s.dispatcher))
				r.Post("/generate/{kind}", generate.HandleGenerate(s.hub, s.dispatcher))

				r.Get("/preview", preview.HandlePreview(s.hub, s.renderer))
				r.Post("/export", preview.HandleExport(s.hub, s.exporter))
			})
		})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Get("/login", auth.HandleLogin)
		r.Get("/callback", auth.HandleCallback)
	})

	return r
}

func newGenerationClient(cfg config.Generation, cat *catalog.Catalog) generation.Client {
	client, err := generation.NewGemini(context.Background(), cfg, cat)
	if err != nil {
		logrus.WithError(err).Warn("Generation disabled, every request will use its fallback")
		return generation.Offline{}
	}
	logrus.WithFields(logrus.Fields{
		"textModel":  cfg.TextModel,
		"imageModel": cfg.ImageModel,
	}).Info("Use Gemini")
	return client
}

func waitForShutdown() {
	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
	s := <-signalC
	logrus.WithField("signal", s.String()).Info("Shutting down...")
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	auth.InitAuth(cfg.Auth)

	cat := catalog.Default()
	store := stores.GetStore(cfg.Storage)
	hub := editor.NewHub(store)
	dispatcher := generation.NewDispatcher(newGenerationClient(cfg.Generation, cat), cat)

	renderer, err := render.New(cat, cfg.Export.TailwindURL)
	if err != nil {
		logrus.Fatalf("Failed to load card template: %v", err)
	}
	browser := export.NewBrowser(cfg.Export.BrowserBin)

	r := setupRouter(services{
		store:      store,
		hub:        hub,
		catalog:    cat,
		dispatcher: dispatcher,
		renderer:   renderer,
		exporter:   export.New(renderer, browser, cfg.Export.CacheTTL),
	})

	ioo := websocket.SetupSocketIO(hub, dispatcher)
	r.Mount("/socket.io/", ioo.ServeHandler(nil))

	srv := &http.Server{Addr: cfg.Listen, Handler: r}
	logrus.WithField("addr", cfg.Listen).Info("starting server")
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	ioo.Close(nil)
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown incomplete")
	}
	if err := dispatcher.Wait(ctx); err != nil {
		logrus.WithError(err).Warn("Pending generations abandoned")
	}
	if err := hub.FlushAll(ctx); err != nil {
		logrus.WithError(err).Error("Failed to flush open cards")
	}
	if err := browser.Close(); err != nil {
		logrus.WithError(err).Warn("Failed to close export browser")
	}
}
