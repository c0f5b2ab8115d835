package main

import (
	"context"
	"errors"
	"fmt"
	"gallery-server/config"
	"gallery-server/core"
	"gallery-server/handlers/api/pictures"
	"gallery-server/handlers/websocket"
	authMiddleware "gallery-server/middleware"
	"gallery-server/stores"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

func allowOrigin(extra []string) func(r *http.Request, origin string) bool {
	allowed := make(map[string]bool, len(extra))
	for _, o := range extra {
		allowed[o] = true
	}

	return func(r *http.Request, origin string) bool {
		if origin == "" {
			return false
		}
		if allowed[origin] {
			return true
		}

		parsed, err := url.Parse(origin)
		if err != nil {
			return false
		}

		switch parsed.Scheme {
		case "http", "https":
			switch parsed.Hostname() {
			case "localhost", "127.0.0.1", "::1":
				return true
			}
		case "tauri":
			return parsed.Hostname() == "localhost"
		}

		return false
	}
}

func setupRouter(store core.PictureStore, hub *websocket.Hub, cfg config.Config) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)

	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc:  allowOrigin(cfg.AllowedOrigins),
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length"},
		ExposedHeaders:   []string{pictures.VersionHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]any{
			"status":   "ok",
			"version":  store.Version(),
			"pictures": len(store.All()),
			"clients":  hub.ClientCount(),
		})
	})

	r.Route("/api/pictures", func(r chi.Router) {
		r.Get("/", pictures.HandleList(store))
		r.Get("/version", pictures.HandleVersion(store))

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.AuthJWT([]byte(cfg.JWTSecret)))
			r.Post("/", pictures.HandleAdd(store))
			r.Delete("/", pictures.HandleClear(store))
			r.Post("/samples", pictures.HandleSeed(store))
			r.Delete("/{id}", pictures.HandleRemove(store))
		})
	})

	r.Handle("/socket.io/", hub.Server().ServeHandler(nil))

	return r
}

func waitForShutdown(srv *http.Server, hub *websocket.Hub) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()
	<-ctx.Done()

	logrus.Info("Shutting down...")
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("HTTP server shutdown failed")
	}
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	logrus.SetLevel(cfg.LogLevel)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if cfg.IssueTokenFor != "" {
		token, err := authMiddleware.IssueToken([]byte(cfg.JWTSecret), cfg.IssueTokenFor, 7*24*time.Hour)
		if err != nil {
			logrus.WithError(err).Fatal("failed to issue token")
		}
		fmt.Println(token)
		return
	}

	store := stores.NewStore(cfg)
	hub := websocket.NewHub(store, cfg.AllowedOrigins, cfg.JWTSecret != "")
	r := setupRouter(store, hub, cfg)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logrus.WithField("addr", cfg.ListenAddr).Info("starting server")
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown(srv, hub)
}
