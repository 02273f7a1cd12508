package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/princekumarofficial/stories-viewer/internal/cache"
	"github.com/princekumarofficial/stories-viewer/internal/config"
	"github.com/princekumarofficial/stories-viewer/internal/events"
	mediahandlers "github.com/princekumarofficial/stories-viewer/internal/http/handlers/media"
	"github.com/princekumarofficial/stories-viewer/internal/http/handlers/stories"
	"github.com/princekumarofficial/stories-viewer/internal/http/handlers/users"
	wshandlers "github.com/princekumarofficial/stories-viewer/internal/http/handlers/websocket"
	"github.com/princekumarofficial/stories-viewer/internal/http/middleware"
	mediasvc "github.com/princekumarofficial/stories-viewer/internal/services/media"
	"github.com/princekumarofficial/stories-viewer/internal/storage/postgres"
	ws "github.com/princekumarofficial/stories-viewer/internal/websocket"
)

func main() {
	// load config
	cfg := config.MustLoad()

	// database setup
	pg, err := postgres.NewPostgres(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	slog.Info("Connected to Postgres database")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	slog.Info("Connected to Redis")

	store := cache.NewService(pg, redisClient)

	media, err := mediasvc.NewService(cfg)
	if err != nil {
		log.Fatal("Failed to initialize media service:", err)
	}

	// realtime hub
	hub := ws.NewHub()
	go hub.Run()
	publisher := events.NewEventPublisher(hub)

	auth := middleware.AuthMiddleware(cfg.JWTSecret)
	rateLimits := middleware.NewRateLimitConfig(redisClient)

	// setup server
	router := http.NewServeMux()

	router.HandleFunc("POST /signup", users.SignUp(store))
	router.HandleFunc("POST /login", users.Login(store, cfg.JWTSecret))

	router.Handle("GET /feed", auth(stories.Feed(store)))
	router.Handle("GET /viewed", auth(stories.ViewedIDs(store)))
	router.Handle("POST /stories", auth(rateLimits.RateLimitedHandler("stories", stories.PostStory(store))))
	router.Handle("POST /stories/{id}/view", auth(rateLimits.RateLimitedHandler("views", stories.ViewStory(store, publisher))))
	router.Handle("POST /stories/{id}/repost", auth(rateLimits.RateLimitedHandler("reposts", stories.ToggleRepost(store, publisher))))
	router.Handle("GET /stories/{id}/viewers", auth(stories.ListViewers(store)))
	router.Handle("GET /media/{key}/url", auth(mediahandlers.ResolveURL(media)))

	router.HandleFunc("GET /ws/session", wshandlers.SessionHandler(hub, store, publisher, cfg))

	server := http.Server{
		Addr:    cfg.HTTPServer.Address,
		Handler: router,
	}

	log.Println("server started on", cfg.HTTPServer.Address)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %s", err)
		}
	}()

	<-done

	slog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = server.Shutdown(ctx)
	if err != nil {
		slog.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
		return
	}

	slog.Info("Server stopped")
}
