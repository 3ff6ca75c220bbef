package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/erdalgunes/continental/internal/auth"
	"github.com/erdalgunes/continental/internal/config"
	"github.com/erdalgunes/continental/internal/handler"
	"github.com/erdalgunes/continental/internal/logger"
	"github.com/erdalgunes/continental/internal/middleware"
	"github.com/erdalgunes/continental/internal/repository/postgres"
	redisrepo "github.com/erdalgunes/continental/internal/repository/redis"
	"github.com/erdalgunes/continental/internal/service"
)

func main() {
	logger.Init()
	cfg := config.Load()
	log.Info().Str("databaseURL", cfg.DatabaseURL).Msg("Config loaded")

	// Database
	db, err := postgres.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	defer db.Close()

	// Redis
	redisClient, err := redisrepo.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer redisClient.Close()

	// Repos
	gameRepo := postgres.NewGameRepo(db)
	eventRepo := postgres.NewEventRepo(db)

	// Auth
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret)

	// WebSocket hub, fed by the Redis event channels.
	wsHub := handler.NewHub(redisClient)

	// Services
	gameSvc := service.NewGameService(gameRepo, eventRepo, redisClient)
	actionSvc := service.NewActionService(gameRepo, redisClient)
	undoSvc := service.NewUndoService(gameRepo, eventRepo, redisClient)
	replaySvc := service.NewReplayService(gameRepo, eventRepo)

	// Handlers
	gameHandler := handler.NewGameHandler(gameSvc, replaySvc, jwtMgr)
	actionHandler := handler.NewActionHandler(actionSvc, undoSvc)
	wsHandler := handler.NewWSHandler(wsHub, jwtMgr)

	// Router
	mux := http.NewServeMux()
	authMw := auth.Middleware(jwtMgr)

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Public routes: creating and joining games issue the player tokens,
	// reads are open to spectators.
	v1 := http.NewServeMux()
	v1.HandleFunc("POST /games", gameHandler.CreateGame)
	v1.HandleFunc("GET /games", gameHandler.ListGames)
	v1.HandleFunc("GET /games/{id}", gameHandler.GetGame)
	v1.HandleFunc("POST /games/{id}/join", gameHandler.JoinGame)
	v1.HandleFunc("GET /games/{id}/events", gameHandler.GetEvents)
	v1.HandleFunc("GET /games/{id}/state", gameHandler.GetState)

	// Mutating routes require a token issued for the game in the path.
	protected := func(h http.HandlerFunc) http.Handler { return authMw(h) }
	v1.Handle("POST /games/{id}/start", protected(gameHandler.StartGame))
	v1.Handle("POST /games/{id}/place", protected(actionHandler.PlaceArmies))
	v1.Handle("POST /games/{id}/attack", protected(actionHandler.Attack))
	v1.Handle("POST /games/{id}/fortify", protected(actionHandler.Fortify))
	v1.Handle("POST /games/{id}/end-turn", protected(actionHandler.EndTurn))
	v1.Handle("POST /games/{id}/phase", protected(actionHandler.ChangePhase))
	v1.Handle("GET /games/{id}/undo", protected(actionHandler.UndoAvailability))
	v1.Handle("POST /games/{id}/undo", protected(actionHandler.Undo))

	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", v1))

	// WebSocket (auth via query param, not middleware)
	mux.HandleFunc("GET /api/v1/ws", wsHandler.ServeWS)

	// Apply global middleware
	root := middleware.Chain(mux, middleware.Logger, middleware.CORS("*"), middleware.JSON)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}
