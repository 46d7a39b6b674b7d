package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tunesmith/cache"
	"tunesmith/config"
	"tunesmith/core/auth"
	"tunesmith/core/billing"
	"tunesmith/core/generation"
	"tunesmith/db"
	"tunesmith/logger"
	"tunesmith/repository"
	"tunesmith/storage"

	"github.com/gorilla/mux"
)

// Start initializes dependencies and runs the HTTP server until it gets a
// termination signal.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})

	auth.InitJWT(cfg.JWTSecret)

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("failed to connect to database", logger.ErrorField(err))
	}
	defer db.DB.Close()

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("failed to connect orm", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := db.InitDB(); err != nil {
		logger.Fatal("failed to initialize database schema", logger.ErrorField(err))
	}

	if err := db.ConnectRedis(cfg); err != nil {
		logger.Fatal("failed to connect to redis", logger.ErrorField(err))
	}
	defer db.CloseRedis()
	cache.Init(db.RedisClient)

	if err := storage.InitMinio(cfg); err != nil {
		logger.Fatal("failed to initialize storage", logger.ErrorField(err))
	}

	userRepo := repository.NewMySQLUserRepository(db.DB)
	ledger := repository.NewMySQLCreditLedger(db.DB)
	songRepo := repository.NewMySQLSongRepository(db.DB, ledger)
	playlistRepo := repository.NewMySQLPlaylistRepository(db.DB)
	socialRepo := repository.NewSocialRepository(db.GormDB)
	commentRepo := repository.NewCommentRepository(db.GormDB)

	dispatcher := generation.NewRedisDispatcher(db.RedisClient, cfg.GenerationStream)
	pipeline := generation.NewPipeline(songRepo, ledger, dispatcher)
	reconciler := generation.NewReconciler(songRepo, ledger, nil)
	billingSvc := billing.NewService(ledger)

	apiHandler := NewAPIHandler(userRepo, songRepo, playlistRepo, socialRepo,
		commentRepo, ledger, pipeline, reconciler, billingSvc, cfg)

	router := mux.NewRouter()
	router.Use(corsMiddleware)
	registerRoutes(router, apiHandler)

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server listening", logger.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", logger.ErrorField(err))
	}
	logger.Info("server stopped")
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func registerRoutes(router *mux.Router, h *APIHandler) {
	// Auth
	router.HandleFunc("/api/auth/register", h.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", h.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/me", h.AuthMiddleware(h.MeHandler)).Methods(http.MethodGet)

	// Generation
	router.HandleFunc("/api/generate", h.AuthMiddleware(h.GenerateSongHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/songs/{id}/remix", h.AuthMiddleware(h.RemixSongHandler)).Methods(http.MethodPost)

	// Songs
	router.HandleFunc("/api/songs/search", h.SearchHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/trending", h.TrendingHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/{id}", h.GetSongHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/{id}", h.AuthMiddleware(h.DeleteSongHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/songs/{id}/publish", h.AuthMiddleware(h.SetPublishedHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/songs/{id}/listen", h.ListenHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/songs/{id}/download", h.AuthMiddleware(h.DownloadHandler)).Methods(http.MethodGet)

	// Social
	router.HandleFunc("/api/songs/{id}/like", h.AuthMiddleware(h.ToggleLikeHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/songs/{id}/favorite", h.AuthMiddleware(h.ToggleFavoriteHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/favorites", h.AuthMiddleware(h.ListFavoritesHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/users/{id}/follow", h.AuthMiddleware(h.ToggleFollowHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/users/{id}/followers", h.ListFollowersHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/users/{id}/following", h.ListFollowingHandler).Methods(http.MethodGet)

	// Comments
	router.HandleFunc("/api/songs/{id}/comments", h.AuthMiddleware(h.CreateCommentHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/songs/{id}/comments", h.ListCommentsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/{id}/comments/{comment_id}", h.AuthMiddleware(h.DeleteCommentHandler)).Methods(http.MethodDelete)

	// Playlists
	router.HandleFunc("/api/playlists", h.AuthMiddleware(h.CreatePlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists", h.AuthMiddleware(h.ListPlaylistsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/{id}", h.GetPlaylistHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/{id}", h.AuthMiddleware(h.UpdatePlaylistHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/playlists/{id}", h.AuthMiddleware(h.DeletePlaylistHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/playlists/{id}/songs", h.AuthMiddleware(h.AddPlaylistSongHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id}/songs/{song_id}", h.AuthMiddleware(h.RemovePlaylistSongHandler)).Methods(http.MethodDelete)

	// Profiles
	router.HandleFunc("/api/users/{id}/profile", h.GetProfileHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/profile", h.AuthMiddleware(h.UpdateProfileHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/me/history", h.AuthMiddleware(h.HistoryHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/me/stats", h.AuthMiddleware(h.MyStatsHandler)).Methods(http.MethodGet)

	// Machine callbacks
	router.HandleFunc("/api/internal/generation/events", h.GenerationCallbackHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/webhooks/billing", h.BillingWebhookHandler).Methods(http.MethodPost)
}
