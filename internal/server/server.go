package server

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/voxai/apiserver/config"
	"github.com/voxai/apiserver/internal/db"
	"github.com/voxai/apiserver/internal/gateway"
	"github.com/voxai/apiserver/internal/handlers"
	"github.com/voxai/apiserver/internal/mq"
	"github.com/voxai/apiserver/internal/services"
	"github.com/voxai/apiserver/internal/storage"
	"github.com/voxai/apiserver/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	usage      *mq.UsageRecorder
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.JWTSecretIsDefault {
		log.Println("WARNING: JWT_SECRET is not set; using the built-in development secret, which is unsafe for production")
	}

	blobStorage, err := newStorage(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	usage, err := newUsageRecorder(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	assistantRepo := store.NewAssistantRepository(dbConn)
	recordingRepo := store.NewRecordingRepository(dbConn)
	phoneNumberRepo := store.NewPhoneNumberRepository(dbConn)

	// A typed nil *storage.Storage must not become a non-nil interface.
	var blob services.BlobStorage
	if blobStorage != nil {
		blob = blobStorage
	}

	userService := services.NewUserService(userRepo)
	assistantService := services.NewAssistantService(assistantRepo)
	recordingService := services.NewRecordingService(recordingRepo, blob)
	phoneNumberService := services.NewPhoneNumberService(phoneNumberRepo)

	gatewayClient := gateway.NewClient(cfg.Gateway)
	authMiddleware := handlers.RequireAuth(cfg.JWTSecret)

	recordingHandler := handlers.NewRecordingHandler(recordingService, assistantService)
	voiceChatHandler := handlers.NewVoiceChatHandler(gatewayClient, usage, cfg.Gateway.Model)
	publicHandler := handlers.NewPublicHandler(userService, assistantService, gatewayClient, usage, cfg.Gateway.Model)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
		corsAllowAll,
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, userService, cfg.JWTSecret)
	})
	router.Route("/assistants", func(r chi.Router) {
		handlers.AssistantRouter(r, assistantService, recordingHandler, authMiddleware)
	})
	router.Route("/recordings", func(r chi.Router) {
		handlers.RecordingRouter(r, recordingHandler, authMiddleware)
	})
	router.Route("/phone-numbers", func(r chi.Router) {
		handlers.PhoneNumberRouter(r, phoneNumberService, authMiddleware)
	})
	router.Route("/voice-chat", func(r chi.Router) {
		handlers.VoiceChatRouter(r, voiceChatHandler, authMiddleware)
	})
	router.Route("/public", func(r chi.Router) {
		handlers.PublicRouter(r, publicHandler)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		usage:      usage,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.usage != nil {
		_ = s.usage.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}

// newStorage selects the recording-storage backend. BackendNone leaves
// recordings disabled.
func newStorage(ctx context.Context, cfg config.Config) (*storage.Storage, error) {
	switch cfg.StorageBackend {
	case config.BackendMinio:
		client, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		wrapped := storage.NewStorage(client)
		if err := wrapped.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return wrapped, nil
	case config.BackendGCS:
		client, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		wrapped := storage.NewStorage(client)
		if err := wrapped.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return wrapped, nil
	case config.BackendNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// newUsageRecorder selects the usage-event broker. BackendNone drops
// events.
func newUsageRecorder(ctx context.Context, cfg config.Config) (*mq.UsageRecorder, error) {
	switch cfg.MQBackend {
	case config.BackendRabbitMQ:
		client, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return mq.NewUsageRecorder(client), nil
	case config.BackendPubSub:
		client, err := mq.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return mq.NewUsageRecorder(client), nil
	case config.BackendNone, "":
		return mq.NewUsageRecorder(nil), nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.MQBackend)
	}
}

// corsAllowAll mirrors the permissive CORS policy of the original
// deployment: the widget embeds on arbitrary origins.
func corsAllowAll(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-VoxAI-API-Key")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
