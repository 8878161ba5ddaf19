package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/parley-ai/recall/internal/config"
	"github.com/parley-ai/recall/internal/domain"
	"github.com/parley-ai/recall/internal/domain/search/request"
	logpkg "github.com/parley-ai/recall/internal/logger"
	"github.com/parley-ai/recall/internal/metrics"
	"github.com/parley-ai/recall/internal/store"
	storeMemory "github.com/parley-ai/recall/internal/store/memory"
	storeRedis "github.com/parley-ai/recall/internal/store/redis"
	chiTransport "github.com/parley-ai/recall/internal/transport/chi"
	openaiProvider "github.com/parley-ai/recall/internal/transport/openai"
	fragmentuc "github.com/parley-ai/recall/internal/usecase/fragment"
	healthuc "github.com/parley-ai/recall/internal/usecase/health"
	searchuc "github.com/parley-ai/recall/internal/usecase/search"
	speakeruc "github.com/parley-ai/recall/internal/usecase/speaker"
	"github.com/parley-ai/recall/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting recall API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("store_driver", cfg.Store.Driver),
		zap.Strings("store_addrs", cfg.Store.Addrs),
	)

	st, err := buildStore(cfg)
	if err != nil {
		logger.Fatal("Failed to create fragment store", zap.Error(err))
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.WaitForReady(ctx, time.Duration(cfg.Store.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Fragment store not ready", zap.Error(err))
	}
	logger.Info("Connected to fragment store")

	// Register metrics explicitly (no init())
	metrics.RegisterSearchMetrics()
	metrics.RegisterEmbeddingMetrics()

	// Optional server-side query embedding
	var embedder domain.Embedder
	var embedderHealth healthuc.ProviderChecker
	queryModelVersion := cfg.Engine.TextModelVersion
	if cfg.Embedding.Enabled {
		emb := openaiProvider.NewEmbedder(&openaiProvider.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   cfg.Embedding.Provider,
			Logger:     logger,
		})
		embedder = emb
		embedderHealth = emb
		if queryModelVersion == "" {
			queryModelVersion = emb.ModelVersion()
		}
		logger.Info("Query embedder created",
			zap.String("provider", cfg.Embedding.Provider),
			zap.String("model", cfg.Embedding.Model),
		)
	}

	// Use case services
	searchSvc := searchuc.New(st, queryModelVersion, logger)
	if cfg.Engine.Probes > 0 {
		searchSvc = searchSvc.WithProbes(cfg.Engine.Probes)
	}

	var rerankerHealth healthuc.ProviderChecker
	if cfg.Rerank.Enabled {
		rr := openaiProvider.NewReranker(&openaiProvider.Config{
			APIKey:   cfg.Rerank.APIKey,
			BaseURL:  cfg.Rerank.BaseURL,
			Model:    cfg.Rerank.Model,
			Provider: cfg.Rerank.Provider,
			Logger:   logger,
		})
		searchSvc = searchSvc.WithReranker(rr, cfg.Rerank.TopK,
			time.Duration(cfg.Rerank.TimeoutSec)*time.Second)
		rerankerHealth = rr
		logger.Info("Reranker created",
			zap.String("provider", cfg.Rerank.Provider),
			zap.String("model", cfg.Rerank.Model),
		)
	}

	speakerSvc := speakeruc.New(st, logger)
	if cfg.Engine.MatchThreshold > 0 {
		speakerSvc = speakerSvc.WithThreshold(cfg.Engine.MatchThreshold)
	}

	fragmentSvc := fragmentuc.New(st, embedder, logger)
	healthSvc := healthuc.New(st, embedderHealth, rerankerHealth)

	server := chiTransport.NewServer(fragmentSvc, searchSvc, speakerSvc, healthSvc, embedder, logger)
	if cfg.Engine.LexicalWeight > 0 || cfg.Engine.SemanticWeight > 0 {
		server = server.WithDefaultWeights(request.Weights{
			Lexical:  cfg.Engine.LexicalWeight,
			Semantic: cfg.Engine.SemanticWeight,
		})
	}

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildStore creates the fragment store for the configured driver.
func buildStore(cfg config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		return storeMemory.NewStore(storeMemory.Config{
			TextDimension:     cfg.Engine.TextDimension,
			VoiceDimension:    cfg.Engine.VoiceDimension,
			TextModelVersion:  cfg.Engine.TextModelVersion,
			VoiceModelVersion: cfg.Engine.VoiceModelVersion,
			Clusters:          cfg.Engine.Clusters,
			DefaultProbes:     cfg.Engine.Probes,
		}), nil
	case "redis":
		return storeRedis.NewStore(storeRedis.Config{
			Addrs:             cfg.Store.Addrs,
			Username:          cfg.Store.Username,
			Password:          cfg.Store.Password,
			DB:                cfg.Store.DB,
			KeyPrefix:         cfg.Store.KeyPrefix,
			TextDimension:     cfg.Engine.TextDimension,
			VoiceDimension:    cfg.Engine.VoiceDimension,
			TextModelVersion:  cfg.Engine.TextModelVersion,
			VoiceModelVersion: cfg.Engine.VoiceModelVersion,
			DefaultProbes:     cfg.Engine.Probes,
		})
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
