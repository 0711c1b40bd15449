package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/altura-advisory/retrieval/internal/chunker"
	"github.com/altura-advisory/retrieval/internal/config"
	"github.com/altura-advisory/retrieval/internal/db"
	dbRedis "github.com/altura-advisory/retrieval/internal/db/redis"
	"github.com/altura-advisory/retrieval/internal/domain"
	"github.com/altura-advisory/retrieval/internal/index"
	memIndex "github.com/altura-advisory/retrieval/internal/index/memory"
	redisIndex "github.com/altura-advisory/retrieval/internal/index/redis"
	logpkg "github.com/altura-advisory/retrieval/internal/logger"
	"github.com/altura-advisory/retrieval/internal/metrics"
	"github.com/altura-advisory/retrieval/internal/repository/embcache"
	chiTransport "github.com/altura-advisory/retrieval/internal/transport/chi"
	openaiTransport "github.com/altura-advisory/retrieval/internal/transport/openai"
	advisoruc "github.com/altura-advisory/retrieval/internal/usecase/advisor"
	healthuc "github.com/altura-advisory/retrieval/internal/usecase/health"
	ingestuc "github.com/altura-advisory/retrieval/internal/usecase/ingest"
	retrievaluc "github.com/altura-advisory/retrieval/internal/usecase/retrieval"
	tenantuc "github.com/altura-advisory/retrieval/internal/usecase/tenant"
	"github.com/altura-advisory/retrieval/internal/version"
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

	logger.Info("Starting retrieval API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("index_driver", cfg.Index.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	ctx := context.Background()

	// Create the chunk index based on driver
	var (
		idx   index.Index
		store *dbRedis.Store
	)
	switch cfg.Index.Driver {
	case "redis":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
			DB:       cfg.Database.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create database store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Database not ready", zap.Error(err))
		}
		logger.Info("Connected to database")

		rIdx := redisIndex.New(store, redisIndex.Config{
			KeyPrefix:       cfg.Storage.KeyPrefix,
			Dimensions:      cfg.Embedding.Dimensions,
			Algorithm:       db.VectorAlgorithm(strings.ToUpper(cfg.Index.Algorithm)),
			HNSWM:           cfg.Index.HNSWM,
			HNSWEFConstruct: cfg.Index.HNSWEFConstruct,
		})
		if err := rIdx.EnsureIndex(ctx); err != nil {
			logger.Fatal("Failed to ensure search index", zap.Error(err))
		}
		idx = rIdx
	case "memory":
		idx = memIndex.New(cfg.Embedding.Dimensions)
	default:
		logger.Fatal("Unknown index driver", zap.String("driver", cfg.Index.Driver))
	}

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRetrievalMetrics()

	// Build embedder chain — composition root
	docEmbedder := buildEmbedder(cfg, cfg.Embedding.DocumentInstruction, store, logger)
	queryEmbedder := buildEmbedder(cfg, cfg.Embedding.QueryInstruction, store, logger)
	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	ch, err := chunker.New(cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)
	if err != nil {
		logger.Fatal("Invalid chunker settings", zap.Error(err))
	}

	// Create use case services
	var baseMeta domain.Metadata
	baseMeta.Set("origin", "ingestion")

	ingestSvc := ingestuc.New(ch, docEmbedder, idx, cfg.Embedding.Dimensions, baseMeta, logger)
	retrievalSvc := retrievaluc.New(queryEmbedder, idx, retrievaluc.Defaults{
		TopK:            cfg.Retrieval.TopK,
		ScoreThreshold:  cfg.Retrieval.ScoreThreshold,
		MaxContextChars: cfg.Retrieval.MaxContextChars,
	}, logger)
	tenantSvc := tenantuc.New(idx, logger)

	// Health service. The store pinger is nil for the memory driver.
	var pinger healthuc.StorePinger
	if store != nil {
		pinger = store
	}
	healthSvc := healthuc.New(pinger, newEmbeddingHealthChecker(docEmbedder))

	// Advisory path is optional; without a completion model the
	// endpoint answers 501. Pass nil interface, not a typed nil pointer.
	var server *chiTransport.Server
	if cfg.Completion.Model != "" {
		completer := openaiTransport.NewCompleter(&openaiTransport.CompleterConfig{
			APIKey:      cfg.Completion.APIKey,
			BaseURL:     cfg.Completion.BaseURL,
			Model:       cfg.Completion.Model,
			Temperature: cfg.Completion.Temperature,
			MaxTokens:   cfg.Completion.MaxTokens,
			Logger:      logger,
		})
		advisorSvc := advisoruc.New(retrievalSvc, completer, logger)
		server = chiTransport.NewServer(ingestSvc, retrievalSvc, tenantSvc, advisorSvc, healthSvc, logger)
	} else {
		server = chiTransport.NewServer(ingestSvc, retrievalSvc, tenantSvc, nil, healthSvc, logger)
	}

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.RegisterRoutes(r)

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

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instruction
func buildEmbedder(
	cfg config.Config,
	instruction string,
	store *dbRedis.Store,
	logger *zap.Logger,
) domain.Embedder {
	// Base provider (with transport metrics built-in)
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	// Cached
	var embedder domain.Embedder = base
	if cfg.Embedding.CacheEnabled && store != nil {
		embedder = embcache.New(base, store, cfg.Storage.KeyPrefix+"emb_cache:", metrics.EmbeddingCacheTotal, logger)
	}

	// Instruction prefix (outermost — cache key includes instruction)
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}

	return embedder
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

			// Set X-Request-ID in response header
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
