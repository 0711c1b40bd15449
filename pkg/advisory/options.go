package advisory

import (
	"context"

	"go.uber.org/zap"
)

// Embedder turns text into a fixed-length vector. Implementations must
// be deterministic for identical input.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type clientConfig struct {
	addrs    []string
	username string
	password string
	db       int

	keyPrefix       string
	dimensions      int
	useHNSW         bool
	hnswM           int
	hnswEFConstruct int

	chunkSize    int
	chunkOverlap int

	topK            int
	scoreThreshold  float64
	maxContextChars int

	embedder      Embedder
	openaiKey     string
	openaiBaseURL string
	openaiModel   string

	logger *zap.Logger
}

// Option configures the client.
type Option func(*clientConfig)

// WithRedis stores chunks in a Redis 8+ search index instead of the
// in-memory one.
func WithRedis(addrs []string, password string) Option {
	return func(c *clientConfig) {
		c.addrs = addrs
		c.password = password
	}
}

// WithRedisAuth sets the username and logical database for Redis.
func WithRedisAuth(username string, db int) Option {
	return func(c *clientConfig) {
		c.username = username
		c.db = db
	}
}

// WithKeyPrefix namespaces all Redis keys (default "retrieval:").
func WithKeyPrefix(prefix string) Option {
	return func(c *clientConfig) { c.keyPrefix = prefix }
}

// WithHNSW switches the Redis vector index to the approximate HNSW
// algorithm. Zero values keep the engine defaults.
func WithHNSW(m, efConstruct int) Option {
	return func(c *clientConfig) {
		c.useHNSW = true
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	}
}

// WithOpenAI embeds via an OpenAI-compatible API.
func WithOpenAI(apiKey, model string, dimensions int) Option {
	return func(c *clientConfig) {
		c.openaiKey = apiKey
		c.openaiModel = model
		c.dimensions = dimensions
	}
}

// WithOpenAIBaseURL points the embedding client at a compatible
// endpoint other than api.openai.com.
func WithOpenAIBaseURL(url string) Option {
	return func(c *clientConfig) { c.openaiBaseURL = url }
}

// WithEmbedder supplies a custom embedding implementation. dimensions
// may be zero to disable dimension checks.
func WithEmbedder(e Embedder, dimensions int) Option {
	return func(c *clientConfig) {
		c.embedder = e
		c.dimensions = dimensions
	}
}

// WithChunking overrides the chunk window (default 1000 runes with 200
// runes of overlap).
func WithChunking(size, overlap int) Option {
	return func(c *clientConfig) {
		c.chunkSize = size
		c.chunkOverlap = overlap
	}
}

// WithRetrievalDefaults overrides the per-call retrieval defaults
// (top_k 5, score threshold 0.7, context budget 4000 chars).
func WithRetrievalDefaults(topK int, scoreThreshold float64, maxContextChars int) Option {
	return func(c *clientConfig) {
		c.topK = topK
		c.scoreThreshold = scoreThreshold
		c.maxContextChars = maxContextChars
	}
}

// WithLogger attaches a zap logger. Default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = logger }
}
