package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/exam-assembly-service/internal/models"
)

// CacheConfig defines TTL and key prefix for one cache scope
type CacheConfig struct {
	TTL    time.Duration
	Prefix string
}

var (
	// Whole assemblies, keyed by test id
	AssemblyCacheConfig = CacheConfig{
		TTL:    5 * time.Minute,
		Prefix: "assembly:",
	}

	// Per-type answer batches, keyed by the question id set
	AnswerBatchCacheConfig = CacheConfig{
		TTL:    10 * time.Minute,
		Prefix: "answers:",
	}
)

// AssemblyCache is the contract the assembler and the answer loader depend on.
// Lookups report a miss on any backend failure.
type AssemblyCache interface {
	GetAssembly(ctx context.Context, testID string) (*models.TestAssembly, bool)
	PutAssembly(ctx context.Context, testID string, assembly *models.TestAssembly, ttl time.Duration)
	GetAnswerBatch(ctx context.Context, questionType models.QuestionType, questionIDs []string) (map[string]models.AnswerSet, bool)
	PutAnswerBatch(ctx context.Context, questionType models.QuestionType, questionIDs []string, answers map[string]models.AnswerSet, ttl time.Duration)
}

// Layer implements AssemblyCache over a Store. Values are JSON encoded, so
// every read decodes a fresh copy and cached data cannot be mutated by callers.
type Layer struct {
	store       Store
	logger      *slog.Logger
	assemblyCfg CacheConfig
	answerCfg   CacheConfig
}

// NewLayer creates a cache layer with the default scope configs
func NewLayer(store Store, logger *slog.Logger) *Layer {
	return NewLayerWithConfig(store, logger, AssemblyCacheConfig, AnswerBatchCacheConfig)
}

func NewLayerWithConfig(store Store, logger *slog.Logger, assemblyCfg, answerCfg CacheConfig) *Layer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Layer{
		store:       store,
		logger:      logger,
		assemblyCfg: assemblyCfg,
		answerCfg:   answerCfg,
	}
}

// ===== WHOLE ASSEMBLY =====

func (l *Layer) GetAssembly(ctx context.Context, testID string) (*models.TestAssembly, bool) {
	key := l.assemblyCfg.Prefix + Keys.AssemblyKey(testID)
	var assembly models.TestAssembly
	if !l.get(ctx, "assembly", key, &assembly) {
		return nil, false
	}
	return &assembly, true
}

func (l *Layer) PutAssembly(ctx context.Context, testID string, assembly *models.TestAssembly, ttl time.Duration) {
	key := l.assemblyCfg.Prefix + Keys.AssemblyKey(testID)
	l.set(ctx, "assembly", key, assembly, l.ttlOr(ttl, l.assemblyCfg))
}

// ===== ANSWER BATCHES =====

func (l *Layer) GetAnswerBatch(ctx context.Context, questionType models.QuestionType, questionIDs []string) (map[string]models.AnswerSet, bool) {
	key := l.answerCfg.Prefix + Keys.AnswerBatchKey(questionType, questionIDs)
	var answers map[string]models.AnswerSet
	if !l.get(ctx, "answers", key, &answers) {
		return nil, false
	}
	return answers, true
}

func (l *Layer) PutAnswerBatch(ctx context.Context, questionType models.QuestionType, questionIDs []string, answers map[string]models.AnswerSet, ttl time.Duration) {
	key := l.answerCfg.Prefix + Keys.AnswerBatchKey(questionType, questionIDs)
	l.set(ctx, "answers", key, answers, l.ttlOr(ttl, l.answerCfg))
}

// Ping reports backend health
func (l *Layer) Ping(ctx context.Context) error {
	return l.store.Ping(ctx)
}

func (l *Layer) get(ctx context.Context, scope, key string, dest interface{}) bool {
	data, err := l.store.Get(ctx, key)
	if err != nil {
		logGetError(ctx, l.logger, scope, key, err)
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		l.logger.WarnContext(ctx, "Cache unmarshal error, treating as miss", "error", err, "scope", scope, "key", key)
		// Drop the entry so the next write replaces it
		if err := l.store.Delete(ctx, key); err != nil {
			logSetError(ctx, l.logger, scope, key, err)
		}
		return false
	}
	return true
}

func (l *Layer) set(ctx context.Context, scope, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		logSetError(ctx, l.logger, scope, key, err)
		return
	}
	logSetError(ctx, l.logger, scope, key, l.store.Set(ctx, key, data, ttl))
}

func (l *Layer) ttlOr(ttl time.Duration, cfg CacheConfig) time.Duration {
	if ttl > 0 {
		return ttl
	}
	return cfg.TTL
}
