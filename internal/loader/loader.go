// Package loader resolves the answers of many questions with one backing
// store read per question type.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/exam-assembly-service/internal/cache"
	"github.com/SAP-F-2025/exam-assembly-service/internal/diagnostics"
	"github.com/SAP-F-2025/exam-assembly-service/internal/models"
	"github.com/SAP-F-2025/exam-assembly-service/internal/registry"
	"github.com/SAP-F-2025/exam-assembly-service/internal/repositories"
	"github.com/SAP-F-2025/exam-assembly-service/internal/taskgroup"
)

// StepPrefix prefixes the diagnostics step of every partition fetch.
const StepPrefix = "answers:"

// Config tunes the loader. Zero values fall back to the defaults.
type Config struct {
	// Timeout bounds each partition fetch separately
	Timeout time.Duration
	// TTL of the cached answer batches
	TTL time.Duration
	// MaxConcurrency bounds the partitions fetched at once, 0 means unbounded
	MaxConcurrency int
}

const DefaultTimeout = 5 * time.Second

// Result holds one answer set per input question id. Failed lists the
// partitions served with empty answers and why.
type Result struct {
	Answers map[string]models.AnswerSet
	Failed  map[models.QuestionType]error
}

// Degraded reports whether the question's answers come from a failed partition.
func (r *Result) Degraded(q models.Question) bool {
	_, failed := r.Failed[q.Type]
	return failed
}

type AnswerLoader struct {
	answers  repositories.AnswerRepository
	cache    cache.AssemblyCache
	registry *registry.Registry
	config   Config
	logger   *slog.Logger
}

// NewAnswerLoader creates a loader. answerCache may be nil to disable caching.
func NewAnswerLoader(answers repositories.AnswerRepository, answerCache cache.AssemblyCache, reg *registry.Registry, config Config, logger *slog.Logger) *AnswerLoader {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerLoader{
		answers:  answers,
		cache:    answerCache,
		registry: reg,
		config:   config,
		logger:   logger,
	}
}

type partition struct {
	spec registry.Spec
	ids  []string
}

type batch struct {
	answers map[string]models.AnswerSet
	cached  bool
}

// Load resolves the answers of every question. An unknown question type, or
// an id listed under two types, fails the call before any fetch; every other failure is confined to its
// partition and recorded in diag.
func (l *AnswerLoader) Load(ctx context.Context, questions []models.Question, diag *diagnostics.Collector) (*Result, error) {
	if diag == nil {
		diag = diagnostics.NewCollector(nil, nil)
	}

	partitions, err := l.partition(questions)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Answers: make(map[string]models.AnswerSet, len(questions)),
		Failed:  make(map[models.QuestionType]error),
	}
	if len(partitions) == 0 {
		return result, nil
	}

	group := taskgroup.New[batch](l.config.MaxConcurrency, l.config.Timeout)
	for _, p := range partitions {
		group.Go(ctx, StepPrefix+string(p.spec.Type), func(ctx context.Context) (batch, error) {
			return l.loadPartition(ctx, p)
		})
	}

	// Results come back in partition order
	for i, res := range group.Wait() {
		p := partitions[i]
		if res.Err != nil {
			err := l.wrapError(res.Name, p.spec.Type, res.Err)
			diag.AddStep(res.Name, res.Start, res.Duration, err)
			result.Failed[p.spec.Type] = err
			for _, id := range p.ids {
				result.Answers[id] = models.EmptySet(p.spec.Kind)
			}
			l.logger.WarnContext(ctx, "Answer partition failed",
				"question_type", p.spec.Type,
				"question_count", len(p.ids),
				"error", res.Err)
			continue
		}

		diag.AddStep(res.Name, res.Start, res.Duration, nil)
		for _, id := range p.ids {
			result.Answers[id] = res.Value.answers[id]
		}
		if !res.Value.cached && l.cache != nil {
			l.cache.PutAnswerBatch(ctx, p.spec.Type, p.ids, res.Value.answers, l.config.TTL)
		}
	}

	return result, nil
}

// LoadOne resolves the answers of a single question, sharing the batch cache.
func (l *AnswerLoader) LoadOne(ctx context.Context, questionID string, questionType models.QuestionType) (models.AnswerSet, error) {
	spec, err := l.registry.Lookup(questionType)
	if err != nil {
		return models.AnswerSet{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, l.config.Timeout)
	defer cancel()

	p := partition{spec: spec, ids: []string{questionID}}
	b, err := l.loadPartition(ctx, p)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		return models.EmptySet(spec.Kind), l.wrapError(StepPrefix+string(spec.Type), spec.Type, err)
	}
	if !b.cached && l.cache != nil {
		l.cache.PutAnswerBatch(ctx, spec.Type, p.ids, b.answers, l.config.TTL)
	}
	return b.answers[questionID], nil
}

// partition groups question ids by type, keeping first-seen order of both
// types and ids. Duplicate ids of the same type are folded; an id seen with
// two types is rejected.
func (l *AnswerLoader) partition(questions []models.Question) ([]partition, error) {
	index := make(map[models.QuestionType]int)
	seen := make(map[string]models.QuestionType, len(questions))
	var partitions []partition

	for _, q := range questions {
		spec, err := l.registry.Lookup(q.Type)
		if err != nil {
			return nil, fmt.Errorf("question %s: %w", q.ID, err)
		}
		if prev, ok := seen[q.ID]; ok {
			if prev != q.Type {
				return nil, fmt.Errorf("question %s is both %s and %s: %w", q.ID, prev, q.Type, ErrConflictingQuestionType)
			}
			continue
		}
		seen[q.ID] = q.Type

		i, ok := index[q.Type]
		if !ok {
			i = len(partitions)
			index[q.Type] = i
			partitions = append(partitions, partition{spec: spec})
		}
		partitions[i].ids = append(partitions[i].ids, q.ID)
	}
	return partitions, nil
}

func (l *AnswerLoader) loadPartition(ctx context.Context, p partition) (batch, error) {
	if l.cache != nil {
		if answers, ok := l.cache.GetAnswerBatch(ctx, p.spec.Type, p.ids); ok && covers(answers, p.ids) {
			return batch{answers: answers, cached: true}, nil
		}
	}

	rows, err := l.answers.GetRowsByQuestionIDs(ctx, p.spec.Relation, p.spec.OrderBy, p.ids)
	if err != nil {
		return batch{}, err
	}

	grouped := l.groupRows(ctx, rows)
	answers := make(map[string]models.AnswerSet, len(p.ids))
	for _, id := range p.ids {
		set, err := p.spec.Decode(grouped[id])
		if err != nil {
			return batch{}, fmt.Errorf("failed to decode answers of question %s: %w", id, err)
		}
		answers[id] = set
	}
	return batch{answers: answers}, nil
}

// groupRows buckets rows by question id in one pass, keeping their order.
func (l *AnswerLoader) groupRows(ctx context.Context, rows []models.AnswerRow) map[string][]models.AnswerRow {
	grouped := make(map[string][]models.AnswerRow)
	for _, row := range rows {
		id, err := registry.RowString(row, "question_id")
		if err != nil {
			l.logger.WarnContext(ctx, "Skipping answer row without question id", "error", err)
			continue
		}
		grouped[id] = append(grouped[id], row)
	}
	return grouped
}

func (l *AnswerLoader) wrapError(stage string, questionType models.QuestionType, err error) error {
	if repositories.IsTimeoutError(err) {
		return &TimeoutError{Stage: stage, Err: err}
	}
	return &AnswerPartitionError{Type: questionType, Err: err}
}

func covers(answers map[string]models.AnswerSet, ids []string) bool {
	for _, id := range ids {
		if _, ok := answers[id]; !ok {
			return false
		}
	}
	return true
}
