package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/SAP-F-2025/exam-assembly-service/internal/cache"
	"github.com/SAP-F-2025/exam-assembly-service/internal/diagnostics"
	"github.com/SAP-F-2025/exam-assembly-service/internal/events"
	"github.com/SAP-F-2025/exam-assembly-service/internal/fallback"
	"github.com/SAP-F-2025/exam-assembly-service/internal/loader"
	"github.com/SAP-F-2025/exam-assembly-service/internal/models"
	"github.com/SAP-F-2025/exam-assembly-service/internal/registry"
	"github.com/SAP-F-2025/exam-assembly-service/internal/repositories"
	"github.com/SAP-F-2025/exam-assembly-service/internal/taskgroup"
	"github.com/SAP-F-2025/exam-assembly-service/internal/validator"
)

// Diagnostics step names
const (
	stepCacheLookup      = "cache:lookup"
	stepCacheWrite       = "cache:write"
	stepMetadata         = "metadata"
	stepMetadataFallback = "metadata:fallback"
	stepQuestions        = "questions"
	stepQuestion         = "question"
)

type AssemblyConfig struct {
	// StoreTimeout bounds every backing store call separately
	StoreTimeout time.Duration
	// AssemblyTTL of cached whole assemblies, 0 uses the cache default
	AssemblyTTL time.Duration
	// Shuffle reorders questions per session
	Shuffle        bool
	PublishTimeout time.Duration
}

// AssemblyDeps are the collaborators of the assembly service. Cache,
// FallbackTests and Publisher are optional.
type AssemblyDeps struct {
	Repo          repositories.Repository
	FallbackTests repositories.TestRepository
	Cache         cache.AssemblyCache
	Loader        *loader.AnswerLoader
	Registry      *registry.Registry
	Publisher     events.EventPublisher
	Logger        *slog.Logger
	Validator     *validator.Validator
}

type assemblyService struct {
	repo          repositories.Repository
	fallbackTests repositories.TestRepository
	cache         cache.AssemblyCache
	loader        *loader.AnswerLoader
	registry      *registry.Registry
	publisher     events.EventPublisher
	logger        *slog.Logger
	validator     *validator.Validator
	config        AssemblyConfig

	flight     singleflight.Group
	publishing sync.WaitGroup
	now        func() time.Time
}

func NewAssemblyService(deps AssemblyDeps, config AssemblyConfig) AssemblyService {
	return newAssemblyService(deps, config)
}

func newAssemblyService(deps AssemblyDeps, config AssemblyConfig) *assemblyService {
	if config.StoreTimeout <= 0 {
		config.StoreTimeout = loader.DefaultTimeout
	}
	if config.PublishTimeout <= 0 {
		config.PublishTimeout = 5 * time.Second
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Registry == nil {
		deps.Registry = registry.Default()
	}
	return &assemblyService{
		repo:          deps.Repo,
		fallbackTests: deps.FallbackTests,
		cache:         deps.Cache,
		loader:        deps.Loader,
		registry:      deps.Registry,
		publisher:     deps.Publisher,
		logger:        deps.Logger,
		validator:     deps.Validator,
		config:        config,
		now:           time.Now,
	}
}

// ===== PUBLIC OPERATIONS =====

func (s *assemblyService) Assemble(ctx context.Context, testID string) (*AssemblyResult, error) {
	return s.assemble(ctx, testID, "", true)
}

func (s *assemblyService) AssembleSession(ctx context.Context, testID, sessionID string) (*AssemblyResult, error) {
	return s.assemble(ctx, testID, sessionID, true)
}

func (s *assemblyService) AssembleQuestionsOnly(ctx context.Context, testID, sessionID string) (*AssemblyResult, error) {
	return s.assemble(ctx, testID, sessionID, false)
}

// FetchAnswersForQuestion reads the stored question first so the answers are
// always resolved for its real type. An empty questionType means "use the
// stored one"; a stated type that differs from it is rejected.
func (s *assemblyService) FetchAnswersForQuestion(ctx context.Context, questionID string, questionType models.QuestionType) (models.AnswerSet, error) {
	if err := s.validator.Var("question_id", questionID, "required,entity_id"); err != nil {
		return models.AnswerSet{}, err
	}
	if questionType != "" {
		if _, err := s.registry.Lookup(questionType); err != nil {
			return models.AnswerSet{}, err
		}
	}

	question, err := s.lookupQuestion(ctx, questionID)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to read question",
			"question_id", questionID,
			"error", err)
		return models.AnswerSet{}, err
	}
	if questionType == "" {
		questionType = question.Type
	} else if question.Type != questionType {
		return models.AnswerSet{}, fmt.Errorf("question %s is %s, not %s: %w", questionID, question.Type, questionType, ErrQuestionTypeMismatch)
	}

	answers, err := s.loader.LoadOne(ctx, questionID, questionType)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to fetch answers for question",
			"question_id", questionID,
			"question_type", questionType,
			"error", err)
		return answers, err
	}
	return answers, nil
}

func (s *assemblyService) lookupQuestion(ctx context.Context, questionID string) (*models.Question, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	question, err := s.repo.Question().GetByID(ctx, questionID)
	if err == nil && question == nil {
		err = repositories.NotFound("question", questionID)
	}
	switch {
	case err == nil:
		return question, nil
	case repositories.IsNotFoundError(err):
		return nil, err
	default:
		return nil, stageError(stepQuestion, ErrQuestionUnavailable, err)
	}
}

// Ping checks the backing store and, when it supports it, the cache
func (s *assemblyService) Ping(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return err
	}
	if pinger, ok := s.cache.(interface{ Ping(context.Context) error }); ok {
		if err := pinger.Ping(ctx); err != nil {
			return fmt.Errorf("cache ping failed: %w", err)
		}
	}
	return nil
}

// waitForEvents blocks until in-flight event publishing has finished
func (s *assemblyService) waitForEvents() {
	s.publishing.Wait()
}

// ===== ASSEMBLY PIPELINE =====

type buildOutcome struct {
	assembly    *models.TestAssembly
	diagnostics diagnostics.Diagnostics
}

func (s *assemblyService) assemble(ctx context.Context, testID, sessionID string, withAnswers bool) (*AssemblyResult, error) {
	// An assemble runs to completion even if the caller goes away
	ctx = context.WithoutCancel(ctx)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	key := "questions:" + testID
	if withAnswers {
		key = "assembly:" + testID
	}
	v, err, shared := s.flight.Do(key, func() (interface{}, error) {
		return s.build(ctx, testID, withAnswers)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to assemble test", "test_id", testID, "error", err)
		return nil, err
	}
	outcome := v.(*buildOutcome)

	assembly := outcome.assembly.Clone()
	assembly.SessionID = sessionID
	assembly.RemainingTime = fallback.TimeLimitOrDefault(assembly.Test.TimeLimit)
	if s.config.Shuffle {
		shuffleQuestions(assembly.Questions, sessionID)
	}

	diag := outcome.diagnostics.Clone()
	diag.Shared = shared

	result := &AssemblyResult{Assembly: assembly, Diagnostics: diag}
	s.publishOutcome(ctx, result)

	s.logger.InfoContext(ctx, "Test assembled",
		"test_id", testID,
		"session_id", sessionID,
		"tier", diag.Tier,
		"cache_hit", diag.CacheHit,
		"shared", shared,
		"questions", len(assembly.Questions),
		"errors", len(diag.Errors),
		"duration_ms", diag.Duration.Milliseconds())

	return result, nil
}

// build produces the session-independent content of an assembly
func (s *assemblyService) build(ctx context.Context, testID string, withAnswers bool) (*buildOutcome, error) {
	diag := diagnostics.NewCollector(s.now, ClassifyError)

	if withAnswers && s.cache != nil {
		span := diag.StartStep(stepCacheLookup)
		cached, ok := s.cache.GetAssembly(ctx, testID)
		span.End(nil)
		if ok {
			diag.MarkCacheHit()
			return &buildOutcome{assembly: cached, diagnostics: diag.Snapshot()}, nil
		}
	}

	test, questions, questionsErr := s.fetchTestAndQuestions(ctx, testID, diag)
	if test == nil {
		diag.SetTier(diagnostics.TierDefault)
		assembly := fallback.DefaultAssembly(testID)
		return &buildOutcome{assembly: &assembly, diagnostics: diag.Snapshot()}, nil
	}
	if questionsErr != nil || len(questions) == 0 {
		if questionsErr == nil {
			diag.Warn("test %s has no questions", testID)
		}
		diag.SetTier(diagnostics.TierCannedQuestions)
		assembly := fallback.WithCannedQuestion(*test)
		return &buildOutcome{assembly: &assembly, diagnostics: diag.Snapshot()}, nil
	}

	questions = dedupeQuestions(questions, diag)
	assembled, err := s.resolveAnswers(ctx, questions, withAnswers, diag)
	if err != nil {
		return nil, err
	}

	assembly := &models.TestAssembly{
		Test:          *test,
		Questions:     assembled,
		RemainingTime: fallback.TimeLimitOrDefault(test.TimeLimit),
	}

	// Only fully successful assemblies are cached
	if withAnswers && s.cache != nil && !diag.Snapshot().HasErrors() {
		span := diag.StartStep(stepCacheWrite)
		s.cache.PutAssembly(ctx, testID, assembly, s.config.AssemblyTTL)
		span.End(nil)
	}

	return &buildOutcome{assembly: assembly, diagnostics: diag.Snapshot()}, nil
}

type fetched struct {
	test      *models.Test
	questions []models.Question
}

// fetchTestAndQuestions reads metadata and the question list concurrently.
// A nil test means every metadata source failed.
func (s *assemblyService) fetchTestAndQuestions(ctx context.Context, testID string, diag *diagnostics.Collector) (*models.Test, []models.Question, error) {
	group := taskgroup.New[fetched](0, s.config.StoreTimeout)
	group.Go(ctx, stepMetadata, func(ctx context.Context) (fetched, error) {
		test, err := s.repo.Test().GetByID(ctx, testID)
		if err == nil && test == nil {
			err = repositories.NotFound("test", testID)
		}
		return fetched{test: test}, err
	})
	group.Go(ctx, stepQuestions, func(ctx context.Context) (fetched, error) {
		questions, err := s.repo.Question().GetByTest(ctx, testID)
		return fetched{questions: questions}, err
	})
	results := group.Wait()
	meta, list := results[0], results[1]

	var test *models.Test
	if meta.Err != nil {
		diag.AddStep(meta.Name, meta.Start, meta.Duration, stageError(stepMetadata, ErrMetadataUnavailable, meta.Err))
		test = s.fallbackMetadata(ctx, testID, diag)
	} else {
		diag.AddStep(meta.Name, meta.Start, meta.Duration, nil)
		test = meta.Value.test
	}

	if list.Err != nil {
		err := stageError(stepQuestions, ErrQuestionListUnavailable, list.Err)
		diag.AddStep(list.Name, list.Start, list.Duration, err)
		return test, nil, err
	}
	diag.AddStep(list.Name, list.Start, list.Duration, nil)
	return test, list.Value.questions, nil
}

func (s *assemblyService) fallbackMetadata(ctx context.Context, testID string, diag *diagnostics.Collector) *models.Test {
	if s.fallbackTests == nil {
		diag.Warn("no fallback metadata reader configured")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	span := diag.StartStep(stepMetadataFallback)
	test, err := s.fallbackTests.GetByID(ctx, testID)
	if err == nil && test == nil {
		err = repositories.NotFound("test", testID)
	}
	if err != nil {
		span.End(stageError(stepMetadataFallback, ErrMetadataUnavailable, err))
		return nil
	}
	span.End(nil)
	diag.Warn("test metadata served by the fallback reader")
	return test
}

func (s *assemblyService) resolveAnswers(ctx context.Context, questions []models.Question, withAnswers bool, diag *diagnostics.Collector) ([]models.AssembledQuestion, error) {
	assembled := make([]models.AssembledQuestion, len(questions))

	if !withAnswers {
		for i, q := range questions {
			spec, err := s.registry.Lookup(q.Type)
			if err != nil {
				return nil, fmt.Errorf("question %s: %w", q.ID, err)
			}
			assembled[i] = models.AssembledQuestion{Question: q, Answers: models.EmptySet(spec.Kind)}
		}
		return assembled, nil
	}

	result, err := s.loader.Load(ctx, questions, diag)
	if err != nil {
		return nil, err
	}

	empty := 0
	for i, q := range questions {
		answers := result.Answers[q.ID]
		if answers.IsEmpty() {
			empty++
		}
		degraded := result.Degraded(q) || answers.IsEmpty()
		if !degraded && missingCorrectOption(q, answers) {
			diag.Warn("question %s has no correct option", q.ID)
		}
		assembled[i] = models.AssembledQuestion{
			Question: q,
			Answers:  answers,
			Degraded: degraded,
		}
	}
	if empty > 0 {
		diag.Warn("%d questions returned no answers", empty)
	}
	return assembled, nil
}

// ===== HELPERS =====

// dedupeQuestions keeps the first occurrence of every question id
func dedupeQuestions(questions []models.Question, diag *diagnostics.Collector) []models.Question {
	seen := make(map[string]bool, len(questions))
	out := questions[:0:0]
	for _, q := range questions {
		if seen[q.ID] {
			diag.Warn("question %s listed more than once, keeping its first position", q.ID)
			continue
		}
		seen[q.ID] = true
		out = append(out, q)
	}
	return out
}

// missingCorrectOption reports a choice question without any correct option.
// True/false questions are exempt.
func missingCorrectOption(q models.Question, answers models.AnswerSet) bool {
	if q.Type == models.TrueFalse || answers.Kind != models.KindChoice {
		return false
	}
	return answers.CorrectCount() == 0
}

// stageError tags a store failure with its taxonomy sentinel and, for
// deadline failures, the stage that timed out
func stageError(stage string, sentinel, err error) error {
	wrapped := fmt.Errorf("%w: %w", sentinel, err)
	if repositories.IsTimeoutError(err) {
		return &TimeoutError{Stage: stage, Err: wrapped}
	}
	return wrapped
}

// shuffleQuestions reorders questions in place, deterministically per session
func shuffleQuestions(questions []models.AssembledQuestion, sessionID string) {
	seed := xxhash.Sum64String(sessionID)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	rng.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
}

func (s *assemblyService) publishOutcome(ctx context.Context, result *AssemblyResult) {
	if s.publisher == nil {
		return
	}

	d := result.Diagnostics
	degraded := 0
	for _, q := range result.Assembly.Questions {
		if q.Degraded {
			degraded++
		}
	}
	data := events.AssemblyEventData{
		TestID:            result.Assembly.Test.ID,
		SessionID:         result.Assembly.SessionID,
		Tier:              string(d.Tier),
		QuestionCount:     len(result.Assembly.Questions),
		DegradedQuestions: degraded,
		CacheHit:          d.CacheHit,
		DurationMs:        d.Duration.Milliseconds(),
	}
	for _, e := range d.Errors {
		data.Errors = append(data.Errors, e.Error())
	}

	eventType := events.AssemblyCompleted
	if d.Tier != diagnostics.TierFull || d.HasErrors() {
		eventType = events.AssemblyDegraded
	}
	event := events.NewEvent(eventType, data)

	s.publishing.Add(1)
	go func() {
		defer s.publishing.Done()
		publishCtx, cancel := context.WithTimeout(ctx, s.config.PublishTimeout)
		defer cancel()
		if err := s.publisher.Publish(publishCtx, event); err != nil {
			s.logger.WarnContext(publishCtx, "Failed to publish assembly event", "event_type", eventType, "error", err)
		}
	}()
}
