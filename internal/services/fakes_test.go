package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/SAP-F-2025/exam-assembly-service/internal/cache"
	"github.com/SAP-F-2025/exam-assembly-service/internal/events"
	"github.com/SAP-F-2025/exam-assembly-service/internal/loader"
	"github.com/SAP-F-2025/exam-assembly-service/internal/models"
	"github.com/SAP-F-2025/exam-assembly-service/internal/registry"
	"github.com/SAP-F-2025/exam-assembly-service/internal/repositories"
	"github.com/SAP-F-2025/exam-assembly-service/internal/validator"
)

// ===== FAKE REPOSITORIES =====

type fakeTests struct {
	mu    sync.Mutex
	tests map[string]*models.Test
	err   error
	block bool
	calls int
}

func (f *fakeTests) GetByID(ctx context.Context, id string) (*models.Test, error) {
	f.mu.Lock()
	f.calls++
	err, block := f.err, f.block
	test, ok := f.tests[id]
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repositories.NotFound("test", id)
	}
	clone := *test
	return &clone, nil
}

type fakeQuestions struct {
	mu     sync.Mutex
	byTest map[string][]models.Question
	err    error
	gate   chan struct{}
	calls  int
}

func (f *fakeQuestions) GetByTest(ctx context.Context, testID string) ([]models.Question, error) {
	f.mu.Lock()
	f.calls++
	err, gate := f.err, f.gate
	questions := append([]models.Question(nil), f.byTest[testID]...)
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (f *fakeQuestions) GetByID(ctx context.Context, id string) (*models.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, questions := range f.byTest {
		for _, q := range questions {
			if q.ID == id {
				clone := q
				return &clone, nil
			}
		}
	}
	return nil, repositories.NotFound("question", id)
}

func (f *fakeQuestions) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeAnswers struct {
	mu    sync.Mutex
	rows  map[string][]models.AnswerRow
	fail  map[string]error
	calls map[string]int
}

func (f *fakeAnswers) GetRowsByQuestionIDs(ctx context.Context, relation string, orderBy string, questionIDs []string) ([]models.AnswerRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[relation]++
	if err := f.fail[relation]; err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(questionIDs))
	for _, id := range questionIDs {
		wanted[id] = true
	}
	var out []models.AnswerRow
	for _, row := range f.rows[relation] {
		if wanted[row["question_id"].(string)] {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeAnswers) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *fakeAnswers) add(relation string, row models.AnswerRow) {
	row["id"] = int64(len(f.rows[relation]) + 1)
	f.rows[relation] = append(f.rows[relation], row)
}

type fakeRepo struct {
	tests     *fakeTests
	questions *fakeQuestions
	answers   *fakeAnswers
}

func (r *fakeRepo) Test() repositories.TestRepository         { return r.tests }
func (r *fakeRepo) Question() repositories.QuestionRepository { return r.questions }
func (r *fakeRepo) Answer() repositories.AnswerRepository     { return r.answers }
func (r *fakeRepo) Ping(ctx context.Context) error            { return nil }
func (r *fakeRepo) Close() error                              { return nil }

type fakeRepoManager struct {
	repo     *fakeRepo
	fallback repositories.TestRepository
	shutdown bool
}

func (m *fakeRepoManager) Initialize() error                          { return nil }
func (m *fakeRepoManager) GetRepository() repositories.Repository     { return m.repo }
func (m *fakeRepoManager) FallbackTests() repositories.TestRepository { return m.fallback }
func (m *fakeRepoManager) HealthCheck(ctx context.Context) error      { return nil }

func (m *fakeRepoManager) Shutdown(ctx context.Context) error {
	m.shutdown = true
	return nil
}

// ===== FIXTURES =====

// newScenarioRepo holds test t1 with two single-choice questions and one
// matching question of three pairs
func newScenarioRepo() *fakeRepo {
	repo := &fakeRepo{
		tests: &fakeTests{tests: map[string]*models.Test{
			"t1": {ID: "t1", Title: "Geography", TimeLimit: 600, IsActive: true},
		}},
		questions: &fakeQuestions{byTest: map[string][]models.Question{
			"t1": {
				{ID: "Q1", Text: "Capital of France?", Type: models.SingleChoice, Position: 1},
				{ID: "Q2", Text: "Capital of Spain?", Type: models.SingleChoice, Position: 2},
				{ID: "Q3", Text: "Match the capitals", Type: models.Matching, Position: 3},
			},
		}},
		answers: &fakeAnswers{
			rows:  make(map[string][]models.AnswerRow),
			fail:  make(map[string]error),
			calls: make(map[string]int),
		},
	}

	a := repo.answers
	a.add("answer_options", models.AnswerRow{"question_id": "Q1", "text": "Paris", "is_correct": true, "position": int64(1)})
	a.add("answer_options", models.AnswerRow{"question_id": "Q1", "text": "Lyon", "is_correct": false, "position": int64(2)})
	a.add("answer_options", models.AnswerRow{"question_id": "Q2", "text": "Madrid", "is_correct": true, "position": int64(1)})
	a.add("answer_options", models.AnswerRow{"question_id": "Q2", "text": "Porto", "is_correct": false, "position": int64(2)})
	a.add("matching_pairs", models.AnswerRow{"question_id": "Q3", "left_text": "France", "right_text": "Paris"})
	a.add("matching_pairs", models.AnswerRow{"question_id": "Q3", "left_text": "Spain", "right_text": "Madrid"})
	a.add("matching_pairs", models.AnswerRow{"question_id": "Q3", "left_text": "Italy", "right_text": "Rome"})
	return repo
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type harness struct {
	repo      *fakeRepo
	fallback  *fakeTests
	store     *cache.MemoryStore
	publisher *events.MockEventPublisher
	svc       *assemblyService
}

type harnessOption func(*harnessConfig)

type harnessConfig struct {
	withCache    bool
	withFallback bool
	config       AssemblyConfig
}

func withoutCache() harnessOption { return func(c *harnessConfig) { c.withCache = false } }

func withFallback() harnessOption { return func(c *harnessConfig) { c.withFallback = true } }

func withConfig(config AssemblyConfig) harnessOption {
	return func(c *harnessConfig) { c.config = config }
}

func newHarness(t *testing.T, repo *fakeRepo, opts ...harnessOption) *harness {
	t.Helper()
	hc := harnessConfig{withCache: true, config: AssemblyConfig{StoreTimeout: 500 * time.Millisecond}}
	for _, opt := range opts {
		opt(&hc)
	}

	h := &harness{repo: repo, publisher: events.NewMockEventPublisher(nil)}
	logger := discardLogger()

	var assemblyCache cache.AssemblyCache
	if hc.withCache {
		h.store = cache.NewMemoryStore(cache.SystemClock)
		assemblyCache = cache.NewLayer(h.store, logger)
	}

	deps := AssemblyDeps{
		Repo:      repo,
		Cache:     assemblyCache,
		Registry:  registry.Default(),
		Publisher: h.publisher,
		Logger:    logger,
		Validator: validator.New(),
	}
	if hc.withFallback {
		h.fallback = &fakeTests{tests: map[string]*models.Test{}}
		for id, test := range repo.tests.tests {
			h.fallback.tests[id] = test
		}
		deps.FallbackTests = h.fallback
	}
	deps.Loader = loader.NewAnswerLoader(repo.answers, assemblyCache, deps.Registry, loader.Config{Timeout: hc.config.StoreTimeout}, logger)

	h.svc = newAssemblyService(deps, hc.config)
	return h
}
