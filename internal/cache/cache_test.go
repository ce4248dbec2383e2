package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/exam-assembly-service/internal/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMemoryStore_TTL(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore(clock)
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	got, err := store.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get() = %q, %v; want v, nil", got, err)
	}

	clock.Advance(59 * time.Second)
	if _, err := store.Get(ctx, "k"); err != nil {
		t.Fatalf("Get() before expiry error = %v", err)
	}

	clock.Advance(time.Second)
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrCacheNotFound) {
		t.Fatalf("Get() after expiry error = %v, want ErrCacheNotFound", err)
	}
	if store.Len() != 0 {
		t.Errorf("expired entry was not discarded, Len() = %d", store.Len())
	}
}

func TestMemoryStore_SetCopiesValue(t *testing.T) {
	store := NewMemoryStore(newFakeClock())
	ctx := context.Background()
	value := []byte("abc")
	_ = store.Set(ctx, "k", value, 0)
	value[0] = 'x'

	got, _ := store.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("Get() = %q, want abc", got)
	}
}

func TestMemoryStore_Sweep(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore(clock)
	ctx := context.Background()
	_ = store.Set(ctx, "short", []byte("1"), time.Second)
	_ = store.Set(ctx, "long", []byte("2"), time.Hour)
	_ = store.Set(ctx, "forever", []byte("3"), 0)

	clock.Advance(time.Minute)
	if removed := store.Sweep(); removed != 1 {
		t.Errorf("Sweep() removed %d, want 1", removed)
	}
	if store.Len() != 2 {
		t.Errorf("Len() = %d, want 2", store.Len())
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set(ctx, "shared", []byte("same"), time.Minute)
		}()
		go func() {
			defer wg.Done()
			if v, err := store.Get(ctx, "shared"); err == nil && string(v) != "same" {
				t.Errorf("Get() = %q", v)
			}
		}()
	}
	wg.Wait()
}

func TestNormalizeIDs(t *testing.T) {
	got := NormalizeIDs([]string{"q3", "q1", "q3", "q2"})
	want := []string{"q1", "q2", "q3"}
	if len(got) != len(want) {
		t.Fatalf("NormalizeIDs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("NormalizeIDs() = %v, want %v", got, want)
		}
	}
}

func TestAnswerBatchKey_OrderIndependent(t *testing.T) {
	a := Keys.AnswerBatchKey(models.SingleChoice, []string{"q1", "q2", "q3"})
	b := Keys.AnswerBatchKey(models.SingleChoice, []string{"q3", "q1", "q2"})
	if a != b {
		t.Errorf("keys differ for the same id set: %s vs %s", a, b)
	}
	if c := Keys.AnswerBatchKey(models.MultipleChoice, []string{"q1", "q2", "q3"}); c == a {
		t.Error("keys for different types must differ")
	}
	if d := Keys.AnswerBatchKey(models.SingleChoice, []string{"q1", "q2"}); d == a {
		t.Error("keys for different id sets must differ")
	}
}

func TestLayer_AnswerBatchRoundTrip(t *testing.T) {
	clock := newFakeClock()
	layer := NewLayer(NewMemoryStore(clock), discardLogger())
	ctx := context.Background()

	answers := map[string]models.AnswerSet{
		"q1": models.NewChoiceSet([]models.ChoiceOption{{ID: "1", Text: "a", Correct: true}}),
		"q2": models.NewChoiceSet([]models.ChoiceOption{{ID: "2", Text: "b"}}),
	}
	layer.PutAnswerBatch(ctx, models.SingleChoice, []string{"q2", "q1"}, answers, time.Minute)

	got, ok := layer.GetAnswerBatch(ctx, models.SingleChoice, []string{"q1", "q2"})
	if !ok {
		t.Fatal("GetAnswerBatch() missed for a permuted id set")
	}
	if got["q1"].Choices[0].Text != "a" || !got["q1"].Choices[0].Correct {
		t.Errorf("GetAnswerBatch() q1 = %+v", got["q1"])
	}

	// Mutating the result must not leak back into the cache
	got["q1"].Choices[0].Text = "mutated"
	again, _ := layer.GetAnswerBatch(ctx, models.SingleChoice, []string{"q1", "q2"})
	if again["q1"].Choices[0].Text != "a" {
		t.Error("cached value was mutated through a previous read")
	}

	clock.Advance(2 * time.Minute)
	if _, ok := layer.GetAnswerBatch(ctx, models.SingleChoice, []string{"q1", "q2"}); ok {
		t.Error("GetAnswerBatch() hit after TTL")
	}
}

func TestLayer_AssemblyDefaultTTL(t *testing.T) {
	clock := newFakeClock()
	layer := NewLayer(NewMemoryStore(clock), discardLogger())
	ctx := context.Background()

	assembly := &models.TestAssembly{Test: models.Test{ID: "t1", Title: "Algebra", TimeLimit: 600}}
	layer.PutAssembly(ctx, "t1", assembly, 0)

	got, ok := layer.GetAssembly(ctx, "t1")
	if !ok || got.Test.Title != "Algebra" {
		t.Fatalf("GetAssembly() = %+v, %v", got, ok)
	}

	clock.Advance(AssemblyCacheConfig.TTL)
	if _, ok := layer.GetAssembly(ctx, "t1"); ok {
		t.Error("GetAssembly() hit after the default TTL")
	}
}

func TestLayer_CorruptEntryIsMiss(t *testing.T) {
	store := NewMemoryStore(nil)
	layer := NewLayer(store, discardLogger())
	ctx := context.Background()
	_ = store.Set(ctx, AssemblyCacheConfig.Prefix+Keys.AssemblyKey("t1"), []byte("{not json"), time.Minute)

	if _, ok := layer.GetAssembly(ctx, "t1"); ok {
		t.Error("GetAssembly() returned a hit for an undecodable entry")
	}
	if store.Len() != 0 {
		t.Errorf("undecodable entry was kept, store has %d entries", store.Len())
	}
}

func TestLayer_CorruptRedisEntryIsDeleted(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	layer := NewLayer(NewRedisStore(client, "exam:"), discardLogger())
	key := "exam:" + AnswerBatchCacheConfig.Prefix + Keys.AnswerBatchKey(models.Matching, []string{"q3"})
	if err := mr.Set(key, "{not json"); err != nil {
		t.Fatal(err)
	}

	if _, ok := layer.GetAnswerBatch(context.Background(), models.Matching, []string{"q3"}); ok {
		t.Error("GetAnswerBatch() returned a hit for an undecodable entry")
	}
	if mr.Exists(key) {
		t.Error("undecodable entry was not deleted")
	}
}

func TestConnectStore(t *testing.T) {
	mr := miniredis.RunT(t)
	live := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer live.Close()
	dead := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	defer dead.Close()

	tests := []struct {
		name      string
		client    *redis.Client
		wantRedis bool
	}{
		{name: "no client", client: nil},
		{name: "redis reachable", client: live, wantRedis: true},
		{name: "redis unreachable", client: dead},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			store := ConnectStore(ctx, tt.client, "exam:", discardLogger())
			_, isRedis := store.(*RedisStore)
			_, isMemory := store.(*MemoryStore)
			if isRedis != tt.wantRedis || isMemory == tt.wantRedis {
				t.Fatalf("ConnectStore() = %T", store)
			}

			// The chosen store must serve the cache layer
			layer := NewLayer(store, discardLogger())
			layer.PutAssembly(ctx, "t1", &models.TestAssembly{Test: models.Test{ID: "t1"}}, time.Minute)
			if _, ok := layer.GetAssembly(ctx, "t1"); !ok {
				t.Error("GetAssembly() missed right after PutAssembly()")
			}
		})
	}
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisStore(client, "exam:")
	ctx := context.Background()

	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrCacheNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrCacheNotFound", err)
	}

	if err := store.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if !mr.Exists("exam:k") {
		t.Fatal("key was not written under the store prefix")
	}
	got, err := store.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get() = %q, %v", got, err)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrCacheNotFound) {
		t.Fatalf("Get() after TTL error = %v, want ErrCacheNotFound", err)
	}

	_ = store.Set(ctx, "a:1", []byte("1"), 0)
	_ = store.Set(ctx, "a:2", []byte("2"), 0)
	if err := store.Delete(ctx, "a:1", "a:2"); err != nil {
		t.Fatal(err)
	}
	if mr.Exists("exam:a:1") || mr.Exists("exam:a:2") {
		t.Error("Delete() left keys behind")
	}
}

func TestRedisStore_NilClient(t *testing.T) {
	store := NewRedisStore(nil, "exam:")
	ctx := context.Background()
	if err := store.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Errorf("Set() on nil client error = %v, want nil", err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("Get() on nil client error = %v, want ErrCacheNotAvailable", err)
	}
}

func TestLayer_RedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	layer := NewLayer(NewRedisStore(client, ""), discardLogger())
	ctx := context.Background()
	pairs := map[string]models.AnswerSet{
		"q3": models.NewMatchingSet([]models.MatchPair{{Left: "a", Right: "1"}, {Left: "b", Right: "2"}}),
	}
	layer.PutAnswerBatch(ctx, models.Matching, []string{"q3"}, pairs, time.Minute)

	got, ok := layer.GetAnswerBatch(ctx, models.Matching, []string{"q3"})
	if !ok || got["q3"].Len() != 2 || got["q3"].Kind != models.KindMatching {
		t.Fatalf("GetAnswerBatch() = %+v, %v", got, ok)
	}
}
