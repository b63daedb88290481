package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*miniredis.Miniredis, *CacheManager) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, NewCacheManager(client)
}

func TestCacheHelper_SetGet(t *testing.T) {
	ctx := context.Background()
	mr, cm := newTestCache(t)

	type payload struct {
		Score  int    `json:"score"`
		Grade  string `json:"grade"`
		Passed bool   `json:"passed"`
	}

	t.Run("roundtrip through prefixed helper", func(t *testing.T) {
		in := payload{Score: 85, Grade: "B", Passed: true}
		if err := cm.Submission.Set(ctx, "user:u-1:latest", in, time.Minute); err != nil {
			t.Fatalf("unexpected set error: %v", err)
		}

		if !mr.Exists("submission:user:u-1:latest") {
			t.Fatal("expected key to be stored under submission: prefix")
		}

		var out payload
		if err := cm.Submission.Get(ctx, "user:u-1:latest", &out); err != nil {
			t.Fatalf("unexpected get error: %v", err)
		}
		if out != in {
			t.Errorf("expected %+v, got %+v", in, out)
		}
	})

	t.Run("miss returns ErrCacheNotFound", func(t *testing.T) {
		var out payload
		err := cm.Submission.Get(ctx, "user:nobody:latest", &out)
		if !errors.Is(err, ErrCacheNotFound) {
			t.Errorf("expected ErrCacheNotFound, got %v", err)
		}
	})

	t.Run("helpers do not see each other's keys", func(t *testing.T) {
		if err := cm.Stats.Set(ctx, "shared", payload{Score: 1}, time.Minute); err != nil {
			t.Fatalf("unexpected set error: %v", err)
		}

		var out payload
		err := cm.Question.Get(ctx, "shared", &out)
		if !errors.Is(err, ErrCacheNotFound) {
			t.Errorf("expected ErrCacheNotFound across prefixes, got %v", err)
		}
	})
}

func TestCacheHelper_DeleteExists(t *testing.T) {
	ctx := context.Background()
	_, cm := newTestCache(t)

	if err := cm.Question.Set(ctx, "id:7", map[string]string{"text": "q"}, time.Minute); err != nil {
		t.Fatalf("unexpected set error: %v", err)
	}

	exists, err := cm.Question.Exists(ctx, "id:7")
	if err != nil {
		t.Fatalf("unexpected exists error: %v", err)
	}
	if !exists {
		t.Fatal("expected key to exist after set")
	}

	if err := cm.Question.Delete(ctx, "id:7"); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}

	exists, err = cm.Question.Exists(ctx, "id:7")
	if err != nil {
		t.Fatalf("unexpected exists error: %v", err)
	}
	if exists {
		t.Error("expected key to be gone after delete")
	}
}

func TestCacheHelper_InvalidatePattern(t *testing.T) {
	ctx := context.Background()
	mr, cm := newTestCache(t)

	seed := map[string]string{
		"list:1:20":       "page1",
		"list:2:20":       "page2",
		"counts:sections": "counts",
	}
	for key, value := range seed {
		if err := cm.Question.SetString(ctx, key, value, time.Minute); err != nil {
			t.Fatalf("unexpected set error: %v", err)
		}
	}

	if err := cm.Question.InvalidatePattern(ctx, "list:*"); err != nil {
		t.Fatalf("unexpected invalidate error: %v", err)
	}

	if mr.Exists("question:list:1:20") || mr.Exists("question:list:2:20") {
		t.Error("expected list keys to be invalidated")
	}
	if !mr.Exists("question:counts:sections") {
		t.Error("expected counts key to survive list invalidation")
	}
}

func TestCacheManager_InvalidateQuestion(t *testing.T) {
	ctx := context.Background()
	mr, cm := newTestCache(t)

	keys := []string{"id:42", "list:1:20", "counts:sections"}
	for _, key := range keys {
		if err := cm.Question.SetString(ctx, key, "cached", time.Minute); err != nil {
			t.Fatalf("unexpected set error: %v", err)
		}
	}
	if err := cm.Submission.SetString(ctx, "user:u-1:latest", "cached", time.Minute); err != nil {
		t.Fatalf("unexpected set error: %v", err)
	}

	if err := cm.InvalidateQuestion(ctx, 42); err != nil {
		t.Fatalf("unexpected invalidate error: %v", err)
	}

	for _, key := range []string{"question:id:42", "question:list:1:20", "question:counts:sections"} {
		if mr.Exists(key) {
			t.Errorf("expected %s to be invalidated", key)
		}
	}
	if !mr.Exists("submission:user:u-1:latest") {
		t.Error("expected submission cache to be untouched")
	}
}

func TestCacheManager_InvalidateUserSubmissions(t *testing.T) {
	ctx := context.Background()
	mr, cm := newTestCache(t)

	if err := cm.Submission.SetString(ctx, "user:u-1:latest", "cached", time.Minute); err != nil {
		t.Fatalf("unexpected set error: %v", err)
	}
	if err := cm.Stats.SetString(ctx, "user:u-1:summary", "cached", time.Minute); err != nil {
		t.Fatalf("unexpected set error: %v", err)
	}
	if err := cm.Submission.SetString(ctx, "user:u-2:latest", "cached", time.Minute); err != nil {
		t.Fatalf("unexpected set error: %v", err)
	}

	if err := cm.InvalidateUserSubmissions(ctx, "u-1"); err != nil {
		t.Fatalf("unexpected invalidate error: %v", err)
	}

	if mr.Exists("submission:user:u-1:latest") {
		t.Error("expected user submission cache to be invalidated")
	}
	if mr.Exists("stats:user:u-1:summary") {
		t.Error("expected user stats cache to be invalidated")
	}
	if !mr.Exists("submission:user:u-2:latest") {
		t.Error("expected other users' caches to be untouched")
	}

	mr.Close()

	if err := cm.InvalidateUserSubmissions(ctx, "u-1"); err == nil {
		t.Error("expected an error once the cache server is unreachable")
	}
}

func TestCacheHelper_CacheOrExecute(t *testing.T) {
	ctx := context.Background()
	_, cm := newTestCache(t)

	t.Run("fetches on miss", func(t *testing.T) {
		calls := 0
		var out string
		err := cm.Fast.CacheOrExecute(ctx, "eligibility:u-1", &out, time.Minute, func() (interface{}, error) {
			calls++
			return "eligible", nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != "eligible" {
			t.Errorf("expected fetched value, got %q", out)
		}
		if calls != 1 {
			t.Errorf("expected one fetch call, got %d", calls)
		}
	})

	t.Run("serves from cache without fetching", func(t *testing.T) {
		if err := cm.Fast.Set(ctx, "eligibility:u-2", "cached", time.Minute); err != nil {
			t.Fatalf("unexpected set error: %v", err)
		}

		calls := 0
		var out string
		err := cm.Fast.CacheOrExecute(ctx, "eligibility:u-2", &out, time.Minute, func() (interface{}, error) {
			calls++
			return "fetched", nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != "cached" {
			t.Errorf("expected cached value, got %q", out)
		}
		if calls != 0 {
			t.Errorf("expected no fetch calls on cache hit, got %d", calls)
		}
	})

	t.Run("propagates fetch errors", func(t *testing.T) {
		fetchErr := errors.New("db down")
		var out string
		err := cm.Fast.CacheOrExecute(ctx, "eligibility:u-3", &out, time.Minute, func() (interface{}, error) {
			return nil, fetchErr
		})
		if !errors.Is(err, fetchErr) {
			t.Errorf("expected fetch error to propagate, got %v", err)
		}
	})
}

func TestCacheManager_NilClient(t *testing.T) {
	ctx := context.Background()
	cm := NewCacheManager(nil)

	var out string
	if err := cm.Submission.Get(ctx, "anything", &out); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("expected ErrCacheNotAvailable on get, got %v", err)
	}
	if err := cm.Submission.Set(ctx, "anything", "value", time.Minute); err != nil {
		t.Errorf("expected set to degrade gracefully, got %v", err)
	}
	if err := cm.Question.InvalidatePattern(ctx, "list:*"); err != nil {
		t.Errorf("expected invalidate to degrade gracefully, got %v", err)
	}
	if err := cm.HealthCheck(ctx); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("expected health check to report cache unavailable, got %v", err)
	}
}

func TestCacheManager_HealthCheck(t *testing.T) {
	ctx := context.Background()
	mr, cm := newTestCache(t)

	if err := cm.HealthCheck(ctx); err != nil {
		t.Fatalf("unexpected health check error: %v", err)
	}

	mr.Close()

	if err := cm.HealthCheck(ctx); err == nil {
		t.Error("expected health check to fail after server shutdown")
	}
}
