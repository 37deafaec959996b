package cache

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	c := New(log)
	t.Cleanup(c.Close)
	return c
}

// counter is a fetch func that returns how many times it has run.
type counter struct {
	calls atomic.Int32
}

func (f *counter) fetch(ctx context.Context) (any, error) {
	return int(f.calls.Add(1)), nil
}

func issueList(key string, f *counter, ids ...string) Endpoint {
	return Endpoint{
		Key:   key,
		Fetch: f.fetch,
		Provides: func(any) []Tag {
			tags := []Tag{General(TagIssue)}
			for _, id := range ids {
				tags = append(tags, Entity(TagIssue, id))
			}
			return tags
		},
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestKey_Canonical(t *testing.T) {
	a := url.Values{"status": {"pending"}, "page": {"1"}}
	b := url.Values{"page": {"1"}, "status": {"pending"}}
	if Key("issues", a) != Key("issues", b) {
		t.Errorf("keys differ: %q vs %q", Key("issues", a), Key("issues", b))
	}
	if Key("me", nil) != "me" {
		t.Errorf("Key(me, nil) = %q", Key("me", nil))
	}
}

func TestFetch_CachesUntilInvalidated(t *testing.T) {
	c := newTestCache(t)
	f := &counter{}
	ep := issueList("issues?page=1", f, "i1")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		r, err := c.Fetch(ctx, ep)
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if r.Data.(int) != 1 {
			t.Fatalf("Data = %v, want 1 (cached)", r.Data)
		}
	}

	c.Invalidate(General(TagIssue))
	r, err := c.Fetch(ctx, ep)
	if err != nil || r.Data.(int) != 2 {
		t.Fatalf("after invalidate: Data=%v err=%v, want 2", r.Data, err)
	}
}

func TestInvalidate_EntityTagIsSpecific(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	one, two, list := &counter{}, &counter{}, &counter{}

	epOne := Endpoint{Key: "issue/1", Fetch: one.fetch, Provides: func(any) []Tag { return []Tag{Entity(TagIssue, "1")} }}
	epTwo := Endpoint{Key: "issue/2", Fetch: two.fetch, Provides: func(any) []Tag { return []Tag{Entity(TagIssue, "2")} }}
	epList := Endpoint{Key: "issues", Fetch: list.fetch, Provides: func(any) []Tag { return []Tag{General(TagIssue)} }}
	for _, ep := range []Endpoint{epOne, epTwo, epList} {
		if _, err := c.Fetch(ctx, ep); err != nil {
			t.Fatalf("Fetch %s: %v", ep.Key, err)
		}
	}

	c.Invalidate(Entity(TagIssue, "1"))
	for _, ep := range []Endpoint{epOne, epTwo, epList} {
		if _, err := c.Fetch(ctx, ep); err != nil {
			t.Fatalf("Fetch %s: %v", ep.Key, err)
		}
	}
	if one.calls.Load() != 2 || two.calls.Load() != 1 || list.calls.Load() != 1 {
		t.Errorf("calls one/two/list = %d/%d/%d, want 2/1/1",
			one.calls.Load(), two.calls.Load(), list.calls.Load())
	}

	// A general tag reaches every entry that provided any Issue tag.
	c.Invalidate(General(TagIssue))
	for _, ep := range []Endpoint{epOne, epTwo, epList} {
		if _, err := c.Fetch(ctx, ep); err != nil {
			t.Fatalf("Fetch %s: %v", ep.Key, err)
		}
	}
	if one.calls.Load() != 3 || two.calls.Load() != 2 || list.calls.Load() != 2 {
		t.Errorf("calls one/two/list = %d/%d/%d, want 3/2/2",
			one.calls.Load(), two.calls.Load(), list.calls.Load())
	}
}

func TestInvalidate_OtherTypesUntouched(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	users := &counter{}
	ep := Endpoint{Key: "users", Fetch: users.fetch, Provides: func(any) []Tag { return []Tag{General(TagUser)} }}
	if _, err := c.Fetch(ctx, ep); err != nil {
		t.Fatal(err)
	}
	c.Invalidate(General(TagIssue), General(TagDepartment))
	if _, err := c.Fetch(ctx, ep); err != nil {
		t.Fatal(err)
	}
	if users.calls.Load() != 1 {
		t.Errorf("users refetched %d times", users.calls.Load())
	}
}

func TestSubscribe_RefetchesOnInvalidate(t *testing.T) {
	c := newTestCache(t)
	f := &counter{}
	ep := issueList("issues", f)

	var mu sync.Mutex
	var got []int
	unsubscribe := c.Subscribe(ep, func(r Result) {
		if r.IsLoading {
			return
		}
		mu.Lock()
		got = append(got, r.Data.(int))
		mu.Unlock()
	})

	waitFor(t, func() bool { mu.Lock(); defer mu.Unlock(); return len(got) == 1 })

	// No Query call: the live subscription alone drives the refetch.
	c.Invalidate(General(TagIssue))
	waitFor(t, func() bool { mu.Lock(); defer mu.Unlock(); return len(got) == 2 })

	mu.Lock()
	if got[0] != 1 || got[1] != 2 {
		t.Errorf("deliveries = %v, want [1 2]", got)
	}
	mu.Unlock()

	unsubscribe()
	c.Invalidate(General(TagIssue))
	time.Sleep(50 * time.Millisecond)
	if f.calls.Load() != 2 {
		t.Errorf("unsubscribed entry refetched eagerly: calls = %d", f.calls.Load())
	}
}

func TestMutate_InvalidatesOnlyOnSuccess(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	f := &counter{}
	ep := issueList("issues", f)
	if _, err := c.Fetch(ctx, ep); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err := c.Mutate(ctx, []Tag{General(TagIssue)}, func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("Mutate err = %v", err)
	}
	if _, err := c.Fetch(ctx, ep); err != nil {
		t.Fatal(err)
	}
	if f.calls.Load() != 1 {
		t.Fatalf("failed mutation invalidated: calls = %d", f.calls.Load())
	}

	if err := c.Mutate(ctx, []Tag{General(TagIssue)}, func(context.Context) error { return nil }); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Fetch(ctx, ep); err != nil {
		t.Fatal(err)
	}
	if f.calls.Load() != 2 {
		t.Fatalf("successful mutation did not invalidate: calls = %d", f.calls.Load())
	}
}

func TestFetch_ErrorKeepsLastData(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	fail := false
	var mu sync.Mutex
	ep := Endpoint{
		Key: "dashboard",
		Fetch: func(context.Context) (any, error) {
			mu.Lock()
			defer mu.Unlock()
			if fail {
				return nil, errors.New("server down")
			}
			return "stats", nil
		},
		Provides: func(any) []Tag { return []Tag{General(TagAnalytics)} },
	}
	if _, err := c.Fetch(ctx, ep); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	fail = true
	mu.Unlock()
	c.Refetch("dashboard")
	r, err := c.Fetch(ctx, ep)
	if err == nil {
		t.Fatal("expected error")
	}
	if r.Data != "stats" {
		t.Errorf("Data = %v, want last good value", r.Data)
	}

	// The failed entry is not retried behind the caller's back.
	r2 := c.Query(ep)
	if r2.IsLoading {
		t.Error("Query retried a failed entry without Refetch")
	}

	// The error path still provides tags, so invalidation reaches it.
	mu.Lock()
	fail = false
	mu.Unlock()
	c.Invalidate(General(TagAnalytics))
	r, err = c.Fetch(ctx, ep)
	if err != nil || r.Err != nil {
		t.Fatalf("after recovery: %v", err)
	}
}

func TestRefetch_SupersededResponseDropped(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	release := make(chan struct{})
	var calls atomic.Int32
	ep := Endpoint{
		Key: "issues?search=x",
		Fetch: func(fctx context.Context) (any, error) {
			n := calls.Add(1)
			if n == 1 {
				// The first request is slow and ignores cancellation, so
				// its response arrives after the second one.
				<-release
				return "stale", nil
			}
			return "fresh", nil
		},
	}

	c.Query(ep)
	waitFor(t, func() bool { return calls.Load() == 1 })
	c.Refetch(ep.Key)

	r, err := c.Fetch(ctx, ep)
	if err != nil || r.Data != "fresh" {
		t.Fatalf("Fetch = %v, %v; want fresh", r.Data, err)
	}

	close(release)
	time.Sleep(50 * time.Millisecond)
	if r, _ := c.Peek(ep.Key); r.Data != "fresh" {
		t.Errorf("late response overwrote fresher data: %v", r.Data)
	}
}

func TestFetch_ContextCancelled(t *testing.T) {
	c := newTestCache(t)
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	ep := Endpoint{Key: "slow", Fetch: func(context.Context) (any, error) { <-block; return nil, nil }}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.Fetch(ctx, ep); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestFetchAs(t *testing.T) {
	c := newTestCache(t)
	ep := Endpoint{Key: "n", Fetch: func(context.Context) (any, error) { return 42, nil }}
	n, err := FetchAs[int](context.Background(), c, ep)
	if err != nil || n != 42 {
		t.Fatalf("FetchAs[int] = %d, %v", n, err)
	}
	if _, err := FetchAs[string](context.Background(), c, ep); err == nil {
		t.Error("FetchAs[string] on int data should fail")
	}
}

func TestReset(t *testing.T) {
	c := newTestCache(t)
	f := &counter{}
	ep := issueList("issues", f)
	if _, err := c.Fetch(context.Background(), ep); err != nil {
		t.Fatal(err)
	}
	c.Reset()
	if _, ok := c.Peek("issues"); ok {
		t.Error("entry survived Reset")
	}
	if _, err := c.Fetch(context.Background(), ep); err != nil {
		t.Fatal(err)
	}
	if f.calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", f.calls.Load())
	}
}
