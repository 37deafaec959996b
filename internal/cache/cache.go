// Package cache is a query cache keyed by endpoint and parameters. Reads
// declare the tags they provide, writes declare the tags they invalidate,
// and invalidated reads with live subscribers refetch on their own.
package cache

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// TagType is a read category such as all issues or all users.
type TagType string

const (
	TagIssue      TagType = "Issue"
	TagUser       TagType = "User"
	TagDepartment TagType = "Department"
	TagAnalytics  TagType = "Analytics"
	TagLocation   TagType = "Location"
)

// Tag names a read category, optionally narrowed to one entity. A Tag with
// an empty ID is general.
type Tag struct {
	Type TagType
	ID   string
}

// General returns the id-less tag for t.
func General(t TagType) Tag {
	return Tag{Type: t}
}

// Entity returns the tag for one entity of type t.
func Entity(t TagType, id string) Tag {
	return Tag{Type: t, ID: id}
}

// Key builds a canonical query key from an endpoint name and its params.
func Key(endpoint string, params url.Values) string {
	if len(params) == 0 {
		return endpoint
	}
	return endpoint + "?" + params.Encode()
}

// Result is a snapshot of one query.
type Result struct {
	// Data is the last successful response. It survives a failed refetch.
	Data any

	// Err is the error of the most recent fetch, nil after a success.
	Err error

	IsLoading bool
	FetchedAt time.Time
}

// Endpoint describes how to load one query key.
type Endpoint struct {
	Key   string
	Fetch func(ctx context.Context) (any, error)

	// Provides returns the tags a response satisfies. It is called with nil
	// when the fetch failed.
	Provides func(data any) []Tag
}

type entry struct {
	endpoint  Endpoint
	result    Result
	tags      []Tag
	stale     bool
	attempted bool

	subs    map[int]func(Result)
	nextSub int

	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// Cache maps query keys to their latest results.
type Cache struct {
	log logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	entries map[string]*entry
	index   map[Tag]map[string]struct{}

	queue *deliveryQueue
}

// New returns an empty cache. Fetches run under a context that Close
// cancels.
func New(log logrus.FieldLogger) *Cache {
	if log == nil {
		log = logrus.StandardLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		log:     log.WithField("component", "cache"),
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]*entry),
		index:   make(map[Tag]map[string]struct{}),
		queue:   newDeliveryQueue(),
	}
}

// Close cancels every in-flight fetch and stops delivering results.
func (c *Cache) Close() {
	c.cancel()
	c.queue.close()
}

// Query returns the current result for ep and starts a fetch when the key
// has never been requested or has been invalidated. A failed fetch is not
// retried until Refetch or an invalidation.
func (c *Cache) Query(ep Endpoint) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryLocked(ep)
	c.ensureLocked(e)
	return e.result
}

// Fetch is Query that waits for the fetch it starts or joins. A cached,
// fresh result is returned without a round-trip.
func (c *Cache) Fetch(ctx context.Context, ep Endpoint) (Result, error) {
	c.mu.Lock()
	e := c.entryLocked(ep)
	c.ensureLocked(e)
	c.mu.Unlock()

	// A superseded fetch closes its own channel; keep waiting on whichever
	// fetch is current until the entry settles.
	for {
		c.mu.Lock()
		r, done := e.result, e.done
		c.mu.Unlock()
		if !r.IsLoading {
			return r, r.Err
		}
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-done:
		}
	}
}

// Refetch starts a new fetch for key regardless of freshness, superseding
// any fetch already in flight. Unknown keys are ignored.
func (c *Cache) Refetch(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		c.startLocked(e)
	}
}

// Peek returns the current result for key without triggering a fetch.
func (c *Cache) Peek(key string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Result{}, false
	}
	return e.result, true
}

// Subscribe registers fn to receive every result delivered for ep's key and
// ensures the key is loaded. The returned func unsubscribes.
func (c *Cache) Subscribe(ep Endpoint, fn func(Result)) (unsubscribe func()) {
	c.mu.Lock()
	e := c.entryLocked(ep)
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	c.ensureLocked(e)
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(e.subs, id)
	}
}

// Invalidate marks every entry providing any of tags as stale. A general tag
// matches all entries that provided a tag of that type; an entity tag
// matches only entries that provided that exact tag. Stale entries with
// subscribers refetch immediately, the rest on their next Query.
func (c *Cache) Invalidate(tags ...Tag) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make(map[string]struct{})
	for _, t := range tags {
		if t.ID == "" {
			for provided, ks := range c.index {
				if provided.Type == t.Type {
					for k := range ks {
						keys[k] = struct{}{}
					}
				}
			}
			continue
		}
		for k := range c.index[t] {
			keys[k] = struct{}{}
		}
	}

	for k := range keys {
		e := c.entries[k]
		e.stale = true
		if len(e.subs) > 0 {
			c.startLocked(e)
		}
	}
	if len(keys) > 0 {
		c.log.WithFields(logrus.Fields{"tags": tags, "entries": len(keys)}).Debug("invalidated")
	}
}

// Mutate runs a write and, when it succeeds, invalidates the given tags.
func (c *Cache) Mutate(ctx context.Context, invalidates []Tag, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	c.Invalidate(invalidates...)
	return nil
}

// Reset drops every entry and cancels their fetches, as on logout.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.cancel != nil {
			e.cancel()
			e.cancel = nil
		}
		if e.result.IsLoading {
			e.result.IsLoading = false
			e.result.Err = context.Canceled
		}
	}
	c.entries = make(map[string]*entry)
	c.index = make(map[Tag]map[string]struct{})
}

func (c *Cache) entryLocked(ep Endpoint) *entry {
	e, ok := c.entries[ep.Key]
	if !ok {
		e = &entry{endpoint: ep, subs: make(map[int]func(Result))}
		c.entries[ep.Key] = e
		return e
	}
	e.endpoint = ep
	return e
}

func (c *Cache) ensureLocked(e *entry) {
	if (!e.attempted || e.stale) && !e.result.IsLoading {
		c.startLocked(e)
	}
}

// startLocked launches a fetch for e, cancelling and superseding any fetch
// already in flight for the same key.
func (c *Cache) startLocked(e *entry) {
	if e.cancel != nil {
		e.cancel()
	}
	e.gen++
	gen := e.gen
	ctx, cancel := context.WithCancel(c.ctx)
	e.cancel = cancel
	done := make(chan struct{})
	e.done = done
	e.stale = false
	e.attempted = true
	e.result.IsLoading = true
	ep := e.endpoint

	c.notifyLocked(e)

	go func() {
		defer close(done)
		data, err := ep.Fetch(ctx)
		c.complete(ep.Key, e, gen, data, err)
	}()
}

func (c *Cache) complete(key string, e *entry, gen uint64, data any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries[key] != e || e.gen != gen {
		c.log.WithField("key", key).Debug("dropped superseded response")
		return
	}
	e.cancel = nil
	e.result.IsLoading = false

	if err != nil {
		e.result.Err = err
		c.log.WithError(err).WithField("key", key).Warn("query failed")
		if e.endpoint.Provides != nil {
			c.retagLocked(key, e, append(e.tags, e.endpoint.Provides(nil)...))
		}
	} else {
		e.result.Data = data
		e.result.Err = nil
		e.result.FetchedAt = time.Now()
		if e.endpoint.Provides != nil {
			c.retagLocked(key, e, e.endpoint.Provides(data))
		}
	}

	c.notifyLocked(e)
}

func (c *Cache) retagLocked(key string, e *entry, tags []Tag) {
	for _, t := range e.tags {
		if ks, ok := c.index[t]; ok {
			delete(ks, key)
			if len(ks) == 0 {
				delete(c.index, t)
			}
		}
	}
	e.tags = dedupe(tags)
	for _, t := range e.tags {
		ks, ok := c.index[t]
		if !ok {
			ks = make(map[string]struct{})
			c.index[t] = ks
		}
		ks[key] = struct{}{}
	}
}

// notifyLocked queues e's result for its subscribers. Deliveries leave the
// queue in the order they were queued.
func (c *Cache) notifyLocked(e *entry) {
	if len(e.subs) == 0 {
		return
	}
	r := e.result
	for _, fn := range e.subs {
		c.queue.push(delivery{fn: fn, result: r})
	}
}

func dedupe(tags []Tag) []Tag {
	seen := make(map[Tag]struct{}, len(tags))
	out := make([]Tag, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
