package cache

import (
	"context"
	"fmt"
)

// Data returns r.Data as a T. ok is false when there is no data yet or it
// has a different type.
func Data[T any](r Result) (v T, ok bool) {
	v, ok = r.Data.(T)
	return v, ok
}

// FetchAs is Fetch with the response asserted to T.
func FetchAs[T any](ctx context.Context, c *Cache, ep Endpoint) (T, error) {
	var zero T
	r, err := c.Fetch(ctx, ep)
	if err != nil {
		return zero, err
	}
	v, ok := Data[T](r)
	if !ok {
		return zero, fmt.Errorf("query %s: unexpected response type %T", ep.Key, r.Data)
	}
	return v, nil
}
