package scraper

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Group deduplicates concurrent fetches for the same key.
type Group[T any] struct {
	group singleflight.Group
}

// Do executes fn once per key among concurrent callers. shared reports
// whether the result was handed to more than one caller.
func (g *Group[T]) Do(ctx context.Context, key string, fn func(context.Context) (T, error)) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}

	ch := g.group.DoChan(key, func() (any, error) {
		return fn(ctx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Shared, res.Err
		}
		v, _ := res.Val.(T)
		return v, res.Shared, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

// Forget removes a key so the next call executes again.
func (g *Group[T]) Forget(key string) {
	g.group.Forget(key)
}
