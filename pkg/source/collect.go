package source

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// CollectResult is the outcome of one source's collection run.
type CollectResult struct {
	Source   SourceType
	Posts    []Post
	Err      error
	Duration time.Duration
}

// CollectAll runs every source concurrently and returns one result per source
// in the order given. A failing source does not stop the others.
func CollectAll(ctx context.Context, sources []Source) []CollectResult {
	results := make([]CollectResult, len(sources))

	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			start := time.Now()
			posts, err := src.Collect(ctx)
			results[i] = CollectResult{
				Source:   src.Name(),
				Posts:    posts,
				Err:      err,
				Duration: time.Since(start),
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Flatten concatenates the posts of all results.
func Flatten(results []CollectResult) []Post {
	var n int
	for _, r := range results {
		n += len(r.Posts)
	}
	posts := make([]Post, 0, n)
	for _, r := range results {
		posts = append(posts, r.Posts...)
	}
	return posts
}
