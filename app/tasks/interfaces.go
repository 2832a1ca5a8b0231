package tasks

import (
	"context"

	"github.com/lysyi3m/pharma-pulse/app/feed"
)

// FeedFetcher retrieves the raw body of one source.
// Implemented by *feed.Fetcher; tests substitute canned responses.
type FeedFetcher interface {
	Fetch(ctx context.Context, src feed.Source) ([]byte, error)
}

// FeedParser turns a body into raw entries. Implemented by *feed.Parser.
type FeedParser interface {
	Run(data []byte, src feed.Source) []feed.RawEntry
}

// TaskSchedulerInterface is what the HTTP layer and the query engine need
// from the scheduler.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	RefreshAll(ctx context.Context) (RefreshResult, error)
	RefreshSource(ctx context.Context, src feed.Source) (Outcome, error)
	Stats() Stats
}
