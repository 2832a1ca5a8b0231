package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/pharma-pulse/app/feed"
)

// NoItemsMessage is stored on the snapshot of a source that answered but
// yielded nothing usable.
const NoItemsMessage = "No valid items found"

var ErrNoItems = errors.New("no valid items found")

type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFallback Outcome = "fallback"
	OutcomeEmpty    Outcome = "empty"
)

// RefreshSourceTask runs fetch, parse, classify and cache for one source.
// Whatever happens, the cache ends up holding a usable snapshot for it.
type RefreshSourceTask struct {
	Task
	source     feed.Source
	fetcher    FeedFetcher
	parser     FeedParser
	classifier *feed.Classifier
	cache      *feed.SnapshotCache
	outcome    Outcome
}

var _ TaskInterface = (*RefreshSourceTask)(nil)

func NewRefreshSourceTask(src feed.Source, fetcher FeedFetcher, parser FeedParser, classifier *feed.Classifier, cache *feed.SnapshotCache) *RefreshSourceTask {
	return &RefreshSourceTask{
		Task:       NewTask(TaskTypeRefreshSource, src.Name),
		source:     src,
		fetcher:    fetcher,
		parser:     parser,
		classifier: classifier,
		cache:      cache,
	}
}

// Execute returns the failure cause for degraded outcomes after the cache
// has already been updated; callers must not treat it as fatal.
func (t *RefreshSourceTask) Execute(ctx context.Context) error {
	data, err := t.fetcher.Fetch(ctx, t.source)
	if err != nil {
		return t.degrade(snapshotMessage(err), err)
	}

	entries := t.parser.Run(data, t.source)
	items := t.classifier.RunAll(entries, t.source)
	if len(items) == 0 {
		return t.degrade(NoItemsMessage, ErrNoItems)
	}

	t.cache.Put(feed.Snapshot{
		Source:      t.source.Name,
		Category:    t.source.Category,
		Description: t.source.Description,
		LastUpdated: t.cache.Now().UTC(),
		Items:       items,
	})
	t.outcome = OutcomeSuccess

	slog.Debug("Source classified", "source", t.SourceName, "entries", len(entries), "items", len(items))

	return nil
}

func (t *RefreshSourceTask) Outcome() Outcome {
	return t.outcome
}

func (t *RefreshSourceTask) degrade(message string, cause error) error {
	if prior, ok := t.cache.GetFresh(t.source.Name); ok && prior.Error == "" {
		t.outcome = OutcomeFallback
		slog.Warn("Source refresh failed, serving cached snapshot",
			"type", string(t.Type),
			"id", t.ID,
			"source", t.SourceName,
			"outcome", string(t.outcome),
			"last_updated", prior.LastUpdated,
			"duration", t.GetDuration(),
			"error", cause)
		return fmt.Errorf("refresh %s: %w", t.SourceName, cause)
	}

	t.cache.Put(feed.Snapshot{
		Source:      t.source.Name,
		Category:    t.source.Category,
		Description: t.source.Description,
		LastUpdated: t.cache.Now().UTC(),
		Items:       []feed.Item{},
		Error:       message,
	})
	t.outcome = OutcomeEmpty

	slog.Warn("Source refresh failed, cached empty snapshot",
		"type", string(t.Type),
		"id", t.ID,
		"source", t.SourceName,
		"outcome", string(t.outcome),
		"duration", t.GetDuration(),
		"error", cause)

	return fmt.Errorf("refresh %s: %w", t.SourceName, cause)
}

func snapshotMessage(err error) string {
	var fetchErr *feed.FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.SnapshotMessage()
	}
	return fmt.Sprintf("Feed temporarily unavailable: %v", err)
}
