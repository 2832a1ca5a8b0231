package query

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"

	"github.com/lysyi3m/pharma-pulse/app/feed"
	"github.com/lysyi3m/pharma-pulse/app/tasks"
)

const MaxSearchResults = 50

// Refresher runs the pipeline for one source and leaves its snapshot in the
// cache. Implemented by *tasks.Scheduler.
type Refresher interface {
	RefreshSource(ctx context.Context, src feed.Source) (tasks.Outcome, error)
}

// Engine answers read queries from the snapshot cache, refreshing a source
// on demand only when its snapshot is missing or stale.
type Engine struct {
	registry  *feed.Registry
	cache     *feed.SnapshotCache
	refresher Refresher
}

func NewEngine(registry *feed.Registry, cache *feed.SnapshotCache, refresher Refresher) *Engine {
	return &Engine{
		registry:  registry,
		cache:     cache,
		refresher: refresher,
	}
}

// GetCategory returns one snapshot per source of the category, in catalog order.
func (e *Engine) GetCategory(ctx context.Context, category feed.Category) ([]feed.Snapshot, error) {
	if _, err := feed.ParseCategory(string(category)); err != nil {
		return nil, err
	}
	return e.snapshots(ctx, e.registry.ByCategory(category))
}

// GetAll returns every category, each with its snapshots in catalog order.
// Categories without sources map to an empty slice.
func (e *Engine) GetAll(ctx context.Context) (map[feed.Category][]feed.Snapshot, error) {
	snapshots, err := e.snapshots(ctx, e.registry.Sources())
	if err != nil {
		return nil, err
	}

	all := make(map[feed.Category][]feed.Snapshot, len(feed.Categories()))
	for _, c := range feed.Categories() {
		all[c] = []feed.Snapshot{}
	}
	for _, s := range snapshots {
		all[s.Category] = append(all[s.Category], s)
	}
	return all, nil
}

// Search matches query against title and description, case-folded. An empty
// category searches every category.
func (e *Engine) Search(ctx context.Context, query string, category feed.Category) ([]feed.Item, error) {
	caser := cases.Fold()
	needle := caser.String(strings.TrimSpace(query))
	if needle == "" {
		return []feed.Item{}, nil
	}

	items, err := e.items(ctx, category)
	if err != nil {
		return nil, err
	}

	matches := []feed.Item{}
	for _, item := range items {
		if strings.Contains(caser.String(item.Title+" "+item.Description), needle) {
			matches = append(matches, item)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		ri, rj := matches[i].Relevance.Rank(), matches[j].Relevance.Rank()
		if ri != rj {
			return ri > rj
		}
		return matches[i].PublishedAt.After(matches[j].PublishedAt)
	})

	if len(matches) > MaxSearchResults {
		matches = matches[:MaxSearchResults]
	}

	slog.Debug("Search completed", "query", query, "category", string(category), "matches", len(matches))

	return matches, nil
}

// FeedStatus reports cache state per source without triggering any fetch.
func (e *Engine) FeedStatus() []SourceStatus {
	sources := e.registry.Sources()
	statuses := make([]SourceStatus, 0, len(sources))

	for _, src := range sources {
		status := SourceStatus{
			Name:        src.Name,
			URL:         src.URL,
			Category:    src.Category,
			Description: src.Description,
			Status:      StatusInactive,
		}

		if s, ok := e.cache.Get(src.Name); ok {
			lastUpdated := s.LastUpdated
			status.LastUpdated = &lastUpdated
			status.ItemCount = len(s.Items)
			status.Error = s.Error
			if s.Error == "" && e.cache.IsFresh(s) {
				status.Status = StatusActive
			}
		}

		statuses = append(statuses, status)
	}

	return statuses
}

func (e *Engine) items(ctx context.Context, category feed.Category) ([]feed.Item, error) {
	var (
		snapshots []feed.Snapshot
		err       error
	)
	if category == "" {
		snapshots, err = e.snapshots(ctx, e.registry.Sources())
	} else {
		snapshots, err = e.GetCategory(ctx, category)
	}
	if err != nil {
		return nil, err
	}

	var items []feed.Item
	for _, s := range snapshots {
		items = append(items, s.Items...)
	}
	return items, nil
}

// snapshots serves fresh cache entries and refreshes the rest concurrently.
// The result keeps the order of sources.
func (e *Engine) snapshots(ctx context.Context, sources []feed.Source) ([]feed.Snapshot, error) {
	out := make([]feed.Snapshot, len(sources))

	var g errgroup.Group
	for i, src := range sources {
		if s, ok := e.cache.GetFresh(src.Name); ok {
			out[i] = s
			continue
		}

		g.Go(func() error {
			if _, err := e.refresher.RefreshSource(ctx, src); err != nil {
				slog.Debug("On-demand refresh degraded", "source", src.Name, "error", err)
			}
			out[i] = e.cached(src)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, ctx.Err()
}

func (e *Engine) cached(src feed.Source) feed.Snapshot {
	if s, ok := e.cache.Get(src.Name); ok {
		return s
	}
	return feed.Snapshot{
		Source:      src.Name,
		Category:    src.Category,
		Description: src.Description,
		LastUpdated: e.cache.Now().UTC(),
		Items:       []feed.Item{},
		Error:       "Feed temporarily unavailable",
	}
}
