package api

import (
	"context"

	"github.com/lysyi3m/pharma-pulse/app/feed"
	"github.com/lysyi3m/pharma-pulse/app/query"
	"github.com/lysyi3m/pharma-pulse/app/tasks"
)

type GeneratorInterface interface {
	Run(category feed.Category, items []feed.Item) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

type EngineInterface interface {
	GetAll(ctx context.Context) (map[feed.Category][]feed.Snapshot, error)
	GetCategory(ctx context.Context, category feed.Category) ([]feed.Snapshot, error)
	Search(ctx context.Context, query string, category feed.Category) ([]feed.Item, error)
	Trending(ctx context.Context, windowHours, limit int) ([]query.Topic, error)
	FeedStatus() []query.SourceStatus
}

var _ EngineInterface = (*query.Engine)(nil)

type Handler struct {
	registry  *feed.Registry
	cache     *feed.SnapshotCache
	engine    EngineInterface
	generator GeneratorInterface
	scheduler tasks.TaskSchedulerInterface
	version   string
}
