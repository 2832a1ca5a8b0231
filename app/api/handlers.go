package api

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/pharma-pulse/app/feed"
	"github.com/lysyi3m/pharma-pulse/app/query"
	"github.com/lysyi3m/pharma-pulse/app/tasks"
)

func NewHandler(registry *feed.Registry, cache *feed.SnapshotCache, engine EngineInterface,
	generator GeneratorInterface, scheduler tasks.TaskSchedulerInterface, version string) *Handler {
	return &Handler{
		registry:  registry,
		cache:     cache,
		engine:    engine,
		generator: generator,
		scheduler: scheduler,
		version:   version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.version,
		"sources":   h.registry.Len(),
		"cached":    h.cache.Len(),
		"scheduler": h.scheduler.Stats(),
	})
}

func (h *Handler) GetAllFeeds(c *gin.Context) {
	all, err := h.engine.GetAll(c.Request.Context())
	if err != nil {
		slog.Error("Failed to load feeds", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load feeds"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"feeds":     all,
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	})
}

func (h *Handler) GetFeedsByCategory(c *gin.Context) {
	category, ok := h.category(c)
	if !ok {
		return
	}

	snapshots, err := h.engine.GetCategory(c.Request.Context(), category)
	if err != nil {
		slog.Error("Failed to load category", "category", string(category), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load feeds"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category": category,
		"feeds":    snapshots,
	})
}

func (h *Handler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing query parameter 'q'"})
		return
	}

	var category feed.Category
	if raw := c.Query("category"); raw != "" {
		parsed, err := feed.ParseCategory(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		category = parsed
	}

	results, err := h.engine.Search(c.Request.Context(), q, category)
	if err != nil {
		slog.Error("Search failed", "query", q, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":    q,
		"category": category,
		"results":  results,
		"total":    len(results),
	})
}

func (h *Handler) GetTrending(c *gin.Context) {
	hours, err := positiveQueryInt(c, "hours", query.DefaultTrendingWindowHours)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit, err := positiveQueryInt(c, "limit", query.DefaultTrendingLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	topics, err := h.engine.Trending(c.Request.Context(), hours, limit)
	if err != nil {
		slog.Error("Trending failed", "hours", hours, "limit", limit, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Trending failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hours":  hours,
		"topics": topics,
	})
}

func (h *Handler) GetStatus(c *gin.Context) {
	statuses := h.engine.FeedStatus()

	active := 0
	for _, s := range statuses {
		if s.Status == query.StatusActive {
			active++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"sources": statuses,
		"total":   len(statuses),
		"active":  active,
	})
}

func (h *Handler) Refresh(c *gin.Context) {
	result, err := h.scheduler.RefreshAll(c.Request.Context())
	if errors.Is(err, tasks.ErrRefreshInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": "Refresh already in progress"})
		return
	}
	if err != nil {
		slog.Error("Refresh failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Refresh failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetRSS(c *gin.Context) {
	category, err := feed.ParseCategory(c.Param("category"))
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	snapshots, err := h.engine.GetCategory(c.Request.Context(), category)
	if err != nil {
		slog.Error("Failed to load category", "category", string(category), "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	var items []feed.Item
	for _, s := range snapshots {
		items = append(items, s.Items...)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})

	rss, err := h.generator.Run(category, items)
	if err != nil {
		slog.Error("RSS generation error", "category", string(category), "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(items)))
	c.Header("X-Feed-Category", string(category))

	c.String(http.StatusOK, rss)
}

func (h *Handler) category(c *gin.Context) (feed.Category, bool) {
	category, err := feed.ParseCategory(c.Param("category"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return "", false
	}
	return category, true
}

func positiveQueryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid '" + name + "' parameter: must be a positive integer")
	}
	return n, nil
}
