package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/msavelyev/productscout/app/cache"
	"github.com/msavelyev/productscout/app/catalog"
	"github.com/msavelyev/productscout/app/cfg"
	"github.com/msavelyev/productscout/app/feed"
	"github.com/msavelyev/productscout/app/pipeline"
	"github.com/msavelyev/productscout/app/schedule"
	"github.com/msavelyev/productscout/app/store"
)

const defaultJobName = "discovery"

type Handler struct {
	runner      *pipeline.Runner
	repo        *catalog.Repository
	cache       *cache.TwoTier
	gate        *schedule.Gate
	store       store.Store
	configCache *feed.ConfigCache
}

func NewHandler(runner *pipeline.Runner, repo *catalog.Repository, c *cache.TwoTier,
	gate *schedule.Gate, s store.Store, configCache *feed.ConfigCache) *Handler {
	return &Handler{
		runner:      runner,
		repo:        repo,
		cache:       c,
		gate:        gate,
		store:       s,
		configCache: configCache,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"version":   cfg.Get().Version,
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if err := h.store.Ping(c.Request.Context()); err != nil {
		health["store"] = "unreachable"
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}
	health["store"] = "ok"
	health["loaded_sources"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

// RunPipeline triggers a gated run. Partial success is success: the envelope
// carries aggregate counts plus the per-item error list.
func (h *Handler) RunPipeline(c *gin.Context) {
	job := c.DefaultQuery("job", defaultJobName)

	summary, err := h.runner.Run(c.Request.Context(), job)
	if err != nil {
		slog.Error("Pipeline run failed", "job", job, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *Handler) ListRecords(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		records []*catalog.Record
		err     error
	)

	if status := c.Query("status"); status != "" {
		records, err = h.repo.ListByStatus(ctx, catalog.Status(status))
	} else {
		records, err = h.repo.List(ctx)
	}
	if err != nil {
		slog.Error("Failed to list records", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(records), "records": records})
}

func (h *Handler) EnrichRecord(c *gin.Context) {
	rec, err := h.runner.EnrichOne(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.recordError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (h *Handler) ApproveRecord(c *gin.Context) {
	result, err := h.runner.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.recordError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"approved": true,
		"record":   result.Record,
		"sync":     result.Sync,
	})
}

func (h *Handler) RejectRecord(c *gin.Context) {
	rec, err := h.runner.Reject(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.recordError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rejected": true, "record": rec})
}

func (h *Handler) RetrySync(c *gin.Context) {
	synced, errs := h.runner.RetrySync(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"synced": synced, "errors": errs})
}

func (h *Handler) GetCacheStats(c *gin.Context) {
	stats, err := h.cache.Stats(c.Request.Context())
	if err != nil {
		slog.Error("Failed to get cache stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) CleanupCache(c *gin.Context) {
	removed, kept, err := h.cache.CleanupExpired(c.Request.Context())
	if err != nil {
		slog.Error("Cache cleanup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed, "kept": kept})
}

func (h *Handler) InvalidateCache(c *gin.Context) {
	prefix := c.Query("prefix")
	if prefix == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prefix query parameter is required"})
		return
	}

	removed, err := h.cache.InvalidateByPrefix(c.Request.Context(), prefix)
	if err != nil {
		slog.Error("Cache invalidation failed", "prefix", prefix, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (h *Handler) GetScheduleStatus(c *gin.Context) {
	job := c.DefaultQuery("job", defaultJobName)
	c.JSON(http.StatusOK, h.runner.ScheduleStatus(c.Request.Context(), job))
}

func (h *Handler) ResetSchedule(c *gin.Context) {
	job := c.DefaultQuery("job", defaultJobName)

	if err := h.gate.ForceRunnable(c.Request.Context(), job); err != nil {
		slog.Error("Failed to reset schedule", "job", job, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"job": job, "runnable": true})
}

func (h *Handler) recordError(c *gin.Context, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	slog.Error("Record operation failed", "id", c.Param("id"), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
