package routes

import (
	"context"
	"net/http"

	"geoenrich/internal/metrics"
	"geoenrich/internal/model"
	"geoenrich/internal/service/enrich"

	"github.com/gin-gonic/gin"
)

// PointResolver resolves a point to an administrative key
type PointResolver interface {
	Resolve(ctx context.Context, point model.GeographicPoint) (string, bool, error)
}

// StatsProvider exposes the summary of the last enrichment run
type StatsProvider interface {
	LastStats() (enrich.Stats, bool)
}

// AreaIndex lists the loaded administrative areas
type AreaIndex interface {
	Keys() []string
	Polygons(key string) ([]model.Polygon, bool)
}

// RunHistory loads the latest stored runs, newest first
type RunHistory func(limit int) ([]model.EnrichmentRunPG, error)

// Dependencies are the services the handlers read from. Areas and Runs are
// optional.
type Dependencies struct {
	Resolver   PointResolver
	Stats      StatsProvider
	Areas      AreaIndex
	Runs       RunHistory
	IndexSize  int
	Collection string
}

// SetupMainHandlers registers the status and metrics endpoints
func SetupMainHandlers(router *gin.RouterGroup, deps Dependencies) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":    "geoenrich",
			"collection": deps.Collection,
			"polygons":   deps.IndexSize,
		})
	})

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
}
