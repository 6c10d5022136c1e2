package routes

import (
	"log"
	"net/http"
	"strconv"

	"geoenrich/internal/model"

	"github.com/gin-gonic/gin"
)

// SetupResolveHandlers registers the point lookup and run statistics endpoints
func SetupResolveHandlers(router *gin.RouterGroup, deps Dependencies) {
	router.GET("/resolve", ResolvePoint(deps.Resolver))
	router.GET("/stats", RunStats(deps))
}

// ResolvePoint handles GET /api/resolve?lon=&lat=
func ResolvePoint(resolver PointResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
		lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
		if lonErr != nil || latErr != nil || lon < -180 || lon > 180 || lat < -90 || lat > 90 {
			c.JSON(http.StatusBadRequest, gin.H{
				"status":  "error",
				"message": "lon and lat must be valid coordinates",
			})
			return
		}

		point := model.MakePoint(lon, lat)
		key, found, err := resolver.Resolve(c.Request.Context(), point)
		if err != nil {
			log.Printf("ERROR: resolve %s: %v", point, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"status":  "error",
				"message": "failed to resolve point",
			})
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{
				"status":  "not_found",
				"message": "no city contains " + point.String(),
			})
			return
		}

		adminKey, err := model.ParseAdministrativeKey(key)
		if err != nil {
			log.Printf("ERROR: resolve %s: %v", point, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"status":  "error",
				"message": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, adminKey)
	}
}

const (
	defaultRunHistory = 10
	maxRunHistory     = 100
)

// RunStats handles GET /api/stats?runs=
func RunStats(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := gin.H{
			"polygons": deps.IndexSize,
		}
		if stats, ok := deps.Stats.LastStats(); ok {
			response["last_run"] = stats
		}

		if deps.Runs != nil {
			limit := defaultRunHistory
			if raw := c.Query("runs"); raw != "" {
				parsed, err := strconv.Atoi(raw)
				if err != nil || parsed < 1 || parsed > maxRunHistory {
					c.JSON(http.StatusBadRequest, gin.H{
						"status":  "error",
						"message": "runs must be between 1 and " + strconv.Itoa(maxRunHistory),
					})
					return
				}
				limit = parsed
			}

			runs, err := deps.Runs(limit)
			if err != nil {
				log.Printf("ERROR: run history: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{
					"status":  "error",
					"message": "failed to load run history",
				})
				return
			}
			response["runs"] = runs
		}

		c.JSON(http.StatusOK, response)
	}
}
