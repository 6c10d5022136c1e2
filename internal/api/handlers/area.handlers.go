package routes

import (
	"net/http"

	"geoenrich/internal/model"

	"github.com/gin-gonic/gin"
)

// SetupAreaHandlers registers the loaded-area listing endpoints
func SetupAreaHandlers(router *gin.RouterGroup, areas AreaIndex) {
	router.GET("/areas", ListAreas(areas))
	router.GET("/areas/polygons", AreaPolygons(areas))
}

// ListAreas handles GET /api/areas
func ListAreas(areas AreaIndex) gin.HandlerFunc {
	return func(c *gin.Context) {
		keys := areas.Keys()
		c.JSON(http.StatusOK, gin.H{
			"count": len(keys),
			"keys":  keys,
		})
	}
}

// AreaPolygons handles GET /api/areas/polygons?key=
func AreaPolygons(areas AreaIndex) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Query("key")
		if key == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"status":  "error",
				"message": "key is required",
			})
			return
		}

		polygons, ok := areas.Polygons(key)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"status":  "not_found",
				"message": "no area stored under " + key,
			})
			return
		}

		rings := make([][]model.GeographicPoint, len(polygons))
		for i, polygon := range polygons {
			rings[i] = polygon.Points()
		}
		c.JSON(http.StatusOK, gin.H{
			"key":      key,
			"polygons": rings,
		})
	}
}
