package api

import (
	routes "geoenrich/internal/api/handlers"

	"github.com/gin-gonic/gin"
)

// SetupRouter initializes all application routes
func SetupRouter(r *gin.Engine, deps routes.Dependencies) {
	// API group
	api := r.Group("/api")

	// Setup main handlers
	routes.SetupMainHandlers(r.Group(""), deps)

	// Setup lookup handlers
	routes.SetupResolveHandlers(api, deps)

	if deps.Areas != nil {
		routes.SetupAreaHandlers(api, deps.Areas)
	}
}
