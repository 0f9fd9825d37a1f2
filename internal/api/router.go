package api

import (
	"github.com/gin-gonic/gin"

	"scooterswap/internal/manager"
)

// NewRouter builds the gin.Engine exposing /health and the /api/v1 route
// table. CORS is applied by the caller (see cmd/server), wrapping the
// returned engine as a plain http.Handler.
func NewRouter(mgr *manager.Manager) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(ErrorHandler())

	NewHandler(mgr).Register(router)
	return router
}
