package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorHandler recovers panics from handlers and maps them to the
// structured {"error":{"code","message"}} shape every error response in
// this surface uses.
func ErrorHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		msg := "an unexpected error occurred"
		if err, ok := recovered.(string); ok {
			msg = err
		} else if err, ok := recovered.(error); ok {
			msg = err.Error()
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{"code": "INTERNAL_ERROR", "message": msg},
		})
		c.Abort()
	})
}

func errorResponse(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}
