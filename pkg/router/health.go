package router

import (
	"net/http"
	"time"

	"lumen-chat/backend/pkg/config"

	"github.com/gin-gonic/gin"
)

func (r *Router) healthHandler(c *gin.Context) {
	status := http.StatusOK
	overall := "ok"
	dbStatus := "ok"
	if err := config.TestConnection(r.container.DB); err != nil {
		status = http.StatusServiceUnavailable
		overall = "degraded"
		dbStatus = "unreachable"
	}

	c.JSON(status, gin.H{
		"status":   overall,
		"uptime":   time.Since(r.startTime).String(),
		"database": dbStatus,
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}
