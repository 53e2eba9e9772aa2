package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/open-xchange/appsuite-middleware-sub008/internal/middleware"
)

// Register mounts the AJAX surface on the engine. Both GET and POST are
// accepted on the login route: browsers post credentials, scripts and the
// UI use query parameters for the cookie-only actions.
func Register(r *gin.Engine, loginHandler *LoginHandler, folderHandler *FolderHandler, loginRatePerHour int) {
	limit := middleware.LoginRateLimit(loginRatePerHour)
	r.GET("/ajax/login", limit, loginHandler.Handle)
	r.POST("/ajax/login", limit, loginHandler.Handle)
	r.GET("/ajax/folders", folderHandler.Handle)
	r.POST("/ajax/folders", folderHandler.Handle)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
