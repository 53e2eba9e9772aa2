package api

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/open-xchange/appsuite-middleware-sub008/internal/apierrors"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/config"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/folder"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/login"
)

// FolderHandler serves /ajax/folders for authenticated sessions.
type FolderHandler struct {
	agg  *folder.Aggregator
	orch *login.Orchestrator
	conf func() *config.Config
}

func NewFolderHandler(agg *folder.Aggregator, orch *login.Orchestrator, conf func() *config.Config) *FolderHandler {
	return &FolderHandler{agg: agg, orch: orch, conf: conf}
}

// Handle dispatches /ajax/folders. Only action=root is served here.
func (h *FolderHandler) Handle(c *gin.Context) {
	if param(c, "action") != "root" {
		apierrors.ErrorWithMessage(c, apierrors.CodeUnknownAction, "Unknown action: "+param(c, "action"))
		return
	}
	cfg := h.conf()
	s, ok := resolveSession(c, h.orch.Store(), h.orch, cfg)
	if !ok {
		return
	}

	locale := param(c, "language")
	result, err := h.agg.RootFolders(c.Request.Context(), s.ContextID, s.UserID, locale)
	if err != nil {
		writeFolderError(c, err)
		return
	}

	body := gin.H{"data": result.Folders}
	if result.Warning != nil {
		body["warning"] = apierrors.NewWithMessage(apierrors.CodeFolderUnavailable, result.Warning.Error())
	}
	writeJSON(c, http.StatusOK, body)
}

func writeFolderError(c *gin.Context, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		// Client went away or the request deadline fired; nothing to log.
		c.Status(http.StatusGatewayTimeout)
		return
	}
	log.Printf("api: folder aggregation: %v", err)
	apierrors.Error(c, apierrors.CodeServiceUnavailable)
}
