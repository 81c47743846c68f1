package audit

import (
	"net/http"
	"strconv"

	"github.com/abduss/mediavault/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RegisterRoutes mounts audit log queries under the provided (authenticated)
// router group.
func RegisterRoutes(group *gin.RouterGroup, repo *Repository) {
	handler := &httpHandler{repo: repo}
	logs := group.Group("/logs")
	{
		logs.GET("/user/:userID", handler.listUserLogs)
		logs.GET("", auth.RequireAdmin(), handler.listAllLogs)
	}
}

type httpHandler struct {
	repo *Repository
}

func (h *httpHandler) listUserLogs(c *gin.Context) {
	callerID, caller, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	targetID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if targetID != callerID && caller.Role != auth.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot view another user's logs"})
		return
	}

	entries, total, err := h.repo.ListByUser(c.Request.Context(), targetID, parseStart(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": entries, "total": total})
}

func (h *httpHandler) listAllLogs(c *gin.Context) {
	entries, total, err := h.repo.ListAll(c.Request.Context(), parseStart(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": entries, "total": total})
}

func parseStart(c *gin.Context) int {
	start, err := strconv.Atoi(c.DefaultQuery("start", "0"))
	if err != nil || start < 0 {
		return 0
	}
	return start
}
