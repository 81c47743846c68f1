package media

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/abduss/mediavault/internal/auth"
	"github.com/abduss/mediavault/internal/lock"
	"github.com/abduss/mediavault/internal/quota"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RegisterRoutes mounts media operations under the provided router group.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/media", handler.upload)
	group.GET("/media", handler.list)
	group.GET("/media/user/:userID", handler.listByUser)
	group.GET("/media/:mediaID/stream", handler.streamURL)
	group.DELETE("/media/:mediaID", handler.deleteOne)
	group.DELETE("/media", handler.deleteAll)
}

type httpHandler struct {
	service *Service
}

func (h *httpHandler) upload(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fileHeader, err := c.FormFile("media")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "media file is required"})
		return
	}

	title := c.PostForm("title")

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read media file"})
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")

	rec, err := h.service.Upload(c.Request.Context(), userID, title, file, fileHeader.Size, contentType)
	if err != nil {
		switch {
		case errors.Is(err, ErrTitleRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "media title is required"})
		case errors.Is(err, lock.ErrBusy):
			c.JSON(http.StatusConflict, gin.H{"error": "already uploading, please wait before trying again"})
		case errors.Is(err, quota.ErrStorageLimitExceeded):
			c.JSON(http.StatusBadRequest, gin.H{"error": "exceeding total storage limit"})
		case errors.Is(err, quota.ErrBandwidthLimitExceeded):
			c.JSON(http.StatusBadRequest, gin.H{"error": "exceeding daily bandwidth limit"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upload media"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"media": rec})
}

func (h *httpHandler) list(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	records, total, err := h.service.List(c.Request.Context(), userID, parseStart(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list media"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"media": records, "total": total})
}

func (h *httpHandler) listByUser(c *gin.Context) {
	callerID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ownerID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	records, total, err := h.service.ListByUser(c.Request.Context(), callerID, ownerID, parseStart(c))
	if err != nil {
		if errors.Is(err, ErrNotOwner) {
			c.JSON(http.StatusForbidden, gin.H{"error": "cannot list another user's media"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list media"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"media": records, "total": total})
}

func (h *httpHandler) streamURL(c *gin.Context) {
	callerID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	mediaID, err := uuid.Parse(c.Param("mediaID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid media id"})
		return
	}

	streamURL, err := h.service.StreamURL(c.Request.Context(), callerID, mediaID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "media not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate stream url"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": streamURL})
}

func (h *httpHandler) deleteOne(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	mediaID, err := uuid.Parse(c.Param("mediaID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid media id"})
		return
	}

	if err := h.service.DeleteOne(c.Request.Context(), userID, mediaID); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "media not found"})
		case errors.Is(err, ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "cannot delete another user's media"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete media"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "media deleted"})
}

func (h *httpHandler) deleteAll(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	deleted, err := h.service.DeleteAll(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrPartialDelete) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "some media could not be deleted, no records were removed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete media"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "all media deleted", "deleted": deleted})
}

func parseStart(c *gin.Context) int {
	start, err := strconv.Atoi(c.DefaultQuery("start", "0"))
	if err != nil || start < 0 {
		return 0
	}
	return start
}
