// Package api exposes the query service over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"newsgraph/backend/internal/auth"
	"newsgraph/backend/internal/index"
	"newsgraph/backend/internal/query"
	apperrors "newsgraph/backend/pkg/errors"
)

// Refresher rebuilds the index snapshot on demand. *index.Holder implements it.
type Refresher interface {
	Refresh(ctx context.Context) (*index.Snapshot, error)
}

// Handler holds the HTTP handlers
type Handler struct {
	service   *query.Service
	refresher Refresher
	logger    *zap.Logger
}

// NewHandler creates a handler
func NewHandler(service *query.Service, refresher Refresher, log *zap.Logger) *Handler {
	return &Handler{service: service, refresher: refresher, logger: log}
}

type geoRequest struct {
	Latitude     *float64 `form:"lat" binding:"required"`
	Longitude    *float64 `form:"lon" binding:"required"`
	Limit        int      `form:"limit"`
	WithinMeters float64  `form:"withinMeters"`
}

type limitRequest struct {
	Limit int `form:"limit"`
}

type searchRequest struct {
	Query string `form:"q"`
	Limit int    `form:"limit"`
}

// GeoNearest handles GET /api/articles/geo?lat=&lon=&limit=&withinMeters=
func (h *Handler) GeoNearest(c *gin.Context) {
	var req geoRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.bindError(c, err)
		return
	}

	views, err := h.service.GeoNearest(c.Request.Context(), query.GeoQuery{
		Latitude:     *req.Latitude,
		Longitude:    *req.Longitude,
		Limit:        req.Limit,
		WithinMeters: req.WithinMeters,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": views})
}

// SimilarArticles handles GET /api/articles/:id/similar?limit=
func (h *Handler) SimilarArticles(c *gin.Context) {
	var req limitRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.bindError(c, err)
		return
	}

	views, err := h.service.SimilarArticles(c.Request.Context(), c.Param("id"), req.Limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": views})
}

// TextSearch handles GET /api/articles/search?q=&limit=
func (h *Handler) TextSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.bindError(c, err)
		return
	}

	views, err := h.service.TextSearch(c.Request.Context(), req.Query, req.Limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": views})
}

// Article handles GET /api/articles/:id
func (h *Handler) Article(c *gin.Context) {
	view, err := h.service.Article(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Topics handles GET /api/topics
func (h *Handler) Topics(c *gin.Context) {
	topics, err := h.service.Topics(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"topics": topics})
}

// MyComments handles GET /api/me/comments
func (h *Handler) MyComments(c *gin.Context) {
	comments, err := h.service.MyComments(c.Request.Context(), auth.FromContext(c.Request.Context()))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// Refresh handles POST /admin/refresh. It requires a verified caller.
func (h *Handler) Refresh(c *gin.Context) {
	if !auth.FromContext(c.Request.Context()).IsVerified() {
		h.fail(c, apperrors.NewUnauthorized("no verified subject"))
		return
	}

	snap, err := h.refresher.Refresh(c.Request.Context())
	if err != nil {
		h.fail(c, apperrors.NewStoreUnavailable("refresh", 0, err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"articles": snap.Articles.Len(),
		"built_at": snap.BuiltAt,
	})
}

func (h *Handler) bindError(c *gin.Context, err error) {
	h.fail(c, apperrors.NewInvalidArgument("request", err.Error()))
}

// fail writes the error envelope with the status matching its code
func (h *Handler) fail(c *gin.Context, err error) {
	code := apperrors.Code(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("code", code),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": gin.H{
		"code":    code,
		"message": apperrors.Message(err),
	}})
}

func statusFor(code string) int {
	switch code {
	case apperrors.CodeInvalidArgument:
		return http.StatusBadRequest
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.CodeStoreUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
