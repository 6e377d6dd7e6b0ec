package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/univeil/univeil/internal/services"
	"github.com/univeil/univeil/internal/utils"
)

type FeedHandler struct {
	svc services.FeedService
}

func NewFeedHandler(svc services.FeedService) *FeedHandler {
	return &FeedHandler{svc: svc}
}

type CreatePostRequest struct {
	Body      string   `json:"body"`
	PhotoURLs []string `json:"photo_urls"`
}

func (h *FeedHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "FeedHandler.Create", "invalid request body", err))
		return
	}

	p, err := h.svc.CreatePost(c.Request.Context(), userID, req.Body, req.PhotoURLs)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

func (h *FeedHandler) List(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	posts, err := h.svc.List(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (h *FeedHandler) Like(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.svc.Like(c.Request.Context(), userID, c.Param("post_id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *FeedHandler) Unlike(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.svc.Unlike(c.Request.Context(), userID, c.Param("post_id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
