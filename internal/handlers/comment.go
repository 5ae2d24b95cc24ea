package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ourcity/internal/services"
)

type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

func (h *CommentHandler) List(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	cursor, limit, ok := pageParams(c)
	if !ok {
		return
	}
	page, err := h.comments.GetComments(c.Request.Context(), viewer(c), postID, cursor, limit)
	respond(c, http.StatusOK, page, err)
}

func (h *CommentHandler) Create(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.CommentRequest
	if !bind(c, &req) {
		return
	}
	comment, err := h.comments.CreateComment(c.Request.Context(), viewer(c), postID, req)
	respond(c, http.StatusCreated, comment, err)
}

func (h *CommentHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.CommentRequest
	if !bind(c, &req) {
		return
	}
	comment, err := h.comments.UpdateComment(c.Request.Context(), viewer(c), id, req)
	respond(c, http.StatusOK, comment, err)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	comment, err := h.comments.DeleteComment(c.Request.Context(), viewer(c), id)
	respond(c, http.StatusOK, comment, err)
}
