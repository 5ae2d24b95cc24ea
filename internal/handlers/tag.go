package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ourcity/internal/services"
)

type TagHandler struct {
	tags *services.TagService
}

func NewTagHandler(tags *services.TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

func (h *TagHandler) List(c *gin.Context) {
	tags, err := h.tags.GetTags(c.Request.Context())
	respond(c, http.StatusOK, tags, err)
}
