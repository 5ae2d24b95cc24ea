package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ourcity/internal/services"
	"ourcity/internal/utils"
)

type PostHandler struct {
	posts *services.PostService
}

func NewPostHandler(posts *services.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// List serves the feed: ?cursor&limit&searchTerm&tags&sortBy&sortOrder.
func (h *PostHandler) List(c *gin.Context) {
	cursor, limit, ok := pageParams(c)
	if !ok {
		return
	}
	tags, err := utils.ParseUUIDList(c.QueryArray("tags"))
	if err != nil {
		badRequest(c, services.MsgMalformedID)
		return
	}
	page, err := h.posts.GetPosts(c.Request.Context(), viewer(c), services.PostQuery{
		Cursor:    cursor,
		Limit:     limit,
		Search:    c.Query("searchTerm"),
		TagIDs:    tags,
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	})
	respond(c, http.StatusOK, page, err)
}

func (h *PostHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	post, err := h.posts.GetPost(c.Request.Context(), viewer(c), id)
	respond(c, http.StatusOK, post, err)
}

func (h *PostHandler) Create(c *gin.Context) {
	var req services.PostCreateRequest
	if !bind(c, &req) {
		return
	}
	post, err := h.posts.CreatePost(c.Request.Context(), viewer(c), req)
	respond(c, http.StatusCreated, post, err)
}

func (h *PostHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.PostUpdateRequest
	if !bind(c, &req) {
		return
	}
	post, err := h.posts.UpdatePost(c.Request.Context(), viewer(c), id, req)
	respond(c, http.StatusOK, post, err)
}

func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	post, err := h.posts.DeletePost(c.Request.Context(), viewer(c), id)
	respond(c, http.StatusOK, post, err)
}
