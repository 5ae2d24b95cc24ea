package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Bookmark toggles the caller's bookmark on a post.
func (h *PostHandler) Bookmark(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	post, err := h.posts.BookmarkPost(c.Request.Context(), viewer(c), id)
	respond(c, http.StatusOK, post, err)
}

// Bookmarks lists the caller's bookmarked posts, most recently saved first.
func (h *PostHandler) Bookmarks(c *gin.Context) {
	cursor, limit, ok := pageParams(c)
	if !ok {
		return
	}
	page, err := h.posts.GetBookmarkedPosts(c.Request.Context(), viewer(c), cursor, limit)
	respond(c, http.StatusOK, page, err)
}
