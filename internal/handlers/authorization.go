package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ourcity/internal/services"
)

// AuthorizationHandler lets clients ask before showing an action.
type AuthorizationHandler struct {
	posts *services.PostService
}

func NewAuthorizationHandler(posts *services.PostService) *AuthorizationHandler {
	return &AuthorizationHandler{posts: posts}
}

type authorizedResponse struct {
	Authorized bool `json:"authorized"`
}

func (h *AuthorizationHandler) CanCreatePosts(c *gin.Context) {
	c.JSON(http.StatusOK, authorizedResponse{Authorized: h.posts.CanCreatePosts(viewer(c))})
}

func (h *AuthorizationHandler) CanMutatePost(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	allowed, err := h.posts.CanMutatePost(c.Request.Context(), viewer(c), id)
	respond(c, http.StatusOK, authorizedResponse{Authorized: allowed}, err)
}
