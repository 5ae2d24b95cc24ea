package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ourcity/internal/models"
	"ourcity/internal/services"
)

// AdminHandler serves moderation actions. The routes sit behind
// AdminRequired; the services check again.
type AdminHandler struct {
	users *services.UserService
	posts *services.PostService
}

func NewAdminHandler(users *services.UserService, posts *services.PostService) *AdminHandler {
	return &AdminHandler{users: users, posts: posts}
}

func (h *AdminHandler) Ban(c *gin.Context) {
	user, err := h.users.BanUser(c.Request.Context(), viewer(c), c.Param("username"))
	respond(c, http.StatusOK, user, err)
}

func (h *AdminHandler) Unban(c *gin.Context) {
	user, err := h.users.UnbanUser(c.Request.Context(), viewer(c), c.Param("username"))
	respond(c, http.StatusOK, user, err)
}

func (h *AdminHandler) Promote(c *gin.Context) {
	noContent(c, h.users.PromoteUserToAdmin(c.Request.Context(), viewer(c), c.Param("username")))
}

type visibilityRequest struct {
	Visibility models.PostVisibility `json:"visibility"`
}

func (h *AdminHandler) SetPostVisibility(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req visibilityRequest
	if !bind(c, &req) {
		return
	}
	post, err := h.posts.SetPostVisibility(c.Request.Context(), viewer(c), id, req.Visibility)
	respond(c, http.StatusOK, post, err)
}
