package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"ourcity/internal/middleware"
	"ourcity/internal/services"
)

type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register creates the account and signs it in.
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.Credentials
	if !bind(c, &req) {
		return
	}
	user, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		RenderError(c, err)
		return
	}
	noContent(c, errors.Wrap(middleware.Login(c, user.ID), "save session"))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req services.Credentials
	if !bind(c, &req) {
		return
	}
	user, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		RenderError(c, err)
		return
	}
	noContent(c, errors.Wrap(middleware.Login(c, user.ID), "save session"))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	noContent(c, errors.Wrap(middleware.Logout(c), "clear session"))
}

func (h *AuthHandler) Me(c *gin.Context) {
	me, err := h.auth.Me(c.Request.Context(), viewer(c))
	respond(c, http.StatusOK, me, err)
}
