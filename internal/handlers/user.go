package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ourcity/internal/services"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// List serves ?cursor&limit&minReports&isBanned&sortBy&sortOrder.
func (h *UserHandler) List(c *gin.Context) {
	cursor, limit, ok := pageParams(c)
	if !ok {
		return
	}
	q := services.UserQuery{
		Cursor:    cursor,
		Limit:     limit,
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}
	if raw := c.Query("minReports"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, services.MsgInvalidBody)
			return
		}
		q.MinReports = &n
	}
	if raw := c.Query("isBanned"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, services.MsgInvalidBody)
			return
		}
		q.IsBanned = &b
	}
	page, err := h.users.GetUsers(c.Request.Context(), viewer(c), q)
	respond(c, http.StatusOK, page, err)
}

func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.GetUser(c.Request.Context(), viewer(c), c.Param("username"))
	respond(c, http.StatusOK, user, err)
}

func (h *UserHandler) Update(c *gin.Context) {
	var req services.UserUpdateRequest
	if !bind(c, &req) {
		return
	}
	user, err := h.users.UpdateUser(c.Request.Context(), viewer(c), c.Param("username"), req)
	respond(c, http.StatusOK, user, err)
}

func (h *UserHandler) Delete(c *gin.Context) {
	noContent(c, h.users.DeleteUser(c.Request.Context(), viewer(c), c.Param("username")))
}

// Report files or withdraws the caller's report. The body is optional when
// withdrawing.
func (h *UserHandler) Report(c *gin.Context) {
	var req services.ReportRequest
	if c.Request.ContentLength != 0 && !bind(c, &req) {
		return
	}
	res, err := h.users.ReportUser(c.Request.Context(), viewer(c), c.Param("username"), req)
	respond(c, http.StatusOK, res, err)
}
