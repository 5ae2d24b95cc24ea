package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ourcity/internal/apperr"
	"ourcity/internal/logger"
	"ourcity/internal/middleware"
	"ourcity/internal/models"
	"ourcity/internal/services"
	"ourcity/internal/utils"
	"ourcity/internal/voting"
)

// RenderError writes the failure body for err. Internal errors are logged
// and never leak their cause.
func RenderError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := apperr.Status(kind)
	if kind == apperr.Internal {
		logger.Log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"status": status, "detail": apperr.DetailOf(err)})
}

func badRequest(c *gin.Context, detail string) {
	RenderError(c, apperr.New(apperr.ValidationFailed, detail))
}

func viewer(c *gin.Context) *models.User {
	return middleware.CurrentUser(c)
}

// pathID parses a uuid path parameter, answering 400 when it is malformed.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, services.MsgMalformedID)
		return uuid.Nil, false
	}
	return id, true
}

// pageParams reads the cursor and limit query parameters.
func pageParams(c *gin.Context) (*uuid.UUID, int, bool) {
	cursor, err := utils.ParseOptionalUUID(c.Query("cursor"))
	if err != nil {
		badRequest(c, services.MsgMalformedID)
		return nil, 0, false
	}
	return cursor, utils.StringToInt(c.Query("limit")), true
}

func bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, services.MsgInvalidBody)
		return false
	}
	return true
}

type voteRequest struct {
	VoteType voting.VoteType `json:"voteType"`
}

func bindVote(c *gin.Context) (voting.VoteType, bool) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if errors.Is(err, voting.ErrInvalidVoteType) {
			badRequest(c, services.MsgInvalidVoteType)
		} else {
			badRequest(c, services.MsgInvalidBody)
		}
		return 0, false
	}
	return req.VoteType, true
}

// respond writes v as JSON, or the failure body when err is set.
func respond(c *gin.Context, status int, v interface{}, err error) {
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(status, v)
}

func noContent(c *gin.Context, err error) {
	if err != nil {
		RenderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
