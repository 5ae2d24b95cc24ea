package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Vote applies {"voteType": "Upvote" | "Downvote" | "NoVote"} to a post.
// Repeating the current vote leaves it in place.
func (h *PostHandler) Vote(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	vote, ok := bindVote(c)
	if !ok {
		return
	}
	post, err := h.posts.VotePost(c.Request.Context(), viewer(c), id, vote)
	respond(c, http.StatusOK, post, err)
}

// Vote applies a vote to a comment.
func (h *CommentHandler) Vote(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	vote, ok := bindVote(c)
	if !ok {
		return
	}
	comment, err := h.comments.VoteComment(c.Request.Context(), viewer(c), id, vote)
	respond(c, http.StatusOK, comment, err)
}
