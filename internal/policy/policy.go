package policy

import (
	"github.com/google/uuid"

	"ourcity/internal/models"
)

// CanMutate is the ownership check: only the owner may change a resource.
func CanMutate(actorID, ownerID uuid.UUID) bool {
	return actorID != uuid.Nil && actorID == ownerID
}

// MeetsReportThreshold is true once a target has collected at least min
// reports.
func MeetsReportThreshold(count, min int) bool {
	return count >= min
}

// Active users are signed in, not banned and not deleted.
func Active(u *models.User) bool {
	return u != nil && !u.IsBanned && !u.IsDeleted
}

// CanParticipate gates creating content, voting, bookmarking and reporting.
func CanParticipate(u *models.User) bool {
	return Active(u)
}

func CanAdministrate(u *models.User) bool {
	return Active(u) && u.IsAdmin
}

// CanViewAdminDashboard gates analytics.
func CanViewAdminDashboard(u *models.User) bool {
	return CanAdministrate(u)
}

func CanMutatePost(u *models.User, p *models.Post) bool {
	return Active(u) && p != nil && CanMutate(u.ID, p.AuthorID)
}

func CanMutateComment(u *models.User, c *models.Comment) bool {
	return Active(u) && c != nil && CanMutate(u.ID, c.AuthorID)
}

// CanSeePost hides deleted posts from everyone and hidden posts from
// everyone but admins and the author.
func CanSeePost(u *models.User, p *models.Post) bool {
	if p == nil || p.IsDeleted {
		return false
	}
	if p.Visibility == models.Hidden {
		return u != nil && (u.IsAdmin || u.ID == p.AuthorID)
	}
	return true
}
