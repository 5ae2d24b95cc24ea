package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"ourcity/internal/apperr"
	"ourcity/internal/db"
	"ourcity/internal/logger"
	"ourcity/internal/models"
	"ourcity/internal/pagination"
	"ourcity/internal/policy"
)

// UserQuery is the user list request. The report filters and report sorting
// are admin only.
type UserQuery struct {
	Cursor     *uuid.UUID
	Limit      int
	MinReports *int
	IsBanned   *bool
	SortBy     string
	SortOrder  string
}

type UserUpdateRequest struct {
	Username string `json:"username"`
}

type ReportRequest struct {
	Reason string `json:"reason"`
}

// ReportResult tells the reporter whether a report is now on file.
type ReportResult struct {
	Reported bool `json:"reported"`
}

type UserService struct {
	store UserStore
	now   func() time.Time
}

func NewUserService(store UserStore) *UserService {
	return &UserService{store: store, now: utcNow}
}

func validateUsername(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.New(apperr.ValidationFailed, MsgUsernameRequired)
	}
	if runeLen(name) > models.MaxUsernameLength {
		return "", apperr.New(apperr.ValidationFailed, MsgUsernameTooLong)
	}
	return name, nil
}

// liveUser loads a user that has not been deleted.
func (s *UserService) liveUser(ctx context.Context, username string) (*models.User, error) {
	u, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, storeErr(err, "get user", MsgUserNotFound)
	}
	if u.IsDeleted {
		return nil, apperr.New(apperr.NotFound, MsgUserNotFound)
	}
	return u, nil
}

// withReports fills the report count when the viewer is allowed to see it.
func (s *UserService) withReports(ctx context.Context, viewer, u *models.User) (UserResponse, error) {
	if policy.CanAdministrate(viewer) {
		n, err := s.store.CountReports(ctx, u.ID)
		if err != nil {
			return UserResponse{}, storeErr(err, "count reports", "")
		}
		u.ReportCount = n
	}
	return toUserResponse(u, viewer), nil
}

func (s *UserService) GetUsers(ctx context.Context, viewer *models.User, q UserQuery) (pagination.Page[UserResponse], error) {
	order := pagination.ParseOrder(q.SortBy, q.SortOrder)
	if (q.MinReports != nil || q.IsBanned != nil || order.By == pagination.SortByScore) && !policy.CanAdministrate(viewer) {
		return pagination.Page[UserResponse]{}, apperr.New(apperr.Forbidden, MsgAdminOnlyFilter)
	}

	limit := pagination.ClampLimit(q.Limit)
	rows, err := s.store.ListUsers(ctx, db.UserFilter{
		MinReports: q.MinReports,
		IsBanned:   q.IsBanned,
		Order:      order,
		Cursor:     q.Cursor,
		Fetch:      limit + 1,
	})
	if err != nil {
		return pagination.Page[UserResponse]{}, storeErr(err, "list users", "")
	}
	page := pagination.Paginate(rows, limit, func(u models.User) uuid.UUID { return u.ID })
	return pagination.Map(page, func(u models.User) UserResponse { return toUserResponse(&u, viewer) }), nil
}

func (s *UserService) GetUser(ctx context.Context, viewer *models.User, username string) (UserResponse, error) {
	u, err := s.liveUser(ctx, username)
	if err != nil {
		return UserResponse{}, err
	}
	return s.withReports(ctx, viewer, u)
}

// UpdateUser renames the caller's own account.
func (s *UserService) UpdateUser(ctx context.Context, viewer *models.User, username string, req UserUpdateRequest) (UserResponse, error) {
	if err := requireUser(viewer); err != nil {
		return UserResponse{}, err
	}
	u, err := s.liveUser(ctx, username)
	if err != nil {
		return UserResponse{}, err
	}
	if !policy.CanMutate(viewer.ID, u.ID) {
		return UserResponse{}, apperr.New(apperr.Forbidden, MsgUserUnauthorized)
	}
	if u.Username, err = validateUsername(req.Username); err != nil {
		return UserResponse{}, err
	}
	u.UpdatedAt = s.now()
	if err := s.store.UpdateUser(ctx, u); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return UserResponse{}, apperr.New(apperr.Conflict, MsgUsernameTaken)
		}
		return UserResponse{}, storeErr(err, "update user", MsgUserNotFound)
	}
	return s.withReports(ctx, viewer, u)
}

// DeleteUser soft deletes an account. Users may delete themselves; admins
// may delete anyone.
func (s *UserService) DeleteUser(ctx context.Context, viewer *models.User, username string) error {
	if err := requireUser(viewer); err != nil {
		return err
	}
	u, err := s.liveUser(ctx, username)
	if err != nil {
		return err
	}
	if !policy.CanMutate(viewer.ID, u.ID) && !policy.CanAdministrate(viewer) {
		return apperr.New(apperr.Forbidden, MsgUserUnauthorized)
	}
	u.IsDeleted = true
	u.UpdatedAt = s.now()
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return storeErr(err, "delete user", MsgUserNotFound)
	}
	logger.Log.WithField("user_id", u.ID).WithField("by", viewer.ID).Info("user deleted")
	return nil
}

// ReportUser files a report against username, or withdraws the caller's
// existing one.
func (s *UserService) ReportUser(ctx context.Context, viewer *models.User, username string, req ReportRequest) (ReportResult, error) {
	if err := requireParticipant(viewer); err != nil {
		return ReportResult{}, err
	}
	target, err := s.liveUser(ctx, username)
	if err != nil {
		return ReportResult{}, err
	}
	if target.ID == viewer.ID {
		return ReportResult{}, apperr.New(apperr.ValidationFailed, MsgCantReportSelf)
	}

	existing, err := s.store.FindReport(ctx, viewer.ID, target.ID)
	switch {
	case err == nil:
		if err := s.store.DeleteReport(ctx, existing.ID); err != nil {
			return ReportResult{}, storeErr(err, "withdraw report", "")
		}
		return ReportResult{Reported: false}, nil
	case !errors.Is(err, db.ErrNotFound):
		return ReportResult{}, storeErr(err, "find report", "")
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return ReportResult{}, apperr.New(apperr.ValidationFailed, MsgReasonRequired)
	}
	if runeLen(reason) > models.MaxReportReasonLength {
		return ReportResult{}, apperr.New(apperr.ValidationFailed, MsgReasonTooLong)
	}
	err = s.store.CreateReport(ctx, &models.UserReport{
		TargetUserID: target.ID,
		ReporterID:   viewer.ID,
		Reason:       reason,
		ReportedAt:   s.now(),
	})
	// a concurrent duplicate still leaves one report on file
	if err != nil && !errors.Is(err, db.ErrDuplicate) {
		return ReportResult{}, storeErr(err, "create report", "")
	}
	return ReportResult{Reported: true}, nil
}

func (s *UserService) CountReports(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := s.store.CountReports(ctx, userID)
	if err != nil {
		return 0, storeErr(err, "count reports", "")
	}
	return n, nil
}

func (s *UserService) HasReport(ctx context.Context, reporterID, targetID uuid.UUID) (bool, error) {
	_, err := s.store.FindReport(ctx, reporterID, targetID)
	if errors.Is(err, db.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, storeErr(err, "find report", "")
	}
	return true, nil
}

// setFlag loads a user for an admin action and applies change if it alters
// anything.
func (s *UserService) setFlag(ctx context.Context, viewer *models.User, username, selfMsg string, change func(u *models.User) bool) (UserResponse, error) {
	if err := requireAdmin(viewer); err != nil {
		return UserResponse{}, err
	}
	u, err := s.liveUser(ctx, username)
	if err != nil {
		return UserResponse{}, err
	}
	if selfMsg != "" && u.ID == viewer.ID {
		return UserResponse{}, apperr.New(apperr.ValidationFailed, selfMsg)
	}
	if change(u) {
		u.UpdatedAt = s.now()
		if err := s.store.UpdateUser(ctx, u); err != nil {
			return UserResponse{}, storeErr(err, "update user", MsgUserNotFound)
		}
		logger.Log.WithField("user_id", u.ID).WithField("by", viewer.ID).
			WithField("banned", u.IsBanned).WithField("admin", u.IsAdmin).Info("user moderated")
	}
	return s.withReports(ctx, viewer, u)
}

func (s *UserService) BanUser(ctx context.Context, viewer *models.User, username string) (UserResponse, error) {
	return s.setFlag(ctx, viewer, username, MsgCantBanSelf, func(u *models.User) bool {
		changed := !u.IsBanned
		u.IsBanned = true
		return changed
	})
}

func (s *UserService) UnbanUser(ctx context.Context, viewer *models.User, username string) (UserResponse, error) {
	return s.setFlag(ctx, viewer, username, MsgCantUnbanSelf, func(u *models.User) bool {
		changed := u.IsBanned
		u.IsBanned = false
		return changed
	})
}

func (s *UserService) PromoteUserToAdmin(ctx context.Context, viewer *models.User, username string) error {
	_, err := s.setFlag(ctx, viewer, username, "", func(u *models.User) bool {
		changed := !u.IsAdmin
		u.IsAdmin = true
		return changed
	})
	return err
}
