package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"ourcity/internal/apperr"
	"ourcity/internal/db"
	"ourcity/internal/logger"
	"ourcity/internal/models"
	"ourcity/internal/policy"
	"ourcity/internal/utils"
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthService struct {
	store UserStore
}

func NewAuthService(store UserStore) *AuthService {
	return &AuthService{store: store}
}

func (s *AuthService) Register(ctx context.Context, req Credentials) (*models.User, error) {
	username, err := validateUsername(req.Username)
	if err != nil {
		return nil, err
	}
	if !utils.StrongEnough(req.Password) {
		return nil, apperr.New(apperr.ValidationFailed, MsgWeakPassword)
	}
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Wrap(err, "hash password")
	}

	u := &models.User{Username: username, Password: hash}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, apperr.New(apperr.Conflict, MsgUsernameTaken)
		}
		return nil, storeErr(err, "create user", "")
	}
	logger.Log.WithField("user_id", u.ID).Info("user registered")
	return u, nil
}

// Login checks credentials. Unknown users and wrong passwords look the same.
func (s *AuthService) Login(ctx context.Context, req Credentials) (*models.User, error) {
	u, err := s.store.GetUserByUsername(ctx, req.Username)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.New(apperr.ValidationFailed, MsgInvalidCredentials)
	}
	if err != nil {
		return nil, storeErr(err, "get user", "")
	}
	if !utils.CheckPasswordHash(req.Password, u.Password) {
		return nil, apperr.New(apperr.ValidationFailed, MsgInvalidCredentials)
	}
	if !policy.Active(u) {
		return nil, apperr.New(apperr.Forbidden, MsgAccountUnavailable)
	}
	return u, nil
}

// Resolve turns a session user id into a user. Deleted or missing users
// resolve to nil so the session is treated as anonymous.
func (s *AuthService) Resolve(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(err, "resolve session user", "")
	}
	if u.IsDeleted {
		return nil, nil
	}
	return u, nil
}

// Me describes the signed-in caller. Admins also see their own report count.
func (s *AuthService) Me(ctx context.Context, viewer *models.User) (UserResponse, error) {
	if err := requireUser(viewer); err != nil {
		return UserResponse{}, err
	}
	me := *viewer
	if policy.CanAdministrate(viewer) {
		n, err := s.store.CountReports(ctx, viewer.ID)
		if err != nil {
			return UserResponse{}, storeErr(err, "count reports", "")
		}
		me.ReportCount = n
	}
	return toUserResponse(&me, viewer), nil
}
