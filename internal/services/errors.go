package services

import (
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"ourcity/internal/apperr"
	"ourcity/internal/db"
	"ourcity/internal/logger"
	"ourcity/internal/models"
	"ourcity/internal/policy"
)

// storeErr maps store sentinels onto domain failures. notFound is the detail
// used for a missing row; anything unexpected is logged and becomes Internal.
func storeErr(err error, op, notFound string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, db.ErrNotFound) && notFound != "" {
		return apperr.New(apperr.NotFound, notFound)
	}
	logger.Log.WithError(err).WithField("op", op).Error("store call failed")
	return apperr.Wrap(err, op)
}

func requireUser(u *models.User) error {
	if u == nil {
		return apperr.New(apperr.Unauthorized, MsgUserNotAuthenticated)
	}
	return nil
}

func requireParticipant(u *models.User) error {
	if err := requireUser(u); err != nil {
		return err
	}
	if !policy.CanParticipate(u) {
		return apperr.New(apperr.Forbidden, MsgAccountUnavailable)
	}
	return nil
}

func requireAdmin(u *models.User) error {
	if err := requireUser(u); err != nil {
		return err
	}
	if !policy.CanAdministrate(u) {
		return apperr.New(apperr.Forbidden, MsgUnauthorized)
	}
	return nil
}

func viewerID(u *models.User) *uuid.UUID {
	if u == nil {
		return nil
	}
	id := u.ID
	return &id
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func utcNow() time.Time {
	return time.Now().UTC()
}
