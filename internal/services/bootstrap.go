package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"ourcity/internal/apperr"
	"ourcity/internal/config"
	"ourcity/internal/db"
	"ourcity/internal/logger"
	"ourcity/internal/models"
	"ourcity/internal/utils"
)

// BootstrapStore is what the startup seed touches.
type BootstrapStore interface {
	TagStore
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
}

// seedTags have fixed ids so every deployment agrees on them.
var seedTags = []struct {
	id   string
	name string
}{
	{"3b84d6d5-4d4e-4e09-8a90-6c2d257ae14c", "Construction"},
	{"6b8e5470-5a3e-48a7-a3e3-142e7e8b2e02", "Transportation"},
	{"5f8b0e26-33a1-4e9f-a3c5-7e78f32f804a", "Entertainment"},
	{"91f75b8d-bf32-46af-a6a9-8f89417cbbd0", "Shopping"},
	{"c4db2614-0d47-4c16-89da-fd8c97a216f4", "Food & Dining"},
	{"8c7b9a39-b4a9-40a3-85ce-034d97a2a6c2", "Parks & Recreation"},
	{"f1f8e911-61db-45a2-b9df-7dc6de4c9a0d", "Safety"},
	{"1f59e1d4-37b7-4ad2-9f6f-431a5e8cf8b7", "Community Events"},
	{"41a6f4ac-8a91-4209-b40e-8b14b9a01873", "Infrastructure"},
	{"4f6329f1-3201-4a94-b41c-cf74ed91f777", "Business"},
	{"08e4cb83-1d93-4e0c-bc4c-30c2aee497b8", "Education"},
	{"f6d81e88-8332-4ee7-96b9-8517f7d7a2d9", "Healthcare"},
	{"7dd62a06-5a7c-44ff-a2f1-299a507d21aa", "Environment"},
	{"e122c911-8cbe-45e0-9d91-9353ed685c61", "Sports"},
	{"c6d13b79-0a6a-4db3-a219-1c6240b9ef82", "Culture"},
	{"0a7f2a8d-504c-4b17-8448-7a274a1bba44", "Tourism"},
	{"3a46f0b5-238f-4e41-bbb4-254bdb14f92e", "Housing"},
	{"9e4f0c3f-02e4-4c88-bf89-9cc7cf7b63c3", "Events"},
}

// DefaultTags builds the seed tag set.
func DefaultTags() ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(seedTags))
	for _, t := range seedTags {
		id, err := uuid.Parse(t.id)
		if err != nil {
			return nil, err
		}
		tag, err := models.NewTag(id, t.name)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// Bootstrap seeds the tag set and the admin account, then drops any tag list
// held in cache. It is safe to run on every start.
func Bootstrap(ctx context.Context, store BootstrapStore, cfg *config.Config, cache *utils.TTLCache) error {
	tags, err := DefaultTags()
	if err != nil {
		return apperr.Wrap(err, "build seed tags")
	}
	created, err := store.EnsureTags(ctx, tags)
	if err != nil {
		return apperr.Wrap(err, "seed tags")
	}
	cache.DeletePrefix(tagsCachePrefix)
	logger.Log.WithField("created", created).Info("tags seeded")

	if cfg.AdminPassword == "" {
		logger.Log.Warn("ADMIN_PASSWORD not set, admin seed skipped")
		return nil
	}
	_, err = store.GetUserByUsername(ctx, cfg.AdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return apperr.Wrap(err, "look up admin")
	}

	hash, err := utils.HashPassword(cfg.AdminPassword)
	if err != nil {
		return apperr.Wrap(err, "hash admin password")
	}
	admin := &models.User{Username: cfg.AdminUsername, Password: hash, IsAdmin: true}
	if err := store.CreateUser(ctx, admin); err != nil && !errors.Is(err, db.ErrDuplicate) {
		return apperr.Wrap(err, "create admin")
	}
	logger.Log.WithField("username", cfg.AdminUsername).Info("admin user seeded")
	return nil
}
