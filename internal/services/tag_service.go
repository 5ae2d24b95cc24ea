package services

import (
	"context"
	"time"

	"ourcity/internal/utils"
)

const (
	tagsCachePrefix = "tags:"
	tagsCacheKey    = tagsCachePrefix + "all"
	tagsCacheTTL    = 10 * time.Minute
)

type TagService struct {
	store TagStore
	cache *utils.TTLCache
}

func NewTagService(store TagStore, cache *utils.TTLCache) *TagService {
	return &TagService{store: store, cache: cache}
}

// GetTags lists every tag by name. The list is cached; Bootstrap clears it.
func (s *TagService) GetTags(ctx context.Context) ([]TagResponse, error) {
	if cached, ok := s.cache.Get(tagsCacheKey); ok {
		return cached.([]TagResponse), nil
	}
	tags, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, storeErr(err, "list tags", "")
	}
	out := toTagResponses(tags)
	s.cache.Set(tagsCacheKey, out, tagsCacheTTL)
	return out, nil
}
