package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"ourcity/internal/apperr"
	"ourcity/internal/db"
	"ourcity/internal/models"
	"ourcity/internal/policy"
	"ourcity/internal/utils"
)

type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

const analyticsCacheTTL = time.Minute

// ParsePeriod defaults to a day when s is empty.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PeriodDay, nil
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
		return p, nil
	}
	return "", apperr.New(apperr.ValidationFailed, MsgInvalidPeriod)
}

// start returns the beginning of the period that ends at end.
func (p Period) start(end time.Time) time.Time {
	switch p {
	case PeriodWeek:
		return end.AddDate(0, 0, -7)
	case PeriodMonth:
		return end.AddDate(0, -1, 0)
	case PeriodYear:
		return end.AddDate(-1, 0, 0)
	}
	return end.Add(-24 * time.Hour)
}

type SummaryResponse struct {
	Period         Period    `json:"period"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	TotalPosts     int64     `json:"totalPosts"`
	TotalUpvotes   int64     `json:"totalUpvotes"`
	TotalDownvotes int64     `json:"totalDownvotes"`
	TotalComments  int64     `json:"totalComments"`
}

type TimeSeriesBucket struct {
	BucketStart time.Time `json:"bucketStart"`
	BucketEnd   time.Time `json:"bucketEnd"`
	PostCount   int       `json:"postCount"`
}

type TimeSeriesResponse struct {
	Period  Period             `json:"period"`
	Buckets []TimeSeriesBucket `json:"buckets"`
}

type TagBucket struct {
	TagID     uuid.UUID `json:"tagId"`
	TagName   string    `json:"tagName"`
	PostCount int64     `json:"postCount"`
}

type TagBreakdownResponse struct {
	Period     Period      `json:"period"`
	TagBuckets []TagBucket `json:"tagBuckets"`
}

// Analytics is the admin dashboard backend.
type Analytics interface {
	Summary(ctx context.Context, viewer *models.User, period Period) (SummaryResponse, error)
	TimeSeries(ctx context.Context, viewer *models.User, period Period) (TimeSeriesResponse, error)
	TagBreakdown(ctx context.Context, viewer *models.User, period Period) (TagBreakdownResponse, error)
}

// AnalyticsService answers dashboard queries with plain count queries and
// caches each answer for a minute.
type AnalyticsService struct {
	store AnalyticsStore
	cache *utils.TTLCache
	now   func() time.Time
}

var _ Analytics = (*AnalyticsService)(nil)

func NewAnalyticsService(store AnalyticsStore, cache *utils.TTLCache) *AnalyticsService {
	return &AnalyticsService{store: store, cache: cache, now: utcNow}
}

func (s *AnalyticsService) authorize(viewer *models.User) error {
	if err := requireUser(viewer); err != nil {
		return err
	}
	if !policy.CanViewAdminDashboard(viewer) {
		return apperr.New(apperr.Forbidden, MsgUnauthorized)
	}
	return nil
}

// cached runs load unless a fresh answer for key is in the cache.
func cached[T any](c *utils.TTLCache, key string, load func() (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		if out, ok := v.(T); ok {
			return out, nil
		}
	}
	out, err := load()
	if err != nil {
		return out, err
	}
	c.Set(key, out, analyticsCacheTTL)
	return out, nil
}

func (s *AnalyticsService) Summary(ctx context.Context, viewer *models.User, period Period) (SummaryResponse, error) {
	if err := s.authorize(viewer); err != nil {
		return SummaryResponse{}, err
	}
	return cached(s.cache, "analytics:summary:"+string(period), func() (SummaryResponse, error) {
		end := s.now()
		w := db.Window{From: period.start(end), To: end}
		t, err := s.store.Totals(ctx, w)
		if err != nil {
			return SummaryResponse{}, storeErr(err, "analytics totals", "")
		}
		return SummaryResponse{
			Period:         period,
			Start:          w.From,
			End:            w.To,
			TotalPosts:     t.Posts,
			TotalUpvotes:   t.Upvotes,
			TotalDownvotes: t.Downvotes,
			TotalComments:  t.Comments,
		}, nil
	})
}

// buckets lays out aligned buckets covering the period: hours for a day,
// UTC days otherwise. The last bucket contains now.
func buckets(period Period, now time.Time) []TimeSeriesBucket {
	step := 24 * time.Hour
	if period == PeriodDay {
		step = time.Hour
	}
	last := now.Truncate(step)
	first := period.start(now).Truncate(step)
	if period == PeriodDay {
		first = last.Add(-23 * time.Hour)
	}

	var out []TimeSeriesBucket
	for at := first; !at.After(last); at = at.Add(step) {
		out = append(out, TimeSeriesBucket{BucketStart: at, BucketEnd: at.Add(step)})
	}
	return out
}

func (s *AnalyticsService) TimeSeries(ctx context.Context, viewer *models.User, period Period) (TimeSeriesResponse, error) {
	if err := s.authorize(viewer); err != nil {
		return TimeSeriesResponse{}, err
	}
	return cached(s.cache, "analytics:series:"+string(period), func() (TimeSeriesResponse, error) {
		out := buckets(period, s.now())
		first, end := out[0].BucketStart, out[len(out)-1].BucketEnd
		times, err := s.store.PostTimes(ctx, db.Window{From: first, To: end})
		if err != nil {
			return TimeSeriesResponse{}, storeErr(err, "analytics post times", "")
		}
		step := out[0].BucketEnd.Sub(first)
		for _, t := range times {
			i := int(t.Sub(first) / step)
			if i >= 0 && i < len(out) {
				out[i].PostCount++
			}
		}
		return TimeSeriesResponse{Period: period, Buckets: out}, nil
	})
}

func (s *AnalyticsService) TagBreakdown(ctx context.Context, viewer *models.User, period Period) (TagBreakdownResponse, error) {
	if err := s.authorize(viewer); err != nil {
		return TagBreakdownResponse{}, err
	}
	return cached(s.cache, "analytics:tags:"+string(period), func() (TagBreakdownResponse, error) {
		end := s.now()
		counts, err := s.store.TagCounts(ctx, db.Window{From: period.start(end), To: end})
		if err != nil {
			return TagBreakdownResponse{}, storeErr(err, "analytics tag counts", "")
		}
		out := make([]TagBucket, 0, len(counts))
		for _, c := range counts {
			out = append(out, TagBucket{TagID: c.TagID, TagName: c.TagName, PostCount: c.PostCount})
		}
		return TagBreakdownResponse{Period: period, TagBuckets: out}, nil
	})
}
