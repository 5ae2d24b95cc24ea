package db

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ourcity/internal/models"
	"ourcity/internal/pagination"
	"ourcity/internal/policy"
	"ourcity/internal/voting"
)

type voteKey struct {
	subject uuid.UUID
	voter   uuid.UUID
}

type bookmarkKey struct {
	user uuid.UUID
	post uuid.UUID
}

// Memory is an in-process store with the same semantics as Repository. It
// backs local development without postgres and the service tests.
type Memory struct {
	mu sync.RWMutex

	users        map[uuid.UUID]models.User
	tags         map[uuid.UUID]models.Tag
	posts        map[uuid.UUID]models.Post
	postTags     map[uuid.UUID][]uuid.UUID
	comments     map[uuid.UUID]models.Comment
	postVotes    map[voteKey]models.PostVote
	commentVotes map[voteKey]models.CommentVote
	reports      map[uuid.UUID]models.UserReport
	bookmarks    map[bookmarkKey]models.Bookmark

	now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users:        map[uuid.UUID]models.User{},
		tags:         map[uuid.UUID]models.Tag{},
		posts:        map[uuid.UUID]models.Post{},
		postTags:     map[uuid.UUID][]uuid.UUID{},
		comments:     map[uuid.UUID]models.Comment{},
		postVotes:    map[voteKey]models.PostVote{},
		commentVotes: map[voteKey]models.CommentVote{},
		reports:      map[uuid.UUID]models.UserReport{},
		bookmarks:    map[bookmarkKey]models.Bookmark{},
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (m *Memory) stamp(created, updated *time.Time) {
	now := m.now()
	if created.IsZero() {
		*created = now
	}
	if updated.IsZero() {
		*updated = *created
	}
}

// firstN sorts rows by less and keeps those after the cursor, at most n.
func firstN[T any](rows []T, less func(a, b T) bool, after func(T) bool, n int) []T {
	sort.Slice(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
	out := make([]T, 0, n)
	for _, r := range rows {
		if after != nil && !after(r) {
			continue
		}
		out = append(out, r)
		if len(out) == n {
			break
		}
	}
	return out
}

// Users

func (m *Memory) CreateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return ErrDuplicate
		}
	}
	ensureID(&u.ID)
	m.stamp(&u.CreatedAt, &u.UpdatedAt)
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) UpdateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	for id, other := range m.users {
		if id != u.ID && other.Username == u.Username {
			return ErrDuplicate
		}
	}
	u.UpdatedAt = m.now()
	stored.Username = u.Username
	stored.IsAdmin = u.IsAdmin
	stored.IsBanned = u.IsBanned
	stored.IsDeleted = u.IsDeleted
	stored.UpdatedAt = u.UpdatedAt
	m.users[u.ID] = stored
	return nil
}

func (m *Memory) reportCountLocked(target uuid.UUID) int {
	n := 0
	for _, r := range m.reports {
		if r.TargetUserID == target {
			n++
		}
	}
	return n
}

func (m *Memory) ListUsers(ctx context.Context, f UserFilter) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := func(u models.User) pagination.Key {
		return pagination.Key{At: u.CreatedAt, Score: u.ReportCount, ID: u.ID}
	}

	var rows []models.User
	for _, u := range m.users {
		u.ReportCount = m.reportCountLocked(u.ID)
		if u.IsDeleted {
			continue
		}
		if f.IsBanned != nil && u.IsBanned != *f.IsBanned {
			continue
		}
		if f.MinReports != nil && u.ReportCount < *f.MinReports {
			continue
		}
		rows = append(rows, u)
	}

	var after func(models.User) bool
	if f.Cursor != nil {
		if cur, ok := m.users[*f.Cursor]; ok && !cur.IsDeleted {
			cur.ReportCount = m.reportCountLocked(cur.ID)
			ck := key(cur)
			after = func(u models.User) bool { return f.Order.After(ck, key(u)) }
		}
	}
	less := func(a, b models.User) bool { return f.Order.Less(key(a), key(b)) }
	return firstN(rows, less, after, f.Fetch), nil
}

// Reports

func (m *Memory) CountReports(ctx context.Context, targetID uuid.UUID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reportCountLocked(targetID), nil
}

func (m *Memory) FindReport(ctx context.Context, reporterID, targetID uuid.UUID) (*models.UserReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.reports {
		if r.ReporterID == reporterID && r.TargetUserID == targetID {
			r := r
			return &r, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) CreateReport(ctx context.Context, rep *models.UserReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reports {
		if r.ReporterID == rep.ReporterID && r.TargetUserID == rep.TargetUserID {
			return ErrDuplicate
		}
	}
	ensureID(&rep.ID)
	if rep.ReportedAt.IsZero() {
		rep.ReportedAt = m.now()
	}
	m.reports[rep.ID] = *rep
	return nil
}

func (m *Memory) DeleteReport(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reports, id)
	return nil
}

// Tags

func sortTags(tags []models.Tag) []models.Tag {
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags
}

func (m *Memory) ListTags(ctx context.Context) ([]models.Tag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tags := make([]models.Tag, 0, len(m.tags))
	for _, t := range m.tags {
		tags = append(tags, t)
	}
	return sortTags(tags), nil
}

func (m *Memory) GetTags(ctx context.Context, ids []uuid.UUID) ([]models.Tag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tagsLocked(ids), nil
}

func (m *Memory) tagsLocked(ids []uuid.UUID) []models.Tag {
	seen := map[uuid.UUID]bool{}
	tags := []models.Tag{}
	for _, id := range ids {
		if t, ok := m.tags[id]; ok && !seen[id] {
			seen[id] = true
			tags = append(tags, t)
		}
	}
	return sortTags(tags)
}

func (m *Memory) EnsureTags(ctx context.Context, tags []models.Tag) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := 0
	for _, t := range tags {
		if _, ok := m.tags[t.ID]; ok {
			continue
		}
		taken := false
		for _, existing := range m.tags {
			if existing.Name == t.Name {
				taken = true
				break
			}
		}
		if taken {
			continue
		}
		ensureID(&t.ID)
		m.tags[t.ID] = t
		created++
	}
	return created, nil
}

// Posts

func (m *Memory) CreatePost(ctx context.Context, p *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[p.AuthorID]; !ok {
		return ErrNotFound
	}
	ensureID(&p.ID)
	m.stamp(&p.CreatedAt, &p.UpdatedAt)
	if p.Visibility == "" {
		p.Visibility = models.Published
	}
	ids := make([]uuid.UUID, 0, len(p.Tags))
	for _, t := range p.Tags {
		ids = append(ids, t.ID)
	}
	stored := *p
	stored.Tags = nil
	m.posts[p.ID] = stored
	m.postTags[p.ID] = ids
	p.Tags = m.tagsLocked(ids)
	return nil
}

func (m *Memory) loadPostLocked(id uuid.UUID) (models.Post, bool) {
	p, ok := m.posts[id]
	if !ok {
		return p, false
	}
	p.Tags = m.tagsLocked(m.postTags[id])
	p.Author = m.users[p.AuthorID]
	return p, true
}

func (m *Memory) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.loadPostLocked(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *Memory) UpdatePost(ctx context.Context, p *models.Post, tags []models.Tag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.posts[p.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Title = p.Title
	stored.Description = p.Description
	stored.Location = p.Location
	stored.Latitude = p.Latitude
	stored.Longitude = p.Longitude
	stored.Visibility = p.Visibility
	stored.IsDeleted = p.IsDeleted
	stored.UpdatedAt = p.UpdatedAt
	m.posts[p.ID] = stored
	if tags != nil {
		ids := make([]uuid.UUID, 0, len(tags))
		for _, t := range tags {
			ids = append(ids, t.ID)
		}
		m.postTags[p.ID] = ids
		p.Tags = m.tagsLocked(ids)
	}
	return nil
}

func (m *Memory) postScoreLocked(id uuid.UUID) int {
	var t voting.Tally
	for k, v := range m.postVotes {
		if k.subject == id {
			t.Add(v.VoteType)
		}
	}
	return t.Score()
}

func (m *Memory) ListPosts(ctx context.Context, f PostFilter) ([]models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	scores := map[uuid.UUID]int{}
	key := func(p models.Post) pagination.Key {
		return pagination.Key{At: p.CreatedAt, Score: scores[p.ID], ID: p.ID}
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	wanted := map[uuid.UUID]bool{}
	for _, id := range f.TagIDs {
		wanted[id] = true
	}

	var rows []models.Post
	for id := range m.posts {
		p, _ := m.loadPostLocked(id)
		if p.IsDeleted || p.Author.IsBanned {
			continue
		}
		if !f.IncludeHidden && p.Visibility != models.Published {
			continue
		}
		if f.ReportThreshold > 0 && policy.MeetsReportThreshold(m.reportCountLocked(p.AuthorID), f.ReportThreshold) {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(p.Title), term) &&
			!strings.Contains(strings.ToLower(p.Description), term) {
			continue
		}
		if len(wanted) > 0 {
			match := false
			for _, t := range p.Tags {
				if wanted[t.ID] {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		p.Author = models.User{}
		scores[p.ID] = m.postScoreLocked(p.ID)
		rows = append(rows, p)
	}

	var after func(models.Post) bool
	if f.Cursor != nil {
		if cur, ok := m.posts[*f.Cursor]; ok && !cur.IsDeleted {
			ck := pagination.Key{At: cur.CreatedAt, Score: m.postScoreLocked(cur.ID), ID: cur.ID}
			after = func(p models.Post) bool { return f.Order.After(ck, key(p)) }
		}
	}
	less := func(a, b models.Post) bool { return f.Order.Less(key(a), key(b)) }
	return firstN(rows, less, after, f.Fetch), nil
}

func (m *Memory) FillPostStats(ctx context.Context, posts []*models.Post, viewer *uuid.UUID) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range posts {
		p.Votes = voting.Tally{}
		p.CommentCount = 0
		p.ViewerVote = voting.NoVote
		p.Bookmarked = false
		for k, v := range m.postVotes {
			if k.subject != p.ID {
				continue
			}
			p.Votes.Add(v.VoteType)
			if viewer != nil && k.voter == *viewer {
				p.ViewerVote = v.VoteType
			}
		}
		for _, c := range m.comments {
			if c.PostID == p.ID && !c.IsDeleted {
				p.CommentCount++
			}
		}
		if viewer != nil {
			_, p.Bookmarked = m.bookmarks[bookmarkKey{user: *viewer, post: p.ID}]
		}
	}
	return nil
}

// Comments

func (m *Memory) CreateComment(ctx context.Context, c *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[c.PostID]; !ok {
		return ErrNotFound
	}
	if _, ok := m.users[c.AuthorID]; !ok {
		return ErrNotFound
	}
	ensureID(&c.ID)
	m.stamp(&c.CreatedAt, &c.UpdatedAt)
	m.comments[c.ID] = *c
	return nil
}

func (m *Memory) GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	c.Author = m.users[c.AuthorID]
	return &c, nil
}

func (m *Memory) UpdateComment(ctx context.Context, c *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.comments[c.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Content = c.Content
	stored.IsDeleted = c.IsDeleted
	stored.UpdatedAt = c.UpdatedAt
	m.comments[c.ID] = stored
	return nil
}

func (m *Memory) ListComments(ctx context.Context, f CommentFilter) ([]models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := func(c models.Comment) pagination.Key { return pagination.Key{At: c.CreatedAt, ID: c.ID} }
	var rows []models.Comment
	for _, c := range m.comments {
		if c.PostID == f.PostID && !c.IsDeleted {
			c.Author = m.users[c.AuthorID]
			rows = append(rows, c)
		}
	}
	var after func(models.Comment) bool
	if f.Cursor != nil {
		if cur, ok := m.comments[*f.Cursor]; ok && !cur.IsDeleted {
			ck := key(cur)
			after = func(c models.Comment) bool { return pagination.NewestFirst.After(ck, key(c)) }
		}
	}
	less := func(a, b models.Comment) bool { return pagination.NewestFirst.Less(key(a), key(b)) }
	return firstN(rows, less, after, f.Fetch), nil
}

func (m *Memory) FillCommentStats(ctx context.Context, comments []*models.Comment, viewer *uuid.UUID) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range comments {
		c.Votes = voting.Tally{}
		c.ViewerVote = voting.NoVote
		for k, v := range m.commentVotes {
			if k.subject != c.ID {
				continue
			}
			c.Votes.Add(v.VoteType)
			if viewer != nil && k.voter == *viewer {
				c.ViewerVote = v.VoteType
			}
		}
	}
	return nil
}

// Votes

func (m *Memory) CastVote(ctx context.Context, s voting.Subject, voterID uuid.UUID, requested voting.VoteType, at time.Time) (voting.Action, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := voteKey{subject: s.ID, voter: voterID}
	var existing *voting.VoteType

	switch s.Kind {
	case voting.PostSubject:
		p, ok := m.posts[s.ID]
		if !ok || p.IsDeleted {
			return voting.Noop, ErrNotFound
		}
		if v, ok := m.postVotes[k]; ok {
			existing = &v.VoteType
		}
		action := voting.Resolve(existing, requested)
		switch action {
		case voting.Insert:
			m.postVotes[k] = models.PostVote{ID: uuid.New(), PostID: s.ID, VoterID: voterID, VoteType: requested, VotedAt: at}
		case voting.Update:
			v := m.postVotes[k]
			v.VoteType, v.VotedAt = requested, at
			m.postVotes[k] = v
		case voting.Delete:
			delete(m.postVotes, k)
		}
		p.UpdatedAt = at
		m.posts[s.ID] = p
		return action, nil

	case voting.CommentSubject:
		c, ok := m.comments[s.ID]
		if !ok || c.IsDeleted {
			return voting.Noop, ErrNotFound
		}
		if v, ok := m.commentVotes[k]; ok {
			existing = &v.VoteType
		}
		action := voting.Resolve(existing, requested)
		switch action {
		case voting.Insert:
			m.commentVotes[k] = models.CommentVote{ID: uuid.New(), CommentID: s.ID, VoterID: voterID, VoteType: requested, VotedAt: at}
		case voting.Update:
			v := m.commentVotes[k]
			v.VoteType, v.VotedAt = requested, at
			m.commentVotes[k] = v
		case voting.Delete:
			delete(m.commentVotes, k)
		}
		c.UpdatedAt = at
		m.comments[s.ID] = c
		return action, nil
	}
	return voting.Noop, ErrNotFound
}

// VoteRows counts stored vote rows for one (subject, voter) pair.
func (m *Memory) VoteRows(s voting.Subject, voterID uuid.UUID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	k := voteKey{subject: s.ID, voter: voterID}
	n := 0
	if s.Kind == voting.PostSubject {
		if _, ok := m.postVotes[k]; ok {
			n++
		}
	} else if _, ok := m.commentVotes[k]; ok {
		n++
	}
	return n
}

// Bookmarks

func (m *Memory) ToggleBookmark(ctx context.Context, userID, postID uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[postID]
	if !ok || p.IsDeleted {
		return false, ErrNotFound
	}
	k := bookmarkKey{user: userID, post: postID}
	if _, ok := m.bookmarks[k]; ok {
		delete(m.bookmarks, k)
		return false, nil
	}
	m.bookmarks[k] = models.Bookmark{ID: uuid.New(), UserID: userID, PostID: postID, BookmarkedAt: at}
	return true, nil
}

func (m *Memory) ListBookmarks(ctx context.Context, f BookmarkFilter) ([]models.Bookmark, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := func(b models.Bookmark) pagination.Key { return pagination.Key{At: b.BookmarkedAt, ID: b.ID} }
	var rows []models.Bookmark
	var cursor *models.Bookmark
	for _, b := range m.bookmarks {
		if b.UserID != f.UserID {
			continue
		}
		if f.Cursor != nil && b.ID == *f.Cursor {
			b := b
			cursor = &b
		}
		p, ok := m.loadPostLocked(b.PostID)
		if !ok || p.IsDeleted {
			continue
		}
		p.Author = models.User{}
		b.Post = p
		rows = append(rows, b)
	}
	var after func(models.Bookmark) bool
	if cursor != nil {
		ck := key(*cursor)
		after = func(b models.Bookmark) bool { return pagination.NewestFirst.After(ck, key(b)) }
	}
	less := func(a, b models.Bookmark) bool { return pagination.NewestFirst.Less(key(a), key(b)) }
	return firstN(rows, less, after, f.Fetch), nil
}

// Analytics

func (m *Memory) Totals(ctx context.Context, w Window) (Totals, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var t Totals
	for _, p := range m.posts {
		if !p.IsDeleted && w.Contains(p.CreatedAt) {
			t.Posts++
		}
	}
	for _, c := range m.comments {
		if !c.IsDeleted && w.Contains(c.CreatedAt) {
			t.Comments++
		}
	}
	count := func(v voting.VoteType, at time.Time) {
		if !w.Contains(at) {
			return
		}
		switch v {
		case voting.Upvote:
			t.Upvotes++
		case voting.Downvote:
			t.Downvotes++
		}
	}
	for _, v := range m.postVotes {
		count(v.VoteType, v.VotedAt)
	}
	for _, v := range m.commentVotes {
		count(v.VoteType, v.VotedAt)
	}
	return t, nil
}

func (m *Memory) PostTimes(ctx context.Context, w Window) ([]time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var times []time.Time
	for _, p := range m.posts {
		if !p.IsDeleted && w.Contains(p.CreatedAt) {
			times = append(times, p.CreatedAt)
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	return times, nil
}

func (m *Memory) TagCounts(ctx context.Context, w Window) ([]TagCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := map[uuid.UUID]int64{}
	for id, p := range m.posts {
		if p.IsDeleted || !w.Contains(p.CreatedAt) {
			continue
		}
		for _, tagID := range m.postTags[id] {
			counts[tagID]++
		}
	}
	out := make([]TagCount, 0, len(m.tags))
	for _, t := range m.tags {
		out = append(out, TagCount{TagID: t.ID, TagName: t.Name, PostCount: counts[t.ID]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PostCount != out[j].PostCount {
			return out[i].PostCount > out[j].PostCount
		}
		return out[i].TagName < out[j].TagName
	})
	return out, nil
}
