package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ourcity/internal/voting"
)

type voteTable struct {
	parent string
	votes  string
	column string
}

var voteTables = map[voting.Kind]voteTable{
	voting.PostSubject:    {parent: "posts", votes: "post_votes", column: "post_id"},
	voting.CommentSubject: {parent: "comments", votes: "comment_votes", column: "comment_id"},
}

// CastVote applies a vote request in one transaction. The parent row is
// locked first so two requests from the same voter cannot both see "no
// vote"; the unique (subject, voter) index backs this up. The parent's
// updated_at is touched even when nothing changes.
func (r *Repository) CastVote(ctx context.Context, s voting.Subject, voterID uuid.UUID, requested voting.VoteType, at time.Time) (voting.Action, error) {
	t, ok := voteTables[s.Kind]
	if !ok {
		return voting.Noop, ErrNotFound
	}

	action := voting.Noop
	err := r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var locked []uuid.UUID
		err := tx.Table(t.parent).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND is_deleted = ?", s.ID, false).
			Pluck("id", &locked).Error
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return ErrNotFound
		}

		var current []voting.VoteType
		err = tx.Table(t.votes).
			Where(t.column+" = ? AND voter_id = ?", s.ID, voterID).
			Pluck("vote_type", &current).Error
		if err != nil {
			return err
		}
		var existing *voting.VoteType
		if len(current) > 0 {
			existing = &current[0]
		}

		action = voting.Resolve(existing, requested)
		switch action {
		case voting.Insert:
			err = tx.Table(t.votes).
				Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: t.column}, {Name: "voter_id"}},
					DoUpdates: clause.AssignmentColumns([]string{"vote_type", "voted_at"}),
				}).
				Create(map[string]interface{}{
					"id":        uuid.New(),
					t.column:    s.ID,
					"voter_id":  voterID,
					"vote_type": requested,
					"voted_at":  at,
				}).Error
		case voting.Update:
			err = tx.Table(t.votes).
				Where(t.column+" = ? AND voter_id = ?", s.ID, voterID).
				Updates(map[string]interface{}{"vote_type": requested, "voted_at": at}).Error
		case voting.Delete:
			err = tx.Exec("DELETE FROM "+t.votes+" WHERE "+t.column+" = ? AND voter_id = ?", s.ID, voterID).Error
		}
		if err != nil {
			return err
		}

		return tx.Table(t.parent).Where("id = ?", s.ID).UpdateColumn("updated_at", at).Error
	})
	return action, err
}
