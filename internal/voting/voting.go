package voting

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// VoteType is stored as a small int. NoVote is never persisted; it means
// "remove my vote".
type VoteType int

const (
	Downvote VoteType = -1
	NoVote   VoteType = 0
	Upvote   VoteType = 1
)

func (v VoteType) Valid() bool {
	return v == Downvote || v == NoVote || v == Upvote
}

func (v VoteType) String() string {
	switch v {
	case Upvote:
		return "Upvote"
	case Downvote:
		return "Downvote"
	case NoVote:
		return "NoVote"
	}
	return fmt.Sprintf("VoteType(%d)", int(v))
}

// ParseVoteType accepts the enum names case-insensitively.
func ParseVoteType(s string) (VoteType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "upvote":
		return Upvote, true
	case "downvote":
		return Downvote, true
	case "novote":
		return NoVote, true
	}
	return NoVote, false
}

var ErrInvalidVoteType = errors.New("invalid vote type")

// MarshalJSON writes the enum name.
func (v VoteType) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// UnmarshalJSON accepts the enum name or its numeric value.
func (v *VoteType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		parsed, ok := ParseVoteType(name)
		if !ok {
			return ErrInvalidVoteType
		}
		*v = parsed
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil || !VoteType(n).Valid() {
		return ErrInvalidVoteType
	}
	*v = VoteType(n)
	return nil
}

// Action is the storage side effect needed to move from one vote state to
// another.
type Action int

const (
	Noop Action = iota
	Insert
	Update
	Delete
)

func (a Action) String() string {
	switch a {
	case Insert:
		return "insert"
	case Update:
		return "update"
	case Delete:
		return "delete"
	}
	return "noop"
}

// Resolve decides what to write for a (subject, voter) pair. existing is nil
// when there is no row. Re-casting the same vote is a Noop.
func Resolve(existing *VoteType, requested VoteType) Action {
	if existing == nil {
		if requested == NoVote {
			return Noop
		}
		return Insert
	}
	if requested == NoVote {
		return Delete
	}
	if requested == *existing {
		return Noop
	}
	return Update
}

// Kind is the type of thing being voted on.
type Kind string

const (
	PostSubject    Kind = "post"
	CommentSubject Kind = "comment"
)

// Subject identifies a votable row.
type Subject struct {
	Kind Kind
	ID   uuid.UUID
}

func Post(id uuid.UUID) Subject    { return Subject{Kind: PostSubject, ID: id} }
func Comment(id uuid.UUID) Subject { return Subject{Kind: CommentSubject, ID: id} }

// Tally is the aggregate vote state of one subject.
type Tally struct {
	Upvotes   int
	Downvotes int
}

func (t Tally) Score() int { return t.Upvotes - t.Downvotes }

// Add counts one stored vote.
func (t *Tally) Add(v VoteType) {
	switch v {
	case Upvote:
		t.Upvotes++
	case Downvote:
		t.Downvotes++
	}
}
