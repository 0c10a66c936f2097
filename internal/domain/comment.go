package domain

import "time"

// VoteBucket holds the users that cast one kind of vote.
type VoteBucket struct {
	User StringSet `json:"user"`
}

// Votes holds a comment's up and down voters. A user is in at most one bucket.
type Votes struct {
	UpVotes   VoteBucket `json:"upVotes"`
	DownVotes VoteBucket `json:"downVotes"`
}

// Comment is a reply owned by its ticket.
type Comment struct {
	ID        string          `json:"id"`
	Content   string          `json:"content"`
	CreatedBy CreatorSnapshot `json:"createdBy"`
	Votes     Votes           `json:"votes"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// NewComment builds a comment authored by actor.
func NewComment(id, content string, actor *User, now time.Time) Comment {
	return Comment{
		ID:        id,
		Content:   content,
		CreatedBy: actor.Snapshot(),
		Votes: Votes{
			UpVotes:   VoteBucket{User: NewStringSet()},
			DownVotes: VoteBucket{User: NewStringSet()},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ToggleUpvote removes an existing upvote by userID, or records one and clears any downvote.
func (c *Comment) ToggleUpvote(userID string) {
	c.ensureVotes()
	toggleVote(c.Votes.UpVotes.User, c.Votes.DownVotes.User, userID)
}

// ToggleDownvote removes an existing downvote by userID, or records one and clears any upvote.
func (c *Comment) ToggleDownvote(userID string) {
	c.ensureVotes()
	toggleVote(c.Votes.DownVotes.User, c.Votes.UpVotes.User, userID)
}

func toggleVote(target, opposite StringSet, userID string) {
	if target.Remove(userID) {
		return
	}
	target.Add(userID)
	opposite.Remove(userID)
}

func (c *Comment) ensureVotes() {
	if c.Votes.UpVotes.User == nil {
		c.Votes.UpVotes.User = NewStringSet()
	}
	if c.Votes.DownVotes.User == nil {
		c.Votes.DownVotes.User = NewStringSet()
	}
}

// Edit replaces the content. Comments carry no audit trail.
func (c *Comment) Edit(content string, now time.Time) {
	c.Content = content
	c.UpdatedAt = now
}

func (c Comment) Clone() Comment {
	c.Votes = Votes{
		UpVotes:   VoteBucket{User: c.Votes.UpVotes.User.Clone()},
		DownVotes: VoteBucket{User: c.Votes.DownVotes.User.Clone()},
	}
	return c
}
