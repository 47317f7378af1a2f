// ===============================
// internal/models/comment.go
// ===============================

package models

import "time"

// AnonUser is the display name for comments posted without a user name.
const AnonUser = "Anon"

// Comment is a free-text annotation on a drama, listed newest first.
type Comment struct {
	ID        string    `json:"id" db:"id" firestore:"-"`
	DramaID   string    `json:"-" db:"drama_id" firestore:"-"`
	User      string    `json:"user" db:"user_name" firestore:"userName"`
	Text      string    `json:"text" db:"text" firestore:"text"`
	CreatedAt time.Time `json:"createdAt" db:"created_at" firestore:"createdAt"`
}

// CreateCommentRequest carries the fields accepted when adding a comment.
type CreateCommentRequest struct {
	User string `json:"user"`
	Text string `json:"text"`
}

// MissingFields returns the names of required fields that are absent.
func (r CreateCommentRequest) MissingFields() []string {
	if r.Text == "" {
		return []string{"text"}
	}
	return nil
}

// Like marks that a user liked a drama; (dramaId, userId) is unique.
type Like struct {
	DramaID string `json:"dramaId" db:"drama_id"`
	UserID  string `json:"userId" db:"user_id"`
}
