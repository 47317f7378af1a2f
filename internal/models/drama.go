// ===============================
// internal/models/drama.go - Drama Catalog Models
// ===============================

package models

import "time"

// DefaultLang is applied when a drama is created without a language.
const DefaultLang = "uz"

// Drama is a serialized title in the catalog. Likes is always derived from
// the like set in the relational backend; the document backend stores it as
// a denormalized counter kept in step transactionally.
type Drama struct {
	ID          string    `json:"id" db:"id" firestore:"-"`
	Title       string    `json:"title" db:"title" firestore:"title"`
	Description string    `json:"description" db:"description" firestore:"description"`
	Thumbnail   string    `json:"thumbnail" db:"thumbnail" firestore:"thumbnail"`
	Lang        string    `json:"lang" db:"lang" firestore:"lang"`
	UploadDate  time.Time `json:"uploadDate" db:"upload_date" firestore:"uploadDate"`
	Likes       int       `json:"likes" db:"likes" firestore:"likes"`
}

// CreateDramaRequest carries the fields accepted on drama creation.
type CreateDramaRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
	Lang        string `json:"lang"`
}

// MissingFields returns the names of required fields that are absent.
func (r CreateDramaRequest) MissingFields() []string {
	var missing []string
	if r.Title == "" {
		missing = append(missing, "title")
	}
	if r.Description == "" {
		missing = append(missing, "description")
	}
	if r.Thumbnail == "" {
		missing = append(missing, "thumbnail")
	}
	return missing
}

// DramaPatch is a partial update: only non-nil fields are applied.
type DramaPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Thumbnail   *string `json:"thumbnail"`
	Lang        *string `json:"lang"`
}

// IsEmpty reports whether the patch carries no recognized field.
func (p DramaPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Thumbnail == nil && p.Lang == nil
}

// Apply copies the present fields onto the drama.
func (p DramaPatch) Apply(d *Drama) {
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.Thumbnail != nil {
		d.Thumbnail = *p.Thumbnail
	}
	if p.Lang != nil {
		d.Lang = *p.Lang
	}
}
