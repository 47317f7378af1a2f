// ===============================
// internal/services/catalog.go - Catalog Repository Contract
// ===============================

package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"seoulflix/internal/models"
)

// Catalog exposes CRUD and aggregate operations over dramas, episodes,
// likes, and comments, independent of the backing store. All adapters
// share one contract:
//
//   - likes are idempotent per (drama, user); a duplicate like is a no-op
//   - deleting a drama is idempotent and cascades to its children
//   - creating an episode under a missing drama is ErrNotFound
//   - episode ordering is lexicographic (season, episode), empty first
type Catalog interface {
	ListDramas(ctx context.Context) ([]models.Drama, error)
	SearchDramas(ctx context.Context, query string) ([]models.Drama, error)
	GetDrama(ctx context.Context, dramaID string) (*models.Drama, error)
	CreateDrama(ctx context.Context, req models.CreateDramaRequest) (*models.Drama, error)
	UpdateDrama(ctx context.Context, dramaID string, patch models.DramaPatch) (*models.Drama, error)
	DeleteDrama(ctx context.Context, dramaID string) error

	ListEpisodes(ctx context.Context, dramaID string) ([]models.Episode, error)
	CreateEpisode(ctx context.Context, dramaID string, req models.CreateEpisodeRequest) (*models.Episode, error)
	UpdateEpisode(ctx context.Context, dramaID, episodeID string, patch models.EpisodePatch) (*models.Episode, error)
	DeleteEpisode(ctx context.Context, dramaID, episodeID string) error

	LikeDrama(ctx context.Context, dramaID, userID string) (int, error)
	LikeCount(ctx context.Context, dramaID string) (int, error)

	ListComments(ctx context.Context, dramaID string) ([]models.Comment, error)
	AddComment(ctx context.Context, dramaID string, req models.CreateCommentRequest) (*models.Comment, error)
}

// CommentStreamer is an optional capability: a cancellable stream of full
// ordered comment-list snapshots, delivered whenever the underlying
// collection changes. Distinct from the one-shot ListComments. The stream
// closes when ctx is done.
type CommentStreamer interface {
	StreamComments(ctx context.Context, dramaID string) (<-chan []models.Comment, error)
}

// ErrNotFound is returned when a referenced entity does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError reports missing or malformed client input.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s required", strings.Join(e.Fields, ", "))
}

// NewValidationError builds a ValidationError for the given field names.
func NewValidationError(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// StorageError wraps any backing-store failure. Its message is logged, never
// echoed to the client.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// sortEpisodes orders episodes by (season, episode) ascending,
// lexicographic, empty strings first.
func sortEpisodes(episodes []models.Episode) {
	sort.Slice(episodes, func(i, j int) bool {
		return episodes[i].Less(episodes[j])
	})
}

// filterDramas keeps dramas whose title or description contains the query,
// case-insensitive. An empty query matches nothing.
func filterDramas(all []models.Drama, query string) []models.Drama {
	results := []models.Drama{}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return results
	}
	for _, d := range all {
		if strings.Contains(strings.ToLower(d.Title), q) ||
			strings.Contains(strings.ToLower(d.Description), q) {
			results = append(results, d)
		}
	}
	return results
}
