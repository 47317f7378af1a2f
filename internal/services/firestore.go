// ===============================
// internal/services/firestore.go - Document Catalog Adapter
// ===============================

package services

import (
	"context"
	"errors"
	"time"

	"seoulflix/internal/id"
	"seoulflix/internal/models"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	dramasCollection   = "dramas"
	episodesCollection = "episodes"
	likesCollection    = "likes"
	commentsCollection = "comments"
)

// FirestoreCatalog is the document catalog adapter. Dramas are top-level
// documents; episodes, likes and comments live in sub-collections under
// each drama. The like count is a denormalized counter on the drama
// document, incremented transactionally together with a per-user marker
// document so a duplicate like stays a no-op.
type FirestoreCatalog struct {
	client *firestore.Client
}

func NewFirestoreCatalog(client *firestore.Client) *FirestoreCatalog {
	return &FirestoreCatalog{client: client}
}

func (s *FirestoreCatalog) dramaRef(dramaID string) *firestore.DocumentRef {
	return s.client.Collection(dramasCollection).Doc(dramaID)
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func (s *FirestoreCatalog) ListDramas(ctx context.Context) ([]models.Drama, error) {
	iter := s.client.Collection(dramasCollection).
		OrderBy("uploadDate", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	dramas := []models.Drama{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, storageErr("list dramas", err)
		}
		var drama models.Drama
		if err := doc.DataTo(&drama); err != nil {
			return nil, storageErr("list dramas", err)
		}
		drama.ID = doc.Ref.ID
		dramas = append(dramas, drama)
	}
	return dramas, nil
}

func (s *FirestoreCatalog) SearchDramas(ctx context.Context, query string) ([]models.Drama, error) {
	// Firestore has no substring search; filter the title-ordered set in
	// process, as the original admin screens did
	all, err := s.ListDramas(ctx)
	if err != nil {
		return nil, err
	}
	return filterDramas(all, query), nil
}

func (s *FirestoreCatalog) GetDrama(ctx context.Context, dramaID string) (*models.Drama, error) {
	doc, err := s.dramaRef(dramaID).Get(ctx)
	if isNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get drama", err)
	}

	var drama models.Drama
	if err := doc.DataTo(&drama); err != nil {
		return nil, storageErr("get drama", err)
	}
	drama.ID = doc.Ref.ID
	return &drama, nil
}

func (s *FirestoreCatalog) CreateDrama(ctx context.Context, req models.CreateDramaRequest) (*models.Drama, error) {
	if missing := req.MissingFields(); len(missing) > 0 {
		return nil, NewValidationError(missing...)
	}
	if req.Lang == "" {
		req.Lang = models.DefaultLang
	}

	drama := models.Drama{
		Title:       req.Title,
		Description: req.Description,
		Thumbnail:   req.Thumbnail,
		Lang:        req.Lang,
		UploadDate:  time.Now().UTC(),
		Likes:       0,
	}

	var lastErr error
	for attempt := 0; attempt < idRetries; attempt++ {
		drama.ID = id.New()
		_, err := s.dramaRef(drama.ID).Create(ctx, drama)
		if err == nil {
			return &drama, nil
		}
		lastErr = err
		if status.Code(err) != codes.AlreadyExists {
			break
		}
	}
	return nil, storageErr("create drama", lastErr)
}

func (s *FirestoreCatalog) UpdateDrama(ctx context.Context, dramaID string, patch models.DramaPatch) (*models.Drama, error) {
	if patch.IsEmpty() {
		return nil, NewValidationError("at least one field")
	}

	updates := []firestore.Update{}
	if patch.Title != nil {
		updates = append(updates, firestore.Update{Path: "title", Value: *patch.Title})
	}
	if patch.Description != nil {
		updates = append(updates, firestore.Update{Path: "description", Value: *patch.Description})
	}
	if patch.Thumbnail != nil {
		updates = append(updates, firestore.Update{Path: "thumbnail", Value: *patch.Thumbnail})
	}
	if patch.Lang != nil {
		updates = append(updates, firestore.Update{Path: "lang", Value: *patch.Lang})
	}

	_, err := s.dramaRef(dramaID).Update(ctx, updates)
	if isNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("update drama", err)
	}
	return s.GetDrama(ctx, dramaID)
}

func (s *FirestoreCatalog) DeleteDrama(ctx context.Context, dramaID string) error {
	ref := s.dramaRef(dramaID)

	// sub-collections do not cascade; delete their documents explicitly
	bw := s.client.BulkWriter(ctx)
	for _, sub := range []string{episodesCollection, likesCollection, commentsCollection} {
		refs := ref.Collection(sub).DocumentRefs(ctx)
		for {
			child, err := refs.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				return storageErr("delete drama", err)
			}
			if _, err := bw.Delete(child); err != nil {
				return storageErr("delete drama", err)
			}
		}
	}
	bw.End()

	// idempotent: deleting an absent document succeeds
	if _, err := ref.Delete(ctx); err != nil {
		return storageErr("delete drama", err)
	}
	return nil
}

func (s *FirestoreCatalog) ListEpisodes(ctx context.Context, dramaID string) ([]models.Episode, error) {
	iter := s.dramaRef(dramaID).Collection(episodesCollection).Documents(ctx)
	defer iter.Stop()

	episodes := []models.Episode{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, storageErr("list episodes", err)
		}
		var episode models.Episode
		if err := doc.DataTo(&episode); err != nil {
			return nil, storageErr("list episodes", err)
		}
		episode.ID = doc.Ref.ID
		episode.DramaID = dramaID
		episodes = append(episodes, episode)
	}
	sortEpisodes(episodes)
	return episodes, nil
}

func (s *FirestoreCatalog) CreateEpisode(ctx context.Context, dramaID string, req models.CreateEpisodeRequest) (*models.Episode, error) {
	if missing := req.MissingFields(); len(missing) > 0 {
		return nil, NewValidationError(missing...)
	}
	if req.Season == "" {
		req.Season = models.DefaultSeason
	}

	// a nonexistent parent would otherwise just grow an orphan sub-collection
	if _, err := s.GetDrama(ctx, dramaID); err != nil {
		return nil, err
	}

	episode := models.Episode{
		DramaID:    dramaID,
		Season:     req.Season,
		Episode:    req.Episode,
		VideoID:    req.VideoID,
		UploadDate: time.Now().UTC(),
	}

	var lastErr error
	for attempt := 0; attempt < idRetries; attempt++ {
		episode.ID = id.New()
		ref := s.dramaRef(dramaID).Collection(episodesCollection).Doc(episode.ID)
		_, err := ref.Create(ctx, episode)
		if err == nil {
			return &episode, nil
		}
		lastErr = err
		if status.Code(err) != codes.AlreadyExists {
			break
		}
	}
	return nil, storageErr("create episode", lastErr)
}

func (s *FirestoreCatalog) UpdateEpisode(ctx context.Context, dramaID, episodeID string, patch models.EpisodePatch) (*models.Episode, error) {
	if patch.IsEmpty() {
		return nil, NewValidationError("at least one field")
	}

	updates := []firestore.Update{}
	if patch.Season != nil {
		updates = append(updates, firestore.Update{Path: "season", Value: *patch.Season})
	}
	if patch.Episode != nil {
		updates = append(updates, firestore.Update{Path: "episode", Value: *patch.Episode})
	}
	if patch.VideoID != nil {
		updates = append(updates, firestore.Update{Path: "videoId", Value: *patch.VideoID})
	}

	ref := s.dramaRef(dramaID).Collection(episodesCollection).Doc(episodeID)
	_, err := ref.Update(ctx, updates)
	if isNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("update episode", err)
	}

	doc, err := ref.Get(ctx)
	if err != nil {
		return nil, storageErr("update episode", err)
	}
	var episode models.Episode
	if err := doc.DataTo(&episode); err != nil {
		return nil, storageErr("update episode", err)
	}
	episode.ID = doc.Ref.ID
	episode.DramaID = dramaID
	return &episode, nil
}

func (s *FirestoreCatalog) DeleteEpisode(ctx context.Context, dramaID, episodeID string) error {
	ref := s.dramaRef(dramaID).Collection(episodesCollection).Doc(episodeID)
	_, err := ref.Delete(ctx, firestore.Exists)
	if isNotFound(err) {
		return ErrNotFound
	}
	if err != nil {
		return storageErr("delete episode", err)
	}
	return nil
}

// LikeDrama performs the two coordinated writes of the document model in
// one transaction: create the per-user marker and bump the counter. When
// the marker already exists nothing is written.
func (s *FirestoreCatalog) LikeDrama(ctx context.Context, dramaID, userID string) (int, error) {
	if userID == "" {
		return 0, NewValidationError("userId")
	}

	dramaRef := s.dramaRef(dramaID)
	markerRef := dramaRef.Collection(likesCollection).Doc(userID)

	var likes int
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		dramaDoc, err := tx.Get(dramaRef)
		if err != nil {
			return err
		}
		var drama models.Drama
		if err := dramaDoc.DataTo(&drama); err != nil {
			return err
		}

		_, err = tx.Get(markerRef)
		if err == nil {
			likes = drama.Likes
			return nil // already liked
		}
		if !isNotFound(err) {
			return err
		}

		likes = drama.Likes + 1
		if err := tx.Create(markerRef, map[string]interface{}{
			"userId":    userID,
			"createdAt": time.Now().UTC(),
		}); err != nil {
			return err
		}
		return tx.Update(dramaRef, []firestore.Update{
			{Path: "likes", Value: firestore.Increment(1)},
		})
	})
	if isNotFound(err) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, storageErr("like drama", err)
	}
	return likes, nil
}

func (s *FirestoreCatalog) LikeCount(ctx context.Context, dramaID string) (int, error) {
	drama, err := s.GetDrama(ctx, dramaID)
	if errors.Is(err, ErrNotFound) {
		return 0, nil // no distinct not-found signal for counts
	}
	if err != nil {
		return 0, err
	}
	return drama.Likes, nil
}

func (s *FirestoreCatalog) commentsQuery(dramaID string) firestore.Query {
	return s.dramaRef(dramaID).Collection(commentsCollection).
		OrderBy("createdAt", firestore.Desc)
}

func (s *FirestoreCatalog) ListComments(ctx context.Context, dramaID string) ([]models.Comment, error) {
	iter := s.commentsQuery(dramaID).Documents(ctx)
	defer iter.Stop()
	return collectComments(dramaID, iter)
}

func (s *FirestoreCatalog) AddComment(ctx context.Context, dramaID string, req models.CreateCommentRequest) (*models.Comment, error) {
	if missing := req.MissingFields(); len(missing) > 0 {
		return nil, NewValidationError(missing...)
	}
	if req.User == "" {
		req.User = models.AnonUser
	}

	if _, err := s.GetDrama(ctx, dramaID); err != nil {
		return nil, err
	}

	comment := models.Comment{
		DramaID:   dramaID,
		User:      req.User,
		Text:      req.Text,
		CreatedAt: time.Now().UTC(),
	}

	var lastErr error
	for attempt := 0; attempt < idRetries; attempt++ {
		comment.ID = id.New()
		ref := s.dramaRef(dramaID).Collection(commentsCollection).Doc(comment.ID)
		_, err := ref.Create(ctx, comment)
		if err == nil {
			return &comment, nil
		}
		lastErr = err
		if status.Code(err) != codes.AlreadyExists {
			break
		}
	}
	return nil, storageErr("add comment", lastErr)
}

// StreamComments observes the comment sub-collection through a snapshot
// listener: every delivery is the current full ordered result set, not a
// delta. The stream ends when ctx is cancelled.
func (s *FirestoreCatalog) StreamComments(ctx context.Context, dramaID string) (<-chan []models.Comment, error) {
	snapshots := s.commentsQuery(dramaID).Snapshots(ctx)
	ch := make(chan []models.Comment, 8)

	go func() {
		defer close(ch)
		defer snapshots.Stop()
		for {
			snap, err := snapshots.Next()
			if err != nil {
				return
			}
			comments, err := collectComments(dramaID, snap.Documents)
			if err != nil {
				return
			}
			select {
			case ch <- comments:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

func collectComments(dramaID string, iter *firestore.DocumentIterator) ([]models.Comment, error) {
	comments := []models.Comment{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, storageErr("list comments", err)
		}
		var comment models.Comment
		if err := doc.DataTo(&comment); err != nil {
			return nil, storageErr("list comments", err)
		}
		comment.ID = doc.Ref.ID
		comment.DramaID = dramaID
		comments = append(comments, comment)
	}
	return comments, nil
}
