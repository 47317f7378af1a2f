// ===============================
// internal/services/postgres.go - Relational Catalog Adapter
// ===============================

package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"seoulflix/internal/id"
	"seoulflix/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	queryTimeout = 10 * time.Second

	// How many times id generation is retried on a primary key collision.
	idRetries = 3

	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// PostgresCatalog is the relational catalog adapter. Like counts are always
// derived with an aggregate query; like insertion is idempotent through the
// composite primary key and ON CONFLICT DO NOTHING.
type PostgresCatalog struct {
	db *sqlx.DB
}

func NewPostgresCatalog(db *sqlx.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

func opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

const dramaWithLikes = `
	SELECT d.id,
	       d.title,
	       COALESCE(d.description, '') AS description,
	       d.thumbnail,
	       COALESCE(d.lang, '') AS lang,
	       d.upload_date,
	       COALESCE(COUNT(l.user_id), 0) AS likes
	  FROM dramas d
	  LEFT JOIN likes l ON l.drama_id = d.id`

func (s *PostgresCatalog) ListDramas(ctx context.Context) ([]models.Drama, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	query := dramaWithLikes + `
	 GROUP BY d.id
	 ORDER BY d.upload_date DESC NULLS LAST`

	dramas := []models.Drama{}
	if err := s.db.SelectContext(ctx, &dramas, query); err != nil {
		return nil, storageErr("list dramas", err)
	}
	return dramas, nil
}

func (s *PostgresCatalog) SearchDramas(ctx context.Context, query string) ([]models.Drama, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	q := dramaWithLikes + `
	 WHERE d.title ILIKE $1 OR d.description ILIKE $1
	 GROUP BY d.id
	 ORDER BY
		CASE WHEN d.title ILIKE $1 THEN 1 ELSE 2 END,
		d.upload_date DESC NULLS LAST`

	pattern := "%" + query + "%"
	dramas := []models.Drama{}
	if err := s.db.SelectContext(ctx, &dramas, q, pattern); err != nil {
		return nil, storageErr("search dramas", err)
	}
	return dramas, nil
}

func (s *PostgresCatalog) GetDrama(ctx context.Context, dramaID string) (*models.Drama, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	query := dramaWithLikes + `
	 WHERE d.id = $1
	 GROUP BY d.id`

	var drama models.Drama
	err := s.db.GetContext(ctx, &drama, query, dramaID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get drama", err)
	}
	return &drama, nil
}

func (s *PostgresCatalog) CreateDrama(ctx context.Context, req models.CreateDramaRequest) (*models.Drama, error) {
	if missing := req.MissingFields(); len(missing) > 0 {
		return nil, NewValidationError(missing...)
	}
	if req.Lang == "" {
		req.Lang = models.DefaultLang
	}

	ctx, cancel := opCtx(ctx)
	defer cancel()

	query := `
		INSERT INTO dramas (id, title, description, thumbnail, lang)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING upload_date`

	var lastErr error
	for attempt := 0; attempt < idRetries; attempt++ {
		drama := models.Drama{
			ID:          id.New(),
			Title:       req.Title,
			Description: req.Description,
			Thumbnail:   req.Thumbnail,
			Lang:        req.Lang,
		}
		err := s.db.QueryRowContext(ctx, query,
			drama.ID, drama.Title, drama.Description, drama.Thumbnail, drama.Lang).
			Scan(&drama.UploadDate)
		if err == nil {
			return &drama, nil
		}
		lastErr = err
		if pqCode(err) != pqUniqueViolation {
			break
		}
	}
	return nil, storageErr("create drama", lastErr)
}

func (s *PostgresCatalog) UpdateDrama(ctx context.Context, dramaID string, patch models.DramaPatch) (*models.Drama, error) {
	if patch.IsEmpty() {
		return nil, NewValidationError("at least one field")
	}

	ctx, cancel := opCtx(ctx)
	defer cancel()

	// nil patch fields arrive as NULL and leave the column untouched
	query := `
		UPDATE dramas SET
			title       = COALESCE($2, title),
			description = COALESCE($3, description),
			thumbnail   = COALESCE($4, thumbnail),
			lang        = COALESCE($5, lang)
		WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query,
		dramaID, patch.Title, patch.Description, patch.Thumbnail, patch.Lang)
	if err != nil {
		return nil, storageErr("update drama", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, storageErr("update drama", err)
	}
	if rows == 0 {
		return nil, ErrNotFound
	}

	return s.GetDrama(ctx, dramaID)
}

func (s *PostgresCatalog) DeleteDrama(ctx context.Context, dramaID string) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	// Idempotent: deleting an absent drama is acknowledged the same way.
	// Episodes, likes and comments cascade through the foreign keys.
	if _, err := s.db.ExecContext(ctx, "DELETE FROM dramas WHERE id = $1", dramaID); err != nil {
		return storageErr("delete drama", err)
	}
	return nil
}

func (s *PostgresCatalog) ListEpisodes(ctx context.Context, dramaID string) ([]models.Episode, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	query := `
		SELECT id,
		       drama_id,
		       COALESCE(season, '') AS season,
		       COALESCE(episode, '') AS episode,
		       COALESCE(video_id, '') AS video_id,
		       upload_date
		  FROM episodes
		 WHERE drama_id = $1
		 ORDER BY COALESCE(season, '') ASC, COALESCE(episode, '') ASC`

	episodes := []models.Episode{}
	if err := s.db.SelectContext(ctx, &episodes, query, dramaID); err != nil {
		return nil, storageErr("list episodes", err)
	}
	return episodes, nil
}

func (s *PostgresCatalog) CreateEpisode(ctx context.Context, dramaID string, req models.CreateEpisodeRequest) (*models.Episode, error) {
	if missing := req.MissingFields(); len(missing) > 0 {
		return nil, NewValidationError(missing...)
	}
	if req.Season == "" {
		req.Season = models.DefaultSeason
	}

	ctx, cancel := opCtx(ctx)
	defer cancel()

	query := `
		INSERT INTO episodes (id, drama_id, season, episode, video_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING upload_date`

	var lastErr error
	for attempt := 0; attempt < idRetries; attempt++ {
		episode := models.Episode{
			ID:      id.New(),
			DramaID: dramaID,
			Season:  req.Season,
			Episode: req.Episode,
			VideoID: req.VideoID,
		}
		err := s.db.QueryRowContext(ctx, query,
			episode.ID, episode.DramaID, episode.Season, episode.Episode, episode.VideoID).
			Scan(&episode.UploadDate)
		if err == nil {
			return &episode, nil
		}
		lastErr = err
		if pqCode(err) == pqForeignKeyViolation {
			// parent drama does not exist
			return nil, ErrNotFound
		}
		if pqCode(err) != pqUniqueViolation {
			break
		}
	}
	return nil, storageErr("create episode", lastErr)
}

func (s *PostgresCatalog) UpdateEpisode(ctx context.Context, dramaID, episodeID string, patch models.EpisodePatch) (*models.Episode, error) {
	if patch.IsEmpty() {
		return nil, NewValidationError("at least one field")
	}

	ctx, cancel := opCtx(ctx)
	defer cancel()

	query := `
		UPDATE episodes SET
			season   = COALESCE($3, season),
			episode  = COALESCE($4, episode),
			video_id = COALESCE($5, video_id)
		WHERE id = $2 AND drama_id = $1`

	result, err := s.db.ExecContext(ctx, query,
		dramaID, episodeID, patch.Season, patch.Episode, patch.VideoID)
	if err != nil {
		return nil, storageErr("update episode", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, storageErr("update episode", err)
	}
	if rows == 0 {
		return nil, ErrNotFound
	}

	var episode models.Episode
	err = s.db.GetContext(ctx, &episode, `
		SELECT id,
		       drama_id,
		       COALESCE(season, '') AS season,
		       COALESCE(episode, '') AS episode,
		       COALESCE(video_id, '') AS video_id,
		       upload_date
		  FROM episodes
		 WHERE id = $1`, episodeID)
	if err != nil {
		return nil, storageErr("update episode", err)
	}
	return &episode, nil
}

func (s *PostgresCatalog) DeleteEpisode(ctx context.Context, dramaID, episodeID string) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	result, err := s.db.ExecContext(ctx,
		"DELETE FROM episodes WHERE id = $1 AND drama_id = $2", episodeID, dramaID)
	if err != nil {
		return storageErr("delete episode", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return storageErr("delete episode", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresCatalog) LikeDrama(ctx context.Context, dramaID, userID string) (int, error) {
	if userID == "" {
		return 0, NewValidationError("userId")
	}

	ctx, cancel := opCtx(ctx)
	defer cancel()

	// Idempotent: a duplicate (drama, user) pair hits the composite primary
	// key and is silently ignored. Correctness under concurrent likes rests
	// entirely on that constraint; no in-process lock is held.
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO likes (drama_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		dramaID, userID)
	if err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			return 0, ErrNotFound
		}
		return 0, storageErr("like drama", err)
	}

	return s.LikeCount(ctx, dramaID)
}

func (s *PostgresCatalog) LikeCount(ctx context.Context, dramaID string) (int, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM likes WHERE drama_id = $1", dramaID).Scan(&count)
	if err != nil {
		return 0, storageErr("count likes", err)
	}
	return count, nil
}

func (s *PostgresCatalog) ListComments(ctx context.Context, dramaID string) ([]models.Comment, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	query := `
		SELECT id,
		       drama_id,
		       COALESCE(user_name, '') AS user_name,
		       text,
		       created_at
		  FROM comments
		 WHERE drama_id = $1
		 ORDER BY created_at DESC`

	comments := []models.Comment{}
	if err := s.db.SelectContext(ctx, &comments, query, dramaID); err != nil {
		return nil, storageErr("list comments", err)
	}
	return comments, nil
}

func (s *PostgresCatalog) AddComment(ctx context.Context, dramaID string, req models.CreateCommentRequest) (*models.Comment, error) {
	if missing := req.MissingFields(); len(missing) > 0 {
		return nil, NewValidationError(missing...)
	}
	if req.User == "" {
		req.User = models.AnonUser
	}

	ctx, cancel := opCtx(ctx)
	defer cancel()

	query := `
		INSERT INTO comments (id, drama_id, user_name, text)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	var lastErr error
	for attempt := 0; attempt < idRetries; attempt++ {
		comment := models.Comment{
			ID:      id.New(),
			DramaID: dramaID,
			User:    req.User,
			Text:    req.Text,
		}
		err := s.db.QueryRowContext(ctx, query,
			comment.ID, comment.DramaID, comment.User, comment.Text).
			Scan(&comment.CreatedAt)
		if err == nil {
			return &comment, nil
		}
		lastErr = err
		if pqCode(err) == pqForeignKeyViolation {
			return nil, ErrNotFound
		}
		if pqCode(err) != pqUniqueViolation {
			break
		}
	}
	return nil, storageErr("add comment", lastErr)
}
