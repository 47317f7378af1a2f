// ===============================
// internal/services/memory.go - In-Memory Catalog Adapter
// ===============================

package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"seoulflix/internal/id"
	"seoulflix/internal/models"
)

// MemoryCatalog is a map-backed catalog used for local development and as
// the conformance double in tests. It honors the same contract as the
// Postgres and Firestore adapters, and implements CommentStreamer so the
// snapshot-stream behavior can be exercised without a document store.
type MemoryCatalog struct {
	mu      sync.RWMutex
	dramas  map[string]*memDrama
	seq     int64
	subs    map[string]map[int]chan []models.Comment
	nextSub int
}

type memDrama struct {
	drama    models.Drama
	seq      int64
	episodes map[string]models.Episode
	likedBy  map[string]bool
	comments []memComment
}

type memComment struct {
	comment models.Comment
	seq     int64
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		dramas: make(map[string]*memDrama),
		subs:   make(map[string]map[int]chan []models.Comment),
	}
}

func (s *MemoryCatalog) nextSeq() int64 {
	s.seq++
	return s.seq
}

func (s *MemoryCatalog) snapshotDramas() []struct {
	drama models.Drama
	seq   int64
} {
	out := make([]struct {
		drama models.Drama
		seq   int64
	}, 0, len(s.dramas))
	for _, d := range s.dramas {
		drama := d.drama
		drama.Likes = len(d.likedBy)
		out = append(out, struct {
			drama models.Drama
			seq   int64
		}{drama, d.seq})
	}
	return out
}

func (s *MemoryCatalog) ListDramas(ctx context.Context) ([]models.Drama, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.snapshotDramas()
	// newest uploadDate first; insertion order breaks same-instant ties
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].drama.UploadDate.Equal(rows[j].drama.UploadDate) {
			return rows[i].drama.UploadDate.After(rows[j].drama.UploadDate)
		}
		return rows[i].seq > rows[j].seq
	})

	dramas := make([]models.Drama, len(rows))
	for i, r := range rows {
		dramas[i] = r.drama
	}
	return dramas, nil
}

func (s *MemoryCatalog) SearchDramas(ctx context.Context, query string) ([]models.Drama, error) {
	all, err := s.ListDramas(ctx)
	if err != nil {
		return nil, err
	}

	return filterDramas(all, query), nil
}

func (s *MemoryCatalog) GetDrama(ctx context.Context, dramaID string) (*models.Drama, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.dramas[dramaID]
	if !ok {
		return nil, ErrNotFound
	}
	drama := d.drama
	drama.Likes = len(d.likedBy)
	return &drama, nil
}

func (s *MemoryCatalog) CreateDrama(ctx context.Context, req models.CreateDramaRequest) (*models.Drama, error) {
	if missing := req.MissingFields(); len(missing) > 0 {
		return nil, NewValidationError(missing...)
	}
	if req.Lang == "" {
		req.Lang = models.DefaultLang
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dramaID := id.New()
	for s.dramas[dramaID] != nil {
		dramaID = id.New()
	}

	drama := models.Drama{
		ID:          dramaID,
		Title:       req.Title,
		Description: req.Description,
		Thumbnail:   req.Thumbnail,
		Lang:        req.Lang,
		UploadDate:  time.Now().UTC(),
	}
	s.dramas[dramaID] = &memDrama{
		drama:    drama,
		seq:      s.nextSeq(),
		episodes: make(map[string]models.Episode),
		likedBy:  make(map[string]bool),
	}
	return &drama, nil
}

func (s *MemoryCatalog) UpdateDrama(ctx context.Context, dramaID string, patch models.DramaPatch) (*models.Drama, error) {
	if patch.IsEmpty() {
		return nil, NewValidationError("at least one field")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.dramas[dramaID]
	if !ok {
		return nil, ErrNotFound
	}
	patch.Apply(&d.drama)
	drama := d.drama
	drama.Likes = len(d.likedBy)
	return &drama, nil
}

func (s *MemoryCatalog) DeleteDrama(ctx context.Context, dramaID string) error {
	s.mu.Lock()
	delete(s.dramas, dramaID)
	s.mu.Unlock()

	// children vanish with the parent; open comment streams see an empty set
	s.publishComments(dramaID)
	return nil
}

func (s *MemoryCatalog) ListEpisodes(ctx context.Context, dramaID string) ([]models.Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	episodes := []models.Episode{}
	d, ok := s.dramas[dramaID]
	if !ok {
		return episodes, nil
	}
	for _, e := range d.episodes {
		episodes = append(episodes, e)
	}
	sortEpisodes(episodes)
	return episodes, nil
}

func (s *MemoryCatalog) CreateEpisode(ctx context.Context, dramaID string, req models.CreateEpisodeRequest) (*models.Episode, error) {
	if missing := req.MissingFields(); len(missing) > 0 {
		return nil, NewValidationError(missing...)
	}
	if req.Season == "" {
		req.Season = models.DefaultSeason
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.dramas[dramaID]
	if !ok {
		return nil, ErrNotFound
	}

	episodeID := id.New()
	for _, exists := d.episodes[episodeID]; exists; _, exists = d.episodes[episodeID] {
		episodeID = id.New()
	}

	episode := models.Episode{
		ID:         episodeID,
		DramaID:    dramaID,
		Season:     req.Season,
		Episode:    req.Episode,
		VideoID:    req.VideoID,
		UploadDate: time.Now().UTC(),
	}
	d.episodes[episodeID] = episode
	return &episode, nil
}

func (s *MemoryCatalog) UpdateEpisode(ctx context.Context, dramaID, episodeID string, patch models.EpisodePatch) (*models.Episode, error) {
	if patch.IsEmpty() {
		return nil, NewValidationError("at least one field")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.dramas[dramaID]
	if !ok {
		return nil, ErrNotFound
	}
	episode, ok := d.episodes[episodeID]
	if !ok {
		return nil, ErrNotFound
	}
	patch.Apply(&episode)
	d.episodes[episodeID] = episode
	return &episode, nil
}

func (s *MemoryCatalog) DeleteEpisode(ctx context.Context, dramaID, episodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.dramas[dramaID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := d.episodes[episodeID]; !ok {
		return ErrNotFound
	}
	delete(d.episodes, episodeID)
	return nil
}

func (s *MemoryCatalog) LikeDrama(ctx context.Context, dramaID, userID string) (int, error) {
	if userID == "" {
		return 0, NewValidationError("userId")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.dramas[dramaID]
	if !ok {
		return 0, ErrNotFound
	}
	d.likedBy[userID] = true // duplicate like is a no-op
	return len(d.likedBy), nil
}

func (s *MemoryCatalog) LikeCount(ctx context.Context, dramaID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.dramas[dramaID]
	if !ok {
		return 0, nil
	}
	return len(d.likedBy), nil
}

func (s *MemoryCatalog) commentsLocked(dramaID string) []models.Comment {
	comments := []models.Comment{}
	d, ok := s.dramas[dramaID]
	if !ok {
		return comments
	}
	rows := append([]memComment(nil), d.comments...)
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].comment.CreatedAt.Equal(rows[j].comment.CreatedAt) {
			return rows[i].comment.CreatedAt.After(rows[j].comment.CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})
	for _, r := range rows {
		comments = append(comments, r.comment)
	}
	return comments
}

func (s *MemoryCatalog) ListComments(ctx context.Context, dramaID string) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commentsLocked(dramaID), nil
}

func (s *MemoryCatalog) AddComment(ctx context.Context, dramaID string, req models.CreateCommentRequest) (*models.Comment, error) {
	if missing := req.MissingFields(); len(missing) > 0 {
		return nil, NewValidationError(missing...)
	}
	if req.User == "" {
		req.User = models.AnonUser
	}

	s.mu.Lock()
	d, ok := s.dramas[dramaID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}

	comment := models.Comment{
		ID:        id.New(),
		DramaID:   dramaID,
		User:      req.User,
		Text:      req.Text,
		CreatedAt: time.Now().UTC(),
	}
	d.comments = append(d.comments, memComment{comment: comment, seq: s.nextSeq()})
	s.mu.Unlock()

	s.publishComments(dramaID)
	return &comment, nil
}

// StreamComments delivers the current full ordered comment list immediately,
// then again after every change, until ctx is cancelled.
func (s *MemoryCatalog) StreamComments(ctx context.Context, dramaID string) (<-chan []models.Comment, error) {
	ch := make(chan []models.Comment, 8)

	s.mu.Lock()
	s.nextSub++
	subID := s.nextSub
	if s.subs[dramaID] == nil {
		s.subs[dramaID] = make(map[int]chan []models.Comment)
	}
	s.subs[dramaID][subID] = ch
	ch <- s.commentsLocked(dramaID)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs[dramaID], subID)
		s.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

func (s *MemoryCatalog) publishComments(dramaID string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subs := s.subs[dramaID]
	if len(subs) == 0 {
		return
	}
	snapshot := s.commentsLocked(dramaID)
	for _, ch := range subs {
		select {
		case ch <- snapshot:
		default: // slow subscriber keeps its last snapshot
		}
	}
}
