// ===============================
// internal/models/episode.go
// ===============================

package models

import "time"

// DefaultSeason is applied when an episode is created without a season.
const DefaultSeason = "1"

// Episode is a playable unit of a drama. Season and episode numbers are
// opaque text sort keys, compared lexicographically; they are not parsed
// as integers.
type Episode struct {
	ID         string    `json:"id" db:"id" firestore:"-"`
	DramaID    string    `json:"-" db:"drama_id" firestore:"-"`
	Season     string    `json:"season" db:"season" firestore:"season"`
	Episode    string    `json:"episode" db:"episode" firestore:"episode"`
	VideoID    string    `json:"videoId" db:"video_id" firestore:"videoId"`
	UploadDate time.Time `json:"uploadDate" db:"upload_date" firestore:"uploadDate"`
}

// SortKey is the episode ordering key: (season, episode) ascending,
// empty values first.
func (e Episode) SortKey() (string, string) {
	return e.Season, e.Episode
}

// Less orders episodes lexicographically by (season, episode).
func (e Episode) Less(other Episode) bool {
	if e.Season != other.Season {
		return e.Season < other.Season
	}
	return e.Episode < other.Episode
}

// CreateEpisodeRequest carries the fields accepted on episode creation.
type CreateEpisodeRequest struct {
	Season  string `json:"season"`
	Episode string `json:"episode"`
	VideoID string `json:"videoId"`
}

// MissingFields returns the names of required fields that are absent.
func (r CreateEpisodeRequest) MissingFields() []string {
	var missing []string
	if r.Episode == "" {
		missing = append(missing, "episode")
	}
	if r.VideoID == "" {
		missing = append(missing, "videoId")
	}
	return missing
}

// EpisodePatch is a partial episode update: only non-nil fields are applied.
type EpisodePatch struct {
	Season  *string `json:"season"`
	Episode *string `json:"episode"`
	VideoID *string `json:"videoId"`
}

// IsEmpty reports whether the patch carries no recognized field.
func (p EpisodePatch) IsEmpty() bool {
	return p.Season == nil && p.Episode == nil && p.VideoID == nil
}

// Apply copies the present fields onto the episode.
func (p EpisodePatch) Apply(e *Episode) {
	if p.Season != nil {
		e.Season = *p.Season
	}
	if p.Episode != nil {
		e.Episode = *p.Episode
	}
	if p.VideoID != nil {
		e.VideoID = *p.VideoID
	}
}
