package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type MediaType string

const (
	TypeBook   MediaType = "BOOK"
	TypeGame   MediaType = "GAME"
	TypeMovie  MediaType = "MOVIE"
	TypeSeries MediaType = "SERIES"
)

type Status string

const (
	StatusWantToRead  Status = "WANT_TO_READ"
	StatusReading     Status = "READING"
	StatusWantToPlay  Status = "WANT_TO_PLAY"
	StatusPlaying     Status = "PLAYING"
	StatusWantToWatch Status = "WANT_TO_WATCH"
	StatusWatching    Status = "WATCHING"
	StatusCompleted   Status = "COMPLETED"
	StatusDropped     Status = "DROPPED"
)

// statusesByType fixes which statuses are legal for each media type.
// Movies have no DROPPED state.
var statusesByType = map[MediaType][]Status{
	TypeBook:   {StatusWantToRead, StatusReading, StatusCompleted, StatusDropped},
	TypeGame:   {StatusWantToPlay, StatusPlaying, StatusCompleted, StatusDropped},
	TypeMovie:  {StatusWantToWatch, StatusWatching, StatusCompleted},
	TypeSeries: {StatusWantToWatch, StatusWatching, StatusCompleted, StatusDropped},
}

func (t MediaType) Valid() bool {
	_, ok := statusesByType[t]
	return ok
}

// ValidStatus reports whether s is allowed for items of type t.
func (t MediaType) ValidStatus(s Status) bool {
	for _, allowed := range statusesByType[t] {
		if allowed == s {
			return true
		}
	}
	return false
}

// InProgressStatus returns the "in progress" status for t
// (READING, PLAYING or WATCHING).
func (t MediaType) InProgressStatus() Status {
	switch t {
	case TypeBook:
		return StatusReading
	case TypeGame:
		return StatusPlaying
	default:
		return StatusWatching
	}
}

const maxReviewLength = 500

// MediaItem is a single tracked piece of media. Type is fixed at creation
// and constrains which statuses and metadata fields are meaningful.
type MediaItem struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Type        MediaType `json:"type"`
	Title       string    `json:"title"`
	CoverURL    string    `json:"cover_url,omitempty"`
	Status      Status    `json:"status"`
	Rating      *float64  `json:"rating"`
	Author      *string   `json:"author,omitempty"`
	Platform    *string   `json:"platform,omitempty"`
	ReleaseYear *int      `json:"release_year,omitempty"`
	Genres      []string  `json:"genres,omitempty"`
	Review      *string   `json:"review,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewMediaItem builds a validated item with a fresh id and timestamps.
func NewMediaItem(userID string, mediaType MediaType, title string, status Status) (*MediaItem, error) {
	now := time.Now().UTC()
	item := &MediaItem{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      mediaType,
		Title:     title,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}

func (m *MediaItem) Validate() error {
	if m.Title == "" {
		return fmt.Errorf("title is required")
	}
	if !m.Type.Valid() {
		return fmt.Errorf("unknown media type %q", m.Type)
	}
	if !m.Type.ValidStatus(m.Status) {
		return fmt.Errorf("status %q is not valid for type %q", m.Status, m.Type)
	}
	if m.Rating != nil && (*m.Rating < 0 || *m.Rating > 5) {
		return fmt.Errorf("rating must be between 0 and 5")
	}
	if m.Review != nil && len(*m.Review) > maxReviewLength {
		return fmt.Errorf("review must be at most %d characters", maxReviewLength)
	}
	return nil
}

// Touch stamps the item as mutated.
func (m *MediaItem) Touch() {
	m.UpdatedAt = time.Now().UTC()
}

// MediaItemRow is the backend insert/scan shape of a MediaItem. Optional
// fields are pointers so absent values round-trip as SQL NULLs.
type MediaItemRow struct {
	ID          string
	UserID      string
	Type        string
	Title       string
	CoverURL    *string
	Status      string
	Rating      *float64
	Author      *string
	Platform    *string
	ReleaseYear *int
	Genres      []string
	Review      *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Row converts the item to its backend shape.
func (m *MediaItem) Row() MediaItemRow {
	row := MediaItemRow{
		ID:          m.ID,
		UserID:      m.UserID,
		Type:        string(m.Type),
		Title:       m.Title,
		Status:      string(m.Status),
		Rating:      m.Rating,
		Author:      m.Author,
		Platform:    m.Platform,
		ReleaseYear: m.ReleaseYear,
		Genres:      m.Genres,
		Review:      m.Review,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.CoverURL != "" {
		row.CoverURL = &m.CoverURL
	}
	return row
}

// ItemFromRow converts a backend row back into a MediaItem.
func ItemFromRow(row MediaItemRow) *MediaItem {
	item := &MediaItem{
		ID:          row.ID,
		UserID:      row.UserID,
		Type:        MediaType(row.Type),
		Title:       row.Title,
		Status:      Status(row.Status),
		Rating:      row.Rating,
		Author:      row.Author,
		Platform:    row.Platform,
		ReleaseYear: row.ReleaseYear,
		Genres:      row.Genres,
		Review:      row.Review,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if row.CoverURL != nil {
		item.CoverURL = *row.CoverURL
	}
	return item
}
