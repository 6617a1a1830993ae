package models

// SearchResult is the canonical shape every provider response is
// normalized into before leaving the proxy routes.
type SearchResult struct {
	ID          string    `json:"id"`
	Type        MediaType `json:"type"`
	Title       string    `json:"title"`
	CoverURL    string    `json:"cover_url,omitempty"`
	ReleaseDate string    `json:"release_date,omitempty"`
	ReleaseYear int       `json:"release_year,omitempty"`
	Genres      []string  `json:"genres,omitempty"`
	Author      string    `json:"author,omitempty"`
	Platform    string    `json:"platform,omitempty"`
	Description string    `json:"description,omitempty"`
	Score       float64   `json:"score,omitempty"`
}

// GenreOption pairs a provider genre id with its display name, as returned
// in availableGenres on upcoming responses.
type GenreOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
