package models

// TMDB API response types based on https://developer.themoviedb.org/reference

type TMDBSearchResponse struct {
	Page         int          `json:"page"`
	Results      []TMDBResult `json:"results"`
	TotalPages   int          `json:"total_pages"`
	TotalResults int          `json:"total_results"`
}

// TMDBResult covers both movie and TV entries; movies populate
// Title/ReleaseDate, TV entries populate Name/FirstAirDate.
type TMDBResult struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	GenreIDs     []int   `json:"genre_ids"`
	VoteAverage  float64 `json:"vote_average"`
}

type TMDBGenreList struct {
	Genres []TMDBGenre `json:"genres"`
}

type TMDBGenre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
