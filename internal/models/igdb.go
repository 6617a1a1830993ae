package models

// IGDB API response types based on https://api-docs.igdb.com

type IGDBGame struct {
	ID               int        `json:"id"`
	Name             string     `json:"name"`
	Summary          string     `json:"summary"`
	Cover            IGDBCover  `json:"cover"`
	GenreIDs         []int      `json:"genres"`
	Platforms        []IGDBName `json:"platforms"`
	FirstReleaseDate int64      `json:"first_release_date"`
	Rating           float64    `json:"rating"`
}

type IGDBCover struct {
	ID  int    `json:"id"`
	URL string `json:"url"`
}

type IGDBName struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type IGDBGenre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
