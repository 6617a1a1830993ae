package models

// Google Books volumes API response types.

type BooksSearchResponse struct {
	TotalItems int          `json:"totalItems"`
	Items      []BookVolume `json:"items"`
}

type BookVolume struct {
	ID         string         `json:"id"`
	VolumeInfo BookVolumeInfo `json:"volumeInfo"`
}

type BookVolumeInfo struct {
	Title         string         `json:"title"`
	Authors       []string       `json:"authors"`
	PublishedDate string         `json:"publishedDate"`
	Description   string         `json:"description"`
	Categories    []string       `json:"categories"`
	AverageRating float64        `json:"averageRating"`
	ImageLinks    BookImageLinks `json:"imageLinks"`
}

type BookImageLinks struct {
	Thumbnail      string `json:"thumbnail"`
	SmallThumbnail string `json:"smallThumbnail"`
}
