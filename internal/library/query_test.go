package library

import (
	"testing"
	"time"

	"kata/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func testItem(title string, mediaType models.MediaType, status models.Status) models.MediaItem {
	item, err := models.NewMediaItem("user-1", mediaType, title, status)
	if err != nil {
		panic(err)
	}
	return *item
}

func testItems() []models.MediaItem {
	reading := testItem("Dune", models.TypeBook, models.StatusReading)
	reading.Author = ptr("Frank Herbert")
	reading.Genres = []string{"Sci-Fi", "Classic"}
	reading.Rating = ptr(4.5)

	wantToRead := testItem("Hyperion", models.TypeBook, models.StatusWantToRead)
	wantToRead.Rating = ptr(3.0)

	playing := testItem("Hades", models.TypeGame, models.StatusPlaying)
	playing.Platform = ptr("Switch")
	playing.Genres = []string{"Roguelike"}
	playing.Rating = ptr(5.0)

	watching := testItem("Severance", models.TypeSeries, models.StatusWatching)
	watching.Rating = ptr(2.0)

	completed := testItem("Arrival", models.TypeMovie, models.StatusCompleted)

	return []models.MediaItem{reading, wantToRead, playing, watching, completed}
}

func TestFilter_TypeAndGroupedStatus(t *testing.T) {
	items := testItems()

	filtered := Filter(items, Filters{Type: "BOOK", Status: GroupInProgress, Rating: "ALL", Genre: "ALL"})
	require.Len(t, filtered, 1)
	assert.Equal(t, "Dune", filtered[0].Title)
}

func TestFilter_GroupedStatusSpansTypes(t *testing.T) {
	filtered := Filter(testItems(), Filters{Status: GroupInProgress})
	require.Len(t, filtered, 3)
	assert.Equal(t, "Dune", filtered[0].Title)
	assert.Equal(t, "Hades", filtered[1].Title)
	assert.Equal(t, "Severance", filtered[2].Title)
}

func TestFilter_RatingBuckets(t *testing.T) {
	items := testItems()

	low := Filter(items, Filters{Rating: "LOW"})
	require.Len(t, low, 1)
	assert.Equal(t, "Severance", low[0].Title)

	mid := Filter(items, Filters{Rating: "MID"})
	require.Len(t, mid, 1)
	assert.Equal(t, "Hyperion", mid[0].Title)

	high := Filter(items, Filters{Rating: "HIGH"})
	require.Len(t, high, 2)
}

// The two nil-rating conventions differ on purpose: the buckets answer
// "how did I rate this", so an unrated item belongs to none of them, while
// sorting still needs a total order, so there nil ranks as 0.
func TestNilRating_NoBucketButSortsAsZero(t *testing.T) {
	unrated := testItem("Unrated", models.TypeMovie, models.StatusCompleted)
	rated := testItem("Rated", models.TypeMovie, models.StatusCompleted)
	rated.Rating = ptr(1.0)
	items := []models.MediaItem{unrated, rated}

	for _, bucket := range []string{"LOW", "MID", "HIGH"} {
		for _, item := range Filter(items, Filters{Rating: bucket}) {
			assert.NotEqual(t, "Unrated", item.Title, bucket)
		}
	}

	sorted := Sort(items, SortRatingAsc)
	assert.Equal(t, []string{"Unrated", "Rated"}, titles(sorted))
}

func TestFilter_GenreCaseInsensitive(t *testing.T) {
	filtered := Filter(testItems(), Filters{Genre: "sci-fi"})
	require.Len(t, filtered, 1)
	assert.Equal(t, "Dune", filtered[0].Title)
}

func TestFilter_Composition(t *testing.T) {
	// All dimensions AND together.
	filtered := Filter(testItems(), Filters{Type: "BOOK", Status: GroupInProgress, Rating: "HIGH", Genre: "Classic"})
	require.Len(t, filtered, 1)
	assert.Equal(t, "Dune", filtered[0].Title)

	none := Filter(testItems(), Filters{Type: "BOOK", Rating: "LOW"})
	assert.Empty(t, none)
}

func TestSort_RatingDescTreatsNilAsZero(t *testing.T) {
	a := testItem("A", models.TypeMovie, models.StatusCompleted)
	a.Rating = ptr(3.5)
	b := testItem("B", models.TypeMovie, models.StatusCompleted)
	c := testItem("C", models.TypeMovie, models.StatusCompleted)
	c.Rating = ptr(5.0)

	sorted := Sort([]models.MediaItem{a, b, c}, SortRatingDesc)
	assert.Equal(t, []string{"C", "A", "B"}, titles(sorted))
}

func TestSort_Stable(t *testing.T) {
	// Equal ratings keep their original relative order.
	a := testItem("First", models.TypeMovie, models.StatusCompleted)
	b := testItem("Second", models.TypeMovie, models.StatusCompleted)
	c := testItem("Third", models.TypeMovie, models.StatusCompleted)
	for _, item := range []*models.MediaItem{&a, &b, &c} {
		item.Rating = ptr(4.0)
	}

	sorted := Sort([]models.MediaItem{a, b, c}, SortRatingDesc)
	assert.Equal(t, []string{"First", "Second", "Third"}, titles(sorted))
}

func TestSort_CreatedAt(t *testing.T) {
	older := testItem("Older", models.TypeMovie, models.StatusCompleted)
	older.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := testItem("Newer", models.TypeMovie, models.StatusCompleted)
	newer.CreatedAt = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, []string{"Newer", "Older"}, titles(Sort([]models.MediaItem{older, newer}, SortCreatedDesc)))
	assert.Equal(t, []string{"Older", "Newer"}, titles(Sort([]models.MediaItem{newer, older}, SortCreatedAsc)))
}

func TestSort_TitleIgnoresCase(t *testing.T) {
	a := testItem("zelda", models.TypeGame, models.StatusPlaying)
	b := testItem("Animal Crossing", models.TypeGame, models.StatusPlaying)
	c := testItem("Mario", models.TypeGame, models.StatusPlaying)

	sorted := Sort([]models.MediaItem{a, b, c}, SortTitleAsc)
	assert.Equal(t, []string{"Animal Crossing", "Mario", "zelda"}, titles(sorted))
}

func TestSort_DoesNotMutateInput(t *testing.T) {
	items := testItems()
	original := titles(items)
	Sort(items, SortTitleAsc)
	assert.Equal(t, original, titles(items))
}

func TestSearch_ShortQueryReturnsAll(t *testing.T) {
	items := testItems()
	assert.Len(t, Search(items, ""), len(items))
	assert.Len(t, Search(items, "d"), len(items))
	assert.Len(t, Search(items, " x "), len(items))
}

func TestSearch_MatchesAcrossFields(t *testing.T) {
	items := testItems()

	byTitle := Search(items, "dune")
	require.Len(t, byTitle, 1)
	assert.Equal(t, "Dune", byTitle[0].Title)

	byAuthor := Search(items, "herbert")
	require.Len(t, byAuthor, 1)
	assert.Equal(t, "Dune", byAuthor[0].Title)

	byPlatform := Search(items, "switch")
	require.Len(t, byPlatform, 1)
	assert.Equal(t, "Hades", byPlatform[0].Title)

	byGenre := Search(items, "rogue")
	require.Len(t, byGenre, 1)
	assert.Equal(t, "Hades", byGenre[0].Title)

	assert.Empty(t, Search(items, "zzzz"))
}

func titles(items []models.MediaItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Title
	}
	return out
}
