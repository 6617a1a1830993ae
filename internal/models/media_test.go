package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestNewMediaItem_Valid(t *testing.T) {
	item, err := NewMediaItem("user-1", TypeBook, "Dune", StatusReading)
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, item.CreatedAt, item.UpdatedAt)
}

func TestMediaItem_StatusMustMatchType(t *testing.T) {
	_, err := NewMediaItem("user-1", TypeBook, "Dune", StatusPlaying)
	assert.Error(t, err)

	// Movies have no DROPPED state.
	_, err = NewMediaItem("user-1", TypeMovie, "Arrival", StatusDropped)
	assert.Error(t, err)

	_, err = NewMediaItem("user-1", TypeSeries, "Severance", StatusDropped)
	assert.NoError(t, err)
}

func TestMediaItem_Validate(t *testing.T) {
	item, err := NewMediaItem("user-1", TypeGame, "Hades", StatusPlaying)
	require.NoError(t, err)

	item.Rating = ptr(5.5)
	assert.Error(t, item.Validate())
	item.Rating = ptr(4.5)
	assert.NoError(t, item.Validate())

	item.Review = ptr(strings.Repeat("x", 501))
	assert.Error(t, item.Validate())
	item.Review = ptr(strings.Repeat("x", 500))
	assert.NoError(t, item.Validate())

	item.Title = ""
	assert.Error(t, item.Validate())
}

func TestMediaItem_RowRoundTrip(t *testing.T) {
	item, err := NewMediaItem("user-1", TypeGame, "Hades", StatusPlaying)
	require.NoError(t, err)
	item.CoverURL = "https://example.com/hades.jpg"
	item.Rating = ptr(4.5)
	item.Platform = ptr("Switch")
	item.ReleaseYear = ptr(2020)
	item.Genres = []string{"Roguelike", "Action"}
	item.Review = ptr("Tight loop.")

	got := ItemFromRow(item.Row())
	assert.Equal(t, item, got)
}

func TestMediaItem_RowRoundTripEmptyOptionals(t *testing.T) {
	item, err := NewMediaItem("user-1", TypeMovie, "Arrival", StatusWantToWatch)
	require.NoError(t, err)

	row := item.Row()
	assert.Nil(t, row.CoverURL)
	assert.Nil(t, row.Rating)

	got := ItemFromRow(row)
	assert.Equal(t, item, got)
}

func TestInProgressStatus(t *testing.T) {
	assert.Equal(t, StatusReading, TypeBook.InProgressStatus())
	assert.Equal(t, StatusPlaying, TypeGame.InProgressStatus())
	assert.Equal(t, StatusWatching, TypeMovie.InProgressStatus())
	assert.Equal(t, StatusWatching, TypeSeries.InProgressStatus())
}

func TestCollection_Validate(t *testing.T) {
	_, err := NewCollection("user-1", "")
	assert.Error(t, err)

	_, err = NewCollection("user-1", strings.Repeat("x", 51))
	assert.Error(t, err)

	c, err := NewCollection("user-1", "Cozy games")
	require.NoError(t, err)

	c.Color = "#123456"
	assert.Error(t, c.Validate())
	c.Color = CollectionColors[0]
	assert.NoError(t, c.Validate())
}
