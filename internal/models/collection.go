package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const maxCollectionNameLength = 50

// CollectionColors is the fixed swatch palette a collection may use.
var CollectionColors = []string{
	"#ef4444", "#f97316", "#eab308", "#22c55e",
	"#06b6d4", "#3b82f6", "#8b5cf6", "#ec4899",
}

// Collection is a user-defined named grouping of media items. Membership
// lives in a join table; deleting a collection removes memberships but
// never the underlying items.
type Collection struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewCollection(userID, name string) (*Collection, error) {
	now := time.Now().UTC()
	c := &Collection{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Collection) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("collection name is required")
	}
	if len(c.Name) > maxCollectionNameLength {
		return fmt.Errorf("collection name must be at most %d characters", maxCollectionNameLength)
	}
	if c.Color != "" && !validCollectionColor(c.Color) {
		return fmt.Errorf("color %q is not in the palette", c.Color)
	}
	return nil
}

func validCollectionColor(color string) bool {
	for _, c := range CollectionColors {
		if c == color {
			return true
		}
	}
	return false
}
