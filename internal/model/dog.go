// Package model contains struct definitions shared across packages.
package model

import (
	"strings"
	"time"
)

// InteractionType is a user's reaction to a dog listing.
type InteractionType string

const (
	InteractionWag   InteractionType = "wag"
	InteractionGrowl InteractionType = "growl"
)

// Valid reports whether the interaction type is one of the known values.
func (t InteractionType) Valid() bool {
	return t == InteractionWag || t == InteractionGrowl
}

// ImageRecord links one uploaded image to its three derivative blob keys. It
// is appended to a dog's image list only after all three blobs exist.
type ImageRecord struct {
	ImageID          string    `json:"image_id"`
	OriginalKey      string    `json:"original_key"`
	StandardKey      string    `json:"standard_key"`
	ThumbnailKey     string    `json:"thumbnail_key"`
	ContentType      string    `json:"content_type"`
	OriginalFilename string    `json:"original_filename"`
	CreatedAt        time.Time `json:"created_at"`
}

// Dog represents a listing keyed by (shelter_id, dog_id).
type Dog struct {
	ShelterID        string        `json:"shelter_id"`
	DogID            string        `json:"dog_id"`
	Shelter          string        `json:"shelter"`
	City             string        `json:"city"`
	State            string        `json:"state"`
	Name             string        `json:"dog_name"`
	Species          string        `json:"species"`
	Description      string        `json:"description"`
	Birthday         string        `json:"dog_birthday,omitempty"`
	Weight           float64       `json:"dog_weight,omitempty"`
	Color            string        `json:"dog_color,omitempty"`
	ShelterEntryDate string        `json:"shelter_entry_date,omitempty"`
	Images           []ImageRecord `json:"images"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// Interaction records a single wag or growl by a user for a dog.
type Interaction struct {
	UserID          string          `json:"user_id"`
	DogKey          string          `json:"dog_key"`
	ShelterID       string          `json:"shelter_id"`
	DogID           string          `json:"dog_id"`
	InteractionType InteractionType `json:"interaction_type"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ShelterID derives the composite shelter identifier from location data:
// "{STATE}#{CITY}#{SHELTER}" upper-cased with spaces replaced by underscores.
func ShelterID(shelter, city, state string) string {
	id := state + "#" + city + "#" + shelter
	return strings.ToUpper(strings.ReplaceAll(id, " ", "_"))
}

// DogKey joins shelter and dog identifiers for the interactions table.
func DogKey(shelterID, dogID string) string {
	return shelterID + "#" + dogID
}

// AcceptedSpecies reports whether the species passes the shelter's
// Labrador-only placement rule.
func AcceptedSpecies(species string) bool {
	s := strings.ToLower(species)
	return strings.Contains(s, "labrador") || strings.Contains(s, "lab")
}
