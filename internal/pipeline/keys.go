package pipeline

import (
	"fmt"
	"strings"
)

// Storage key namespaces encode the lifecycle stage of an object. Keys under
// the derivative prefixes are written once and never reused.
const (
	IntakePrefix    = "intake/"
	OriginalPrefix  = "derivative/original/"
	StandardPrefix  = "derivative/standard/"
	ThumbnailPrefix = "derivative/thumbnail/"
)

// IntakeKey composes the storage key for a freshly uploaded image awaiting
// processing. The token must be unique per upload; ext includes the dot.
func IntakeKey(shelterID, dogID, token, ext string) string {
	return fmt.Sprintf("%s%s/%s/%s%s", IntakePrefix, shelterID, dogID, token, ext)
}

// ParseIntakeKey splits an object key of the form
// intake/{shelterID}/{dogID}/{filename}. ok is false for keys under other
// prefixes or with an unexpected segment count; such objects are not intake
// uploads and are ignored by the trigger.
func ParseIntakeKey(key string) (shelterID, dogID, filename string, ok bool) {
	rest, found := strings.CutPrefix(key, IntakePrefix)
	if !found {
		return "", "", "", false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

func originalKey(dogID, imageID, ext string) string {
	return fmt.Sprintf("%s%s/%s%s", OriginalPrefix, dogID, imageID, ext)
}

func standardKey(dogID, imageID string) string {
	return fmt.Sprintf("%s%s/%s.png", StandardPrefix, dogID, imageID)
}

func thumbnailKey(dogID, imageID string) string {
	return fmt.Sprintf("%s%s/%s.png", ThumbnailPrefix, dogID, imageID)
}
