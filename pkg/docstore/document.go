package docstore

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Document is a snapshot of a stored document: its store-assigned ID and fields.
type Document struct {
	ID   string
	Data map[string]any
}

// Decode converts a document into a typed record using the record's json tags.
// Timestamps (time.Time) survive the round trip as RFC 3339 strings.
func Decode[T any](doc Document) (T, error) {
	var target T

	// If the data already is the right type, just return it
	if v, ok := any(doc.Data).(T); ok {
		return v, nil
	}

	bytes, err := json.Marshal(doc.Data)
	if err != nil {
		return target, fmt.Errorf("encode document %s: %w", doc.ID, err)
	}
	if err := json.Unmarshal(bytes, &target); err != nil {
		return target, fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	return target, nil
}

// SplitDocPath splits "users/u1/notifications/n1" into its collection path
// ("users/u1/notifications") and document ID ("n1").
func SplitDocPath(docPath string) (collection, id string, err error) {
	parts := strings.Split(strings.Trim(docPath, "/"), "/")
	if len(parts) < 2 || len(parts)%2 != 0 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPath, docPath)
	}
	for _, p := range parts {
		if p == "" {
			return "", "", fmt.Errorf("%w: %q", ErrInvalidPath, docPath)
		}
	}
	return strings.Join(parts[:len(parts)-1], "/"), parts[len(parts)-1], nil
}

// ValidCollection reports whether path names a collection (odd number of segments).
func ValidCollection(path string) bool {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts)%2 != 1 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}
