package models

import "time"

// File is a registered media file served by the streaming endpoints.
// Secret feeds the per-file access hash; API handlers build response
// bodies by hand so it stays server-side even though the cache
// round-trips it through JSON.
type File struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Mime      string    `json:"mime"`
	SizeBytes int64     `json:"size_bytes"`
	ObjectKey string    `json:"object_key"`
	Provider  string    `json:"provider"`
	Secret    string    `json:"secret"`
	ThumbKey  string    `json:"thumb_key,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
