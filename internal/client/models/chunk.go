package models

import "github.com/dmitrijs2005/twosync/internal/timex"

// IndexedPost is the post shape uploaded to the index. URL and Tags are
// always present, empty when the source had none.
type IndexedPost struct {
	Text         string          `json:"text"`
	ID           string          `json:"_id"`
	Type         string          `json:"type"`
	LastModified timex.Timestamp `json:"lastModified"`
	URL          string          `json:"url"`
	Tags         []string        `json:"tags"`
}

// IndexedEntry is an entry enriched with its posts and a synthesized Content
// field used for semantic search.
type IndexedEntry struct {
	Title        string          `json:"title"`
	ID           string          `json:"_id"`
	LastModified timex.Timestamp `json:"lastModified"`
	Posts        []IndexedPost   `json:"posts"`
	Content      string          `json:"content"`
}

// Chunk is one uploadable batch of indexed entries.
type Chunk struct {
	Entries []IndexedEntry `json:"entries"`
}
