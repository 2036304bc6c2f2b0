// Package models defines the client-side data models of twosync: the records
// cached from the Twos export and the read-models built from them.
package models

import "github.com/dmitrijs2005/twosync/internal/timex"

// Entry is a top-level Twos note or list.
type Entry struct {
	// ID is globally unique and stable across syncs.
	ID           string          `json:"_id"`
	Title        string          `json:"title"`
	LastModified timex.Timestamp `json:"lastModified"`
}

// Post is an item that belongs to an Entry through EntryID.
type Post struct {
	ID           string          `json:"_id"`
	EntryID      string          `json:"entry_id"`
	Text         string          `json:"text"`
	Type         string          `json:"type"`
	LastModified timex.Timestamp `json:"lastModified"`
	URL          string          `json:"url,omitempty"`
	Tags         []string        `json:"tags,omitempty"`
}

// Task is an Entry merged with its posts. It is built on every read and
// never stored.
type Task struct {
	Entry
	Posts []Post `json:"posts"`
}

// Snapshot is the body returned by the Twos export endpoint. Missing arrays
// decode as nil and are treated as empty.
type Snapshot struct {
	Entries []Entry `json:"entries"`
	Posts   []Post  `json:"posts"`
}

// MergeTasks attaches posts to their entries, keeping the order of both
// inputs. Posts whose EntryID matches no entry are dropped.
func MergeTasks(entries []Entry, posts []Post) []Task {
	byEntry := GroupPosts(posts)
	tasks := make([]Task, 0, len(entries))
	for _, e := range entries {
		p := byEntry[e.ID]
		if p == nil {
			p = []Post{}
		}
		tasks = append(tasks, Task{Entry: e, Posts: p})
	}
	return tasks
}

// GroupPosts indexes posts by EntryID, keeping their relative order.
func GroupPosts(posts []Post) map[string][]Post {
	out := make(map[string][]Post)
	for _, p := range posts {
		out[p.EntryID] = append(out[p.EntryID], p)
	}
	return out
}
