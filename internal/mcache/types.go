// Package mcache defines the core types and collaborator interfaces for the
// metadata ingestion worker.
package mcache

import (
	"fmt"
	"time"
)

// Priority orders work items in the queue. Lower values dequeue first.
type Priority int

const (
	// PriorityIncoming marks directly submitted albums. They preempt crawl
	// work so user-visible requests are never starved by background discovery.
	PriorityIncoming Priority = iota
	// PriorityDiscovered marks albums found while walking artist catalogs.
	PriorityDiscovered
)

// String returns the lowercase name used in the API and in logs.
func (p Priority) String() string {
	switch p {
	case PriorityIncoming:
		return "incoming"
	case PriorityDiscovered:
		return "discovered"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// ParsePriority converts an API-level priority name. The empty string maps to
// PriorityIncoming, matching the submission default.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "", "incoming":
		return PriorityIncoming, nil
	case "discovered":
		return PriorityDiscovered, nil
	default:
		return 0, fmt.Errorf("unknown priority %q", s)
	}
}

// WorkItem is one pending album lookup. Immutable once created; dedup
// identity is the AlbumID alone.
type WorkItem struct {
	Priority Priority
	AlbumID  string
}

// Artist identifies a catalog contributor referenced by an album or track.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Track is one entry of an album's track listing.
type Track struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	TrackNumber int      `json:"track_number"`
	DurationMS  int      `json:"duration_ms"`
	Artists     []Artist `json:"artists"`
}

// Album is the catalog entry persisted by the pipeline. Tracks holds the
// fully paginated listing once the pipeline has walked every page.
type Album struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	AlbumType   string   `json:"album_type"`
	ReleaseDate string   `json:"release_date"`
	TotalTracks int      `json:"total_tracks"`
	Artists     []Artist `json:"artists"`
	Tracks      []Track  `json:"tracks,omitempty"`
}

// AlbumRecord is the durable-store row for one album. Upserts overwrite
// Payload, LastRefresh and ExpiresAt unconditionally; last write wins.
type AlbumRecord struct {
	AlbumID     string
	Payload     []byte
	LastRefresh time.Time
	ExpiresAt   time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }
