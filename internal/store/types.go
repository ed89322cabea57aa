// Package store provides SQLite persistence for fetched repository snapshots.
package store

import "time"

// CacheEntry describes one cached snapshot without its payload.
type CacheEntry struct {
	Key       string    `json:"key"`
	FullName  string    `json:"full_name"`
	FetchedAt time.Time `json:"fetched_at"`
	Bytes     int       `json:"bytes"`
}
