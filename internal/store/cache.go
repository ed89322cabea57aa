package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/blackwell-systems/gitrate/internal/model"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// GetCachedSnapshot returns the snapshot stored under key, or nil if none
// exists.
func (db *DB) GetCachedSnapshot(key string) (*model.Snapshot, error) {
	var payload []byte
	err := db.conn.QueryRow("SELECT payload FROM snapshot_cache WHERE cache_key = ?", key).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap model.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("decoding cached snapshot %s: %w", key, err)
	}
	return &snap, nil
}

// PutCachedSnapshot stores snap under key, replacing any previous entry.
func (db *DB) PutCachedSnapshot(key string, snap *model.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot %s: %w", key, err)
	}
	_, err = db.conn.Exec(
		`INSERT INTO snapshot_cache (cache_key, full_name, fetched_at, payload) VALUES (?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET full_name = excluded.full_name,
		   fetched_at = excluded.fetched_at, payload = excluded.payload`,
		key, snap.Profile.FullName, snap.FetchedAt.UTC().Format(timeLayout), payload,
	)
	return err
}

// ListCachedSnapshots returns all cache entries, newest first.
func (db *DB) ListCachedSnapshots() ([]CacheEntry, error) {
	rows, err := db.conn.Query(
		"SELECT cache_key, full_name, fetched_at, length(payload) FROM snapshot_cache ORDER BY fetched_at DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []CacheEntry
	for rows.Next() {
		var e CacheEntry
		var fetchedAt string
		if err := rows.Scan(&e.Key, &e.FullName, &fetchedAt, &e.Bytes); err != nil {
			return nil, err
		}
		// Rows written by hand or by older builds may lack a zone; those are UTC.
		if t := model.ParseTimestamp(fetchedAt); t != nil {
			e.FetchedAt = *t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteCachedSnapshot removes one entry. Deleting a missing key is not an
// error.
func (db *DB) DeleteCachedSnapshot(key string) error {
	_, err := db.conn.Exec("DELETE FROM snapshot_cache WHERE cache_key = ?", key)
	return err
}

// ClearCache removes every entry and returns how many were deleted.
func (db *DB) ClearCache() (int64, error) {
	res, err := db.conn.Exec("DELETE FROM snapshot_cache")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PruneCache removes entries fetched before cutoff.
func (db *DB) PruneCache(cutoff time.Time) (int64, error) {
	res, err := db.conn.Exec(
		"DELETE FROM snapshot_cache WHERE fetched_at < ?",
		cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
