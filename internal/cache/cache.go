// Package cache provides the identity-scoped local profile cache. It plays
// the role browser localStorage plays for the web client: a synchronous,
// always-available copy of the profile the UI can fall back on when the
// remote store is unreachable.
package cache

import "finresolve/internal/models"

const keyPrefix = "finresolve-profile-"

// Key returns the cache key for a user identity. The empty identity maps
// to a fixed anonymous bucket so unauthenticated sessions never read
// another account's data.
func Key(userID string) string {
	if userID == "" {
		return keyPrefix + "anonymous"
	}
	return keyPrefix + userID
}

// Cache stores one profile per key. A missing or unreadable entry is a
// miss, never an error the caller has to branch on.
type Cache interface {
	// Get returns the cached profile for the key and whether one was found.
	Get(key string) (models.Profile, bool)

	// Set stores the profile under the key, replacing any prior entry.
	Set(key string, profile models.Profile) error

	// Remove deletes the entry for the key. Removing a missing key is a no-op.
	Remove(key string) error
}
