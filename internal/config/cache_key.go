package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SessionStartKey returns the cache key for a session's start timestamp.
// The value is the started_at unix time, mirrored from PostgreSQL so the
// state endpoint can compute elapsed time without a DB round trip.
func (r *CacheKeyStruct) SessionStartKey(sessionToken string) string {
	return fmt.Sprintf("session:%s:start", sessionToken)
}

// SessionDraftsKey returns the cache key for a session's autosaved draft
// answers (a hash of question number -> answer text).
func (r *CacheKeyStruct) SessionDraftsKey(sessionToken string) string {
	return fmt.Sprintf("session:%s:drafts", sessionToken)
}

var CacheKey = NewCacheKeyStruct()
