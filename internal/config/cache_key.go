package config

import (
	"fmt"
	"time"
)

// ResultCacheTTL bounds how long a cached session summary lives in Redis.
// Shared by the result read-through and the summary worker so the two
// writers cannot drift.
const ResultCacheTTL = time.Hour

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// GroupPayloadKey returns the cache key for a question group's user-facing
// question payloads (correctness stripped).
func (r *CacheKeyStruct) GroupPayloadKey(groupID string) string {
	return fmt.Sprintf("group:%s:payload", groupID)
}

// SessionResultKey returns the cache key for a finished session's summary.
func (r *CacheKeyStruct) SessionResultKey(sessionID string) string {
	return fmt.Sprintf("exam:session:%s:result", sessionID)
}

var CacheKey = NewCacheKeyStruct()
