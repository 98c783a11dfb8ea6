package models

import (
	"time"
)

// CacheEntry is a row in the database cache fallback used when Redis is not
// configured. Rate limit counters, cached Spotify and GitHub responses, and
// session lookups all land here. Expired rows are swept by the maintenance
// cleaner rather than on read.
type CacheEntry struct {
	Key       string    `gorm:"primaryKey;size:256"`
	Value     []byte    `gorm:"type:blob"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
