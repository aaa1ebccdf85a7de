package models

// CacheStatusResponse reports whether a date's snapshot is already stored.
// swagger:model CacheStatusResponse
type CacheStatusResponse struct {
	// Requested date
	// example: 2025-08-29
	Date string `json:"date"`

	// Whether a snapshot exists for the date
	IsCached bool `json:"is_cached"`

	// Number of cached records, present only when is_cached is true
	CachedCount *int `json:"cached_count,omitempty"`

	// Where a lookup for this date would be served from
	// example: database
	CacheSource string `json:"cache_source"`
}

// CleanupResponse confirms an on-demand retention sweep.
// swagger:model CleanupResponse
type CleanupResponse struct {
	// Confirmation message
	// example: Cache cleanup completed
	Message string `json:"message"`

	// Retention window that was applied
	// example: 30
	DaysKept int `json:"days_kept"`
}
