package persistence

import "time"

// =============================================================================
// Helper functions
// =============================================================================

func toNullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func toNullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
