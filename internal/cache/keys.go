package cache

import "fmt"

// Key builders. All cache keys go through these so invalidation is tied to the
// entity that changed instead of string pattern matching.

// ProfileKey caches a profile by numeric id.
func ProfileKey(profileID uint) string {
	return fmt.Sprintf("profile:id:%d", profileID)
}

// ProfileAuthKey caches the auth-id to profile mapping.
func ProfileAuthKey(authID string) string {
	return fmt.Sprintf("profile:auth:%s", authID)
}

// RequestKey caches a verdict request by id.
func RequestKey(requestID uint) string {
	return fmt.Sprintf("request:id:%d", requestID)
}

// EarningsSummaryKey caches a judge's earnings summary.
func EarningsSummaryKey(judgeID uint) string {
	return fmt.Sprintf("earnings:summary:%d", judgeID)
}
