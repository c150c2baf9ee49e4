// Package activity builds and persists typed activity records against the
// record store.
package activity

import "airsync_server/core/domain"

// Score returns the fixed intent weight attached to every engagement
// record. The weighting model is deliberately non-configurable.
func Score(t domain.ActivityType) int {
	switch t {
	case domain.ActivityEventEntry:
		return 10
	case domain.ActivityCTAClick:
		return 25
	default:
		return 0
	}
}
