package reliability

import (
	"github.com/plati-tools/platiscout/internal/types"
)

// FromReviews derives the reliability snapshot from raw seller review
// counts. The positive ratio is good/(good+bad); sellers with no
// scored reviews get 0.0, the conservative default that fails any
// non-zero reliability threshold.
func FromReviews(total, good, bad int) types.ReliabilitySnapshot {
	ratio := 0.0
	if good+bad > 0 {
		ratio = float64(good) / float64(good+bad)
	}
	return types.ReliabilitySnapshot{
		ReviewCount:   total,
		PositiveRatio: ratio,
		Good:          good,
		Bad:           bad,
	}
}

// PassesGate reports whether a seller clears the caller's reliability
// thresholds. The gate excludes the whole lot, regardless of price.
func PassesGate(s types.ReliabilitySnapshot, minReviews int, minPositiveRatio float64) bool {
	if s.ReviewCount < minReviews {
		return false
	}
	if s.PositiveRatio < minPositiveRatio {
		return false
	}
	return true
}

// MoreReliable is the reliability_desc ordering: positive ratio
// descending, review count descending, then lot id ascending so that
// equal sellers always resolve the same way.
func MoreReliable(a, b types.ReliabilitySnapshot, aLotID, bLotID int64) bool {
	if a.PositiveRatio != b.PositiveRatio {
		return a.PositiveRatio > b.PositiveRatio
	}
	if a.ReviewCount != b.ReviewCount {
		return a.ReviewCount > b.ReviewCount
	}
	return aLotID < bLotID
}
