package pairing

import (
	apperrors "github.com/vendpair/vendpair-go/internal/errors"
	"github.com/vendpair/vendpair-go/internal/model"
)

// ResolveTodayPair picks the caller's pair for today out of a week of
// history entries. At most one entry may match; more than one means the
// store no longer satisfies the one-pair-per-day rule. The first match
// stays authoritative so callers keep gating submissions, but the anomaly
// is returned alongside it rather than swallowed.
func ResolveTodayPair(entries []model.HistoryEntry, today string) (*model.HistoryEntry, error) {
	var found *model.HistoryEntry
	for i := range entries {
		if entries[i].PairDate != today {
			continue
		}
		if found != nil {
			return found, apperrors.ConsistencyViolation("multiple pairs recorded for today")
		}
		found = &entries[i]
	}
	return found, nil
}
