package store

import (
	"slices"

	"github.com/johndosdos/chatrooms/internal/model"
)

// SortByTimestamp orders msgs ascending by timestamp, keeping the relative
// order of equal timestamps.
func SortByTimestamp(msgs []model.Message) {
	slices.SortStableFunc(msgs, func(a, b model.Message) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
}
