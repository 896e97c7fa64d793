package reconcile

import (
	"log/slog"

	"github.com/vietddude/legisync/internal/metrics"
)

// dedupe keeps the last record for each key, at the position of the first
// occurrence, so one batch never violates its own uniqueness constraint.
func dedupe[T any, K comparable](log *slog.Logger, entity string, items []T, key func(T) K) []T {
	index := make(map[K]int, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if i, ok := index[k]; ok {
			out[i] = item
			continue
		}
		index[k] = len(out)
		out = append(out, item)
	}

	if dropped := len(items) - len(out); dropped > 0 {
		log.Warn("Dropped duplicate records", "entity", entity, "count", dropped)
		metrics.RowsDropped.WithLabelValues(entity, "duplicate").Add(float64(dropped))
	}
	return out
}

// dropOrphans keeps the records whose references resolve.
func dropOrphans[T any](log *slog.Logger, entity string, items []T, resolves func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if resolves(item) {
			out = append(out, item)
		}
	}

	if dropped := len(items) - len(out); dropped > 0 {
		log.Warn("Dropped records with unknown references", "entity", entity, "count", dropped)
		metrics.RowsDropped.WithLabelValues(entity, "orphan").Add(float64(dropped))
	}
	return out
}
