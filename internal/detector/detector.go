// Package detector diffs a freshly fetched disruption batch against the
// stored snapshot and classifies every transition as created, updated or
// closed. It performs no I/O: given the same inputs it produces the same
// events and staged writes, which is what makes re-running a pipeline on an
// unchanged feed a no-op.
package detector

import (
	"sort"
	"time"

	"github.com/jhrabal/linewatch/internal/model"
)

// Result carries the classified events of one run plus the records that must
// be persisted for stored state to catch up with the feed. Events are ordered
// created, updated, closed; created and updated keep fetch order, closed are
// sorted by id.
type Result struct {
	Events []model.ChangeEvent
	Writes []model.Disruption
}

// Diff compares the fetched batch (current truth) with the stored snapshot.
// The caller must not invoke it on a failed fetch: an empty batch is taken at
// face value and closes every active stored disruption.
func Diff(now time.Time, fetched []model.Disruption, stored map[string]model.Disruption) Result {
	fetched = dedupeByID(fetched)

	var created, updated, closed []model.ChangeEvent

	seen := make(map[string]struct{}, len(fetched))
	for _, f := range fetched {
		seen[f.ID] = struct{}{}

		s, ok := stored[f.ID]
		if !ok {
			created = append(created, model.ChangeEvent{
				Kind:   model.EventCreated,
				Record: f,
			})
			continue
		}
		if s.ContentEquals(f) {
			continue
		}
		prev := s
		updated = append(updated, model.ChangeEvent{
			Kind:     model.EventUpdated,
			Record:   model.Merge(s, f),
			Previous: &prev,
		})
	}

	// Disappearance from the feed means the disruption ended. Already
	// inactive records are left alone.
	for id, s := range stored {
		if !s.Active {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		prev := s
		ended := s
		ended.Active = false
		if ended.EndTime == nil {
			t := now
			ended.EndTime = &t
		}
		closed = append(closed, model.ChangeEvent{
			Kind:     model.EventClosed,
			Record:   ended,
			Previous: &prev,
		})
	}
	sort.Slice(closed, func(i, j int) bool {
		return closed[i].Record.ID < closed[j].Record.ID
	})

	events := make([]model.ChangeEvent, 0, len(created)+len(updated)+len(closed))
	events = append(events, created...)
	events = append(events, updated...)
	events = append(events, closed...)

	writes := make([]model.Disruption, 0, len(events))
	for _, ev := range events {
		writes = append(writes, ev.Record)
	}

	return Result{Events: events, Writes: writes}
}

// dedupeByID keeps the last occurrence of every id, the feed being
// authoritative per id.
func dedupeByID(batch []model.Disruption) []model.Disruption {
	seen := make(map[string]struct{}, len(batch))
	out := make([]model.Disruption, 0, len(batch))
	for i := len(batch) - 1; i >= 0; i-- {
		if _, ok := seen[batch[i].ID]; ok {
			continue
		}
		seen[batch[i].ID] = struct{}{}
		out = append(out, batch[i])
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
