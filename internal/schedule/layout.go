package schedule

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// TimedEvent is the minimal shape the layout engine works on.
type TimedEvent struct {
	ID    uuid.UUID
	Title string
	Start time.Time
	End   time.Time
}

// PositionedEvent is a TimedEvent with its assigned column and the
// total column count of its overlap group. Render-only: recomputed on
// every layout pass, never persisted.
type PositionedEvent struct {
	TimedEvent
	Column  int
	Columns int
}

// Overlaps reports whether two half-open time ranges intersect.
func (e TimedEvent) Overlaps(other TimedEvent) bool {
	return e.Start.Before(other.End) && other.Start.Before(e.End)
}

// LayoutDay positions the events that touch the given calendar day into
// non-overlapping columns for side-by-side rendering.
func LayoutDay(events []TimedEvent, day time.Time) []PositionedEvent {
	windowStart := DayOf(day)
	return LayoutWindow(events, windowStart, windowStart.AddDate(0, 0, 1))
}

// LayoutWindow partitions the events overlapping [windowStart,
// windowEnd) into minimal side-by-side columns: events are taken in
// start-time order (stable on input order) and each is placed in the
// leftmost column whose latest event has already ended, opening a new
// column otherwise. Events that never overlap each other, even
// transitively, form separate overlap groups; Columns is the column
// count of the event's own group, so the group's width equals its peak
// simultaneous-event count. Deterministic for a given input order.
func LayoutWindow(events []TimedEvent, windowStart, windowEnd time.Time) []PositionedEvent {
	filtered := make([]TimedEvent, 0, len(events))
	for _, ev := range events {
		if ev.Start.Before(windowEnd) && windowStart.Before(ev.End) {
			filtered = append(filtered, ev)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Start.Before(filtered[j].Start)
	})

	var positioned []PositionedEvent

	// Each cluster of transitively overlapping events is laid out on
	// its own set of columns. A cluster ends when the next event starts
	// at or after everything placed so far has ended.
	var cluster []TimedEvent
	var clusterEnd time.Time

	flush := func() {
		if len(cluster) > 0 {
			positioned = append(positioned, layoutCluster(cluster)...)
			cluster = nil
		}
	}

	for _, ev := range filtered {
		if len(cluster) > 0 && !ev.Start.Before(clusterEnd) {
			flush()
		}
		cluster = append(cluster, ev)
		if ev.End.After(clusterEnd) {
			clusterEnd = ev.End
		}
	}
	flush()

	return positioned
}

// layoutCluster greedily colors one overlap group. Within a column the
// events are in start order and non-overlapping, so only the last one
// can still be running; checking it alone is enough.
func layoutCluster(cluster []TimedEvent) []PositionedEvent {
	var columns [][]TimedEvent
	colOf := make([]int, len(cluster))

	for i, ev := range cluster {
		placed := false
		for c := range columns {
			last := columns[c][len(columns[c])-1]
			if !last.Overlaps(ev) {
				columns[c] = append(columns[c], ev)
				colOf[i] = c
				placed = true
				break
			}
		}
		if !placed {
			columns = append(columns, []TimedEvent{ev})
			colOf[i] = len(columns) - 1
		}
	}

	out := make([]PositionedEvent, len(cluster))
	for i, ev := range cluster {
		out[i] = PositionedEvent{
			TimedEvent: ev,
			Column:     colOf[i],
			Columns:    len(columns),
		}
	}
	return out
}
